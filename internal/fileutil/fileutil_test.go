package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/lepinkainen/olcatalog/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeString(s string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

func TestFileExists(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("a.csv", "x")

	assert.True(t, FileExists(env.Path("a.csv")))
	assert.False(t, FileExists(env.Path("b.csv")))
	assert.False(t, FileExists(env.RootDir()), "directories are not files")
}

func TestWriteAtomic(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("out", "authors.csv")

	require.NoError(t, WriteAtomic(path, writeString("author_id\n")))
	assert.Equal(t, "author_id\n", env.ReadFileString("out/authors.csv"))
	assert.Equal(t, []string{"authors.csv"}, env.ListFiles("out"), "no temp files left behind")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestStageFailureLeavesDestinationUntouched(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("books.csv", "old")

	err := WriteAtomic(env.Path("books.csv"), func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return errors.New("disk full")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, "old", env.ReadFileString("books.csv"))
	assert.Equal(t, []string{"books.csv"}, env.ListFiles("."))
}

func TestCommitAll(t *testing.T) {
	env := testutil.NewTestEnv(t)
	a, b := env.Path("a.csv"), env.Path("b.csv")

	require.NoError(t, CommitAll(map[string]func(io.Writer) error{
		a: writeString("A"),
		b: writeString("B"),
	}, []string{a, b}))

	assert.Equal(t, "A", env.ReadFileString("a.csv"))
	assert.Equal(t, "B", env.ReadFileString("b.csv"))
}

func TestCommitAllIsAllOrNothingOnWriteFailure(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("a.csv", "old A")
	env.WriteFileString("b.csv", "old B")
	a, b := env.Path("a.csv"), env.Path("b.csv")

	err := CommitAll(map[string]func(io.Writer) error{
		a: writeString("new A"),
		b: func(io.Writer) error { return fmt.Errorf("encode failed") },
	}, []string{a, b})
	require.Error(t, err)

	assert.Equal(t, "old A", env.ReadFileString("a.csv"))
	assert.Equal(t, "old B", env.ReadFileString("b.csv"))
	assert.Equal(t, []string{"a.csv", "b.csv"}, env.ListFiles("."))
}
