package tablestore

import (
	"testing"

	"github.com/lepinkainen/olcatalog/internal/catalog"
	"github.com/lepinkainen/olcatalog/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	authorsCSV = "author_id,author_key,name,book_count\n" +
		"1,OL24529A,Anna Sewell,1\n" +
		"2,OL29499A,\"Farley, Walter\",1\n"
	booksCSV = "book_id,handle,title,author_id,author_key,vendor,price,first_publish_year,edition_count,url\n" +
		"1,black-beauty,Black Beauty,1,OL24529A,Open Library,50.00,1877,742,https://openlibrary.org/works/OL45804W\n" +
		"2,the-black-stallion,The Black Stallion,2,OL29499A,Open Library,10.00,,0,https://openlibrary.org/works/OL102749W\n"
	subjectsCSV = "book_id,subject\n" +
		"1,Horses\n" +
		"1,\"Fiction, juvenile\"\n" +
		"2,Horses\n"
)

func yearPtr(y int) *int { return &y }

func TestLoadMissingDirectoryIsEmpty(t *testing.T) {
	env := testutil.NewTestEnv(t)
	store := New(env.Path("nothing-here"))

	tables, report, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, tables.Authors)
	assert.Empty(t, tables.Books)
	assert.Empty(t, tables.Subjects)
	assert.Equal(t, []string{AuthorsFile, BooksFile, BookSubjectsFile}, report.MissingFiles)
}

func TestLoadParsesAllTables(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString(AuthorsFile, authorsCSV)
	env.WriteFileString(BooksFile, booksCSV)
	env.WriteFileString(BookSubjectsFile, subjectsCSV)

	tables, report, err := New(env.RootDir()).Load()
	require.NoError(t, err)

	assert.Equal(t, LoadReport{Authors: 2, Books: 2, Subjects: 3, MaxAuthorID: 2, MaxBookID: 2}, report)
	assert.Equal(t, catalog.Author{AuthorID: 2, AuthorKey: "OL29499A", Name: "Farley, Walter", BookCount: 1}, tables.Authors[1])

	beauty := tables.Books[0]
	assert.Equal(t, 1, beauty.BookID)
	assert.Equal(t, "black-beauty", beauty.Handle)
	assert.Equal(t, yearPtr(1877), beauty.FirstPublishYear)
	assert.Equal(t, 742, beauty.EditionCount)
	assert.True(t, decimal.RequireFromString("50").Equal(beauty.Price))
	assert.Equal(t, "/works/OL45804W", beauty.WorkKey())

	assert.Nil(t, tables.Books[1].FirstPublishYear)
	assert.Equal(t, catalog.BookSubject{BookID: 1, Subject: "Fiction, juvenile"}, tables.Subjects[1])
	assert.Empty(t, tables.Verify())
}

func TestLoadSkipsMalformedRows(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString(AuthorsFile, "author_id,author_key,name,book_count\n"+
		"1,OL1A,One,0\n"+
		"x,OL2A,Bad id,0\n"+
		"3,,No key,0\n"+
		"4,OL4A,Bad count,-1\n"+
		"5,OL5A,Too,many,fields\n")
	env.WriteFileString(BooksFile, "book_id,handle,title,author_id,author_key,vendor,price,first_publish_year,edition_count,url\n"+
		"1,t,T,1,OL1A,Open Library,ten,,0,https://openlibrary.org/works/OL1W\n"+
		"2,t,T,1,OL1A,Open Library,10.00,someday,0,https://openlibrary.org/works/OL2W\n")
	env.WriteFileString(BookSubjectsFile, "book_id,subject\n0,Zero\n1,\n")

	tables, report, err := New(env.RootDir()).Load()
	require.NoError(t, err)

	require.Len(t, tables.Authors, 1)
	assert.Equal(t, "OL1A", tables.Authors[0].AuthorKey)
	assert.Empty(t, tables.Books)
	assert.Empty(t, tables.Subjects)
	assert.Equal(t, 8, report.SkippedRows)
	assert.Equal(t, 5, report.MaxAuthorID)
	assert.Equal(t, 2, report.MaxBookID)
}

func TestLoadIDFloorCountsSkippedAndDanglingRows(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString(AuthorsFile, "author_id,author_key,name,book_count\n"+
		"1,OL1A,One,1\n"+
		"7,OL7A,Seven,-1\n"+
		"\"9,OL9A,Unclosed\n")
	env.WriteFileString(BooksFile, "book_id,handle,title,author_id,author_key,vendor,price,first_publish_year,edition_count,url\n"+
		"1,one,One,1,OL1A,Open Library,10.00,,0,https://openlibrary.org/works/OL1W\n"+
		"4,four,Four,7,OL7A,Open Library,ten,,0,https://openlibrary.org/works/OL4W\n")
	env.WriteFileString(BookSubjectsFile, "book_id,subject\n1,Horses\n6,Orphan\n")

	_, report, err := New(env.RootDir()).Load()
	require.NoError(t, err)

	assert.Equal(t, 1, report.Authors)
	assert.Equal(t, 1, report.Books)
	assert.Equal(t, 7, report.MaxAuthorID)
	assert.Equal(t, 6, report.MaxBookID)
}

func TestSaveKeepsSkippedRowsInPlace(t *testing.T) {
	env := testutil.NewTestEnv(t)
	authors := "author_id,author_key,name,book_count\n" +
		"1,OL1A,One,1\n" +
		"2,OL2A,Two,-1\n" +
		"3,OL3A,Bad \"quote\",0\n" +
		"4,OL4A,Four,1\n"
	env.WriteFileString(AuthorsFile, authors)

	store := New(env.RootDir())
	tables, report, err := store.Load()
	require.NoError(t, err)
	require.Len(t, tables.Authors, 2)
	assert.Equal(t, 2, report.SkippedRows)

	tables.Authors = append(tables.Authors, catalog.Author{AuthorID: 5, AuthorKey: "OL5A", Name: "Five", BookCount: 1})
	require.NoError(t, store.Save(tables))

	assert.Equal(t, authors+"5,OL5A,Five,1\n", env.ReadFileString(AuthorsFile))

	// Saving again from a fresh load keeps the same bytes.
	store = New(env.RootDir())
	tables, _, err = store.Load()
	require.NoError(t, err)
	require.NoError(t, store.Save(tables))
	assert.Equal(t, authors+"5,OL5A,Five,1\n", env.ReadFileString(AuthorsFile))
}

func TestLoadHeaderOnlyFiles(t *testing.T) {
	env := testutil.NewTestEnv(t)
	store := New(env.RootDir())
	require.NoError(t, store.Save(catalog.Tables{}))

	assert.Equal(t, "author_id,author_key,name,book_count\n", env.ReadFileString(AuthorsFile))
	assert.Equal(t, "book_id,subject\n", env.ReadFileString(BookSubjectsFile))

	tables, report, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, tables.Authors)
	assert.Empty(t, report.MissingFiles)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString(AuthorsFile, authorsCSV)
	env.WriteFileString(BooksFile, booksCSV)
	env.WriteFileString(BookSubjectsFile, subjectsCSV)

	store := New(env.RootDir())
	tables, _, err := store.Load()
	require.NoError(t, err)
	require.NoError(t, store.Save(tables))

	assert.Equal(t, authorsCSV, env.ReadFileString(AuthorsFile))
	assert.Equal(t, booksCSV, env.ReadFileString(BooksFile))
	assert.Equal(t, subjectsCSV, env.ReadFileString(BookSubjectsFile))
	assert.Equal(t, []string{AuthorsFile, BookSubjectsFile, BooksFile}, env.ListFiles("."))
}

func TestSaveWritesTwoDecimalPrices(t *testing.T) {
	env := testutil.NewTestEnv(t)
	store := New(env.Path("out"))

	err := store.Save(catalog.Tables{
		Authors: []catalog.Author{{AuthorID: 1, AuthorKey: "OL1A", Name: "A", BookCount: 1}},
		Books: []catalog.Book{{
			BookID: 1, Handle: "t", Title: "T", AuthorID: 1, AuthorKey: "OL1A",
			Vendor: catalog.Vendor, Price: decimal.NewFromInt(18), EditionCount: 2,
			URL: catalog.WorkURL("/works/OL1W"),
		}},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"book_id,handle,title,author_id,author_key,vendor,price,first_publish_year,edition_count,url\n"+
			"1,t,T,1,OL1A,Open Library,18.00,,2,https://openlibrary.org/works/OL1W\n",
		env.ReadFileString("out/"+BooksFile))
}
