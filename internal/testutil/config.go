package testutil

import (
	"testing"

	"github.com/spf13/viper"
)

// ResetViper clears the global viper state before and after a test.
func ResetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}
