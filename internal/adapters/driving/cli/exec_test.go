package cli

import (
	"bytes"
	"testing"
)

// execCLI runs the root command with the given arguments and returns
// the combined output. Arguments are reset afterwards so tests do not
// leak into each other.
func execCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// restore arranges for a package-level variable, typically one of the
// wired services, to be put back when the test finishes.
func restore[T any](t *testing.T, target *T) {
	t.Helper()

	old := *target
	t.Cleanup(func() { *target = old })
}
