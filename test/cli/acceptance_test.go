// Package acceptance runs CLI workflows through testscript. Only commands
// that work offline are covered here; anything that needs a Docker daemon
// or a cluster belongs in package-level tests with fakes.
//
// Run with: go test ./test/cli/...
package acceptance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/schmitthub/gantry/internal/gantry"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"gantry": gantry.Main,
	}))
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(e *testscript.Env) error {
			// Keep state (logs, locks) inside the script's work dir.
			e.Setenv("GANTRY_HOME", filepath.Join(e.WorkDir, ".gantry-home"))
			e.Setenv("NO_COLOR", "1")
			return nil
		},
	})
}
