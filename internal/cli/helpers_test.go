package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toyz/mergeme/internal/logging"
	"github.com/toyz/mergeme/internal/utils"
)

const personSource = `package people

// Person is somebody we know.
//
//mergeme:partial(PartialPerson)
type Person struct {
	Name string
	Age  uint16

	//mergeme:strategy(append)
	Friends []string
}
`

const goMod = "module example.com/people\n\ngo 1.22\n\nrequire github.com/toyz/mergeme v0.1.0\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// chdir switches to dir for the duration of the test
func chdir(t *testing.T, dir string) {
	t.Helper()
	previous, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(previous) })
}

type testOutput struct {
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	reports bytes.Buffer
}

func newTestRunner(t *testing.T, cfg *Config) (*Runner, *testOutput) {
	t.Helper()
	out := &testOutput{}

	diagnostics := utils.NewDiagnosticSystem(utils.DiagnosticDebug)
	diagnostics.SetOutput(&out.stdout, &out.stderr)
	diagnostics.SetColors(false)

	reporter := NewDiagnosticReporter(false)
	reporter.SetOutput(&out.reports)
	reporter.SetColors(false)

	return NewRunner(cfg, diagnostics, reporter, logging.Discard()), out
}
