package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/mergeme/internal/errors"
	"github.com/toyz/mergeme/internal/utils"
)

func TestModuleChecker(t *testing.T) {
	tests := []struct {
		name        string
		goMod       string
		usesRuntime bool
		warnings    int
		err         string
	}{
		{"requires runtime", goMod, true, 0, ""},
		{"runtime not needed", "module example.com/people\n\ngo 1.22\n", false, 0, ""},
		{"runtime missing", "module example.com/people\n\ngo 1.22\n", true, 1, ""},
		{"runtime module itself", "module github.com/toyz/mergeme\n\ngo 1.25\n", true, 0, ""},
		{"too old", "module example.com/people\n\ngo 1.17\n", false, 0, "older than go 1.18"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, filepath.Join(root, "go.mod"), tt.goMod)
			writeFile(t, filepath.Join(root, "people", "person.go"), personSource)

			checker := NewModuleChecker(utils.NewGoModParser(utils.NewFileReader()))
			report, err := checker.Check(filepath.Join(root, "people"), tt.usesRuntime)

			if tt.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.err)
				assert.Equal(t, errors.ModuleErrorCode, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			require.NotNil(t, report.Module)
			assert.Len(t, report.Warnings, tt.warnings)
		})
	}
}

func TestModuleCheckerInvalidGoMod(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "go 1.22\n")

	_, err := NewModuleChecker(utils.NewGoModParser(utils.NewFileReader())).Check(root, false)
	require.Error(t, err)
	assert.Equal(t, errors.ModuleErrorCode, errors.CodeOf(err))
}
