package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoModParser(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), `module example.com/people

go 1.22

require (
	github.com/toyz/mergeme v0.1.0
	gopkg.in/yaml.v3 v3.0.1
)
`)
	writeFile(t, filepath.Join(root, "internal", "people", "person.go"), "package people\n")

	parser := NewGoModParser(NewFileReader())

	info, err := parser.FindModule(filepath.Join(root, "internal", "people"))
	require.NoError(t, err)
	assert.Equal(t, "example.com/people", info.Path)
	assert.Equal(t, "1.22", info.GoVersion)
	assert.True(t, info.SupportsGenerics())
	assert.True(t, info.RequiresModule("github.com/toyz/mergeme"))
	assert.False(t, info.RequiresModule("github.com/other/module"))
}

func TestModuleInfoSupportsGenerics(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"", true},
		{"1.17", false},
		{"1.18", true},
		{"1.21.4", true},
		{"garbage", true},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			info := &ModuleInfo{GoVersion: tt.version}
			assert.Equal(t, tt.want, info.SupportsGenerics())
		})
	}
}

func TestGoModParserErrors(t *testing.T) {
	root := t.TempDir()
	parser := NewGoModParser(NewFileReader())

	_, err := parser.Parse(filepath.Join(root, "mod.txt"))
	assert.ErrorContains(t, err, "not a go.mod file")

	writeFile(t, filepath.Join(root, "go.mod"), "go 1.21\n")
	_, err = parser.Parse(filepath.Join(root, "go.mod"))
	assert.ErrorContains(t, err, "no module declaration")
}
