package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteTemplate(t *testing.T) {
	out, err := executeTemplate("test", "{{comment .Line}} {{rawString .Tag}}", map[string]string{
		"Line": "hello",
		"Tag":  `json:"x"`,
	})
	require.NoError(t, err)
	assert.Equal(t, "// hello `json:\"x\"`", out)

	_, err = executeTemplate("broken", "{{.Missing", nil)
	assert.ErrorContains(t, err, "failed to parse template broken")
}

func TestComment(t *testing.T) {
	assert.Equal(t, "//", comment(""))
	assert.Equal(t, "//", comment("   "))
	assert.Equal(t, "// text", comment("text"))
}
