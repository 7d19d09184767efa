package staticfiles

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedAssets(t *testing.T) {
	assets := EmbeddedFS()
	for _, name := range []string{"index.html", "css/app.css", "js/app.js"} {
		_, err := fs.Stat(assets, name)
		assert.NoError(t, err, name)
	}
}

func TestValueDialogValidatesBeforePosting(t *testing.T) {
	script, err := fs.ReadFile(EmbeddedFS(), "js/app.js")
	require.NoError(t, err)
	js := string(script)

	assert.NotContains(t, js, `Number(document.getElementById("value-input").value)`,
		"an empty field must not be coerced to 0")
	assert.Contains(t, js, "const parseValue")
	assert.Contains(t, js, "if (value === null)")
	assert.Contains(t, js, "MIN_VALUE = -100000")
	assert.Contains(t, js, "MAX_VALUE = 100000")

	i := strings.Index(js, "if (value === null)")
	j := strings.Index(js, "save(`/api/tasks/${t.id}/value`")
	require.True(t, i >= 0 && j >= 0)
	assert.Less(t, i, j, "validation must run before the value is posted")
}
