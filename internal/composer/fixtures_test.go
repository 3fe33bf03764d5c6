package composer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSchemaJSON = `{
  "schema_version": "1.0",
  "assembly": {
    "order": ["composition", "subject", "lighting"],
    "separator": ", ",
    "break_after": [2]
  },
  "weights": {"subject": 1.5, "lighting": 1.2},
  "models": {
    "sdxl": {"weights": true, "multiplier": 1.0},
    "flux": {"weights": false},
    "boosted": {"weights": true, "multiplier": 2.0, "format": "[{text}]{weight}"}
  },
  "blocks": {
    "subject": {"addon_enabled": true, "addon_merge_mode": "inline_append"},
    "lighting": {"addon_enabled": true, "addon_merge_mode": "overlay"}
  },
  "intent_flags": {
    "photoreal": {"default": "true"},
    "nsfw": {"default": "false"}
  }
}`

const testLibraryJSON = `{
  "blocks": {
    "composition": {"wide_shot": "wide shot", "close_up": "close-up", "None": "should never appear"},
    "subject": {"cat": "a cat", "dog": "a dog", "empty": ""},
    "lighting": {"golden_hour": "golden hour light"}
  }
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// newTestComposer writes the fixture schema and a "default" library to a
// temp dir and loads them.
func newTestComposer(t *testing.T) *Composer {
	t.Helper()
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema", "connector.json")
	writeFile(t, schemaPath, testSchemaJSON)
	writeFile(t, filepath.Join(dir, "libraries", "default.json"), testLibraryJSON)

	c, err := New(schemaPath, filepath.Join(dir, "libraries"))
	require.NoError(t, err)
	return c
}

func floatPtr(f float64) *float64 { return &f }
