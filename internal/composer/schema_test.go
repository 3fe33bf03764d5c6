package composer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSchemaJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connector.json")
	writeFile(t, path, testSchemaJSON)

	s, err := LoadSchema(path)
	require.NoError(t, err)
	assert.Equal(t, Version("1.0"), s.SchemaVersion)
	assert.Equal(t, []string{"composition", "subject", "lighting"}, s.Assembly.Order)
	assert.Equal(t, ", ", s.Assembly.Separator)
	assert.True(t, s.BreaksAfter(2))
	assert.False(t, s.BreaksAfter(1))
	assert.Equal(t, 1.5, s.Weight("subject"))
	assert.Equal(t, 1.0, s.Weight("composition"))
	assert.True(t, s.Block("subject").AddonEnabled)
	assert.Equal(t, MergeInlineAppend, s.Block("subject").AddonMergeMode)
	assert.Equal(t, map[string]string{"photoreal": "true", "nsfw": "false"}, s.DefaultIntentFlags())
	assert.False(t, s.Model("missing").Weights)
}

func TestLoadSchemaYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connector.yaml")
	writeFile(t, path, `schema_version: 2
assembly:
  order: [subject, lighting]
  separator: " | "
  break_after: [1]
weights:
  subject: 1.3
models:
  sdxl:
    weights: true
    multiplier: 1.1
intent_flags:
  cinematic: true
  style:
    default: moody
    description: overall tone
provenance:
  enabled: true
  comment: "# modprompt"
`)

	s, err := LoadSchema(path)
	require.NoError(t, err)
	assert.Equal(t, Version("2"), s.SchemaVersion)
	assert.Equal(t, " | ", s.Assembly.Separator)
	require.NotNil(t, s.Model("sdxl").Multiplier)
	assert.Equal(t, 1.1, *s.Model("sdxl").Multiplier)
	assert.Equal(t, "true", s.IntentFlags["cinematic"].Default)
	assert.Equal(t, "moody", s.IntentFlags["style"].Default)
	assert.Equal(t, "overall tone", s.IntentFlags["style"].Description)
	assert.True(t, s.Provenance.Enabled)
}

func TestLoadSchemaNumericJSONVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	writeFile(t, path, `{"schema_version": 3, "intent_flags": {"hdr": true}}`)

	s, err := LoadSchema(path)
	require.NoError(t, err)
	assert.Equal(t, Version("3"), s.SchemaVersion)
	assert.Equal(t, "true", s.IntentFlags["hdr"].Default)
}

func TestLoadSchemaFailures(t *testing.T) {
	dir := t.TempDir()
	missingVersion := filepath.Join(dir, "noversion.json")
	writeFile(t, missingVersion, `{"assembly": {"order": ["a"], "separator": ", "}}`)
	broken := filepath.Join(dir, "broken.json")
	writeFile(t, broken, `{"schema_version": "1",`)
	badVersion := filepath.Join(dir, "badversion.json")
	writeFile(t, badVersion, `{"schema_version": {"major": 1}}`)

	tests := []struct {
		name   string
		path   string
		reason string
	}{
		{"missing version", missingVersion, "missing schema_version"},
		{"unparsable", broken, "parse"},
		{"object version", badVersion, "invalid schema_version"},
		{"missing file", filepath.Join(dir, "nope.json"), "read"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadSchema(tc.path)
			require.Error(t, err)
			var se *SchemaError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tc.reason, se.Reason)
			assert.Equal(t, tc.path, se.Path)
		})
	}

	_, err := LoadSchema(filepath.Join(dir, "nope.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadSchemaToleratesMissingSubsections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thin.yaml")
	writeFile(t, path, "schema_version: \"1\"\n")

	s, err := LoadSchema(path)
	require.NoError(t, err)

	c := NewFromData(s, nil)
	assert.Equal(t, "", c.Compose(Request{Library: "default", Selections: map[string]string{"a": "b"}}))
}

func TestLoadSchemaToleratesMalformedSubsections(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		body  string
		check func(t *testing.T, s *Schema)
	}{
		{
			name: "string weight",
			file: "s.json",
			body: `{"schema_version": "1", "assembly": {"order": ["subject"], "separator": ", "}, "weights": {"subject": "1.5", "lighting": 1.2}}`,
			check: func(t *testing.T, s *Schema) {
				assert.Equal(t, 1.0, s.Weight("subject"))
				assert.Equal(t, 1.2, s.Weight("lighting"))
				assert.Equal(t, []string{"subject"}, s.Assembly.Order)
			},
		},
		{
			name: "scalar break_after",
			file: "s.json",
			body: `{"schema_version": "1", "assembly": {"order": ["a", "b"], "separator": " ", "break_after": 2}}`,
			check: func(t *testing.T, s *Schema) {
				assert.False(t, s.BreaksAfter(2))
				assert.Equal(t, []string{"a", "b"}, s.Assembly.Order)
				assert.Equal(t, " ", s.Assembly.Separator)
			},
		},
		{
			name: "models as list",
			file: "s.json",
			body: `{"schema_version": "1", "models": ["sdxl"], "weights": {"subject": 1.5}}`,
			check: func(t *testing.T, s *Schema) {
				assert.Empty(t, s.Models)
				assert.False(t, s.Model("sdxl").Weights)
				assert.Equal(t, 1.5, s.Weight("subject"))
			},
		},
		{
			name: "string addon_enabled",
			file: "s.json",
			body: `{"schema_version": "1", "blocks": {"subject": {"addon_enabled": "yes"}, "lighting": {"addon_enabled": true}}}`,
			check: func(t *testing.T, s *Schema) {
				assert.False(t, s.Block("subject").AddonEnabled)
				assert.True(t, s.Block("lighting").AddonEnabled)
			},
		},
		{
			name: "yaml assembly as scalar",
			file: "s.yaml",
			body: "schema_version: 1\nassembly: subject\nweights:\n  subject: high\n  lighting: 1.1\n",
			check: func(t *testing.T, s *Schema) {
				assert.Empty(t, s.Assembly.Order)
				assert.Equal(t, 1.0, s.Weight("subject"))
				assert.Equal(t, 1.1, s.Weight("lighting"))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tc.file)
			writeFile(t, path, tc.body)

			s, err := LoadSchema(path)
			require.NoError(t, err)
			tc.check(t, s)

			c := NewFromData(s, map[string]*Library{"default": {ID: "default"}})
			assert.NotPanics(t, func() {
				c.Compose(Request{Library: "default", Selections: map[string]string{"subject": "cat"}, Model: "sdxl"})
			})
		})
	}
}
