package composer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/kayz/modprompt/internal/logger"
	"gopkg.in/yaml.v3"
)

// Schema is the assembly contract. It is loaded once and never mutated.
type Schema struct {
	SchemaVersion Version                `yaml:"schema_version" json:"schema_version"`
	Assembly      Assembly               `yaml:"assembly" json:"assembly"`
	Weights       map[string]float64     `yaml:"weights,omitempty" json:"weights,omitempty"`
	Models        map[string]ModelConfig `yaml:"models,omitempty" json:"models,omitempty"`
	Blocks        map[string]BlockConfig `yaml:"blocks,omitempty" json:"blocks,omitempty"`
	IntentFlags   map[string]IntentFlag  `yaml:"intent_flags,omitempty" json:"intent_flags,omitempty"`
	Provenance    Provenance             `yaml:"provenance,omitempty" json:"provenance,omitempty"`
}

// Assembly controls block ordering and joining.
type Assembly struct {
	Order      []string `yaml:"order" json:"order"`
	Separator  string   `yaml:"separator" json:"separator"`
	BreakAfter []int    `yaml:"break_after,omitempty" json:"break_after,omitempty"`
}

// ModelConfig describes how a target model renders emphasis.
type ModelConfig struct {
	Weights bool `yaml:"weights" json:"weights"`
	// Multiplier scales the raw block weight. Absent means 1.0.
	Multiplier *float64 `yaml:"multiplier,omitempty" json:"multiplier,omitempty"`
	// Format is a template with {text} and {weight} placeholders.
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// BlockConfig is the per-block addon policy.
type BlockConfig struct {
	AddonEnabled   bool      `yaml:"addon_enabled" json:"addon_enabled"`
	AddonMergeMode MergeMode `yaml:"addon_merge_mode,omitempty" json:"addon_merge_mode,omitempty"`
}

// IntentFlag declares a flag and its default value.
type IntentFlag struct {
	Default     string `yaml:"default" json:"default"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Provenance is an optional comment emitted as the first fragment.
type Provenance struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Comment string `yaml:"comment,omitempty" json:"comment,omitempty"`
}

// Version accepts both string and numeric schema versions.
type Version string

func (v *Version) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Version(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = Version(n.String())
	return nil
}

// UnmarshalYAML accepts either {default: x} or a bare scalar default.
func (f *IntentFlag) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		f.Default = node.Value
		return nil
	}
	type plain IntentFlag
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*f = IntentFlag(p)
	return nil
}

func (f *IntentFlag) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			f.Default = s
			return nil
		}
		f.Default = trimmed
		return nil
	}
	type plain struct {
		Default     json.RawMessage `json:"default"`
		Description string          `json:"description"`
	}
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	f.Description = p.Description
	if len(p.Default) > 0 {
		var s string
		if err := json.Unmarshal(p.Default, &s); err == nil {
			f.Default = s
		} else {
			f.Default = strings.TrimSpace(string(p.Default))
		}
	}
	return nil
}

// LoadSchema reads and decodes a schema file. JSON files are decoded as JSON,
// everything else as YAML. Only schema_version is checked; a malformed
// subsection or entry is dropped with a warning and reads as a lookup miss.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SchemaError{Path: path, Reason: "read", Err: err}
	}

	doc, err := parseRaw(path, data)
	if err != nil {
		return nil, &SchemaError{Path: path, Reason: "parse", Err: err}
	}
	top, err := doc.fields()
	if err != nil {
		return nil, &SchemaError{Path: path, Reason: "parse", Err: err}
	}

	var schema Schema
	if raw, ok := top["schema_version"]; ok {
		if err := raw.decode(&schema.SchemaVersion); err != nil {
			return nil, &SchemaError{Path: path, Reason: "invalid schema_version", Err: err}
		}
	}
	if strings.TrimSpace(string(schema.SchemaVersion)) == "" {
		return nil, &SchemaError{Path: path, Reason: "missing schema_version"}
	}

	d := sectionDecoder{path: path}
	if raw, ok := top["assembly"]; ok {
		if fields, ok := d.object("assembly", raw); ok {
			d.field("assembly.order", fields["order"], &schema.Assembly.Order)
			d.field("assembly.separator", fields["separator"], &schema.Assembly.Separator)
			d.field("assembly.break_after", fields["break_after"], &schema.Assembly.BreakAfter)
		}
	}
	schema.Weights = decodeEntries[float64](d, "weights", top["weights"])
	schema.Models = decodeEntries[ModelConfig](d, "models", top["models"])
	schema.Blocks = decodeEntries[BlockConfig](d, "blocks", top["blocks"])
	schema.IntentFlags = decodeEntries[IntentFlag](d, "intent_flags", top["intent_flags"])
	d.field("provenance", top["provenance"], &schema.Provenance)

	return &schema, nil
}

// rawValue is an undecoded JSON or YAML value.
type rawValue interface {
	decode(out any) error
	fields() (map[string]rawValue, error)
}

type jsonValue json.RawMessage

func (v jsonValue) decode(out any) error {
	return json.Unmarshal(v, out)
}

func (v jsonValue) fields() (map[string]rawValue, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(v, &m); err != nil {
		return nil, err
	}
	out := make(map[string]rawValue, len(m))
	for k, raw := range m {
		out[k] = jsonValue(raw)
	}
	return out, nil
}

type yamlValue struct {
	node *yaml.Node
}

func (v yamlValue) decode(out any) error {
	return v.node.Decode(out)
}

func (v yamlValue) fields() (map[string]rawValue, error) {
	var m map[string]yaml.Node
	if err := v.node.Decode(&m); err != nil {
		return nil, err
	}
	out := make(map[string]rawValue, len(m))
	for k := range m {
		node := m[k]
		out[k] = yamlValue{node: &node}
	}
	return out, nil
}

func parseRaw(path string, data []byte) (rawValue, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		var raw json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		return jsonValue(raw), nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return yamlValue{node: doc.Content[0]}, nil
	}
	// empty document
	return yamlValue{node: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}, nil
}

// sectionDecoder decodes schema subsections leniently, warning on failures.
type sectionDecoder struct {
	path string
}

func (d sectionDecoder) warn(name string, err error) {
	logger.Warn("Schema %s: ignoring malformed %s: %v", d.path, name, err)
}

// field decodes raw into out; a nil raw leaves out untouched.
func (d sectionDecoder) field(name string, raw rawValue, out any) bool {
	if raw == nil {
		return false
	}
	if err := raw.decode(out); err != nil {
		d.warn(name, err)
		return false
	}
	return true
}

func (d sectionDecoder) object(name string, raw rawValue) (map[string]rawValue, bool) {
	if raw == nil {
		return nil, false
	}
	fields, err := raw.fields()
	if err != nil {
		d.warn(name, err)
		return nil, false
	}
	return fields, true
}

// decodeEntries decodes a keyed section entry by entry, skipping bad entries.
func decodeEntries[T any](d sectionDecoder, name string, raw rawValue) map[string]T {
	fields, ok := d.object(name, raw)
	if !ok || len(fields) == 0 {
		return nil
	}
	out := make(map[string]T, len(fields))
	for key, v := range fields {
		var entry T
		if d.field(name+"."+key, v, &entry) {
			out[key] = entry
		}
	}
	return out
}

func decodeDocument(path string, data []byte, out any) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.Unmarshal(data, out)
	}
	return yaml.Unmarshal(data, out)
}

// Weight returns the configured block weight, 1.0 when absent.
func (s *Schema) Weight(block string) float64 {
	if w, ok := s.Weights[block]; ok {
		return w
	}
	return 1.0
}

// Model returns the model configuration, or the zero value (weighting off).
func (s *Schema) Model(id string) ModelConfig {
	return s.Models[id]
}

// Block returns the per-block addon policy.
func (s *Schema) Block(name string) BlockConfig {
	return s.Blocks[name]
}

// BreaksAfter reports whether a BREAK follows the 1-based order position.
func (s *Schema) BreaksAfter(position int) bool {
	for _, p := range s.Assembly.BreakAfter {
		if p == position {
			return true
		}
	}
	return false
}

// DefaultIntentFlags returns a fresh map of declared flag defaults.
func (s *Schema) DefaultIntentFlags() map[string]string {
	out := make(map[string]string, len(s.IntentFlags))
	for name, flag := range s.IntentFlags {
		out[name] = flag.Default
	}
	return out
}
