package composer

import (
	"strings"
	"sync"

	"github.com/kayz/modprompt/internal/logger"
)

// DefaultModel is used when a request names no model.
const DefaultModel = "sdxl"

// BreakToken is the literal fragment inserted at schema break positions.
const BreakToken = "BREAK"

// Composer assembles prompts from a schema and a set of libraries.
// Compose, Options and ApplyWeight are safe for concurrent use.
type Composer struct {
	schema *Schema
	libs   map[string]*Library
	log    *logger.Logger

	optMu    sync.RWMutex
	optCache map[optionKey][]string
}

// New loads the schema and all libraries under librariesDir.
func New(schemaPath, librariesDir string) (*Composer, error) {
	schema, err := LoadSchema(schemaPath)
	if err != nil {
		return nil, err
	}
	libs, err := LoadLibraries(librariesDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded schema %s (version %s) and %d libraries from %s",
		schemaPath, schema.SchemaVersion, len(libs), librariesDir)
	return NewFromData(schema, libs), nil
}

// NewFromData builds a Composer from already decoded data.
func NewFromData(schema *Schema, libs map[string]*Library) *Composer {
	if schema == nil {
		schema = &Schema{}
	}
	if libs == nil {
		libs = map[string]*Library{}
	}
	return &Composer{
		schema:   schema,
		libs:     libs,
		log:      logger.With("component", "composer"),
		optCache: make(map[optionKey][]string),
	}
}

// Schema returns the loaded schema. Callers must not modify it.
func (c *Composer) Schema() *Schema {
	return c.schema
}

// Library returns a loaded library by id.
func (c *Composer) Library(id string) (*Library, bool) {
	lib, ok := c.libs[id]
	return lib, ok
}

// Request is one composition call.
type Request struct {
	Library     string            `json:"library" yaml:"library"`
	Selections  map[string]string `json:"selections" yaml:"selections"`
	Model       string            `json:"model,omitempty" yaml:"model,omitempty"`
	Addons      map[string]string `json:"addons,omitempty" yaml:"addons,omitempty"`
	IntentFlags map[string]string `json:"intent_flags,omitempty" yaml:"intent_flags,omitempty"`
}

// Fragment is one emitted block.
type Fragment struct {
	Block    string  `json:"block"`
	Option   string  `json:"option"`
	Position int     `json:"position"`
	Text     string  `json:"text"`
	Rendered string  `json:"rendered"`
	Weight   float64 `json:"weight"`
	Addon    bool    `json:"addon,omitempty"`
}

// Result is a composed prompt plus how it was built.
type Result struct {
	Prompt      string            `json:"prompt"`
	Fragments   []Fragment        `json:"fragments"`
	IntentFlags map[string]string `json:"intent_flags,omitempty"`
	Model       string            `json:"model"`
}

// Compose returns the assembled prompt for req.
func (c *Composer) Compose(req Request) string {
	return c.ComposeDetailed(req).Prompt
}

// ComposeDetailed assembles the prompt and reports each emitted block.
// Missing libraries, blocks, options and models are not errors; they simply
// contribute nothing.
func (c *Composer) ComposeDetailed(req Request) Result {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = DefaultModel
	}
	log := c.log.With("library", req.Library, "model", model)

	flags := c.schema.DefaultIntentFlags()
	for name, value := range req.IntentFlags {
		flags[name] = value
	}

	lib := c.libs[req.Library]
	if lib == nil {
		log.Debug("library not loaded")
	}
	modelCfg := c.schema.Model(model)

	var parts []string
	var fragments []Fragment

	for i, block := range c.schema.Assembly.Order {
		sel := req.Selections[block]
		if sel == "" || sel == Sentinel {
			log.Debug("block skipped, no selection", "position", i, "block", block)
			continue
		}

		text := lib.Text(block, sel)
		if text == "" {
			log.Debug("block skipped, no text", "position", i, "block", block, "option", sel)
			continue
		}

		frag := Fragment{Block: block, Option: sel, Position: i + 1}

		blockCfg := c.schema.Block(block)
		if addon, ok := req.Addons[block]; ok && blockCfg.AddonEnabled {
			if !blockCfg.AddonMergeMode.Known() {
				log.Debug("addon dropped, unknown merge mode", "block", block, "mode", blockCfg.AddonMergeMode)
			}
			merged, applied := mergeAddon(blockCfg.AddonMergeMode, text, addon)
			text = merged
			frag.Addon = applied
		}

		frag.Text = text
		frag.Weight = c.schema.Weight(block)
		frag.Rendered = applyWeight(modelCfg, text, frag.Weight)
		log.Debug("block emitted", "position", i, "block", block, "option", sel, "weight", frag.Weight, "rendered", frag.Rendered)

		parts = append(parts, frag.Rendered)
		fragments = append(fragments, frag)

		if c.schema.BreaksAfter(i + 1) {
			parts = append(parts, BreakToken)
		}
	}

	if p := c.schema.Provenance; p.Enabled && p.Comment != "" {
		parts = append([]string{p.Comment}, parts...)
	}

	prompt := strings.Join(parts, c.schema.Assembly.Separator)
	log.Debug("prompt assembled", "fragments", len(fragments), "prompt", prompt)

	return Result{
		Prompt:      prompt,
		Fragments:   fragments,
		IntentFlags: flags,
		Model:       model,
	}
}
