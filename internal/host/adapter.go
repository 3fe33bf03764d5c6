// Package host exposes the composer to presentation layers (CLI, web UI)
// as dropdown inputs plus a single compose entry point.
package host

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kayz/modprompt/internal/composer"
	"github.com/kayz/modprompt/internal/logger"
	"github.com/kayz/modprompt/internal/negative"
)

// BreakSuffix separates engine output from free custom text.
const BreakSuffix = ", BREAK, "

// ErrUnknownLibrary is returned by strict lookups of a library that is not loaded.
var ErrUnknownLibrary = errors.New("unknown library")

// Engine is the subset of the composer a host needs.
type Engine interface {
	Schema() *composer.Schema
	LibraryNames() []string
	Library(id string) (*composer.Library, bool)
	Options(libraryID, block string, includeSentinel bool) []string
	ComposeDetailed(req composer.Request) composer.Result
}

// Recorder persists finished compositions. Failures are logged, never returned to the user.
type Recorder interface {
	RecordComposition(ctx context.Context, rec Record) error
}

// Record describes one finished composition.
type Record struct {
	ID          string              `json:"id"`
	CreatedAt   time.Time           `json:"created_at"`
	Library     string              `json:"library"`
	Model       string              `json:"model"`
	Selections  map[string]string   `json:"selections,omitempty"`
	Addons      map[string]string   `json:"addons,omitempty"`
	IntentFlags map[string]string   `json:"intent_flags,omitempty"`
	Custom      string              `json:"custom,omitempty"`
	Prompt      string              `json:"prompt"`
	Fragments   []composer.Fragment `json:"fragments,omitempty"`
}

// Adapter is the single host-facing surface over an Engine.
type Adapter struct {
	engine    Engine
	recorders []Recorder
	now       func() time.Time
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithRecorder registers a recorder called after every ComposePrompt.
func WithRecorder(r Recorder) Option {
	return func(a *Adapter) {
		if r != nil {
			a.recorders = append(a.recorders, r)
		}
	}
}

// NewAdapter wraps engine.
func NewAdapter(engine Engine, opts ...Option) *Adapter {
	a := &Adapter{engine: engine, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BlockInput is one dropdown.
type BlockInput struct {
	Name         string   `json:"name"`
	Options      []string `json:"options"`
	AddonEnabled bool     `json:"addon_enabled"`
}

// Inputs describes every selectable input for a library.
type Inputs struct {
	Libraries []string     `json:"libraries"`
	Library   string       `json:"library"`
	Models    []string     `json:"models"`
	Blocks    []BlockInput `json:"blocks"`
	Negatives []string     `json:"negatives"`
}

// Inputs lists libraries, models and one block input per schema order entry.
// An empty libraryID picks the first library.
func (a *Adapter) Inputs(libraryID string) Inputs {
	libs := a.engine.LibraryNames()
	if len(libs) == 0 {
		libs = []string{"default"}
	}
	if strings.TrimSpace(libraryID) == "" {
		libraryID = libs[0]
	}

	schema := a.engine.Schema()
	in := Inputs{
		Libraries: libs,
		Library:   libraryID,
		Models:    a.Models(),
	}
	for _, block := range schema.Assembly.Order {
		opts := a.engine.Options(libraryID, block, true)
		if len(opts) == 0 {
			opts = []string{composer.Sentinel}
		}
		in.Blocks = append(in.Blocks, BlockInput{
			Name:         block,
			Options:      opts,
			AddonEnabled: schema.Block(block).AddonEnabled,
		})
	}
	for _, c := range negative.Categories {
		in.Negatives = append(in.Negatives, string(c))
	}
	return in
}

// Models returns the schema's model ids, sorted, with a fixed fallback.
func (a *Adapter) Models() []string {
	models := make([]string, 0, len(a.engine.Schema().Models))
	for id := range a.engine.Schema().Models {
		models = append(models, id)
	}
	if len(models) == 0 {
		return []string{"sdxl", "flux"}
	}
	sort.Strings(models)
	return models
}

// Options lists the dropdown choices of one block. Non-strict lookups of an
// unknown library return just the sentinel; strict ones fail.
func (a *Adapter) Options(libraryID, block string, strict bool) ([]string, error) {
	if strict && !a.hasLibrary(libraryID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLibrary, libraryID)
	}
	return a.engine.Options(libraryID, block, true), nil
}

func (a *Adapter) hasLibrary(id string) bool {
	_, ok := a.engine.Library(id)
	return ok
}

// PromptInput is what a host collects from its user.
type PromptInput struct {
	Library     string            `json:"library"`
	Model       string            `json:"model,omitempty"`
	Selections  map[string]string `json:"selections"`
	Addons      map[string]string `json:"addons,omitempty"`
	IntentFlags map[string]string `json:"intent_flags,omitempty"`
	Custom      string            `json:"custom,omitempty"`
}

// PromptOutput is the final prompt plus the engine result it came from.
type PromptOutput struct {
	ID     string          `json:"id"`
	Prompt string          `json:"prompt"`
	Result composer.Result `json:"result"`
}

// ComposePrompt runs the engine and appends custom text after a BREAK.
func (a *Adapter) ComposePrompt(ctx context.Context, in PromptInput) PromptOutput {
	selections := make(map[string]string, len(in.Selections))
	for block, opt := range in.Selections {
		if opt != composer.Sentinel {
			selections[block] = opt
		}
	}

	res := a.engine.ComposeDetailed(composer.Request{
		Library:     in.Library,
		Selections:  selections,
		Model:       in.Model,
		Addons:      in.Addons,
		IntentFlags: in.IntentFlags,
	})

	prompt := res.Prompt
	custom := strings.TrimSpace(in.Custom)
	if custom != "" {
		prompt += BreakSuffix + custom
	}

	out := PromptOutput{ID: uuid.New().String(), Prompt: prompt, Result: res}
	a.record(ctx, Record{
		ID:          out.ID,
		CreatedAt:   a.now().UTC(),
		Library:     in.Library,
		Model:       res.Model,
		Selections:  selections,
		Addons:      in.Addons,
		IntentFlags: res.IntentFlags,
		Custom:      custom,
		Prompt:      prompt,
		Fragments:   res.Fragments,
	})
	return out
}

func (a *Adapter) record(ctx context.Context, rec Record) {
	for _, r := range a.recorders {
		if err := r.RecordComposition(ctx, rec); err != nil {
			logger.Warn("Record composition %s failed: %v", rec.ID, err)
		}
	}
}

// NegativeInput toggles negative categories by name.
type NegativeInput struct {
	Categories map[string]bool `json:"categories"`
	Custom     string          `json:"custom,omitempty"`
}

// ComposeNegative builds a negative prompt. Nil categories use the defaults;
// unknown category names are ignored.
func (a *Adapter) ComposeNegative(in NegativeInput) string {
	toggles := negative.DefaultToggles()
	if in.Categories != nil {
		toggles = negative.Toggles{}
		for name, on := range in.Categories {
			if c, ok := negative.ParseCategory(name); ok {
				toggles[c] = on
			}
		}
	}
	return negative.Compose(toggles, in.Custom)
}
