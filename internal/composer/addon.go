package composer

import "strings"

// MergeMode names how an addon is merged into a block's text.
type MergeMode string

const (
	// MergeInlineAppend appends ", addon" to the block text.
	MergeInlineAppend MergeMode = "inline_append"
)

type mergeFunc func(text, addon string) string

var mergeStrategies = map[MergeMode]mergeFunc{
	MergeInlineAppend: func(text, addon string) string {
		return text + ", " + addon
	},
}

// Known reports whether m names a registered strategy. Empty means inline_append.
func (m MergeMode) Known() bool {
	_, ok := mergeStrategies[m.normalized()]
	return ok
}

func (m MergeMode) normalized() MergeMode {
	if strings.TrimSpace(string(m)) == "" {
		return MergeInlineAppend
	}
	return MergeMode(strings.TrimSpace(string(m)))
}

// mergeAddon merges addon into text. The bool is false when nothing was
// merged: empty addon or an unknown mode.
func mergeAddon(mode MergeMode, text, addon string) (string, bool) {
	addon = strings.TrimSpace(addon)
	if addon == "" {
		return text, false
	}
	merge, ok := mergeStrategies[mode.normalized()]
	if !ok {
		return text, false
	}
	return merge(text, addon), true
}
