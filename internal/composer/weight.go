package composer

import (
	"strconv"
	"strings"
)

// DefaultWeightFormat renders emphasis as (text:1.5).
const DefaultWeightFormat = "({text}:{weight})"

// ApplyWeight renders text with the emphasis syntax of modelID. Unknown models,
// models with weighting off and neutral weights return text unchanged.
func (c *Composer) ApplyWeight(text string, weight float64, modelID string) string {
	return applyWeight(c.schema.Model(modelID), text, weight)
}

func applyWeight(cfg ModelConfig, text string, weight float64) string {
	if !cfg.Weights || weight == 1.0 {
		return text
	}

	multiplier := 1.0
	if cfg.Multiplier != nil {
		multiplier = *cfg.Multiplier
	}
	effective := strconv.FormatFloat(weight*multiplier, 'f', 1, 64)

	format := cfg.Format
	if strings.TrimSpace(format) == "" {
		format = DefaultWeightFormat
	}
	return strings.NewReplacer("{text}", text, "{weight}", effective).Replace(format)
}
