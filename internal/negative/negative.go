// Package negative builds negative prompts from a fixed keyword table.
package negative

import "strings"

// Category names a group of negative keywords.
type Category string

const (
	Quality  Category = "quality"
	Anatomy  Category = "anatomy"
	Style    Category = "style"
	Lighting Category = "lighting"
	Context  Category = "context"
	Texture  Category = "texture"
)

// Separator joins categories and custom text.
const Separator = ", "

// Categories lists every category in output order.
var Categories = []Category{Quality, Anatomy, Style, Lighting, Context, Texture}

var keywords = map[Category]string{
	Quality:  "blurry, out of focus, low quality, jpeg artifacts, watermark, signature",
	Anatomy:  "deformed face, asymmetrical eyes, bad proportions, extra limbs, merged fingers",
	Style:    "cartoon, anime, 3d render, illustration, painting, artificial",
	Lighting: "overexposed, underexposed, harsh shadows, flat lighting, blown highlights",
	Context:  "cluttered background, cropped, out of frame, duplicate, text",
	Texture:  "plastic skin, waxy skin, oversmoothed, noisy, banding",
}

// Keywords returns the keyword list of a category, or "" if unknown.
func Keywords(c Category) string {
	return keywords[c]
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(name string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(name)))
	_, ok := keywords[c]
	return c, ok
}

// Toggles selects which categories are emitted.
type Toggles map[Category]bool

// DefaultToggles enables quality, anatomy and style.
func DefaultToggles() Toggles {
	return Toggles{Quality: true, Anatomy: true, Style: true}
}

// Compose joins the enabled categories in table order, then custom text.
func Compose(toggles Toggles, custom string) string {
	var parts []string
	for _, c := range Categories {
		if toggles[c] {
			parts = append(parts, keywords[c])
		}
	}
	if custom = strings.TrimSpace(custom); custom != "" {
		parts = append(parts, custom)
	}
	return strings.Join(parts, Separator)
}
