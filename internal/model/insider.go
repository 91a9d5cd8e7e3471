package model

import (
	"strings"

	"roastnote/internal/normalize"
)

// Intensity grades how sharp an insider joke is
type Intensity string

const (
	IntensityMild   Intensity = "mild"
	IntensityMedium Intensity = "medium"
	IntensitySpicy  Intensity = "spicy"
)

// Insider is a private shared reference the model may call back to
type Insider struct {
	ID         string    `json:"id,omitempty"`
	Raw        string    `json:"raw"`
	Normalized string    `json:"normalized"`
	Tags       []string  `json:"tags"`
	Intensity  Intensity `json:"intensity"`
}

// InsiderFromValue builds an insider from one decoded JSON or YAML list
// item. Fields of the wrong shape fall back to their defaults.
func InsiderFromValue(v interface{}) Insider {
	item, _ := v.(map[string]interface{})

	var i Insider
	i.ID = TextValue(item["id"])
	i.Raw = TextValue(item["raw"])
	i.Normalized = TextValue(item["normalized"])
	i.Intensity = Intensity(TextValue(item["intensity"]))
	if tags, ok := item["tags"].([]interface{}); ok {
		i.Tags = make([]string, 0, len(tags))
		for _, t := range tags {
			i.Tags = append(i.Tags, TextValue(t))
		}
	}
	return i.WithDefaults()
}

// WithDefaults fills the derived fields: normalized text from the trimmed
// raw text, empty tags and mild intensity
func (i Insider) WithDefaults() Insider {
	if i.Normalized == "" {
		i.Normalized = normalize.Normalize(strings.TrimSpace(i.Raw))
	}
	if i.Tags == nil {
		i.Tags = []string{}
	}
	if i.Intensity == "" {
		i.Intensity = IntensityMild
	}
	return i
}

// CompleteInsiders applies WithDefaults to every insider
func CompleteInsiders(in []Insider) []Insider {
	out := make([]Insider, 0, len(in))
	for _, i := range in {
		out = append(out, i.WithDefaults())
	}
	return out
}
