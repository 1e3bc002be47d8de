package content

import (
	"encoding/json"
	"strings"
)

// Component is one block of a reusable template.
type Component struct {
	Type    string          `json:"type"`
	Name    string          `json:"name"`
	Title   string          `json:"title"`
	Content json.RawMessage `json:"content"`
	Style   json.RawMessage `json:"style"`
}

var defaultStyles = map[string]map[string]string{
	KindHero: {
		"backgroundColor": "#0f4c81",
		"textColor":       "#ffffff",
		"padding":         "80px 20px",
		"textAlign":       "center",
	},
	KindFeatures: {
		"backgroundColor": "#ffffff",
		"textColor":       "#1f2937",
		"padding":         "60px 20px",
		"columns":         "3",
	},
	KindContent: {
		"backgroundColor": "#ffffff",
		"textColor":       "#1f2937",
		"padding":         "40px 20px",
		"maxWidth":        "960px",
	},
	KindFAQ: {
		"backgroundColor": "#f8fafc",
		"textColor":       "#1f2937",
		"padding":         "60px 20px",
	},
	KindCTA: {
		"backgroundColor": "#14b8a6",
		"textColor":       "#ffffff",
		"padding":         "60px 20px",
		"textAlign":       "center",
	},
	KindSteps: {
		"backgroundColor": "#ffffff",
		"textColor":       "#1f2937",
		"padding":         "60px 20px",
	},
	KindGallery: {
		"backgroundColor": "#ffffff",
		"padding":         "40px 20px",
		"columns":         "3",
	},
}

var fallbackStyle = map[string]string{
	"backgroundColor": "#ffffff",
	"textColor":       "#1f2937",
	"padding":         "40px 20px",
}

// DefaultStyle returns a copy of the default style for a section type.
func DefaultStyle(kind string) map[string]string {
	src, ok := defaultStyles[strings.ToLower(strings.TrimSpace(kind))]
	if !ok {
		src = fallbackStyle
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// EnsureStyle lays style over the defaults for kind, keeping every key the
// caller set.
func EnsureStyle(kind string, style json.RawMessage) (json.RawMessage, error) {
	defaults, err := json.Marshal(DefaultStyle(kind))
	if err != nil {
		return nil, err
	}
	return Merge(defaults, style)
}

// EnsureComponentStyles returns a copy of components where every style has
// been completed with its type defaults and every content body is an object.
func EnsureComponentStyles(components []Component) ([]Component, error) {
	out := make([]Component, 0, len(components))
	for _, c := range components {
		style, err := EnsureStyle(c.Type, c.Style)
		if err != nil {
			return nil, err
		}
		c.Style = style
		c.Content = normalize(c.Content)
		out = append(out, c)
	}
	return out, nil
}
