package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidContent is returned when a section body does not match the shape
// its type requires.
var ErrInvalidContent = errors.New("invalid section content")

// Known section types. Anything else is stored as opaque JSON.
const (
	KindHero     = "hero"
	KindFeatures = "features"
	KindContent  = "content"
	KindFAQ      = "faq"
	KindCTA      = "cta"
	KindSteps    = "steps"
	KindGallery  = "gallery"
)

// Content is the decoded form of a section body.
type Content interface {
	Kind() string
	Validate() error
}

type Hero struct {
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle"`
	Description     string `json:"description"`
	BackgroundImage string `json:"backgroundImage"`
	ButtonText      string `json:"buttonText"`
	ButtonLink      string `json:"buttonLink"`
}

func (Hero) Kind() string { return KindHero }

func (h Hero) Validate() error {
	return requireButtonText(h.ButtonText, h.ButtonLink)
}

type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type Features struct {
	Heading string    `json:"heading"`
	Intro   string    `json:"intro"`
	Items   []Feature `json:"items"`
}

func (Features) Kind() string { return KindFeatures }

func (f Features) Validate() error {
	for i, item := range f.Items {
		if strings.TrimSpace(item.Title) == "" {
			return fmt.Errorf("%w: items[%d].title is required", ErrInvalidContent, i)
		}
	}
	return nil
}

type RichText struct {
	Heading    string   `json:"heading"`
	Body       string   `json:"body"`
	Paragraphs []string `json:"paragraphs"`
	Image      string   `json:"image"`
}

func (RichText) Kind() string { return KindContent }

func (RichText) Validate() error { return nil }

type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type FAQ struct {
	Heading string    `json:"heading"`
	Items   []FAQItem `json:"items"`
}

func (FAQ) Kind() string { return KindFAQ }

func (f FAQ) Validate() error {
	for i, item := range f.Items {
		if strings.TrimSpace(item.Question) == "" || strings.TrimSpace(item.Answer) == "" {
			return fmt.Errorf("%w: items[%d] needs a question and an answer", ErrInvalidContent, i)
		}
	}
	return nil
}

type CTA struct {
	Heading     string `json:"heading"`
	Description string `json:"description"`
	ButtonText  string `json:"buttonText"`
	ButtonLink  string `json:"buttonLink"`
	Phone       string `json:"phone"`
}

func (CTA) Kind() string { return KindCTA }

func (c CTA) Validate() error {
	return requireButtonText(c.ButtonText, c.ButtonLink)
}

type Step struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Steps struct {
	Heading string `json:"heading"`
	Items   []Step `json:"items"`
}

func (Steps) Kind() string { return KindSteps }

func (s Steps) Validate() error {
	for i, item := range s.Items {
		if strings.TrimSpace(item.Title) == "" {
			return fmt.Errorf("%w: items[%d].title is required", ErrInvalidContent, i)
		}
	}
	return nil
}

type Image struct {
	URL     string `json:"url"`
	Alt     string `json:"alt"`
	Caption string `json:"caption"`
}

type Gallery struct {
	Heading string  `json:"heading"`
	Images  []Image `json:"images"`
}

func (Gallery) Kind() string { return KindGallery }

func (g Gallery) Validate() error {
	for i, img := range g.Images {
		if strings.TrimSpace(img.URL) == "" {
			return fmt.Errorf("%w: images[%d].url is required", ErrInvalidContent, i)
		}
	}
	return nil
}

// Opaque keeps bodies of unknown types untouched.
type Opaque struct {
	Type string
	Raw  json.RawMessage
}

func (o Opaque) Kind() string { return o.Type }

func (Opaque) Validate() error { return nil }

// Decode parses raw according to kind and validates it. An empty body is an
// empty object. Unknown kinds decode to Opaque as long as raw is a JSON object.
func Decode(kind string, raw json.RawMessage) (Content, error) {
	raw = normalize(raw)
	if !isObject(raw) {
		return nil, fmt.Errorf("%w: content must be a JSON object", ErrInvalidContent)
	}

	var target Content
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindHero:
		var v Hero
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		target = v
	case KindFeatures:
		var v Features
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		target = v
	case KindContent:
		var v RichText
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		target = v
	case KindFAQ:
		var v FAQ
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		target = v
	case KindCTA:
		var v CTA
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		target = v
	case KindSteps:
		var v Steps
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		target = v
	case KindGallery:
		var v Gallery
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		target = v
	default:
		return Opaque{Type: kind, Raw: raw}, nil
	}

	if err := target.Validate(); err != nil {
		return nil, err
	}
	return target, nil
}

// Encode marshals a typed body back to JSON.
func Encode(c Content) (json.RawMessage, error) {
	if o, ok := c.(Opaque); ok {
		return normalize(o.Raw), nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode %s content: %w", c.Kind(), err)
	}
	return data, nil
}

// MustEncode is Encode for fixtures built from literals.
func MustEncode(c Content) json.RawMessage {
	data, err := Encode(c)
	if err != nil {
		panic(err)
	}
	return data
}

// EmptyObject returns a fresh "{}".
func EmptyObject() json.RawMessage {
	return json.RawMessage(`{}`)
}

func requireButtonText(text, link string) error {
	if strings.TrimSpace(link) != "" && strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: buttonText is required when buttonLink is set", ErrInvalidContent)
	}
	return nil
}

func normalize(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return EmptyObject()
	}
	return trimmed
}

func isObject(raw json.RawMessage) bool {
	return len(raw) > 0 && raw[0] == '{' && json.Valid(raw)
}
