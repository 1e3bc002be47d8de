package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/smilecms/internal/content"
	"github.com/smilecms/internal/db"
)

//go:embed services.yaml
var servicesYAML []byte

// Item is a title/description pair used for benefits and procedure steps.
type Item struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

type FAQ struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

// Service is one entry of the service catalog.
type Service struct {
	Slug        string `yaml:"slug" json:"slug"`
	Name        string `yaml:"name" json:"name"`
	Category    string `yaml:"category" json:"category"`
	Tagline     string `yaml:"tagline" json:"tagline"`
	Description string `yaml:"description" json:"description"`
	Benefits    []Item `yaml:"benefits" json:"-"`
	Steps       []Item `yaml:"steps" json:"-"`
	FAQs        []FAQ  `yaml:"faqs" json:"-"`
}

// Clinic holds the practice-wide copy shared by every page.
type Clinic struct {
	Name        string `yaml:"name" json:"name"`
	Phone       string `yaml:"phone" json:"phone"`
	BookingLink string `yaml:"bookingLink" json:"bookingLink"`
}

type document struct {
	Clinic   Clinic    `yaml:"clinic"`
	Services []Service `yaml:"services"`
}

// Named sections every service page starts with. They replace the flat
// per-page fields older pages used to carry.
const (
	SectionHero         = "hero"
	SectionWhyImportant = "whyImportant"
	SectionBenefits     = "benefits"
	SectionProcedure    = "procedure"
	SectionFAQ          = "faq"
	SectionCTA          = "cta"
)

var (
	clinic   Clinic
	services []Service
	bySlug   map[string]Service
)

func init() {
	if err := load(servicesYAML); err != nil {
		panic(err)
	}
}

func load(data []byte) error {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse service catalog: %w", err)
	}

	index := make(map[string]Service, len(doc.Services))
	for _, svc := range doc.Services {
		svc.Slug = strings.TrimSpace(svc.Slug)
		if svc.Slug == "" || strings.TrimSpace(svc.Name) == "" {
			return fmt.Errorf("service catalog: entry %q needs a slug and a name", svc.Slug)
		}
		if _, dup := index[svc.Slug]; dup {
			return fmt.Errorf("service catalog: duplicate slug %q", svc.Slug)
		}
		index[svc.Slug] = svc
	}

	sort.SliceStable(doc.Services, func(i, j int) bool { return doc.Services[i].Slug < doc.Services[j].Slug })
	clinic = doc.Clinic
	services = doc.Services
	bySlug = index
	return nil
}

// ClinicInfo returns the practice details.
func ClinicInfo() Clinic {
	return clinic
}

// All returns every service sorted by slug.
func All() []Service {
	out := make([]Service, len(services))
	copy(out, services)
	return out
}

// Lookup finds a service by slug.
func Lookup(slug string) (Service, bool) {
	svc, ok := bySlug[strings.TrimSpace(slug)]
	return svc, ok
}

// KindForField maps a named section to the content type it holds.
func KindForField(field string) string {
	switch field {
	case SectionHero:
		return content.KindHero
	case SectionFAQ:
		return content.KindFAQ
	case SectionCTA:
		return content.KindCTA
	case SectionBenefits, SectionWhyImportant:
		return content.KindFeatures
	case SectionProcedure:
		return content.KindSteps
	default:
		return content.KindContent
	}
}

// DefaultPage builds the document a service page is seeded with on first
// read. newID produces section and subsection ids for the given prefix.
func DefaultPage(slug string, newID func(prefix string) string) (db.ServicePage, bool) {
	svc, ok := Lookup(slug)
	if !ok {
		return db.ServicePage{}, false
	}

	benefits := make([]content.Feature, 0, len(svc.Benefits))
	for _, b := range svc.Benefits {
		benefits = append(benefits, content.Feature{Title: b.Title, Description: b.Description})
	}
	steps := make([]content.Step, 0, len(svc.Steps))
	subsections := make([]db.Subsection, 0, len(svc.Steps))
	for i, s := range svc.Steps {
		steps = append(steps, content.Step{Title: s.Title, Description: s.Description})
		subsections = append(subsections, db.Subsection{
			ID:      newID("subsection"),
			Title:   s.Title,
			Content: content.MustEncode(content.RichText{Heading: s.Title, Body: s.Description}),
			Enabled: true,
			Order:   i,
		})
	}
	faqs := make([]content.FAQItem, 0, len(svc.FAQs))
	for _, f := range svc.FAQs {
		faqs = append(faqs, content.FAQItem{Question: f.Question, Answer: f.Answer})
	}

	sections := []db.Section{
		section(newID, SectionHero, svc.Name, content.Hero{
			Title:       svc.Name,
			Subtitle:    svc.Tagline,
			Description: svc.Description,
			ButtonText:  "Book an Appointment",
			ButtonLink:  clinic.BookingLink,
		}),
		section(newID, SectionWhyImportant, "Why Choose "+svc.Name, content.Features{
			Heading: "Why Choose " + svc.Name,
			Items:   benefits,
		}),
		section(newID, SectionProcedure, "What to Expect", content.Steps{
			Heading: "What to Expect",
			Items:   steps,
		}),
		section(newID, SectionFAQ, "Frequently Asked Questions", content.FAQ{
			Heading: "Frequently Asked Questions",
			Items:   faqs,
		}),
		section(newID, SectionCTA, "Ready to Get Started?", content.CTA{
			Heading:     "Ready to Get Started?",
			Description: "Schedule a visit with " + clinic.Name + " today.",
			ButtonText:  "Schedule Your Visit",
			ButtonLink:  clinic.BookingLink,
			Phone:       clinic.Phone,
		}),
	}
	sections[2].Subsections = subsections
	for i := range sections {
		sections[i].Order = i
	}

	return db.ServicePage{
		Slug:            svc.Slug,
		PageTitle:       svc.Name + " | " + clinic.Name,
		MetaDescription: svc.Description,
		Status:          db.PageStatusPublished,
		GlobalStyles:    defaultGlobalStyles(),
		Sections:        sections,
	}, true
}

func section(newID func(string) string, name, title string, body content.Content) db.Section {
	style, _ := json.Marshal(content.DefaultStyle(body.Kind()))
	return db.Section{
		ID:          newID("section"),
		Name:        name,
		Title:       title,
		Type:        body.Kind(),
		Enabled:     true,
		Content:     content.MustEncode(body),
		Subsections: []db.Subsection{},
		Style:       style,
	}
}

func defaultGlobalStyles() []byte {
	return []byte(`{"primaryColor":"#0f4c81","accentColor":"#14b8a6","fontFamily":"Inter, sans-serif"}`)
}
