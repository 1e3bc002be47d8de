package db

import (
	"encoding/json"
	"sort"
	"time"

	"gorm.io/datatypes"
)

const (
	PageStatusDraft     = "draft"
	PageStatusPublished = "published"
	PageStatusArchived  = "archived"
)

// ServicePage is the single content document for one service landing page.
// Slug is the singleton key; the unique index makes seed-on-read safe.
type ServicePage struct {
	ID              uint                         `gorm:"primaryKey" json:"id"`
	Slug            string                       `gorm:"size:120;uniqueIndex;not null" json:"pageSlug"`
	PageTitle       string                       `gorm:"size:255;not null" json:"pageTitle"`
	MetaDescription string                       `gorm:"type:text" json:"metaDescription"`
	Status          string                       `gorm:"size:20;not null;default:draft;index" json:"status"`
	GlobalStyles    datatypes.JSON               `json:"globalStyles"`
	Sections        datatypes.JSONSlice[Section] `json:"sections"`
	CreatedAt       time.Time                    `json:"createdAt"`
	UpdatedAt       time.Time                    `json:"updatedAt"`
}

// TableName keeps the table name stable across drivers.
func (ServicePage) TableName() string {
	return "service_pages"
}

// Section is an orderable, toggleable block of a page.
type Section struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Title       string          `json:"title"`
	Type        string          `json:"type"`
	Enabled     bool            `json:"enabled"`
	Order       int             `json:"order"`
	Content     json.RawMessage `json:"content"`
	Subsections []Subsection    `json:"subsections"`
	Style       json.RawMessage `json:"style"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

// Subsection is a Section nested one level down, without a type or children.
type Subsection struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content"`
	Enabled   bool            `json:"enabled"`
	Order     int             `json:"order"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
}

// FindSection returns the index of the section with id, or -1.
func (p *ServicePage) FindSection(id string) int {
	for i := range p.Sections {
		if p.Sections[i].ID == id {
			return i
		}
	}
	return -1
}

// FindSectionByName returns the index of the first section called name, or -1.
func (p *ServicePage) FindSectionByName(name string) int {
	for i := range p.Sections {
		if p.Sections[i].Name == name {
			return i
		}
	}
	return -1
}

// FindSubsection returns the index of the subsection with id, or -1.
func (s *Section) FindSubsection(id string) int {
	for i := range s.Subsections {
		if s.Subsections[i].ID == id {
			return i
		}
	}
	return -1
}

// EnabledSections returns the enabled sections in display order, each with
// only its enabled subsections in display order. Equal orders keep their
// position in the stored array. The page itself is not modified.
func (p *ServicePage) EnabledSections() []Section {
	out := make([]Section, 0, len(p.Sections))
	for _, section := range p.Sections {
		if !section.Enabled {
			continue
		}
		subs := make([]Subsection, 0, len(section.Subsections))
		for _, sub := range section.Subsections {
			if sub.Enabled {
				subs = append(subs, sub)
			}
		}
		sort.SliceStable(subs, func(i, j int) bool { return subs[i].Order < subs[j].Order })
		section.Subsections = subs
		out = append(out, section)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// PublicView is the page as unauthenticated readers see it.
func (p *ServicePage) PublicView() ServicePage {
	view := *p
	view.Sections = p.EnabledSections()
	return view
}
