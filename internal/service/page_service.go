package service

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/smilecms/internal/catalog"
	"github.com/smilecms/internal/content"
	"github.com/smilecms/internal/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPageNotFound       = errors.New("page not found")
	ErrSectionNotFound    = errors.New("section not found")
	ErrSubsectionNotFound = errors.New("subsection not found")
	ErrInvalidOrder       = errors.New("order must list every sibling id exactly once")
	ErrInvalidStatus      = errors.New("invalid page status")
	ErrDuplicateID        = errors.New("id already exists on this page")
	ErrInvalidField       = errors.New("invalid field name")
)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,63}$`)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Recorder receives page lifecycle events, e.g. for metrics.
type Recorder interface {
	PageSeeded(slug string)
	SectionMutated(op string)
}

type nopRecorder struct{}

func (nopRecorder) PageSeeded(string)     {}
func (nopRecorder) SectionMutated(string) {}

// PageService manages service landing pages and their sections.
type PageService struct {
	db       *gorm.DB
	now      func() time.Time
	suffix   func() string
	recorder Recorder
}

// PageInput carries a whole-document update. Nil fields are left untouched;
// a non-nil Sections replaces every section of the page.
type PageInput struct {
	PageTitle       *string
	MetaDescription *string
	Status          *string
	GlobalStyles    json.RawMessage
	Sections        []SectionInput
}

// SectionInput is the sectionData payload for add and update calls.
type SectionInput struct {
	ID          *string           `json:"id"`
	Name        *string           `json:"name"`
	Title       *string           `json:"title"`
	Type        *string           `json:"type"`
	Enabled     *bool             `json:"enabled"`
	Order       *int              `json:"order"`
	Content     json.RawMessage   `json:"content"`
	Style       json.RawMessage   `json:"style"`
	Subsections []SubsectionInput `json:"subsections"`
}

// SubsectionInput is the subsectionData payload for add and update calls.
type SubsectionInput struct {
	ID      *string         `json:"id"`
	Title   *string         `json:"title"`
	Enabled *bool           `json:"enabled"`
	Order   *int            `json:"order"`
	Content json.RawMessage `json:"content"`
}

// NewPageService returns a new PageService instance.
func NewPageService(gdb *gorm.DB) *PageService {
	return &PageService{
		db:       gdb,
		now:      time.Now,
		suffix:   randomSuffix,
		recorder: nopRecorder{},
	}
}

// WithRecorder attaches an event recorder.
func (s *PageService) WithRecorder(r Recorder) *PageService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// GetOrCreate returns the page for slug, seeding it from the catalog on
// first read. Concurrent first readers all observe the same row.
func (s *PageService) GetOrCreate(slug string) (*db.ServicePage, error) {
	return s.loadOrSeed(s.db, slug, false)
}

// GetPublic returns the published page with only enabled sections.
func (s *PageService) GetPublic(slug string) (*db.ServicePage, error) {
	page, err := s.GetOrCreate(slug)
	if err != nil {
		return nil, err
	}
	if page.Status != db.PageStatusPublished {
		return nil, ErrPageNotFound
	}
	view := page.PublicView()
	return &view, nil
}

// UpdatePage merges a whole-document update into the page.
func (s *PageService) UpdatePage(slug string, input PageInput) (*db.ServicePage, error) {
	return s.mutate(slug, "update_page", func(page *db.ServicePage) error {
		if input.PageTitle != nil {
			title := strings.TrimSpace(content.SanitizeString(*input.PageTitle))
			if title != "" {
				page.PageTitle = title
			}
		}
		if input.MetaDescription != nil {
			page.MetaDescription = strings.TrimSpace(content.SanitizeString(*input.MetaDescription))
		}
		if input.Status != nil {
			status := strings.ToLower(strings.TrimSpace(*input.Status))
			if !validPageStatus(status) {
				return ErrInvalidStatus
			}
			page.Status = status
		}
		if len(input.GlobalStyles) > 0 {
			merged, err := content.MergeStyle(json.RawMessage(page.GlobalStyles), input.GlobalStyles)
			if err != nil {
				return err
			}
			page.GlobalStyles = datatypes.JSON(merged)
		}
		if input.Sections != nil {
			sections := make([]db.Section, 0, len(input.Sections))
			replaced := &db.ServicePage{}
			for i, in := range input.Sections {
				section, err := s.buildSection(replaced, in)
				if err != nil {
					return err
				}
				section.Order = i
				if in.Order != nil {
					section.Order = *in.Order
				}
				sections = append(sections, section)
				replaced.Sections = sections
			}
			page.Sections = sections
		}
		return nil
	})
}

// UpdateNamedSection merges patch into the content of the section called
// field, creating the section on first write.
func (s *PageService) UpdateNamedSection(slug, field string, patch json.RawMessage) (*db.Section, error) {
	field = strings.TrimSpace(field)
	if !fieldNamePattern.MatchString(field) {
		return nil, ErrInvalidField
	}

	var result db.Section
	_, err := s.mutate(slug, "update_field", func(page *db.ServicePage) error {
		idx := page.FindSectionByName(field)
		if idx < 0 {
			kind := catalog.KindForField(field)
			section, err := s.buildSection(page, SectionInput{Name: &field, Title: &field, Type: &kind})
			if err != nil {
				return err
			}
			page.Sections = append(page.Sections, section)
			idx = len(page.Sections) - 1
		}

		section := &page.Sections[idx]
		merged, err := mergeContent(section.Type, section.Content, patch)
		if err != nil {
			return err
		}
		section.Content = merged
		section.UpdatedAt = s.stamp()
		result = *section
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AddSection appends a section to the end of the page.
func (s *PageService) AddSection(slug string, input SectionInput) (*db.Section, error) {
	var result db.Section
	_, err := s.mutate(slug, "add_section", func(page *db.ServicePage) error {
		section, err := s.buildSection(page, input)
		if err != nil {
			return err
		}
		section.Order = len(page.Sections)
		page.Sections = append(page.Sections, section)
		result = section
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateSection applies input over the section. Scalars replace, content and
// style are deep-merged, and content is revalidated against the final type.
// Order and subsections are managed by their own operations.
func (s *PageService) UpdateSection(slug, sectionID string, input SectionInput) (*db.Section, error) {
	var result db.Section
	_, err := s.mutate(slug, "update_section", func(page *db.ServicePage) error {
		idx := page.FindSection(sectionID)
		if idx < 0 {
			return ErrSectionNotFound
		}
		section := &page.Sections[idx]

		if input.Name != nil {
			section.Name = strings.TrimSpace(*input.Name)
		}
		if input.Title != nil {
			section.Title = strings.TrimSpace(content.SanitizeString(*input.Title))
		}
		if input.Type != nil && strings.TrimSpace(*input.Type) != "" {
			section.Type = strings.ToLower(strings.TrimSpace(*input.Type))
		}
		if input.Enabled != nil {
			section.Enabled = *input.Enabled
		}

		merged, err := mergeContent(section.Type, section.Content, input.Content)
		if err != nil {
			return err
		}
		section.Content = merged

		if len(input.Style) > 0 {
			style, err := content.MergeStyle(section.Style, input.Style)
			if err != nil {
				return err
			}
			section.Style = style
		}

		section.UpdatedAt = s.stamp()
		result = *section
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteSection removes a section. Sibling orders are left as they are.
func (s *PageService) DeleteSection(slug, sectionID string) error {
	_, err := s.mutate(slug, "delete_section", func(page *db.ServicePage) error {
		idx := page.FindSection(sectionID)
		if idx < 0 {
			return ErrSectionNotFound
		}
		page.Sections = append(page.Sections[:idx], page.Sections[idx+1:]...)
		return nil
	})
	return err
}

// ToggleSection sets the enabled flag.
func (s *PageService) ToggleSection(slug, sectionID string, enabled bool) (*db.Section, error) {
	var result db.Section
	_, err := s.mutate(slug, "toggle_section", func(page *db.ServicePage) error {
		idx := page.FindSection(sectionID)
		if idx < 0 {
			return ErrSectionNotFound
		}
		page.Sections[idx].Enabled = enabled
		page.Sections[idx].UpdatedAt = s.stamp()
		result = page.Sections[idx]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ReorderSections assigns order 0..n-1 following ids, which must name every
// section of the page exactly once.
func (s *PageService) ReorderSections(slug string, ids []string) (*db.ServicePage, error) {
	return s.mutate(slug, "reorder_sections", func(page *db.ServicePage) error {
		existing := make([]string, len(page.Sections))
		for i, section := range page.Sections {
			existing[i] = section.ID
		}
		positions, err := permutation(existing, ids)
		if err != nil {
			return err
		}
		for i := range page.Sections {
			page.Sections[i].Order = positions[page.Sections[i].ID]
		}
		return nil
	})
}

// AddSubsection appends a subsection to a section.
func (s *PageService) AddSubsection(slug, sectionID string, input SubsectionInput) (*db.Subsection, error) {
	var result db.Subsection
	_, err := s.mutate(slug, "add_subsection", func(page *db.ServicePage) error {
		idx := page.FindSection(sectionID)
		if idx < 0 {
			return ErrSectionNotFound
		}
		section := &page.Sections[idx]
		sub, err := s.buildSubsection(page, input)
		if err != nil {
			return err
		}
		sub.Order = len(section.Subsections)
		section.Subsections = append(section.Subsections, sub)
		section.UpdatedAt = s.stamp()
		result = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateSubsection applies input over a subsection the same way UpdateSection
// does for sections.
func (s *PageService) UpdateSubsection(slug, sectionID, subsectionID string, input SubsectionInput) (*db.Subsection, error) {
	var result db.Subsection
	_, err := s.mutate(slug, "update_subsection", func(page *db.ServicePage) error {
		sub, err := findSubsection(page, sectionID, subsectionID)
		if err != nil {
			return err
		}
		if input.Title != nil {
			sub.Title = strings.TrimSpace(content.SanitizeString(*input.Title))
		}
		if input.Enabled != nil {
			sub.Enabled = *input.Enabled
		}
		merged, err := mergeContent("", sub.Content, input.Content)
		if err != nil {
			return err
		}
		sub.Content = merged
		sub.UpdatedAt = s.stamp()
		result = *sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteSubsection removes a subsection from its section.
func (s *PageService) DeleteSubsection(slug, sectionID, subsectionID string) error {
	_, err := s.mutate(slug, "delete_subsection", func(page *db.ServicePage) error {
		idx := page.FindSection(sectionID)
		if idx < 0 {
			return ErrSectionNotFound
		}
		section := &page.Sections[idx]
		subIdx := section.FindSubsection(subsectionID)
		if subIdx < 0 {
			return ErrSubsectionNotFound
		}
		section.Subsections = append(section.Subsections[:subIdx], section.Subsections[subIdx+1:]...)
		return nil
	})
	return err
}

// ToggleSubsection sets the enabled flag of a subsection.
func (s *PageService) ToggleSubsection(slug, sectionID, subsectionID string, enabled bool) (*db.Subsection, error) {
	var result db.Subsection
	_, err := s.mutate(slug, "toggle_subsection", func(page *db.ServicePage) error {
		sub, err := findSubsection(page, sectionID, subsectionID)
		if err != nil {
			return err
		}
		sub.Enabled = enabled
		sub.UpdatedAt = s.stamp()
		result = *sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ReorderSubsections assigns order 0..n-1 following ids, which must name every
// subsection of the section exactly once.
func (s *PageService) ReorderSubsections(slug, sectionID string, ids []string) (*db.Section, error) {
	var result db.Section
	_, err := s.mutate(slug, "reorder_subsections", func(page *db.ServicePage) error {
		idx := page.FindSection(sectionID)
		if idx < 0 {
			return ErrSectionNotFound
		}
		section := &page.Sections[idx]
		existing := make([]string, len(section.Subsections))
		for i, sub := range section.Subsections {
			existing[i] = sub.ID
		}
		positions, err := permutation(existing, ids)
		if err != nil {
			return err
		}
		for i := range section.Subsections {
			section.Subsections[i].Order = positions[section.Subsections[i].ID]
		}
		result = *section
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ApplyTemplate appends the template's components to the page as new
// sections and counts the use against the template.
func (s *PageService) ApplyTemplate(slug string, templateID uint) ([]db.Section, error) {
	var added []db.Section
	_, err := s.mutateTx(slug, "apply_template", func(tx *gorm.DB, page *db.ServicePage) error {
		tpl, err := lockTemplate(tx, templateID)
		if err != nil {
			return err
		}
		if !tpl.IsActive {
			return ErrTemplateInactive
		}

		components, err := content.EnsureComponentStyles(tpl.Components)
		if err != nil {
			return err
		}
		for _, c := range components {
			section, err := s.buildSection(page, SectionInput{
				Name:    &c.Name,
				Title:   &c.Title,
				Type:    &c.Type,
				Content: c.Content,
				Style:   c.Style,
			})
			if err != nil {
				return err
			}
			section.Order = len(page.Sections)
			page.Sections = append(page.Sections, section)
			added = append(added, section)
		}

		if err := tx.Model(&db.ServiceTemplate{}).Where("id = ?", tpl.ID).
			UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1)).Error; err != nil {
			return fmt.Errorf("count template use: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func (s *PageService) mutate(slug, op string, fn func(page *db.ServicePage) error) (*db.ServicePage, error) {
	return s.mutateTx(slug, op, func(_ *gorm.DB, page *db.ServicePage) error {
		return fn(page)
	})
}

// mutateTx runs fn against the freshly read page inside one transaction and
// saves the result. Nothing is written when fn fails.
func (s *PageService) mutateTx(slug, op string, fn func(tx *gorm.DB, page *db.ServicePage) error) (*db.ServicePage, error) {
	var result *db.ServicePage
	err := s.db.Transaction(func(tx *gorm.DB) error {
		page, err := s.loadOrSeed(tx, slug, true)
		if err != nil {
			return err
		}
		if err := fn(tx, page); err != nil {
			return err
		}
		if err := tx.Save(page).Error; err != nil {
			return fmt.Errorf("save page: %w", err)
		}
		result = page
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recorder.SectionMutated(op)
	return result, nil
}

func (s *PageService) loadOrSeed(tx *gorm.DB, slug string, lock bool) (*db.ServicePage, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if _, ok := catalog.Lookup(slug); !ok {
		return nil, ErrPageNotFound
	}

	page, err := findPage(tx, slug, lock)
	if err == nil {
		return page, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load page: %w", err)
	}

	fixture, _ := catalog.DefaultPage(slug, s.newID)
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoNothing: true,
	}).Create(&fixture)
	if res.Error != nil {
		return nil, fmt.Errorf("seed page: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.recorder.PageSeeded(slug)
	}

	page, err = findPage(tx, slug, lock)
	if err != nil {
		return nil, fmt.Errorf("load seeded page: %w", err)
	}
	return page, nil
}

func findPage(tx *gorm.DB, slug string, lock bool) (*db.ServicePage, error) {
	query := tx.Where("slug = ?", slug)
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var page db.ServicePage
	if err := query.First(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

func lockTemplate(tx *gorm.DB, id uint) (*db.ServiceTemplate, error) {
	var tpl db.ServiceTemplate
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&tpl, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("load template: %w", err)
	}
	return &tpl, nil
}

// buildSection turns input into a new section for page, filling defaults and
// assigning an id that is unique within the page. The caller sets Order.
func (s *PageService) buildSection(page *db.ServicePage, input SectionInput) (db.Section, error) {
	section := db.Section{
		Title:       "New Section",
		Type:        content.KindContent,
		Enabled:     true,
		Subsections: []db.Subsection{},
		Style:       content.EmptyObject(),
		UpdatedAt:   s.stamp(),
	}
	if input.Name != nil {
		section.Name = strings.TrimSpace(*input.Name)
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		section.Title = strings.TrimSpace(content.SanitizeString(*input.Title))
	}
	if input.Type != nil && strings.TrimSpace(*input.Type) != "" {
		section.Type = strings.ToLower(strings.TrimSpace(*input.Type))
	}
	if input.Enabled != nil {
		section.Enabled = *input.Enabled
	}

	body, err := prepareContent(section.Type, input.Content)
	if err != nil {
		return db.Section{}, err
	}
	section.Content = body

	if len(input.Style) > 0 {
		style, err := content.MergeStyle(nil, input.Style)
		if err != nil {
			return db.Section{}, err
		}
		section.Style = style
	}

	id, err := s.assignID(page, input.ID, "section")
	if err != nil {
		return db.Section{}, err
	}
	section.ID = id

	// Subsections added with the section need ids before the next lookup.
	owner := &db.ServicePage{Sections: append(append([]db.Section{}, page.Sections...), section)}
	for i, in := range input.Subsections {
		sub, err := s.buildSubsection(owner, in)
		if err != nil {
			return db.Section{}, err
		}
		sub.Order = i
		if in.Order != nil {
			sub.Order = *in.Order
		}
		section.Subsections = append(section.Subsections, sub)
		owner.Sections[len(owner.Sections)-1] = section
	}
	return section, nil
}

func (s *PageService) buildSubsection(page *db.ServicePage, input SubsectionInput) (db.Subsection, error) {
	sub := db.Subsection{
		Title:     "New Subsection",
		Enabled:   true,
		UpdatedAt: s.stamp(),
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		sub.Title = strings.TrimSpace(content.SanitizeString(*input.Title))
	}
	if input.Enabled != nil {
		sub.Enabled = *input.Enabled
	}
	body, err := prepareContent("", input.Content)
	if err != nil {
		return db.Subsection{}, err
	}
	sub.Content = body

	id, err := s.assignID(page, input.ID, "subsection")
	if err != nil {
		return db.Subsection{}, err
	}
	sub.ID = id
	return sub, nil
}

// assignID keeps a caller-supplied id when it is free and otherwise
// generates one, retrying on collision.
func (s *PageService) assignID(page *db.ServicePage, requested *string, prefix string) (string, error) {
	if requested != nil && strings.TrimSpace(*requested) != "" {
		id := strings.TrimSpace(*requested)
		if idInUse(page, id) {
			return "", ErrDuplicateID
		}
		return id, nil
	}
	for {
		id := s.newID(prefix)
		if !idInUse(page, id) {
			return id, nil
		}
	}
}

func (s *PageService) newID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, s.now().UnixMilli(), s.suffix())
}

func (s *PageService) stamp() *time.Time {
	now := s.now().UTC()
	return &now
}

func idInUse(page *db.ServicePage, id string) bool {
	for _, section := range page.Sections {
		if section.ID == id {
			return true
		}
		for _, sub := range section.Subsections {
			if sub.ID == id {
				return true
			}
		}
	}
	return false
}

func findSubsection(page *db.ServicePage, sectionID, subsectionID string) (*db.Subsection, error) {
	idx := page.FindSection(sectionID)
	if idx < 0 {
		return nil, ErrSectionNotFound
	}
	section := &page.Sections[idx]
	subIdx := section.FindSubsection(subsectionID)
	if subIdx < 0 {
		return nil, ErrSubsectionNotFound
	}
	return &section.Subsections[subIdx], nil
}

// permutation checks that ids names each of existing exactly once and
// returns the position of every id.
func permutation(existing, ids []string) (map[string]int, error) {
	if len(ids) != len(existing) {
		return nil, ErrInvalidOrder
	}
	known := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		known[id] = struct{}{}
	}
	positions := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, ok := known[id]; !ok {
			return nil, ErrInvalidOrder
		}
		if _, dup := positions[id]; dup {
			return nil, ErrInvalidOrder
		}
		positions[id] = i
	}
	return positions, nil
}

// prepareContent validates a new body against kind and sanitizes it. Keys
// the typed shape does not know about are kept.
func prepareContent(kind string, raw json.RawMessage) (json.RawMessage, error) {
	if _, err := content.Decode(kind, raw); err != nil {
		return nil, err
	}
	return content.Sanitize(raw)
}

// mergeContent deep-merges patch into base, validates against kind and
// sanitizes the result. An empty patch still revalidates base.
func mergeContent(kind string, base, patch json.RawMessage) (json.RawMessage, error) {
	merged, err := content.MergeTyped(kind, base, patch)
	if err != nil {
		return nil, err
	}
	return content.Sanitize(merged)
}

func validPageStatus(status string) bool {
	switch status {
	case db.PageStatusDraft, db.PageStatusPublished, db.PageStatusArchived:
		return true
	default:
		return false
	}
}

func randomSuffix() string {
	var b strings.Builder
	base := big.NewInt(int64(len(idAlphabet)))
	for i := 0; i < 9; i++ {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			n = big.NewInt(time.Now().UnixNano() % int64(len(idAlphabet)))
		}
		b.WriteByte(idAlphabet[n.Int64()])
	}
	return b.String()
}
