package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smilecms/internal/content"
	"github.com/smilecms/internal/db"
	"gorm.io/gorm"
)

var (
	ErrTemplateNotFound     = errors.New("template not found")
	ErrTemplateInactive     = errors.New("template is not active")
	ErrTemplateNameRequired = errors.New("template name is required")
	ErrTemplateNameTaken    = errors.New("template name already exists")
)

// TemplateService manages reusable page-builder templates.
type TemplateService struct {
	db *gorm.DB
}

// TemplateInput represents fields accepted when creating or updating a template.
type TemplateInput struct {
	Name        string
	Description string
	Category    string
	Components  []content.Component
	IsPremium   bool
	// IsActive defaults to true on create when nil.
	IsActive *bool
}

// TemplateFilter describes filters for listing templates.
type TemplateFilter struct {
	Category   string
	Search     string
	ActiveOnly bool
	Page       int
	PerPage    int
}

// TemplateListResult aggregates paginated template results.
type TemplateListResult struct {
	Items      []db.ServiceTemplate
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// NewTemplateService creates a TemplateService instance.
func NewTemplateService(gdb *gorm.DB) *TemplateService {
	return &TemplateService{db: gdb}
}

// List returns templates matching the filter, most used first.
func (s *TemplateService) List(filter TemplateFilter) (TemplateListResult, error) {
	result := TemplateListResult{
		Page:    normalizePage(filter.Page),
		PerPage: normalizePerPage(filter.PerPage, 20),
	}

	query := s.db.Model(&db.ServiceTemplate{})
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return result, fmt.Errorf("count templates: %w", err)
	}

	result.TotalPages = calculateTotalPages(result.Total, result.PerPage)
	offset := (result.Page - 1) * result.PerPage

	if err := query.Order("usage_count desc").Order("name asc").
		Limit(result.PerPage).
		Offset(offset).
		Find(&result.Items).Error; err != nil {
		return result, fmt.Errorf("list templates: %w", err)
	}
	return result, nil
}

// Get fetches a template by id.
func (s *TemplateService) Get(id uint) (*db.ServiceTemplate, error) {
	var tpl db.ServiceTemplate
	if err := s.db.First(&tpl, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

// Create inserts a new template.
func (s *TemplateService) Create(input TemplateInput) (*db.ServiceTemplate, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTemplateNameRequired
	}
	components, err := prepareComponents(input.Components)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(s.db, name, 0); err != nil {
		return nil, err
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	tpl := db.ServiceTemplate{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Category:    strings.ToLower(strings.TrimSpace(input.Category)),
		Components:  components,
		IsPremium:   input.IsPremium,
		IsActive:    active,
	}
	if err := s.db.Create(&tpl).Error; err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return &tpl, nil
}

// Update replaces the editable fields of a template. UsageCount is kept.
func (s *TemplateService) Update(id uint, input TemplateInput) (*db.ServiceTemplate, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTemplateNameRequired
	}
	components, err := prepareComponents(input.Components)
	if err != nil {
		return nil, err
	}

	tpl, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(s.db, name, tpl.ID); err != nil {
		return nil, err
	}

	tpl.Name = name
	tpl.Description = strings.TrimSpace(input.Description)
	tpl.Category = strings.ToLower(strings.TrimSpace(input.Category))
	tpl.Components = components
	tpl.IsPremium = input.IsPremium
	if input.IsActive != nil {
		tpl.IsActive = *input.IsActive
	}

	if err := s.db.Save(tpl).Error; err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return tpl, nil
}

// Delete removes a template for good so its name can be reused.
func (s *TemplateService) Delete(id uint) error {
	tpl, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.db.Unscoped().Delete(tpl).Error; err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

// Use counts one use of the template and returns its components with every
// style completed from the type defaults.
func (s *TemplateService) Use(id uint) ([]content.Component, error) {
	var components []content.Component
	err := s.db.Transaction(func(tx *gorm.DB) error {
		tpl, err := lockTemplate(tx, id)
		if err != nil {
			return err
		}
		if !tpl.IsActive {
			return ErrTemplateInactive
		}
		if err := tx.Model(&db.ServiceTemplate{}).Where("id = ?", tpl.ID).
			UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1)).Error; err != nil {
			return fmt.Errorf("count template use: %w", err)
		}
		components, err = content.EnsureComponentStyles(tpl.Components)
		return err
	})
	if err != nil {
		return nil, err
	}
	return components, nil
}

// Clone copies a template under a new name. The copy is never premium and
// starts with no uses. An empty name derives one from the source.
func (s *TemplateService) Clone(id uint, name string) (*db.ServiceTemplate, error) {
	var clone db.ServiceTemplate
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var source db.ServiceTemplate
		if err := tx.First(&source, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTemplateNotFound
			}
			return fmt.Errorf("load template: %w", err)
		}

		name = strings.TrimSpace(name)
		if name == "" {
			derived, err := s.copyName(tx, source.Name)
			if err != nil {
				return err
			}
			name = derived
		} else if err := s.ensureNameFree(tx, name, 0); err != nil {
			return err
		}

		components := make([]content.Component, len(source.Components))
		copy(components, source.Components)
		clone = db.ServiceTemplate{
			Name:        name,
			Description: source.Description,
			Category:    source.Category,
			Components:  components,
			IsPremium:   false,
			IsActive:    source.IsActive,
			UsageCount:  0,
		}
		if err := tx.Create(&clone).Error; err != nil {
			return fmt.Errorf("clone template: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &clone, nil
}

func (s *TemplateService) ensureNameFree(tx *gorm.DB, name string, exceptID uint) error {
	var count int64
	query := tx.Model(&db.ServiceTemplate{}).Where("name = ?", name)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("check template name: %w", err)
	}
	if count > 0 {
		return ErrTemplateNameTaken
	}
	return nil
}

func (s *TemplateService) copyName(tx *gorm.DB, base string) (string, error) {
	candidate := base + " (Copy)"
	for i := 2; ; i++ {
		err := s.ensureNameFree(tx, candidate, 0)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, ErrTemplateNameTaken) {
			return "", err
		}
		candidate = fmt.Sprintf("%s (Copy %d)", base, i)
	}
}

// prepareComponents validates every component body against its type and
// sanitizes it. Styles are sanitized here and completed on use.
func prepareComponents(components []content.Component) ([]content.Component, error) {
	out := make([]content.Component, 0, len(components))
	for i, c := range components {
		c.Type = strings.ToLower(strings.TrimSpace(c.Type))
		if c.Type == "" {
			c.Type = content.KindContent
		}
		body, err := prepareContent(c.Type, c.Content)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		c.Content = body
		c.Name = strings.TrimSpace(c.Name)
		c.Title = strings.TrimSpace(content.SanitizeString(c.Title))
		if len(c.Style) > 0 {
			style, err := content.MergeStyle(nil, c.Style)
			if err != nil {
				return nil, fmt.Errorf("component %d: %w", i, err)
			}
			c.Style = style
		}
		out = append(out, c)
	}
	return out, nil
}
