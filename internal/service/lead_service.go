package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/smilecms/internal/content"
	"github.com/smilecms/internal/db"
	"gorm.io/gorm"
)

var (
	ErrLeadNotFound       = errors.New("form submission not found")
	ErrLeadStatusInvalid  = errors.New("form status is invalid")
	ErrLeadNameRequired   = errors.New("first and last name are required")
	ErrLeadEmailInvalid   = errors.New("a valid email is required")
	ErrLeadAssigneeAbsent = errors.New("assignee not found")
)

var emailValidator = validator.New()

// LeadService stores patient intake and appointment requests.
type LeadService struct {
	db *gorm.DB
}

// LeadInput represents fields accepted from the public intake form.
type LeadInput struct {
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Service       string
	PreferredDate string
	PreferredTime string
	Message       string
	Source        string
	NewPatient    bool
}

// LeadFilter describes filters for listing submissions.
type LeadFilter struct {
	Status       string
	Service      string
	Search       string
	AssignedToID *uint
	Page         int
	PerPage      int
}

// LeadListResult aggregates paginated submissions.
type LeadListResult struct {
	Items      []db.Lead
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// NewLeadService creates a LeadService instance.
func NewLeadService(gdb *gorm.DB) *LeadService {
	return &LeadService{db: gdb}
}

// Submit stores a new request with status new and a fresh reference.
func (s *LeadService) Submit(input LeadInput) (*db.Lead, error) {
	first := clean(input.FirstName)
	last := clean(input.LastName)
	if first == "" || last == "" {
		return nil, ErrLeadNameRequired
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := emailValidator.Var(email, "required,email"); err != nil {
		return nil, ErrLeadEmailInvalid
	}

	lead := db.Lead{
		Reference:     uuid.NewString(),
		FirstName:     first,
		LastName:      last,
		Email:         email,
		Phone:         clean(input.Phone),
		Service:       clean(input.Service),
		PreferredDate: clean(input.PreferredDate),
		PreferredTime: clean(input.PreferredTime),
		Message:       clean(input.Message),
		Source:        clean(input.Source),
		NewPatient:    input.NewPatient,
		Status:        db.LeadStatusNew,
	}
	if lead.Source == "" {
		lead.Source = "website"
	}
	if err := s.db.Create(&lead).Error; err != nil {
		return nil, fmt.Errorf("create form submission: %w", err)
	}
	return &lead, nil
}

// List returns submissions matching the filter, newest first.
func (s *LeadService) List(filter LeadFilter) (LeadListResult, error) {
	result := LeadListResult{
		Page:    normalizePage(filter.Page),
		PerPage: normalizePerPage(filter.PerPage, 20),
	}

	query := s.db.Model(&db.Lead{})
	if status := strings.ToLower(strings.TrimSpace(filter.Status)); status != "" {
		if !validLeadStatus(status) {
			return result, ErrLeadStatusInvalid
		}
		query = query.Where("status = ?", status)
	}
	if service := strings.TrimSpace(filter.Service); service != "" {
		query = query.Where("service = ?", service)
	}
	if filter.AssignedToID != nil {
		query = query.Where("assigned_to_id = ?", *filter.AssignedToID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like, like)
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return result, fmt.Errorf("count form submissions: %w", err)
	}

	result.TotalPages = calculateTotalPages(result.Total, result.PerPage)
	offset := (result.Page - 1) * result.PerPage

	if err := query.Preload("AssignedTo").
		Order("created_at desc").Order("id desc").
		Limit(result.PerPage).
		Offset(offset).
		Find(&result.Items).Error; err != nil {
		return result, fmt.Errorf("list form submissions: %w", err)
	}
	return result, nil
}

// Get fetches a submission by id.
func (s *LeadService) Get(id uint) (*db.Lead, error) {
	var lead db.Lead
	if err := s.db.Preload("AssignedTo").First(&lead, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	return &lead, nil
}

// UpdateStatus sets the status and, when notes is non-nil, the notes. Any
// status may follow any other.
func (s *LeadService) UpdateStatus(id uint, status string, notes *string) (*db.Lead, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !validLeadStatus(status) {
		return nil, ErrLeadStatusInvalid
	}

	lead, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{"status": status}
	if notes != nil {
		updates["notes"] = clean(*notes)
	}
	if err := s.db.Model(&db.Lead{}).Where("id = ?", lead.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update form status: %w", err)
	}
	return s.Get(id)
}

// Assign sets or, with a nil userID, clears the staff member handling the
// submission.
func (s *LeadService) Assign(id uint, userID *uint) (*db.Lead, error) {
	lead, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if userID != nil {
		var count int64
		if err := s.db.Model(&db.User{}).Where("id = ?", *userID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("check assignee: %w", err)
		}
		if count == 0 {
			return nil, ErrLeadAssigneeAbsent
		}
	}
	if err := s.db.Model(&db.Lead{}).Where("id = ?", lead.ID).Update("assigned_to_id", userID).Error; err != nil {
		return nil, fmt.Errorf("assign form submission: %w", err)
	}
	return s.Get(id)
}

// Delete removes a submission.
func (s *LeadService) Delete(id uint) error {
	lead, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(lead).Error; err != nil {
		return fmt.Errorf("delete form submission: %w", err)
	}
	return nil
}

// StatusCounts returns the number of submissions per status. Every status
// is present, zero when unused.
func (s *LeadService) StatusCounts() (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := s.db.Model(&db.Lead{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count form statuses: %w", err)
	}

	counts := make(map[string]int64, len(db.LeadStatuses))
	for _, status := range db.LeadStatuses {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func validLeadStatus(status string) bool {
	for _, candidate := range db.LeadStatuses {
		if candidate == status {
			return true
		}
	}
	return false
}

// clean trims and strips markup from free-text form fields.
func clean(s string) string {
	return strings.TrimSpace(content.SanitizeString(s))
}
