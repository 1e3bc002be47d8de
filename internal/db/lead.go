package db

import "gorm.io/gorm"

const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusScheduled = "scheduled"
	LeadStatusCompleted = "completed"
	LeadStatusCancelled = "cancelled"
)

// LeadStatuses lists every status in pipeline order.
var LeadStatuses = []string{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusScheduled,
	LeadStatusCompleted,
	LeadStatusCancelled,
}

// Lead is a patient intake or appointment request from the public site.
// Status is a plain field; any status may follow any other.
type Lead struct {
	gorm.Model
	Reference     string `gorm:"size:36;uniqueIndex;not null" json:"reference"`
	FirstName     string `gorm:"size:100;not null" json:"firstName"`
	LastName      string `gorm:"size:100;not null" json:"lastName"`
	Email         string `gorm:"size:255;not null;index" json:"email"`
	Phone         string `gorm:"size:40" json:"phone"`
	Service       string `gorm:"size:120" json:"service"`
	PreferredDate string `gorm:"size:20" json:"preferredDate"`
	PreferredTime string `gorm:"size:20" json:"preferredTime"`
	Message       string `gorm:"type:text" json:"message"`
	Source        string `gorm:"size:120" json:"source"`
	NewPatient    bool   `json:"newPatient"`
	Status        string `gorm:"size:20;not null;default:new;index" json:"status"`
	AssignedToID  *uint  `json:"assignedToId"`
	AssignedTo    *User  `gorm:"constraint:OnDelete:SET NULL" json:"assignedTo,omitempty"`
	Notes         string `gorm:"type:text" json:"notes"`
}

// TableName keeps the table name stable across drivers.
func (Lead) TableName() string {
	return "leads"
}
