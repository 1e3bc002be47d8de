package db

import (
	"github.com/smilecms/internal/content"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ServiceTemplate is a named, reusable bundle of page components.
type ServiceTemplate struct {
	gorm.Model
	Name        string                                 `gorm:"size:150;uniqueIndex;not null" json:"name"`
	Description string                                 `gorm:"type:text" json:"description"`
	Category    string                                 `gorm:"size:80;index" json:"category"`
	Components  datatypes.JSONSlice[content.Component] `json:"components"`
	IsPremium   bool                                   `json:"isPremium"`
	IsActive    bool                                   `json:"isActive"`
	UsageCount  int64                                  `gorm:"not null;default:0" json:"usageCount"`
}

// TableName keeps the table name stable across drivers.
func (ServiceTemplate) TableName() string {
	return "service_templates"
}
