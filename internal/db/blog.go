package db

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BlogPost is an article on the clinic blog.
type BlogPost struct {
	gorm.Model
	Title             string                           `gorm:"size:255;not null" json:"title"`
	Slug              string                           `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Excerpt           string                           `gorm:"type:text" json:"excerpt"`
	Content           string                           `gorm:"type:text" json:"content"`
	Sections          datatypes.JSONSlice[BlogSection] `json:"sections"`
	Tags              datatypes.JSONSlice[string]      `json:"tags"`
	Author            string                           `gorm:"size:120" json:"author"`
	CoverImage        string                           `gorm:"size:500" json:"coverImage"`
	Published         bool                             `gorm:"index" json:"published"`
	PublishedAt       *time.Time                       `json:"publishedAt"`
	Featured          bool                             `gorm:"index" json:"featured"`
	Views             int64                            `gorm:"not null;default:0" json:"views"`
	Likes             int64                            `gorm:"not null;default:0" json:"likes"`
	EstimatedReadTime int                              `json:"estimatedReadTime"`
	TableOfContents   datatypes.JSONSlice[TOCEntry]    `json:"tableOfContents"`
}

// TableName keeps the table name stable across drivers.
func (BlogPost) TableName() string {
	return "blog_posts"
}

// BlogSection is one typed block of an article. It is independent of the
// page Section model.
type BlogSection struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Images   []BlogImage       `json:"images"`
	Styles   map[string]string `json:"styles"`
	Metadata map[string]any    `json:"metadata"`
	Order    int               `json:"order"`
}

type BlogImage struct {
	URL     string `json:"url"`
	Alt     string `json:"alt"`
	Caption string `json:"caption"`
}

// TOCEntry is one heading in the computed table of contents.
type TOCEntry struct {
	Level  int    `json:"level"`
	Text   string `json:"text"`
	Anchor string `json:"anchor"`
}
