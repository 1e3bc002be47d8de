package service

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/smilecms/internal/content"
	"github.com/smilecms/internal/db"
	"gorm.io/gorm"
)

var (
	ErrBlogNotFound      = errors.New("blog post not found")
	ErrBlogTitleRequired = errors.New("blog title is required")
)

const wordsPerMinute = 200

var (
	headingPattern = regexp.MustCompile(`^(#{1,3})\s+(.+?)\s*#*\s*$`)
	markupPattern  = regexp.MustCompile(`<[^>]*>`)
)

// BlogService wraps blog post database operations.
type BlogService struct {
	db  *gorm.DB
	now func() time.Time
}

// BlogInput represents fields accepted when creating or updating a post.
type BlogInput struct {
	Title      string
	Excerpt    string
	Content    string
	Author     string
	CoverImage string
	Sections   []db.BlogSection
	Tags       []string
	Published  bool
	Featured   bool
}

// BlogFilter describes filters for listing posts.
type BlogFilter struct {
	Search   string
	Tag      string
	Featured *bool
	// Published is forced to true for public listings.
	Published *bool
	Page      int
	PerPage   int
}

// BlogListResult aggregates paginated posts.
type BlogListResult struct {
	Items      []db.BlogPost
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// NewBlogService creates a BlogService instance.
func NewBlogService(gdb *gorm.DB) *BlogService {
	return &BlogService{db: gdb, now: time.Now}
}

// ListPublished returns published posts, newest first.
func (s *BlogService) ListPublished(filter BlogFilter) (BlogListResult, error) {
	published := true
	filter.Published = &published
	return s.list(filter, "published_at desc")
}

// ListAll returns posts in any state for the admin.
func (s *BlogService) ListAll(filter BlogFilter) (BlogListResult, error) {
	return s.list(filter, "created_at desc")
}

func (s *BlogService) list(filter BlogFilter, orderBy string) (BlogListResult, error) {
	result := BlogListResult{
		Page:    normalizePage(filter.Page),
		PerPage: normalizePerPage(filter.PerPage, 10),
	}

	query := s.db.Model(&db.BlogPost{})
	if filter.Published != nil {
		query = query.Where("published = ?", *filter.Published)
	}
	if filter.Featured != nil {
		query = query.Where("featured = ?", *filter.Featured)
	}
	if tag := normalizeTag(filter.Tag); tag != "" {
		query = query.Where("CAST(tags AS TEXT) LIKE ?", "%"+strconv.Quote(tag)+"%")
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR excerpt LIKE ? OR content LIKE ?", like, like, like)
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return result, fmt.Errorf("count blog posts: %w", err)
	}

	result.TotalPages = calculateTotalPages(result.Total, result.PerPage)
	offset := (result.Page - 1) * result.PerPage

	if err := query.Order(orderBy).Order("id desc").
		Limit(result.PerPage).
		Offset(offset).
		Find(&result.Items).Error; err != nil {
		return result, fmt.Errorf("list blog posts: %w", err)
	}
	return result, nil
}

// Get fetches a post by id.
func (s *BlogService) Get(id uint) (*db.BlogPost, error) {
	var post db.BlogPost
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPublishedBySlug fetches a published post by slug.
func (s *BlogService) GetPublishedBySlug(slug string) (*db.BlogPost, error) {
	var post db.BlogPost
	if err := s.db.Where("slug = ? AND published = ?", strings.TrimSpace(slug), true).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Create inserts a new post. The slug is derived from the title once.
func (s *BlogService) Create(input BlogInput) (*db.BlogPost, error) {
	title := strings.TrimSpace(content.SanitizeString(input.Title))
	if title == "" {
		return nil, ErrBlogTitleRequired
	}

	var post db.BlogPost
	err := s.db.Transaction(func(tx *gorm.DB) error {
		slug, err := uniqueSlug(tx, slugify(title))
		if err != nil {
			return err
		}
		post = db.BlogPost{Title: title, Slug: slug}
		s.apply(&post, input)
		if err := tx.Create(&post).Error; err != nil {
			return fmt.Errorf("create blog post: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Update replaces the editable fields of a post. The slug never changes.
func (s *BlogService) Update(id uint, input BlogInput) (*db.BlogPost, error) {
	title := strings.TrimSpace(content.SanitizeString(input.Title))
	if title == "" {
		return nil, ErrBlogTitleRequired
	}

	post, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	post.Title = title
	s.apply(post, input)

	if err := s.db.Save(post).Error; err != nil {
		return nil, fmt.Errorf("update blog post: %w", err)
	}
	return post, nil
}

// Delete removes a post.
func (s *BlogService) Delete(id uint) error {
	post, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(post).Error; err != nil {
		return fmt.Errorf("delete blog post: %w", err)
	}
	return nil
}

// SetPublished publishes or unpublishes a post. PublishedAt is set on the
// first publish only.
func (s *BlogService) SetPublished(id uint, published bool) (*db.BlogPost, error) {
	post, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	s.setPublished(post, published)
	if err := s.db.Model(post).Select("published", "published_at").Updates(post).Error; err != nil {
		return nil, fmt.Errorf("publish blog post: %w", err)
	}
	return post, nil
}

// SetFeatured marks or unmarks a post as featured.
func (s *BlogService) SetFeatured(id uint, featured bool) (*db.BlogPost, error) {
	post, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(post).Update("featured", featured).Error; err != nil {
		return nil, fmt.Errorf("feature blog post: %w", err)
	}
	post.Featured = featured
	return post, nil
}

// IncrementViews counts one read of a post.
func (s *BlogService) IncrementViews(id uint) error {
	return s.db.Model(&db.BlogPost{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

// Like adds one like to a published post and returns the new total.
func (s *BlogService) Like(slug string) (int64, error) {
	var likes int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&db.BlogPost{}).
			Where("slug = ? AND published = ?", strings.TrimSpace(slug), true).
			UpdateColumn("likes", gorm.Expr("likes + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("like blog post: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrBlogNotFound
		}
		return tx.Model(&db.BlogPost{}).Where("slug = ?", strings.TrimSpace(slug)).
			Select("likes").Scan(&likes).Error
	})
	if err != nil {
		return 0, err
	}
	return likes, nil
}

// Render returns the post body as sanitized HTML.
func (s *BlogService) Render(post *db.BlogPost) (string, error) {
	return RenderMarkdown(post.Content)
}

// apply copies input onto post and recomputes the derived fields.
func (s *BlogService) apply(post *db.BlogPost, input BlogInput) {
	post.Excerpt = strings.TrimSpace(content.SanitizeString(input.Excerpt))
	post.Content = input.Content
	post.Author = strings.TrimSpace(content.SanitizeString(input.Author))
	post.CoverImage = strings.TrimSpace(input.CoverImage)
	post.Sections = normalizeBlogSections(input.Sections)
	post.Tags = normalizeTags(input.Tags)
	post.Featured = input.Featured
	s.setPublished(post, input.Published)

	post.EstimatedReadTime = estimateReadTime(post.Content, post.Sections)
	post.TableOfContents = buildTableOfContents(post.Content, post.Sections)
}

func (s *BlogService) setPublished(post *db.BlogPost, published bool) {
	post.Published = published
	if published && post.PublishedAt == nil {
		now := s.now().UTC()
		post.PublishedAt = &now
	}
}

func normalizeBlogSections(sections []db.BlogSection) []db.BlogSection {
	out := make([]db.BlogSection, 0, len(sections))
	for i, section := range sections {
		if strings.TrimSpace(section.ID) == "" {
			section.ID = "block_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		}
		section.Type = strings.ToLower(strings.TrimSpace(section.Type))
		if section.Type == "" {
			section.Type = "text"
		}
		section.Title = strings.TrimSpace(content.SanitizeString(section.Title))
		section.Content = content.SanitizeString(section.Content)
		for j := range section.Images {
			section.Images[j].Alt = content.SanitizeString(section.Images[j].Alt)
			section.Images[j].Caption = content.SanitizeString(section.Images[j].Caption)
		}
		if section.Order == 0 {
			section.Order = i
		}
		out = append(out, section)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = normalizeTag(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// estimateReadTime returns whole minutes at 200 words per minute, at least 1.
func estimateReadTime(body string, sections []db.BlogSection) int {
	words := len(strings.Fields(markupPattern.ReplaceAllString(body, " ")))
	for _, section := range sections {
		words += len(strings.Fields(markupPattern.ReplaceAllString(section.Content, " ")))
	}
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// buildTableOfContents lists markdown headings up to level 3, skipping fenced
// code, followed by the titles of titled sections.
func buildTableOfContents(body string, sections []db.BlogSection) []db.TOCEntry {
	entries := []db.TOCEntry{}
	used := map[string]int{}
	inFence := false
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		match := headingPattern.FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}
		text := strings.TrimSpace(match[2])
		entries = append(entries, db.TOCEntry{Level: len(match[1]), Text: text, Anchor: anchorFor(text, used)})
	}
	for _, section := range sections {
		if section.Title == "" {
			continue
		}
		entries = append(entries, db.TOCEntry{Level: 2, Text: section.Title, Anchor: anchorFor(section.Title, used)})
	}
	return entries
}

func anchorFor(text string, used map[string]int) string {
	anchor := slugify(text)
	used[anchor]++
	if n := used[anchor]; n > 1 {
		anchor = fmt.Sprintf("%s-%d", anchor, n-1)
	}
	return anchor
}

// slugify lowercases s and joins its letters and digits with single dashes.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if r > unicode.MaxASCII {
				continue
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "post"
	}
	return slug
}

// uniqueSlug returns base, or base-N for the smallest free N, counting
// deleted posts as taken.
func uniqueSlug(tx *gorm.DB, base string) (string, error) {
	var taken []string
	if err := tx.Unscoped().Model(&db.BlogPost{}).
		Where("slug = ? OR slug LIKE ?", base, base+"-%").
		Pluck("slug", &taken).Error; err != nil {
		return "", fmt.Errorf("check blog slug: %w", err)
	}
	used := make(map[string]struct{}, len(taken))
	for _, slug := range taken {
		used[slug] = struct{}{}
	}
	if _, ok := used[base]; !ok {
		return base, nil
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if _, ok := used[candidate]; !ok {
			return candidate, nil
		}
	}
}
