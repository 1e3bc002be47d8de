package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/smilecms/internal/db"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"5 Signs You Need a Crown!":    "5-signs-you-need-a-crown",
		"  Whitening -- Myths & Facts": "whitening-myths-facts",
		"!!!":                          "post",
	}
	for input, want := range cases {
		if got := slugify(input); got != want {
			t.Fatalf("slugify(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCreateBlogDerivesUniqueSlugOnce(t *testing.T) {
	svc := NewBlogService(setupServiceTestDB(t))

	first, err := svc.Create(BlogInput{Title: "Caring for Crowns"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	second, err := svc.Create(BlogInput{Title: "Caring for Crowns"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if first.Slug != "caring-for-crowns" || second.Slug != "caring-for-crowns-2" {
		t.Fatalf("unexpected slugs %s, %s", first.Slug, second.Slug)
	}

	updated, err := svc.Update(first.ID, BlogInput{Title: "A Whole New Title"})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Slug != "caring-for-crowns" {
		t.Fatalf("expected slug to stay fixed, got %s", updated.Slug)
	}

	if err := svc.Delete(second.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	third, err := svc.Create(BlogInput{Title: "Caring for Crowns"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if third.Slug != "caring-for-crowns-3" {
		t.Fatalf("expected deleted slug to stay reserved, got %s", third.Slug)
	}

	if _, err := svc.Create(BlogInput{Title: "  "}); !errors.Is(err, ErrBlogTitleRequired) {
		t.Fatalf("expected ErrBlogTitleRequired, got %v", err)
	}
}

func TestBlogDerivedFields(t *testing.T) {
	svc := NewBlogService(setupServiceTestDB(t))
	body := "# Intro\n\n" + strings.Repeat("word ", 250) + "\n\n## Care tips\n\n```\n# not a heading\n```\n\n### Care tips\n"

	post, err := svc.Create(BlogInput{
		Title:   "Guide",
		Content: body,
		Sections: []db.BlogSection{
			{Title: "Aftercare", Content: strings.Repeat("more ", 200)},
			{Content: "<p>untitled</p>"},
		},
		Tags: []string{" Crowns ", "crowns", "Care"},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if post.EstimatedReadTime != 3 {
		t.Fatalf("expected 3 minute read, got %d", post.EstimatedReadTime)
	}
	want := []db.TOCEntry{
		{Level: 1, Text: "Intro", Anchor: "intro"},
		{Level: 2, Text: "Care tips", Anchor: "care-tips"},
		{Level: 3, Text: "Care tips", Anchor: "care-tips-1"},
		{Level: 2, Text: "Aftercare", Anchor: "aftercare"},
	}
	if len(post.TableOfContents) != len(want) {
		t.Fatalf("unexpected toc %+v", post.TableOfContents)
	}
	for i, entry := range want {
		if post.TableOfContents[i] != entry {
			t.Fatalf("toc[%d] = %+v, want %+v", i, post.TableOfContents[i], entry)
		}
	}
	if len(post.Tags) != 2 || post.Tags[0] != "crowns" || post.Tags[1] != "care" {
		t.Fatalf("unexpected tags %v", post.Tags)
	}
	if post.Sections[0].ID == "" || post.Sections[1].Type != "text" {
		t.Fatalf("expected section defaults, got %+v", post.Sections)
	}

	empty, _ := svc.Create(BlogInput{Title: "Empty"})
	if empty.EstimatedReadTime != 1 {
		t.Fatalf("expected minimum read time 1, got %d", empty.EstimatedReadTime)
	}
}

func TestBlogPublishAndPublicListing(t *testing.T) {
	svc := NewBlogService(setupServiceTestDB(t))
	draft, _ := svc.Create(BlogInput{Title: "Draft", Tags: []string{"implants"}})
	live, _ := svc.Create(BlogInput{Title: "Live", Published: true, Tags: []string{"implants"}})
	svc.Create(BlogInput{Title: "Other", Published: true, Tags: []string{"whitening"}})

	if live.PublishedAt == nil {
		t.Fatalf("expected publishedAt to be set")
	}

	result, err := svc.ListPublished(BlogFilter{Tag: "Implants"})
	if err != nil {
		t.Fatalf("ListPublished returned error: %v", err)
	}
	if result.Total != 1 || result.Items[0].ID != live.ID {
		t.Fatalf("unexpected public list %+v", result.Items)
	}

	all, _ := svc.ListAll(BlogFilter{})
	if all.Total != 3 {
		t.Fatalf("expected 3 posts for admin, got %d", all.Total)
	}

	if _, err := svc.GetPublishedBySlug(draft.Slug); !errors.Is(err, ErrBlogNotFound) {
		t.Fatalf("expected draft to be hidden, got %v", err)
	}
	published, err := svc.SetPublished(draft.ID, true)
	if err != nil {
		t.Fatalf("SetPublished returned error: %v", err)
	}
	firstPublishedAt := *published.PublishedAt
	if _, err := svc.GetPublishedBySlug(draft.Slug); err != nil {
		t.Fatalf("expected published post to be visible: %v", err)
	}

	svc.SetPublished(draft.ID, false)
	republished, _ := svc.SetPublished(draft.ID, true)
	if !republished.PublishedAt.Equal(firstPublishedAt) {
		t.Fatalf("expected publishedAt to keep the first publish time")
	}
}

func TestBlogFeaturedFilter(t *testing.T) {
	svc := NewBlogService(setupServiceTestDB(t))
	post, _ := svc.Create(BlogInput{Title: "Feature me", Published: true})
	svc.Create(BlogInput{Title: "Plain", Published: true})

	if _, err := svc.SetFeatured(post.ID, true); err != nil {
		t.Fatalf("SetFeatured returned error: %v", err)
	}
	featured := true
	result, _ := svc.ListPublished(BlogFilter{Featured: &featured})
	if result.Total != 1 || result.Items[0].ID != post.ID {
		t.Fatalf("unexpected featured list %+v", result.Items)
	}
	if _, err := svc.SetFeatured(999, true); !errors.Is(err, ErrBlogNotFound) {
		t.Fatalf("expected ErrBlogNotFound, got %v", err)
	}
}

func TestBlogCounters(t *testing.T) {
	svc := NewBlogService(setupServiceTestDB(t))
	post, _ := svc.Create(BlogInput{Title: "Counted", Published: true})

	for i := 0; i < 2; i++ {
		if err := svc.IncrementViews(post.ID); err != nil {
			t.Fatalf("IncrementViews returned error: %v", err)
		}
	}
	likes, err := svc.Like(post.Slug)
	if err != nil {
		t.Fatalf("Like returned error: %v", err)
	}
	if likes != 1 {
		t.Fatalf("expected 1 like, got %d", likes)
	}

	stored, _ := svc.Get(post.ID)
	if stored.Views != 2 || stored.Likes != 1 {
		t.Fatalf("unexpected counters views=%d likes=%d", stored.Views, stored.Likes)
	}

	draft, _ := svc.Create(BlogInput{Title: "Hidden"})
	if _, err := svc.Like(draft.Slug); !errors.Is(err, ErrBlogNotFound) {
		t.Fatalf("expected ErrBlogNotFound, got %v", err)
	}
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	html, err := RenderMarkdown("## Hello\n\n<script>alert(1)</script>\n\n| a | b |\n|---|---|\n| 1 | 2 |")
	if err != nil {
		t.Fatalf("RenderMarkdown returned error: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("expected script to be removed: %s", html)
	}
	if !strings.Contains(html, "<h2") || !strings.Contains(html, "<table>") {
		t.Fatalf("expected heading and table: %s", html)
	}
}
