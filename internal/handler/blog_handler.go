package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smilecms/internal/db"
	"github.com/smilecms/internal/service"
)

type blogRequest struct {
	Title      string           `json:"title" binding:"required,max=255"`
	Excerpt    string           `json:"excerpt" binding:"max=1000"`
	Content    string           `json:"content"`
	Author     string           `json:"author" binding:"max=120"`
	CoverImage string           `json:"coverImage" binding:"max=500"`
	Sections   []db.BlogSection `json:"sections"`
	Tags       []string         `json:"tags"`
	Published  bool             `json:"published"`
	Featured   bool             `json:"featured"`
}

type publishRequest struct {
	Published *bool `json:"published" binding:"required"`
}

type featureRequest struct {
	Featured *bool `json:"featured" binding:"required"`
}

func (r blogRequest) input() service.BlogInput {
	return service.BlogInput{
		Title:      r.Title,
		Excerpt:    r.Excerpt,
		Content:    r.Content,
		Author:     r.Author,
		CoverImage: r.CoverImage,
		Sections:   r.Sections,
		Tags:       r.Tags,
		Published:  r.Published,
		Featured:   r.Featured,
	}
}

func blogFilterFromQuery(c *gin.Context) service.BlogFilter {
	return service.BlogFilter{
		Search:   c.Query("search"),
		Tag:      c.Query("tag"),
		Featured: parseBoolQuery(c, "featured"),
		Page:     parseIntQuery(c, "page"),
		PerPage:  parseIntQuery(c, "limit"),
	}
}

func blogListResponse(result service.BlogListResult) gin.H {
	return gin.H{
		"posts": result.Items,
		"pagination": gin.H{
			"page":       result.Page,
			"limit":      result.PerPage,
			"total":      result.Total,
			"totalPages": result.TotalPages,
		},
	}
}

// ListBlogs returns published posts.
func (a *API) ListBlogs(c *gin.Context) {
	result, err := a.blogs.ListPublished(blogFilterFromQuery(c))
	if err != nil {
		a.respondServiceError(c, err, "list blogs")
		return
	}
	c.JSON(http.StatusOK, blogListResponse(result))
}

// ListBlogsAdmin returns posts in every state.
func (a *API) ListBlogsAdmin(c *gin.Context) {
	filter := blogFilterFromQuery(c)
	filter.Published = parseBoolQuery(c, "published")
	result, err := a.blogs.ListAll(filter)
	if err != nil {
		a.respondServiceError(c, err, "list blogs")
		return
	}
	c.JSON(http.StatusOK, blogListResponse(result))
}

// GetBlog returns a published post with rendered HTML and counts the view.
func (a *API) GetBlog(c *gin.Context) {
	post, err := a.blogs.GetPublishedBySlug(c.Param("slug"))
	if err != nil {
		a.respondServiceError(c, err, "get blog")
		return
	}
	html, err := a.blogs.Render(post)
	if err != nil {
		a.respondServiceError(c, err, "render blog")
		return
	}
	if err := a.blogs.IncrementViews(post.ID); err != nil {
		a.log.WithError(err).WithField("postID", post.ID).Warn("failed to count blog view")
	} else {
		post.Views++
	}
	c.JSON(http.StatusOK, gin.H{"post": post, "contentHtml": html})
}

// GetBlogAdmin returns any post by id.
func (a *API) GetBlogAdmin(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid blog id")
		return
	}
	post, err := a.blogs.Get(id)
	if err != nil {
		a.respondServiceError(c, err, "get blog")
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// LikeBlog adds a like to a published post.
func (a *API) LikeBlog(c *gin.Context) {
	likes, err := a.blogs.Like(c.Param("slug"))
	if err != nil {
		a.respondServiceError(c, err, "like blog")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post liked", "likes": likes})
}

// CreateBlog stores a new post.
func (a *API) CreateBlog(c *gin.Context) {
	var req blogRequest
	if !bindJSON(c, &req, "invalid blog payload") {
		return
	}
	post, err := a.blogs.Create(req.input())
	if err != nil {
		a.respondServiceError(c, err, "create blog")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Blog post created successfully", "post": post})
}

// UpdateBlog replaces a post's editable fields.
func (a *API) UpdateBlog(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid blog id")
		return
	}
	var req blogRequest
	if !bindJSON(c, &req, "invalid blog payload") {
		return
	}
	post, err := a.blogs.Update(id, req.input())
	if err != nil {
		a.respondServiceError(c, err, "update blog")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Blog post updated successfully", "post": post})
}

// DeleteBlog removes a post.
func (a *API) DeleteBlog(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid blog id")
		return
	}
	if err := a.blogs.Delete(id); err != nil {
		a.respondServiceError(c, err, "delete blog")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Blog post deleted successfully"})
}

// PublishBlog sets the published flag.
func (a *API) PublishBlog(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid blog id")
		return
	}
	var req publishRequest
	if !bindJSON(c, &req, "published is required") {
		return
	}
	post, err := a.blogs.SetPublished(id, *req.Published)
	if err != nil {
		a.respondServiceError(c, err, "publish blog")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Blog post updated successfully", "post": post})
}

// FeatureBlog sets the featured flag.
func (a *API) FeatureBlog(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid blog id")
		return
	}
	var req featureRequest
	if !bindJSON(c, &req, "featured is required") {
		return
	}
	post, err := a.blogs.SetFeatured(id, *req.Featured)
	if err != nil {
		a.respondServiceError(c, err, "feature blog")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Blog post updated successfully", "post": post})
}
