package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smilecms/internal/content"
	"github.com/smilecms/internal/service"
)

type templateRequest struct {
	Name        string              `json:"name" binding:"required,max=150"`
	Description string              `json:"description" binding:"max=2000"`
	Category    string              `json:"category" binding:"max=80"`
	Components  []content.Component `json:"components"`
	IsPremium   bool                `json:"isPremium"`
	IsActive    *bool               `json:"isActive"`
}

type cloneRequest struct {
	Name string `json:"name" binding:"max=150"`
}

func (a *API) listTemplates(c *gin.Context, activeOnly bool) {
	result, err := a.templates.List(service.TemplateFilter{
		Category:   c.Query("category"),
		Search:     c.Query("search"),
		ActiveOnly: activeOnly,
		Page:       parseIntQuery(c, "page"),
		PerPage:    parseIntQuery(c, "limit"),
	})
	if err != nil {
		a.respondServiceError(c, err, "list templates")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"templates": result.Items,
		"pagination": gin.H{
			"page":       result.Page,
			"limit":      result.PerPage,
			"total":      result.Total,
			"totalPages": result.TotalPages,
		},
	})
}

// ListTemplates returns active templates.
func (a *API) ListTemplates(c *gin.Context) {
	a.listTemplates(c, true)
}

// ListTemplatesAdmin returns every template.
func (a *API) ListTemplatesAdmin(c *gin.Context) {
	a.listTemplates(c, false)
}

// GetTemplate returns one template.
func (a *API) GetTemplate(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid template id")
		return
	}
	tpl, err := a.templates.Get(id)
	if err != nil {
		a.respondServiceError(c, err, "get template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": tpl})
}

// CreateTemplate stores a new template.
func (a *API) CreateTemplate(c *gin.Context) {
	var req templateRequest
	if !bindJSON(c, &req, "invalid template payload") {
		return
	}
	tpl, err := a.templates.Create(service.TemplateInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Components:  req.Components,
		IsPremium:   req.IsPremium,
		IsActive:    req.IsActive,
	})
	if err != nil {
		a.respondServiceError(c, err, "create template")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Template created successfully", "template": tpl})
}

// UpdateTemplate replaces a template's fields, keeping its usage count.
func (a *API) UpdateTemplate(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid template id")
		return
	}
	var req templateRequest
	if !bindJSON(c, &req, "invalid template payload") {
		return
	}
	tpl, err := a.templates.Update(id, service.TemplateInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Components:  req.Components,
		IsPremium:   req.IsPremium,
		IsActive:    req.IsActive,
	})
	if err != nil {
		a.respondServiceError(c, err, "update template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Template updated successfully", "template": tpl})
}

// DeleteTemplate removes a template.
func (a *API) DeleteTemplate(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid template id")
		return
	}
	if err := a.templates.Delete(id); err != nil {
		a.respondServiceError(c, err, "delete template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}

// UseTemplate instantiates a template and returns its styled components.
func (a *API) UseTemplate(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid template id")
		return
	}
	components, err := a.templates.Use(id)
	if err != nil {
		a.respondServiceError(c, err, "use template")
		return
	}
	a.metrics.TemplateUsed()
	c.JSON(http.StatusOK, gin.H{"message": "Template ready", "components": components})
}

// CloneTemplate duplicates a template under a new name.
func (a *API) CloneTemplate(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid template id")
		return
	}
	var req cloneRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "invalid clone payload") {
		return
	}
	tpl, err := a.templates.Clone(id, req.Name)
	if err != nil {
		a.respondServiceError(c, err, "clone template")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Template cloned successfully", "template": tpl})
}
