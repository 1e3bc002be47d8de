package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smilecms/internal/service"
)

type pageRequest struct {
	PageTitle       *string                `json:"pageTitle" binding:"omitempty,max=255"`
	MetaDescription *string                `json:"metaDescription" binding:"omitempty,max=500"`
	Status          *string                `json:"status" binding:"omitempty,oneof=draft published archived"`
	GlobalStyles    json.RawMessage        `json:"globalStyles"`
	Sections        []service.SectionInput `json:"sections"`
}

type sectionRequest struct {
	SectionData *service.SectionInput `json:"sectionData" binding:"required"`
}

type subsectionRequest struct {
	SubsectionData *service.SubsectionInput `json:"subsectionData" binding:"required"`
}

type toggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type reorderSectionsRequest struct {
	SectionIDs []string `json:"sectionIds" binding:"required"`
}

type reorderSubsectionsRequest struct {
	SubsectionIDs []string `json:"subsectionIds" binding:"required"`
}

// GetPublicPage returns a published page with only its enabled sections.
func (a *API) GetPublicPage(c *gin.Context) {
	page, err := a.pages.GetPublic(c.Param("page"))
	if err != nil {
		a.respondServiceError(c, err, "get public page")
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page})
}

// GetPageAdmin returns the full page document, seeding it if needed.
func (a *API) GetPageAdmin(c *gin.Context) {
	page, err := a.pages.GetOrCreate(c.Param("page"))
	if err != nil {
		a.respondServiceError(c, err, "get page")
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page})
}

// UpdatePage merges a whole-document update.
func (a *API) UpdatePage(c *gin.Context) {
	var req pageRequest
	if !bindJSON(c, &req, "invalid page payload") {
		return
	}

	page, err := a.pages.UpdatePage(c.Param("page"), service.PageInput{
		PageTitle:       req.PageTitle,
		MetaDescription: req.MetaDescription,
		Status:          req.Status,
		GlobalStyles:    req.GlobalStyles,
		Sections:        req.Sections,
	})
	if err != nil {
		a.respondServiceError(c, err, "update page")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Page updated successfully", "page": page})
}

// UpdatePageField merges the body into the content of a named section.
func (a *API) UpdatePageField(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || !json.Valid(body) {
		respondError(c, http.StatusBadRequest, "invalid field payload")
		return
	}

	section, err := a.pages.UpdateNamedSection(c.Param("page"), c.Param("field"), body)
	if err != nil {
		a.respondServiceError(c, err, "update page field")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Field updated successfully", "section": section})
}

// ApplyTemplate appends a template's components as new sections.
func (a *API) ApplyTemplate(c *gin.Context) {
	templateID, err := parseUintParam(c, "templateId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid template id")
		return
	}

	sections, err := a.pages.ApplyTemplate(c.Param("page"), templateID)
	if err != nil {
		a.respondServiceError(c, err, "apply template")
		return
	}
	a.metrics.TemplateUsed()
	c.JSON(http.StatusOK, gin.H{"message": "Template applied successfully", "sections": sections})
}

// AddSection appends a section.
func (a *API) AddSection(c *gin.Context) {
	var req sectionRequest
	if !bindJSON(c, &req, "invalid section payload") {
		return
	}

	section, err := a.pages.AddSection(c.Param("page"), *req.SectionData)
	if err != nil {
		a.respondServiceError(c, err, "add section")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Section added successfully", "section": section})
}

// UpdateSection merges fields into an existing section.
func (a *API) UpdateSection(c *gin.Context) {
	var req sectionRequest
	if !bindJSON(c, &req, "invalid section payload") {
		return
	}

	section, err := a.pages.UpdateSection(c.Param("page"), c.Param("sectionId"), *req.SectionData)
	if err != nil {
		a.respondServiceError(c, err, "update section")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Section updated successfully", "section": section})
}

// DeleteSection removes a section.
func (a *API) DeleteSection(c *gin.Context) {
	if err := a.pages.DeleteSection(c.Param("page"), c.Param("sectionId")); err != nil {
		a.respondServiceError(c, err, "delete section")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Section deleted successfully"})
}

// ToggleSection sets a section's enabled flag.
func (a *API) ToggleSection(c *gin.Context) {
	var req toggleRequest
	if !bindJSON(c, &req, "enabled is required") {
		return
	}

	section, err := a.pages.ToggleSection(c.Param("page"), c.Param("sectionId"), *req.Enabled)
	if err != nil {
		a.respondServiceError(c, err, "toggle section")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Section toggled successfully", "section": section})
}

// ReorderSections applies a full ordering of section ids.
func (a *API) ReorderSections(c *gin.Context) {
	var req reorderSectionsRequest
	if !bindJSON(c, &req, "sectionIds is required") {
		return
	}

	page, err := a.pages.ReorderSections(c.Param("page"), req.SectionIDs)
	if err != nil {
		a.respondServiceError(c, err, "reorder sections")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sections reordered successfully", "page": page})
}

// AddSubsection appends a subsection to a section.
func (a *API) AddSubsection(c *gin.Context) {
	var req subsectionRequest
	if !bindJSON(c, &req, "invalid subsection payload") {
		return
	}

	sub, err := a.pages.AddSubsection(c.Param("page"), c.Param("sectionId"), *req.SubsectionData)
	if err != nil {
		a.respondServiceError(c, err, "add subsection")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Subsection added successfully", "subsection": sub})
}

// UpdateSubsection merges fields into an existing subsection.
func (a *API) UpdateSubsection(c *gin.Context) {
	var req subsectionRequest
	if !bindJSON(c, &req, "invalid subsection payload") {
		return
	}

	sub, err := a.pages.UpdateSubsection(c.Param("page"), c.Param("sectionId"), c.Param("subId"), *req.SubsectionData)
	if err != nil {
		a.respondServiceError(c, err, "update subsection")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subsection updated successfully", "subsection": sub})
}

// DeleteSubsection removes a subsection.
func (a *API) DeleteSubsection(c *gin.Context) {
	if err := a.pages.DeleteSubsection(c.Param("page"), c.Param("sectionId"), c.Param("subId")); err != nil {
		a.respondServiceError(c, err, "delete subsection")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subsection deleted successfully"})
}

// ToggleSubsection sets a subsection's enabled flag.
func (a *API) ToggleSubsection(c *gin.Context) {
	var req toggleRequest
	if !bindJSON(c, &req, "enabled is required") {
		return
	}

	sub, err := a.pages.ToggleSubsection(c.Param("page"), c.Param("sectionId"), c.Param("subId"), *req.Enabled)
	if err != nil {
		a.respondServiceError(c, err, "toggle subsection")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subsection toggled successfully", "subsection": sub})
}

// ReorderSubsections applies a full ordering of subsection ids.
func (a *API) ReorderSubsections(c *gin.Context) {
	var req reorderSubsectionsRequest
	if !bindJSON(c, &req, "subsectionIds is required") {
		return
	}

	section, err := a.pages.ReorderSubsections(c.Param("page"), c.Param("sectionId"), req.SubsectionIDs)
	if err != nil {
		a.respondServiceError(c, err, "reorder subsections")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subsections reordered successfully", "section": section})
}
