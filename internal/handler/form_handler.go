package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smilecms/internal/service"
)

type formRequest struct {
	FirstName     string `json:"firstName" binding:"required,max=100"`
	LastName      string `json:"lastName" binding:"required,max=100"`
	Email         string `json:"email" binding:"required,email,max=255"`
	Phone         string `json:"phone" binding:"max=40"`
	Service       string `json:"service" binding:"max=120"`
	PreferredDate string `json:"preferredDate" binding:"max=20"`
	PreferredTime string `json:"preferredTime" binding:"max=20"`
	Message       string `json:"message" binding:"max=5000"`
	Source        string `json:"source" binding:"max=120"`
	NewPatient    bool   `json:"newPatient"`
}

type formStatusRequest struct {
	Status string  `json:"status" binding:"required,oneof=new contacted scheduled completed cancelled"`
	Notes  *string `json:"notes"`
}

type formAssignRequest struct {
	UserID *uint `json:"userId"`
}

// SubmitForm stores a public intake form.
func (a *API) SubmitForm(c *gin.Context) {
	var req formRequest
	if !bindJSON(c, &req, "invalid form payload") {
		return
	}

	lead, err := a.leads.Submit(service.LeadInput{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Phone:         req.Phone,
		Service:       req.Service,
		PreferredDate: req.PreferredDate,
		PreferredTime: req.PreferredTime,
		Message:       req.Message,
		Source:        req.Source,
		NewPatient:    req.NewPatient,
	})
	if err != nil {
		a.respondServiceError(c, err, "submit form")
		return
	}
	a.metrics.LeadSubmitted(lead.Source)
	c.JSON(http.StatusCreated, gin.H{
		"message":   "Thank you! We will contact you shortly.",
		"reference": lead.Reference,
	})
}

// ListForms returns submissions with per-status counts.
func (a *API) ListForms(c *gin.Context) {
	filter := service.LeadFilter{
		Status:  c.Query("status"),
		Service: c.Query("service"),
		Search:  c.Query("search"),
		Page:    parseIntQuery(c, "page"),
		PerPage: parseIntQuery(c, "limit"),
	}
	if raw := strings.TrimSpace(c.Query("assignedTo")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid assignedTo")
			return
		}
		assigned := uint(id)
		filter.AssignedToID = &assigned
	}

	result, err := a.leads.List(filter)
	if err != nil {
		a.respondServiceError(c, err, "list forms")
		return
	}
	counts, err := a.leads.StatusCounts()
	if err != nil {
		a.respondServiceError(c, err, "count forms")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"forms":  result.Items,
		"counts": counts,
		"pagination": gin.H{
			"page":       result.Page,
			"limit":      result.PerPage,
			"total":      result.Total,
			"totalPages": result.TotalPages,
		},
	})
}

// GetForm returns one submission.
func (a *API) GetForm(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid form id")
		return
	}
	lead, err := a.leads.Get(id)
	if err != nil {
		a.respondServiceError(c, err, "get form")
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": lead})
}

// UpdateFormStatus moves a submission to any status.
func (a *API) UpdateFormStatus(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid form id")
		return
	}
	var req formStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	lead, err := a.leads.UpdateStatus(id, req.Status, req.Notes)
	if err != nil {
		a.respondServiceError(c, err, "update form status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Form status updated successfully", "form": lead})
}

// AssignForm sets or clears the staff member handling a submission.
func (a *API) AssignForm(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid form id")
		return
	}
	var req formAssignRequest
	if !bindJSON(c, &req, "invalid assign payload") {
		return
	}
	lead, err := a.leads.Assign(id, req.UserID)
	if err != nil {
		a.respondServiceError(c, err, "assign form")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Form assigned successfully", "form": lead})
}

// DeleteForm removes a submission.
func (a *API) DeleteForm(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid form id")
		return
	}
	if err := a.leads.Delete(id); err != nil {
		a.respondServiceError(c, err, "delete form")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Form deleted successfully"})
}
