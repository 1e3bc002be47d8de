package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/smilecms/internal/content"
	"github.com/smilecms/internal/service"
)

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// bindJSON decodes the body into dst. Validation failures produce
// {errors:[…]}; malformed bodies produce {error: message}.
func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": validationMessages(verrs)})
			return false
		}
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func validationMessages(verrs validator.ValidationErrors) []fieldError {
	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := lowerFirst(fe.Field())
		var msg string
		switch fe.Tag() {
		case "required":
			msg = field + " is required"
		case "email":
			msg = field + " must be a valid email"
		case "oneof":
			msg = fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
		case "max":
			msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		case "min":
			msg = fmt.Sprintf("%s must have at least %s items", field, fe.Param())
		default:
			msg = fmt.Sprintf("%s failed %s validation", field, fe.Tag())
		}
		out = append(out, fieldError{Field: field, Message: msg})
	}
	return out
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

func parseIntQuery(c *gin.Context, key string) int {
	value, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return value
}

func parseBoolQuery(c *gin.Context, key string) *bool {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}

// statusFor maps service errors onto HTTP status codes. Anything unknown
// is a server error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrPageNotFound),
		errors.Is(err, service.ErrSectionNotFound),
		errors.Is(err, service.ErrSubsectionNotFound),
		errors.Is(err, service.ErrTemplateNotFound),
		errors.Is(err, service.ErrBlogNotFound),
		errors.Is(err, service.ErrLeadNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateID),
		errors.Is(err, service.ErrTemplateNameTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, content.ErrInvalidContent),
		errors.Is(err, service.ErrInvalidOrder),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidField),
		errors.Is(err, service.ErrTemplateInactive),
		errors.Is(err, service.ErrTemplateNameRequired),
		errors.Is(err, service.ErrBlogTitleRequired),
		errors.Is(err, service.ErrLeadStatusInvalid),
		errors.Is(err, service.ErrLeadNameRequired),
		errors.Is(err, service.ErrLeadEmailInvalid),
		errors.Is(err, service.ErrLeadAssigneeAbsent),
		errors.Is(err, service.ErrUploadNotImage),
		errors.Is(err, service.ErrUploadEmpty):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes the mapped status. Client errors carry the
// service message; server errors are logged and answered generically.
func (a *API) respondServiceError(c *gin.Context, err error, action string) {
	status := statusFor(err)
	if status < http.StatusInternalServerError {
		respondError(c, status, err.Error())
		return
	}
	_ = c.Error(err)
	a.log.WithError(err).WithFields(logrus.Fields{
		"action": action,
		"path":   c.Request.URL.Path,
	}).Error("request failed")
	respondError(c, http.StatusInternalServerError, "internal server error")
}
