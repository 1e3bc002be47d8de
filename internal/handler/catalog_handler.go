package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smilecms/internal/catalog"
)

// ListServices returns the service catalog, optionally filtered by category.
func (a *API) ListServices(c *gin.Context) {
	category := strings.ToLower(strings.TrimSpace(c.Query("category")))

	all := catalog.All()
	services := make([]catalog.Service, 0, len(all))
	for _, svc := range all {
		if category != "" && svc.Category != category {
			continue
		}
		services = append(services, svc)
	}

	c.JSON(http.StatusOK, gin.H{"clinic": catalog.ClinicInfo(), "services": services})
}

// Health reports process and database liveness.
func (a *API) Health(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	if sqlDB, err := a.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status})
}
