package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peoplehq/hrm-api/internal/middleware"
	"github.com/peoplehq/hrm-api/internal/models"
	"github.com/peoplehq/hrm-api/internal/service"
	appErrors "github.com/peoplehq/hrm-api/pkg/errors"
	"github.com/peoplehq/hrm-api/pkg/response"
)

type dashboardService interface {
	HR(ctx context.Context) (*service.HRDashboard, bool, error)
	Employee(ctx context.Context, profileID string, role models.UserRole) (*service.EmployeeDashboard, error)
}

// DashboardHandler exposes the aggregate landing views.
type DashboardHandler struct {
	dashboards dashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboards dashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

// HR godoc
// @Summary HR dashboard aggregates
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/hr [get]
func (h *DashboardHandler) HR(c *gin.Context) {
	dashboard, cacheHit, err := h.dashboards.HR(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, dashboard, nil, middleware.ExtractMeta(c))
}

// Employee godoc
// @Summary Employee dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/me [get]
func (h *DashboardHandler) Employee(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	dashboard, err := h.dashboards.Employee(c.Request.Context(), claims.ProfileID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}
