package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/peoplehq/hrm-api/internal/models"
	"github.com/peoplehq/hrm-api/internal/service"
	appErrors "github.com/peoplehq/hrm-api/pkg/errors"
	"github.com/peoplehq/hrm-api/pkg/response"
)

// TimesheetHandler exposes timesheet review endpoints. Timesheets are
// created by the check-out workflow, never directly.
type TimesheetHandler struct {
	timesheets *service.TimesheetService
}

// NewTimesheetHandler constructs TimesheetHandler.
func NewTimesheetHandler(timesheets *service.TimesheetService) *TimesheetHandler {
	return &TimesheetHandler{timesheets: timesheets}
}

// List godoc
// @Summary List timesheets
// @Tags Timesheets
// @Produce json
// @Param profile_id query string false "Filter by profile (HR only)"
// @Param date_from query string false "From date (YYYY-MM-DD)"
// @Param date_to query string false "To date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timesheets [get]
func (h *TimesheetHandler) List(c *gin.Context) {
	var dateFrom, dateTo *time.Time
	if raw := c.Query("date_from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date_from must be YYYY-MM-DD"))
			return
		}
		dateFrom = &from
	}
	if raw := c.Query("date_to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date_to must be YYYY-MM-DD"))
			return
		}
		dateTo = &to
	}
	page, pageSize := pageParams(c)

	rows, total, err := h.timesheets.List(c.Request.Context(), c.Query("profile_id"), dateFrom, dateTo, page, pageSize, ownerScope(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, &models.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
	})
}

// ForDate godoc
// @Summary Get a day's timesheet with entries
// @Tags Timesheets
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param profile_id query string false "Profile (HR only)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timesheets/by-date [get]
func (h *TimesheetHandler) ForDate(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}

	profileID := ownerScope(c)
	if profileID == "" {
		profileID = c.Query("profile_id")
		if profileID == "" {
			profileID = profileIDFromContext(c)
		}
	}

	detail, err := h.timesheets.ForDate(c.Request.Context(), profileID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Approve godoc
// @Summary Approve a submitted timesheet
// @Tags Timesheets
// @Produce json
// @Param id path string true "Timesheet ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /timesheets/{id}/approve [post]
func (h *TimesheetHandler) Approve(c *gin.Context) {
	var approver string
	if claims := claimsFromContext(c); claims != nil {
		approver = claims.UserID
	}

	if err := h.timesheets.Approve(c.Request.Context(), c.Param("id"), approver); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
