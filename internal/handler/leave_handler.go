package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/peoplehq/hrm-api/internal/models"
	"github.com/peoplehq/hrm-api/internal/service"
	appErrors "github.com/peoplehq/hrm-api/pkg/errors"
	"github.com/peoplehq/hrm-api/pkg/response"
)

// LeaveHandler exposes leave endpoints.
type LeaveHandler struct {
	leaves *service.LeaveService
}

// NewLeaveHandler constructs LeaveHandler.
func NewLeaveHandler(leaves *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaves: leaves}
}

// Types godoc
// @Summary List leave types
// @Tags Leaves
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaves/types [get]
func (h *LeaveHandler) Types(c *gin.Context) {
	types, err := h.leaves.Types(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// Balances godoc
// @Summary Leave balances for the caller
// @Tags Leaves
// @Produce json
// @Param year query int false "Year (defaults to current)"
// @Param profile_id query string false "Profile (HR only)"
// @Success 200 {object} response.Envelope
// @Router /leaves/balances [get]
func (h *LeaveHandler) Balances(c *gin.Context) {
	profileID := ownerScope(c)
	if profileID == "" {
		profileID = c.Query("profile_id")
		if profileID == "" {
			profileID = profileIDFromContext(c)
		}
	}
	year, _ := strconv.Atoi(c.Query("year"))

	balances, err := h.leaves.Balances(c.Request.Context(), profileID, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, balances, nil)
}

// List godoc
// @Summary List leave requests
// @Tags Leaves
// @Produce json
// @Param profile_id query string false "Filter by profile (HR only)"
// @Param status query string false "Leave status"
// @Param year query int false "Filter by start year"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /leaves [get]
func (h *LeaveHandler) List(c *gin.Context) {
	var filter models.LeaveFilter
	filter.ProfileID = c.Query("profile_id")
	if raw := c.Query("status"); raw != "" {
		status := models.LeaveStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown leave status"))
			return
		}
		filter.Status = &status
	}
	filter.Year, _ = strconv.Atoi(c.Query("year"))
	filter.Page, filter.PageSize = pageParams(c)

	leaves, total, err := h.leaves.List(c.Request.Context(), filter, ownerScope(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaves, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Apply godoc
// @Summary Apply for leave
// @Tags Leaves
// @Accept json
// @Produce json
// @Param payload body service.ApplyLeaveRequest true "Leave payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leaves [post]
func (h *LeaveHandler) Apply(c *gin.Context) {
	var req service.ApplyLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid leave payload"))
		return
	}

	leave, err := h.leaves.Apply(c.Request.Context(), profileIDFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave)
}

// Decide godoc
// @Summary Approve or reject a leave request
// @Tags Leaves
// @Accept json
// @Produce json
// @Param id path string true "Leave ID"
// @Param payload body service.LeaveDecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leaves/{id}/decision [post]
func (h *LeaveHandler) Decide(c *gin.Context) {
	var req service.LeaveDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}

	var approver string
	if claims := claimsFromContext(c); claims != nil {
		approver = claims.UserID
	}

	leave, err := h.leaves.Decide(c.Request.Context(), c.Param("id"), approver, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave, nil)
}

// Cancel godoc
// @Summary Cancel the caller's own pending leave request
// @Tags Leaves
// @Produce json
// @Param id path string true "Leave ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /leaves/{id} [delete]
func (h *LeaveHandler) Cancel(c *gin.Context) {
	if err := h.leaves.Cancel(c.Request.Context(), c.Param("id"), profileIDFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
