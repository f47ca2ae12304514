package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peoplehq/hrm-api/internal/models"
	"github.com/peoplehq/hrm-api/internal/service"
	appErrors "github.com/peoplehq/hrm-api/pkg/errors"
	"github.com/peoplehq/hrm-api/pkg/response"
)

type goalsheetService interface {
	List(ctx context.Context, filter models.GoalsheetFilter, ownerProfileID string) ([]models.Goalsheet, int, error)
	Get(ctx context.Context, id, ownerProfileID string) (*service.GoalsheetDetail, error)
	Create(ctx context.Context, req service.CreateGoalsheetRequest, createdBy string) (*models.Goalsheet, error)
	SubmitWeek(ctx context.Context, sheetID, ownerProfileID string, req service.SubmitWeekRequest) (*service.GoalsheetDetail, error)
	TargetTypes(ctx context.Context) ([]models.TargetType, error)
}

// GoalsheetHandler exposes goalsheet endpoints.
type GoalsheetHandler struct {
	goalsheets goalsheetService
}

// NewGoalsheetHandler constructs GoalsheetHandler.
func NewGoalsheetHandler(goalsheets goalsheetService) *GoalsheetHandler {
	return &GoalsheetHandler{goalsheets: goalsheets}
}

// List godoc
// @Summary List goalsheets
// @Tags Goalsheets
// @Produce json
// @Param profile_id query string false "Filter by profile (HR only)"
// @Param status query string false "Sheet status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /goalsheets [get]
func (h *GoalsheetHandler) List(c *gin.Context) {
	var filter models.GoalsheetFilter
	filter.ProfileID = c.Query("profile_id")
	if raw := c.Query("status"); raw != "" {
		status := models.GoalStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown goalsheet status"))
			return
		}
		filter.Status = &status
	}
	filter.Page, filter.PageSize = pageParams(c)

	sheets, total, err := h.goalsheets.List(c.Request.Context(), filter, ownerScope(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheets, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Get a goalsheet with items and week locks
// @Tags Goalsheets
// @Produce json
// @Param id path string true "Goalsheet ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /goalsheets/{id} [get]
func (h *GoalsheetHandler) Get(c *gin.Context) {
	detail, err := h.goalsheets.Get(c.Request.Context(), c.Param("id"), ownerScope(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create a goalsheet
// @Tags Goalsheets
// @Accept json
// @Produce json
// @Param payload body service.CreateGoalsheetRequest true "Goalsheet payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /goalsheets [post]
func (h *GoalsheetHandler) Create(c *gin.Context) {
	var req service.CreateGoalsheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid goalsheet payload"))
		return
	}

	var createdBy string
	if claims := claimsFromContext(c); claims != nil {
		createdBy = claims.UserID
	}

	sheet, err := h.goalsheets.Create(c.Request.Context(), req, createdBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sheet)
}

// SubmitWeek godoc
// @Summary Submit one week's progress values
// @Tags Goalsheets
// @Accept json
// @Produce json
// @Param id path string true "Goalsheet ID"
// @Param payload body service.SubmitWeekRequest true "Week values"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /goalsheets/{id}/submit-week [post]
func (h *GoalsheetHandler) SubmitWeek(c *gin.Context) {
	var req service.SubmitWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid week submission payload"))
		return
	}

	detail, err := h.goalsheets.SubmitWeek(c.Request.Context(), c.Param("id"), ownerScope(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// TargetTypes godoc
// @Summary List active goal target types
// @Tags Goalsheets
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /goalsheets/target-types [get]
func (h *GoalsheetHandler) TargetTypes(c *gin.Context) {
	types, err := h.goalsheets.TargetTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}
