package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peoplehq/hrm-api/internal/models"
	"github.com/peoplehq/hrm-api/internal/service"
	appErrors "github.com/peoplehq/hrm-api/pkg/errors"
	"github.com/peoplehq/hrm-api/pkg/response"
)

// TrainingHandler exposes training record endpoints.
type TrainingHandler struct {
	trainings *service.TrainingService
}

// NewTrainingHandler constructs TrainingHandler.
func NewTrainingHandler(trainings *service.TrainingService) *TrainingHandler {
	return &TrainingHandler{trainings: trainings}
}

// List godoc
// @Summary List training records
// @Tags Trainings
// @Produce json
// @Param profile_id query string false "Filter by profile (HR only)"
// @Param status query string false "Training status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /trainings [get]
func (h *TrainingHandler) List(c *gin.Context) {
	var filter models.TrainingFilter
	filter.ProfileID = c.Query("profile_id")
	if raw := c.Query("status"); raw != "" {
		status := models.TrainingStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown training status"))
			return
		}
		filter.Status = &status
	}
	filter.Page, filter.PageSize = pageParams(c)

	rows, total, err := h.trainings.List(c.Request.Context(), filter, ownerScope(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Get one training record
// @Tags Trainings
// @Produce json
// @Param id path string true "Training ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /trainings/{id} [get]
func (h *TrainingHandler) Get(c *gin.Context) {
	row, err := h.trainings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Create godoc
// @Summary Create a training record
// @Tags Trainings
// @Accept json
// @Produce json
// @Param payload body service.UpsertTrainingRequest true "Training payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /trainings [post]
func (h *TrainingHandler) Create(c *gin.Context) {
	var req service.UpsertTrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid training payload"))
		return
	}

	var createdBy string
	if claims := claimsFromContext(c); claims != nil {
		createdBy = claims.UserID
	}

	row, err := h.trainings.Create(c.Request.Context(), req, createdBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, row)
}

// Update godoc
// @Summary Update a training record
// @Tags Trainings
// @Accept json
// @Produce json
// @Param id path string true "Training ID"
// @Param payload body service.UpsertTrainingRequest true "Training payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /trainings/{id} [put]
func (h *TrainingHandler) Update(c *gin.Context) {
	var req service.UpsertTrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid training payload"))
		return
	}

	row, err := h.trainings.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Delete godoc
// @Summary Delete a training record
// @Tags Trainings
// @Produce json
// @Param id path string true "Training ID"
// @Success 204
// @Router /trainings/{id} [delete]
func (h *TrainingHandler) Delete(c *gin.Context) {
	if err := h.trainings.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
