package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/peoplehq/hrm-api/internal/models"
	"github.com/peoplehq/hrm-api/internal/service"
	appErrors "github.com/peoplehq/hrm-api/pkg/errors"
	"github.com/peoplehq/hrm-api/pkg/response"
)

// PayrollHandler exposes payroll and payslip endpoints.
type PayrollHandler struct {
	payroll *service.PayrollService
}

// NewPayrollHandler constructs PayrollHandler.
func NewPayrollHandler(payroll *service.PayrollService) *PayrollHandler {
	return &PayrollHandler{payroll: payroll}
}

// List godoc
// @Summary List payroll entries
// @Tags Payroll
// @Produce json
// @Param profile_id query string false "Filter by profile (HR only)"
// @Param month query int false "Month (1-12)"
// @Param year query int false "Year"
// @Param status query string false "Payment status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payroll [get]
func (h *PayrollHandler) List(c *gin.Context) {
	var filter models.PayrollFilter
	filter.ProfileID = c.Query("profile_id")
	filter.Month, _ = strconv.Atoi(c.Query("month"))
	filter.Year, _ = strconv.Atoi(c.Query("year"))
	if raw := c.Query("status"); raw != "" {
		status := models.PaymentStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown payment status"))
			return
		}
		filter.Status = &status
	}
	filter.Page, filter.PageSize = pageParams(c)

	rows, total, err := h.payroll.List(c.Request.Context(), filter, ownerScope(c))
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
// @Summary Get one payroll entry
// @Tags Payroll
// @Produce json
// @Param id path string true "Payroll ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /payroll/{id} [get]
func (h *PayrollHandler) Get(c *gin.Context) {
	row, err := h.payroll.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if owner := ownerScope(c); owner != "" && row.ProfileID != owner {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "payroll belongs to another employee"))
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Create godoc
// @Summary Create a payroll entry
// @Tags Payroll
// @Accept json
// @Produce json
// @Param payload body service.UpsertPayrollRequest true "Payroll payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payroll [post]
func (h *PayrollHandler) Create(c *gin.Context) {
	var req service.UpsertPayrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payroll payload"))
		return
	}

	var createdBy string
	if claims := claimsFromContext(c); claims != nil {
		createdBy = claims.UserID
	}

	row, err := h.payroll.Create(c.Request.Context(), req, createdBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, row)
}

// Update godoc
// @Summary Update a payroll entry
// @Tags Payroll
// @Accept json
// @Produce json
// @Param id path string true "Payroll ID"
// @Param payload body service.UpsertPayrollRequest true "Payroll payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /payroll/{id} [put]
func (h *PayrollHandler) Update(c *gin.Context) {
	var req service.UpsertPayrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payroll payload"))
		return
	}

	var updatedBy string
	if claims := claimsFromContext(c); claims != nil {
		updatedBy = claims.UserID
	}

	row, err := h.payroll.Update(c.Request.Context(), c.Param("id"), req, updatedBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// MarkPaid godoc
// @Summary Mark a payroll entry as paid
// @Tags Payroll
// @Accept json
// @Produce json
// @Param id path string true "Payroll ID"
// @Param payload body map[string]string false "Optional payment date (YYYY-MM-DD)"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /payroll/{id}/mark-paid [post]
func (h *PayrollHandler) MarkPaid(c *gin.Context) {
	var payload struct {
		PaymentDate string `json:"payment_date"`
	}
	_ = c.ShouldBindJSON(&payload)

	var paymentDate time.Time
	if payload.PaymentDate != "" {
		parsed, err := time.Parse("2006-01-02", payload.PaymentDate)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "payment_date must be YYYY-MM-DD"))
			return
		}
		paymentDate = parsed
	}

	if err := h.payroll.MarkPaid(c.Request.Context(), c.Param("id"), paymentDate); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Payslip godoc
// @Summary Get the payslip attached to a payroll entry
// @Tags Payroll
// @Produce json
// @Param id path string true "Payroll ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /payroll/{id}/payslip [get]
func (h *PayrollHandler) Payslip(c *gin.Context) {
	payslip, err := h.payroll.PayslipForPayroll(c.Request.Context(), c.Param("id"), ownerScope(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payslip, nil)
}

// PayslipLink godoc
// @Summary Get a signed download link for a payslip
// @Tags Payroll
// @Produce json
// @Param id path string true "Payslip ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payslips/{id}/link [get]
func (h *PayrollHandler) PayslipLink(c *gin.Context) {
	link, err := h.payroll.PayslipLink(c.Request.Context(), c.Param("id"), ownerScope(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// DownloadPayslip godoc
// @Summary Download a payslip PDF with a signed token
// @Tags Payroll
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /payslips/download [get]
func (h *PayrollHandler) DownloadPayslip(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	file, name, err := h.payroll.OpenSignedPayslip(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
