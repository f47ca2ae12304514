package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peoplehq/hrm-api/internal/models"
	appErrors "github.com/peoplehq/hrm-api/pkg/errors"
	"github.com/peoplehq/hrm-api/pkg/export"
	"github.com/peoplehq/hrm-api/pkg/jobs"
	"github.com/peoplehq/hrm-api/pkg/storage"
)

type payrollRepository interface {
	FindByID(ctx context.Context, id string) (*models.Payroll, error)
	List(ctx context.Context, filter models.PayrollFilter) ([]models.Payroll, int, error)
	Create(ctx context.Context, row *models.Payroll) error
	Update(ctx context.Context, row *models.Payroll) error
	MarkPaid(ctx context.Context, id string, paymentDate time.Time) error
	CreatePayslip(ctx context.Context, payslip *models.Payslip) error
	FindPayslip(ctx context.Context, id string) (*models.Payslip, error)
	FindPayslipByPayroll(ctx context.Context, payrollID string) (*models.Payslip, error)
	MarkPayslipGenerated(ctx context.Context, id, filePath string, generatedAt time.Time) error
}

type payrollProfileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
}

// UpsertPayrollRequest carries the salary components for one month. Gross,
// deductions and net are always recomputed server-side; client-sent totals
// are ignored.
type UpsertPayrollRequest struct {
	ProfileID           string  `json:"profile_id" validate:"required"`
	Month               int     `json:"month" validate:"required,min=1,max=12"`
	Year                int     `json:"year" validate:"required,min=2000"`
	BasicSalary         float64 `json:"basic_salary" validate:"gte=0"`
	HRA                 float64 `json:"hra" validate:"gte=0"`
	DA                  float64 `json:"da" validate:"gte=0"`
	ConveyanceAllowance float64 `json:"conveyance_allowance" validate:"gte=0"`
	MedicalAllowance    float64 `json:"medical_allowance" validate:"gte=0"`
	SpecialAllowance    float64 `json:"special_allowance" validate:"gte=0"`
	Bonus               float64 `json:"bonus" validate:"gte=0"`
	OtherEarnings       float64 `json:"other_earnings" validate:"gte=0"`
	PF                  float64 `json:"pf" validate:"gte=0"`
	ESI                 float64 `json:"esi" validate:"gte=0"`
	TDS                 float64 `json:"tds" validate:"gte=0"`
	ProfessionalTax     float64 `json:"professional_tax" validate:"gte=0"`
	LoanDeduction       float64 `json:"loan_deduction" validate:"gte=0"`
	OtherDeductions     float64 `json:"other_deductions" validate:"gte=0"`
}

// PayslipLink is a time-limited download reference.
type PayslipLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

const payslipJobType = "payslip.generate"

// PayrollService manages monthly payroll and asynchronous payslip PDFs.
// Generation runs on a background queue; the payslip row exists immediately
// and gains its file path when the worker finishes.
type PayrollService struct {
	repo      payrollRepository
	profiles  payrollProfileRepository
	pdf       *export.PDFExporter
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	queue     *jobs.Queue
	audit     leaveAuditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPayrollService constructs a PayrollService. Call AttachQueue before
// Start so payslip jobs have a worker pool.
func NewPayrollService(repo payrollRepository, profiles payrollProfileRepository, store *storage.LocalStorage, signer *storage.SignedURLSigner, audit leaveAuditRepository, validate *validator.Validate, logger *zap.Logger) *PayrollService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PayrollService{
		repo:      repo,
		profiles:  profiles,
		pdf:       export.NewPDFExporter(),
		store:     store,
		signer:    signer,
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
}

// AttachQueue wires the background queue used for payslip generation.
func (s *PayrollService) AttachQueue(queue *jobs.Queue) {
	s.queue = queue
}

// HandlePayslipJob is the queue handler rendering one payslip PDF.
func (s *PayrollService) HandlePayslipJob(ctx context.Context, job jobs.Job) error {
	payslipID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("payslip job payload must be a payslip id")
	}
	return s.generatePayslip(ctx, payslipID)
}

// Get returns one payroll row.
func (s *PayrollService) Get(ctx context.Context, id string) (*models.Payroll, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payroll not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payroll")
	}
	return row, nil
}

// List returns payroll rows. Employees are pinned to their own profile.
func (s *PayrollService) List(ctx context.Context, filter models.PayrollFilter, ownerProfileID string) ([]models.Payroll, int, error) {
	if ownerProfileID != "" {
		filter.ProfileID = ownerProfileID
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payroll")
	}
	return rows, total, nil
}

// Create registers a payroll row with freshly derived totals and queues the
// payslip for generation.
func (s *PayrollService) Create(ctx context.Context, req UpsertPayrollRequest, createdBy string) (*models.Payroll, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payroll payload")
	}

	row := s.apply(&models.Payroll{PaymentStatus: models.PaymentPending}, req)
	if createdBy != "" {
		row.CreatedBy = &createdBy
	}
	row.Recompute()

	if err := s.repo.Create(ctx, row); err != nil {
		if errors.Is(err, appErrors.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "payroll already exists for this month")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payroll")
	}

	payslip := &models.Payslip{
		ID:        uuid.NewString(),
		PayrollID: row.ID,
		ProfileID: row.ProfileID,
	}
	number := fmt.Sprintf("PS-%04d%02d-%s", row.Year, row.Month, payslip.ID[:8])
	payslip.PayslipNumber = &number
	if err := s.repo.CreatePayslip(ctx, payslip); err != nil && !errors.Is(err, appErrors.ErrDuplicate) {
		s.logger.Warn("failed to create payslip row", zap.Error(err))
	} else {
		s.enqueuePayslip(payslip.ID)
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     createdBy,
			Action:     models.AuditActionPayrollChange,
			Resource:   "payroll",
			ResourceID: &row.ID,
		}); err != nil {
			s.logger.Warn("failed to record payroll audit log", zap.Error(err))
		}
	}

	s.logger.Info("payroll created",
		zap.String("payroll_id", row.ID),
		zap.Int("month", row.Month),
		zap.Int("year", row.Year),
		zap.Float64("net_salary", row.NetSalary))
	return row, nil
}

// Update rewrites the salary components, re-derives totals, and regenerates
// the payslip so the PDF never lags the stored numbers.
func (s *PayrollService) Update(ctx context.Context, id string, req UpsertPayrollRequest, updatedBy string) (*models.Payroll, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payroll payload")
	}

	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	row = s.apply(row, req)
	row.Recompute()

	if err := s.repo.Update(ctx, row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payroll not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payroll")
	}

	if payslip, err := s.repo.FindPayslipByPayroll(ctx, row.ID); err == nil {
		s.enqueuePayslip(payslip.ID)
	}
	return row, nil
}

// MarkPaid flips a payroll row to paid.
func (s *PayrollService) MarkPaid(ctx context.Context, id string, paymentDate time.Time) error {
	if paymentDate.IsZero() {
		paymentDate = time.Now().UTC()
	}
	if err := s.repo.MarkPaid(ctx, id, paymentDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "payroll not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark payroll paid")
	}
	return nil
}

// PayslipForPayroll returns the payslip row attached to a payroll entry.
func (s *PayrollService) PayslipForPayroll(ctx context.Context, payrollID, ownerProfileID string) (*models.Payslip, error) {
	payslip, err := s.repo.FindPayslipByPayroll(ctx, payrollID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payslip not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payslip")
	}
	if ownerProfileID != "" && payslip.ProfileID != ownerProfileID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "payslip belongs to another employee")
	}
	return payslip, nil
}

// PayslipLink returns a signed, expiring download link for a payslip.
// Employees may only link their own slips; ownerProfileID is empty for HR.
func (s *PayrollService) PayslipLink(ctx context.Context, payslipID, ownerProfileID string) (*PayslipLink, error) {
	payslip, err := s.loadOwnedPayslip(ctx, payslipID, ownerProfileID)
	if err != nil {
		return nil, err
	}
	if payslip.FilePath == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payslip is still being generated")
	}

	token, expiresAt, err := s.signer.Generate(payslip.ID, *payslip.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign payslip link")
	}
	return &PayslipLink{
		URL:       fmt.Sprintf("/payslips/download?token=%s", token),
		ExpiresAt: expiresAt,
	}, nil
}

// OpenSignedPayslip validates a download token and opens the stored PDF.
func (s *PayrollService) OpenSignedPayslip(ctx context.Context, token string) (*os.File, string, error) {
	payslipID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download token")
	}

	payslip, err := s.repo.FindPayslip(ctx, payslipID)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "payslip not found")
	}
	if payslip.FilePath == nil || *payslip.FilePath != relPath {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "download token does not match payslip")
	}

	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open payslip file")
	}
	name := fmt.Sprintf("payslip-%s.pdf", payslipID[:8])
	if payslip.PayslipNumber != nil {
		name = fmt.Sprintf("%s.pdf", *payslip.PayslipNumber)
	}
	return file, name, nil
}

func (s *PayrollService) loadOwnedPayslip(ctx context.Context, payslipID, ownerProfileID string) (*models.Payslip, error) {
	payslip, err := s.repo.FindPayslip(ctx, payslipID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payslip not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payslip")
	}
	if ownerProfileID != "" && payslip.ProfileID != ownerProfileID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "payslip belongs to another employee")
	}
	return payslip, nil
}

func (s *PayrollService) enqueuePayslip(payslipID string) {
	if s.queue == nil {
		s.logger.Warn("payslip queue not attached, skipping generation", zap.String("payslip_id", payslipID))
		return
	}
	if err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    payslipJobType,
		Payload: payslipID,
	}); err != nil {
		s.logger.Warn("failed to enqueue payslip job", zap.String("payslip_id", payslipID), zap.Error(err))
	}
}

func (s *PayrollService) generatePayslip(ctx context.Context, payslipID string) error {
	payslip, err := s.repo.FindPayslip(ctx, payslipID)
	if err != nil {
		return fmt.Errorf("load payslip %s: %w", payslipID, err)
	}
	payroll, err := s.repo.FindByID(ctx, payslip.PayrollID)
	if err != nil {
		return fmt.Errorf("load payroll %s: %w", payslip.PayrollID, err)
	}

	employeeName := payroll.ProfileID
	var employeeLines [][2]string
	if s.profiles != nil {
		if profile, err := s.profiles.FindByID(ctx, payroll.ProfileID); err == nil {
			employeeName = profile.FullName()
			employeeLines = append(employeeLines, [2]string{"Employee", employeeName})
			if profile.EmployeeID != nil {
				employeeLines = append(employeeLines, [2]string{"Employee ID", *profile.EmployeeID})
			}
			if profile.PANNumber != nil {
				employeeLines = append(employeeLines, [2]string{"PAN", *profile.PANNumber})
			}
			if profile.BankAccountNo != nil {
				employeeLines = append(employeeLines, [2]string{"Bank Account", *profile.BankAccountNo})
			}
		}
	}
	if len(employeeLines) == 0 {
		employeeLines = [][2]string{{"Employee", employeeName}}
	}

	money := func(v float64) string { return fmt.Sprintf("%.2f", v) }
	sections := []export.KeyValueSection{
		{Title: "Employee", Lines: employeeLines},
		{Title: "Earnings", Lines: [][2]string{
			{"Basic Salary", money(payroll.BasicSalary)},
			{"HRA", money(payroll.HRA)},
			{"DA", money(payroll.DA)},
			{"Conveyance Allowance", money(payroll.ConveyanceAllowance)},
			{"Medical Allowance", money(payroll.MedicalAllowance)},
			{"Special Allowance", money(payroll.SpecialAllowance)},
			{"Bonus", money(payroll.Bonus)},
			{"Other Earnings", money(payroll.OtherEarnings)},
			{"Gross Earnings", money(payroll.GrossEarnings)},
		}},
		{Title: "Deductions", Lines: [][2]string{
			{"PF", money(payroll.PF)},
			{"ESI", money(payroll.ESI)},
			{"TDS", money(payroll.TDS)},
			{"Professional Tax", money(payroll.ProfessionalTax)},
			{"Loan Deduction", money(payroll.LoanDeduction)},
			{"Other Deductions", money(payroll.OtherDeductions)},
			{"Total Deductions", money(payroll.TotalDeductions)},
		}},
		{Title: "Net Pay", Lines: [][2]string{
			{"Net Salary", money(payroll.NetSalary)},
		}},
	}

	subtitle := fmt.Sprintf("%s %d", time.Month(payroll.Month).String(), payroll.Year)
	data, err := s.pdf.RenderDocument("Payslip", subtitle, sections)
	if err != nil {
		return fmt.Errorf("render payslip %s: %w", payslipID, err)
	}

	relPath := fmt.Sprintf("%d/%02d/%s.pdf", payroll.Year, payroll.Month, payslip.ID)
	if _, err := s.store.Save(relPath, data); err != nil {
		return fmt.Errorf("store payslip %s: %w", payslipID, err)
	}

	now := time.Now().UTC()
	if err := s.repo.MarkPayslipGenerated(ctx, payslip.ID, relPath, now); err != nil {
		return fmt.Errorf("mark payslip generated %s: %w", payslipID, err)
	}

	s.logger.Info("payslip generated",
		zap.String("payslip_id", payslip.ID),
		zap.String("file", relPath))
	return nil
}

func (s *PayrollService) apply(row *models.Payroll, req UpsertPayrollRequest) *models.Payroll {
	row.ProfileID = req.ProfileID
	row.Month = req.Month
	row.Year = req.Year
	row.BasicSalary = req.BasicSalary
	row.HRA = req.HRA
	row.DA = req.DA
	row.ConveyanceAllowance = req.ConveyanceAllowance
	row.MedicalAllowance = req.MedicalAllowance
	row.SpecialAllowance = req.SpecialAllowance
	row.Bonus = req.Bonus
	row.OtherEarnings = req.OtherEarnings
	row.PF = req.PF
	row.ESI = req.ESI
	row.TDS = req.TDS
	row.ProfessionalTax = req.ProfessionalTax
	row.LoanDeduction = req.LoanDeduction
	row.OtherDeductions = req.OtherDeductions
	return row
}
