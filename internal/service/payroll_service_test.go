package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peoplehq/hrm-api/internal/models"
	appErrors "github.com/peoplehq/hrm-api/pkg/errors"
	"github.com/peoplehq/hrm-api/pkg/storage"
)

type payrollRepoStub struct {
	payroll      *models.Payroll
	payslip      *models.Payslip
	createErr    error
	created      *models.Payroll
	createdSlip  *models.Payslip
	generatedRel string
}

func (s *payrollRepoStub) FindByID(ctx context.Context, id string) (*models.Payroll, error) {
	if s.payroll == nil || s.payroll.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.payroll, nil
}

func (s *payrollRepoStub) List(ctx context.Context, filter models.PayrollFilter) ([]models.Payroll, int, error) {
	return nil, 0, nil
}

func (s *payrollRepoStub) Create(ctx context.Context, row *models.Payroll) error {
	if s.createErr != nil {
		return s.createErr
	}
	row.ID = "pr1"
	s.created = row
	s.payroll = row
	return nil
}

func (s *payrollRepoStub) Update(ctx context.Context, row *models.Payroll) error {
	s.payroll = row
	return nil
}

func (s *payrollRepoStub) MarkPaid(ctx context.Context, id string, paymentDate time.Time) error {
	return nil
}

func (s *payrollRepoStub) CreatePayslip(ctx context.Context, payslip *models.Payslip) error {
	s.createdSlip = payslip
	s.payslip = payslip
	return nil
}

func (s *payrollRepoStub) FindPayslip(ctx context.Context, id string) (*models.Payslip, error) {
	if s.payslip == nil || s.payslip.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.payslip, nil
}

func (s *payrollRepoStub) FindPayslipByPayroll(ctx context.Context, payrollID string) (*models.Payslip, error) {
	if s.payslip == nil || s.payslip.PayrollID != payrollID {
		return nil, sql.ErrNoRows
	}
	return s.payslip, nil
}

func (s *payrollRepoStub) MarkPayslipGenerated(ctx context.Context, id, filePath string, generatedAt time.Time) error {
	s.generatedRel = filePath
	if s.payslip != nil && s.payslip.ID == id {
		s.payslip.FilePath = &filePath
		s.payslip.GeneratedAt = &generatedAt
	}
	return nil
}

type payrollProfileStub struct{ profile *models.Profile }

func (s *payrollProfileStub) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	if s.profile == nil || s.profile.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.profile, nil
}

func newPayrollService(t *testing.T, repo *payrollRepoStub) *PayrollService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Minute)
	profiles := &payrollProfileStub{profile: &models.Profile{
		ID:        "p1",
		FirstName: "Asha",
		LastName:  "Nair",
		Email:     "asha@example.com",
	}}
	return NewPayrollService(repo, profiles, store, signer, nil, nil, nil)
}

func payrollRequest() UpsertPayrollRequest {
	return UpsertPayrollRequest{
		ProfileID:   "p1",
		Month:       3,
		Year:        2026,
		BasicSalary: 50000,
		HRA:         20000,
		Bonus:       5000,
		PF:          6000,
		TDS:         4000,
	}
}

func TestCreatePayrollRecomputesTotals(t *testing.T) {
	repo := &payrollRepoStub{}
	svc := newPayrollService(t, repo)

	row, err := svc.Create(context.Background(), payrollRequest(), "hr-user")
	require.NoError(t, err)

	assert.Equal(t, 75000.0, row.GrossEarnings)
	assert.Equal(t, 10000.0, row.TotalDeductions)
	assert.Equal(t, 65000.0, row.NetSalary)
	assert.Equal(t, models.PaymentPending, row.PaymentStatus)

	require.NotNil(t, repo.createdSlip)
	require.NotNil(t, repo.createdSlip.PayslipNumber)
	assert.True(t, strings.HasPrefix(*repo.createdSlip.PayslipNumber, "PS-202603-"))
}

func TestCreatePayrollDuplicateMonth(t *testing.T) {
	repo := &payrollRepoStub{createErr: appErrors.ErrDuplicate}
	svc := newPayrollService(t, repo)

	_, err := svc.Create(context.Background(), payrollRequest(), "hr-user")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErrors.FromError(err).Code)
}

func TestPayslipPipeline(t *testing.T) {
	repo := &payrollRepoStub{}
	svc := newPayrollService(t, repo)

	_, err := svc.Create(context.Background(), payrollRequest(), "hr-user")
	require.NoError(t, err)

	// Generation happens on the worker; run the handler inline.
	require.NoError(t, svc.generatePayslip(context.Background(), repo.createdSlip.ID))
	require.NotNil(t, repo.payslip.FilePath)
	assert.Equal(t, repo.generatedRel, *repo.payslip.FilePath)

	link, err := svc.PayslipLink(context.Background(), repo.payslip.ID, "p1")
	require.NoError(t, err)
	assert.Contains(t, link.URL, "/payslips/download?token=")

	token := strings.TrimPrefix(link.URL, "/payslips/download?token=")
	file, name, err := svc.OpenSignedPayslip(context.Background(), token)
	require.NoError(t, err)
	defer file.Close()
	assert.True(t, strings.HasSuffix(name, ".pdf"))
}

func TestPayslipLinkWhileGenerating(t *testing.T) {
	repo := &payrollRepoStub{}
	svc := newPayrollService(t, repo)

	_, err := svc.Create(context.Background(), payrollRequest(), "hr-user")
	require.NoError(t, err)

	_, err = svc.PayslipLink(context.Background(), repo.createdSlip.ID, "p1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestPayslipLinkForeignProfile(t *testing.T) {
	repo := &payrollRepoStub{}
	svc := newPayrollService(t, repo)

	_, err := svc.Create(context.Background(), payrollRequest(), "hr-user")
	require.NoError(t, err)

	_, err = svc.PayslipLink(context.Background(), repo.createdSlip.ID, "someone-else")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
