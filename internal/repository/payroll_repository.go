package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/peoplehq/hrm-api/internal/models"
	appErrors "github.com/peoplehq/hrm-api/pkg/errors"
)

// PayrollRepository handles monthly payroll rows and their payslip records.
type PayrollRepository struct {
	db *sqlx.DB
}

// NewPayrollRepository constructs the repository.
func NewPayrollRepository(db *sqlx.DB) *PayrollRepository {
	return &PayrollRepository{db: db}
}

const payrollColumns = `id, profile_id, month, year, basic_salary, hra, da, conveyance_allowance, medical_allowance, special_allowance, bonus, other_earnings, pf, esi, tds, professional_tax, loan_deduction, other_deductions, gross_earnings, total_deductions, net_salary, payment_status, payment_date, created_by, created_at, updated_at`

// FindByID returns a payroll row by identifier.
func (r *PayrollRepository) FindByID(ctx context.Context, id string) (*models.Payroll, error) {
	query := fmt.Sprintf(`SELECT %s FROM payroll WHERE id = $1 LIMIT 1`, payrollColumns)
	var row models.Payroll
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payroll by id: %w", err)
	}
	return &row, nil
}

// List returns payroll rows matching the filter with a total count.
func (r *PayrollRepository) List(ctx context.Context, filter models.PayrollFilter) ([]models.Payroll, int, error) {
	base := `FROM payroll`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.ProfileID != "" {
		where = append(where, fmt.Sprintf("profile_id = $%d", len(args)+1))
		args = append(args, filter.ProfileID)
	}
	if filter.Month >= 1 && filter.Month <= 12 {
		where = append(where, fmt.Sprintf("month = $%d", len(args)+1))
		args = append(args, filter.Month)
	}
	if filter.Year > 0 {
		where = append(where, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("payment_status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	listQuery := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY year DESC, month DESC LIMIT %d OFFSET %d", payrollColumns, base, whereClause, size, offset)
	var rows []models.Payroll
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list payroll: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payroll: %w", err)
	}
	return rows, total, nil
}

// Create inserts a payroll row. Derived totals must already be recomputed.
// The unique constraint on (profile_id, month, year) guards duplicates.
func (r *PayrollRepository) Create(ctx context.Context, row *models.Payroll) error {
	now := time.Now().UTC()
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	row.CreatedAt = now
	row.UpdatedAt = now

	const query = `INSERT INTO payroll (id, profile_id, month, year, basic_salary, hra, da, conveyance_allowance, medical_allowance, special_allowance, bonus, other_earnings, pf, esi, tds, professional_tax, loan_deduction, other_deductions, gross_earnings, total_deductions, net_salary, payment_status, payment_date, created_by, created_at, updated_at)
VALUES (:id, :profile_id, :month, :year, :basic_salary, :hra, :da, :conveyance_allowance, :medical_allowance, :special_allowance, :bonus, :other_earnings, :pf, :esi, :tds, :professional_tax, :loan_deduction, :other_deductions, :gross_earnings, :total_deductions, :net_salary, :payment_status, :payment_date, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return appErrors.ErrDuplicate
		}
		return fmt.Errorf("insert payroll: %w", err)
	}
	return nil
}

// Update replaces the component fields and derived totals of a payroll row.
func (r *PayrollRepository) Update(ctx context.Context, row *models.Payroll) error {
	row.UpdatedAt = time.Now().UTC()

	const query = `UPDATE payroll SET basic_salary = :basic_salary, hra = :hra, da = :da, conveyance_allowance = :conveyance_allowance, medical_allowance = :medical_allowance, special_allowance = :special_allowance, bonus = :bonus, other_earnings = :other_earnings, pf = :pf, esi = :esi, tds = :tds, professional_tax = :professional_tax, loan_deduction = :loan_deduction, other_deductions = :other_deductions, gross_earnings = :gross_earnings, total_deductions = :total_deductions, net_salary = :net_salary, payment_status = :payment_status, payment_date = :payment_date, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("update payroll: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkPaid flips a row to paid with the given payment date.
func (r *PayrollRepository) MarkPaid(ctx context.Context, id string, paymentDate time.Time) error {
	const query = `UPDATE payroll SET payment_status = $2, payment_date = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, models.PaymentPaid, paymentDate, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark payroll paid: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreatePayslip records a payslip row awaiting PDF generation.
func (r *PayrollRepository) CreatePayslip(ctx context.Context, payslip *models.Payslip) error {
	if payslip.ID == "" {
		payslip.ID = uuid.NewString()
	}
	if payslip.CreatedAt.IsZero() {
		payslip.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO payslips (id, payroll_id, profile_id, payslip_number, file_path, generated_at, created_at)
VALUES (:id, :payroll_id, :profile_id, :payslip_number, :file_path, :generated_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payslip); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return appErrors.ErrDuplicate
		}
		return fmt.Errorf("insert payslip: %w", err)
	}
	return nil
}

// FindPayslip returns a payslip by id.
func (r *PayrollRepository) FindPayslip(ctx context.Context, id string) (*models.Payslip, error) {
	const query = `SELECT id, payroll_id, profile_id, payslip_number, file_path, generated_at, created_at FROM payslips WHERE id = $1 LIMIT 1`
	var slip models.Payslip
	if err := r.db.GetContext(ctx, &slip, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payslip: %w", err)
	}
	return &slip, nil
}

// FindPayslipByPayroll returns the payslip linked to a payroll row.
func (r *PayrollRepository) FindPayslipByPayroll(ctx context.Context, payrollID string) (*models.Payslip, error) {
	const query = `SELECT id, payroll_id, profile_id, payslip_number, file_path, generated_at, created_at FROM payslips WHERE payroll_id = $1 LIMIT 1`
	var slip models.Payslip
	if err := r.db.GetContext(ctx, &slip, query, payrollID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payslip by payroll: %w", err)
	}
	return &slip, nil
}

// MarkPayslipGenerated stores the rendered file path and generation time.
func (r *PayrollRepository) MarkPayslipGenerated(ctx context.Context, id, filePath string, generatedAt time.Time) error {
	const query = `UPDATE payslips SET file_path = $2, generated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, filePath, generatedAt)
	if err != nil {
		return fmt.Errorf("mark payslip generated: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// TotalNetForMonth sums net salary across a month, for dashboard cards.
func (r *PayrollRepository) TotalNetForMonth(ctx context.Context, month, year int) (float64, error) {
	const query = `SELECT COALESCE(SUM(net_salary), 0) FROM payroll WHERE month = $1 AND year = $2`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, month, year); err != nil {
		return 0, fmt.Errorf("sum net salary: %w", err)
	}
	return total, nil
}
