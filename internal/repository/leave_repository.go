package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/peoplehq/hrm-api/internal/models"
)

// LeaveRepository handles leave types, balances and requests.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs the repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

const leaveColumns = `id, profile_id, leave_type_id, start_date, end_date, total_days, reason, status, approved_by, approved_at, rejection_reason, created_at, updated_at`

// ListTypes returns all configured leave types.
func (r *LeaveRepository) ListTypes(ctx context.Context) ([]models.LeaveType, error) {
	const query = `SELECT id, name, description, default_days, is_paid, requires_approval, created_at, updated_at FROM leave_types ORDER BY name ASC`
	var types []models.LeaveType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list leave types: %w", err)
	}
	return types, nil
}

// FindType returns a leave type by id.
func (r *LeaveRepository) FindType(ctx context.Context, id string) (*models.LeaveType, error) {
	const query = `SELECT id, name, description, default_days, is_paid, requires_approval, created_at, updated_at FROM leave_types WHERE id = $1 LIMIT 1`
	var lt models.LeaveType
	if err := r.db.GetContext(ctx, &lt, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find leave type: %w", err)
	}
	return &lt, nil
}

// BalancesForProfile returns a profile's balances for the given year.
func (r *LeaveRepository) BalancesForProfile(ctx context.Context, profileID string, year int) ([]models.LeaveBalance, error) {
	const query = `SELECT id, profile_id, leave_type_id, year, total_days, used_days, created_at, updated_at FROM leave_balances WHERE profile_id = $1 AND year = $2`
	var balances []models.LeaveBalance
	if err := r.db.SelectContext(ctx, &balances, query, profileID, year); err != nil {
		return nil, fmt.Errorf("list leave balances: %w", err)
	}
	return balances, nil
}

// FindBalance returns the balance row for a profile/type/year triple.
func (r *LeaveRepository) FindBalance(ctx context.Context, profileID, leaveTypeID string, year int) (*models.LeaveBalance, error) {
	const query = `SELECT id, profile_id, leave_type_id, year, total_days, used_days, created_at, updated_at FROM leave_balances WHERE profile_id = $1 AND leave_type_id = $2 AND year = $3 LIMIT 1`
	var balance models.LeaveBalance
	if err := r.db.GetContext(ctx, &balance, query, profileID, leaveTypeID, year); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find leave balance: %w", err)
	}
	return &balance, nil
}

// FindLeave returns a leave request by id.
func (r *LeaveRepository) FindLeave(ctx context.Context, id string) (*models.Leave, error) {
	query := fmt.Sprintf(`SELECT %s FROM leaves WHERE id = $1 LIMIT 1`, leaveColumns)
	var leave models.Leave
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find leave: %w", err)
	}
	return &leave, nil
}

// List returns leave requests matching the filter with a total count.
func (r *LeaveRepository) List(ctx context.Context, filter models.LeaveFilter) ([]models.Leave, int, error) {
	base := `FROM leaves`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.ProfileID != "" {
		where = append(where, fmt.Sprintf("profile_id = $%d", len(args)+1))
		args = append(args, filter.ProfileID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Year > 0 {
		where = append(where, fmt.Sprintf("EXTRACT(YEAR FROM start_date) = $%d", len(args)+1))
		args = append(args, filter.Year)
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

	listQuery := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d", leaveColumns, base, whereClause, size, offset)
	var leaves []models.Leave
	if err := r.db.SelectContext(ctx, &leaves, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list leaves: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leaves: %w", err)
	}
	return leaves, total, nil
}

// Create inserts a new leave request in pending state.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.Leave) error {
	now := time.Now().UTC()
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	leave.CreatedAt = now
	leave.UpdatedAt = now

	const query = `INSERT INTO leaves (id, profile_id, leave_type_id, start_date, end_date, total_days, reason, status, created_at, updated_at)
VALUES (:id, :profile_id, :leave_type_id, :start_date, :end_date, :total_days, :reason, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("insert leave: %w", err)
	}
	return nil
}

// Approve marks a pending leave approved and consumes balance days in the
// same transaction, so an approval can never land without its deduction.
func (r *LeaveRepository) Approve(ctx context.Context, leave *models.Leave, approverID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve leave: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	const approveQuery = `UPDATE leaves SET status = $2, approved_by = $3, approved_at = $4, updated_at = $4 WHERE id = $1 AND status = $5`
	res, err := tx.ExecContext(ctx, approveQuery, leave.ID, models.LeaveApproved, approverID, now, models.LeavePending)
	if err != nil {
		return fmt.Errorf("approve leave: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	const balanceQuery = `UPDATE leave_balances SET used_days = used_days + $4, updated_at = $5 WHERE profile_id = $1 AND leave_type_id = $2 AND year = $3`
	year := leave.StartDate.Year()
	if _, err := tx.ExecContext(ctx, balanceQuery, leave.ProfileID, leave.LeaveTypeID, year, leave.TotalDays, now); err != nil {
		return fmt.Errorf("consume leave balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit approve leave: %w", err)
	}
	committed = true
	return nil
}

// Reject marks a pending leave rejected with a reason.
func (r *LeaveRepository) Reject(ctx context.Context, id, approverID, reason string) error {
	now := time.Now().UTC()
	const query = `UPDATE leaves SET status = $2, approved_by = $3, approved_at = $4, rejection_reason = $5, updated_at = $4 WHERE id = $1 AND status = $6`
	res, err := r.db.ExecContext(ctx, query, id, models.LeaveRejected, approverID, now, reason, models.LeavePending)
	if err != nil {
		return fmt.Errorf("reject leave: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Cancel lets an employee withdraw their own pending request.
func (r *LeaveRepository) Cancel(ctx context.Context, id, profileID string) error {
	now := time.Now().UTC()
	const query = `UPDATE leaves SET status = $2, updated_at = $3 WHERE id = $1 AND profile_id = $4 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, id, models.LeaveCancelled, now, profileID, models.LeavePending)
	if err != nil {
		return fmt.Errorf("cancel leave: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByStatus returns how many leaves carry the given status.
// CountsForProfile returns how many leaves a profile filed in a year and how
// many of those were approved.
func (r *LeaveRepository) CountsForProfile(ctx context.Context, profileID string, year int) (applied, approved int, err error) {
	query := `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE status = 'approved')
		FROM leaves
		WHERE profile_id = $1 AND EXTRACT(YEAR FROM start_date) = $2`
	row := r.db.QueryRowContext(ctx, query, profileID, year)
	if err := row.Scan(&applied, &approved); err != nil {
		return 0, 0, fmt.Errorf("count leaves for profile: %w", err)
	}
	return applied, approved, nil
}

func (r *LeaveRepository) CountByStatus(ctx context.Context, status models.LeaveStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM leaves WHERE status = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, status); err != nil {
		return 0, fmt.Errorf("count leaves by status: %w", err)
	}
	return total, nil
}
