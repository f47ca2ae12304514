package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/peoplehq/hrm-api/internal/models"
)

// TimesheetRepository reads timesheets created by the check-out workflow and
// handles the HR approval pass.
type TimesheetRepository struct {
	db *sqlx.DB
}

// NewTimesheetRepository constructs the repository.
func NewTimesheetRepository(db *sqlx.DB) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

const timesheetColumns = `id, profile_id, timesheet_date, status, submitted_at, total_hours, approved_by, approved_at, created_at, updated_at`

// FindByProfileAndDate returns the timesheet for a profile/day pair.
func (r *TimesheetRepository) FindByProfileAndDate(ctx context.Context, profileID string, date time.Time) (*models.Timesheet, error) {
	query := fmt.Sprintf(`SELECT %s FROM timesheets WHERE profile_id = $1 AND timesheet_date = $2 LIMIT 1`, timesheetColumns)
	var ts models.Timesheet
	if err := r.db.GetContext(ctx, &ts, query, profileID, date); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find timesheet by profile and date: %w", err)
	}
	return &ts, nil
}

// EntriesByTimesheet returns all entries for a timesheet ordered by slot.
func (r *TimesheetRepository) EntriesByTimesheet(ctx context.Context, timesheetID string) ([]models.TimesheetEntry, error) {
	const query = `SELECT id, timesheet_id, entry_number, from_time, to_time, description, hours, created_at, updated_at FROM timesheet_entries WHERE timesheet_id = $1 ORDER BY entry_number ASC`
	var entries []models.TimesheetEntry
	if err := r.db.SelectContext(ctx, &entries, query, timesheetID); err != nil {
		return nil, fmt.Errorf("list timesheet entries: %w", err)
	}
	return entries, nil
}

// List returns timesheets matching the filter with a total count.
func (r *TimesheetRepository) List(ctx context.Context, profileID string, dateFrom, dateTo *time.Time, page, pageSize int) ([]models.Timesheet, int, error) {
	base := `FROM timesheets WHERE 1=1`
	var conditions []string
	var args []interface{}
	if profileID != "" {
		conditions = append(conditions, fmt.Sprintf("profile_id = $%d", len(args)+1))
		args = append(args, profileID)
	}
	if dateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("timesheet_date >= $%d", len(args)+1))
		args = append(args, *dateFrom)
	}
	if dateTo != nil {
		conditions = append(conditions, fmt.Sprintf("timesheet_date <= $%d", len(args)+1))
		args = append(args, *dateTo)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY timesheet_date DESC LIMIT %d OFFSET %d", timesheetColumns, base, pageSize, offset)
	var rows []models.Timesheet
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list timesheets: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timesheets: %w", err)
	}
	return rows, total, nil
}

// Approve marks a submitted timesheet approved by the given reviewer.
func (r *TimesheetRepository) Approve(ctx context.Context, id, approverID string) error {
	now := time.Now().UTC()
	const query = `UPDATE timesheets SET status = $2, approved_by = $3, approved_at = $4, updated_at = $4 WHERE id = $1 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, id, models.TimesheetApproved, approverID, now, models.TimesheetSubmitted)
	if err != nil {
		return fmt.Errorf("approve timesheet: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByStatus returns how many timesheets carry the given status.
func (r *TimesheetRepository) CountByStatus(ctx context.Context, status models.TimesheetStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM timesheets WHERE status = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, status); err != nil {
		return 0, fmt.Errorf("count timesheets by status: %w", err)
	}
	return total, nil
}
