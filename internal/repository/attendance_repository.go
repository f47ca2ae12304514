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

// AttendanceRepository handles persistence for attendance records and the
// timesheet rows produced by check-out.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, profile_id, attendance_date, check_in_time, check_out_time, check_in_ip, check_out_ip, total_hours, status, timesheet_completed, notes, created_at, updated_at`

// FindByProfileAndDate returns the single record for a profile/day pair.
// sql.ErrNoRows passes through untouched so callers can treat absence as a state.
func (r *AttendanceRepository) FindByProfileAndDate(ctx context.Context, profileID string, date time.Time) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance WHERE profile_id = $1 AND attendance_date = $2 LIMIT 1`, attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, profileID, date); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance by profile and date: %w", err)
	}
	return &record, nil
}

// CheckIn inserts a new attendance record. The store's unique constraint on
// (profile_id, attendance_date) is the only duplicate guard; a violation is
// surfaced as ErrAlreadyCheckedIn.
func (r *AttendanceRepository) CheckIn(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	query := fmt.Sprintf(`INSERT INTO attendance (id, profile_id, attendance_date, check_in_time, check_in_ip, status, timesheet_completed, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8)
RETURNING %s`, attendanceColumns)

	var stored models.AttendanceRecord
	err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.ProfileID, record.AttendanceDate,
		record.CheckInTime, record.CheckInIP, record.Status,
		record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, appErrors.ErrAlreadyCheckedIn
		}
		return nil, fmt.Errorf("insert attendance: %w", err)
	}
	return &stored, nil
}

// CompleteCheckOut applies the three check-out writes in one transaction:
// the attendance update, the timesheet insert and the entry batch. Either
// all three land or none do.
func (r *AttendanceRepository) CompleteCheckOut(ctx context.Context, record *models.AttendanceRecord, timesheet *models.Timesheet, entries []models.TimesheetEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin check-out: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	record.UpdatedAt = now

	const updateQuery = `UPDATE attendance
SET check_out_time = $2, check_out_ip = $3, total_hours = $4, timesheet_completed = TRUE, updated_at = $5
WHERE id = $1`
	res, err := tx.ExecContext(ctx, updateQuery,
		record.ID, record.CheckOutTime, record.CheckOutIP, record.TotalHours, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update attendance for check-out: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	if timesheet.ID == "" {
		timesheet.ID = uuid.NewString()
	}
	if timesheet.CreatedAt.IsZero() {
		timesheet.CreatedAt = now
	}
	timesheet.UpdatedAt = now

	const timesheetQuery = `INSERT INTO timesheets (id, profile_id, timesheet_date, status, submitted_at, total_hours, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := tx.ExecContext(ctx, timesheetQuery,
		timesheet.ID, timesheet.ProfileID, timesheet.TimesheetDate,
		timesheet.Status, timesheet.SubmittedAt, timesheet.TotalHours,
		timesheet.CreatedAt, timesheet.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert timesheet: %w", err)
	}

	const entryQuery = `INSERT INTO timesheet_entries (id, timesheet_id, entry_number, from_time, to_time, description, hours, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for i := range entries {
		entry := &entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		entry.TimesheetID = timesheet.ID
		entry.CreatedAt = now
		entry.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, entryQuery,
			entry.ID, entry.TimesheetID, entry.EntryNumber,
			entry.FromTime, entry.ToTime, entry.Description, entry.Hours,
			entry.CreatedAt, entry.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert timesheet entry %d: %w", entry.EntryNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit check-out: %w", err)
	}
	committed = true
	return nil
}

// List returns attendance rows joined with profile names, matching the filter.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceListRow, int, error) {
	base := `FROM attendance a
JOIN profiles p ON p.id = a.profile_id`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.ProfileID != "" {
		where = append(where, fmt.Sprintf("a.profile_id = $%d", len(args)+1))
		args = append(args, filter.ProfileID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("a.attendance_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("a.attendance_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	allowedSort := map[string]string{
		"attendance_date": "a.attendance_date",
		"check_in_time":   "a.check_in_time",
		"total_hours":     "a.total_hours",
	}
	sortColumn, ok := allowedSort[filter.SortBy]
	if !ok {
		sortColumn = "a.attendance_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT a.id, a.profile_id, a.attendance_date, a.check_in_time, a.check_out_time, a.check_in_ip, a.check_out_ip, a.total_hours, a.status, a.timesheet_completed, a.notes, a.created_at, a.updated_at,
        p.first_name || ' ' || p.last_name AS employee_name, p.email AS employee_email
        %s WHERE %s
        ORDER BY %s %s
        LIMIT %d OFFSET %d`, base, whereClause, sortColumn, order, size, offset)

	var rows []models.AttendanceListRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return rows, total, nil
}

// CountForDate returns how many profiles have an attendance row on the date.
func (r *AttendanceRepository) CountForDate(ctx context.Context, date time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM attendance WHERE attendance_date = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, date); err != nil {
		return 0, fmt.Errorf("count attendance for date: %w", err)
	}
	return total, nil
}
