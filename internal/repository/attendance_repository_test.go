package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peoplehq/hrm-api/internal/models"
	appErrors "github.com/peoplehq/hrm-api/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestFindByProfileAndDateNoRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM attendance WHERE profile_id").
		WithArgs("p1", day).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByProfileAndDate(context.Background(), "p1", day)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckIn(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now().UTC()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "profile_id", "attendance_date", "check_in_time", "check_out_time", "check_in_ip", "check_out_ip", "total_hours", "status", "timesheet_completed", "notes", "created_at", "updated_at"}).
		AddRow("a1", "p1", day, now, nil, "203.0.113.9", nil, nil, string(models.AttendancePresent), false, nil, now, now)
	mock.ExpectQuery("INSERT INTO attendance").WillReturnRows(rows)

	stored, err := repo.CheckIn(context.Background(), &models.AttendanceRecord{
		ProfileID:      "p1",
		AttendanceDate: day,
		CheckInTime:    &now,
		CheckInIP:      strPtr("203.0.113.9"),
		Status:         models.AttendancePresent,
	})
	require.NoError(t, err)
	assert.Equal(t, "a1", stored.ID)
	assert.True(t, stored.Open())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now().UTC()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO attendance").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "attendance_profile_id_attendance_date_key"})

	_, err := repo.CheckIn(context.Background(), &models.AttendanceRecord{
		ProfileID:      "p1",
		AttendanceDate: day,
		CheckInTime:    &now,
		Status:         models.AttendancePresent,
	})
	assert.ErrorIs(t, err, appErrors.ErrAlreadyCheckedIn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteCheckOut(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now().UTC()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	hours := 8.5
	entryHours := 4.0

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE attendance").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO timesheets").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO timesheet_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO timesheet_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	record := &models.AttendanceRecord{ID: "a1", ProfileID: "p1", AttendanceDate: day, CheckOutTime: &now, TotalHours: &hours}
	timesheet := &models.Timesheet{ProfileID: "p1", TimesheetDate: day, Status: models.TimesheetSubmitted, SubmittedAt: &now, TotalHours: &hours}
	entries := []models.TimesheetEntry{
		{EntryNumber: 1, FromTime: strPtr("09:00"), ToTime: strPtr("13:00"), Hours: &entryHours},
		{EntryNumber: 2, FromTime: strPtr("14:00"), ToTime: strPtr("18:00"), Hours: &entryHours},
	}

	err := repo.CompleteCheckOut(context.Background(), record, timesheet, entries)
	require.NoError(t, err)
	assert.NotEmpty(t, timesheet.ID)
	assert.Equal(t, timesheet.ID, entries[0].TimesheetID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteCheckOutRollsBackOnEntryFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now().UTC()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	hours := 8.0

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE attendance").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO timesheets").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO timesheet_entries").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	record := &models.AttendanceRecord{ID: "a1", ProfileID: "p1", AttendanceDate: day, CheckOutTime: &now, TotalHours: &hours}
	timesheet := &models.Timesheet{ProfileID: "p1", TimesheetDate: day, Status: models.TimesheetSubmitted, SubmittedAt: &now, TotalHours: &hours}
	entries := []models.TimesheetEntry{{EntryNumber: 1, FromTime: strPtr("09:00"), ToTime: strPtr("17:00"), Hours: &hours}}

	err := repo.CompleteCheckOut(context.Background(), record, timesheet, entries)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now().UTC()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	listRows := sqlmock.NewRows([]string{"id", "profile_id", "attendance_date", "check_in_time", "check_out_time", "check_in_ip", "check_out_ip", "total_hours", "status", "timesheet_completed", "notes", "created_at", "updated_at", "employee_name", "employee_email"}).
		AddRow("a1", "p1", day, now, nil, nil, nil, nil, string(models.AttendancePresent), false, nil, now, now, "Asha Rao", "asha@example.com")
	mock.ExpectQuery("SELECT (.+) FROM attendance a").WillReturnRows(listRows)
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows, total, err := repo.List(context.Background(), models.AttendanceFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Asha Rao", rows[0].EmployeeName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
