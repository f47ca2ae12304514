package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peoplehq/hrm-api/internal/models"
)

func TestApproveTimesheet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimesheetRepository(db)

	mock.ExpectExec("UPDATE timesheets SET status").
		WithArgs("ts1", string(models.TimesheetApproved), "hr-1", sqlmock.AnyArg(), string(models.TimesheetSubmitted)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Approve(context.Background(), "ts1", "hr-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveTimesheetNotSubmitted(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimesheetRepository(db)

	mock.ExpectExec("UPDATE timesheets SET status").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Approve(context.Background(), "ts1", "hr-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntriesByTimesheetOrdered(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimesheetRepository(db)

	now := time.Now().UTC()
	hours := 4.0
	rows := sqlmock.NewRows([]string{"id", "timesheet_id", "entry_number", "from_time", "to_time", "description", "hours", "created_at", "updated_at"}).
		AddRow("e1", "ts1", 1, "09:00", "13:00", "sprint work", hours, now, now).
		AddRow("e2", "ts1", 2, "14:00", "18:00", nil, hours, now, now)
	mock.ExpectQuery("SELECT (.+) FROM timesheet_entries").WithArgs("ts1").WillReturnRows(rows)

	entries, err := repo.EntriesByTimesheet(context.Background(), "ts1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].EntryNumber)
	assert.Equal(t, 2, entries[1].EntryNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}
