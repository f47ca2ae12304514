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

func TestApproveLeaveConsumesBalance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE leaves SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE leave_balances SET used_days").
		WithArgs("p1", "lt1", 2026, 3.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	leave := &models.Leave{
		ID:          "l1",
		ProfileID:   "p1",
		LeaveTypeID: "lt1",
		StartDate:   time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 4, 8, 0, 0, 0, 0, time.UTC),
		TotalDays:   3,
		Status:      models.LeavePending,
	}
	err := repo.Approve(context.Background(), leave, "hr-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveLeaveAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE leaves SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	leave := &models.Leave{ID: "l1", ProfileID: "p1", LeaveTypeID: "lt1", StartDate: time.Now(), TotalDays: 1, Status: models.LeaveApproved}
	err := repo.Approve(context.Background(), leave, "hr-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectLeave(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectExec("UPDATE leaves SET status").WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Reject(context.Background(), "l1", "hr-1", "overlapping sprint")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOnlyOwnPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectExec("UPDATE leaves SET status").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Cancel(context.Background(), "l1", "someone-else")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
