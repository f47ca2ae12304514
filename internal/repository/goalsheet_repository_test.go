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

func TestSubmitWeek(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGoalsheetRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE goal_items SET week2_value").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE goal_items SET week2_value").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE goalsheets SET status").
		WithArgs("gs1", string(models.GoalInProgress), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updates := []WeekUpdate{
		{ItemID: "i1", Value: strPtr("shipped module A")},
		{ItemID: "i2", Value: nil},
	}
	err := repo.SubmitWeek(context.Background(), "gs1", 2, updates)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitWeekFourWritesOutOfBox(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGoalsheetRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE goal_items SET week4_value (.+) out_of_box").
		WithArgs("i1", "done", "extra initiative", sqlmock.AnyArg(), "gs1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE goalsheets SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updates := []WeekUpdate{{ItemID: "i1", Value: strPtr("done"), OutOfBox: strPtr("extra initiative")}}
	err := repo.SubmitWeek(context.Background(), "gs1", 4, updates)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitWeekOutOfRange(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewGoalsheetRepository(db)

	err := repo.SubmitWeek(context.Background(), "gs1", 5, nil)
	require.Error(t, err)
}

func TestSubmitWeekUnknownItemRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGoalsheetRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE goal_items SET week1_value").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.SubmitWeek(context.Background(), "gs1", 1, []WeekUpdate{{ItemID: "missing"}})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSheetInsertsItems(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGoalsheetRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO goalsheets").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO goal_items").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO goal_items").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	sheet := &models.Goalsheet{
		ProfileID:   "p1",
		Title:       "March 2026 goals",
		PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:      models.GoalNotStarted,
	}
	items := []models.GoalItem{
		{Title: "Close Q1 hiring", Status: models.GoalNotStarted},
		{Title: "Ship onboarding revamp", Status: models.GoalNotStarted},
	}
	err := repo.CreateSheet(context.Background(), sheet, items)
	require.NoError(t, err)
	assert.NotEmpty(t, sheet.ID)
	assert.Equal(t, sheet.ID, items[0].GoalsheetID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
