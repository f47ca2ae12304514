package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peoplehq/hrm-api/internal/models"
	"github.com/peoplehq/hrm-api/internal/repository"
	appErrors "github.com/peoplehq/hrm-api/pkg/errors"
)

type goalsheetRepoStub struct {
	sheet     *models.Goalsheet
	items     []models.GoalItem
	submitted struct {
		sheetID string
		week    int
		updates []repository.WeekUpdate
	}
	created *models.Goalsheet
}

func (s *goalsheetRepoStub) FindSheet(ctx context.Context, id string) (*models.Goalsheet, error) {
	if s.sheet == nil || s.sheet.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.sheet, nil
}

func (s *goalsheetRepoStub) ListSheets(ctx context.Context, filter models.GoalsheetFilter) ([]models.Goalsheet, int, error) {
	if s.sheet == nil {
		return nil, 0, nil
	}
	if filter.ProfileID != "" && filter.ProfileID != s.sheet.ProfileID {
		return nil, 0, nil
	}
	return []models.Goalsheet{*s.sheet}, 1, nil
}

func (s *goalsheetRepoStub) ItemsBySheet(ctx context.Context, sheetID string) ([]models.GoalItem, error) {
	return s.items, nil
}

func (s *goalsheetRepoStub) CreateSheet(ctx context.Context, sheet *models.Goalsheet, items []models.GoalItem) error {
	sheet.ID = "gs1"
	s.created = sheet
	s.sheet = sheet
	s.items = items
	return nil
}

func (s *goalsheetRepoStub) SubmitWeek(ctx context.Context, sheetID string, week int, updates []repository.WeekUpdate) error {
	s.submitted.sheetID = sheetID
	s.submitted.week = week
	s.submitted.updates = updates
	// Mirror the write so the reloaded detail reflects the lock.
	for i := range s.items {
		switch week {
		case 1:
			s.items[i].Week1Submitted = true
		case 2:
			s.items[i].Week2Submitted = true
		case 3:
			s.items[i].Week3Submitted = true
		case 4:
			s.items[i].Week4Submitted = true
		}
	}
	s.sheet.Status = models.GoalInProgress
	return nil
}

func (s *goalsheetRepoStub) ListTargetTypes(ctx context.Context) ([]models.TargetType, error) {
	return []models.TargetType{{ID: "tt1", Name: "Delivery", IsActive: true}}, nil
}

func goalsheetFixture() *goalsheetRepoStub {
	return &goalsheetRepoStub{
		sheet: &models.Goalsheet{ID: "gs1", ProfileID: "p1", Title: "March goals", Status: models.GoalNotStarted},
		items: []models.GoalItem{
			{ID: "i1", GoalsheetID: "gs1", Title: "Close Q1 hiring"},
			{ID: "i2", GoalsheetID: "gs1", Title: "Ship onboarding revamp"},
		},
	}
}

func TestGetDerivesWeekLocks(t *testing.T) {
	repo := goalsheetFixture()
	repo.items[0].Week1Submitted = true
	repo.items[1].Week1Submitted = true
	repo.items[0].Week2Submitted = true // only one of two items

	svc := NewGoalsheetService(repo, nil, nil)
	detail, err := svc.Get(context.Background(), "gs1", "p1")
	require.NoError(t, err)
	assert.True(t, detail.WeeksSubmitted[0])
	assert.False(t, detail.WeeksSubmitted[1])
	assert.False(t, detail.WeeksSubmitted[2])
}

func TestGetForeignSheetForbidden(t *testing.T) {
	svc := NewGoalsheetService(goalsheetFixture(), nil, nil)

	_, err := svc.Get(context.Background(), "gs1", "someone-else")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSubmitWeekLocked(t *testing.T) {
	repo := goalsheetFixture()
	repo.items[0].Week2Submitted = true
	repo.items[1].Week2Submitted = true

	svc := NewGoalsheetService(repo, nil, nil)
	_, err := svc.SubmitWeek(context.Background(), "gs1", "p1", SubmitWeekRequest{
		Week:   2,
		Values: map[string]WeekValueInput{"i1": {Value: "again"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWeekSubmitted.Code, appErrors.FromError(err).Code)
}

func TestSubmitWeekTouchesEveryItem(t *testing.T) {
	repo := goalsheetFixture()
	svc := NewGoalsheetService(repo, nil, nil)

	detail, err := svc.SubmitWeek(context.Background(), "gs1", "p1", SubmitWeekRequest{
		Week:   1,
		Values: map[string]WeekValueInput{"i1": {Value: "three offers out"}},
	})
	require.NoError(t, err)

	// Both items get the flag even though only one carried a value.
	require.Len(t, repo.submitted.updates, 2)
	assert.Equal(t, 1, repo.submitted.week)
	byID := map[string]repository.WeekUpdate{}
	for _, u := range repo.submitted.updates {
		byID[u.ItemID] = u
	}
	require.NotNil(t, byID["i1"].Value)
	assert.Equal(t, "three offers out", *byID["i1"].Value)
	assert.Nil(t, byID["i2"].Value)

	assert.True(t, detail.WeeksSubmitted[0])
	assert.Equal(t, models.GoalInProgress, detail.Goalsheet.Status)
}

func TestSubmitWeekFourCarriesOutOfBox(t *testing.T) {
	repo := goalsheetFixture()
	svc := NewGoalsheetService(repo, nil, nil)

	_, err := svc.SubmitWeek(context.Background(), "gs1", "p1", SubmitWeekRequest{
		Week: 4,
		Values: map[string]WeekValueInput{
			"i1": {Value: "done", OutOfBox: "mentored two juniors"},
		},
	})
	require.NoError(t, err)

	byID := map[string]repository.WeekUpdate{}
	for _, u := range repo.submitted.updates {
		byID[u.ItemID] = u
	}
	require.NotNil(t, byID["i1"].OutOfBox)
	assert.Equal(t, "mentored two juniors", *byID["i1"].OutOfBox)
}

func TestSubmitWeekRejectsUnknownItem(t *testing.T) {
	repo := goalsheetFixture()
	svc := NewGoalsheetService(repo, nil, nil)

	_, err := svc.SubmitWeek(context.Background(), "gs1", "p1", SubmitWeekRequest{
		Week:   1,
		Values: map[string]WeekValueInput{"not-mine": {Value: "x"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateGoalsheet(t *testing.T) {
	repo := &goalsheetRepoStub{}
	svc := NewGoalsheetService(repo, nil, nil)

	sheet, err := svc.Create(context.Background(), CreateGoalsheetRequest{
		ProfileID:   "p1",
		Title:       "  April goals ",
		PeriodStart: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		Items:       []CreateGoalItemRequest{{Title: "Run appraisal cycle"}},
	}, "hr-1")
	require.NoError(t, err)
	assert.Equal(t, "April goals", sheet.Title)
	assert.Equal(t, models.GoalNotStarted, sheet.Status)
	require.Len(t, repo.items, 1)
	assert.Equal(t, models.GoalNotStarted, repo.items[0].Status)
}

func TestCreateGoalsheetInvertedPeriod(t *testing.T) {
	svc := NewGoalsheetService(&goalsheetRepoStub{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateGoalsheetRequest{
		ProfileID:   "p1",
		Title:       "bad",
		PeriodStart: time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Items:       []CreateGoalItemRequest{{Title: "x"}},
	}, "hr-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
