package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peoplehq/hrm-api/internal/models"
	appErrors "github.com/peoplehq/hrm-api/pkg/errors"
)

type attendanceRepoStub struct {
	record    *models.AttendanceRecord
	checkIns  []*models.AttendanceRecord
	checkOut  *models.AttendanceRecord
	timesheet *models.Timesheet
	entries   []models.TimesheetEntry
	listRows  []models.AttendanceListRow
	listCalls []models.AttendanceFilter
	findErr   error
	insertErr error
	txErr     error
}

func (s *attendanceRepoStub) FindByProfileAndDate(ctx context.Context, profileID string, date time.Time) (*models.AttendanceRecord, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.record == nil {
		return nil, sql.ErrNoRows
	}
	return s.record, nil
}

func (s *attendanceRepoStub) CheckIn(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	s.checkIns = append(s.checkIns, record)
	record.ID = "a1"
	return record, nil
}

func (s *attendanceRepoStub) CompleteCheckOut(ctx context.Context, record *models.AttendanceRecord, timesheet *models.Timesheet, entries []models.TimesheetEntry) error {
	if s.txErr != nil {
		return s.txErr
	}
	s.checkOut = record
	s.timesheet = timesheet
	s.entries = entries
	return nil
}

func (s *attendanceRepoStub) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceListRow, int, error) {
	s.listCalls = append(s.listCalls, filter)
	start := (filter.Page - 1) * filter.PageSize
	if start > len(s.listRows) {
		start = len(s.listRows)
	}
	end := start + filter.PageSize
	if end > len(s.listRows) {
		end = len(s.listRows)
	}
	return s.listRows[start:end], len(s.listRows), nil
}

type ipStub struct{ ip string }

func (s ipStub) Lookup(ctx context.Context) string { return s.ip }

func newAttendanceService(repo *attendanceRepoStub, ip string) *AttendanceService {
	return NewAttendanceService(repo, ipStub{ip: ip}, nil, nil)
}

func TestTodayNotCheckedIn(t *testing.T) {
	svc := newAttendanceService(&attendanceRepoStub{}, "")

	state, err := svc.Today(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, state.CheckedIn)
	assert.False(t, state.CheckedOut)
	assert.Nil(t, state.Record)
}

func TestCheckInRecordsIP(t *testing.T) {
	repo := &attendanceRepoStub{}
	svc := newAttendanceService(repo, "203.0.113.9")

	record, err := svc.CheckIn(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, record.CheckInIP)
	assert.Equal(t, "203.0.113.9", *record.CheckInIP)
	assert.Equal(t, models.AttendancePresent, record.Status)
	require.Len(t, repo.checkIns, 1)
}

func TestCheckInSurvivesFailedLookup(t *testing.T) {
	repo := &attendanceRepoStub{}
	svc := newAttendanceService(repo, "")

	record, err := svc.CheckIn(context.Background(), "p1")
	require.NoError(t, err)
	assert.Nil(t, record.CheckInIP)
}

func TestCheckInDuplicateConflict(t *testing.T) {
	repo := &attendanceRepoStub{insertErr: appErrors.ErrAlreadyCheckedIn}
	svc := newAttendanceService(repo, "")

	_, err := svc.CheckIn(context.Background(), "p1")
	assert.ErrorIs(t, err, appErrors.ErrAlreadyCheckedIn)
}

func TestCheckInWithoutProfile(t *testing.T) {
	svc := newAttendanceService(&attendanceRepoStub{}, "")

	_, err := svc.CheckIn(context.Background(), "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	svc := newAttendanceService(&attendanceRepoStub{}, "")

	_, err := svc.CheckOut(context.Background(), "p1", models.CheckOutRequest{
		Entries: []models.TimesheetSlotInput{{FromTime: "09:00", ToTime: "17:00"}},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotCheckedIn.Code, appErr.Code)
}

func TestCheckOutRequiresCompleteSlot(t *testing.T) {
	checkIn := time.Now().UTC().Add(-8 * time.Hour)
	repo := &attendanceRepoStub{record: &models.AttendanceRecord{ID: "a1", ProfileID: "p1", CheckInTime: &checkIn}}
	svc := newAttendanceService(repo, "")

	_, err := svc.CheckOut(context.Background(), "p1", models.CheckOutRequest{
		Entries: []models.TimesheetSlotInput{
			{FromTime: "09:00"},
			{ToTime: "17:00"},
			{Description: "no times at all"},
		},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTimesheetRequired.Code, appErr.Code)
}

func TestCheckOutDropsIncompleteSlots(t *testing.T) {
	checkIn := time.Now().UTC().Add(-8 * time.Hour)
	repo := &attendanceRepoStub{record: &models.AttendanceRecord{ID: "a1", ProfileID: "p1", CheckInTime: &checkIn}}
	svc := newAttendanceService(repo, "198.51.100.4")

	record, err := svc.CheckOut(context.Background(), "p1", models.CheckOutRequest{
		Entries: []models.TimesheetSlotInput{
			{FromTime: "09:00", ToTime: "13:00", Description: "sprint work"},
			{FromTime: "13:30"},
			{FromTime: "14:00", ToTime: "18:00"},
		},
	})
	require.NoError(t, err)

	require.Len(t, repo.entries, 2)
	assert.Equal(t, 1, repo.entries[0].EntryNumber)
	assert.Equal(t, 3, repo.entries[1].EntryNumber)
	assert.Equal(t, "14:00", *repo.entries[1].FromTime)

	require.NotNil(t, repo.entries[0].Hours)
	assert.InDelta(t, 4.0, *repo.entries[0].Hours, 0.001)

	require.NotNil(t, record.TotalHours)
	assert.InDelta(t, 8.0, *record.TotalHours, 0.1)
	assert.True(t, record.TimesheetCompleted)
	require.NotNil(t, record.CheckOutIP)
	assert.Equal(t, "198.51.100.4", *record.CheckOutIP)

	require.NotNil(t, repo.timesheet)
	assert.Equal(t, models.TimesheetSubmitted, repo.timesheet.Status)
	assert.NotNil(t, repo.timesheet.SubmittedAt)
}

func TestTimesheetEntriesKeepSlotPositions(t *testing.T) {
	entries := buildTimesheetEntries([]models.TimesheetSlotInput{
		{FromTime: "09:00", ToTime: "13:00"},
		{},
		{FromTime: "14:00", ToTime: "18:00"},
	})

	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].EntryNumber)
	assert.Equal(t, 3, entries[1].EntryNumber)
}

func TestExportCSVPagesThroughAllRows(t *testing.T) {
	repo := &attendanceRepoStub{}
	for i := 0; i < exportPageSize+50; i++ {
		repo.listRows = append(repo.listRows, models.AttendanceListRow{
			AttendanceRecord: models.AttendanceRecord{
				AttendanceDate: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
				Status:         models.AttendancePresent,
			},
			EmployeeName: fmt.Sprintf("Employee %03d", i),
		})
	}
	svc := newAttendanceService(repo, "")

	data, err := svc.ExportCSV(context.Background(), models.AttendanceFilter{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, exportPageSize+50+1)

	require.Len(t, repo.listCalls, 2)
	assert.Equal(t, 1, repo.listCalls[0].Page)
	assert.Equal(t, 2, repo.listCalls[1].Page)
}

func TestCheckOutTwiceConflicts(t *testing.T) {
	checkIn := time.Now().UTC().Add(-8 * time.Hour)
	checkOut := time.Now().UTC()
	repo := &attendanceRepoStub{record: &models.AttendanceRecord{ID: "a1", CheckInTime: &checkIn, CheckOutTime: &checkOut}}
	svc := newAttendanceService(repo, "")

	_, err := svc.CheckOut(context.Background(), "p1", models.CheckOutRequest{
		Entries: []models.TimesheetSlotInput{{FromTime: "09:00", ToTime: "17:00"}},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestClockSpanHours(t *testing.T) {
	assert.InDelta(t, 8.0, clockSpanHours("09:00", "17:00"), 0.001)
	assert.InDelta(t, 3.5, clockSpanHours("09:15", "12:45"), 0.001)
	// Spans crossing midnight stay negative; clock arithmetic is deliberate.
	assert.InDelta(t, -16.0, clockSpanHours("20:00", "04:00"), 0.001)
}
