package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/peoplehq/hrm-api/internal/models"
	appErrors "github.com/peoplehq/hrm-api/pkg/errors"
	"github.com/peoplehq/hrm-api/pkg/export"
)

type attendanceRepository interface {
	FindByProfileAndDate(ctx context.Context, profileID string, date time.Time) (*models.AttendanceRecord, error)
	CheckIn(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	CompleteCheckOut(ctx context.Context, record *models.AttendanceRecord, timesheet *models.Timesheet, entries []models.TimesheetEntry) error
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceListRow, int, error)
}

type ipLookup interface {
	Lookup(ctx context.Context) string
}

// AttendanceService drives the daily check-in / check-out workflow.
type AttendanceService struct {
	repo      attendanceRepository
	ip        ipLookup
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceRepository, ip ipLookup, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceService{repo: repo, ip: ip, validator: validate, logger: logger, now: time.Now}
}

// Today returns the caller's attendance state for the current day.
func (s *AttendanceService) Today(ctx context.Context, profileID string) (*models.TodayAttendance, error) {
	record, err := s.repo.FindByProfileAndDate(ctx, profileID, s.today())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.TodayAttendance{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	return &models.TodayAttendance{
		CheckedIn:  record.CheckInTime != nil,
		CheckedOut: record.CheckOutTime != nil,
		Record:     record,
	}, nil
}

// CheckIn opens today's attendance record. The public IP lookup is
// best-effort; a failed lookup records an empty address rather than failing
// the check-in. Duplicate check-ins surface as a conflict.
func (s *AttendanceService) CheckIn(ctx context.Context, profileID string) (*models.AttendanceRecord, error) {
	if profileID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no employee profile linked to this account")
	}

	now := s.now().UTC()
	record := &models.AttendanceRecord{
		ProfileID:      profileID,
		AttendanceDate: s.today(),
		CheckInTime:    &now,
		Status:         models.AttendancePresent,
	}
	if ip := s.ip.Lookup(ctx); ip != "" {
		record.CheckInIP = &ip
	}

	stored, err := s.repo.CheckIn(ctx, record)
	if err != nil {
		if errors.Is(err, appErrors.ErrAlreadyCheckedIn) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record check-in")
	}

	s.logger.Info("employee checked in",
		zap.String("profile_id", profileID),
		zap.Timep("check_in_time", stored.CheckInTime))
	return stored, nil
}

// CheckOut closes today's record and submits the day's timesheet in one
// transaction. At least one slot with both times is required; slots missing
// either time are silently dropped. Total hours come from the wall-clock
// span since check-in, while per-entry hours come from the slot's own times.
func (s *AttendanceService) CheckOut(ctx context.Context, profileID string, req models.CheckOutRequest) (*models.AttendanceRecord, error) {
	if profileID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no employee profile linked to this account")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check-out payload")
	}

	record, err := s.repo.FindByProfileAndDate(ctx, profileID, s.today())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotCheckedIn, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if record.CheckInTime == nil {
		return nil, appErrors.Clone(appErrors.ErrNotCheckedIn, "")
	}
	if record.CheckOutTime != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already checked out today")
	}

	entries := buildTimesheetEntries(req.Entries)
	if len(entries) == 0 {
		return nil, appErrors.Clone(appErrors.ErrTimesheetRequired, "")
	}

	now := s.now().UTC()
	totalHours := roundHours(now.Sub(*record.CheckInTime).Hours())
	record.CheckOutTime = &now
	record.TotalHours = &totalHours
	if ip := s.ip.Lookup(ctx); ip != "" {
		record.CheckOutIP = &ip
	}

	timesheet := &models.Timesheet{
		ProfileID:     profileID,
		TimesheetDate: record.AttendanceDate,
		Status:        models.TimesheetSubmitted,
		SubmittedAt:   &now,
		TotalHours:    &totalHours,
	}

	if err := s.repo.CompleteCheckOut(ctx, record, timesheet, entries); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record disappeared during check-out")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record check-out")
	}

	record.TimesheetCompleted = true
	s.logger.Info("employee checked out",
		zap.String("profile_id", profileID),
		zap.Float64("total_hours", totalHours),
		zap.Int("entries", len(entries)))
	return record, nil
}

// List returns attendance rows for HR and admin views.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceListRow, int, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return rows, total, nil
}

const exportPageSize = 200

// ExportCSV renders the filtered attendance rows as a CSV download. The
// export pages through the full result set so no rows are dropped.
func (s *AttendanceService) ExportCSV(ctx context.Context, filter models.AttendanceFilter) ([]byte, error) {
	dataset := export.Dataset{
		Headers: []string{"Employee", "Date", "Check In", "Check Out", "Total Hours", "Status"},
	}

	filter.Page = 1
	filter.PageSize = exportPageSize
	for {
		rows, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance for export")
		}
		for _, row := range rows {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Employee":    row.EmployeeName,
				"Date":        row.AttendanceDate.Format("2006-01-02"),
				"Check In":    formatClock(row.CheckInTime),
				"Check Out":   formatClock(row.CheckOutTime),
				"Total Hours": formatHours(row.TotalHours),
				"Status":      string(row.Status),
			})
		}
		if len(rows) == 0 || len(dataset.Rows) >= total {
			break
		}
		filter.Page++
	}
	return export.NewCSVExporter().Render(dataset)
}

// buildTimesheetEntries keeps only slots with both times. Entry numbers come
// from the slot's position in the form, not from the surviving set, so a day
// filled in slots 1 and 3 stores entries numbered 1 and 3.
func buildTimesheetEntries(slots []models.TimesheetSlotInput) []models.TimesheetEntry {
	var entries []models.TimesheetEntry
	for i, slot := range slots {
		from := strings.TrimSpace(slot.FromTime)
		to := strings.TrimSpace(slot.ToTime)
		if from == "" || to == "" {
			continue
		}
		hours := clockSpanHours(from, to)
		entry := models.TimesheetEntry{
			EntryNumber: i + 1,
			FromTime:    &from,
			ToTime:      &to,
			Hours:       &hours,
		}
		if desc := strings.TrimSpace(slot.Description); desc != "" {
			entry.Description = &desc
		}
		entries = append(entries, entry)
	}
	return entries
}

// clockSpanHours computes (to - from) as plain clock arithmetic on HH:MM
// values. A span crossing midnight comes out negative; that matches how the
// stored values have always been produced and read.
func clockSpanHours(from, to string) float64 {
	fromH, fromM := parseClock(from)
	toH, toM := parseClock(to)
	return roundHours((float64(toH) + float64(toM)/60) - (float64(fromH) + float64(fromM)/60))
}

func parseClock(value string) (int, int) {
	parts := strings.SplitN(value, ":", 3)
	if len(parts) < 2 {
		return 0, 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h, m
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

func (s *AttendanceService) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func formatClock(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("15:04")
}

func formatHours(h *float64) string {
	if h == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *h)
}
