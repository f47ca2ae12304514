package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/peoplehq/hrm-api/internal/models"
	appErrors "github.com/peoplehq/hrm-api/pkg/errors"
)

type timesheetRepository interface {
	FindByProfileAndDate(ctx context.Context, profileID string, date time.Time) (*models.Timesheet, error)
	EntriesByTimesheet(ctx context.Context, timesheetID string) ([]models.TimesheetEntry, error)
	List(ctx context.Context, profileID string, dateFrom, dateTo *time.Time, page, pageSize int) ([]models.Timesheet, int, error)
	Approve(ctx context.Context, id, approverID string) error
}

// TimesheetDetail bundles a timesheet with its entries.
type TimesheetDetail struct {
	Timesheet models.Timesheet        `json:"timesheet"`
	Entries   []models.TimesheetEntry `json:"entries"`
}

// TimesheetService exposes read and approval operations over the timesheets
// written by the check-out workflow. Creation happens only there.
type TimesheetService struct {
	repo   timesheetRepository
	logger *zap.Logger
}

// NewTimesheetService constructs a TimesheetService.
func NewTimesheetService(repo timesheetRepository, logger *zap.Logger) *TimesheetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimesheetService{repo: repo, logger: logger}
}

// List returns timesheets. Employees are pinned to their own profile.
func (s *TimesheetService) List(ctx context.Context, profileID string, dateFrom, dateTo *time.Time, page, pageSize int, ownerProfileID string) ([]models.Timesheet, int, error) {
	if ownerProfileID != "" {
		profileID = ownerProfileID
	}
	rows, total, err := s.repo.List(ctx, profileID, dateFrom, dateTo, page, pageSize)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timesheets")
	}
	return rows, total, nil
}

// ForDate returns one day's timesheet with entries.
func (s *TimesheetService) ForDate(ctx context.Context, profileID string, date time.Time) (*TimesheetDetail, error) {
	ts, err := s.repo.FindByProfileAndDate(ctx, profileID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no timesheet for this date")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timesheet")
	}
	entries, err := s.repo.EntriesByTimesheet(ctx, ts.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timesheet entries")
	}
	return &TimesheetDetail{Timesheet: *ts, Entries: entries}, nil
}

// Approve moves a submitted timesheet to approved. Only submitted sheets
// qualify; anything else is a conflict.
func (s *TimesheetService) Approve(ctx context.Context, id, approverUserID string) error {
	if err := s.repo.Approve(ctx, id, approverUserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "timesheet is not awaiting approval")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve timesheet")
	}
	s.logger.Info("timesheet approved", zap.String("timesheet_id", id), zap.String("approver", approverUserID))
	return nil
}
