package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/peoplehq/hrm-api/internal/models"
	"github.com/peoplehq/hrm-api/internal/repository"
	appErrors "github.com/peoplehq/hrm-api/pkg/errors"
)

type goalsheetRepository interface {
	FindSheet(ctx context.Context, id string) (*models.Goalsheet, error)
	ListSheets(ctx context.Context, filter models.GoalsheetFilter) ([]models.Goalsheet, int, error)
	ItemsBySheet(ctx context.Context, sheetID string) ([]models.GoalItem, error)
	CreateSheet(ctx context.Context, sheet *models.Goalsheet, items []models.GoalItem) error
	SubmitWeek(ctx context.Context, sheetID string, week int, updates []repository.WeekUpdate) error
	ListTargetTypes(ctx context.Context) ([]models.TargetType, error)
}

// GoalsheetDetail bundles a sheet with its items and the derived week locks.
type GoalsheetDetail struct {
	Goalsheet      models.Goalsheet  `json:"goalsheet"`
	Items          []models.GoalItem `json:"items"`
	WeeksSubmitted [4]bool           `json:"weeks_submitted"`
}

// CreateGoalsheetRequest creates a sheet with its initial goal items.
type CreateGoalsheetRequest struct {
	ProfileID          string                  `json:"profile_id" validate:"required"`
	Title              string                  `json:"title" validate:"required"`
	PeriodStart        time.Time               `json:"period_start" validate:"required"`
	PeriodEnd          time.Time               `json:"period_end" validate:"required"`
	ReportingManagerID string                  `json:"reporting_manager_id"`
	Items              []CreateGoalItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateGoalItemRequest is one goal within a new sheet.
type CreateGoalItemRequest struct {
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description"`
	TargetTypeID string `json:"target_type_id"`
	TargetValue  string `json:"target_value"`
}

// SubmitWeekRequest carries one week's values keyed by goal item id.
type SubmitWeekRequest struct {
	Week   int                       `json:"week" validate:"required,min=1,max=4"`
	Values map[string]WeekValueInput `json:"values" validate:"required,min=1"`
}

// WeekValueInput is one item's weekly entry. OutOfBox is only read on week 4.
type WeekValueInput struct {
	Value    string `json:"value"`
	OutOfBox string `json:"out_of_box"`
}

// GoalsheetService manages monthly goalsheets and their weekly submissions.
type GoalsheetService struct {
	repo      goalsheetRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGoalsheetService constructs a GoalsheetService.
func NewGoalsheetService(repo goalsheetRepository, validate *validator.Validate, logger *zap.Logger) *GoalsheetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &GoalsheetService{repo: repo, validator: validate, logger: logger}
}

// List returns sheets visible to the caller. Employees are pinned to their
// own profile; HR and admin pass an empty ownerProfileID to see everything.
func (s *GoalsheetService) List(ctx context.Context, filter models.GoalsheetFilter, ownerProfileID string) ([]models.Goalsheet, int, error) {
	if ownerProfileID != "" {
		filter.ProfileID = ownerProfileID
	}
	sheets, total, err := s.repo.ListSheets(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list goalsheets")
	}
	return sheets, total, nil
}

// Get loads a sheet with items and the derived per-week locks. A week counts
// as submitted only once every item in the sheet carries its flag.
func (s *GoalsheetService) Get(ctx context.Context, id, ownerProfileID string) (*GoalsheetDetail, error) {
	sheet, err := s.loadOwnedSheet(ctx, id, ownerProfileID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ItemsBySheet(ctx, sheet.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load goal items")
	}

	detail := &GoalsheetDetail{Goalsheet: *sheet, Items: items}
	for week := 1; week <= models.GoalWeeks; week++ {
		detail.WeeksSubmitted[week-1] = models.WeekSubmitted(items, week)
	}
	return detail, nil
}

// Create registers a new sheet with its goal items. HR-only at the route.
func (s *GoalsheetService) Create(ctx context.Context, req CreateGoalsheetRequest, createdBy string) (*models.Goalsheet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid goalsheet payload")
	}
	if req.PeriodEnd.Before(req.PeriodStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period_end must not precede period_start")
	}

	sheet := &models.Goalsheet{
		ProfileID:   req.ProfileID,
		Title:       strings.TrimSpace(req.Title),
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		Status:      models.GoalNotStarted,
	}
	if req.ReportingManagerID != "" {
		sheet.ReportingManagerID = &req.ReportingManagerID
	}
	if createdBy != "" {
		sheet.CreatedBy = &createdBy
	}

	items := make([]models.GoalItem, 0, len(req.Items))
	for _, in := range req.Items {
		item := models.GoalItem{
			Title:  strings.TrimSpace(in.Title),
			Status: models.GoalNotStarted,
		}
		if in.Description != "" {
			item.Description = &in.Description
		}
		if in.TargetTypeID != "" {
			item.TargetTypeID = &in.TargetTypeID
		}
		if in.TargetValue != "" {
			item.TargetValue = &in.TargetValue
		}
		items = append(items, item)
	}

	if err := s.repo.CreateSheet(ctx, sheet, items); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create goalsheet")
	}

	s.logger.Info("goalsheet created",
		zap.String("goalsheet_id", sheet.ID),
		zap.String("profile_id", sheet.ProfileID),
		zap.Int("items", len(items)))
	return sheet, nil
}

// SubmitWeek records one week's values for every item in the sheet. A week
// already submitted across all items is locked. After the write the sheet's
// status is set to in_progress regardless of its previous state; that quirk
// is load-bearing for downstream reports and is kept as-is.
func (s *GoalsheetService) SubmitWeek(ctx context.Context, sheetID, ownerProfileID string, req SubmitWeekRequest) (*GoalsheetDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid week submission")
	}

	sheet, err := s.loadOwnedSheet(ctx, sheetID, ownerProfileID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ItemsBySheet(ctx, sheet.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load goal items")
	}
	if len(items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "goalsheet has no items")
	}
	if models.WeekSubmitted(items, req.Week) {
		return nil, appErrors.Clone(appErrors.ErrWeekSubmitted, "")
	}

	known := make(map[string]bool, len(items))
	for _, item := range items {
		known[item.ID] = true
	}

	updates := make([]repository.WeekUpdate, 0, len(items))
	for _, item := range items {
		update := repository.WeekUpdate{ItemID: item.ID}
		if in, ok := req.Values[item.ID]; ok {
			if v := strings.TrimSpace(in.Value); v != "" {
				update.Value = &v
			}
			if req.Week == models.GoalWeeks {
				if v := strings.TrimSpace(in.OutOfBox); v != "" {
					update.OutOfBox = &v
				}
			}
		}
		updates = append(updates, update)
	}
	for id := range req.Values {
		if !known[id] {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown goal item in submission")
		}
	}

	if err := s.repo.SubmitWeek(ctx, sheet.ID, req.Week, updates); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "goal item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit week")
	}

	s.logger.Info("goalsheet week submitted",
		zap.String("goalsheet_id", sheet.ID),
		zap.Int("week", req.Week))
	return s.Get(ctx, sheet.ID, ownerProfileID)
}

// TargetTypes lists the active goal categories.
func (s *GoalsheetService) TargetTypes(ctx context.Context) ([]models.TargetType, error) {
	types, err := s.repo.ListTargetTypes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list target types")
	}
	return types, nil
}

func (s *GoalsheetService) loadOwnedSheet(ctx context.Context, id, ownerProfileID string) (*models.Goalsheet, error) {
	sheet, err := s.repo.FindSheet(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "goalsheet not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load goalsheet")
	}
	if ownerProfileID != "" && sheet.ProfileID != ownerProfileID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "goalsheet belongs to another employee")
	}
	return sheet, nil
}
