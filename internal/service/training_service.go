package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/peoplehq/hrm-api/internal/models"
	appErrors "github.com/peoplehq/hrm-api/pkg/errors"
)

type trainingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Training, error)
	List(ctx context.Context, filter models.TrainingFilter) ([]models.Training, int, error)
	Create(ctx context.Context, row *models.Training) error
	Update(ctx context.Context, row *models.Training) error
	Delete(ctx context.Context, id string) error
}

// UpsertTrainingRequest carries the writable fields of a training record.
type UpsertTrainingRequest struct {
	ProfileID           string     `json:"profile_id" validate:"required"`
	Title               string     `json:"title" validate:"required"`
	Domain              *string    `json:"domain"`
	TrainerName         *string    `json:"trainer_name"`
	TrainerOrganization *string    `json:"trainer_organization"`
	StartDate           *time.Time `json:"start_date"`
	EndDate             *time.Time `json:"end_date"`
	DurationHours       *float64   `json:"duration_hours"`
	Status              string     `json:"status"`
	Outcome             *string    `json:"outcome"`
	CertificateURL      *string    `json:"certificate_url"`
}

// TrainingService manages employee training records.
type TrainingService struct {
	repo      trainingRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTrainingService constructs a TrainingService.
func NewTrainingService(repo trainingRepository, validate *validator.Validate, logger *zap.Logger) *TrainingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TrainingService{repo: repo, validator: validate, logger: logger}
}

// Get returns one training record.
func (s *TrainingService) Get(ctx context.Context, id string) (*models.Training, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "training not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load training")
	}
	return row, nil
}

// List returns training records. Employees are pinned to their own profile.
func (s *TrainingService) List(ctx context.Context, filter models.TrainingFilter, ownerProfileID string) ([]models.Training, int, error) {
	if ownerProfileID != "" {
		filter.ProfileID = ownerProfileID
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list training")
	}
	return rows, total, nil
}

// Create registers a new training record, defaulting to scheduled.
func (s *TrainingService) Create(ctx context.Context, req UpsertTrainingRequest, createdBy string) (*models.Training, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid training payload")
	}
	status, err := trainingStatus(req.Status, models.TrainingScheduled)
	if err != nil {
		return nil, err
	}

	row := s.apply(&models.Training{Status: status}, req)
	if createdBy != "" {
		row.CreatedBy = &createdBy
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create training")
	}

	s.logger.Info("training created", zap.String("training_id", row.ID), zap.String("profile_id", row.ProfileID))
	return row, nil
}

// Update replaces the writable fields of a training record.
func (s *TrainingService) Update(ctx context.Context, id string, req UpsertTrainingRequest) (*models.Training, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid training payload")
	}

	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	status, err := trainingStatus(req.Status, row.Status)
	if err != nil {
		return nil, err
	}

	row = s.apply(row, req)
	row.Status = status
	if err := s.repo.Update(ctx, row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "training not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update training")
	}
	return row, nil
}

// Delete removes a training record.
func (s *TrainingService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "training not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete training")
	}
	return nil
}

func (s *TrainingService) apply(row *models.Training, req UpsertTrainingRequest) *models.Training {
	row.ProfileID = req.ProfileID
	row.Title = req.Title
	row.Domain = req.Domain
	row.TrainerName = req.TrainerName
	row.TrainerOrganization = req.TrainerOrganization
	row.StartDate = req.StartDate
	row.EndDate = req.EndDate
	row.DurationHours = req.DurationHours
	row.Outcome = req.Outcome
	row.CertificateURL = req.CertificateURL
	return row
}

func trainingStatus(raw string, fallback models.TrainingStatus) (models.TrainingStatus, error) {
	if raw == "" {
		return fallback, nil
	}
	status := models.TrainingStatus(raw)
	if !status.Valid() {
		return "", appErrors.Clone(appErrors.ErrValidation, "unknown training status")
	}
	return status, nil
}
