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

type profileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, profile *models.Profile) error
	UpdateEmploymentStatus(ctx context.Context, id string, status models.EmploymentStatus) error
}

// UpsertProfileRequest carries the writable fields of an employee record.
type UpsertProfileRequest struct {
	UserID           string     `json:"user_id" validate:"required"`
	EmployeeID       *string    `json:"employee_id"`
	FirstName        string     `json:"first_name" validate:"required"`
	LastName         string     `json:"last_name"`
	Email            string     `json:"email" validate:"required,email"`
	Phone            *string    `json:"phone"`
	Gender           *string    `json:"gender"`
	DateOfBirth      *time.Time `json:"date_of_birth"`
	Address          *string    `json:"address"`
	City             *string    `json:"city"`
	State            *string    `json:"state"`
	Country          *string    `json:"country"`
	DepartmentID     *string    `json:"department_id"`
	DesignationID    *string    `json:"designation_id"`
	ReportingManager *string    `json:"reporting_manager"`
	JoiningDate      *time.Time `json:"joining_date"`
	BankName         *string    `json:"bank_name"`
	BankAccountNo    *string    `json:"bank_account_number"`
	BankIFSC         *string    `json:"bank_ifsc"`
	PANNumber        *string    `json:"pan_number"`
}

// ProfileService manages employee master records.
type ProfileService struct {
	repo      profileRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(repo profileRepository, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProfileService{repo: repo, validator: validate, logger: logger}
}

// Get returns a single profile.
func (s *ProfileService) Get(ctx context.Context, id string) (*models.Profile, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// GetByUser returns the profile linked to a login account.
func (s *ProfileService) GetByUser(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no profile linked to this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// List returns profiles matching the filter for HR directory views.
func (s *ProfileService) List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error) {
	profiles, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list profiles")
	}
	return profiles, total, nil
}

// Create registers a new employee record in active state.
func (s *ProfileService) Create(ctx context.Context, req UpsertProfileRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	profile := s.apply(&models.Profile{EmploymentStatus: models.EmploymentActive}, req)
	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create profile")
	}

	s.logger.Info("profile created", zap.String("profile_id", profile.ID), zap.String("email", profile.Email))
	return profile, nil
}

// Update replaces the writable fields of an existing profile.
func (s *ProfileService) Update(ctx context.Context, id string, req UpsertProfileRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := s.apply(existing, req)
	if err := s.repo.Update(ctx, profile); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return profile, nil
}

// SetEmploymentStatus moves a profile through its lifecycle states.
func (s *ProfileService) SetEmploymentStatus(ctx context.Context, id string, status models.EmploymentStatus) error {
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown employment status")
	}
	if err := s.repo.UpdateEmploymentStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update employment status")
	}
	s.logger.Info("employment status changed", zap.String("profile_id", id), zap.String("status", string(status)))
	return nil
}

func (s *ProfileService) apply(profile *models.Profile, req UpsertProfileRequest) *models.Profile {
	profile.UserID = req.UserID
	profile.EmployeeID = req.EmployeeID
	profile.FirstName = req.FirstName
	profile.LastName = req.LastName
	profile.Email = req.Email
	profile.Phone = req.Phone
	profile.Gender = req.Gender
	profile.DateOfBirth = req.DateOfBirth
	profile.Address = req.Address
	profile.City = req.City
	profile.State = req.State
	profile.Country = req.Country
	profile.DepartmentID = req.DepartmentID
	profile.DesignationID = req.DesignationID
	profile.ReportingManager = req.ReportingManager
	profile.JoiningDate = req.JoiningDate
	profile.BankName = req.BankName
	profile.BankAccountNo = req.BankAccountNo
	profile.BankIFSC = req.BankIFSC
	profile.PANNumber = req.PANNumber
	return profile
}
