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

type leaveRepository interface {
	ListTypes(ctx context.Context) ([]models.LeaveType, error)
	FindType(ctx context.Context, id string) (*models.LeaveType, error)
	BalancesForProfile(ctx context.Context, profileID string, year int) ([]models.LeaveBalance, error)
	FindBalance(ctx context.Context, profileID, leaveTypeID string, year int) (*models.LeaveBalance, error)
	FindLeave(ctx context.Context, id string) (*models.Leave, error)
	List(ctx context.Context, filter models.LeaveFilter) ([]models.Leave, int, error)
	Create(ctx context.Context, leave *models.Leave) error
	Approve(ctx context.Context, leave *models.Leave, approverID string) error
	Reject(ctx context.Context, id, approverID, reason string) error
	Cancel(ctx context.Context, id, profileID string) error
}

type leaveAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ApplyLeaveRequest opens a new leave request.
type ApplyLeaveRequest struct {
	LeaveTypeID string    `json:"leave_type_id" validate:"required"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
	Reason      string    `json:"reason"`
}

// LeaveDecisionRequest approves or rejects a pending request.
type LeaveDecisionRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

// LeaveService manages leave types, balances and the request lifecycle.
type LeaveService struct {
	repo      leaveRepository
	audit     leaveAuditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLeaveService constructs a LeaveService.
func NewLeaveService(repo leaveRepository, audit leaveAuditRepository, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LeaveService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// Types lists the configured leave categories.
func (s *LeaveService) Types(ctx context.Context) ([]models.LeaveType, error) {
	types, err := s.repo.ListTypes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave types")
	}
	return types, nil
}

// Balances returns the caller's balances for the given year, defaulting to
// the current one.
func (s *LeaveService) Balances(ctx context.Context, profileID string, year int) ([]models.LeaveBalance, error) {
	if year <= 0 {
		year = time.Now().UTC().Year()
	}
	balances, err := s.repo.BalancesForProfile(ctx, profileID, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave balances")
	}
	return balances, nil
}

// List returns leave requests. Employees are pinned to their own profile.
func (s *LeaveService) List(ctx context.Context, filter models.LeaveFilter, ownerProfileID string) ([]models.Leave, int, error) {
	if ownerProfileID != "" {
		filter.ProfileID = ownerProfileID
	}
	leaves, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leaves")
	}
	return leaves, total, nil
}

// Apply opens a pending leave request. The day count is inclusive of both
// endpoints; balance coverage is checked up front so an obviously
// unaffordable request never reaches HR.
func (s *LeaveService) Apply(ctx context.Context, profileID string, req ApplyLeaveRequest) (*models.Leave, error) {
	if profileID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no employee profile linked to this account")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}

	leaveType, err := s.repo.FindType(ctx, req.LeaveTypeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave type")
	}

	totalDays := inclusiveDays(req.StartDate, req.EndDate)

	balance, err := s.repo.FindBalance(ctx, profileID, leaveType.ID, req.StartDate.Year())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrLeaveBalance, "no leave balance allocated for this type")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave balance")
	}
	if balance.Remaining() < totalDays {
		return nil, appErrors.Clone(appErrors.ErrLeaveBalance, "")
	}

	leave := &models.Leave{
		ProfileID:   profileID,
		LeaveTypeID: leaveType.ID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		TotalDays:   totalDays,
		Status:      models.LeavePending,
	}
	if req.Reason != "" {
		leave.Reason = &req.Reason
	}

	if err := s.repo.Create(ctx, leave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create leave request")
	}

	s.logger.Info("leave requested",
		zap.String("profile_id", profileID),
		zap.String("leave_type", leaveType.Name),
		zap.Float64("days", totalDays))
	return leave, nil
}

// Decide approves or rejects a pending request. Approval re-checks the
// balance, then consumes the days atomically with the status flip.
func (s *LeaveService) Decide(ctx context.Context, leaveID, approverUserID string, req LeaveDecisionRequest) (*models.Leave, error) {
	leave, err := s.repo.FindLeave(ctx, leaveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave request")
	}
	if leave.Status != models.LeavePending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "leave request already decided")
	}

	if req.Approve {
		balance, err := s.repo.FindBalance(ctx, leave.ProfileID, leave.LeaveTypeID, leave.StartDate.Year())
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave balance")
		}
		if err != nil || balance.Remaining() < leave.TotalDays {
			return nil, appErrors.Clone(appErrors.ErrLeaveBalance, "")
		}
		if err := s.repo.Approve(ctx, leave, approverUserID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "leave request already decided")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve leave")
		}
		leave.Status = models.LeaveApproved
	} else {
		if req.Reason == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "rejection requires a reason")
		}
		if err := s.repo.Reject(ctx, leave.ID, approverUserID, req.Reason); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "leave request already decided")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject leave")
		}
		leave.Status = models.LeaveRejected
		leave.RejectionReason = &req.Reason
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     approverUserID,
			Action:     models.AuditActionLeaveDecision,
			Resource:   "leave",
			ResourceID: &leave.ID,
		}); err != nil {
			s.logger.Warn("failed to record leave decision audit log", zap.Error(err))
		}
	}

	s.logger.Info("leave decided",
		zap.String("leave_id", leave.ID),
		zap.String("status", string(leave.Status)))
	return leave, nil
}

// Cancel lets an employee withdraw their own pending request.
func (s *LeaveService) Cancel(ctx context.Context, leaveID, profileID string) error {
	if err := s.repo.Cancel(ctx, leaveID, profileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no pending leave request to cancel")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel leave")
	}
	return nil
}

// inclusiveDays counts calendar days covering both endpoints.
func inclusiveDays(start, end time.Time) float64 {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return e.Sub(s).Hours()/24 + 1
}
