package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peoplehq/hrm-api/internal/models"
	appErrors "github.com/peoplehq/hrm-api/pkg/errors"
)

type leaveRepoStub struct {
	leaveType *models.LeaveType
	balance   *models.LeaveBalance
	leave     *models.Leave
	created   *models.Leave
	approved  bool
	rejected  bool
}

func (s *leaveRepoStub) ListTypes(ctx context.Context) ([]models.LeaveType, error) {
	if s.leaveType == nil {
		return nil, nil
	}
	return []models.LeaveType{*s.leaveType}, nil
}

func (s *leaveRepoStub) FindType(ctx context.Context, id string) (*models.LeaveType, error) {
	if s.leaveType == nil || s.leaveType.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.leaveType, nil
}

func (s *leaveRepoStub) BalancesForProfile(ctx context.Context, profileID string, year int) ([]models.LeaveBalance, error) {
	if s.balance == nil {
		return nil, nil
	}
	return []models.LeaveBalance{*s.balance}, nil
}

func (s *leaveRepoStub) FindBalance(ctx context.Context, profileID, leaveTypeID string, year int) (*models.LeaveBalance, error) {
	if s.balance == nil {
		return nil, sql.ErrNoRows
	}
	return s.balance, nil
}

func (s *leaveRepoStub) FindLeave(ctx context.Context, id string) (*models.Leave, error) {
	if s.leave == nil || s.leave.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.leave, nil
}

func (s *leaveRepoStub) List(ctx context.Context, filter models.LeaveFilter) ([]models.Leave, int, error) {
	return nil, 0, nil
}

func (s *leaveRepoStub) Create(ctx context.Context, leave *models.Leave) error {
	leave.ID = "l1"
	s.created = leave
	return nil
}

func (s *leaveRepoStub) Approve(ctx context.Context, leave *models.Leave, approverID string) error {
	s.approved = true
	return nil
}

func (s *leaveRepoStub) Reject(ctx context.Context, id, approverID, reason string) error {
	s.rejected = true
	return nil
}

func (s *leaveRepoStub) Cancel(ctx context.Context, id, profileID string) error {
	return sql.ErrNoRows
}

type auditStub struct{ logs []*models.AuditLog }

func (s *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

func leaveFixture(remaining float64) *leaveRepoStub {
	return &leaveRepoStub{
		leaveType: &models.LeaveType{ID: "lt1", Name: "Casual Leave", DefaultDays: 12, IsPaid: true, RequiresApproval: true},
		balance:   &models.LeaveBalance{ID: "b1", ProfileID: "p1", LeaveTypeID: "lt1", Year: 2026, TotalDays: 12, UsedDays: 12 - remaining},
	}
}

func TestApplyLeaveCountsInclusiveDays(t *testing.T) {
	repo := leaveFixture(10)
	svc := NewLeaveService(repo, nil, nil, nil)

	leave, err := svc.Apply(context.Background(), "p1", ApplyLeaveRequest{
		LeaveTypeID: "lt1",
		StartDate:   time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 4, 8, 0, 0, 0, 0, time.UTC),
		Reason:      "family event",
	})
	require.NoError(t, err)
	assert.Equal(t, 3.0, leave.TotalDays)
	assert.Equal(t, models.LeavePending, leave.Status)
}

func TestApplyLeaveInsufficientBalance(t *testing.T) {
	repo := leaveFixture(1)
	svc := NewLeaveService(repo, nil, nil, nil)

	_, err := svc.Apply(context.Background(), "p1", ApplyLeaveRequest{
		LeaveTypeID: "lt1",
		StartDate:   time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 4, 8, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLeaveBalance.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestApplyLeaveSingleDay(t *testing.T) {
	repo := leaveFixture(5)
	svc := NewLeaveService(repo, nil, nil, nil)

	day := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	leave, err := svc.Apply(context.Background(), "p1", ApplyLeaveRequest{
		LeaveTypeID: "lt1", StartDate: day, EndDate: day,
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, leave.TotalDays)
}

func TestDecideApprovesAndAudits(t *testing.T) {
	repo := leaveFixture(10)
	repo.leave = &models.Leave{
		ID: "l1", ProfileID: "p1", LeaveTypeID: "lt1",
		StartDate: time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC),
		TotalDays: 3, Status: models.LeavePending,
	}
	audit := &auditStub{}
	svc := NewLeaveService(repo, audit, nil, nil)

	leave, err := svc.Decide(context.Background(), "l1", "hr-user", LeaveDecisionRequest{Approve: true})
	require.NoError(t, err)
	assert.Equal(t, models.LeaveApproved, leave.Status)
	assert.True(t, repo.approved)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionLeaveDecision, audit.logs[0].Action)
}

func TestDecideRejectRequiresReason(t *testing.T) {
	repo := leaveFixture(10)
	repo.leave = &models.Leave{ID: "l1", ProfileID: "p1", LeaveTypeID: "lt1", StartDate: time.Now(), TotalDays: 1, Status: models.LeavePending}
	svc := NewLeaveService(repo, nil, nil, nil)

	_, err := svc.Decide(context.Background(), "l1", "hr-user", LeaveDecisionRequest{Approve: false})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.False(t, repo.rejected)
}

func TestDecideAlreadyDecided(t *testing.T) {
	repo := leaveFixture(10)
	repo.leave = &models.Leave{ID: "l1", Status: models.LeaveApproved, StartDate: time.Now()}
	svc := NewLeaveService(repo, nil, nil, nil)

	_, err := svc.Decide(context.Background(), "l1", "hr-user", LeaveDecisionRequest{Approve: true})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
