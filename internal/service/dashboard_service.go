package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/peoplehq/hrm-api/internal/models"
	appErrors "github.com/peoplehq/hrm-api/pkg/errors"
)

type dashboardAttendanceRepository interface {
	CountForDate(ctx context.Context, date time.Time) (int, error)
}

type dashboardProfileRepository interface {
	CountByStatus(ctx context.Context, status models.EmploymentStatus) (int, error)
}

type dashboardLeaveRepository interface {
	CountByStatus(ctx context.Context, status models.LeaveStatus) (int, error)
	BalancesForProfile(ctx context.Context, profileID string, year int) ([]models.LeaveBalance, error)
	CountsForProfile(ctx context.Context, profileID string, year int) (applied, approved int, err error)
}

type dashboardTimesheetRepository interface {
	CountByStatus(ctx context.Context, status models.TimesheetStatus) (int, error)
}

type dashboardTrainingRepository interface {
	CountForProfile(ctx context.Context, profileID string) (int, error)
}

type dashboardPayrollRepository interface {
	TotalNetForMonth(ctx context.Context, month, year int) (float64, error)
}

type dashboardAnnouncementRepository interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
}

// HRDashboard aggregates the headline numbers for the HR landing page.
type HRDashboard struct {
	ActiveEmployees   int       `json:"active_employees"`
	PresentToday      int       `json:"present_today"`
	PendingLeaves     int       `json:"pending_leaves"`
	PendingTimesheets int       `json:"pending_timesheets"`
	MonthNetPayroll   float64   `json:"month_net_payroll"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// EmployeeDashboard is the per-employee landing payload.
type EmployeeDashboard struct {
	Attendance     models.TodayAttendance `json:"attendance"`
	LeaveBalances  []models.LeaveBalance  `json:"leave_balances"`
	LeavesApplied  int                    `json:"leaves_applied"`
	LeavesApproved int                    `json:"leaves_approved"`
	TrainingCount  int                    `json:"training_count"`
	Announcements  []models.Announcement  `json:"announcements"`
	GeneratedAt    time.Time              `json:"generated_at"`
}

// DashboardService assembles aggregate views. The HR dashboard is cached in
// Redis because it fans out across five tables; the employee view is cheap
// enough to build per request except for its announcement slice.
type DashboardService struct {
	attendance    *AttendanceService
	attendanceAgg dashboardAttendanceRepository
	profiles      dashboardProfileRepository
	leaves        dashboardLeaveRepository
	timesheets    dashboardTimesheetRepository
	trainings     dashboardTrainingRepository
	payroll       dashboardPayrollRepository
	announcements dashboardAnnouncementRepository
	cache         *CacheService
	cacheTTL      time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(
	attendance *AttendanceService,
	attendanceAgg dashboardAttendanceRepository,
	profiles dashboardProfileRepository,
	leaves dashboardLeaveRepository,
	timesheets dashboardTimesheetRepository,
	trainings dashboardTrainingRepository,
	payroll dashboardPayrollRepository,
	announcements dashboardAnnouncementRepository,
	cache *CacheService,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		attendance:    attendance,
		attendanceAgg: attendanceAgg,
		profiles:      profiles,
		leaves:        leaves,
		timesheets:    timesheets,
		trainings:     trainings,
		payroll:       payroll,
		announcements: announcements,
		cache:         cache,
		cacheTTL:      cacheTTL,
		logger:        logger,
		now:           time.Now,
	}
}

const hrDashboardCacheKey = "dashboard:hr"

// HR returns the cached HR aggregate, rebuilding it on a miss. The second
// return value reports whether the payload came from cache.
func (s *DashboardService) HR(ctx context.Context) (*HRDashboard, bool, error) {
	if s.cache != nil {
		var cached HRDashboard
		if hit, _ := s.cache.Get(ctx, hrDashboardCacheKey, &cached); hit {
			return &cached, true, nil
		}
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	active, err := s.profiles.CountByStatus(ctx, models.EmploymentActive)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count active employees")
	}
	present, err := s.attendanceAgg.CountForDate(ctx, today)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count today's attendance")
	}
	pendingLeaves, err := s.leaves.CountByStatus(ctx, models.LeavePending)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending leaves")
	}
	pendingTimesheets, err := s.timesheets.CountByStatus(ctx, models.TimesheetSubmitted)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending timesheets")
	}
	monthNet, err := s.payroll.TotalNetForMonth(ctx, int(now.Month()), now.Year())
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum month payroll")
	}

	dashboard := &HRDashboard{
		ActiveEmployees:   active,
		PresentToday:      present,
		PendingLeaves:     pendingLeaves,
		PendingTimesheets: pendingTimesheets,
		MonthNetPayroll:   monthNet,
		GeneratedAt:       now,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, hrDashboardCacheKey, dashboard, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache hr dashboard", zap.Error(err))
		}
	}
	return dashboard, false, nil
}

// Employee builds the per-employee landing payload.
func (s *DashboardService) Employee(ctx context.Context, profileID string, role models.UserRole) (*EmployeeDashboard, error) {
	now := s.now().UTC()

	attendance, err := s.attendance.Today(ctx, profileID)
	if err != nil {
		return nil, err
	}

	balances, err := s.leaves.BalancesForProfile(ctx, profileID, now.Year())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave balances")
	}

	applied, approved, err := s.leaves.CountsForProfile(ctx, profileID, now.Year())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count leaves")
	}

	trainingCount, err := s.trainings.CountForProfile(ctx, profileID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count training records")
	}

	announcements, _, err := s.announcements.List(ctx, models.AnnouncementFilter{
		Role:       &role,
		ActiveOnly: true,
		Page:       1,
		PageSize:   5,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcements")
	}

	return &EmployeeDashboard{
		Attendance:     *attendance,
		LeaveBalances:  balances,
		LeavesApplied:  applied,
		LeavesApproved: approved,
		TrainingCount:  trainingCount,
		Announcements:  announcements,
		GeneratedAt:    now,
	}, nil
}

// Invalidate drops cached dashboard aggregates after workflow writes.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
