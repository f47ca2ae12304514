package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/peoplehq/hrm-api/internal/models"
	appErrors "github.com/peoplehq/hrm-api/pkg/errors"
)

type announcementRepository interface {
	FindByID(ctx context.Context, id string) (*models.Announcement, error)
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
	Create(ctx context.Context, row *models.Announcement) error
	Update(ctx context.Context, row *models.Announcement) error
	Deactivate(ctx context.Context, id string) error
}

// UpsertAnnouncementRequest carries the writable fields of an announcement.
// An empty TargetRoles list makes the notice visible to everyone.
type UpsertAnnouncementRequest struct {
	Title       string     `json:"title" validate:"required"`
	Content     string     `json:"content" validate:"required"`
	Priority    string     `json:"priority"`
	TargetRoles []string   `json:"target_roles" validate:"dive,oneof=admin hr employee"`
	PublishedAt *time.Time `json:"published_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// AnnouncementService manages company notices and role-scoped feeds.
type AnnouncementService struct {
	repo      announcementRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnnouncementService constructs an AnnouncementService.
func NewAnnouncementService(repo announcementRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AnnouncementService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Feed returns the active announcements visible to the given role, ordered
// high priority first.
func (s *AnnouncementService) Feed(ctx context.Context, role models.UserRole, page, pageSize int) ([]models.Announcement, int, error) {
	filter := models.AnnouncementFilter{
		Role:       &role,
		ActiveOnly: true,
		Page:       page,
		PageSize:   pageSize,
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcements")
	}
	return rows, total, nil
}

// List returns all announcements for HR management views, including
// inactive and expired ones.
func (s *AnnouncementService) List(ctx context.Context, page, pageSize int) ([]models.Announcement, int, error) {
	rows, total, err := s.repo.List(ctx, models.AnnouncementFilter{Page: page, PageSize: pageSize})
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return rows, total, nil
}

// Create publishes a new announcement.
func (s *AnnouncementService) Create(ctx context.Context, req UpsertAnnouncementRequest, createdBy string) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	priority, err := announcementPriority(req.Priority)
	if err != nil {
		return nil, err
	}

	row := &models.Announcement{
		Title:       req.Title,
		Content:     req.Content,
		Priority:    priority,
		TargetRoles: pq.StringArray(req.TargetRoles),
		IsActive:    true,
		PublishedAt: req.PublishedAt,
		ExpiresAt:   req.ExpiresAt,
	}
	if row.TargetRoles == nil {
		row.TargetRoles = pq.StringArray{}
	}
	if row.PublishedAt == nil {
		now := time.Now().UTC()
		row.PublishedAt = &now
	}
	if createdBy != "" {
		row.CreatedBy = &createdBy
	}

	if err := s.repo.Create(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	s.invalidateDashboards(ctx)

	s.logger.Info("announcement published",
		zap.String("announcement_id", row.ID),
		zap.String("priority", string(row.Priority)))
	return row, nil
}

// Update rewrites an announcement.
func (s *AnnouncementService) Update(ctx context.Context, id string, req UpsertAnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	priority, err := announcementPriority(req.Priority)
	if err != nil {
		return nil, err
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}

	row.Title = req.Title
	row.Content = req.Content
	row.Priority = priority
	row.TargetRoles = pq.StringArray(req.TargetRoles)
	if row.TargetRoles == nil {
		row.TargetRoles = pq.StringArray{}
	}
	row.PublishedAt = req.PublishedAt
	row.ExpiresAt = req.ExpiresAt

	if err := s.repo.Update(ctx, row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update announcement")
	}
	s.invalidateDashboards(ctx)
	return row, nil
}

// Deactivate hides an announcement from feeds without deleting it.
func (s *AnnouncementService) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate announcement")
	}
	s.invalidateDashboards(ctx)
	return nil
}

func (s *AnnouncementService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func announcementPriority(raw string) (models.AnnouncementPriority, error) {
	if raw == "" {
		return models.PriorityNormal, nil
	}
	priority := models.AnnouncementPriority(raw)
	if !priority.Valid() {
		return "", appErrors.Clone(appErrors.ErrValidation, "unknown announcement priority")
	}
	return priority, nil
}
