package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/peoplehq/hrm-api/internal/models"
)

// AnnouncementRepository handles persistence for company announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository constructs the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

const announcementColumns = `id, title, content, priority, target_roles, is_active, published_at, expires_at, created_by, created_at, updated_at`

// FindByID returns an announcement by identifier.
func (r *AnnouncementRepository) FindByID(ctx context.Context, id string) (*models.Announcement, error) {
	query := fmt.Sprintf(`SELECT %s FROM announcements WHERE id = $1 LIMIT 1`, announcementColumns)
	var row models.Announcement
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find announcement by id: %w", err)
	}
	return &row, nil
}

// List returns announcements matching the filter with a total count.
// Role targeting lives in a text[] column; an empty array targets everyone.
func (r *AnnouncementRepository) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	base := `FROM announcements`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.ActiveOnly {
		where = append(where, "is_active = TRUE")
		where = append(where, fmt.Sprintf("(expires_at IS NULL OR expires_at > $%d)", len(args)+1))
		args = append(args, time.Now().UTC())
	}
	if filter.Role != nil && filter.Role.Valid() {
		where = append(where, fmt.Sprintf("(target_roles = '{}' OR $%d = ANY(target_roles))", len(args)+1))
		args = append(args, string(*filter.Role))
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	listQuery := fmt.Sprintf(`SELECT %s %s WHERE %s
ORDER BY CASE priority WHEN 'high' THEN 0 WHEN 'normal' THEN 1 ELSE 2 END, published_at DESC NULLS LAST
LIMIT %d OFFSET %d`, announcementColumns, base, whereClause, size, offset)
	var rows []models.Announcement
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}
	return rows, total, nil
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, row *models.Announcement) error {
	now := time.Now().UTC()
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	row.CreatedAt = now
	row.UpdatedAt = now

	const query = `INSERT INTO announcements (id, title, content, priority, target_roles, is_active, published_at, expires_at, created_by, created_at, updated_at)
VALUES (:id, :title, :content, :priority, :target_roles, :is_active, :published_at, :expires_at, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("insert announcement: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an announcement.
func (r *AnnouncementRepository) Update(ctx context.Context, row *models.Announcement) error {
	row.UpdatedAt = time.Now().UTC()

	const query = `UPDATE announcements SET title = :title, content = :content, priority = :priority, target_roles = :target_roles, is_active = :is_active, published_at = :published_at, expires_at = :expires_at, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Deactivate soft-hides an announcement instead of deleting it.
func (r *AnnouncementRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE announcements SET is_active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate announcement: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
