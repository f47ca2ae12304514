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

// TrainingRepository handles persistence for employee training records.
type TrainingRepository struct {
	db *sqlx.DB
}

// NewTrainingRepository constructs the repository.
func NewTrainingRepository(db *sqlx.DB) *TrainingRepository {
	return &TrainingRepository{db: db}
}

const trainingColumns = `id, profile_id, title, domain, trainer_name, trainer_organization, start_date, end_date, duration_hours, status, outcome, certificate_url, created_by, created_at, updated_at`

// FindByID returns a training record by identifier.
func (r *TrainingRepository) FindByID(ctx context.Context, id string) (*models.Training, error) {
	query := fmt.Sprintf(`SELECT %s FROM training WHERE id = $1 LIMIT 1`, trainingColumns)
	var row models.Training
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find training by id: %w", err)
	}
	return &row, nil
}

// List returns training rows matching the filter with a total count.
func (r *TrainingRepository) List(ctx context.Context, filter models.TrainingFilter) ([]models.Training, int, error) {
	base := `FROM training`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.ProfileID != "" {
		where = append(where, fmt.Sprintf("profile_id = $%d", len(args)+1))
		args = append(args, filter.ProfileID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
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

	listQuery := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY start_date DESC NULLS LAST LIMIT %d OFFSET %d", trainingColumns, base, whereClause, size, offset)
	var rows []models.Training
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list training: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count training: %w", err)
	}
	return rows, total, nil
}

// CountForProfile returns the number of training records for one profile.
func (r *TrainingRepository) CountForProfile(ctx context.Context, profileID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM training WHERE profile_id = $1`, profileID); err != nil {
		return 0, fmt.Errorf("count training for profile: %w", err)
	}
	return total, nil
}

// Create inserts a new training record.
func (r *TrainingRepository) Create(ctx context.Context, row *models.Training) error {
	now := time.Now().UTC()
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	row.CreatedAt = now
	row.UpdatedAt = now

	const query = `INSERT INTO training (id, profile_id, title, domain, trainer_name, trainer_organization, start_date, end_date, duration_hours, status, outcome, certificate_url, created_by, created_at, updated_at)
VALUES (:id, :profile_id, :title, :domain, :trainer_name, :trainer_organization, :start_date, :end_date, :duration_hours, :status, :outcome, :certificate_url, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("insert training: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of a training record.
func (r *TrainingRepository) Update(ctx context.Context, row *models.Training) error {
	row.UpdatedAt = time.Now().UTC()

	const query = `UPDATE training SET title = :title, domain = :domain, trainer_name = :trainer_name, trainer_organization = :trainer_organization, start_date = :start_date, end_date = :end_date, duration_hours = :duration_hours, status = :status, outcome = :outcome, certificate_url = :certificate_url, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("update training: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a training record.
func (r *TrainingRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM training WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete training: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
