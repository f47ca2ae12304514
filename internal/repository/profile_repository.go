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

// ProfileRepository handles persistence for employee master records.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, user_id, employee_id, first_name, last_name, email, phone, gender, date_of_birth, address, city, state, country, department_id, designation_id, reporting_manager, employment_status, joining_date, bank_name, bank_account_number, bank_ifsc, pan_number, created_at, updated_at`

// FindByID returns a profile by identifier.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE id = $1 LIMIT 1`, profileColumns)
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find profile by id: %w", err)
	}
	return &profile, nil
}

// FindByUserID returns the profile linked to a login account.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE user_id = $1 LIMIT 1`, profileColumns)
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find profile by user id: %w", err)
	}
	return &profile, nil
}

// List returns profiles matching the filter with a total count.
func (r *ProfileRepository) List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error) {
	base := `FROM profiles`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.EmploymentStatus != nil && filter.EmploymentStatus.Valid() {
		where = append(where, fmt.Sprintf("employment_status = $%d", len(args)+1))
		args = append(args, *filter.EmploymentStatus)
	}
	if filter.DepartmentID != "" {
		where = append(where, fmt.Sprintf("department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR employee_id ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	whereClause := strings.Join(where, " AND ")

	allowedSort := map[string]string{
		"first_name":   "first_name",
		"email":        "email",
		"joining_date": "joining_date",
		"created_at":   "created_at",
	}
	sortColumn, ok := allowedSort[filter.SortBy]
	if !ok {
		sortColumn = "first_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	listQuery := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d",
		profileColumns, base, whereClause, sortColumn, order, size, offset)
	var profiles []models.Profile
	if err := r.db.SelectContext(ctx, &profiles, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}
	return profiles, total, nil
}

// Create inserts a new profile.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	now := time.Now().UTC()
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	profile.CreatedAt = now
	profile.UpdatedAt = now

	const query = `INSERT INTO profiles (id, user_id, employee_id, first_name, last_name, email, phone, gender, date_of_birth, address, city, state, country, department_id, designation_id, reporting_manager, employment_status, joining_date, bank_name, bank_account_number, bank_ifsc, pan_number, created_at, updated_at)
VALUES (:id, :user_id, :employee_id, :first_name, :last_name, :email, :phone, :gender, :date_of_birth, :address, :city, :state, :country, :department_id, :designation_id, :reporting_manager, :employment_status, :joining_date, :bank_name, :bank_account_number, :bank_ifsc, :pan_number, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of a profile.
func (r *ProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now().UTC()

	const query = `UPDATE profiles SET employee_id = :employee_id, first_name = :first_name, last_name = :last_name, email = :email, phone = :phone, gender = :gender, date_of_birth = :date_of_birth, address = :address, city = :city, state = :state, country = :country, department_id = :department_id, designation_id = :designation_id, reporting_manager = :reporting_manager, employment_status = :employment_status, joining_date = :joining_date, bank_name = :bank_name, bank_account_number = :bank_account_number, bank_ifsc = :bank_ifsc, pan_number = :pan_number, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, profile)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateEmploymentStatus changes only the lifecycle state.
func (r *ProfileRepository) UpdateEmploymentStatus(ctx context.Context, id string, status models.EmploymentStatus) error {
	const query = `UPDATE profiles SET employment_status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update employment status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByStatus returns the number of profiles in the given state.
func (r *ProfileRepository) CountByStatus(ctx context.Context, status models.EmploymentStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM profiles WHERE employment_status = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, status); err != nil {
		return 0, fmt.Errorf("count profiles by status: %w", err)
	}
	return total, nil
}
