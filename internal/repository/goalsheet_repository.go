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

// GoalsheetRepository handles persistence for goalsheets and their items.
type GoalsheetRepository struct {
	db *sqlx.DB
}

// NewGoalsheetRepository constructs the repository.
func NewGoalsheetRepository(db *sqlx.DB) *GoalsheetRepository {
	return &GoalsheetRepository{db: db}
}

const goalsheetColumns = `id, profile_id, title, period_start, period_end, status, overall_progress, reporting_manager_id, reviewed_by, reviewed_at, created_by, created_at, updated_at`

const goalItemColumns = `id, goalsheet_id, title, description, target_type_id, target_value,
week1_value, week1_submitted, week2_value, week2_submitted,
week3_value, week3_submitted, week4_value, week4_submitted,
out_of_box, status, progress, created_at, updated_at`

// FindSheet returns a goalsheet by id.
func (r *GoalsheetRepository) FindSheet(ctx context.Context, id string) (*models.Goalsheet, error) {
	query := fmt.Sprintf(`SELECT %s FROM goalsheets WHERE id = $1 LIMIT 1`, goalsheetColumns)
	var sheet models.Goalsheet
	if err := r.db.GetContext(ctx, &sheet, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find goalsheet: %w", err)
	}
	return &sheet, nil
}

// ListSheets returns goalsheets matching the filter with a total count.
func (r *GoalsheetRepository) ListSheets(ctx context.Context, filter models.GoalsheetFilter) ([]models.Goalsheet, int, error) {
	base := `FROM goalsheets WHERE 1=1`
	var conditions []string
	var args []interface{}
	if filter.ProfileID != "" {
		conditions = append(conditions, fmt.Sprintf("profile_id = $%d", len(args)+1))
		args = append(args, filter.ProfileID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY period_start DESC LIMIT %d OFFSET %d", goalsheetColumns, base, size, offset)
	var sheets []models.Goalsheet
	if err := r.db.SelectContext(ctx, &sheets, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list goalsheets: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count goalsheets: %w", err)
	}
	return sheets, total, nil
}

// ItemsBySheet returns all items for a goalsheet in creation order.
func (r *GoalsheetRepository) ItemsBySheet(ctx context.Context, sheetID string) ([]models.GoalItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM goal_items WHERE goalsheet_id = $1 ORDER BY created_at ASC`, goalItemColumns)
	var items []models.GoalItem
	if err := r.db.SelectContext(ctx, &items, query, sheetID); err != nil {
		return nil, fmt.Errorf("list goal items: %w", err)
	}
	return items, nil
}

// CreateSheet inserts a goalsheet and its items in one transaction.
func (r *GoalsheetRepository) CreateSheet(ctx context.Context, sheet *models.Goalsheet, items []models.GoalItem) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create goalsheet: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if sheet.ID == "" {
		sheet.ID = uuid.NewString()
	}
	sheet.CreatedAt = now
	sheet.UpdatedAt = now

	const sheetQuery = `INSERT INTO goalsheets (id, profile_id, title, period_start, period_end, status, overall_progress, reporting_manager_id, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := tx.ExecContext(ctx, sheetQuery,
		sheet.ID, sheet.ProfileID, sheet.Title, sheet.PeriodStart, sheet.PeriodEnd,
		sheet.Status, sheet.OverallProgress, sheet.ReportingManagerID, sheet.CreatedBy,
		sheet.CreatedAt, sheet.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert goalsheet: %w", err)
	}

	const itemQuery = `INSERT INTO goal_items (id, goalsheet_id, title, description, target_type_id, target_value, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.GoalsheetID = sheet.ID
		item.CreatedAt = now
		item.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, itemQuery,
			item.ID, item.GoalsheetID, item.Title, item.Description,
			item.TargetTypeID, item.TargetValue, item.Status,
			item.CreatedAt, item.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert goal item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create goalsheet: %w", err)
	}
	committed = true
	return nil
}

// WeekUpdate carries one item's values for a weekly submission.
type WeekUpdate struct {
	ItemID   string
	Value    *string
	OutOfBox *string
}

// SubmitWeek applies a weekly submission in one transaction: every item gets
// its weekN value and submitted flag (plus out_of_box on week 4), then the
// parent sheet's status is overwritten to in_progress. The overwrite is
// unconditional, matching the original workflow, even for completed sheets.
func (r *GoalsheetRepository) SubmitWeek(ctx context.Context, sheetID string, week int, updates []WeekUpdate) error {
	if week < 1 || week > models.GoalWeeks {
		return fmt.Errorf("week out of range: %d", week)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submit week: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	// week is range-checked above; the column name cannot carry user input.
	itemQuery := fmt.Sprintf(`UPDATE goal_items SET week%d_value = $2, week%d_submitted = TRUE, updated_at = $3 WHERE id = $1 AND goalsheet_id = $4`, week, week)
	week4Query := fmt.Sprintf(`UPDATE goal_items SET week%d_value = $2, week%d_submitted = TRUE, out_of_box = $3, updated_at = $4 WHERE id = $1 AND goalsheet_id = $5`, week, week)

	for _, update := range updates {
		var (
			res sql.Result
			err error
		)
		if week == models.GoalWeeks {
			res, err = tx.ExecContext(ctx, week4Query, update.ItemID, update.Value, update.OutOfBox, now, sheetID)
		} else {
			res, err = tx.ExecContext(ctx, itemQuery, update.ItemID, update.Value, now, sheetID)
		}
		if err != nil {
			return fmt.Errorf("update goal item %s: %w", update.ItemID, err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return sql.ErrNoRows
		}
	}

	const sheetQuery = `UPDATE goalsheets SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, sheetQuery, sheetID, models.GoalInProgress, now); err != nil {
		return fmt.Errorf("update goalsheet status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit submit week: %w", err)
	}
	committed = true
	return nil
}

// ListTargetTypes returns active target types ordered for display.
func (r *GoalsheetRepository) ListTargetTypes(ctx context.Context) ([]models.TargetType, error) {
	const query = `SELECT id, name, description, is_active, sort_order, created_at FROM target_types WHERE is_active = TRUE ORDER BY sort_order ASC NULLS LAST, name ASC`
	var types []models.TargetType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list target types: %w", err)
	}
	return types, nil
}
