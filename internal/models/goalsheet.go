package models

import "time"

// GoalStatus is shared by goalsheets and goal items.
type GoalStatus string

const (
	GoalNotStarted GoalStatus = "not_started"
	GoalInProgress GoalStatus = "in_progress"
	GoalCompleted  GoalStatus = "completed"
	GoalOnHold     GoalStatus = "on_hold"
)

// Valid returns true when the status is a supported value.
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalNotStarted, GoalInProgress, GoalCompleted, GoalOnHold:
		return true
	default:
		return false
	}
}

// GoalWeeks is the fixed number of reporting periods per goalsheet cycle.
const GoalWeeks = 4

// Goalsheet is a monthly review sheet owned by one profile.
type Goalsheet struct {
	ID                 string     `db:"id" json:"id"`
	ProfileID          string     `db:"profile_id" json:"profile_id"`
	Title              string     `db:"title" json:"title"`
	PeriodStart        time.Time  `db:"period_start" json:"period_start"`
	PeriodEnd          time.Time  `db:"period_end" json:"period_end"`
	Status             GoalStatus `db:"status" json:"status"`
	OverallProgress    *float64   `db:"overall_progress" json:"overall_progress,omitempty"`
	ReportingManagerID *string    `db:"reporting_manager_id" json:"reporting_manager_id,omitempty"`
	ReviewedBy         *string    `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt         *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedBy          *string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// GoalItem carries one goal with four weekly progress columns. Week values
// are free text; the submitted flags are set once per week and never unset.
type GoalItem struct {
	ID             string     `db:"id" json:"id"`
	GoalsheetID    string     `db:"goalsheet_id" json:"goalsheet_id"`
	Title          string     `db:"title" json:"title"`
	Description    *string    `db:"description" json:"description,omitempty"`
	TargetTypeID   *string    `db:"target_type_id" json:"target_type_id,omitempty"`
	TargetValue    *string    `db:"target_value" json:"target_value,omitempty"`
	Week1Value     *string    `db:"week1_value" json:"week1_value,omitempty"`
	Week1Submitted bool       `db:"week1_submitted" json:"week1_submitted"`
	Week2Value     *string    `db:"week2_value" json:"week2_value,omitempty"`
	Week2Submitted bool       `db:"week2_submitted" json:"week2_submitted"`
	Week3Value     *string    `db:"week3_value" json:"week3_value,omitempty"`
	Week3Submitted bool       `db:"week3_submitted" json:"week3_submitted"`
	Week4Value     *string    `db:"week4_value" json:"week4_value,omitempty"`
	Week4Submitted bool       `db:"week4_submitted" json:"week4_submitted"`
	OutOfBox       *string    `db:"out_of_box" json:"out_of_box,omitempty"`
	Status         GoalStatus `db:"status" json:"status"`
	Progress       *float64   `db:"progress" json:"progress,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// WeekValue returns the stored value for week 1..4, or nil for other weeks.
func (g GoalItem) WeekValue(week int) *string {
	switch week {
	case 1:
		return g.Week1Value
	case 2:
		return g.Week2Value
	case 3:
		return g.Week3Value
	case 4:
		return g.Week4Value
	default:
		return nil
	}
}

// WeekIsSubmitted reports whether this item's given week has been submitted.
func (g GoalItem) WeekIsSubmitted(week int) bool {
	switch week {
	case 1:
		return g.Week1Submitted
	case 2:
		return g.Week2Submitted
	case 3:
		return g.Week3Submitted
	case 4:
		return g.Week4Submitted
	default:
		return false
	}
}

// WeekSubmitted derives the week lock: a week is locked once every item in
// the sheet carries its submitted flag. Deliberately not stored; recomputed
// from the loaded items so there is no second source of truth.
func WeekSubmitted(items []GoalItem, week int) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !item.WeekIsSubmitted(week) {
			return false
		}
	}
	return true
}

// TargetType is a lookup row categorising goal items.
type TargetType struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	SortOrder   *int      `db:"sort_order" json:"sort_order,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// GoalsheetFilter scopes goalsheet listing queries.
type GoalsheetFilter struct {
	ProfileID string
	Status    *GoalStatus
	Page      int
	PageSize  int
}
