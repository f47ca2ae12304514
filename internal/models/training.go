package models

import "time"

// TrainingStatus tracks a training record lifecycle.
type TrainingStatus string

const (
	TrainingScheduled  TrainingStatus = "scheduled"
	TrainingInProgress TrainingStatus = "in_progress"
	TrainingCompleted  TrainingStatus = "completed"
	TrainingCancelled  TrainingStatus = "cancelled"
)

// Valid returns true when the status is a supported value.
func (s TrainingStatus) Valid() bool {
	switch s {
	case TrainingScheduled, TrainingInProgress, TrainingCompleted, TrainingCancelled:
		return true
	default:
		return false
	}
}

// Training is one training engagement for a profile.
type Training struct {
	ID                  string         `db:"id" json:"id"`
	ProfileID           string         `db:"profile_id" json:"profile_id"`
	Title               string         `db:"title" json:"title"`
	Domain              *string        `db:"domain" json:"domain,omitempty"`
	TrainerName         *string        `db:"trainer_name" json:"trainer_name,omitempty"`
	TrainerOrganization *string        `db:"trainer_organization" json:"trainer_organization,omitempty"`
	StartDate           *time.Time     `db:"start_date" json:"start_date,omitempty"`
	EndDate             *time.Time     `db:"end_date" json:"end_date,omitempty"`
	DurationHours       *float64       `db:"duration_hours" json:"duration_hours,omitempty"`
	Status              TrainingStatus `db:"status" json:"status"`
	Outcome             *string        `db:"outcome" json:"outcome,omitempty"`
	CertificateURL      *string        `db:"certificate_url" json:"certificate_url,omitempty"`
	CreatedBy           *string        `db:"created_by" json:"created_by,omitempty"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// TrainingFilter scopes training listing queries.
type TrainingFilter struct {
	ProfileID string
	Status    *TrainingStatus
	Page      int
	PageSize  int
}
