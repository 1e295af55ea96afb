package models

import "time"

const (
	EnrollmentStatusUpcoming  = "upcoming"
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
	EnrollmentStatusStopped   = "stopped"
)

type ProgramEnrollment struct {
	ID                   string    `json:"id"`
	OrgID                string    `json:"org_id"`
	UserID               string    `json:"user_id"`
	ProgramID            string    `json:"program_id"`
	CohortID             *string   `json:"cohort_id,omitempty"`
	SquadID              *string   `json:"squad_id,omitempty"`
	Status               string    `json:"status"`
	StartedAt            time.Time `json:"started_at"`
	AmountPaid           int64     `json:"amount_paid"`
	LastAssignedDayIndex int       `json:"last_assigned_day_index"`
	CreatedAt            time.Time `json:"created_at"`
}

// EndDate is the last day covered by the enrollment: a 30-day program
// starting 2024-01-01 runs through 2024-01-30 inclusive.
func (e *ProgramEnrollment) EndDate(lengthDays int) time.Time {
	if lengthDays < 1 {
		lengthDays = 1
	}
	return e.StartedAt.AddDate(0, 0, lengthDays-1)
}

func (e *ProgramEnrollment) IsOngoing() bool {
	return e.Status == EnrollmentStatusActive || e.Status == EnrollmentStatusUpcoming
}
