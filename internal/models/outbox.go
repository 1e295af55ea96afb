package models

import (
	"encoding/json"
	"time"
)

const (
	OutboxJobContentGrant = "content-grant"
	OutboxJobTaskSync     = "task-sync"
)

const (
	OutboxStatusPending = "pending"
	OutboxStatusDone    = "done"
	OutboxStatusFailed  = "failed"
)

type OutboxJob struct {
	ID        string          `json:"id"`
	OrgID     string          `json:"org_id"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Status    string          `json:"status"`
	Attempts  int             `json:"attempts"`
	RunAfter  time.Time       `json:"run_after"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// EnrollmentJobPayload is shared by content-grant and task-sync jobs.
type EnrollmentJobPayload struct {
	UserID       string `json:"userId"`
	ProgramID    string `json:"programId"`
	EnrollmentID string `json:"enrollmentId"`
	Mode         string `json:"mode,omitempty"`
}
