package models

import "time"

const DefaultCoachingPlan = "monthly"

// ClientCoachingData is the denormalized 1:1 coaching relationship record,
// keyed by (org_id, user_id).
type ClientCoachingData struct {
	OrgID          string    `json:"org_id"`
	UserID         string    `json:"user_id"`
	CoachID        string    `json:"coach_id"`
	ChannelID      string    `json:"channel_id"`
	CoachingPlan   string    `json:"coaching_plan"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	FocusAreas     []string  `json:"focus_areas"`
	ActionItems    []string  `json:"action_items"`
	SessionHistory []string  `json:"session_history"`
	Resources      []string  `json:"resources"`
	Notes          []string  `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
