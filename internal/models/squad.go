package models

import "time"

const DefaultSquadCapacity = 10

type Squad struct {
	ID            string    `json:"id"`
	OrgID         string    `json:"org_id"`
	CohortID      string    `json:"cohort_id"`
	ProgramID     string    `json:"program_id"`
	Name          string    `json:"name"`
	SquadNumber   int       `json:"squad_number"`
	Capacity      int       `json:"capacity"`
	PriceInCents  int64     `json:"price_in_cents"`
	CoachID       *string   `json:"coach_id,omitempty"`
	MemberIDs     []string  `json:"member_ids"`
	ChatChannelID *string   `json:"chat_channel_id,omitempty"`
	IsAutoCreated bool      `json:"is_auto_created"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *Squad) HasRoom() bool {
	capacity := s.Capacity
	if capacity <= 0 {
		capacity = DefaultSquadCapacity
	}
	return len(s.MemberIDs) < capacity
}

type SquadMember struct {
	SquadID   string    `json:"squad_id"`
	OrgID     string    `json:"org_id"`
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	JoinedAt  time.Time `json:"joined_at"`
}
