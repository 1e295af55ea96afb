package models

import "time"

const (
	ProgramTypeGroup      = "group"
	ProgramTypeIndividual = "individual"
)

type Program struct {
	ID                   string     `json:"id"`
	OrgID                string     `json:"org_id"`
	Name                 string     `json:"name"`
	Type                 string     `json:"type"`
	PriceInCents         int64      `json:"price_in_cents"`
	Currency             string     `json:"currency"`
	LengthDays           int        `json:"length_days"`
	SquadCapacity        int        `json:"squad_capacity"`
	AssignedCoachIDs     []string   `json:"assigned_coach_ids"`
	CoachInSquads        bool       `json:"coach_in_squads"`
	IsSubscription       bool       `json:"is_subscription"`
	StripePriceID        *string    `json:"stripe_price_id,omitempty"`
	SubscriptionInterval *string    `json:"subscription_interval,omitempty"`
	DefaultStartDate     *time.Time `json:"default_start_date,omitempty"`
	AllowCustomStartDate bool       `json:"allow_custom_start_date"`
	Active               bool       `json:"active"`
	Published            bool       `json:"published"`
	CreatedAt            time.Time  `json:"created_at"`
}

func (p *Program) IsFree() bool {
	return p.PriceInCents <= 0
}

type ProgramCohort struct {
	ID                string    `json:"id"`
	ProgramID         string    `json:"program_id"`
	OrgID             string    `json:"org_id"`
	StartDate         time.Time `json:"start_date"`
	EnrollmentOpen    bool      `json:"enrollment_open"`
	MaxEnrollment     *int      `json:"max_enrollment,omitempty"`
	CurrentEnrollment int       `json:"current_enrollment"`
	CreatedAt         time.Time `json:"created_at"`
}
