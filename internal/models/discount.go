package models

import "time"

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

const (
	DiscountApplicableToAll      = "all"
	DiscountApplicableToPrograms = "programs"
	DiscountApplicableToSquads   = "squads"
)

// AlumniDiscountCode is the reserved code for the implicit alumni discount.
// It is never stored in discount_codes; eligibility comes from org settings
// and the user's alumni flag.
const AlumniDiscountCode = "ALUMNI"

type DiscountCode struct {
	ID             string     `json:"id"`
	OrgID          string     `json:"org_id"`
	Code           string     `json:"code"`
	Type           string     `json:"type"`
	Value          int64      `json:"value"`
	MaxUses        *int       `json:"max_uses,omitempty"`
	MaxUsesPerUser *int       `json:"max_uses_per_user,omitempty"`
	ApplicableTo   string     `json:"applicable_to"`
	ProgramIDs     []string   `json:"program_ids"`
	SquadIDs       []string   `json:"squad_ids"`
	StartsAt       *time.Time `json:"starts_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	Active         bool       `json:"active"`
	UseCount       int        `json:"use_count"`
	CreatedAt      time.Time  `json:"created_at"`
}

type DiscountQuote struct {
	Valid               bool          `json:"valid"`
	DiscountAmountCents int64         `json:"discount_amount_cents"`
	FinalAmountCents    int64         `json:"final_amount_cents"`
	Code                *DiscountCode `json:"discount_code,omitempty"`
}

type DiscountRedemption struct {
	ID           string    `json:"id"`
	OrgID        string    `json:"org_id"`
	CodeID       string    `json:"code_id"`
	UserID       string    `json:"user_id"`
	EnrollmentID *string   `json:"enrollment_id,omitempty"`
	AmountCents  int64     `json:"amount_cents"`
	CreatedAt    time.Time `json:"created_at"`
}
