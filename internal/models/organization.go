package models

import "time"

type Organization struct {
	ID                     string    `json:"id"`
	Name                   string    `json:"name"`
	AlumniDiscountEnabled  bool      `json:"alumni_discount_enabled"`
	AlumniDiscountType     string    `json:"alumni_discount_type"`
	AlumniDiscountValue    int64     `json:"alumni_discount_value"`
	PlatformFeePercent     float64   `json:"platform_fee_percent"`
	StripeAccountID        *string   `json:"stripe_account_id,omitempty"`
	ClientCommunitySquadID *string   `json:"client_community_squad_id,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
}
