package repository

import (
	"context"

	"github.com/sfoufcat/coachhub/internal/models"
)

type CoachingRepository struct {
	db DBTX
}

func NewCoachingRepository(db DBTX) *CoachingRepository {
	return &CoachingRepository{db: db}
}

// Upsert writes the denormalized coaching record. A repeat enrollment for the
// same (org, user) refreshes the cached display fields and coach/channel but
// leaves the working lists alone.
func (r *CoachingRepository) Upsert(ctx context.Context, data models.ClientCoachingData) (*models.ClientCoachingData, error) {
	query := `
		INSERT INTO client_coaching_data
			(org_id, user_id, coach_id, channel_id, coaching_plan, first_name, last_name, email,
			 focus_areas, action_items, session_history, resources, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (org_id, user_id)
		DO UPDATE SET coach_id = $3, channel_id = $4, first_name = $6, last_name = $7, email = $8, updated_at = NOW()
		RETURNING org_id, user_id, coach_id, channel_id, coaching_plan, first_name, last_name, email,
		          focus_areas, action_items, session_history, resources, notes, created_at, updated_at
	`

	var saved models.ClientCoachingData
	err := r.db.QueryRow(
		ctx,
		query,
		data.OrgID,
		data.UserID,
		data.CoachID,
		data.ChannelID,
		data.CoachingPlan,
		data.FirstName,
		data.LastName,
		data.Email,
		data.FocusAreas,
		data.ActionItems,
		data.SessionHistory,
		data.Resources,
		data.Notes,
	).Scan(
		&saved.OrgID,
		&saved.UserID,
		&saved.CoachID,
		&saved.ChannelID,
		&saved.CoachingPlan,
		&saved.FirstName,
		&saved.LastName,
		&saved.Email,
		&saved.FocusAreas,
		&saved.ActionItems,
		&saved.SessionHistory,
		&saved.Resources,
		&saved.Notes,
		&saved.CreatedAt,
		&saved.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *CoachingRepository) GetByUser(ctx context.Context, orgID string, userID string) (*models.ClientCoachingData, error) {
	query := `
		SELECT org_id, user_id, coach_id, channel_id, coaching_plan, first_name, last_name, email,
		       focus_areas, action_items, session_history, resources, notes, created_at, updated_at
		FROM client_coaching_data
		WHERE org_id = $1 AND user_id = $2
	`

	var data models.ClientCoachingData
	err := r.db.QueryRow(ctx, query, orgID, userID).Scan(
		&data.OrgID,
		&data.UserID,
		&data.CoachID,
		&data.ChannelID,
		&data.CoachingPlan,
		&data.FirstName,
		&data.LastName,
		&data.Email,
		&data.FocusAreas,
		&data.ActionItems,
		&data.SessionHistory,
		&data.Resources,
		&data.Notes,
		&data.CreatedAt,
		&data.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &data, nil
}
