package repository

import (
	"context"

	"github.com/sfoufcat/coachhub/internal/models"
)

type MemberRepository struct {
	db DBTX
}

func NewMemberRepository(db DBTX) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) GetMember(ctx context.Context, orgID string, userID string) (*models.OrgMember, error) {
	query := `
		SELECT org_id, user_id, role, is_coaching_client, coach_id, coaching_channel_id, created_at, updated_at
		FROM org_members
		WHERE org_id = $1 AND user_id = $2
	`

	var member models.OrgMember
	err := r.db.QueryRow(ctx, query, orgID, userID).Scan(
		&member.OrgID,
		&member.UserID,
		&member.Role,
		&member.IsCoachingClient,
		&member.CoachID,
		&member.CoachingChannelID,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// UpsertCoachingMirror mirrors the coaching relationship fields into the
// per-organization membership record, tolerating a missing row.
func (r *MemberRepository) UpsertCoachingMirror(ctx context.Context, orgID string, userID string, coachID string, channelID string) error {
	query := `
		INSERT INTO org_members (org_id, user_id, role, is_coaching_client, coach_id, coaching_channel_id)
		VALUES ($1, $2, $3, TRUE, $4, $5)
		ON CONFLICT (org_id, user_id)
		DO UPDATE SET is_coaching_client = TRUE, coach_id = $4, coaching_channel_id = $5, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, orgID, userID, models.RoleMember, coachID, channelID)
	return err
}
