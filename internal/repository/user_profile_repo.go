package repository

import (
	"context"

	"github.com/sfoufcat/coachhub/internal/models"
)

type UserProfileRepository struct {
	db DBTX
}

func NewUserProfileRepository(db DBTX) *UserProfileRepository {
	return &UserProfileRepository{db: db}
}

func (r *UserProfileRepository) GetByUser(ctx context.Context, orgID string, userID string) (*models.UserProfile, error) {
	query := `
		SELECT org_id, user_id, first_name, last_name, email, avatar_url,
		       is_alumni, is_coaching_client, created_at, updated_at
		FROM user_profiles
		WHERE org_id = $1 AND user_id = $2
	`

	var profile models.UserProfile
	err := r.db.QueryRow(ctx, query, orgID, userID).Scan(
		&profile.OrgID,
		&profile.UserID,
		&profile.FirstName,
		&profile.LastName,
		&profile.Email,
		&profile.AvatarURL,
		&profile.IsAlumni,
		&profile.IsCoachingClient,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// MarkCoachingClient flips the top-level coaching flag, creating the profile
// row if the user has never been cached locally.
func (r *UserProfileRepository) MarkCoachingClient(ctx context.Context, orgID string, userID string, email string) error {
	query := `
		INSERT INTO user_profiles (org_id, user_id, email, is_coaching_client)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (org_id, user_id)
		DO UPDATE SET is_coaching_client = TRUE, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, orgID, userID, email)
	return err
}
