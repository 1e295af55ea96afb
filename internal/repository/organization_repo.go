package repository

import (
	"context"

	"github.com/sfoufcat/coachhub/internal/models"
)

type OrganizationRepository struct {
	db DBTX
}

func NewOrganizationRepository(db DBTX) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) GetByID(ctx context.Context, orgID string) (*models.Organization, error) {
	query := `
		SELECT id, name, alumni_discount_enabled, alumni_discount_type, alumni_discount_value,
		       platform_fee_percent, stripe_account_id, client_community_squad_id, created_at
		FROM organizations
		WHERE id = $1
	`

	var org models.Organization
	err := r.db.QueryRow(ctx, query, orgID).Scan(
		&org.ID,
		&org.Name,
		&org.AlumniDiscountEnabled,
		&org.AlumniDiscountType,
		&org.AlumniDiscountValue,
		&org.PlatformFeePercent,
		&org.StripeAccountID,
		&org.ClientCommunitySquadID,
		&org.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &org, nil
}
