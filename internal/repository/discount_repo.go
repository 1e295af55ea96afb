package repository

import (
	"context"
	"errors"

	"github.com/sfoufcat/coachhub/internal/models"
)

// ErrDiscountExhausted is returned when the guarded use-count increment finds
// the code already at max_uses.
var ErrDiscountExhausted = errors.New("discount code has no remaining uses")

type DiscountRepository struct {
	db DBTX
}

func NewDiscountRepository(db DBTX) *DiscountRepository {
	return &DiscountRepository{db: db}
}

func (r *DiscountRepository) GetByCode(ctx context.Context, orgID string, code string) (*models.DiscountCode, error) {
	query := `
		SELECT id, org_id, code, type, value, max_uses, max_uses_per_user, applicable_to,
		       program_ids, squad_ids, starts_at, expires_at, active, use_count, created_at
		FROM discount_codes
		WHERE org_id = $1 AND code = $2
	`

	var discount models.DiscountCode
	err := r.db.QueryRow(ctx, query, orgID, code).Scan(
		&discount.ID,
		&discount.OrgID,
		&discount.Code,
		&discount.Type,
		&discount.Value,
		&discount.MaxUses,
		&discount.MaxUsesPerUser,
		&discount.ApplicableTo,
		&discount.ProgramIDs,
		&discount.SquadIDs,
		&discount.StartsAt,
		&discount.ExpiresAt,
		&discount.Active,
		&discount.UseCount,
		&discount.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

func (r *DiscountRepository) CountRedemptionsByUser(ctx context.Context, codeID string, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM discount_redemptions WHERE code_id = $1 AND user_id = $2`
	var count int
	if err := r.db.QueryRow(ctx, query, codeID, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// IncrementUseCount bumps use_count, refusing to exceed max_uses when one is
// set. Running it inside the enrollment transaction closes the historical
// over-redemption window between quote and finalize.
func (r *DiscountRepository) IncrementUseCount(ctx context.Context, codeID string) error {
	query := `
		UPDATE discount_codes
		SET use_count = use_count + 1
		WHERE id = $1
		  AND (max_uses IS NULL OR use_count < max_uses)
	`
	tag, err := r.db.Exec(ctx, query, codeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDiscountExhausted
	}
	return nil
}

func (r *DiscountRepository) InsertRedemption(ctx context.Context, redemption models.DiscountRedemption) error {
	query := `
		INSERT INTO discount_redemptions (id, org_id, code_id, user_id, enrollment_id, amount_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(
		ctx,
		query,
		redemption.ID,
		redemption.OrgID,
		redemption.CodeID,
		redemption.UserID,
		redemption.EnrollmentID,
		redemption.AmountCents,
	)
	return err
}
