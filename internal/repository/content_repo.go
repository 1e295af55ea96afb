package repository

import (
	"context"

	"github.com/sfoufcat/coachhub/internal/models"
)

type ContentRepository struct {
	db DBTX
}

func NewContentRepository(db DBTX) *ContentRepository {
	return &ContentRepository{db: db}
}

const contentColumns = `id, org_id, type, title, price_in_cents, program_ids, created_at`

func (r *ContentRepository) GetByID(ctx context.Context, contentID string) (*models.ContentItem, error) {
	query := `SELECT ` + contentColumns + ` FROM content_items WHERE id = $1`

	var item models.ContentItem
	err := r.db.QueryRow(ctx, query, contentID).Scan(
		&item.ID,
		&item.OrgID,
		&item.Type,
		&item.Title,
		&item.PriceInCents,
		&item.ProgramIDs,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListPricedByProgram returns priced content tagged as included in the
// program, the candidates for a post-enrollment auto-grant.
func (r *ContentRepository) ListPricedByProgram(ctx context.Context, orgID string, programID string) ([]models.ContentItem, error) {
	query := `
		SELECT ` + contentColumns + `
		FROM content_items
		WHERE org_id = $1 AND price_in_cents > 0 AND $2 = ANY(program_ids)
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, orgID, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.ContentItem, 0)
	for rows.Next() {
		var item models.ContentItem
		if err := rows.Scan(
			&item.ID,
			&item.OrgID,
			&item.Type,
			&item.Title,
			&item.PriceInCents,
			&item.ProgramIDs,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *ContentRepository) HasPurchase(ctx context.Context, userID string, contentID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM content_purchases WHERE user_id = $1 AND content_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, contentID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ContentRepository) InsertPurchase(ctx context.Context, purchase models.ContentPurchase) error {
	query := `
		INSERT INTO content_purchases (id, org_id, user_id, content_id, source)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, content_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, purchase.ID, purchase.OrgID, purchase.UserID, purchase.ContentID, purchase.Source)
	return err
}
