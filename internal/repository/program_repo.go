package repository

import (
	"context"

	"github.com/sfoufcat/coachhub/internal/models"
)

type ProgramRepository struct {
	db DBTX
}

func NewProgramRepository(db DBTX) *ProgramRepository {
	return &ProgramRepository{db: db}
}

const programColumns = `
	id, org_id, name, type, price_in_cents, currency, length_days, squad_capacity,
	assigned_coach_ids, coach_in_squads, is_subscription, stripe_price_id,
	subscription_interval, default_start_date, allow_custom_start_date,
	active, published, created_at
`

func (r *ProgramRepository) GetByID(ctx context.Context, programID string) (*models.Program, error) {
	query := `SELECT` + programColumns + `FROM programs WHERE id = $1`
	return r.scanProgram(r.db.QueryRow(ctx, query, programID))
}

func (r *ProgramRepository) ListPublished(ctx context.Context, orgID string, limit int, offset int) ([]models.Program, int, error) {
	countQuery := `SELECT COUNT(*) FROM programs WHERE org_id = $1 AND published`
	var total int
	if err := r.db.QueryRow(ctx, countQuery, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT` + programColumns + `
		FROM programs
		WHERE org_id = $1 AND published
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	programs := make([]models.Program, 0)
	for rows.Next() {
		var program models.Program
		if err := rows.Scan(
			&program.ID,
			&program.OrgID,
			&program.Name,
			&program.Type,
			&program.PriceInCents,
			&program.Currency,
			&program.LengthDays,
			&program.SquadCapacity,
			&program.AssignedCoachIDs,
			&program.CoachInSquads,
			&program.IsSubscription,
			&program.StripePriceID,
			&program.SubscriptionInterval,
			&program.DefaultStartDate,
			&program.AllowCustomStartDate,
			&program.Active,
			&program.Published,
			&program.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		programs = append(programs, program)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return programs, total, nil
}

func (r *ProgramRepository) scanProgram(row interface{ Scan(dest ...any) error }) (*models.Program, error) {
	var program models.Program
	err := row.Scan(
		&program.ID,
		&program.OrgID,
		&program.Name,
		&program.Type,
		&program.PriceInCents,
		&program.Currency,
		&program.LengthDays,
		&program.SquadCapacity,
		&program.AssignedCoachIDs,
		&program.CoachInSquads,
		&program.IsSubscription,
		&program.StripePriceID,
		&program.SubscriptionInterval,
		&program.DefaultStartDate,
		&program.AllowCustomStartDate,
		&program.Active,
		&program.Published,
		&program.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &program, nil
}
