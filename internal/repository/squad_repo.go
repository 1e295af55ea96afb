package repository

import (
	"context"

	"github.com/sfoufcat/coachhub/internal/models"
)

type CreateSquadInput struct {
	ID            string
	OrgID         string
	CohortID      string
	ProgramID     string
	Name          string
	SquadNumber   int
	Capacity      int
	CoachID       *string
	IsAutoCreated bool
}

type SquadRepository struct {
	db DBTX
}

func NewSquadRepository(db DBTX) *SquadRepository {
	return &SquadRepository{db: db}
}

const squadColumns = `
	id, org_id, cohort_id, program_id, name, squad_number, capacity, price_in_cents,
	coach_id, member_ids, chat_channel_id, is_auto_created, created_at
`

func (r *SquadRepository) GetByID(ctx context.Context, squadID string) (*models.Squad, error) {
	query := `SELECT` + squadColumns + `FROM squads WHERE id = $1`
	return r.scanSquad(r.db.QueryRow(ctx, query, squadID))
}

func (r *SquadRepository) ListByCohort(ctx context.Context, cohortID string) ([]models.Squad, error) {
	query := `
		SELECT` + squadColumns + `
		FROM squads
		WHERE cohort_id = $1
		ORDER BY squad_number ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, cohortID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	squads := make([]models.Squad, 0)
	for rows.Next() {
		var squad models.Squad
		if err := rows.Scan(
			&squad.ID,
			&squad.OrgID,
			&squad.CohortID,
			&squad.ProgramID,
			&squad.Name,
			&squad.SquadNumber,
			&squad.Capacity,
			&squad.PriceInCents,
			&squad.CoachID,
			&squad.MemberIDs,
			&squad.ChatChannelID,
			&squad.IsAutoCreated,
			&squad.CreatedAt,
		); err != nil {
			return nil, err
		}
		squads = append(squads, squad)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return squads, nil
}

func (r *SquadRepository) Create(ctx context.Context, input CreateSquadInput) (*models.Squad, error) {
	query := `
		INSERT INTO squads (id, org_id, cohort_id, program_id, name, squad_number, capacity, coach_id, is_auto_created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING` + squadColumns

	return r.scanSquad(r.db.QueryRow(
		ctx,
		query,
		input.ID,
		input.OrgID,
		input.CohortID,
		input.ProgramID,
		input.Name,
		input.SquadNumber,
		input.Capacity,
		input.CoachID,
		input.IsAutoCreated,
	))
}

// AddMemberID appends the user to member_ids with set semantics: a second
// add of the same user leaves the array unchanged.
func (r *SquadRepository) AddMemberID(ctx context.Context, squadID string, userID string) error {
	query := `
		UPDATE squads
		SET member_ids = array_append(member_ids, $2)
		WHERE id = $1 AND NOT ($2 = ANY(member_ids))
	`
	_, err := r.db.Exec(ctx, query, squadID, userID)
	return err
}

func (r *SquadRepository) SetChatChannel(ctx context.Context, squadID string, channelID string) error {
	query := `UPDATE squads SET chat_channel_id = $2 WHERE id = $1`
	_, err := r.db.Exec(ctx, query, squadID, channelID)
	return err
}

func (r *SquadRepository) HasSquadMember(ctx context.Context, squadID string, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM squad_members WHERE squad_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, squadID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *SquadRepository) InsertSquadMember(ctx context.Context, member models.SquadMember) error {
	query := `
		INSERT INTO squad_members (squad_id, org_id, user_id, first_name, last_name, email)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (squad_id, user_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, member.SquadID, member.OrgID, member.UserID, member.FirstName, member.LastName, member.Email)
	return err
}

func (r *SquadRepository) scanSquad(row interface{ Scan(dest ...any) error }) (*models.Squad, error) {
	var squad models.Squad
	err := row.Scan(
		&squad.ID,
		&squad.OrgID,
		&squad.CohortID,
		&squad.ProgramID,
		&squad.Name,
		&squad.SquadNumber,
		&squad.Capacity,
		&squad.PriceInCents,
		&squad.CoachID,
		&squad.MemberIDs,
		&squad.ChatChannelID,
		&squad.IsAutoCreated,
		&squad.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &squad, nil
}
