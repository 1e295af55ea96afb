package repository

import (
	"context"
	"time"

	"github.com/sfoufcat/coachhub/internal/models"
)

type CreateEnrollmentInput struct {
	ID         string
	OrgID      string
	UserID     string
	ProgramID  string
	CohortID   *string
	SquadID    *string
	Status     string
	StartedAt  time.Time
	AmountPaid int64
}

type EnrollmentRepository struct {
	db DBTX
}

func NewEnrollmentRepository(db DBTX) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `
	id, org_id, user_id, program_id, cohort_id, squad_id, status, started_at,
	amount_paid, last_assigned_day_index, created_at
`

func (r *EnrollmentRepository) Create(ctx context.Context, input CreateEnrollmentInput) (*models.ProgramEnrollment, error) {
	query := `
		INSERT INTO program_enrollments (id, org_id, user_id, program_id, cohort_id, squad_id, status, started_at, amount_paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING` + enrollmentColumns

	return r.scanEnrollment(r.db.QueryRow(
		ctx,
		query,
		input.ID,
		input.OrgID,
		input.UserID,
		input.ProgramID,
		input.CohortID,
		input.SquadID,
		input.Status,
		input.StartedAt,
		input.AmountPaid,
	))
}

func (r *EnrollmentRepository) GetByID(ctx context.Context, enrollmentID string) (*models.ProgramEnrollment, error) {
	query := `SELECT` + enrollmentColumns + `FROM program_enrollments WHERE id = $1`
	return r.scanEnrollment(r.db.QueryRow(ctx, query, enrollmentID))
}

// ListOngoingByUser returns the user's active and upcoming enrollments within
// the organization.
func (r *EnrollmentRepository) ListOngoingByUser(ctx context.Context, orgID string, userID string) ([]models.ProgramEnrollment, error) {
	query := `
		SELECT` + enrollmentColumns + `
		FROM program_enrollments
		WHERE org_id = $1 AND user_id = $2 AND status IN ('active', 'upcoming')
		ORDER BY started_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, orgID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	enrollments := make([]models.ProgramEnrollment, 0)
	for rows.Next() {
		var enrollment models.ProgramEnrollment
		if err := rows.Scan(
			&enrollment.ID,
			&enrollment.OrgID,
			&enrollment.UserID,
			&enrollment.ProgramID,
			&enrollment.CohortID,
			&enrollment.SquadID,
			&enrollment.Status,
			&enrollment.StartedAt,
			&enrollment.AmountPaid,
			&enrollment.LastAssignedDayIndex,
			&enrollment.CreatedAt,
		); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, enrollment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return enrollments, nil
}

// ActivateDue flips upcoming enrollments whose start date has arrived to
// active, returning how many were promoted.
func (r *EnrollmentRepository) ActivateDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE program_enrollments
		SET status = 'active'
		WHERE status = 'upcoming' AND started_at <= $1
	`
	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *EnrollmentRepository) scanEnrollment(row interface{ Scan(dest ...any) error }) (*models.ProgramEnrollment, error) {
	var enrollment models.ProgramEnrollment
	err := row.Scan(
		&enrollment.ID,
		&enrollment.OrgID,
		&enrollment.UserID,
		&enrollment.ProgramID,
		&enrollment.CohortID,
		&enrollment.SquadID,
		&enrollment.Status,
		&enrollment.StartedAt,
		&enrollment.AmountPaid,
		&enrollment.LastAssignedDayIndex,
		&enrollment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}
