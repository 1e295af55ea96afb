package repository

import (
	"context"
	"errors"

	"github.com/sfoufcat/coachhub/internal/models"
)

// ErrCohortFull is returned when the guarded enrollment-counter increment
// finds the cohort already at its max enrollment.
var ErrCohortFull = errors.New("cohort is at max enrollment")

type CohortRepository struct {
	db DBTX
}

func NewCohortRepository(db DBTX) *CohortRepository {
	return &CohortRepository{db: db}
}

const cohortColumns = `
	id, program_id, org_id, start_date, enrollment_open, max_enrollment, current_enrollment, created_at
`

func (r *CohortRepository) GetByID(ctx context.Context, cohortID string) (*models.ProgramCohort, error) {
	query := `SELECT` + cohortColumns + `FROM program_cohorts WHERE id = $1`

	var cohort models.ProgramCohort
	err := r.db.QueryRow(ctx, query, cohortID).Scan(
		&cohort.ID,
		&cohort.ProgramID,
		&cohort.OrgID,
		&cohort.StartDate,
		&cohort.EnrollmentOpen,
		&cohort.MaxEnrollment,
		&cohort.CurrentEnrollment,
		&cohort.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cohort, nil
}

func (r *CohortRepository) ListByProgram(ctx context.Context, programID string) ([]models.ProgramCohort, error) {
	query := `
		SELECT` + cohortColumns + `
		FROM program_cohorts
		WHERE program_id = $1
		ORDER BY start_date ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cohorts := make([]models.ProgramCohort, 0)
	for rows.Next() {
		var cohort models.ProgramCohort
		if err := rows.Scan(
			&cohort.ID,
			&cohort.ProgramID,
			&cohort.OrgID,
			&cohort.StartDate,
			&cohort.EnrollmentOpen,
			&cohort.MaxEnrollment,
			&cohort.CurrentEnrollment,
			&cohort.CreatedAt,
		); err != nil {
			return nil, err
		}
		cohorts = append(cohorts, cohort)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cohorts, nil
}

// IncrementEnrollment bumps the cohort counter, refusing to exceed
// max_enrollment when one is set.
func (r *CohortRepository) IncrementEnrollment(ctx context.Context, cohortID string) error {
	query := `
		UPDATE program_cohorts
		SET current_enrollment = current_enrollment + 1
		WHERE id = $1
		  AND (max_enrollment IS NULL OR current_enrollment < max_enrollment)
	`
	tag, err := r.db.Exec(ctx, query, cohortID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCohortFull
	}
	return nil
}
