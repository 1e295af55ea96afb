package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sfoufcat/coachhub/internal/models"
	"github.com/sfoufcat/coachhub/internal/repository"
	"go.uber.org/zap"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

type staticDirectory struct {
	adminID string
	members []Membership
}

func (d *staticDirectory) GetOrgAdmin(_ context.Context, _ string) (string, error) {
	return d.adminID, nil
}

func (d *staticDirectory) GetMembers(_ context.Context, _ string) ([]Membership, error) {
	return d.members, nil
}

func (d *staticDirectory) UpdateUserMetadata(_ context.Context, _ string, _ map[string]any) error {
	return nil
}

func TestEnrollFreeGroupProgramFlow(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationEnrollmentService(pool)

	seed := seedGroupProgram(t, ctx, pool, time.Now().AddDate(0, 0, 14))
	t.Cleanup(func() { cleanupOrg(t, ctx, pool, seed.orgID) })

	result, err := service.Enroll(ctx, EnrollInput{
		OrgID:     seed.orgID,
		UserID:    seed.userID,
		ProgramID: seed.programID,
		CohortID:  seed.cohortID,
	})
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if result.Checkout != nil {
		t.Fatalf("free program should not require payment, got %+v", result.Checkout)
	}

	enrollment := result.Enrollment
	if enrollment.Status != models.EnrollmentStatusUpcoming {
		t.Fatalf("expected upcoming enrollment for future cohort, got %q", enrollment.Status)
	}
	if enrollment.SquadID == nil {
		t.Fatal("expected squad assignment for group program")
	}

	squad, err := repository.NewSquadRepository(pool).GetByID(ctx, *enrollment.SquadID)
	if err != nil {
		t.Fatalf("GetByID squad: %v", err)
	}
	if squad.SquadNumber != 1 {
		t.Fatalf("expected first auto-created squad, got number %d", squad.SquadNumber)
	}
	if len(squad.MemberIDs) != 1 || squad.MemberIDs[0] != seed.userID {
		t.Fatalf("expected user in squad, got %v", squad.MemberIDs)
	}

	cohort, err := repository.NewCohortRepository(pool).GetByID(ctx, seed.cohortID)
	if err != nil {
		t.Fatalf("GetByID cohort: %v", err)
	}
	if cohort.CurrentEnrollment != 1 {
		t.Fatalf("expected cohort counter 1, got %d", cohort.CurrentEnrollment)
	}

	var pendingJobs int
	err = pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox_jobs WHERE org_id = $1 AND status = 'pending'`,
		seed.orgID,
	).Scan(&pendingJobs)
	if err != nil {
		t.Fatalf("count outbox jobs: %v", err)
	}
	if pendingJobs == 0 {
		t.Fatal("expected a pending follow-up job after enrollment")
	}

	_, err = service.Enroll(ctx, EnrollInput{
		OrgID:     seed.orgID,
		UserID:    seed.userID,
		ProgramID: seed.programID,
		CohortID:  seed.cohortID,
	})
	if !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("expected ErrAlreadyEnrolled on repeat enroll, got %v", err)
	}
}

func TestEnrollRespectsCohortCapacity(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationEnrollmentService(pool)

	seed := seedGroupProgram(t, ctx, pool, time.Now().AddDate(0, 0, 14))
	t.Cleanup(func() { cleanupOrg(t, ctx, pool, seed.orgID) })

	if _, err := pool.Exec(ctx,
		`UPDATE program_cohorts SET max_enrollment = 1 WHERE id = $1`,
		seed.cohortID,
	); err != nil {
		t.Fatalf("set max enrollment: %v", err)
	}

	if _, err := service.Enroll(ctx, EnrollInput{
		OrgID:     seed.orgID,
		UserID:    seed.userID,
		ProgramID: seed.programID,
		CohortID:  seed.cohortID,
	}); err != nil {
		t.Fatalf("first Enroll: %v", err)
	}

	otherUserID := seed.userID + "-b"
	_, err := service.Enroll(ctx, EnrollInput{
		OrgID:     seed.orgID,
		UserID:    otherUserID,
		ProgramID: seed.programID,
		CohortID:  seed.cohortID,
	})
	if !errors.Is(err, ErrCohortFull) {
		t.Fatalf("expected ErrCohortFull, got %v", err)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func newIntegrationEnrollmentService(pool *pgxpool.Pool) *EnrollmentService {
	logger := zap.NewNop()
	directory := &staticDirectory{}
	chat := &stubChatService{}

	squadRepo := repository.NewSquadRepository(pool)
	discountRepo := repository.NewDiscountRepository(pool)
	profileRepo := repository.NewUserProfileRepository(pool)

	return NewEnrollmentService(
		pool,
		repository.NewOrganizationRepository(pool),
		repository.NewProgramRepository(pool),
		repository.NewCohortRepository(pool),
		repository.NewEnrollmentRepository(pool),
		profileRepo,
		discountRepo,
		NewSquadService(pool, squadRepo, directory, chat, logger),
		NewCoachingService(pool, directory, chat, logger),
		NewDiscountService(discountRepo, profileRepo),
		nil,
		logger,
	)
}

type groupProgramSeed struct {
	orgID     string
	userID    string
	programID string
	cohortID  string
}

func seedGroupProgram(t *testing.T, ctx context.Context, pool *pgxpool.Pool, cohortStart time.Time) groupProgramSeed {
	t.Helper()

	suffix := time.Now().UnixNano()
	seed := groupProgramSeed{
		orgID:     fmt.Sprintf("it-org-%d", suffix),
		userID:    fmt.Sprintf("it-user-%d", suffix),
		programID: fmt.Sprintf("it-prog-%d", suffix),
		cohortID:  fmt.Sprintf("it-cohort-%d", suffix),
	}

	if _, err := pool.Exec(ctx,
		`INSERT INTO organizations (id, name) VALUES ($1, $2)`,
		seed.orgID, "Integration Test Org",
	); err != nil {
		t.Fatalf("insert organization: %v", err)
	}

	if _, err := pool.Exec(ctx,
		`INSERT INTO user_profiles (org_id, user_id, first_name, last_name, email)
		 VALUES ($1, $2, 'Test', 'Member', $3)`,
		seed.orgID, seed.userID, fmt.Sprintf("%s@example.com", seed.userID),
	); err != nil {
		t.Fatalf("insert user profile: %v", err)
	}

	if _, err := pool.Exec(ctx,
		`INSERT INTO programs (id, org_id, name, type, price_in_cents, length_days, squad_capacity, active, published)
		 VALUES ($1, $2, 'Group Kickstart', 'group', 0, 30, 10, TRUE, TRUE)`,
		seed.programID, seed.orgID,
	); err != nil {
		t.Fatalf("insert program: %v", err)
	}

	if _, err := pool.Exec(ctx,
		`INSERT INTO program_cohorts (id, program_id, org_id, start_date, enrollment_open)
		 VALUES ($1, $2, $3, $4, TRUE)`,
		seed.cohortID, seed.programID, seed.orgID, cohortStart,
	); err != nil {
		t.Fatalf("insert cohort: %v", err)
	}

	return seed
}

func cleanupOrg(t *testing.T, ctx context.Context, pool *pgxpool.Pool, orgID string) {
	t.Helper()

	statements := []string{
		`DELETE FROM outbox_jobs WHERE org_id = $1`,
		`DELETE FROM content_purchases WHERE org_id = $1`,
		`DELETE FROM program_enrollments WHERE org_id = $1`,
		`DELETE FROM squad_members WHERE org_id = $1`,
		`DELETE FROM squads WHERE org_id = $1`,
		`DELETE FROM program_cohorts WHERE org_id = $1`,
		`DELETE FROM programs WHERE org_id = $1`,
		`DELETE FROM user_profiles WHERE org_id = $1`,
		`DELETE FROM organizations WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt, orgID); err != nil {
			t.Errorf("cleanup %q: %v", stmt, err)
		}
	}
}
