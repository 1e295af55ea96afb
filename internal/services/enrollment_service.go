package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sfoufcat/coachhub/internal/models"
	"github.com/sfoufcat/coachhub/internal/repository"
	"go.uber.org/zap"
)

type orgReader interface {
	GetByID(ctx context.Context, orgID string) (*models.Organization, error)
}

type cohortReader interface {
	GetByID(ctx context.Context, cohortID string) (*models.ProgramCohort, error)
}

type enrollmentLister interface {
	ListOngoingByUser(ctx context.Context, orgID string, userID string) ([]models.ProgramEnrollment, error)
}

type squadAllocator interface {
	FindOrCreateSquad(ctx context.Context, program *models.Program, cohort *models.ProgramCohort) (*models.Squad, error)
	AddUserToSquad(ctx context.Context, userID string, squadID string, profile *models.UserProfile) error
}

type coachingBuilder interface {
	CreateRelationship(ctx context.Context, orgID string, userID string, profile *models.UserProfile) (*models.ClientCoachingData, error)
}

type discountQuoter interface {
	Evaluate(ctx context.Context, input EvaluateDiscountInput) (*models.DiscountQuote, error)
	RecordRedemption(ctx context.Context, db repository.DBTX, code *models.DiscountCode, userID string, enrollmentID string, amountCents int64) error
}

type checkoutBuilder interface {
	Build(ctx context.Context, input BuildCheckoutInput) (*CheckoutIntent, error)
	GetSession(ctx context.Context, org *models.Organization, sessionID string) (*CheckoutSession, error)
}

type EnrollmentService struct {
	db             txBeginner
	orgRepo        orgReader
	programRepo    programLookup
	cohortRepo     cohortReader
	enrollmentRepo enrollmentLister
	profileRepo    profileReader
	discountRepo   discountStore
	squads         squadAllocator
	coaching       coachingBuilder
	discounts      discountQuoter
	checkout       checkoutBuilder
	logger         *zap.Logger
}

func NewEnrollmentService(
	db txBeginner,
	orgRepo *repository.OrganizationRepository,
	programRepo *repository.ProgramRepository,
	cohortRepo *repository.CohortRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	profileRepo *repository.UserProfileRepository,
	discountRepo *repository.DiscountRepository,
	squads *SquadService,
	coaching *CoachingService,
	discounts *DiscountService,
	checkout *CheckoutService,
	logger *zap.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		db:             db,
		orgRepo:        orgRepo,
		programRepo:    programRepo,
		cohortRepo:     cohortRepo,
		enrollmentRepo: enrollmentRepo,
		profileRepo:    profileRepo,
		discountRepo:   discountRepo,
		squads:         squads,
		coaching:       coaching,
		discounts:      discounts,
		checkout:       checkout,
		logger:         logger,
	}
}

type EnrollInput struct {
	OrgID         string
	UserID        string
	ProgramID     string
	CohortID      string
	DiscountCode  string
	JoinCommunity bool
	StartDate     *time.Time
	OrderBumps    []OrderBump
}

type EnrollResult struct {
	Enrollment *models.ProgramEnrollment
	Checkout   *CheckoutIntent
}

// Enroll runs the full enrollment workflow: validate the program and cohort,
// quote the discount, reject conflicting enrollments, then either create the
// enrollment immediately (free or fully discounted) or hand back a checkout
// session for the paid path.
func (s *EnrollmentService) Enroll(ctx context.Context, input EnrollInput) (*EnrollResult, error) {
	if input.OrgID == "" || input.UserID == "" || input.ProgramID == "" {
		return nil, ErrInvalidInput
	}

	program, err := s.programRepo.GetByID(ctx, input.ProgramID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	if program.OrgID != input.OrgID {
		return nil, ErrForbidden
	}
	if !program.Active || !program.Published {
		return nil, ErrProgramInactive
	}

	var cohort *models.ProgramCohort
	if program.Type == models.ProgramTypeGroup {
		if input.CohortID == "" {
			return nil, ErrCohortNotFound
		}
		cohort, err = s.cohortRepo.GetByID(ctx, input.CohortID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrCohortNotFound
			}
			return nil, err
		}
		if cohort.ProgramID != program.ID || cohort.OrgID != input.OrgID {
			return nil, ErrCohortNotFound
		}
		if !cohort.EnrollmentOpen {
			return nil, ErrCohortClosed
		}
		if cohort.MaxEnrollment != nil && cohort.CurrentEnrollment >= *cohort.MaxEnrollment {
			return nil, ErrCohortFull
		}
	}

	if input.StartDate != nil && !program.AllowCustomStartDate {
		return nil, ErrInvalidStartDate
	}

	org, err := s.orgRepo.GetByID(ctx, input.OrgID)
	if err != nil {
		return nil, err
	}

	profile := s.loadProfile(ctx, input.OrgID, input.UserID)

	startedAt, status := deriveStartAndStatus(program, cohort, input.StartDate, time.Now())
	if err := s.checkConflicts(ctx, s.enrollmentRepo, input.OrgID, input.UserID, program, startedAt); err != nil {
		return nil, err
	}

	quote := &models.DiscountQuote{FinalAmountCents: program.PriceInCents}
	if !program.IsFree() {
		quote, err = s.discounts.Evaluate(ctx, EvaluateDiscountInput{
			OrgID:               input.OrgID,
			UserID:              input.UserID,
			Code:                input.DiscountCode,
			ProductType:         "program",
			ProductID:           program.ID,
			OriginalAmountCents: program.PriceInCents,
			Org:                 org,
		})
		if err != nil {
			return nil, err
		}
	}

	if program.IsFree() || quote.FinalAmountCents <= 0 {
		enrollment, err := s.createEnrollment(ctx, createEnrollmentParams{
			org:           org,
			program:       program,
			cohort:        cohort,
			userID:        input.UserID,
			profile:       profile,
			startedAt:     startedAt,
			status:        status,
			amountPaid:    0,
			quote:         quote,
			joinCommunity: input.JoinCommunity,
		})
		if err != nil {
			return nil, err
		}
		return &EnrollResult{Enrollment: enrollment}, nil
	}

	intent, err := s.checkout.Build(ctx, BuildCheckoutInput{
		Org:           org,
		Program:       program,
		Cohort:        cohort,
		Profile:       profile,
		UserID:        input.UserID,
		Quote:         quote,
		OrderBumps:    input.OrderBumps,
		JoinCommunity: input.JoinCommunity,
		StartDate:     input.StartDate,
	})
	if err != nil {
		return nil, err
	}
	return &EnrollResult{Checkout: intent}, nil
}

// FinalizeCheckout reconstructs and persists an enrollment from a completed
// checkout session's metadata. It is idempotent: re-delivery of the same
// session returns the existing enrollment.
func (s *EnrollmentService) FinalizeCheckout(ctx context.Context, orgID string, sessionID string) (*models.ProgramEnrollment, error) {
	if orgID == "" || sessionID == "" {
		return nil, ErrInvalidInput
	}

	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	session, err := s.checkout.GetSession(ctx, org, sessionID)
	if err != nil {
		return nil, err
	}
	if session.PaymentStatus != "paid" {
		return nil, ErrInvalidInput
	}

	meta := session.Metadata
	userID := meta["userId"]
	programID := meta["programId"]
	if userID == "" || programID == "" || meta["orgId"] != orgID {
		return nil, ErrInvalidInput
	}

	existing, err := s.enrollmentRepo.ListOngoingByUser(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if existing[i].ProgramID == programID {
			return &existing[i], nil
		}
	}

	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		return nil, err
	}

	var cohort *models.ProgramCohort
	if cohortID := meta["cohortId"]; cohortID != "" {
		cohort, err = s.cohortRepo.GetByID(ctx, cohortID)
		if err != nil {
			return nil, err
		}
	}

	var startDate *time.Time
	if raw := meta["startDate"]; raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, ErrInvalidStartDate
		}
		startDate = &parsed
	}

	amountPaid, err := strconv.ParseInt(meta["finalAmountCents"], 10, 64)
	if err != nil {
		return nil, ErrInvalidInput
	}
	quote := &models.DiscountQuote{FinalAmountCents: amountPaid}
	if codeID := meta["discountCode"]; codeID != "" {
		code, err := s.discountRepo.GetByCode(ctx, orgID, codeID)
		if err == nil {
			discountAmount, parseErr := strconv.ParseInt(meta["discountAmountCents"], 10, 64)
			if parseErr != nil {
				return nil, ErrInvalidInput
			}
			quote.Valid = true
			quote.Code = code
			quote.DiscountAmountCents = discountAmount
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}

	profile := s.loadProfile(ctx, orgID, userID)
	startedAt, status := deriveStartAndStatus(program, cohort, startDate, time.Now())

	return s.createEnrollment(ctx, createEnrollmentParams{
		org:           org,
		program:       program,
		cohort:        cohort,
		userID:        userID,
		profile:       profile,
		startedAt:     startedAt,
		status:        status,
		amountPaid:    amountPaid,
		quote:         quote,
		joinCommunity: meta["joinCommunity"] == "true",
	})
}

type createEnrollmentParams struct {
	org           *models.Organization
	program       *models.Program
	cohort        *models.ProgramCohort
	userID        string
	profile       *models.UserProfile
	startedAt     time.Time
	status        string
	amountPaid    int64
	quote         *models.DiscountQuote
	joinCommunity bool
}

// createEnrollment persists the enrollment row, the cohort counter bump, the
// discount redemption, and the outbox jobs in one transaction under a
// per-user advisory lock, so concurrent requests for the same user cannot
// slip past the conflict check.
func (s *EnrollmentService) createEnrollment(ctx context.Context, params createEnrollmentParams) (*models.ProgramEnrollment, error) {
	program := params.program

	var squadID *string
	if program.Type == models.ProgramTypeGroup {
		squad, err := s.squads.FindOrCreateSquad(ctx, program, params.cohort)
		if err != nil {
			return nil, err
		}
		if err := s.squads.AddUserToSquad(ctx, params.userID, squad.ID, params.profile); err != nil {
			return nil, err
		}
		squadID = &squad.ID
	}

	if program.Type == models.ProgramTypeIndividual {
		if _, err := s.coaching.CreateRelationship(ctx, params.org.ID, params.userID, params.profile); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", params.userID); err != nil {
		return nil, err
	}

	// Re-check under the lock: a concurrent enrollment may have landed
	// between the early check and now.
	if err := s.checkConflicts(ctx, repository.NewEnrollmentRepository(tx), params.org.ID, params.userID, program, params.startedAt); err != nil {
		return nil, err
	}

	var cohortID *string
	if params.cohort != nil {
		cohortID = &params.cohort.ID
		if err := repository.NewCohortRepository(tx).IncrementEnrollment(ctx, params.cohort.ID); err != nil {
			if errors.Is(err, repository.ErrCohortFull) {
				return nil, ErrCohortFull
			}
			return nil, err
		}
	}

	enrollment, err := repository.NewEnrollmentRepository(tx).Create(ctx, repository.CreateEnrollmentInput{
		ID:         uuid.NewString(),
		OrgID:      params.org.ID,
		UserID:     params.userID,
		ProgramID:  program.ID,
		CohortID:   cohortID,
		SquadID:    squadID,
		Status:     params.status,
		StartedAt:  params.startedAt,
		AmountPaid: params.amountPaid,
	})
	if err != nil {
		return nil, err
	}

	if params.quote != nil && params.quote.Valid && params.quote.Code != nil {
		if err := s.discounts.RecordRedemption(ctx, tx, params.quote.Code, params.userID, enrollment.ID, params.quote.DiscountAmountCents); err != nil {
			return nil, err
		}
	}

	if err := s.enqueueFollowUps(ctx, tx, enrollment); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if program.Type == models.ProgramTypeIndividual && params.joinCommunity {
		s.joinClientCommunity(ctx, params.org, params.userID, params.profile)
	}

	return enrollment, nil
}

// enqueueFollowUps writes the best-effort side effects as outbox jobs in the
// enrollment transaction: content auto-grant always, task sync only for
// enrollments that are already active.
func (s *EnrollmentService) enqueueFollowUps(ctx context.Context, tx pgx.Tx, enrollment *models.ProgramEnrollment) error {
	txOutboxRepo := repository.NewOutboxRepository(tx)

	payload, err := json.Marshal(models.EnrollmentJobPayload{
		UserID:       enrollment.UserID,
		ProgramID:    enrollment.ProgramID,
		EnrollmentID: enrollment.ID,
	})
	if err != nil {
		return err
	}
	if err := txOutboxRepo.Insert(ctx, uuid.NewString(), enrollment.OrgID, models.OutboxJobContentGrant, payload); err != nil {
		return err
	}

	if enrollment.Status != models.EnrollmentStatusActive {
		return nil
	}
	payload, err = json.Marshal(models.EnrollmentJobPayload{
		UserID:       enrollment.UserID,
		ProgramID:    enrollment.ProgramID,
		EnrollmentID: enrollment.ID,
		Mode:         TaskSyncModeFillEmpty,
	})
	if err != nil {
		return err
	}
	return txOutboxRepo.Insert(ctx, uuid.NewString(), enrollment.OrgID, models.OutboxJobTaskSync, payload)
}

func (s *EnrollmentService) joinClientCommunity(ctx context.Context, org *models.Organization, userID string, profile *models.UserProfile) {
	if org.ClientCommunitySquadID == nil || *org.ClientCommunitySquadID == "" {
		return
	}
	if err := s.squads.AddUserToSquad(ctx, userID, *org.ClientCommunitySquadID, profile); err != nil {
		s.logger.Warn("client community join failed",
			zap.String("org_id", org.ID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

// checkConflicts enforces the two enrollment rules: no second ongoing
// enrollment of the same program, and no overlap with an ongoing enrollment
// of the same program type.
func (s *EnrollmentService) checkConflicts(
	ctx context.Context,
	enrollments enrollmentLister,
	orgID string,
	userID string,
	program *models.Program,
	newStart time.Time,
) error {
	ongoing, err := enrollments.ListOngoingByUser(ctx, orgID, userID)
	if err != nil {
		return err
	}

	for i := range ongoing {
		existing := &ongoing[i]
		if existing.ProgramID == program.ID {
			return ErrAlreadyEnrolled
		}

		existingProgram, err := s.programRepo.GetByID(ctx, existing.ProgramID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return err
		}
		if existingProgram.Type != program.Type {
			continue
		}

		endDate := existing.EndDate(existingProgram.LengthDays)
		if !dateOnly(newStart).After(dateOnly(endDate)) {
			return &EnrollmentConflictError{
				ProgramName: existingProgram.Name,
				EndsOn:      dateOnly(endDate),
			}
		}
	}
	return nil
}

func (s *EnrollmentService) loadProfile(ctx context.Context, orgID string, userID string) *models.UserProfile {
	profile, err := s.profileRepo.GetByUser(ctx, orgID, userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("profile lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
		return &models.UserProfile{OrgID: orgID, UserID: userID}
	}
	return profile
}

// deriveStartAndStatus picks the enrollment start date and initial status.
// Group programs start on the cohort date; individual programs prefer an
// explicit start date, then the program default, then the noon heuristic:
// requests before noon start today, later requests start tomorrow.
func deriveStartAndStatus(
	program *models.Program,
	cohort *models.ProgramCohort,
	requested *time.Time,
	now time.Time,
) (time.Time, string) {
	if program.Type == models.ProgramTypeGroup && cohort != nil {
		start := dateOnly(cohort.StartDate)
		if start.After(dateOnly(now)) {
			return start, models.EnrollmentStatusUpcoming
		}
		return start, models.EnrollmentStatusActive
	}

	if requested != nil {
		start := dateOnly(*requested)
		if start.After(dateOnly(now)) {
			return start, models.EnrollmentStatusUpcoming
		}
		return start, models.EnrollmentStatusActive
	}

	if program.DefaultStartDate != nil {
		start := dateOnly(*program.DefaultStartDate)
		if start.After(dateOnly(now)) {
			return start, models.EnrollmentStatusUpcoming
		}
		return start, models.EnrollmentStatusActive
	}

	if now.Hour() < 12 {
		return dateOnly(now), models.EnrollmentStatusActive
	}
	return dateOnly(now.AddDate(0, 0, 1)), models.EnrollmentStatusActive
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
