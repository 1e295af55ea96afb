package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sfoufcat/coachhub/internal/models"
	"github.com/sfoufcat/coachhub/internal/repository"
	"go.uber.org/zap"
)

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type squadStore interface {
	GetByID(ctx context.Context, squadID string) (*models.Squad, error)
	AddMemberID(ctx context.Context, squadID string, userID string) error
	HasSquadMember(ctx context.Context, squadID string, userID string) (bool, error)
	InsertSquadMember(ctx context.Context, member models.SquadMember) error
	SetChatChannel(ctx context.Context, squadID string, channelID string) error
}

type SquadService struct {
	db        txBeginner
	squadRepo squadStore
	directory CoachDirectory
	chat      ChatService
	logger    *zap.Logger
}

func NewSquadService(
	db txBeginner,
	squadRepo *repository.SquadRepository,
	directory CoachDirectory,
	chat ChatService,
	logger *zap.Logger,
) *SquadService {
	return &SquadService{
		db:        db,
		squadRepo: squadRepo,
		directory: directory,
		chat:      chat,
		logger:    logger,
	}
}

// FindOrCreateSquad returns the first squad of the cohort with spare
// capacity, creating a new one when every squad is full. The scan and the
// create run in one transaction holding an advisory lock on the cohort, so
// two concurrent enrollments cannot create duplicate squad numbers. Capacity
// is a soft target: the member add happens after this transaction commits,
// so concurrent picks of a nearly-full squad can briefly overshoot it.
func (s *SquadService) FindOrCreateSquad(
	ctx context.Context,
	program *models.Program,
	cohort *models.ProgramCohort,
) (*models.Squad, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", cohort.ID); err != nil {
		return nil, err
	}

	txSquadRepo := repository.NewSquadRepository(tx)

	squads, err := txSquadRepo.ListByCohort(ctx, cohort.ID)
	if err != nil {
		return nil, err
	}

	if squad := pickSquadWithRoom(squads, squadCapacity(program)); squad != nil {
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return squad, nil
	}

	squadNumber := len(squads) + 1
	coachID, err := s.resolveCoach(ctx, program, squadNumber)
	if err != nil {
		// Coach provisioning is best-effort: the squad is still created.
		s.logger.Warn("squad coach resolution failed",
			zap.String("cohort_id", cohort.ID),
			zap.Int("squad_number", squadNumber),
			zap.Error(err),
		)
		coachID = nil
	}

	squad, err := txSquadRepo.Create(ctx, repository.CreateSquadInput{
		ID:            uuid.NewString(),
		OrgID:         program.OrgID,
		CohortID:      cohort.ID,
		ProgramID:     program.ID,
		Name:          fmt.Sprintf("%s Squad %d", program.Name, squadNumber),
		SquadNumber:   squadNumber,
		Capacity:      squadCapacity(program),
		CoachID:       coachID,
		IsAutoCreated: true,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.provisionSquadChannel(ctx, squad)
	return squad, nil
}

// AddUserToSquad is idempotent: member_ids keeps set semantics and the
// squad_members profile row is inserted at most once.
func (s *SquadService) AddUserToSquad(ctx context.Context, userID string, squadID string, profile *models.UserProfile) error {
	if userID == "" || squadID == "" {
		return ErrInvalidInput
	}

	squad, err := s.squadRepo.GetByID(ctx, squadID)
	if err != nil {
		return err
	}

	if err := s.squadRepo.AddMemberID(ctx, squadID, userID); err != nil {
		return err
	}

	exists, err := s.squadRepo.HasSquadMember(ctx, squadID, userID)
	if err != nil {
		return err
	}
	if !exists {
		member := models.SquadMember{
			SquadID: squadID,
			OrgID:   squad.OrgID,
			UserID:  userID,
		}
		if profile != nil {
			member.FirstName = profile.FirstName
			member.LastName = profile.LastName
			member.Email = profile.Email
		}
		if err := s.squadRepo.InsertSquadMember(ctx, member); err != nil {
			return err
		}
	}

	if squad.ChatChannelID != nil {
		name := userID
		if profile != nil {
			name = profile.DisplayName()
		}
		if err := s.chat.UpsertUser(ctx, ChatUser{ID: userID, Name: name}); err != nil {
			s.logger.Warn("chat user upsert failed", zap.String("user_id", userID), zap.Error(err))
			return nil
		}
		if err := s.chat.AddChannelMembers(ctx, "messaging", *squad.ChatChannelID, []string{userID}); err != nil {
			s.logger.Warn("chat channel join failed",
				zap.String("squad_id", squadID),
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	return nil
}

func (s *SquadService) resolveCoach(ctx context.Context, program *models.Program, squadNumber int) (*string, error) {
	if program.CoachInSquads {
		adminID, err := s.directory.GetOrgAdmin(ctx, program.OrgID)
		if err != nil {
			return nil, err
		}
		if adminID == "" {
			return nil, nil
		}
		return &adminID, nil
	}
	return chooseRoundRobinCoach(program.AssignedCoachIDs, squadNumber), nil
}

func (s *SquadService) provisionSquadChannel(ctx context.Context, squad *models.Squad) {
	channelID := "squad-" + squad.ID
	creatorID := ""
	members := make([]string, 0, 1)
	if squad.CoachID != nil {
		creatorID = *squad.CoachID
		members = append(members, *squad.CoachID)
		if err := s.chat.UpsertUser(ctx, ChatUser{ID: *squad.CoachID, Name: *squad.CoachID}); err != nil {
			s.logger.Warn("chat coach upsert failed", zap.String("squad_id", squad.ID), zap.Error(err))
			return
		}
	}

	if err := s.chat.CreateChannel(ctx, "messaging", channelID, creatorID, members, squad.Name); err != nil {
		s.logger.Warn("squad channel creation failed", zap.String("squad_id", squad.ID), zap.Error(err))
		return
	}

	if err := s.squadRepo.SetChatChannel(ctx, squad.ID, channelID); err != nil {
		s.logger.Warn("squad channel write failed", zap.String("squad_id", squad.ID), zap.Error(err))
		return
	}
	squad.ChatChannelID = &channelID
}

// chooseRoundRobinCoach wraps the 1-based squad number around the assigned
// coach list: squad 1 gets the first coach, squad N+1 wraps back to the
// first.
func chooseRoundRobinCoach(assignedCoachIDs []string, squadNumber int) *string {
	if len(assignedCoachIDs) == 0 || squadNumber < 1 {
		return nil
	}
	coach := assignedCoachIDs[(squadNumber-1)%len(assignedCoachIDs)]
	return &coach
}

func pickSquadWithRoom(squads []models.Squad, fallbackCapacity int) *models.Squad {
	for i := range squads {
		capacity := squads[i].Capacity
		if capacity <= 0 {
			capacity = fallbackCapacity
		}
		if len(squads[i].MemberIDs) < capacity {
			return &squads[i]
		}
	}
	return nil
}

func squadCapacity(program *models.Program) int {
	if program.SquadCapacity > 0 {
		return program.SquadCapacity
	}
	return models.DefaultSquadCapacity
}
