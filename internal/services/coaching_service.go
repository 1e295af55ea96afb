package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/sfoufcat/coachhub/internal/models"
	"github.com/sfoufcat/coachhub/internal/repository"
	"go.uber.org/zap"
)

type CoachingService struct {
	db        txBeginner
	directory CoachDirectory
	chat      ChatService
	logger    *zap.Logger
}

func NewCoachingService(db txBeginner, directory CoachDirectory, chat ChatService, logger *zap.Logger) *CoachingService {
	return &CoachingService{
		db:        db,
		directory: directory,
		chat:      chat,
		logger:    logger,
	}
}

// CreateRelationship provisions the 1:1 coaching relationship for an
// individual-program enrollment: the org admin becomes the coach, the
// denormalized coaching record is written, and the coaching flags are
// mirrored onto the user profile and org membership in one transaction.
//
// Chat provisioning and identity-metadata updates are best-effort and never
// roll back the coaching-data write.
func (s *CoachingService) CreateRelationship(
	ctx context.Context,
	orgID string,
	userID string,
	profile *models.UserProfile,
) (*models.ClientCoachingData, error) {
	coachID, err := s.directory.GetOrgAdmin(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if coachID == "" {
		return nil, ErrNoCoachConfigured
	}

	channelID := coachingChannelID(userID, coachID)

	data := models.ClientCoachingData{
		OrgID:          orgID,
		UserID:         userID,
		CoachID:        coachID,
		ChannelID:      channelID,
		CoachingPlan:   models.DefaultCoachingPlan,
		FocusAreas:     []string{},
		ActionItems:    []string{},
		SessionHistory: []string{},
		Resources:      []string{},
		Notes:          []string{},
	}
	if profile != nil {
		data.FirstName = profile.FirstName
		data.LastName = profile.LastName
		data.Email = profile.Email
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	saved, err := repository.NewCoachingRepository(tx).Upsert(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := repository.NewUserProfileRepository(tx).MarkCoachingClient(ctx, orgID, userID, data.Email); err != nil {
		return nil, err
	}
	if err := repository.NewMemberRepository(tx).UpsertCoachingMirror(ctx, orgID, userID, coachID, channelID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.provisionCoachingChannel(ctx, saved)

	if err := s.directory.UpdateUserMetadata(ctx, userID, map[string]any{"isCoachingClient": true}); err != nil {
		s.logger.Warn("coaching metadata update failed",
			zap.String("org_id", orgID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	return saved, nil
}

func (s *CoachingService) provisionCoachingChannel(ctx context.Context, data *models.ClientCoachingData) {
	clientName := data.FirstName
	if clientName == "" {
		clientName = data.UserID
	}
	if err := s.chat.UpsertUser(ctx, ChatUser{ID: data.UserID, Name: clientName}); err != nil {
		s.logger.Warn("coaching chat user upsert failed", zap.String("user_id", data.UserID), zap.Error(err))
		return
	}
	if err := s.chat.UpsertUser(ctx, ChatUser{ID: data.CoachID, Name: data.CoachID}); err != nil {
		s.logger.Warn("coaching chat coach upsert failed", zap.String("coach_id", data.CoachID), zap.Error(err))
		return
	}

	members := []string{data.UserID, data.CoachID}
	if err := s.chat.CreateChannel(ctx, "messaging", data.ChannelID, data.CoachID, members, ""); err != nil {
		s.logger.Warn("coaching channel creation failed",
			zap.String("channel_id", data.ChannelID),
			zap.Error(err),
		)
	}
}

// coachingChannelID is deterministic in (userID, coachID): a repeated
// enrollment references the same 1:1 channel instead of minting a new one.
func coachingChannelID(userID string, coachID string) string {
	sum := sha256.Sum256([]byte(userID + ":" + coachID))
	return "coaching-" + hex.EncodeToString(sum[:8])
}
