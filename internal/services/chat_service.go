package services

import (
	"context"
	"fmt"

	stream "github.com/GetStream/stream-chat-go/v5"
)

type ChatUser struct {
	ID   string
	Name string
}

// ChatService provisions channels and users on the chat provider. Callers
// treat every operation as best-effort: a squad or coaching relationship is
// still created when chat provisioning fails.
type ChatService interface {
	UpsertUser(ctx context.Context, user ChatUser) error
	CreateChannel(ctx context.Context, channelType string, channelID string, createdByID string, memberIDs []string, name string) error
	AddChannelMembers(ctx context.Context, channelType string, channelID string, userIDs []string) error
}

type StreamChatService struct {
	client *stream.Client
}

func NewStreamChatService(apiKey string, apiSecret string) (*StreamChatService, error) {
	client, err := stream.NewClient(apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("stream client: %w", err)
	}
	return &StreamChatService{client: client}, nil
}

func (s *StreamChatService) UpsertUser(ctx context.Context, user ChatUser) error {
	_, err := s.client.UpsertUser(ctx, &stream.User{
		ID:   user.ID,
		Name: user.Name,
	})
	if err != nil {
		return fmt.Errorf("upsert chat user %s: %w", user.ID, err)
	}
	return nil
}

func (s *StreamChatService) CreateChannel(
	ctx context.Context,
	channelType string,
	channelID string,
	createdByID string,
	memberIDs []string,
	name string,
) error {
	data := &stream.ChannelRequest{
		Members: memberIDs,
	}
	if name != "" {
		data.ExtraData = map[string]interface{}{"name": name}
	}

	_, err := s.client.CreateChannel(ctx, channelType, channelID, createdByID, data)
	if err != nil {
		return fmt.Errorf("create chat channel %s: %w", channelID, err)
	}
	return nil
}

func (s *StreamChatService) AddChannelMembers(ctx context.Context, channelType string, channelID string, userIDs []string) error {
	channel := s.client.Channel(channelType, channelID)
	if _, err := channel.AddMembers(ctx, userIDs); err != nil {
		return fmt.Errorf("add members to channel %s: %w", channelID, err)
	}
	return nil
}
