package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const TaskSyncModeFillEmpty = "fill-empty"

// TaskSyncService hands a "sync all program tasks" job to the external task
// service, which fills in missing daily task instances for the enrollment.
type TaskSyncService interface {
	SyncProgramTasks(ctx context.Context, userID string, enrollmentID string, mode string) error
}

type HTTPTaskSyncService struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPTaskSyncService(endpoint string, apiKey string) *HTTPTaskSyncService {
	return &HTTPTaskSyncService{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
}

func (s *HTTPTaskSyncService) SyncProgramTasks(ctx context.Context, userID string, enrollmentID string, mode string) error {
	payload, err := json.Marshal(map[string]string{
		"userId":       userID,
		"enrollmentId": enrollmentID,
		"mode":         mode,
	})
	if err != nil {
		return fmt.Errorf("marshal task sync payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/tasks/sync", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build task sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("task sync: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("task sync: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
