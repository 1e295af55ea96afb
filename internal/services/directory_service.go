package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"context"
)

type Membership struct {
	UserID string
	Role   string
}

// CoachDirectory resolves organization membership on the external identity
// service: who the org's admin coach is, who the members are, and pushing
// metadata back onto a user.
type CoachDirectory interface {
	GetOrgAdmin(ctx context.Context, orgID string) (string, error)
	GetMembers(ctx context.Context, orgID string) ([]Membership, error)
	UpdateUserMetadata(ctx context.Context, userID string, metadata map[string]any) error
}

// ClerkDirectory talks to the Clerk backend API over plain HTTP.
type ClerkDirectory struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClerkDirectory(baseURL string, secretKey string) *ClerkDirectory {
	if baseURL == "" {
		baseURL = "https://api.clerk.com"
	}
	return &ClerkDirectory{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: http.DefaultClient,
	}
}

func (d *ClerkDirectory) GetOrgAdmin(ctx context.Context, orgID string) (string, error) {
	members, err := d.GetMembers(ctx, orgID)
	if err != nil {
		return "", err
	}
	for _, member := range members {
		if member.Role == "admin" || member.Role == "org:admin" {
			return member.UserID, nil
		}
	}
	return "", nil
}

func (d *ClerkDirectory) GetMembers(ctx context.Context, orgID string) ([]Membership, error) {
	endpoint := fmt.Sprintf("%s/v1/organizations/%s/memberships?limit=100", d.baseURL, url.PathEscape(orgID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build memberships request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+d.secretKey)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("list memberships: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response struct {
		Data []struct {
			Role           string `json:"role"`
			PublicUserData struct {
				UserID string `json:"user_id"`
			} `json:"public_user_data"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode memberships response: %w", err)
	}

	members := make([]Membership, 0, len(response.Data))
	for _, entry := range response.Data {
		members = append(members, Membership{
			UserID: entry.PublicUserData.UserID,
			Role:   strings.TrimPrefix(entry.Role, "org:"),
		})
	}
	return members, nil
}

func (d *ClerkDirectory) UpdateUserMetadata(ctx context.Context, userID string, metadata map[string]any) error {
	endpoint := fmt.Sprintf("%s/v1/users/%s/metadata", d.baseURL, url.PathEscape(userID))

	payload, err := json.Marshal(map[string]any{"public_metadata": metadata})
	if err != nil {
		return fmt.Errorf("marshal metadata payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build metadata request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+d.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("update user metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("update user metadata: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
