package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/idaliopessoa/idDigital/config"
	"github.com/idaliopessoa/idDigital/model"
	"github.com/idaliopessoa/idDigital/pkg/sentinel"
)

type CertfyService struct {
	config     *config.CertfyConfig
	httpClient *http.Client
}

// CertfyTokenRequest represents the service-credential token exchange body
type CertfyTokenRequest struct {
	CompanyID string `json:"companyId"`
	SecretKey string `json:"secretKey"`
}

// CertfyTokenResponse represents the token exchange response
type CertfyTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

func NewCertfyService(cfg *config.CertfyConfig) *CertfyService {
	return &CertfyService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Authenticate exchanges the fixed service credentials for a bearer token.
// A non-success status or a response without an accessToken is an
// ErrAuthFailure carrying the upstream status and body for diagnostics.
func (s *CertfyService) Authenticate(ctx context.Context) (string, error) {
	reqBody := CertfyTokenRequest{
		CompanyID: s.config.CompanyID,
		SecretKey: s.config.SecretKey,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.BaseURL+"/Authentication/Token", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", sentinel.ErrAuthFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d, body: %s", sentinel.ErrAuthFailure, resp.StatusCode, string(body))
	}

	var result CertfyTokenResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: failed to parse token response: %v", sentinel.ErrAuthFailure, err)
	}

	if result.AccessToken == "" {
		return "", fmt.Errorf("%w: access token missing in response", sentinel.ErrAuthFailure)
	}

	return result.AccessToken, nil
}

// FetchSchedule retrieves the raw schedule payload for a document id.
// Upstream 404 is the distinguished ErrNotFoundUpstream; any other
// non-success status is an ErrFetchFailure with status and body preserved.
func (s *CertfyService) FetchSchedule(ctx context.Context, documentID, token string) (*model.SchedulePayload, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/Admin/Schedule/%s", s.config.BaseURL, documentID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel.ErrFetchFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: document %s", sentinel.ErrNotFoundUpstream, documentID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d, body: %s", sentinel.ErrFetchFailure, resp.StatusCode, string(body))
	}

	var payload model.SchedulePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: failed to parse schedule: %v", sentinel.ErrFetchFailure, err)
	}

	return &payload, nil
}
