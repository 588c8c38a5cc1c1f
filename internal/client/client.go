package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/server"
)

const (
	contentType    = "application/json"
	defaultTimeout = 90 * time.Second
)

// Client talks to a running interview server.
type Client struct {
	baseURL    string
	logger     *zap.Logger
	HTTPClient *http.Client
}

// Reply is the server answer to one interview step.
type Reply struct {
	AIResponse  string              `json:"ai_response"`
	ChatHistory []interview.Message `json:"chat_history"`
}

type stepRequest struct {
	SessionID string `json:"session_id"`
	RoleTitle string `json:"role_title"`
	Answer    string `json:"candidate_answer,omitempty"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("interview api: %d: %s", e.StatusCode, e.Message)
}

func New(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		logger:  logger,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// Start requests the opening question.
func (c *Client) Start(ctx context.Context, sessionID, roleTitle string) (*Reply, error) {
	return c.step(ctx, stepRequest{SessionID: sessionID, RoleTitle: roleTitle})
}

// Answer submits a candidate answer and returns the next interviewer turn.
func (c *Client) Answer(ctx context.Context, sessionID, roleTitle, answer string) (*Reply, error) {
	return c.step(ctx, stepRequest{SessionID: sessionID, RoleTitle: roleTitle, Answer: answer})
}

func (c *Client) step(ctx context.Context, payload stepRequest) (*Reply, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+server.InterviewPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	c.logger.Debug("sending interview step",
		zap.String("session_id", payload.SessionID),
		zap.Bool("has_answer", payload.Answer != ""),
	)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var reply Reply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if reply.AIResponse == "" {
		return nil, errors.New("interview api returned empty ai_response")
	}

	return &reply, nil
}
