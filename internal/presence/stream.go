package presence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wuwenbin0122/lingolink/internal/utils"
)

const (
	defaultStreamBaseURL = "https://chat.stream-io-api.com"
	defaultStreamTimeout = 5 * time.Second
	maxErrorSnippet      = 256
)

var ErrCredentialsRequired = errors.New("presence: stream api key and secret are required")

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

type streamErrorEnvelope struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"StatusCode"`
}

// StreamClient upserts users through the chat service REST API using a
// server-side token signed with the API secret.
type StreamClient struct {
	apiKey  string
	secret  []byte
	baseURL string
	client  httpDoer
}

func NewStreamClient(cfg utils.StreamConfig) (*StreamClient, error) {
	if !cfg.Enabled() {
		return nil, ErrCredentialsRequired
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultStreamBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultStreamTimeout
	}

	return &StreamClient{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		secret:  []byte(strings.TrimSpace(cfg.APISecret)),
		baseURL: base,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (c *StreamClient) UpsertUser(ctx context.Context, user User) error {
	if strings.TrimSpace(user.ID) == "" {
		return errors.New("presence: user id is required")
	}

	payload, err := json.Marshal(map[string]any{
		"users": map[string]User{user.ID: user},
	})
	if err != nil {
		return fmt.Errorf("presence: encode upsert: %w", err)
	}

	token, err := c.serverToken()
	if err != nil {
		return err
	}

	endpoint := c.baseURL + "/users?api_key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("presence: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	req.Header.Set("Stream-Auth-Type", "jwt")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("presence: upsert user: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return buildStreamError(resp.StatusCode, body)
	}

	return nil
}

func (c *StreamClient) serverToken() (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"server": true})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("presence: sign server token: %w", err)
	}
	return signed, nil
}

func buildStreamError(statusCode int, body []byte) error {
	var envelope streamErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		if msg := strings.TrimSpace(envelope.Message); msg != "" {
			if envelope.Code != 0 {
				return fmt.Errorf("presence: stream api error (%d, code %d): %s", statusCode, envelope.Code, msg)
			}
			return fmt.Errorf("presence: stream api error (%d): %s", statusCode, msg)
		}
	}

	snippet := strings.TrimSpace(string(body))
	if snippet == "" {
		snippet = http.StatusText(statusCode)
	}
	if len(snippet) > maxErrorSnippet {
		snippet = snippet[:maxErrorSnippet]
	}

	return fmt.Errorf("presence: stream api error (%d): %s", statusCode, snippet)
}
