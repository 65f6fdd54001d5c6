// Package client talks to the portal API on behalf of the CLI views.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/conference-portal/internal/campus"
)

// Client is the remote data client for speakers, personal sessions, the
// master schedule and the map catalog.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

// New builds a client for baseURL. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{base: parsed, http: httpClient, logger: logger}, nil
}

// LoginSpeaker verifies a speaker id and phone pair.
func (c *Client) LoginSpeaker(ctx context.Context, speakerID, phone string) (SpeakerLogin, error) {
	var out SpeakerLogin
	err := c.do(ctx, http.MethodPost, "/api/speaker-sessions", nil, "", map[string]string{
		"speaker_id": speakerID,
		"phone":      phone,
	}, &out)
	return out, err
}

// Schedule fetches the master schedule in creation order.
func (c *Client) Schedule(ctx context.Context) ([]ScheduleEntry, error) {
	var out struct {
		Entries []ScheduleEntry `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/schedule", nil, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// PersonalSessions fetches the talks assigned to speakerID.
func (c *Client) PersonalSessions(ctx context.Context, token, speakerID string) ([]PersonalSession, error) {
	var out struct {
		Sessions []PersonalSession `json:"sessions"`
	}
	query := url.Values{"speaker_id": {speakerID}}
	if err := c.do(ctx, http.MethodGet, "/api/personal-sessions", query, token, nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// AdminLogin opens an admin session.
func (c *Client) AdminLogin(ctx context.Context, email, password string) (AdminSession, error) {
	var out AdminSession
	err := c.do(ctx, http.MethodPost, "/api/admin/sessions", nil, "", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	return out, err
}

// AdminSession resolves the admin session behind token.
func (c *Client) AdminSession(ctx context.Context, token string) (AdminSession, error) {
	var out AdminSession
	if err := c.do(ctx, http.MethodGet, "/api/admin/sessions/current", nil, token, nil, &out); err != nil {
		return AdminSession{}, err
	}
	out.Token = token
	return out, nil
}

// AdminLogout revokes the admin session behind token.
func (c *Client) AdminLogout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/sessions/current", nil, token, nil, nil)
}

// Speakers lists every speaker with their personal sessions.
func (c *Client) Speakers(ctx context.Context, token string) ([]Speaker, error) {
	var out struct {
		Speakers []Speaker `json:"speakers"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/speakers", nil, token, nil, &out); err != nil {
		return nil, err
	}
	return out.Speakers, nil
}

// SaveSpeaker creates the speaker when ID is zero and updates it otherwise.
// The personal sessions sent replace every session the speaker had.
func (c *Client) SaveSpeaker(ctx context.Context, token string, speaker Speaker) (Speaker, error) {
	method, path := http.MethodPost, "/api/speakers"
	if speaker.ID != 0 {
		method, path = http.MethodPut, "/api/speakers/"+strconv.FormatInt(speaker.ID, 10)
	}
	var out Speaker
	err := c.do(ctx, method, path, nil, token, speaker, &out)
	return out, err
}

// DeleteSpeaker removes the speaker record only.
func (c *Client) DeleteSpeaker(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/speakers/"+strconv.FormatInt(id, 10), nil, token, nil, nil)
}

// SaveScheduleEntry creates the entry when ID is zero and updates it otherwise.
func (c *Client) SaveScheduleEntry(ctx context.Context, token string, entry ScheduleEntry) (ScheduleEntry, []VenueClash, error) {
	method, path := http.MethodPost, "/api/schedule"
	if entry.ID != 0 {
		method, path = http.MethodPut, "/api/schedule/"+strconv.FormatInt(entry.ID, 10)
	}
	var out struct {
		Entry    ScheduleEntry `json:"entry"`
		Warnings []VenueClash  `json:"warnings"`
	}
	if err := c.do(ctx, method, path, nil, token, entry, &out); err != nil {
		return ScheduleEntry{}, nil, err
	}
	return out.Entry, out.Warnings, nil
}

// DeleteScheduleEntry removes a master schedule row.
func (c *Client) DeleteScheduleEntry(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/schedule/"+strconv.FormatInt(id, 10), nil, token, nil, nil)
}

// Maps lists the available maps.
func (c *Client) Maps(ctx context.Context) ([]campus.Summary, error) {
	var out struct {
		Maps []campus.Summary `json:"maps"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/maps", nil, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Maps, nil
}

// Map fetches one map by name.
func (c *Client) Map(ctx context.Context, name string) (campus.Map, error) {
	var out campus.Map
	err := c.do(ctx, http.MethodGet, "/api/maps/"+url.PathEscape(name), nil, "", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, body, out any) error {
	endpoint := c.base.JoinPath(path)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode %s %s: %w", method, path, err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), payload)
	if err != nil {
		return fmt.Errorf("client: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		ErrorCode string            `json:"error_code"`
		Message   string            `json:"message"`
		Errors    map[string]string `json:"errors"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if len(data) > 0 && json.Unmarshal(data, &body) == nil {
		apiErr.Code = body.ErrorCode
		apiErr.Message = body.Message
		apiErr.Fields = body.Errors
	}
	return apiErr
}
