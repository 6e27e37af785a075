// Package betlog is the HTTP client for the bet log source API.
package betlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/filter"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/pkg/models"
)

// AdminTokenHeader authorizes sync requests
const AdminTokenHeader = "X-ADMIN-TOKEN"

// ErrUpstream is wrapped by every non-2xx response error
var ErrUpstream = errors.New("betlog upstream error")

// StatusError is returned when the source answers with a non-2xx status
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("betlog error (status %d)", e.Status)
	}
	return fmt.Sprintf("betlog error (status %d): %s", e.Status, e.Message)
}

func (e *StatusError) Unwrap() error { return ErrUpstream }

// Client talks to the bet log source
type Client struct {
	baseURL    string
	httpClient *http.Client
	adminToken string
}

// NewClient creates a new source client. A nil httpClient gets a 15s timeout.
func NewClient(baseURL string, httpClient *http.Client, adminToken string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 15 * time.Second,
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		adminToken: adminToken,
	}
}

// ListBets returns the bets matching q
func (c *Client) ListBets(ctx context.Context, q filter.Query) ([]models.Bet, error) {
	var bets []models.Bet
	if err := c.get(ctx, "/api/bets", q.Values(), &bets); err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	if bets == nil {
		bets = []models.Bet{}
	}
	return bets, nil
}

// GetStats returns the stats for q. An empty query yields the global stats.
func (c *Client) GetStats(ctx context.Context, q filter.Query) (*models.Stats, error) {
	var stats models.Stats
	if err := c.get(ctx, "/api/stats", q.Values(), &stats); err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &stats, nil
}

// ListTournaments returns the tournaments of a season
func (c *Client) ListTournaments(ctx context.Context, season filter.Season) ([]string, error) {
	var tournaments []string
	if err := c.get(ctx, "/api/tournaments", seasonValues(season), &tournaments); err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	return tournaments, nil
}

// SeasonData returns the filter choices of a season
func (c *Client) SeasonData(ctx context.Context, season filter.Season) (*models.SeasonData, error) {
	var data models.SeasonData
	if err := c.get(ctx, "/api/season-data", seasonValues(season), &data); err != nil {
		return nil, fmt.Errorf("season data: %w", err)
	}
	return &data, nil
}

// TriggerSync asks the source to import the bet log. token overrides the
// configured admin token when not empty.
func (c *Client) TriggerSync(ctx context.Context, season filter.Season, token string) (*models.SyncAck, error) {
	if token == "" {
		token = c.adminToken
	}

	u := c.baseURL + "/api/sync"
	if v := seasonValues(season); len(v) > 0 {
		u += "?" + v.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create sync request: %w", err)
	}
	if token != "" {
		req.Header.Set(AdminTokenHeader, token)
	}

	var ack models.SyncAck
	if err := c.do(req, &ack); err != nil {
		return nil, fmt.Errorf("trigger sync: %w", err)
	}
	return &ack, nil
}

// Ping checks that the source is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "/health", nil, nil)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp models.ErrorResponse
		message := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
			message = errResp.Message
		}
		return &StatusError{Status: resp.StatusCode, Message: message}
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func seasonValues(season filter.Season) url.Values {
	v := url.Values{}
	if season != "" {
		v.Set(filter.KeySeason, string(season))
	}
	return v
}
