package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/skins/internal/adapters/http/api"
	"github.com/okian/skins/internal/adapters/repository"
	"github.com/okian/skins/internal/domain/course"
	"github.com/okian/skins/internal/domain/types"
)

// Submission outcomes.
const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
)

// Client errors.
var (
	ErrStatus       = errors.New("unexpected status")
	ErrBackpressure = errors.New("server queue full")
)

// Client talks to a skins server.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, want ...int) (int, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	for _, code := range want {
		if resp.StatusCode == code {
			if out != nil {
				if err := json.Unmarshal(data, out); err != nil {
					return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
				}
			}
			return resp.StatusCode, nil
		}
	}
	var e api.ErrorResponse
	_ = json.Unmarshal(data, &e)
	return resp.StatusCode, fmt.Errorf("%w: %s %s -> %d %s", ErrStatus, method, path, resp.StatusCode, e.Message)
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK)
	return err
}

// Course fetches the served course profile.
func (c *Client) Course(ctx context.Context) (course.Profile, error) {
	var p course.Profile
	_, err := c.do(ctx, http.MethodGet, "/course", nil, &p, http.StatusOK)
	return p, err
}

// Submit posts a game and reports the outcome.
func (c *Client) Submit(ctx context.Context, g Game) (string, error) {
	var ack api.AckResponse
	code, err := c.do(ctx, http.MethodPost, "/games", g, &ack, http.StatusAccepted, http.StatusOK)
	switch {
	case code == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: %w", ErrBackpressure, err)
	case err != nil && code >= http.StatusBadRequest && code < http.StatusInternalServerError:
		return OutcomeRejected, err
	case err != nil:
		return "", err
	case ack.Duplicate:
		return OutcomeDuplicate, nil
	default:
		return OutcomeAccepted, nil
	}
}

// Game fetches a game's settlement record.
func (c *Client) Game(ctx context.Context, id string) (repository.GameRecord, error) {
	var rec repository.GameRecord
	_, err := c.do(ctx, http.MethodGet, "/games/"+url.PathEscape(id), nil, &rec, http.StatusOK)
	return rec, err
}

// MoneyList fetches the top n entries.
func (c *Client) MoneyList(ctx context.Context, n int) ([]types.Entry, error) {
	var out []types.Entry
	_, err := c.do(ctx, http.MethodGet, "/moneylist?limit="+strconv.Itoa(n), nil, &out, http.StatusOK)
	return out, err
}

// Standing fetches one player's money list entry.
func (c *Client) Standing(ctx context.Context, playerID string) (types.Entry, error) {
	var e types.Entry
	_, err := c.do(ctx, http.MethodGet, "/moneylist/"+url.PathEscape(playerID), nil, &e, http.StatusOK)
	return e, err
}

// Stats fetches GET /stats.
func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	_, err := c.do(ctx, http.MethodGet, "/stats", nil, &out, http.StatusOK)
	return out, err
}
