// Package submit ships announceable change events to the chtrack server.
// It owns everything the tracking core does not: outbound HTTP, rate
// limiting, and retry with backoff. Unchanged events never leave the
// machine.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/chtrack/internal/model"
)

// Config tunes the submission client.
type Config struct {
	BaseURL    string
	Token      string
	PlayerName string
	RatePerSec float64
	Burst      int
	MaxRetries int
	Timeout    time.Duration
}

// Client posts score submissions to the server.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a submission client. Zero-valued tuning fields get
// conservative defaults: 2 req/s, burst 4, 3 retries, 10s timeout.
func NewClient(cfg Config) *Client {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
	}
}

// NewPairingToken mints a fresh client pairing token.
func NewPairingToken() string {
	return uuid.New().String()
}

// SubmitEvents posts every announceable event in order. A submission that
// exhausts its retries fails the whole call; the caller keeps its snapshot
// regardless, so an outage only delays announcements, it never loses them
// as local history.
func (c *Client) SubmitEvents(ctx context.Context, events []model.ChangeEvent) error {
	for _, ev := range events {
		if !ev.Announceable() {
			continue
		}
		sub := model.NewScoreSubmission(c.cfg.Token, c.cfg.PlayerName, ev)
		if err := c.submitOne(ctx, sub); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) submitOne(ctx context.Context, sub model.ScoreSubmission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return eris.Wrap(err, "submit: marshal submission")
	}
	url := c.cfg.BaseURL + "/api/scores"

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 500 * time.Millisecond
			if backoff > 8*time.Second {
				backoff = 8 * time.Second
			}
			zap.L().Debug("submit: retrying",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return eris.Wrap(ctx.Err(), "submit: cancelled")
			case <-time.After(backoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "submit: rate limiter")
		}

		retryable, err := c.post(ctx, url, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}

	return eris.Wrapf(lastErr, "submit: giving up after %d retries", c.cfg.MaxRetries)
}

// post performs one POST. The bool reports whether the failure is worth
// retrying: network errors and 5xx are, 4xx is a contract problem that
// retrying cannot fix.
func (c *Client) post(ctx context.Context, url string, body []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, eris.Wrap(err, "submit: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return true, eris.Wrap(err, "submit: post")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err = eris.Errorf("submit: server returned %d: %s", resp.StatusCode, string(msg))
	return resp.StatusCode >= 500, err
}
