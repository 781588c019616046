package reputation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/config"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/logger"
)

const initialBackoff = 250 * time.Millisecond

// Penalizer records an SLA miss against an agent's reputation score.
type Penalizer interface {
	PenalizeSLA(ctx context.Context, agentID uuid.UUID, leadID uuid.UUID) error
}

// Client talks to the external reputation service. When no base URL is
// configured the client is disabled and every call is a logged no-op, so
// the worker keeps functioning in environments without the service.
type Client struct {
	httpClient  *http.Client
	logg        *logger.Logger
	baseURL     string
	apiKey      string
	maxAttempts uint64
}

// NewClient builds a reputation client from configuration.
func NewClient(cfg config.ReputationConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		logg:        logg,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		maxAttempts: uint64(attempts),
	}, nil
}

type penaltyRequest struct {
	LeadID     string    `json:"leadId"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurredAt"`
}

// PenalizeSLA posts an SLA-miss penalty for the agent. Server errors and
// transport failures are retried with exponential backoff; 4xx responses
// are not, since resending the same request cannot succeed.
func (c *Client) PenalizeSLA(ctx context.Context, agentID uuid.UUID, leadID uuid.UUID) error {
	if c.baseURL == "" {
		c.logg.Info(ctx, "reputation service not configured; skipping penalty")
		return nil
	}

	body, err := json.Marshal(penaltyRequest{
		LeadID:     leadID.String(),
		Reason:     "sla_missed",
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal penalty request: %w", err)
	}
	url := fmt.Sprintf("%s/v1/agents/%s/sla-penalties", c.baseURL, agentID)

	backoff := retry.WithMaxRetries(c.maxAttempts-1, retry.NewExponential(initialBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()

		switch {
		case resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return retry.RetryableError(fmt.Errorf("reputation service returned %d", resp.StatusCode))
		default:
			return fmt.Errorf("reputation service rejected penalty with %d", resp.StatusCode)
		}
	})
}
