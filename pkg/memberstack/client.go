package memberstack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/creatorjobs/creatorjobs-api/config"
	"github.com/creatorjobs/creatorjobs-api/pkg/circuitbreaker"
	apperrors "github.com/creatorjobs/creatorjobs-api/pkg/errors"
	"github.com/creatorjobs/creatorjobs-api/pkg/httpclient"
	"github.com/creatorjobs/creatorjobs-api/pkg/logger"
	"github.com/creatorjobs/creatorjobs-api/pkg/metrics"
	"github.com/creatorjobs/creatorjobs-api/pkg/retry"
	"github.com/sony/gobreaker"
)

const serviceName = "membership"

// Member is the membership worker's view of one account. Plan and credits
// live in free-form custom fields.
type Member struct {
	ID   string `json:"id"`
	Auth struct {
		Email string `json:"email"`
	} `json:"auth"`
	CustomFields map[string]interface{} `json:"customFields"`
}

// Credits reads the credit balance from the custom fields, which the worker
// serializes as either a number or a numeric string.
func (m *Member) Credits() int {
	switch v := m.CustomFields["credits"].(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

// Name returns the display name custom field.
func (m *Member) Name() string {
	if s, ok := m.CustomFields["name"].(string); ok {
		return s
	}
	return ""
}

// Plan returns the plan custom field.
func (m *Member) Plan() string {
	if s, ok := m.CustomFields["plan"].(string); ok {
		return s
	}
	return ""
}

// Client talks to the membership backend worker.
type Client struct {
	httpClient httpclient.Client
	workerURL  string
	authToken  string
	breaker    *gobreaker.CircuitBreaker
	retryCfg   retry.Config
}

// NewClient creates a membership client from config.
func NewClient(cfg config.MembershipConfig, hc httpclient.Client) *Client {
	return &Client{
		httpClient: hc,
		workerURL:  cfg.WorkerURL,
		authToken:  cfg.AuthToken,
		breaker:    circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("membership")),
		retryCfg:   retry.MembershipConfig(),
	}
}

// GetMember fetches one member by ID.
func (c *Client) GetMember(ctx context.Context, memberRef string) (*Member, error) {
	target := c.workerURL + "/member?id=" + url.QueryEscape(memberRef)

	body, err := c.call(ctx, "get_member", func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	})
	if err != nil {
		if ue, ok := apperrors.AsUpstream(err); ok && ue.StatusCode == http.StatusNotFound {
			return nil, apperrors.NotFoundError("member " + memberRef)
		}
		return nil, err
	}

	var member Member
	if err := json.Unmarshal(body, &member); err != nil {
		return nil, fmt.Errorf("failed to decode member: %w", err)
	}
	return &member, nil
}

// AdjustCredits applies a signed credit delta to the member's balance. The
// worker applies the delta atomically, so a retried call after a transport
// failure is the one non-idempotent risk in the publish flow; the retry
// policy therefore does not retry this operation on ambiguous outcomes.
func (c *Client) AdjustCredits(ctx context.Context, memberRef string, delta int) error {
	payload, err := json.Marshal(map[string]interface{}{
		"memberId": memberRef,
		"delta":    delta,
	})
	if err != nil {
		return fmt.Errorf("failed to encode credit adjustment: %w", err)
	}

	_, err = c.call(ctx, "adjust_credits", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.workerURL+"/credits", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	return err
}

func (c *Client) call(ctx context.Context, operation string, build func() (*http.Request, error)) ([]byte, error) {
	cfg := c.retryCfg
	if operation == "adjust_credits" {
		// Not idempotency-keyed; see AdjustCredits
		cfg.MaxRetries = 0
	}

	start := time.Now()

	body, err := retry.DoWithResult(ctx, cfg, serviceName+"."+operation, func() ([]byte, error) {
		return circuitbreaker.Execute(c.breaker, func() ([]byte, error) {
			req, err := build()
			if err != nil {
				return nil, apperrors.Transport(serviceName, operation, err)
			}
			if c.authToken != "" {
				req.Header.Set("Authorization", "Bearer "+c.authToken)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return nil, apperrors.Transport(serviceName, operation, err)
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, apperrors.Transport(serviceName, operation, err)
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return nil, apperrors.Upstream(serviceName, operation, resp.StatusCode, string(data))
			}
			return data, nil
		})
	})

	outcome := "success"
	if err != nil {
		outcome = "error"
		err = circuitbreaker.FormatError(serviceName, err)
	}
	duration := metrics.MeasureDuration(start)
	metrics.ObserveExternalCall(serviceName, operation, outcome, duration)
	logger.LogAPICall(serviceName, operation, outcome, duration)

	return body, err
}
