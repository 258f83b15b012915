package sheetdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/creatorjobs/creatorjobs-api/config"
	"github.com/creatorjobs/creatorjobs-api/pkg/circuitbreaker"
	apperrors "github.com/creatorjobs/creatorjobs-api/pkg/errors"
	"github.com/creatorjobs/creatorjobs-api/pkg/httpclient"
	"github.com/creatorjobs/creatorjobs-api/pkg/logger"
	"github.com/creatorjobs/creatorjobs-api/pkg/metrics"
	"github.com/creatorjobs/creatorjobs-api/pkg/retry"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const serviceName = "sheet"

// Record is one row in the sheet backend.
type Record struct {
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

// createResponse covers both response shapes the worker produces:
// `{"recordId": "..."}` and `{"records": [{"id": "..."}]}`.
type createResponse struct {
	RecordID string `json:"recordId"`
	Records  []struct {
		ID string `json:"id"`
	} `json:"records"`
}

type searchResponse struct {
	Records []Record `json:"records"`
}

// Client talks to the sheet backend through its worker, which exposes one
// sub-path per operation and takes JSON bodies. Creates carry the
// idempotency key so the worker can deduplicate retried submissions.
type Client struct {
	httpClient httpclient.Client
	workerURL  string
	authToken  string
	breaker    *gobreaker.CircuitBreaker
	retryCfg   retry.Config
}

// NewClient creates a sheet backend client from config.
func NewClient(cfg config.SheetDBConfig, hc httpclient.Client) *Client {
	return &Client{
		httpClient: hc,
		workerURL:  cfg.WorkerURL,
		authToken:  cfg.AuthToken,
		breaker:    circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("sheet")),
		retryCfg:   retry.SheetConfig(),
	}
}

// CreateRecord inserts a row and returns its record ID.
func (c *Client) CreateRecord(ctx context.Context, idempotencyKey string, fields map[string]interface{}) (string, error) {
	body, err := c.post(ctx, "create", "/create", idempotencyKey, map[string]interface{}{
		"fields": fields,
	})
	if err != nil {
		return "", err
	}

	var parsed createResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode create response: %w", err)
	}
	if parsed.RecordID != "" {
		return parsed.RecordID, nil
	}
	if len(parsed.Records) > 0 {
		return parsed.Records[0].ID, nil
	}
	return "", apperrors.Upstream(serviceName, "create", http.StatusOK, "response carried no record ID")
}

// UpdateRecord patches fields on an existing row.
func (c *Client) UpdateRecord(ctx context.Context, recordID string, fields map[string]interface{}) error {
	_, err := c.post(ctx, "update", "/update", "", map[string]interface{}{
		"recordId": recordID,
		"fields":   fields,
	})
	return err
}

// DeleteRecord removes a row. Deleting an already-deleted row answers 404,
// which callers running compensations treat as done.
func (c *Client) DeleteRecord(ctx context.Context, recordID string) error {
	_, err := c.post(ctx, "delete", "/delete", "", map[string]interface{}{
		"recordId": recordID,
	})
	if err != nil {
		if ue, ok := apperrors.AsUpstream(err); ok && ue.StatusCode == http.StatusNotFound {
			logger.Info("Record already deleted", zap.String("record_id", recordID))
			return nil
		}
	}
	return err
}

// SearchMember returns all rows belonging to a member.
func (c *Client) SearchMember(ctx context.Context, memberRef string) ([]Record, error) {
	body, err := c.post(ctx, "search_member", "/search-member", "", map[string]interface{}{
		"memberId": memberRef,
	})
	if err != nil {
		return nil, err
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return parsed.Records, nil
}

// post runs one worker call through the retry policy and circuit breaker.
func (c *Client) post(ctx context.Context, operation, path, idempotencyKey string, payload map[string]interface{}) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", operation, err)
	}

	start := time.Now()

	body, err := retry.DoWithResult(ctx, c.retryCfg, serviceName+"."+operation, func() ([]byte, error) {
		return circuitbreaker.Execute(c.breaker, func() ([]byte, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.workerURL+path, bytes.NewReader(encoded))
			if err != nil {
				return nil, apperrors.Transport(serviceName, operation, err)
			}
			req.Header.Set("Content-Type", "application/json")
			if c.authToken != "" {
				req.Header.Set("Authorization", "Bearer "+c.authToken)
			}
			if idempotencyKey != "" {
				req.Header.Set("Idempotency-Key", idempotencyKey)
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
