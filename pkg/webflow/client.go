package webflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
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

const serviceName = "cms"

// maxErrorBodyBytes caps how much of an upstream error body lands in logs
// and support details.
const maxErrorBodyBytes = 512

// Item is one CMS collection item.
type Item struct {
	ID        string                 `json:"id"`
	Slug      string                 `json:"slug,omitempty"`
	FieldData map[string]interface{} `json:"fieldData"`
}

type listResponse struct {
	Items      []Item `json:"items"`
	Pagination struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
		Total  int `json:"total"`
	} `json:"pagination"`
}

// Client talks to the headless CMS. Reads go through the CORS relay worker
// (the same path the site uses, so cache behavior matches); writes go to the
// API directly. All calls carry retry with backoff and a circuit breaker.
type Client struct {
	httpClient httpclient.Client
	apiBaseURL string
	relayURL   string
	token      string
	breaker    *gobreaker.CircuitBreaker
	retryCfg   retry.Config
}

// NewClient creates a CMS client from config.
func NewClient(cfg config.CMSConfig, hc httpclient.Client) *Client {
	return &Client{
		httpClient: hc,
		apiBaseURL: cfg.APIBaseURL,
		relayURL:   cfg.RelayURL,
		token:      cfg.APIToken,
		breaker:    circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("cms")),
		retryCfg:   retry.CMSConfig(),
	}
}

// ListItems fetches one page of a collection. Returns the items and the
// collection total for pagination.
func (c *Client) ListItems(ctx context.Context, collectionID string, limit, offset int) ([]Item, int, error) {
	target := fmt.Sprintf("%s/collections/%s/items?limit=%d&offset=%d", c.apiBaseURL, collectionID, limit, offset)

	body, err := c.call(ctx, "list_items", func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.relayed(target), nil)
		if err != nil {
			return nil, err
		}
		c.authorize(req)
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, 0, err
	}

	var parsed listResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, 0, fmt.Errorf("failed to decode collection %s: %w", collectionID, err)
	}
	return parsed.Items, parsed.Pagination.Total, nil
}

// GetItem fetches a single item by ID.
func (c *Client) GetItem(ctx context.Context, collectionID, itemID string) (*Item, error) {
	target := fmt.Sprintf("%s/collections/%s/items/%s", c.apiBaseURL, collectionID, itemID)

	body, err := c.call(ctx, "get_item", func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.relayed(target), nil)
		if err != nil {
			return nil, err
		}
		c.authorize(req)
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}

	var item Item
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("failed to decode item %s: %w", itemID, err)
	}
	return &item, nil
}

// CreateItem creates a collection item. The slug is derived from the name
// field when the caller did not set one; the idempotency key lets the API
// collapse duplicate creates from retries.
func (c *Client) CreateItem(ctx context.Context, collectionID, idempotencyKey string, fields map[string]interface{}) (*Item, error) {
	if _, ok := fields["slug"]; !ok {
		if name, ok := fields["name"].(string); ok && name != "" {
			fields["slug"] = Slugify(name)
		}
	}

	payload, err := json.Marshal(map[string]interface{}{"fieldData": fields})
	if err != nil {
		return nil, fmt.Errorf("failed to encode item: %w", err)
	}

	target := fmt.Sprintf("%s/collections/%s/items", c.apiBaseURL, collectionID)

	body, err := c.call(ctx, "create_item", func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		c.authorize(req)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", idempotencyKey)
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}

	var item Item
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("failed to decode created item: %w", err)
	}

	logger.Info("CMS item created",
		zap.String("collection_id", collectionID),
		zap.String("item_id", item.ID))
	return &item, nil
}

// UpdateItem patches fields of an existing item.
func (c *Client) UpdateItem(ctx context.Context, collectionID, itemID string, fields map[string]interface{}) error {
	payload, err := json.Marshal(map[string]interface{}{"fieldData": fields})
	if err != nil {
		return fmt.Errorf("failed to encode item update: %w", err)
	}

	target := fmt.Sprintf("%s/collections/%s/items/%s", c.apiBaseURL, collectionID, itemID)

	_, err = c.call(ctx, "update_item", func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPatch, target, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		c.authorize(req)
		req.Header.Set("Content-Type", "application/json")
		return c.httpClient.Do(req)
	})
	return err
}

// FetchOptionTable loads an option collection (categories, languages,
// countries) into a name-to-ID map for the field mapper.
func (c *Client) FetchOptionTable(ctx context.Context, collectionID string) (map[string]string, error) {
	table := make(map[string]string)
	offset := 0

	for {
		items, total, err := c.ListItems(ctx, collectionID, 100, offset)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if name, ok := item.FieldData["name"].(string); ok && name != "" {
				table[name] = item.ID
			}
		}
		offset += len(items)
		if offset >= total || len(items) == 0 {
			break
		}
	}

	return table, nil
}

// relayed wraps a read URL in the CORS relay worker when one is configured.
func (c *Client) relayed(target string) string {
	if c.relayURL == "" {
		return target
	}
	return c.relayURL + "?url=" + url.QueryEscape(target)
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
}

// call runs one request through the retry policy and the circuit breaker,
// classifies the outcome, and records metrics.
func (c *Client) call(ctx context.Context, operation string, send func() (*http.Response, error)) ([]byte, error) {
	start := time.Now()

	body, err := retry.DoWithResult(ctx, c.retryCfg, serviceName+"."+operation, func() ([]byte, error) {
		return circuitbreaker.Execute(c.breaker, func() ([]byte, error) {
			resp, err := send()
			if err != nil {
				return nil, apperrors.Transport(serviceName, operation, err)
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, apperrors.Transport(serviceName, operation, err)
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return nil, apperrors.Upstream(serviceName, operation, resp.StatusCode, truncate(data))
			}
			return data, nil
		})
	})

	outcome := "success"
	if err != nil {
		outcome = "error"
		err = circuitbreaker.FormatError("cms", err)
	}
	duration := metrics.MeasureDuration(start)
	metrics.ObserveExternalCall(serviceName, operation, outcome, duration)
	logger.LogAPICall(serviceName, operation, outcome, duration)

	return body, err
}

func truncate(data []byte) string {
	if len(data) > maxErrorBodyBytes {
		return string(data[:maxErrorBodyBytes])
	}
	return string(data)
}
