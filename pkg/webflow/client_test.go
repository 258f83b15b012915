package webflow

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/creatorjobs/creatorjobs-api/config"
	apperrors "github.com/creatorjobs/creatorjobs-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHTTP struct {
	requests  []*http.Request
	responses []*http.Response
}

func (f *fakeHTTP) Do(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req)
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *fakeHTTP) Get(ctx context.Context, url string) (*http.Response, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	return f.Do(req)
}

func (f *fakeHTTP) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	req.Header.Set("Content-Type", contentType)
	return f.Do(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func testClient(fake *fakeHTTP) *Client {
	return NewClient(config.CMSConfig{
		APIBaseURL: "https://cms.example/v2",
		RelayURL:   "https://relay.example/proxy",
		APIToken:   "tok",
	}, fake)
}

func TestListItemsGoesThroughRelay(t *testing.T) {
	fake := &fakeHTTP{responses: []*http.Response{
		jsonResponse(200, `{"items":[{"id":"a","slug":"a","fieldData":{"name":"A"}}],"pagination":{"total":1}}`),
	}}
	client := testClient(fake)

	items, total, err := client.ListItems(context.Background(), "coll-1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)

	// Reads are relayed with the target URL-encoded
	require.Len(t, fake.requests, 1)
	got := fake.requests[0].URL
	assert.Equal(t, "relay.example", got.Host)
	assert.Equal(t, "https://cms.example/v2/collections/coll-1/items?limit=10&offset=0", got.Query().Get("url"))
	assert.Equal(t, "Bearer tok", fake.requests[0].Header.Get("Authorization"))
}

func TestCreateItemWritesDirectly(t *testing.T) {
	fake := &fakeHTTP{responses: []*http.Response{
		jsonResponse(202, `{"id":"item-1","slug":"summer-launch","fieldData":{"name":"Summer Launch"}}`),
	}}
	client := testClient(fake)

	item, err := client.CreateItem(context.Background(), "coll-1", "key-1", map[string]interface{}{
		"name": "Sömmer Läunch",
	})
	require.NoError(t, err)
	assert.Equal(t, "item-1", item.ID)

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "cms.example", req.URL.Host)
	assert.Equal(t, "key-1", req.Header.Get("Idempotency-Key"))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	// Slug derived from the name, umlauts transliterated
	assert.Contains(t, string(body), `"slug":"soemmer-laeunch"`)
}

func TestCallClassifiesUpstreamRejection(t *testing.T) {
	fake := &fakeHTTP{responses: []*http.Response{
		jsonResponse(400, `{"message":"ValidationError"}`),
	}}
	client := testClient(fake)

	_, _, err := client.ListItems(context.Background(), "coll-1", 10, 0)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrUpstreamRejection))

	ue, ok := apperrors.AsUpstream(err)
	require.True(t, ok)
	assert.Equal(t, 400, ue.StatusCode)
	assert.Contains(t, ue.Detail, "ValidationError")
}

func TestFetchOptionTablePaginates(t *testing.T) {
	fake := &fakeHTTP{responses: []*http.Response{
		jsonResponse(200, `{"items":[{"id":"c1","fieldData":{"name":"Design"}}],"pagination":{"total":2}}`),
		jsonResponse(200, `{"items":[{"id":"c2","fieldData":{"name":"Video"}}],"pagination":{"total":2}}`),
	}}
	client := testClient(fake)

	table, err := client.FetchOptionTable(context.Background(), "coll-cats")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Design": "c1", "Video": "c2"}, table)
	assert.Len(t, fake.requests, 2)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Summer Launch", "summer-launch"},
		{"Sömmer Läunch!", "soemmer-laeunch"},
		{"  --Weird   input-- ", "weird-input"},
		{"Große Kampagne 2026", "grosse-kampagne-2026"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}
