package memberstack

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
	}
}

func testClient(fake *fakeHTTP) *Client {
	return NewClient(config.MembershipConfig{
		WorkerURL: "https://members.example",
		AuthToken: "tok",
	}, fake)
}

func TestGetMemberParsesCustomFields(t *testing.T) {
	fake := &fakeHTTP{responses: []*http.Response{
		jsonResponse(200, `{
			"id": "mem-1",
			"auth": {"email": "a@b.c"},
			"customFields": {"name": "Alex", "plan": "pro", "credits": "4"}
		}`),
	}}
	client := testClient(fake)

	member, err := client.GetMember(context.Background(), "mem-1")
	require.NoError(t, err)
	assert.Equal(t, "mem-1", member.ID)
	assert.Equal(t, "a@b.c", member.Auth.Email)
	assert.Equal(t, "Alex", member.Name())
	assert.Equal(t, "pro", member.Plan())

	// Credits arrive as a numeric string
	assert.Equal(t, 4, member.Credits())
}

func TestGetMemberCreditsAsNumber(t *testing.T) {
	fake := &fakeHTTP{responses: []*http.Response{
		jsonResponse(200, `{"id":"mem-1","customFields":{"credits": 7}}`),
	}}
	client := testClient(fake)

	member, err := client.GetMember(context.Background(), "mem-1")
	require.NoError(t, err)
	assert.Equal(t, 7, member.Credits())
}

func TestGetMemberNotFound(t *testing.T) {
	fake := &fakeHTTP{responses: []*http.Response{
		jsonResponse(404, `{"error":"no such member"}`),
	}}
	client := testClient(fake)

	_, err := client.GetMember(context.Background(), "mem-x")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestAdjustCreditsDoesNotRetry(t *testing.T) {
	// A 500 would normally be retried, but credit adjustments are not
	// idempotency-keyed, so one attempt only
	fake := &fakeHTTP{responses: []*http.Response{
		jsonResponse(500, `{"error":"boom"}`),
	}}
	client := testClient(fake)

	err := client.AdjustCredits(context.Background(), "mem-1", -1)
	require.Error(t, err)
	assert.Len(t, fake.requests, 1)
}
