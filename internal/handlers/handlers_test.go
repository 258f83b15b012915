package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/creatorjobs/creatorjobs-api/internal/middleware"
	"github.com/creatorjobs/creatorjobs-api/internal/models"
	apperrors "github.com/creatorjobs/creatorjobs-api/pkg/errors"
	"github.com/creatorjobs/creatorjobs-api/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPublisher struct {
	resp *models.PublishResponse
	err  error

	gotReq     *models.PublishRequest
	gotSession *models.MemberSession
}

func (s *stubPublisher) Publish(_ context.Context, req *models.PublishRequest, session *models.MemberSession) (*models.PublishResponse, error) {
	s.gotReq = req
	s.gotSession = session
	return s.resp, s.err
}

type stubJobs struct {
	list   *models.JobList
	job    *models.Job
	batch  []*models.Job
	member []*models.MemberJob
	err    error
}

func (s *stubJobs) List(context.Context, *models.JobFilter, int, int) (*models.JobList, error) {
	return s.list, s.err
}

func (s *stubJobs) GetJob(context.Context, string) (*models.Job, error) {
	return s.job, s.err
}

func (s *stubJobs) GetJobsByIDs(context.Context, []string) ([]*models.Job, error) {
	return s.batch, s.err
}

func (s *stubJobs) MemberJobs(context.Context, string) ([]*models.MemberJob, error) {
	return s.member, s.err
}

func withSession(session *models.MemberSession) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.SessionContextKey, session)
		c.Next()
	}
}

func publishBody(t *testing.T) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(models.PublishRequest{
		Fields:         map[string]interface{}{"project-name": "Summer Launch"},
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestPublishRequiresSession(t *testing.T) {
	router := gin.New()
	router.POST("/publish", NewPublishHandler(&stubPublisher{}).Publish)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/publish", publishBody(t))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPublishRejectsBadBody(t *testing.T) {
	router := gin.New()
	session := &models.MemberSession{MemberRef: "mem-1"}
	router.POST("/publish", withSession(session), NewPublishHandler(&stubPublisher{}).Publish)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/publish", bytes.NewReader([]byte("{not json")))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublishSuccess(t *testing.T) {
	stub := &stubPublisher{resp: &models.PublishResponse{
		Success:        true,
		Stage:          models.StageDone,
		CMSItemID:      "item-1",
		IdempotencyKey: "key-1",
	}}
	session := &models.MemberSession{MemberRef: "mem-1"}

	router := gin.New()
	router.POST("/publish", withSession(session), NewPublishHandler(stub).Publish)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/publish", publishBody(t))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, stub.gotSession)
	assert.Equal(t, "mem-1", stub.gotSession.MemberRef)
	assert.Equal(t, "key-1", stub.gotReq.IdempotencyKey)

	var resp models.PublishResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "item-1", resp.CMSItemID)
}

func TestPublishReplayAnswers200(t *testing.T) {
	stub := &stubPublisher{resp: &models.PublishResponse{
		Success:  true,
		Replayed: true,
		Stage:    models.StageDone,
	}}
	router := gin.New()
	router.POST("/publish", withSession(&models.MemberSession{MemberRef: "mem-1"}), NewPublishHandler(stub).Publish)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/publish", publishBody(t)))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPublishPartialSuccessAnswers200(t *testing.T) {
	stub := &stubPublisher{
		resp: &models.PublishResponse{Success: true, Partial: true, Stage: models.StageDone},
		err:  apperrors.PartialSuccessError("linking", "tx=key-1", errors.New("boom")),
	}
	router := gin.New()
	router.POST("/publish", withSession(&models.MemberSession{MemberRef: "mem-1"}), NewPublishHandler(stub).Publish)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/publish", publishBody(t)))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.PublishResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Partial)
}

func TestPublishValidationFailureAnswers400(t *testing.T) {
	stub := &stubPublisher{
		resp: &models.PublishResponse{Success: false, Stage: models.StageFailed},
		err:  apperrors.LocalValidationError("project-name", "required field is missing"),
	}
	router := gin.New()
	router.POST("/publish", withSession(&models.MemberSession{MemberRef: "mem-1"}), NewPublishHandler(stub).Publish)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/publish", publishBody(t)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublishUpstreamFailureAnswers502(t *testing.T) {
	stub := &stubPublisher{
		resp: &models.PublishResponse{Success: false, Stage: models.StageFailed},
		err:  apperrors.Upstream("cms", "create_item", 500, "boom"),
	}
	router := gin.New()
	router.POST("/publish", withSession(&models.MemberSession{MemberRef: "mem-1"}), NewPublishHandler(stub).Publish)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/publish", publishBody(t)))

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestJobsList(t *testing.T) {
	stub := &stubJobs{list: &models.JobList{
		Jobs:  []*models.Job{{ID: "1", Name: "Job"}},
		Total: 1,
	}}
	router := gin.New()
	router.GET("/jobs", NewJobsHandler(stub).List)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs?category=Design&limit=10", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var list models.JobList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
}

func TestJobsGetNotFound(t *testing.T) {
	stub := &stubJobs{err: apperrors.NotFoundError("item x")}
	router := gin.New()
	router.GET("/jobs/:id", NewJobsHandler(stub).Get)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs/x", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJobsBatchValidation(t *testing.T) {
	router := gin.New()
	router.GET("/jobs/batch", NewJobsHandler(&stubJobs{}).Batch)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs/batch", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs/batch?ids=,,", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMemberJobsRequiresSession(t *testing.T) {
	router := gin.New()
	router.GET("/members/me/jobs", NewJobsHandler(&stubJobs{}).MemberJobs)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/members/me/jobs", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenAuthMiddleware(t *testing.T) {
	router := gin.New()
	router.GET("/guarded", middleware.TokenAuth("secret-token"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMemberSessionMiddleware(t *testing.T) {
	tm := jwt.NewTokenManager("test-secret", "creatorjobs-api", 1)
	token, err := tm.GenerateToken("mem-1", "a@b.c", "Alex", "pro")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", middleware.MemberSession(tm), func(c *gin.Context) {
		session := middleware.SessionFromContext(c)
		require.NotNil(t, session)
		c.JSON(http.StatusOK, session)
	})

	// Via cookie
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var session models.MemberSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	assert.Equal(t, "mem-1", session.MemberRef)

	// Via bearer header
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Garbage token
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// No credentials at all
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthcheck(t *testing.T) {
	router := gin.New()
	router.GET("/api/healthcheck", NewHealthHandler("1.0.0").Healthcheck)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/healthcheck", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
