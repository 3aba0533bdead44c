package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RishiKendai/aegis-console/internal/auth"
	"github.com/RishiKendai/aegis-console/internal/config"
	"github.com/RishiKendai/aegis-console/internal/models"
	"github.com/RishiKendai/aegis-console/internal/plagiarism"
	"github.com/RishiKendai/aegis-console/internal/scanner"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	testIssuer = "aegis"
)

type stubScanner struct {
	mu      sync.Mutex
	tokens  []string
	results []models.PlagiarismResult
	err     error
	release chan struct{}
}

func (s *stubScanner) Scan(ctx context.Context, classID, token string) ([]models.PlagiarismResult, error) {
	s.mu.Lock()
	s.tokens = append(s.tokens, token)
	release := s.release
	s.mu.Unlock()

	if release != nil {
		<-release
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results, s.err
}

func (s *stubScanner) seenTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tokens...)
}

type stubCounter map[string]int64

func (s stubCounter) CountAssignmentsByClassID(ctx context.Context, classID string) (int64, error) {
	return s[classID], nil
}

type testEnv struct {
	router   *gin.Engine
	registry *Registry
	scanner  *stubScanner
	redis    *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	pool := plagiarism.NewWorkerPool(ctx, 2)
	t.Cleanup(func() {
		pool.Close()
		cancel()
	})

	sc := &stubScanner{}
	registry := NewRegistry(time.Hour)
	handler := NewHandler(
		registry,
		sc,
		auth.NewRedisTokenStore(client, "scanner_token:", time.Hour),
		stubCounter{"class-1": 1, "class-2": 2},
		plagiarism.NewRedisStatusPublisher(client, "plagiarism_scan_status:", time.Hour),
		pool,
		plagiarism.NewBoard(),
	)

	cfg := &config.Config{JWTSecret: testSecret, JWTIssuer: testIssuer, RateLimitRPS: 1000}
	return &testEnv{
		router:   SetupRoutes(cfg, handler),
		registry: registry,
		scanner:  sc,
		redis:    mr,
	}
}

func bearer(t *testing.T, viewer models.Viewer) string {
	t.Helper()
	tok, err := auth.SignViewer(viewer, testSecret, testIssuer, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) mount(t *testing.T, classID, token string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/classes/"+classID+"/sessions", token, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.MountSessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func (e *testEnv) session(t *testing.T, id, token string) models.SessionResponse {
	t.Helper()
	w := e.do(t, http.MethodGet, "/api/v1/sessions/"+id, token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

var (
	lecturerViewer = models.Viewer{ID: "lect-1", Role: models.RoleLecturer}
	studentViewer  = models.Viewer{ID: "A", Role: models.RoleStudent}
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/classes/class-1/sessions", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/classes/class-1/sessions", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMountStoresCredential(t *testing.T) {
	env := newTestEnv(t)
	tok := bearer(t, lecturerViewer)

	env.mount(t, "class-1", tok)

	stored, err := env.redis.Get("scanner_token:lect-1")
	require.NoError(t, err)
	assert.Equal(t, tok, stored)
	assert.Equal(t, 1, env.registry.Len())
}

func TestGetSession_CanCheckGate(t *testing.T) {
	env := newTestEnv(t)
	lect := bearer(t, lecturerViewer)
	stud := bearer(t, studentViewer)

	one := env.mount(t, "class-1", lect)
	two := env.mount(t, "class-2", lect)
	studentTwo := env.mount(t, "class-2", stud)

	assert.False(t, env.session(t, one, lect).CanCheckPlagiarism)
	assert.True(t, env.session(t, two, lect).CanCheckPlagiarism)
	assert.False(t, env.session(t, studentTwo, stud).CanCheckPlagiarism)

	got := env.session(t, two, lect)
	assert.Equal(t, "idle", got.Phase)
	assert.False(t, got.IsChecking)
	assert.NotNil(t, got.Results)
}

func TestSessionOwnership(t *testing.T) {
	env := newTestEnv(t)
	id := env.mount(t, "class-2", bearer(t, lecturerViewer))

	other := bearer(t, models.Viewer{ID: "lect-2", Role: models.RoleLecturer})
	w := env.do(t, http.MethodGet, "/api/v1/sessions/"+id, other, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/sessions/does-not-exist", other, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTriggerScan_Lecturer(t *testing.T) {
	env := newTestEnv(t)
	env.scanner.release = make(chan struct{})
	env.scanner.results = []models.PlagiarismResult{
		{Student1ID: "A", Student2ID: "B", SimilarityPercentage: models.Percent(92), RiskLevel: models.RiskHigh},
		{Student1ID: "C", Student2ID: "D", SimilarityPercentage: models.Percent(10), RiskLevel: models.RiskLow},
	}

	lect := bearer(t, lecturerViewer)
	id := env.mount(t, "class-2", lect)

	w := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/scan", lect, "")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.JSONEq(t, `{"phase":"running","isChecking":true}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/scan", lect, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/classes/class-2/scan-status", lect, "")
	assert.JSONEq(t, `{"classId":"class-2","phase":"running"}`, w.Body.String())

	close(env.scanner.release)
	require.Eventually(t, func() bool {
		return env.session(t, id, lect).Phase == "succeeded"
	}, 2*time.Second, 10*time.Millisecond)

	got := env.session(t, id, lect)
	assert.True(t, got.ModalVisible)
	assert.Len(t, got.Results, 2)
	assert.Equal(t, []string{lect}, env.scanner.seenTokens())

	w = env.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/stats", lect, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"totalPairs": 2,
		"riskLevels": {"VERY_HIGH": 0, "HIGH": 1, "MEDIUM": 0, "LOW": 1},
		"averageSimilarity": 51,
		"maxSimilarity": 92
	}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/modal/close", lect, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	got = env.session(t, id, lect)
	assert.False(t, got.ModalVisible)
	assert.Len(t, got.Results, 2)
}

func TestTriggerScan_StudentIsNoop(t *testing.T) {
	env := newTestEnv(t)
	stud := bearer(t, studentViewer)
	id := env.mount(t, "class-2", stud)

	w := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/scan", stud, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"phase":"idle","isChecking":false}`, w.Body.String())
	assert.Empty(t, env.scanner.seenTokens())
}

func TestTriggerScan_FailureNotification(t *testing.T) {
	env := newTestEnv(t)
	env.scanner.err = &scanner.ScanRequestError{StatusCode: http.StatusBadRequest, Detail: "Not enough submissions"}

	lect := bearer(t, lecturerViewer)
	id := env.mount(t, "class-2", lect)

	w := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/scan", lect, "")
	require.Contains(t, []int{http.StatusAccepted, http.StatusOK}, w.Code)

	require.Eventually(t, func() bool {
		return env.session(t, id, lect).Phase == "failed"
	}, 2*time.Second, 10*time.Millisecond)

	got := env.session(t, id, lect)
	assert.False(t, got.ModalVisible)
	assert.Empty(t, got.Results)

	w = env.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/notifications", lect, "")
	require.Equal(t, http.StatusOK, w.Code)

	var notes []plagiarism.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "Not enough submissions", notes[0].Message)

	w = env.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/notifications", lect, "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func (e *testEnv) viewerStatus(t *testing.T, id, token string) *plagiarism.ViewerStatus {
	t.Helper()
	w := e.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/viewer-status", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var status *plagiarism.ViewerStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	return status
}

func TestViewerStatus_BeforeAnyScan(t *testing.T) {
	env := newTestEnv(t)
	lect := bearer(t, lecturerViewer)
	stud := bearer(t, studentViewer)
	lectID := env.mount(t, "class-2", lect)
	studID := env.mount(t, "class-2", stud)

	assert.Nil(t, env.viewerStatus(t, studID, stud))

	w := env.do(t, http.MethodPut, "/api/v1/sessions/"+lectID+"/student-view", lect, `{"enabled":true}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	status := env.viewerStatus(t, studID, stud)
	require.NotNil(t, status)
	assert.Equal(t, plagiarism.VerdictClear, status.Verdict)

	w = env.do(t, http.MethodPut, "/api/v1/sessions/"+lectID+"/student-view", lect, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestViewerStatus_AfterLecturerScan(t *testing.T) {
	tests := []struct {
		name    string
		results []models.PlagiarismResult
		verdict plagiarism.Verdict
		max     float64
	}{
		{
			name: "high risk pair warns",
			results: []models.PlagiarismResult{
				{Student1ID: "A", Student2ID: "B", SimilarityPercentage: models.Percent(92), RiskLevel: models.RiskHigh},
				{Student1ID: "C", Student2ID: "D", SimilarityPercentage: models.Percent(99), RiskLevel: models.RiskVeryHigh},
			},
			verdict: plagiarism.VerdictWarning,
			max:     92,
		},
		{
			name: "low risk pair is minor",
			results: []models.PlagiarismResult{
				{Student1ID: "B", Student2ID: "A", SimilarityPercentage: models.Percent(35.5), RiskLevel: models.RiskLow},
			},
			verdict: plagiarism.VerdictMinor,
			max:     35.5,
		},
		{
			name: "uninvolved student is clear",
			results: []models.PlagiarismResult{
				{Student1ID: "C", Student2ID: "D", SimilarityPercentage: models.Percent(95), RiskLevel: models.RiskVeryHigh},
			},
			verdict: plagiarism.VerdictClear,
			max:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.scanner.results = tt.results

			lect := bearer(t, lecturerViewer)
			stud := bearer(t, studentViewer)
			lectID := env.mount(t, "class-2", lect)

			w := env.do(t, http.MethodPost, "/api/v1/sessions/"+lectID+"/scan", lect, "")
			require.Contains(t, []int{http.StatusAccepted, http.StatusOK}, w.Code)
			require.Eventually(t, func() bool {
				return env.session(t, lectID, lect).Phase == "succeeded"
			}, 2*time.Second, 10*time.Millisecond)

			w = env.do(t, http.MethodPut, "/api/v1/sessions/"+lectID+"/student-view", lect, `{"enabled":true}`)
			require.Equal(t, http.StatusNoContent, w.Code)

			studID := env.mount(t, "class-2", stud)
			assert.True(t, env.session(t, studID, stud).StudentViewEnabled)

			status := env.viewerStatus(t, studID, stud)
			require.NotNil(t, status)
			assert.Equal(t, tt.verdict, status.Verdict)
			assert.Equal(t, tt.max, status.MaxSimilarity)

			assert.Nil(t, env.viewerStatus(t, lectID, lect))
		})
	}
}

func TestViewerStatus_LecturerCanWithdraw(t *testing.T) {
	env := newTestEnv(t)
	env.scanner.results = []models.PlagiarismResult{
		{Student1ID: "A", Student2ID: "B", SimilarityPercentage: models.Percent(92), RiskLevel: models.RiskHigh},
	}

	lect := bearer(t, lecturerViewer)
	stud := bearer(t, studentViewer)
	lectID := env.mount(t, "class-2", lect)
	studID := env.mount(t, "class-2", stud)

	env.do(t, http.MethodPost, "/api/v1/sessions/"+lectID+"/scan", lect, "")
	require.Eventually(t, func() bool {
		return env.session(t, lectID, lect).Phase == "succeeded"
	}, 2*time.Second, 10*time.Millisecond)

	env.do(t, http.MethodPut, "/api/v1/sessions/"+lectID+"/student-view", lect, `{"enabled":true}`)
	require.NotNil(t, env.viewerStatus(t, studID, stud))

	env.do(t, http.MethodPut, "/api/v1/sessions/"+lectID+"/student-view", lect, `{"enabled":false}`)
	assert.Nil(t, env.viewerStatus(t, studID, stud))
}

func TestSetStudentView_StudentForbidden(t *testing.T) {
	env := newTestEnv(t)
	stud := bearer(t, studentViewer)
	id := env.mount(t, "class-2", stud)

	w := env.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/student-view", stud, `{"enabled":true}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.False(t, env.session(t, id, stud).StudentViewEnabled)
	assert.Nil(t, env.viewerStatus(t, id, stud))
}

func TestUnmountSession(t *testing.T) {
	env := newTestEnv(t)
	lect := bearer(t, lecturerViewer)
	id := env.mount(t, "class-2", lect)

	w := env.do(t, http.MethodDelete, "/api/v1/sessions/"+id, lect, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, env.registry.Len())

	w = env.do(t, http.MethodGet, "/api/v1/sessions/"+id, lect, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ctxViewerKey, lecturerViewer)
		c.Next()
	})
	router.Use(RateLimitMiddleware(NewRateLimiter(1, 1)))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
