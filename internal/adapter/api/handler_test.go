package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"localore/internal/domain/entity"
	"localore/internal/usecase"
)

type stubProvider struct {
	text string
	err  error
}

func (s *stubProvider) Generate(context.Context, entity.ModelConfig, []entity.Turn) (*entity.GenerationResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &entity.GenerationResult{Text: s.text, Finish: entity.FinishComplete}, nil
}

type stubLimiter struct {
	allow bool
}

func (s *stubLimiter) Admit(string) bool { return s.allow }

type stubStats struct {
	keywords []entity.KeywordCount
	daily    []entity.DailyCount
	genres   []string
}

func (s *stubStats) RecordKeyword(context.Context, string, string) error { return nil }

func (s *stubStats) RankKeywords(context.Context, string, int, string) ([]entity.KeywordCount, error) {
	return s.keywords, nil
}

func (s *stubStats) DailyCounts(context.Context, int) ([]entity.DailyCount, error) {
	return s.daily, nil
}

func (s *stubStats) ListGenres(context.Context) ([]string, error) { return s.genres, nil }

type stubSessions struct {
	mu     sync.Mutex
	tokens map[string]bool
}

func newStubSessions() *stubSessions {
	return &stubSessions{tokens: make(map[string]bool)}
}

func (s *stubSessions) Create(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := fmt.Sprintf("tok-%d", len(s.tokens)+1)
	s.tokens[token] = true
	return token, nil
}

func (s *stubSessions) Validate(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[token], nil
}

func (s *stubSessions) Destroy(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

func triviaText() string { return strings.Repeat("x", 85) }

func newTestApp(provider *stubProvider, allow bool, admin *AdminHandler) *fiber.App {
	var gen *usecase.Generator
	if provider != nil {
		gen = usecase.NewGenerator(
			provider,
			usecase.NewPromptBuilder("Hokkaido, Japan"),
			[]entity.ModelConfig{{Name: "m1", MaxOutputTokens: 256}},
			zerolog.Nop(),
		)
	}
	svc := usecase.NewTriviaService(&stubLimiter{allow: allow}, gen, nil, nil, &stubStats{}, nil, zerolog.Nop())

	app := fiber.New()
	SetupRouter(app, NewTriviaHandler(svc), admin, "test")
	return app
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, resp *http.Response) (string, string) {
	t.Helper()
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("error response is not an error envelope: %s", raw)
	}
	return envelope.Error.Code, envelope.Error.Message
}

func TestTriviaEndpoint(t *testing.T) {
	app := newTestApp(&stubProvider{text: triviaText()}, true, nil)

	resp, err := app.Test(postJSON("/v1/trivia", `{"keyword":"ramen"}`), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Localore-Cache"); got != "miss" {
		t.Errorf("X-Localore-Cache = %q, want miss", got)
	}

	var body struct {
		Trivia    string    `json:"trivia"`
		Keyword   string    `json:"keyword"`
		Model     string    `json:"model"`
		Retries   int       `json:"retries"`
		CreatedAt time.Time `json:"createdAt"`
	}
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("response is not valid JSON: %s", raw)
	}
	if body.Trivia != triviaText() || body.Keyword != "ramen" || body.Model != "m1" {
		t.Errorf("unexpected body: %+v", body)
	}
	if body.CreatedAt.IsZero() {
		t.Error("createdAt missing from response")
	}
}

func TestTriviaRejectsBadBody(t *testing.T) {
	app := newTestApp(&stubProvider{text: triviaText()}, true, nil)

	resp, err := app.Test(postJSON("/v1/trivia", `{"keyword":`), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if code, _ := decodeError(t, resp); code != "validation_error" {
		t.Errorf("code = %q, want validation_error", code)
	}
}

func TestTriviaRejectsEmptyKeyword(t *testing.T) {
	app := newTestApp(&stubProvider{text: triviaText()}, true, nil)

	resp, err := app.Test(postJSON("/v1/trivia", `{"keyword":"  "}`), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	code, msg := decodeError(t, resp)
	if code != "validation_error" || !strings.Contains(msg, "keyword") {
		t.Errorf("unexpected envelope: %s %s", code, msg)
	}
}

func TestTriviaRateLimited(t *testing.T) {
	app := newTestApp(&stubProvider{text: triviaText()}, false, nil)

	resp, err := app.Test(postJSON("/v1/trivia", `{"keyword":"ramen"}`), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if code, _ := decodeError(t, resp); code != "rate_limited" {
		t.Errorf("code = %q, want rate_limited", code)
	}
}

func TestTriviaWithoutProviderConfig(t *testing.T) {
	app := newTestApp(nil, true, nil)

	resp, err := app.Test(postJSON("/v1/trivia", `{"keyword":"ramen"}`), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	if code, _ := decodeError(t, resp); code != "config_error" {
		t.Errorf("code = %q, want config_error", code)
	}
}

func TestTriviaGenerationFailure(t *testing.T) {
	app := newTestApp(&stubProvider{err: errors.New("provider down")}, true, nil)

	resp, err := app.Test(postJSON("/v1/trivia", `{"keyword":"ramen"}`), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	if code, _ := decodeError(t, resp); code != "generation_failed" {
		t.Errorf("code = %q, want generation_failed", code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(&stubProvider{text: triviaText()}, true, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), "healthy") {
		t.Errorf("unexpected health body: %s", raw)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(&stubProvider{text: triviaText()}, true, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), "localore_corrections_total") {
		t.Error("metrics exposition should carry the localore namespace")
	}
}

func TestAdminRoutesAbsentWithoutHandler(t *testing.T) {
	app := newTestApp(&stubProvider{text: triviaText()}, true, nil)

	resp, err := app.Test(postJSON("/v1/admin/login", `{"password":"x"}`), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("admin routes should not exist without a handler, status = %d", resp.StatusCode)
	}
}

func newAdminApp(t *testing.T, stats *stubStats) (*fiber.App, *stubSessions) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	sessions := newStubSessions()
	admin := NewAdminHandler(hash, sessions, stats, zerolog.Nop())
	return newTestApp(&stubProvider{text: triviaText()}, true, admin), sessions
}

func login(t *testing.T, app *fiber.App, password string) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(postJSON("/v1/admin/login", fmt.Sprintf(`{"password":%q}`, password)), -1)
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == sessionCookie {
			return resp, ck.Value
		}
	}
	return resp, ""
}

func TestAdminLogin(t *testing.T) {
	app, _ := newAdminApp(t, &stubStats{})

	resp, token := login(t, app, "s3cret")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if token == "" {
		t.Fatal("login should set a session cookie")
	}

	var body struct {
		Token string `json:"token"`
	}
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &body); err != nil || body.Token != token {
		t.Errorf("login body should return the cookie token, got %s", raw)
	}
}

func TestAdminLoginWrongPassword(t *testing.T) {
	app, _ := newAdminApp(t, &stubStats{})

	resp, token := login(t, app, "nope")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if token != "" {
		t.Error("failed login must not set a session cookie")
	}
}

func TestAdminKeywordsRequiresSession(t *testing.T) {
	app, _ := newAdminApp(t, &stubStats{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/admin/keywords", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if code, _ := decodeError(t, resp); code != "unauthorized" {
		t.Errorf("code = %q, want unauthorized", code)
	}
}

func TestAdminKeywordsWithSession(t *testing.T) {
	stats := &stubStats{keywords: []entity.KeywordCount{
		{Keyword: "ramen", Count: 12, Genre: "food"},
		{Keyword: "snow festival", Count: 7, Genre: "events"},
	}}
	app, _ := newAdminApp(t, stats)

	_, token := login(t, app, "s3cret")

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/keywords?period=7d&limit=10", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Period   string                `json:"period"`
		Keywords []entity.KeywordCount `json:"keywords"`
	}
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("bad body: %s", raw)
	}
	if body.Period != "7d" || len(body.Keywords) != 2 || body.Keywords[0].Keyword != "ramen" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestAdminKeywordsBearerToken(t *testing.T) {
	app, _ := newAdminApp(t, &stubStats{})

	_, token := login(t, app, "s3cret")

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/keywords", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("bearer token should authenticate, status = %d", resp.StatusCode)
	}
}

func TestAdminKeywordsValidation(t *testing.T) {
	app, _ := newAdminApp(t, &stubStats{})
	_, token := login(t, app, "s3cret")

	for _, query := range []string{"period=fortnight", "limit=0", "limit=101", "genre=sports"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/admin/keywords?"+query, nil)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("query %q: status = %d, want 400", query, resp.StatusCode)
		}
	}
}

func TestAdminLogoutDestroysSession(t *testing.T) {
	app, sessions := newAdminApp(t, &stubStats{})
	_, token := login(t, app, "s3cret")

	req := postJSON("/v1/admin/logout", "")
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if ok, _ := sessions.Validate(context.Background(), token); ok {
		t.Error("logout should destroy the session")
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/admin/keywords", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("destroyed session should be rejected, status = %d", resp.StatusCode)
	}
}

func TestAdminDaily(t *testing.T) {
	stats := &stubStats{daily: []entity.DailyCount{
		{Date: "2026-02-10", Count: 4},
		{Date: "2026-02-11", Count: 9},
	}}
	app, _ := newAdminApp(t, stats)
	_, token := login(t, app, "s3cret")

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/daily?days=2", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Days []entity.DailyCount `json:"days"`
	}
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("bad body: %s", raw)
	}
	if len(body.Days) != 2 || body.Days[1].Count != 9 {
		t.Errorf("unexpected body: %+v", body)
	}
}
