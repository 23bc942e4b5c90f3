package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/sysengio/wysechat/internal/auth"
	"github.com/sysengio/wysechat/internal/service/synthesis"
)

type stubGenerator struct {
	response string
	err      error
	calls    int
}

func (s *stubGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func setupRouter(generator *stubGenerator) (http.Handler, *synthesis.Engine) {
	sessions := auth.NewManager(
		auth.Credentials{Username: "alice", Password: "correct-pw"},
		auth.NewMemoryStore(),
	)
	engine := synthesis.NewEngine(generator, nil, false)
	return NewRouter(sessions, engine), engine
}

func postForm(t *testing.T, router http.Handler, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func login(t *testing.T, router http.Handler, username, password string) []*http.Cookie {
	t.Helper()
	resp := postForm(t, router, "/login", url.Values{
		"username": {username},
		"password": {password},
	}, nil)
	if resp.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 after login, got %d", resp.Code)
	}
	if loc := resp.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}
	return resp.Result().Cookies()
}

func TestLoginValidCredentials(t *testing.T) {
	router, _ := setupRouter(&stubGenerator{})
	cookies := login(t, router, "alice", "correct-pw")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 on chat page after login, got %d", resp.Code)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	router, _ := setupRouter(&stubGenerator{})
	resp := postForm(t, router, "/login", url.Values{
		"username": {"alice"},
		"password": {"wrong-pw"},
	}, nil)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected re-rendered login page with 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Invalid username or password") {
		t.Fatal("expected error message on login page")
	}

	// The session must remain unauthenticated: protected routes redirect.
	chat := postForm(t, router, "/", url.Values{"prompt": {"anything"}}, resp.Result().Cookies())
	if chat.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 for unauthenticated POST, got %d", chat.Code)
	}
}

func TestUnauthenticatedPostRedirectsToLogin(t *testing.T) {
	router, _ := setupRouter(&stubGenerator{})
	resp := postForm(t, router, "/", url.Values{"prompt": {"design a pump system"}}, nil)

	if resp.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.Code)
	}
	if loc := resp.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestAuthenticatedPromptRendersResponse(t *testing.T) {
	generator := &stubGenerator{response: "Here is a pump system design for your review."}
	router, _ := setupRouter(generator)
	cookies := login(t, router, "alice", "correct-pw")

	resp := postForm(t, router, "/", url.Values{
		"prompt": {"Create a system design for a pump system"},
	}, cookies)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), generator.response) {
		t.Fatal("expected generated text in rendered page")
	}
}

func TestEmptyPromptNeverReachesGenerator(t *testing.T) {
	generator := &stubGenerator{response: "unused"}
	router, _ := setupRouter(generator)
	cookies := login(t, router, "alice", "correct-pw")

	resp := postForm(t, router, "/", url.Values{"prompt": {"   \t  "}}, cookies)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if generator.calls != 0 {
		t.Fatalf("generator invoked %d times for blank prompt", generator.calls)
	}
}

func TestUpstreamFailureShowsGenericMessage(t *testing.T) {
	generator := &stubGenerator{err: errors.New("connection reset by upstream")}
	router, _ := setupRouter(generator)
	cookies := login(t, router, "alice", "correct-pw")

	resp := postForm(t, router, "/", url.Values{
		"prompt": {"Create system requirements for a pump system"},
	}, cookies)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 even on upstream failure, got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, "Could not generate a response") {
		t.Fatal("expected generic failure message")
	}
	if strings.Contains(body, "connection reset") {
		t.Fatal("upstream error detail leaked into the page")
	}
}

func TestLogoutDropsConversation(t *testing.T) {
	generator := &stubGenerator{response: "### SR-001: Range\nThe drone shall fly 10 km."}
	router, engine := setupRouter(generator)
	cookies := login(t, router, "alice", "correct-pw")

	var sessionID string
	for _, cookie := range cookies {
		if cookie.Name == auth.CookieName {
			sessionID = cookie.Value
		}
	}
	if sessionID == "" {
		t.Fatal("login issued no session cookie")
	}

	resp := postForm(t, router, "/", url.Values{
		"prompt": {"Create system requirements for a drone"},
	}, cookies)
	if resp.Code != http.StatusOK {
		t.Fatalf("seed prompt failed: %d", resp.Code)
	}
	if engine.Topic(sessionID) != "a drone" {
		t.Fatalf("expected conversation for session, got topic %q", engine.Topic(sessionID))
	}

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	router.ServeHTTP(httptest.NewRecorder(), req)

	if topic := engine.Topic(sessionID); topic != "" {
		t.Fatalf("conversation survived logout: topic %q still held for dead session", topic)
	}
}

func TestArtifactResponseIsEscaped(t *testing.T) {
	generator := &stubGenerator{response: `### SR-001: Safety <script>alert(1)</script>`}
	router, _ := setupRouter(generator)
	cookies := login(t, router, "alice", "correct-pw")

	resp := postForm(t, router, "/", url.Values{
		"prompt": {"Create system requirements for a pump system"},
	}, cookies)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Fatal("model output rendered unescaped")
	}
	if !strings.Contains(body, "&lt;script&gt;alert(1)&lt;/script&gt;") {
		t.Fatal("expected escaped model output in page")
	}
}

func TestTraceabilityMatrixRendersAsTable(t *testing.T) {
	generator := &stubGenerator{response: "### SR-001: Range\nThe drone shall fly 10 km."}
	router, _ := setupRouter(generator)
	cookies := login(t, router, "alice", "correct-pw")

	seed := postForm(t, router, "/", url.Values{
		"prompt": {"Create system requirements for a drone"},
	}, cookies)
	if seed.Code != http.StatusOK {
		t.Fatalf("seed prompt failed: %d", seed.Code)
	}

	resp := postForm(t, router, "/", url.Values{
		"prompt": {"show the traceability matrix"},
	}, cookies)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "<table") {
		t.Fatal("expected the matrix table rendered as markup, not escaped text")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	router, _ := setupRouter(&stubGenerator{})
	cookies := login(t, router, "alice", "correct-pw")

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 after logout, got %d", resp.Code)
	}

	chat := postForm(t, router, "/", url.Values{"prompt": {"anything"}}, cookies)
	if chat.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 after logout for protected route, got %d", chat.Code)
	}
}
