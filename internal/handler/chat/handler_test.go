package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sysengio/wysechat/internal/auth"
	"github.com/sysengio/wysechat/internal/service/synthesis"
)

type stubGenerator struct {
	response string
	err      error
}

func (s *stubGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func setupRouter(generator *stubGenerator) *chi.Mux {
	sessions := auth.NewManager(
		auth.Credentials{Username: "alice", Password: "correct-pw"},
		auth.NewMemoryStore(),
	)
	engine := synthesis.NewEngine(generator, nil, false)
	handler := New(engine, sessions)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func postJSON(t *testing.T, r http.Handler, path string, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestChatAPIReturnsResult(t *testing.T) {
	r := setupRouter(&stubGenerator{response: "### SR-001: Coverage\nThe satellite shall..."})

	resp := postJSON(t, r, "/api/chat", map[string]string{
		"prompt": "Create system requirements for a GPS satellite",
	})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var result synthesis.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.SystemTopic != "a GPS satellite" {
		t.Fatalf("unexpected topic: %q", result.SystemTopic)
	}
	if !strings.Contains(result.ResponseText, "SR-001") {
		t.Fatalf("unexpected response text: %q", result.ResponseText)
	}
}

func TestChatAPIEmptyPrompt(t *testing.T) {
	r := setupRouter(&stubGenerator{response: "unused"})

	resp := postJSON(t, r, "/api/chat", map[string]string{"prompt": "  "})

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestChatAPIUpstreamFailure(t *testing.T) {
	r := setupRouter(&stubGenerator{err: errors.New("boom")})

	resp := postJSON(t, r, "/api/chat", map[string]string{
		"prompt": "Create system requirements for a GPS satellite",
	})

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if strings.Contains(body["error"], "boom") {
		t.Fatal("upstream error detail leaked into the API response")
	}
}

func TestMorphismProofEndpoint(t *testing.T) {
	r := setupRouter(&stubGenerator{
		response: "### Homomorphism Proof: a drone to a rover\n...",
	})

	resp := postJSON(t, r, "/api/morphism_proof", map[string]string{
		"prompt": "Create a homomorphism proof for a drone and a rover",
	})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var result synthesis.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(result.ResponseText, "Homomorphism Proof") {
		t.Fatalf("unexpected proof text: %q", result.ResponseText)
	}
}

func TestMorphismProofRejectsSingleSystem(t *testing.T) {
	r := setupRouter(&stubGenerator{response: "unused"})

	resp := postJSON(t, r, "/api/morphism_proof", map[string]string{
		"prompt": "Create a homomorphism proof",
	})

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestClearContext(t *testing.T) {
	r := setupRouter(&stubGenerator{response: "### SR-001: Coverage"})

	first := postJSON(t, r, "/api/chat", map[string]string{
		"prompt": "Create system requirements for a GPS satellite",
	})
	if first.Code != http.StatusOK {
		t.Fatalf("seed request failed: %d", first.Code)
	}

	resp := postJSON(t, r, "/api/clear_context", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	// A follow-up prompt without a topic must fail again: the context is gone.
	after := postJSON(t, r, "/api/chat", map[string]string{"prompt": "add more detail"})
	if after.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 after clearing context, got %d", after.Code)
	}
}
