package chat

import (
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sysengio/wysechat/internal/auth"
	"github.com/sysengio/wysechat/internal/service/synthesis"
	"github.com/sysengio/wysechat/internal/web"
	"github.com/sysengio/wysechat/pkg/utils"
)

// genericFailure is the only message shown when an upstream call fails; the
// cause stays in the logs.
const genericFailure = "Could not generate a response. Please try again."

// Handler serves the chat page and its JSON API.
type Handler struct {
	engine   *synthesis.Engine
	sessions *auth.Manager
}

// New creates the chat handler.
func New(engine *synthesis.Engine, sessions *auth.Manager) *Handler {
	return &Handler{engine: engine, sessions: sessions}
}

// RegisterRoutes registers the protected chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Post("/", h.handlePrompt)
	r.Route("/api", func(api chi.Router) {
		api.Post("/chat", h.handleChatAPI)
		api.Post("/morphism_proof", h.handleMorphismProof)
		api.Post("/clear_context", h.handleClearContext)
	})
}

type chatPage struct {
	Topic     string
	Response  template.HTML
	Error     string
	GraphJSON template.JS
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	web.Render(w, "chat.html", chatPage{Topic: h.engine.Topic(h.sessions.SessionID(r))})
}

// handlePrompt is the form flow: the prompt comes in as a form field and the
// result is rendered back into the page. Upstream failures keep HTTP 200 and
// show the generic message.
func (h *Handler) handlePrompt(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessions.SessionID(r)

	if err := r.ParseForm(); err != nil {
		web.Render(w, "chat.html", chatPage{Error: "invalid form submission"})
		return
	}

	result, err := h.engine.Respond(r.Context(), sessionID, r.PostFormValue("prompt"))
	if err != nil {
		web.Render(w, "chat.html", chatPage{
			Topic: h.engine.Topic(sessionID),
			Error: errorMessage(err),
		})
		return
	}

	page := chatPage{
		Topic:    result.SystemTopic,
		Response: responseHTML(result),
	}
	if result.GraphData != nil {
		payload, err := json.Marshal(result.GraphData)
		if err != nil {
			log.Printf("[chat] failed to encode graph payload: %v", err)
		} else {
			page.GraphJSON = template.JS(payload)
		}
	}
	web.Render(w, "chat.html", page)
}

// handleChatAPI is the JSON flow used by script clients.
func (h *Handler) handleChatAPI(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Respond(r.Context(), h.sessions.SessionID(r), promptFrom(r))
	if err != nil {
		respondEngineError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleMorphismProof(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.MorphismProof(r.Context(), h.sessions.SessionID(r), promptFrom(r))
	if err != nil {
		respondEngineError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleClearContext(w http.ResponseWriter, r *http.Request) {
	h.engine.ClearContext(h.sessions.SessionID(r))
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message":      "Context cleared successfully.",
		"system_topic": "",
	})
}

// responseHTML decides what the page may render raw: only markup the engine
// built itself (the traceability matrix). Model output is escaped so a
// hostile completion cannot script the page.
func responseHTML(result synthesis.Result) template.HTML {
	if result.HTML {
		return template.HTML(result.ResponseText)
	}
	return template.HTML(template.HTMLEscapeString(result.ResponseText))
}

// promptFrom accepts the prompt either as a form field or as a JSON body.
func promptFrom(r *http.Request) string {
	if err := r.ParseForm(); err == nil {
		if prompt := r.PostFormValue("prompt"); prompt != "" {
			return prompt
		}
	}

	var payload struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
		return payload.Prompt
	}
	return ""
}

// errorMessage maps engine errors onto what the page shows. Validation
// errors are user-actionable and shown verbatim; anything upstream collapses
// to the generic message.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, synthesis.ErrEmptyPrompt),
		errors.Is(err, synthesis.ErrNoTopic),
		errors.Is(err, synthesis.ErrNoSystemPair):
		return capitalize(err.Error())
	default:
		return genericFailure
	}
}

func respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, synthesis.ErrEmptyPrompt),
		errors.Is(err, synthesis.ErrNoTopic),
		errors.Is(err, synthesis.ErrNoSystemPair):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondError(w, http.StatusBadGateway, genericFailure)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
