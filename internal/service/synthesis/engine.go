package synthesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/sysengio/wysechat/internal/model/conversation"
	"github.com/sysengio/wysechat/internal/service/ai"
	"github.com/sysengio/wysechat/internal/service/knowledge"
)

var (
	// ErrEmptyPrompt rejects blank input before any outbound call is made.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")

	// ErrNoTopic means no conversation exists yet and the prompt did not
	// define one.
	ErrNoTopic = errors.New("please start by defining the system you want to work on, e.g. 'Create system requirements for a GPS satellite'")

	// ErrNoSystemPair means a morphism prompt did not name two systems.
	ErrNoSystemPair = errors.New("could not identify the two systems; use '...for [system A] and [system B]' or '...for [system A] to [system B]'")

	// ErrUpstream covers any failure of the generative endpoint or the
	// knowledge graph. Handlers show a generic message, never the cause.
	ErrUpstream = errors.New("could not generate a response")
)

// Result is what one prompt produces: response text, the active system topic
// and an optional visualization payload.
type Result struct {
	ResponseText string                  `json:"response_text"`
	SystemTopic  string                  `json:"system_topic"`
	GraphData    *conversation.GraphData `json:"graph_data,omitempty"`

	// HTML marks ResponseText as markup rendered by this package (the
	// traceability matrix). Everything else is model output and must be
	// escaped before it reaches a page.
	HTML bool `json:"-"`
}

// Engine orchestrates a prompt end to end: classification, optional
// knowledge-graph enrichment, generation and conversation bookkeeping.
// Conversations are held in memory keyed by web session ID.
type Engine struct {
	generator ai.Generator
	knowledge knowledge.Store // nil disables enrichment

	// enrichmentRequired controls whether a failed enrichment query fails
	// the whole request or degrades to an unenriched prompt.
	enrichmentRequired bool

	mu            sync.RWMutex
	conversations map[string]*conversation.Conversation
}

// NewEngine wires the generator and the optional knowledge store.
func NewEngine(generator ai.Generator, store knowledge.Store, enrichmentRequired bool) *Engine {
	return &Engine{
		generator:          generator,
		knowledge:          store,
		enrichmentRequired: enrichmentRequired,
		conversations:      make(map[string]*conversation.Conversation),
	}
}

// request kinds recognized by classify.
const (
	kindArtifact     = "artifact"
	kindVisualize    = "visualize"
	kindTraceability = "traceability"
	kindMorphism     = "morphism"
)

func classify(prompt string) string {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "morphism proof") || strings.Contains(lower, "homomorphism"):
		return kindMorphism
	case strings.Contains(lower, "traceability matrix"):
		return kindTraceability
	case containsAny(lower, "visualize", "visualization", "graph", "diagram"):
		return kindVisualize
	default:
		return kindArtifact
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}

// artifactType maps prompt wording onto the WySE artifact being requested.
func artifactType(prompt string) string {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "system requirements"):
		return conversation.TypeSystemRequirements
	case strings.Contains(lower, "system design"):
		return conversation.TypeSystemDesign
	case strings.Contains(lower, "verification requirement"):
		return conversation.TypeVerificationRequirement
	case strings.Contains(lower, "verification model"):
		return conversation.TypeVerificationModel
	default:
		return conversation.TypeUnknown
	}
}

// Topic returns the active system topic for a session, or "" when the
// session has no conversation yet.
func (e *Engine) Topic(sessionID string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if conv, ok := e.conversations[sessionID]; ok {
		return conv.SystemTopic
	}
	return ""
}

// ClearContext drops the session's conversation.
func (e *Engine) ClearContext(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.conversations, sessionID)
}

// Respond handles one chat prompt. Validation failures come back as the
// sentinel errors above; any upstream failure is wrapped in ErrUpstream.
func (e *Engine) Respond(ctx context.Context, sessionID, prompt string) (Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Result{}, ErrEmptyPrompt
	}

	// Defining a new system always starts a fresh conversation.
	if strings.Contains(strings.ToLower(prompt), "create system requirements for") {
		e.ClearContext(sessionID)
	}

	conv, err := e.conversationFor(sessionID, prompt)
	if err != nil {
		return Result{}, err
	}

	switch classify(prompt) {
	case kindMorphism:
		return e.morphismProof(ctx, conv, prompt)
	case kindTraceability:
		return e.traceabilityMatrix(conv)
	case kindVisualize:
		return e.visualization(ctx, conv)
	default:
		return e.generateArtifact(ctx, conv, prompt)
	}
}

// MorphismProof handles the dedicated proof endpoint, creating a
// conversation from the first named system when none exists.
func (e *Engine) MorphismProof(ctx context.Context, sessionID, prompt string) (Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Result{}, ErrEmptyPrompt
	}

	systemA, _, ok := conversation.ExtractSystemPair(prompt)
	if !ok {
		return Result{}, ErrNoSystemPair
	}

	conv := e.lookup(sessionID)
	if conv == nil {
		created, err := conversation.New(systemA)
		if err != nil {
			return Result{}, ErrNoSystemPair
		}
		conv = created
		e.storeConversation(sessionID, conv)
	}

	return e.morphismProof(ctx, conv, prompt)
}

// conversationFor returns the session's conversation, creating one from the
// prompt's topic when this is the first exchange.
func (e *Engine) conversationFor(sessionID, prompt string) (*conversation.Conversation, error) {
	if conv := e.lookup(sessionID); conv != nil {
		return conv, nil
	}

	topic := conversation.ExtractTopic(prompt)
	if topic == "" {
		return nil, ErrNoTopic
	}

	conv, err := conversation.New(topic)
	if err != nil {
		return nil, ErrNoTopic
	}
	e.storeConversation(sessionID, conv)
	return conv, nil
}

func (e *Engine) lookup(sessionID string) *conversation.Conversation {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.conversations[sessionID]
}

func (e *Engine) storeConversation(sessionID string, conv *conversation.Conversation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conversations[sessionID] = conv
}

func (e *Engine) generateArtifact(ctx context.Context, conv *conversation.Conversation, prompt string) (Result, error) {
	facts, err := e.enrich(ctx, conv.SystemTopic)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	e.mu.RLock()
	contextText := conv.ContextText()
	e.mu.RUnlock()

	system, userPrompt := ai.ArtifactPrompt(prompt, contextText, facts)
	text, err := e.generator.Generate(ctx, system, userPrompt)
	if err != nil {
		log.Printf("[synthesis] artifact generation failed: %v", err)
		return Result{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	e.mu.Lock()
	conv.AddArtifact(artifactType(prompt), text)
	e.mu.Unlock()

	return Result{ResponseText: text, SystemTopic: conv.SystemTopic}, nil
}

// enrich queries the knowledge graph for facts about the topic. With no
// store configured it is a no-op; with one configured, failures either
// degrade or abort depending on configuration.
func (e *Engine) enrich(ctx context.Context, topic string) ([]string, error) {
	if e.knowledge == nil {
		return nil, nil
	}

	facts, err := e.knowledge.FactsForTopic(ctx, topic)
	if err != nil {
		if e.enrichmentRequired {
			return nil, fmt.Errorf("knowledge graph enrichment failed: %w", err)
		}
		log.Printf("[synthesis] enrichment failed, continuing without facts: %v", err)
		return nil, nil
	}

	rendered := make([]string, 0, len(facts))
	for _, fact := range facts {
		rendered = append(rendered, fact.String())
	}
	return rendered, nil
}

func (e *Engine) visualization(ctx context.Context, conv *conversation.Conversation) (Result, error) {
	result := Result{
		ResponseText: fmt.Sprintf("Here is a generated system visualization for the **%s**.", conv.SystemTopic),
		SystemTopic:  conv.SystemTopic,
	}

	// Prefer stored graph data; fall back to asking the model to build one
	// from the conversation.
	if e.knowledge != nil {
		data, err := e.knowledge.GraphData(ctx, conv.SystemTopic)
		if err != nil {
			if e.enrichmentRequired {
				return Result{}, fmt.Errorf("%w: %v", ErrUpstream, err)
			}
			log.Printf("[synthesis] graph lookup failed, falling back to generated graph: %v", err)
		} else if data != nil && len(data.Nodes) > 0 {
			result.GraphData = data
			return result, nil
		}
	}

	data, err := e.generateGraph(ctx, conv)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	result.GraphData = data
	return result, nil
}

func (e *Engine) generateGraph(ctx context.Context, conv *conversation.Conversation) (*conversation.GraphData, error) {
	e.mu.RLock()
	contextText := conv.ContextText()
	e.mu.RUnlock()

	system, prompt := ai.GraphPrompt(conv.SystemTopic, contextText)
	response, err := e.generator.Generate(ctx, system, prompt)
	if err != nil {
		return nil, fmt.Errorf("graph generation failed: %w", err)
	}

	raw, err := ai.ExtractJSON(response)
	if err != nil {
		return nil, fmt.Errorf("graph response is not JSON: %w", err)
	}

	var data conversation.GraphData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("failed to decode graph payload: %w", err)
	}
	return &data, nil
}

func (e *Engine) morphismProof(ctx context.Context, conv *conversation.Conversation, prompt string) (Result, error) {
	systemA, systemB, ok := conversation.ExtractSystemPair(prompt)
	if !ok {
		return Result{}, ErrNoSystemPair
	}

	system, userPrompt := ai.MorphismProofPrompt(systemA, systemB)
	text, err := e.generator.Generate(ctx, system, userPrompt)
	if err != nil {
		log.Printf("[synthesis] morphism proof generation failed: %v", err)
		return Result{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if !strings.Contains(text, "Homomorphism Proof") {
		return Result{}, fmt.Errorf("%w: generated text does not look like a proof", ErrUpstream)
	}

	e.mu.Lock()
	conv.AddArtifact(conversation.TypeMorphismProof, text)
	e.mu.Unlock()

	return Result{ResponseText: text, SystemTopic: conv.SystemTopic}, nil
}

// traceabilityMatrix renders the conversation's trace links as an HTML
// table. The matrix is deterministic: no model call is involved.
func (e *Engine) traceabilityMatrix(conv *conversation.Conversation) (Result, error) {
	e.mu.Lock()
	conv.BuildTraces()
	html := renderTraceabilityMatrix(conv)
	e.mu.Unlock()

	return Result{ResponseText: html, SystemTopic: conv.SystemTopic, HTML: true}, nil
}
