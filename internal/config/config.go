package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Provider names accepted by LLM_PROVIDER.
const (
	ProviderArk    = "ark"
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config aggregates every setting the service reads from the environment.
// It is constructed once at startup and passed by reference afterwards.
type Config struct {
	Server ServerConfig
	Auth   AuthConfig
	AI     AIConfig
	Graph  GraphConfig
}

// Load parses the full configuration from environment variables. Any missing
// required value is an error: startup fails fast instead of failing on the
// first request.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	graph, err := loadGraphConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Auth: auth, AI: ai, Graph: graph}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AuthConfig holds the single permitted login.
type AuthConfig struct {
	Username string
	Password string
}

func loadAuthConfig() (AuthConfig, error) {
	username := strings.TrimSpace(os.Getenv("AUTH_USERNAME"))
	password := strings.TrimSpace(os.Getenv("AUTH_PASSWORD"))
	if username == "" || password == "" {
		return AuthConfig{}, fmt.Errorf("AUTH_USERNAME and AUTH_PASSWORD must be set")
	}
	return AuthConfig{Username: username, Password: password}, nil
}

// AIConfig selects and parameterizes the generative model provider.
type AIConfig struct {
	Provider    string
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	ServerURL   string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("LLM_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("LLM_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("LLM_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	cfg := AIConfig{
		Provider:    strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderGoogle)),
		APIKey:      strings.TrimSpace(os.Getenv("LLM_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("LLM_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		ServerURL:   strings.TrimSpace(os.Getenv("OLLAMA_SERVER_URL")),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}

	switch cfg.Provider {
	case ProviderArk:
		if cfg.Model == "" || (cfg.APIKey == "" && (cfg.AccessKey == "" || cfg.SecretKey == "")) {
			return AIConfig{}, fmt.Errorf("ark provider needs LLM_MODEL plus LLM_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY")
		}
	case ProviderGoogle, ProviderOpenAI:
		if cfg.APIKey == "" {
			return AIConfig{}, fmt.Errorf("LLM_API_KEY must be set for provider %q", cfg.Provider)
		}
	case ProviderOllama:
		// Local runtime, no key needed.
	default:
		return AIConfig{}, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.Provider)
	}

	return cfg, nil
}

// NewArkChatModel builds the eino chat model for the ark provider.
func (c AIConfig) NewArkChatModel(ctx context.Context) (model.ChatModel, error) {
	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

// GraphConfig holds the optional Neo4j connection. Leaving every variable
// unset disables graph enrichment; setting only some of them is an error.
type GraphConfig struct {
	URI      string
	Username string
	Password string
	Database string

	// EnrichmentRequired decides what happens when the enrichment query
	// fails: false proceeds without facts, true fails the request.
	EnrichmentRequired bool
}

// Enabled reports whether a Neo4j connection is configured.
func (c GraphConfig) Enabled() bool {
	return c.URI != ""
}

func loadGraphConfig() (GraphConfig, error) {
	uri := strings.TrimSpace(os.Getenv("NEO4J_URI"))
	username := strings.TrimSpace(os.Getenv("NEO4J_USERNAME"))
	password := strings.TrimSpace(os.Getenv("NEO4J_PASSWORD"))

	if uri == "" && username == "" && password == "" {
		return GraphConfig{}, nil
	}
	if uri == "" || username == "" || password == "" {
		return GraphConfig{}, fmt.Errorf("NEO4J_URI, NEO4J_USERNAME and NEO4J_PASSWORD must all be set to enable graph enrichment")
	}

	required, err := parseBoolEnv("GRAPH_ENRICHMENT_REQUIRED", false)
	if err != nil {
		return GraphConfig{}, err
	}

	return GraphConfig{
		URI:                uri,
		Username:           username,
		Password:           password,
		Database:           getEnvOrDefault("NEO4J_DATABASE", "neo4j"),
		EnrichmentRequired: required,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
