// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific model lookup

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings holds all application configuration.
type Settings struct {
	LLM     LLMConfig
	HTTP    HTTPConfig
	Session SessionConfig
	Tools   ToolsConfig
	DBPath  string
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string
	Model       string
	MaxTokens   uint32
	Temperature float32
}

// HTTPConfig holds the inbound API configuration.
type HTTPConfig struct {
	Addr string
}

// SessionConfig holds session lifecycle configuration.
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// ToolsConfig holds tool execution configuration.
type ToolsConfig struct {
	ExecTimeout time.Duration
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openai":    {"OPENAI_MODEL", "gpt-4o"},
	"anthropic": {"ANTHROPIC_MODEL", "claude-sonnet-4-20250514"},
	"deepseek":  {"DEEPSEEK_MODEL", "deepseek-chat"},
	"gemini":    {"GEMINI_MODEL", "gemini-2.5-flash"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
}

// New creates settings for the specified provider, loading values from
// environment variables. Returns an error if the provider is unknown or
// environment variables contain invalid values.
func New(provider string) (Settings, error) {
	provider = normalizeProvider(provider)

	info, ok := providers[provider]
	if !ok {
		return Settings{}, fmt.Errorf("unknown provider: %q", provider)
	}

	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", 4096)
	if err != nil {
		return Settings{}, err
	}

	temperature, err := getEnvFloat32("LLM_TEMPERATURE", 0.2)
	if err != nil {
		return Settings{}, err
	}

	ttlMinutes, err := getEnvInt("SESSION_TTL_MINUTES", 60)
	if err != nil {
		return Settings{}, err
	}

	sweepSeconds, err := getEnvInt("SESSION_SWEEP_SECONDS", 60)
	if err != nil {
		return Settings{}, err
	}

	execSeconds, err := getEnvInt("TOOL_EXEC_TIMEOUT_SECONDS", 30)
	if err != nil {
		return Settings{}, err
	}

	model := os.Getenv(info.modelEnv)
	if model == "" {
		model = info.defaultModel
	}

	addr := os.Getenv("CAREBRIDGE_ADDR")
	if addr == "" {
		addr = ":8484"
	}

	dbPath := os.Getenv("CAREBRIDGE_DB")
	if dbPath == "" {
		dbPath = "carebridge.db"
	}

	return Settings{
		LLM: LLMConfig{
			Provider:    provider,
			Model:       model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		},
		HTTP: HTTPConfig{
			Addr: addr,
		},
		Session: SessionConfig{
			TTL:           time.Duration(ttlMinutes) * time.Minute,
			SweepInterval: time.Duration(sweepSeconds) * time.Second,
		},
		Tools: ToolsConfig{
			ExecTimeout: time.Duration(execSeconds) * time.Second,
		},
		DBPath: dbPath,
	}, nil
}

// SupportedProviders returns the list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	return result
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(provider)
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// Environment variable helpers with proper error handling

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat32(key string, defaultVal float32) (float32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return float32(f), nil
}
