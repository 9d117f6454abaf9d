// LLM provider factory.
//
// Providers are selected by name (the same names config accepts), with API
// keys read from the environment:
//
//	provider, err := llm.NewProvider("anthropic", "", 4096, 0.2)
//	provider, err := llm.NewProvider("openai", llm.ModelOpenAIGPT4o, 4096, 0.2)

package llm

import (
	"fmt"
	"os"
	"strings"
)

// ProviderType represents supported LLM providers.
type ProviderType int

const (
	// ProviderOpenAI is the OpenAI provider (GPT models).
	ProviderOpenAI ProviderType = iota
	// ProviderAnthropic is the Anthropic provider (Claude models).
	ProviderAnthropic
	// ProviderDeepSeek is the DeepSeek provider.
	ProviderDeepSeek
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	switch p {
	case ProviderOpenAI:
		return "openai"
	case ProviderAnthropic:
		return "anthropic"
	case ProviderDeepSeek:
		return "deepseek"
	case ProviderGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// EnvVar returns the environment variable name for this provider's API key.
func (p ProviderType) EnvVar() string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// DefaultModel returns the default model for this provider.
func (p ProviderType) DefaultModel() string {
	switch p {
	case ProviderOpenAI:
		return ModelOpenAIGPT4o
	case ProviderAnthropic:
		return ModelAnthropicClaudeSonnet4
	case ProviderDeepSeek:
		return ModelDeepSeekChat
	case ProviderGemini:
		return ModelGeminiFlash
	default:
		return ""
	}
}

// ParseProviderType parses a provider from string (case-insensitive).
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(s) {
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "deepseek":
		return ProviderDeepSeek, nil
	case "gemini", "google":
		return ProviderGemini, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

// NewProvider creates a provider by name, reading the API key from the
// provider's environment variable. An empty model selects the default.
func NewProvider(name, model string, maxTokens uint32, temperature float32) (Provider, error) {
	providerType, err := ParseProviderType(name)
	if err != nil {
		return nil, err
	}

	envVar := providerType.EnvVar()
	apiKey := os.Getenv(envVar)
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %s environment variable not set", providerType, envVar)
	}

	if model == "" {
		model = providerType.DefaultModel()
	}
	if maxTokens == 0 {
		maxTokens = 4096
	}

	switch providerType {
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, model, maxTokens, temperature), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey, model, maxTokens, temperature), nil
	case ProviderDeepSeek:
		return NewDeepSeekProvider(apiKey, model, maxTokens, temperature), nil
	case ProviderGemini:
		return NewGeminiProvider(apiKey, model, maxTokens, temperature), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %v", providerType)
	}
}

// Default model identifiers per provider.
const (
	// ModelOpenAIGPT4o is GPT-4o, the default OpenAI model.
	ModelOpenAIGPT4o = "gpt-4o"
	// ModelOpenAIGPT4oMini is GPT-4o-mini, cheaper and faster.
	ModelOpenAIGPT4oMini = "gpt-4o-mini"
	// ModelAnthropicClaudeSonnet4 is Claude Sonnet 4, the default Anthropic model.
	ModelAnthropicClaudeSonnet4 = "claude-sonnet-4-20250514"
	// ModelDeepSeekChat is the DeepSeek general chat model.
	ModelDeepSeekChat = "deepseek-chat"
	// ModelGeminiFlash is Gemini 2.5 Flash, the default Gemini model.
	ModelGeminiFlash = "gemini-2.5-flash"
)
