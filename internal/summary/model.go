package summary

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider names accepted by NewModel.
const (
	ProviderNone   = "none"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Default models per provider.
const (
	DefaultOpenAIModel  = "gpt-4-turbo"
	DefaultOllamaModel  = "llama3"
	DefaultOllamaServer = "http://localhost:11434"
)

// ModelConfig selects and configures the model behind a Summarizer.
type ModelConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string // OpenAI-compatible endpoint or Ollama server URL
}

// NewModel builds a langchaingo model from cfg. Provider "" or "none" returns a nil
// model and no error, which makes the Summarizer always truncate.
func NewModel(cfg ModelConfig) (llms.Model, error) {
	switch cfg.Provider {
	case "", ProviderNone:
		return nil, nil
	case ProviderOpenAI:
		return newOpenAIModel(cfg)
	case ProviderOllama:
		return newOllamaModel(cfg)
	default:
		return nil, fmt.Errorf("unsupported summary provider %q (valid: %s, %s, %s)",
			cfg.Provider, ProviderOpenAI, ProviderOllama, ProviderNone)
	}
}

func newOpenAIModel(cfg ModelConfig) (llms.Model, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai provider requires an API key (set OPENAI_API_KEY or openai_api_key)")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	opts := []openai.Option{
		openai.WithModel(model),
		openai.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai model: %w", err)
	}
	return llm, nil
}

func newOllamaModel(cfg ModelConfig) (llms.Model, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultOllamaModel
	}
	server := cfg.BaseURL
	if server == "" {
		server = DefaultOllamaServer
	}

	llm, err := ollama.New(
		ollama.WithServerURL(server),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ollama model: %w", err)
	}
	return llm, nil
}
