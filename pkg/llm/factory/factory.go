package factory

import (
	"fmt"

	"ai-casebrief-be/internal/config"
	"ai-casebrief-be/pkg/llm"
	"ai-casebrief-be/pkg/llm/ollama"
	"ai-casebrief-be/pkg/llm/openai"
)

func NewLLMProvider(cfg config.AIConfig) (llm.LLMProvider, error) {
	switch cfg.LLMProvider {
	case "ollama":
		baseURL := cfg.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, cfg.LLMModel), nil
	case "openai":
		if cfg.OpenAIKey == "" && cfg.OpenAIBaseURL == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY or OPENAI_BASE_URL")
		}
		return openai.NewProvider(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.LLMModel), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}
