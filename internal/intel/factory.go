package intel

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/keepsake-ai/keepsake/internal/config"
)

// NewDelegate constructs the configured text-understanding delegate.
func NewDelegate(cfg *config.Config) (Delegate, error) {
	switch cfg.LLMProvider {
	case "openai":
		return NewOpenAIDelegate(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.LLMModel), nil
	case "anthropic":
		var opts []option.RequestOption
		if cfg.AnthropicAPIKey != "" {
			opts = append(opts, option.WithAPIKey(cfg.AnthropicAPIKey))
		}
		client := anthropic.NewClient(opts...)
		return NewAnthropicDelegate(&client, cfg.LLMModel), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}
