package intel

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/keepsake-ai/keepsake/internal/model"
)

// AnthropicDelegate implements the delegate capabilities on the
// Anthropic Messages API.
type AnthropicDelegate struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicDelegate wraps an existing Anthropic client.
func NewAnthropicDelegate(client *anthropic.Client, chatModel string) *AnthropicDelegate {
	return &AnthropicDelegate{client: client, model: chatModel}
}

func (d *AnthropicDelegate) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(d.model),
		MaxTokens:   1024,
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := d.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("messages request: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("messages response contained no text")
	}
	return text, nil
}

// ClassifyIntent implements IntentClassifier.
func (d *AnthropicDelegate) ClassifyIntent(ctx context.Context, utterance string) (model.Intent, error) {
	raw, err := d.complete(ctx, intentPrompt(utterance), utterance, 0.2)
	if err != nil {
		return model.Intent{}, err
	}
	return ParseIntent(raw)
}

// ExtractFact implements FactExtractor.
func (d *AnthropicDelegate) ExtractFact(ctx context.Context, utterance string) (model.Extraction, error) {
	raw, err := d.complete(ctx, extractionPrompt(utterance), utterance, 0.6)
	if err != nil {
		return model.Extraction{}, err
	}
	return ParseExtraction(raw)
}

// ComposeReply implements ReplyComposer.
func (d *AnthropicDelegate) ComposeReply(ctx context.Context, facts []model.RankedFact, question string) (string, error) {
	return d.complete(ctx, composeSystem, composePrompt(facts, question), 0.3)
}
