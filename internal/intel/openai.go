package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/keepsake-ai/keepsake/internal/model"
)

// OpenAIDelegate talks to an OpenAI-compatible chat completions API.
// A custom base URL lets it target local compatible servers as well.
type OpenAIDelegate struct {
	client *resty.Client
	model  string
}

// NewOpenAIDelegate creates a delegate for the given endpoint. baseURL
// should include the version prefix, e.g. https://api.openai.com/v1.
func NewOpenAIDelegate(baseURL, apiKey, chatModel string) *OpenAIDelegate {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(2 * time.Minute)
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	return &OpenAIDelegate{client: c, model: chatModel}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (d *OpenAIDelegate) complete(ctx context.Context, messages []chatMessage, temperature float64) (string, error) {
	reqBody := chatRequest{Model: d.model, Messages: messages, Temperature: temperature}

	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(&reqBody).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completions request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("chat completions status %d: %s", resp.StatusCode(), resp.String())
	}

	var cr chatResponse
	if err := json.Unmarshal(resp.Body(), &cr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if cr.Error != nil {
		return "", fmt.Errorf("chat completions error: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("chat completions returned no choices")
	}
	return cr.Choices[0].Message.Content, nil
}

// ClassifyIntent implements IntentClassifier.
func (d *OpenAIDelegate) ClassifyIntent(ctx context.Context, utterance string) (model.Intent, error) {
	raw, err := d.complete(ctx, []chatMessage{{Role: "system", Content: intentPrompt(utterance)}}, 0.2)
	if err != nil {
		return model.Intent{}, err
	}
	return ParseIntent(raw)
}

// ExtractFact implements FactExtractor.
func (d *OpenAIDelegate) ExtractFact(ctx context.Context, utterance string) (model.Extraction, error) {
	raw, err := d.complete(ctx, []chatMessage{{Role: "system", Content: extractionPrompt(utterance)}}, 0.6)
	if err != nil {
		return model.Extraction{}, err
	}
	return ParseExtraction(raw)
}

// ComposeReply implements ReplyComposer.
func (d *OpenAIDelegate) ComposeReply(ctx context.Context, facts []model.RankedFact, question string) (string, error) {
	raw, err := d.complete(ctx, []chatMessage{
		{Role: "system", Content: composeSystem},
		{Role: "user", Content: composePrompt(facts, question)},
	}, 0.3)
	if err != nil {
		return "", err
	}
	return raw, nil
}

// HealthPing implements health.HealthPinger by listing models.
func (d *OpenAIDelegate) HealthPing(ctx context.Context) error {
	resp, err := d.client.R().SetContext(ctx).Get("/models")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("models status %d", resp.StatusCode())
	}
	return nil
}
