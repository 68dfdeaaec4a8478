// Package intel wraps the external text-understanding service behind
// three one-method capabilities so the engine can be tested with
// deterministic stubs.
package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/keepsake-ai/keepsake/internal/model"
)

// IntentClassifier maps a raw utterance to a structured intent.
type IntentClassifier interface {
	ClassifyIntent(ctx context.Context, utterance string) (model.Intent, error)
}

// FactExtractor judges whether an utterance contains a fact worth
// remembering.
type FactExtractor interface {
	ExtractFact(ctx context.Context, utterance string) (model.Extraction, error)
}

// ReplyComposer turns ranked facts plus the original question into a
// natural-language answer.
type ReplyComposer interface {
	ComposeReply(ctx context.Context, facts []model.RankedFact, question string) (string, error)
}

// Delegate bundles all three capabilities; both providers implement it.
type Delegate interface {
	IntentClassifier
	FactExtractor
	ReplyComposer
}

// stripFences removes a markdown code fence the model may wrap JSON in.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

// ParseIntent decodes a raw classifier response. Malformed JSON is an
// error; callers coerce errors to the conversation intent rather than
// propagating them.
func ParseIntent(raw string) (model.Intent, error) {
	var in model.Intent
	if err := json.Unmarshal([]byte(stripFences(raw)), &in); err != nil {
		return model.Intent{}, fmt.Errorf("parse intent: %w", err)
	}
	return in, nil
}

// ParseExtraction decodes a raw extractor response.
func ParseExtraction(raw string) (model.Extraction, error) {
	var ex model.Extraction
	if err := json.Unmarshal([]byte(stripFences(raw)), &ex); err != nil {
		return model.Extraction{}, fmt.Errorf("parse extraction: %w", err)
	}
	return ex, nil
}
