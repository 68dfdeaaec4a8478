package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/keepsake-ai/keepsake/internal/events"
	"github.com/keepsake-ai/keepsake/internal/model"
)

// converse is the single-shot fact capture path: ask the extractor
// whether the utterance carries something worth remembering, store at
// most one fact, and reply conversationally. An unparseable extractor
// response never blocks the conversation; it yields a generic
// acknowledgement and stores nothing.
func (e *Engine) converse(ctx context.Context, userID, prompt string) (*model.AssistantResponse, error) {
	ex, err := e.delegate.ExtractFact(ctx, prompt)
	if err != nil {
		e.log.Warn().Err(err).Msg("fact extraction failed, storing nothing")
		return &model.AssistantResponse{
			Message:    "I understand, but I'm having trouble processing that right now.",
			ResultType: "memory",
		}, nil
	}

	reply := ex.Reply
	if reply == "" {
		reply = "I'm here to help!"
	}

	resp := &model.AssistantResponse{
		Message:    reply,
		ResultType: "memory",
	}

	if ex.Store && strings.TrimSpace(ex.Memory) != "" {
		id, err := e.store.Append(ctx, userID, ex.Memory)
		if err != nil {
			return nil, fmt.Errorf("append fact: %w", err)
		}
		resp.MemoryID = id
		e.publish(events.EventFactStored, userID, id)
	}

	return resp, nil
}
