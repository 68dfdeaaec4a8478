// Package engine implements the memory resolution and mutation engine:
// intent routing, ranked retrieval, the two-phase mutation workflow,
// and single-shot fact capture.
package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/keepsake-ai/keepsake/internal/events"
	"github.com/keepsake-ai/keepsake/internal/intel"
	"github.com/keepsake-ai/keepsake/internal/model"
	"github.com/keepsake-ai/keepsake/internal/store"
)

// Engine orchestrates one assistant request at a time. It holds no
// per-request state; the propose/commit handshake is carried entirely
// by the client.
type Engine struct {
	store    store.FactStore
	delegate intel.Delegate
	bus      *events.Bus
	log      zerolog.Logger
}

// New creates an engine. bus may be nil when no observer is attached.
func New(st store.FactStore, dg intel.Delegate, bus *events.Bus, log zerolog.Logger) *Engine {
	return &Engine{store: st, delegate: dg, bus: bus, log: log}
}

// Process resolves the utterance's intent and dispatches it to the
// matching workflow.
func (e *Engine) Process(ctx context.Context, userID, prompt string) (*model.AssistantResponse, error) {
	intent := e.resolveIntent(ctx, prompt)

	switch intent.Kind {
	case model.IntentSearch:
		return e.search(ctx, userID, intent.SearchTerm)
	case model.IntentUpdate:
		return e.proposeUpdate(ctx, userID, intent.SearchTerm, intent.NewValue)
	case model.IntentDelete:
		return e.proposeDelete(ctx, userID, intent.SearchTerm)
	default:
		return e.converse(ctx, userID, prompt)
	}
}

// resolveIntent delegates to the classifier and fails open: a
// transport error, malformed response, unknown kind, or a
// search/update/delete intent without a search term all coerce to
// conversation, which neither mutates nor discards data.
func (e *Engine) resolveIntent(ctx context.Context, utterance string) model.Intent {
	in, err := e.delegate.ClassifyIntent(ctx, utterance)
	if err != nil {
		e.log.Warn().Err(err).Msg("intent classification failed, defaulting to conversation")
		return model.Intent{Kind: model.IntentConversation}
	}

	switch in.Kind {
	case model.IntentSearch, model.IntentUpdate, model.IntentDelete:
		if in.SearchTerm == "" {
			e.log.Warn().Str("intent", string(in.Kind)).Msg("intent missing search term, defaulting to conversation")
			return model.Intent{Kind: model.IntentConversation}
		}
		return in
	case model.IntentConversation:
		return in
	default:
		if in.Kind != "" {
			e.log.Warn().Str("intent", string(in.Kind)).Msg("unknown intent kind, defaulting to conversation")
		}
		return model.Intent{Kind: model.IntentConversation}
	}
}

// search runs ranked retrieval and composes a reply over the results.
func (e *Engine) search(ctx context.Context, userID, term string) (*model.AssistantResponse, error) {
	hits, err := e.store.Search(ctx, userID, term)
	if err != nil {
		return nil, fmt.Errorf("search facts: %w", err)
	}

	table := rankForSearch(buildTable(hits))
	if len(table) == 0 {
		return &model.AssistantResponse{
			Message:    fmt.Sprintf("I don't have any stored memories about %q. Would you like to tell me about it?", term),
			ResultType: "memory",
			Results:    []model.RankedFact{},
		}, nil
	}

	return &model.AssistantResponse{
		Message:    e.composeReply(ctx, table, term),
		ResultType: "memory",
		Results:    table,
	}, nil
}

// composeReply asks the delegate for a natural-language answer and
// falls back to a deterministic template when the delegate fails.
func (e *Engine) composeReply(ctx context.Context, facts []model.RankedFact, question string) string {
	reply, err := e.delegate.ComposeReply(ctx, facts, question)
	if err == nil && reply != "" {
		return reply
	}
	if err != nil {
		e.log.Warn().Err(err).Msg("reply composition failed, using fallback summary")
	}
	return fmt.Sprintf("I found %d %s related to your question. %s",
		len(facts), memoryWord(len(facts)), facts[0].Text)
}

func (e *Engine) publish(kind events.EventKind, userID, factID string) {
	e.bus.Publish(events.Event{Kind: kind, UserID: userID, FactID: factID})
}

func memoryWord(n int) string {
	if n == 1 {
		return "memory"
	}
	return "memories"
}
