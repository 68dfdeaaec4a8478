package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/keepsake-ai/keepsake/internal/events"
	"github.com/keepsake-ai/keepsake/internal/model"
)

// proposeUpdate is the first phase of the update workflow: list every
// candidate so the user picks exactly one by id. The engine never
// auto-selects a best match; update is destructive.
func (e *Engine) proposeUpdate(ctx context.Context, userID, term, newValue string) (*model.AssistantResponse, error) {
	// An update intent without a replacement value cannot proceed past
	// proposal; degrade to the not-found suggestion instead of listing
	// candidates that could never be committed.
	if strings.TrimSpace(newValue) == "" {
		return &model.AssistantResponse{
			Message:    fmt.Sprintf("I couldn't find any memories about %q to update. Would you like to add this information instead?", term),
			ResultType: "memory",
			Action:     model.ActionNotFound,
		}, nil
	}

	candidates, err := e.mutationCandidates(ctx, userID, term)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &model.AssistantResponse{
			Message:    fmt.Sprintf("I couldn't find any memories about %q to update. Would you like to add this information instead?", term),
			ResultType: "memory",
			Action:     model.ActionNotFound,
		}, nil
	}

	return &model.AssistantResponse{
		Message:    fmt.Sprintf("I found %d %s about %q. Which one would you like to update?", len(candidates), memoryWord(len(candidates)), term),
		ResultType: "memory",
		Action:     model.ActionUpdateChoice,
		Results:    candidates,
		NewValue:   newValue,
	}, nil
}

// proposeDelete mirrors proposeUpdate for deletions.
func (e *Engine) proposeDelete(ctx context.Context, userID, term string) (*model.AssistantResponse, error) {
	candidates, err := e.mutationCandidates(ctx, userID, term)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &model.AssistantResponse{
			Message:    fmt.Sprintf("I couldn't find any memories about %q to delete.", term),
			ResultType: "memory",
			Action:     model.ActionNotFound,
		}, nil
	}

	return &model.AssistantResponse{
		Message:    fmt.Sprintf("I found %d %s about %q. Which one would you like to delete?", len(candidates), memoryWord(len(candidates)), term),
		ResultType: "memory",
		Action:     model.ActionDeleteChoice,
		Results:    candidates,
	}, nil
}

// mutationCandidates searches at threshold zero: every textual match
// is presented, sorted by match count, unfiltered and uncapped.
func (e *Engine) mutationCandidates(ctx context.Context, userID, term string) ([]model.RankedFact, error) {
	hits, err := e.store.Search(ctx, userID, term)
	if err != nil {
		return nil, fmt.Errorf("search facts: %w", err)
	}
	return rankForMutation(buildTable(hits)), nil
}

// CommitUpdate applies the mutation the user selected in the propose
// phase. The client resupplies id and newValue; the engine holds no
// session state between the two requests. Replaying the same commit
// produces the same end state.
func (e *Engine) CommitUpdate(ctx context.Context, userID, id, newValue string) (*model.AssistantResponse, error) {
	if userID == "" || id == "" || newValue == "" {
		return nil, fmt.Errorf("%w: memoryId, newValue and userId are required", model.ErrValidation)
	}

	if err := e.store.Update(ctx, userID, id, newValue); err != nil {
		return nil, fmt.Errorf("update fact %s: %w", id, err)
	}
	e.publish(events.EventFactUpdated, userID, id)

	return &model.AssistantResponse{
		Message:    fmt.Sprintf("I've updated the memory to %q.", newValue),
		ResultType: "memory",
		Action:     model.ActionUpdated,
	}, nil
}

// CommitDelete removes exactly one fact by id, scoped to the user.
func (e *Engine) CommitDelete(ctx context.Context, userID, id string) (*model.AssistantResponse, error) {
	if userID == "" || id == "" {
		return nil, fmt.Errorf("%w: memoryId and userId are required", model.ErrValidation)
	}

	if err := e.store.Delete(ctx, userID, id); err != nil {
		return nil, fmt.Errorf("delete fact %s: %w", id, err)
	}
	e.publish(events.EventFactDeleted, userID, id)

	return &model.AssistantResponse{
		Message:    "I've deleted the memory.",
		ResultType: "memory",
		Action:     model.ActionDeleted,
	}, nil
}
