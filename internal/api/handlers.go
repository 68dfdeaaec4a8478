package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/keepsake-ai/keepsake/internal/api/respond"
	"github.com/keepsake-ai/keepsake/internal/engine"
	"github.com/keepsake-ai/keepsake/internal/model"
	"github.com/keepsake-ai/keepsake/internal/validate"
)

// AssistantHandler exposes the memory engine over HTTP.
type AssistantHandler struct {
	eng *engine.Engine
	log zerolog.Logger
}

func NewAssistantHandler(eng *engine.Engine, log zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{eng: eng, log: log}
}

// Process POST /api/assistant/process
// Classifies the prompt and dispatches to search, mutation proposal,
// or conversation.
func (h *AssistantHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.UserID(req.UserID); err != nil {
		respond.WriteBadRequest(w, "User ID is required for memory operations")
		return
	}
	if err := validate.Prompt(req.Prompt); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	out, err := h.eng.Process(r.Context(), req.UserID, req.Prompt)
	if err != nil {
		h.log.Error().Err(err).Str("userId", req.UserID).Msg("process request failed")
		respond.WriteInternalError(w, "Sorry, I couldn't process your memory request right now.")
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// CommitUpdate POST /api/assistant/memory/update
// Second phase of the update workflow: applies the user's selection.
func (h *AssistantHandler) CommitUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		MemoryID string `json:"memoryId"`
		NewValue string `json:"newValue"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	out, err := h.eng.CommitUpdate(r.Context(), req.UserID, req.MemoryID, req.NewValue)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			respond.WriteBadRequest(w, "Missing required parameters for memory update")
			return
		}
		h.log.Error().Err(err).Str("userId", req.UserID).Msg("memory update failed")
		respond.WriteInternalError(w, "Failed to update memory. Please try again.")
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// CommitDelete POST /api/assistant/memory/delete
// Second phase of the delete workflow.
func (h *AssistantHandler) CommitDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		MemoryID string `json:"memoryId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	out, err := h.eng.CommitDelete(r.Context(), req.UserID, req.MemoryID)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			respond.WriteBadRequest(w, "Missing required parameters for memory deletion")
			return
		}
		h.log.Error().Err(err).Str("userId", req.UserID).Msg("memory deletion failed")
		respond.WriteInternalError(w, "Failed to delete memory. Please try again.")
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
