package store

import (
	"context"

	"github.com/keepsake-ai/keepsake/internal/model"
)

// FactStore exposes persistence operations required by the engine.
// Implementations live under internal/store/<driver>/ (sqlite,
// postgres). Every operation is scoped to a userId by construction;
// mutating another user's fact is impossible through this interface.
type FactStore interface {
	// Search returns hits for a free-text term, each annotated with a
	// query-scoped match count. Hits with no keyword overlap are not
	// returned. Order of equal-score rows is the store's insertion
	// order.
	Search(ctx context.Context, userID, term string) ([]model.FactHit, error)

	// Update replaces the text of one fact by id. Returns
	// model.ErrNotFound when no fact with that id belongs to userID.
	Update(ctx context.Context, userID, id, newText string) error

	// Delete removes one fact by id. Returns model.ErrNotFound when
	// no fact with that id belongs to userID.
	Delete(ctx context.Context, userID, id string) error

	// Append stores a new fact and returns its store-issued id.
	Append(ctx context.Context, userID, text string) (string, error)
}
