package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepsake-ai/keepsake/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "keepsake-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Append(ctx, "u1", "User's dog is named Max")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	hits, err := s.Search(ctx, "u1", "dog name")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].ID)
	assert.Equal(t, "User's dog is named Max", hits[0].Text)
	// "dog" once, "name" once (inside "named").
	assert.Equal(t, 2, hits[0].MatchCount)
	assert.NotEmpty(t, hits[0].MemoryDate)
	assert.False(t, hits[0].CreatedAt.IsZero())
}

func TestSearchScopedToUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Append(ctx, "u1", "User likes pizza")
	require.NoError(t, err)
	_, err = s.Append(ctx, "u2", "User likes pizza too")
	require.NoError(t, err)

	hits, err := s.Search(ctx, "u1", "pizza")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "u1", hits[0].UserID)
}

func TestSearchKeepsInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.Append(ctx, "u1", "pizza first")
	require.NoError(t, err)
	id2, err := s.Append(ctx, "u1", "pizza second")
	require.NoError(t, err)

	hits, err := s.Search(ctx, "u1", "pizza")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, id1, hits[0].ID)
	assert.Equal(t, id2, hits[1].ID)
}

func TestSearchNoKeywords(t *testing.T) {
	s := newTestStore(t)
	hits, err := s.Search(context.Background(), "u1", "a of")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchNoMatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.Append(ctx, "u1", "User works at Acme")
	require.NoError(t, err)

	hits, err := s.Search(ctx, "u1", "dog name")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Append(ctx, "u1", "User's dog is named Rex")
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, "u1", id, "User's dog is named Max"))

	hits, err := s.Search(ctx, "u1", "dog")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "User's dog is named Max", hits[0].Text)
}

func TestUpdateNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.Update(context.Background(), "u1", "missing", "x")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpdateOtherUsersFactNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Append(ctx, "u1", "User likes tea")
	require.NoError(t, err)

	err = s.Update(ctx, "u2", id, "hijacked")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Append(ctx, "u1", "User likes pizza")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "u1", id))

	hits, err := s.Search(ctx, "u1", "pizza")
	require.NoError(t, err)
	assert.Empty(t, hits)

	// Second delete of the same id reports not found.
	assert.ErrorIs(t, s.Delete(ctx, "u1", id), model.ErrNotFound)
}

func TestDeleteOtherUsersFactNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Append(ctx, "u1", "User likes tea")
	require.NoError(t, err)

	assert.ErrorIs(t, s.Delete(ctx, "u2", id), model.ErrNotFound)

	hits, err := s.Search(ctx, "u1", "tea")
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestHealthPing(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.HealthPing(context.Background()))
}
