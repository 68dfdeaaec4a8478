package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/keepsake-ai/keepsake/internal/model"
	"github.com/keepsake-ai/keepsake/internal/store"
)

// Store implements store.FactStore using SQLite.
type Store struct {
	db      *sql.DB
	entropy *rand.Rand
}

// New opens or creates a SQLite database at the given path.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS facts (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL,
		text          TEXT NOT NULL,
		memory_date   TEXT NOT NULL DEFAULT '',
		source_column TEXT NOT NULL DEFAULT '',
		source_row    INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_facts_user ON facts(user_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Search returns facts whose text contains any keyword of the term.
// Match counts are computed per query; rows keep insertion order so
// that equal scores tie-break deterministically downstream.
func (s *Store) Search(ctx context.Context, userID, term string) ([]model.FactHit, error) {
	keywords := store.Keywords(term)
	if len(keywords) == 0 {
		return nil, nil
	}

	where := make([]string, 0, len(keywords))
	args := []interface{}{userID}
	for _, kw := range keywords {
		where = append(where, "lower(text) LIKE ?")
		args = append(args, "%"+kw+"%")
	}

	q := fmt.Sprintf(`
		SELECT id, user_id, text, memory_date, source_column, source_row, created_at
		FROM facts
		WHERE user_id = ? AND (%s)
		ORDER BY rowid ASC`, strings.Join(where, " OR "))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []model.FactHit
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, model.FactHit{
			Fact:       f,
			MatchCount: store.MatchCount(f.Text, keywords),
		})
	}
	return hits, rows.Err()
}

// Update replaces the text of one fact, scoped to userID.
func (s *Store) Update(ctx context.Context, userID, id, newText string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE facts SET text = ? WHERE user_id = ? AND id = ?`,
		newText, userID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete removes one fact, scoped to userID.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM facts WHERE user_id = ? AND id = ?`,
		userID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Append stores a new fact and returns its id.
func (s *Store) Append(ctx context.Context, userID, text string) (string, error) {
	id := s.newID()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO facts (id, user_id, text, memory_date, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, userID, text, now.Format("2006-01-02"), now.Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return id, nil
}

func scanFact(rows *sql.Rows) (model.Fact, error) {
	var f model.Fact
	var created string
	if err := rows.Scan(&f.ID, &f.UserID, &f.Text, &f.MemoryDate, &f.Column, &f.RowID, &created); err != nil {
		return model.Fact{}, err
	}
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		f.CreatedAt = t
	}
	return f, nil
}
