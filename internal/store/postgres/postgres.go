package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/keepsake-ai/keepsake/internal/model"
	"github.com/keepsake-ai/keepsake/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and
// verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres-backed fact store.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

// Store implements store.FactStore backed by PostgreSQL.
type Store struct{ db *sql.DB }

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the facts table when it does not exist. Deployments
// with managed migrations can skip this.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS facts (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			text          TEXT NOT NULL,
			memory_date   TEXT NOT NULL DEFAULT '',
			source_column TEXT NOT NULL DEFAULT '',
			source_row    BIGINT NOT NULL DEFAULT 0,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			seq           BIGSERIAL
		);
		CREATE INDEX IF NOT EXISTS idx_facts_user ON facts(user_id);
	`)
	return err
}

// Search returns facts whose text contains any keyword of the term,
// in insertion order, with query-scoped match counts.
func (s *Store) Search(ctx context.Context, userID, term string) ([]model.FactHit, error) {
	keywords := store.Keywords(term)
	if len(keywords) == 0 {
		return nil, nil
	}

	where := make([]string, 0, len(keywords))
	args := []interface{}{userID}
	for i, kw := range keywords {
		where = append(where, fmt.Sprintf("lower(text) LIKE $%d", i+2))
		args = append(args, "%"+kw+"%")
	}

	q := fmt.Sprintf(`
		SELECT id, user_id, text, memory_date, source_column, source_row, created_at
		FROM facts
		WHERE user_id = $1 AND (%s)
		ORDER BY seq ASC`, strings.Join(where, " OR "))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []model.FactHit
	for rows.Next() {
		var f model.Fact
		var created time.Time
		if err := rows.Scan(&f.ID, &f.UserID, &f.Text, &f.MemoryDate, &f.Column, &f.RowID, &created); err != nil {
			return nil, err
		}
		f.CreatedAt = created
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
		`UPDATE facts SET text = $1 WHERE user_id = $2 AND id = $3`,
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
		`DELETE FROM facts WHERE user_id = $1 AND id = $2`,
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
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO facts (id, user_id, text, memory_date, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id, userID, text, now.Format("2006-01-02"), now)
	if err != nil {
		return "", err
	}
	return id, nil
}
