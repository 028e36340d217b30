// Package rounds logs each player's rounds to SQLite: started, then won or lost.
package rounds

import (
	"context"
	"database/sql"
	"time"
)

// Row is one logged round. Target is only known once the round is finished.
type Row struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Tries      int    `json:"tries"`
	MaxTries   int    `json:"maxTries"`
	Target     *int   `json:"target,omitempty"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

// Store reads and writes the rounds table.
type Store struct{ db *sql.DB }

// NewStore wraps an open, migrated database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Started inserts a playing row; repeated ids are ignored.
func (s *Store) Started(ctx context.Context, playerID, roundID string, maxTries int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO rounds (id, player_id, status, tries, max_tries, started_at)
         VALUES (?, ?, 'playing', 0, ?, ?)`,
		roundID, playerID, maxTries, now(),
	)
	return err
}

// Progress records the tries used so far.
func (s *Store) Progress(ctx context.Context, playerID, roundID string, tries int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE rounds SET tries=? WHERE id=? AND player_id=?`,
		tries, roundID, playerID,
	)
	return err
}

// Finished marks the round won or lost and stores its target.
func (s *Store) Finished(ctx context.Context, playerID, roundID, status string, tries, target int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE rounds SET status=?, tries=?, target=?, finished_at=? WHERE id=? AND player_id=?`,
		status, tries, target, now(), roundID, playerID,
	)
	return err
}

// Recent returns the player's latest rounds, newest first.
func (s *Store) Recent(ctx context.Context, playerID string, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, tries, max_tries, target, started_at, COALESCE(finished_at, '')
         FROM rounds
         WHERE player_id=?
         ORDER BY started_at DESC, rowid DESC
         LIMIT ?`, playerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Row, 0, limit)
	for rows.Next() {
		var r Row
		var target sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Status, &r.Tries, &r.MaxTries, &target, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		if target.Valid {
			t := int(target.Int64)
			r.Target = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeletePlayer drops the player's history (quit).
func (s *Store) DeletePlayer(ctx context.Context, playerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rounds WHERE player_id=?`, playerID)
	return err
}

// timeLayout is fixed-width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func now() string { return time.Now().UTC().Format(timeLayout) }
