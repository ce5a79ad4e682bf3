// Package history keeps each client's most recent search queries.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vidrank/db"
)

// DefaultSize is how many queries a client keeps.
const DefaultSize = 5

// Entry is one remembered query.
type Entry struct {
	Query      string    `json:"query"`
	SearchedAt time.Time `json:"searched_at"`
}

// Store persists recent queries per client. Re-searching a query moves it
// to the front; the oldest entries beyond Size are dropped.
type Store struct {
	DB   *db.Handle
	Size int
	Now  func() time.Time
}

// NewStore returns a store keeping size queries per client.
func NewStore(d *db.Handle, size int) *Store {
	if size <= 0 {
		size = DefaultSize
	}
	return &Store{DB: d, Size: size, Now: time.Now}
}

// Record remembers query for clientID. Blank queries are ignored.
func (s *Store) Record(ctx context.Context, clientID, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	at := s.Now().UnixMilli()

	return db.WithTx(ctx, s.DB, func(tx *db.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO search_history (client_id, query, searched_at) VALUES (?, ?, ?)
			ON CONFLICT (client_id, query) DO UPDATE SET searched_at = excluded.searched_at
		`, clientID, query, at); err != nil {
			return fmt.Errorf("upsert history: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM search_history
			WHERE client_id = ? AND query NOT IN (
				SELECT query FROM search_history
				WHERE client_id = ?
				ORDER BY searched_at DESC, query
				LIMIT ?
			)
		`, clientID, clientID, s.Size); err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
		return nil
	})
}

// Recent lists clientID's queries, newest first.
func (s *Store) Recent(ctx context.Context, clientID string) ([]Entry, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT query, searched_at FROM search_history
		WHERE client_id = ?
		ORDER BY searched_at DESC, query
		LIMIT ?
	`, clientID, s.Size)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, s.Size)
	for rows.Next() {
		var (
			e  Entry
			ms int64
		)
		if err := rows.Scan(&e.Query, &ms); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.SearchedAt = time.UnixMilli(ms).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear forgets every query of clientID.
func (s *Store) Clear(ctx context.Context, clientID string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM search_history WHERE client_id = ?`, clientID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
