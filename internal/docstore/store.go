// Package docstore persists the mapping from internal document ids to
// external keys in SQL, so ranked results can be reported by key after the
// in-memory index is rebuilt elsewhere.
package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/sqldb"
)

// maxBatch bounds the number of bind parameters per statement.
const maxBatch = 500

// Store reads and writes the doc_keys table:
//
//	CREATE TABLE doc_keys (
//	    doc_id  BIGINT PRIMARY KEY,
//	    doc_key TEXT   NOT NULL
//	);
type Store struct {
	db     *sqldb.Client
	logger *slog.Logger
}

type Entry struct {
	DocID int
	Key   string
}

func New(db *sqldb.Client) *Store {
	return &Store{
		db:     db,
		logger: logger.WithComponent("docstore").With("driver", db.Driver()),
	}
}

// Migrate creates doc_keys if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.DB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS doc_keys (
		doc_id  BIGINT PRIMARY KEY,
		doc_key TEXT   NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating doc_keys table: %w", err)
	}
	return nil
}

// Put upserts entries in one transaction.
func (s *Store) Put(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	query := s.db.Rebind(`INSERT INTO doc_keys (doc_id, doc_key) VALUES (?, ?)
		ON CONFLICT (doc_id) DO UPDATE SET doc_key = excluded.doc_key`)
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("preparing upsert: %w", err)
		}
		defer stmt.Close()
		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, e.DocID, e.Key); err != nil {
				return fmt.Errorf("upserting doc %d: %w", e.DocID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("document keys stored", "count", len(entries))
	return nil
}

// ResolveKeys looks up keys for docIDs. Ids without a row are absent from
// the returned map.
func (s *Store) ResolveKeys(ctx context.Context, docIDs []int) (map[int]string, error) {
	keys := make(map[int]string, len(docIDs))
	for start := 0; start < len(docIDs); start += maxBatch {
		end := min(start+maxBatch, len(docIDs))
		if err := s.resolveBatch(ctx, docIDs[start:end], keys); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func (s *Store) resolveBatch(ctx context.Context, ids []int, into map[int]string) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	query := s.db.Rebind(`SELECT doc_id, doc_key FROM doc_keys WHERE doc_id IN (` + placeholders + `)`)
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying doc keys: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id  int
			key string
		)
		if err := rows.Scan(&id, &key); err != nil {
			return fmt.Errorf("scanning doc key: %w", err)
		}
		into[id] = key
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating doc keys: %w", err)
	}
	return nil
}

// Count returns the number of stored keys.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM doc_keys`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting doc keys: %w", err)
	}
	return n, nil
}
