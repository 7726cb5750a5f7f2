package sigaudit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists batch records in a local SQLite database — the
// default for a single-host wallet daemon that has no S3 bucket to talk to.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps db, creating the audit table if absent.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	const query = `
	CREATE TABLE IF NOT EXISTS batch_records (
		batch_id      TEXT PRIMARY KEY,
		collected_at  DATETIME NOT NULL,
		success_count INTEGER NOT NULL,
		fail_count    INTEGER NOT NULL,
		outcome_json  TEXT NOT NULL
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	if err != nil {
		return fmt.Errorf("sigaudit: migrating batch_records: %w", err)
	}
	return nil
}

// Put inserts or replaces the record for rec.BatchID.
func (s *SQLiteStore) Put(ctx context.Context, rec BatchRecord) error {
	payload, err := marshalOutcome(rec.Outcome)
	if err != nil {
		return fmt.Errorf("sigaudit: marshaling outcome for batch %s: %w", rec.BatchID, err)
	}

	const query = `
	INSERT INTO batch_records (batch_id, collected_at, success_count, fail_count, outcome_json)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(batch_id) DO UPDATE SET
		collected_at = excluded.collected_at,
		success_count = excluded.success_count,
		fail_count = excluded.fail_count,
		outcome_json = excluded.outcome_json
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.BatchID, rec.CollectedAt.UTC().Format(time.RFC3339Nano), rec.SuccessCount, rec.FailCount, string(payload),
	)
	if err != nil {
		return fmt.Errorf("sigaudit: storing batch %s: %w", rec.BatchID, err)
	}
	return nil
}

// Get loads the record stored for batchID.
func (s *SQLiteStore) Get(ctx context.Context, batchID string) (BatchRecord, error) {
	const query = `
	SELECT batch_id, collected_at, success_count, fail_count, outcome_json
	FROM batch_records WHERE batch_id = ?
	`
	row := s.db.QueryRowContext(ctx, query, batchID)

	var (
		id           string
		collectedAt  string
		successCount int
		failCount    int
		outcomeJSON  string
	)
	if err := row.Scan(&id, &collectedAt, &successCount, &failCount, &outcomeJSON); err != nil {
		if err == sql.ErrNoRows {
			return BatchRecord{}, fmt.Errorf("sigaudit: batch %s not found", batchID)
		}
		return BatchRecord{}, fmt.Errorf("sigaudit: loading batch %s: %w", batchID, err)
	}

	ts, _ := time.Parse(time.RFC3339Nano, collectedAt)
	// outcome_json is kept for archival/compliance replay (pkg/sigcompliance),
	// but wireSignature never persists HDSignature.SignatureBytes, so the
	// full petition.BatchOutcome can't be losslessly rebuilt from it — only
	// the skip list, which wireOutcome does carry in full.
	var w wireOutcome
	if err := json.Unmarshal([]byte(outcomeJSON), &w); err != nil {
		return BatchRecord{}, fmt.Errorf("sigaudit: decoding outcome for batch %s: %w", batchID, err)
	}
	skipped, err := unmarshalSkipped(w)
	if err != nil {
		return BatchRecord{}, fmt.Errorf("sigaudit: decoding skip list for batch %s: %w", batchID, err)
	}

	return BatchRecord{
		BatchID:      id,
		CollectedAt:  ts,
		SuccessCount: successCount,
		FailCount:    failCount,
		Skipped:      skipped,
	}, nil
}
