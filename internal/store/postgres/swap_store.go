package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/ststx-signer/internal/domain"
)

// SwapStore implements domain.SwapStore using PostgreSQL.
type SwapStore struct {
	pool *pgxpool.Pool
}

// NewSwapStore creates a SwapStore backed by the given connection pool.
func NewSwapStore(pool *pgxpool.Pool) *SwapStore {
	return &SwapStore{pool: pool}
}

// Create inserts a new ledger row.
func (s *SwapStore) Create(ctx context.Context, rec domain.SwapRecord) error {
	const query = `
		INSERT INTO swap_records (
			id, action, order_usd, input_micro, min_output_micro,
			fee_micro, txid, status, reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, string(rec.Action), rec.OrderUSD,
		int64(rec.InputMicro), int64(rec.MinOutputMicro), int64(rec.FeeMicro),
		rec.TxID, string(rec.Status), rec.Reason,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create swap record %s: %w", rec.ID, err)
	}
	return nil
}

// MarkOutcome sets the terminal chain outcome of a submitted row.
func (s *SwapStore) MarkOutcome(ctx context.Context, id string, status domain.SwapRecordStatus, reason string) error {
	const query = `
		UPDATE swap_records
		SET status = $1, reason = $2, updated_at = NOW()
		WHERE id = $3`

	tag, err := s.pool.Exec(ctx, query, string(status), reason, id)
	if err != nil {
		return fmt.Errorf("postgres: mark swap record %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: mark swap record %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListSubmittedBefore returns submitted rows created before cutoff, oldest
// first, for the reconciler to poll.
func (s *SwapStore) ListSubmittedBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.SwapRecord, error) {
	const query = `
		SELECT id, action, order_usd, input_micro, min_output_micro,
		       fee_micro, txid, status, reason, created_at, updated_at
		FROM swap_records
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3`

	rows, err := s.pool.Query(ctx, query, string(domain.SwapStatusSubmitted), cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list submitted swaps: %w", err)
	}
	defer rows.Close()

	var out []domain.SwapRecord
	for rows.Next() {
		var rec domain.SwapRecord
		var action, status string
		var input, minOutput, fee int64
		if err := rows.Scan(
			&rec.ID, &action, &rec.OrderUSD, &input, &minOutput,
			&fee, &rec.TxID, &status, &rec.Reason, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan swap record: %w", err)
		}
		rec.Action = domain.Action(action)
		rec.Status = domain.SwapRecordStatus(status)
		rec.InputMicro = uint64(input)
		rec.MinOutputMicro = uint64(minOutput)
		rec.FeeMicro = uint64(fee)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate swap records: %w", err)
	}
	return out, nil
}
