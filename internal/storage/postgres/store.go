package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vrfRoulette/internal/model"
)

// Store provides Postgres persistence for rounds and draw statistics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables used by the store if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// RecordOutcome inserts or updates a finished round keyed by tx hash.
// Rounds that never produced a transaction are skipped.
func (s *Store) RecordOutcome(ctx context.Context, outcome model.RoundOutcome) error {
	if outcome.TxHash == "" {
		return nil
	}

	var result *int16
	if outcome.ResultNumber != nil {
		v := int16(*outcome.ResultNumber)
		result = &v
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO wager_rounds (
			chain_id, tx_hash, player, chosen_number, result_number, is_winner,
			request_id, delivery, result_block, reason, error, started_at, finished_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,now())
		ON CONFLICT (chain_id, tx_hash)
		DO UPDATE SET
			result_number = COALESCE(EXCLUDED.result_number, wager_rounds.result_number),
			is_winner = EXCLUDED.is_winner,
			request_id = COALESCE(NULLIF(EXCLUDED.request_id, ''), wager_rounds.request_id),
			delivery = EXCLUDED.delivery,
			result_block = EXCLUDED.result_block,
			reason = EXCLUDED.reason,
			error = EXCLUDED.error,
			finished_at = EXCLUDED.finished_at,
			updated_at = now()
	`,
		int64(outcome.ChainID),
		outcome.TxHash,
		outcome.Player,
		int16(outcome.ChosenNumber),
		result,
		outcome.IsWinner,
		outcome.RequestID,
		string(outcome.Delivery),
		int64(outcome.ResultBlock),
		string(outcome.Reason),
		outcome.Error,
		outcome.StartedAt,
		outcome.FinishedAt,
	)
	return err
}

// UpsertDrawWindowStats inserts or updates draw statistics per window.
func (s *Store) UpsertDrawWindowStats(ctx context.Context, stats []model.DrawWindowStats) error {
	if len(stats) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range stats {
		var top *int16
		if m.TopNumber != nil {
			v := int16(*m.TopNumber)
			top = &v
		}
		batch.Queue(`
			INSERT INTO draw_window_stats (
				chain_id, contract, window_size_seconds, window_start_ts, window_end_ts,
				draw_count, number_counts, distinct_players, top_number, top_share,
				first_block, last_block, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now(),now())
			ON CONFLICT (chain_id, contract, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				draw_count = EXCLUDED.draw_count,
				number_counts = EXCLUDED.number_counts,
				distinct_players = EXCLUDED.distinct_players,
				top_number = EXCLUDED.top_number,
				top_share = EXCLUDED.top_share,
				first_block = LEAST(draw_window_stats.first_block, EXCLUDED.first_block),
				last_block = GREATEST(draw_window_stats.last_block, EXCLUDED.last_block),
				updated_at = now()
		`,
			int64(m.ChainID),
			m.Contract,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.DrawCount),
			m.NumberCounts,
			int64(m.DistinctPlayers),
			top,
			m.TopShare,
			int64(m.FirstBlock),
			int64(m.LastBlock),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range stats {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns last_processed_ts for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_ts FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(ts), true, nil
}

// SaveState upserts last_processed_ts for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_ts = EXCLUDED.last_processed_ts, updated_at = now()
	`, name, int64(ts))
	return err
}
