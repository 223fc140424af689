package postgres

var schema = []string{
	`CREATE TABLE IF NOT EXISTS wager_rounds (
		chain_id      BIGINT      NOT NULL,
		tx_hash       TEXT        NOT NULL,
		player        TEXT        NOT NULL,
		chosen_number SMALLINT    NOT NULL,
		result_number SMALLINT,
		is_winner     BOOLEAN     NOT NULL DEFAULT false,
		request_id    TEXT        NOT NULL DEFAULT '',
		delivery      TEXT        NOT NULL DEFAULT '',
		result_block  BIGINT      NOT NULL DEFAULT 0,
		reason        TEXT        NOT NULL,
		error         TEXT        NOT NULL DEFAULT '',
		started_at    TIMESTAMPTZ NOT NULL,
		finished_at   TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (chain_id, tx_hash)
	)`,
	`CREATE TABLE IF NOT EXISTS draw_window_stats (
		chain_id            BIGINT      NOT NULL,
		contract            TEXT        NOT NULL,
		window_size_seconds BIGINT      NOT NULL,
		window_start_ts     TIMESTAMPTZ NOT NULL,
		window_end_ts       TIMESTAMPTZ NOT NULL,
		draw_count          BIGINT      NOT NULL,
		number_counts       BIGINT[]    NOT NULL,
		distinct_players    BIGINT      NOT NULL,
		top_number          SMALLINT,
		top_share           NUMERIC,
		first_block         BIGINT      NOT NULL,
		last_block          BIGINT      NOT NULL,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (chain_id, contract, window_size_seconds, window_start_ts)
	)`,
	`CREATE TABLE IF NOT EXISTS indexer_state (
		name              TEXT        PRIMARY KEY,
		last_processed_ts BIGINT      NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}
