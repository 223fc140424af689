package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vrfRoulette/internal/casino"
	"vrfRoulette/internal/chain"
	"vrfRoulette/internal/config"
	"vrfRoulette/internal/eventsource"
	"vrfRoulette/internal/metrics"
	"vrfRoulette/internal/model"
	"vrfRoulette/internal/session"
	"vrfRoulette/internal/storage"
	"vrfRoulette/internal/storage/postgres"
)

func newSpinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spin",
		Short: "Play one round on the chosen number",
		RunE:  runSpin,
	}

	cmd.Flags().String("rpc", "", "RPC URL (ws:// enables push delivery)")
	cmd.Flags().String("contract", config.DefaultContract, "casino contract address")
	cmd.Flags().String("private-key", "", "hex private key of the playing account")
	cmd.Flags().Uint64("chain-id", config.DefaultChainID, "expected chain id")
	cmd.Flags().Uint64("confirmations", 3, "confirmations before waiting for the result")
	cmd.Flags().Int("number", config.NoNumber, "number to bet on (0-36)")
	cmd.Flags().Duration("poll-interval", session.DefaultPollInterval, "result poll interval")
	cmd.Flags().Duration("reveal-timeout", session.DefaultRevealTimeout, "reveal safety timeout")
	cmd.Flags().Duration("spin-duration", 3*time.Second, "time the wheel spins before the result is shown")
	cmd.Flags().Duration("watch-interval", 15*time.Second, "chain id check interval")
	cmd.Flags().String("out", "./data/rounds.jsonl", "round outcomes JSONL path")
	cmd.Flags().String("pg-dsn", "", "optional Postgres DSN for round outcomes")
	cmd.Flags().String("metrics-addr", "", "optional listen address for /metrics")
	cmd.Flags().String("topic0-map", "", "extra topic0->event mappings (comma-separated key=value)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

func runSpin(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadSpin(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !common.IsHexAddress(cfg.Contract) {
		return fmt.Errorf("invalid contract address %q", cfg.Contract)
	}
	contract := common.HexToAddress(cfg.Contract)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	chainID, err := client.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("read chain id: %w", err)
	}

	submitter, err := chain.NewSubmitter(client, contract, cfg.PrivateKey, chainID)
	if err != nil {
		return err
	}

	wait := chain.DefaultWaitConfig()
	wait.Confirmations = cfg.Confirmations
	gateway := chain.NewGateway(client, submitter, chainID.Uint64(), wait)

	registry, err := casino.NewRegistry(casino.RegistryConfig{Topic0Map: cfg.Topic0Map})
	if err != nil {
		return err
	}

	source := eventsource.NewChainSource(client, eventsource.ChainSourceConfig{
		ChainID: chainID.Uint64(),
		Logger:  logger,
	})

	recorder, closeRecorder, err := openOutcomeSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRecorder()

	sessionMetrics := metrics.NewSession()
	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux(sessionMetrics), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics listener stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	wallet := gateway.Wallet()
	coordinator, err := session.New(session.Config{
		Contract:        contract.Hex(),
		ExpectedChainID: cfg.ChainID,
		Wallet:          wallet,
		PollInterval:    cfg.PollInterval,
		RevealTimeout:   cfg.RevealTimeout,
		Chain:           gateway,
		Source:          source,
		Registry:        registry,
		Recorder:        recorder,
		Observer:        sessionMetrics,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	runErr := make(chan error, 1)
	go func() { runErr <- coordinator.Run(ctx) }()

	if cfg.WatchInterval > 0 {
		go chain.WatchChainID(ctx, client, wallet.ChainID, cfg.WatchInterval, logger, func(id uint64) {
			coordinator.WalletChanged(model.Wallet{Account: wallet.Account, ChainID: id})
		})
	}

	logger.Info("spin start",
		zap.String("account", wallet.Account),
		zap.String("contract", contract.Hex()),
		zap.Uint64("chain_id", wallet.ChainID),
		zap.Int("number", cfg.Number),
	)

	if err := coordinator.Spin(ctx, cfg.Number); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return presentRound(ctx, cmd.OutOrStdout(), coordinator, cfg.SpinDuration, sigCh, runErr)
}

// presentRound prints round updates until the round is back at idle. The
// first signal resets the round; a second one aborts.
func presentRound(ctx context.Context, out io.Writer, c *session.Coordinator, spinDuration time.Duration, sigCh <-chan os.Signal, runErr <-chan error) error {
	var revealTimer *time.Timer
	defer func() {
		if revealTimer != nil {
			revealTimer.Stop()
		}
	}()

	interrupted := false
	for {
		select {
		case snap := <-c.Updates():
			printSnapshot(out, snap)
			switch snap.Phase {
			case model.PhaseRevealing:
				if revealTimer == nil {
					round := snap.Round
					revealTimer = time.AfterFunc(spinDuration, func() { c.RevealComplete(round) })
				}
			case model.PhaseIdle:
				return nil
			}
		case <-sigCh:
			if interrupted {
				return errors.New("interrupted")
			}
			interrupted = true
			fmt.Fprintln(out, "resetting round (interrupt again to quit)")
			c.Reset()
		case err := <-runErr:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func printSnapshot(out io.Writer, snap model.RoundSnapshot) {
	switch snap.Phase {
	case model.PhasePendingTransaction:
		if snap.TxHash == "" {
			fmt.Fprintf(out, "submitting bet on %d\n", deref(snap.ChosenNumber))
			return
		}
		fmt.Fprintf(out, "waiting for confirmations on %s\n", snap.TxHash)
	case model.PhaseWaitingForResult:
		if snap.RequestID != nil {
			fmt.Fprintf(out, "waiting for randomness (request %s)\n", *snap.RequestID)
			return
		}
		fmt.Fprintln(out, "waiting for randomness")
	case model.PhaseRevealing:
		verdict := "lose"
		if snap.IsWinner {
			verdict = "WIN"
		}
		fmt.Fprintf(out, "the wheel is spinning... %d (%s)\n", deref(snap.ResultNumber), verdict)
	case model.PhaseIdle:
		fmt.Fprintln(out, "round finished")
	}
}

func deref(n *int) int {
	if n == nil {
		return config.NoNumber
	}
	return *n
}

func metricsMux(m *metrics.Session) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}

func openOutcomeSinks(ctx context.Context, cfg config.SpinConfig, logger *zap.Logger) (storage.OutcomeSink, func(), error) {
	sinks := storage.MultiOutcomeSink{storage.NewJsonlStorage(cfg.Out)}
	if cfg.PGDSN == "" {
		return sinks, func() {}, nil
	}

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	logger.Info("recording outcomes to postgres")
	return append(sinks, store), store.Close, nil
}
