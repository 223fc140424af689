package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vrfRoulette/internal/casino"
	"vrfRoulette/internal/config"
	"vrfRoulette/internal/explorer"
	"vrfRoulette/internal/model"
)

func newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent casino events from the block explorer",
		RunE:  runLogs,
	}

	cmd.Flags().String("explorer-url", explorer.DefaultBaseURL, "Etherscan-compatible API URL")
	cmd.Flags().String("explorer-key", "", "explorer API key")
	cmd.Flags().String("contract", config.DefaultContract, "casino contract address")
	cmd.Flags().Uint64("chain-id", config.DefaultChainID, "chain id recorded on fetched logs")
	cmd.Flags().Uint64("from", 0, "first block to fetch")
	cmd.Flags().Int("limit", 50, "maximum number of events to print, 0 for all")
	cmd.Flags().Bool("info", false, "also print verified contract metadata")
	cmd.Flags().Bool("source", false, "also print the verified contract source")
	cmd.Flags().String("topic0-map", "", "extra topic0->event mappings (comma-separated key=value)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

func runLogs(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadLogs(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry, err := casino.NewRegistry(casino.RegistryConfig{Topic0Map: cfg.Topic0Map})
	if err != nil {
		return err
	}

	client, err := explorer.NewClient(explorer.Config{
		BaseURL: cfg.ExplorerURL,
		APIKey:  cfg.ExplorerKey,
		ChainID: cfg.ChainID,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	if cfg.Info || cfg.Source {
		info, err := client.FetchContractInfo(ctx, cfg.Contract)
		if err != nil {
			return fmt.Errorf("fetch contract info: %w", err)
		}
		printContractInfo(out, cfg.Contract, info, cfg.Source)
	}

	records, err := client.FetchLogs(ctx, cfg.Contract, cfg.FromBlock)
	if err != nil {
		return fmt.Errorf("fetch logs: %w", err)
	}
	logger.Debug("fetched logs", zap.Int("count", len(records)), zap.Uint64("from", cfg.FromBlock))

	records = casino.SortNewestFirst(records)
	if cfg.Limit > 0 && len(records) > cfg.Limit {
		records = records[:cfg.Limit]
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "no events")
		return nil
	}
	for _, record := range records {
		printEvent(out, record, casino.Decode(record, registry))
	}
	return nil
}

func printEvent(out io.Writer, record model.RawLogRecord, event model.DecodedEvent) {
	prefix := fmt.Sprintf("#%d/%d %s", record.BlockNumber, record.LogIndex, record.TxHash)
	switch typed := casino.Typed(event).(type) {
	case casino.RequestInitiated:
		fmt.Fprintf(out, "%s %s player=%s request=%s\n", prefix, event.Name, typed.Player, typed.RequestID)
	case casino.ResultReady:
		fmt.Fprintf(out, "%s %s player=%s number=%d\n", prefix, event.Name, typed.Player, typed.Number)
	case casino.RandomnessFulfilled:
		fmt.Fprintf(out, "%s %s request=%s word=%s\n", prefix, event.Name, typed.RequestID, typed.RandomWord)
	default:
		fmt.Fprintf(out, "%s %s topic0=%s\n", prefix, event.Name, record.Topic0())
	}
}

func printContractInfo(out io.Writer, address string, info explorer.ContractInfo, withSource bool) {
	fmt.Fprintf(out, "contract %s (%s), compiler %s, optimized %t\n",
		info.ContractName, address, info.CompilerVersion, info.Optimized())
	if !withSource {
		return
	}
	if strings.TrimSpace(info.SourceCode) == "" {
		fmt.Fprintln(out, "source not verified")
		return
	}
	fmt.Fprintln(out, info.SourceCode)
}
