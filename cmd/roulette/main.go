package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"vrfRoulette/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "roulette",
		Short:        "VRF roulette client and casino log tools",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			return config.LoadDotEnv(envFile)
		},
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("env-file", ".env", "dotenv file with ROULETTE_* variables")

	root.AddCommand(newSpinCmd())
	root.AddCommand(newLogsCmd())
	root.AddCommand(newIndexCmd())
	root.AddCommand(newStatsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func configFile(cmd *cobra.Command) string {
	cfgFile, _ := cmd.Flags().GetString("config")
	return cfgFile
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
