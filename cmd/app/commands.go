package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"CryptoSignal/internal/di"
	domrepo "CryptoSignal/internal/domain/repository"
	"CryptoSignal/internal/usecase"
	"CryptoSignal/pkg/config"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "cryptosignal",
		Short:         "Multi-timeframe trading signals for crypto assets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newPredictCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithEnv(*configPath)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			app, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			return app.Run(cmd.Context())
		},
	}
}

func newPredictCmd(configPath *string) *cobra.Command {
	var (
		timeframes string
		asJSON     bool
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "predict [COIN]",
		Short: "Print a prediction bundle for one coin",
		Long: `Fetch bars for every requested timeframe and print the signals.
Example: cryptosignal predict bitcoin --timeframes 1h,daily`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithEnv(*configPath)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			// One-shot runs keep everything in process.
			cfg.Cache.Backend = "memory"
			cfg.Kafka.Enabled = false
			cfg.Warmup.Enabled = false
			cfg.Logger.Level = "error"

			predictions, err := di.InitializePredictions(cfg)
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			bundle, err := predictions.PredictAll(ctx, args[0], domrepo.ParseTimeframeList(timeframes))
			if err != nil && !(errors.Is(err, usecase.ErrNoPredictions) && bundle != nil) {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(bundle)
			}
			fmt.Println(renderBundle(bundle))
			return err
		},
	}
	cmd.Flags().StringVar(&timeframes, "timeframes", "", "comma separated timeframes (all when empty)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall deadline")
	return cmd
}
