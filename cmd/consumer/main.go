package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"marketplace_refunds/internal/conf"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "refunds-consumer",
	Short: "Consumes refund alerts and sweeps unreconciled attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := initConsumer(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app.logger.Info("Starting consumer application")
		if err := app.Run(ctx); err != nil {
			app.logger.Error("Consumer application exited with error", zap.Error(err))
			return err
		}
		app.logger.Info("Consumer application shut down gracefully")
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Flags one batch of unreconciled refund attempts and exits",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := initConsumer(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		flagged, err := app.SweepOnce(cmd.Context())
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}
		fmt.Printf("flagged %d unreconciled attempts\n", flagged)
		return nil
	},
}

func initConsumer(cmd *cobra.Command) (*ConsumerApp, func(), error) {
	confPath, _ := cmd.Flags().GetString("config")
	appConfig, err := conf.NewConfig(confPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	app, cleanup, err := InitializeConsumerApp(appConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize consumer app: %w", err)
	}
	return app, cleanup, nil
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "internal/conf/config.yaml", "path to config file")
	rootCmd.AddCommand(sweepCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
