package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/server"
)

const shutdownTimeout = 10 * time.Second

// Flag values; empty or unset flags leave the environment configuration alone
var (
	flagPort    string
	flagHost    string
	flagDev     bool
	flagStorage string
	flagAppsDir string
)

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "NexusOS desktop session service",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the desktop API",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAppsDir, "apps-dir", "", "Directory of extra application manifests")
	rootCmd.PersistentFlags().BoolVar(&flagDev, "dev", false, "Development mode (colored debug logs)")

	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVar(&flagPort, "port", "", "Server port")
		cmd.Flags().StringVar(&flagHost, "host", "", "Server host")
		cmd.Flags().StringVar(&flagStorage, "storage", "", "Preference storage driver (sqlite|memory)")
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(catalogCmd)
}

// loadConfig reads env configuration and applies flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = flagPort
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = flagHost
	}
	if cmd.Flags().Changed("storage") {
		cfg.Storage.Driver = flagStorage
	}
	if cmd.Flags().Changed("apps-dir") {
		cfg.Catalog.AppsDir = flagAppsDir
	}
	if flagDev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := server.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP shutdown failed", zap.Error(err))
		}
		return srv.Close()
	case err := <-errChan:
		_ = srv.Close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
