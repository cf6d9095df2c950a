package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go-shop-api/config"
	"go-shop-api/internal/app"
	"go-shop-api/internal/database"
	"go-shop-api/internal/logger"
	"go-shop-api/internal/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shop-api",
	Short: "Repair shop service: job parts, invoices and estimates",
	RunE:  runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if migrateDown {
			return database.MigrateDown(cfg.DB.DSN())
		}
		return database.Migrate(cfg.DB.DSN())
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll back every migration")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret is required to serve")
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.Close()
	log.Infof("Application wired: %s", application)

	srv := server.NewServer(application)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Application gracefully stopped.")
	return nil
}
