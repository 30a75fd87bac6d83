package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/voicespaces-server/internal/app"
	"github.com/vovakirdan/voicespaces-server/internal/config"
	applog "github.com/vovakirdan/voicespaces-server/internal/log"
	"github.com/vovakirdan/voicespaces-server/internal/store/sqlite"
)

type options struct {
	configPath string
	overrides  config.Config
}

func main() {
	// A missing .env is fine; variables may come from the environment.
	_ = godotenv.Load()

	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "voicespaces",
		Short:         "Room-state coordinator for shared voice spaces",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config.yaml")
	flags.StringVar(&opts.overrides.Addr, "addr", "", "HTTP listen address")
	flags.StringVar(&opts.overrides.DatabasePath, "db", "", "SQLite database path")
	flags.StringVar(&opts.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.overrides.LogFormat, "log-format", "", "log format (console, json)")
	flags.DurationVar(&opts.overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")

	rootCmd.AddCommand(serveCmd(opts), migrateCmd(opts))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		stop()
		os.Exit(1)
	}
}

func serveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the websocket and HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), opts)
		},
	}
}

func migrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(opts)
			if err != nil {
				return err
			}

			st, err := sqlite.Open(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			if err := st.Migrate(); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info().Str("db_path", cfg.DatabasePath).Msg("migrations applied")
			return nil
		},
	}
}

func loadConfig(opts *options) (config.Config, *zerolog.Logger, error) {
	bootLogger := applog.New("info", "console")

	cfg, path, err := config.Load(bootLogger, opts.configPath)
	if err != nil {
		return cfg, nil, err
	}
	cfg.UpdateFrom(opts.overrides)

	logger := applog.New(cfg.LogLevel, cfg.LogFormat)
	logger.Debug().Str("config_path", path).Msg("configuration loaded")
	return cfg, logger, nil
}

func serve(ctx context.Context, opts *options) error {
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if cfg.JWTSecret == config.Default().JWTSecret {
		logger.Warn().Msg("jwt_secret is the default value; set VOICESPACES_JWT_SECRET")
	}

	application, err := app.New(ctx, &cfg, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting voicespaces server")
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
