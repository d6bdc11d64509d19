package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/textchat-relay/internal/app"
	"github.com/vovakirdan/textchat-relay/internal/config"
	applog "github.com/vovakirdan/textchat-relay/internal/log"
)

type options struct {
	configPath string
	logLevel   string
}

func main() {
	// A missing .env file is fine; the environment may already be set.
	envErr := godotenv.Load()

	opts := &options{}
	root := &cobra.Command{
		Use:           "textchat",
		Short:         "Real-time text chat relay",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRelay(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "users",
		Short: "Run the users service the relay authenticates against",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUsers(cmd.Context(), opts)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if envErr != nil && !os.IsNotExist(envErr) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", envErr)
	}

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func setup(opts *options) (config.Config, *zerolog.Logger, error) {
	bootLogger := applog.New(opts.logLevel)

	cfg, path, err := config.Load(bootLogger, opts.configPath)
	if err != nil {
		return cfg, nil, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	logger := applog.NewWithWriter(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	logger.Debug().Str("path", path).Msg("config loaded")
	gin.SetMode(gin.ReleaseMode)
	return cfg, logger, nil
}

func runRelay(ctx context.Context, opts *options) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}

	application, err := app.New(ctx, &cfg, logger)
	if err != nil {
		return err
	}

	logger.Info().
		Str("addr", application.Addr()).
		Str("users_service", cfg.UsersService.LoginEndpoint).
		Msg("starting chat relay")
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("relay exited: %w", err)
	}
	logger.Info().Msg("chat relay stopped")
	return nil
}

func runUsers(ctx context.Context, opts *options) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}

	application, err := app.NewUsers(&cfg, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("addr", application.Addr()).Msg("starting users service")
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("users service exited: %w", err)
	}
	logger.Info().Msg("users service stopped")
	return nil
}
