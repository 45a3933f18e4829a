package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emtbot/pkg/bot"
	"emtbot/pkg/config"
	"emtbot/pkg/logging"
	"emtbot/pkg/metrics"
	"emtbot/pkg/ratelimit"
	"emtbot/pkg/telegram"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot",
	Long:  "Long-polls the Telegram Bot API and answers stop, location, help and about messages with live EMT data.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		logger, err := logging.New(os.Stderr, cfg.LogLevel)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		collector := metrics.NewCollector()
		if cfg.MetricsAddr != "" {
			srv := collector.Serve(cfg.MetricsAddr, logger)
			defer func() {
				shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
				defer stop()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}

		client := newEMTClient(cfg, logger, collector)
		gateway, err := telegram.NewBot(cfg.Telegram.Token, telegram.Options{
			APIURL:      cfg.Telegram.APIURL,
			PollTimeout: cfg.Telegram.PollTimeout(),
			Logger:      logger,
		})
		if err != nil {
			return err
		}

		handlers := bot.NewHandlers(client, gateway, logger, collector)

		var limiter bot.Limiter
		if l := ratelimit.New(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst, 0); l != nil {
			limiter = l
			logger.Info("rate limiting chats", "per_second", cfg.RateLimit.PerSecond, "burst", cfg.RateLimit.Burst)
		}
		router := bot.NewRouter(handlers, limiter, logger, collector)

		logger.Info("emtbot started", "emt_base_url", cfg.EMT.BaseURL)
		err = gateway.Run(ctx, router.Dispatch)
		logger.Info("emtbot stopped")
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
