package cmd

import (
	"log/slog"
	"os"

	"emtbot/pkg/config"
	"emtbot/pkg/emt"
	"emtbot/pkg/logging"
)

// newEMTClient builds the openbus client from the EMT section of cfg.
func newEMTClient(cfg *config.AppConfig, logger *slog.Logger, metrics emt.Metrics) *emt.Client {
	return emt.NewClient(emt.NewCredentials(cfg.EMT.Credentials), emt.Options{
		BaseURL:            cfg.EMT.BaseURL,
		Timeout:            cfg.EMT.Timeout(),
		InsecureSkipVerify: cfg.EMT.InsecureSkipVerify,
		MaxAttempts:        cfg.EMT.MaxAttempts,
		Radius:             cfg.EMT.Radius,
		Logger:             logger,
		Metrics:            metrics,
	})
}

// cliClient loads the EMT configuration for the one-shot commands. Logs go to stderr
// so they never mix with the printed results.
func cliClient() (*emt.Client, error) {
	cfg, err := config.LoadEMT(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return newEMTClient(cfg, logger, nil), nil
}
