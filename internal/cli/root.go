package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/finsight-hq/burnwatch/internal/config"
	"github.com/finsight-hq/burnwatch/pkg/notify"
	"github.com/finsight-hq/burnwatch/pkg/storage"
	"github.com/finsight-hq/burnwatch/pkg/threshold"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "burnwatch",
	Short: "Burnwatch - burn rate and runway monitoring with threshold alerts",
	Long: `Burnwatch watches a company's bank transactions for burn-rate problems.
It computes burn rate and runway from imported transactions, evaluates
configurable thresholds (low runway, vendor spend spikes, burn acceleration,
large transactions), and routes the resulting alerts to email, Slack, or SMS
subject to per-user notification preferences.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.burnwatch/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initStorage creates a storage backend from config.
func initStorage(cfg *config.Config) (storage.Storage, error) {
	return storage.NewSQLite(cfg.Storage.Path)
}

// initEvaluator creates a threshold evaluator backed by storage.
func initEvaluator(cfg *config.Config, store storage.Storage, logger *slog.Logger) (*threshold.Evaluator, error) {
	policy, err := cfg.ThresholdPolicy()
	if err != nil {
		return nil, err
	}
	return threshold.NewEvaluator(policy, store, store, logger), nil
}

// initNotifiers creates delivery channels from config.
func initNotifiers(cfg *config.Config) []notify.Notifier {
	var notifiers []notify.Notifier

	if cfg.Notifications.Slack.Enabled && cfg.Notifications.Slack.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier())
	}

	if cfg.Notifications.Email.Enabled && cfg.Notifications.Email.SMTPHost != "" {
		transport := &notify.SMTPTransport{
			Host:     cfg.Notifications.Email.SMTPHost,
			Port:     cfg.Notifications.Email.SMTPPort,
			From:     cfg.Notifications.Email.From,
			Username: cfg.Notifications.Email.Username,
			Password: cfg.Notifications.Email.Password,
		}
		notifiers = append(notifiers, notify.NewEmailNotifier(transport))
	}

	if cfg.Notifications.SMS.Enabled {
		notifiers = append(notifiers, notify.NewSMSNotifier())
	}

	return notifiers
}

// initDispatcher creates a fully wired alert dispatcher.
func initDispatcher(cfg *config.Config, logger *slog.Logger) *notify.Dispatcher {
	return notify.NewDispatcher(initNotifiers(cfg), cfg.Notifications.RoutingPolicy(), logger)
}

// resolvePreferences returns the user's stored notification preferences,
// falling back to the config-file channels when the user has none saved.
func resolvePreferences(ctx context.Context, store storage.Storage, cfg *config.Config, userID string) notify.Preferences {
	if prefs, err := store.GetPreferences(ctx, userID); err == nil {
		return prefs
	}
	return cfg.Notifications.Preferences()
}
