package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/finsight-hq/burnwatch/pkg/model"
	"github.com/finsight-hq/burnwatch/pkg/notify"
	"github.com/finsight-hq/burnwatch/pkg/threshold"
)

// Config holds all burnwatch configuration.
type Config struct {
	Storage       StorageConfig       `mapstructure:"storage"`
	Server        ServerConfig        `mapstructure:"server"`
	Thresholds    ThresholdsConfig    `mapstructure:"thresholds"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Defaults      DefaultsConfig      `mapstructure:"defaults"`
}

// StorageConfig defines database settings.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig defines HTTP API settings.
type ServerConfig struct {
	Listen       string `mapstructure:"listen"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// ThresholdsConfig mirrors the threshold policy; PolicyFile, when set, is a
// YAML file overriding these values.
type ThresholdsConfig struct {
	PolicyFile           string  `mapstructure:"policy_file"`
	RunwayWarningMonths  float64 `mapstructure:"runway_warning_months"`
	RunwayCriticalMonths float64 `mapstructure:"runway_critical_months"`
	VendorSpikePct       float64 `mapstructure:"vendor_spike_pct"`
	BurnAccelerationPct  float64 `mapstructure:"burn_acceleration_pct"`
	LargeTransactionUSD  float64 `mapstructure:"large_transaction_usd"`
	VendorFloorUSD       float64 `mapstructure:"vendor_floor_usd"`
	MaxAlerts            int     `mapstructure:"max_alerts"`
}

// NotificationsConfig defines channels, preference gates, and routing.
type NotificationsConfig struct {
	MinSeverity string              `mapstructure:"min_severity"`
	Timezone    string              `mapstructure:"timezone"`
	QuietHours  QuietHoursConfig    `mapstructure:"quiet_hours"`
	Slack       SlackConfig         `mapstructure:"slack"`
	Email       EmailConfig         `mapstructure:"email"`
	SMS         SMSConfig           `mapstructure:"sms"`
	Routing     map[string][]string `mapstructure:"routing"`
	ActionURL   string              `mapstructure:"action_url"`
}

// QuietHoursConfig suppresses non-critical notifications between Start and
// End (local hours, overnight wraparound allowed) when enabled.
type QuietHoursConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Start   int  `mapstructure:"start"`
	End     int  `mapstructure:"end"`
}

// SlackConfig defines the Slack webhook channel.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
}

// EmailConfig defines the email channel and its SMTP relay.
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	To       string `mapstructure:"to"`
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	From     string `mapstructure:"from"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// SMSConfig defines the SMS channel.
type SMSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Number  string `mapstructure:"number"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultsConfig defines default identifiers for CLI invocations.
type DefaultsConfig struct {
	Org  string `mapstructure:"org"`
	User string `mapstructure:"user"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".burnwatch"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("storage.path", filepath.Join(home, ".burnwatch", "burnwatch.db"))
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")

	def := threshold.Default()
	v.SetDefault("thresholds.runway_warning_months", def.RunwayWarningMonths)
	v.SetDefault("thresholds.runway_critical_months", def.RunwayCriticalMonths)
	v.SetDefault("thresholds.vendor_spike_pct", def.VendorSpikePct)
	v.SetDefault("thresholds.burn_acceleration_pct", def.BurnAccelerationPct)
	v.SetDefault("thresholds.large_transaction_usd", def.LargeTransactionUSD)
	v.SetDefault("thresholds.vendor_floor_usd", def.VendorFloorUSD)
	v.SetDefault("thresholds.max_alerts", def.MaxAlerts)

	v.SetDefault("notifications.min_severity", "info")
	v.SetDefault("notifications.quiet_hours.enabled", false)
	v.SetDefault("notifications.quiet_hours.start", 22)
	v.SetDefault("notifications.quiet_hours.end", 7)
	v.SetDefault("notifications.email.smtp_port", 587)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("defaults.org", "default")
	v.SetDefault("defaults.user", "default")

	// Environment variables
	v.SetEnvPrefix("BURNWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// ThresholdPolicy resolves the effective threshold policy: the policy file
// when one is configured, otherwise the inline threshold values.
func (c *Config) ThresholdPolicy() (threshold.Config, error) {
	if c.Thresholds.PolicyFile != "" {
		return threshold.LoadFile(c.Thresholds.PolicyFile)
	}
	return threshold.Config{
		RunwayWarningMonths:  c.Thresholds.RunwayWarningMonths,
		RunwayCriticalMonths: c.Thresholds.RunwayCriticalMonths,
		VendorSpikePct:       c.Thresholds.VendorSpikePct,
		BurnAccelerationPct:  c.Thresholds.BurnAccelerationPct,
		LargeTransactionUSD:  c.Thresholds.LargeTransactionUSD,
		VendorFloorUSD:       c.Thresholds.VendorFloorUSD,
		MaxAlerts:            c.Thresholds.MaxAlerts,
	}, nil
}

// Preferences builds notification preferences from the configured channels.
func (n NotificationsConfig) Preferences() notify.Preferences {
	p := notify.Preferences{
		Channels: []notify.ChannelConfig{
			{Type: notify.ChannelEmail, Enabled: n.Email.Enabled, Destination: n.Email.To},
			{Type: notify.ChannelSlack, Enabled: n.Slack.Enabled, Destination: n.Slack.WebhookURL},
			{Type: notify.ChannelSMS, Enabled: n.SMS.Enabled, Destination: n.SMS.Number},
		},
		MinSeverity: model.Severity(n.MinSeverity),
		Timezone:    n.Timezone,
	}
	if n.QuietHours.Enabled {
		start, end := n.QuietHours.Start, n.QuietHours.End
		p.QuietHoursStart = &start
		p.QuietHoursEnd = &end
	}
	return p
}

// RoutingPolicy builds the severity routing from config, falling back to the
// default policy when no routing is configured.
func (n NotificationsConfig) RoutingPolicy() notify.RoutingPolicy {
	if len(n.Routing) == 0 {
		return notify.DefaultRoutingPolicy()
	}

	policy := make(notify.RoutingPolicy, len(n.Routing))
	for severity, channels := range n.Routing {
		var cs []notify.Channel
		for _, c := range channels {
			cs = append(cs, notify.Channel(c))
		}
		policy[model.Severity(severity)] = cs
	}
	return policy
}
