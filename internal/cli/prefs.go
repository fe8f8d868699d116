package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finsight-hq/burnwatch/pkg/model"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage per-user notification preferences",
}

var prefsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save a user's notification preferences",
	RunE:  runPrefsSet,
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a user's notification preferences",
	RunE:  runPrefsShow,
}

func init() {
	rootCmd.AddCommand(prefsCmd)
	prefsCmd.AddCommand(prefsSetCmd)
	prefsCmd.AddCommand(prefsShowCmd)

	prefsSetCmd.Flags().StringP("user", "u", "", "User (default from config)")
	prefsSetCmd.Flags().StringP("org", "o", "", "Organization (default from config)")
	prefsSetCmd.Flags().String("min-severity", "info", "Minimum severity to notify (info, warning, critical)")
	prefsSetCmd.Flags().Int("quiet-start", -1, "Quiet hours start (local hour 0-23, -1 disables)")
	prefsSetCmd.Flags().Int("quiet-end", -1, "Quiet hours end (local hour 0-23, -1 disables)")
	prefsSetCmd.Flags().String("timezone", "", "IANA timezone for quiet hours (e.g. America/New_York)")

	prefsShowCmd.Flags().StringP("user", "u", "", "User (default from config)")
}

func runPrefsSet(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		user = cfg.Defaults.User
	}
	org, _ := cmd.Flags().GetString("org")
	if org == "" {
		org = cfg.Defaults.Org
	}
	minSeverity, _ := cmd.Flags().GetString("min-severity")
	quietStart, _ := cmd.Flags().GetInt("quiet-start")
	quietEnd, _ := cmd.Flags().GetInt("quiet-end")
	timezone, _ := cmd.Flags().GetString("timezone")

	severity := model.Severity(minSeverity)
	if severity.Rank() < 0 {
		return fmt.Errorf("unknown severity %q", minSeverity)
	}

	// Channels and destinations come from the config file; the stored
	// preferences only override the filtering knobs.
	prefs := cfg.Notifications.Preferences()
	prefs.MinSeverity = severity
	if timezone != "" {
		prefs.Timezone = timezone
	}
	if quietStart >= 0 && quietEnd >= 0 {
		if quietStart > 23 || quietEnd > 23 {
			return fmt.Errorf("quiet hours must be local hours 0-23")
		}
		prefs.QuietHoursStart = &quietStart
		prefs.QuietHoursEnd = &quietEnd
	} else {
		prefs.QuietHoursStart = nil
		prefs.QuietHoursEnd = nil
	}

	store, err := initStorage(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	if err := store.SavePreferences(cmd.Context(), user, org, prefs); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}

	fmt.Printf("Preferences saved for %s.\n", user)
	return nil
}

func runPrefsShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		user = cfg.Defaults.User
	}

	store, err := initStorage(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	prefs, err := store.GetPreferences(cmd.Context(), user)
	if err != nil {
		return fmt.Errorf("get preferences: %w", err)
	}

	fmt.Printf("Preferences for %s:\n", user)
	fmt.Printf("  Min severity:  %s\n", prefs.MinSeverity)
	if prefs.QuietHoursStart != nil && prefs.QuietHoursEnd != nil {
		fmt.Printf("  Quiet hours:   %02d:00-%02d:00\n", *prefs.QuietHoursStart, *prefs.QuietHoursEnd)
	} else {
		fmt.Printf("  Quiet hours:   disabled\n")
	}
	if prefs.Timezone != "" {
		fmt.Printf("  Timezone:      %s\n", prefs.Timezone)
	}
	for _, c := range prefs.Channels {
		state := "off"
		if c.Enabled {
			state = "on"
		}
		fmt.Printf("  Channel %-6s %s", c.Type, state)
		if c.Destination != "" {
			fmt.Printf(" (%s)", c.Destination)
		}
		fmt.Println()
	}

	return nil
}
