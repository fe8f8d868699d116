package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate burn thresholds and report alerts",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringP("org", "o", "", "Organization (default from config)")
	checkCmd.Flags().StringP("user", "u", "", "User whose notification preferences apply (default from config)")
	checkCmd.Flags().Bool("notify", false, "Dispatch alerts to configured channels")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	org, _ := cmd.Flags().GetString("org")
	if org == "" {
		org = cfg.Defaults.Org
	}
	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		user = cfg.Defaults.User
	}
	doNotify, _ := cmd.Flags().GetBool("notify")

	logger := newLogger(cfg)

	store, err := initStorage(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	evaluator, err := initEvaluator(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("init evaluator: %w", err)
	}

	alerts := evaluator.Check(cmd.Context(), org)
	if len(alerts) == 0 {
		fmt.Printf("No alerts for %s.\n", org)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SEVERITY\tTYPE\tTITLE\tMESSAGE\n")
	for _, a := range alerts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", strings.ToUpper(string(a.Severity)), a.Type, a.Title, a.Message)
	}
	w.Flush()

	if !doNotify {
		return nil
	}

	dispatcher := initDispatcher(cfg, logger)
	prefs := resolvePreferences(cmd.Context(), store, cfg, user)

	delivered, failed := 0, 0
	for _, alert := range alerts {
		results := dispatcher.Dispatch(cmd.Context(), prefs, alert, cfg.Notifications.ActionURL)
		if len(results) == 0 {
			continue
		}

		if err := store.LogAlert(cmd.Context(), org, alert); err != nil {
			logger.Error("log alert", "type", alert.Type, "error", err)
		}
		for _, r := range results {
			if r.Success {
				delivered++
			} else {
				failed++
			}
		}
	}

	fmt.Printf("\nDispatched: %d delivered, %d failed\n", delivered, failed)
	return nil
}
