package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently dispatched alerts",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringP("org", "o", "", "Organization (default from config)")
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum alerts to show")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	org, _ := cmd.Flags().GetString("org")
	if org == "" {
		org = cfg.Defaults.Org
	}
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := initStorage(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	logged, err := store.RecentAlerts(cmd.Context(), org, limit)
	if err != nil {
		return fmt.Errorf("list alerts: %w", err)
	}

	if len(logged) == 0 {
		fmt.Println("No alerts dispatched yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "WHEN\tSEVERITY\tTYPE\tTITLE\n")
	for _, l := range logged {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			l.CreatedAt.Format("2006-01-02 15:04"),
			strings.ToUpper(string(l.Alert.Severity)),
			l.Alert.Type,
			l.Alert.Title,
		)
	}
	w.Flush()

	return nil
}
