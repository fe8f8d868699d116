package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/finsight-hq/burnwatch/pkg/metrics"
	"github.com/finsight-hq/burnwatch/pkg/model"
	"github.com/finsight-hq/burnwatch/pkg/notify"
)

const digestTopVendors = 5

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Build the weekly burn digest",
	RunE:  runDigest,
}

func init() {
	rootCmd.AddCommand(digestCmd)

	digestCmd.Flags().StringP("org", "o", "", "Organization (default from config)")
	digestCmd.Flags().Bool("send", false, "Email the digest instead of printing it")
}

func runDigest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	org, _ := cmd.Flags().GetString("org")
	if org == "" {
		org = cfg.Defaults.Org
	}
	send, _ := cmd.Flags().GetBool("send")

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

	ctx := cmd.Context()
	now := time.Now()
	weekStart := now.AddDate(0, 0, -7)

	txns, err := store.TransactionsInRange(ctx, org, now.AddDate(0, -3, 0), now)
	if err != nil {
		return fmt.Errorf("query transactions: %w", err)
	}
	cash, err := store.TotalCash(ctx, org)
	if err != nil {
		return fmt.Errorf("query balances: %w", err)
	}

	burn := metrics.CalculateBurnRate(txns, now.AddDate(0, -3, 0), now)

	stats := notify.WeeklyStats{
		OrgName:    org,
		WeekStart:  weekStart,
		WeekEnd:    now,
		CashOnHand: cash,
		Burn:       burn,
		Runway:     metrics.CalculateRunway(burn, cash, now),
		TopVendors: topVendors(txns, weekStart, now),
		Alerts:     evaluator.Check(ctx, org),
	}
	digest := notify.BuildWeeklyDigest(stats)

	if !send {
		fmt.Println(digest.Subject)
		fmt.Println()
		fmt.Print(digest.Body)
		return nil
	}

	email := cfg.Notifications.Email
	if !email.Enabled || email.To == "" || email.SMTPHost == "" {
		return fmt.Errorf("email channel not configured; set notifications.email in config")
	}

	notifier := notify.NewEmailNotifier(&notify.SMTPTransport{
		Host:     email.SMTPHost,
		Port:     email.SMTPPort,
		From:     email.From,
		Username: email.Username,
		Password: email.Password,
	})

	result := notifier.SendDigest(ctx, email.To, digest)
	if !result.Success {
		return fmt.Errorf("send digest: %s", result.Error)
	}

	fmt.Printf("Digest sent to %s.\n", email.To)
	return nil
}

// topVendors ranks vendors by debit volume inside [start, end).
func topVendors(txns []model.Transaction, start, end time.Time) []notify.VendorTotal {
	totals := make(map[string]decimal.Decimal)
	for _, t := range txns {
		if t.Type != model.TxnDebit || t.Vendor == "" {
			continue
		}
		if t.Date.Before(start) || !t.Date.Before(end) {
			continue
		}
		totals[t.Vendor] = totals[t.Vendor].Add(t.Outflow())
	}

	ranked := make([]notify.VendorTotal, 0, len(totals))
	for vendor, total := range totals {
		ranked = append(ranked, notify.VendorTotal{Vendor: vendor, Total: total})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Total.GreaterThan(ranked[j].Total) })

	if len(ranked) > digestTopVendors {
		ranked = ranked[:digestTopVendors]
	}
	return ranked
}
