package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finsight-hq/burnwatch/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import transactions from a bank-export CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("org", "o", "", "Organization (default from config)")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	org, _ := cmd.Flags().GetString("org")
	if org == "" {
		org = cfg.Defaults.Org
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()

	txns, err := importer.Parse(f, org)
	if err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}
	if len(txns) == 0 {
		fmt.Println("No transactions found.")
		return nil
	}

	store, err := initStorage(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	if err := store.AddTransactions(cmd.Context(), txns); err != nil {
		return fmt.Errorf("store transactions: %w", err)
	}

	fmt.Printf("Imported %d transactions for %s.\n", len(txns), org)
	return nil
}
