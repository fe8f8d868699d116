package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage linked bank account balances",
}

var accountSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update an account balance",
	RunE:  runAccountSet,
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List account balances",
	RunE:  runAccountList,
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountSetCmd)
	accountCmd.AddCommand(accountListCmd)

	accountSetCmd.Flags().StringP("org", "o", "", "Organization (default from config)")
	accountSetCmd.Flags().StringP("name", "n", "", "Account name")
	accountSetCmd.Flags().StringP("balance", "b", "", "Current balance in USD")
	_ = accountSetCmd.MarkFlagRequired("name")
	_ = accountSetCmd.MarkFlagRequired("balance")

	accountListCmd.Flags().StringP("org", "o", "", "Organization (default from config)")
}

func runAccountSet(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	org, _ := cmd.Flags().GetString("org")
	if org == "" {
		org = cfg.Defaults.Org
	}
	name, _ := cmd.Flags().GetString("name")
	balanceStr, _ := cmd.Flags().GetString("balance")

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return fmt.Errorf("parse balance %q: %w", balanceStr, err)
	}

	store, err := initStorage(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	if err := store.SetAccountBalance(cmd.Context(), org, name, balance); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}

	fmt.Printf("Account updated:\n")
	fmt.Printf("  Org:      %s\n", org)
	fmt.Printf("  Name:     %s\n", name)
	fmt.Printf("  Balance:  $%s\n", balance.StringFixed(2))

	return nil
}

func runAccountList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	org, _ := cmd.Flags().GetString("org")
	if org == "" {
		org = cfg.Defaults.Org
	}

	store, err := initStorage(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	accounts, err := store.ListAccounts(cmd.Context(), org)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	if len(accounts) == 0 {
		fmt.Println("No accounts linked. Use 'burnwatch account set' to add one.")
		return nil
	}

	total := decimal.Zero
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "NAME\tBALANCE\tUPDATED\n")
	for _, a := range accounts {
		total = total.Add(a.Balance)
		fmt.Fprintf(w, "%s\t$%s\t%s\n", a.Name, a.Balance.StringFixed(2), a.UpdatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "TOTAL\t$%s\t\n", total.StringFixed(2))
	w.Flush()

	return nil
}
