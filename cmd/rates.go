package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"payrun/config"
	"payrun/payroll"
)

var ratesFileOverride string

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Manage the employee hourly rate table",
}

var ratesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored hourly rates",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openRateStore()
		if err != nil {
			return err
		}
		rates, err := store.Load()
		if err != nil {
			return err
		}
		if len(rates) == 0 {
			fmt.Printf("No rates stored. Employees default to $%.2f/h.\n", payroll.DefaultHourlyRate)
			return nil
		}
		ids := make([]string, 0, len(rates))
		for id := range rates {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Printf("%-12s $%.2f/h\n", id, rates[id])
		}
		return nil
	},
}

var ratesSetCmd = &cobra.Command{
	Use:   "set <employee-id> <rate>",
	Short: "Set an employee's hourly rate",
	Example: `
  payrun rates set 1001 18.50
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rate, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid rate %q: %w", args[1], err)
		}
		store, err := openRateStore()
		if err != nil {
			return err
		}
		if err := store.Set(args[0], rate); err != nil {
			return err
		}
		fmt.Printf("Set %s to $%.2f/h\n", args[0], rate)
		return nil
	},
}

var ratesDeleteCmd = &cobra.Command{
	Use:   "delete <employee-id>",
	Short: "Remove an employee from the rate table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openRateStore()
		if err != nil {
			return err
		}
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s (falls back to $%.2f/h)\n", args[0], payroll.DefaultHourlyRate)
		return nil
	},
}

var ratesImportCmd = &cobra.Command{
	Use:   "import <rates.json>",
	Short: "Merge rates from a JSON file into the table",
	Long: `Read a JSON object mapping employee IDs to hourly rates and merge it
into the stored table. Existing entries for the same IDs are overwritten;
entries not present in the file are left untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		incoming := make(map[string]float64)
		if err := json.Unmarshal(content, &incoming); err != nil {
			return fmt.Errorf("decode %s: %w", args[0], err)
		}
		store, err := openRateStore()
		if err != nil {
			return err
		}
		rates, err := store.Load()
		if err != nil {
			return err
		}
		for id, rate := range incoming {
			rates[id] = rate
		}
		if err := store.Save(rates); err != nil {
			return err
		}
		fmt.Printf("Merged %d rate(s); table now holds %d employee(s)\n", len(incoming), len(rates))
		return nil
	},
}

func openRateStore() (*payroll.RateStore, error) {
	path := ratesFileOverride
	if path == "" {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return nil, err
		}
		path = cfg.Paths.RatesFile
	}
	return payroll.NewRateStore(path), nil
}

func init() {
	rootCmd.AddCommand(ratesCmd)
	ratesCmd.AddCommand(ratesListCmd)
	ratesCmd.AddCommand(ratesSetCmd)
	ratesCmd.AddCommand(ratesDeleteCmd)
	ratesCmd.AddCommand(ratesImportCmd)

	ratesCmd.PersistentFlags().StringVar(&ratesFileOverride, "rates-file", "", "Rates file override")
}
