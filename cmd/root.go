/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"payrun/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "payrun",
	Short: "Process weekly timesheets into payroll reports and accounting expenses.",
	Long: `
**********************************************
*                 PAYRUN                     *
**********************************************

This CLI turns attendance CSV exports into weekly payroll: it validates clock
data, computes pay from the per-employee rate table, renders the four Excel
report layouts, reconstructs printable PDFs, and pushes the weekly expense to
Zoho Books. "payrun serve" starts the web UI for the same workflow.
`,
	Example: `
  # Create configuration file
  payrun config create

  # Start the payroll web UI
  payrun serve

  # Process a timecard export from the command line
  payrun process timecard_2026-08-03.csv

  # Manage the pay-rate table
  payrun rates list
  payrun rates set E1 17.50

  # Reconstruct a printable PDF from an admin report
  payrun pdf data/reports/admin_report_2026-08-03.xlsx

  # Push the weekly expense to accounting
  payrun expense push --company acme --week 2026-08-03

  # Fetch a timecard straight from the attendance portal
  payrun fetch --user jane@example.com --from 2026-08-03 --to 2026-08-09
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.payrun.yaml, then ./.payrun.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".payrun" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".payrun")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Create one first with: payrun config create")
	}
}
