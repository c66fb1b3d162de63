package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"payrun/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the payrun configuration file.",
}

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configuration file from the example template.",
	Long: `Create a new configuration file from the example template.

If a configuration file is already in use, no new file is written.`,
	Example: `
  # Create default config at $HOME/.payrun.yaml
  payrun config create
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigPath()
		if err != nil {
			return err
		}

		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("Config file already exists at: %s\n", configPath)
			return nil
		}

		if err := os.WriteFile(configPath, []byte(config.ExampleYAML()), 0o600); err != nil {
			return fmt.Errorf("write config file %s: %w", configPath, err)
		}
		fmt.Printf("New config file created at: %s\n", configPath)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration after validation.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		fmt.Printf("Config file: %s\n", viper.ConfigFileUsed())
		fmt.Printf("Server addr: %s\n", cfg.Server.Addr)
		fmt.Printf("Data dir: %s\n", cfg.Paths.DataDir)
		fmt.Printf("Reports dir: %s\n", cfg.Paths.ReportsDir)
		fmt.Printf("Default rate: %.2f\n", cfg.Payroll.DefaultRate)
		if len(cfg.Zoho.Companies) == 0 {
			fmt.Println("Zoho companies: none configured")
			return nil
		}
		names := make([]string, 0, len(cfg.Zoho.Companies))
		for _, company := range cfg.Zoho.Companies {
			names = append(names, company.Name)
		}
		fmt.Printf("Zoho companies: %s\n", strings.Join(names, ", "))
		return nil
	},
}

func resolveConfigPath() (string, error) {
	if strings.TrimSpace(cfgFile) != "" {
		return cfgFile, nil
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return used, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".payrun.yaml"), nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCreateCmd)
	configCmd.AddCommand(configShowCmd)
}
