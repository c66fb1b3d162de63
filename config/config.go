package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"payrun/zoho"
)

const (
	KeyServerAddr       = "server.addr"
	KeyServerSessionTTL = "server.session_ttl_hours"
	KeyPathsData        = "paths.data_dir"
	KeyPathsUploads     = "paths.upload_dir"
	KeyPathsReports     = "paths.reports_dir"
	KeyPathsRates       = "paths.rates_file"
	KeyPathsUsers       = "paths.users_file"
	KeyPathsMetadata    = "paths.metadata_file"
	KeyPathsDatabase    = "paths.database"
	KeyPayrollRate      = "payroll.default_rate"
	KeyZohoCompanies    = "zoho.companies"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Paths   PathsConfig   `mapstructure:"paths"`
	Payroll PayrollConfig `mapstructure:"payroll"`
	Zoho    ZohoConfig    `mapstructure:"zoho"`
}

type ServerConfig struct {
	Addr            string `mapstructure:"addr" validate:"required"`
	SessionTTLHours int    `mapstructure:"session_ttl_hours" validate:"min=1,max=168"`
	// SessionSecret signs login cookies. Loaded from PAYRUN_SESSION_SECRET,
	// never from the config file; a random per-process secret is generated
	// when the variable is unset.
	SessionSecret string `mapstructure:"-"`
}

type PathsConfig struct {
	DataDir      string `mapstructure:"data_dir" validate:"required"`
	UploadDir    string `mapstructure:"upload_dir" validate:"required"`
	ReportsDir   string `mapstructure:"reports_dir" validate:"required"`
	RatesFile    string `mapstructure:"rates_file" validate:"required"`
	UsersFile    string `mapstructure:"users_file" validate:"required"`
	MetadataFile string `mapstructure:"metadata_file" validate:"required"`
	Database     string `mapstructure:"database" validate:"required"`
}

type PayrollConfig struct {
	DefaultRate float64 `mapstructure:"default_rate" validate:"gt=0,lte=10000"`
}

type ZohoConfig struct {
	Companies []ZohoCompany `mapstructure:"companies"`
}

// ZohoCompany names one Zoho Books organization. Credentials are resolved
// from PAYRUN_ZOHO_<NAME>_* environment variables so the config file holds
// no secrets.
type ZohoCompany struct {
	Name               string `mapstructure:"name"`
	OrgID              string `mapstructure:"org_id"`
	ExpenseAccountID   string `mapstructure:"expense_account_id"`
	ExpenseAccountName string `mapstructure:"expense_account_name"`
	PaidThroughID      string `mapstructure:"paid_through_id"`
	PaidThroughName    string `mapstructure:"paid_through_name"`
}

// CompanyConfig resolves the company's API credentials from the environment
// and returns the config the expense client consumes.
func (c ZohoCompany) CompanyConfig() zoho.CompanyConfig {
	prefix := "PAYRUN_ZOHO_" + envKey(c.Name) + "_"
	cfg := zoho.CompanyConfig{
		Name:               c.Name,
		OrgID:              c.OrgID,
		ClientID:           os.Getenv(prefix + "CLIENT_ID"),
		ClientSecret:       os.Getenv(prefix + "CLIENT_SECRET"),
		RefreshToken:       os.Getenv(prefix + "REFRESH_TOKEN"),
		ExpenseAccountID:   c.ExpenseAccountID,
		ExpenseAccountName: c.ExpenseAccountName,
		PaidThroughID:      c.PaidThroughID,
		PaidThroughName:    c.PaidThroughName,
	}
	if orgID := os.Getenv(prefix + "ORG_ID"); orgID != "" {
		cfg.OrgID = orgID
	}
	return cfg
}

func envKey(name string) string {
	upper := strings.ToUpper(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# payrun configuration
server:
  addr: ":8080"
  session_ttl_hours: 12

paths:
  data_dir: "data"
  upload_dir: "data/uploads"
  reports_dir: "data/reports"
  rates_file: "data/rates.json"
  users_file: "data/users.json"
  metadata_file: "data/report_metadata.json"
  database: "data/payrun.db"

payroll:
  default_rate: 15.00

# Credentials come from PAYRUN_ZOHO_<NAME>_CLIENT_ID / _CLIENT_SECRET /
# _REFRESH_TOKEN environment variables.
zoho:
  companies: []
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Server.SessionSecret = os.Getenv("PAYRUN_SESSION_SECRET")

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validateCompanies(cfg.Zoho.Companies); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyServerAddr, ":8080")
	v.SetDefault(KeyServerSessionTTL, 12)
	v.SetDefault(KeyPathsData, "data")
	v.SetDefault(KeyPathsUploads, "data/uploads")
	v.SetDefault(KeyPathsReports, "data/reports")
	v.SetDefault(KeyPathsRates, "data/rates.json")
	v.SetDefault(KeyPathsUsers, "data/users.json")
	v.SetDefault(KeyPathsMetadata, "data/report_metadata.json")
	v.SetDefault(KeyPathsDatabase, "data/payrun.db")
	v.SetDefault(KeyPayrollRate, 15.0)
	v.SetDefault(KeyZohoCompanies, []map[string]any{})
}

func validateCompanies(companies []ZohoCompany) error {
	seen := make(map[string]struct{}, len(companies))
	for i, company := range companies {
		name := strings.TrimSpace(company.Name)
		if name == "" {
			return fmt.Errorf("validation failed: zoho.companies[%d].name is required", i)
		}
		key := strings.ToLower(name)
		if _, exists := seen[key]; exists {
			return fmt.Errorf("validation failed: duplicate company name %q", name)
		}
		seen[key] = struct{}{}
		if company.ExpenseAccountID == "" && company.ExpenseAccountName == "" {
			return fmt.Errorf(
				"validation failed: zoho.companies[%d] requires expense_account_id or expense_account_name",
				i,
			)
		}
		if company.PaidThroughID == "" && company.PaidThroughName == "" {
			return fmt.Errorf(
				"validation failed: zoho.companies[%d] requires paid_through_id or paid_through_name",
				i,
			)
		}
	}
	return nil
}

// Company returns the named Zoho company, matching case-insensitively.
func (c *Config) Company(name string) (ZohoCompany, bool) {
	for _, company := range c.Zoho.Companies {
		if strings.EqualFold(company.Name, name) {
			return company, true
		}
	}
	return ZohoCompany{}, false
}
