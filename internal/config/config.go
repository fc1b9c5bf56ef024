package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config carries everything the server needs, resolved once at startup and
// passed into the components that use it. Nothing reads the environment
// after Load returns.
type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	JWTSecret     string `mapstructure:"JWT_SECRET"`
	TokenTTLHours int    `mapstructure:"TOKEN_TTL_HOURS"`

	// StaffCredentials is "account:password" pairs separated by commas.
	// Role accounts (medecins, infirmiers, receptionistes) and named
	// physician accounts live side by side; PhysicianAccounts lists which
	// named accounts resolve to the medecins role.
	StaffCredentials  string   `mapstructure:"STAFF_CREDENTIALS"`
	PhysicianAccounts []string `mapstructure:"PHYSICIAN_ACCOUNTS"`

	// ChiefPhysician may open records signed by any colleague.
	ChiefPhysician string `mapstructure:"CHIEF_PHYSICIAN"`

	SMTPHost        string `mapstructure:"SMTP_HOST"`
	SMTPPort        string `mapstructure:"SMTP_PORT"`
	SMTPFrom        string `mapstructure:"SMTP_FROM"`
	SMTPPassword    string `mapstructure:"SMTP_PASSWORD"`
	NursesEmail     string `mapstructure:"NURSES_EMAIL"`
	PhysiciansEmail string `mapstructure:"PHYSICIANS_EMAIL"`
	ReportEmail     string `mapstructure:"REPORT_EMAIL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("TOKEN_TTL_HOURS", 12)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("TOKEN_TTL_HOURS")
	v.BindEnv("STAFF_CREDENTIALS")
	v.BindEnv("PHYSICIAN_ACCOUNTS")
	v.BindEnv("CHIEF_PHYSICIAN")
	v.BindEnv("SMTP_HOST")
	v.BindEnv("SMTP_PORT")
	v.BindEnv("SMTP_FROM")
	v.BindEnv("SMTP_PASSWORD")
	v.BindEnv("NURSES_EMAIL")
	v.BindEnv("PHYSICIANS_EMAIL")
	v.BindEnv("REPORT_EMAIL")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	if cfg.PhysicianAccounts == nil {
		accounts := v.GetString("PHYSICIAN_ACCOUNTS")
		if accounts != "" {
			cfg.PhysicianAccounts = strings.Split(accounts, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Credentials parses STAFF_CREDENTIALS into an account -> password map.
// Malformed pairs are skipped.
func (c *Config) Credentials() map[string]string {
	creds := make(map[string]string)
	for _, pair := range strings.Split(c.StaffCredentials, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, password, ok := strings.Cut(pair, ":")
		if !ok || name == "" {
			continue
		}
		creds[name] = password
	}
	return creds
}

// Validate checks that the configuration is safe to run. Outside development
// a JWT secret and at least one staff account are required so the API never
// starts unauthenticated by accident.
func (c *Config) Validate() error {
	if !c.IsDev() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when ENV is not development")
		}
		if len(c.Credentials()) == 0 {
			return fmt.Errorf("STAFF_CREDENTIALS must define at least one account when ENV is not development")
		}
	}
	if c.TokenTTLHours <= 0 {
		return fmt.Errorf("TOKEN_TTL_HOURS must be positive, got %d", c.TokenTTLHours)
	}
	return nil
}
