package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type SourceConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type FetchConfig struct {
	PageSize        int
	MaxPages        int
	MaxRetries      int
	TimeoutDelay    time.Duration
	ConnectionDelay time.Duration
	RateLimitDelay  time.Duration
	PageDelay       time.Duration
}

type PlansConfig struct {
	BatchSize     int
	PageSize      int
	PageDelay     time.Duration
	BatchDelay    time.Duration
	ShortPageStop bool
}

type ExportConfig struct {
	CustomerBIN string
	FinYear     int
	Mode        string
	Format      string
	OutputDir   string
	FontPath    string
}

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type Config struct {
	Environment string
	Source      SourceConfig
	Fetch       FetchConfig
	Plans       PlansConfig
	Export      ExportConfig
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AutomaticEnv()

	setDefaults(v)
	_ = v.ReadInConfig()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("GOSZAKUP_URL", "https://ows.goszakup.gov.kz/v3/graphql")
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("CUSTOMER_BIN", "020240003361")
	v.SetDefault("FIN_YEAR", 2025)
	v.SetDefault("MAX_PAGES", 0)
	v.SetDefault("OUTPUT_DIR", ".")
	v.SetDefault("OUTPUT_FORMAT", "xlsx")
	v.SetDefault("FETCH_PAGE_SIZE", 200)
	v.SetDefault("FETCH_MAX_RETRIES", 10)
	v.SetDefault("FETCH_TIMEOUT_DELAY", "5s")
	v.SetDefault("FETCH_CONNECTION_DELAY", "10s")
	v.SetDefault("FETCH_RATE_LIMIT_DELAY", "60s")
	v.SetDefault("FETCH_PAGE_DELAY", "500ms")
	v.SetDefault("PLAN_BATCH_SIZE", 100)
	v.SetDefault("PLAN_PAGE_SIZE", 200)
	v.SetDefault("PLAN_PAGE_DELAY", "300ms")
	v.SetDefault("PLAN_BATCH_DELAY", "500ms")
	v.SetDefault("PLAN_SHORT_PAGE_STOP", true)
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 7090)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		Source: SourceConfig{
			URL:     v.GetString("GOSZAKUP_URL"),
			Token:   strings.TrimSpace(v.GetString("TOKEN")),
			Timeout: v.GetDuration("HTTP_TIMEOUT"),
		},
		Fetch: FetchConfig{
			PageSize:        v.GetInt("FETCH_PAGE_SIZE"),
			MaxPages:        v.GetInt("MAX_PAGES"),
			MaxRetries:      v.GetInt("FETCH_MAX_RETRIES"),
			TimeoutDelay:    v.GetDuration("FETCH_TIMEOUT_DELAY"),
			ConnectionDelay: v.GetDuration("FETCH_CONNECTION_DELAY"),
			RateLimitDelay:  v.GetDuration("FETCH_RATE_LIMIT_DELAY"),
			PageDelay:       v.GetDuration("FETCH_PAGE_DELAY"),
		},
		Plans: PlansConfig{
			BatchSize:     v.GetInt("PLAN_BATCH_SIZE"),
			PageSize:      v.GetInt("PLAN_PAGE_SIZE"),
			PageDelay:     v.GetDuration("PLAN_PAGE_DELAY"),
			BatchDelay:    v.GetDuration("PLAN_BATCH_DELAY"),
			ShortPageStop: v.GetBool("PLAN_SHORT_PAGE_STOP"),
		},
		Export: ExportConfig{
			CustomerBIN: strings.TrimSpace(v.GetString("CUSTOMER_BIN")),
			FinYear:     v.GetInt("FIN_YEAR"),
			Mode:        strings.ToLower(strings.TrimSpace(v.GetString("EXPORT_MODE"))),
			Format:      strings.ToLower(strings.TrimSpace(v.GetString("OUTPUT_FORMAT"))),
			OutputDir:   v.GetString("OUTPUT_DIR"),
			FontPath:    v.GetString("PDF_FONT_PATH"),
		},
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
	}

	if cfg.Export.Mode == "detailed" {
		cfg.Export.Mode = "detail"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Source.Token == "" {
		return fmt.Errorf("TOKEN is required")
	}
	if cfg.Export.FinYear <= 0 {
		return fmt.Errorf("FIN_YEAR must be a positive integer")
	}
	if cfg.Fetch.MaxPages < 0 {
		return fmt.Errorf("MAX_PAGES must not be negative")
	}
	if cfg.Fetch.PageSize <= 0 || cfg.Plans.PageSize <= 0 {
		return fmt.Errorf("page sizes must be positive")
	}
	if cfg.Plans.BatchSize <= 0 {
		return fmt.Errorf("PLAN_BATCH_SIZE must be positive")
	}
	if cfg.Fetch.MaxRetries <= 0 {
		return fmt.Errorf("FETCH_MAX_RETRIES must be positive")
	}
	switch cfg.Export.Mode {
	case "", "summary", "detail":
	default:
		return fmt.Errorf("EXPORT_MODE must be summary or detail, got %q", cfg.Export.Mode)
	}
	switch cfg.Export.Format {
	case "xlsx", "pdf":
	default:
		return fmt.Errorf("OUTPUT_FORMAT must be xlsx or pdf, got %q", cfg.Export.Format)
	}
	return nil
}
