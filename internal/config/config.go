package config

import (
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	// DateField names the field records are bucketed by. Empty means
	// auto-detect.
	DateField string `yaml:"date_field" mapstructure:"date_field"`
	// Timezone is the IANA zone months are evaluated in; "Local" by default.
	Timezone string `yaml:"timezone" mapstructure:"timezone"`

	Source     SourceConfig     `yaml:"source" mapstructure:"source"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	File       FileConfig       `yaml:"file" mapstructure:"file"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// SourceConfig selects where enquiry records come from.
type SourceConfig struct {
	Kind string `yaml:"kind" mapstructure:"kind"` // notion, salesforce, file
	// CreatedField exposes the platform's record creation time as a
	// date-time field of this name.
	CreatedField string `yaml:"created_field" mapstructure:"created_field"`
	// FieldTypes overrides inferred file column types (name -> type).
	FieldTypes map[string]string `yaml:"field_types" mapstructure:"field_types"`
	// RetryAttempts bounds attempts per load on transient failures.
	RetryAttempts int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	// BreakerThreshold consecutive failed loads stop further loads for
	// BreakerResetSecs.
	BreakerThreshold int `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// NotionConfig holds Notion API credentials and the enquiry database.
type NotionConfig struct {
	Token      string  `yaml:"token" mapstructure:"token"`
	DatabaseID string  `yaml:"database_id" mapstructure:"database_id"`
	RateLimit  float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// SalesforceConfig holds Salesforce JWT auth settings and the object read.
type SalesforceConfig struct {
	ClientID  string   `yaml:"client_id" mapstructure:"client_id"`
	Username  string   `yaml:"username" mapstructure:"username"`
	KeyPath   string   `yaml:"key_path" mapstructure:"key_path"`
	LoginURL  string   `yaml:"login_url" mapstructure:"login_url"`
	Object    string   `yaml:"object" mapstructure:"object"`
	Fields    []string `yaml:"fields" mapstructure:"fields"`
	Where     string   `yaml:"where" mapstructure:"where"`
	RateLimit float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// FileConfig locates a CSV, XLSX, JSON or zipped export.
type FileConfig struct {
	Location    string `yaml:"location" mapstructure:"location"`
	Format      string `yaml:"format" mapstructure:"format"`
	Sheet       string `yaml:"sheet" mapstructure:"sheet"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// StoreConfig configures the snapshot history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the metrics API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// MonitoringConfig configures pace and conversion alerts.
type MonitoringConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
	// PaceDropPct alerts when the current month trails a prorated baseline
	// by at least this many percent.
	PaceDropPct int `yaml:"pace_drop_pct" mapstructure:"pace_drop_pct"`
	// ConversionDropPct alerts when a conversion rate falls this many
	// percent below last month's.
	ConversionDropPct int `yaml:"conversion_drop_pct" mapstructure:"conversion_drop_pct"`
	// MinRecords is the smallest month considered for conversion alerts.
	MinRecords int `yaml:"min_records" mapstructure:"min_records"`
	// UndatedRatio alerts when more than this share of records has no date.
	UndatedRatio      float64 `yaml:"undated_ratio" mapstructure:"undated_ratio"`
	CheckIntervalSecs int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Source kinds.
const (
	SourceNotion     = "notion"
	SourceSalesforce = "salesforce"
	SourceFile       = "file"
)

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENQUIRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("date_field", "")
	v.SetDefault("timezone", "Local")
	v.SetDefault("source.kind", SourceFile)
	v.SetDefault("source.created_field", "")
	v.SetDefault("source.retry_attempts", 3)
	v.SetDefault("source.breaker_threshold", 5)
	v.SetDefault("source.breaker_reset_secs", 60)
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.database_id", "")
	v.SetDefault("notion.rate_limit", 3)
	v.SetDefault("salesforce.client_id", "")
	v.SetDefault("salesforce.username", "")
	v.SetDefault("salesforce.key_path", "")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.object", "Lead")
	v.SetDefault("salesforce.where", "")
	v.SetDefault("salesforce.rate_limit", 5)
	v.SetDefault("file.location", "")
	v.SetDefault("file.format", "")
	v.SetDefault("file.sheet", "")
	v.SetDefault("file.timeout_secs", 60)
	v.SetDefault("file.user_agent", "enquiry-cli/1.0")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "enquiry-history.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.pace_drop_pct", 25)
	v.SetDefault("monitoring.conversion_drop_pct", 30)
	v.SetDefault("monitoring.min_records", 5)
	v.SetDefault("monitoring.undated_ratio", 0.2)
	v.SetDefault("monitoring.check_interval_secs", 3600)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the selected source has what it needs to load.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceNotion:
		if c.Notion.Token == "" || c.Notion.DatabaseID == "" {
			return eris.New("config: notion.token and notion.database_id are required")
		}
	case SourceSalesforce:
		if c.Salesforce.ClientID == "" || c.Salesforce.Username == "" || c.Salesforce.KeyPath == "" {
			return eris.New("config: salesforce.client_id, salesforce.username and salesforce.key_path are required")
		}
	case SourceFile:
		if c.File.Location == "" {
			return eris.New("config: file.location is required")
		}
	default:
		return eris.Errorf("config: unknown source kind %q", c.Source.Kind)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if !slices.Contains([]string{"", "sqlite", "postgres"}, c.Store.Driver) {
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, eris.Wrapf(err, "config: load timezone %q", c.Timezone)
	}
	return loc, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
