package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`

	DBDriver string `mapstructure:"db_driver"`
	DBDSN    string `mapstructure:"db_dsn"`

	SessionSecret string        `mapstructure:"session_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`

	ExportBackend  string `mapstructure:"export_backend"`
	ExportPath     string `mapstructure:"export_local_path"`
	MinioEndpoint  string `mapstructure:"minio_endpoint"`
	MinioAccessKey string `mapstructure:"minio_access_key"`
	MinioSecretKey string `mapstructure:"minio_secret_key"`
	MinioBucket    string `mapstructure:"minio_bucket"`
	MinioRegion    string `mapstructure:"minio_region"`
	MinioUseSSL    bool   `mapstructure:"minio_use_ssl"`

	IdempotencyPath string        `mapstructure:"idempotency_path"`
	IdempotencyTTL  time.Duration `mapstructure:"idempotency_ttl"`

	ShopName         string `mapstructure:"shop_name"`
	ShopPhone        string `mapstructure:"shop_phone"`
	ShopLocation     string `mapstructure:"shop_location"`
	ShopWorkingHours string `mapstructure:"shop_working_hours"`
	TitleTimezone    string `mapstructure:"title_timezone"`

	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
	TestMode bool   `mapstructure:"pricelist_test_mode"`
}

var defaults = map[string]any{
	"listen_addr":         ":8080",
	"db_driver":           "sqlite",
	"db_dsn":              "/data/pricelist.db",
	"session_secret":      "",
	"session_ttl":         "720h",
	"cookie_secure":       false,
	"export_backend":      "local",
	"export_local_path":   "/data/exports",
	"minio_endpoint":      "localhost:9000",
	"minio_access_key":    "",
	"minio_secret_key":    "",
	"minio_bucket":        "pricelist-exports",
	"minio_region":        "",
	"minio_use_ssl":       false,
	"idempotency_path":    "",
	"idempotency_ttl":     "24h",
	"shop_name":           "مركز الحمدان للإتصالات - فرع شين",
	"shop_phone":          "0945 555 647",
	"shop_location":       "شين",
	"shop_working_hours":  "من 9 صباحاً حتى 8 مساءً",
	"title_timezone":      "UTC",
	"log_level":           "info",
	"log_file":            "",
	"pricelist_test_mode": false,
}

// Load reads configuration from defaults, the optional file named by
// PRICELIST_CONFIG and the environment, in increasing precedence.
// Environment variables use the upper-case key, e.g. LISTEN_ADDR.
func Load() (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if path := os.Getenv("PRICELIST_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.SessionSecret == "" && !c.TestMode {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	switch c.DBDriver {
	case "sqlite", "pgx", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	switch c.ExportBackend {
	case "local", "minio":
	default:
		errs = append(errs, fmt.Errorf("unsupported EXPORT_BACKEND %q", c.ExportBackend))
	}
	if _, err := time.LoadLocation(c.TitleTimezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid TITLE_TIMEZONE: %w", err))
	}
	return errors.Join(errs...)
}
