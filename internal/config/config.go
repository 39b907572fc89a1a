package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Port        string            `mapstructure:"port"`
	Timezone    string            `mapstructure:"timezone"`
	Log         LogConfig         `mapstructure:"log"`
	DB          DBConfig          `mapstructure:"db"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Ledger      LedgerConfig      `mapstructure:"ledger"`
	Health      HealthConfig      `mapstructure:"health"`
	Sync        SyncConfig        `mapstructure:"sync"`
	Shifts      ShiftConfig       `mapstructure:"shifts"`
	Fuel        FuelConfig        `mapstructure:"fuel"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	MQTT        MQTTConfig        `mapstructure:"mqtt"`

	location *time.Location
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// LedgerConfig selects and configures the spreadsheet backend.
type LedgerConfig struct {
	Driver          string `mapstructure:"driver"` // google | memory
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	MonthTab        string `mapstructure:"month_tab"` // fixed tab name; empty derives it from the date
	LogsTab         string `mapstructure:"logs_tab"`
}

type HealthConfig struct {
	OfflineThreshold time.Duration `mapstructure:"offline_threshold"`
	ProbeCooldown    time.Duration `mapstructure:"probe_cooldown"`
}

type SyncConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	CanonicalTTL time.Duration `mapstructure:"canonical_ttl"`
	BatchSize    int           `mapstructure:"batch_size"`
}

type ShiftConfig struct {
	WorkStart     string        `mapstructure:"work_start"` // HH:MM
	WorkEnd       string        `mapstructure:"work_end"`   // HH:MM
	SchedulerTick time.Duration `mapstructure:"scheduler_tick"`
}

type FuelConfig struct {
	BurnRate       float64       `mapstructure:"burn_rate"` // liters per engine hour
	AlertThreshold float64       `mapstructure:"alert_threshold"`
	AlertCooldown  time.Duration `mapstructure:"alert_cooldown"`
}

type MaintenanceConfig struct {
	OilLimitHours   float64 `mapstructure:"oil_limit_hours"`
	SparkLimitHours float64 `mapstructure:"spark_limit_hours"`
}

type MQTTConfig struct {
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

const envPrefix = "GEN"

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("timezone", "Europe/Kyiv")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("db.path", "generator.db")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("ledger.driver", "google")
	v.SetDefault("ledger.spreadsheet_id", "")
	v.SetDefault("ledger.credentials_file", "service_account.json")
	v.SetDefault("ledger.month_tab", "")
	v.SetDefault("ledger.logs_tab", "ПОДІЇ")
	v.SetDefault("health.offline_threshold", 24*time.Hour)
	v.SetDefault("health.probe_cooldown", 5*time.Minute)
	v.SetDefault("sync.interval", 60*time.Second)
	v.SetDefault("sync.canonical_ttl", 30*time.Second)
	v.SetDefault("sync.batch_size", 200)
	v.SetDefault("shifts.work_start", "07:30")
	v.SetDefault("shifts.work_end", "20:30")
	v.SetDefault("shifts.scheduler_tick", 30*time.Second)
	v.SetDefault("fuel.burn_rate", 5.3)
	v.SetDefault("fuel.alert_threshold", 40.0)
	v.SetDefault("fuel.alert_cooldown", 60*time.Minute)
	v.SetDefault("maintenance.oil_limit_hours", 100.0)
	v.SetDefault("maintenance.spark_limit_hours", 100.0)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "generator-ledger")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic_prefix", "generator")
}

// Load reads .env (if present), then configs/config.yml (if present), then
// GEN_* environment overrides. Missing files are not an error.
func Load(configPaths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	if len(configPaths) == 0 {
		configPaths = []string{"configs", "."}
	}
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a service.
func (c *Config) Validate() error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	c.location = loc

	if _, err := ParseClock(c.Shifts.WorkStart); err != nil {
		return fmt.Errorf("shifts.work_start: %w", err)
	}
	if _, err := ParseClock(c.Shifts.WorkEnd); err != nil {
		return fmt.Errorf("shifts.work_end: %w", err)
	}
	switch {
	case c.Sync.Interval <= 0:
		return errors.New("sync.interval must be positive")
	case c.Shifts.SchedulerTick <= 0:
		return errors.New("shifts.scheduler_tick must be positive")
	case c.Health.OfflineThreshold <= 0:
		return errors.New("health.offline_threshold must be positive")
	case c.Fuel.BurnRate < 0:
		return errors.New("fuel.burn_rate must not be negative")
	}
	switch c.Ledger.Driver {
	case "google", "memory":
	default:
		return fmt.Errorf("ledger.driver %q: expected google or memory", c.Ledger.Driver)
	}
	return nil
}

// Location is the zone used for civil timestamps. Valid after Validate.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// ParseClock parses an "HH:MM" time of day into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q, expected HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
