package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	LocaleEnglish = "en"
	LocaleChinese = "zh"
)

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// DashboardConfig controls the refresher. A zero timeout means the status
// fetch has no deadline of its own.
type DashboardConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Timeout  string `mapstructure:"timeout"`
	Locale   string `mapstructure:"locale"`
}

type StatusConfig struct {
	File string `mapstructure:"file"`
}

type CheckerConfig struct {
	ProxiesFile   string `mapstructure:"proxies_file"`
	TestURL       string `mapstructure:"test_url"`
	Timeout       string `mapstructure:"timeout"`
	SlowThreshold string `mapstructure:"slow_threshold"`
	Concurrency   int    `mapstructure:"concurrency"`
	Samples       int    `mapstructure:"samples"`
	Interval      string `mapstructure:"interval"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Status    StatusConfig    `mapstructure:"status"`
	Checker   CheckerConfig   `mapstructure:"checker"`
}

// FlagKeys maps command-line flag names to the configuration keys they
// override. Flags missing from the set passed to Load are skipped.
var FlagKeys = map[string]string{
	"addr":           "server.address",
	"env":            "server.environment",
	"log-level":      "logging.level",
	"endpoint":       "dashboard.endpoint",
	"timeout":        "dashboard.timeout",
	"locale":         "dashboard.locale",
	"status-file":    "status.file",
	"proxies":        "checker.proxies_file",
	"test-url":       "checker.test_url",
	"check-timeout":  "checker.timeout",
	"slow-threshold": "checker.slow_threshold",
	"concurrency":    "checker.concurrency",
	"samples":        "checker.samples",
	"interval":       "checker.interval",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.address", ":5000")
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("dashboard.endpoint", "http://127.0.0.1:5000/api/status")
	v.SetDefault("dashboard.timeout", "0s")
	v.SetDefault("dashboard.locale", LocaleEnglish)
	v.SetDefault("status.file", "proxy_status.json")
	v.SetDefault("checker.proxies_file", "proxies.json")
	v.SetDefault("checker.test_url", "http://www.gstatic.com/generate_204")
	v.SetDefault("checker.timeout", "10s")
	v.SetDefault("checker.slow_threshold", "2s")
	v.SetDefault("checker.concurrency", 1)
	v.SetDefault("checker.samples", 1)
	v.SetDefault("checker.interval", "0s")
}

// Load reads and validates the configuration. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Error("failed to read .env file", slog.String("error", err.Error()))
			return nil, err
		}
	} else {
		slog.Debug("loaded .env file")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if flags != nil {
		for name, key := range FlagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, err
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Debug("config file not found, using defaults and environment variables")
	} else {
		slog.Debug("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

// TimeoutDuration returns the parsed fetch timeout. Zero means none.
func (c DashboardConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func (c CheckerConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// IntervalDuration returns the pause between checks. Zero means a single
// check.
func (c CheckerConfig) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.Interval)
	return d
}

func (c CheckerConfig) SlowThresholdDuration() time.Duration {
	d, _ := time.ParseDuration(c.SlowThreshold)
	return d
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Dashboard,
			validation.Required,
			validation.By(func(value interface{}) error {
				dc, ok := value.(DashboardConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a DashboardConfig")
				}
				return validation.ValidateStruct(&dc,
					validation.Field(&dc.Endpoint,
						validation.Required,
						validation.By(validateServerURL),
					),
					validation.Field(&dc.Timeout,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&dc.Locale,
						validation.Required,
						validation.In(LocaleEnglish, LocaleChinese),
					),
				)
			}),
		),
		validation.Field(&c.Status,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(StatusConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a StatusConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.File, validation.Required),
				)
			}),
		),
		validation.Field(&c.Checker,
			validation.Required,
			validation.By(func(value interface{}) error {
				cc, ok := value.(CheckerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a CheckerConfig")
				}
				return validation.ValidateStruct(&cc,
					validation.Field(&cc.ProxiesFile, validation.Required),
					validation.Field(&cc.TestURL,
						validation.Required,
						validation.By(validateServerURL),
					),
					validation.Field(&cc.Timeout,
						validation.Required,
						validation.By(validatePositiveDuration),
					),
					validation.Field(&cc.SlowThreshold,
						validation.Required,
						validation.By(validatePositiveDuration),
					),
					validation.Field(&cc.Concurrency,
						validation.Required,
						validation.Min(1),
					),
					validation.Field(&cc.Samples,
						validation.Required,
						validation.Min(1),
					),
					validation.Field(&cc.Interval,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	// Port 0 asks the kernel for a free port.
	if port != "0" {
		if err := is.Port.Validate(port); err != nil {
			return validation.NewError("validation_invalid_port", "invalid port")
		}
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	if d < 0 {
		return validation.NewError("validation_negative_duration", "must not be negative")
	}

	return nil
}

func validatePositiveDuration(value interface{}) error {
	if err := validateDuration(value); err != nil {
		return err
	}

	d, _ := time.ParseDuration(value.(string))
	if d == 0 {
		return validation.NewError("validation_zero_duration", "must be greater than zero")
	}

	return nil
}

func validateServerURL(value interface{}) error {
	serverURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if serverURL == "" {
		return validation.NewError("validation_empty_url", "URL cannot be empty")
	}

	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}
