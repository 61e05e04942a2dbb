package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "TEMPO"

// Group names a configuration group for partial validation.
type Group string

// Configuration groups.
const (
	GroupServer     Group = "server"
	GroupDatabase   Group = "database"
	GroupAuth       Group = "auth"
	GroupLLM        Group = "llm"
	GroupScheduling Group = "scheduling"
)

var defaults = map[string]any{
	"server.port":               8080,
	"server.log_level":          "info",
	"database.url":              "",
	"auth.jwt_secret":           "",
	"auth.token_ttl_minutes":    60,
	"llm.gemini_api_key":        "",
	"llm.model_name":            "gemini-2.0-flash",
	"llm.timeout_seconds":       10,
	"llm.max_retries":           3,
	"llm.retry_delay_seconds":   2,
	"llm.prompt_dir":            "",
	"scheduling.timezone":       "UTC",
	"scheduling.horizon_days":   7,
	"scheduling.grace_minutes":  30,
	"scheduling.suggest_period": false,
	"scheduling.questions_path": "",
}

type loadOptions struct {
	configFile string
	envFiles   []string
}

// Option customizes Load.
type Option func(*loadOptions)

// WithConfigFile reads the given file instead of searching for config.yaml.
func WithConfigFile(path string) Option {
	return func(o *loadOptions) { o.configFile = path }
}

// WithEnvFiles loads the given dotenv files instead of ./.env.
func WithEnvFiles(paths ...string) Option {
	return func(o *loadOptions) { o.envFiles = paths }
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load(opts ...Option) (*Config, error) {
	return LoadGroups(nil, opts...)
}

// LoadGroups loads configuration like Load but validates only the listed
// groups. A nil or empty list validates everything. CLI commands that need a
// single group use this so unrelated settings need not be present.
func LoadGroups(groups []Group, opts ...Option) (*Config, error) {
	o := loadOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if err := loadEnvFiles(o.envFiles); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if o.configFile != "" {
		v.SetConfigFile(o.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateGroups(&cfg, groups); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadEnvFiles loads dotenv files without overriding variables already set.
// A missing default .env file is not an error.
func loadEnvFiles(paths []string) error {
	if len(paths) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	}

	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

func validateGroups(cfg *Config, groups []Group) error {
	validate := validator.New()
	if len(groups) == 0 {
		return validate.Struct(cfg)
	}

	for _, g := range groups {
		var err error
		switch g {
		case GroupServer:
			err = validate.Struct(cfg.Server)
		case GroupDatabase:
			err = validate.Struct(cfg.Database)
		case GroupAuth:
			err = validate.Struct(cfg.Auth)
		case GroupLLM:
			err = validate.Struct(cfg.LLM)
		case GroupScheduling:
			err = validate.Struct(cfg.Scheduling)
		default:
			err = fmt.Errorf("unknown config group %q", g)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
