package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth" validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm" validate:"required"`
	Scheduling SchedulingConfig `mapstructure:"scheduling" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error fatal"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains the bearer token settings.
type AuthConfig struct {
	JWTSecret       string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenTTLMinutes int    `mapstructure:"token_ttl_minutes" validate:"gte=1"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName         string `mapstructure:"model_name" validate:"required"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" validate:"gte=1,lte=120"`
	MaxRetries        int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=1,lte=60"`

	// PromptDir optionally holds prompt templates overriding the built-in ones.
	PromptDir string `mapstructure:"prompt_dir"`
}

// Timeout returns the per-question oracle deadline.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SchedulingConfig tunes the scheduling engine.
type SchedulingConfig struct {
	Timezone     string `mapstructure:"timezone" validate:"required,timezone"`
	HorizonDays  int    `mapstructure:"horizon_days" validate:"gte=1,lte=31"`
	GraceMinutes int    `mapstructure:"grace_minutes" validate:"gte=1,lte=1440"`

	// SuggestPeriod asks the oracle for a period when a description has no
	// period keyword.
	SuggestPeriod bool `mapstructure:"suggest_period"`

	// QuestionsPath optionally points at a YAML onboarding catalogue.
	QuestionsPath string `mapstructure:"questions_path"`
}

// Location resolves the configured timezone.
func (c SchedulingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
