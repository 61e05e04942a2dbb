package ciutil

import (
	"log/slog"
	"os"

	"github.com/phrazzld/tempo/internal/redact"
)

// Environment variables consulted by test tooling.
const (
	// CI environment detection variables
	EnvCI            = "CI"
	EnvGitHubActions = "GITHUB_ACTIONS"
	EnvGitLabCI      = "GITLAB_CI"
	EnvJenkinsURL    = "JENKINS_URL"
	EnvCircleCI      = "CIRCLECI"

	// Database connection environment variables, preferred first
	EnvTempoTestDatabaseURL = "TEMPO_TEST_DATABASE_URL"
	EnvTempoDatabaseURL     = "TEMPO_DATABASE_URL"
	EnvDatabaseURL          = "DATABASE_URL"
)

// DatabaseURLVars lists the variables GetTestDatabaseURL reads, in order.
var DatabaseURLVars = []string{EnvTempoTestDatabaseURL, EnvTempoDatabaseURL, EnvDatabaseURL}

// IsCI returns true if the current environment is a CI environment.
func IsCI() bool {
	for _, name := range []string{EnvCI, EnvGitHubActions, EnvGitLabCI, EnvJenkinsURL, EnvCircleCI} {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// GetEnvWithFallbacks returns the value of the first non-empty environment
// variable in envVars, or defaultValue when none is set. Using a variable
// other than the first is logged with its value redacted.
func GetEnvWithFallbacks(envVars []string, defaultValue string, logger *slog.Logger) string {
	for i, envVar := range envVars {
		if val := os.Getenv(envVar); val != "" {
			if i > 0 && logger != nil {
				logger.Warn("using fallback environment variable",
					slog.String("used_var", envVar),
					slog.String("preferred_var", envVars[0]),
					slog.String("value", redact.String(val)))
			}
			return val
		}
	}
	return defaultValue
}

// GetTestDatabaseURL returns the database URL integration tests connect to,
// or "" when none is configured.
func GetTestDatabaseURL(logger *slog.Logger) string {
	return GetEnvWithFallbacks(DatabaseURLVars, "", logger)
}
