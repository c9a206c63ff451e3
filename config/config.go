package config

import (
	"os"
	"time"

	"emperror.dev/errors"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/pendeploy-nightly/lib/platform"
)

const (
	APITokenEnv  = "RENDER_API_KEY"
	ServiceIDEnv = "RENDER_SERVICE_ID"

	DefaultBaseURL = platform.DefaultBaseURL
)

// ConfigError reports a required setting that is absent or empty
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// Settings contains everything a nightly run needs
type Settings struct {
	APIToken  string `env:"RENDER_API_KEY"`
	ServiceID string `env:"RENDER_SERVICE_ID"`

	BaseURL        string        `env:"RENDER_API_BASE_URL"`
	RequestTimeout time.Duration `env:"DEPLOY_REQUEST_TIMEOUT" envDefault:"30s"` // per remote call
	SettleDelay    time.Duration `env:"DEPLOY_SETTLE_DELAY" envDefault:"10s"`    // pause after the cache clear
	PollInterval   time.Duration `env:"DEPLOY_POLL_INTERVAL" envDefault:"30s"`   // sleep between status checks
	MaxWait        time.Duration `env:"DEPLOY_MAX_WAIT" envDefault:"10m"`        // poll budget
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadEnv loads environment variables from .env files without overriding
// variables that are already set
func LoadEnv(paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		logrus.Debugf("Warning: .env file not loaded (%v), using system environment variables", err)
	}
}

// GetEnv gets an environment variable or returns a default value if not present
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Load reads the settings from the process environment
func Load() (*Settings, error) {
	settings, err := env.ParseAs[Settings]()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse deploy settings")
	}
	return validate(&settings)
}

// LoadFrom reads the settings from an explicit environment
func LoadFrom(environ map[string]string) (*Settings, error) {
	settings, err := env.ParseAsWithOptions[Settings](env.Options{
		Environment: environ,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse deploy settings")
	}
	return validate(&settings)
}

// validate checks both secrets so every missing one is reported
func validate(settings *Settings) (*Settings, error) {
	var errs []error
	if settings.APIToken == "" {
		errs = append(errs, &ConfigError{Message: "missing API token"})
	}
	if settings.ServiceID == "" {
		errs = append(errs, &ConfigError{Message: "missing service id"})
	}
	if err := errors.Combine(errs...); err != nil {
		return nil, err
	}

	if settings.BaseURL == "" {
		settings.BaseURL = DefaultBaseURL
	}
	if settings.MaxWait <= 0 {
		return nil, errors.Errorf("invalid max wait %s: must be positive", settings.MaxWait)
	}
	if settings.PollInterval < 0 || settings.SettleDelay < 0 || settings.RequestTimeout < 0 {
		return nil, errors.New("durations must not be negative")
	}

	return settings, nil
}

// MissingSettings lists the messages of every ConfigError contained in err
func MissingSettings(err error) []string {
	var missing []string
	for _, e := range errors.GetErrors(err) {
		var cfgErr *ConfigError
		if errors.As(e, &cfgErr) {
			missing = append(missing, cfgErr.Message)
		}
	}
	return missing
}
