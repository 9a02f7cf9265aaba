package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	ProviderLocal  = "local"
	ProviderGoTrue = "gotrue"
)

// App is the process configuration read from the environment.
type App struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// DB
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Sessions are kept in memory unless REDIS_ADDR is set
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Identity provider
	IdentityProvider string `envconfig:"IDENTITY_PROVIDER" default:"local"`
	GoTrueURL        string `envconfig:"GOTRUE_URL"`
	GoTrueAPIKey     string `envconfig:"GOTRUE_API_KEY"`

	CallTimeout   time.Duration `envconfig:"CALL_TIMEOUT" default:"8s"`
	SessionMaxAge time.Duration `envconfig:"SESSION_MAX_AGE" default:"24h"`
	PurgeInterval time.Duration `envconfig:"PURGE_INTERVAL" default:"1h"`
	CookieSecure  bool          `envconfig:"COOKIE_SECURE" default:"true"`
	LoginRedirect string        `envconfig:"LOGIN_REDIRECT" default:"/dashboard"`
	BasePath      string        `envconfig:"BASE_PATH" default:"/auth"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load reads an optional .env file and then the environment. Variables
// already set in the environment win over the file.
func Load(files ...string) (App, error) {
	_ = godotenv.Load(files...)

	var c App
	if err := envconfig.Process("", &c); err != nil {
		return c, err
	}
	return c, c.validate()
}

func (c App) validate() error {
	switch c.IdentityProvider {
	case ProviderLocal:
	case ProviderGoTrue:
		if c.GoTrueURL == "" {
			return fmt.Errorf("GOTRUE_URL is required when IDENTITY_PROVIDER=%s", ProviderGoTrue)
		}
	default:
		return fmt.Errorf("unknown IDENTITY_PROVIDER %q", c.IdentityProvider)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("CALL_TIMEOUT must be positive")
	}
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE must be positive")
	}
	return nil
}
