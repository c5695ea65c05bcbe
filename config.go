package authclient

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Default redirect targets used when the corresponding Config entry is
// unset.
const (
	DefaultAfterLogin   = "/"
	DefaultAfterLogout  = "/"
	DefaultLoginPage    = "/login"
	DefaultRegisterPage = "/register"
)

// DefaultSettleDelay is the wait inserted between the backend claims
// exchange and the token re-read, so freshly minted claims propagate to the
// token issuer.
const DefaultSettleDelay = time.Second

// APIEndpoints locates the backend collaborator.
type APIEndpoints struct {
	Login        string `env:"AUTH_API_LOGIN"`
	Subscription string `env:"AUTH_API_SUBSCRIPTION"`
}

// Redirects names the navigation targets for the four flow outcomes. Empty
// entries fall back to the package defaults.
type Redirects struct {
	AfterLogin   string `env:"AUTH_REDIRECT_AFTER_LOGIN"`
	AfterLogout  string `env:"AUTH_REDIRECT_AFTER_LOGOUT"`
	LoginPage    string `env:"AUTH_REDIRECT_LOGIN_PAGE"`
	RegisterPage string `env:"AUTH_REDIRECT_REGISTER_PAGE"`
}

// Config is the immutable per-scope configuration. It is supplied once at
// scope construction and read-only afterwards.
type Config struct {
	API       APIEndpoints
	Redirects Redirects

	// SettleDelay overrides DefaultSettleDelay; negative disables the wait
	// entirely (tests).
	SettleDelay time.Duration `env:"AUTH_SETTLE_DELAY"`
}

// LoadConfigFromEnv builds a Config from environment variables.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) afterLogin() string {
	return orDefault(c.Redirects.AfterLogin, DefaultAfterLogin)
}

func (c Config) afterLogout() string {
	return orDefault(c.Redirects.AfterLogout, DefaultAfterLogout)
}

func (c Config) loginPage() string {
	return orDefault(c.Redirects.LoginPage, DefaultLoginPage)
}

func (c Config) registerPage() string {
	return orDefault(c.Redirects.RegisterPage, DefaultRegisterPage)
}

func (c Config) settleDelay() time.Duration {
	if c.SettleDelay < 0 {
		return 0
	}
	if c.SettleDelay == 0 {
		return DefaultSettleDelay
	}
	return c.SettleDelay
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
