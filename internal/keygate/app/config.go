package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	httpapi "github.com/aussiebroadwan/keygate/internal/keygate/http"
	"github.com/aussiebroadwan/keygate/pkg/httpx"
	"github.com/aussiebroadwan/keygate/pkg/yubico"
)

type Config struct {
	YubikeyEnabled       bool          `mapstructure:"YUBIKEY_ENABLED"`        // Optional: turn the second factor on (default: false)
	YubikeyRequired      bool          `mapstructure:"YUBIKEY_REQUIRED"`       // Optional: default for users without a saved preference (default: false)
	YubikeyAPIID         string        `mapstructure:"YUBIKEY_API_ID"`         // Required when enabled: validation client id
	YubikeyAPIKey        string        `mapstructure:"YUBIKEY_API_KEY"`        // Required when enabled: base64 shared secret
	YubikeyAPIURL        string        `mapstructure:"YUBIKEY_API_URL"`        // Optional: comma separated endpoints (default: YubiCloud)
	YubikeyAPIParallel   bool          `mapstructure:"YUBIKEY_API_PARALLEL"`   // Optional: ask all endpoints at once (default: false)
	YubikeyVerifyTimeout time.Duration `mapstructure:"YUBIKEY_VERIFY_TIMEOUT"` // Optional: bound on one verification (default: 15s)

	DatabaseFile         string        `mapstructure:"DATABASE_FILE"`         // Optional: path to SQLite database file (default: ./keygate.db)
	PepperFile           string        `mapstructure:"PEPPER_FILE"`           // Optional: path to file containing pepper for password hashing (default: ./pepper)
	SessionTTL           time.Duration `mapstructure:"SESSION_TTL"`           // Optional: session lifetime (default: 12h)
	Env                  string        `mapstructure:"ENV"`                   // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        `mapstructure:"LOG_LEVEL"`             // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        `mapstructure:"LOG_FORMAT"`            // Log format (json, text) (default: json)
	Port                 int           `mapstructure:"PORT"`                  // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration `mapstructure:"SHUTDOWN_GRACE_PERIOD"` // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration `mapstructure:"HOUSEKEEPING_INTERVAL"` // Housekeeping interval (default: 1h)

	RateLimits httpapi.RateLimits `mapstructure:"-"`
	Endpoints  []yubico.Endpoint  `mapstructure:"-"`
}

// rateLimitProfiles maps the env prefix of each limiter profile to its
// built-in default.
var rateLimitProfiles = []struct {
	name string
	def  httpx.RateLimitConfig
}{
	{"STRICT", httpx.StrictLimit},
	{"MODERATE", httpx.ModerateLimit},
	{"PUBLIC", httpx.PublicLimit},
}

// LoadConfig reads .env when present, then the environment. Environment
// variables win over the file.
func LoadConfig() (Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil && !isConfigNotFound(err) {
		return Config{}, fmt.Errorf("failed to read .env: %w", err)
	}

	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("config: PORT %d out of range", cfg.Port)
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, errors.New("config: SESSION_TTL must be positive")
	}

	endpoints, err := yubico.ParseEndpoints(cfg.YubikeyAPIURL)
	if err != nil {
		return Config{}, fmt.Errorf("config: YUBIKEY_API_URL: %w", err)
	}
	cfg.Endpoints = endpoints

	limits := make([]httpx.RateLimitConfig, len(rateLimitProfiles))
	for i, p := range rateLimitProfiles {
		prefix := "RATELIMIT_" + p.name + "_"
		limits[i] = p.def.Override(
			v.GetInt(prefix+"REQUESTS"),
			time.Duration(v.GetInt(prefix+"WINDOW_SEC"))*time.Second,
			v.GetInt(prefix+"BURST"),
		)
	}
	cfg.RateLimits = httpapi.RateLimits{Login: limits[0], Authed: limits[1], Public: limits[2]}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("YUBIKEY_ENABLED", false)
	v.SetDefault("YUBIKEY_REQUIRED", false)
	v.SetDefault("YUBIKEY_API_ID", "")
	v.SetDefault("YUBIKEY_API_KEY", "")
	v.SetDefault("YUBIKEY_API_URL", yubico.DefaultURL)
	v.SetDefault("YUBIKEY_API_PARALLEL", false)
	v.SetDefault("YUBIKEY_VERIFY_TIMEOUT", yubico.DefaultTimeout)

	v.SetDefault("DATABASE_FILE", "keygate.db")
	v.SetDefault("PEPPER_FILE", "pepper")
	v.SetDefault("SESSION_TTL", 12*time.Hour)
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("PORT", 8080)
	v.SetDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second)
	v.SetDefault("HOUSEKEEPING_INTERVAL", time.Hour)

	// Zero keeps the profile default; AutomaticEnv only sees keys it knows.
	for _, p := range rateLimitProfiles {
		prefix := "RATELIMIT_" + p.name + "_"
		for _, field := range []string{"REQUESTS", "WINDOW_SEC", "BURST"} {
			v.SetDefault(prefix+field, 0)
		}
	}
}

// Credentials returns the validation credentials from the config.
func (c Config) Credentials() yubico.Credentials {
	return yubico.Credentials{
		ClientID: strings.TrimSpace(c.YubikeyAPIID),
		APIKey:   strings.TrimSpace(c.YubikeyAPIKey),
	}
}

// isConfigNotFound reports a missing .env. SetConfigFile makes viper surface
// the raw open error rather than ConfigFileNotFoundError.
func isConfigNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}
