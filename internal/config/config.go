package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"simplirtc/native/internal/api"
	"simplirtc/native/internal/auth"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. SIMPLIRTC_TIMEOUT.
const EnvPrefix = "SIMPLIRTC"

// Viper keys. cobra flags bind to the same names.
const (
	KeyToken      = "token"
	KeyTimeout    = "timeout"
	KeyListen     = "listen"
	KeyVerbose    = "verbose"
	KeyAPIBaseURL = "api_base_url"
	KeyHubBaseURL = "hub_base_url"
	KeyAuthURL    = "auth_url"
	KeyTokenURL   = "token_url"
)

var ErrTokenRequired = errors.New("token file path is required (--token or SIMPLIRTC_TOKEN)")

// Config holds the application configuration.
type Config struct {
	TokenPath  string
	Timeout    time.Duration
	Listen     string
	Verbose    bool
	APIBaseURL string
	HubBaseURL string
	AuthURL    string
	TokenURL   string
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault(KeyTimeout, 30*time.Second)
	v.SetDefault(KeyListen, ":8080")
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyAPIBaseURL, api.DefaultAPIBaseURL)
	v.SetDefault(KeyHubBaseURL, api.DefaultHubBaseURL)
	v.SetDefault(KeyAuthURL, auth.DefaultAuthURL)
	v.SetDefault(KeyTokenURL, auth.DefaultTokenURL)
	return v
}

// Load reads configuration from a .env file (if present), the environment
// and any flags bound to v. Environment variables take precedence over .env
// values.
func Load(v *viper.Viper) (*Config, error) {
	// godotenv.Load does not overwrite existing env vars
	_ = godotenv.Load()

	cfg := &Config{
		TokenPath:  expandHome(v.GetString(KeyToken)),
		Timeout:    v.GetDuration(KeyTimeout),
		Listen:     v.GetString(KeyListen),
		Verbose:    v.GetBool(KeyVerbose),
		APIBaseURL: strings.TrimRight(v.GetString(KeyAPIBaseURL), "/"),
		HubBaseURL: strings.TrimRight(v.GetString(KeyHubBaseURL), "/"),
		AuthURL:    v.GetString(KeyAuthURL),
		TokenURL:   v.GetString(KeyTokenURL),
	}

	if cfg.TokenPath == "" {
		return nil, ErrTokenRequired
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %q", v.GetString(KeyTimeout))
	}
	return cfg, nil
}

// Auth returns the OAuth provider configuration.
func (c *Config) Auth() auth.Config {
	a := auth.DefaultConfig()
	a.AuthURL = c.AuthURL
	a.TokenURL = c.TokenURL
	a.Timeout = c.Timeout
	return a
}

// API returns the vendor API configuration.
func (c *Config) API() api.Config {
	a := api.DefaultConfig()
	a.APIBaseURL = c.APIBaseURL
	a.HubBaseURL = c.HubBaseURL
	a.Auth = c.Auth()
	a.Timeout = c.Timeout
	return a
}

// expandHome expands a leading ~ to $HOME.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
