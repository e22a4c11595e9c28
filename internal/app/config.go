package app

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"safeclient/internal/auth"
	"safeclient/internal/client"
	"safeclient/internal/domain"
)

const (
	configName = "safe"
	envPrefix  = "SAFE"
	dirName    = "safeclient"
)

// DefaultLauncherURL is where a launcher listens unless configured otherwise.
const DefaultLauncherURL = "http://localhost:8100"

// Config holds runtime wiring options for building the app.
type Config struct {
	LauncherURL      string              `mapstructure:"launcher"`
	HandshakeTimeout time.Duration       `mapstructure:"handshake_timeout"`
	RequestTimeout   time.Duration       `mapstructure:"request_timeout"`
	SnapshotPath     string              `mapstructure:"snapshot"`
	Passphrase       string              `mapstructure:"passphrase"`
	App              domain.AppIdentity  `mapstructure:"app"`
	Permissions      []domain.Permission `mapstructure:"permissions"`
	LogLevel         string              `mapstructure:"log_level"`

	HTTP *http.Client `mapstructure:"-"` // optional; defaults to a pooled cleanhttp client
}

// Defaults returns the built-in values, keyed the way the config file is.
func Defaults() map[string]any {
	return map[string]any{
		"launcher":          DefaultLauncherURL,
		"handshake_timeout": auth.DefaultTimeout,
		"request_timeout":   client.DefaultRequestTimeout,
		"snapshot":          defaultSnapshotPath(),
		"passphrase":        "",
		"app.name":          "safe CLI",
		"app.id":            "safeclient.cli",
		"app.version":       "0.1.0",
		"app.vendor":        "safeclient",
		"permissions":       []string{string(domain.PermissionSafeDriveAccess)},
		"log_level":         "",
	}
}

func defaultSnapshotPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", dirName, "session.json")
	}
	return filepath.Join(dir, dirName, "session.json")
}

// LoadConfig merges, lowest precedence first: defaults, safe.yaml (user
// config dir, then the working directory, or explicitly path), SAFE_*
// environment variables, and flags set on cmd. A missing config file is fine.
func LoadConfig(cmd *cobra.Command, path string) (Config, error) {
	var c Config
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, dirName))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, &domain.ConfigError{Err: fmt.Errorf("read config: %w", err)}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, &domain.ConfigError{Err: fmt.Errorf("parse config: %w", err)}
	}
	return c, nil
}

// Validate reports the first problem as a *domain.ConfigError.
func (c Config) Validate() error {
	u, err := url.Parse(c.LauncherURL)
	switch {
	case c.LauncherURL == "":
		return &domain.ConfigError{Err: errors.New("launcher URL is empty")}
	case err != nil:
		return &domain.ConfigError{Err: fmt.Errorf("launcher URL: %w", err)}
	case u.Scheme != "http" && u.Scheme != "https", u.Host == "":
		return &domain.ConfigError{Err: fmt.Errorf("launcher URL %q must be http(s)://host[:port]", c.LauncherURL)}
	case c.HandshakeTimeout <= 0:
		return &domain.ConfigError{Err: fmt.Errorf("handshake timeout must be positive, got %s", c.HandshakeTimeout)}
	case c.RequestTimeout <= 0:
		return &domain.ConfigError{Err: fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)}
	case !c.App.Complete():
		return &domain.ConfigError{Err: errors.New("app name, id, version and vendor are all required")}
	}
	return nil
}
