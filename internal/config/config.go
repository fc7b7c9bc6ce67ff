// Package config provides configuration management for the pricestrip client.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/rescale/pricestrip/internal/constants"
)

// Environment variables that override file settings.
const (
	EnvServer      = "PRICESTRIP_SERVER"
	EnvDownloadDir = "PRICESTRIP_DOWNLOAD_DIR"
	EnvDebug       = "PRICESTRIP_DEBUG"
)

// Config is the client configuration.
//
// INI format:
//
//	[server]
//	url = http://localhost:5002
//
//	[download]
//	folder = ~/Downloads/pricestrip
//
//	[http]
//	retries = 0
//	request_timeout_seconds = 0
//
//	[proxy]
//	mode = no-proxy        ; no-proxy | system | basic | ntlm
//	host = proxy.example.com
//	port = 8080
//	user =
//	password =
//	no_proxy = localhost,127.0.0.1
//	warmup = false
//
//	[log]
//	level = info
type Config struct {
	ServerURL   string
	DownloadDir string
	LogLevel    string

	// Retries enables retryablehttp retries on transport failures. 0 keeps the
	// one-request-per-action behavior.
	Retries int

	// RequestTimeout bounds a single request. 0 means no bound.
	RequestTimeout time.Duration

	ProxyMode     string // "no-proxy", "system", "basic", "ntlm"
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string
	NoProxy       string // Comma-separated list of hosts to bypass proxy
	ProxyWarmup   bool
}

// Validation errors
var (
	ErrMissingServerURL  = errors.New("server url is required")
	ErrInvalidServerURL  = errors.New("server url must be an absolute http(s) URL")
	ErrInvalidRetries    = fmt.Errorf("retries must be between 0 and %d", constants.MaxRetries)
	ErrInvalidProxyMode  = errors.New("proxy mode must be one of no-proxy, system, basic, ntlm")
	ErrMissingProxyHost  = errors.New("proxy host is required for basic and ntlm modes")
	ErrInvalidTimeout    = errors.New("request timeout must not be negative")
	ErrMissingDownloadTo = errors.New("download folder is required")
)

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		ServerURL:   constants.DefaultServerURL,
		DownloadDir: DefaultDownloadDirectory(),
		LogLevel:    "info",
		Retries:     constants.DefaultRetries,
		ProxyMode:   "no-proxy",
	}
}

// Load loads configuration from an INI file.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = DefaultConfigPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	server := iniFile.Section("server")
	cfg.ServerURL = server.Key("url").MustString(cfg.ServerURL)

	download := iniFile.Section("download")
	cfg.DownloadDir = expandHome(download.Key("folder").MustString(cfg.DownloadDir))

	httpSection := iniFile.Section("http")
	cfg.Retries = httpSection.Key("retries").MustInt(cfg.Retries)
	cfg.RequestTimeout = time.Duration(httpSection.Key("request_timeout_seconds").MustInt(0)) * time.Second

	proxy := iniFile.Section("proxy")
	cfg.ProxyMode = strings.ToLower(proxy.Key("mode").MustString(cfg.ProxyMode))
	cfg.ProxyHost = proxy.Key("host").String()
	cfg.ProxyPort = proxy.Key("port").MustInt(0)
	cfg.ProxyUser = proxy.Key("user").String()
	cfg.ProxyPassword = proxy.Key("password").String()
	cfg.NoProxy = proxy.Key("no_proxy").String()
	cfg.ProxyWarmup = proxy.Key("warmup").MustBool(false)

	cfg.LogLevel = iniFile.Section("log").Key("level").MustString(cfg.LogLevel)

	return cfg, nil
}

// Save saves configuration to an INI file.
// Creates parent directories if they don't exist. The proxy password is never written.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	sections := []struct {
		name string
		keys [][2]string
	}{
		{"server", [][2]string{{"url", cfg.ServerURL}}},
		{"download", [][2]string{{"folder", cfg.DownloadDir}}},
		{"http", [][2]string{
			{"retries", strconv.Itoa(cfg.Retries)},
			{"request_timeout_seconds", strconv.Itoa(int(cfg.RequestTimeout / time.Second))},
		}},
		{"proxy", [][2]string{
			{"mode", cfg.ProxyMode},
			{"host", cfg.ProxyHost},
			{"port", strconv.Itoa(cfg.ProxyPort)},
			{"user", cfg.ProxyUser},
			{"no_proxy", cfg.NoProxy},
			{"warmup", strconv.FormatBool(cfg.ProxyWarmup)},
		}},
		{"log", [][2]string{{"level", cfg.LogLevel}}},
	}

	for _, s := range sections {
		section, err := iniFile.NewSection(s.name)
		if err != nil {
			return fmt.Errorf("failed to create %s section: %w", s.name, err)
		}
		for _, kv := range s.keys {
			section.Key(kv[0]).SetValue(kv[1])
		}
	}

	// Temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// ApplyEnv overlays environment variables onto cfg.
func (cfg *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvServer)); v != "" {
		cfg.ServerURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDownloadDir)); v != "" {
		cfg.DownloadDir = expandHome(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvDebug)); v != "" && v != "0" && v != "false" {
		cfg.LogLevel = "debug"
	}
}

// Validate checks if the configuration is usable.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.ServerURL) == "" {
		return ErrMissingServerURL
	}
	u, err := url.Parse(cfg.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidServerURL
	}
	if strings.TrimSpace(cfg.DownloadDir) == "" {
		return ErrMissingDownloadTo
	}
	if cfg.Retries < 0 || cfg.Retries > constants.MaxRetries {
		return ErrInvalidRetries
	}
	if cfg.RequestTimeout < 0 {
		return ErrInvalidTimeout
	}
	switch cfg.ProxyMode {
	case "", "no-proxy", "system":
	case "basic", "ntlm":
		if strings.TrimSpace(cfg.ProxyHost) == "" {
			return ErrMissingProxyHost
		}
	default:
		return ErrInvalidProxyMode
	}
	return nil
}

// BaseURL returns the server URL without a trailing slash.
func (cfg *Config) BaseURL() string {
	return strings.TrimSuffix(strings.TrimSpace(cfg.ServerURL), "/")
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
