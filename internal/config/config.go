package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr           string   `yaml:"addr"`         // API bind address, e.g. "0.0.0.0:8000"
	LogDir         string   `yaml:"log_dir"`      // logs directory
	LogLevel       string   `yaml:"log_level"`    // debug|info|warn|error
	DatabaseURL    string   `yaml:"database_url"` // sqlite://, postgres://, mysql://, memory://
	PublicAPIKeys  []string `yaml:"public_api_keys"`
	AdminAPIKeys   []string `yaml:"admin_api_keys"`
	PublicRPM      int      `yaml:"public_rpm"`
	PublicBurst    int      `yaml:"public_burst"`
	AdminRPM       int      `yaml:"admin_rpm"`
	AdminBurst     int      `yaml:"admin_burst"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	SlackWebhook   string   `yaml:"slack_webhook_url"`
	NotifyStatuses []string `yaml:"notify_statuses"` // statuses that raise a Slack alert
	ReportDir      string   `yaml:"report_dir"`      // HTML report templates
	WSSendBuffer   int      `yaml:"ws_send_buffer"`  // frames queued per streaming subscriber
}

// Defaults suit a single-host deployment: an embedded SQLite
// file and the API on port 8000.
func Defaults() Config {
	return Config{
		Addr:           "0.0.0.0:8000",
		LogDir:         "logs",
		LogLevel:       "info",
		DatabaseURL:    "sqlite://check_results.db",
		PublicRPM:      600,
		PublicBurst:    100,
		AdminRPM:       300,
		AdminBurst:     50,
		AllowedOrigins: []string{"*"},
		NotifyStatuses: []string{"error", "warning"},
		ReportDir:      "templates",
		WSSendBuffer:   32,
	}
}

// Load reads .env (without overriding the process environment), then the
// optional YAML file named by CONFIG_FILE, then environment variables.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// FromEnv applies environment variables over the defaults.
func FromEnv() Config {
	cfg := Defaults()
	cfg.applyEnv()
	return cfg
}

func (c *Config) overlayFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("API_ADDR"); v != "" {
		c.Addr = v
	} else if host, port := os.Getenv("API_HOST"), os.Getenv("API_PORT"); host != "" || port != "" {
		h, p, err := net.SplitHostPort(c.Addr)
		if err != nil {
			h, p = "0.0.0.0", "8000"
		}
		if host != "" {
			h = host
		}
		if port != "" {
			p = port
		}
		c.Addr = net.JoinHostPort(h, p)
	}

	str(&c.LogDir, "LOG_DIR")
	str(&c.LogLevel, "LOG_LEVEL")
	str(&c.DatabaseURL, "DATABASE_URL")
	str(&c.SlackWebhook, "SLACK_WEBHOOK_URL")
	str(&c.ReportDir, "REPORT_DIR")

	list(&c.PublicAPIKeys, "PUBLIC_API_KEYS")
	list(&c.AdminAPIKeys, "ADMIN_API_KEYS")
	list(&c.AllowedOrigins, "ALLOWED_ORIGINS")
	list(&c.NotifyStatuses, "NOTIFY_STATUSES")

	num(&c.PublicRPM, "PUBLIC_RPM", 0)
	num(&c.PublicBurst, "PUBLIC_BURST", 1)
	num(&c.AdminRPM, "ADMIN_RPM", 0)
	num(&c.AdminBurst, "ADMIN_BURST", 1)
	num(&c.WSSendBuffer, "WS_SEND_BUFFER", 1)
}

func str(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// list splits a comma-separated variable, dropping empty items.
func list(dst *[]string, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	out := []string{}
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}

// num keeps the current value when the variable is unset, malformed or below min.
func num(dst *int, key string, min int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n >= min {
		*dst = n
	}
}
