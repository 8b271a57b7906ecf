// config/config.go
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// HTTPConfig groups HTTP/HTTPS port, protocol, and timeout settings.
type HTTPConfig struct {
	HTTPPort  int  `mapstructure:"http_port"`
	HTTPSPort int  `mapstructure:"https_port"`
	UseHTTPS  bool `mapstructure:"use_https"`

	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// TLSConfig groups TLS / ACME-related settings.
type TLSConfig struct {
	CertFile            string `mapstructure:"cert_file"`
	KeyFile             string `mapstructure:"key_file"`
	UseLetsEncrypt      bool   `mapstructure:"use_lets_encrypt"`
	LetsEncryptEmail    string `mapstructure:"lets_encrypt_email"`
	LetsEncryptCacheDir string `mapstructure:"lets_encrypt_cache_dir"`
}

// Config holds the full contactd configuration.
//
// Domain is shared read-only by every concurrent request: it drives the
// origin guard's substring check, the CORS allow-list, and (when ACME is
// enabled) the certificate host policy.
type Config struct {
	Env      string `mapstructure:"env"`       // "dev" | "prod"
	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error …

	HTTP HTTPConfig `mapstructure:",squash"`
	TLS  TLSConfig  `mapstructure:",squash"`

	Domain        string `mapstructure:"domain"`
	DBPath        string `mapstructure:"db_path"`
	RequireOrigin bool   `mapstructure:"require_origin"`

	EnableCORS bool `mapstructure:"enable_cors"`

	RateLimitPerMinute float64 `mapstructure:"rate_limit_per_minute"`
	RateLimitBurst     int     `mapstructure:"rate_limit_burst"`

	MaxRequestBodyBytes int64         `mapstructure:"max_request_body_bytes"`
	DBConnectTimeout    time.Duration `mapstructure:"db_connect_timeout"`
}

// Dump returns a pretty JSON string of the config for debugging.
// Nothing in Config is secret, so no redaction is needed yet.
func (c Config) Dump() string {
	b, _ := json.MarshalIndent(c, "", "  ")
	return string(b)
}

// Load merges defaults → config.* file(s) → env vars → explicit flags into one
// Config. Final precedence (highest wins): flags(explicit) > env > config > defaults.
func Load(logger *zap.Logger) (*Config, error) {
	// 0) Optionally load .env (safe: real env still wins over .env)
	if err := godotenv.Load(); err == nil && logger != nil {
		logger.Info("Loaded .env file")
	}

	// 1) Define flags (only *explicitly set* flags will override)
	pflag.String("env", "dev", `Runtime environment "dev"|"prod"`)
	pflag.String("log_level", "debug", "Log level")

	pflag.Int("http_port", 8080, "HTTP port")
	pflag.Int("https_port", 443, "HTTPS port")
	pflag.Bool("use_https", false, "Serve HTTPS")

	pflag.Bool("use_lets_encrypt", false, "Use Let's Encrypt")
	pflag.String("lets_encrypt_email", "", "ACME account e-mail")
	pflag.String("lets_encrypt_cache_dir", "letsencrypt-cache", "ACME cache dir")
	pflag.String("cert_file", "", "TLS cert file (manual TLS)")
	pflag.String("key_file", "", "TLS key file  (manual TLS)")

	pflag.String("domain", "localhost", "Domain the contact form may be submitted from")
	pflag.String("db_path", "contacts.db", "Path to the SQLite database file")
	pflag.Bool("require_origin", false, "Require and check the Origin header (strict mode)")

	pflag.Bool("enable_cors", true, "Enable the CORS filter for the configured domain")

	pflag.Float64("rate_limit_per_minute", 1, "Sustained submissions allowed per client per minute")
	pflag.Int("rate_limit_burst", 2, "Burst submissions allowed per client")

	pflag.Int64("max_request_body_bytes", 64<<10, "Max HTTP request body size in bytes (0 = unlimited)")

	pflag.String("db_connect_timeout", "10s", "Startup timeout for opening the database (e.g., \"10s\")")
	pflag.String("read_timeout", "10s", "HTTP read timeout")
	pflag.String("read_header_timeout", "5s", "HTTP read-header timeout")
	pflag.String("write_timeout", "10s", "HTTP write timeout")
	pflag.String("idle_timeout", "60s", "HTTP idle timeout")
	pflag.String("shutdown_timeout", "10s", "Graceful shutdown drain timeout")
	pflag.Parse()

	// 2) Viper + env
	v := viper.New()
	v.SetEnvPrefix("CONTACTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Bind env for all keys so Unmarshal sees them.
	for _, k := range allKeys() {
		_ = v.BindEnv(k)
	}

	// 3) Optional config.* files (yaml|yml|json|toml)
	for _, ext := range [...]string{"yaml", "yml", "json", "toml"} {
		file := "config." + ext
		if _, err := os.Stat(file); err != nil {
			continue
		}
		b, err := os.ReadFile(file)
		if err != nil {
			if logger != nil {
				logger.Warn("cannot read config file", zap.String("file", file), zap.Error(err))
			}
			continue
		}
		v.SetConfigType(ext)
		if err := v.MergeConfig(bytes.NewReader(b)); err != nil {
			if logger != nil {
				logger.Warn("cannot decode config file", zap.String("file", file), zap.Error(err))
			}
			continue
		}
		if logger != nil {
			logger.Info("Loaded config file", zap.String("file", file))
		}
	}

	// 4) Defaults (lowest precedence)
	setDefaults(v)

	// 5) Apply *explicit* flags (highest precedence)
	pflag.CommandLine.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = v.BindPFlag(f.Name, f)
		}
	})

	// 6) Build struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Parse durations (accepts "10s" strings or plain seconds)
	for _, d := range []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"db_connect_timeout", 10 * time.Second, &cfg.DBConnectTimeout},
		{"read_timeout", 10 * time.Second, &cfg.HTTP.ReadTimeout},
		{"read_header_timeout", 5 * time.Second, &cfg.HTTP.ReadHeaderTimeout},
		{"write_timeout", 10 * time.Second, &cfg.HTTP.WriteTimeout},
		{"idle_timeout", 60 * time.Second, &cfg.HTTP.IdleTimeout},
		{"shutdown_timeout", 10 * time.Second, &cfg.HTTP.ShutdownTimeout},
	} {
		dur, err := parseDurationFlexible(v.Get(d.key), d.def)
		if err != nil && logger != nil {
			logger.Warn("invalid duration; using default",
				zap.String("key", d.key),
				zap.Any("value", v.Get(d.key)),
				zap.Duration("default", d.def),
				zap.Error(err))
		}
		*d.dest = dur
	}

	// 7) Validate
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func allKeys() []string {
	return []string{
		"env", "log_level",
		"http_port", "https_port", "use_https",
		"use_lets_encrypt", "lets_encrypt_email", "lets_encrypt_cache_dir",
		"cert_file", "key_file",
		"domain", "db_path", "require_origin",
		"enable_cors",
		"rate_limit_per_minute", "rate_limit_burst",
		"max_request_body_bytes",
		"db_connect_timeout",
		"read_timeout", "read_header_timeout", "write_timeout", "idle_timeout",
		"shutdown_timeout",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "debug")

	v.SetDefault("http_port", 8080)
	v.SetDefault("https_port", 443)
	v.SetDefault("use_https", false)

	v.SetDefault("use_lets_encrypt", false)
	v.SetDefault("lets_encrypt_email", "")
	v.SetDefault("lets_encrypt_cache_dir", "letsencrypt-cache")
	v.SetDefault("cert_file", "")
	v.SetDefault("key_file", "")

	v.SetDefault("domain", "localhost")
	v.SetDefault("db_path", "contacts.db")
	v.SetDefault("require_origin", false)

	v.SetDefault("enable_cors", true)

	v.SetDefault("rate_limit_per_minute", float64(1))
	v.SetDefault("rate_limit_burst", 2)

	v.SetDefault("max_request_body_bytes", int64(64<<10))

	v.SetDefault("db_connect_timeout", "10s")
	v.SetDefault("read_timeout", "10s")
	v.SetDefault("read_header_timeout", "5s")
	v.SetDefault("write_timeout", "10s")
	v.SetDefault("idle_timeout", "60s")
	v.SetDefault("shutdown_timeout", "10s")
}

func validateConfig(cfg Config) error {
	var missing []string
	var invalid []string

	if strings.TrimSpace(cfg.Domain) == "" {
		missing = append(missing, "CONTACTD_DOMAIN (or --domain)")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		missing = append(missing, "CONTACTD_DB_PATH (or --db_path)")
	}

	// TLS / ACME consistency
	if cfg.TLS.UseLetsEncrypt && !cfg.HTTP.UseHTTPS {
		invalid = append(invalid, "use_lets_encrypt=true requires use_https=true")
	}
	if cfg.TLS.UseLetsEncrypt && (strings.TrimSpace(cfg.TLS.CertFile) != "" || strings.TrimSpace(cfg.TLS.KeyFile) != "") {
		invalid = append(invalid, "use_lets_encrypt=true cannot be combined with cert_file/key_file")
	}
	if cfg.TLS.UseLetsEncrypt {
		if s := strings.TrimSpace(cfg.TLS.LetsEncryptEmail); s == "" {
			missing = append(missing, "CONTACTD_LETS_ENCRYPT_EMAIL (or --lets_encrypt_email)")
		} else if !strings.Contains(s, "@") {
			invalid = append(invalid, "lets_encrypt_email must look like an email address")
		}
	}
	if cfg.HTTP.UseHTTPS && !cfg.TLS.UseLetsEncrypt {
		if strings.TrimSpace(cfg.TLS.CertFile) == "" || strings.TrimSpace(cfg.TLS.KeyFile) == "" {
			missing = append(missing, "CONTACTD_CERT_FILE and CONTACTD_KEY_FILE (or --cert_file/--key_file) for manual TLS")
		}
	}

	// Port sanity
	if cfg.HTTP.HTTPPort <= 0 || cfg.HTTP.HTTPPort > 65535 {
		invalid = append(invalid, "http_port must be in 1..65535")
	}
	if cfg.HTTP.HTTPSPort <= 0 || cfg.HTTP.HTTPSPort > 65535 {
		invalid = append(invalid, "https_port must be in 1..65535")
	}
	if cfg.HTTP.UseHTTPS && cfg.HTTP.HTTPPort == cfg.HTTP.HTTPSPort {
		invalid = append(invalid, "http_port and https_port cannot be equal when use_https=true")
	}

	// Rate limit sanity
	if cfg.RateLimitPerMinute <= 0 {
		invalid = append(invalid, "rate_limit_per_minute must be > 0")
	}
	if cfg.RateLimitBurst < 1 {
		invalid = append(invalid, "rate_limit_burst must be >= 1")
	}

	if cfg.DBConnectTimeout <= 0 {
		invalid = append(invalid, "db_connect_timeout must be > 0")
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("configuration errors: %s", strings.Join(parts, " | "))
}
