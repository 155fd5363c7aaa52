package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ilyakaznacheev/cleanenv"
)

type (
	Config struct {
		App       `yaml:"app"`
		HTTP      `yaml:"http"`
		Log       `yaml:"logger"`
		Registry  `yaml:"registry"`
		Upstream  `yaml:"upstream"`
		Auth      `yaml:"auth"`
		Metrics   `yaml:"metrics"`
		RateLimit `yaml:"rate_limit"`
	}

	App struct {
		Env       string `yaml:"env"           env-default:"local"  env:"APP_ENV"`
		Name      string `yaml:"name"          env-default:"linkal"`
		Version   string `yaml:"version"       env-default:"dev"    env:"APP_VERSION"`
		Principal string `yaml:"principal"     env-default:"linkal" env:"APP_PRINCIPAL"`
		// UnknownProps is omit or not-found.
		UnknownProps string `yaml:"unknown_props" env-default:"omit"`
	}

	HTTP struct {
		IP              string        `yaml:"ip"               env-default:"0.0.0.0" env:"HTTP_IP"`
		Port            string        `yaml:"port"             env-default:"8443"    env:"HTTP_PORT"`
		ReadTimeout     time.Duration `yaml:"read_timeout"     env-default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout"    env-default:"60s"`
		IdleTimeout     time.Duration `yaml:"idle_timeout"     env-default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"5s"`
		MaxBodySize     string        `yaml:"max_body_size"    env-default:"1MiB"`
		CORS            struct {
			AllowedMethods     []string `yaml:"allowed_methods"`
			AllowedOrigins     []string `yaml:"allowed_origins"`
			AllowCredentials   bool     `yaml:"allow_credentials"`
			AllowedHeaders     []string `yaml:"allowed_headers"`
			OptionsPassthrough bool     `yaml:"options_passthrough"`
			ExposedHeaders     []string `yaml:"exposed_headers"`
			Debug              bool     `yaml:"debug"`
		} `yaml:"cors"`
	}

	Log struct {
		Level string `yaml:"log_level" env-default:"info" env:"LOG_LEVEL"`
	}

	Registry struct {
		// URL is a file path, file:// or postgres:// URL.
		URL     string `yaml:"url"      env-required:"true" env:"REGISTRY_URL"`
		PoolMax int    `yaml:"pool_max" env-default:"2"`
	}

	Upstream struct {
		Timeout         time.Duration `yaml:"timeout"           env-default:"15s"`
		MaxParallel     int           `yaml:"max_parallel"      env-default:"8"`
		MaxResponseSize string        `yaml:"max_response_size" env-default:"16MiB"`
		ExportQuery     string        `yaml:"export_query"      env-default:"export"`
		UserAgent       string        `yaml:"user_agent"        env-default:"linkal"`
		Username        string        `yaml:"username"          env:"UPSTREAM_USERNAME"`
		Password        string        `yaml:"password"          env:"UPSTREAM_PASSWORD"`
	}

	Auth struct {
		// URL selects the provider: empty or none://, basic://.
		URL          string `yaml:"url"           env:"AUTH_URL"`
		Realm        string `yaml:"realm"         env-default:"linkal"`
		User         string `yaml:"user"          env:"AUTH_USER"`
		PasswordHash string `yaml:"password_hash" env:"AUTH_PASSWORD_HASH"`
	}

	Metrics struct {
		Enabled bool   `yaml:"enabled" env-default:"false" env:"METRICS_ENABLED"`
		Path    string `yaml:"path"    env-default:"/metrics"`
	}

	RateLimit struct {
		// RPS of zero disables the limiter.
		RPS     float64       `yaml:"rps"     env-default:"0"`
		Burst   int           `yaml:"burst"   env-default:"20"`
		Cleanup time.Duration `yaml:"cleanup" env-default:"5m"`
	}
)

const EnvConfigPathName = "CONFIG_PATH"

// Load reads the YAML file at path, then applies environment overrides. An
// empty path falls back to CONFIG_PATH.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPathName)
	}
	if path == "" {
		return nil, fmt.Errorf("config - Load: config path is required")
	}

	cfg := &Config{}
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("config - Load - cleanenv.ReadConfig: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config - Load: %w", err)
	}
	return cfg, nil
}

// Usage returns the description of every environment variable.
func Usage() string {
	header := "Linkal - CalDAV aggregation gateway"
	help, _ := cleanenv.GetDescription(&Config{}, &header)
	return help
}

func (c *Config) validate() error {
	if _, err := c.Upstream.ResponseLimit(); err != nil {
		return err
	}
	if _, err := c.HTTP.BodyLimit(); err != nil {
		return err
	}
	if c.Upstream.MaxParallel < 1 {
		return fmt.Errorf("upstream.max_parallel must be positive, got %d", c.Upstream.MaxParallel)
	}
	switch c.App.UnknownProps {
	case "", "omit", "not-found":
	default:
		return fmt.Errorf("app.unknown_props must be omit or not-found, got %q", c.App.UnknownProps)
	}
	return nil
}

// ResponseLimit parses max_response_size, e.g. "16MiB".
func (u Upstream) ResponseLimit() (int64, error) {
	n, err := humanize.ParseBytes(u.MaxResponseSize)
	if err != nil {
		return 0, fmt.Errorf("upstream.max_response_size: %w", err)
	}
	return int64(n), nil
}

// BodyLimit parses max_body_size.
func (h HTTP) BodyLimit() (int64, error) {
	n, err := humanize.ParseBytes(h.MaxBodySize)
	if err != nil {
		return 0, fmt.Errorf("http.max_body_size: %w", err)
	}
	return int64(n), nil
}
