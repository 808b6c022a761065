package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		SampleSize int    `yaml:"sample_size"`
		PoolTTL    string `yaml:"pool_ttl"`
		IssuedTTL  string `yaml:"issued_ttl"`
	} `yaml:"quiz"`
	Auth struct {
		Secret          string `yaml:"secret"`
		Issuer          string `yaml:"issuer"`
		TokenTTL        string `yaml:"token_ttl"`
		CookieName      string `yaml:"cookie_name"`
		CookieFallback  bool   `yaml:"cookie_fallback"`
		BootstrapSecret string `yaml:"bootstrap_secret"`
	} `yaml:"auth"`
	CORS struct {
		Origins []string `yaml:"origins"`
	} `yaml:"cors"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads YAML config from path and applies environment overrides. A
// missing file is not an error; everything can come from the environment.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, err
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Postgres.URL, "DATABASE_URL")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Auth.Secret, "JWT_SECRET")
	setString(&c.Auth.BootstrapSecret, "ADMIN_BOOTSTRAP_SECRET")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	if raw, ok := os.LookupEnv("JWT_EXPIRE_DAYS"); ok && raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			return fmt.Errorf("JWT_EXPIRE_DAYS: invalid value %q", raw)
		}
		c.Auth.TokenTTL = (time.Duration(days) * 24 * time.Hour).String()
	}
	if raw, ok := os.LookupEnv("AUTH_COOKIE_FALLBACK"); ok && raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("AUTH_COOKIE_FALLBACK: %w", err)
		}
		c.Auth.CookieFallback = v
	}
	if raw, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		c.CORS.Origins = splitList(raw)
	}
	return nil
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return errors.New("auth secret is required (auth.secret or JWT_SECRET)")
	}
	if c.Quiz.SampleSize < 0 {
		return fmt.Errorf("quiz.sample_size must not be negative, got %d", c.Quiz.SampleSize)
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
