package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	FormModeStepped = "stepped"
	FormModeSingle  = "single"
	FormModeBoth    = "both"
)

type Config struct {
	HTTP struct {
		Addr           string
		CORSOrigins    []string
		TrustedProxies []string // peers whose X-Forwarded-For keys the rate limiter
	}

	Database struct {
		Driver string
		URL    string
	}

	Admin struct {
		Username string
		Password string
		PageSize int
	}

	Session struct {
		Secret       string
		CookieSecure bool
		SameSite     string
		TTL          time.Duration
		Store        string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Form struct {
		Mode               string
		RateLimitPerMinute int
	}

	RabbitMQ struct {
		URL string
	}

	Mail struct {
		Host     string
		Port     int
		User     string
		Password string
		From     string
		NotifyTo string
	}

	Log struct {
		Level  string
		Format string
	}
}

func Load() *Config {
	cfg := &Config{}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTP.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "*"))
	cfg.HTTP.TrustedProxies = splitList(getEnv("TRUSTED_PROXIES", ""))

	cfg.Database.Driver = strings.ToLower(getEnv("DB_DRIVER", "sqlite"))
	cfg.Database.URL = getEnv("DATABASE_URL", "instance/data.db")

	cfg.Admin.Username = getEnv("ADMIN_USERNAME", "admin")
	cfg.Admin.Password = getEnv("ADMIN_PASSWORD", "")
	cfg.Admin.PageSize = parseInt(getEnv("ADMIN_PAGE_SIZE", "20"), 20)

	cfg.Session.Secret = getEnv("SECRET_KEY", "")
	cfg.Session.CookieSecure = parseBool(getEnv("SESSION_COOKIE_SECURE", "false"))
	cfg.Session.SameSite = strings.ToLower(getEnv("SESSION_COOKIE_SAMESITE", "lax"))
	cfg.Session.TTL = parseDuration(getEnv("SESSION_TTL", "24h"), 24*time.Hour)
	cfg.Session.Store = strings.ToLower(getEnv("SESSION_STORE", "memory"))

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Form.Mode = strings.ToLower(getEnv("FORM_MODE", FormModeBoth))
	cfg.Form.RateLimitPerMinute = parseInt(getEnv("RATE_LIMIT_PER_MINUTE", "30"), 30)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", "")

	cfg.Mail.Host = getEnv("MAIL_HOST", "")
	cfg.Mail.Port = parseInt(getEnv("MAIL_PORT", "587"), 587)
	cfg.Mail.User = getEnv("MAIL_USER", "")
	cfg.Mail.Password = getEnv("MAIL_PASS", "")
	cfg.Mail.From = getEnv("MAIL_FROM", "no-reply@localhost")
	cfg.Mail.NotifyTo = getEnv("NOTIFY_EMAIL", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

// SteppedEnabled and SingleEnabled gate the two submission endpoints.
func (c *Config) SteppedEnabled() bool {
	return c.Form.Mode != FormModeSingle
}

func (c *Config) SingleEnabled() bool {
	return c.Form.Mode != FormModeStepped
}

func (c *Config) NotificationsEnabled() bool {
	return c.RabbitMQ.URL != "" && c.Mail.Host != "" && c.Mail.NotifyTo != ""
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
