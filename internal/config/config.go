package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`

	DBConnectionString string `envconfig:"DATABASE_URL" required:"true"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	CacheTTLSec   int    `envconfig:"CACHE_TTL_SEC" default:"300"`

	JWTSecret             string `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenExpireMin  int    `envconfig:"ACCESS_TOKEN_EXPIRE_MINUTES" default:"30"`
	RefreshTokenExpireDay int    `envconfig:"REFRESH_TOKEN_EXPIRE_DAYS" default:"7"`

	// SMTP settings for the mailer. Empty host disables outbound mail.
	SMTPHost     string `envconfig:"SMTP_HOST" default:""`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser     string `envconfig:"SMTP_USER" default:""`
	SMTPPassword string `envconfig:"SMTP_PASSWORD" default:""`
	MailFrom     string `envconfig:"MAIL_FROM" default:"noreply@focusapp.dev"`
	FrontendURL  string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`

	// Wellbeing defaults.
	DefaultDailyLimitMinutes int `envconfig:"DEFAULT_DAILY_LIMIT" default:"120"`
	// Timezone used for the daily rollover; day keys in the usage ledger derive
	// from it.
	Timezone string `envconfig:"TIMEZONE" default:"UTC"`

	// WebSocket liveness settings.
	HeartbeatIntervalSec  int `envconfig:"WS_HEARTBEAT_INTERVAL_SEC" default:"30"`
	ChannelIdleTimeoutSec int `envconfig:"WS_IDLE_TIMEOUT_SEC" default:"180"`
	SweepIntervalSec      int `envconfig:"WS_SWEEP_INTERVAL_SEC" default:"60"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Location resolves the configured timezone, falling back to UTC on a bad name.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}
