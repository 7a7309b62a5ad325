package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host            string
	Port            int
	RateLimitPerMin int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
	AccessTTL    time.Duration
	BcryptCost   int
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

type DispatchConfig struct {
	// MaxActivePerDriver caps concurrent vehicle assignments per driver.
	// Zero means no limit.
	MaxActivePerDriver int
}

type AlertsConfig struct {
	LookaheadDays int
	SweepInterval time.Duration
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	AMQP        AMQPConfig
	Dispatch    DispatchConfig
	Alerts      AlertsConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:            v.GetString("HTTP_HOST"),
			Port:            v.GetInt("HTTP_PORT"),
			RateLimitPerMin: v.GetInt("HTTP_RATE_LIMIT_PER_MINUTE"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
			AccessTTL:    v.GetDuration("JWT_ACCESS_TTL"),
			BcryptCost:   v.GetInt("AUTH_BCRYPT_COST"),
		},
		AMQP: AMQPConfig{
			URL:      v.GetString("AMQP_URL"),
			Exchange: v.GetString("AMQP_EXCHANGE"),
		},
		Dispatch: DispatchConfig{
			MaxActivePerDriver: v.GetInt("DISPATCH_MAX_ACTIVE_PER_DRIVER"),
		},
		Alerts: AlertsConfig{
			LookaheadDays: v.GetInt("ALERT_LOOKAHEAD_DAYS"),
			SweepInterval: v.GetDuration("ALERT_SWEEP_INTERVAL"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.HTTP.RateLimitPerMin <= 0 {
		cfg.HTTP.RateLimitPerMin = 120
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Auth.AccessTTL <= 0 {
		cfg.Auth.AccessTTL = 24 * time.Hour
	}
	if cfg.AMQP.Exchange == "" {
		cfg.AMQP.Exchange = "fleet.notifications"
	}
	if cfg.Alerts.LookaheadDays <= 0 {
		cfg.Alerts.LookaheadDays = 30
	}
	if cfg.Alerts.SweepInterval <= 0 {
		cfg.Alerts.SweepInterval = 24 * time.Hour
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Dispatch.MaxActivePerDriver < 0 {
		return fmt.Errorf("DISPATCH_MAX_ACTIVE_PER_DRIVER must not be negative")
	}
	return nil
}
