package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "evgrid/libs/config"
)

// Config defines the charging backend configuration. Defaults cover everything
// except the database DSN.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"EVGRID_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"EVGRID_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"EVGRID_REDIS_ADDR"`
		Password string `yaml:"password" env:"EVGRID_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"EVGRID_REDIS_DB"`
		TTL      int    `yaml:"ttlSeconds" env:"EVGRID_REDIS_TTL"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret" env:"EVGRID_JWT_SECRET"`
	} `yaml:"auth"`
	Payments struct {
		BaseURL string `yaml:"baseUrl" env:"EVGRID_PAYMENTS_URL"`
	} `yaml:"payments"`
	Booking struct {
		GraceMinutes    int     `yaml:"graceMinutes" env:"EVGRID_BOOKING_GRACE_MINUTES"`
		FallbackRateKwh float64 `yaml:"fallbackRatePerKwh" env:"EVGRID_FALLBACK_RATE_KWH"`
	} `yaml:"booking"`
	Charging struct {
		FlatRateKwh float64 `yaml:"flatRatePerKwh" env:"EVGRID_FLAT_RATE_KWH"`
	} `yaml:"charging"`
	Scheduler struct {
		SweepSeconds int `yaml:"sweepSeconds" env:"EVGRID_SWEEP_SECONDS"`
	} `yaml:"scheduler"`
	Scoring struct {
		TrafficWeight float64 `yaml:"trafficWeight" env:"EVGRID_SCORE_TRAFFIC"`
		GridWeight    float64 `yaml:"gridWeight" env:"EVGRID_SCORE_GRID"`
		ParkingWeight float64 `yaml:"parkingWeight" env:"EVGRID_SCORE_PARKING"`
		AccessWeight  float64 `yaml:"accessWeight" env:"EVGRID_SCORE_ACCESS"`
	} `yaml:"scoring"`
}

// Load reads configuration via the shared helper and applies defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.TTL = 86400
	cfg.Booking.GraceMinutes = 15
	cfg.Booking.FallbackRateKwh = 15.0
	cfg.Charging.FlatRateKwh = 15.0
	cfg.Scheduler.SweepSeconds = 60
	cfg.Scoring.TrafficWeight = 0.35
	cfg.Scoring.GridWeight = 0.30
	cfg.Scoring.ParkingWeight = 0.20
	cfg.Scoring.AccessWeight = 0.15

	if err := libconfig.Load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// GracePeriod is the no-show window after the booked start.
func (c *Config) GracePeriod() time.Duration {
	if c.Booking.GraceMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.Booking.GraceMinutes) * time.Minute
}

// SweepPeriod is the expiration scheduler tick.
func (c *Config) SweepPeriod() time.Duration {
	if c.Scheduler.SweepSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.Scheduler.SweepSeconds) * time.Second
}

// ActiveSessionTTL bounds the redis cache of running sessions.
func (c *Config) ActiveSessionTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Redis.TTL) * time.Second
}
