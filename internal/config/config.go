package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration. Both the database and Redis
// are optional: without DATABASE_URL the guide serves cached or default
// data, and without REDIS_URL the cache mirror is kept in process.
type Config struct {
	DatabaseURL     string        `yaml:"database_url" env:"DATABASE_URL"`
	RedisURL        string        `yaml:"redis_url" env:"REDIS_URL"`
	ServerPort      string        `yaml:"server_port" env:"SERVER_PORT"`
	AdminIdentity   string        `yaml:"admin_identity" env:"ADMIN_IDENTITY"`
	AdminSecret     string        `yaml:"admin_secret" env:"ADMIN_SECRET"`
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"REFRESH_INTERVAL"`
	ReadyAttempts   int           `yaml:"ready_attempts" env:"READY_ATTEMPTS"`
	ReadyInterval   time.Duration `yaml:"ready_interval" env:"READY_INTERVAL"`
	UserAgent       string        `yaml:"user_agent" env:"FETCHER_USER_AGENT"`
	Timeout         time.Duration `yaml:"timeout" env:"FETCHER_TIMEOUT"`
}

// Load builds config from environment variables.
// If DATABASE_URL is not set, Load tries to load .env.local and .env
// from the current directory first. Every field is optional.
func Load() *Config {
	if os.Getenv("DATABASE_URL") == "" {
		loadEnvFiles()
	}
	c := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		ServerPort:    os.Getenv("SERVER_PORT"),
		AdminIdentity: os.Getenv("ADMIN_IDENTITY"),
		AdminSecret:   os.Getenv("ADMIN_SECRET"),
		UserAgent:     os.Getenv("FETCHER_USER_AGENT"),
	}
	if s := os.Getenv("REFRESH_INTERVAL"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.RefreshInterval = d
		}
	}
	if s := os.Getenv("READY_ATTEMPTS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			c.ReadyAttempts = n
		}
	}
	if s := os.Getenv("READY_INTERVAL"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.ReadyInterval = d
		}
	}
	if s := os.Getenv("FETCHER_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.Timeout = d
		}
	}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.ServerPort == "" {
		c.ServerPort = "8080"
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 15 * time.Second
	}
	if c.ReadyAttempts <= 0 {
		c.ReadyAttempts = 50
	}
	if c.ReadyInterval <= 0 {
		c.ReadyInterval = 150 * time.Millisecond
	}
	if c.UserAgent == "" {
		c.UserAgent = "ChannelGuide/1.0"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}
