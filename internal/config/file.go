package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	DatabaseURL     string `yaml:"database_url"`
	RedisURL        string `yaml:"redis_url"`
	ServerPort      string `yaml:"server_port"`
	AdminIdentity   string `yaml:"admin_identity"`
	AdminSecret     string `yaml:"admin_secret"`
	RefreshInterval string `yaml:"refresh_interval"`
	ReadyAttempts   string `yaml:"ready_attempts"`
	ReadyInterval   string `yaml:"ready_interval"`
	UserAgent       string `yaml:"user_agent"`
	Timeout         string `yaml:"timeout"`
}

// LoadFromFile loads config from a YAML file. Every field is optional;
// durations are parsed with time.ParseDuration (e.g. "15s").
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c := &Config{
		DatabaseURL:   f.DatabaseURL,
		RedisURL:      f.RedisURL,
		ServerPort:    f.ServerPort,
		AdminIdentity: f.AdminIdentity,
		AdminSecret:   f.AdminSecret,
		UserAgent:     f.UserAgent,
	}
	if f.RefreshInterval != "" {
		if d, err := time.ParseDuration(f.RefreshInterval); err == nil {
			c.RefreshInterval = d
		}
	}
	if f.ReadyAttempts != "" {
		if n, err := strconv.Atoi(f.ReadyAttempts); err == nil {
			c.ReadyAttempts = n
		}
	}
	if f.ReadyInterval != "" {
		if d, err := time.ParseDuration(f.ReadyInterval); err == nil {
			c.ReadyInterval = d
		}
	}
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			c.Timeout = d
		}
	}
	c.applyDefaults()
	return c, nil
}
