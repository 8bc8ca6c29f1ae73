package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DB         DBConfig       `yaml:"db"`
	Server     ServerConfig   `yaml:"server"`
	Notifier   NotifierConfig `yaml:"notifier"`
	Cache      CacheConfig    `yaml:"cache"`
	Production bool           `yaml:"production"`
}

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type NotifierConfig struct {
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	MaxSize int  `yaml:"max_size"`
}

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %v", err)
	}
	defer file.Close()

	cfg := &Config{}
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %v", err)
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "127.0.0.1"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.Notifier.TimeoutSeconds == 0 {
		cfg.Notifier.TimeoutSeconds = 10
	}
	if cfg.Cache.MaxSize == 0 {
		cfg.Cache.MaxSize = 256
	}

	return cfg, nil
}

func (c *Config) GetConnString() string {
	return fmt.Sprintf("user=%s password=%s dbname=%s sslmode=%s host=%s port=%d",
		c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode, c.DB.Host, c.DB.Port)
}
