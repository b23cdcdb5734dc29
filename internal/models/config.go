package models

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	ServerAddr  string `yaml:"server_addr"`
	DatabaseURL string `yaml:"database_url"`

	KafkaBroker string `yaml:"kafka_broker"`
	KafkaTopic  string `yaml:"kafka_topic"`
	KafkaGroup  string `yaml:"kafka_group"`

	Workers     int    `yaml:"workers"`
	MaxAttempts int    `yaml:"max_attempts"`
	ScratchDir  string `yaml:"scratch_dir"`

	Storage StorageConfig `yaml:"storage"`
	Logo    LogoConfig    `yaml:"logo"`
	Log     LogConfig     `yaml:"log"`
}

type StorageConfig struct {
	URL             string `yaml:"url"`
	ServiceKey      string `yaml:"service_key"`
	Bucket          string `yaml:"bucket"`
	SignedURLTTLSec int    `yaml:"signed_url_ttl_seconds"`
}

// SignedURLTTL is the lifetime of issued download URLs.
func (c StorageConfig) SignedURLTTL() time.Duration {
	return time.Duration(c.SignedURLTTLSec) * time.Second
}

type LogoConfig struct {
	Background string `yaml:"background"`
	Badge      string `yaml:"badge"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // trace|debug|info|warn|error
	Format string `yaml:"format"` // json|console
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = os.TempDir()
	}
	if cfg.Storage.SignedURLTTLSec <= 0 {
		cfg.Storage.SignedURLTTLSec = 900
	}
	if cfg.KafkaGroup == "" {
		cfg.KafkaGroup = "watermark-workers"
	}
	if cfg.Logo.Background == "" || cfg.Logo.Badge == "" {
		return nil, fmt.Errorf("config: logo.background and logo.badge are required")
	}
	return &cfg, nil
}
