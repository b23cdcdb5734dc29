package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
server_addr: ":8080"
database_url: "postgres://localhost/photomark"
kafka_broker: "localhost:9092"
kafka_topic: "watermark-jobs"
logo:
  background: "assets/background_logo.png"
  badge: "assets/badge_logo.png"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, "watermark-workers", cfg.KafkaGroup)
	assert.NotEmpty(t, cfg.ScratchDir)
	assert.Equal(t, 900, cfg.Storage.SignedURLTTLSec)
}

func TestLoadConfigRequiresLogos(t *testing.T) {
	path := writeConfig(t, `
server_addr: ":8080"
kafka_broker: "localhost:9092"
kafka_topic: "watermark-jobs"
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
