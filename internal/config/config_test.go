package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/promptreveal?sslmode=disable")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5, cfg.UploadConcurrency)
	assert.Equal(t, "prompt-images", cfg.Storage.BucketName)
	assert.Equal(t, "us-east-1", cfg.Storage.Region)
	assert.Equal(t, "guest.promptreveal.app", cfg.GuestEmailDomain)
	assert.Equal(t, "orphan_cleanup_queue", cfg.RabbitMQ.RabbitMQQueueName)
	assert.False(t, cfg.StorageConfigured())
	assert.False(t, cfg.QueueConfigured())
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	require.NoError(t, os.Unsetenv("DATABASE_URL"))

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestStorageConfigured(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/promptreveal")
	t.Setenv("S3_ENDPOINT", "localhost:9000")
	t.Setenv("S3_ACCESS_KEY_ID", "minio")
	t.Setenv("S3_SECRET_ACCESS_KEY", "minio123")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.StorageConfigured())
}
