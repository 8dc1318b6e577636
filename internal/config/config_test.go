package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_DRIVER", "NOTIFY_ON_STATUS_CHANGE", "TASK_WORKERS", "TASK_TIMEOUT", "DEV_ADMIN_IDS", "MAX_BODY_BYTES", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.True(t, cfg.Workflow.NotifyOnStatusChange)
	assert.Equal(t, 4, cfg.Tasks.Workers)
	assert.Equal(t, 10*time.Second, cfg.Tasks.Timeout)
	assert.Equal(t, int64(5<<20), cfg.MaxBodyBytes)
	assert.Empty(t, cfg.Auth.DevAdminIDs)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoadIgnoresUnparseableValues(t *testing.T) {
	t.Setenv("NOTIFY_ON_STATUS_CHANGE", "sometimes")
	t.Setenv("TASK_WORKERS", "many")

	cfg := Load()

	assert.True(t, cfg.Workflow.NotifyOnStatusChange)
	assert.Equal(t, 4, cfg.Tasks.Workers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("NOTIFY_ON_STATUS_CHANGE", "false")
	t.Setenv("FANOUT_CONCURRENCY", "8")
	t.Setenv("TASK_TIMEOUT", "3s")
	t.Setenv("DEV_ADMIN_IDS", " admin-1, ,admin-2 ")
	t.Setenv("STORAGE_PUBLIC_BASE_URL", "http://localhost:4443/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://reports.city.gov")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.False(t, cfg.Workflow.NotifyOnStatusChange)
	assert.Equal(t, 8, cfg.Workflow.FanoutConcurrency)
	assert.Equal(t, 3*time.Second, cfg.Tasks.Timeout)
	assert.Equal(t, []string{"admin-1", "admin-2"}, cfg.Auth.DevAdminIDs)
	assert.Equal(t, "http://localhost:4443", cfg.Storage.PublicBaseURL)
	assert.Equal(t, []string{"http://localhost:5173", "https://reports.city.gov"}, cfg.CORS.AllowedOrigins)
}
