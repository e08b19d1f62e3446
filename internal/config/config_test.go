package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, "0 6 25 * *", cfg.FeesCron)
	assert.Equal(t, "America/Santo_Domingo", cfg.Location.String())
	assert.False(t, cfg.SchedulerEnabled)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestNewConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing jwt secret", map[string]string{"AUTH_PROVIDER": "jwt", "JWT_SECRET": ""}},
		{"unknown driver", map[string]string{"JWT_SECRET": "x", "STORAGE_DRIVER": "mongo"}},
		{"firestore without project", map[string]string{"JWT_SECRET": "x", "STORAGE_DRIVER": "firestore", "FIRESTORE_PROJECT_ID": ""}},
		{"bad timezone", map[string]string{"JWT_SECRET": "x", "TIMEZONE": "Mars/Olympus"}},
		{"bad scheduler flag", map[string]string{"JWT_SECRET": "x", "SCHEDULER_ENABLED": "sometimes"}},
		{"bad log format", map[string]string{"JWT_SECRET": "x", "LOG_FORMAT": "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := NewConfig()
			assert.Error(t, err)
		})
	}
}
