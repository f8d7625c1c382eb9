package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults verifies that default values are used when env vars are missing.
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOOKING_SERVICE_URL", "http://booking.test")

	cfg, err := Load(".")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.ServerPort)

	assert.Equal(t, 200.0, cfg.Geofence.ArrivalRadius)
	assert.Equal(t, 300.0, cfg.Geofence.ParkingRadius)
	assert.Equal(t, 500.0, cfg.Geofence.DepartureRadius)
	assert.Equal(t, 800.0, cfg.Geofence.ExitRadius)
	assert.Equal(t, 1000.0, cfg.Geofence.ApproachingRadius)

	assert.Equal(t, 24*time.Hour, cfg.Lifecycle.SessionMaxAge)
	assert.Equal(t, "@every 10m", cfg.Lifecycle.ReaperSchedule)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, time.Hour, cfg.Redis.StatusTTL)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Firebase.ProjectID)
	assert.Equal(t, 5*time.Second, cfg.Booking.Timeout)
	assert.Equal(t, 2.0, cfg.RateLimits.PingsPerSecond)
	assert.Equal(t, 5, cfg.RateLimits.PingBurst)
}

// TestLoad_EnvVars verifies that environment variables override defaults.
func TestLoad_EnvVars(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("BOOKING_SERVICE_URL", "http://booking.internal")
	t.Setenv("GEOFENCE_PARKING_RADIUS_M", "250")
	t.Setenv("SESSION_MAX_AGE", "12h")
	t.Setenv("DATABASE_URL", "postgres://geo@localhost/geo")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "http://booking.internal", cfg.Booking.ServiceURL)
	assert.Equal(t, 250.0, cfg.Geofence.Thresholds().ParkingRadius)
	assert.Equal(t, 12*time.Hour, cfg.Lifecycle.SessionMaxAge)
	assert.Equal(t, "postgres://geo@localhost/geo", cfg.Database.URL)
}

// TestLoad_File verifies that values are loaded from a .env file.
func TestLoad_File(t *testing.T) {
	content := []byte(`
APP_ENV=staging
LOG_LEVEL=warn
SERVER_PORT=7070
BOOKING_SERVICE_URL=http://booking.staging
GEOFENCE_EXIT_RADIUS_M=900
`)
	err := os.WriteFile(".env", content, 0644)
	require.NoError(t, err)
	defer os.Remove(".env")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7070, cfg.ServerPort)
	assert.Equal(t, 900.0, cfg.Geofence.ExitRadius)
}

// TestLoad_ValidationFailure verifies that missing required fields return an error.
func TestLoad_ValidationFailure(t *testing.T) {
	os.Unsetenv("BOOKING_SERVICE_URL")

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "missing required configuration: BOOKING_SERVICE_URL")
}

// TestLoad_InvalidThresholds verifies that unordered radii are rejected.
func TestLoad_InvalidThresholds(t *testing.T) {
	t.Setenv("BOOKING_SERVICE_URL", "http://booking.test")
	t.Setenv("GEOFENCE_DEPARTURE_RADIUS_M", "100")

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid geofence thresholds")
}
