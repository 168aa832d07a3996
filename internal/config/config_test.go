package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "GRPC_PORT", "DETECTOR_API_BASE_URL", "MAX_FRAMES_PER_SESSION",
		"DEFAULT_MIN_SPACE_WIDTH", "DEFAULT_SPACE_COEFFICIENT", "KAFKA_ENABLED", "KAFKA_TOPIC", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 9090, cfg.Server.GRPCPort)
	assert.Equal(t, "http://localhost:8000", cfg.DetectorAPI.BaseURL)
	assert.Equal(t, 10, cfg.Parking.MaxFramesPerSession)
	assert.Equal(t, 150.0, cfg.Parking.DefaultMinSpaceWidth)
	assert.Equal(t, 0.8, cfg.Parking.DefaultSpaceCoefficient)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "parking-analysis", cfg.Kafka.Topic)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("DEFAULT_SPACE_COEFFICIENT", "0.65")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("MAX_PARKING_ROWS", "4")
	t.Setenv("ADMIN_API_KEY", "secret")

	cfg := LoadConfig()
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 0.65, cfg.Parking.DefaultSpaceCoefficient)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, 4, cfg.Parking.MaxParkingRows)
	assert.Equal(t, "secret", cfg.Admin.APIKey)
}

func TestEnvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("TEST_INT", "abc")
	t.Setenv("TEST_FLOAT", "1.2.3")
	t.Setenv("TEST_BOOL", "maybe")

	assert.Equal(t, 7, getEnvInt("TEST_INT", 7))
	assert.Equal(t, 2.5, getEnvFloat("TEST_FLOAT", 2.5))
	assert.True(t, getEnvBool("TEST_BOOL", true))
}
