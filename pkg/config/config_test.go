package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_FLOAT", "2.5")
	t.Setenv("TEST_BAD_FLOAT", "abc")
	t.Setenv("TEST_BOOL", "false")
	t.Setenv("TEST_DURATION", "3s")
	t.Setenv("TEST_SLICE", " a, ,b ")

	assert.Equal(t, 2.5, GetEnvAsFloat("TEST_FLOAT", 1))
	assert.Equal(t, 1.0, GetEnvAsFloat("TEST_BAD_FLOAT", 1))
	assert.False(t, GetEnvAsBool("TEST_BOOL", true))
	assert.True(t, GetEnvAsBool("TEST_MISSING_BOOL", true))
	assert.Equal(t, 3*time.Second, GetEnvAsDuration("TEST_DURATION", time.Second))
	assert.Equal(t, []string{"a", "b"}, GetEnvAsSlice("TEST_SLICE", nil))
	assert.Equal(t, []string{"x"}, GetEnvAsSlice("TEST_MISSING_SLICE", []string{"x"}))
}

func TestLoadCommonConfigDefaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "9999")

	cfg := LoadCommonConfig("logistics", "8080")

	assert.Equal(t, "9999", cfg.HTTP.Port)
	assert.Equal(t, "logistics", cfg.Postgres.DBName)
	assert.Equal(t, "guest", cfg.RabbitMQ.User)
}

func TestGenerateRandomKey(t *testing.T) {
	k1 := GenerateRandomKey(16)
	k2 := GenerateRandomKey(16)

	assert.Len(t, k1, 32)
	assert.NotEqual(t, k1, k2)
}
