package config

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Package loaders
// ============================================================================

func TestLoadEnvString(t *testing.T) {
	assert.Equal(t, "default_value", LoadEnvString("NB_TEST_STRING", "default_value"))

	t.Setenv("NB_TEST_STRING", "custom_value")
	assert.Equal(t, "custom_value", LoadEnvString("NB_TEST_STRING", "default_value"))
}

func TestLoadEnvWithFallback(t *testing.T) {
	t.Run("valid value", func(t *testing.T) {
		t.Setenv("NB_TEST_CRON", "0 6 * * *")
		result := LoadEnvWithFallback("NB_TEST_CRON", "0 7 * * *", ValidateCronSchedule)
		assert.Equal(t, "0 6 * * *", result.Value)
		assert.False(t, result.FallbackApplied)
		assert.Empty(t, result.Warning)
	})

	t.Run("unset uses default silently", func(t *testing.T) {
		result := LoadEnvWithFallback("NB_TEST_CRON", "0 7 * * *", ValidateCronSchedule)
		assert.Equal(t, "0 7 * * *", result.Value)
		assert.False(t, result.FallbackApplied)
	})

	t.Run("invalid falls back with warning", func(t *testing.T) {
		t.Setenv("NB_TEST_CRON", "not a cron")
		result := LoadEnvWithFallback("NB_TEST_CRON", "0 7 * * *", ValidateCronSchedule)
		assert.Equal(t, "0 7 * * *", result.Value)
		assert.True(t, result.FallbackApplied)
		assert.Contains(t, result.Warning, "NB_TEST_CRON")
		assert.Contains(t, result.Warning, "not a cron")
	})
}

func TestLoadEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		want         time.Duration
		wantFallback bool
	}{
		{"unset", "", 60 * time.Second, false},
		{"valid", "90s", 90 * time.Second, false},
		{"unparseable", "soon", 60 * time.Second, true},
		{"fails validation", "-5s", 60 * time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NB_TEST_DURATION", tt.value)
			result := LoadEnvDuration("NB_TEST_DURATION", 60*time.Second, ValidatePositiveDuration)
			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
		})
	}
}

func TestLoadEnvInt(t *testing.T) {
	t.Setenv("NB_TEST_INT", "5")
	assert.Equal(t, 5, LoadEnvInt("NB_TEST_INT", 3, IntRange(1, 10)).Value)

	t.Setenv("NB_TEST_INT", "50")
	result := LoadEnvInt("NB_TEST_INT", 3, IntRange(1, 10))
	assert.Equal(t, 3, result.Value)
	assert.True(t, result.FallbackApplied)

	t.Setenv("NB_TEST_INT", "three")
	assert.Equal(t, 3, LoadEnvInt("NB_TEST_INT", 3, nil).Value)
}

func TestLoadEnvBool(t *testing.T) {
	t.Setenv("NB_TEST_BOOL", "true")
	assert.True(t, LoadEnvBool("NB_TEST_BOOL", false).Value)

	t.Setenv("NB_TEST_BOOL", "maybe")
	result := LoadEnvBool("NB_TEST_BOOL", false)
	assert.False(t, result.Value)
	assert.True(t, result.FallbackApplied)
}

// ============================================================================
// Loader
// ============================================================================

func TestLoader_RecordsFallbacks(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewConfigMetrics("test", reg)
	loader := NewLoader(nil, metrics)

	t.Setenv("NB_TEST_ATTEMPTS", "0")
	t.Setenv("NB_TEST_TZ", "Mars/Olympus")
	t.Setenv("NB_TEST_DELAY", "2s")

	attempts := loader.Int("NB_TEST_ATTEMPTS", 3, IntRange(1, 10))
	tz := loader.String("NB_TEST_TZ", "Asia/Seoul", ValidateTimezone)
	delay := loader.Duration("NB_TEST_DELAY", time.Second, ValidatePositiveDuration)
	loader.Finish()

	assert.Equal(t, 3, attempts)
	assert.Equal(t, "Asia/Seoul", tz)
	assert.Equal(t, 2*time.Second, delay)

	require.Len(t, loader.Warnings(), 2)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("NB_TEST_ATTEMPTS")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("NB_TEST_TZ")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbackActive))
}

func TestLoader_NoFallback(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewConfigMetrics("clean", reg)
	loader := NewLoader(nil, metrics)

	assert.Equal(t, 3, loader.Int("NB_TEST_UNSET_INT", 3, nil))
	assert.True(t, loader.Bool("NB_TEST_UNSET_BOOL", true))
	loader.Finish()

	assert.Empty(t, loader.Warnings())
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.FallbackActive))
}

func TestLoader_SecretIsTrimmed(t *testing.T) {
	t.Setenv("NB_TEST_KEY", "  sk-123 \n")
	loader := NewLoader(nil, nil)
	assert.Equal(t, "sk-123", loader.Secret("NB_TEST_KEY"))
	assert.Empty(t, loader.Warnings())
}
