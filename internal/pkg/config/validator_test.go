package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateCronSchedule(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("0 7 * * *"))
	assert.NoError(t, ValidateCronSchedule("*/15 6-22 * * 1-5"))
	assert.Error(t, ValidateCronSchedule(""))
	assert.Error(t, ValidateCronSchedule("0 7 * *"))
	assert.Error(t, ValidateCronSchedule("61 7 * * *"))
}

func TestValidateTimezone(t *testing.T) {
	assert.NoError(t, ValidateTimezone("UTC"))
	assert.NoError(t, ValidateTimezone("Asia/Seoul"))
	assert.Error(t, ValidateTimezone(""))
	assert.Error(t, ValidateTimezone("+09:00"))
}

func TestValidateDuration(t *testing.T) {
	assert.NoError(t, ValidateDuration(time.Second, time.Second, time.Minute))
	assert.NoError(t, ValidateDuration(time.Minute, time.Second, time.Minute))
	assert.Error(t, ValidateDuration(time.Hour, time.Second, time.Minute))
	assert.Error(t, ValidateDuration(time.Second, time.Minute, time.Second))
}

func TestOptionalDurationRange(t *testing.T) {
	v := OptionalDurationRange(time.Minute, time.Hour)
	assert.NoError(t, v(0))
	assert.NoError(t, v(time.Minute))
	assert.Error(t, v(time.Second))
	assert.Error(t, v(-time.Minute))
}

func TestValidateIntRange(t *testing.T) {
	assert.NoError(t, ValidateIntRange(3, 1, 10))
	assert.Error(t, ValidateIntRange(0, 1, 10))
	assert.Error(t, ValidateIntRange(11, 1, 10))
}

func TestValidatePositiveDuration(t *testing.T) {
	assert.NoError(t, ValidatePositiveDuration(time.Nanosecond))
	assert.Error(t, ValidatePositiveDuration(0))
	assert.NoError(t, ValidateNonNegativeDuration(0))
	assert.Error(t, ValidateNonNegativeDuration(-time.Second))
}

func TestValidateAbsoluteURL(t *testing.T) {
	assert.NoError(t, ValidateAbsoluteURL("https://news.naver.com"))
	assert.Error(t, ValidateAbsoluteURL("/article/1"))
	assert.Error(t, ValidateAbsoluteURL("ftp://example.com/x"))
}

func TestOneOf(t *testing.T) {
	v := OneOf("gemini", "claude", "openai")
	assert.NoError(t, v("claude"))
	assert.Error(t, v("llama"))
}
