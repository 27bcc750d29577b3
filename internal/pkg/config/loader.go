// Package config provides fail-open loaders for environment configuration.
//
// Every loader returns a usable value: unset variables yield the default
// silently, while unparseable or invalid values yield the default together
// with a warning. Binaries never refuse to start because of a typo in an
// optional setting; they log the warning and count the fallback instead.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Result is the outcome of loading a single value.
type Result[T any] struct {
	Value           T
	Warning         string
	FallbackApplied bool
}

func load[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error) Result[T] {
	raw := strings.TrimSpace(os.Getenv(envKey))
	if raw == "" {
		return Result[T]{Value: defaultValue}
	}

	value, err := parse(raw)
	if err == nil && validator != nil {
		err = validator(value)
	}
	if err != nil {
		return Result[T]{
			Value:           defaultValue,
			Warning:         fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'", envKey, raw, err, defaultValue),
			FallbackApplied: true,
		}
	}
	return Result[T]{Value: value}
}

// LoadEnvString returns the variable or defaultValue when unset. No validation.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback loads a validated string.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) Result[string] {
	return load(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvDuration loads a Go duration string such as "90s" or "1h30m".
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) Result[time.Duration] {
	return load(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) Result[int] {
	return load(envKey, defaultValue, strconv.Atoi, validator)
}

// LoadEnvBool accepts the forms understood by strconv.ParseBool.
func LoadEnvBool(envKey string, defaultValue bool) Result[bool] {
	return load(envKey, defaultValue, strconv.ParseBool, nil)
}

// Loader wraps the package loaders for one component. It logs every
// fallback, records it on the component's ConfigMetrics and keeps the
// warnings so callers can surface them after loading.
type Loader struct {
	logger   *slog.Logger
	metrics  *ConfigMetrics
	warnings []string
}

// NewLoader returns a Loader. Both arguments are optional.
func NewLoader(logger *slog.Logger, metrics *ConfigMetrics) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, metrics: metrics}
}

func record[T any](l *Loader, envKey string, r Result[T]) T {
	if r.FallbackApplied {
		l.warnings = append(l.warnings, r.Warning)
		l.logger.Warn("configuration fallback applied",
			slog.String("field", envKey),
			slog.String("warning", r.Warning))
		if l.metrics != nil {
			l.metrics.RecordValidationError(envKey)
			l.metrics.RecordFallback(envKey)
		}
	}
	return r.Value
}

// String loads a validated string.
func (l *Loader) String(envKey, defaultValue string, validator func(string) error) string {
	return record(l, envKey, LoadEnvWithFallback(envKey, defaultValue, validator))
}

// Secret loads a credential. The value never appears in warnings or logs.
func (l *Loader) Secret(envKey string) string {
	return strings.TrimSpace(os.Getenv(envKey))
}

// Duration loads a validated duration.
func (l *Loader) Duration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) time.Duration {
	return record(l, envKey, LoadEnvDuration(envKey, defaultValue, validator))
}

// Int loads a validated integer.
func (l *Loader) Int(envKey string, defaultValue int, validator func(int) error) int {
	return record(l, envKey, LoadEnvInt(envKey, defaultValue, validator))
}

// Bool loads a boolean.
func (l *Loader) Bool(envKey string, defaultValue bool) bool {
	return record(l, envKey, LoadEnvBool(envKey, defaultValue))
}

// Warnings returns the fallback warnings collected so far.
func (l *Loader) Warnings() []string {
	return l.warnings
}

// Finish stamps the load time and the fallback-active gauge.
func (l *Loader) Finish() {
	if l.metrics == nil {
		return
	}
	l.metrics.RecordLoadTimestamp()
	l.metrics.SetFallbackActive(len(l.warnings) > 0)
}
