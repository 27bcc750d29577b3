package brief

import (
	"time"

	"newsbrief/internal/pkg/config"
)

// Config holds the generation policy and prompt limits.
type Config struct {
	Model           string
	MaxAttempts     int
	WarmUp          time.Duration
	Cooldown        time.Duration
	RateLimitMarker string
	CallTimeout     time.Duration
	MinLength       int // runes; shorter bodies are not summarized
	TruncateLength  int // runes kept from the body for the prompt
}

// DefaultConfig reproduces the production pacing: 2s warm-up, 3 attempts
// and a 60s cooldown after each overload.
func DefaultConfig() Config {
	return Config{
		Model:           "gemini-flash-latest",
		MaxAttempts:     3,
		WarmUp:          2 * time.Second,
		Cooldown:        60 * time.Second,
		RateLimitMarker: "429",
		CallTimeout:     120 * time.Second,
		MinLength:       50,
		TruncateLength:  1000,
	}
}

// LoadConfig reads the GENERATION_* and SUMMARY_* variables.
func LoadConfig(loader *config.Loader) Config {
	d := DefaultConfig()
	return Config{
		Model:           loader.String("GENERATOR_MODEL", d.Model, nil),
		MaxAttempts:     loader.Int("GENERATION_MAX_ATTEMPTS", d.MaxAttempts, config.IntRange(1, 10)),
		WarmUp:          loader.Duration("GENERATION_WARMUP", d.WarmUp, config.ValidateNonNegativeDuration),
		Cooldown:        loader.Duration("GENERATION_COOLDOWN", d.Cooldown, config.ValidateNonNegativeDuration),
		RateLimitMarker: loader.String("GENERATION_RATE_LIMIT_MARKER", d.RateLimitMarker, nil),
		CallTimeout:     loader.Duration("GENERATION_TIMEOUT", d.CallTimeout, config.ValidatePositiveDuration),
		MinLength:       loader.Int("SUMMARY_MIN_LENGTH", d.MinLength, config.IntRange(0, 10000)),
		TruncateLength:  loader.Int("SUMMARY_TRUNCATE_LENGTH", d.TruncateLength, config.IntRange(1, 100000)),
	}
}
