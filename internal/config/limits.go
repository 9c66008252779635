package config

import "time"

type Limits struct {
	MaxRetries       int             `yaml:"max_retries" validate:"min=0,max=10"`
	RetryBackoff     time.Duration   `yaml:"retry_backoff" validate:"min=0"`
	SessionTimeout   time.Duration   `yaml:"session_timeout" validate:"min=0,max=1h"`
	BatchConcurrency int             `yaml:"batch_concurrency" validate:"min=1,max=32"`
	RateLimit        RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" validate:"min=1,max=1000"`
	BurstSize         int `yaml:"burst_size" validate:"min=1,max=100"`
}

func DefaultLimits() Limits {
	return Limits{
		MaxRetries:       2,
		RetryBackoff:     time.Second,
		SessionTimeout:   10 * time.Minute,
		BatchConcurrency: 3,
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 50,
			BurstSize:         5,
		},
	}
}
