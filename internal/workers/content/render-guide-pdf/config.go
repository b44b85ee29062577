package renderguidepdf

import (
	"time"

	"prospect-composer/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// LoadConfig defaults to two minutes: a cold browser launch plus a long guide
// can take most of that.
func LoadConfig(wc config.WorkerConfig) *Config {
	timeout := config.GetDuration(wc.Timeout)
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Config{Timeout: timeout}
}
