package processsequenceemails

import (
	"time"

	"prospect-composer/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// LoadConfig defaults to a longer timeout than single-lead workers since one
// run walks every active sequence.
func LoadConfig(wc config.WorkerConfig) *Config {
	timeout := config.GetDuration(wc.Timeout)
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Config{Timeout: timeout}
}
