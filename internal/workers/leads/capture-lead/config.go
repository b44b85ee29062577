package capturelead

import (
	"time"

	"prospect-composer/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// SyncCRM pushes new and updated leads to Zoho inside the job.
	SyncCRM bool
}

func LoadConfig(wc config.WorkerConfig, cfg *config.Config) *Config {
	timeout := config.GetDuration(wc.Timeout)
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Config{
		Timeout: timeout,
		SyncCRM: cfg.Integrations.Zoho.Enabled,
	}
}
