// internal/workers/communication/slack-deliver/config.go
package slackdeliver

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout time.Duration
	// AlertOnFailure publishes failed background jobs to SNS when an alerter is wired.
	AlertOnFailure bool
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:        30 * time.Second,
		AlertOnFailure: true,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
