package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into the provided struct using `env`
// and `envDefault` tags. Durations use Go syntax ("15m", "3600s") and
// slices are split on the tag's envSeparator.
//
//	type Config struct {
//	    Port        int           `env:"HTTP_PORT" envDefault:"8080"`
//	    AccessTTL   time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"3600s"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
