package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/defeedco/prefetch/pkg/lib"
	"github.com/defeedco/prefetch/pkg/lib/log"
	"github.com/defeedco/prefetch/pkg/snapshot"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type ScheduleConfig struct {
	// NextFetch is announced in the run summary when Cron is empty.
	NextFetch time.Duration `env:"SUMMARY_NEXT_FETCH,default=4h" validate:"gt=0"`
	// Cron is the standard five field spec of the external scheduler, if known.
	Cron string `env:"SCHEDULE_CRON"`
}

type Config struct {
	Log       log.Config      `env:""`
	Snapshots snapshot.Config `env:""`
	HTTP      lib.HTTPConfig  `env:""`
	Schedule  ScheduleConfig  `env:""`
	// SourcesFile optionally overrides the built-in source catalog.
	SourcesFile string `env:"SOURCES_FILE"`
}

// LoadEnvFiles loads the given .env files into the process environment.
// Missing files are skipped; variables already set are never overwritten.
func LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config

	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := lib.ValidateStruct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
