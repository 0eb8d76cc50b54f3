package snapshot

import "time"

type Config struct {
	Dir string `env:"SNAPSHOT_DIR,default=assets/api-snapshots" validate:"required"`
	// TTL is the horizon stamped into every envelope's expires_at.
	TTL       time.Duration `env:"SNAPSHOT_TTL,default=2h" validate:"gt=0"`
	SourceTag string        `env:"SNAPSHOT_SOURCE_TAG,default=api-prefetch-pipeline" validate:"required"`
	Version   string        `env:"SNAPSHOT_VERSION,default=2.0" validate:"required"`
}
