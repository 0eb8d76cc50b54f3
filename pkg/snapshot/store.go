// Package snapshot persists source documents as JSON envelopes on disk.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/gofrs/flock"
	"github.com/morikuni/failure/v2"
	"github.com/rs/zerolog"
)

const (
	fileExt = ".json"
	lockExt = ".lock"
)

var slotNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// Writer stores payloads under named slots.
type Writer interface {
	Write(ctx context.Context, name string, payload any) error
}

// FileStore keeps one <name>.json file per slot in a single directory.
// Each write fully replaces the previous envelope of the slot.
type FileStore struct {
	config *Config
	logger *zerolog.Logger
	now    func() time.Time
}

type Option func(*FileStore)

// WithClock overrides the time source used for metadata timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *FileStore) {
		s.now = now
	}
}

func NewFileStore(config *Config, logger *zerolog.Logger, opts ...Option) *FileStore {
	s := &FileStore{
		config: config,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FileStore) Dir() string {
	return s.config.Dir
}

func (s *FileStore) Path(name string) string {
	return filepath.Join(s.config.Dir, name+fileExt)
}

// Write wraps payload in an envelope and atomically replaces the slot.
// The target file is either the previous envelope or the new one, never a partial write.
func (s *FileStore) Write(ctx context.Context, name string, payload any) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return failure.Wrap(err, failure.WithCode(IOFailure),
			failure.Message("Snapshot write cancelled"),
			failure.Context{"slot": name})
	}

	fetchedAt := s.now().UTC()
	envelope := &Envelope{
		Data: payload,
		Metadata: Metadata{
			FetchedAt: fetchedAt,
			ExpiresAt: fetchedAt.Add(s.config.TTL),
			Source:    s.config.SourceTag,
			Version:   s.config.Version,
		},
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return failure.Wrap(err, failure.WithCode(IOFailure),
			failure.Message("Failed to encode snapshot"),
			failure.Context{"slot": name})
	}

	if err := os.MkdirAll(s.config.Dir, 0o755); err != nil {
		return failure.Wrap(err, failure.WithCode(IOFailure),
			failure.Message("Failed to create snapshot directory"),
			failure.Context{"dir": s.config.Dir})
	}

	path := s.Path(name)
	if err := writeFileAtomic(path, data); err != nil {
		return failure.Wrap(err, failure.WithCode(IOFailure),
			failure.Message("Failed to write snapshot"),
			failure.Context{"path": path})
	}

	s.logger.Info().
		Str("slot", name).
		Int("bytes", len(data)).
		Msg("Saved snapshot")

	return nil
}

// Read loads the envelope currently stored in a slot.
// Data is decoded into generic JSON values.
func (s *FileStore) Read(name string) (*Envelope, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	path := s.Path(name)
	// #nosec G304 -- path is built from the configured dir and a validated slot name
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, failure.Wrap(err, failure.WithCode(NotFound),
				failure.Message("Snapshot not found"),
				failure.Context{"slot": name})
		}
		return nil, failure.Wrap(err, failure.WithCode(IOFailure),
			failure.Message("Failed to read snapshot"),
			failure.Context{"path": path})
	}

	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, failure.Wrap(err, failure.WithCode(IOFailure),
			failure.Message("Snapshot is not a valid envelope"),
			failure.Context{"path": path})
	}

	return &envelope, nil
}

// LockPath is the run lock file. It sits next to the snapshot directory,
// so the published directory only ever holds snapshots.
func (s *FileStore) LockPath() string {
	return filepath.Clean(s.config.Dir) + lockExt
}

// Lock takes an exclusive run lock on the snapshot directory.
// The returned func releases it.
func (s *FileStore) Lock() (func() error, error) {
	if err := os.MkdirAll(s.config.Dir, 0o755); err != nil {
		return nil, failure.Wrap(err, failure.WithCode(IOFailure),
			failure.Message("Failed to create snapshot directory"),
			failure.Context{"dir": s.config.Dir})
	}

	lock := flock.New(s.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(IOFailure),
			failure.Message("Failed to lock snapshot directory"),
			failure.Context{"dir": s.config.Dir})
	}
	if !locked {
		return nil, failure.New(Locked,
			failure.Message("Another prefetch run holds the snapshot directory"),
			failure.Context{"dir": s.config.Dir})
	}

	return lock.Unlock, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	// Clean up temp file on error
	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return nil
}

// ValidateName reports whether name can be used as a slot.
func ValidateName(name string) error {
	if !slotNamePattern.MatchString(name) {
		return failure.New(InvalidName,
			failure.Message("Invalid snapshot name"),
			failure.Context{"slot": name})
	}
	return nil
}
