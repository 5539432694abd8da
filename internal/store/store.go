package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/lukman83/dealdesk/internal/apperr"
	"github.com/lukman83/dealdesk/internal/logx"
)

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals
	indented = jsoniter.Config{                               //nolint:gochecknoglobals
		EscapeHTML:    true,
		SortMapKeys:   true,
		IndentionStep: 2,
	}.Froze()
)

// Collection names.
const (
	Deals    = "deals"
	Listings = "listings"
	Buyers   = "buyers"
)

const (
	defaultLockTimeout = 5 * time.Second
	lockStaleAfter     = 30 * time.Second
	lockPollInterval   = 25 * time.Millisecond
)

// State tells an absent collection apart from one that failed to parse.
type State int

const (
	StateEmpty State = iota
	StateLoaded
	StateCorrupt
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateCorrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot is a collection as read from disk together with the version it
// was read at. Version is "" when the file did not exist.
type Snapshot[T any] struct {
	Name    string
	Records []T
	Version string
	State   State
}

// Warning describes a recovered corruption, or returns "".
func (s Snapshot[T]) Warning() string {
	if s.State != StateCorrupt {
		return ""
	}
	return fmt.Sprintf("%s.json could not be parsed and was treated as empty", s.Name)
}

// LogWarning reports a recovered corruption on the context logger.
func (s Snapshot[T]) LogWarning(ctx context.Context) {
	if w := s.Warning(); w != "" {
		logx.FromContext(ctx).Warn(w,
			slog.String(logx.FieldCollection, s.Name),
			slog.String("code", apperr.StoreCorrupt.String()),
		)
	}
}

// Store keeps each named collection as one JSON document in a directory.
type Store struct {
	dir         string
	lockTimeout time.Duration
	now         func() time.Time
}

type Option func(*Store)

// WithLockTimeout bounds how long Save waits for another writer's lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithClock overrides the clock used to name corrupt-file backups.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:         dir,
		lockTimeout: defaultLockTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file backing the named collection.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Load reads a collection. A missing file yields StateEmpty and a file that
// does not parse yields StateCorrupt; both come back as an empty, non-nil
// slice. Only real I/O failures are returned as errors.
func Load[T any](s *Store, name string) (Snapshot[T], error) {
	snap := Snapshot[T]{Name: name, Records: []T{}}

	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		snap.State = StateEmpty
		return snap, nil
	}
	if err != nil {
		return snap, apperr.Wrap(err, apperr.Internal, "read "+name)
	}

	snap.Version = version(data)

	records, err := decode[T](name, data)
	if err != nil {
		snap.State = StateCorrupt
		return snap, nil
	}

	snap.Records = records
	snap.State = StateLoaded
	return snap, nil
}

// Save atomically replaces the whole collection. It fails with
// VersionConflict when the file on disk is no longer the one identified by
// expected, so a concurrent writer is never silently overwritten. Bytes that
// do not parse are kept as a .corrupt-<unix> backup before being replaced.
func Save[T any](ctx context.Context, s *Store, name, expected string, records []T) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", apperr.Wrap(err, apperr.Internal, "create state dir")
	}

	unlock, err := s.lock(ctx, name)
	if err != nil {
		return "", err
	}
	defer unlock()

	path := s.Path(name)

	current, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", apperr.Wrap(err, apperr.Internal, "read "+name)
	}
	if version(current) != expected {
		return "", apperr.Newf(apperr.VersionConflict, "%s changed since it was read; reload and retry", name)
	}

	if len(current) > 0 {
		if _, err := decode[T](name, current); err != nil {
			backup := fmt.Sprintf("%s.corrupt-%d", path, s.now().Unix())
			if err := os.Rename(path, backup); err != nil {
				return "", apperr.Wrap(err, apperr.Internal, "preserve corrupt "+name)
			}
		}
	}

	data, err := encode(name, records)
	if err != nil {
		return "", apperr.Wrap(err, apperr.Internal, "encode "+name)
	}

	if err := writeAtomic(path, data); err != nil {
		return "", apperr.Wrap(err, apperr.Internal, "write "+name)
	}

	return version(data), nil
}

// Update runs one load-modify-save cycle. fn must not retain records. When
// fn fails nothing is written. The returned snapshot holds the records and
// version that were written and the State observed at load time.
func Update[T any](ctx context.Context, s *Store, name string, fn func(records []T) ([]T, error)) (Snapshot[T], error) {
	snap, err := Load[T](s, name)
	if err != nil {
		return snap, err
	}

	records, err := fn(snap.Records)
	if err != nil {
		return snap, err
	}

	v, err := Save(ctx, s, name, snap.Version, records)
	if err != nil {
		return snap, err
	}

	return Snapshot[T]{Name: name, Records: records, Version: v, State: snap.State}, nil
}

func decode[T any](name string, data []byte) ([]T, error) {
	var doc map[string][]T
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	records := doc[name]
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// encode writes {"<name>": [...]} with two-space indentation. The slice is
// marshalled on its own and framed by hand so nested records keep their
// indentation.
func encode[T any](name string, records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	body, err := indented.Marshal(records)
	if err != nil {
		return nil, err
	}
	key, err := json.Marshal(name)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("{\n  ")
	buf.Write(key)
	buf.WriteString(": ")
	buf.Write(bytes.ReplaceAll(body, []byte("\n"), []byte("\n  ")))
	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

func version(data []byte) string {
	if data == nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// lock takes the collection's lock file, breaking locks older than
// lockStaleAfter left behind by crashed writers.
func (s *Store) lock(ctx context.Context, name string) (func(), error) {
	lockPath := s.Path(name) + ".lock"
	deadline := time.Now().Add(s.lockTimeout)

	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() { os.Remove(lockPath) }, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, apperr.Wrap(err, apperr.Internal, "lock "+name)
		}

		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > lockStaleAfter {
			os.Remove(lockPath)
			continue
		}

		if time.Now().After(deadline) {
			return nil, apperr.Newf(apperr.VersionConflict, "%s is locked by another writer", name)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}
