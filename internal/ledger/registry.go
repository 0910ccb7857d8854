// Package ledger implements the per-user ledger stores: one SQLite file per
// username holding that user's expenses and budget goals. Stores are only
// reachable through a Registry, which derives the storage key from the
// username so no caller ever builds a file name by hand.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/logger"
)

const (
	filePrefix = "expenses_"
	fileSuffix = ".db"
)

// sideFiles are the SQLite companions removed together with a ledger.
var sideFiles = []string{"-journal", "-wal", "-shm"}

// Registry maps usernames to ledger stores under a single data directory.
// It remembers which store files it has brought up to date, so migrations
// run once per store and process rather than on every access.
type Registry struct {
	dir      string
	migrated sync.Map // path -> struct{}
}

// NewRegistry creates the data directory if needed and returns a Registry
// rooted at it.
func NewRegistry(dir string) (*Registry, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("ledger directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	return &Registry{dir: dir}, nil
}

// Dir returns the directory holding the ledger files.
func (r *Registry) Dir() string {
	return r.dir
}

// StoreKey derives the stable, filesystem-safe identifier of a user's store.
// Usernames are hashed rather than interpolated so separators and dots in a
// username can never escape the data directory.
func StoreKey(username string) string {
	sum := sha256.Sum256([]byte(username))
	return filePrefix + hex.EncodeToString(sum[:16])
}

func (r *Registry) pathFor(username string) string {
	return filepath.Join(r.dir, StoreKey(username)+fileSuffix)
}

// GetOrCreate returns the ledger for username, creating and migrating the
// store on first access.
func (r *Registry) GetOrCreate(_ context.Context, username string) (*Ledger, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	path := r.pathFor(username)
	_, statErr := os.Stat(path)
	created := errors.Is(statErr, fs.ErrNotExist)

	if !created {
		if _, ok := r.migrated.Load(path); ok {
			return &Ledger{username: username, path: path}, nil
		}
	}

	if err := runMigrations(path); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
	}
	r.migrated.Store(path, struct{}{})
	if created {
		logger.Named("ledger").Infow("ledger created", "store", StoreKey(username))
	}

	return &Ledger{username: username, path: path}, nil
}

// Open returns a handle to an existing ledger without creating it.
func (r *Registry) Open(username string) (*Ledger, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	exists, err := r.Exists(username)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.ErrLedgerNotFound
	}
	return &Ledger{username: username, path: r.pathFor(username)}, nil
}

// Exists reports whether a ledger has been created for username.
func (r *Registry) Exists(username string) (bool, error) {
	_, err := os.Stat(r.pathFor(username))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
}

// Destroy irreversibly removes the ledger of username together with its
// SQLite side files. Destroying a missing ledger is not an error.
func (r *Registry) Destroy(username string) error {
	if err := validateUsername(username); err != nil {
		return err
	}

	path := r.pathFor(username)
	r.migrated.Delete(path)
	for _, p := range append([]string{path}, sidePaths(path)...) {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
		}
	}

	logger.Named("ledger").Infow("ledger destroyed", "store", StoreKey(username))
	return nil
}

// MigrateAll applies pending migrations to every ledger file in the data
// directory and returns how many stores were visited.
func (r *Registry) MigrateAll(ctx context.Context) (int, error) {
	paths, err := filepath.Glob(filepath.Join(r.dir, filePrefix+"*"+fileSuffix))
	if err != nil {
		return 0, fmt.Errorf("list ledgers: %w", err)
	}

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := runMigrations(path); err != nil {
			return i, fmt.Errorf("migrate %s: %w", filepath.Base(path), err)
		}
		r.migrated.Store(path, struct{}{})
	}
	return len(paths), nil
}

func sidePaths(path string) []string {
	out := make([]string, 0, len(sideFiles))
	for _, suffix := range sideFiles {
		out = append(out, path+suffix)
	}
	return out
}

func validateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "username is required")
	}
	return nil
}
