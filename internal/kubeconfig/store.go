package kubeconfig

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"k8s.io/client-go/tools/clientcmd"
)

var (
	// ErrNotFound is returned when no kubeconfig exists at the store path
	ErrNotFound = errors.New("a valid kubeconfig must exist")
	// ErrWrite is returned when the kubeconfig or its backup cannot be written
	ErrWrite = errors.New("failed to write kubeconfig")
	// ErrHomeDirUnavailable is returned when the default path cannot be resolved
	ErrHomeDirUnavailable = errors.New("could not get home directory")
)

const (
	fileMode = 0o600

	maxBackupsPerSecond = 100
)

// Store reads and writes one kubeconfig file on disk.
// It owns no state besides the path; every Read goes back to the file.
type Store struct {
	path string
	now  func() time.Time
}

// NewStore creates a store for the kubeconfig at path
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// DefaultPath returns ~/.kube/config for the current user
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "", errors.Wrapf(ErrHomeDirUnavailable, "%v", err)
	}
	return filepath.Join(homeDir, clientcmd.RecommendedHomeDir, clientcmd.RecommendedFileName), nil
}

// Path returns the file the store reads from and writes to
func (s *Store) Path() string {
	return s.path
}

// BackupPath returns the sibling path a backup taken at t is written to
func (s *Store) BackupPath(t time.Time) string {
	return fmt.Sprintf("%s.bak-%d", s.path, t.Unix())
}

// Exists reports whether a file is present at the store path
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Read loads and parses the kubeconfig
func (s *Store) Read() (*Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "%s", s.path)
		}
		return nil, errors.Wrapf(err, "failed to read kubeconfig %s", s.path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", s.path)
	}
	return cfg, nil
}

// Write serializes cfg and replaces the kubeconfig with it.
// With backup set, the current file is first copied to BackupPath(now), or a
// numbered sibling when that name is taken; if the copy fails nothing is
// overwritten.
func (s *Store) Write(cfg *Config, backup bool) error {
	data, err := Marshal(cfg)
	if err != nil {
		return errors.Wrap(ErrWrite, err.Error())
	}

	if backup {
		if err := s.backup(); err != nil {
			return errors.Wrapf(ErrWrite, "backup failed: %v", err)
		}
	}

	if err := s.writeAtomic(data); err != nil {
		return errors.Wrapf(ErrWrite, "%v", err)
	}
	return nil
}

// CreateEmpty writes a minimal kubeconfig, used to recover from a missing or
// broken file
func (s *Store) CreateEmpty(backup bool) error {
	return s.Write(Empty(), backup)
}

// backup copies the existing file next to itself.
// A missing file has nothing to lose and is not an error. An existing
// backup is never replaced; a second backup within the same second gets a
// numbered name instead.
func (s *Store) backup() error {
	src, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close()

	now := s.now()
	var dst *os.File
	for n := 0; n < maxBackupsPerSecond; n++ {
		dst, err = os.OpenFile(s.backupName(now, n), os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
		if err == nil || !os.IsExist(err) {
			break
		}
	}
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// backupName is BackupPath(t) for n == 0 and BackupPath(t) + "-<n>" after
func (s *Store) backupName(t time.Time, n int) string {
	if n == 0 {
		return s.BackupPath(t)
	}
	return fmt.Sprintf("%s-%d", s.BackupPath(t), n)
}

// writeAtomic writes into a temp file in the same directory and renames it
// over the target so readers never observe a half-written kubeconfig
func (s *Store) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
