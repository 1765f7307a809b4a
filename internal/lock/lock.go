// Package lock provides a cross-process, non-blocking exclusive lock used to
// keep two sidecar processes from updating the same data directory at once.
//
// The lock is advisory and tied to an open file descriptor: the kernel drops
// it when the holder exits, so an orphaned lock file is harmless.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the lock file created in the data directory.
const FileName = ".sidecar.lock"

// ErrLocked is returned by Acquire when another process holds the lock.
var ErrLocked = errors.New("another sidecar process holds the update lock")

// Lock is a held exclusive lock. Release it when the guarded work is done.
type Lock struct {
	file *os.File
}

// Acquire takes the lock for dir without blocking. It creates dir if needed.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create lock dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}

	if err := tryLock(f); err != nil {
		_ = f.Close()
		if errors.Is(err, ErrLocked) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	return &Lock{file: f}, nil
}

// Release unlocks and closes the lock file. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlock(l.file)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return fmt.Errorf("unlock: %w", unlockErr)
	}
	return closeErr
}
