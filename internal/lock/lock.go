// Package lock serializes report writes between concurrent casecheck runs.
package lock

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrAlreadyLocked is returned when another run holds the report lock.
var ErrAlreadyLocked = errors.New("another casecheck run is writing the report")

// Suffix is appended to a report path to name its lock file.
const Suffix = ".lock"

// Flocker abstracts the subset of flock.Flock used for advisory locking.
type Flocker interface {
	TryLock() (bool, error)
	Unlock() error
}

// Lock wraps a Flocker to provide fail-fast advisory locking.
type Lock struct {
	flocker Flocker
}

// New creates a Lock from the given Flocker.
func New(f Flocker) *Lock {
	return &Lock{flocker: f}
}

// ForReport creates a Lock guarding the report file at path.
func ForReport(path string) *Lock {
	return New(flock.New(path + Suffix))
}

// TryLock attempts a non-blocking lock acquisition. It returns
// ErrAlreadyLocked if the lock is held elsewhere.
func (l *Lock) TryLock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ok, err := l.flocker.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !ok {
		return ErrAlreadyLocked
	}
	return nil
}

// Unlock releases the advisory lock.
func (l *Lock) Unlock() error {
	if err := l.flocker.Unlock(); err != nil {
		return fmt.Errorf("releasing lock: %w", err)
	}
	return nil
}

// Do runs fn while holding the lock. An error from fn takes precedence
// over an error releasing the lock.
func (l *Lock) Do(ctx context.Context, fn func() error) (err error) {
	if err := l.TryLock(ctx); err != nil {
		return err
	}
	defer func() {
		if uerr := l.Unlock(); uerr != nil && err == nil {
			err = uerr
		}
	}()
	return fn()
}
