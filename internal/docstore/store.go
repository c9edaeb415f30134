// Package docstore persists whole JSON documents by name. Every store in the
// service reads its document, changes it in memory and writes it back; there
// are no partial patches.
package docstore

import (
	"context"
	"errors"
	"fmt"
)

// Store loads and saves named JSON documents.
type Store interface {
	// Load decodes the named document into dst. found is false when the
	// document has never been written.
	Load(ctx context.Context, name string, dst any) (found bool, err error)
	// Save replaces the named document with src.
	Save(ctx context.Context, name string, src any) error
}

// ErrStorage matches every StorageError via errors.Is.
var ErrStorage = errors.New("storage failure")

// StorageError reports a failed document read or write. Callers must not
// assume the write happened.
type StorageError struct {
	Op   string
	Name string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("docstore: %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func wrap(op, name string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Name: name, Err: err}
}
