// Package docstoretest provides document stores for tests that need to
// simulate storage outages.
package docstoretest

import (
	"context"
	"errors"
	"sync"

	"lessonhub/internal/docstore"
)

var ErrOutage = errors.New("simulated outage")

// Flaky wraps an in-memory store. Failing documents return a StorageError
// on every load and save until Recover is called.
type Flaky struct {
	inner *docstore.Memory

	mu      sync.Mutex
	failing map[string]bool
	all     bool
}

func NewFlaky() *Flaky {
	return &Flaky{inner: docstore.NewMemory(), failing: make(map[string]bool)}
}

// Fail breaks the named documents, or every document when none are named.
func (f *Flaky) Fail(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(names) == 0 {
		f.all = true
	}
	for _, n := range names {
		f.failing[n] = true
	}
}

func (f *Flaky) Recover() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.all = false
	f.failing = make(map[string]bool)
}

func (f *Flaky) broken(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.all || f.failing[name]
}

func (f *Flaky) Load(ctx context.Context, name string, dst any) (bool, error) {
	if f.broken(name) {
		return false, &docstore.StorageError{Op: "load", Name: name, Err: ErrOutage}
	}
	return f.inner.Load(ctx, name, dst)
}

func (f *Flaky) Save(ctx context.Context, name string, src any) error {
	if f.broken(name) {
		return &docstore.StorageError{Op: "save", Name: name, Err: ErrOutage}
	}
	return f.inner.Save(ctx, name, src)
}
