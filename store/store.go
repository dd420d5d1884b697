// Package store defines the persistence interfaces the form engine
// reads from and writes to: the per-application form-data
// accumulation store and the template cache.  The engine itself
// treats both as opaque collaborators.
//
// Subpackages bolt and sqlite provide durable implementations; Mem
// backs tests and single-process development.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/conditional"
)

// NotFound is returned when an application has no stored form data.
var NotFound = errors.New("not found")

// FormStore holds the accumulated form data for each application,
// keyed by reference number.
type FormStore interface {
	// Get returns the application's form data.  NotFound if the
	// application has none yet.
	Get(ctx context.Context, referenceNumber string) (conditional.FormData, error)

	// Put replaces the application's form data.
	Put(ctx context.Context, referenceNumber string, data conditional.FormData) error

	// Delete removes the application's form data.
	Delete(ctx context.Context, referenceNumber string) error
}

// Mem is an in-memory FormStore.
type Mem struct {
	mu   sync.RWMutex
	data map[string]conditional.FormData
}

// NewMem makes an empty in-memory store.
func NewMem() *Mem {
	return &Mem{data: map[string]conditional.FormData{}}
}

func (s *Mem) Get(ctx context.Context, ref string) (conditional.FormData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, have := s.data[ref]
	if !have {
		return nil, NotFound
	}
	return d.Copy(), nil
}

func (s *Mem) Put(ctx context.Context, ref string, data conditional.FormData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[ref] = data.Copy()
	return nil
}

func (s *Mem) Delete(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, ref)
	return nil
}
