package sync

import (
	"context"

	"github.com/stvgt/interfaces/internal/registry"
)

// Store is implemented by the storage layer that owns the transactional
// replace-and-verify protocol. Defined here, at the point of use, rather
// than in the storage package, so this package never imports a concrete
// storage implementation.
type Store interface {
	SetInterface(ctx context.Context, component string, consumers []registry.ConsumerRecord, producers []registry.ProducerRecord) *registry.Error
}

// Protocol runs the preflight checks required before any database work
// and then delegates to a Store for the transactional replace.
type Protocol struct {
	store Store
}

// New returns a Protocol backed by store.
func New(store Store) *Protocol {
	return &Protocol{store: store}
}

// SetInterface validates that neither list contains a 6-tuple duplicate
// (spec §4.3, flag-independent uniqueness) and, if both pass, delegates
// to the store's transactional SetInterface. The preflight checks run
// before any database work, as required by the spec.
func (p *Protocol) SetInterface(ctx context.Context, component string, consumers []registry.ConsumerRecord, producers []registry.ProducerRecord) *registry.Error {
	if a, b, dup := registry.DuplicateConsumerEntries(consumers); dup {
		return registry.NewDuplicateConsumerEntry(a, b)
	}
	if a, b, dup := registry.DuplicateProducerEntries(producers); dup {
		return registry.NewDuplicateProducerEntry(a, b)
	}

	return p.store.SetInterface(ctx, component, consumers, producers)
}
