package read

import (
	"context"

	"github.com/stvgt/interfaces/internal/registry"
)

// Store is implemented by the storage layer's read path.
type Store interface {
	GetComponents(ctx context.Context) ([]registry.Component, *registry.Error)
}

// Aggregator wraps a Store's GetComponents for the read side of the API.
type Aggregator struct {
	store Store
}

// New returns an Aggregator backed by store.
func New(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// GetComponents returns every component with its consumer and producer
// rows, as a consistent snapshot per spec §4.4.
func (a *Aggregator) GetComponents(ctx context.Context) ([]registry.Component, *registry.Error) {
	return a.store.GetComponents(ctx)
}
