package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stvgt/interfaces/internal/registry"
)

type mockStore struct {
	called     bool
	component  string
	consumers  []registry.ConsumerRecord
	producers  []registry.ProducerRecord
	returnErr  *registry.Error
}

func (m *mockStore) SetInterface(ctx context.Context, component string, consumers []registry.ConsumerRecord, producers []registry.ProducerRecord) *registry.Error {
	m.called = true
	m.component = component
	m.consumers = consumers
	m.producers = producers
	return m.returnErr
}

func key(host, itype string) registry.EndpointKey {
	return registry.EndpointKey{Host: host, Type: itype, Primary: "p", Secondary: "s", Tertiary: "t"}
}

func TestProtocol_SetInterface_DelegatesOnSuccess(t *testing.T) {
	store := &mockStore{}
	p := New(store)

	consumers := []registry.ConsumerRecord{{Component: "svc-a", SubComponent: "worker", EndpointKey: key("host1", "http")}}
	producers := []registry.ProducerRecord{{Component: "svc-a", SubComponent: "worker", EndpointKey: key("host2", "http")}}

	err := p.SetInterface(context.Background(), "svc-a", consumers, producers)

	require.Nil(t, err)
	assert.True(t, store.called)
	assert.Equal(t, "svc-a", store.component)
	assert.Equal(t, consumers, store.consumers)
	assert.Equal(t, producers, store.producers)
}

func TestProtocol_SetInterface_RejectsDuplicateConsumer(t *testing.T) {
	store := &mockStore{}
	p := New(store)

	dup := key("host1", "http")
	consumers := []registry.ConsumerRecord{
		{Component: "svc-a", SubComponent: "worker", EndpointKey: dup, Optional: false},
		{Component: "svc-a", SubComponent: "worker", EndpointKey: dup, Optional: true},
	}

	err := p.SetInterface(context.Background(), "svc-a", consumers, nil)

	require.NotNil(t, err)
	assert.Equal(t, registry.KindDuplicateEntry, err.Kind)
	assert.Equal(t, "DUPLICATE_CONSUMER_ENTRY", err.Code)
	assert.False(t, store.called, "store must not be reached when preflight rejects the batch")
}

func TestProtocol_SetInterface_RejectsDuplicateProducer(t *testing.T) {
	store := &mockStore{}
	p := New(store)

	dup := key("host1", "http")
	producers := []registry.ProducerRecord{
		{Component: "svc-a", SubComponent: "worker", EndpointKey: dup, Deprecated: false},
		{Component: "svc-a", SubComponent: "worker", EndpointKey: dup, Deprecated: true},
	}

	err := p.SetInterface(context.Background(), "svc-a", nil, producers)

	require.NotNil(t, err)
	assert.Equal(t, registry.KindDuplicateEntry, err.Kind)
	assert.Equal(t, "DUPLICATE_PRODUCER_ENTRY", err.Code)
	assert.False(t, store.called)
}

func TestProtocol_SetInterface_PropagatesStoreError(t *testing.T) {
	storeErr := registry.NewReferentialConflict("NO_PRODUCER_FOR_INTERFACE", key("host1", "http"), nil)
	store := &mockStore{returnErr: storeErr}
	p := New(store)

	err := p.SetInterface(context.Background(), "svc-a", nil, nil)

	require.NotNil(t, err)
	assert.Same(t, storeErr, err)
	assert.True(t, store.called)
}

func TestProtocol_SetInterface_EmptyListsAreNotDuplicates(t *testing.T) {
	store := &mockStore{}
	p := New(store)

	err := p.SetInterface(context.Background(), "svc-a", nil, nil)

	require.Nil(t, err)
	assert.True(t, store.called)
}
