package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_MessageIncludesEndpointWhenPresent(t *testing.T) {
	key := EndpointKey{Host: "svc-a", Type: "http", Primary: "p", Secondary: "s", Tertiary: "t"}
	err := NewReferentialConflict("NO_PRODUCER_FOR_INTERFACE", key, nil)

	assert.Contains(t, err.Error(), "ReferentialConflict")
	assert.Contains(t, err.Error(), "svc-a")
}

func TestError_MessageIncludesPathWhenNoEndpoint(t *testing.T) {
	err := NewSchemaViolation("documents[0].producers[0].host", "host is required")

	assert.Contains(t, err.Error(), "documents[0].producers[0].host")
}

func TestError_UnwrapExposesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStoreUnavailable(cause)

	assert.Same(t, cause, errors.Unwrap(err))
}

func TestError_UnwrapNilCauseIsNil(t *testing.T) {
	err := NewMalformedDocument(nil)

	assert.Nil(t, errors.Unwrap(err))
}

func TestNewDuplicateConsumerEntry_SetsCodeAndEndpoint(t *testing.T) {
	key := EndpointKey{Host: "h"}
	a := ConsumerRecord{SubComponent: "s1", EndpointKey: key}
	b := ConsumerRecord{SubComponent: "s1", EndpointKey: key, Optional: true}

	err := NewDuplicateConsumerEntry(a, b)

	assert.Equal(t, KindDuplicateEntry, err.Kind)
	assert.Equal(t, "DUPLICATE_CONSUMER_ENTRY", err.Code)
	assert.Equal(t, &key, err.Endpoint)
}

func TestNewDuplicateProducerEntry_SetsCodeAndEndpoint(t *testing.T) {
	key := EndpointKey{Host: "h"}
	a := ProducerRecord{SubComponent: "s1", EndpointKey: key}
	b := ProducerRecord{SubComponent: "s1", EndpointKey: key, Deprecated: true}

	err := NewDuplicateProducerEntry(a, b)

	assert.Equal(t, KindDuplicateEntry, err.Kind)
	assert.Equal(t, "DUPLICATE_PRODUCER_ENTRY", err.Code)
	assert.Equal(t, &key, err.Endpoint)
}

func TestNewEntryDuplication_WrapsCauseAndEndpoint(t *testing.T) {
	key := EndpointKey{Host: "h"}
	cause := errors.New("unique_violation")

	err := NewEntryDuplication(key, cause)

	assert.Equal(t, KindDuplicateEntry, err.Kind)
	assert.Equal(t, "INTERFACE_ENTRY_DUPLICATION", err.Code)
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestNewReferentialConflict_UnknownCodeGetsGenericMessage(t *testing.T) {
	err := NewReferentialConflict("SOME_OTHER_CODE", EndpointKey{}, nil)

	assert.Equal(t, "referential invariant violated", err.Message)
}

func TestKind_StringCoversEveryValue(t *testing.T) {
	tests := map[Kind]string{
		KindUnknown:             "Unknown",
		KindMalformedDocument:   "MalformedDocument",
		KindSchemaViolation:     "SchemaViolation",
		KindDuplicateEntry:      "DuplicateEntry",
		KindReferentialConflict: "ReferentialConflict",
		KindStoreUnavailable:    "StoreUnavailable",
	}
	for kind, want := range tests {
		assert.Equal(t, want, kind.String())
	}
}
