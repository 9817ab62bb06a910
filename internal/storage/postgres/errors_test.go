package postgres

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stvgt/interfaces/internal/registry"
)

func TestTranslatePostgresError_NilIsNil(t *testing.T) {
	assert.Nil(t, translatePostgresError(nil, registry.EndpointKey{}))
}

func TestTranslatePostgresError_MapsSQLSTATEs(t *testing.T) {
	key := registry.EndpointKey{Host: "h", Type: "http"}

	tests := []struct {
		name     string
		code     string
		wantKind registry.Kind
		wantCode string
	}{
		{"T1 trigger", sqlstateNoProducer, registry.KindReferentialConflict, "NO_PRODUCER_FOR_INTERFACE"},
		{"T2 trigger", sqlstateNoOtherProducer, registry.KindReferentialConflict, "NO_OTHER_PRODUCER_FOR_USED_INTERFACE"},
		{"unique violation", sqlstateUniqueViolation, registry.KindDuplicateEntry, "INTERFACE_ENTRY_DUPLICATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translatePostgresError(&pq.Error{Code: pq.ErrorCode(tt.code), Message: "boom"}, key)

			require.NotNil(t, err)
			assert.Equal(t, tt.wantKind, err.Kind)
			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, &key, err.Endpoint)
		})
	}
}

func TestTranslatePostgresError_RecoversEndpointFromTriggerMessage(t *testing.T) {
	// Simulates a T2 abort inside deleteStaleProducers' bulk DELETE, where
	// the caller has no row-level key and passes the zero value.
	msg := "NO_OTHER_PRODUCER_FOR_USED_INTERFACE: svc-b.internal/http/orders/v1/write"
	err := translatePostgresError(&pq.Error{Code: pq.ErrorCode(sqlstateNoOtherProducer), Message: msg}, registry.EndpointKey{})

	require.NotNil(t, err)
	require.NotNil(t, err.Endpoint)
	assert.Equal(t, registry.EndpointKey{
		Host: "svc-b.internal", Type: "http", Primary: "orders", Secondary: "v1", Tertiary: "write",
	}, *err.Endpoint)
}

func TestTranslatePostgresError_FallsBackWhenMessageUnparseable(t *testing.T) {
	fallback := registry.EndpointKey{Host: "h"}
	err := translatePostgresError(&pq.Error{Code: pq.ErrorCode(sqlstateNoProducer), Message: "boom"}, fallback)

	require.NotNil(t, err)
	assert.Equal(t, &fallback, err.Endpoint)
}

func TestTranslatePostgresError_UnknownSQLSTATEIsStoreUnavailable(t *testing.T) {
	err := translatePostgresError(&pq.Error{Code: "42601", Message: "syntax error"}, registry.EndpointKey{})

	require.NotNil(t, err)
	assert.Equal(t, registry.KindStoreUnavailable, err.Kind)
}

func TestTranslatePostgresError_NonPQErrorIsStoreUnavailable(t *testing.T) {
	err := translatePostgresError(errors.New("connection reset"), registry.EndpointKey{})

	require.NotNil(t, err)
	assert.Equal(t, registry.KindStoreUnavailable, err.Kind)
}
