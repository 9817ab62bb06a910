package postgres

import (
	"errors"
	"strings"

	"github.com/lib/pq"

	"github.com/stvgt/interfaces/internal/registry"
)

// Custom SQLSTATE codes raised by the T1/T2 trigger functions in schema.go.
const (
	sqlstateNoProducer      = "IR001" // T1: NO_PRODUCER_FOR_INTERFACE
	sqlstateNoOtherProducer = "IR002" // T2: NO_OTHER_PRODUCER_FOR_USED_INTERFACE
	sqlstateUniqueViolation = "23505"
)

// translatePostgresError maps a driver error raised while inserting or
// deleting a row for key into the registry's typed error taxonomy. When the
// trigger fires inside a bulk statement (deleteStaleConsumers/
// deleteStaleProducers), the caller has no row-level identity to pass as
// key; in that case the offending key is recovered from the RAISE
// EXCEPTION message text (schema.go embeds it as "CODE: host/type/primary/
// secondary/tertiary"), falling back to key only if parsing fails. Errors
// that don't match a known SQLSTATE are wrapped as StoreUnavailable, since
// from the protocol's perspective an unrecognized database failure is an
// availability problem, not a referential one.
func translatePostgresError(err error, key registry.EndpointKey) *registry.Error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case sqlstateNoProducer:
			return registry.NewReferentialConflict("NO_PRODUCER_FOR_INTERFACE", endpointFromMessage(pqErr.Message, key), err)
		case sqlstateNoOtherProducer:
			return registry.NewReferentialConflict("NO_OTHER_PRODUCER_FOR_USED_INTERFACE", endpointFromMessage(pqErr.Message, key), err)
		case sqlstateUniqueViolation:
			return registry.NewEntryDuplication(key, err)
		}
	}

	return registry.NewStoreUnavailable(err)
}

// endpointFromMessage parses the "CODE: host/type/primary/secondary/
// tertiary" text raised by check_producer_exists/check_producer_withdrawal_safe
// (schema.go) back into an EndpointKey. Returns fallback unchanged if the
// message doesn't match the expected shape.
func endpointFromMessage(msg string, fallback registry.EndpointKey) registry.EndpointKey {
	_, tuple, ok := strings.Cut(msg, ": ")
	if !ok {
		return fallback
	}

	parts := strings.Split(tuple, "/")
	if len(parts) != 5 {
		return fallback
	}

	return registry.EndpointKey{
		Host:      parts[0],
		Type:      parts[1],
		Primary:   parts[2],
		Secondary: parts[3],
		Tertiary:  parts[4],
	}
}
