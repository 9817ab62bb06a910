package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stvgt/interfaces/internal/observability"
	"github.com/stvgt/interfaces/internal/registry"
)

var tracer = otel.Tracer("interfaces/storage/postgres")

// Store implements the Registry Store and the Component Sync Protocol
// (spec §4.2, §4.3) against PostgreSQL, with an optional read-path cache
// in front of GetComponents.
type Store struct {
	conn   *ConnectionManager
	cache  *Cache // nil disables caching
	logger *observability.Logger
}

// NewStore wraps a connection manager as a Store. cache may be nil.
func NewStore(conn *ConnectionManager, cache *Cache, logger *observability.Logger) *Store {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Store{conn: conn, cache: cache, logger: logger}
}

// SetInterface atomically replaces component's rows with consumers and
// producers, following the fixed six-step transaction order from spec
// §4.3: lock consumers, delete stale consumers, delete stale producers,
// insert new producers, insert new consumers, commit.
func (s *Store) SetInterface(ctx context.Context, component string, consumers []registry.ConsumerRecord, producers []registry.ProducerRecord) *registry.Error {
	ctx, span := tracer.Start(ctx, "SetInterface",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("registry.component", component),
			attribute.Int("registry.consumers", len(consumers)),
			attribute.Int("registry.producers", len(producers)),
		),
	)
	defer span.End()

	tx, err := s.conn.Primary().BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to begin transaction")
		return registry.NewStoreUnavailable(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck // no-op once committed

	// Step 1: EXCLUSIVE lock on consumers serializes concurrent
	// setInterface calls against each other; T2 reads consumers, so this
	// also blocks producer deletions elsewhere for the duration.
	if _, err := tx.ExecContext(ctx, "LOCK TABLE consumers IN EXCLUSIVE MODE"); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to acquire exclusive lock")
		return registry.NewStoreUnavailable(fmt.Errorf("failed to lock consumers: %w", err))
	}

	// Step 2: delete stale consumer rows.
	if regErr := deleteStaleConsumers(ctx, tx, component, consumers); regErr != nil {
		span.RecordError(regErr)
		span.SetStatus(codes.Error, "failed to delete stale consumers")
		return regErr
	}

	// Step 3: delete stale producer rows. T2 may abort this per row.
	if regErr := deleteStaleProducers(ctx, tx, component, producers); regErr != nil {
		span.RecordError(regErr)
		span.SetStatus(codes.Error, "failed to delete stale producers")
		return regErr
	}

	// Step 4: insert new producer rows.
	if regErr := insertNewProducers(ctx, tx, component, producers); regErr != nil {
		span.RecordError(regErr)
		span.SetStatus(codes.Error, "failed to insert producers")
		return regErr
	}

	// Step 5: insert new consumer rows. T1 may abort this per row.
	if regErr := insertNewConsumers(ctx, tx, component, consumers); regErr != nil {
		span.RecordError(regErr)
		span.SetStatus(codes.Error, "failed to insert consumers")
		return regErr
	}

	// Step 6: commit.
	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to commit transaction")
		return registry.NewStoreUnavailable(fmt.Errorf("failed to commit transaction: %w", err))
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	span.SetStatus(codes.Ok, "setInterface committed")
	return nil
}

// deleteStaleConsumers removes component's consumer rows whose 7-tuple +
// optional flag is not present in consumers. When consumers is empty this
// degenerates to deleting every row for component, expressed without an
// empty-IN-list predicate (spec §4.3 edge case).
func deleteStaleConsumers(ctx context.Context, tx *sql.Tx, component string, consumers []registry.ConsumerRecord) *registry.Error {
	if len(consumers) == 0 {
		if _, err := tx.ExecContext(ctx, "DELETE FROM consumers WHERE component = $1", component); err != nil {
			return translatePostgresError(err, registry.EndpointKey{})
		}
		return nil
	}

	query, args := buildStaleDeleteQuery("consumers", component, consumerKeepArgs(consumers))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return translatePostgresError(err, registry.EndpointKey{})
	}
	return nil
}

// deleteStaleProducers is the producer-side equivalent of
// deleteStaleConsumers. T2 fires per deleted row inside the single bulk
// DELETE and may abort the whole statement with a referential-conflict
// error; translatePostgresError recovers the offending row's endpoint key
// from the trigger's error message, since no row-level key is available
// here.
func deleteStaleProducers(ctx context.Context, tx *sql.Tx, component string, producers []registry.ProducerRecord) *registry.Error {
	if len(producers) == 0 {
		if _, err := tx.ExecContext(ctx, "DELETE FROM producers WHERE component = $1", component); err != nil {
			return translatePostgresError(err, registry.EndpointKey{})
		}
		return nil
	}

	query, args := buildStaleDeleteQuery("producers", component, producerKeepArgs(producers))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return translatePostgresError(err, registry.EndpointKey{})
	}
	return nil
}

// buildStaleDeleteQuery builds DELETE FROM <table> WHERE component = $1
// AND (sub_component, host, itype, iprimary, isecondary, itertiary, <flag>)
// NOT IN ( (values...), ... ), one row-value tuple per kept record.
func buildStaleDeleteQuery(table, component string, keepTuples [][]interface{}) (string, []interface{}) {
	args := []interface{}{component}
	query := fmt.Sprintf(
		"DELETE FROM %s WHERE component = $1 AND (sub_component, host, itype, iprimary, isecondary, itertiary, %s) NOT IN (",
		table, flagColumn(table),
	)

	for i, tuple := range keepTuples {
		if i > 0 {
			query += ", "
		}
		query += "("
		for j, v := range tuple {
			args = append(args, v)
			if j > 0 {
				query += ", "
			}
			query += fmt.Sprintf("$%d", len(args))
		}
		query += ")"
	}
	query += ")"
	return query, args
}

func flagColumn(table string) string {
	if table == "consumers" {
		return "optional"
	}
	return "deprecated"
}

func consumerKeepArgs(records []registry.ConsumerRecord) [][]interface{} {
	tuples := make([][]interface{}, len(records))
	for i, r := range records {
		tuples[i] = []interface{}{r.SubComponent, r.Host, r.Type, r.Primary, r.Secondary, r.Tertiary, r.Optional}
	}
	return tuples
}

func producerKeepArgs(records []registry.ProducerRecord) [][]interface{} {
	tuples := make([][]interface{}, len(records))
	for i, r := range records {
		tuples[i] = []interface{}{r.SubComponent, r.Host, r.Type, r.Primary, r.Secondary, r.Tertiary, r.Deprecated}
	}
	return tuples
}

// insertNewProducers inserts every producer row not already present,
// identified by the full 7-tuple + deprecated flag.
func insertNewProducers(ctx context.Context, tx *sql.Tx, component string, producers []registry.ProducerRecord) *registry.Error {
	for _, p := range producers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO producers (component, sub_component, host, itype, iprimary, isecondary, itertiary, deprecated)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (component, sub_component, host, itype, iprimary, isecondary, itertiary, deprecated) DO NOTHING
		`, component, p.SubComponent, p.Host, p.Type, p.Primary, p.Secondary, p.Tertiary, p.Deprecated)
		if err != nil {
			return translatePostgresError(err, p.EndpointKey)
		}
	}
	return nil
}

// insertNewConsumers is the consumer-side equivalent of
// insertNewProducers. T1 fires per inserted row and may abort the insert
// with NO_PRODUCER_FOR_INTERFACE.
func insertNewConsumers(ctx context.Context, tx *sql.Tx, component string, consumers []registry.ConsumerRecord) *registry.Error {
	for _, c := range consumers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO consumers (component, sub_component, host, itype, iprimary, isecondary, itertiary, optional)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (component, sub_component, host, itype, iprimary, isecondary, itertiary, optional) DO NOTHING
		`, component, c.SubComponent, c.Host, c.Type, c.Primary, c.Secondary, c.Tertiary, c.Optional)
		if err != nil {
			return translatePostgresError(err, c.EndpointKey)
		}
	}
	return nil
}

// GetComponents returns the cached component dump if present, otherwise
// queries the database and populates the cache (cache-aside).
func (s *Store) GetComponents(ctx context.Context) ([]registry.Component, *registry.Error) {
	if s.cache != nil {
		if components, ok := s.cache.Get(ctx); ok {
			return components, nil
		}
	}

	components, regErr := s.queryComponents(ctx)
	if regErr != nil {
		return nil, regErr
	}

	if s.cache != nil {
		s.cache.Set(ctx, components)
	}
	return components, nil
}

// queryComponents dumps every row, grouped by component, inside a single
// REPEATABLE READ transaction so both selects observe the same snapshot
// (spec §4.4).
func (s *Store) queryComponents(ctx context.Context) ([]registry.Component, *registry.Error) {
	ctx, span := tracer.Start(ctx, "GetComponents", trace.WithAttributes(attribute.String("db.system", "postgresql")))
	defer span.End()

	tx, err := s.conn.Replica().BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to begin snapshot transaction")
		return nil, registry.NewStoreUnavailable(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck // read-only, always rolled back

	byName := make(map[string]*registry.Component)
	order := make([]string, 0)

	ensure := func(name string) *registry.Component {
		c, ok := byName[name]
		if !ok {
			c = &registry.Component{Name: name}
			byName[name] = c
			order = append(order, name)
		}
		return c
	}

	consumerRows, err := tx.QueryContext(ctx, `
		SELECT component, sub_component, host, itype, iprimary, isecondary, itertiary, optional FROM consumers
	`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query consumers")
		return nil, registry.NewStoreUnavailable(fmt.Errorf("failed to query consumers: %w", err))
	}
	for consumerRows.Next() {
		var r registry.ConsumerRecord
		if err := consumerRows.Scan(&r.Component, &r.SubComponent, &r.Host, &r.Type, &r.Primary, &r.Secondary, &r.Tertiary, &r.Optional); err != nil {
			consumerRows.Close()
			return nil, registry.NewStoreUnavailable(fmt.Errorf("failed to scan consumer row: %w", err))
		}
		c := ensure(r.Component)
		c.Consumers = append(c.Consumers, r)
	}
	if err := consumerRows.Err(); err != nil {
		consumerRows.Close()
		return nil, registry.NewStoreUnavailable(fmt.Errorf("consumer rows iteration error: %w", err))
	}
	consumerRows.Close()

	producerRows, err := tx.QueryContext(ctx, `
		SELECT component, sub_component, host, itype, iprimary, isecondary, itertiary, deprecated FROM producers
	`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query producers")
		return nil, registry.NewStoreUnavailable(fmt.Errorf("failed to query producers: %w", err))
	}
	for producerRows.Next() {
		var r registry.ProducerRecord
		if err := producerRows.Scan(&r.Component, &r.SubComponent, &r.Host, &r.Type, &r.Primary, &r.Secondary, &r.Tertiary, &r.Deprecated); err != nil {
			producerRows.Close()
			return nil, registry.NewStoreUnavailable(fmt.Errorf("failed to scan producer row: %w", err))
		}
		c := ensure(r.Component)
		c.Producers = append(c.Producers, r)
	}
	if err := producerRows.Err(); err != nil {
		producerRows.Close()
		return nil, registry.NewStoreUnavailable(fmt.Errorf("producer rows iteration error: %w", err))
	}
	producerRows.Close()

	if err := tx.Commit(); err != nil {
		return nil, registry.NewStoreUnavailable(fmt.Errorf("failed to commit snapshot transaction: %w", err))
	}

	components := make([]registry.Component, 0, len(order))
	for _, name := range order {
		components = append(components, *byName[name])
	}

	span.SetAttributes(attribute.Int("registry.components", len(components)))
	span.SetStatus(codes.Ok, "getComponents completed")
	return components, nil
}
