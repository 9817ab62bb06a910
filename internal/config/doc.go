// Package config loads the registry's environment-configurable
// parameters (spec §7: store host, port, database name, user, password)
// plus the ambient-stack knobs the teacher carries alongside them
// (server timeouts, cache, archival, OpenTelemetry).
package config
