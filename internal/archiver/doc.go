// Package archiver periodically exports a full getComponents snapshot to
// S3-compatible object storage as a supplemental feature beyond the core
// spec (spec §12): the registry itself is stateless between requests, so
// snapshots exist purely for disaster recovery, not for correctness.
package archiver
