// Package sync implements the Component Sync Protocol's preflight
// duplicate-entry checks (spec §4.3) and delegates the atomic transaction
// itself to a Store implementation.
package sync
