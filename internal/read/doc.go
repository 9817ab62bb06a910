// Package read implements the Read Aggregator: getComponents (spec §4.4).
package read
