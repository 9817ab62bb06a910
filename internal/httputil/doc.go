// Package httputil provides HTTP handler utilities for consistent error
// handling, JSON encoding/decoding, multipart parsing, and middleware,
// shared by the registry's API server.
package httputil
