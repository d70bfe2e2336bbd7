// Package server exposes a small HTTP status API over Fiber: store
// availability (the probe) and declared-bucket state. It carries the
// request-id and API-key middleware; object contents are never served
// here.
package server
