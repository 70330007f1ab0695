// Package timeouts defines shared timeout constants used across the bridge.
// Command budgets scale with the amount of model data an operation touches,
// so there is one class per workload rather than a single global value.
package timeouts

import "time"

// Query bounds lightweight reads such as status or element lookups.
const Query = 5 * time.Second

// Mutation bounds typical element creation and transform commands.
const Mutation = 10 * time.Second

// Analysis bounds whole-model scans such as room exports.
const Analysis = 120 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
