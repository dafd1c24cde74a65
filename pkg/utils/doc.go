// Package utils provides the concurrency and recovery helpers shared by the
// graphconf evaluators and the HTTP server.
//
//   - Bounded fan-out with ordered results (concurrent.go)
//   - Panic recovery for goroutines (recovery.go)
//   - Environment-driven limits (helpers.go)
package utils
