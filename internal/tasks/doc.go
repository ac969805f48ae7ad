// Package tasks runs bulk catalog operations with real-time progress reporting.
//
// # Import
//
// [Importer.Import] pushes parsed CSV rows through a fixed pool of workers. A shared [rate.Limiter] paces
// dispatch so a bulk load cannot saturate a remote backend. Rows that fail to parse or validate are collected
// in [ImportResult] next to the successes; one bad row never aborts the rest.
//
// # Progress Reporting
//
// Operations accept an optional send-only channel of [ProgressUpdate]. Updates use select with default,
// so a slow or absent consumer never blocks the import.
//
// [rate.Limiter]: https://pkg.go.dev/golang.org/x/time/rate#Limiter
package tasks
