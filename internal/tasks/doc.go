// Package tasks bulk-imports favorites with real-time progress reporting.
//
// # Import
//
// [Importer.Run] adds each input through an [Adder] (the favorites manager) in
// order, one request at a time. Every input ends up in exactly one bucket:
//   - added: a new record was stored
//   - duplicate: the (external_id, type) pair was already tracked
//   - failed: validation or the request failed; the loop continues
//
// [Importer.RunFile] first decodes a file: a JSON array of favorites, or CSV with
// the header written by formatter.ExportToCSV. A formatter JSON or CSV export can
// therefore be imported back.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # History
//
// When a [RunRecorder] is given (repositories.ImportRunRepository), each run is
// stored with its counts. Recording errors are logged and never fail the import.
package tasks
