// Package core holds the editing sessions behind the HTTP layer.
//
// A session starts when a CSV or Excel file is uploaded through
// [Service.Open]. It owns the current table and one [editor.Editor]; each
// operation method ([Service.SortData], [Service.ApplyRules], ...) runs the
// editor against the current table under the session lock and replaces the
// table only on success, so a failed operation leaves the session as it was.
//
// # Limits
//
//   - Parsing is bounded by an [UploadLimiter]; callers wait up to
//     Config.UploadWait for a slot.
//   - Open fails with [ErrTooManySessions] once Config.MaxSessions are held.
//   - [Service.StartSweeper] removes sessions idle for longer than
//     Config.IdleTTL.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE006: upload errors (size, format, empty file)
//   - PRM001-PRM002: malformed parameters
//   - OPS001-OPS006: operation errors (missing column, type mismatch, rename)
//   - CHT001: invalid chart request
//   - SES001-SES002: session errors
//   - UPL002-UPL005, RATE001: load shedding and timeouts
//
// # Metrics
//
// [Metrics] keeps Prometheus collectors on a private registry, served by the
// web package at /metrics.
package core
