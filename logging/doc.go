// Package logging provides structured logging for ChatMesh built on the
// standard library's log/slog. The Logger interface is the minimal surface
// the rest of the module depends on; ChatMeshLogger adds contextual fields
// and domain helpers for model calls, team runs and state persistence.
package logging
