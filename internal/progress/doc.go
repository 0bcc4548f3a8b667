// Package progress implements the operation registry (C12): every
// long-running operation (refresh, search) is tracked with staged progress,
// a cooperative cancel flag, and typed events fanned out to registered
// handlers (log, file, callback).
package progress
