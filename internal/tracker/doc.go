// Package tracker implements the change tracker (C7): a persisted
// path -> (mtime, size, hash) map used to decide, without rehashing
// unchanged files, which paths were added, modified, or deleted since
// the last refresh.
package tracker
