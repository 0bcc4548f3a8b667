// Package content implements the lazy content registry (C6): a
// path-keyed set of deferred file content holders. Content is read on
// first access, chunked for large files, and enforced against a maximum
// loaded-holder count via least-recently-accessed eviction.
package content
