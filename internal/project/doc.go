// Package project resolves the on-disk layout for a single indexed
// project and wires its collaborators (ignore matcher, filter policy,
// change tracker, trie, KV store, indexer) into one handle.
//
// Every project's persisted state lives under a directory named by the
// MD5 hash of its absolute root path, inside a system-temporary root
//: config.json, cache.db, index.db, metadata.db, and
// file_content_cache.json.
package project
