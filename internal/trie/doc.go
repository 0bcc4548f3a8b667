// Package trie implements the in-memory path trie (C4): a prefix tree over
// slash-separated path segments whose terminal nodes carry a FileRecord.
// It favors ordered by-prefix/extension/glob enumeration over the KV
// store's key-value access pattern.
package trie
