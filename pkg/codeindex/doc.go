// Package codeindex is the facade a transport layer (RPC, CLI, or an
// in-process caller) drives: one Service per daemon, one opened Project
// per indexed root, wiring internal/project, internal/search, and
// internal/memory behind the operations in the external interface.
package codeindex
