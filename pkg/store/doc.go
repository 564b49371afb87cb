// Package store implements emberdb's key index and append-only log
// engine: the in-memory key to offset map and the engine that
// composes it with pkg/codec and a file-handle collaborator.
package store
