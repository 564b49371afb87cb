// Package codec implements the on-disk record format for emberdb's
// append-only log: a fixed 17-byte header followed by a raw key/value
// payload, with no checksum, timestamp, or version field. See
// Record and RecordCodec for the wire layout.
package codec
