// Package store provides the path-keyed persistence and change-notification
// core. Every value lives as a single serialized blob under a slash-delimited
// path; writes replace the whole value (last-write-wins, no merge) and fan
// out to in-process subscribers through a ChangeBus. Cross-process delivery
// rides the storage backend's native change signal (Postgres LISTEN/NOTIFY).
package store

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrSerialization marks a write whose value could not be encoded.
	// The previous value at the path is left untouched.
	ErrSerialization = errors.New("value cannot be serialized")

	// ErrUnchanged can be returned from an Update callback to abort the
	// read-modify-write without persisting or publishing anything.
	ErrUnchanged = errors.New("no change to persist")
)

// KeyedStore is the durable one-blob-per-path storage contract.
// Get returns the stored raw value and whether the path exists; a missing
// path is not an error. Put replaces the value atomically from the
// perspective of any single reader.
type KeyedStore interface {
	Get(ctx context.Context, path string) (json.RawMessage, bool, error)
	Put(ctx context.Context, path string, value json.RawMessage) error
}

// Snapshot is the unit delivered to readers and subscribers: the raw value
// at a path, or an explicit absent marker.
type Snapshot struct {
	Value  json.RawMessage
	Exists bool
}

// Decode unmarshals the snapshot value into dst. Decoding an absent
// snapshot is an error; callers check Exists first.
func (s Snapshot) Decode(dst any) error {
	if !s.Exists {
		return errors.New("cannot decode absent snapshot")
	}
	return json.Unmarshal(s.Value, dst)
}
