// Package filestore provides an abstraction for file storage operations.
//
// It defines a Disk interface that can be implemented by various storage
// backends (local filesystem, MinIO, S3). Disks are registered under stable
// names in a Registry, and records reference their storage location by that
// name. The interface is designed to be injected into different components
// across project layers.
package filestore

import (
	"context"
	"io"
	"time"
)

// Disk defines the interface for a single named storage backend.
// Implementations must be safe for concurrent use.
type Disk interface {
	// Put writes the object at path, replacing any existing object.
	// The reader is consumed to EOF; size is not known in advance.
	Put(ctx context.Context, path string, reader io.Reader) error

	// GetStream opens the object at path for reading.
	// The caller is responsible for closing the returned stream.
	// Returns CodeObjectNotFound if no object exists at path.
	GetStream(ctx context.Context, path string) (io.ReadCloser, error)

	// GetStat returns metadata about the object at path.
	// Returns CodeObjectNotFound if no object exists at path.
	GetStat(ctx context.Context, path string) (Stat, error)

	// Delete removes the object at path.
	// Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error

	// FlatList returns all stored objects whose path starts with prefix.
	// The listing is finite and produced in a single pass.
	FlatList(ctx context.Context, prefix string) ([]Entry, error)
}

// Stat contains metadata about a stored object.
type Stat struct {
	Size       int64
	ModifiedAt time.Time
}

// Entry identifies a stored object returned by FlatList.
type Entry struct {
	Path string
}
