// Package events defines the mutation notifications emitted by the content
// services and the publishers that carry them.
//
// File events are emitted best-effort after the mutation committed; field
// events ride the transactional outbox so schema changes and their
// notifications stay in lockstep.
package events

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Destination topics.
const (
	TopicFiles  = "cms.files"
	TopicFields = "cms.fields"
)

// File event actions.
const (
	FileUploaded = "file.upload"
	FileReplaced = "file.replace"
	FileDeleted  = "file.delete"
)

// Field event actions.
const (
	FieldCreated = "field.create"
	FieldUpdated = "field.update"
	FieldDeleted = "field.delete"
)

// FileEvent describes a mutation of the files collection.
type FileEvent struct {
	Action     string    `json:"action"`
	ID         string    `json:"id,omitempty"`
	IDs        []string  `json:"ids,omitempty"`
	Storage    string    `json:"storage,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Key returns the partitioning key for the event.
func (e FileEvent) Key() string {
	if e.ID != "" {
		return e.ID
	}
	if len(e.IDs) > 0 {
		return e.IDs[0]
	}
	return ""
}

// FieldEvent describes a schema change on a collection.
type FieldEvent struct {
	Action     string    `json:"action"`
	Collection string    `json:"collection"`
	Field      string    `json:"field"`
	Type       string    `json:"type,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Key returns the partitioning key for the event.
func (e FieldEvent) Key() string {
	return e.Collection + "." + e.Field
}

// Publisher delivers mutation events. Implementations decide the transport
// and the delivery guarantee.
type Publisher interface {
	PublishFileEvent(ctx context.Context, event FileEvent) error
	PublishFieldEvent(ctx context.Context, event FieldEvent) error
}

// TxPublisher stages field events inside the caller's transaction, so the
// event is delivered exactly when the schema change commits.
type TxPublisher interface {
	PublishFieldEventTx(ctx context.Context, idb bun.IDB, event FieldEvent) error
}
