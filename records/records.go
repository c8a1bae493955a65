// Package records stores and queries the managed CMS rows.
//
// It provides a generic bun-backed repository plus the concrete file and
// field models. Every repository carries a Policy; operations are authorized
// against the target collection before any SQL runs. NewFileStore returns
// the policy-enforcing handle, NewSystemFileStore the bypassing one used for
// internal finalization writes.
package records

import (
	"context"

	"github.com/code19m/errx"
)

// Managed collections.
const (
	CollectionFiles  = "cms_files"
	CollectionFields = "cms_fields"
)

// Action names a repository operation for authorization.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Policy decides whether the ambient actor may perform action on collection.
// Implementations must return an errx error with T_Forbidden when denying.
type Policy interface {
	Authorize(ctx context.Context, action Action, collection string) error
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(ctx context.Context, action Action, collection string) error

func (f PolicyFunc) Authorize(ctx context.Context, action Action, collection string) error {
	return f(ctx, action, collection)
}

// AllowAll permits every action. It backs the system handles and keeps
// policy checks out of tests that do not exercise them.
//
//nolint:gochecknoglobals // stateless policies shared across repositories
var AllowAll Policy = PolicyFunc(func(_ context.Context, _ Action, _ string) error {
	return nil
})

// DenyAll rejects every action with an access denied error.
//
//nolint:gochecknoglobals // stateless policies shared across repositories
var DenyAll Policy = PolicyFunc(func(_ context.Context, action Action, collection string) error {
	return errx.New(
		"access denied",
		errx.WithCode(CodeAccessDenied),
		errx.WithType(errx.T_Forbidden),
		errx.WithDetails(errx.D{"action": string(action), "collection": collection}),
	)
})
