// Package docstore defines the document-store boundary: a small
// collection/id facade with one-shot reads, whole-document upserts and
// live change subscriptions. It is the only external collaborator of the
// participation core.
package docstore

import "context"

// Collection names used by the game.
const (
	Events         = "events"
	Labels         = "labels"
	Participations = "participations"
)

// Filter matches documents by field equality. A nil or empty filter
// matches every document in the collection.
type Filter map[string]any

// CancelFunc tears down a subscription. Safe to call more than once.
type CancelFunc func()

// OnChange is invoked after a matching document changes. Subscribers are
// expected to re-derive their view with a fresh query rather than trust
// any cached state.
type OnChange func(ctx context.Context)

// Store provides document access. Writes are last-writer-wins at
// whole-document granularity; the store offers no optimistic concurrency.
type Store interface {
	// Get decodes the document with the given id into dest.
	// Returns ErrNotFound when the id does not resolve.
	Get(ctx context.Context, collection, id string, dest any) error

	// Query decodes every document matching filter into dest, which must
	// be a pointer to a slice.
	Query(ctx context.Context, collection string, filter Filter, dest any) error

	// Upsert writes the whole document under id, creating it when absent.
	Upsert(ctx context.Context, collection, id string, doc any) error

	// Subscribe registers fn to run after every change to a matching
	// document. The returned cancel func must be called when the
	// subscriber's view goes away to avoid leaking callbacks.
	Subscribe(ctx context.Context, collection string, filter Filter, fn OnChange) (CancelFunc, error)
}
