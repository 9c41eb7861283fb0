package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// MemoryStore is the default in-process Store. Documents are kept
// bson-encoded so reads always decode a snapshot and never alias caller
// state. Change notifications run synchronously after the write commits,
// outside the store lock, so a callback may freely query the store.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]bson.Raw
	subs        map[string]map[int64]*subscription
	nextSubID   int64
	closed      bool
}

type subscription struct {
	filter Filter
	fn     OnChange
}

// NewMemoryStore creates an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: map[string]map[string]bson.Raw{},
		subs:        map[string]map[int64]*subscription{},
	}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, collection, id string, dest any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	raw, ok := s.collections[collection][id]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	if err := bson.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return nil
}

// Query implements Store. Results are ordered by document id so repeated
// queries over unchanged data are deterministic.
func (s *MemoryStore) Query(ctx context.Context, collection string, filter Filter, dest any) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	ids := make([]string, 0, len(s.collections[collection]))
	for id := range s.collections[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	raws := make([]bson.Raw, 0, len(ids))
	for _, id := range ids {
		raw := s.collections[collection][id]
		if matches(raw, filter) {
			raws = append(raws, raw)
		}
	}
	s.mu.RUnlock()
	return decodeSlice(dest, raws)
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(ctx context.Context, collection, id string, doc any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.collections[collection] == nil {
		s.collections[collection] = map[string]bson.Raw{}
	}
	s.collections[collection][id] = raw

	var notify []OnChange
	for _, sub := range s.subs[collection] {
		if matches(raw, sub.filter) {
			notify = append(notify, sub.fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range notify {
		fn(ctx)
	}
	return nil
}

// Subscribe implements Store.
func (s *MemoryStore) Subscribe(ctx context.Context, collection string, filter Filter, fn OnChange) (CancelFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.subs[collection] == nil {
		s.subs[collection] = map[int64]*subscription{}
	}
	s.nextSubID++
	id := s.nextSubID
	s.subs[collection][id] = &subscription{filter: filter, fn: fn}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[collection], id)
			s.mu.Unlock()
		})
	}
	return cancel, nil
}

// Close rejects all further operations and drops every subscription.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subs = map[string]map[int64]*subscription{}
	return nil
}

// SubscriberCount reports live subscriptions for a collection, for stats.
func (s *MemoryStore) SubscriberCount(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs[collection])
}

// matches checks field equality between a stored document and a filter.
// Values are compared through their string form, which covers the id and
// name fields the game filters on.
func matches(raw bson.Raw, filter Filter) bool {
	if len(filter) == 0 {
		return true
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return false
	}
	for field, want := range filter {
		got, ok := doc[field]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// decodeSlice decodes raws into dest, which must be a pointer to a slice.
func decodeSlice(dest any, raws []bson.Raw) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("query dest must be a pointer to a slice, got %T", dest)
	}
	slice := v.Elem()
	out := reflect.MakeSlice(slice.Type(), 0, len(raws))
	for _, raw := range raws {
		elem := reflect.New(slice.Type().Elem())
		if err := bson.Unmarshal(raw, elem.Interface()); err != nil {
			return fmt.Errorf("decode query result: %w", err)
		}
		out = reflect.Append(out, elem.Elem())
	}
	slice.Set(out)
	return nil
}
