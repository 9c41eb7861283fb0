// Package session issues and persists per-event participant session ids.
// A session id is the participant's durable identity for one event: a
// reload or dropped connection resumes the same participation document.
package session

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const randomSuffixLen = 8

// KV abstracts the client-local storage the session id lives in. Keys are
// event ids; there are no ambient singletons, callers inject the store.
type KV interface {
	// Get returns the stored id for an event and whether one exists.
	Get(ctx context.Context, eventID string) (string, bool, error)
	// Set persists the id for an event.
	Set(ctx context.Context, eventID, id string) error
}

// MemoryKV is an in-process KV, used by tests and the simulator.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV creates an empty in-memory KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: map[string]string{}}
}

// Get implements KV.
func (m *MemoryKV) Get(ctx context.Context, eventID string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.data[eventID]
	return id, ok, nil
}

// Set implements KV.
func (m *MemoryKV) Set(ctx context.Context, eventID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[eventID] = id
	return nil
}

// Option applies a configuration option to the Provider.
type Option func(*Provider)

// WithClock sets the clock used for the id's time prefix.
func WithClock(clock clockwork.Clock) Option {
	return func(p *Provider) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// Provider hands out a stable session id per event. Ids are generated
// time-prefixed with a random suffix; uniqueness is probabilistic, which
// is accepted because a collision only mixes two participants' cosmetic
// state and never corrupts another document.
type Provider struct {
	kv    KV
	clock clockwork.Clock
}

// NewProvider creates a Provider over the given KV.
func NewProvider(kv KV, opts ...Option) *Provider {
	p := &Provider{
		kv:    kv,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetOrCreate returns the cached session id for an event, generating and
// persisting a fresh one when none exists yet.
func (p *Provider) GetOrCreate(ctx context.Context, eventID string) (string, error) {
	if id, ok, err := p.kv.Get(ctx, eventID); err != nil {
		return "", err
	} else if ok {
		return id, nil
	}
	id := p.generate()
	if err := p.kv.Set(ctx, eventID, id); err != nil {
		return "", err
	}
	return id, nil
}

func (p *Provider) generate() string {
	ts := strconv.FormatInt(p.clock.Now().UnixMilli(), 36)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:randomSuffixLen]
	return ts + "-" + suffix
}
