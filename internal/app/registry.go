package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	docstore "github.com/denis-tintumapp/pinot/internal/adapters/docstore"
	model "github.com/denis-tintumapp/pinot/internal/domain/model"
	"github.com/denis-tintumapp/pinot/pkg/logger"
	"github.com/denis-tintumapp/pinot/pkg/metrics"
)

// Registry is the live name reservation view for one session: the set of
// case-normalized names currently claimed by other sessions of the event.
// It re-derives the whole set from a fresh query on every change
// notification, so it never serves a stale cache. It exists to make a
// claim race visible before submission, not to prevent it: claiming stays
// last-write-wins at the storage layer.
type Registry struct {
	store         docstore.Store
	eventID       string
	selfSessionID string
	logger        logger.Logger

	mu     sync.RWMutex
	taken  map[string]struct{}
	cancel docstore.CancelFunc
}

// NewRegistry creates a registry for a session's view of an event.
func (s *Service) NewRegistry(eventID, selfSessionID string) *Registry {
	return &Registry{
		store:         s.store,
		eventID:       eventID,
		selfSessionID: selfSessionID,
		logger:        s.logger.Named("registry"),
		taken:         map[string]struct{}{},
	}
}

// Start populates the set and subscribes to participation changes for the
// event. Stop must be called when the session's view goes away.
func (r *Registry) Start(ctx context.Context) error {
	if err := r.refresh(ctx); err != nil {
		return err
	}
	cancel, err := r.store.Subscribe(ctx, docstore.Participations,
		docstore.Filter{"eventId": r.eventID},
		func(cbCtx context.Context) {
			if err := r.refresh(cbCtx); err != nil {
				r.logger.Warn(cbCtx, "name registry refresh failed", logger.Error(err))
			}
		},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	r.cancel = cancel
	metrics.SubscriptionOpened()
	return nil
}

// Stop tears down the live subscription.
func (r *Registry) Stop() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
		metrics.SubscriptionClosed()
	}
}

// Available reports whether a name can be claimed: it must be on the
// event's configured roster and not currently held by another session.
func (r *Registry) Available(name string, roster []string) bool {
	normalized := normalizeName(name)
	onRoster := false
	for _, candidate := range roster {
		if normalizeName(candidate) == normalized {
			onRoster = true
			break
		}
	}
	if !onRoster {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, held := r.taken[normalized]
	return !held
}

// Taken returns the names currently held by other sessions, sorted.
func (r *Registry) Taken() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.taken))
	for name := range r.taken {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) refresh(ctx context.Context) error {
	var docs []model.ParticipationDocument
	if err := r.store.Query(ctx, docstore.Participations, docstore.Filter{"eventId": r.eventID}, &docs); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	taken := map[string]struct{}{}
	for i := range docs {
		d := &docs[i]
		if d.SessionID == r.selfSessionID || d.IsHost() || d.ParticipantName == "" {
			continue
		}
		taken[normalizeName(d.ParticipantName)] = struct{}{}
	}
	r.mu.Lock()
	r.taken = taken
	r.mu.Unlock()
	return nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
