package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	docstore "github.com/denis-tintumapp/pinot/internal/adapters/docstore"
	model "github.com/denis-tintumapp/pinot/internal/domain/model"
	"github.com/denis-tintumapp/pinot/pkg/logger"
	"github.com/denis-tintumapp/pinot/pkg/metrics"
)

// TimerPhase is the synchronizer's state.
type TimerPhase int

const (
	// TimerIdle: no countdown is running on the event.
	TimerIdle TimerPhase = iota
	// TimerRunning: the host started a countdown with a known deadline.
	TimerRunning
)

// TimerSync mirrors the host-controlled countdown for one session. It
// subscribes to the event record, recomputes remaining time at 1 Hz for
// display, and when the deadline passes while the session's document is
// still open it triggers exactly one finalize. The fired guard makes the
// trigger idempotent against repeated ticks past expiry; finalize itself
// is idempotent too, so the guard is belt over braces.
type TimerSync struct {
	svc       *Service
	eventID   string
	sessionID string
	tick      time.Duration
	logger    logger.Logger

	mu        sync.Mutex
	phase     TimerPhase
	expiresAt time.Time
	fired     bool

	cancelSub docstore.CancelFunc
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewTimer creates a timer synchronizer for a session.
func (s *Service) NewTimer(eventID, sessionID string) *TimerSync {
	return &TimerSync{
		svc:       s,
		eventID:   eventID,
		sessionID: sessionID,
		tick:      s.timerTick,
		logger:    s.logger.Named("timer"),
		stopCh:    make(chan struct{}),
	}
}

// Start reads the current timer state, subscribes to host changes and
// launches the tick loop. Stop must be called when the session's view
// goes away, or the ticker and subscription leak.
func (t *TimerSync) Start(ctx context.Context) error {
	if err := t.refresh(ctx); err != nil {
		return err
	}
	cancel, err := t.svc.store.Subscribe(ctx, docstore.Events,
		docstore.Filter{"_id": t.eventID},
		func(cbCtx context.Context) {
			if err := t.refresh(cbCtx); err != nil {
				t.logger.Warn(cbCtx, "timer refresh failed", logger.Error(err))
			}
		},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	t.cancelSub = cancel
	metrics.SubscriptionOpened()

	go t.loop(ctx)
	return nil
}

// Stop cancels the tick loop and the event subscription.
func (t *TimerSync) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
		if t.cancelSub != nil {
			t.cancelSub()
			metrics.SubscriptionClosed()
		}
	})
}

// Remaining returns the time left on the countdown and whether one is
// running. Zero remaining with true means expired but still running.
func (t *TimerSync) Remaining() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != TimerRunning {
		return 0, false
	}
	remaining := t.expiresAt.Sub(t.svc.clock.Now())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

func (t *TimerSync) loop(ctx context.Context) {
	ticker := t.svc.clock.NewTicker(t.tick)
	defer ticker.Stop()
	for {
		select {
		case <-t.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			t.evaluate(ctx)
		}
	}
}

// refresh applies the event record's timer to the local state. A host
// clearing or restarting the countdown re-arms the fired guard.
func (t *TimerSync) refresh(ctx context.Context) error {
	var event model.EventRecord
	if err := t.svc.store.Get(ctx, docstore.Events, t.eventID, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !event.Timer.Active || event.Timer.ExpiresAt == nil {
		t.phase = TimerIdle
		t.fired = false
		return nil
	}
	expires := *event.Timer.ExpiresAt
	if t.phase != TimerRunning || !t.expiresAt.Equal(expires) {
		t.phase = TimerRunning
		t.expiresAt = expires
		t.fired = false
	}
	return nil
}

func (t *TimerSync) evaluate(ctx context.Context) {
	t.mu.Lock()
	expired := t.phase == TimerRunning && !t.svc.clock.Now().Before(t.expiresAt)
	shouldFire := expired && !t.fired
	if shouldFire {
		t.fired = true
	}
	t.mu.Unlock()

	if !shouldFire {
		return
	}
	metrics.RecordTimerExpiration()
	t.logger.Info(ctx, "countdown expired, finalizing",
		logger.String("event", t.eventID),
		logger.String("session", t.sessionID),
	)
	if err := t.svc.finalize(ctx, t.eventID, t.sessionID, triggerTimer); err != nil {
		t.logger.Error(ctx, "auto-finalize failed", logger.Error(err))
	}
}
