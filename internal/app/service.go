// Package app provides the participation session service: the state
// machine that carries one participant from name claim through assignment,
// rating and ranking to finalization, plus the host-facing standings view.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	docstore "github.com/denis-tintumapp/pinot/internal/adapters/docstore"
	model "github.com/denis-tintumapp/pinot/internal/domain/model"
	scoring "github.com/denis-tintumapp/pinot/internal/domain/scoring"
	steps "github.com/denis-tintumapp/pinot/internal/domain/steps"
	"github.com/denis-tintumapp/pinot/pkg/logger"
	"github.com/denis-tintumapp/pinot/pkg/metrics"
)

// Rating bounds. 0 is reserved for the explicit "unrated" sentinel written
// at finalize time.
const (
	minRating = 1
	maxRating = 5
)

// Finalize triggers for metrics.
const (
	triggerManual = "manual"
	triggerTimer  = "timer"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithClock sets the clock used for assignment stamps and timers.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithScoringEngine replaces the default scoring engine.
func WithScoringEngine(engine *scoring.Engine) Option {
	return func(s *Service) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithTimerTick sets the countdown re-evaluation interval.
func WithTimerTick(tick time.Duration) Option {
	return func(s *Service) {
		if tick > 0 {
			s.timerTick = tick
		}
	}
}

// Service implements the participation session operations over a document
// store. All mutations are read-patch-write on whole documents:
// last-writer-wins, no version token. Every document is only ever written
// by its owning session, so the races that remain are the benign
// same-session kind the design accepts.
type Service struct {
	store     docstore.Store
	clock     clockwork.Clock
	engine    *scoring.Engine
	logger    logger.Logger
	timerTick time.Duration
	startedAt time.Time
}

// New constructs a Service over the given store.
func New(store docstore.Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		clock:     clockwork.NewRealClock(),
		engine:    scoring.New(),
		timerTick: time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.startedAt = s.clock.Now()
	return s
}

// EventContext is the one-shot snapshot a session loads at start: the
// event record, its labels and cards, and the names currently in use.
// Labels and cards are immutable after setup, so nothing here is live.
type EventContext struct {
	Event      model.EventRecord
	Labels     []model.LabelRecord
	Cards      []model.CardRef
	TakenNames []string
}

// LoadEventContext resolves an event and its play material.
func (s *Service) LoadEventContext(ctx context.Context, eventID string) (*EventContext, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	labels, err := s.eventLabels(ctx, eventID)
	if err != nil {
		return nil, err
	}
	taken, err := s.takenNames(ctx, eventID, "")
	if err != nil {
		return nil, err
	}
	return &EventContext{
		Event:      event,
		Labels:     labels,
		Cards:      event.Cards,
		TakenNames: taken,
	}, nil
}

// ClaimName reserves a participant name for a session and creates the
// participation document. The check is best-effort, not transactional:
// the live registry makes a lost race visible before submission, and the
// storage layer stays last-write-wins.
func (s *Service) ClaimName(ctx context.Context, eventID, sessionID, name string) error {
	name = strings.TrimSpace(name)
	taken, err := s.takenNames(ctx, eventID, sessionID)
	if err != nil {
		return err
	}
	for _, t := range taken {
		if strings.EqualFold(t, name) {
			metrics.RecordNameClaimConflict()
			return fmt.Errorf("%w: %q", ErrNameTaken, name)
		}
	}

	doc, err := s.loadDocument(ctx, eventID, sessionID)
	if err != nil {
		return err
	}
	if doc.Finalized {
		return nil
	}
	doc.ParticipantName = name
	if len(doc.LabelOrder) == 0 {
		labels, err := s.eventLabels(ctx, eventID)
		if err != nil {
			return err
		}
		for _, l := range labels {
			doc.LabelOrder = append(doc.LabelOrder, l.ID)
		}
	}
	return s.saveDocument(ctx, &doc)
}

// AssignCard pairs a card with a label, stamping the assignment with the
// current time. Re-assigning refreshes the stamp.
func (s *Service) AssignCard(ctx context.Context, eventID, sessionID, labelID, cardID string) error {
	doc, err := s.loadDocument(ctx, eventID, sessionID)
	if err != nil {
		return err
	}
	if doc.Finalized {
		return nil
	}
	doc.SetAssignment(labelID, cardID, s.clock.Now())
	return s.saveDocument(ctx, &doc)
}

// UnassignCard removes a label's assignment along with its timestamp and
// rating.
func (s *Service) UnassignCard(ctx context.Context, eventID, sessionID, labelID string) error {
	doc, err := s.loadDocument(ctx, eventID, sessionID)
	if err != nil {
		return err
	}
	if doc.Finalized {
		return nil
	}
	doc.ClearAssignment(labelID)
	return s.saveDocument(ctx, &doc)
}

// Rate records a 1-5 rating for a label.
func (s *Service) Rate(ctx context.Context, eventID, sessionID, labelID string, value int) error {
	if value < minRating || value > maxRating {
		return fmt.Errorf("%w: %d", ErrInvalidRating, value)
	}
	doc, err := s.loadDocument(ctx, eventID, sessionID)
	if err != nil {
		return err
	}
	if doc.Finalized {
		return nil
	}
	doc.SetRating(labelID, value)
	return s.saveDocument(ctx, &doc)
}

// ReorderLabels splices fromLabelID into the position currently occupied
// by toLabelID in the participant's preference order.
func (s *Service) ReorderLabels(ctx context.Context, eventID, sessionID, fromLabelID, toLabelID string) error {
	doc, err := s.loadDocument(ctx, eventID, sessionID)
	if err != nil {
		return err
	}
	if doc.Finalized {
		return nil
	}
	doc.MoveLabel(fromLabelID, toLabelID)
	return s.saveDocument(ctx, &doc)
}

// Finalize closes the document: every label must be assigned, assigned-
// but-unrated labels get the explicit 0 sentinel, the preference order is
// completed, and the finalized flag becomes true. One-way and idempotent.
func (s *Service) Finalize(ctx context.Context, eventID, sessionID string) error {
	return s.finalize(ctx, eventID, sessionID, triggerManual)
}

func (s *Service) finalize(ctx context.Context, eventID, sessionID, trigger string) error {
	doc, err := s.loadDocument(ctx, eventID, sessionID)
	if err != nil {
		return err
	}
	if doc.Finalized {
		return nil
	}
	labels, err := s.eventLabels(ctx, eventID)
	if err != nil {
		return err
	}
	for _, l := range labels {
		if _, ok := doc.Assignments[l.ID]; !ok {
			return fmt.Errorf("%w: label %s", ErrIncompleteAssignments, l.ID)
		}
	}
	for _, labelID := range doc.AssignedAndUnrated(labels) {
		doc.SetRating(labelID, 0)
	}
	// Complete the preference order so every assigned label appears.
	inOrder := map[string]bool{}
	for _, id := range doc.LabelOrder {
		inOrder[id] = true
	}
	for _, l := range labels {
		if !inOrder[l.ID] {
			doc.LabelOrder = append(doc.LabelOrder, l.ID)
		}
	}
	doc.Finalized = true
	if err := s.saveDocument(ctx, &doc); err != nil {
		return err
	}
	metrics.RecordFinalization(trigger)
	s.logger.Info(ctx, "participation finalized",
		logger.String("event", eventID),
		logger.String("session", sessionID),
		logger.String("trigger", trigger),
	)
	return nil
}

// Document returns the session's current participation document, or a
// fresh empty one when the session has not written anything yet.
func (s *Service) Document(ctx context.Context, eventID, sessionID string) (model.ParticipationDocument, error) {
	return s.loadDocument(ctx, eventID, sessionID)
}

// CurrentStep derives the UI step for a session from live data. Pure
// recomputation on every call; nothing is cached.
func (s *Service) CurrentStep(ctx context.Context, eventID, sessionID string) (steps.Step, error) {
	doc, err := s.loadDocument(ctx, eventID, sessionID)
	if err != nil {
		return 0, err
	}
	labels, err := s.eventLabels(ctx, eventID)
	if err != nil {
		return 0, err
	}
	names, err := s.takenNames(ctx, eventID, "")
	if err != nil {
		return 0, err
	}
	return steps.Current(doc, labels, len(names)), nil
}

// Standings scores every finalized non-host document against the host's
// finalized answer key and returns the ranked result.
func (s *Service) Standings(ctx context.Context, eventID string) ([]scoring.Standing, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	var docs []model.ParticipationDocument
	if err := s.store.Query(ctx, docstore.Participations, docstore.Filter{"eventId": eventID}, &docs); err != nil {
		metrics.RecordStoreError("query")
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	var key *model.ParticipationDocument
	finalized := make([]model.ParticipationDocument, 0, len(docs))
	for i := range docs {
		switch {
		case docs[i].IsHost() && docs[i].Finalized:
			key = &docs[i]
		case docs[i].Finalized:
			finalized = append(finalized, docs[i])
		}
	}
	if key == nil {
		return nil, fmt.Errorf("%w: answer key for event %s", ErrNotFound, eventID)
	}

	start := s.clock.Now()
	standings := s.engine.Standings(*key, event.Timer.StartedAt, finalized)
	metrics.RecordScoringRun()
	metrics.RecordScoringLatency(float64(s.clock.Now().Sub(start).Microseconds()) / 1000.0)
	return standings, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	return map[string]any{
		"store":    fmt.Sprintf("%T", s.store),
		"uptime_s": int(s.clock.Now().Sub(s.startedAt).Seconds()),
	}
}

func participationID(eventID, sessionID string) string {
	return eventID + ":" + sessionID
}

func (s *Service) getEvent(ctx context.Context, eventID string) (model.EventRecord, error) {
	var event model.EventRecord
	err := s.store.Get(ctx, docstore.Events, eventID, &event)
	if errors.Is(err, docstore.ErrNotFound) {
		return event, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
	}
	if err != nil {
		metrics.RecordStoreError("get")
		return event, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return event, nil
}

func (s *Service) eventLabels(ctx context.Context, eventID string) ([]model.LabelRecord, error) {
	var labels []model.LabelRecord
	if err := s.store.Query(ctx, docstore.Labels, docstore.Filter{"eventId": eventID}, &labels); err != nil {
		metrics.RecordStoreError("query")
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return labels, nil
}

// takenNames lists the names held by sessions other than excludeSession,
// skipping host sentinel documents and unnamed documents.
func (s *Service) takenNames(ctx context.Context, eventID, excludeSession string) ([]string, error) {
	var docs []model.ParticipationDocument
	if err := s.store.Query(ctx, docstore.Participations, docstore.Filter{"eventId": eventID}, &docs); err != nil {
		metrics.RecordStoreError("query")
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	var names []string
	for i := range docs {
		d := &docs[i]
		if d.SessionID == excludeSession || d.IsHost() || d.ParticipantName == "" {
			continue
		}
		names = append(names, d.ParticipantName)
	}
	return names, nil
}

func (s *Service) loadDocument(ctx context.Context, eventID, sessionID string) (model.ParticipationDocument, error) {
	var doc model.ParticipationDocument
	err := s.store.Get(ctx, docstore.Participations, participationID(eventID, sessionID), &doc)
	if errors.Is(err, docstore.ErrNotFound) {
		return model.NewParticipation(eventID, sessionID), nil
	}
	if err != nil {
		metrics.RecordStoreError("get")
		return doc, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return doc, nil
}

func (s *Service) saveDocument(ctx context.Context, doc *model.ParticipationDocument) error {
	id := participationID(doc.EventID, doc.SessionID)
	if err := s.store.Upsert(ctx, docstore.Participations, id, doc); err != nil {
		metrics.RecordStoreError("upsert")
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	metrics.RecordDocumentWrite(docstore.Participations)
	return nil
}
