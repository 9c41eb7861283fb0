// Package model contains domain models passed between layers.
package model

import "time"

// HostName is the sentinel participant name used by the host's own
// document. Host documents are excluded from rosters and standings and
// serve as the scoring answer key.
const HostName = "HOST"

// CardRef identifies one card of the event's deck.
type CardRef struct {
	ID   string `bson:"cardId" json:"cardId"`
	Name string `bson:"cardName" json:"cardName"`
}

// TimerState mirrors the host-controlled countdown on the event record.
type TimerState struct {
	Active    bool       `bson:"active" json:"active"`
	StartedAt *time.Time `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	ExpiresAt *time.Time `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
}

// EventRecord is the shared event document: created by the host's setup
// flow, mutated only by the host, read continuously by every session.
type EventRecord struct {
	ID               string     `bson:"_id" json:"id"`
	Name             string     `bson:"name" json:"name"`
	PIN              string     `bson:"pin" json:"pin"`
	HostID           string     `bson:"hostId" json:"hostId"`
	IsActive         bool       `bson:"isActive" json:"isActive"`
	Cards            []CardRef  `bson:"cards" json:"cards"`
	ParticipantNames []string   `bson:"participantNames" json:"participantNames"`
	Timer            TimerState `bson:"timer" json:"timer"`
	ResultsRevealed  bool       `bson:"resultsRevealed" json:"resultsRevealed"`
}

// LabelRecord is one named slot a participant pairs with exactly one card.
// Immutable during play.
type LabelRecord struct {
	ID      string `bson:"_id" json:"id"`
	EventID string `bson:"eventId" json:"eventId"`
	Name    string `bson:"name" json:"name"`
}

// ParticipationDocument is the single per-(event, session) record holding
// a participant's assignments, ratings, preference order and completion
// flag. It is mutated only by its owning session; the host reads all of
// them for live monitoring and scoring.
//
// Rating semantics: a label absent from Ratings was never rated; a 0 is
// written explicitly at finalize time for assigned-but-unrated labels.
type ParticipationDocument struct {
	SessionID       string               `bson:"sessionId" json:"sessionId"`
	EventID         string               `bson:"eventId" json:"eventId"`
	ParticipantName string               `bson:"participantName" json:"participantName"`
	Assignments     map[string]string    `bson:"assignments" json:"assignments"`
	AssignmentTimes map[string]time.Time `bson:"assignmentTimes" json:"assignmentTimes"`
	Ratings         map[string]int       `bson:"ratings" json:"ratings"`
	LabelOrder      []string             `bson:"labelOrder" json:"labelOrder"`
	Finalized       bool                 `bson:"finalized" json:"finalized"`
}

// NewParticipation creates an empty document for a session.
func NewParticipation(eventID, sessionID string) ParticipationDocument {
	return ParticipationDocument{
		SessionID:       sessionID,
		EventID:         eventID,
		Assignments:     map[string]string{},
		AssignmentTimes: map[string]time.Time{},
		Ratings:         map[string]int{},
	}
}

// IsHost reports whether this is the host's answer-key document.
func (d *ParticipationDocument) IsHost() bool {
	return d.ParticipantName == HostName
}

// SetAssignment pairs a card with a label and stamps the assignment time.
// Re-assigning the same label refreshes the timestamp: the stamp reflects
// the most recent choice, not the first.
func (d *ParticipationDocument) SetAssignment(labelID, cardID string, at time.Time) {
	if d.Assignments == nil {
		d.Assignments = map[string]string{}
	}
	if d.AssignmentTimes == nil {
		d.AssignmentTimes = map[string]time.Time{}
	}
	d.Assignments[labelID] = cardID
	d.AssignmentTimes[labelID] = at
}

// ClearAssignment removes a label's assignment together with its timestamp
// and rating. A rating is meaningless once the card under it changes.
func (d *ParticipationDocument) ClearAssignment(labelID string) {
	delete(d.Assignments, labelID)
	delete(d.AssignmentTimes, labelID)
	delete(d.Ratings, labelID)
}

// SetRating records a rating for a label. Range validation is the
// caller's responsibility; 0 is reserved for the finalize sentinel.
func (d *ParticipationDocument) SetRating(labelID string, value int) {
	if d.Ratings == nil {
		d.Ratings = map[string]int{}
	}
	d.Ratings[labelID] = value
}

// MoveLabel removes fromID from LabelOrder and reinserts it at the
// position currently occupied by toID (list splice, not a swap). A no-op
// when either id is absent from the order.
func (d *ParticipationDocument) MoveLabel(fromID, toID string) {
	if fromID == toID {
		return
	}
	// Both indexes are taken on the original order: the moved label must
	// land exactly where the target sits now, in either direction.
	from := indexOf(d.LabelOrder, fromID)
	to := indexOf(d.LabelOrder, toID)
	if from < 0 || to < 0 {
		return
	}
	order := append([]string{}, d.LabelOrder[:from]...)
	order = append(order, d.LabelOrder[from+1:]...)
	order = append(order[:to], append([]string{fromID}, order[to:]...)...)
	d.LabelOrder = order
}

// AssignedAndUnrated lists the labels that carry an assignment but no
// rating entry at all, in the given label order.
func (d *ParticipationDocument) AssignedAndUnrated(labels []LabelRecord) []string {
	var out []string
	for _, l := range labels {
		if _, assigned := d.Assignments[l.ID]; !assigned {
			continue
		}
		if _, rated := d.Ratings[l.ID]; !rated {
			out = append(out, l.ID)
		}
	}
	return out
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
