// Package scoring computes standings from finalized participation
// documents against the host's answer key.
package scoring

import (
	"sort"
	"time"

	model "github.com/denis-tintumapp/pinot/internal/domain/model"
)

// Default scoring configuration constants.
const (
	defaultCorrectPoints   = 100
	defaultFastBonusPoints = 25
	defaultSlowBonusPoints = 10
	defaultFastWindow      = 15 * time.Minute
	defaultSlowWindow      = 25 * time.Minute
	podiumMaxRank          = 3
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithCorrectPoints sets the points awarded for a correct assignment.
func WithCorrectPoints(points int) Option {
	return func(e *Engine) {
		if points > 0 {
			e.correctPoints = points
		}
	}
}

// WithBonusPoints sets the fast and slow time-bonus values.
func WithBonusPoints(fast, slow int) Option {
	return func(e *Engine) {
		if fast >= 0 && slow >= 0 {
			e.fastBonusPoints = fast
			e.slowBonusPoints = slow
		}
	}
}

// WithBonusWindows sets the elapsed-time windows for the bonuses.
func WithBonusWindows(fast, slow time.Duration) Option {
	return func(e *Engine) {
		if fast > 0 && slow > fast {
			e.fastWindow = fast
			e.slowWindow = slow
		}
	}
}

// Standing is one participant's computed result. Derived, never persisted.
type Standing struct {
	ParticipantName string          `json:"participantName"`
	TotalPoints     int             `json:"totalPoints"`
	PerLabelCorrect map[string]bool `json:"perLabelCorrect"`
	Rank            int             `json:"rank"`
	Tied            bool            `json:"tied"`
}

// Engine scores finalized documents against an answer key.
type Engine struct {
	correctPoints   int
	fastBonusPoints int
	slowBonusPoints int
	fastWindow      time.Duration
	slowWindow      time.Duration
}

// New creates a scoring engine with configuration options.
func New(opts ...Option) *Engine {
	e := &Engine{
		correctPoints:   defaultCorrectPoints,
		fastBonusPoints: defaultFastBonusPoints,
		slowBonusPoints: defaultSlowBonusPoints,
		fastWindow:      defaultFastWindow,
		slowWindow:      defaultSlowWindow,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Standings scores every document against the answer key and returns them
// ranked. The answer key is the host's finalized document; startedAt is
// the timer start (nil when the host never started the timer, which
// disables time bonuses). Deterministic for fixed inputs: ordering is
// total desc, then participant name asc inside a tied group.
//
// Competition ranking: tied participants share a rank number and the next
// distinct total gets rank = number of participants ranked above it + 1.
func (e *Engine) Standings(key model.ParticipationDocument, startedAt *time.Time, docs []model.ParticipationDocument) []Standing {
	standings := make([]Standing, 0, len(docs))
	for i := range docs {
		standings = append(standings, e.scoreOne(key, startedAt, &docs[i]))
	}

	sort.Slice(standings, func(i, j int) bool {
		if standings[i].TotalPoints != standings[j].TotalPoints {
			return standings[i].TotalPoints > standings[j].TotalPoints
		}
		return standings[i].ParticipantName < standings[j].ParticipantName
	})

	for i := range standings {
		if i > 0 && standings[i].TotalPoints == standings[i-1].TotalPoints {
			standings[i].Rank = standings[i-1].Rank
			standings[i].Tied = true
			standings[i-1].Tied = true
		} else {
			standings[i].Rank = i + 1
		}
	}
	return standings
}

// Podium splits ranked standings into the podium (ranks 1-3, inclusive of
// ties spanning the boundary) and the rest.
func Podium(standings []Standing) (podium, rest []Standing) {
	for _, s := range standings {
		if s.Rank <= podiumMaxRank {
			podium = append(podium, s)
		} else {
			rest = append(rest, s)
		}
	}
	return podium, rest
}

// scoreOne computes a single participant's total. Per label with an
// assignment: exact card match earns the correctness points, and a correct
// assignment additionally earns a time bonus when both the timer start and
// that label's own assignment stamp are known. The bonus uses the elapsed
// time of the specific assignment, not the finalize time, so only
// genuinely fast choices are rewarded.
func (e *Engine) scoreOne(key model.ParticipationDocument, startedAt *time.Time, doc *model.ParticipationDocument) Standing {
	s := Standing{
		ParticipantName: doc.ParticipantName,
		PerLabelCorrect: map[string]bool{},
	}
	for labelID, cardID := range doc.Assignments {
		want, ok := key.Assignments[labelID]
		correct := ok && cardID == want
		s.PerLabelCorrect[labelID] = correct
		if !correct {
			continue
		}
		s.TotalPoints += e.correctPoints
		if startedAt == nil {
			continue
		}
		at, stamped := doc.AssignmentTimes[labelID]
		if !stamped {
			continue
		}
		elapsed := at.Sub(*startedAt)
		switch {
		case elapsed <= e.fastWindow:
			s.TotalPoints += e.fastBonusPoints
		case elapsed <= e.slowWindow:
			s.TotalPoints += e.slowBonusPoints
		}
	}
	return s
}
