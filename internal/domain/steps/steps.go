// Package steps derives a participant's current game step from their
// participation document. It is a pure function with no state of its own:
// callers recompute it on every document emission and never cache the
// result across changes.
package steps

import (
	model "github.com/denis-tintumapp/pinot/internal/domain/model"
)

// Step is one phase of the participant flow.
type Step int

const (
	// StepName: the participant has not claimed a name yet.
	StepName Step = iota + 1
	// StepAssign: name claimed, but some label still lacks a card.
	StepAssign
	// StepRate: every label assigned, some assigned label not yet rated.
	StepRate
	// StepRank: rating done (or skipped), ranking and finalization.
	StepRank
)

// String returns the step name for logs and stats.
func (s Step) String() string {
	switch s {
	case StepName:
		return "name"
	case StepAssign:
		return "assignment"
	case StepRate:
		return "rating"
	case StepRank:
		return "ranking"
	default:
		return "unknown"
	}
}

// Current derives the step to present for a document. The rating step only
// exists when the event has participants to rate against; with none it is
// skipped entirely. A finalized document is always at the ranking step.
func Current(doc model.ParticipationDocument, labels []model.LabelRecord, participantCount int) Step {
	if doc.Finalized {
		return StepRank
	}
	if doc.ParticipantName == "" {
		return StepName
	}
	for _, l := range labels {
		if _, ok := doc.Assignments[l.ID]; !ok {
			return StepAssign
		}
	}
	if participantCount > 0 {
		for _, l := range labels {
			if doc.Ratings[l.ID] <= 0 {
				return StepRate
			}
		}
	}
	return StepRank
}
