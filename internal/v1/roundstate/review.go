package roundstate

import (
	"github.com/adeyems/wordround/internal/v1/apierr"
	"github.com/adeyems/wordround/internal/v1/roundtypes"
	"github.com/adeyems/wordround/internal/v1/scoring"
)

func findCompletedRound(state roundtypes.State, roundNumber int) (int, *apierr.Error) {
	for i, r := range state.Game.CompletedRounds {
		if r.RoundNumber == roundNumber {
			return i, nil
		}
	}
	return -1, apierr.NotFound("round not found")
}

// ScoreSubmission implements spec.md §4.1 scoreSubmission.
func ScoreSubmission(state roundtypes.State, hostToken string, roundNumber int, participantID string, marks roundtypes.Marks, now int64) (roundtypes.State, *Event, *apierr.Error) {
	if err := checkHostAuth(state, hostToken); err != nil {
		return state, nil, err
	}
	idx, err := findCompletedRound(state, roundNumber)
	if err != nil {
		return state, nil, err
	}
	if state.Game.CompletedRounds[idx].Published() {
		return state, nil, apierr.Conflict("round has already been published")
	}

	subIdx := -1
	for i, s := range state.Game.CompletedRounds[idx].Submissions {
		if s.ParticipantID == participantID {
			subIdx = i
			break
		}
	}
	if subIdx == -1 {
		return state, nil, apierr.NotFound("submission not found")
	}

	next := state.Clone()
	round := &next.Game.CompletedRounds[idx]
	host := next.Participants[roundtypes.HostParticipantID]

	review := round.Submissions[subIdx].Review
	if review == nil {
		review = &roundtypes.Review{}
	}
	updated := *review
	updated.Marks = marks
	updated.MarkedByID = host.ID
	updated.MarkedByName = host.Name
	updated.MarkedAtMs = now
	round.Submissions[subIdx].Review = &updated

	round.Submissions = scoring.Recompute(next.Game.Config.ScoringMode, round.Submissions)

	return next, &Event{Type: EventSubmissionScored, ParticipantID: participantID, RoundNumber: roundNumber}, nil
}

// PublishRound implements spec.md §4.1 publishRound.
func PublishRound(state roundtypes.State, hostToken string, roundNumber int, now int64) (roundtypes.State, *Event, *apierr.Error) {
	if err := checkHostAuth(state, hostToken); err != nil {
		return state, nil, err
	}
	idx, err := findCompletedRound(state, roundNumber)
	if err != nil {
		return state, nil, err
	}
	round := state.Game.CompletedRounds[idx]
	if round.Published() {
		return state, nil, apierr.Conflict("round has already been published")
	}
	for _, s := range round.Submissions {
		if s.Review == nil {
			return state, nil, apierr.Conflict("every submission must be reviewed before publishing")
		}
	}

	next := state.Clone()
	next.Game.CompletedRounds[idx].ScorePublishedAtMs = now

	return next, &Event{Type: EventRoundScoresPublished, RoundNumber: roundNumber}, nil
}

// DiscardRound implements spec.md §4.1 discardRound. The spec preserves the
// source behaviour of stamping scorePublishedAt even though the round is
// discarded (spec.md §9 open question): it marks the round finalised with a
// zero contribution, not an undo.
func DiscardRound(state roundtypes.State, hostToken string, roundNumber int, now int64) (roundtypes.State, *Event, *apierr.Error) {
	if err := checkHostAuth(state, hostToken); err != nil {
		return state, nil, err
	}
	idx, err := findCompletedRound(state, roundNumber)
	if err != nil {
		return state, nil, err
	}
	if state.Game.CompletedRounds[idx].Published() {
		return state, nil, apierr.Conflict("round has already been published")
	}

	next := state.Clone()
	round := &next.Game.CompletedRounds[idx]
	for i := range round.Submissions {
		round.Submissions[i].Review = nil
	}
	round.ScorePublishedAtMs = now

	return next, &Event{Type: EventRoundScoresDiscarded, RoundNumber: roundNumber}, nil
}
