package roundstate

import (
	"github.com/adeyems/wordround/internal/v1/apierr"
	"github.com/adeyems/wordround/internal/v1/roundtypes"
	"github.com/adeyems/wordround/internal/v1/scoring"
)

// CancelGame implements spec.md §4.1 cancelGame.
func CancelGame(state roundtypes.State, hostToken string, now int64) (roundtypes.State, *Event, *apierr.Error) {
	if err := checkHostAuth(state, hostToken); err != nil {
		return state, nil, err
	}
	if state.Game.Status != roundtypes.GameLobby && state.Game.Status != roundtypes.GameInProgress {
		return state, nil, apierr.Conflict("game cannot be cancelled from its current status")
	}

	next := state.Clone()
	next.Game.ActiveRound = nil
	next.Game.Status = roundtypes.GameCancelled
	next.Game.CancelledAtMs = now

	return next, &Event{Type: EventGameCancelled}, nil
}

// EndGame implements spec.md §4.1 endGame: any completed-but-unpublished
// round that is fully reviewed is auto-published; a reviewed-but-partial
// round is left unpublished, same as any manual publishRound gate.
func EndGame(state roundtypes.State, hostToken string, now int64) (roundtypes.State, *Event, *apierr.Error) {
	if err := checkHostAuth(state, hostToken); err != nil {
		return state, nil, err
	}
	if state.Game.Status != roundtypes.GameInProgress {
		return state, nil, apierr.Conflict("game is not in progress")
	}

	next := state.Clone()
	for i, round := range next.Game.CompletedRounds {
		if round.Published() {
			continue
		}
		fullyReviewed := true
		for _, s := range round.Submissions {
			if s.Review == nil {
				fullyReviewed = false
				break
			}
		}
		if !fullyReviewed {
			continue
		}
		next.Game.CompletedRounds[i].Submissions = scoring.Recompute(next.Game.Config.ScoringMode, round.Submissions)
		next.Game.CompletedRounds[i].ScorePublishedAtMs = now
	}

	next.Game.ActiveRound = nil
	next.Game.Status = roundtypes.GameFinished
	next.Game.FinishedAtMs = now

	return next, &Event{Type: EventGameEnded}, nil
}
