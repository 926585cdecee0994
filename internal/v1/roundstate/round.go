package roundstate

import (
	"github.com/adeyems/wordround/internal/v1/apierr"
	"github.com/adeyems/wordround/internal/v1/roundtypes"
)

const countdownMs = 3000

// CallNumber implements spec.md §4.1 callNumber.
func CallNumber(state roundtypes.State, participantID string, number int, now int64) (roundtypes.State, *Event, *apierr.Error) {
	if state.Game.Status != roundtypes.GameInProgress {
		return state, nil, apierr.Conflict("game is not in progress")
	}
	if state.Game.ActiveRound != nil {
		return state, nil, apierr.Conflict("a round is already in progress")
	}
	for _, r := range state.Game.CompletedRounds {
		if !r.Published() {
			return state, nil, apierr.Conflict("a completed round is still pending publication")
		}
	}
	if number < 1 || number > 26 {
		return state, nil, apierr.BadRequest("number must be between 1 and 26")
	}
	if state.UsedCalledNumbers()[number] {
		return state, nil, apierr.Conflict("that number has already been called")
	}
	maxFair := roundtypes.MaxFairRounds(len(state.Game.TurnOrder))
	if len(state.Game.CompletedRounds) >= maxFair {
		return state, nil, apierr.Conflict("maximum fair rounds reached")
	}
	caller := state.CurrentTurnParticipantID()
	if caller == "" || caller != participantID {
		return state, nil, apierr.Forbidden("it is not your turn to call")
	}

	turnName := state.Participants[participantID].Name
	countdownEnds := now + countdownMs
	var endsAt int64
	if state.Game.Config.EndRule != roundtypes.EndRuleFirstSubmission {
		endsAt = countdownEnds + int64(state.Game.Config.RoundSeconds)*1000
	}

	next := state.Clone()
	next.Game.ActiveRound = &roundtypes.ActiveRound{
		RoundNumber:         len(next.Game.CompletedRounds) + 1,
		TurnParticipantID:   participantID,
		TurnParticipantName: turnName,
		CalledNumber:        number,
		ActiveLetter:        roundtypes.ActiveLetter(number),
		StartedAtMs:         now,
		CountdownEndsAtMs:   countdownEnds,
		EndsAtMs:            endsAt,
		Submissions:         nil,
		Drafts:              map[string]roundtypes.Answers{},
	}

	return next, &Event{Type: EventTurnCalled}, nil
}

// UpdateDraft implements spec.md §4.1 updateDraft. It never broadcasts: the
// push surface has no draft event (spec.md §6.2), so the control handler
// only ever sees this succeed or fail.
func UpdateDraft(state roundtypes.State, participantID string, overlay roundtypes.Answers, now int64) (roundtypes.State, *apierr.Error) {
	if !state.IsAdmitted(participantID) {
		return state, apierr.Forbidden("participant is not admitted")
	}
	ar := state.Game.ActiveRound
	if state.Game.Status != roundtypes.GameInProgress || ar == nil {
		return state, apierr.Conflict("no round is open")
	}
	if now < ar.CountdownEndsAtMs {
		return state, apierr.Conflict("round is still in its countdown")
	}
	if ar.HasSubmitted(participantID) {
		return state, apierr.Conflict("participant has already submitted")
	}

	normalized := normalizeAnswers(overlay)
	next := state.Clone()
	existing := next.Game.ActiveRound.Drafts[participantID]
	next.Game.ActiveRound.Drafts[participantID] = existing.MergeOverlay(normalized)

	return next, nil
}

// SubmitAnswers implements spec.md §4.1 submitAnswers.
func SubmitAnswers(state roundtypes.State, participantID string, answers roundtypes.Answers, now int64) (roundtypes.State, *Event, *apierr.Error) {
	if !state.IsAdmitted(participantID) {
		return state, nil, apierr.Forbidden("participant is not admitted")
	}
	ar := state.Game.ActiveRound
	if state.Game.Status != roundtypes.GameInProgress || ar == nil {
		return state, nil, apierr.Conflict("no round is open")
	}
	if now < ar.CountdownEndsAtMs {
		return state, nil, apierr.Conflict("round is still in its countdown")
	}
	if ar.HasSubmitted(participantID) {
		return state, nil, apierr.Conflict("participant has already submitted")
	}

	next := state.Clone()
	round := next.Game.ActiveRound

	draft := round.Drafts[participantID]
	final := draft.MergeOverlay(normalizeAnswers(answers))
	delete(round.Drafts, participantID)

	round.Submissions = append(round.Submissions, roundtypes.Submission{
		ParticipantID:   participantID,
		ParticipantName: next.Participants[participantID].Name,
		Answers:         final,
		SubmittedAtMs:   now,
	})

	endRule := state.Game.Config.EndRule
	if endRule == roundtypes.EndRuleFirstSubmission || endRule == roundtypes.EndRuleWhicheverFirst {
		completed := endActiveRound(&next, roundtypes.EndReasonFirstSubmission, now)
		return next, &Event{
			Type:           EventRoundEnded,
			Reason:         roundtypes.EndReasonFirstSubmission,
			RoundNumber:    completed.RoundNumber,
			CompletedRound: &completed,
		}, nil
	}

	return next, &Event{Type: EventSubmissionReceived, ParticipantID: participantID}, nil
}

// EndRoundEarly implements spec.md §4.1 endRoundEarly.
func EndRoundEarly(state roundtypes.State, participantID string, now int64) (roundtypes.State, *Event, *apierr.Error) {
	if state.Game.Status != roundtypes.GameInProgress || state.Game.ActiveRound == nil {
		return state, nil, apierr.Conflict("no round is open")
	}
	if !state.IsAdmitted(participantID) {
		return state, nil, apierr.Forbidden("participant is not admitted")
	}

	caller := state.Game.ActiveRound.TurnParticipantID
	isHost := participantID == roundtypes.HostParticipantID

	switch state.Game.Config.ManualEndPolicy {
	case roundtypes.ManualEndHostOrCaller:
		if !isHost && participantID != caller {
			return state, nil, apierr.Forbidden("only the host or the caller may end this round")
		}
	case roundtypes.ManualEndCallerOnly, roundtypes.ManualEndCallerOrTimer:
		if participantID != caller {
			return state, nil, apierr.Forbidden("only the caller may end this round")
		}
	default:
		return state, nil, apierr.Forbidden("manual ending is disabled for this game")
	}

	next := state.Clone()
	completed := endActiveRound(&next, roundtypes.EndReasonManualEnd, now)

	return next, &Event{
		Type:           EventRoundEnded,
		Reason:         roundtypes.EndReasonManualEnd,
		RoundNumber:    completed.RoundNumber,
		CompletedRound: &completed,
	}, nil
}

// TimerExpired implements spec.md §4.1 timerExpired. A late-firing callback
// whose round has already moved on is a silent no-op: it returns the
// unchanged state and a nil event, never an error (spec.md §5).
func TimerExpired(state roundtypes.State, now int64) (roundtypes.State, *Event) {
	ar := state.Game.ActiveRound
	if state.Game.Status != roundtypes.GameInProgress || ar == nil || ar.EndsAtMs == 0 || ar.EndsAtMs > now {
		return state, nil
	}

	next := state.Clone()
	completed := endActiveRound(&next, roundtypes.EndReasonTimer, now)

	return next, &Event{
		Type:           EventRoundEnded,
		Reason:         roundtypes.EndReasonTimer,
		RoundNumber:    completed.RoundNumber,
		CompletedRound: &completed,
	}
}

// endActiveRound force-submits every admitted participant who has not yet
// submitted (spec.md GLOSSARY "Forced submission"), appends the active
// round to completedRounds, advances the turn, and clears the deadline by
// clearing ActiveRound. state must already be a clone owned by the caller.
func endActiveRound(state *roundtypes.State, reason roundtypes.EndReason, now int64) roundtypes.CompletedRound {
	round := state.Game.ActiveRound

	for _, id := range state.Game.TurnOrder {
		if round.HasSubmitted(id) {
			continue
		}
		answers := round.Drafts[id]
		round.Submissions = append(round.Submissions, roundtypes.Submission{
			ParticipantID:   id,
			ParticipantName: state.Participants[id].Name,
			Answers:         answers,
			SubmittedAtMs:   now,
		})
	}

	completed := roundtypes.CompletedRound{
		RoundNumber:         round.RoundNumber,
		TurnParticipantID:   round.TurnParticipantID,
		TurnParticipantName: round.TurnParticipantName,
		CalledNumber:        round.CalledNumber,
		ActiveLetter:        round.ActiveLetter,
		StartedAtMs:         round.StartedAtMs,
		CountdownEndsAtMs:   round.CountdownEndsAtMs,
		EndsAtMs:            round.EndsAtMs,
		Submissions:         round.Submissions,
		EndedAtMs:           now,
		EndReason:           reason,
	}

	state.Game.CompletedRounds = append(state.Game.CompletedRounds, completed)
	state.Game.ActiveRound = nil
	if n := len(state.Game.TurnOrder); n > 0 {
		state.Game.CurrentTurnIndex = (state.Game.CurrentTurnIndex + 1) % n
	}

	return completed
}

func normalizeAnswers(a roundtypes.Answers) roundtypes.Answers {
	return roundtypes.Answers{
		Name:   roundtypes.Normalize(a.Name),
		Animal: roundtypes.Normalize(a.Animal),
		Place:  roundtypes.Normalize(a.Place),
		Thing:  roundtypes.Normalize(a.Thing),
		Food:   roundtypes.Normalize(a.Food),
	}
}
