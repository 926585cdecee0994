package actor

import (
	"github.com/adeyems/wordround/internal/v1/apierr"
	"github.com/adeyems/wordround/internal/v1/metrics"
	"github.com/adeyems/wordround/internal/v1/roundstate"
	"github.com/adeyems/wordround/internal/v1/roundtypes"
	"github.com/adeyems/wordround/internal/v1/snapshot"
)

// recordRoundEnded observes the round/round_duration_seconds metrics
// (SPEC_FULL.md §6.4) whenever a transition reports EventRoundEnded.
func recordRoundEnded(ev *roundstate.Event) {
	if ev == nil || ev.Type != roundstate.EventRoundEnded || ev.CompletedRound == nil {
		return
	}
	metrics.RoundsPlayedTotal.WithLabelValues(string(ev.Reason)).Inc()
	cr := ev.CompletedRound
	if cr.EndedAtMs > cr.StartedAtMs {
		metrics.RoundDurationSeconds.Observe(float64(cr.EndedAtMs-cr.StartedAtMs) / 1000)
	}
}

type joinResult struct {
	snap          snapshot.Snapshot
	participantID string
	status        roundtypes.ParticipantStatus
	err           *apierr.Error
}

// SubmitJoin implements spec.md §4.1 submitJoin.
func (a *Actor) SubmitJoin(name string) (snapshot.Snapshot, string, roundtypes.ParticipantStatus, *apierr.Error) {
	reply := make(chan joinResult, 1)
	ok := a.enqueue(func(now int64) {
		pid := a.ids.ParticipantID()
		next, ev, err := roundstate.SubmitJoin(a.state, name, pid, now)
		if err != nil {
			reply <- joinResult{err: err}
			return
		}
		a.state = next
		a.broadcastEvent(ev)
		reply <- joinResult{snap: snapshot.Project(a.state), participantID: pid, status: roundtypes.StatusPending}
	})
	if !ok {
		return snapshot.Snapshot{}, "", "", errActorStopped
	}
	r := <-reply
	return r.snap, r.participantID, r.status, r.err
}

type snapResult struct {
	snap snapshot.Snapshot
	err  *apierr.Error
}

func (a *Actor) runMutation(fn func(now int64) (roundtypes.State, *roundstate.Event, *apierr.Error)) (snapshot.Snapshot, *apierr.Error) {
	reply := make(chan snapResult, 1)
	ok := a.enqueue(func(now int64) {
		next, ev, err := fn(now)
		if err != nil {
			reply <- snapResult{err: err}
			return
		}
		a.state = next
		a.broadcastEvent(ev)
		reply <- snapResult{snap: snapshot.Project(a.state)}
	})
	if !ok {
		return snapshot.Snapshot{}, errActorStopped
	}
	r := <-reply
	return r.snap, r.err
}

// ReviewJoin implements spec.md §4.1 reviewJoin.
func (a *Actor) ReviewJoin(hostToken, participantID string, approve bool) (snapshot.Snapshot, *apierr.Error) {
	return a.runMutation(func(now int64) (roundtypes.State, *roundstate.Event, *apierr.Error) {
		return roundstate.ReviewJoin(a.state, hostToken, participantID, approve, now)
	})
}

// StartGame implements spec.md §4.1 startGame.
func (a *Actor) StartGame(hostToken string, cfg *roundtypes.GameConfig) (snapshot.Snapshot, *apierr.Error) {
	return a.runMutation(func(now int64) (roundtypes.State, *roundstate.Event, *apierr.Error) {
		return roundstate.StartGame(a.state, hostToken, cfg, now)
	})
}

// CallNumber implements spec.md §4.1 callNumber and (re)arms the round
// deadline timer when the call succeeds.
func (a *Actor) CallNumber(participantID string, number int) (snapshot.Snapshot, *apierr.Error) {
	reply := make(chan snapResult, 1)
	ok := a.enqueue(func(now int64) {
		next, ev, err := roundstate.CallNumber(a.state, participantID, number, now)
		if err != nil {
			reply <- snapResult{err: err}
			return
		}
		a.state = next
		a.disarmTimer()
		if next.Game.ActiveRound != nil {
			a.armTimer(next.Game.ActiveRound.EndsAtMs, now)
		}
		a.broadcastEvent(ev)
		reply <- snapResult{snap: snapshot.Project(a.state)}
	})
	if !ok {
		return snapshot.Snapshot{}, errActorStopped
	}
	r := <-reply
	return r.snap, r.err
}

// UpdateDraft implements spec.md §4.1 updateDraft. It never broadcasts.
func (a *Actor) UpdateDraft(participantID string, answers roundtypes.Answers) *apierr.Error {
	reply := make(chan *apierr.Error, 1)
	ok := a.enqueue(func(now int64) {
		next, err := roundstate.UpdateDraft(a.state, participantID, answers, now)
		if err != nil {
			reply <- err
			return
		}
		a.state = next
		reply <- nil
	})
	if !ok {
		return errActorStopped
	}
	return <-reply
}

// SubmitAnswers implements spec.md §4.1 submitAnswers, disarming the
// deadline whenever the submission closes the round immediately.
func (a *Actor) SubmitAnswers(participantID string, answers roundtypes.Answers) (snapshot.Snapshot, *apierr.Error) {
	reply := make(chan snapResult, 1)
	ok := a.enqueue(func(now int64) {
		next, ev, err := roundstate.SubmitAnswers(a.state, participantID, answers, now)
		if err != nil {
			reply <- snapResult{err: err}
			return
		}
		a.state = next
		if ev != nil && ev.Type == roundstate.EventRoundEnded {
			a.disarmTimer()
			recordRoundEnded(ev)
		}
		a.broadcastEvent(ev)
		reply <- snapResult{snap: snapshot.Project(a.state)}
	})
	if !ok {
		return snapshot.Snapshot{}, errActorStopped
	}
	r := <-reply
	return r.snap, r.err
}

// EndRoundEarly implements spec.md §4.1 endRoundEarly.
func (a *Actor) EndRoundEarly(participantID string) (snapshot.Snapshot, *apierr.Error) {
	reply := make(chan snapResult, 1)
	ok := a.enqueue(func(now int64) {
		next, ev, err := roundstate.EndRoundEarly(a.state, participantID, now)
		if err != nil {
			reply <- snapResult{err: err}
			return
		}
		a.state = next
		a.disarmTimer()
		recordRoundEnded(ev)
		a.broadcastEvent(ev)
		reply <- snapResult{snap: snapshot.Project(a.state)}
	})
	if !ok {
		return snapshot.Snapshot{}, errActorStopped
	}
	r := <-reply
	return r.snap, r.err
}

// applyTimerExpired is run from within the run loop only, by the closure
// the armed time.AfterFunc callback enqueues. A late fire
// (state already moved on) is a silent no-op, matching spec.md §5.
func (a *Actor) applyTimerExpired(now int64) {
	next, ev := roundstate.TimerExpired(a.state, now)
	if ev == nil {
		return
	}
	a.state = next
	a.disarmTimer()
	recordRoundEnded(ev)
	a.broadcastEvent(ev)
}

// ScoreSubmission implements spec.md §4.1 scoreSubmission.
func (a *Actor) ScoreSubmission(hostToken string, roundNumber int, participantID string, marks roundtypes.Marks) (snapshot.Snapshot, *apierr.Error) {
	return a.runMutation(func(now int64) (roundtypes.State, *roundstate.Event, *apierr.Error) {
		return roundstate.ScoreSubmission(a.state, hostToken, roundNumber, participantID, marks, now)
	})
}

// PublishRound implements spec.md §4.1 publishRound.
func (a *Actor) PublishRound(hostToken string, roundNumber int) (snapshot.Snapshot, *apierr.Error) {
	return a.runMutation(func(now int64) (roundtypes.State, *roundstate.Event, *apierr.Error) {
		return roundstate.PublishRound(a.state, hostToken, roundNumber, now)
	})
}

// DiscardRound implements spec.md §4.1 discardRound.
func (a *Actor) DiscardRound(hostToken string, roundNumber int) (snapshot.Snapshot, *apierr.Error) {
	return a.runMutation(func(now int64) (roundtypes.State, *roundstate.Event, *apierr.Error) {
		return roundstate.DiscardRound(a.state, hostToken, roundNumber, now)
	})
}

// CancelGame implements spec.md §4.1 cancelGame.
func (a *Actor) CancelGame(hostToken string) (snapshot.Snapshot, *apierr.Error) {
	reply := make(chan snapResult, 1)
	ok := a.enqueue(func(now int64) {
		next, ev, err := roundstate.CancelGame(a.state, hostToken, now)
		if err != nil {
			reply <- snapResult{err: err}
			return
		}
		a.state = next
		a.disarmTimer()
		a.broadcastEvent(ev)
		reply <- snapResult{snap: snapshot.Project(a.state)}
	})
	if !ok {
		return snapshot.Snapshot{}, errActorStopped
	}
	r := <-reply
	return r.snap, r.err
}

// EndGame implements spec.md §4.1 endGame.
func (a *Actor) EndGame(hostToken string) (snapshot.Snapshot, *apierr.Error) {
	reply := make(chan snapResult, 1)
	ok := a.enqueue(func(now int64) {
		next, ev, err := roundstate.EndGame(a.state, hostToken, now)
		if err != nil {
			reply <- snapResult{err: err}
			return
		}
		a.state = next
		a.disarmTimer()
		a.broadcastEvent(ev)
		reply <- snapResult{snap: snapshot.Project(a.state)}
	})
	if !ok {
		return snapshot.Snapshot{}, errActorStopped
	}
	r := <-reply
	return r.snap, r.err
}
