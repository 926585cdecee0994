package actor

import (
	"github.com/adeyems/wordround/internal/v1/roundstate"
	"github.com/adeyems/wordround/internal/v1/snapshot"
)

// envelope is the broadcast message shape spec.md §6.2 describes: every
// event carries the new snapshot plus a handful of event-specific fields
// that are redundant with it but convenient for listeners.
type envelope struct {
	Type           roundstate.EventType        `json:"type"`
	Snapshot       snapshot.Snapshot           `json:"snapshot"`
	Participant    *snapshot.ParticipantView   `json:"participant,omitempty"`
	ParticipantID  string                      `json:"participantId,omitempty"`
	Reason         string                      `json:"reason,omitempty"`
	RoundNumber    int                         `json:"roundNumber,omitempty"`
	CompletedRound *snapshot.CompletedRoundView `json:"completedRound,omitempty"`
}

// broadcastEvent builds the envelope for ev against the actor's current
// state (assumed already updated by the caller) and fans it out. A nil ev
// (a no-op transition, e.g. a late timerExpired) broadcasts nothing.
func (a *Actor) broadcastEvent(ev *roundstate.Event) {
	if ev == nil {
		return
	}

	env := envelope{
		Type:          ev.Type,
		Snapshot:      snapshot.Project(a.state),
		ParticipantID: ev.ParticipantID,
		RoundNumber:   ev.RoundNumber,
	}
	if ev.Participant != nil {
		v := snapshot.ProjectParticipant(*ev.Participant)
		env.Participant = &v
	}
	if ev.Reason != "" {
		env.Reason = string(ev.Reason)
	}
	if ev.CompletedRound != nil {
		v := snapshot.ProjectCompletedRound(*ev.CompletedRound)
		env.CompletedRound = &v
	}

	a.hub.Broadcast(env)
}
