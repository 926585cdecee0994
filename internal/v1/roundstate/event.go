// Package roundstate holds the pure transitions of spec.md §4.1/§4.2: a set
// of functions mapping (state, command, now) to (state', event) or a tagged
// failure. None of these functions perform I/O, read the clock, or generate
// random identifiers themselves — every needed value is a parameter, so the
// room actor is the only caller that ever touches a real clock or id source.
package roundstate

import "github.com/adeyems/wordround/internal/v1/roundtypes"

// EventType is the discriminant spec.md §6.2 lists for the push surface.
type EventType string

const (
	EventJoinRequest          EventType = "join_request"
	EventAdmissionUpdate      EventType = "admission_update"
	EventGameStarted          EventType = "game_started"
	EventTurnCalled           EventType = "turn_called"
	EventSubmissionReceived   EventType = "submission_received"
	EventRoundEnded           EventType = "round_ended"
	EventSubmissionScored     EventType = "submission_scored"
	EventRoundScoresPublished EventType = "round_scores_published"
	EventRoundScoresDiscarded EventType = "round_scores_discarded"
	EventGameCancelled        EventType = "game_cancelled"
	EventGameEnded            EventType = "game_ended"
)

// Event is the transition's side-channel output. Its fields are the
// "listener convenience" fields spec.md §4.5 calls redundant with the
// snapshot; the actor attaches the snapshot itself before broadcasting, so
// this package never needs to import the projector.
type Event struct {
	Type            EventType
	Participant     *roundtypes.Participant
	ParticipantID   string
	Reason          roundtypes.EndReason
	RoundNumber     int
	CompletedRound  *roundtypes.CompletedRound
}
