package roundstate

import (
	"github.com/adeyems/wordround/internal/v1/apierr"
	"github.com/adeyems/wordround/internal/v1/roundtypes"
)

// CreateRoom initialises a fresh LOBBY room with the host as the sole
// ADMITTED participant (spec.md §4.1 createRoom). The room code and host
// token are generated by the caller (the registry's id source) and passed
// in so this function stays a pure transition.
func CreateRoom(hostName string, maxParticipants int, code, hostToken string, now int64) (roundtypes.State, *apierr.Error) {
	normName, err := validateHostName(hostName)
	if err != nil {
		return roundtypes.State{}, err
	}
	if err := validateMaxParticipants(maxParticipants); err != nil {
		return roundtypes.State{}, err
	}

	host := roundtypes.Participant{
		ID:          roundtypes.HostParticipantID,
		Name:        normName,
		Status:      roundtypes.StatusAdmitted,
		IsHost:      true,
		CreatedAtMs: now,
		UpdatedAtMs: now,
	}

	state := roundtypes.State{
		Code:            code,
		HostName:        normName,
		MaxParticipants: maxParticipants,
		HostToken:       hostToken,
		CreatedAtMs:     now,
		Participants:    map[string]roundtypes.Participant{roundtypes.HostParticipantID: host},
		JoinOrder:       []string{roundtypes.HostParticipantID},
		Game: roundtypes.Game{
			Status: roundtypes.GameLobby,
			Config: roundtypes.DefaultGameConfig(),
		},
	}
	return state, nil
}

// SubmitJoin implements spec.md §4.1 submitJoin.
func SubmitJoin(state roundtypes.State, name, participantID string, now int64) (roundtypes.State, *Event, *apierr.Error) {
	if state.Game.Status != roundtypes.GameLobby {
		return state, nil, apierr.Gone("room is no longer accepting join requests")
	}

	normName, err := validateParticipantName(name)
	if err != nil {
		return state, nil, err
	}
	if nameTaken(state, normName) {
		return state, nil, apierr.Conflict("name is already taken")
	}

	counts := state.Counts()
	if counts.Admitted+counts.Pending >= state.MaxParticipants {
		return state, nil, apierr.Conflict("room is full")
	}

	next := state.Clone()
	p := roundtypes.Participant{
		ID:          participantID,
		Name:        normName,
		Status:      roundtypes.StatusPending,
		IsHost:      false,
		CreatedAtMs: now,
		UpdatedAtMs: now,
	}
	next.Participants[participantID] = p
	next.JoinOrder = append(next.JoinOrder, participantID)

	return next, &Event{Type: EventJoinRequest, Participant: &p, ParticipantID: participantID}, nil
}

// ReviewJoin implements spec.md §4.1 reviewJoin.
func ReviewJoin(state roundtypes.State, hostToken, participantID string, approve bool, now int64) (roundtypes.State, *Event, *apierr.Error) {
	if err := checkHostAuth(state, hostToken); err != nil {
		return state, nil, err
	}
	if state.Game.Status != roundtypes.GameLobby {
		return state, nil, apierr.Conflict("game already started")
	}
	target, ok := state.Participants[participantID]
	if !ok {
		return state, nil, apierr.NotFound("join request not found")
	}
	if target.Status != roundtypes.StatusPending {
		return state, nil, apierr.Conflict("join request already decided")
	}

	if approve {
		counts := state.Counts()
		if counts.Admitted >= state.MaxParticipants {
			return state, nil, apierr.Conflict("room is full")
		}
		target.Status = roundtypes.StatusAdmitted
	} else {
		target.Status = roundtypes.StatusRejected
	}
	target.UpdatedAtMs = now

	next := state.Clone()
	next.Participants[participantID] = target

	return next, &Event{Type: EventAdmissionUpdate, Participant: &target, ParticipantID: participantID}, nil
}

// StartGame implements spec.md §4.1 startGame.
func StartGame(state roundtypes.State, hostToken string, cfgOverride *roundtypes.GameConfig, now int64) (roundtypes.State, *Event, *apierr.Error) {
	if err := checkHostAuth(state, hostToken); err != nil {
		return state, nil, err
	}
	if state.Game.Status != roundtypes.GameLobby {
		return state, nil, apierr.Conflict("game already started")
	}

	counts := state.Counts()
	if counts.Pending > 0 {
		return state, nil, apierr.Conflict("pending join requests must be resolved before starting")
	}
	if counts.Admitted < 2 {
		return state, nil, apierr.Conflict("at least 2 admitted participants are required to start")
	}

	cfg := roundtypes.DefaultGameConfig()
	if cfgOverride != nil {
		cfg = *cfgOverride
	}
	if err := validateConfig(cfg); err != nil {
		return state, nil, err
	}

	if roundtypes.MaxFairRounds(counts.Admitted) < 1 {
		return state, nil, apierr.Conflict("not enough admitted participants for a fair round")
	}

	next := state.Clone()
	for id, p := range next.Participants {
		if p.Status == roundtypes.StatusRejected {
			delete(next.Participants, id)
		}
	}
	filteredOrder := make([]string, 0, len(next.JoinOrder))
	for _, id := range next.JoinOrder {
		if _, ok := next.Participants[id]; ok {
			filteredOrder = append(filteredOrder, id)
		}
	}
	next.JoinOrder = filteredOrder

	next.Game.TurnOrder = next.AdmittedIDsInJoinOrder()
	next.Game.CurrentTurnIndex = 0
	next.Game.Config = cfg
	next.Game.Status = roundtypes.GameInProgress
	next.Game.StartedAtMs = now

	return next, &Event{Type: EventGameStarted}, nil
}
