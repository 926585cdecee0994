package roundstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeyems/wordround/internal/v1/apierr"
	"github.com/adeyems/wordround/internal/v1/roundtypes"
)

const testHostToken = "host-token"

func newLobby(t *testing.T, maxParticipants int) roundtypes.State {
	state, err := CreateRoom("Alice", maxParticipants, "ABCDEF", testHostToken, 1000)
	require.Nil(t, err)
	return state
}

func TestCreateRoom_HostIsSoleAdmittedParticipant(t *testing.T) {
	state := newLobby(t, 4)
	assert.Equal(t, roundtypes.GameLobby, state.Game.Status)
	host := state.Participants[roundtypes.HostParticipantID]
	assert.True(t, host.IsHost)
	assert.Equal(t, roundtypes.StatusAdmitted, host.Status)
	assert.Equal(t, "Alice", host.Name)
}

func TestCreateRoom_RejectsInvalidHostName(t *testing.T) {
	_, err := CreateRoom("A", 4, "ABCDEF", testHostToken, 1000)
	require.NotNil(t, err)
	assert.Equal(t, apierr.KindBadRequest, err.Kind)
}

func TestCreateRoom_RejectsInvalidMaxParticipants(t *testing.T) {
	_, err := CreateRoom("Alice", 0, "ABCDEF", testHostToken, 1000)
	require.NotNil(t, err)
}

func TestSubmitJoin_AddsPendingParticipant(t *testing.T) {
	state := newLobby(t, 4)
	next, ev, err := SubmitJoin(state, "Bob", "p1", 1000)
	require.Nil(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, EventJoinRequest, ev.Type)
	assert.Equal(t, roundtypes.StatusPending, next.Participants["p1"].Status)
}

func TestSubmitJoin_RejectsDuplicateName(t *testing.T) {
	state := newLobby(t, 4)
	state, _, err := SubmitJoin(state, "Bob", "p1", 1000)
	require.Nil(t, err)
	_, _, err = SubmitJoin(state, "bob", "p2", 1000)
	require.NotNil(t, err)
}

func TestSubmitJoin_RejectsWhenRoomFull(t *testing.T) {
	state := newLobby(t, 1)
	_, _, err := SubmitJoin(state, "Bob", "p1", 1000)
	require.NotNil(t, err)
}

func TestSubmitJoin_RejectsAfterGameStarted(t *testing.T) {
	state := newLobby(t, 4)
	state, _, _ = SubmitJoin(state, "Bob", "p1", 1000)
	state, _, _ = ReviewJoin(state, testHostToken, "p1", true, 1000)
	state, _, err := StartGame(state, testHostToken, nil, 1000)
	require.Nil(t, err)

	_, _, joinErr := SubmitJoin(state, "Carl", "p2", 2000)
	require.NotNil(t, joinErr)
}

func TestReviewJoin_WrongHostTokenIsUnauthorised(t *testing.T) {
	state := newLobby(t, 4)
	state, _, _ = SubmitJoin(state, "Bob", "p1", 1000)
	_, _, err := ReviewJoin(state, "wrong", "p1", true, 1000)
	require.NotNil(t, err)
	assert.Equal(t, apierr.KindUnauthorised, err.Kind)
}

func TestReviewJoin_ApproveAdmits(t *testing.T) {
	state := newLobby(t, 4)
	state, _, _ = SubmitJoin(state, "Bob", "p1", 1000)
	next, ev, err := ReviewJoin(state, testHostToken, "p1", true, 1000)
	require.Nil(t, err)
	assert.Equal(t, EventAdmissionUpdate, ev.Type)
	assert.Equal(t, roundtypes.StatusAdmitted, next.Participants["p1"].Status)
}

func TestReviewJoin_RejectMarksRejected(t *testing.T) {
	state := newLobby(t, 4)
	state, _, _ = SubmitJoin(state, "Bob", "p1", 1000)
	next, _, err := ReviewJoin(state, testHostToken, "p1", false, 1000)
	require.Nil(t, err)
	assert.Equal(t, roundtypes.StatusRejected, next.Participants["p1"].Status)
}

func TestReviewJoin_AlreadyDecidedIsConflict(t *testing.T) {
	state := newLobby(t, 4)
	state, _, _ = SubmitJoin(state, "Bob", "p1", 1000)
	state, _, _ = ReviewJoin(state, testHostToken, "p1", true, 1000)
	_, _, err := ReviewJoin(state, testHostToken, "p1", true, 1000)
	require.NotNil(t, err)
}

func TestStartGame_RequiresNoPendingRequests(t *testing.T) {
	state := newLobby(t, 4)
	state, _, _ = SubmitJoin(state, "Bob", "p1", 1000)
	_, _, err := StartGame(state, testHostToken, nil, 1000)
	require.NotNil(t, err)
}

func TestStartGame_RequiresAtLeastTwoAdmitted(t *testing.T) {
	state := newLobby(t, 4)
	_, _, err := StartGame(state, testHostToken, nil, 1000)
	require.NotNil(t, err)
}

func TestStartGame_FreezesTurnOrderInJoinOrderAndDropsRejected(t *testing.T) {
	state := newLobby(t, 4)
	state, _, _ = SubmitJoin(state, "Bob", "p1", 1000)
	state, _, _ = SubmitJoin(state, "Carl", "p2", 1000)
	state, _, _ = ReviewJoin(state, testHostToken, "p1", true, 1000)
	state, _, _ = ReviewJoin(state, testHostToken, "p2", false, 1000)

	next, ev, err := StartGame(state, testHostToken, nil, 1000)
	require.Nil(t, err)
	assert.Equal(t, EventGameStarted, ev.Type)
	assert.Equal(t, []string{roundtypes.HostParticipantID, "p1"}, next.Game.TurnOrder)
	_, stillPresent := next.Participants["p2"]
	assert.False(t, stillPresent)
}

func TestStartGame_RejectsInvalidConfigOverride(t *testing.T) {
	state := newLobby(t, 4)
	state, _, _ = SubmitJoin(state, "Bob", "p1", 1000)
	state, _, _ = ReviewJoin(state, testHostToken, "p1", true, 1000)

	bad := roundtypes.DefaultGameConfig()
	bad.RoundSeconds = 1
	_, _, err := StartGame(state, testHostToken, &bad, 1000)
	require.NotNil(t, err)
}

