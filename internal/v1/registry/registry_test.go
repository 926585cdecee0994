package registry

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeyems/wordround/internal/v1/apierr"
	"github.com/adeyems/wordround/internal/v1/clockid"
	"github.com/adeyems/wordround/internal/v1/metrics"
	"github.com/adeyems/wordround/internal/v1/persist"
)

// sequenceIDs is a clockid.IDSource test double that hands out room codes
// from a fixed list in order, so collision-retry behaviour is deterministic.
type sequenceIDs struct {
	codes []string
	next  int
}

func (s *sequenceIDs) RoomCode() string {
	c := s.codes[s.next]
	s.next++
	return c
}
func (s *sequenceIDs) ParticipantID() string { return "participant-id" }
func (s *sequenceIDs) HostToken() string     { return "host-token" }

func TestCreateRoom_AssignsUniqueCode(t *testing.T) {
	reg := New(clockid.NewFixedClock(1000), clockid.RandomIDSource{}, 0, nil, nil)
	created, err := reg.CreateRoom("Alice", 4)
	require.Nil(t, err)
	assert.NotEmpty(t, created.RoomCode)
	assert.Equal(t, "Alice", created.HostName)
	assert.NotEmpty(t, created.HostToken)
}

func TestCreateRoom_RetriesOnCodeCollision(t *testing.T) {
	ids := &sequenceIDs{codes: []string{"AAAAAA", "AAAAAA", "BBBBBB"}}
	reg := New(clockid.NewFixedClock(1000), ids, 0, nil, nil)

	first, err := reg.CreateRoom("Alice", 4)
	require.Nil(t, err)
	assert.Equal(t, "AAAAAA", first.RoomCode)

	second, err := reg.CreateRoom("Bob", 4)
	require.Nil(t, err)
	assert.Equal(t, "BBBBBB", second.RoomCode)
}

func TestCreateRoom_PropagatesValidationError(t *testing.T) {
	reg := New(clockid.NewFixedClock(1000), clockid.RandomIDSource{}, 0, nil, nil)
	_, err := reg.CreateRoom("A", 4)
	require.NotNil(t, err)
	assert.Equal(t, apierr.KindBadRequest, err.Kind)
}

func TestCreateRoom_AppendsPersistedLogEntry(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	log, err := persist.NewLog(mr.Addr(), "", nil)
	require.NoError(t, err)
	defer log.Close()

	reg := New(clockid.NewFixedClock(1000), clockid.RandomIDSource{}, 0, log, nil)
	created, createErr := reg.CreateRoom("Alice", 4)
	require.Nil(t, createErr)
	assert.NotEmpty(t, created.RoomCode)

	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rc.Close()
	n, llenErr := rc.LLen(context.Background(), "wordround:rooms:log").Result()
	require.NoError(t, llenErr)
	assert.Equal(t, int64(1), n)
}

func TestCreateRoom_UpdatesRoomsActiveAndParticipantsCountGauges(t *testing.T) {
	reg := New(clockid.NewFixedClock(1000), clockid.RandomIDSource{}, 0, nil, nil)

	created, err := reg.CreateRoom("Alice", 4)
	require.Nil(t, err)

	// rooms_active is set to this registry's room count, not incremented.
	assert.Equal(t, float64(reg.Len()), testutil.ToFloat64(metrics.RoomsActive))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ParticipantsCount.WithLabelValues(created.RoomCode)))
}

func TestNotifyActivity_RefreshesParticipantsCountGaugeAfterAdmission(t *testing.T) {
	reg := New(clockid.NewFixedClock(1000), clockid.RandomIDSource{}, 0, nil, nil)
	created, err := reg.CreateRoom("Alice", 4)
	require.Nil(t, err)

	a, getErr := reg.Get(created.RoomCode)
	require.Nil(t, getErr)
	_, participantID, _, joinErr := a.SubmitJoin("Bob")
	require.Nil(t, joinErr)
	_, reviewErr := a.ReviewJoin(created.HostToken, participantID, true)
	require.Nil(t, reviewErr)

	reg.NotifyActivity(created.RoomCode)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.ParticipantsCount.WithLabelValues(created.RoomCode)))
}

func TestGet_UnknownCodeIsNotFound(t *testing.T) {
	reg := New(clockid.NewFixedClock(1000), clockid.RandomIDSource{}, 0, nil, nil)
	_, err := reg.Get("NOPE00")
	require.NotNil(t, err)
	assert.Equal(t, apierr.KindNotFound, err.Kind)
}

func TestGet_ReturnsCreatedActor(t *testing.T) {
	reg := New(clockid.NewFixedClock(1000), clockid.RandomIDSource{}, 0, nil, nil)
	created, err := reg.CreateRoom("Alice", 4)
	require.Nil(t, err)

	a, err := reg.Get(created.RoomCode)
	require.Nil(t, err)
	assert.Equal(t, created.RoomCode, a.Code())
}

func TestNotifyActivity_SchedulesCleanupOnceTerminalAndNoSubscribers(t *testing.T) {
	reg := New(clockid.NewFixedClock(1000), clockid.RandomIDSource{}, 20*time.Millisecond, nil, nil)
	created, err := reg.CreateRoom("Alice", 4)
	require.Nil(t, err)

	a, err := reg.Get(created.RoomCode)
	require.Nil(t, err)
	_, cancelErr := a.CancelGame(created.HostToken)
	require.Nil(t, cancelErr)

	reg.NotifyActivity(created.RoomCode)
	assert.Equal(t, 1, reg.Len())

	assert.Eventually(t, func() bool {
		return reg.Len() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestNotifyActivity_KeepsRoomAliveWithActiveSubscriber(t *testing.T) {
	reg := New(clockid.NewFixedClock(1000), clockid.RandomIDSource{}, 20*time.Millisecond, nil, nil)
	created, err := reg.CreateRoom("Alice", 4)
	require.Nil(t, err)

	a, err := reg.Get(created.RoomCode)
	require.Nil(t, err)
	sub := a.Subscribe()
	require.NotNil(t, sub)
	defer sub.Unsubscribe()

	_, cancelErr := a.CancelGame(created.HostToken)
	require.Nil(t, cancelErr)

	reg.NotifyActivity(created.RoomCode)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, reg.Len())
}

func TestNotifyActivity_ReclaimsOnceLastSubscriberDisconnects(t *testing.T) {
	reg := New(clockid.NewFixedClock(1000), clockid.RandomIDSource{}, 20*time.Millisecond, nil, nil)
	created, err := reg.CreateRoom("Alice", 4)
	require.Nil(t, err)

	a, err := reg.Get(created.RoomCode)
	require.Nil(t, err)
	sub := a.Subscribe()
	require.NotNil(t, sub)

	_, cancelErr := a.CancelGame(created.HostToken)
	require.Nil(t, cancelErr)

	// Game went terminal while the subscriber was still attached: no
	// cleanup is scheduled yet, mirroring the wsapi path where
	// NotifyActivity runs on each mutation but the subscriber is still
	// connected.
	reg.NotifyActivity(created.RoomCode)
	assert.Equal(t, 1, reg.Len())

	// The last subscriber disconnects (wsapi's readPump deferred cleanup);
	// nothing else will ever mutate this room, so NotifyActivity must be
	// re-run on disconnect for the room to ever be reclaimed.
	sub.Unsubscribe()
	reg.NotifyActivity(created.RoomCode)

	assert.Eventually(t, func() bool {
		return reg.Len() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestNotifyActivity_NonTerminalGameNeverSchedulesCleanup(t *testing.T) {
	reg := New(clockid.NewFixedClock(1000), clockid.RandomIDSource{}, 5*time.Millisecond, nil, nil)
	created, err := reg.CreateRoom("Alice", 4)
	require.Nil(t, err)

	reg.NotifyActivity(created.RoomCode)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, reg.Len())
}
