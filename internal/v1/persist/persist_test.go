package persist

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T) (*Log, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	l, err := NewLog(mr.Addr(), "", nil)
	require.NoError(t, err)

	return l, mr
}

func TestNewLog_PingsOnConstruction(t *testing.T) {
	l, mr := newTestLog(t)
	defer mr.Close()
	defer func() { _ = l.Close() }()

	assert.NoError(t, l.Ping(context.Background()))
}

func TestNewLog_FailsWhenRedisUnreachable(t *testing.T) {
	_, err := NewLog("127.0.0.1:1", "", nil)
	assert.Error(t, err)
}

func TestAppend_PersistsEntry(t *testing.T) {
	l, mr := newTestLog(t)
	defer mr.Close()
	defer func() { _ = l.Close() }()

	entry := Entry{RoomCode: "ABCD12", HostName: "Qudus", MaxParticipants: 4, Status: "LOBBY", CreatedAt: "2026-07-29T00:00:00Z"}
	l.Append(context.Background(), entry)

	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rc.Close() }()

	n, err := rc.LLen(context.Background(), logKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestAppend_NilLogIsNoop(t *testing.T) {
	var l *Log
	assert.NotPanics(t, func() {
		l.Append(context.Background(), Entry{RoomCode: "X"})
	})
	assert.NoError(t, l.Ping(context.Background()))
	assert.NoError(t, l.Close())
}

func TestAppend_DegradesGracefullyWhenRedisDown(t *testing.T) {
	l, mr := newTestLog(t)
	defer func() { _ = l.Close() }()

	mr.Close()

	assert.NotPanics(t, func() {
		l.Append(context.Background(), Entry{RoomCode: "ABCD12"})
	})
}
