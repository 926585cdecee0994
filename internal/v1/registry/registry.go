// Package registry maps room codes to their actor (spec.md §4.6),
// generalising the teacher's Hub (internal/v1/session/hub.go): one-shot
// creation instead of getOrCreateRoom, and the same pendingRoomCleanups
// grace-period timer idiom for "retain the actor until its game is
// terminal and every subscriber has disconnected".
package registry

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/adeyems/wordround/internal/v1/actor"
	"github.com/adeyems/wordround/internal/v1/apierr"
	"github.com/adeyems/wordround/internal/v1/clockid"
	"github.com/adeyems/wordround/internal/v1/metrics"
	"github.com/adeyems/wordround/internal/v1/persist"
	"github.com/adeyems/wordround/internal/v1/roundstate"
	"github.com/adeyems/wordround/internal/v1/roundtypes"
)

const maxCodeAttempts = 25

// Registry owns the room-code → Actor map. Its only mutating operations
// are insert (CreateRoom) and remove (the grace-period cleanup timer),
// each guarded by a short critical section (spec.md §5).
type Registry struct {
	mu                 sync.Mutex
	rooms              map[string]*actor.Actor
	pendingCleanups    map[string]*time.Timer
	cleanupGracePeriod time.Duration

	clock      clockid.Clock
	ids        clockid.IDSource
	persistLog *persist.Log
	log        *zap.Logger
}

// New builds a Registry. persistLog may be nil (Redis disabled); its
// Append/Ping/Close methods are documented safe no-ops on a nil receiver,
// so it is always threaded through unconditionally rather than guarded
// here.
func New(clock clockid.Clock, ids clockid.IDSource, gracePeriod time.Duration, persistLog *persist.Log, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		rooms:              make(map[string]*actor.Actor),
		pendingCleanups:    make(map[string]*time.Timer),
		cleanupGracePeriod: gracePeriod,
		clock:              clock,
		ids:                ids,
		persistLog:         persistLog,
		log:                log,
	}
}

// CreatedRoom is the registry-level result of CreateRoom, spec.md §4.6:
// "{roomCode, hostName, maxParticipants, hostToken}".
type CreatedRoom struct {
	RoomCode        string
	HostName        string
	MaxParticipants int
	HostToken       string
}

// CreateRoom generates a unique room code (retrying on collision),
// initialises the room's state and actor, and registers it.
func (r *Registry) CreateRoom(hostName string, maxParticipants int) (CreatedRoom, *apierr.Error) {
	now := r.clock.NowMillis()
	hostToken := r.ids.HostToken()

	r.mu.Lock()
	var code string
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		candidate := r.ids.RoomCode()
		if _, taken := r.rooms[candidate]; !taken {
			code = candidate
			break
		}
	}
	if code == "" {
		r.mu.Unlock()
		return CreatedRoom{}, apierr.New("internal", "failed to allocate a unique room code")
	}
	r.mu.Unlock()

	initial, err := roundstate.CreateRoom(hostName, maxParticipants, code, hostToken, now)
	if err != nil {
		return CreatedRoom{}, err
	}

	a := actor.New(code, initial, r.clock, r.ids, r.log)

	r.mu.Lock()
	r.rooms[code] = a
	roomCount := len(r.rooms)
	r.mu.Unlock()

	metrics.SetRoomsActive(roomCount)
	metrics.SetParticipantsCount(code, 1)

	r.persistLog.Append(context.Background(), persist.Entry{
		RoomCode:        code,
		HostName:        initial.HostName,
		MaxParticipants: initial.MaxParticipants,
		Status:          string(initial.Game.Status),
		CreatedAt:       clockid.MillisToRFC3339(now),
	})

	return CreatedRoom{
		RoomCode:        code,
		HostName:        initial.HostName,
		MaxParticipants: initial.MaxParticipants,
		HostToken:       hostToken,
	}, nil
}

// Get looks up an actor by room code.
func (r *Registry) Get(code string) (*actor.Actor, *apierr.Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rooms[code]
	if !ok {
		return nil, apierr.NotFound("room not found")
	}
	return a, nil
}

// NotifyActivity is called by the control/push surface after any operation
// completes against a room; it arms or cancels the grace-period cleanup
// depending on whether the game is now terminal. Subscribe does not touch a
// pending timer: when it fires while the room has a subscriber it leaves the
// room in place, and the next NotifyActivity (such as the one wsapi runs on
// disconnect) re-arms it.
func (r *Registry) NotifyActivity(code string) {
	a, err := r.Get(code)
	if err != nil {
		return
	}
	status := a.Status()
	terminal := status == roundtypes.GameCancelled || status == roundtypes.GameFinished

	metrics.SetParticipantsCount(code, a.Snapshot().Counts.Admitted)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.pendingCleanups[code]; ok {
		existing.Stop()
		delete(r.pendingCleanups, code)
	}

	if !terminal {
		return
	}
	if a.SubscriberCount() > 0 {
		return
	}

	r.scheduleCleanupLocked(code)
}

func (r *Registry) scheduleCleanupLocked(code string) {
	timer := time.AfterFunc(r.cleanupGracePeriod, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		a, ok := r.rooms[code]
		if !ok {
			delete(r.pendingCleanups, code)
			return
		}
		if a.SubscriberCount() > 0 {
			delete(r.pendingCleanups, code)
			return
		}

		a.Close()
		delete(r.rooms, code)
		delete(r.pendingCleanups, code)
		metrics.SetRoomsActive(len(r.rooms))
		r.log.Info("reclaimed terminal room", zap.String("roomCode", code))
	})
	r.pendingCleanups[code] = timer
}

// Len reports the number of live rooms, used by health/metrics reporting.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
