// Package actor implements the room actor of spec.md §4.1: one logical
// single-threaded owner per room code. It is the only component that ever
// touches a room's State directly; every command is serialised through a
// single FIFO channel, grounded on the teacher's Hub.run()-style channel
// loop (_examples' Seednode-partybox) generalised from ad hoc per-message
// channels to one uniform "apply against current state" closure per
// command.
package actor

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/adeyems/wordround/internal/v1/apierr"
	"github.com/adeyems/wordround/internal/v1/clockid"
	"github.com/adeyems/wordround/internal/v1/roomhub"
	"github.com/adeyems/wordround/internal/v1/roundtypes"
	"github.com/adeyems/wordround/internal/v1/snapshot"
)

const commandQueueSize = 32

// Actor owns one room's state exclusively. All exported methods are safe
// to call from any goroutine: they build a closure, hand it to the single
// run loop over the commands channel, and block on a private reply
// channel. The run loop is the only code that ever reads or writes state.
type Actor struct {
	code string

	commands chan func(now int64)
	done     chan struct{}
	closeOnce sync.Once

	clock clockid.Clock
	ids   clockid.IDSource
	hub   *roomhub.Hub
	log   *zap.Logger

	state roundtypes.State
	timer *time.Timer
}

// New constructs an Actor already holding an initial LOBBY state (built by
// roundstate.CreateRoom) and starts its run loop.
func New(code string, initial roundtypes.State, clock clockid.Clock, ids clockid.IDSource, log *zap.Logger) *Actor {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Actor{
		code:     code,
		commands: make(chan func(now int64), commandQueueSize),
		done:     make(chan struct{}),
		clock:    clock,
		ids:      ids,
		hub:      roomhub.New(log.With(zap.String("roomCode", code))),
		log:      log.With(zap.String("roomCode", code)),
		state:    initial,
	}
	go a.run()
	return a
}

// Code returns the room code this actor owns.
func (a *Actor) Code() string {
	return a.code
}

func (a *Actor) run() {
	for {
		select {
		case cmd := <-a.commands:
			now := a.clock.NowMillis()
			cmd(now)
		case <-a.done:
			return
		}
	}
}

// enqueue hands fn to the run loop and reports whether it was accepted; it
// returns false only if the actor has already been stopped.
func (a *Actor) enqueue(fn func(now int64)) bool {
	select {
	case a.commands <- fn:
		return true
	case <-a.done:
		return false
	}
}

// Close stops the run loop and closes every subscriber's channel. Called
// by the registry once a room is terminal and safe to reclaim.
func (a *Actor) Close() {
	a.closeOnce.Do(func() {
		close(a.done)
		a.hub.Close()
	})
}

// Subscribe registers a new push subscriber. Per spec.md §4.1 the first two
// messages it receives are {connected} then {snapshot}; the subscription
// itself is created from inside the run loop so the preloaded snapshot is
// always a consistent point-in-time view.
func (a *Actor) Subscribe() *roomhub.Subscription {
	reply := make(chan *roomhub.Subscription, 1)
	ok := a.enqueue(func(now int64) {
		connected, _ := json.Marshal(map[string]string{"type": "connected"})
		snap, _ := json.Marshal(struct {
			Type     string              `json:"type"`
			Snapshot snapshot.Snapshot `json:"snapshot"`
		}{Type: "snapshot", Snapshot: snapshot.Project(a.state)})
		reply <- a.hub.Subscribe(connected, snap)
	})
	if !ok {
		return nil
	}
	return <-reply
}

// SubscriberCount reports how many live push subscribers this room has.
func (a *Actor) SubscriberCount() int {
	return a.hub.Count()
}

// Snapshot is the read-only projection of spec.md §4.4, served by GET.
func (a *Actor) Snapshot() snapshot.Snapshot {
	reply := make(chan snapshot.Snapshot, 1)
	ok := a.enqueue(func(now int64) {
		reply <- snapshot.Project(a.state)
	})
	if !ok {
		return snapshot.Snapshot{}
	}
	return <-reply
}

// Status reports the game's lifecycle status, used by the registry to
// decide when a room becomes eligible for cleanup.
func (a *Actor) Status() roundtypes.GameStatus {
	reply := make(chan roundtypes.GameStatus, 1)
	ok := a.enqueue(func(now int64) {
		reply <- a.state.Game.Status
	})
	if !ok {
		return roundtypes.GameFinished
	}
	return <-reply
}

var errActorStopped = apierr.Gone("room is no longer available")

func (a *Actor) disarmTimer() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// armTimer schedules the single round deadline (spec.md §4.1 scheduling).
// A late-firing callback enqueues timerExpired into the actor's own queue
// rather than mutating state directly, so it is never treated as
// preempting an in-flight transition (spec.md §4.1).
func (a *Actor) armTimer(endsAtMs, now int64) {
	if endsAtMs == 0 {
		return
	}
	d := time.Duration(endsAtMs-now) * time.Millisecond
	if d < 0 {
		d = 0
	}
	a.timer = time.AfterFunc(d, func() {
		a.enqueue(func(now int64) {
			a.applyTimerExpired(now)
		})
	})
}
