package game

import (
	"github.com/faideww/claw-machine/internal/announcer"
	"github.com/faideww/claw-machine/internal/history"
	"github.com/faideww/claw-machine/internal/motion"
	"github.com/faideww/claw-machine/internal/prize"
)

// Status is the phase of the current round.
type Status int

const (
	Idle Status = iota
	Countdown
	Moving
	Dropping
	Returning
	Win
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Countdown:
		return "COUNTDOWN"
	case Moving:
		return "MOVING"
	case Dropping:
		return "DROPPING"
	case Returning:
		return "RETURNING"
	case Win:
		return "WIN"
	default:
		return "UNKNOWN"
	}
}

// CanTransition reports whether a round may move from one status to the
// next. Going back to Idle is always allowed: refreshing the machine
// aborts whatever is in flight.
func CanTransition(from, to Status) bool {
	if to == Idle {
		return true
	}
	switch from {
	case Idle:
		return to == Countdown
	case Countdown:
		return to == Moving
	case Moving:
		return to == Dropping
	case Dropping:
		return to == Returning
	case Returning:
		return to == Win
	}
	return false
}

type EventKind int

const (
	StatusChanged EventKind = iota
	CountdownTick
	Caught
	Recorded
	Announced
)

type Announcement struct {
	Kind announcer.Kind
	Text string
	Mood announcer.Mood
}

// Event is delivered to subscribers on the game loop. Handlers must not
// block.
type Event struct {
	Kind         EventKind
	Status       Status
	Countdown    int
	Item         *prize.Item
	Record       *history.Record
	Announcement Announcement
}

// Snapshot is a point-in-time view of the machine for display.
type Snapshot struct {
	Status       Status
	Countdown    int
	Claw         motion.Position
	Caught       *prize.Item
	Announcement Announcement
	Session      history.Session
}
