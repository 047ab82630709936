// Package announcer produces the short lines shown above the machine.
// Lines are cosmetic: callers must treat every failure as "use Fallback".
package announcer

import (
	"context"
	"fmt"
)

type Kind string

const (
	Start    Kind = "start"
	Win      Kind = "win"
	Loss     Kind = "loss"
	NearMiss Kind = "near_miss"
)

type Mood string

const (
	Neutral Mood = "neutral"
	Excited Mood = "excited"
	Sad     Mood = "sad"
)

func MoodFor(k Kind) Mood {
	switch k {
	case Win:
		return Excited
	case Loss:
		return Sad
	default:
		return Neutral
	}
}

// Greeting is shown before the first round.
const Greeting = "Collector, prepare for unboxing."

// EmptyReply replaces a blank answer from the service.
const EmptyReply = "Good luck, collector!"

type Announcer interface {
	Announce(ctx context.Context, kind Kind, itemName string) (string, error)
}

// Fallback is the line to show when the announcer fails.
func Fallback(k Kind) string {
	if k == Win {
		return "A rare find! Congratulations!"
	}
	return "The chase continues..."
}

// Static answers from a fixed script. It is used when no service is
// configured.
type Static struct{}

func (Static) Announce(_ context.Context, kind Kind, itemName string) (string, error) {
	switch kind {
	case Start:
		return "Claw armed. Eyes on the prize.", nil
	case Win:
		return fmt.Sprintf("%s secured. Straight to the shelf!", itemName), nil
	case Loss:
		return "Empty claw. The chase continues...", nil
	case NearMiss:
		return "Inches away. Run it back!", nil
	default:
		return "", fmt.Errorf("unknown announcement kind %q", kind)
	}
}

// Func adapts a function to Announcer.
type Func func(ctx context.Context, kind Kind, itemName string) (string, error)

func (f Func) Announce(ctx context.Context, kind Kind, itemName string) (string, error) {
	return f(ctx, kind, itemName)
}
