// Package ratelimit spaces out rounds per player so one person cannot
// hog the machine from chat.
package ratelimit

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

type Limiter struct {
	mu   sync.Mutex
	next map[string]time.Time
	min  time.Duration
	max  time.Duration
	clk  Clock
	rng  *mrand.Rand
}

// NewLimiter gives each key a cooldown drawn from [min, max).
func NewLimiter(min, max time.Duration, clk Clock) *Limiter {
	if clk == nil {
		clk = RealClock{}
	}
	if max < min {
		max = min
	}

	var rng *mrand.Rand
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		rng = mrand.New(mrand.NewSource(time.Now().UnixNano()))
	} else {
		rng = mrand.New(mrand.NewSource(int64(binary.LittleEndian.Uint64(b[:]))))
	}

	return &Limiter{
		next: make(map[string]time.Time),
		min:  min,
		max:  max,
		clk:  clk,
		rng:  rng,
	}
}

// TryKey reports whether key may act now and, if not, how long it must wait.
func (l *Limiter) TryKey(key string) (bool, time.Duration) {
	now := l.clk.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if until, ok := l.next[key]; ok && now.Before(until) {
		return false, until.Sub(now)
	}

	l.next[key] = now.Add(l.nextCooldown())
	return true, 0
}

// TryPlayer gates starting a round.
func (l *Limiter) TryPlayer(guildId, userId string) (bool, time.Duration) {
	return l.TryKey(playerKey(guildId, userId))
}

func (l *Limiter) nextCooldown() time.Duration {
	if l.min == l.max {
		return l.min
	}
	span := l.max - l.min

	jitter := time.Duration(l.rng.Int63n(int64(span)))
	return l.min + jitter
}

// Refund clears a player's cooldown, used when the round they asked for
// never started.
func (l *Limiter) Refund(guildId, userId string) {
	l.mu.Lock()
	delete(l.next, playerKey(guildId, userId))
	l.mu.Unlock()
}

func (l *Limiter) Peek(guildId, userId string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.next[playerKey(guildId, userId)]
	return t, ok
}

func playerKey(guildId, userId string) string {
	return guildId + ":" + userId
}
