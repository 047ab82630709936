// Package game runs the claw machine: it sequences a round from countdown
// to prize, drives the claw through the motion package and commits catches
// to history.
//
// All state lives on one logic loop (a clock.Scheduler). Exported methods
// hop onto that loop, so they are safe to call from any goroutine except
// the loop itself, which includes event handlers.
package game

import (
	"context"
	"errors"
	"log"
	mrand "math/rand"
	"time"

	"github.com/faideww/claw-machine/internal/announcer"
	"github.com/faideww/claw-machine/internal/clock"
	"github.com/faideww/claw-machine/internal/history"
	"github.com/faideww/claw-machine/internal/motion"
	"github.com/faideww/claw-machine/internal/prize"
	"github.com/faideww/claw-machine/internal/store"
)

const (
	DefaultCountdownStep   = 700 * time.Millisecond
	DefaultAnnounceTimeout = 3 * time.Second

	// countdownSteps is how many numbers are shown before the claw moves.
	countdownSteps = 3

	// mysteryItem names the prize before anything has been caught.
	mysteryItem = "Mystery Item"
)

type Options struct {
	Scheduler clock.Scheduler // required
	Snapshots *store.Snapshots
	Resolver  prize.Resolver
	Announcer announcer.Announcer
	Motion    motion.Params

	CountdownStep   time.Duration
	AnnounceTimeout time.Duration
	HistoryCap      int

	// Defaults is the machine used when nothing is saved.
	Defaults []prize.Item
	Rand     *mrand.Rand
	// Spawn runs announcer calls off the loop. Defaults to a goroutine.
	Spawn func(func())
}

type Machine struct {
	ctx    context.Context
	cancel context.CancelFunc

	sched           clock.Scheduler
	snaps           *store.Snapshots
	resolver        prize.Resolver
	announcer       announcer.Announcer
	countdownStep   time.Duration
	announceTimeout time.Duration
	rng             *mrand.Rand
	spawn           func(func())

	status       Status
	countdown    int
	claw         *motion.Claw
	caught       *prize.Item
	announcement Announcement
	session      history.Session

	collection *prize.Collection
	favorites  *prize.Favorites
	history    *history.Log

	countdownTokens []*clock.Token
	phase           *clock.Token

	inflight    context.CancelFunc
	announceSeq uint64

	listeners []func(Event)
}

// New builds a machine and restores whatever the snapshots hold. Missing
// or unreadable state falls back to defaults.
func New(ctx context.Context, opts Options) (*Machine, error) {
	if opts.Scheduler == nil {
		return nil, errors.New("game: scheduler is required")
	}
	if opts.Resolver == nil {
		opts.Resolver = prize.ZoneResolver{}
	}
	if opts.Announcer == nil {
		opts.Announcer = announcer.Static{}
	}
	if opts.CountdownStep <= 0 {
		opts.CountdownStep = DefaultCountdownStep
	}
	if opts.AnnounceTimeout <= 0 {
		opts.AnnounceTimeout = DefaultAnnounceTimeout
	}
	if opts.Rand == nil {
		opts.Rand = prize.NewRand()
	}
	if opts.Spawn == nil {
		opts.Spawn = func(fn func()) { go fn() }
	}

	m := &Machine{
		sched:           opts.Scheduler,
		snaps:           opts.Snapshots,
		resolver:        opts.Resolver,
		announcer:       opts.Announcer,
		countdownStep:   opts.CountdownStep,
		announceTimeout: opts.AnnounceTimeout,
		rng:             opts.Rand,
		spawn:           opts.Spawn,
		claw:            motion.NewClaw(opts.Motion),
		announcement: Announcement{
			Kind: announcer.Start,
			Text: announcer.Greeting,
			Mood: announcer.Neutral,
		},
	}
	m.ctx, m.cancel = context.WithCancel(ctx)

	items, ok := m.snaps.LoadCollection(ctx)
	if !ok {
		items = opts.Defaults
	}
	m.collection = prize.NewCollection(items)

	records, _ := m.snaps.LoadHistory(ctx)
	m.history = history.NewLog(opts.HistoryCap, records)

	favs, _ := m.snaps.LoadFavorites(ctx)
	m.favorites = prize.NewFavorites(favs)

	m.session, _ = m.snaps.LoadSession(ctx)

	return m, nil
}

// Close stops every pending timer and announcer request.
func (m *Machine) Close() {
	m.sched.Call(func() {
		m.cancelCountdown()
		m.cancelPhase()
		m.cancel()
	})
}

// Subscribe registers fn for every future event.
func (m *Machine) Subscribe(fn func(Event)) {
	m.sched.Call(func() { m.listeners = append(m.listeners, fn) })
}

// Start begins a round. It is ignored unless the machine is idle.
func (m *Machine) Start() bool {
	var ok bool
	m.sched.Call(func() { ok = m.start() })
	return ok
}

// StartAs signs s in and starts a round in one step. Nothing changes if the
// machine is busy, so a running round keeps its player.
func (m *Machine) StartAs(s history.Session) bool {
	var ok bool
	m.sched.Call(func() {
		if m.status != Idle {
			return
		}
		m.signIn(s)
		ok = m.start()
	})
	return ok
}

// Stop drops the claw. It is ignored unless the claw is sweeping.
func (m *Machine) Stop() bool {
	var ok bool
	m.sched.Call(func() { ok = m.stop() })
	return ok
}

// Reset clears a won round. It is ignored outside Win.
func (m *Machine) Reset() bool {
	var ok bool
	m.sched.Call(func() {
		if m.status != Win {
			return
		}
		m.clear()
		ok = true
	})
	return ok
}

// Refresh aborts any round, reshuffles the prizes and returns to Idle.
func (m *Machine) Refresh() {
	m.sched.Call(func() {
		m.collection.Shuffle(m.rng)
		m.saveCollection()
		m.clear()
	})
}

func (m *Machine) Snapshot() Snapshot {
	var s Snapshot
	m.sched.Call(func() {
		s = Snapshot{
			Status:       m.status,
			Countdown:    m.countdown,
			Claw:         m.claw.Position(),
			Caught:       m.caughtCopy(),
			Announcement: m.announcement,
			Session:      m.session,
		}
	})
	return s
}

func (m *Machine) start() bool {
	if m.status != Idle {
		return false
	}

	m.setStatus(Countdown)
	m.setCountdown(1)
	for n := 2; n <= countdownSteps; n++ {
		m.countdownTokens = append(m.countdownTokens,
			m.sched.After(time.Duration(n-1)*m.countdownStep, func() { m.setCountdown(n) }))
	}
	m.countdownTokens = append(m.countdownTokens,
		m.sched.After(countdownSteps*m.countdownStep, m.beginMoving))
	return true
}

func (m *Machine) beginMoving() {
	if m.status != Countdown {
		return
	}
	m.cancelCountdown()
	m.countdown = 0
	m.claw.Reset()
	m.caught = nil

	m.setStatus(Moving)
	m.announce(announcer.Start, mysteryItem)
	m.phase = m.sched.Every(m.claw.Params().Frame, m.claw.Sweep)
}

func (m *Machine) stop() bool {
	if m.status != Moving {
		return false
	}
	m.cancelPhase()
	m.setStatus(Dropping)
	m.phase = m.sched.Every(m.claw.Params().Tick, m.lowerTick)
	return true
}

func (m *Machine) lowerTick() {
	if m.status != Dropping || !m.claw.Lower() {
		return
	}
	m.cancelPhase()

	if it, ok := m.resolver.Resolve(m.collection.List(), m.claw.Position().X); ok {
		m.caught = &it
		m.emit(Event{Kind: Caught, Status: m.status, Item: m.caughtCopy()})
	}

	m.setStatus(Returning)
	m.phase = m.sched.Every(m.claw.Params().Tick, m.liftTick)
}

func (m *Machine) liftTick() {
	if m.status != Returning || !m.claw.Lift() {
		return
	}
	m.cancelPhase()

	if m.caught == nil {
		m.setStatus(Idle)
		m.announce(announcer.Loss, mysteryItem)
		return
	}

	rec := history.NewRecord(*m.caught, m.sched.Now(), m.session)
	m.history.Append(rec)
	m.saveHistory()

	m.setStatus(Win)
	m.emit(Event{Kind: Recorded, Status: m.status, Item: m.caughtCopy(), Record: &rec})
	m.announce(announcer.Win, m.caught.Name)
}

// clear cancels everything in flight and parks the machine in Idle.
func (m *Machine) clear() {
	m.cancelCountdown()
	m.cancelPhase()
	m.claw.Reset()
	m.caught = nil
	m.countdown = 0
	m.setStatus(Idle)
}

func (m *Machine) setStatus(to Status) {
	if to == m.status {
		return
	}
	if !CanTransition(m.status, to) {
		log.Printf("game: refusing transition %s -> %s", m.status, to)
		return
	}
	m.status = to
	m.emit(Event{Kind: StatusChanged, Status: to, Item: m.caughtCopy()})
}

func (m *Machine) setCountdown(n int) {
	if m.status != Countdown {
		return
	}
	m.countdown = n
	m.emit(Event{Kind: CountdownTick, Status: m.status, Countdown: n})
}

func (m *Machine) cancelCountdown() {
	for _, tok := range m.countdownTokens {
		tok.Cancel()
	}
	m.countdownTokens = nil
}

func (m *Machine) cancelPhase() {
	m.phase.Cancel()
	m.phase = nil
}

func (m *Machine) caughtCopy() *prize.Item {
	if m.caught == nil {
		return nil
	}
	c := m.caught.Clone()
	return &c
}

func (m *Machine) emit(e Event) {
	for _, fn := range m.listeners {
		fn(e)
	}
}
