package game

import (
	"context"
	"errors"
	"fmt"
	mrand "math/rand"
	"testing"
	"time"

	"github.com/faideww/claw-machine/internal/announcer"
	"github.com/faideww/claw-machine/internal/clock"
	"github.com/faideww/claw-machine/internal/history"
	"github.com/faideww/claw-machine/internal/motion"
	"github.com/faideww/claw-machine/internal/prize"
	"github.com/faideww/claw-machine/internal/store"
)

const frame = 16 * time.Millisecond

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type harness struct {
	t      *testing.T
	m      *Machine
	clk    *clock.Manual
	events []Event
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	clk := clock.NewManual(epoch)
	opts.Scheduler = clk
	if opts.Spawn == nil {
		opts.Spawn = func(fn func()) { fn() }
	}
	if opts.Rand == nil {
		opts.Rand = mrand.New(mrand.NewSource(1))
	}

	m, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	h := &harness{t: t, m: m, clk: clk}
	m.Subscribe(func(e Event) { h.events = append(h.events, e) })
	t.Cleanup(m.Close)
	return h
}

func (h *harness) status() Status { return h.m.Snapshot().Status }

// advanceUntil steps one frame at a time until the machine reaches want.
func (h *harness) advanceUntil(want Status, limit time.Duration) {
	h.t.Helper()
	for elapsed := time.Duration(0); elapsed <= limit; elapsed += frame {
		if h.status() == want {
			return
		}
		h.clk.Advance(frame)
	}
	h.t.Fatalf("status %s not reached within %v, stuck at %s", want, limit, h.status())
}

// toMoving starts a round and runs the countdown out.
func (h *harness) toMoving() {
	h.t.Helper()
	if !h.m.Start() {
		h.t.Fatal("start was refused from idle")
	}
	h.clk.Advance(3 * DefaultCountdownStep)
	if got := h.status(); got != Moving {
		h.t.Fatalf("expected MOVING after countdown, got %s", got)
	}
}

// sweepFrames lets the claw sweep for n frames.
func (h *harness) sweepFrames(n int) {
	h.clk.Advance(time.Duration(n) * frame)
}

// finishRound stops the claw and runs drop and return to completion.
func (h *harness) finishRound() {
	h.t.Helper()
	if !h.m.Stop() {
		h.t.Fatal("stop was refused while moving")
	}
	h.advanceUntil(Returning, time.Second)
	h.advanceUntil(Win, time.Second)
}

func (h *harness) statuses() []Status {
	var out []Status
	for _, e := range h.events {
		if e.Kind == StatusChanged {
			out = append(out, e.Status)
		}
	}
	return out
}

func TestFullRoundFollowsTransitionTable(t *testing.T) {
	h := newHarness(t, Options{})

	h.toMoving()
	h.sweepFrames(20)
	if x := h.m.Snapshot().Claw.X; x < 31 || x > 33 {
		t.Fatalf("expected claw near 32 after 20 frames, got %v", x)
	}
	h.finishRound()

	want := []Status{Countdown, Moving, Dropping, Returning, Win}
	got := h.statuses()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("expected statuses %v, got %v", want, got)
	}

	snap := h.m.Snapshot()
	if snap.Caught == nil || snap.Caught.Name != "Skullpanda: The Warmth" {
		t.Fatalf("expected the prize at centre 32, got %+v", snap.Caught)
	}
	if snap.Claw.Y != 0 {
		t.Fatalf("claw should be raised after the round, y=%v", snap.Claw.Y)
	}

	recs := h.m.History()
	if len(recs) != 1 || recs[0].ItemName != "Skullpanda: The Warmth" || recs[0].Player != "Guest" {
		t.Fatalf("unexpected history %+v", recs)
	}
	if h.clk.Pending() != 0 {
		t.Fatalf("expected no live timers in WIN, got %d", h.clk.Pending())
	}

	if !h.m.Reset() {
		t.Fatal("reset refused in WIN")
	}
	snap = h.m.Snapshot()
	if snap.Status != Idle || snap.Caught != nil || snap.Claw != (motion.Position{}) || snap.Countdown != 0 {
		t.Fatalf("reset did not clear the round: %+v", snap)
	}
}

func TestCountdownSteps(t *testing.T) {
	h := newHarness(t, Options{})
	h.m.Start()

	var counts []int
	for _, e := range h.events {
		if e.Kind == CountdownTick {
			counts = append(counts, e.Countdown)
		}
	}
	if len(counts) != 1 || counts[0] != 1 {
		t.Fatalf("expected countdown 1 immediately, got %v", counts)
	}

	h.clk.Advance(DefaultCountdownStep)
	if c := h.m.Snapshot().Countdown; c != 2 {
		t.Fatalf("expected countdown 2 at 700ms, got %d", c)
	}
	h.clk.Advance(DefaultCountdownStep)
	if c := h.m.Snapshot().Countdown; c != 3 {
		t.Fatalf("expected countdown 3 at 1400ms, got %d", c)
	}
	h.clk.Advance(DefaultCountdownStep - time.Millisecond)
	if s := h.status(); s != Countdown {
		t.Fatalf("moved early: %s", s)
	}
	h.clk.Advance(time.Millisecond)
	if s := h.m.Snapshot(); s.Status != Moving || s.Countdown != 0 || s.Claw.X != 0 {
		t.Fatalf("expected fresh MOVING, got %+v", s)
	}
}

func TestStartIgnoredWhileMoving(t *testing.T) {
	h := newHarness(t, Options{})
	h.toMoving()
	h.sweepFrames(5)

	before := h.clk.Pending()
	nEvents := len(h.events)
	if h.m.Start() {
		t.Fatal("start honoured while MOVING")
	}
	if h.status() != Moving {
		t.Fatalf("status changed to %s", h.status())
	}
	if h.clk.Pending() != before {
		t.Fatalf("a new countdown was scheduled: pending %d -> %d", before, h.clk.Pending())
	}
	if len(h.events) != nEvents {
		t.Fatalf("ignored start emitted events: %+v", h.events[nEvents:])
	}
}

func TestIllegalCommandsAreNoops(t *testing.T) {
	h := newHarness(t, Options{})

	if h.m.Stop() {
		t.Error("stop honoured in IDLE")
	}
	if h.m.Reset() {
		t.Error("reset honoured in IDLE")
	}

	h.m.Start()
	if h.m.Start() {
		t.Error("start honoured in COUNTDOWN")
	}
	if h.m.Stop() {
		t.Error("stop honoured in COUNTDOWN")
	}

	h.clk.Advance(3 * DefaultCountdownStep)
	h.m.Stop()
	if h.m.Stop() {
		t.Error("stop honoured in DROPPING")
	}
	if h.m.Reset() {
		t.Error("reset honoured in DROPPING")
	}
	if len(h.statuses()) != 3 {
		t.Fatalf("unexpected transitions %v", h.statuses())
	}
}

func TestStopBeforeFirstFrameKeepsClawAtZero(t *testing.T) {
	h := newHarness(t, Options{})
	h.toMoving()

	if !h.m.Stop() {
		t.Fatal("stop refused")
	}
	h.advanceUntil(Returning, time.Second)

	snap := h.m.Snapshot()
	if snap.Claw.X != 0 {
		t.Fatalf("expected x=0, got %v", snap.Claw.X)
	}
	if snap.Caught == nil || snap.Caught.Id != "1" {
		t.Fatalf("expected the leftmost prize, got %+v", snap.Caught)
	}
}

func TestDropAndReturnAreMonotonic(t *testing.T) {
	h := newHarness(t, Options{})
	h.toMoving()
	h.sweepFrames(40)
	x := h.m.Snapshot().Claw.X
	h.m.Stop()

	prev := 0.0
	for h.status() == Dropping {
		h.clk.Advance(frame)
		snap := h.m.Snapshot()
		if snap.Claw.Y < prev || snap.Claw.Y > 82 {
			t.Fatalf("drop went from %v to %v", prev, snap.Claw.Y)
		}
		if snap.Claw.X != x {
			t.Fatalf("x moved during drop: %v -> %v", x, snap.Claw.X)
		}
		prev = snap.Claw.Y
	}
	if prev != 82 {
		t.Fatalf("drop ended at %v, want 82", prev)
	}

	for h.status() == Returning {
		h.clk.Advance(frame)
		snap := h.m.Snapshot()
		if snap.Claw.Y > prev || snap.Claw.Y < 0 {
			t.Fatalf("return went from %v to %v", prev, snap.Claw.Y)
		}
		if snap.Claw.X != x {
			t.Fatalf("x moved during return: %v -> %v", x, snap.Claw.X)
		}
		prev = snap.Claw.Y
	}
	if prev != 0 {
		t.Fatalf("return ended at %v, want 0", prev)
	}
}

func TestAnnouncerFailureDoesNotBlockWin(t *testing.T) {
	failing := announcer.Func(func(ctx context.Context, kind announcer.Kind, name string) (string, error) {
		return "", errors.New("service unavailable")
	})
	h := newHarness(t, Options{Announcer: failing})

	h.toMoving()
	h.sweepFrames(10)
	h.finishRound()

	if got := h.status(); got != Win {
		t.Fatalf("expected WIN, got %s", got)
	}
	if n := len(h.m.History()); n != 1 {
		t.Fatalf("expected one record, got %d", n)
	}
	ann := h.m.Snapshot().Announcement
	if ann.Text != announcer.Fallback(announcer.Win) || ann.Mood != announcer.Excited {
		t.Fatalf("expected win fallback, got %+v", ann)
	}
}

func TestAnnouncerTimeoutDoesNotBlockWin(t *testing.T) {
	slow := announcer.Func(func(ctx context.Context, kind announcer.Kind, name string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	// real goroutines here: the slow announcer must not sit on the loop
	h := newHarness(t, Options{
		Announcer:       slow,
		AnnounceTimeout: 10 * time.Millisecond,
		Spawn:           func(fn func()) { go fn() },
	})

	h.toMoving()
	h.finishRound()
	if got := h.status(); got != Win {
		t.Fatalf("expected WIN while announcer hangs, got %s", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.clk.Drain()
		if h.m.Snapshot().Announcement.Text == announcer.Fallback(announcer.Win) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("fallback never shown, announcement %+v", h.m.Snapshot().Announcement)
}

func TestAnnouncementShown(t *testing.T) {
	h := newHarness(t, Options{})
	if got := h.m.Snapshot().Announcement.Text; got != announcer.Greeting {
		t.Fatalf("expected greeting, got %q", got)
	}

	h.toMoving()
	ann := h.m.Snapshot().Announcement
	want, _ := announcer.Static{}.Announce(context.Background(), announcer.Start, mysteryItem)
	if ann.Kind != announcer.Start || ann.Text != want {
		t.Fatalf("expected start line, got %+v", ann)
	}
}

func TestRefreshDuringCountdownCancelsTimers(t *testing.T) {
	h := newHarness(t, Options{})
	h.m.Start()
	h.clk.Advance(DefaultCountdownStep + 100*time.Millisecond)

	h.m.Refresh()
	if h.clk.Pending() != 0 {
		t.Fatalf("countdown timers survived refresh: %d", h.clk.Pending())
	}

	h.clk.Advance(5 * time.Second)
	snap := h.m.Snapshot()
	if snap.Status != Idle || snap.Countdown != 0 {
		t.Fatalf("stale countdown changed state: %+v", snap)
	}

	// a new round must run on its own schedule, not the old one
	h.m.Start()
	h.clk.Advance(DefaultCountdownStep - 100*time.Millisecond)
	if c := h.m.Snapshot().Countdown; c != 1 {
		t.Fatalf("old timer leaked into new round: countdown %d", c)
	}
	h.clk.Advance(100 * time.Millisecond)
	if c := h.m.Snapshot().Countdown; c != 2 {
		t.Fatalf("expected countdown 2, got %d", c)
	}
}

func TestRefreshDuringDropCancelsTicker(t *testing.T) {
	h := newHarness(t, Options{})
	h.toMoving()
	h.sweepFrames(10)
	h.m.Stop()
	h.clk.Advance(5 * frame)

	h.m.Refresh()
	if h.clk.Pending() != 0 {
		t.Fatalf("drop ticker survived refresh: %d", h.clk.Pending())
	}
	h.clk.Advance(time.Second)

	snap := h.m.Snapshot()
	if snap.Status != Idle || snap.Claw.Y != 0 || snap.Claw.X != 0 || snap.Caught != nil {
		t.Fatalf("stale ticker changed state: %+v", snap)
	}
	if n := len(h.m.History()); n != 0 {
		t.Fatalf("aborted round recorded %d catches", n)
	}
}

func TestRefreshShufflesAndPersists(t *testing.T) {
	kv := store.NewMemory()
	snaps := store.NewSnapshots(kv)
	h := newHarness(t, Options{Snapshots: snaps})

	h.m.Refresh()
	items := h.m.Items()
	saved, ok := snaps.LoadCollection(context.Background())
	if !ok || len(saved) != len(items) {
		t.Fatalf("refresh did not persist collection: ok=%v", ok)
	}
	for i := range items {
		if items[i].Id != saved[i].Id {
			t.Fatalf("persisted order differs at %d", i)
		}
	}
}

func TestMissReturnsToIdle(t *testing.T) {
	h := newHarness(t, Options{Resolver: prize.ZoneResolver{Reach: 1}})
	h.toMoving()
	h.m.Stop()
	h.advanceUntil(Returning, time.Second)

	if h.m.Snapshot().Caught != nil {
		t.Fatal("expected a miss from x=0")
	}
	h.advanceUntil(Idle, time.Second)

	if n := len(h.m.History()); n != 0 {
		t.Fatalf("miss recorded %d catches", n)
	}
	if ann := h.m.Snapshot().Announcement; ann.Kind != announcer.Loss {
		t.Fatalf("expected loss announcement, got %+v", ann)
	}
	want := []Status{Countdown, Moving, Dropping, Returning, Idle}
	if fmt.Sprint(h.statuses()) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, h.statuses())
	}
}

func TestRandomResolverReachesEveryItem(t *testing.T) {
	items := make([]prize.Item, 10)
	for i := range items {
		items[i] = prize.Item{Id: fmt.Sprint(i), Name: fmt.Sprintf("prize %d", i), Visual: prize.DefaultSymbol}
	}
	h := newHarness(t, Options{
		Defaults: items,
		Resolver: prize.NewRandomResolver(mrand.New(mrand.NewSource(42))),
	})

	seen := map[string]int{}
	h.m.Subscribe(func(e Event) {
		if e.Kind == Caught {
			seen[e.Item.Id]++
		}
	})

	for i := 0; i < 1000; i++ {
		h.toMoving()
		h.finishRound()
		h.m.Reset()
	}

	for _, it := range items {
		if seen[it.Id] == 0 {
			t.Errorf("%s never caught in 1000 rounds", it.Name)
		}
	}
	if n := len(h.m.History()); n != history.DefaultCap {
		t.Fatalf("expected history capped at %d, got %d", history.DefaultCap, n)
	}
}

func TestRemoveLastItemRejected(t *testing.T) {
	only := []prize.Item{{Id: "solo", Name: "Solo", Visual: prize.DefaultSymbol}}
	h := newHarness(t, Options{Defaults: only})

	if err := h.m.RemoveItem("solo"); !errors.Is(err, prize.ErrLastItem) {
		t.Fatalf("expected ErrLastItem, got %v", err)
	}
	if items := h.m.Items(); len(items) != 1 || items[0].Id != "solo" {
		t.Fatalf("collection changed: %+v", items)
	}
}

func TestCaughtSnapshotIgnoresLaterEdits(t *testing.T) {
	h := newHarness(t, Options{})
	h.toMoving()
	h.finishRound()

	caught := h.m.Snapshot().Caught
	name := "Renamed"
	h.m.UpdateItem(caught.Id, prize.Patch{Name: &name, Visual: prize.Symbol{Code: "X"}})

	rec := h.m.History()[0]
	if rec.ItemName == "Renamed" || prize.Label(rec.Visual) == "X" {
		t.Fatalf("history record followed a later edit: %+v", rec)
	}
}

func TestRandomCommandSequencesKeepInvariants(t *testing.T) {
	h := newHarness(t, Options{HistoryCap: 3})
	rng := mrand.New(mrand.NewSource(99))

	prev := Idle
	h.m.Subscribe(func(e Event) {
		if e.Kind != StatusChanged {
			return
		}
		if !CanTransition(prev, e.Status) {
			t.Errorf("illegal transition %s -> %s", prev, e.Status)
		}
		prev = e.Status
	})

	for i := 0; i < 5000; i++ {
		switch rng.Intn(6) {
		case 0:
			h.m.Start()
		case 1:
			h.m.Stop()
		case 2:
			h.m.Reset()
		case 3:
			if rng.Intn(20) == 0 {
				h.m.Refresh()
			}
		default:
			h.clk.Advance(time.Duration(rng.Intn(400)) * time.Millisecond)
		}

		snap := h.m.Snapshot()
		if snap.Claw.X < 0 || snap.Claw.X > 100 || snap.Claw.Y < 0 || snap.Claw.Y > 82 {
			t.Fatalf("step %d: claw out of bounds %+v", i, snap.Claw)
		}
		holding := snap.Status == Returning || snap.Status == Win
		if holding != (snap.Caught != nil) {
			t.Fatalf("step %d: caught=%v in %s", i, snap.Caught != nil, snap.Status)
		}
		if n := len(h.m.History()); n > 3 {
			t.Fatalf("step %d: history %d over cap", i, n)
		}
	}
}

func TestStateSurvivesRestart(t *testing.T) {
	kv := store.NewMemory()
	snaps := store.NewSnapshots(kv)

	h := newHarness(t, Options{Snapshots: snaps})
	h.m.SignIn(history.Session{Player: "ana", Device: "discord"})
	name := "Molly Prime"
	h.m.UpdateItem("1", prize.Patch{Name: &name})
	h.m.ToggleLiked("2")
	fav, ok := h.m.SaveFavorite("3")
	if !ok {
		t.Fatal("save favorite failed")
	}
	added := h.m.AddItem(prize.Item{Name: "Crybaby", Visual: prize.Symbol{Code: "😢"}})
	h.toMoving()
	h.finishRound()

	again := newHarness(t, Options{Snapshots: snaps})
	items := again.m.Items()
	if len(items) != 6 || items[0].Name != "Molly Prime" || !items[1].Liked || items[5].Id != added.Id {
		t.Fatalf("collection not restored: %+v", items)
	}
	favs := again.m.Favorites()
	if len(favs) != 1 || favs[0].Id != fav.Id {
		t.Fatalf("favorites not restored: %+v", favs)
	}
	recs := again.m.History()
	if len(recs) != 1 || recs[0].Player != "ana" || recs[0].Device != "discord" {
		t.Fatalf("history not restored: %+v", recs)
	}
	if s := again.m.Session(); s.Player != "ana" {
		t.Fatalf("session not restored: %+v", s)
	}

	again.m.SignOut()
	third := newHarness(t, Options{Snapshots: snaps})
	if !third.m.Session().IsGuest() {
		t.Fatal("signed-out session came back")
	}
}

func TestMalformedStateFallsBackToDefaults(t *testing.T) {
	kv := store.NewMemory()
	ctx := context.Background()
	_ = kv.Put(ctx, store.KeyCollection, []byte("{broken"))
	_ = kv.Put(ctx, store.KeyHistory, []byte(`[{"id":1}]`))

	h := newHarness(t, Options{Snapshots: store.NewSnapshots(kv)})
	items := h.m.Items()
	defaults := prize.Defaults()
	if len(items) != len(defaults) || items[0].Name != defaults[0].Name {
		t.Fatalf("expected default prizes, got %+v", items)
	}
	if n := len(h.m.History()); n != 0 {
		t.Fatalf("expected empty history, got %d", n)
	}
}

func TestBlankVisualEditKeepsSavedCollection(t *testing.T) {
	snaps := store.NewSnapshots(store.NewMemory())

	h := newHarness(t, Options{Snapshots: snaps})
	name := "Kept edit"
	h.m.UpdateItem("2", prize.Patch{Name: &name})
	h.m.UpdateItem("3", prize.Patch{Visual: prize.Symbol{Code: ""}})

	again := newHarness(t, Options{Snapshots: snaps})
	it, ok := findItem(again.m.Items(), "2")
	if !ok || it.Name != "Kept edit" {
		t.Fatalf("earlier edit lost after restart: %+v", it)
	}
	if it, _ := findItem(again.m.Items(), "3"); it.Visual != prize.DefaultSymbol {
		t.Fatalf("blank symbol stored as %#v", it.Visual)
	}
}

func TestLikedListsOnlyLikedPrizes(t *testing.T) {
	h := newHarness(t, Options{})
	if n := len(h.m.Liked()); n != 0 {
		t.Fatalf("expected nothing liked, got %d", n)
	}

	h.m.ToggleLiked("4")
	h.m.ToggleLiked("2")
	liked := h.m.Liked()
	if len(liked) != 2 || liked[0].Id != "2" || liked[1].Id != "4" {
		t.Fatalf("expected prizes 2 and 4 in machine order, got %+v", liked)
	}

	h.m.ToggleLiked("2")
	if liked := h.m.Liked(); len(liked) != 1 || liked[0].Id != "4" {
		t.Fatalf("unlike not reflected: %+v", liked)
	}
}

func findItem(items []prize.Item, id string) (prize.Item, bool) {
	for _, it := range items {
		if it.Id == id {
			return it, true
		}
	}
	return prize.Item{}, false
}

func TestHistoryEditing(t *testing.T) {
	h := newHarness(t, Options{})
	for i := 0; i < 3; i++ {
		h.toMoving()
		h.finishRound()
		h.m.Reset()
	}

	recs := h.m.History()
	if !h.m.DeleteRecord(recs[1].Id) {
		t.Fatal("delete failed")
	}
	left := h.m.History()
	if len(left) != 2 || left[0].Id != recs[0].Id || left[1].Id != recs[2].Id {
		t.Fatalf("delete removed the wrong record: %+v", left)
	}

	h.m.ClearHistory()
	if n := len(h.m.History()); n != 0 {
		t.Fatalf("clear left %d records", n)
	}
}

func TestStartAsKeepsRunningPlayer(t *testing.T) {
	h := newHarness(t, Options{})
	if !h.m.StartAs(history.Session{Player: "first"}) {
		t.Fatal("start refused")
	}
	if h.m.StartAs(history.Session{Player: "second"}) {
		t.Fatal("second start honoured")
	}
	if got := h.m.Session().Player; got != "first" {
		t.Fatalf("session switched mid-round to %q", got)
	}
}

func TestNewRequiresScheduler(t *testing.T) {
	if _, err := New(context.Background(), Options{}); err == nil {
		t.Fatal("expected error without scheduler")
	}
}
