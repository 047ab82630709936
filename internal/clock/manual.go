package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a virtual-time Scheduler for tests. Nothing runs until
// Advance, Drain or Call is invoked, and everything runs on the caller's
// goroutine.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	tasks  []*manualTask
	posted []func()
}

type manualTask struct {
	due    time.Time
	period time.Duration
	seq    uint64
	fn     func()
	tok    *Token
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) After(d time.Duration, fn func()) *Token {
	return m.schedule(d, 0, fn)
}

func (m *Manual) Every(d time.Duration, fn func()) *Token {
	if d <= 0 {
		d = time.Nanosecond
	}
	return m.schedule(d, d, fn)
}

func (m *Manual) schedule(d, period time.Duration, fn func()) *Token {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok := &Token{}
	m.seq++
	m.tasks = append(m.tasks, &manualTask{
		due:    m.now.Add(d),
		period: period,
		seq:    m.seq,
		fn:     fn,
		tok:    tok,
	})
	return tok
}

func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.posted = append(m.posted, fn)
	m.mu.Unlock()
}

func (m *Manual) Call(fn func()) {
	fn()
	m.Drain()
}

// Drain runs posted callbacks until none are left.
func (m *Manual) Drain() {
	for {
		m.mu.Lock()
		if len(m.posted) == 0 {
			m.mu.Unlock()
			return
		}
		fn := m.posted[0]
		m.posted = m.posted[1:]
		m.mu.Unlock()

		fn()
	}
}

// Advance moves virtual time forward by d, firing every task that falls
// due on the way in due-time order.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	m.Drain()
	for {
		task := m.popDue(target)
		if task == nil {
			break
		}
		task.fn()
		m.Drain()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

// Pending reports how many scheduled tasks are still live.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, t := range m.tasks {
		if !t.tok.Cancelled() {
			n++
		}
	}
	return n
}

func (m *Manual) popDue(target time.Time) *manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.tok.Cancelled() {
			live = append(live, t)
		}
	}
	m.tasks = live

	sort.Slice(m.tasks, func(i, j int) bool {
		if m.tasks[i].due.Equal(m.tasks[j].due) {
			return m.tasks[i].seq < m.tasks[j].seq
		}
		return m.tasks[i].due.Before(m.tasks[j].due)
	})

	if len(m.tasks) == 0 || m.tasks[0].due.After(target) {
		return nil
	}

	t := m.tasks[0]
	m.now = t.due
	if t.period > 0 {
		m.seq++
		next := &manualTask{
			due:    t.due.Add(t.period),
			period: t.period,
			seq:    m.seq,
			fn:     t.fn,
			tok:    t.tok,
		}
		m.tasks[0] = next
	} else {
		m.tasks = m.tasks[1:]
	}

	return &manualTask{fn: guard(t.tok, t.fn)}
}
