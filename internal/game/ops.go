package game

import (
	"log"

	"github.com/faideww/claw-machine/internal/history"
	"github.com/faideww/claw-machine/internal/prize"
)

// Editing operations. Each one runs on the loop and writes the affected
// list through to storage.

func (m *Machine) Items() []prize.Item {
	var out []prize.Item
	m.sched.Call(func() { out = m.collection.List() })
	return out
}

// UpdateItem reports false when no prize has that id.
func (m *Machine) UpdateItem(id string, p prize.Patch) bool {
	var ok bool
	m.sched.Call(func() {
		if ok = m.collection.Update(id, p); ok {
			m.saveCollection()
		}
	})
	return ok
}

func (m *Machine) AddItem(it prize.Item) prize.Item {
	var added prize.Item
	m.sched.Call(func() {
		added = m.collection.Add(it)
		m.saveCollection()
	})
	return added
}

// RemoveItem fails with prize.ErrLastItem rather than empty the machine.
func (m *Machine) RemoveItem(id string) error {
	var err error
	m.sched.Call(func() {
		if err = m.collection.Remove(id); err == nil {
			m.saveCollection()
		}
	})
	return err
}

func (m *Machine) ToggleLiked(id string) (liked bool, ok bool) {
	m.sched.Call(func() {
		if liked, ok = m.collection.ToggleLiked(id); ok {
			m.saveCollection()
		}
	})
	return liked, ok
}

// Liked lists the liked prizes in machine order.
func (m *Machine) Liked() []prize.Item {
	var out []prize.Item
	m.sched.Call(func() { out = m.collection.Liked() })
	return out
}

// SaveFavorite copies the prize into the favorites list.
func (m *Machine) SaveFavorite(id string) (prize.Favorite, bool) {
	var (
		fav prize.Favorite
		ok  bool
	)
	m.sched.Call(func() {
		var it prize.Item
		if it, ok = m.collection.Get(id); !ok {
			return
		}
		fav = m.favorites.Save(it, m.sched.Now())
		m.saveFavorites()
	})
	return fav, ok
}

func (m *Machine) RemoveFavorite(id string) bool {
	var ok bool
	m.sched.Call(func() {
		if ok = m.favorites.Remove(id); ok {
			m.saveFavorites()
		}
	})
	return ok
}

func (m *Machine) Favorites() []prize.Favorite {
	var out []prize.Favorite
	m.sched.Call(func() { out = m.favorites.List() })
	return out
}

func (m *Machine) History() []history.Record {
	var out []history.Record
	m.sched.Call(func() { out = m.history.List() })
	return out
}

func (m *Machine) HistoryCap() int {
	var n int
	m.sched.Call(func() { n = m.history.Cap() })
	return n
}

func (m *Machine) DeleteRecord(id string) bool {
	var ok bool
	m.sched.Call(func() {
		if ok = m.history.Delete(id); ok {
			m.saveHistory()
		}
	})
	return ok
}

func (m *Machine) ClearHistory() {
	m.sched.Call(func() {
		m.history.Clear()
		m.saveHistory()
	})
}

// SignIn sets who future catches are credited to.
func (m *Machine) SignIn(s history.Session) {
	m.sched.Call(func() { m.signIn(s) })
}

func (m *Machine) SignOut() {
	m.sched.Call(func() {
		m.session = history.Session{}
		if err := m.snaps.ClearSession(m.ctx); err != nil {
			log.Printf("failed to clear session: %v", err)
		}
	})
}

func (m *Machine) Session() history.Session {
	var s history.Session
	m.sched.Call(func() { s = m.session })
	return s
}

func (m *Machine) signIn(s history.Session) {
	if s.SignedInAt.IsZero() {
		s.SignedInAt = m.sched.Now()
	}
	m.session = s
	if err := m.snaps.SaveSession(m.ctx, s); err != nil {
		log.Printf("failed to save session: %v", err)
	}
}

func (m *Machine) saveCollection() {
	if err := m.snaps.SaveCollection(m.ctx, m.collection.List()); err != nil {
		log.Printf("failed to save prizes: %v", err)
	}
}

func (m *Machine) saveHistory() {
	if err := m.snaps.SaveHistory(m.ctx, m.history.List()); err != nil {
		log.Printf("failed to save history: %v", err)
	}
}

func (m *Machine) saveFavorites() {
	if err := m.snaps.SaveFavorites(m.ctx, m.favorites.List()); err != nil {
		log.Printf("failed to save favorites: %v", err)
	}
}
