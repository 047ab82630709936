package game

import (
	"context"
	"log"

	"github.com/faideww/claw-machine/internal/announcer"
)

// announce asks for a line without holding up the round. Only the newest
// request may update the display; the one before it is cancelled.
func (m *Machine) announce(kind announcer.Kind, itemName string) {
	if m.inflight != nil {
		m.inflight()
	}
	m.announceSeq++
	seq := m.announceSeq

	ctx, cancel := context.WithTimeout(m.ctx, m.announceTimeout)
	m.inflight = cancel

	a := m.announcer
	m.spawn(func() {
		defer cancel()
		text, err := a.Announce(ctx, kind, itemName)
		if err != nil {
			log.Printf("announcer %s failed, using fallback: %v", kind, err)
			text = announcer.Fallback(kind)
		}
		m.sched.Post(func() { m.showAnnouncement(kind, seq, text) })
	})
}

func (m *Machine) showAnnouncement(kind announcer.Kind, seq uint64, text string) {
	if m.announceSeq != seq {
		return
	}
	m.inflight = nil

	m.announcement = Announcement{Kind: kind, Text: text, Mood: announcer.MoodFor(kind)}
	m.emit(Event{Kind: Announced, Status: m.status, Announcement: m.announcement})
}
