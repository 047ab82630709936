// Package history keeps the record of past catches, newest first.
package history

import (
	"encoding/json"
	"time"

	"github.com/faideww/claw-machine/internal/prize"
	"github.com/google/uuid"
)

const DefaultCap = 20

// Session says who is at the machine. Records copy it for attribution.
type Session struct {
	Player     string    `json:"player"`
	Device     string    `json:"device"`
	SignedInAt time.Time `json:"signedInAt"`
}

func (s Session) IsGuest() bool { return s.Player == "" }

// Record is one catch. Name and visual are copied at catch time so later
// edits to the prize do not rewrite history.
type Record struct {
	Id       string
	ItemName string
	Visual   prize.Visual
	CaughtAt time.Time
	Player   string
	Device   string
}

// NewRecord snapshots it as caught at now by s.
func NewRecord(it prize.Item, now time.Time, s Session) Record {
	player, device := s.Player, s.Device
	if player == "" {
		player = "Guest"
	}
	if device == "" {
		device = "local"
	}
	return Record{
		Id:       uuid.NewString(),
		ItemName: it.Name,
		Visual:   it.Clone().Visual,
		CaughtAt: now,
		Player:   player,
		Device:   device,
	}
}

type recordJSON struct {
	Id       string          `json:"id"`
	ItemName string          `json:"itemName"`
	Visual   prize.VisualDoc `json:"visual"`
	CaughtAt int64           `json:"caughtAt"`
	Player   string          `json:"player"`
	Device   string          `json:"device"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	doc, err := prize.EncodeVisual(r.Visual)
	if err != nil {
		return nil, err
	}
	return json.Marshal(recordJSON{
		Id:       r.Id,
		ItemName: r.ItemName,
		Visual:   doc,
		CaughtAt: r.CaughtAt.UnixMilli(),
		Player:   r.Player,
		Device:   r.Device,
	})
}

func (r *Record) UnmarshalJSON(b []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := prize.DecodeVisual(raw.Visual)
	if err != nil {
		return err
	}
	*r = Record{
		Id:       raw.Id,
		ItemName: raw.ItemName,
		Visual:   v,
		CaughtAt: time.UnixMilli(raw.CaughtAt).UTC(),
		Player:   raw.Player,
		Device:   raw.Device,
	}
	return nil
}

// Log is append-only from the game's side and bounded: once full, the
// oldest record is dropped. Not safe for concurrent use.
type Log struct {
	limit   int
	records []Record
}

// NewLog seeds the log with records (newest first), keeping at most limit.
func NewLog(limit int, records []Record) *Log {
	if limit <= 0 {
		limit = DefaultCap
	}
	if len(records) > limit {
		records = records[:limit]
	}
	l := &Log{limit: limit, records: make([]Record, len(records), limit)}
	copy(l.records, records)
	return l
}

func (l *Log) Cap() int { return l.limit }

func (l *Log) Len() int { return len(l.records) }

// Append puts r at the front and returns any record that fell off the end.
func (l *Log) Append(r Record) (evicted *Record) {
	if len(l.records) == l.limit {
		last := l.records[len(l.records)-1]
		evicted = &last
		l.records = l.records[:len(l.records)-1]
	}
	l.records = append(l.records, Record{})
	copy(l.records[1:], l.records)
	l.records[0] = r
	return evicted
}

func (l *Log) List() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Delete removes the record with id and reports whether it existed.
func (l *Log) Delete(id string) bool {
	for i := range l.records {
		if l.records[i].Id == id {
			l.records = append(l.records[:i], l.records[i+1:]...)
			return true
		}
	}
	return false
}

func (l *Log) Clear() {
	l.records = l.records[:0]
}
