package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/faideww/claw-machine/internal/history"
	"github.com/faideww/claw-machine/internal/prize"
)

// Snapshots reads and writes the game's typed state through a KV.
// Anything that cannot be read back is reported as absent so the caller
// falls back to defaults. A nil *Snapshots stores nothing.
type Snapshots struct {
	kv KV
}

func NewSnapshots(kv KV) *Snapshots {
	return &Snapshots{kv: kv}
}

func (s *Snapshots) LoadCollection(ctx context.Context) ([]prize.Item, bool) {
	var items []prize.Item
	if !s.load(ctx, KeyCollection, &items) || len(items) == 0 {
		return nil, false
	}

	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.Id == "" || seen[it.Id] {
			log.Printf("discarding %s snapshot: bad or duplicate id %q", KeyCollection, it.Id)
			return nil, false
		}
		seen[it.Id] = true
	}
	return items, true
}

func (s *Snapshots) SaveCollection(ctx context.Context, items []prize.Item) error {
	return s.save(ctx, KeyCollection, items)
}

func (s *Snapshots) LoadHistory(ctx context.Context) ([]history.Record, bool) {
	var records []history.Record
	if !s.load(ctx, KeyHistory, &records) {
		return nil, false
	}
	return records, true
}

func (s *Snapshots) SaveHistory(ctx context.Context, records []history.Record) error {
	return s.save(ctx, KeyHistory, records)
}

func (s *Snapshots) LoadFavorites(ctx context.Context) ([]prize.Favorite, bool) {
	var favs []prize.Favorite
	if !s.load(ctx, KeyFavorites, &favs) {
		return nil, false
	}
	return favs, true
}

func (s *Snapshots) SaveFavorites(ctx context.Context, favs []prize.Favorite) error {
	return s.save(ctx, KeyFavorites, favs)
}

func (s *Snapshots) LoadSession(ctx context.Context) (history.Session, bool) {
	var sess history.Session
	if !s.load(ctx, KeySession, &sess) {
		return history.Session{}, false
	}
	return sess, true
}

func (s *Snapshots) SaveSession(ctx context.Context, sess history.Session) error {
	return s.save(ctx, KeySession, sess)
}

func (s *Snapshots) ClearSession(ctx context.Context) error {
	if s == nil || s.kv == nil {
		return nil
	}
	return s.kv.Delete(ctx, KeySession)
}

func (s *Snapshots) load(ctx context.Context, key string, v any) bool {
	if s == nil || s.kv == nil {
		return false
	}

	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		log.Printf("failed to read %s: %v", key, err)
		return false
	}
	if !ok {
		return false
	}

	if err := json.Unmarshal(raw, v); err != nil {
		log.Printf("discarding malformed %s snapshot: %v", key, err)
		return false
	}
	return true
}

func (s *Snapshots) save(ctx context.Context, key string, v any) error {
	if s == nil || s.kv == nil {
		return nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
