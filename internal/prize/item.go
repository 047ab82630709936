package prize

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Item is one prize sitting in the machine.
type Item struct {
	Id     string
	Name   string
	Visual Visual
	Color  int // embed accent, 0xRRGGBB
	Liked  bool
}

// Clone returns a copy that shares nothing with the original.
func (it Item) Clone() Item {
	it.Visual = cloneVisual(it.Visual)
	return it
}

type itemJSON struct {
	Id     string    `json:"id"`
	Name   string    `json:"name"`
	Visual VisualDoc `json:"visual"`
	Color  int       `json:"color"`
	Liked  bool      `json:"liked"`
}

func (it Item) MarshalJSON() ([]byte, error) {
	doc, err := EncodeVisual(it.Visual)
	if err != nil {
		return nil, err
	}
	return json.Marshal(itemJSON{Id: it.Id, Name: it.Name, Visual: doc, Color: it.Color, Liked: it.Liked})
}

func (it *Item) UnmarshalJSON(b []byte) error {
	var raw itemJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := DecodeVisual(raw.Visual)
	if err != nil {
		return err
	}
	*it = Item{Id: raw.Id, Name: raw.Name, Visual: v, Color: raw.Color, Liked: raw.Liked}
	return nil
}

// Patch lists the fields an update replaces; nil fields are left alone.
type Patch struct {
	Name   *string
	Visual Visual
	Color  *int
	Liked  *bool
}

func (p Patch) apply(it *Item) {
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Visual != nil {
		it.Visual = storable(p.Visual)
	}
	if p.Color != nil {
		it.Color = *p.Color
	}
	if p.Liked != nil {
		it.Liked = *p.Liked
	}
}

// Favorite is a snapshot of an Item kept apart from the machine. Editing
// or removing the source item does not touch it.
type Favorite struct {
	Id       string
	SourceId string
	Name     string
	Visual   Visual
	Color    int
	SavedAt  time.Time
}

type favoriteJSON struct {
	Id       string    `json:"id"`
	SourceId string    `json:"sourceId"`
	Name     string    `json:"name"`
	Visual   VisualDoc `json:"visual"`
	Color    int       `json:"color"`
	SavedAt  int64     `json:"savedAt"`
}

func (f Favorite) MarshalJSON() ([]byte, error) {
	doc, err := EncodeVisual(f.Visual)
	if err != nil {
		return nil, err
	}
	return json.Marshal(favoriteJSON{
		Id:       f.Id,
		SourceId: f.SourceId,
		Name:     f.Name,
		Visual:   doc,
		Color:    f.Color,
		SavedAt:  f.SavedAt.Unix(),
	})
}

func (f *Favorite) UnmarshalJSON(b []byte) error {
	var raw favoriteJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := DecodeVisual(raw.Visual)
	if err != nil {
		return err
	}
	*f = Favorite{
		Id:       raw.Id,
		SourceId: raw.SourceId,
		Name:     raw.Name,
		Visual:   v,
		Color:    raw.Color,
		SavedAt:  time.Unix(raw.SavedAt, 0).UTC(),
	}
	return nil
}

func newId() string { return uuid.NewString() }
