package prize

import (
	"errors"
	mrand "math/rand"
	"time"
)

var (
	ErrLastItem    = errors.New("the machine must keep at least one prize")
	ErrUnknownItem = errors.New("unknown prize")
)

// Collection is the ordered set of prizes in the machine. It is not safe
// for concurrent use; the game loop owns it.
type Collection struct {
	items []Item
}

// NewCollection copies items, giving an id to any that lack one. An empty
// list falls back to Defaults.
func NewCollection(items []Item) *Collection {
	if len(items) == 0 {
		items = Defaults()
	}
	c := &Collection{items: make([]Item, 0, len(items))}
	for _, it := range items {
		c.Add(it)
	}
	return c
}

func (c *Collection) List() []Item {
	out := make([]Item, len(c.items))
	for i, it := range c.items {
		out[i] = it.Clone()
	}
	return out
}

func (c *Collection) Len() int { return len(c.items) }

func (c *Collection) Get(id string) (Item, bool) {
	i := c.index(id)
	if i < 0 {
		return Item{}, false
	}
	return c.items[i].Clone(), true
}

// Update applies p to the item with the given id and reports whether it
// was found.
func (c *Collection) Update(id string, p Patch) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	p.apply(&c.items[i])
	return true
}

// Add appends it and returns the stored copy.
func (c *Collection) Add(it Item) Item {
	it = it.Clone()
	if it.Id == "" || c.index(it.Id) >= 0 {
		it.Id = newId()
	}
	it.Visual = storable(it.Visual)
	c.items = append(c.items, it)
	return it.Clone()
}

func (c *Collection) Remove(id string) error {
	i := c.index(id)
	if i < 0 {
		return ErrUnknownItem
	}
	if len(c.items) <= 1 {
		return ErrLastItem
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return nil
}

// Shuffle reorders the prizes at random.
func (c *Collection) Shuffle(rng *mrand.Rand) {
	if rng == nil {
		rng = NewRand()
	}
	rng.Shuffle(len(c.items), func(i, j int) {
		c.items[i], c.items[j] = c.items[j], c.items[i]
	})
}

// ToggleLiked flips the liked flag and returns its new value.
func (c *Collection) ToggleLiked(id string) (liked bool, ok bool) {
	i := c.index(id)
	if i < 0 {
		return false, false
	}
	c.items[i].Liked = !c.items[i].Liked
	return c.items[i].Liked, true
}

func (c *Collection) Liked() []Item {
	var out []Item
	for _, it := range c.items {
		if it.Liked {
			out = append(out, it.Clone())
		}
	}
	return out
}

func (c *Collection) index(id string) int {
	for i := range c.items {
		if c.items[i].Id == id {
			return i
		}
	}
	return -1
}

// Favorites is the separately kept list of saved snapshots.
type Favorites struct {
	list []Favorite
}

func NewFavorites(list []Favorite) *Favorites {
	f := &Favorites{list: make([]Favorite, 0, len(list))}
	for _, fav := range list {
		fav.Visual = cloneVisual(fav.Visual)
		f.list = append(f.list, fav)
	}
	return f
}

// Save stores a snapshot of it under a fresh id.
func (f *Favorites) Save(it Item, now time.Time) Favorite {
	fav := Favorite{
		Id:       newId(),
		SourceId: it.Id,
		Name:     it.Name,
		Visual:   cloneVisual(it.Visual),
		Color:    it.Color,
		SavedAt:  now,
	}
	f.list = append(f.list, fav)
	return fav
}

func (f *Favorites) Remove(id string) bool {
	for i := range f.list {
		if f.list[i].Id == id {
			f.list = append(f.list[:i], f.list[i+1:]...)
			return true
		}
	}
	return false
}

func (f *Favorites) List() []Favorite {
	out := make([]Favorite, len(f.list))
	for i, fav := range f.list {
		fav.Visual = cloneVisual(fav.Visual)
		out[i] = fav
	}
	return out
}
