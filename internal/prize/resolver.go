package prize

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	mrand "math/rand"
	"time"
)

// Resolver decides which prize the claw grabbed when it reached the floor
// at horizontal position x.
type Resolver interface {
	Resolve(items []Item, x float64) (Item, bool)
}

// DefaultZones are the centres of the five prize slots on the cabinet floor.
var DefaultZones = []float64{15, 32, 50, 68, 85}

// ZoneLayout returns slot centres for n prizes. Five prizes use
// DefaultZones; other counts are spread evenly over the same span.
func ZoneLayout(n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{50}
	case n == len(DefaultZones):
		return append([]float64(nil), DefaultZones...)
	}

	lo, hi := DefaultZones[0], DefaultZones[len(DefaultZones)-1]
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

// ZoneResolver picks the prize whose slot centre is nearest the claw.
// Ties go to the earlier slot. Outcome depends only on when the player
// pressed stop.
type ZoneResolver struct {
	// Zones overrides the layout; ignored unless it has one entry per item.
	Zones []float64
	// Reach is how far from a slot centre the claw may land and still
	// grab it. Zero means any distance.
	Reach float64
}

func (r ZoneResolver) Resolve(items []Item, x float64) (Item, bool) {
	if len(items) == 0 {
		return Item{}, false
	}

	zones := r.Zones
	if len(zones) != len(items) {
		zones = ZoneLayout(len(items))
	}

	best, bestDist := 0, math.Inf(1)
	for i, centre := range zones {
		if d := math.Abs(x - centre); d < bestDist {
			best, bestDist = i, d
		}
	}

	if r.Reach > 0 && bestDist > r.Reach {
		return Item{}, false
	}
	return items[best].Clone(), true
}

// RandomResolver ignores the claw and picks uniformly, so every round wins.
type RandomResolver struct {
	rng *mrand.Rand
}

func NewRandomResolver(rng *mrand.Rand) *RandomResolver {
	if rng == nil {
		rng = NewRand()
	}
	return &RandomResolver{rng: rng}
}

func (r *RandomResolver) Resolve(items []Item, _ float64) (Item, bool) {
	if len(items) == 0 {
		return Item{}, false
	}
	return items[r.rng.Intn(len(items))].Clone(), true
}

// NewRand returns a generator seeded from crypto/rand, falling back to the
// wall clock.
func NewRand() *mrand.Rand {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return mrand.New(mrand.NewSource(time.Now().UnixNano()))
	}
	return mrand.New(mrand.NewSource(int64(binary.LittleEndian.Uint64(b[:]))))
}
