package l3objects

import (
	"slices"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/particle.report/internal/particle/l1grid"
	"github.com/banshee-data/particle.report/internal/particle/l2tracks"
)

// cached is a compute-once slot.
type cached[T any] struct {
	ok  bool
	val T
}

func (c *cached[T]) get(compute func() T) T {
	if !c.ok {
		c.val = compute()
		c.ok = true
	}
	return c.val
}

func (c *cached[T]) peek() (T, bool) {
	return c.val, c.ok
}

// evalCounts records how many times each cached feature was computed.
type evalCounts struct {
	totalEnergy, roundness, winding, partType int
}

// Particle wraps one extracted track and derives its features on demand.
//
// TotalEnergy, Roundness, Winding and ParticleType are each computed at most
// once and reused for the record's lifetime; MaxEnergy is recomputed on every
// call. The energy accessors take the grid the track was extracted from and
// cache against the first grid they see.
//
// All accessors are safe for concurrent use; a per-record mutex serialises
// cache fills.
type Particle struct {
	id    l2tracks.TrackID
	track []l1grid.Coord

	mu          sync.Mutex
	totalEnergy cached[float64]
	roundness   cached[float64]
	winding     cached[float64]
	partType    cached[PartType]
	evals       evalCounts
}

// NewParticle wraps track, which must be non-empty and in extraction order.
func NewParticle(id l2tracks.TrackID, track []l1grid.Coord) *Particle {
	return &Particle{id: id, track: track}
}

// FromTracks builds one Particle per track, ordered by track id.
func FromTracks(tracks map[l2tracks.TrackID][]l1grid.Coord) []*Particle {
	ids := l2tracks.SortedIDs(tracks)
	out := make([]*Particle, len(ids))
	for i, id := range ids {
		out[i] = NewParticle(id, tracks[id])
	}
	return out
}

// ID returns the extractor's track id.
func (p *Particle) ID() l2tracks.TrackID { return p.id }

// Track returns a copy of the coordinates in extraction order.
func (p *Particle) Track() []l1grid.Coord { return slices.Clone(p.track) }

// Size returns the number of cells in the track.
func (p *Particle) Size() int { return len(p.track) }

// TotalEnergy returns the summed energy of the track's cells.
func (p *Particle) TotalEnergy(g *l1grid.Grid) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalEnergyLocked(g)
}

// MaxEnergy returns the highest cell energy in the track. It is not cached.
func (p *Particle) MaxEnergy(g *l1grid.Grid) float64 {
	return maxEnergy(g, p.track)
}

// AvgEnergy returns TotalEnergy divided by Size.
func (p *Particle) AvgEnergy(g *l1grid.Grid) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.avgEnergyLocked(g)
}

// Roundness returns the isoperimetric quotient of the track's convex hull.
func (p *Particle) Roundness() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.roundnessLocked()
}

// Winding returns the normalised total turning angle of the track path.
func (p *Particle) Winding() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.windingLocked()
}

// ParticleType classifies the track, pulling only the features the decision
// path needs.
func (p *Particle) ParticleType(g *l1grid.Grid) PartType {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.partType.get(func() PartType {
		p.evals.partType++
		return Classify(lockedFeatures{p: p, g: g})
	})
}

// CachedRoundness returns the roundness if it has already been computed.
func (p *Particle) CachedRoundness() (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.roundness.peek()
}

// CachedWinding returns the winding if it has already been computed.
func (p *Particle) CachedWinding() (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.winding.peek()
}

func (p *Particle) totalEnergyLocked(g *l1grid.Grid) float64 {
	return p.totalEnergy.get(func() float64 {
		p.evals.totalEnergy++
		return floats.Sum(g.Values(p.track))
	})
}

func (p *Particle) avgEnergyLocked(g *l1grid.Grid) float64 {
	return p.totalEnergyLocked(g) / float64(len(p.track))
}

func (p *Particle) roundnessLocked() float64 {
	return p.roundness.get(func() float64 {
		p.evals.roundness++
		return Roundness(p.track)
	})
}

func (p *Particle) windingLocked() float64 {
	return p.winding.get(func() float64 {
		p.evals.winding++
		return Winding(p.track)
	})
}

// maxEnergy folds from zero, so an all-zero track reports 0.
func maxEnergy(g *l1grid.Grid, track []l1grid.Coord) float64 {
	if len(track) == 0 {
		return 0
	}
	return max(0, floats.Max(g.Values(track)))
}

// lockedFeatures feeds the classifier from a Particle whose mutex is held.
type lockedFeatures struct {
	p *Particle
	g *l1grid.Grid
}

func (f lockedFeatures) Size() int          { return len(f.p.track) }
func (f lockedFeatures) MaxEnergy() float64 { return maxEnergy(f.g, f.p.track) }
func (f lockedFeatures) AvgEnergy() float64 { return f.p.avgEnergyLocked(f.g) }
func (f lockedFeatures) Roundness() float64 { return f.p.roundnessLocked() }
func (f lockedFeatures) Winding() float64   { return f.p.windingLocked() }
