package l3objects

import (
	"github.com/banshee-data/particle.report/internal/particle/l1grid"
	"github.com/banshee-data/particle.report/internal/particle/l2tracks"
)

// Tally counts particles by type. Every PartType is present in the result,
// zero counts included.
func Tally(particles []*Particle, g *l1grid.Grid) map[PartType]int {
	counts := make(map[PartType]int, len(AllPartTypes))
	for _, pt := range AllPartTypes {
		counts[pt] = 0
	}
	for _, p := range particles {
		counts[p.ParticleType(g)]++
	}
	return counts
}

// Summary is the read-only view of a classified particle handed to the
// presentation and storage layers. Roundness and Winding are nil unless the
// classifier (or an earlier caller) needed them.
type Summary struct {
	ID          l2tracks.TrackID `json:"id"`
	Type        PartType         `json:"type"`
	Size        int              `json:"size"`
	TotalEnergy float64          `json:"total_energy"`
	AvgEnergy   float64          `json:"avg_energy"`
	MaxEnergy   float64          `json:"max_energy"`
	Roundness   *float64         `json:"roundness,omitempty"`
	Winding     *float64         `json:"winding,omitempty"`
	Coords      []l1grid.Coord   `json:"coords,omitempty"`
}

// Summarize classifies p and reports its features without forcing geometry
// the classifier skipped. withCoords controls whether the track is copied.
func (p *Particle) Summarize(g *l1grid.Grid, withCoords bool) Summary {
	s := Summary{
		ID:          p.id,
		Type:        p.ParticleType(g),
		Size:        p.Size(),
		TotalEnergy: p.TotalEnergy(g),
		AvgEnergy:   p.AvgEnergy(g),
		MaxEnergy:   p.MaxEnergy(g),
	}
	if v, ok := p.CachedRoundness(); ok {
		s.Roundness = &v
	}
	if v, ok := p.CachedWinding(); ok {
		s.Winding = &v
	}
	if withCoords {
		s.Coords = p.Track()
	}
	return s
}

// Detail is Summarize with every geometric feature computed and the track
// included, for single-track inspection.
func (p *Particle) Detail(g *l1grid.Grid) Summary {
	r, w := p.Roundness(), p.Winding()
	s := p.Summarize(g, true)
	s.Roundness, s.Winding = &r, &w
	return s
}
