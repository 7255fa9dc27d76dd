package l3objects

import (
	"cmp"
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/banshee-data/particle.report/internal/particle/l1grid"
)

// toPoints maps cells onto the plane with x = column and y = row.
func toPoints(track []l1grid.Coord) []orb.Point {
	pts := make([]orb.Point, len(track))
	for i, c := range track {
		pts[i] = orb.Point{float64(c.Col), float64(c.Row)}
	}
	return pts
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

// ConvexHull returns the convex hull of points as a closed counter-clockwise
// ring (first point repeated at the end), using the monotone chain
// construction. Collinear boundary points are dropped. Fewer than three
// non-collinear points yield a ring with fewer than four entries.
func ConvexHull(points []orb.Point) orb.Ring {
	pts := slices.Clone(points)
	slices.SortFunc(pts, func(a, b orb.Point) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		return cmp.Compare(a[1], b[1])
	})
	pts = slices.Compact(pts)
	if len(pts) < 3 {
		return orb.Ring(pts)
	}

	hull := make([]orb.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// The last point pushed is pts[0], which closes the ring.
	return orb.Ring(hull)
}

// Roundness returns the isoperimetric quotient 4πA/P² of the convex hull of
// track. A hull with no area or no perimeter has roundness 0.
func Roundness(track []l1grid.Coord) float64 {
	hull := ConvexHull(toPoints(track))
	if len(hull) < 4 {
		return 0
	}
	area := math.Abs(planar.Area(hull))
	perimeter := planar.Length(hull)
	if perimeter == 0 {
		return 0
	}
	return 4 * math.Pi * area / (perimeter * perimeter)
}

// Winding returns the magnitude of the summed signed turning angle along the
// polyline through track, in the given order, divided by 2π. Each interior
// point contributes atan2(cross, dot) of its incoming and outgoing edges.
// Tracks of fewer than three points have winding 0.
func Winding(track []l1grid.Coord) float64 {
	if len(track) < 3 {
		return 0
	}
	pts := toPoints(track)

	var total float64
	for i := 1; i < len(pts)-1; i++ {
		v1x, v1y := pts[i][0]-pts[i-1][0], pts[i][1]-pts[i-1][1]
		v2x, v2y := pts[i+1][0]-pts[i][0], pts[i+1][1]-pts[i][1]
		total += math.Atan2(v1x*v2y-v1y*v2x, v1x*v2x+v1y*v2y)
	}
	return math.Abs(total / (2 * math.Pi))
}
