// Package los decides whether one hex can see another across a set of wall
// hexes, and whether the shot is degraded by cover. Visibility is sampled:
// each hex is represented by nine points and a source point "sees" the target
// when a straight segment from it to any target point dodges every wall
// polygon. The count of seeing source points maps onto three combat states:
//
//	0 of 9  -> blocked
//	1-2     -> visible, in cover
//	3+      -> clear shot
//
// Requiring three clear samples keeps a barely-peeking target from counting
// as fully exposed while tolerating rounding noise at hex edges.
package los

import (
	"math"

	"github.com/hexhammer/skirmish/internal/hexes"
)

// Result is the visibility classification for a pair of hexes.
type Result struct {
	CanSee  bool `json:"canSee"`
	InCover bool `json:"inCover"`
}

// coverThreshold and clearThreshold bound the in-cover band of source-sample
// counts. See the package comment for the rationale.
const clearThreshold = 3

// Between classifies visibility from one hex to another across the given
// wall hexes. It is pure: callers may invoke it as often as they like.
func Between(from, to hexes.Hex, walls map[hexes.Hex]bool) Result {
	if len(walls) == 0 {
		return Result{CanSee: true, InCover: false}
	}

	src := hexes.SamplePoints(from)
	dst := hexes.SamplePoints(to)

	// Only walls near the corridor between the two hexes can intersect a
	// sample segment; prune the rest up front.
	polys := wallPolygons(from, to, walls)
	if len(polys) == 0 {
		return Result{CanSee: true, InCover: false}
	}

	seeing := 0
	for _, s := range src {
		for _, d := range dst {
			if segmentClear(s, d, polys) {
				seeing++
				break
			}
		}
	}
	return classify(seeing)
}

func classify(seeing int) Result {
	switch {
	case seeing == 0:
		return Result{CanSee: false, InCover: false}
	case seeing < clearThreshold:
		return Result{CanSee: true, InCover: true}
	default:
		return Result{CanSee: true, InCover: false}
	}
}

// wallPolygons returns the corner polygons of every wall close enough to the
// from-to corridor to matter.
func wallPolygons(from, to hexes.Hex, walls map[hexes.Hex]bool) [][6]hexes.Point {
	a, b := hexes.Center(from), hexes.Center(to)
	minX := math.Min(a.X, b.X) - 2*hexes.Size
	maxX := math.Max(a.X, b.X) + 2*hexes.Size
	minY := math.Min(a.Y, b.Y) - 2*hexes.Size
	maxY := math.Max(a.Y, b.Y) + 2*hexes.Size

	polys := make([][6]hexes.Point, 0, len(walls))
	for w := range walls {
		c := hexes.Center(w)
		if c.X < minX || c.X > maxX || c.Y < minY || c.Y > maxY {
			continue
		}
		polys = append(polys, hexes.Corners(w))
	}
	return polys
}

// segmentClear reports whether the segment a-b misses every wall polygon.
func segmentClear(a, b hexes.Point, polys [][6]hexes.Point) bool {
	for i := range polys {
		if segmentHitsHex(a, b, &polys[i]) {
			return false
		}
	}
	return true
}

// segmentHitsHex reports whether the segment a-b touches the hex polygon:
// either an endpoint lies inside it or the segment crosses one of its edges.
func segmentHitsHex(a, b hexes.Point, corners *[6]hexes.Point) bool {
	if pointInHex(a, corners) || pointInHex(b, corners) {
		return true
	}
	for i := 0; i < 6; i++ {
		if segmentsCross(a, b, corners[i], corners[(i+1)%6]) {
			return true
		}
	}
	return false
}

// pointInHex tests containment in the convex hex polygon by checking that p
// sits on a consistent side of every edge.
func pointInHex(p hexes.Point, corners *[6]hexes.Point) bool {
	sign := 0
	for i := 0; i < 6; i++ {
		q, r := corners[i], corners[(i+1)%6]
		c := cross(q, r, p)
		if c > 0 {
			if sign < 0 {
				return false
			}
			sign = 1
		} else if c < 0 {
			if sign > 0 {
				return false
			}
			sign = -1
		}
	}
	return true
}

// cross returns the z component of (b-a) x (p-a).
func cross(a, b, p hexes.Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// segmentsCross reports whether segments p1-p2 and q1-q2 intersect,
// collinear overlaps included.
func segmentsCross(p1, p2, q1, q2 hexes.Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if d1 == 0 && onSegment(q1, q2, p1) {
		return true
	}
	if d2 == 0 && onSegment(q1, q2, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, q1) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, q2) {
		return true
	}
	return false
}

// onSegment assumes p is collinear with a-b and reports whether it lies
// within the segment's bounding box.
func onSegment(a, b, p hexes.Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}
