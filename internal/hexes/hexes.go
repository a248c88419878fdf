// Package hexes provides the hex coordinate math the rest of the engine is
// built on: offset/cube conversion, grid distance, neighbors, and the
// flat-topped pixel geometry used for line-of-sight sampling.
package hexes

import "math"

// Hex is an offset coordinate on a flat-topped hex grid. Col is the file,
// Row the rank. Odd columns are shifted half a hex down.
type Hex struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Cube is the cube-coordinate form of a hex. Invariant: X+Y+Z == 0.
type Cube struct {
	X, Y, Z int
}

// ToCube converts an offset coordinate to cube coordinates.
func ToCube(h Hex) Cube {
	x := h.Col
	z := h.Row - ((h.Col - (h.Col & 1)) >> 1)
	return Cube{X: x, Y: -x - z, Z: z}
}

// FromCube converts cube coordinates back to the offset form.
func FromCube(c Cube) Hex {
	return Hex{Col: c.X, Row: c.Z + ((c.X - (c.X & 1)) >> 1)}
}

// Distance returns the hex-grid distance between a and b: the minimum number
// of adjacent-hex steps. Computed as the Chebyshev distance in cube space.
func Distance(a, b Hex) int {
	ac, bc := ToCube(a), ToCube(b)
	dx := abs(ac.X - bc.X)
	dy := abs(ac.Y - bc.Y)
	dz := abs(ac.Z - bc.Z)
	d := dx
	if dy > d {
		d = dy
	}
	if dz > d {
		d = dz
	}
	return d
}

// Adjacent reports whether a and b are exactly one step apart.
func Adjacent(a, b Hex) bool { return Distance(a, b) == 1 }

// cubeDirections are the six unit steps in cube space.
var cubeDirections = [6]Cube{
	{1, -1, 0}, {1, 0, -1}, {0, 1, -1},
	{-1, 1, 0}, {-1, 0, 1}, {0, -1, 1},
}

// Neighbors returns the six hexes adjacent to h, in no particular order.
// Callers bound-check against the board themselves.
func Neighbors(h Hex) [6]Hex {
	c := ToCube(h)
	var out [6]Hex
	for i, d := range cubeDirections {
		out[i] = FromCube(Cube{X: c.X + d.X, Y: c.Y + d.Y, Z: c.Z + d.Z})
	}
	return out
}

// ========================= Pixel geometry =========================
// The LOS engine works on pixel-space sample points, so the hex layout math
// lives here next to the coordinates it derives from. Size is the hex radius
// (center to corner); any positive value gives identical LOS results since
// everything below scales linearly with it.

// Size is the hex radius in pixels.
const Size = 32.0

// sampleRadius is where the outer LOS sample ring sits, as a fraction of Size.
const sampleRadius = 0.8

var sqrt3 = math.Sqrt(3)

// Point is a pixel-space position.
type Point struct {
	X, Y float64
}

// Center returns the pixel center of h. Flat-topped layout: columns advance
// by 1.5*Size in x, odd columns sit half a row lower.
func Center(h Hex) Point {
	return Point{
		X: Size * 1.5 * float64(h.Col),
		Y: Size * sqrt3 * (float64(h.Row) + 0.5*float64(h.Col&1)),
	}
}

// Corners returns the six corners of h's polygon, counter-clockwise starting
// at the rightmost corner.
func Corners(h Hex) [6]Point {
	c := Center(h)
	var out [6]Point
	for i := 0; i < 6; i++ {
		a := math.Pi / 3 * float64(i)
		out[i] = Point{X: c.X + Size*math.Cos(a), Y: c.Y + Size*math.Sin(a)}
	}
	return out
}

// SamplePoints returns the nine LOS sample points for h: the center plus
// eight points 45 degrees apart at 80% of the hex radius.
func SamplePoints(h Hex) [9]Point {
	c := Center(h)
	out := [9]Point{c}
	for i := 0; i < 8; i++ {
		a := math.Pi / 4 * float64(i)
		out[i+1] = Point{
			X: c.X + Size*sampleRadius*math.Cos(a),
			Y: c.Y + Size*sampleRadius*math.Sin(a),
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
