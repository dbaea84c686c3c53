package valueobjects

import (
	"math"

	pkgerrors "matflow/pkg/errors"
)

// Position is a value object representing node coordinates on the canvas
type Position struct {
	x float64
	y float64
}

// NewPosition creates a position with validation
func NewPosition(x, y float64) (Position, error) {
	if !isValidCoordinate(x) || !isValidCoordinate(y) {
		return Position{}, pkgerrors.NewValidationError("invalid coordinates: must be finite numbers")
	}
	return Position{x: x, y: y}, nil
}

// Pos is NewPosition for coordinates already known to be finite.
func Pos(x, y float64) Position {
	return Position{x: x, y: y}
}

// X returns the X coordinate
func (p Position) X() float64 {
	return p.x
}

// Y returns the Y coordinate
func (p Position) Y() float64 {
	return p.y
}

// Translate moves the position by the given offsets
func (p Position) Translate(dx, dy float64) Position {
	return Position{x: p.x + dx, y: p.y + dy}
}

// DistanceTo calculates the Euclidean distance to another position
func (p Position) DistanceTo(other Position) float64 {
	return math.Hypot(p.x-other.x, p.y-other.y)
}

// Equals checks if two positions are equal
func (p Position) Equals(other Position) bool {
	const epsilon = 1e-9
	return math.Abs(p.x-other.x) < epsilon && math.Abs(p.y-other.y) < epsilon
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Position) IsFinite() bool {
	return isValidCoordinate(p.x) && isValidCoordinate(p.y)
}

func isValidCoordinate(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Bounds is an axis-aligned rectangle in canvas coordinates.
type Bounds struct {
	minX, minY float64
	maxX, maxY float64
}

// NewBounds creates bounds from two corners in any order.
func NewBounds(x1, y1, x2, y2 float64) Bounds {
	return Bounds{
		minX: math.Min(x1, x2),
		minY: math.Min(y1, y2),
		maxX: math.Max(x1, x2),
		maxY: math.Max(y1, y2),
	}
}

// ViewportBounds returns the rectangle [0,w]x[0,h].
func ViewportBounds(width, height float64) Bounds {
	return NewBounds(0, 0, width, height)
}

func (b Bounds) MinX() float64   { return b.minX }
func (b Bounds) MinY() float64   { return b.minY }
func (b Bounds) MaxX() float64   { return b.maxX }
func (b Bounds) MaxY() float64   { return b.maxY }
func (b Bounds) Width() float64  { return b.maxX - b.minX }
func (b Bounds) Height() float64 { return b.maxY - b.minY }

// Contains reports whether p lies inside b, edges included.
func (b Bounds) Contains(p Position) bool {
	return p.x >= b.minX && p.x <= b.maxX && p.y >= b.minY && p.y <= b.maxY
}

// Clamp returns the point of b closest to p.
func (b Bounds) Clamp(p Position) Position {
	return Position{
		x: math.Max(b.minX, math.Min(b.maxX, p.x)),
		y: math.Max(b.minY, math.Min(b.maxY, p.y)),
	}
}

// Inset shrinks b by d on every side. Bounds never invert; an oversized inset
// collapses to the centre.
func (b Bounds) Inset(d float64) Bounds {
	cx, cy := (b.minX+b.maxX)/2, (b.minY+b.maxY)/2
	return Bounds{
		minX: math.Min(b.minX+d, cx),
		minY: math.Min(b.minY+d, cy),
		maxX: math.Max(b.maxX-d, cx),
		maxY: math.Max(b.maxY-d, cy),
	}
}

// ClampDelta limits a displacement so that every point in ps, moved by
// (dx, dy), stays inside b. Points already outside b are not pulled back.
func (b Bounds) ClampDelta(ps []Position, dx, dy float64) (float64, float64) {
	for _, p := range ps {
		dx = clampAxis(p.x, dx, b.minX, b.maxX)
		dy = clampAxis(p.y, dy, b.minY, b.maxY)
	}
	return dx, dy
}

func clampAxis(v, d, lo, hi float64) float64 {
	if !isValidCoordinate(d) {
		return 0
	}
	if d > 0 && v+d > hi {
		d = math.Max(0, hi-v)
	}
	if d < 0 && v+d < lo {
		d = math.Min(0, lo-v)
	}
	return d
}
