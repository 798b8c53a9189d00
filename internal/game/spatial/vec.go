package spatial

import "math"

// Vec2 is a 2D vector in world units. The y axis points down the screen,
// matching the renderer.
type Vec2 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// V is shorthand for Vec2{x, y}.
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

// FromAngle returns the unit vector at angle a (radians).
func FromAngle(a float64) Vec2 { return Vec2{math.Cos(a), math.Sin(a)} }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Cross(o Vec2) float64 { return v.X*o.Y - v.Y*o.X }
func (v Vec2) LenSq() float64 { return v.X*v.X + v.Y*v.Y }
func (v Vec2) Len() float64 { return math.Sqrt(v.LenSq()) }
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }
func (v Vec2) DistSq(o Vec2) float64 { return v.Sub(o).LenSq() }
func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }
func (v Vec2) Angle() float64 { return math.Atan2(v.Y, v.X) }
func (v Vec2) Perp() Vec2 { return Vec2{-v.Y, v.X} }
func (v Vec2) Neg() Vec2 { return Vec2{-v.X, -v.Y} }

// Lerp interpolates from v toward o by t.
func (v Vec2) Lerp(o Vec2, t float64) Vec2 {
	return Vec2{v.X + (o.X-v.X)*t, v.Y + (o.Y-v.Y)*t}
}

// Norm returns the unit vector in v's direction, or the zero vector.
func (v Vec2) Norm() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Rotate returns v rotated by a radians.
func (v Vec2) Rotate(a float64) Vec2 {
	s, c := math.Sincos(a)
	return Vec2{v.X*c - v.Y*s, v.X*s + v.Y*c}
}

// ClampLen returns v scaled down to at most max length.
func (v Vec2) ClampLen(max float64) Vec2 {
	l := v.Len()
	if l <= max || l == 0 {
		return v
	}
	return v.Scale(max / l)
}

// Reflect mirrors v about the surface with unit normal n.
func (v Vec2) Reflect(n Vec2) Vec2 {
	return v.Sub(n.Scale(2 * v.Dot(n)))
}

// SegmentPointDist returns the distance from p to segment ab and the
// segment parameter of the closest point.
func SegmentPointDist(a, b, p Vec2) (float64, float64) {
	ab := b.Sub(a)
	lsq := ab.LenSq()
	if lsq == 0 {
		return p.Dist(a), 0
	}
	t := p.Sub(a).Dot(ab) / lsq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Dist(a.Add(ab.Scale(t))), t
}

// SegmentCircle returns the first parameter t in [0,1] at which segment ab
// touches the circle (c, r). A segment starting inside reports t=0.
func SegmentCircle(a, b, c Vec2, r float64) (float64, bool) {
	d := b.Sub(a)
	f := a.Sub(c)
	cc := f.LenSq() - r*r
	if cc <= 0 {
		return 0, true
	}
	aa := d.LenSq()
	if aa == 0 {
		return 0, false
	}
	bb := 2 * f.Dot(d)
	disc := bb*bb - 4*aa*cc
	if disc < 0 {
		return 0, false
	}
	t := (-bb - math.Sqrt(disc)) / (2 * aa)
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}
