package spatial

import "math"

// ShapeKind tags a static collider shape.
type ShapeKind uint8

const (
	ShapeBox    ShapeKind = iota // Axis-aligned box
	ShapeOBB                     // Rotated box
	ShapeCircle                  // Disc
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeOBB:
		return "obb"
	case ShapeCircle:
		return "circle"
	default:
		return "unknown"
	}
}

// Shape is one static collider. Boxes use Center, Half and (for OBB) Angle;
// circles use Center and Radius.
type Shape struct {
	Kind   ShapeKind `json:"kind" msgpack:"kind"`
	Center Vec2      `json:"center" msgpack:"center"`
	Half   Vec2      `json:"half,omitempty" msgpack:"half"`
	Angle  float64   `json:"angle,omitempty" msgpack:"angle"`
	Radius float64   `json:"radius,omitempty" msgpack:"radius"`
}

// Box returns an axis-aligned box from its corners.
func Box(minX, minY, maxX, maxY float64) Shape {
	return Shape{
		Kind:   ShapeBox,
		Center: V((minX+maxX)/2, (minY+maxY)/2),
		Half:   V((maxX-minX)/2, (maxY-minY)/2),
	}
}

// Rotated returns a box of the given half extents rotated by angle.
func Rotated(center, half Vec2, angle float64) Shape {
	if angle == 0 {
		return Shape{Kind: ShapeBox, Center: center, Half: half}
	}
	return Shape{Kind: ShapeOBB, Center: center, Half: half, Angle: angle}
}

// Disc returns a circle collider.
func Disc(center Vec2, r float64) Shape {
	return Shape{Kind: ShapeCircle, Center: center, Radius: r}
}

// Bounds returns the shape's axis-aligned bounding box.
func (s Shape) Bounds() (min, max Vec2) {
	switch s.Kind {
	case ShapeCircle:
		r := V(s.Radius, s.Radius)
		return s.Center.Sub(r), s.Center.Add(r)
	case ShapeOBB:
		c, sn := math.Abs(math.Cos(s.Angle)), math.Abs(math.Sin(s.Angle))
		e := V(s.Half.X*c+s.Half.Y*sn, s.Half.X*sn+s.Half.Y*c)
		return s.Center.Sub(e), s.Center.Add(e)
	default:
		return s.Center.Sub(s.Half), s.Center.Add(s.Half)
	}
}

// toLocal maps a world point into the box frame.
func (s Shape) toLocal(p Vec2) Vec2 {
	d := p.Sub(s.Center)
	if s.Kind == ShapeOBB {
		return d.Rotate(-s.Angle)
	}
	return d
}

func (s Shape) toWorldDir(v Vec2) Vec2 {
	if s.Kind == ShapeOBB {
		return v.Rotate(s.Angle)
	}
	return v
}

// Contains reports whether p lies inside the shape.
func (s Shape) Contains(p Vec2) bool {
	if s.Kind == ShapeCircle {
		return p.DistSq(s.Center) <= s.Radius*s.Radius
	}
	l := s.toLocal(p)
	return math.Abs(l.X) <= s.Half.X && math.Abs(l.Y) <= s.Half.Y
}

// PushCircle returns the displacement that moves a circle at p with radius r
// out of the shape.
func (s Shape) PushCircle(p Vec2, r float64) (Vec2, bool) {
	if s.Kind == ShapeCircle {
		d := p.Sub(s.Center)
		min := r + s.Radius
		distSq := d.LenSq()
		if distSq >= min*min {
			return Vec2{}, false
		}
		dist := math.Sqrt(distSq)
		if dist == 0 {
			return V(min, 0), true
		}
		return d.Scale((min - dist) / dist), true
	}

	l := s.toLocal(p)
	closest := V(clamp(l.X, -s.Half.X, s.Half.X), clamp(l.Y, -s.Half.Y, s.Half.Y))
	d := l.Sub(closest)
	distSq := d.LenSq()

	if distSq > 0 {
		if distSq >= r*r {
			return Vec2{}, false
		}
		dist := math.Sqrt(distSq)
		return s.toWorldDir(d.Scale((r - dist) / dist)), true
	}

	// Center inside the box: exit through the nearest face.
	px := s.Half.X - math.Abs(l.X)
	py := s.Half.Y - math.Abs(l.Y)
	var push Vec2
	if px <= py {
		push = V(sign(l.X)*(px+r), 0)
	} else {
		push = V(0, sign(l.Y)*(py+r))
	}
	return s.toWorldDir(push), true
}

// RayHit returns the distance along unit direction dir at which a ray from
// origin enters the shape. A ray starting inside hits at 0.
func (s Shape) RayHit(origin, dir Vec2, maxDist float64) (float64, bool) {
	if s.Kind == ShapeCircle {
		t, ok := SegmentCircle(origin, origin.Add(dir.Scale(maxDist)), s.Center, s.Radius)
		if !ok {
			return 0, false
		}
		return t * maxDist, true
	}

	o := s.toLocal(origin)
	d := dir
	if s.Kind == ShapeOBB {
		d = dir.Rotate(-s.Angle)
	}

	tMin, tMax := 0.0, maxDist
	for _, axis := range [2]struct{ o, d, h float64 }{{o.X, d.X, s.Half.X}, {o.Y, d.Y, s.Half.Y}} {
		if axis.d == 0 {
			if axis.o < -axis.h || axis.o > axis.h {
				return 0, false
			}
			continue
		}
		t1 := (-axis.h - axis.o) / axis.d
		t2 := (axis.h - axis.o) / axis.d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
