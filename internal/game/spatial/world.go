package spatial

import "math"

// Collider is the query surface the simulation uses for static geometry.
type Collider interface {
	// PushOut returns the summed displacement resolving a circle's overlap
	// with every static collider it touches.
	PushOut(pos Vec2, radius float64) (Vec2, bool)
	// RayBlocked reports whether any collider lies within maxDist along dir.
	RayBlocked(origin, dir Vec2, maxDist float64) bool
	// RayCast returns the nearest collider hit within maxDist along dir.
	RayCast(origin, dir Vec2, maxDist float64) (RayHit, bool)
}

// RayHit describes the nearest ray intersection.
type RayHit struct {
	Point    Vec2
	Distance float64
	Index    int // Index into the world's shape list
}

const (
	wallThickness = 200.0
	gridCellSize  = 128.0
)

// StaticWorld is an immutable set of static colliders: the supplied shapes
// plus four slabs enclosing [0,width]x[0,height]. Geometry changes build a
// new StaticWorld rather than mutating this one.
//
// Queries reuse internal buffers, so a StaticWorld must not be shared
// between goroutines.
type StaticWorld struct {
	width, height float64
	shapes        []Shape
	grid          *SpatialGrid
	stamp         []uint32
	epoch         uint32
}

var _ Collider = (*StaticWorld)(nil)

// NewStaticWorld builds the collider set for a map.
func NewStaticWorld(width, height float64, shapes []Shape) *StaticWorld {
	all := make([]Shape, 0, len(shapes)+4)
	all = append(all, shapes...)
	// north, south, west, east
	all = append(all,
		Box(-wallThickness, -wallThickness, width+wallThickness, 0),
		Box(-wallThickness, height, width+wallThickness, height+wallThickness),
		Box(-wallThickness, 0, 0, height),
		Box(width, 0, width+wallThickness, height),
	)

	w := &StaticWorld{
		width:  width,
		height: height,
		shapes: all,
		grid:   NewSpatialGrid(width, height, gridCellSize, len(all)*4),
		stamp:  make([]uint32, len(all)),
	}
	for i, s := range all {
		min, max := s.Bounds()
		w.grid.InsertBox(uint32(i), min, max)
	}
	return w
}

// Shapes returns every collider including the boundary slabs. The slice
// must not be modified.
func (w *StaticWorld) Shapes() []Shape { return w.shapes }

// Size returns the enclosed area.
func (w *StaticWorld) Size() (width, height float64) { return w.width, w.height }

// candidates returns unique collider indices overlapping [min, max], in
// ascending order of first appearance in the grid.
func (w *StaticWorld) candidates(min, max Vec2, out []int) []int {
	w.epoch++
	if w.epoch == 0 {
		for i := range w.stamp {
			w.stamp[i] = 0
		}
		w.epoch = 1
	}
	for _, id := range w.grid.QueryBox(min, max) {
		if w.stamp[id] == w.epoch {
			continue
		}
		w.stamp[id] = w.epoch
		out = append(out, int(id))
	}
	return out
}

// PushOut implements Collider.
func (w *StaticWorld) PushOut(pos Vec2, radius float64) (Vec2, bool) {
	var buf [16]int
	r := V(radius, radius)
	var total Vec2
	hit := false
	for _, i := range w.candidates(pos.Sub(r), pos.Add(r), buf[:0]) {
		if push, ok := w.shapes[i].PushCircle(pos, radius); ok {
			total = total.Add(push)
			hit = true
		}
	}
	return total, hit
}

// Overlaps reports whether a circle touches any collider.
func (w *StaticWorld) Overlaps(pos Vec2, radius float64) bool {
	_, hit := w.PushOut(pos, radius)
	return hit
}

// RayBlocked implements Collider.
func (w *StaticWorld) RayBlocked(origin, dir Vec2, maxDist float64) bool {
	_, ok := w.RayCast(origin, dir, maxDist)
	return ok
}

// RayCast implements Collider.
func (w *StaticWorld) RayCast(origin, dir Vec2, maxDist float64) (RayHit, bool) {
	d := dir.Norm()
	if d.IsZero() || maxDist <= 0 {
		return RayHit{}, false
	}
	end := origin.Add(d.Scale(maxDist))
	min := V(math.Min(origin.X, end.X), math.Min(origin.Y, end.Y))
	max := V(math.Max(origin.X, end.X), math.Max(origin.Y, end.Y))

	var buf [32]int
	best := RayHit{Index: -1, Distance: math.Inf(1)}
	for _, i := range w.candidates(min, max, buf[:0]) {
		t, ok := w.shapes[i].RayHit(origin, d, maxDist)
		if !ok {
			continue
		}
		if t < best.Distance || (t == best.Distance && i < best.Index) {
			best = RayHit{Point: origin.Add(d.Scale(t)), Distance: t, Index: i}
		}
	}
	if best.Index < 0 {
		return RayHit{}, false
	}
	return best, true
}

// SegmentBlocked reports whether the straight segment a->b crosses geometry.
func (w *StaticWorld) SegmentBlocked(a, b Vec2) bool {
	return w.RayBlocked(a, b.Sub(a), a.Dist(b))
}
