// Package rng provides the single seeded random stream a game draws from.
//
// The generator is Mulberry32 over one 32-bit word, so the complete state
// can be captured with State and resumed with SetState.
package rng

// RNG is a deterministic pseudo-random source. It is not safe for
// concurrent use.
type RNG struct {
	state uint32
}

// New returns a generator seeded from seed. Only the low 32 bits are used.
func New(seed int64) *RNG {
	return &RNG{state: uint32(seed)}
}

// Next returns a float in [0, 1).
func (r *RNG) Next() float64 {
	r.state += 0x6D2B79F5
	z := r.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	z ^= z >> 14
	return float64(z) / 4294967296.0
}

// Range returns a float in [min, max).
func (r *RNG) Range(min, max float64) float64 {
	return min + r.Next()*(max-min)
}

// Int returns an integer in [min, max], inclusive on both ends.
func (r *RNG) Int(min, max int) int {
	if max <= min {
		return min
	}
	return min + int(r.Next()*float64(max-min+1))
}

// Chance reports true with probability p.
func (r *RNG) Chance(p float64) bool {
	return r.Next() < p
}

// Pick returns an index into weights, chosen proportionally. It returns -1
// when no weight is positive, without consuming a draw.
func (r *RNG) Pick(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}

	roll := r.Next() * total
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		if roll < w {
			return i
		}
		roll -= w
	}
	return last
}

// State returns the internal state for exact resumption.
func (r *RNG) State() uint32 {
	return r.state
}

// SetState restores a state previously returned by State.
func (r *RNG) SetState(s uint32) {
	r.state = s
}

// Clone returns an independent generator at the same position.
func (r *RNG) Clone() *RNG {
	return &RNG{state: r.state}
}
