// Package topk provides a fixed-capacity nearest-set used by the refine pass.
//
// The capacity is small (three slots for grid interpolation), so the set is a
// sorted array with insertion on offer. Value-based storage, no allocations
// after construction.
package topk

// MaxK is the largest supported capacity.
const MaxK = 8

// Item pairs a candidate index with its squared distance.
type Item struct {
	Index    int32
	Distance float32
}

// Nearest maintains the k items with the smallest distances seen so far,
// kept in ascending distance order. Ties are resolved arbitrarily (the
// earlier offer wins).
type Nearest struct {
	items [MaxK]Item
	k     int
	n     int
}

// NewNearest creates a Nearest with the given capacity.
// k is clamped to [1, MaxK].
func NewNearest(k int) Nearest {
	if k < 1 {
		k = 1
	}
	if k > MaxK {
		k = MaxK
	}
	return Nearest{k: k}
}

// Reset clears the set for reuse without changing its capacity.
func (s *Nearest) Reset() {
	s.n = 0
}

// Len returns the number of items currently held.
func (s *Nearest) Len() int {
	return s.n
}

// Offer considers a candidate. It is kept if the set is not yet full or its
// distance beats the current worst item.
func (s *Nearest) Offer(index int32, distance float32) {
	if s.n == s.k && distance >= s.items[s.n-1].Distance {
		return
	}

	i := s.n
	if i == s.k {
		i--
	}
	for i > 0 && s.items[i-1].Distance > distance {
		s.items[i] = s.items[i-1]
		i--
	}
	s.items[i] = Item{Index: index, Distance: distance}
	if s.n < s.k {
		s.n++
	}
}

// Item returns the i-th item in ascending distance order.
// i must be in [0, Len()).
func (s *Nearest) Item(i int) Item {
	return s.items[i]
}
