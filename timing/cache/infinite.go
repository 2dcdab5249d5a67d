package cache

// infiniteVariant never evicts. Membership is tracked as a set of
// line-aligned indices (the full address shifted by the line's block
// bits), since an infinite cache has no set/way structure to speak of.
type infiniteVariant struct {
	resident map[uint64]struct{}
}

func newInfiniteVariant() *infiniteVariant {
	return &infiniteVariant{resident: make(map[uint64]struct{})}
}

func (v *infiniteVariant) touchLine(a Address, _ uint64) (Events, evictionInfo) {
	// Under InfiniteGeometry, index_bits spans the whole address beyond
	// block_bits, so a.Index alone is the line-aligned address (a.Tag is
	// always zero).
	key := a.Index

	if _, ok := v.resident[key]; ok {
		return Events{Hits: 1}, evictionInfo{}
	}

	v.resident[key] = struct{}{}
	return Events{Misses: 1}, evictionInfo{}
}

func (v *infiniteVariant) residentLifetimes(uint64) (map[uint64]uint64, error) {
	return nil, ErrUnsupportedOperation
}
