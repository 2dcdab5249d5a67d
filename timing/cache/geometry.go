package cache

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidGeometry is wrapped by geometry construction failures: a
// size, line size, or set size that violates the power-of-two and
// divisibility constraints required to decode addresses.
var ErrInvalidGeometry = errors.New("invalid cache geometry")

// Geometry describes how a raw address is decomposed into (tag, index,
// block) for one cache level: total size, line size, and set size (ways),
// all in bytes except set size which is a count.
type Geometry struct {
	Size     uint64
	LineSize uint64
	SetSize  uint64

	blockBits uint
	indexBits uint
}

// NewGeometry validates and builds a Geometry. It fails when size is not a
// power of two, line_size does not divide size, or set_size does not
// divide size/line_size.
func NewGeometry(size, lineSize, setSize uint64) (Geometry, error) {
	if setSize == 0 {
		setSize = 1
	}

	if !isPowerOfTwo(size) {
		return Geometry{}, fmt.Errorf("%w: size %d is not a power of two", ErrInvalidGeometry, size)
	}
	if lineSize == 0 || size%lineSize != 0 {
		return Geometry{}, fmt.Errorf("%w: line_size %d does not divide size %d", ErrInvalidGeometry, lineSize, size)
	}
	if !isPowerOfTwo(lineSize) {
		return Geometry{}, fmt.Errorf("%w: line_size %d is not a power of two", ErrInvalidGeometry, lineSize)
	}
	linesTotal := size / lineSize
	if setSize == 0 || linesTotal%setSize != 0 {
		return Geometry{}, fmt.Errorf("%w: set_size %d does not divide size/line_size %d", ErrInvalidGeometry, setSize, linesTotal)
	}
	if !isPowerOfTwo(setSize) {
		return Geometry{}, fmt.Errorf("%w: set_size %d is not a power of two", ErrInvalidGeometry, setSize)
	}

	blockBits := uint(bits.TrailingZeros64(lineSize))
	numSets := linesTotal / setSize
	indexBits := uint(bits.TrailingZeros64(numSets))

	if indexBits >= 62 {
		return Geometry{}, fmt.Errorf("%w: index bits (%d) must fit under 62 bits", ErrInvalidGeometry, indexBits)
	}

	return Geometry{
		Size:      size,
		LineSize:  lineSize,
		SetSize:   setSize,
		blockBits: blockBits,
		indexBits: indexBits,
	}, nil
}

func isPowerOfTwo(n uint64) bool {
	return n > 0 && n&(n-1) == 0
}

// NumSets returns the number of addressable sets (the line count for
// direct-mapped, 1 for fully-associative geometries).
func (g Geometry) NumSets() uint64 {
	return (g.Size / g.LineSize) / g.SetSize
}

// Address is the decomposition of a raw address under a Geometry.
//
// Index and Block are uint64 rather than the 32-bit width that would
// suffice for realistic cache sizes, so that
// reconstruct(decode(a)) == a holds for every a < 2^64 and every valid
// geometry, including ones with index_bits up to just under 62; see
// DESIGN.md.
type Address struct {
	Tag   uint64
	Index uint64
	Block uint64
}

// Decode splits addr into (tag, index, block) per Geometry. It is pure and
// constant-time.
func (g Geometry) Decode(addr uint64) Address {
	blockMask := uint64(1)<<g.blockBits - 1
	indexMask := uint64(1)<<g.indexBits - 1

	block := addr & blockMask
	index := (addr >> g.blockBits) & indexMask
	tag := addr >> (g.blockBits + g.indexBits)

	return Address{Tag: tag, Index: index, Block: block}
}

// Reconstruct rebuilds the address bits covered by tag, index, and block
// from an Address previously produced by Decode with the same Geometry.
// reconstruct(decode(a)) == a & mask, where mask covers every bit Decode
// observes (the full 64 bits, in practice).
func (g Geometry) Reconstruct(a Address) uint64 {
	return (a.Tag << (g.blockBits + g.indexBits)) | (a.Index << g.blockBits) | a.Block
}

// InfiniteGeometry returns the canonical geometry an Infinite cache uses to
// split addresses into block/index: a single, never-evicted set spanning
// the full 64-bit address space, so index is simply the line-aligned
// address shifted by block_bits. set_size and overall size are unused by
// the Infinite variant and reported only for display.
func InfiniteGeometry(lineSize uint64) (Geometry, error) {
	blockBits := uint(bits.TrailingZeros64(lineSize))
	if !isPowerOfTwo(lineSize) {
		return Geometry{}, fmt.Errorf("%w: line_size %d is not a power of two", ErrInvalidGeometry, lineSize)
	}

	return Geometry{
		Size:      lineSize << 48,
		LineSize:  lineSize,
		SetSize:   1,
		blockBits: blockBits,
		indexBits: 64 - blockBits,
	}, nil
}
