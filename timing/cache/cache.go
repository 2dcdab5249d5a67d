// Package cache implements the abstract cache model: address decoding,
// pluggable replacement-policy variants (infinite, direct-mapped,
// set-associative with LRU), and per-level accounting.
package cache

import (
	"errors"
	"fmt"

	"github.com/andreipoe/cachesim/timing/clock"
)

// ErrUnsupportedOperation is returned when an operation is requested from a
// variant that cannot perform it, such as a lifetime histogram from an
// InfiniteCache.
var ErrUnsupportedOperation = errors.New("unsupported operation")

// Type identifies a cache's replacement-policy variant.
type Type int

const (
	// Infinite never evicts; membership is tracked by line index alone.
	Infinite Type = iota
	// DirectMapped maps every line to exactly one slot.
	DirectMapped
	// SetAssociative maps every line to one of SetSize ways within a set,
	// evicting by age (LRU).
	SetAssociative
)

func (t Type) String() string {
	switch t {
	case Infinite:
		return "infinite"
	case DirectMapped:
		return "direct_mapped"
	case SetAssociative:
		return "set_associative"
	default:
		return "unknown"
	}
}

// Accessable is satisfied by anything that describes a single memory access
// with a start address and a width in bytes — enough for a Cache to split it
// across the line boundaries it spans. trace.Request implements this
// interface, letting Cache accept it without importing the trace package.
type Accessable interface {
	Addr() uint64
	AccessSize() int
}

// SizedAccess is the minimal Accessable: a plain (address, size) pair.
type SizedAccess struct {
	Address uint64
	Size    int
}

// Addr implements Accessable.
func (s SizedAccess) Addr() uint64 { return s.Address }

// AccessSize implements Accessable.
func (s SizedAccess) AccessSize() int { return s.Size }

// variant is the seam implemented by each replacement policy. touchLine
// registers a single, already line-resolved address with the cache and
// reports what happened. Dynamic dispatch is confined to this one method;
// the per-variant set-walk or slot-check underneath is monomorphic.
type variant interface {
	touchLine(a Address, currentCycle uint64) (Events, evictionInfo)
	residentLifetimes(currentCycle uint64) (map[uint64]uint64, error)
}

// evictionInfo carries the cycle an evicted line was loaded at, so Cache
// can turn it into a lifetime-histogram bucket using its own clock
// reading at eviction time. ok is false when no eviction happened.
type evictionInfo struct {
	loadedAt uint64
	ok       bool
}

// Cache is one level of a cache hierarchy: an immutable geometry and clock
// handle, mutable hit/miss/eviction counters, a lifetime histogram, and a
// pluggable replacement-policy variant.
type Cache struct {
	Geometry Geometry
	kind     Type
	clock    *clock.Clock

	hits      uint64
	misses    uint64
	evictions uint64
	lifetimes map[uint64]uint64

	v variant
}

// New constructs a Cache of the given variant and geometry, sharing clk
// with the rest of its hierarchy. New does not validate geom: callers
// build it with NewGeometry, or with InfiniteGeometry for an Infinite
// cache, which skips the divisibility checks. The Infinite variant keys
// lines by the decoded Index, so it relies on InfiniteGeometry's
// full-width index.
func New(kind Type, geom Geometry, clk *clock.Clock) (*Cache, error) {
	c := &Cache{
		Geometry:  geom,
		kind:      kind,
		clock:     clk,
		lifetimes: make(map[uint64]uint64),
	}

	switch kind {
	case Infinite:
		c.v = newInfiniteVariant()
	case DirectMapped:
		c.v = newDirectMappedVariant(geom)
	case SetAssociative:
		c.v = newSetAssociativeVariant(geom)
	default:
		return nil, fmt.Errorf("%w: unknown cache type %v", ErrInvalidGeometry, kind)
	}

	return c, nil
}

// Type returns the cache's replacement-policy variant.
func (c *Cache) Type() Type { return c.kind }

// Hits returns the number of line-level probes that were already resident.
func (c *Cache) Hits() uint64 { return c.hits }

// Misses returns the number of line-level probes that were not resident.
func (c *Cache) Misses() uint64 { return c.misses }

// Total returns Hits()+Misses(), the total number of line-level probes
// this cache has serviced.
func (c *Cache) Total() uint64 { return c.hits + c.misses }

// Evictions returns the number of valid lines this cache has evicted.
func (c *Cache) Evictions() uint64 { return c.evictions }

// Lifetimes returns a histogram of cycles-between-insert-and-evict,
// accumulated across every eviction this cache has performed so far. The
// returned map is owned by the caller.
func (c *Cache) Lifetimes() map[uint64]uint64 {
	out := make(map[uint64]uint64, len(c.lifetimes))
	for k, v := range c.lifetimes {
		out[k] = v
	}
	return out
}

// ResidentLifetimes returns, for every line currently resident, the number
// of cycles elapsed since it was loaded. InfiniteCache reports
// ErrUnsupportedOperation.
func (c *Cache) ResidentLifetimes() (map[uint64]uint64, error) {
	return c.v.residentLifetimes(c.currentCycle())
}

// touchLine dispatches to the variant and folds the result into the
// shared per-level counters and lifetime histogram.
func (c *Cache) touchLine(a Address) Events {
	cycle := c.currentCycle()
	ev, evicted := c.v.touchLine(a, cycle)

	c.hits += ev.Hits
	c.misses += ev.Misses
	c.evictions += ev.Evictions

	if evicted.ok {
		c.lifetimes[cycle-evicted.loadedAt]++
	}

	return ev
}

// TouchLine probes the single cache line address resolves to, without any
// splitting. Used by a cache hierarchy, which performs the line-boundary
// split once using the common line size shared by every level and then
// probes each level in turn for that one line.
func (c *Cache) TouchLine(address uint64) Events {
	return c.touchLine(c.Geometry.Decode(address))
}

// Touch splits a (address, size) access across every cache line it spans
// and returns the summed events. A k*LineSize access on a line-aligned
// address yields exactly k line-level probes.
func (c *Cache) Touch(address uint64, size int) Events {
	var total Events

	remaining := size
	cursor := address

	for remaining > 0 {
		addr := c.Geometry.Decode(cursor)
		line := c.touchLine(addr)
		total = total.Add(line)

		covered := int(c.Geometry.LineSize) - int(addr.Block)
		remaining -= covered
		cursor += uint64(covered)
	}

	return total
}

// TouchAccess is equivalent to Touch(a.Addr(), a.AccessSize()).
func (c *Cache) TouchAccess(a Accessable) Events {
	return c.Touch(a.Addr(), a.AccessSize())
}

// TouchAddresses sums the events from touching each address in addrs with
// size 1.
func (c *Cache) TouchAddresses(addrs []uint64) Events {
	var total Events
	for _, addr := range addrs {
		total = total.Add(c.Touch(addr, 1))
	}
	return total
}

// TouchAccesses sums the events from touching each access in turn.
func (c *Cache) TouchAccesses(accesses []Accessable) Events {
	var total Events
	for _, a := range accesses {
		total = total.Add(c.TouchAccess(a))
	}
	return total
}

// currentCycle is the value the variant should stamp newly-installed
// lines with: the shared clock's current cycle.
func (c *Cache) currentCycle() uint64 {
	if c.clock == nil {
		return 0
	}
	return c.clock.Current()
}
