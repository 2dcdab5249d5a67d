// Package hierarchy composes N cache levels sharing one logical clock,
// routing each access so upper levels are consulted only on misses of
// lower levels, splitting multi-byte accesses across line boundaries, and
// accumulating inter-level traffic and scatter/gather bundle statistics.
package hierarchy

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/andreipoe/cachesim/timing/cache"
	"github.com/andreipoe/cachesim/timing/clock"
	"github.com/andreipoe/cachesim/trace"
)

// ErrInvalidConfig is wrapped by hierarchy construction failures: an
// empty level list, mixed line sizes across levels, an invalid level
// geometry, or an unknown cache type.
var ErrInvalidConfig = errors.New("invalid cache hierarchy configuration")

// LevelConfig describes one level's geometry and replacement policy.
type LevelConfig struct {
	Type     cache.Type
	Size     uint64
	LineSize uint64
	SetSize  uint64
}

// Hierarchy owns an ordered stack of cache levels (level 1 at index 0),
// a Clock shared by every level, per-interface traffic counters, and a
// per-pc scatter/gather bundle tally.
type Hierarchy struct {
	levels  []*cache.Cache
	clock   *clock.Clock
	traffic []uint64
	bundles map[uint64]*trace.BundleStats
}

// New builds a Hierarchy from an ordered list of level configurations.
// Every level must share the same line size, or construction fails.
func New(levels []LevelConfig) (*Hierarchy, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: hierarchy must have at least one level", ErrInvalidConfig)
	}

	clk := clock.New()
	caches := make([]*cache.Cache, 0, len(levels))

	for i, lvl := range levels {
		if i > 0 && lvl.LineSize != levels[0].LineSize {
			return nil, fmt.Errorf("%w: cache hierarchy does not have the same line size throughout", ErrInvalidConfig)
		}

		var (
			geom cache.Geometry
			err  error
		)
		if lvl.Type == cache.Infinite {
			geom, err = cache.InfiniteGeometry(lvl.LineSize)
		} else {
			geom, err = cache.NewGeometry(lvl.Size, lvl.LineSize, lvl.SetSize)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: level %d: %w", ErrInvalidConfig, i+1, err)
		}

		c, err := cache.New(lvl.Type, geom, clk)
		if err != nil {
			return nil, fmt.Errorf("%w: level %d: %w", ErrInvalidConfig, i+1, err)
		}
		caches = append(caches, c)
	}

	return &Hierarchy{
		levels:  caches,
		clock:   clk,
		traffic: make([]uint64, len(levels)+1),
		bundles: make(map[uint64]*trace.BundleStats),
	}, nil
}

// NLevels returns the number of cache levels in the hierarchy.
func (h *Hierarchy) NLevels() int { return len(h.levels) }

// Level returns the 1-indexed cache level L (level 1 is the one closest
// to the CPU).
func (h *Hierarchy) Level(l int) *cache.Cache { return h.levels[l-1] }

// CurrentCycle returns the hierarchy's shared clock's current value.
func (h *Hierarchy) CurrentCycle() uint64 { return h.clock.Current() }

// Traffic returns the bytes transferred across the interface between
// fromLevel and fromLevel+1. fromLevel 0 is the CPU-to-L1 interface: the
// total bytes the caller has requested from this hierarchy. fromLevel
// NLevels() is the interface to main memory.
func (h *Hierarchy) Traffic(fromLevel int) uint64 { return h.traffic[fromLevel] }

// Bundles returns a copy of the pc-to-BundleStats tally accumulated by
// Touch/TouchRequest so far.
func (h *Hierarchy) Bundles() map[uint64]trace.BundleStats {
	out := make(map[uint64]trace.BundleStats, len(h.bundles))
	for pc, stats := range h.bundles {
		out[pc] = *stats
	}
	return out
}

// Touch probes the hierarchy with a single raw (address, size, is_write)
// access. Reads and writes are routed identically: a hit at any level
// terminates the per-line lookup at that level. See DESIGN.md for the
// write-policy discussion.
func (h *Hierarchy) Touch(address uint64, size int, isWrite bool) {
	h.traffic[0] += uint64(size)

	remaining := size
	cursor := address
	l1Geom := h.levels[0].Geometry

	for remaining > 0 {
		addr := l1Geom.Decode(cursor)

		for l := 1; l <= len(h.levels); l++ {
			ev := h.levels[l-1].TouchLine(cursor)
			if ev.Hit() {
				break
			}
			h.traffic[l] += h.levels[l-1].Geometry.LineSize
		}

		covered := int(l1Geom.LineSize) - int(addr.Block)
		remaining -= covered
		cursor += uint64(covered)
	}

	h.clock.Tick()
}

// TouchRequest is equivalent to Touch(r.Address, int(r.Size), r.IsWrite),
// additionally updating the bundle tally when r is part of a
// scatter/gather bundle: every bundle request increments total_ops for
// its pc, and a bundle-start request additionally increments
// times_encountered. Unlike trace.BundleRuns, this tally does not skip
// the reserved sentinel bundle_kind value 7 — the two are intentionally
// left independent; see DESIGN.md.
func (h *Hierarchy) TouchRequest(r trace.Request) {
	if r.IsBundle() {
		stats, ok := h.bundles[r.PC]
		if !ok {
			stats = &trace.BundleStats{}
			h.bundles[r.PC] = stats
		}
		stats.TotalOps++
		if r.IsBundleStart() {
			stats.TimesEncountered++
		}
	}

	h.Touch(r.Address, int(r.Size), r.IsWrite)
}

// TouchAll runs every request in reqs through the hierarchy in order.
func (h *Hierarchy) TouchAll(reqs []trace.Request) {
	for _, r := range reqs {
		h.TouchRequest(r)
	}
}

// LevelResult is one level's accounting at the end of a run.
type LevelResult struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Traffic   uint64
}

// Result is one configuration's outcome: per-level counters (Traffic
// is the bytes pulled into that level from the one below it), the
// CPU-facing traffic total, and the final bundle tally.
type Result struct {
	Levels         []LevelResult
	RequestedBytes uint64
	Bundles        map[uint64]trace.BundleStats
}

// RunAll replays tr against every configuration in configs, each in its
// own Hierarchy with its own Clock, and returns one Result per
// configuration in input order. Configurations are independent and run
// concurrently, bounded by runtime.NumCPU(). A configuration that fails
// to construct aborts only that configuration's Result (left as its
// zero value) and returns the error; RunAll itself returns the first
// error encountered, consistent with errgroup's fail-fast semantics.
func RunAll(configs [][]LevelConfig, tr *trace.Trace) ([]Result, error) {
	results := make([]Result, len(configs))

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())

	for i, cfg := range configs {
		i, cfg := i, cfg
		g.Go(func() error {
			h, err := New(cfg)
			if err != nil {
				return fmt.Errorf("configuration %d: %w", i, err)
			}

			h.TouchAll(tr.Requests())

			levels := make([]LevelResult, h.NLevels())
			for l := 1; l <= h.NLevels(); l++ {
				c := h.Level(l)
				levels[l-1] = LevelResult{
					Hits:      c.Hits(),
					Misses:    c.Misses(),
					Evictions: c.Evictions(),
					Traffic:   h.Traffic(l),
				}
			}

			results[i] = Result{
				Levels:         levels,
				RequestedBytes: h.Traffic(0),
				Bundles:        h.Bundles(),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
