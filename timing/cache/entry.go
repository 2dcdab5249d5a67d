package cache

// Entry is one cache line's metadata: the tag it currently holds, whether
// it holds valid data, the cycle it was last (re)installed at, and an
// LRU age counter meaningful only for set-associative variants.
type Entry struct {
	Tag      uint64
	Valid    bool
	Age      uint64
	LoadedAt uint64
}

// set installs tag as this entry's content, marking it valid, resetting
// its age to zero, and recording the cycle it was loaded at.
func (e *Entry) set(tag, loadedAt uint64) {
	e.Tag = tag
	e.LoadedAt = loadedAt
	e.Valid = true
	e.Age = 0
}

// Events tallies the hits, misses, and evictions produced by a single
// touch of one cache line. Events from multiple touches combine additively.
type Events struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Hit reports whether this batch of events contains no misses, i.e. every
// line probed was already resident.
func (e Events) Hit() bool {
	return e.Misses == 0
}

// Add accumulates other's counts into e and returns the result.
func (e Events) Add(other Events) Events {
	return Events{
		Hits:      e.Hits + other.Hits,
		Misses:    e.Misses + other.Misses,
		Evictions: e.Evictions + other.Evictions,
	}
}
