package cache

// setAssociativeVariant holds NumSets() sets of SetSize ways each,
// evicting by age: every touch of a set ages every entry in it by one,
// and the entry with the highest age (ties broken by first-encountered)
// is the victim on a miss.
type setAssociativeVariant struct {
	sets    [][]Entry
	setSize uint64
}

func newSetAssociativeVariant(g Geometry) *setAssociativeVariant {
	sets := make([][]Entry, g.NumSets())
	for i := range sets {
		sets[i] = make([]Entry, g.SetSize)
	}
	return &setAssociativeVariant{sets: sets, setSize: g.SetSize}
}

func (v *setAssociativeVariant) touchLine(a Address, cycle uint64) (Events, evictionInfo) {
	set := v.sets[a.Index]

	var hit *Entry
	oldest := &set[0]
	maxAge := oldest.Age

	for i := range set {
		entry := &set[i]
		entry.Age++

		if entry.Valid && entry.Tag == a.Tag {
			hit = entry
		}
		if entry.Age > maxAge {
			maxAge = entry.Age
			oldest = entry
		}
	}

	if hit != nil {
		// Age is not reset on hit; it only resets when a new line is installed.
		return Events{Hits: 1}, evictionInfo{}
	}

	var evicted evictionInfo
	var events Events

	if oldest.Valid {
		events.Evictions = 1
		evicted = evictionInfo{loadedAt: oldest.LoadedAt, ok: true}
	}
	events.Misses = 1

	oldest.set(a.Tag, cycle)

	return events, evicted
}

func (v *setAssociativeVariant) residentLifetimes(currentCycle uint64) (map[uint64]uint64, error) {
	out := make(map[uint64]uint64)
	for _, set := range v.sets {
		for _, e := range set {
			if e.Valid {
				out[currentCycle-e.LoadedAt]++
			}
		}
	}
	return out, nil
}
