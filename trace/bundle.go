package trace

// BundleStats tallies, per issuing pc, how many scatter/gather bundles
// were encountered and how many total component ops they contained.
type BundleStats struct {
	TimesEncountered uint64
	TotalOps         uint64
}

// BundleRun summarizes one scatter/gather group: how many component
// requests it had, and the address span it covered (the difference
// between the start and end requests' addresses, plus the end
// request's size; any middle components are not considered).
type BundleRun struct {
	PC            uint64
	NumComponents int
	AddressDelta  uint64
}

// BundleRuns groups consecutive bundle requests into runs, from a
// bundle-start request to its matching bundle-end request, the way the
// original trace-analysis tool does. bundle_kind == BundleSentinel (7) is
// skipped, matching that tool's behavior exactly — this is a separate
// pass from a CacheHierarchy's own bundle tally, which does not skip the
// sentinel.
func BundleRuns(reqs []Request) []BundleRun {
	var runs []BundleRun

	for i := 0; i < len(reqs); i++ {
		start := reqs[i]
		if !start.IsBundle() || start.BundleKind == BundleSentinel {
			continue
		}

		run := BundleRun{PC: start.PC, NumComponents: 1}

		for !reqs[i].IsBundleEnd() {
			i++
			if i >= len(reqs) {
				break
			}
			run.NumComponents++
		}

		end := reqs[i]

		// Only the start and end requests bound the range: middle
		// components are not considered, matching the original tool. The
		// size added back is always the end request's, regardless of
		// which of the two has the higher address.
		low, high := start.Address, start.Address
		if end.Address < low {
			low = end.Address
		} else {
			high = end.Address
		}

		run.AddressDelta = high - low + uint64(end.Size)
		runs = append(runs, run)
	}

	return runs
}
