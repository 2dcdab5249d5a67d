// Package trace implements ingest (and output) of memory-access traces:
// the textual entry format, the fixed-layout binary format (read serially
// or in parallel by range-partitioning the file), and a file-type sniffer.
package trace

// Bundle-kind bitfield values. bundle_kind is a bitfield: bit0 marks the
// first request in a scatter/gather group, bit1 a middle request, bit2 the
// last. Zero means "not part of a bundle"; 7 (every bit set) is a reserved
// sentinel skipped by bundle-statistics passes, though not by a
// hierarchy's own bundle tally — see DESIGN.md.
const (
	BundleStart  int32 = 1 << 0
	BundleMiddle int32 = 1 << 1
	BundleEnd    int32 = 1 << 2

	// BundleSentinel is the reserved value skipped by BundleRuns.
	BundleSentinel int32 = 7
)

// Request is one memory access: which thread made it, how large it is,
// its bundle-kind bitfield, whether it's a write, the virtual address
// touched, and the instruction pointer that issued it.
type Request struct {
	TID        int32
	Size       int32
	BundleKind int32
	IsWrite    bool
	Address    uint64
	PC         uint64
}

// Addr implements cache.Accessable.
func (r Request) Addr() uint64 { return r.Address }

// AccessSize implements cache.Accessable.
func (r Request) AccessSize() int { return int(r.Size) }

// IsBundle reports whether this request is part of a scatter/gather
// bundle at all (bundle_kind != 0).
func (r Request) IsBundle() bool { return r.BundleKind != 0 }

// IsBundleStart reports whether bit0 of bundle_kind is set.
func (r Request) IsBundleStart() bool { return r.BundleKind&BundleStart != 0 }

// IsBundleMiddle reports whether bit1 of bundle_kind is set.
func (r Request) IsBundleMiddle() bool { return r.BundleKind&BundleMiddle != 0 }

// IsBundleEnd reports whether bit2 of bundle_kind is set.
func (r Request) IsBundleEnd() bool { return r.BundleKind&BundleEnd != 0 }

// recordWidth is the fixed byte width of one binary-format record: i32 tid,
// i32 size, i32 bundle_kind, u8 is_write, u64 address, u64 pc.
const recordWidth = 3*4 + 1 + 2*8

// headerWidth is the byte width of the binary format's record-count header.
const headerWidth = 8

// Trace is an in-memory, read-only sequence of Requests in insertion
// order, plus a parallel sequence of their addresses of the same length.
type Trace struct {
	requests  []Request
	addresses []uint64
}

// New builds a Trace from a slice of requests, taking ownership of it.
func New(requests []Request) *Trace {
	addresses := make([]uint64, len(requests))
	for i, r := range requests {
		addresses[i] = r.Address
	}
	return &Trace{requests: requests, addresses: addresses}
}

// Requests returns the trace's requests in insertion order. The caller
// must not mutate the returned slice.
func (t *Trace) Requests() []Request { return t.requests }

// Addresses returns the trace's request addresses, parallel to Requests().
func (t *Trace) Addresses() []uint64 { return t.addresses }

// Len returns the number of requests in the trace.
func (t *Trace) Len() int { return len(t.requests) }
