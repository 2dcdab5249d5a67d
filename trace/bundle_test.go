package trace_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/andreipoe/cachesim/trace"
)

var _ = Describe("BundleRuns", func() {
	It("groups a start..end run and computes its address delta", func() {
		reqs := []trace.Request{
			{PC: 0x40e364, BundleKind: 3, Address: 0x6cf540, Size: 8}, // Start|Middle
			{PC: 0x40e364, BundleKind: 2, Address: 0x6cf580, Size: 8}, // Middle
			{PC: 0x40e364, BundleKind: 6, Address: 0x6cf620, Size: 8}, // Middle|End
		}

		runs := trace.BundleRuns(reqs)
		Expect(runs).To(HaveLen(1))
		Expect(runs[0].NumComponents).To(Equal(3))
		Expect(runs[0].AddressDelta).To(Equal(uint64(0x6cf620 - 0x6cf540 + 8)))
	})

	It("skips the reserved sentinel value 7", func() {
		reqs := []trace.Request{
			{PC: 0x1000, BundleKind: 7, Address: 0x10, Size: 8},
			{PC: 0x2000, BundleKind: 1, Address: 0x20, Size: 8},
			{PC: 0x2000, BundleKind: 4, Address: 0x28, Size: 8},
		}

		runs := trace.BundleRuns(reqs)
		Expect(runs).To(HaveLen(1))
		Expect(runs[0].PC).To(Equal(uint64(0x2000)))
	})

	It("finds two separate runs for the same pc", func() {
		reqs := []trace.Request{
			{PC: 0x40e200, BundleKind: 1, Address: 0x100, Size: 4},
			{PC: 0x40e200, BundleKind: 4, Address: 0x104, Size: 4},
			{PC: 0x40e200, BundleKind: 1, Address: 0x200, Size: 4},
			{PC: 0x40e200, BundleKind: 4, Address: 0x204, Size: 4},
		}

		runs := trace.BundleRuns(reqs)
		Expect(runs).To(HaveLen(2))
		Expect(runs[0].NumComponents).To(Equal(2))
		Expect(runs[1].NumComponents).To(Equal(2))
	})
})
