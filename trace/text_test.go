package trace_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/andreipoe/cachesim/trace"
)

const fiveEntryTrace = `32,0,0,0,16,0xffff37414010,0x40091c
33,0,0,1,16,0xffff37313010,0x400924
4016116,0,3,0,8,0x6cf540,0x40e364
4016118,0,2,0,8,0x6cf580,0x40e364
4016123,0,6,0,8,0x6cf620,0x40e364
`

var _ = Describe("ReadText", func() {
	It("parses a 5-entry trace field-by-field", func() {
		tr, err := trace.ReadText(strings.NewReader(fiveEntryTrace))
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Len()).To(Equal(5))

		reqs := tr.Requests()
		Expect(reqs[0]).To(Equal(trace.Request{
			TID: 0, Size: 16, BundleKind: 0, IsWrite: false,
			Address: 0xffff37414010, PC: 0x40091c,
		}))
		Expect(reqs[1].IsWrite).To(BeTrue())
		Expect(reqs[2].BundleKind).To(Equal(int32(3)))
	})

	It("skips empty lines", func() {
		tr, err := trace.ReadText(strings.NewReader("\n" + fiveEntryTrace + "\n\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Len()).To(Equal(5))
	})

	It("aborts with an error naming the offending line", func() {
		_, err := trace.ReadText(strings.NewReader("32,0,0,0,16,0xdead\n"))
		Expect(err).To(MatchError(trace.ErrInvalidTrace))
		Expect(err.Error()).To(ContainSubstring("line 1"))
	})

	It("rejects a non-hex address field", func() {
		_, err := trace.ReadText(strings.NewReader("32,0,0,0,16,notahexnumber,0x400\n"))
		Expect(err).To(MatchError(trace.ErrInvalidTrace))
	})
})
