package trace_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/csim/trace"
)

var _ = Describe("ParseLine", func() {
	DescribeTable("well-formed lines",
		func(line string, want trace.Record) {
			rec, ok := trace.ParseLine(line)
			Expect(ok).To(BeTrue())
			Expect(rec).To(Equal(want))
		},
		Entry("indented load", " L 10,1",
			trace.Record{Op: trace.Load, Address: 0x10, Size: 1}),
		Entry("store", " S 7ff0005c8,8",
			trace.Record{Op: trace.Store, Address: 0x7ff0005c8, Size: 8}),
		Entry("modify", " M 0421c7f0,4",
			trace.Record{Op: trace.Modify, Address: 0x421c7f0, Size: 4}),
		Entry("instruction", "I 0400d7d4,8",
			trace.Record{Op: trace.Instruction, Address: 0x400d7d4, Size: 8}),
		Entry("0x prefix", "L 0xdeadbeef,4",
			trace.Record{Op: trace.Load, Address: 0xdeadbeef, Size: 4}),
		Entry("tabs and trailing space", "\tS\t1F,2  \r",
			trace.Record{Op: trace.Store, Address: 0x1f, Size: 2}),
		Entry("full 64-bit address", "L ffffffffffffffff,8",
			trace.Record{Op: trace.Load, Address: 0xffffffffffffffff, Size: 8}),
	)

	DescribeTable("malformed lines",
		func(line string) {
			_, ok := trace.ParseLine(line)
			Expect(ok).To(BeFalse())
		},
		Entry("empty", ""),
		Entry("blank", "   "),
		Entry("unknown op", " X 10,1"),
		Entry("op without space", "L10,1"),
		Entry("missing size", " L 10"),
		Entry("non-hex address", " L 10g,1"),
		Entry("non-numeric size", " L 10,one"),
		Entry("negative size", " L 10,-1"),
		Entry("address overflow", " L 1ffffffffffffffff,1"),
		Entry("valgrind header", "==12345== Lackey, an example Valgrind tool"),
	)

	It("should format records for verbose echo", func() {
		rec := trace.Record{Op: trace.Modify, Address: 0x421c7f0, Size: 4}
		Expect(rec.String()).To(Equal("M 421c7f0,4"))
	})

	It("should know its operations", func() {
		Expect(trace.Load.Valid()).To(BeTrue())
		Expect(trace.Instruction.Valid()).To(BeTrue())
		Expect(trace.Operation('X').Valid()).To(BeFalse())
		Expect(trace.Store.String()).To(Equal("S"))
	})
})
