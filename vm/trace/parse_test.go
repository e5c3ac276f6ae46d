package trace_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vmsim/vm"
	"github.com/sarchlab/vmsim/vm/trace"
)

var _ = Describe("ParseLine", func() {
	It("should parse a compact line", func() {
		access, err := trace.ParseLine("L00002000")

		Expect(err).NotTo(HaveOccurred())
		Expect(access.Kind).To(Equal(vm.AccessLoad))
		Expect(access.Addr).To(Equal(vm.Address(0x2000)))
		Expect(access.Page).To(Equal(vm.PageNumber(1)))
		Expect(access.RootIndex).To(Equal(0))
		Expect(access.LeafIndex).To(Equal(1))
	})

	It("should strip whitespace anywhere", func() {
		access, err := trace.ParseLine(" S  0000 000C\t")

		Expect(err).NotTo(HaveOccurred())
		Expect(access.Kind).To(Equal(vm.AccessStore))
		Expect(access.Addr).To(Equal(vm.Address(0xc)))
	})

	It("should accept an access size suffix", func() {
		access, err := trace.ParseLine(" M 04222cac,8")

		Expect(err).NotTo(HaveOccurred())
		Expect(access.Kind).To(Equal(vm.AccessModify))
		Expect(access.Addr).To(Equal(vm.Address(0x04222cac)))
	})

	It("should parse the highest address", func() {
		access, err := trace.ParseLine("IFFFFFFFF")

		Expect(err).NotTo(HaveOccurred())
		Expect(access.RootIndex).To(Equal(vm.NumRootSlots - 1))
		Expect(access.LeafIndex).To(Equal(vm.NumLeafSlots - 1))
	})

	DescribeTable("malformed lines",
		func(line string) {
			_, err := trace.ParseLine(line)

			var parseErr *trace.ParseError
			Expect(err).To(BeAssignableToTypeOf(parseErr))
		},
		Entry("too short", "L0000200"),
		Entry("too long", "L000020000"),
		Entry("unknown kind", "X00002000"),
		Entry("not hexadecimal", "L0000200G"),
		Entry("bad size", "L00002000,x"),
		Entry("empty size", "L00002000,"),
		Entry("kind only", "L"),
	)

	It("should tell event lines apart", func() {
		Expect(trace.IsEventLine("==1234== comment")).To(BeFalse())
		Expect(trace.IsEventLine("   ")).To(BeFalse())
		Expect(trace.IsEventLine("")).To(BeFalse())
		Expect(trace.IsEventLine("I 0000000C")).To(BeTrue())
		Expect(trace.IsEventLine(" ==")).To(BeTrue())
	})
})
