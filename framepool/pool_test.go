package framepool

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vmsim/vm"
)

var _ = Describe("Pool", func() {
	var (
		pt   *vm.PageTable
		pool *Pool
	)

	BeforeEach(func() {
		pt = vm.NewPageTable()
		pool = NewPool(3, pt)
	})

	It("should start with all frames free", func() {
		Expect(pool.Capacity()).To(Equal(3))
		Expect(pool.Occupied()).To(Equal(0))
		Expect(pool.IsFull()).To(BeFalse())

		for i, f := range pool.Frames() {
			Expect(f.ID).To(Equal(i))
			Expect(f.Free).To(BeTrue())
		}
	})

	It("should refuse an empty pool", func() {
		Expect(func() { NewPool(0, pt) }).To(Panic())
	})

	It("should allocate frames in pool order", func() {
		f0, ok := pool.Allocate(10)
		Expect(ok).To(BeTrue())
		Expect(f0.ID).To(Equal(0))
		Expect(f0.Page).To(Equal(vm.PageNumber(10)))
		Expect(f0.Free).To(BeFalse())

		f1, _ := pool.Allocate(11)
		Expect(f1.ID).To(Equal(1))
		Expect(pool.Occupied()).To(Equal(2))
	})

	It("should fail to allocate when full", func() {
		pool.Allocate(1)
		pool.Allocate(2)
		pool.Allocate(3)

		Expect(pool.IsFull()).To(BeTrue())

		f, ok := pool.Allocate(4)
		Expect(ok).To(BeFalse())
		Expect(f).To(BeNil())
	})

	It("should find occupied frames only", func() {
		pool.Allocate(7)

		f, ok := pool.Find(7)
		Expect(ok).To(BeTrue())
		Expect(f.ID).To(Equal(0))

		_, ok = pool.Find(8)
		Expect(ok).To(BeFalse())

		pt.EntryFor(7).Valid = true
		pool.Evict(f)

		_, ok = pool.Find(7)
		Expect(ok).To(BeFalse())
	})

	It("should evict a clean page without writeback", func() {
		f, _ := pool.Allocate(5)
		entry := pt.EntryFor(5)
		entry.Valid = true

		writeback := pool.Evict(f)

		Expect(writeback).To(BeFalse())
		Expect(entry.Valid).To(BeFalse())
		Expect(f.Free).To(BeTrue())
		Expect(pool.Occupied()).To(Equal(0))
	})

	It("should evict a dirty page with writeback", func() {
		f, _ := pool.Allocate(5)
		entry := pt.EntryFor(5)
		entry.Valid = true
		entry.Dirty = true

		Expect(pool.Evict(f)).To(BeTrue())
		Expect(entry.Valid).To(BeFalse())
		Expect(entry.Dirty).To(BeFalse())
	})

	It("should reuse the evicted frame", func() {
		pool.Allocate(1)
		f, _ := pool.Allocate(2)
		pool.Allocate(3)

		pool.Evict(f)
		again, ok := pool.Allocate(4)

		Expect(ok).To(BeTrue())
		Expect(again).To(BeIdenticalTo(f))
		Expect(again.Page).To(Equal(vm.PageNumber(4)))
	})

	It("should panic when evicting a free frame", func() {
		Expect(func() { pool.Evict(pool.Frame(0)) }).To(Panic())
	})
})
