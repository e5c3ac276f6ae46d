package framepool

import (
	"container/list"

	"github.com/sarchlab/vmsim/vm"
)

// LRUPolicy evicts the least recently used frame.
type LRUPolicy struct {
	// visitList holds frame IDs, least recently used at the front.
	visitList *list.List
	elements  map[int]*list.Element
}

// NewLRUPolicy returns a newly constructed LRU policy.
func NewLRUPolicy() *LRUPolicy {
	return &LRUPolicy{
		visitList: list.New(),
		elements:  make(map[int]*list.Element),
	}
}

// Name returns "lru".
func (p *LRUPolicy) Name() string {
	return string(PolicyLRU)
}

// Visit moves the frame to the most recently used end.
func (p *LRUPolicy) Visit(f *Frame, _ vm.Access) {
	elem, found := p.elements[f.ID]
	if found {
		p.visitList.MoveToBack(elem)
		return
	}

	p.elements[f.ID] = p.visitList.PushBack(f.ID)
}

// FindVictim returns the least recently used frame.
func (p *LRUPolicy) FindVictim(pool *Pool) *Frame {
	for elem := p.visitList.Front(); elem != nil; elem = elem.Next() {
		f := pool.Frame(elem.Value.(int))
		if !f.Free {
			return f
		}
	}

	panic("no frame to evict")
}

// Order returns the IDs of the visited frames, least recently used first.
func (p *LRUPolicy) Order() []int {
	ids := make([]int, 0, p.visitList.Len())
	for elem := p.visitList.Front(); elem != nil; elem = elem.Next() {
		ids = append(ids, elem.Value.(int))
	}

	return ids
}
