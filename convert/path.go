package convert

import (
	"container/heap"

	"github.com/blockflow/blockflow/errors"
	"github.com/blockflow/blockflow/storage"
)

// pathCost orders candidate paths. Primary order is declared cost; ties
// fall to fewer hops, then to fewer collapses (edges landing on a
// non-streaming format), so the search keeps lazy sequences lazy for as
// long as an equally cheap alternative exists.
type pathCost struct {
	cost      int
	hops      int
	collapses int
}

func (a pathCost) less(b pathCost) bool {
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	if a.hops != b.hops {
		return a.hops < b.hops
	}
	return a.collapses < b.collapses
}

func (a pathCost) plus(e Hop) pathCost {
	next := pathCost{cost: a.cost + e.Cost, hops: a.hops + 1, collapses: a.collapses}
	if !e.To.Streaming() {
		next.collapses++
	}
	return next
}

type searchItem struct {
	pair storage.Pair
	cost pathCost
	path []Hop
	seq  int
}

type searchQueue []*searchItem

func (q searchQueue) Len() int { return len(q) }
func (q searchQueue) Less(i, j int) bool {
	if q[i].cost.less(q[j].cost) {
		return true
	}
	if q[j].cost.less(q[i].cost) {
		return false
	}
	return q[i].seq < q[j].seq
}
func (q searchQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *searchQueue) Push(x any)        { *q = append(*q, x.(*searchItem)) }
func (q *searchQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// FindPath runs a least-cost search from source to target over the
// converter graph and returns the ordered hops. Fails with
// NO_CONVERSION_PATH when the target is unreachable.
func (r *Registry) FindPath(source, target storage.Pair) ([]Hop, error) {
	if source == target {
		return nil, nil
	}

	settled := make(map[storage.Pair]bool)
	best := make(map[storage.Pair]pathCost)

	seq := 0
	q := &searchQueue{}
	heap.Init(q)
	heap.Push(q, &searchItem{pair: source})
	best[source] = pathCost{}

	for q.Len() > 0 {
		item := heap.Pop(q).(*searchItem)
		if settled[item.pair] {
			continue
		}
		settled[item.pair] = true

		if item.pair == target {
			return item.path, nil
		}

		for _, e := range r.edgesFrom(item.pair) {
			if settled[e.To] {
				continue
			}
			next := item.cost.plus(e)
			if known, ok := best[e.To]; ok && !next.less(known) {
				continue
			}
			best[e.To] = next
			seq++
			path := make([]Hop, len(item.path), len(item.path)+1)
			copy(path, item.path)
			heap.Push(q, &searchItem{
				pair: e.To,
				cost: next,
				path: append(path, e),
				seq:  seq,
			})
		}
	}

	return nil, errors.NoConversionPath(source.String(), target.String())
}

// PathCost sums declared converter costs along a path.
func PathCost(path []Hop) int {
	total := 0
	for _, e := range path {
		total += e.Cost
	}
	return total
}
