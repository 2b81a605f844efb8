// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//   This file is part of CXPARSE.
//
//  CXPARSE is free software: you can redistribute it and/or modify
//  it under the terms of the GNU General Public License as published by
//  the Free Software Foundation, either version 3 of the License, or
//  (at your option) any later version.
//
//  CXPARSE is distributed in the hope that it will be useful,
//  but WITHOUT ANY WARRANTY; without even the implied warranty of
//  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//  GNU General Public License for more details.
//
//  You should have received a copy of the GNU General Public License
//  along with CXPARSE.  If not, see <https://www.gnu.org/licenses/>.

package parser

import "container/heap"

// altQueue is a max-priority queue of alternatives ordered
// by (priority band desc, priority desc, start asc, insertion seq asc)
type altQueue []*AlternativeState

func (q altQueue) Len() int {
	return len(q)
}

func (q altQueue) Less(i, j int) bool {
	return precedes(q[i], q[j])
}

func (q altQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *altQueue) Push(x any) {
	*q = append(*q, x.(*AlternativeState))
}

func (q *altQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

func precedes(a, b *AlternativeState) bool {
	if a.Type.Rank() != b.Type.Rank() {
		return a.Type.Rank() > b.Type.Rank()
	}
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.Seq < b.Seq
}

func (q *altQueue) add(alt *AlternativeState) {
	heap.Push(q, alt)
}

func (q *altQueue) next() *AlternativeState {
	return heap.Pop(q).(*AlternativeState)
}

// retain keeps only live alternatives and restores the heap
func (q *altQueue) retain(keep func(alt *AlternativeState) bool) {
	kept := (*q)[:0]
	for _, alt := range *q {
		if keep(alt) {
			kept = append(kept, alt)
		}
	}
	for i := len(kept); i < len(*q); i++ {
		(*q)[i] = nil
	}
	*q = kept
	heap.Init(q)
}

// ordered returns a copy of items in the queue order
func (q altQueue) ordered() []*AlternativeState {
	tmp := make(altQueue, len(q))
	copy(tmp, q)
	heap.Init(&tmp)
	ans := make([]*AlternativeState, 0, len(q))
	for tmp.Len() > 0 {
		ans = append(ans, tmp.next())
	}
	return ans
}
