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

package parsetree

import (
	"sort"

	"cxparse/seqgraph"
)

// LabelFunc provides a CE label for a pattern (construction) name
type LabelFunc func(pattern string) string

type draftItem struct {
	terminal *seqgraph.ParseEvent
	child    *draft
}

type draft struct {
	pattern string
	origin  int
	end     int
	closed  bool
	items   []draftItem
	parent  *draft
}

func (d *draft) hasTimestamp(ts int) bool {
	for _, item := range d.items {
		if item.terminal != nil && item.terminal.Timestamp == ts {
			return true
		}
	}
	return false
}

func (d *draft) clone() *draft {
	ans := &draft{pattern: d.pattern, origin: d.origin, end: d.end, closed: d.closed}
	ans.items = make([]draftItem, len(d.items))
	for i, item := range d.items {
		if item.child != nil {
			ch := item.child.clone()
			ch.parent = ans
			ans.items[i] = draftItem{child: ch}

		} else {
			ans.items[i] = item
		}
	}
	return ans
}

type draftKey struct {
	pattern string
	origin  int
}

type reconstruction struct {
	open   map[draftKey][]*draft
	closed map[draftKey][]*draft
	all    []*draft
}

// openFor finds the innermost open draft of an instance which did
// not consume anything at the timestamp yet. Parallel branches
// of a single instance thus end up in different drafts.
func (r *reconstruction) openFor(key draftKey, ts int) *draft {
	items := r.open[key]
	for i := len(items) - 1; i >= 0; i-- {
		if !items[i].hasTimestamp(ts) {
			return items[i]
		}
	}
	// an instance extended after its completion (trailing optional slots)
	closed := r.closed[key]
	for i := len(closed) - 1; i >= 0; i-- {
		if closed[i].end == ts-1 {
			d := closed[i].clone()
			d.closed = false
			d.parent = nil
			r.register(key, d)
			return d
		}
	}
	d := &draft{pattern: key.pattern, origin: key.origin}
	r.register(key, d)
	return d
}

func (r *reconstruction) register(key draftKey, d *draft) {
	r.open[key] = append(r.open[key], d)
	r.all = append(r.all, d)
}

func (r *reconstruction) close(key draftKey, ts int) {
	items := r.open[key]
	if len(items) == 0 {
		return
	}
	// prefer the draft which consumed the last item
	pick := len(items) - 1
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].hasTimestamp(ts) || items[i].lastChildEnd() == ts {
			pick = i
			break
		}
	}
	d := items[pick]
	d.closed = true
	d.end = ts
	r.open[key] = append(items[:pick], items[pick+1:]...)
	r.closed[key] = append(r.closed[key], d)
}

func (d *draft) lastChildEnd() int {
	if len(d.items) == 0 {
		return -1
	}
	last := d.items[len(d.items)-1]
	if last.child != nil {
		return last.child.end
	}
	return last.terminal.Timestamp
}

func (r *reconstruction) findClosed(pattern string, origin, end int) *draft {
	items := r.closed[draftKey{pattern: pattern, origin: origin}]
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].end == end {
			return items[i]
		}
	}
	return nil
}

// FromEvents reconstructs a tree of completed patterns from parse
// events. Events are processed in timestamp order. Element events
// append terminals to the open node of their pattern instance
// (identified by the pattern and the instance origin), a pattern
// completion closes the node and a construction reference event
// attaches the closed node to the referring one. Nodes of instances
// which never completed are not part of the result.
func FromEvents(events []seqgraph.ParseEvent, labelOf LabelFunc) *Tree {
	sorted := make([]seqgraph.ParseEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Timestamp != sorted[j].Timestamp {
			return sorted[i].Timestamp < sorted[j].Timestamp
		}
		return sorted[i].Seq < sorted[j].Seq
	})
	r := &reconstruction{
		open:   make(map[draftKey][]*draft),
		closed: make(map[draftKey][]*draft),
	}
	for i := range sorted {
		evt := &sorted[i]
		key := draftKey{pattern: evt.Pattern, origin: evt.Origin}
		switch evt.Type {
		case seqgraph.EventElementFired:
			d := r.openFor(key, evt.Timestamp)
			d.items = append(d.items, draftItem{terminal: evt})
		case seqgraph.EventRefFired:
			child := r.findClosed(evt.Value, evt.RefOrigin, evt.Timestamp)
			if child == nil {
				continue
			}
			if child.parent != nil {
				child = child.clone()
			}
			d := r.openFor(key, evt.Timestamp)
			child.parent = d
			d.items = append(d.items, draftItem{child: child})
		case seqgraph.EventPatternCompleted:
			r.close(key, evt.Timestamp)
		}
	}
	tree := New()
	for _, d := range r.all {
		if d.closed && (d.parent == nil || !d.parent.closed) {
			tree.materialize(d, labelOf)
		}
	}
	tree.SortChildren()
	return tree
}

func (t *Tree) materialize(d *draft, labelOf LabelFunc) int {
	var label string
	if labelOf != nil {
		label = labelOf(d.pattern)
	}
	idx := t.AddPattern(d.pattern, label, d.origin, d.end)
	for _, item := range d.items {
		if item.child != nil {
			if !item.child.closed {
				continue
			}
			ch := t.materialize(item.child, labelOf)
			t.link(idx, ch)

		} else {
			evt := item.terminal
			ch := t.AddTerminal(evt.ElementType, evt.Value, evt.SourceNodeID, evt.Timestamp)
			t.link(idx, ch)
		}
	}
	return idx
}
