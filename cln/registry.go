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

package cln

import "sort"

// Registry stores predictions in per-construction LIFO stacks.
// The most recently pushed prediction (i.e. the innermost construction)
// is always tested first, which is how center-embedded constructions
// get resolved before the ones they interrupt.
type Registry struct {
	stacks map[string][]*PredictionEntry
	seq    int
}

func NewRegistry() *Registry {
	return &Registry{stacks: make(map[string][]*PredictionEntry)}
}

func (r *Registry) Push(p Prediction, now, ttl int) *PredictionEntry {
	r.seq++
	entry := &PredictionEntry{Prediction: p, CreatedAt: now, TTL: ttl, seq: r.seq}
	r.stacks[p.Construction] = append(r.stacks[p.Construction], entry)
	return entry
}

// Stack returns entries registered for a construction, top first
func (r *Registry) Stack(construction string) []*PredictionEntry {
	items := r.stacks[construction]
	ans := make([]*PredictionEntry, len(items))
	for i, item := range items {
		ans[len(items)-1-i] = item
	}
	return ans
}

// Top returns the most recent entry of a construction or nil
func (r *Registry) Top(construction string) *PredictionEntry {
	items := r.stacks[construction]
	if len(items) == 0 {
		return nil
	}
	return items[len(items)-1]
}

// LIFO returns all the non-expired entries, the most recent first
func (r *Registry) LIFO(now int) []*PredictionEntry {
	ans := make([]*PredictionEntry, 0, r.Len())
	for _, items := range r.stacks {
		for _, item := range items {
			if !item.IsExpired(now) {
				ans = append(ans, item)
			}
		}
	}
	sort.Slice(ans, func(i, j int) bool {
		return ans[i].seq > ans[j].seq
	})
	return ans
}

// RemoveGhost drops all the predictions of a ghost construction
func (r *Registry) RemoveGhost(ghostID string) int {
	var removed int
	for name, items := range r.stacks {
		kept := items[:0]
		for _, item := range items {
			if item.GhostID == ghostID {
				removed++

			} else {
				kept = append(kept, item)
			}
		}
		if len(kept) == 0 {
			delete(r.stacks, name)

		} else {
			r.stacks[name] = kept
		}
	}
	return removed
}

// Sweep removes expired entries and returns them
func (r *Registry) Sweep(now int) []*PredictionEntry {
	expired := make([]*PredictionEntry, 0, 4)
	for name, items := range r.stacks {
		kept := items[:0]
		for _, item := range items {
			if item.IsExpired(now) {
				expired = append(expired, item)

			} else {
				kept = append(kept, item)
			}
		}
		if len(kept) == 0 {
			delete(r.stacks, name)

		} else {
			r.stacks[name] = kept
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].seq < expired[j].seq
	})
	return expired
}

func (r *Registry) Len() int {
	var ans int
	for _, items := range r.stacks {
		ans += len(items)
	}
	return ans
}

// HasGhost tells whether there is a live prediction of the ghost
func (r *Registry) HasGhost(ghostID string) bool {
	for _, items := range r.stacks {
		for _, item := range items {
			if item.GhostID == ghostID {
				return true
			}
		}
	}
	return false
}
