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

// Package flatsyntax inserts flat boundary markers into a linear
// rendering of a UD-annotated sentence. It is a deterministic rule
// based pass independent of the construction grammar.
package flatsyntax

import (
	"sort"
	"strings"

	"cxparse/token"
)

var (
	clauseRels = []string{
		"root", "ccomp", "xcomp", "acl", "acl:relcl", "advcl", "parataxis",
	}
	embeddingRels  = []string{"acl", "acl:relcl"}
	mweRels        = []string{"fixed", "flat", "flat:name", "compound"}
	argumentRels   = []string{"nsubj", "obj", "iobj", "obl", "nmod"}
	postVerbalRels = []string{"obj", "iobj", "obl", "xcomp", "nsubj"}
)

func relIn(rel string, rels []string) bool {
	for _, r := range rels {
		if rel == r {
			return true
		}
	}
	return false
}

// baseRel strips a relation subtype except for the ones
// listed explicitly
func baseRel(rel string, rels []string) string {
	if relIn(rel, rels) {
		return rel
	}
	if b, _, ok := strings.Cut(rel, ":"); ok {
		return b
	}
	return rel
}

// Clause is a predicate with tokens assigned to it
type Clause struct {
	ID     int   `json:"id"`
	Root   int   `json:"root"`
	Tokens []int `json:"tokens"`

	// Embedded is set for a relative clause splitting
	// its parent clause
	Embedded bool `json:"embedded,omitempty"`
}

func (c *Clause) First() int {
	return c.Tokens[0]
}

// Result is an annotated sentence
type Result struct {
	SentenceID  string             `json:"sentenceId"`
	Annotations []token.Annotation `json:"annotations"`
	Clauses     []*Clause          `json:"clauses"`
	Text        string             `json:"text"`
}

type annotator struct {
	sent     *token.Sentence
	ann      []token.Annotation
	clauses  []*Clause
	subtrees map[int][]int
}

// Annotate runs all the passes and renders the marked sentence
func Annotate(sent *token.Sentence) *Result {
	a := &annotator{
		sent:     sent,
		ann:      make([]token.Annotation, sent.Len()),
		subtrees: make(map[int][]int),
	}
	a.findClauses()
	a.findMWEs()
	a.markPhrases()
	a.markClauses()
	return &Result{
		SentenceID:  sent.ID,
		Annotations: a.ann,
		Clauses:     a.clauses,
		Text:        a.render(),
	}
}

func (a *annotator) at(id int) *token.Annotation {
	return &a.ann[id-1]
}

func (a *annotator) isClauseRoot(tok *token.Token) bool {
	if tok.Parent == token.RootParent {
		return true
	}
	if relIn(baseRel(tok.Rel, clauseRels), clauseRels) {
		return true
	}
	return baseRel(tok.Rel, nil) == "conj" && tok.IsVerbal()
}

// subtree returns sorted IDs of the token and all its descendants
func (a *annotator) subtree(id int) []int {
	if ans, ok := a.subtrees[id]; ok {
		return ans
	}
	ans := []int{id}
	for _, ch := range a.sent.Children(id) {
		ans = append(ans, a.subtree(ch)...)
	}
	sort.Ints(ans)
	a.subtrees[id] = ans
	return ans
}

// findClauses assigns each token to exactly one clause. The descent
// from a clause root stops at roots of other clauses.
func (a *annotator) findClauses() {
	for _, tok := range a.sent.Tokens {
		if a.isClauseRoot(tok) {
			a.clauses = append(a.clauses, &Clause{ID: len(a.clauses), Root: tok.ID})
		}
	}
	for _, cl := range a.clauses {
		var visit func(id int)
		visit = func(id int) {
			a.at(id).SetClause(cl.ID)
			cl.Tokens = append(cl.Tokens, id)
			for _, ch := range a.sent.Children(id) {
				if !a.isClauseRoot(a.sent.At(ch)) {
					visit(ch)
				}
			}
		}
		visit(cl.Root)
		sort.Ints(cl.Tokens)
	}
}

// findMWEs merges tokens linked by MWE relations into groups
func (a *annotator) findMWEs() {
	parent := make([]int, a.sent.Len()+1)
	for i := range parent {
		parent[i] = i
	}
	var find func(x int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	for _, tok := range a.sent.Tokens {
		if relIn(tok.Rel, mweRels) && tok.Parent != token.RootParent {
			parent[find(tok.ID)] = find(tok.Parent)
		}
	}
	members := make(map[int][]int)
	for _, tok := range a.sent.Tokens {
		r := find(tok.ID)
		members[r] = append(members[r], tok.ID)
	}
	roots := make([]int, 0, len(members))
	for r, m := range members {
		if len(m) > 1 {
			roots = append(roots, r)
		}
	}
	sort.Slice(roots, func(i, j int) bool {
		return members[roots[i]][0] < members[roots[j]][0]
	})
	for groupID, r := range roots {
		group := members[r]
		for i, id := range group {
			a.at(id).SetMWEGroup(groupID)
			if i < len(group)-1 && group[i+1] == id+1 {
				a.at(id).JoinWithNext = true
			}
		}
	}
}

// canMarkPhrase tells whether a phrase boundary may follow the token
func (a *annotator) canMarkPhrase(id int) bool {
	if id < 1 || id >= a.sent.Len() {
		return false
	}
	next := a.sent.At(id + 1)
	curr := a.at(id)
	return !curr.JoinWithNext && !next.IsPunct() && !a.sent.At(id).IsPunct() &&
		curr.Clause() == a.at(id+1).Clause()
}

func (a *annotator) markPhrase(id int) {
	if a.canMarkPhrase(id) {
		a.at(id).BoundaryAfter = token.MarkerPhrase
	}
}

// clausePart returns the part of a subtree belonging to the clause
func (a *annotator) clausePart(id int) []int {
	clause := a.at(id).Clause()
	ans := make([]int, 0, 4)
	for _, t := range a.subtree(id) {
		if a.at(t).Clause() == clause {
			ans = append(ans, t)
		}
	}
	return ans
}

func (a *annotator) markPhrases() {
	for _, tok := range a.sent.Tokens {
		rel := baseRel(tok.Rel, nil)

		// end of a nominal argument or a post-nominal modifier
		if relIn(rel, argumentRels) {
			part := a.clausePart(tok.ID)
			if !(rel == "nsubj" && len(part) == 1 && tok.POS == "PRON") {
				a.markPhrase(part[len(part)-1])
			}
		}

		// post-verbal position
		if relIn(rel, postVerbalRels) && tok.Parent != token.RootParent {
			head := a.sent.At(tok.Parent)
			part := a.clausePart(tok.ID)
			if head.IsVerbal() && part[0] > head.ID {
				a.markPhrase(part[0] - 1)
			}
		}

		// before a coordinator
		if rel == "cc" {
			a.markPhrase(tok.ID - 1)
		}
	}
}

func (a *annotator) lastNonPunct(ids []int) int {
	for i := len(ids) - 1; i >= 0; i-- {
		if !a.sent.At(ids[i]).IsPunct() {
			return ids[i]
		}
	}
	return -1
}

// isEmbedded tests whether the clause is a relative clause with
// tokens of its parent clause on both sides
func (a *annotator) isEmbedded(cl *Clause, last int) bool {
	root := a.sent.At(cl.Root)
	if !relIn(root.Rel, embeddingRels) || root.Parent == token.RootParent {
		return false
	}
	parentClause := a.at(root.Parent).Clause()
	var before, after bool
	for _, tok := range a.sent.Tokens {
		if a.at(tok.ID).Clause() != parentClause || tok.IsPunct() {
			continue
		}
		if tok.ID < cl.First() {
			before = true
		}
		if tok.ID > last {
			after = true
		}
	}
	return before && after
}

func (a *annotator) markClauses() {
	sentLast := -1
	for i := a.sent.Len(); i > 0; i-- {
		if !a.sent.At(i).IsPunct() {
			sentLast = i
			break
		}
	}
	if sentLast < 0 {
		return
	}
	for _, cl := range a.clauses {
		last := a.lastNonPunct(cl.Tokens)
		if last < 0 {
			continue
		}
		switch {
		case a.at(sentLast).Clause() == cl.ID:
			a.at(sentLast).BoundaryAfter = token.MarkerSentence
		case a.isEmbedded(cl, last):
			cl.Embedded = true
			a.at(cl.First()).InterruptionStart = true
			a.at(last).InterruptionEnd = true
			if a.at(last).BoundaryAfter == token.MarkerPhrase {
				a.at(last).BoundaryAfter = token.MarkerNone
			}
		default:
			a.at(last).BoundaryAfter = token.MarkerClause
		}
	}
}

func (a *annotator) render() string {
	var buff strings.Builder
	var prevMarker token.Marker
	for i, tok := range a.sent.Tokens {
		ann := a.ann[i]
		if tok.IsPunct() && (prevMarker == token.MarkerClause || prevMarker == token.MarkerSentence) {
			continue
		}
		if i > 0 && !tok.IsPunct() && !a.ann[i-1].JoinWithNext {
			buff.WriteString(" ")
		}
		if ann.InterruptionStart {
			buff.WriteString(string(token.MarkerOpen))
		}
		buff.WriteString(tok.Word)
		if ann.InterruptionEnd {
			buff.WriteString(string(token.MarkerClose))
		}
		buff.WriteString(string(ann.BoundaryAfter))
		if ann.JoinWithNext {
			buff.WriteString(string(token.MarkerJoin))
		}
		if ann.BoundaryAfter != token.MarkerNone {
			prevMarker = ann.BoundaryAfter

		} else if !tok.IsPunct() {
			prevMarker = token.MarkerNone
		}
	}
	return strings.Join(strings.Fields(buff.String()), " ")
}
