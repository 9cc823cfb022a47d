// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"sort"
)

// span is a closed interval [first, last].
type span struct {
	first int
	last  int
}

type spanTreeNode struct {
	span    span
	maxlast int
}

// spanTree is an implicit balanced binary tree stored in a slice:
// the children of node i are 2i+1 and 2i+2.
type spanTree []spanTreeNode

// mask is a set of closed intervals per chromosome. Add all
// intervals, then Freeze, then Check.
type mask struct {
	spans  map[string][]span
	trees  map[string]spanTree
	frozen bool
}

func (m *mask) Add(chromosome string, first, last int) {
	if m.spans == nil {
		m.spans = map[string][]span{}
	}
	m.spans[chromosome] = append(m.spans[chromosome], span{first, last})
	m.frozen = false
}

func (m *mask) Freeze() {
	m.trees = map[string]spanTree{}
	for chromosome, spans := range m.spans {
		m.trees[chromosome] = buildSpanTree(spans)
	}
	m.frozen = true
}

// Check reports whether [first, last] overlaps any interval on the
// given chromosome.
func (m *mask) Check(chromosome string, first, last int) bool {
	if !m.frozen {
		panic("bug: (*mask)Check() called before Freeze()")
	}
	return m.trees[chromosome].overlaps(0, span{first, last})
}

// Len returns the number of intervals added.
func (m *mask) Len() int {
	n := 0
	for _, spans := range m.spans {
		n += len(spans)
	}
	return n
}

func buildSpanTree(in []span) spanTree {
	if len(in) == 0 {
		return nil
	}
	sort.Slice(in, func(i, j int) bool {
		return in[i].first < in[j].first
	})
	size := 1
	for size < len(in) {
		size *= 2
	}
	tree := make(spanTree, size)
	for i := range tree {
		// Padding slots that fill never reaches keep maxlast -1,
		// below any query start, so overlaps() never descends
		// into them even when the tree is not full.
		tree[i].maxlast = -1
	}
	tree.fill(0, in)
	return tree
}

func (tree spanTree) overlaps(root int, q span) bool {
	return root < len(tree) &&
		tree[root].maxlast >= q.first &&
		((tree[root].span.first <= q.last && tree[root].span.last >= q.first) ||
			tree.overlaps(root*2+1, q) ||
			tree.overlaps(root*2+2, q))
}

// fill stores the sorted spans in the subtree at root and returns
// the subtree's largest interval end.
func (tree spanTree) fill(root int, in []span) int {
	mid := len(in) / 2
	node := spanTreeNode{span: in[mid], maxlast: in[mid].last}
	if mid > 0 {
		if last := tree.fill(root*2+1, in[:mid]); last > node.maxlast {
			node.maxlast = last
		}
	}
	if mid+1 < len(in) {
		if last := tree.fill(root*2+2, in[mid+1:]); last > node.maxlast {
			node.maxlast = last
		}
	}
	tree[root] = node
	return node.maxlast
}
