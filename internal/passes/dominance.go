package passes

import "abcssa/internal/ir"

// Dominance is the "computed on demand" dominance relation spec §4.8
// calls for under GlobalValueNumbering. Computed with the standard
// iterative (Cooper/Harvey/Kennedy) algorithm over reverse postorder,
// which converges in a handful of passes on the CFG shapes the
// accumulator-lowering front-end produces (no irreducible loops, since
// every branch target is a decoded offset discovered by a single forward
// scan).
type Dominance struct {
	fn     *ir.Function
	idom   map[*ir.BasicBlock]*ir.BasicBlock
	rpo    []*ir.BasicBlock
	rpoPos map[*ir.BasicBlock]int
}

func (DominanceAnalysis) ID() AnalysisID { return AnalysisDominance }
func (DominanceAnalysis) Name() string   { return "Dominance" }

// DominanceAnalysis is the AnalysisPass token for Dominance; AnalysisManager.Dominance
// performs the actual computation and caching.
type DominanceAnalysis struct{}

func computeDominance(fn *ir.Function) *Dominance {
	d := &Dominance{fn: fn, idom: map[*ir.BasicBlock]*ir.BasicBlock{}}
	if len(fn.Blocks) == 0 {
		return d
	}
	entry := fn.Blocks[0]
	d.rpo = reversePostorder(entry)
	d.rpoPos = map[*ir.BasicBlock]int{}
	for i, b := range d.rpo {
		d.rpoPos[b] = i
	}

	d.idom[entry] = entry
	changed := true
	for changed {
		changed = false
		for _, b := range d.rpo {
			if b == entry {
				continue
			}
			var newIdom *ir.BasicBlock
			for _, p := range b.Predecessors() {
				if _, ok := d.idom[p]; !ok {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = d.intersect(newIdom, p)
			}
			if newIdom != nil && d.idom[b] != newIdom {
				d.idom[b] = newIdom
				changed = true
			}
		}
	}
	return d
}

func (d *Dominance) intersect(a, b *ir.BasicBlock) *ir.BasicBlock {
	for a != b {
		for d.rpoPos[a] > d.rpoPos[b] {
			a = d.idom[a]
		}
		for d.rpoPos[b] > d.rpoPos[a] {
			b = d.idom[b]
		}
	}
	return a
}

// reversePostorder walks the CFG reachable from entry and returns it in
// reverse postorder, the order the iterative dominator algorithm needs.
func reversePostorder(entry *ir.BasicBlock) []*ir.BasicBlock {
	var post []*ir.BasicBlock
	visited := map[*ir.BasicBlock]bool{}
	var visit func(b *ir.BasicBlock)
	visit = func(b *ir.BasicBlock) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range b.Successors() {
			visit(s)
		}
		post = append(post, b)
	}
	visit(entry)
	// reverse
	out := make([]*ir.BasicBlock, len(post))
	for i, b := range post {
		out[len(out)-1-i] = b
	}
	return out
}

// IDom returns b's immediate dominator, or nil if b is unreachable from
// entry (not present in the dominator tree) or b is the entry itself.
func (d *Dominance) IDom(b *ir.BasicBlock) *ir.BasicBlock {
	idom, ok := d.idom[b]
	if !ok || idom == b {
		return nil
	}
	return idom
}

// Dominates reports whether a dominates b (every path from entry to b
// passes through a), inclusive: a dominates itself.
func (d *Dominance) Dominates(a, b *ir.BasicBlock) bool {
	if a == b {
		return true
	}
	cur, ok := d.idom[b]
	for ok {
		if cur == a {
			return true
		}
		parent, pok := d.idom[cur]
		if !pok || parent == cur {
			return false
		}
		cur, ok = parent, pok
	}
	return false
}

// ReversePostorder returns the function's blocks in reverse postorder
// from entry (unreachable blocks are omitted).
func (d *Dominance) ReversePostorder() []*ir.BasicBlock {
	out := make([]*ir.BasicBlock, len(d.rpo))
	copy(out, d.rpo)
	return out
}
