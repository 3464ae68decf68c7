package passes

import "abcssa/internal/ir"

// Loop is one natural loop: a header dominating every block in the loop
// body, discovered from a back edge latch->header where header dominates
// latch (standard reducible-loop definition).
type Loop struct {
	Header *ir.BasicBlock
	Latch  *ir.BasicBlock
	Blocks []*ir.BasicBlock // header included
}

// Contains reports whether b is part of the loop body.
func (l *Loop) Contains(b *ir.BasicBlock) bool {
	for _, x := range l.Blocks {
		if x == b {
			return true
		}
	}
	return false
}

// LoopForest is the set of natural loops found in a function, innermost
// loops appearing before the outer loops that contain them would if this
// portfolio needed nesting (LICM here only hoists one level, so the
// forest is kept flat per the spec's single-pre-header wording).
type LoopForest struct {
	Loops []*Loop
}

func (LoopAnalysis) ID() AnalysisID { return AnalysisLoops }
func (LoopAnalysis) Name() string   { return "LoopForest" }

// LoopAnalysis is the AnalysisPass token for LoopForest.
type LoopAnalysis struct{}

// computeLoopForest finds back edges (b -> h where h dominates b) and
// grows each loop body by walking predecessors backward from the latch
// until the header is reached, per the textbook natural-loop construction.
func computeLoopForest(fn *ir.Function, dom *Dominance) *LoopForest {
	forest := &LoopForest{}
	for _, latch := range fn.Blocks {
		for _, header := range latch.Successors() {
			if !dom.Dominates(header, latch) {
				continue
			}
			forest.Loops = append(forest.Loops, buildLoop(header, latch))
		}
	}
	return forest
}

func buildLoop(header, latch *ir.BasicBlock) *Loop {
	blocks := map[*ir.BasicBlock]bool{header: true}
	var worklist []*ir.BasicBlock
	if latch != header {
		blocks[latch] = true
		worklist = append(worklist, latch)
	}
	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, p := range b.Predecessors() {
			if !blocks[p] {
				blocks[p] = true
				worklist = append(worklist, p)
			}
		}
	}
	out := make([]*ir.BasicBlock, 0, len(blocks))
	for b := range blocks {
		out = append(out, b)
	}
	return &Loop{Header: header, Latch: latch, Blocks: out}
}

// outsideLoopPreds returns the loop header's predecessors that are not
// themselves part of the loop body (the loop's entering edges).
func outsideLoopPreds(l *Loop) []*ir.BasicBlock {
	var out []*ir.BasicBlock
	for _, p := range l.Header.Predecessors() {
		if !l.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}

// preheader returns the loop's existing pre-header if the header has
// exactly one entering edge from outside the loop and that predecessor's
// sole successor is the header (so it is safe to treat it as a
// pre-header in place); otherwise it returns nil so the caller can
// synthesize one per spec §4.8 ("splitting the unique predecessor edge").
func preheader(l *Loop) *ir.BasicBlock {
	outside := outsideLoopPreds(l)
	if len(outside) != 1 {
		return nil
	}
	cand := outside[0]
	if len(cand.Successors()) == 1 {
		return cand
	}
	return nil
}

// synthesizePreheader splits the loop's unique entering edge by creating
// a fresh block between the sole outside predecessor and the header,
// retargeting that predecessor's terminator and the header's PHI incoming
// entries. Returns nil if the header has more than one entering edge
// (the spec's synthesis mechanism only covers the unique-edge case; a
// header with multiple entering edges keeps its existing PHIs and is
// simply not hoisted into).
func synthesizePreheader(fn *ir.Function, l *Loop) *ir.BasicBlock {
	outside := outsideLoopPreds(l)
	if len(outside) != 1 {
		return nil
	}
	pred := outside[0]
	header := l.Header

	ph := fn.CreateBlock(header.Label + ".preheader")
	b := ir.NewBuilder()
	b.SetFunction(fn)
	b.SetBlock(ph)
	if _, err := b.BuildBr(header); err != nil {
		fn.RemoveBlock(ph)
		return nil
	}

	term := pred.Terminator()
	for i, t := range term.Targets {
		if t == header {
			term.Targets[i] = ph
		}
	}
	ph.AddPred(pred)
	header.RemovePred(pred)

	for _, phi := range header.Phis() {
		v := phi.IncomingFor(pred)
		phi.RemoveIncoming(pred)
		phi.AddIncoming(v, ph)
	}

	return ph
}
