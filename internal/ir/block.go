package ir

// BasicBlock is both a Value (of type label) and a container of
// instructions: an ordered sequence whose last element, if the block is
// terminated, is a terminator. Successors are derived from that
// terminator; predecessors are maintained explicitly by the builder when
// a branch is created, and kept in sync when a terminator is replaced.
type BasicBlock struct {
	valueBase

	id    int
	Label string
	Fn    *Function

	Instrs []*Instr

	Preds []*BasicBlock

	// Sealed is set once all predecessors of this block are known; the
	// accumulator-lowering front-end (internal/lower) uses it to decide
	// when an incomplete PHI can be finalized. The core IR package does
	// not itself interpret Sealed beyond storing it.
	Sealed bool
}

func (b *BasicBlock) Type() *Type  { return LabelT() }
func (b *BasicBlock) Name() string { return b.Label }

// Terminator returns the block's terminator instruction, or nil if the
// block is not yet closed.
func (b *BasicBlock) Terminator() *Instr {
	if len(b.Instrs) == 0 {
		return nil
	}
	last := b.Instrs[len(b.Instrs)-1]
	if last.IsTerminator() {
		return last
	}
	return nil
}

func (b *BasicBlock) IsTerminated() bool { return b.Terminator() != nil }

// Successors is derived from the terminator, per the data model's
// invariant that CFG edges are derived from terminators.
func (b *BasicBlock) Successors() []*BasicBlock {
	term := b.Terminator()
	if term == nil {
		return nil
	}
	return term.GetSuccessors()
}

func (b *BasicBlock) Predecessors() []*BasicBlock {
	out := make([]*BasicBlock, len(b.Preds))
	copy(out, b.Preds)
	return out
}

func (b *BasicBlock) addPred(p *BasicBlock) {
	for _, x := range b.Preds {
		if x == p {
			return
		}
	}
	b.Preds = append(b.Preds, p)
}

// AddPred is addPred exported for internal/passes, which rewrites
// terminators and CFG edges directly (BranchFolding, SimplifyCFG, LICM's
// pre-header synthesis) rather than through the Builder's branch
// constructors.
func (b *BasicBlock) AddPred(p *BasicBlock) { b.addPred(p) }

// RemovePred is removePred exported for the same passes.
func (b *BasicBlock) RemovePred(p *BasicBlock) { b.removePred(p) }

func (b *BasicBlock) removePred(p *BasicBlock) {
	for i, x := range b.Preds {
		if x == p {
			b.Preds = append(b.Preds[:i], b.Preds[i+1:]...)
			return
		}
	}
}

// append adds inst to the tail of the block unconditionally. Builder
// enforces the insertion rules (append vs. insert-before-terminator vs.
// fail); this method just performs the mechanical insert.
func (b *BasicBlock) append(inst *Instr) {
	inst.block = b
	b.Instrs = append(b.Instrs, inst)
}

// insertBeforeTerminator inserts inst immediately before the existing
// terminator, supporting late PHI/constant insertion at block ends.
func (b *BasicBlock) insertBeforeTerminator(inst *Instr) {
	inst.block = b
	n := len(b.Instrs)
	b.Instrs = append(b.Instrs, nil)
	copy(b.Instrs[n:], b.Instrs[n-1:n])
	b.Instrs[n-1] = inst
}

// PrependPhi inserts inst at the head of the block, immediately after any
// existing PHIs, preserving the invariant that PHIs only ever appear as a
// leading run (see Phis). Used by the accumulator-lowering front-end
// (internal/lower) when a cross-block vreg read needs a PHI ahead of
// instructions already appended to the block.
func (b *BasicBlock) PrependPhi(inst *Instr) {
	inst.block = b
	n := len(b.Phis())
	b.Instrs = append(b.Instrs, nil)
	copy(b.Instrs[n+1:], b.Instrs[n:])
	b.Instrs[n] = inst
}

// Phis returns the leading run of PHI instructions in the block. PHIs
// are only ever legal at block heads, so this is just a prefix scan.
func (b *BasicBlock) Phis() []*Instr {
	var out []*Instr
	for _, inst := range b.Instrs {
		if inst.op != OpPhi {
			break
		}
		out = append(out, inst)
	}
	return out
}

// AbsorbInstructions appends succ's instructions onto b, reassigning
// their ownership, and clears succ's own instruction list. Used by
// SimplifyCFG when merging a block into its sole predecessor: the caller
// is expected to have already erased b's unconditional-branch terminator
// before calling this.
func (b *BasicBlock) AbsorbInstructions(succ *BasicBlock) {
	for _, inst := range succ.Instrs {
		inst.block = b
	}
	b.Instrs = append(b.Instrs, succ.Instrs...)
	succ.Instrs = nil
}

// Index returns this block's position within its function's block list.
func (b *BasicBlock) Index() int {
	for idx, bb := range b.Fn.Blocks {
		if bb == b {
			return idx
		}
	}
	return -1
}
