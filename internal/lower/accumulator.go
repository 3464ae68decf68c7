package lower

import (
	"fmt"

	cerrors "abcssa/internal/errors"
	"abcssa/internal/ir"
)

// AccVar is the reserved variable id standing for the accumulator
// register in AccumulatorState, so vregs and the accumulator share one
// on-the-fly SSA construction.
const AccVar = -1

// AccumulatorState is the on-the-fly SSA value tracker for one function:
// Braun et al.'s construction, restricted to the simplified variant
// named in the front-end's design ("seal all blocks at the end of the
// instruction stream" rather than incremental per-block sealing). During
// the single forward scan, every read with no local definition gets an
// empty, incomplete PHI immediately — construction never recurses into
// predecessors mid-scan. SealAll, run once after every block and branch
// edge is known, resolves every incomplete PHI's incoming pairs and
// collapses the trivial ones.
type AccumulatorState struct {
	fn      *ir.Function
	builder *ir.Builder

	// defs[block][varID] is the value most recently written to varID
	// within block, during the forward scan.
	defs map[*ir.BasicBlock]map[int]ir.Value

	// incomplete[block][varID] is the placeholder PHI created for a
	// read of varID in block before block's predecessors were known to
	// be complete; resolved by SealAll.
	incomplete map[*ir.BasicBlock]map[int]*ir.Instr

	// varType records the declared type for each vreg/accumulator slot,
	// needed to build a PHI's result type before any def is known.
	varType map[int]*ir.Type

	faults []*cerrors.CompilerFault
}

func NewAccumulatorState(fn *ir.Function, b *ir.Builder, varType map[int]*ir.Type) *AccumulatorState {
	return &AccumulatorState{
		fn:         fn,
		builder:    b,
		defs:       make(map[*ir.BasicBlock]map[int]ir.Value),
		incomplete: make(map[*ir.BasicBlock]map[int]*ir.Instr),
		varType:    varType,
	}
}

// WriteVariable records that varID now holds v within block, per the
// accumulator-lowering front-end's one-definition-per-store-site rule
// (§4.5: a sta/lda_reg/binop-with-acc site is an SSA def site).
func (s *AccumulatorState) WriteVariable(block *ir.BasicBlock, varID int, v ir.Value) {
	m, ok := s.defs[block]
	if !ok {
		m = make(map[int]ir.Value)
		s.defs[block] = m
	}
	m[varID] = v
}

// ReadVariable returns the current SSA value of varID as observed from
// block, placing an incomplete PHI at block's head if varID has no local
// definition yet (the no-recursion-into-predecessors rule).
func (s *AccumulatorState) ReadVariable(block *ir.BasicBlock, varID int) ir.Value {
	if m, ok := s.defs[block]; ok {
		if v, ok := m[varID]; ok {
			return v
		}
	}
	return s.readVariableFromBlockArg(block, varID)
}

func (s *AccumulatorState) readVariableFromBlockArg(block *ir.BasicBlock, varID int) ir.Value {
	t := s.varType[varID]
	if t == nil {
		t = ir.Any()
	}
	phi := s.builder.BuildPhiAtHead(block, t)
	if s.incomplete[block] == nil {
		s.incomplete[block] = make(map[int]*ir.Instr)
	}
	s.incomplete[block][varID] = phi
	// Record the PHI itself as block's local definition so a recursive
	// read of the same variable within this same block (possible while
	// SealAll later walks predecessors) terminates instead of looping.
	s.WriteVariable(block, varID, phi)
	return phi
}

// SealAll completes every incomplete PHI across the function: for each
// one, reads its variable from every predecessor (recursing through
// readVariableFromBlockArg as needed for predecessors that themselves
// have no local def), adds the incoming pairs, then removes the PHI if
// it turns out trivial. This is the single point where construction
// looks at predecessor blocks, matching the "seal all at end of stream"
// simplification.
func (s *AccumulatorState) SealAll() []*cerrors.CompilerFault {
	// Drain the work list: resolving one PHI can create further
	// incomplete PHIs in predecessor blocks (a read that itself had no
	// local def), so iterate until no block has unresolved entries.
	for {
		block, varID, phi, ok := s.popIncomplete()
		if !ok {
			break
		}
		s.resolveIncoming(block, varID, phi)
	}

	trivial := s.removeTrivialPhis()
	_ = trivial
	return s.faults
}

func (s *AccumulatorState) popIncomplete() (*ir.BasicBlock, int, *ir.Instr, bool) {
	for block, m := range s.incomplete {
		for varID, phi := range m {
			delete(m, varID)
			if len(m) == 0 {
				delete(s.incomplete, block)
			}
			return block, varID, phi, true
		}
	}
	return nil, 0, nil, false
}

func (s *AccumulatorState) resolveIncoming(block *ir.BasicBlock, varID int, phi *ir.Instr) {
	preds := block.Predecessors()
	if len(preds) == 0 {
		s.faults = append(s.faults, cerrors.NewLoweringError(cerrors.LoweringInconsistentAccUse,
			fmt.Sprintf("variable %s read in unreachable block %q has no reaching definition", varName(varID), block.Label)).
			WithFunction(s.fn.Name()).WithBlock(block.Label).Build())
		return
	}
	for _, p := range preds {
		v := s.ReadVariable(p, varID)
		phi.AddIncoming(v, p)
	}
}

// removeTrivialPhis collapses every PHI this state created that, once
// all incoming pairs are known, turns out to reference only one distinct
// value (ignoring references to itself) — the standard Braun et al.
// trivial-PHI cleanup, applied here to every PHI placed by ReadVariable
// rather than just the ones SealAll resolved, since earlier reads may
// have consumed a PHI before it was simplified.
func (s *AccumulatorState) removeTrivialPhis() int {
	var all []*ir.Instr
	for _, bb := range s.fn.Blocks {
		for _, inst := range bb.Phis() {
			all = append(all, inst)
		}
	}

	removed := 0
	changed := true
	for changed {
		changed = false
		for _, phi := range all {
			if phi.Block() == nil {
				continue // already removed
			}
			if same, ok := trivialValue(phi); ok {
				replaceAndRemovePhi(phi, same)
				removed++
				changed = true
			}
		}
	}
	return removed
}

// trivialValue returns (v, true) if phi's incoming values are all either
// phi itself or a single other value v.
func trivialValue(phi *ir.Instr) (ir.Value, bool) {
	var same ir.Value
	for idx := 0; idx < phi.OperandCount(); idx++ {
		v := phi.Operand(idx)
		if v == ir.Value(phi) || v == same {
			continue
		}
		if same != nil {
			return nil, false
		}
		same = v
	}
	if same == nil {
		// phi only ever referenced itself: undefined on every path,
		// leave it for the verifier to flag rather than guessing a value.
		return nil, false
	}
	return same, true
}

// replaceAndRemovePhi rewrites every use of phi to same and detaches phi
// from its block. A PHI that becomes trivial only once this one is
// removed is caught on removeTrivialPhis' next pass over the full list.
func replaceAndRemovePhi(phi *ir.Instr, same ir.Value) {
	phi.ReplaceAllUsesWith(same)
	phi.EraseFromBlock()
}

func varName(id int) string {
	if id == AccVar {
		return "acc"
	}
	return fmt.Sprintf("v%d", id)
}
