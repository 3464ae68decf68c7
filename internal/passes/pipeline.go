package passes

// DefaultPipeline wires the portfolio (every transform except the
// single-sweep DeadCodeElimination; SimplifyCFG runs twice) into the
// ordering spec §8's
// end-to-end scenarios rely on: constants are canonicalized and
// propagated before anything tries to compare or fold them;
// simplification (algebraic identities, branch folding, CFG cleanup)
// runs before the pass ranks that benefit from a smaller, redundancy-free
// CFG (GVN, LICM); cosmetic passes (typing, naming, compound-assignment
// annotation) run once the IR has reached its simplified shape; dead
// code elimination runs last, aggressively, to remove anything the rest
// of the pipeline stranded.
//
// Grounded on the teacher's OptimizationPipeline.DefaultPipeline
// (construct once, register in a fixed order, run to completion).
func DefaultPipeline() *PassManager {
	pm := NewPassManager()

	pm.AddModulePass(ConstantCoalescing{})
	pm.AddFunctionPass(RedundantCopyElimination{})
	pm.AddFunctionPass(ConstantFolding{})
	pm.AddFunctionPass(ConstantPropagation{})
	pm.AddBasicBlockPass(AlgebraicSimplification{})
	pm.AddFunctionPass(BranchFolding{})
	pm.AddFunctionPass(SimplifyCFG{})
	pm.AddFunctionPass(GlobalValueNumbering{})
	pm.AddLoopPass(LoopInvariantCodeMotion{})
	pm.AddFunctionPass(TypePropagation{})
	pm.AddFunctionPass(CompoundAssignment{})
	pm.AddFunctionPass(VariableReconstruction{})
	pm.AddFunctionPass(RedundantReturnElimination{})
	pm.AddFunctionPass(SimplifyCFG{})
	pm.AddFunctionPass(&FixedPoint{Pass: AggressiveDeadCodeElimination{}, MaxIters: 8})

	return pm
}
