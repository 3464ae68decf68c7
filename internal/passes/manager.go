package passes

import (
	"fmt"
	"time"

	"abcssa/internal/ir"
)

// entry is one registered pass plus the bookkeeping the manager needs to
// dispatch it by kind without a type switch sprawled at every call site.
type entry struct {
	name        string
	description string
	run         func(runCtx) (Outcome, error)
}

// runCtx threads the module/function/analysis-manager state a pass needs
// down into the dispatch closures built at registration time.
type runCtx struct {
	mod *moduleCtx
}

// moduleCtx is the per-Run working state: the module plus one
// AnalysisManager per function, lazily created.
type moduleCtx struct {
	module   *ir.Module
	analyses map[string]*AnalysisManager
}

// PassManager runs a fixed, ordered list of passes over a module.
// Grounded on the teacher's OptimizationPipeline: registration order,
// OR-combined modification bits, fmt-based progress reporting (kept for
// cmd/irdump, not for the library API itself) — generalized to the four
// pass kinds and to a typed Outcome/Failure result instead of a bare bool.
type PassManager struct {
	entries        []entry
	ContinueOnFail bool
	Stats          *Stats
}

func NewPassManager() *PassManager {
	return &PassManager{Stats: NewStats()}
}

func (pm *PassManager) AddModulePass(p ModulePass) {
	pm.entries = append(pm.entries, entry{
		name: p.Name(), description: p.Description(),
		run: func(rc runCtx) (Outcome, error) { return p.RunModule(rc.mod.module) },
	})
}

func (pm *PassManager) AddFunctionPass(p FunctionPass) {
	pm.entries = append(pm.entries, entry{
		name: p.Name(), description: p.Description(),
		run: func(rc runCtx) (Outcome, error) {
			return pm.runOverFunctions(rc, func(am *AnalysisManager) (Outcome, error) {
				out, err := p.RunFunction(am.fn, am)
				if out.Modified {
					am.Invalidate(p.Invalidates())
				}
				return out, err
			})
		},
	})
}

func (pm *PassManager) AddBasicBlockPass(p BasicBlockPass) {
	pm.entries = append(pm.entries, entry{
		name: p.Name(), description: p.Description(),
		run: func(rc runCtx) (Outcome, error) {
			return pm.runOverFunctions(rc, func(am *AnalysisManager) (Outcome, error) {
				modified := false
				var msgs []string
				for _, bb := range am.fn.Blocks {
					out, err := p.RunBlock(bb)
					if err != nil {
						return Outcome{}, err
					}
					if out.Modified {
						modified = true
						if out.Message != "" {
							msgs = append(msgs, out.Message)
						}
					}
				}
				return Outcome{Modified: modified, Message: joinMessages(msgs)}, nil
			})
		},
	})
}

func (pm *PassManager) AddLoopPass(p LoopPass) {
	pm.entries = append(pm.entries, entry{
		name: p.Name(), description: p.Description(),
		run: func(rc runCtx) (Outcome, error) {
			return pm.runOverFunctions(rc, func(am *AnalysisManager) (Outcome, error) {
				modified := false
				var msgs []string
				for _, loop := range am.Loops().Loops {
					out, err := p.RunLoop(am.fn, loop, am)
					if err != nil {
						return Outcome{}, err
					}
					if out.Modified {
						modified = true
						am.Invalidate(p.Requires())
						if out.Message != "" {
							msgs = append(msgs, out.Message)
						}
					}
				}
				return Outcome{Modified: modified, Message: joinMessages(msgs)}, nil
			})
		},
	})
}

func joinMessages(msgs []string) string {
	out := ""
	for i, m := range msgs {
		if i > 0 {
			out += "; "
		}
		out += m
	}
	return out
}

// runOverFunctions applies fn to every function's AnalysisManager in the
// module, OR-combining Modified and stopping (returning the Failure) on
// the first error, per §4.9 ("a Failure halts the pass manager for that
// function; prior passes' modifications are retained") generalized
// across the whole module for a single registered pass's run.
func (pm *PassManager) runOverFunctions(rc runCtx, fn func(*AnalysisManager) (Outcome, error)) (Outcome, error) {
	modified := false
	var msgs []string
	for _, name := range rc.mod.module.FuncOrder {
		f := rc.mod.module.Functions[name]
		am, ok := rc.mod.analyses[name]
		if !ok {
			am = NewAnalysisManager(f)
			rc.mod.analyses[name] = am
		}
		out, err := fn(am)
		if err != nil {
			return Outcome{Modified: modified}, err
		}
		if out.Modified {
			modified = true
			if out.Message != "" {
				msgs = append(msgs, fmt.Sprintf("%s: %s", name, out.Message))
			}
		}
	}
	return Outcome{Modified: modified, Message: joinMessages(msgs)}, nil
}

// Run executes every registered pass, in registration order, against
// mod. A Failure from any pass halts the manager (prior passes' edits
// are retained in mod) unless ContinueOnFail is set, in which case the
// failing pass's contribution is skipped and the manager moves on.
func (pm *PassManager) Run(mod *ir.Module) error {
	rc := runCtx{mod: &moduleCtx{module: mod, analyses: map[string]*AnalysisManager{}}}

	for _, e := range pm.entries {
		start := time.Now()
		out, err := e.run(rc)
		elapsed := time.Since(start)
		pm.Stats.record(e.name, out.Modified, elapsed)
		if err != nil {
			if pm.ContinueOnFail {
				continue
			}
			return err
		}
	}
	return nil
}
