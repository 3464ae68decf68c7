// Command irdump is a small demo/golden-test binary: it reads a textual
// IR file (or, given no argument, builds a literal sample program), runs
// the default optimization pipeline over it, and prints the IR before
// and after alongside per-pass statistics. It exists purely to exercise
// the library from the outside; nothing under internal/ imports it.
//
// Grounded on the teacher's cmd/kanso-cli/main.go: a single source-or-
// sample argument, a colorized success banner, and a caret-style error
// report for a participle parse failure.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"

	"abcssa/internal/ir"
	"abcssa/internal/passes"
)

func main() {
	mod, err := loadModule()
	if err != nil {
		reportLoadError(err)
		os.Exit(1)
	}

	fmt.Println("=== before ===")
	fmt.Print(ir.Print(mod))

	pm := passes.DefaultPipeline()
	if err := pm.Run(mod); err != nil {
		color.Red("pipeline failed: %s", err)
		os.Exit(1)
	}

	fmt.Println("=== after ===")
	fmt.Print(ir.Print(mod))

	fmt.Println("=== pass stats ===")
	for _, s := range pm.Stats.All() {
		mark := "."
		if s.ModifiedCount > 0 {
			mark = "*"
		}
		fmt.Printf("  %s %-28s runs=%d modified=%d elapsed=%s\n",
			mark, s.Name, s.RunCount, s.ModifiedCount, s.Elapsed)
	}

	if faults := mod.Verify(); len(faults) > 0 {
		color.Red("❌ %d verification fault(s) after optimization:", len(faults))
		for _, f := range faults {
			fmt.Println("  " + f.Error())
		}
		os.Exit(1)
	}

	color.Green("✅ %s verified clean after optimization", mod.Name)
}

func loadModule() (*ir.Module, error) {
	if len(os.Args) < 2 {
		return sampleModule(), nil
	}
	src, err := os.ReadFile(os.Args[1])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", os.Args[1], err)
	}
	return ir.Parse(string(src))
}

func reportLoadError(err error) {
	var pe participle.Error
	if errors.As(err, &pe) {
		color.Red("❌ syntax error at line %d, column %d: %s", pe.Position().Line, pe.Position().Column, pe.Message())
		return
	}
	color.Red("❌ %s", err)
}

// sampleModule builds the constant-fold-chain scenario literally
// (`c = 10 + 20; d = c * 2; e = d - 10; ret e`, expected to fold to a
// single `ret 50` under ConstantFolding), in lieu of a file argument.
func sampleModule() *ir.Module {
	mod := ir.NewModule("sample")
	fn := mod.CreateFunction("main", ir.I32())
	entry := fn.CreateBlock("entry")

	b := ir.NewBuilder()
	b.SetFunction(fn)
	b.SetBlock(entry)

	ten := mod.InternConstant(ir.NewIntConst(10, ir.I32()))
	twenty := mod.InternConstant(ir.NewIntConst(20, ir.I32()))
	two := mod.InternConstant(ir.NewIntConst(2, ir.I32()))

	c := b.BuildAdd(ten, twenty)
	d := b.BuildMul(c, two)
	e := b.BuildSub(d, ten)
	b.BuildRet(e)

	return mod
}
