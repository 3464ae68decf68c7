package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintSimpleFunction(t *testing.T) {
	f := buildSimpleAdd(t)
	out := Print(f.Mod)

	assert.Contains(t, out, "module test")
	assert.Contains(t, out, "function add_one(%a: i32) -> i32 {")
	assert.Contains(t, out, "entry:")
	assert.Contains(t, out, "add i32")
	assert.Contains(t, out, "ret i32")
	assert.Contains(t, out, "CONTROL FLOW GRAPH:")
}

func TestPrintStringPoolAndGlobals(t *testing.T) {
	m := NewModule("test")
	m.StringPool[0] = `hello "world"`
	m.DefineGlobal("console.log", FunctionType(Void(), []*Type{Any()}), false)
	f := m.CreateFunction("f", Void())
	f.CreateBlock("entry")
	b := NewBuilder()
	b.SetFunction(f)
	b.SetBlock(f.Entry())
	b.BuildRet(nil)

	out := Print(m)
	assert.Contains(t, out, `@str.0 = private constant "hello \"world\""`)
	assert.Contains(t, out, "@console.log = external function(void, [any])")
}

func TestPrintBranches(t *testing.T) {
	m := NewModule("test")
	f := m.CreateFunction("f", Void())
	b := NewBuilder()
	b.SetFunction(f)
	entry := f.CreateBlock("entry")
	thenBB := f.CreateBlock("then")
	elseBB := f.CreateBlock("else")

	b.SetBlock(entry)
	cond := m.InternConstant(NewTrueConst())
	b.BuildBrCond(cond, thenBB, elseBB)
	b.SetBlock(thenBB)
	b.BuildRet(nil)
	b.SetBlock(elseBB)
	b.BuildRet(nil)

	out := Print(m)
	assert.Contains(t, out, "br_cond true, then, else")
}

func TestPrintPhi(t *testing.T) {
	m := NewModule("test")
	f := m.CreateFunction("f", I32())
	b := NewBuilder()
	b.SetFunction(f)

	entry := f.CreateBlock("entry")
	left := f.CreateBlock("left")
	right := f.CreateBlock("right")
	merge := f.CreateBlock("merge")

	b.SetBlock(entry)
	cond := m.InternConstant(NewTrueConst())
	b.BuildBrCond(cond, left, right)

	b.SetBlock(left)
	one := m.InternConstant(NewIntConst(1, I32()))
	b.BuildBr(merge)

	b.SetBlock(right)
	two := m.InternConstant(NewIntConst(2, I32()))
	b.BuildBr(merge)

	b.SetBlock(merge)
	phi := b.BuildPhi(I32())
	phi.AddIncoming(one, left)
	phi.AddIncoming(two, right)
	b.BuildRet(phi)

	out := Print(m)
	assert.True(t, strings.Contains(out, "phi i32 [1, left], [2, right]"))
}
