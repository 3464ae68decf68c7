package ir

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Grammar for the textual IR format (§6), parsed with participle/v2 the
// way the teacher's grammar/shared.go parses Kanso source: a simple
// regex lexer feeding struct-tag productions, adapted from Kanso's
// surface-language vocabulary down to this IR's own tiny
// instruction-level grammar. Only the module/function/block/
// instruction/type productions are covered; the printer's trailing
// "CONTROL FLOW GRAPH:" summary is derived purely from parsed block
// structure and is intentionally not re-parsed (see parser.go).

var irLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Float", Pattern: `-?[0-9]+\.[0-9]+`},
	{Name: "Int", Pattern: `-?[0-9]+`},
	{Name: "PercentIdent", Pattern: `%[A-Za-z0-9_]+`},
	{Name: "AtIdent", Pattern: `@[A-Za-z_][A-Za-z0-9_.]*`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Arrow", Pattern: `->`},
	{Name: "Punct", Pattern: `[(){}\[\]:,=]`},
})

// --- Types ---

type typeNode struct {
	Array *arrayTypeNode   `  @@`
	Ptr   *pointerTypeNode `| @@`
	Fn    *funcTypeNode    `| @@`
	St    *structTypeNode  `| @@`
	Prim  *string          `| @("void" | "i32" | "i64" | "f32" | "f64" | "bool" | "any" | "object" | "string" | "label")`
}

type arrayTypeNode struct {
	Elem *typeNode `"array" "(" @@ ")"`
}

type pointerTypeNode struct {
	Elem *typeNode `"pointer" "(" @@ ")"`
}

type funcTypeNode struct {
	Ret    *typeNode   `"function" "(" @@`
	Params []*typeNode `"," "[" ( @@ ( "," @@ )* )? "]" ")"`
}

type fieldNode struct {
	Name string    `@Ident ":"`
	Type *typeNode `@@`
}

type structTypeNode struct {
	Name   string       `"struct" "(" @Ident`
	Fields []*fieldNode `"," "[" ( @@ ( "," @@ )* )? "]" ")"`
}

// --- Operands ---

// valueRefNode captures one unresolved operand reference: a %value, an
// @global, or a literal. Resolution against the function's symbol
// table happens in parser.go, not here.
type valueRefNode struct {
	Percent  *string `  @PercentIdent`
	At       *string `| @AtIdent`
	FloatLit *string `| @Float`
	IntLit   *string `| @Int`
	StrLit   *string `| @String`
	Ident    *string `| @Ident`
}

type phiPairNode struct {
	Value *valueRefNode `"[" @@`
	Block string        `"," @Ident "]"`
}

// --- Instruction bodies, one shape per opcode family ---

type retBody struct {
	Type *typeNode     `( @@`
	Val  *valueRefNode `  @@ )?`
}

type brBody struct {
	Target string `@Ident`
}

type brCondBody struct {
	Cond    *valueRefNode `@@ ","`
	TargetA string        `@Ident ","`
	TargetB string        `@Ident`
}

type brCmpBody struct {
	Lhs     *valueRefNode `@@ ","`
	Rhs     *valueRefNode `@@ ","`
	TargetA string        `@Ident ","`
	TargetB string        `@Ident`
}

type unaryBody struct {
	Val *valueRefNode `@@`
}

type phiBody struct {
	Type  *typeNode      `@@`
	Pairs []*phiPairNode `@@ ( "," @@ )*`
}

type callBody struct {
	Type   *typeNode       `@@`
	Callee *valueRefNode   `@@`
	Args   []*valueRefNode `"(" ( @@ ( "," @@ )* )? ")"`
}

type callThisBody struct {
	Type     *typeNode       `@@`
	Receiver *valueRefNode   `@@ ","`
	Callee   *valueRefNode   `@@`
	Args     []*valueRefNode `"(" ( @@ ( "," @@ )* )? ")"`
}

type callRuntimeBody struct {
	Type *typeNode       `@@`
	Name string          `@AtIdent`
	Args []*valueRefNode `"(" ( @@ ( "," @@ )* )? ")"`
}

type unaryTypedBody struct {
	Type *typeNode     `@@`
	Val  *valueRefNode `@@`
}

type storeBody struct {
	AddrType *typeNode     `@@`
	Addr     *valueRefNode `@@ ","`
	ValType  *typeNode     `@@`
	Val      *valueRefNode `@@`
}

type binTypedBody struct {
	Type *typeNode     `@@`
	A    *valueRefNode `@@ ","`
	B    *valueRefNode `@@`
}

type ternaryBody struct {
	A *valueRefNode `@@ ","`
	B *valueRefNode `@@ ","`
	C *valueRefNode `@@`
}

type selectBody struct {
	Type *typeNode     `@@`
	Cond *valueRefNode `@@ ","`
	T    *valueRefNode `@@ ","`
	F    *valueRefNode `@@`
}

type castBody struct {
	Val *valueRefNode `@@ "to"`
	To  *typeNode     `@@`
}

type genericBody struct {
	Op       string          `@Ident`
	Type     *typeNode       `@@`
	Operands []*valueRefNode `@@ ( "," @@ )*`
}

type instrBody struct {
	Ret               *retBody         `  "ret" @@`
	Br                *brBody          `| "br" @@`
	BrCond            *brCondBody      `| "br_cond" @@`
	BrCmpOp           string           `| @("br_lt" | "br_le" | "br_gt" | "br_ge" | "br_eq" | "br_ne")`
	BrCmp             *brCmpBody       `@@`
	Throw             *unaryBody       `| "throw" @@`
	Unreachable       bool             `| @"unreachable"`
	Phi               *phiBody         `| "phi" @@`
	Call              *callBody        `| "call" @@`
	CallThis          *callThisBody    `| "call_this" @@`
	New               *callBody        `| "new" @@`
	CallRuntime       *callRuntimeBody `| "call_runtime" @@`
	Alloca            *typeNode        `| "alloca" @@`
	Load              *unaryTypedBody  `| "load" @@`
	Store             *storeBody       `| "store" @@`
	CreateEmptyObject bool             `| @"create_empty_object"`
	CreateEmptyArray  *valueRefNode    `| "create_empty_array" @@`
	GetProperty       *binTypedBody    `| "get_property" @@`
	SetProperty       *ternaryBody     `| "set_property" @@`
	GetElement        *binTypedBody    `| "get_element" @@`
	SetElement        *ternaryBody     `| "set_element" @@`
	Select            *selectBody      `| "select" @@`
	Copy              *unaryTypedBody  `| "copy" @@`
	CastOp            string           `| @("trunc" | "zext" | "sext" | "fptoi" | "uitofp" | "sitofp" | "bitcast")`
	Cast              *castBody        `@@`
	Nop               bool             `| @"nop"`
	Generic           *genericBody     `| @@`
}

type instrNode struct {
	Result *string    `( @PercentIdent "=" )?`
	Body   *instrBody `@@`
}

type blockNode struct {
	Label  string       `@Ident ":"`
	Instrs []*instrNode `@@*`
}

type paramNode struct {
	Name string    `@PercentIdent ":"`
	Type *typeNode `@@`
}

type functionNode struct {
	Name    string       `"function" @Ident "("`
	Params  []*paramNode `( @@ ( "," @@ )* )? ")" "->"`
	RetType *typeNode    `@@ "{"`
	Blocks  []*blockNode `@@* "}"`
}

type strPoolEntryNode struct {
	ID    string `@AtIdent`
	Value string `"=" "private" "constant" @String`
}

type globalDeclNode struct {
	Name string    `@AtIdent "="`
	Kind string    `@("external" | "global")`
	Type *typeNode `@@`
}

type fileNode struct {
	ModuleName string              `"module" @Ident`
	StrPool    []*strPoolEntryNode `@@*`
	Globals    []*globalDeclNode   `@@*`
	Functions  []*functionNode     `@@*`
}

var irParser = participle.MustBuild[fileNode](
	participle.Lexer(irLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(4),
)
