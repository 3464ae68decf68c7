package errors

// Level is the severity of a CompilerFault.
type Level string

const (
	Error   Level = "error"
	Warning Level = "warning"
	Note    Level = "note"
	Help    Level = "help"
)

// Location pinpoints a fault within the IR: function name, block label,
// and instruction index, per the error-handling design's requirement
// that user-visible reports name function, block, instruction and kind.
type Location struct {
	Function    string
	Block       string
	Instruction int // -1 if not instruction-scoped
}

// CompilerFault is a structured diagnostic: a level, a code, a message,
// and the IR location it concerns, plus optional notes/help text. The
// four error kinds from spec (DecodeError, LoweringError, VerifyError,
// PassError) are all represented as a CompilerFault distinguished by
// Code's prefix (see codes.go Category).
type CompilerFault struct {
	Level    Level
	Code     Code
	Message  string
	Location Location
	Notes    []string
	HelpText string

	// Pass is set only for PassError faults: the name of the pass that
	// broke an invariant, per spec's "PassError... includes the pass name".
	Pass string

	// Cause chains an underlying error for DecodeError, which is
	// surfaced verbatim from the upstream decoder.
	Cause error
}

func (f *CompilerFault) Error() string {
	return string(f.Level) + "[" + string(f.Code) + "]: " + f.Message
}

// FaultBuilder is the fluent constructor for a CompilerFault, mirroring
// the teacher's SemanticErrorBuilder shape.
type FaultBuilder struct {
	fault CompilerFault
}

func NewFault(level Level, code Code, message string) *FaultBuilder {
	return &FaultBuilder{fault: CompilerFault{Level: level, Code: code, Message: message, Location: Location{Instruction: -1}}}
}

func NewDecodeError(message string, cause error) *FaultBuilder {
	b := NewFault(Error, DecodeUpstream, message)
	b.fault.Cause = cause
	return b
}

func NewLoweringError(code Code, message string) *FaultBuilder {
	return NewFault(Error, code, message)
}

func NewVerifyError(code Code, message string) *FaultBuilder {
	return NewFault(Error, code, message)
}

func NewPassError(code Code, pass, message string) *FaultBuilder {
	b := NewFault(Error, code, message)
	b.fault.Pass = pass
	return b
}

func (b *FaultBuilder) WithFunction(name string) *FaultBuilder {
	b.fault.Location.Function = name
	return b
}

func (b *FaultBuilder) WithBlock(label string) *FaultBuilder {
	b.fault.Location.Block = label
	return b
}

func (b *FaultBuilder) WithInstruction(index int) *FaultBuilder {
	b.fault.Location.Instruction = index
	return b
}

func (b *FaultBuilder) WithNote(note string) *FaultBuilder {
	b.fault.Notes = append(b.fault.Notes, note)
	return b
}

func (b *FaultBuilder) WithHelp(help string) *FaultBuilder {
	b.fault.HelpText = help
	return b
}

func (b *FaultBuilder) Build() *CompilerFault {
	f := b.fault
	return &f
}
