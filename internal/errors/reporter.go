package errors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Reporter formats CompilerFaults for a terminal, colorized the way the
// teacher's caret-style diagnostics are, adapted from source-line
// context (which this domain has none of — there is no source text,
// only IR location) to function/block/instruction context.
type Reporter struct{}

func NewReporter() *Reporter { return &Reporter{} }

// Format renders a single fault as a multi-line, colorized report.
func (r *Reporter) Format(f *CompilerFault) string {
	var out strings.Builder

	levelColor := r.levelColor(f.Level)
	dim := color.New(color.Faint).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	out.WriteString(fmt.Sprintf("%s[%s]: %s\n", levelColor(string(f.Level)), f.Code, f.Message))

	loc := r.locationString(f.Location)
	if loc != "" {
		out.WriteString(fmt.Sprintf("  %s %s\n", dim("-->"), loc))
	}
	if f.Pass != "" {
		out.WriteString(fmt.Sprintf("  %s pass: %s\n", dim("│"), bold(f.Pass)))
	}
	if f.Cause != nil {
		out.WriteString(fmt.Sprintf("  %s cause: %s\n", dim("│"), f.Cause.Error()))
	}

	for _, note := range f.Notes {
		noteColor := color.New(color.FgBlue).SprintFunc()
		out.WriteString(fmt.Sprintf("  %s %s %s\n", dim("│"), noteColor("note:"), note))
	}
	if f.HelpText != "" {
		helpColor := color.New(color.FgGreen).SprintFunc()
		out.WriteString(fmt.Sprintf("  %s %s %s\n", dim("│"), helpColor("help:"), f.HelpText))
	}

	return out.String()
}

// FormatAll renders a slice of faults, one report per fault, in order.
func (r *Reporter) FormatAll(faults []*CompilerFault) string {
	var out strings.Builder
	for _, f := range faults {
		out.WriteString(r.Format(f))
		out.WriteString("\n")
	}
	return out.String()
}

func (r *Reporter) levelColor(level Level) func(...interface{}) string {
	switch level {
	case Error:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case Note:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	case Help:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

func (r *Reporter) locationString(loc Location) string {
	var parts []string
	if loc.Function != "" {
		parts = append(parts, "function "+loc.Function)
	}
	if loc.Block != "" {
		parts = append(parts, "block "+loc.Block)
	}
	if loc.Instruction >= 0 {
		parts = append(parts, "instruction #"+strconv.Itoa(loc.Instruction))
	}
	return strings.Join(parts, ", ")
}
