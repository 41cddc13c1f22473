// Package cli parses the command line the orchestrator invokes scrapers with.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// Mode selects what the process does with the job file.
type Mode int

// Modes negotiated from the command line.
const (
	ModeRun Mode = iota
	ModeDescribe
	ModeFeatures
	ModeUsage
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeRun:
		return "run"
	case ModeDescribe:
		return "describe"
	case ModeFeatures:
		return "features"
	case ModeUsage:
		return "usage"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ErrUsage marks invalid command lines.
var ErrUsage = errors.New("invalid usage")

// Args is the parsed command line.
type Args struct {
	File string
	Mode Mode
}

// Parser parses argv for one program.
type Parser struct {
	prog  string
	flags *pflag.FlagSet

	describe *bool
	features *bool
	usage    *bool
}

// NewParser defines the flag set. --help is a mode flag here, not a request
// for usage text; usage is printed by -h/--usage.
func NewParser(prog string) *Parser {
	fs := pflag.NewFlagSet(prog, pflag.ContinueOnError)
	fs.SortFlags = false
	p := &Parser{prog: prog, flags: fs}
	p.usage = fs.BoolP("usage", "h", false, "show this help message and exit")
	p.describe = fs.Bool("help", false, "write web scraper description to FILE and exit")
	p.features = fs.Bool("features", false, "write web scraper features to FILE and exit")
	fs.SetOutput(io.Discard)
	return p
}

// Parse interprets argv (without the program name).
func (p *Parser) Parse(argv []string) (Args, error) {
	if err := p.flags.Parse(argv); err != nil {
		return Args{}, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if *p.usage {
		return Args{Mode: ModeUsage}, nil
	}
	if *p.describe && *p.features {
		return Args{}, fmt.Errorf("%w: --help and --features are mutually exclusive", ErrUsage)
	}
	if p.flags.NArg() != 1 {
		return Args{}, fmt.Errorf("%w: expected exactly one FILE argument, got %d", ErrUsage, p.flags.NArg())
	}

	args := Args{File: p.flags.Arg(0), Mode: ModeRun}
	switch {
	case *p.describe:
		args.Mode = ModeDescribe
	case *p.features:
		args.Mode = ModeFeatures
	}
	return args, nil
}

// Usage renders the usage text.
func (p *Parser) Usage() string {
	var b strings.Builder
	fmt.Fprintf(&b, "usage: %s [-h] [--help | --features] FILE\n\n", p.prog)
	b.WriteString("A web scraper for PolyAnalyst\n\n")
	b.WriteString("positional arguments:\n  FILE             configuration file\n\n")
	b.WriteString("options:\n")
	b.WriteString(p.flags.FlagUsages())
	return b.String()
}
