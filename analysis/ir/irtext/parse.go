// Package irtext reads and writes programs in the textual IR syntax:
//
//	# comment
//	func name
//	bb0:
//	    add r1, 5, 0
//	    brz r1, bb2
//	bb1:
//	    call @f, r2, fp, r1
//	    br bb3
//	    fallthrough bb4
//
// Blocks are declared in index order starting at 0. A block falls through to
// the next one unless it ends with br or ret, or a fallthrough directive
// names another target.
package irtext

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cs-au-dk/regflow/analysis/ir"
)

// SyntaxError reports a malformed line of textual IR.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

const fallThroughDirective = "fallthrough"

type parser struct {
	b      *ir.Builder
	name   string
	line   int
	block  int
	jumps  map[int]int
	jumpAt map[int]int
}

// Parse reads a program. The result has been validated with
// (*ir.Program).Validate.
func Parse(r io.Reader) (*ir.Program, error) {
	p := &parser{
		block:  -1,
		jumps:  make(map[int]int),
		jumpAt: make(map[int]int),
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		p.line++
		if err := p.parseLine(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading program: %w", err)
	}

	if p.b == nil || p.b.Len() == 0 {
		return nil, &SyntaxError{Line: p.line, Msg: "program has no blocks"}
	}
	for from, to := range p.jumps {
		if to >= p.b.Len() {
			return nil, &SyntaxError{
				Line: p.jumpAt[from],
				Msg:  fmt.Sprintf("fall-through target bb%d does not exist", to),
			}
		}
		p.b.FallThroughTo(from, to)
	}

	prog := p.b.Build()
	if err := prog.Validate(); err != nil {
		return nil, err
	}
	return prog, nil
}

// ParseString reads a program from a string.
func ParseString(src string) (*ir.Program, error) {
	return Parse(strings.NewReader(src))
}

// ParseFile reads a program from the named file.
func ParseFile(filename string) (*ir.Program, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	prog, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return prog, nil
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) builder() *ir.Builder {
	if p.b == nil {
		p.b = ir.NewBuilder(p.name)
	}
	return p.b
}

func (p *parser) parseLine(text string) error {
	if i := strings.IndexByte(text, '#'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	switch {
	case strings.HasPrefix(text, "func "):
		if p.b != nil {
			return p.errorf("func declaration must precede the blocks")
		}
		p.name = strings.TrimSpace(strings.TrimPrefix(text, "func "))
		return nil
	case strings.HasSuffix(text, ":"):
		return p.parseLabel(strings.TrimSuffix(text, ":"))
	}

	if p.block < 0 {
		return p.errorf("instruction outside of a block")
	}

	mnemonic, rest := text, ""
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		mnemonic, rest = text[:i], strings.TrimSpace(text[i:])
	}

	if mnemonic == fallThroughDirective {
		target, ok := blockIndex(rest)
		if !ok {
			return p.errorf("malformed fall-through target %q", rest)
		}
		if _, dup := p.jumps[p.block]; dup {
			return p.errorf("bb%d has several fall-through directives", p.block)
		}
		p.jumps[p.block] = target
		p.jumpAt[p.block] = p.line
		return nil
	}
	if _, dup := p.jumps[p.block]; dup {
		return p.errorf("instruction after the fall-through directive of bb%d", p.block)
	}

	op, ok := ir.OpcodeOf(mnemonic)
	if !ok {
		return p.errorf("unknown opcode %q", mnemonic)
	}

	var ops []ir.Operand
	if rest != "" {
		for _, field := range strings.Split(rest, ",") {
			operand, err := p.parseOperand(strings.TrimSpace(field))
			if err != nil {
				return err
			}
			ops = append(ops, operand)
		}
	}

	p.builder().Emit(p.block, ir.Instr(op, ops...))
	return nil
}

func (p *parser) parseLabel(label string) error {
	idx, ok := blockIndex(label)
	if !ok {
		return p.errorf("malformed block label %q", label)
	}
	if next := p.builder().Len(); idx != next {
		return p.errorf("expected block bb%d, found bb%d", next, idx)
	}
	p.block = p.b.NewBlock()
	return nil
}

func (p *parser) parseOperand(field string) (ir.Operand, error) {
	switch {
	case field == "":
		return ir.Operand{}, p.errorf("empty operand")
	case field == "fp":
		return ir.FP(), nil
	case field == "?":
		return ir.Operand{Kind: ir.Unknown}, nil
	case strings.HasPrefix(field, "@"):
		if len(field) == 1 {
			return ir.Operand{}, p.errorf("missing function name")
		}
		return ir.Fun(field[1:]), nil
	case strings.HasPrefix(field, "bb"):
		if idx, ok := blockIndex(field); ok {
			return ir.BB(idx), nil
		}
	case strings.HasPrefix(field, "r"):
		if idx, ok := index(field[1:]); ok {
			return ir.Reg(idx), nil
		}
	default:
		if v, err := strconv.Atoi(field); err == nil {
			return ir.Imm(v), nil
		}
	}
	return ir.Operand{}, p.errorf("malformed operand %q", field)
}

func blockIndex(s string) (int, bool) {
	if !strings.HasPrefix(s, "bb") {
		return 0, false
	}
	return index(s[2:])
}

// index parses a non-negative decimal index without sign.
func index(s string) (int, bool) {
	if s == "" || s[0] < '0' || s[0] > '9' {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	return v, err == nil
}
