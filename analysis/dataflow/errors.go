package dataflow

import (
	"fmt"

	"github.com/cs-au-dk/regflow/analysis/ir"
)

// ContractViolation reports a program that breaks the structural contract
// of the IR, e.g. an instruction with the wrong number of operands. No
// result is produced for such programs.
type ContractViolation struct {
	Pos    ir.Position
	Instr  *ir.Instruction
	Reason string
}

func (e *ContractViolation) Error() string {
	if e.Instr == nil {
		return fmt.Sprintf("contract violation at bb%d: %s", e.Pos.Block, e.Reason)
	}
	return fmt.Sprintf("contract violation at %s (%s): %s", e.Pos, e.Instr, e.Reason)
}

// Violate aborts the running analysis with a contract violation. It may
// only be called from transfer functions; the engine attaches the position
// of the offending instruction.
func Violate(format string, args ...interface{}) {
	panic(&ContractViolation{Reason: fmt.Sprintf(format, args...)})
}

func fromMalformed(err *ir.MalformedError) *ContractViolation {
	return &ContractViolation{Pos: err.Pos, Instr: err.Instr, Reason: err.Reason}
}

// TransferError wraps a failure reported by a transfer function with the
// position of the instruction being analyzed.
type TransferError struct {
	Pos   ir.Position
	Instr ir.Instruction
	Err   error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Pos, e.Instr, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}
