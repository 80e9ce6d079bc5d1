package avm

import (
	"fmt"

	"github.com/mna/avm/image"
)

// translate implements the operand decoder (spec §4.1): given an operand
// and a scratch cell, returns a live cell reference. GLOBAL/LOCAL/FORMAL/
// RETVAL return a pointer into the stack (or the dedicated return cell) and
// ignore scratch; the constant kinds materialize into *scratch and return a
// pointer to it. Strings and library-function symbols returned through the
// scratch path are borrowed from the constant pools — translate never
// clears scratch, that is the caller's responsibility.
//
// Callers that need at most one constant operand live at a time may reuse a
// single scratch cell (named ax, per spec §3) across translations; callers
// that need two source operands simultaneously live (the binary arithmetic
// and comparison instructions) supply two distinct scratch cells, matching
// the source's avm_translate_operand(operand, register) signature where the
// register is caller-supplied per call site.
func (vm *VM) translate(op image.Operand, scratch *Cell) (*Cell, error) {
	switch op.Kind {
	case image.Global:
		// Globals are indexed from the fixed capacity of the register file,
		// not from the image's declared N (spec §9; original_source/AVM/avm.c's
		// global_a case indexes from AVM_STACKSIZE, a compile-time constant,
		// regardless of the loaded program's N).
		idx := vm.stack.size() - 1 - op.Value
		return &vm.stack.cells[idx], nil
	case image.Local:
		return &vm.stack.cells[vm.stack.topsp-op.Value], nil
	case image.Formal:
		return &vm.stack.cells[vm.stack.topsp+StackEnvSize+1+op.Value], nil
	case image.Retval:
		return &vm.stack.retval, nil
	case image.Number:
		if int(op.Value) >= len(vm.img.NumConsts) {
			return nil, fmt.Errorf("avm: number constant index %d out of range", op.Value)
		}
		*scratch = NumberCell(vm.img.NumConsts[op.Value])
		return scratch, nil
	case image.String:
		if int(op.Value) >= len(vm.img.StringConsts) {
			return nil, fmt.Errorf("avm: string constant index %d out of range", op.Value)
		}
		*scratch = StringCell(vm.img.StringConsts[op.Value])
		return scratch, nil
	case image.Bool:
		*scratch = BoolCell(op.Value != 0)
		return scratch, nil
	case image.Nil:
		*scratch = NilCell()
		return scratch, nil
	case image.UserFunc:
		if int(op.Value) >= len(vm.img.UserFuncs) {
			return nil, fmt.Errorf("avm: user function index %d out of range", op.Value)
		}
		uf := vm.img.UserFuncs[op.Value]
		*scratch = UserFuncCell(uf.Address, uf.ID)
		return scratch, nil
	case image.LibFunc:
		if int(op.Value) >= len(vm.img.NamedLibFuncs) {
			return nil, fmt.Errorf("avm: lib function index %d out of range", op.Value)
		}
		*scratch = LibFuncCell(vm.img.NamedLibFuncs[op.Value])
		return scratch, nil
	default:
		return nil, fmt.Errorf("avm: operand decoder fallthrough on kind %s", op.Kind)
	}
}
