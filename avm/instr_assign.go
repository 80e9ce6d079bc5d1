package avm

import (
	"fmt"

	"github.com/mna/avm/image"
)

// execAssign implements the assign instruction (spec §4.6): validates the
// destination region, short-circuits on identical cells or same-table
// references, warns (non-fatal) when assigning from UNDEF, otherwise clears
// the destination and copies the tagged payload via Cell.AssignFrom.
func execAssign(vm *VM, instr image.Instruction) {
	var ax Cell
	rv, err := vm.translate(instr.Arg1, &ax)
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	lv, err := vm.translate(instr.Result, nil)
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	if err := vm.validateAssignDest(instr.Result); err != nil {
		vm.raiseErrorf("%s", err)
		return
	}

	if lv == rv {
		return
	}
	if lv.Tag == TABLE && rv.Tag == TABLE && lv.Tbl == rv.Tbl {
		return
	}
	if rv.Tag == UNDEF {
		vm.warnf("assigning from undef")
	}
	lv.AssignFrom(*rv)
}

// validateAssignDest enforces the destination-region invariant spec §4.6
// requires of every assign target (original_source/AVM/executions/
// exec_assign.c:11's assert(lv && (&stack[N] >= lv && lv > &stack[top] ||
// lv == &retval))): the destination must be the dedicated return cell, or a
// live stack cell strictly above top and within bounds. GLOBAL/LOCAL/FORMAL
// are the only stack-resolving kinds assign ever targets; anything else
// (a constant operand wrongly used as a destination) is fatal.
func (vm *VM) validateAssignDest(op image.Operand) error {
	var idx uint32
	switch op.Kind {
	case image.Retval:
		return nil
	case image.Global:
		idx = vm.stack.size() - 1 - op.Value
	case image.Local:
		idx = vm.stack.topsp - op.Value
	case image.Formal:
		idx = vm.stack.topsp + StackEnvSize + 1 + op.Value
	default:
		return fmt.Errorf("assign: invalid destination operand kind %s", op.Kind)
	}
	if idx >= vm.stack.size() || idx <= vm.stack.top {
		return fmt.Errorf("assign: destination index %d out of bounds (top=%d)", idx, vm.stack.top)
	}
	return nil
}
