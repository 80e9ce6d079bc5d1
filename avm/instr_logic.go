package avm

import "github.com/mna/avm/image"

// execAnd/execOr implement and/or: inputs converted by to-bool, result
// BOOL. Truth panics on UNDEF (spec §4.4); that panic is a VM invariant
// violation, not a recoverable diagnostic, so it is allowed to propagate.
func execAnd(vm *VM, instr image.Instruction) {
	var ax, bx Cell
	x, err := vm.translate(instr.Arg1, &ax)
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	y, err := vm.translate(instr.Arg2, &bx)
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	dst, err := vm.translate(instr.Result, nil)
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	dst.AssignFrom(BoolCell(x.Truth() && y.Truth()))
}

func execOr(vm *VM, instr image.Instruction) {
	var ax, bx Cell
	x, err := vm.translate(instr.Arg1, &ax)
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	y, err := vm.translate(instr.Arg2, &bx)
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	dst, err := vm.translate(instr.Result, nil)
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	dst.AssignFrom(BoolCell(x.Truth() || y.Truth()))
}

// execNot implements not: input converted to-bool, result BOOL of the
// complement.
func execNot(vm *VM, instr image.Instruction) {
	var ax Cell
	x, err := vm.translate(instr.Arg1, &ax)
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	dst, err := vm.translate(instr.Result, nil)
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	dst.AssignFrom(BoolCell(!x.Truth()))
}
