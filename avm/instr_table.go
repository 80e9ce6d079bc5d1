package avm

import "github.com/mna/avm/image"

// execNewtable implements newtable: allocates a fresh table with refcount 1
// and writes a TABLE cell at the destination.
func execNewtable(vm *VM, instr image.Instruction) {
	dst, err := vm.translate(instr.Result, nil)
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	// dst takes over the allocation's single reference, so no incref.
	dst.Clear()
	*dst = TableCell(NewTable())
}

// execTablegetelem implements tablegetelem(dst, t, k) (spec §4.9): t must be
// TABLE (else warning, NIL to dst); look up k; clone the value into dst on
// hit, else dst := NIL with a warning.
func execTablegetelem(vm *VM, instr image.Instruction) {
	var tx, kx Cell
	t, err := vm.translate(instr.Arg1, &tx)
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	k, err := vm.translate(instr.Arg2, &kx)
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	dst, err := vm.translate(instr.Result, nil)
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}

	dst.Clear()
	if t.Tag != TABLE {
		vm.warnf("tablegetelem: %s is not a table", t.Tag)
		dst.AssignFrom(NilCell())
		return
	}
	v, found := t.Tbl.Get(*k)
	if !found {
		vm.warnf("tablegetelem: key not found in table")
		dst.AssignFrom(NilCell())
		return
	}
	dst.AssignFrom(v)
}

// execTablesetelem implements tablesetelem(t, k, v) (spec §4.9): t must be
// TABLE; k must not be NIL/UNDEF (fatal "illegal key" otherwise); NIL value
// removes the key, otherwise inserts/updates.
func execTablesetelem(vm *VM, instr image.Instruction) {
	var tx, kx, vx Cell
	t, err := vm.translate(instr.Result, &tx)
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	k, err := vm.translate(instr.Arg1, &kx)
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	v, err := vm.translate(instr.Arg2, &vx)
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}

	if t.Tag != TABLE {
		vm.raiseErrorf("tablesetelem: %s is not a table", t.Tag)
		return
	}
	if k.Tag == NIL || k.Tag == UNDEF {
		vm.raiseErrorf("illegal key")
		return
	}
	t.Tbl.Set(*k, *v)
}
