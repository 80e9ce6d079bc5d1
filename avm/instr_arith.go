package avm

import (
	"math"

	"github.com/mna/avm/image"
)

// execArith implements add/sub/mul/div/mod (spec §4.4): both source
// operands must be NUMBER, else "not a number in arithmetic" is a fatal
// error and the destination is left UNDEF. div/mod additionally fault on a
// zero right operand.
func execArith(op image.Opcode) handlerFunc {
	return func(vm *VM, instr image.Instruction) {
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

		if x.Tag != NUMBER || y.Tag != NUMBER {
			dst.Clear()
			vm.raiseErrorf("not a number in arithmetic (%s, %s)", x.Tag, y.Tag)
			return
		}

		var result float64
		switch op {
		case image.Add:
			result = x.Num + y.Num
		case image.Sub:
			result = x.Num - y.Num
		case image.Mul:
			result = x.Num * y.Num
		case image.Div:
			if y.Num == 0 {
				dst.Clear()
				vm.raiseErrorf("division by zero")
				return
			}
			result = x.Num / y.Num
		case image.Mod:
			// mod is integer remainder, C semantics on the truncation of both
			// operands to integer (spec §4.4, §9: "pin to truncate both operands
			// to integer, take C remainder").
			xi, yi := int64(math.Trunc(x.Num)), int64(math.Trunc(y.Num))
			if yi == 0 {
				dst.Clear()
				vm.raiseErrorf("mod by zero")
				return
			}
			result = float64(xi % yi)
		}

		dst.AssignFrom(NumberCell(result))
	}
}

// execUminus implements uminus: NUMBER source required, writes negated
// NUMBER.
func execUminus(vm *VM, instr image.Instruction) {
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
	if x.Tag != NUMBER {
		dst.Clear()
		vm.raiseErrorf("not a number in arithmetic (%s)", x.Tag)
		return
	}
	dst.AssignFrom(NumberCell(-x.Num))
}
