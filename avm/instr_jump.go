package avm

import "github.com/mna/avm/image"

// execJump implements jump(label): pc := label. The label target is carried
// directly as the numeric value of the Result operand (kind LABEL); it
// never goes through the stack operand decoder, since it addresses code,
// not a cell.
func execJump(vm *VM, instr image.Instruction) {
	vm.stack.pc = instr.Result.Value
}

// execJcmp implements jeq/jne/jle/jge/jlt/jgt (spec §4.5): compares Arg1 and
// Arg2 and, if the comparison holds, sets pc to the label carried by
// Result.
func execJcmp(op image.Opcode) handlerFunc {
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

		var taken bool
		switch op {
		case image.Jeq, image.Jne:
			eq, err := equals(*x, *y)
			if err != nil {
				vm.raiseErrorf("%s", err)
				return
			}
			taken = eq
			if op == image.Jne {
				taken = !eq
			}
		case image.Jle, image.Jge, image.Jlt, image.Jgt:
			cmp, err := numericCompare(*x, *y)
			if err != nil {
				vm.raiseErrorf("%s", err)
				return
			}
			switch op {
			case image.Jle:
				taken = cmp <= 0
			case image.Jge:
				taken = cmp >= 0
			case image.Jlt:
				taken = cmp < 0
			case image.Jgt:
				taken = cmp > 0
			}
		}

		if taken {
			vm.stack.pc = instr.Result.Value
		}
	}
}
