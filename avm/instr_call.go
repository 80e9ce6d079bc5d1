package avm

import "github.com/mna/avm/image"

// pushFrame pushes the four activation-frame cells in the order spec §3/§4.7
// define: totalActuals, pc+1 (return address), top+totalActuals+2 (saved
// top to restore), caller's topsp. Offsets from the resulting topsp are
// +1 saved topsp, +2 saved top, +3 saved pc, +4 totalActuals (spec §4.2).
func (vm *VM) pushFrame() error {
	s := vm.stack
	if err := s.pushEnvValue(s.totalActuals); err != nil {
		return err
	}
	if err := s.pushEnvValue(s.pc + 1); err != nil {
		return err
	}
	if err := s.pushEnvValue(s.top + s.totalActuals + 2); err != nil {
		return err
	}
	if err := s.pushEnvValue(s.topsp); err != nil {
		return err
	}
	return nil
}

// execPusharg implements pusharg: translate the argument, assign into
// stack[top], increment totalActuals, decTop.
func execPusharg(vm *VM, instr image.Instruction) {
	var ax Cell
	arg, err := vm.translate(instr.Arg1, &ax)
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	vm.stack.cells[vm.stack.top].AssignFrom(*arg)
	vm.stack.totalActuals++
	if err := vm.stack.decTop(); err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
}

// execCall implements call (spec §4.7): translate the callee, push the
// activation frame, then dispatch by callee type.
func execCall(vm *VM, instr image.Instruction) {
	var ax Cell
	fn, err := vm.translate(instr.Arg1, &ax)
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	fnTag, fnAddr, fnName := fn.Tag, fn.Fn, fn.Lib
	if fnTag == STRING {
		fnName = fn.Str
	}

	if err := vm.pushFrame(); err != nil {
		vm.raiseErrorf("%s", err)
		return
	}

	switch fnTag {
	case USERFUNC:
		if int(fnAddr) >= len(vm.img.Code) || vm.img.Code[fnAddr].Opcode != image.Funcenter {
			vm.raiseErrorf("call target %d is not a function entry point", fnAddr)
			return
		}
		vm.stack.pc = fnAddr
	case STRING, LIBFUNC:
		vm.callLibFunc(fnName)
	default:
		vm.raiseErrorf("cannot bind to function (%s)", fnTag)
	}
}

// callLibFunc implements the library-function call path (spec §4.7): set
// topsp := top, totalActuals := 0, invoke the bound function, then — unless
// it halted the machine — run the same epilogue as funcexit.
func (vm *VM) callLibFunc(name string) {
	fn, ok := vm.libFuncs.lookup(name)
	if !ok {
		vm.raiseErrorf("unknown library function %q", name)
		return
	}

	vm.stack.topsp = vm.stack.top
	vm.stack.totalActuals = 0

	if err := fn(vm); err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	if vm.halted {
		return
	}
	vm.execFuncexitEpilogue()
}

// execFuncenter implements funcenter: reads the function descriptor whose
// address is the current pc, resets totalActuals, saves topsp := top, and
// reserves locals by top -= localSize.
func execFuncenter(vm *VM, instr image.Instruction) {
	uf := vm.funcAt(vm.stack.pc)
	if uf == nil {
		vm.raiseErrorf("funcenter at pc %d has no matching user function descriptor", vm.stack.pc)
		return
	}
	vm.stack.totalActuals = 0
	vm.stack.topsp = vm.stack.top
	if uf.LocalSize > vm.stack.top {
		vm.raiseErrorf("Stack Overflow")
		return
	}
	vm.stack.top -= uf.LocalSize
}

func (vm *VM) funcAt(pc uint32) *image.UserFunc {
	for i := range vm.img.UserFuncs {
		if vm.img.UserFuncs[i].Address == pc {
			return &vm.img.UserFuncs[i]
		}
	}
	return nil
}

// execFuncexit implements funcexit (spec §4.7): capture oldTop, restore
// top/pc/topsp from the three saved-environment cells (the fourth, at +4,
// holds the argument count of the call being returned from, which
// argument()/totalarguments() and ActualCount read; it is not put back into
// the totalActuals register), then clear every cell released by the
// shrinking stack.
func execFuncexit(vm *VM, instr image.Instruction) {
	vm.execFuncexitEpilogue()
}

func (vm *VM) execFuncexitEpilogue() {
	s := vm.stack
	oldTop := s.top

	topsp, err := getEnvValue(s.cells[s.topsp+1])
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	top, err := getEnvValue(s.cells[s.topsp+2])
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}
	pc, err := getEnvValue(s.cells[s.topsp+3])
	if err != nil {
		vm.raiseErrorf("%s", err)
		return
	}

	s.top = top
	s.pc = pc
	s.topsp = topsp

	for i := oldTop + 1; i <= s.top; i++ {
		s.cells[i].Clear()
	}
}
