package avm

import (
	"context"
	"fmt"
	"io"

	"github.com/mna/avm/image"
)

// Builtin is a library function implementation. It reads its arguments
// through the VM's library-function API (ActualCount/Actual) and writes
// its result into retval via the VM methods exposed to built-ins.
type Builtin func(vm *VM) error

// VM is the explicit execution context the spec's design notes (§9) call
// for in place of the source's process-globals: it owns the stack, the
// program counter, the constant pools, and the library-function registry,
// and every instruction handler operates on it. This makes the core
// embeddable and testable instead of relying on package-level mutable
// state.
type VM struct {
	img *image.Image

	stack *stack

	halted   bool
	warnings int
	lastDiag Diag

	libFuncs *libFuncRegistry

	currLine uint32

	stdout io.Writer
	stdin  io.Reader
}

// New builds a VM ready to execute img. It registers every standard library
// built-in (print, input, typeof, ...) and fails if img.NamedLibFuncs
// references a name that is not one of them.
//
// The underlying register file is always allocated at DefaultStackSize,
// matching the source's fixed AVM_STACKSIZE array: img.N only sets where
// the initial top begins within that fixed-capacity array (global_a
// indexes from the fixed capacity boundary, not from N — see
// original_source/AVM/avm.c's global_a case), so a program compiled
// against a smaller N still addresses the same global slots regardless of
// its own declared N.
func New(img *image.Image) (*VM, error) {
	n := img.N
	if n == 0 {
		n = DefaultStackSize
	}
	if n > DefaultStackSize {
		return nil, fmt.Errorf("avm: declared stack size %d exceeds capacity %d", n, DefaultStackSize)
	}
	if img.GlobalVarOffset > n {
		return nil, fmt.Errorf("avm: globalVarOffset %d exceeds stack size %d", img.GlobalVarOffset, n)
	}

	vm := &VM{
		img:      img,
		stack:    newStack(DefaultStackSize, n-img.GlobalVarOffset),
		libFuncs: newLibFuncRegistry(),
	}
	registerStdlib(vm.libFuncs)

	for _, name := range img.NamedLibFuncs {
		if _, ok := vm.libFuncs.lookup(name); !ok {
			return nil, fmt.Errorf("avm: unknown library function %q referenced by image", name)
		}
	}
	return vm, nil
}

// Warnings returns the number of warnings accumulated so far.
func (vm *VM) Warnings() int { return vm.warnings }

// Halted reports whether the dispatcher loop has stopped (either because it
// reached the end of the program or because a fatal error halted it).
func (vm *VM) Halted() bool { return vm.halted }

// Run executes the image to completion: one instruction per cycle, until
// the halt flag is set or the program counter reaches image.EndingPC (spec
// §2, §5). ctx is checked once per dispatch cycle; a cancelled context stops
// the loop and Run returns context.Cause(ctx) as its error result (the halt
// flag is not set and no RuntimeError is produced).
func (vm *VM) Run(ctx context.Context) (*RuntimeError, error) {
	for !vm.halted {
		select {
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		default:
		}
		vm.step()
	}
	if vm.lastDiag.Level == Error {
		return &RuntimeError{Diag: vm.lastDiag, Warnings: vm.warnings}, nil
	}
	return nil, nil
}

// step runs exactly one dispatch cycle (spec §4.3).
func (vm *VM) step() {
	if vm.stack.pc == vm.img.EndingPC() {
		vm.halted = true
		return
	}

	instr := vm.img.Code[vm.stack.pc]
	if instr.SrcLine > 0 {
		vm.currLine = instr.SrcLine
	}
	oldPC := vm.stack.pc

	handler := handlers[instr.Opcode]
	if handler == nil {
		vm.raiseErrorf("unimplemented opcode %s", instr.Opcode)
		return
	}
	handler(vm, instr)

	if vm.stack.pc == oldPC && !vm.halted {
		vm.stack.pc++
	}
}

func (vm *VM) raiseErrorf(format string, args ...interface{}) {
	vm.lastDiag = Diag{Level: Error, Message: fmt.Sprintf(format, args...), Line: vm.currLine}
	vm.halted = true
}

func (vm *VM) warnf(format string, args ...interface{}) {
	vm.warnings++
	vm.lastDiag = Diag{Level: Warning, Message: fmt.Sprintf(format, args...), Line: vm.currLine}
}
