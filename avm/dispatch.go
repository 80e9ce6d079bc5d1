package avm

import "github.com/mna/avm/image"

type handlerFunc func(vm *VM, instr image.Instruction)

// handlers is the per-opcode dispatch table the fetch-decode-execute loop
// indexes by instr.Opcode (spec §2, §4.3). Handlers that branch set
// vm.stack.pc explicitly; step() only auto-increments pc when a handler
// leaves it unchanged.
var handlers = [image.OpcodeCount]handlerFunc{
	image.Assign:       execAssign,
	image.Add:          execArith(image.Add),
	image.Sub:          execArith(image.Sub),
	image.Mul:          execArith(image.Mul),
	image.Div:          execArith(image.Div),
	image.Mod:          execArith(image.Mod),
	image.Uminus:       execUminus,
	image.And:          execAnd,
	image.Or:           execOr,
	image.Not:          execNot,
	image.Jeq:          execJcmp(image.Jeq),
	image.Jne:          execJcmp(image.Jne),
	image.Jle:          execJcmp(image.Jle),
	image.Jge:          execJcmp(image.Jge),
	image.Jlt:          execJcmp(image.Jlt),
	image.Jgt:          execJcmp(image.Jgt),
	image.Jump:         execJump,
	image.Call:         execCall,
	image.Pusharg:      execPusharg,
	image.Funcenter:    execFuncenter,
	image.Funcexit:     execFuncexit,
	image.Newtable:     execNewtable,
	image.Tablegetelem: execTablegetelem,
	image.Tablesetelem: execTablesetelem,
	image.Nop:          execNop,
}

func execNop(vm *VM, instr image.Instruction) {}
