// Package image defines the in-memory program image consumed by the avm
// core: constant pools, the code array, and the stack-initialization hints.
// Producing an Image is the job of an external loader or assembler (see the
// sibling asm package); this package only defines the contract and a
// concrete binary encoding for it.
package image

import "fmt"

// OperandKind classifies an instruction operand.
type OperandKind uint8

const (
	Empty OperandKind = iota
	Label
	Global
	Local
	Formal
	Number
	String
	Bool
	Nil
	UserFunc
	LibFunc
	Retval
)

var operandKindNames = [...]string{
	Empty:    "empty",
	Label:    "label",
	Global:   "global",
	Local:    "local",
	Formal:   "formal",
	Number:   "number",
	String:   "string",
	Bool:     "bool",
	Nil:      "nil",
	UserFunc: "userfunc",
	LibFunc:  "libfunc",
	Retval:   "retval",
}

func (k OperandKind) String() string {
	if int(k) < len(operandKindNames) && operandKindNames[k] != "" {
		return operandKindNames[k]
	}
	return fmt.Sprintf("illegal operand kind %d", k)
}

// Operand is the disk/in-memory representation of one instruction operand:
// a kind tag plus the numeric value the operand decoder interprets according
// to that kind (a stack offset, a constant-pool index, or a literal 0/1 for
// Bool).
type Operand struct {
	Kind  OperandKind
	Value uint32
}

// Opcode is the fixed numbering of the 25 instructions the core dispatcher
// understands. The numbering is part of the on-disk contract between the
// loader/assembler and the core: it must never be reordered.
type Opcode uint8

const (
	Assign Opcode = iota
	Add
	Sub
	Mul
	Div
	Mod
	Uminus
	And
	Or
	Not
	Jeq
	Jne
	Jle
	Jge
	Jlt
	Jgt
	Jump
	Call
	Pusharg
	Funcenter
	Funcexit
	Newtable
	Tablegetelem
	Tablesetelem
	Nop

	OpcodeCount
)

var opcodeNames = [...]string{
	Assign:       "assign",
	Add:          "add",
	Sub:          "sub",
	Mul:          "mul",
	Div:          "div",
	Mod:          "mod",
	Uminus:       "uminus",
	And:          "and",
	Or:           "or",
	Not:          "not",
	Jeq:          "jeq",
	Jne:          "jne",
	Jle:          "jle",
	Jge:          "jge",
	Jlt:          "jlt",
	Jgt:          "jgt",
	Jump:         "jump",
	Call:         "call",
	Pusharg:      "pusharg",
	Funcenter:    "funcenter",
	Funcexit:     "funcexit",
	Newtable:     "newtable",
	Tablegetelem: "tablegetelem",
	Tablesetelem: "tablesetelem",
	Nop:          "nop",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return fmt.Sprintf("illegal opcode %d", op)
}

// Instruction is one decoded bytecode instruction.
type Instruction struct {
	Opcode  Opcode
	Result  Operand
	Arg1    Operand
	Arg2    Operand
	SrcLine uint32
}

// UserFunc describes a compiled user function: its entry address (an index
// into Image.Code, which must be a Funcenter instruction), the number of
// local slots it reserves, and a display id used by the USERFUNC to-string
// representation.
type UserFunc struct {
	Address   uint32
	LocalSize uint32
	ID        string
}

// Image is the complete program the avm core executes: constant pools, the
// code array, and the two stack-initialization hints (N and
// GlobalVarOffset). It is produced by a loader (see Decode) or an assembler
// (see the asm package), never constructed ad hoc by the core.
type Image struct {
	NumConsts     []float64
	StringConsts  []string
	UserFuncs     []UserFunc
	NamedLibFuncs []string
	Code          []Instruction

	// N is the total stack capacity the program was compiled against; top is
	// initialized to N - GlobalVarOffset.
	N uint32
	// GlobalVarOffset is the number of global-variable slots reserved at the
	// high end of the stack.
	GlobalVarOffset uint32
}

// EndingPC is the sentinel program counter that terminates execution: the
// index one past the last instruction in Code.
func (img *Image) EndingPC() uint32 { return uint32(len(img.Code)) }
