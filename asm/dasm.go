package asm

import (
	"bytes"
	"fmt"

	"github.com/mna/avm/image"
)

// Disassemble renders an Image back to the textual assembly format Assemble
// accepts (spec §6.2), the inverse of Assemble. Code addresses that are
// referenced by a UserFunc or used as a jump target become synthesized
// labels L<n>.
func Disassemble(img *image.Image) ([]byte, error) {
	labels := map[uint32]string{}
	labelFor := func(addr uint32) string {
		if name, ok := labels[addr]; ok {
			return name
		}
		name := fmt.Sprintf("L%d", len(labels))
		labels[addr] = name
		return name
	}

	for _, uf := range img.UserFuncs {
		labelFor(uf.Address)
	}
	for _, instr := range img.Code {
		switch instr.Opcode {
		case image.Jump, image.Jeq, image.Jne, image.Jle, image.Jge, image.Jlt, image.Jgt:
			labelFor(instr.Result.Value)
		}
	}

	var buf bytes.Buffer

	if len(img.NumConsts) > 0 || len(img.StringConsts) > 0 {
		buf.WriteString("consts:\n")
		for _, n := range img.NumConsts {
			fmt.Fprintf(&buf, "\tnumber %g\n", n)
		}
		for _, s := range img.StringConsts {
			fmt.Fprintf(&buf, "\tstring %q\n", s)
		}
	}
	if len(img.NamedLibFuncs) > 0 {
		buf.WriteString("libfuncs:\n")
		for _, name := range img.NamedLibFuncs {
			fmt.Fprintf(&buf, "\t%s\n", name)
		}
	}
	if len(img.UserFuncs) > 0 {
		buf.WriteString("userfuncs:\n")
		for _, uf := range img.UserFuncs {
			fmt.Fprintf(&buf, "\t%s %s %d\n", uf.ID, labelFor(uf.Address), uf.LocalSize)
		}
	}
	fmt.Fprintf(&buf, "globalvaroffset: %d\n", img.GlobalVarOffset)
	fmt.Fprintf(&buf, "stack: %d\n", img.N)

	buf.WriteString("code:\n")
	for addr, instr := range img.Code {
		if name, ok := labels[uint32(addr)]; ok {
			fmt.Fprintf(&buf, "%s:\n", name)
		}
		writeInstr(&buf, instr, labels)
	}

	return buf.Bytes(), nil
}

func writeInstr(buf *bytes.Buffer, instr image.Instruction, labels map[uint32]string) {
	name := instr.Opcode.String()
	switch instr.Opcode {
	case image.Jump:
		fmt.Fprintf(buf, "\t%s %s\n", name, labels[instr.Result.Value])
		return
	case image.Jeq, image.Jne, image.Jle, image.Jge, image.Jlt, image.Jgt:
		fmt.Fprintf(buf, "\t%s %s, %s, %s\n", name, operandToken(instr.Arg1), operandToken(instr.Arg2), labels[instr.Result.Value])
		return
	case image.Call, image.Pusharg:
		fmt.Fprintf(buf, "\t%s %s\n", name, operandToken(instr.Arg1))
		return
	case image.Funcenter, image.Funcexit, image.Nop:
		fmt.Fprintf(buf, "\t%s\n", name)
		return
	case image.Newtable:
		fmt.Fprintf(buf, "\t%s %s\n", name, operandToken(instr.Result))
		return
	case image.Uminus, image.Not:
		fmt.Fprintf(buf, "\t%s %s, %s\n", name, operandToken(instr.Result), operandToken(instr.Arg1))
		return
	default:
		fmt.Fprintf(buf, "\t%s %s, %s, %s\n", name, operandToken(instr.Result), operandToken(instr.Arg1), operandToken(instr.Arg2))
	}
}

func operandToken(op image.Operand) string {
	switch op.Kind {
	case image.Empty:
		return "empty"
	case image.Nil:
		return "nil"
	case image.Bool:
		if op.Value != 0 {
			return "bool:true"
		}
		return "bool:false"
	default:
		return fmt.Sprintf("%s:%d", op.Kind, op.Value)
	}
}
