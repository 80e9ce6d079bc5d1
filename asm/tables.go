package asm

import (
	"sort"

	"golang.org/x/exp/maps"

	"github.com/mna/avm/image"
)

// allOperandKinds enumerates every image.OperandKind the assembler accepts
// as an operand token prefix. Label is not among them: it is implicit in
// jump syntax. Empty is, so the "empty" tokens Disassemble writes for unused
// operands assemble back.
var allOperandKinds = []image.OperandKind{
	image.Empty, image.Global, image.Local, image.Formal, image.Number,
	image.String, image.Bool, image.Nil, image.UserFunc, image.LibFunc, image.Retval,
}

var reverseOpcodeNames = buildReverseOpcodeNames()
var reverseOperandKindNames = buildReverseOperandKindNames()

func buildReverseOpcodeNames() map[string]image.Opcode {
	m := make(map[string]image.Opcode, image.OpcodeCount)
	for op := image.Opcode(0); op < image.OpcodeCount; op++ {
		m[op.String()] = op
	}
	return m
}

func buildReverseOperandKindNames() map[string]image.OperandKind {
	m := make(map[string]image.OperandKind, len(allOperandKinds))
	for _, k := range allOperandKinds {
		m[k.String()] = k
	}
	return m
}

// KnownOpcodes returns the assembler's recognized opcode mnemonics in
// sorted order, used to build helpful "unknown opcode" error messages.
func KnownOpcodes() []string {
	names := maps.Keys(reverseOpcodeNames)
	sort.Strings(names)
	return names
}
