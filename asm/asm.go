// Package asm implements a human-readable/writable textual form of an AVM
// image (spec §6.2), grounded on the teacher's lang/compiler/asm.go: a small
// section-based assembler that lets the core be tested and driven without a
// front-end compiler. A disassembler (Dasm) is the inverse.
//
// The format looks like this (indentation is arbitrary, section order is
// not):
//
//	consts:
//		number 1.5
//		string "hello"
//	libfuncs:
//		print
//		input
//	userfuncs:
//		fact funcenter_label 2
//	globalvaroffset: 4
//	stack: 4096
//	code:
//		funcenter_label:
//		funcenter
//		assign local:0, number:0
//		jump done
//		done:
//		nop
package asm

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/mna/avm/image"
)

var sections = map[string]bool{
	"consts:":          true,
	"libfuncs:":        true,
	"userfuncs:":       true,
	"globalvaroffset:": true,
	"stack:":           true,
	"code:":            true,
}

// Assemble parses assembly source into an Image, resolving code labels to
// absolute instruction indices in a second pass (spec §6.2, mirroring the
// teacher's asm.code()'s index-to-address translation for jumps).
func Assemble(src []byte) (*image.Image, error) {
	a := &assembler{s: bufio.NewScanner(bytes.NewReader(src)), img: &image.Image{}}

	fields := a.next()
	for a.err == nil && len(fields) > 0 {
		switch {
		case strings.EqualFold(fields[0], "consts:"):
			fields = a.consts()
		case strings.EqualFold(fields[0], "libfuncs:"):
			fields = a.libfuncs()
		case strings.EqualFold(fields[0], "userfuncs:"):
			fields = a.userfuncsSection()
		case strings.EqualFold(fields[0], "globalvaroffset:"):
			a.img.GlobalVarOffset = uint32(a.uint(fields[1]))
			fields = a.next()
		case strings.EqualFold(fields[0], "stack:"):
			a.img.N = uint32(a.uint(fields[1]))
			fields = a.next()
		case strings.EqualFold(fields[0], "code:"):
			fields = a.code()
		default:
			a.err = fmt.Errorf("asm: unexpected section: %s", fields[0])
		}
	}

	if a.err != nil {
		return nil, a.err
	}
	return a.img, nil
}

type assembler struct {
	s   *bufio.Scanner
	img *image.Image
	err error

	labels    map[string]uint32
	userFuncs []pendingUserFunc
}

type pendingUserFunc struct {
	id    string
	label string
	local uint32
}

func (a *assembler) next() []string {
	if a.err != nil {
		return nil
	}
	for a.s.Scan() {
		line := a.s.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) != 0 {
			return fields
		}
	}
	a.err = a.s.Err()
	return nil
}

func (a *assembler) uint(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		a.err = fmt.Errorf("asm: invalid unsigned integer %q: %w", s, err)
	}
	return v
}

func (a *assembler) consts() []string {
	fields := a.next()
	for a.err == nil && len(fields) > 0 && !sections[strings.ToLower(fields[0])] {
		if len(fields) != 2 {
			a.err = fmt.Errorf("asm: invalid const line: %s", strings.Join(fields, " "))
			return fields
		}
		switch fields[0] {
		case "number":
			f, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				a.err = fmt.Errorf("asm: invalid number constant %q: %w", fields[1], err)
				return fields
			}
			a.img.NumConsts = append(a.img.NumConsts, f)
		case "string":
			s, err := strconv.Unquote(fields[1])
			if err != nil {
				a.err = fmt.Errorf("asm: invalid string constant %q: %w", fields[1], err)
				return fields
			}
			a.img.StringConsts = append(a.img.StringConsts, s)
		default:
			a.err = fmt.Errorf("asm: unknown constant kind %q", fields[0])
			return fields
		}
		fields = a.next()
	}
	return fields
}

func (a *assembler) libfuncs() []string {
	fields := a.next()
	for a.err == nil && len(fields) > 0 && !sections[strings.ToLower(fields[0])] {
		a.img.NamedLibFuncs = append(a.img.NamedLibFuncs, fields[0])
		fields = a.next()
	}
	return fields
}

func (a *assembler) userfuncsSection() []string {
	fields := a.next()
	for a.err == nil && len(fields) > 0 && !sections[strings.ToLower(fields[0])] {
		if len(fields) != 3 {
			a.err = fmt.Errorf("asm: invalid userfunc line: want 'id label localsize', got %s", strings.Join(fields, " "))
			return fields
		}
		a.userFuncs = append(a.userFuncs, pendingUserFunc{
			id:    fields[0],
			label: fields[1],
			local: uint32(a.uint(fields[2])),
		})
		fields = a.next()
	}
	return fields
}

// code parses the code section in two passes: the first records label
// positions and builds the raw instruction list (jump operands still
// carrying the label name via a side table), the second resolves every
// jump/funcenter label reference to its absolute instruction index.
func (a *assembler) code() []string {
	a.labels = map[string]uint32{}
	type rawInstr struct {
		instr     image.Instruction
		jumpLabel string
		isJump    bool
	}
	var raw []rawInstr

	fields := a.next()
	for a.err == nil && len(fields) > 0 && !sections[strings.ToLower(fields[0])] {
		if len(fields) == 1 && strings.HasSuffix(fields[0], ":") {
			a.labels[strings.TrimSuffix(fields[0], ":")] = uint32(len(raw))
			fields = a.next()
			continue
		}

		op, ok := reverseOpcodeNames[strings.ToLower(fields[0])]
		if !ok {
			a.err = fmt.Errorf("asm: unknown opcode %q (known: %s)", fields[0], strings.Join(KnownOpcodes(), ", "))
			return fields
		}

		instr := image.Instruction{Opcode: op}
		isJump := false
		var jumpLabel string

		rest := strings.Join(fields[1:], " ")
		operands := splitOperands(rest)

		if op == image.Jump || isJcmp(op) {
			// The label operand carries the jump target (spec §4.5/§6.2) and is
			// always written last; it resolves into Result once every label is
			// known, so only the comparison operands (if any) are parsed now.
			if len(operands) == 0 {
				a.err = fmt.Errorf("asm: %s requires a label operand", fields[0])
				return fields
			}
			isJump = true
			jumpLabel = operands[len(operands)-1]
			operands = operands[:len(operands)-1]
			if len(operands) > 0 {
				instr.Arg1 = a.operand(operands[0])
			}
			if len(operands) > 1 {
				instr.Arg2 = a.operand(operands[1])
			}
		} else if op == image.Call || op == image.Pusharg {
			// call and pusharg carry their single operand (the callee, the
			// argument) in Arg1; neither has a destination.
			if len(operands) > 0 {
				instr.Arg1 = a.operand(operands[0])
			}
		} else {
			if len(operands) > 0 {
				instr.Result = a.operand(operands[0])
			}
			if len(operands) > 1 {
				instr.Arg1 = a.operand(operands[1])
			}
			if len(operands) > 2 {
				instr.Arg2 = a.operand(operands[2])
			}
		}

		raw = append(raw, rawInstr{instr: instr, jumpLabel: jumpLabel, isJump: isJump})
		fields = a.next()
	}

	if a.err != nil {
		return fields
	}

	a.img.Code = make([]image.Instruction, len(raw))
	for i, r := range raw {
		instr := r.instr
		if r.isJump {
			target, ok := a.labels[r.jumpLabel]
			if !ok {
				a.err = fmt.Errorf("asm: undefined label %q", r.jumpLabel)
				return fields
			}
			instr.Result = image.Operand{Kind: image.Label, Value: target}
		}
		a.img.Code[i] = instr
	}

	for _, uf := range a.userFuncs {
		addr, ok := a.labels[uf.label]
		if !ok {
			a.err = fmt.Errorf("asm: userfunc %q references undefined label %q", uf.id, uf.label)
			return fields
		}
		a.img.UserFuncs = append(a.img.UserFuncs, image.UserFunc{Address: addr, LocalSize: uf.local, ID: uf.id})
	}

	return fields
}

// operand parses one "kind:value" operand token, e.g. "local:3",
// "number:0", "nil", "retval".
func (a *assembler) operand(tok string) image.Operand {
	kind, val, hasVal := strings.Cut(tok, ":")
	k, ok := reverseOperandKindNames[strings.ToLower(kind)]
	if !ok {
		a.err = fmt.Errorf("asm: unknown operand kind %q", kind)
		return image.Operand{}
	}
	if !hasVal {
		return image.Operand{Kind: k}
	}
	if k == image.Bool {
		v := uint64(0)
		if val == "true" {
			v = 1
		}
		return image.Operand{Kind: k, Value: uint32(v)}
	}
	return image.Operand{Kind: k, Value: uint32(a.uint(val))}
}

func splitOperands(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func isJcmp(op image.Opcode) bool {
	switch op {
	case image.Jeq, image.Jne, image.Jle, image.Jge, image.Jlt, image.Jgt:
		return true
	default:
		return false
	}
}
