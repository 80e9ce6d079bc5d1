package asm_test

import (
	"testing"

	"github.com/mna/avm/asm"
	"github.com/mna/avm/image"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleConstsAndScalars(t *testing.T) {
	src := `
consts:
	number 1.5
	string "hello"
globalvaroffset: 4
stack: 128
code:
	nop
`
	img, err := asm.Assemble([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5}, img.NumConsts)
	assert.Equal(t, []string{"hello"}, img.StringConsts)
	assert.Equal(t, uint32(4), img.GlobalVarOffset)
	assert.Equal(t, uint32(128), img.N)
	require.Len(t, img.Code, 1)
	assert.Equal(t, image.Nop, img.Code[0].Opcode)
}

func TestAssembleLibfuncsAndUserfuncs(t *testing.T) {
	src := `
libfuncs:
	print
	input
userfuncs:
	f f_entry 2
code:
	jump main
f_entry:
	funcenter
	funcexit
main:
	nop
`
	img, err := asm.Assemble([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"print", "input"}, img.NamedLibFuncs)
	require.Len(t, img.UserFuncs, 1)
	assert.Equal(t, "f", img.UserFuncs[0].ID)
	assert.Equal(t, uint32(2), img.UserFuncs[0].LocalSize)
	assert.Equal(t, uint32(1), img.UserFuncs[0].Address) // f_entry is the second instruction
}

func TestAssembleJumpResolvesForwardLabel(t *testing.T) {
	src := `
code:
	jump done
	nop
done:
	nop
`
	img, err := asm.Assemble([]byte(src))
	require.NoError(t, err)
	require.Len(t, img.Code, 3)
	assert.Equal(t, image.Jump, img.Code[0].Opcode)
	assert.Equal(t, image.Label, img.Code[0].Result.Kind)
	assert.Equal(t, uint32(2), img.Code[0].Result.Value)
}

func TestAssembleJcmpOperandMapping(t *testing.T) {
	src := `
code:
	jle formal:0, number:0, base
	nop
base:
	nop
`
	img, err := asm.Assemble([]byte(src))
	require.NoError(t, err)
	instr := img.Code[0]
	assert.Equal(t, image.Jle, instr.Opcode)
	assert.Equal(t, image.Formal, instr.Arg1.Kind)
	assert.Equal(t, uint32(0), instr.Arg1.Value)
	assert.Equal(t, image.Number, instr.Arg2.Kind)
	assert.Equal(t, uint32(0), instr.Arg2.Value)
	assert.Equal(t, image.Label, instr.Result.Kind)
	assert.Equal(t, uint32(2), instr.Result.Value)
}

func TestAssembleCallAndPushargOperandMapping(t *testing.T) {
	src := `
libfuncs:
	print
code:
	pusharg global:0
	call libfunc:0
`
	img, err := asm.Assemble([]byte(src))
	require.NoError(t, err)

	pusharg := img.Code[0]
	assert.Equal(t, image.Pusharg, pusharg.Opcode)
	assert.Equal(t, image.Global, pusharg.Arg1.Kind)
	assert.Equal(t, image.Empty, pusharg.Result.Kind)

	call := img.Code[1]
	assert.Equal(t, image.Call, call.Opcode)
	assert.Equal(t, image.LibFunc, call.Arg1.Kind)
	assert.Equal(t, image.Empty, call.Result.Kind)
}

func TestAssembleTablesetelemOperandMapping(t *testing.T) {
	src := `
code:
	tablesetelem global:0, number:0, number:1
`
	img, err := asm.Assemble([]byte(src))
	require.NoError(t, err)
	instr := img.Code[0]
	assert.Equal(t, image.Global, instr.Result.Kind, "table operand lands in Result")
	assert.Equal(t, image.Number, instr.Arg1.Kind, "key operand lands in Arg1")
	assert.Equal(t, uint32(0), instr.Arg1.Value)
	assert.Equal(t, image.Number, instr.Arg2.Kind, "value operand lands in Arg2")
	assert.Equal(t, uint32(1), instr.Arg2.Value)
}

func TestAssembleUnknownOpcodeError(t *testing.T) {
	_, err := asm.Assemble([]byte("code:\n\tbogus\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestAssembleUndefinedLabelError(t *testing.T) {
	_, err := asm.Assemble([]byte("code:\n\tjump nowhere\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere")
}

func TestAssembleIgnoresComments(t *testing.T) {
	src := `
# a leading comment
consts:
	number 1 # trailing comment
code:
	nop # another one
`
	img, err := asm.Assemble([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, img.NumConsts)
	require.Len(t, img.Code, 1)
}

func TestDisassembleAssembleRoundTrip(t *testing.T) {
	src := `
consts:
	number 1.5
	string "hi"
libfuncs:
	print
userfuncs:
	fact fact_entry 1
globalvaroffset: 1
stack: 64
code:
	jump main
fact_entry:
	funcenter
	jle formal:0, number:0, base
	sub local:0, formal:0, number:0
	pusharg local:0
	call userfunc:0
	mul retval, retval, formal:0
	funcexit
base:
	assign retval, number:0
	funcexit
main:
	pusharg number:0
	call userfunc:0
	assign global:0, retval
	pusharg global:0
	call libfunc:0
`
	img1, err := asm.Assemble([]byte(src))
	require.NoError(t, err)

	text, err := asm.Disassemble(img1)
	require.NoError(t, err)

	img2, err := asm.Assemble(text)
	require.NoError(t, err)

	assert.Equal(t, img1, img2)
}
