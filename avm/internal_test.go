package avm

import (
	"context"
	"testing"

	"github.com/mna/avm/asm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCallFuncexitRestoresFrame exercises Testable Property 4: after a call
// to a user function that itself pushes no arguments and makes no further
// calls, the matching funcexit restores top, topsp and totalActuals to
// exactly the values they held immediately before the call, and pc to one
// past the call site. avm_callsaveenvironment saves `top + totalActuals + 2`
// (original avm.c), but by the time that third push executes, top has
// already been decremented twice by the two prior saved-environment pushes,
// so the `+2` cancels them out: the saved value nets to top-before-args,
// not top-before-args+2. pushFrame/pushEnvValue reproduce that same
// sequential mutation, so no surplus survives the round trip.
func TestCallFuncexitRestoresFrame(t *testing.T) {
	src := []byte(`
userfuncs:
	f f_entry 0
globalvaroffset: 0
stack: 64
code:
	jump main
f_entry:
	funcenter
	funcexit
main:
	nop
	call userfunc:0
	nop
`)
	img, err := asm.Assemble(src)
	require.NoError(t, err)
	vm, err := New(img)
	require.NoError(t, err)

	// run the leading jump + the main: nop
	vm.step()
	vm.step()
	require.Equal(t, uint32(4), vm.stack.pc, "positioned right before the call instruction")

	wantTop, wantTopsp, wantTotalActuals := vm.stack.top, vm.stack.topsp, vm.stack.totalActuals

	// call, funcenter, funcexit
	vm.step()
	vm.step()
	vm.step()

	require.False(t, vm.halted)
	assert.Equal(t, wantTop, vm.stack.top)
	assert.Equal(t, wantTopsp, vm.stack.topsp)
	assert.Equal(t, wantTotalActuals, vm.stack.totalActuals)
	assert.Equal(t, uint32(5), vm.stack.pc) // call's pc (4) + 1
}

// TestFuncexitClearsReleasedCells exercises Testable Property 9: funcexit
// clears exactly the cells in (oldTop, top], leaving cells at or below
// oldTop untouched.
func TestFuncexitClearsReleasedCells(t *testing.T) {
	src := []byte(`
userfuncs:
	f f_entry 1
globalvaroffset: 0
stack: 64
code:
	jump main
f_entry:
	funcenter
	assign local:0, number:0
	funcexit
main:
	call userfunc:0
`)
	img, err := asm.Assemble(src)
	require.NoError(t, err)
	img.NumConsts = []float64{7}
	vm, err := New(img)
	require.NoError(t, err)

	initialTop := vm.stack.top
	localCellIdx := initialTop - 4 // topsp the callee's frame gets (4 env cells pushed, no args)

	_, err = vm.Run(context.Background())
	require.NoError(t, err)
	require.True(t, vm.halted)
	// the saved-top cell nets to top-before-args (see
	// TestCallFuncexitRestoresFrame) — no surplus survives the round trip.
	require.Equal(t, initialTop, vm.stack.top, "top restored to its pre-call value")

	assert.Equal(t, UNDEF, vm.stack.cells[localCellIdx].Tag, "local slot released by funcexit")
}
