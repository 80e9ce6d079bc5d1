package avm

import "errors"

// DefaultStackSize is the fixed capacity of the register file New allocates;
// it also stands in for N (stack initialization hint) when an image leaves N
// at zero.
const DefaultStackSize = 4096

// StackEnvSize is the number of cells an activation frame reserves for its
// saved environment (saved topsp, saved top, saved pc, totalActuals).
const StackEnvSize = 4

// noFrame is the sentinel topsp value meaning "no user function is
// currently active" (top-level/global scope). argument()/totalarguments()
// use it to diagnose "call outside function".
const noFrame = ^uint32(0)

// stack is the register file: an ordered sequence of cells indexed
// high-to-low, plus the named scalar registers that index into it (spec
// §3).
type stack struct {
	cells []Cell

	top          uint32
	topsp        uint32
	pc           uint32
	totalActuals uint32
	retval       Cell
	ax           Cell // scratch cell; unused, since translate's callers supply their own
}

func newStack(size uint32, top uint32) *stack {
	if size == 0 {
		size = DefaultStackSize
	}
	s := &stack{
		cells: make([]Cell, size),
		top:   top,
		topsp: noFrame,
	}
	for i := range s.cells {
		s.cells[i] = Cell{Tag: UNDEF}
	}
	return s
}

func (s *stack) size() uint32 { return uint32(len(s.cells)) }

// decTop decrements top, the slot pushes consume. Raises Stack Overflow
// (spec §4.2, Testable Property 8) if the stack is already exhausted.
func (s *stack) decTop() error {
	if s.top == 0 {
		return errors.New("Stack Overflow")
	}
	s.top--
	return nil
}

// pushEnvValue writes a NUMBER cell holding v at stack[top], then decTop.
// Used to build the four saved-environment cells of an activation frame.
func (s *stack) pushEnvValue(v uint32) error {
	s.cells[s.top] = NumberCell(float64(v))
	return s.decTop()
}

// getEnvValue reads back a value written by pushEnvValue: the cell must be
// NUMBER and its numeric value integral.
func getEnvValue(c Cell) (uint32, error) {
	if c.Tag != NUMBER || c.Num != float64(uint32(c.Num)) {
		return 0, errors.New("invalid saved-environment cell")
	}
	return uint32(c.Num), nil
}
