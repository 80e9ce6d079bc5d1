package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/mna/avm/asm"
)

// Disasm loads the image at args[0] and prints its disassembly: the
// textual assembly form asm.Assemble accepts, as produced by
// asm.Disassemble, the inverse of asm.Assemble (spec §6.2).
func (c *Cmd) Disasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	img, err := loadImage(args[0])
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", args[0], err)
		return err
	}
	text, err := asm.Disassemble(img)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", args[0], err)
		return err
	}
	_, err = stdio.Stdout.Write(text)
	return err
}
