package maincmd

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mna/mainer"

	"github.com/mna/avm/asm"
	"github.com/mna/avm/avm"
	"github.com/mna/avm/image"
)

// Run loads the image at args[0] and executes it to completion, printing a
// colorized diagnostic summary (spec §6.3, §6.4): a red banner for the
// fatal error that halted the machine (if any), or a green success banner,
// with the accumulated warning count either way. Grounded in
// original_source/AVM/avm.c's main(), which never calls exit() for a
// VM-level error — only a load failure turns into a nonzero exit code here.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	img, err := loadImage(args[0])
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", args[0], err)
		return err
	}

	vm, err := avm.New(img)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", args[0], err)
		return err
	}
	vm.SetStdio(stdio.Stdout, stdio.Stdin)

	rerr, err := vm.Run(ctx)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", args[0], err)
		return err
	}

	printSummary(stdio, rerr, vm.Warnings())
	return nil
}

func printSummary(stdio mainer.Stdio, rerr *avm.RuntimeError, warnings int) {
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	green := color.New(color.FgGreen)

	if rerr != nil {
		red.Fprintf(stdio.Stderr, "error: %s\n", rerr.Message)
	} else {
		green.Fprintln(stdio.Stdout, "success")
	}
	if warnings > 0 {
		yellow.Fprintf(stdio.Stdout, "%d warning(s)\n", warnings)
	}
}

// loadImage reads a binary image (magic "AVMB") or, as a convenience,
// assembles source text directly (spec §6.3).
func loadImage(path string) (*image.Image, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if image.HasMagic(b) {
		return image.Decode(bytes.NewReader(b))
	}
	return asm.Assemble(b)
}
