package maincmd_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/avm/asm"
	"github.com/mna/avm/image"
	"github.com/mna/avm/internal/maincmd"
)

const printOneSrc = `
consts:
	number 1
	number 2
libfuncs:
	print
globalvaroffset: 1
stack: 64
code:
	add global:0, number:0, number:1
	pusharg global:0
	call libfunc:0
`

func writeTemp(t *testing.T, name string, b []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func TestRunFromSourceSucceeds(t *testing.T) {
	path := writeTemp(t, "prog.avm", []byte(printOneSrc))

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut, Stdin: strings.NewReader("")}

	c := maincmd.Cmd{}
	err := c.Run(context.Background(), stdio, []string{path})
	require.NoError(t, err)
	assert.Contains(t, errOut.String(), "")
	assert.Contains(t, out.String(), "success")
}

func TestRunFromBinaryImageSucceeds(t *testing.T) {
	img, err := asm.Assemble([]byte(printOneSrc))
	require.NoError(t, err)

	var encoded bytes.Buffer
	require.NoError(t, image.Encode(&encoded, img))
	path := writeTemp(t, "prog.avmb", encoded.Bytes())

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut, Stdin: strings.NewReader("")}

	c := maincmd.Cmd{}
	err = c.Run(context.Background(), stdio, []string{path})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "success")
}

func TestRunLoadFailureReturnsError(t *testing.T) {
	path := writeTemp(t, "bad.avm", []byte("code:\n\tbogus\n"))

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut, Stdin: strings.NewReader("")}

	c := maincmd.Cmd{}
	err := c.Run(context.Background(), stdio, []string{path})
	assert.Error(t, err)
	assert.Contains(t, errOut.String(), "bogus")
}

func TestDisasmPrintsAssembly(t *testing.T) {
	path := writeTemp(t, "prog.avm", []byte(printOneSrc))

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut, Stdin: strings.NewReader("")}

	c := maincmd.Cmd{}
	err := c.Disasm(context.Background(), stdio, []string{path})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "code:")
	assert.Contains(t, out.String(), "call libfunc:0")
}

func TestMainVersion(t *testing.T) {
	var out bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &bytes.Buffer{}, Stdin: strings.NewReader("")}

	c := maincmd.Cmd{BuildVersion: "1.0.0", BuildDate: "2026-01-01"}
	code := c.Main([]string{"avm", "--version"}, stdio)
	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, out.String(), "1.0.0")
}

func TestMainUnknownCommand(t *testing.T) {
	stdio := mainer.Stdio{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}, Stdin: strings.NewReader("")}

	c := maincmd.Cmd{}
	code := c.Main([]string{"avm", "bogus", "path"}, stdio)
	assert.Equal(t, mainer.InvalidArgs, code)
}
