package avm

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ActualCount returns the number of actual arguments pushed for the
// currently-executing library call (spec §4.8's totalActuals()), read from
// the totalActuals cell of the call's saved environment: the totalActuals
// register itself is reset to 0 before the built-in runs.
func (vm *VM) ActualCount() uint32 {
	n, err := getEnvValue(vm.stack.cells[vm.stack.topsp+StackEnvSize])
	if err != nil {
		return 0
	}
	return n
}

// Actual returns the i-th actual argument of the currently-executing
// library call (spec §4.8's getActual(i)); i must be < ActualCount().
func (vm *VM) Actual(i uint32) *Cell {
	return &vm.stack.cells[vm.stack.topsp+StackEnvSize+1+i]
}

// Retval returns the dedicated return cell a built-in writes its result
// into.
func (vm *VM) Retval() *Cell { return &vm.stack.retval }

// Stdout is the writer print() writes rendered arguments to.
func (vm *VM) Stdout() io.Writer {
	if vm.stdout != nil {
		return vm.stdout
	}
	return os.Stdout
}

// Stdin is the reader input() reads a line from.
func (vm *VM) Stdin() io.Reader {
	if vm.stdin != nil {
		return vm.stdin
	}
	return os.Stdin
}

// SetStdio overrides the default os.Stdout/os.Stdin used by print/input,
// mirroring the teacher's Thread.Stdout/Stdin fields (lang/machine/thread.go).
func (vm *VM) SetStdio(stdout io.Writer, stdin io.Reader) {
	vm.stdout = stdout
	vm.stdin = stdin
}

// enclosingFrame resolves the frame of the user function that called the
// currently-executing library function, by reading the saved topsp at
// offset +1 of the library call's own frame (spec §4.8). ok is false at
// top-level / global scope, where no user function is active (the saved
// topsp is noFrame).
func (vm *VM) enclosingFrame() (topsp, totalActuals uint32, ok bool) {
	saved, err := getEnvValue(vm.stack.cells[vm.stack.topsp+1])
	if err != nil || saved == noFrame {
		return 0, 0, false
	}
	ta, err := getEnvValue(vm.stack.cells[saved+4])
	if err != nil {
		return 0, 0, false
	}
	return saved, ta, true
}

// registerStdlib registers every built-in named in spec §4.8.
func registerStdlib(r *libFuncRegistry) {
	r.register("print", libPrint)
	r.register("input", libInput)
	r.register("typeof", libTypeof)
	r.register("strtonum", libStrtonum)
	r.register("sqrt", libMath1(math.Sqrt))
	r.register("cos", libMath1(math.Cos))
	r.register("sin", libMath1(math.Sin))
	r.register("objecttotalmembers", libObjectTotalMembers)
	r.register("objectcopy", libObjectCopy)
	r.register("objectmemberkeys", libObjectMemberKeys)
	r.register("argument", libArgument)
	r.register("totalarguments", libTotalArguments)
}

func libPrint(vm *VM) error {
	for i := uint32(0); i < vm.ActualCount(); i++ {
		fmt.Fprint(vm.Stdout(), vm.Actual(i).ToString())
	}
	return nil
}

// libInput implements input() (spec §4.8, supplemented per SPEC_FULL.md
// §10): reads a line and classifies it as STRING if delimited by quotes,
// else BOOL/NIL by exact match, else NUMBER if it parses to a non-zero
// value, else
// LIBFUNC/USERFUNC by exact symbol lookup, else STRING verbatim.
func libInput(vm *VM) error {
	line, _ := bufio.NewReader(vm.Stdin()).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")

	dst := vm.Retval()
	dst.Clear()

	switch {
	case len(line) >= 2 && strings.HasPrefix(line, `"`) && strings.HasSuffix(line, `"`):
		dst.AssignFrom(StringCell(line[1 : len(line)-1]))
	case line == "true":
		dst.AssignFrom(BoolCell(true))
	case line == "false":
		dst.AssignFrom(BoolCell(false))
	case line == "nil":
		dst.AssignFrom(NilCell())
	default:
		if n, err := strconv.ParseFloat(line, 64); err == nil && n != 0 {
			dst.AssignFrom(NumberCell(n))
			return nil
		}
		for _, name := range vm.img.NamedLibFuncs {
			if name == line {
				dst.AssignFrom(LibFuncCell(name))
				return nil
			}
		}
		for _, uf := range vm.img.UserFuncs {
			if uf.ID == line {
				dst.AssignFrom(UserFuncCell(uf.Address, uf.ID))
				return nil
			}
		}
		dst.AssignFrom(StringCell(line))
	}
	return nil
}

func libTypeof(vm *VM) error {
	dst := vm.Retval()
	dst.Clear()
	if vm.ActualCount() != 1 {
		vm.warnf("'typeof()': one argument (not %d) expected!", vm.ActualCount())
		dst.AssignFrom(NilCell())
		return nil
	}
	dst.AssignFrom(StringCell(vm.Actual(0).Tag.String()))
	return nil
}

func libStrtonum(vm *VM) error {
	dst := vm.Retval()
	dst.Clear()
	if vm.ActualCount() != 1 || vm.Actual(0).Tag != STRING {
		vm.warnf("'strtonum()': one string argument expected!")
		dst.AssignFrom(NilCell())
		return nil
	}
	n, _ := strconv.ParseFloat(strings.TrimSpace(vm.Actual(0).Str), 64)
	dst.AssignFrom(NumberCell(n))
	return nil
}

func libMath1(fn func(float64) float64) Builtin {
	return func(vm *VM) error {
		dst := vm.Retval()
		dst.Clear()
		if vm.ActualCount() != 1 || vm.Actual(0).Tag != NUMBER {
			vm.warnf("math builtin: one number argument expected!")
			dst.AssignFrom(NilCell())
			return nil
		}
		dst.AssignFrom(NumberCell(fn(vm.Actual(0).Num)))
		return nil
	}
}

func libObjectTotalMembers(vm *VM) error {
	dst := vm.Retval()
	dst.Clear()
	if vm.ActualCount() != 1 || vm.Actual(0).Tag != TABLE {
		vm.warnf("'objecttotalmembers()': one table argument expected!")
		dst.AssignFrom(NilCell())
		return nil
	}
	dst.AssignFrom(NumberCell(float64(vm.Actual(0).Tbl.Total())))
	return nil
}

// libObjectCopy implements objectcopy(t): shallow-copy every bucket into a
// fresh table.
func libObjectCopy(vm *VM) error {
	dst := vm.Retval()
	dst.Clear()
	if vm.ActualCount() != 1 || vm.Actual(0).Tag != TABLE {
		vm.warnf("'objectcopy()': one table argument expected!")
		dst.AssignFrom(NilCell())
		return nil
	}
	fresh := NewTable()
	vm.Actual(0).Tbl.Each(func(key, value Cell) {
		fresh.Set(key, value)
	})
	dst.AssignFrom(TableCell(fresh))
	return nil
}

// libObjectMemberKeys implements objectmemberkeys(t): a new table whose
// NUMBER-keyed entries 0..n-1 are the keys of t in partition order NUMBER,
// STRING, BOOL, USERFUNC, LIBFUNC.
func libObjectMemberKeys(vm *VM) error {
	dst := vm.Retval()
	dst.Clear()
	if vm.ActualCount() != 1 || vm.Actual(0).Tag != TABLE {
		vm.warnf("'objectmemberkeys()': one table argument expected!")
		dst.AssignFrom(NilCell())
		return nil
	}
	fresh := NewTable()
	var i float64
	vm.Actual(0).Tbl.Each(func(key, _ Cell) {
		fresh.Set(NumberCell(i), key)
		i++
	})
	dst.AssignFrom(TableCell(fresh))
	return nil
}

func libArgument(vm *VM) error {
	dst := vm.Retval()
	dst.Clear()
	if vm.ActualCount() != 1 || vm.Actual(0).Tag != NUMBER {
		vm.warnf("'argument()': one number argument expected!")
		dst.AssignFrom(NilCell())
		return nil
	}
	topsp, totalActuals, ok := vm.enclosingFrame()
	if !ok {
		vm.warnf("'argument()': call outside function")
		dst.AssignFrom(NilCell())
		return nil
	}
	i := uint32(vm.Actual(0).Num)
	if i >= totalActuals {
		vm.warnf("'argument()': index %d out of range (%d argument(s))", i, totalActuals)
		dst.AssignFrom(NilCell())
		return nil
	}
	dst.AssignFrom(vm.stack.cells[topsp+StackEnvSize+1+i])
	return nil
}

func libTotalArguments(vm *VM) error {
	dst := vm.Retval()
	dst.Clear()
	_, totalActuals, ok := vm.enclosingFrame()
	if !ok {
		vm.warnf("'totalarguments()': call outside function")
		dst.AssignFrom(NilCell())
		return nil
	}
	dst.AssignFrom(NumberCell(float64(totalActuals)))
	return nil
}
