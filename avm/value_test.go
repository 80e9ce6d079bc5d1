package avm_test

import (
	"testing"

	"github.com/mna/avm/avm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellTruth(t *testing.T) {
	cases := []struct {
		desc string
		cell avm.Cell
		want bool
	}{
		{"zero number", avm.NumberCell(0), false},
		{"nonzero number", avm.NumberCell(1), true},
		{"empty string", avm.StringCell(""), false},
		{"nonempty string", avm.StringCell("x"), true},
		{"false bool", avm.BoolCell(false), false},
		{"true bool", avm.BoolCell(true), true},
		{"nil", avm.NilCell(), false},
		{"table", avm.TableCell(avm.NewTable()), true},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			assert.Equal(t, c.want, c.cell.Truth())
		})
	}
}

func TestCellTruthPanicsOnUndef(t *testing.T) {
	var c avm.Cell
	require.Equal(t, avm.UNDEF, c.Tag)
	assert.Panics(t, func() { c.Truth() })
}

func TestCellToString(t *testing.T) {
	cases := []struct {
		desc string
		cell avm.Cell
		want string
	}{
		{"number", avm.NumberCell(3), "3.000000"},
		{"string", avm.StringCell("abc"), "abc"},
		{"true", avm.BoolCell(true), "true"},
		{"false", avm.BoolCell(false), "false"},
		{"nil", avm.NilCell(), "nil"},
		{"userfunc", avm.UserFuncCell(12, "fact"), "userfunction: fact , address: 12"},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			assert.Equal(t, c.want, c.cell.ToString())
		})
	}
}

func TestCellAssignFromTableIncrefsAndClearsOld(t *testing.T) {
	oldTbl := avm.NewTable()
	newTbl := avm.NewTable()

	dst := avm.TableCell(oldTbl)
	dst.AssignFrom(avm.TableCell(newTbl))

	assert.Equal(t, 0, oldTbl.Refcount(), "old table released")
	assert.Equal(t, 2, newTbl.Refcount(), "new table gains a reference")
	assert.Same(t, newTbl, dst.Tbl)
}

func TestCellAssignFromSameTableShortCircuits(t *testing.T) {
	tbl := avm.NewTable()
	dst := avm.TableCell(tbl)
	dst.AssignFrom(avm.TableCell(tbl))
	assert.Equal(t, 1, tbl.Refcount(), "refcount untouched by a same-table assign")
}

func TestCellClearDecrefsTable(t *testing.T) {
	tbl := avm.NewTable()
	c := avm.TableCell(tbl)
	assert.Equal(t, 1, tbl.Refcount())
	c.Clear()
	assert.Equal(t, 0, tbl.Refcount())
	assert.Equal(t, avm.UNDEF, c.Tag)
}
