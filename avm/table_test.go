package avm_test

import (
	"testing"

	"github.com/mna/avm/avm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSetGetAcrossPartitions(t *testing.T) {
	tbl := avm.NewTable()

	tbl.Set(avm.NumberCell(0), avm.StringCell("zero"))
	tbl.Set(avm.StringCell("a"), avm.NumberCell(1))
	tbl.Set(avm.BoolCell(true), avm.NumberCell(2))

	require.Equal(t, 3, tbl.Total())

	v, ok := tbl.Get(avm.NumberCell(0))
	require.True(t, ok)
	assert.Equal(t, "zero", v.Str)

	v, ok = tbl.Get(avm.StringCell("a"))
	require.True(t, ok)
	assert.Equal(t, float64(1), v.Num)

	_, ok = tbl.Get(avm.StringCell("missing"))
	assert.False(t, ok)
}

func TestTableSetNilRemovesKey(t *testing.T) {
	tbl := avm.NewTable()
	tbl.Set(avm.NumberCell(0), avm.StringCell("zero"))
	require.Equal(t, 1, tbl.Total())

	tbl.Set(avm.NumberCell(0), avm.NilCell())
	assert.Equal(t, 0, tbl.Total())
	_, ok := tbl.Get(avm.NumberCell(0))
	assert.False(t, ok)

	// removing an absent key is a no-op
	tbl.Set(avm.NumberCell(1), avm.NilCell())
	assert.Equal(t, 0, tbl.Total())
}

func TestTableSetUpdateInPlace(t *testing.T) {
	tbl := avm.NewTable()
	tbl.Set(avm.StringCell("k"), avm.NumberCell(1))
	tbl.Set(avm.StringCell("k"), avm.NumberCell(2))
	require.Equal(t, 1, tbl.Total())
	v, ok := tbl.Get(avm.StringCell("k"))
	require.True(t, ok)
	assert.Equal(t, float64(2), v.Num)
}

func TestTableEachPartitionOrder(t *testing.T) {
	tbl := avm.NewTable()
	tbl.Set(avm.LibFuncCell("print"), avm.BoolCell(true))
	tbl.Set(avm.UserFuncCell(3, "f"), avm.BoolCell(true))
	tbl.Set(avm.BoolCell(false), avm.BoolCell(true))
	tbl.Set(avm.StringCell("s"), avm.BoolCell(true))
	tbl.Set(avm.NumberCell(9), avm.BoolCell(true))

	var order []avm.Tag
	tbl.Each(func(key, _ avm.Cell) { order = append(order, key.Tag) })

	assert.Equal(t, []avm.Tag{avm.NUMBER, avm.STRING, avm.BOOL, avm.USERFUNC, avm.LIBFUNC}, order)
}

func TestTableStringEmptyIsEmptyString(t *testing.T) {
	tbl := avm.NewTable()
	assert.Equal(t, "", tbl.String())
}

func TestTableStringNonEmpty(t *testing.T) {
	tbl := avm.NewTable()
	tbl.Set(avm.StringCell("a"), avm.NumberCell(1))
	assert.Equal(t, "{'a':1.000000}", tbl.String())
}

func TestTableRefcount(t *testing.T) {
	tbl := avm.NewTable()
	require.Equal(t, 1, tbl.Refcount())

	outer := avm.NewTable()
	outer.Set(avm.StringCell("inner"), avm.TableCell(tbl))
	// Set duplicates the value cell via AssignFrom, which increfs.
	assert.Equal(t, 2, tbl.Refcount())

	outer.Set(avm.StringCell("inner"), avm.NilCell())
	assert.Equal(t, 1, tbl.Refcount())
}
