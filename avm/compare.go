package avm

import "fmt"

// equals implements the jeq/jne equality rule of spec §4.5.
func equals(x, y Cell) (bool, error) {
	switch {
	case x.Tag == NIL && y.Tag == NIL:
		return true, nil
	case x.Tag == NIL || y.Tag == NIL:
		return false, nil
	case x.Tag == BOOL && y.Tag != BOOL:
		return x.Bool == y.Truth(), nil
	case y.Tag == BOOL && x.Tag != BOOL:
		return x.Truth() == y.Bool, nil
	case x.Tag != y.Tag:
		return false, fmt.Errorf("cannot compare %s to %s", x.Tag, y.Tag)
	}

	switch x.Tag {
	case NUMBER:
		return x.Num == y.Num, nil
	case STRING:
		return x.Str == y.Str, nil
	case BOOL:
		return x.Bool == y.Bool, nil
	case TABLE:
		return x.Tbl == y.Tbl, nil
	case USERFUNC:
		return x.Fn == y.Fn, nil
	case LIBFUNC:
		return x.Lib == y.Lib, nil
	default:
		return false, fmt.Errorf("cannot compare %s to %s", x.Tag, y.Tag)
	}
}

// numericCompare implements jle/jge/jlt/jgt: both operands must be NUMBER.
func numericCompare(x, y Cell) (int, error) {
	if x.Tag != NUMBER || y.Tag != NUMBER {
		return 0, fmt.Errorf("cannot order-compare %s and %s: both operands must be number", x.Tag, y.Tag)
	}
	switch {
	case x.Num < y.Num:
		return -1, nil
	case x.Num > y.Num:
		return +1, nil
	default:
		return 0, nil
	}
}
