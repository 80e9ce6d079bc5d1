package avm

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// HashSize is the number of chains per partition. Not pinned by the
// specification; 211 (a prime comfortably larger than the handful of keys a
// typical script table holds) is the implementer's choice, matching the
// small-prime hash table sizes conventionally used by bytecode VMs of this
// generation.
const HashSize = 211

// partition identifies which of the five hash-bucket arrays a key belongs
// to, selected by the key's tag.
type partition uint8

const (
	partNumber partition = iota
	partString
	partBool
	partUserFunc
	partLibFunc
	partitionCount
)

// partitionOf returns the partition a key cell belongs to, or ok=false if
// the tag cannot be a table key (NIL, UNDEF, TABLE).
func partitionOf(key Cell) (partition, bool) {
	switch key.Tag {
	case NUMBER:
		return partNumber, true
	case STRING:
		return partString, true
	case BOOL:
		return partBool, true
	case USERFUNC:
		return partUserFunc, true
	case LIBFUNC:
		return partLibFunc, true
	default:
		return 0, false
	}
}

type bucket struct {
	key   Cell
	value Cell
	next  *bucket
}

// Table is the associative container described in spec §3/§4.9: five
// hash-bucket partitions (one per key-class), a live-entry count,
// and a positive refcount. A Table is always heap-allocated and referenced
// through a TABLE Cell; it is freed (buckets cleared, chains dropped) only
// when its refcount reaches zero. Cycles through TABLE values are not
// reclaimed — see DESIGN.md.
type Table struct {
	buckets  [partitionCount][HashSize]*bucket
	total    int
	refcount int
}

// NewTable allocates a fresh table with refcount 1 and no entries, as the
// newtable instruction requires.
func NewTable() *Table {
	return &Table{refcount: 1}
}

// Total returns the number of live entries across all partitions.
func (t *Table) Total() int { return t.total }

// Refcount returns the current reference count.
func (t *Table) Refcount() int { return t.refcount }

func (t *Table) incref() { t.refcount++ }

// decref drops the refcount; at zero, every bucket's value is cleared (so
// nested tables release their own references in turn) and all chains are
// dropped.
func (t *Table) decref() {
	t.refcount--
	if t.refcount > 0 {
		return
	}
	for p := partition(0); p < partitionCount; p++ {
		for i := range t.buckets[p] {
			for b := t.buckets[p][i]; b != nil; {
				next := b.next
				b.value.Clear()
				b = next
			}
			t.buckets[p][i] = nil
		}
	}
	t.total = 0
}

func hashIndex(key Cell, part partition) int {
	var h uint64
	switch part {
	case partNumber:
		h = numHash(key.Num)
	case partString:
		h = xxhash.Sum64String(key.Str)
	case partBool:
		if key.Bool {
			h = 1
		}
	case partUserFunc:
		h = uint64(key.Fn)
	case partLibFunc:
		h = xxhash.Sum64String(key.Lib)
	}
	return int(h % HashSize)
}

// numHash hashes a float64 key by its bit pattern, so that equal numbers
// (including -0/+0, which compare equal under ==) hash identically.
func numHash(f float64) uint64 {
	if f == 0 {
		f = 0 // normalize -0 to +0
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
	return xxhash.Sum64(buf[:])
}

// find returns the bucket for key in partition part, or nil if absent.
func (t *Table) find(key Cell, part partition) *bucket {
	idx := hashIndex(key, part)
	for b := t.buckets[part][idx]; b != nil; b = b.next {
		eq, err := equals(b.key, key)
		if err == nil && eq {
			return b
		}
	}
	return nil
}

// Get implements tablegetelem's lookup: if key is found, the returned Cell
// is a clone (caller owns the incref/dup) of the stored value and found is
// true; otherwise the zero Cell and found=false.
func (t *Table) Get(key Cell) (Cell, bool) {
	part, ok := partitionOf(key)
	if !ok {
		return Cell{}, false
	}
	b := t.find(key, part)
	if b == nil {
		return Cell{}, false
	}
	return b.value, true
}

// Set implements tablesetelem's insert/update/remove rule (spec §4.9): nil
// value removes the key (no-op if absent); otherwise inserts (incrementing
// total on first insert) or updates in place (clearing the prior value
// first). key must have already been validated as a legal key by the
// caller.
func (t *Table) Set(key, value Cell) {
	part, ok := partitionOf(key)
	if !ok {
		return
	}
	idx := hashIndex(key, part)
	if value.Tag == NIL {
		var prev *bucket
		for b := t.buckets[part][idx]; b != nil; b = b.next {
			eq, err := equals(b.key, key)
			if err == nil && eq {
				if prev == nil {
					t.buckets[part][idx] = b.next
				} else {
					prev.next = b.next
				}
				b.key.Clear()
				b.value.Clear()
				t.total--
				return
			}
			prev = b
		}
		return
	}

	if b := t.find(key, part); b != nil {
		b.value.AssignFrom(value)
		return
	}

	nb := &bucket{}
	nb.key.AssignFrom(key)
	nb.value.AssignFrom(value)
	nb.next = t.buckets[part][idx]
	t.buckets[part][idx] = nb
	t.total++
}

// partitionOrder is the order in which partitions are enumerated by
// to-string and by objectmemberkeys/objectcopy: NUMBER, STRING, BOOL,
// USERFUNC, LIBFUNC.
var partitionOrder = [...]partition{partNumber, partString, partBool, partUserFunc, partLibFunc}

// Each calls fn for every (key, value) pair in the table, in partition order
// (NUMBER, STRING, BOOL, USERFUNC, LIBFUNC) and chain order within each
// bucket slot.
func (t *Table) Each(fn func(key, value Cell)) {
	for _, part := range partitionOrder {
		for i := range t.buckets[part] {
			for b := t.buckets[part][i]; b != nil; b = b.next {
				fn(b.key, b.value)
			}
		}
	}
}

// String renders the table per spec §4.4's table_tostring contract: a
// brace-comma listing over all five partitions in order, STRING keys
// wrapped in single quotes, with the trailing ", " separator stripped. An
// empty table renders as the empty string (spec §9 open question, resolved:
// "empty table renders as the empty string").
func (t *Table) String() string {
	var sb strings.Builder
	t.Each(func(key, value Cell) {
		if key.Tag == STRING {
			sb.WriteString("{'")
			sb.WriteString(key.ToString())
			sb.WriteString("':")
		} else {
			sb.WriteByte('{')
			sb.WriteString(key.ToString())
			sb.WriteByte(':')
		}
		sb.WriteString(value.ToString())
		sb.WriteString("}, ")
	})
	s := sb.String()
	if len(s) == 0 {
		return ""
	}
	return s[:len(s)-2]
}
