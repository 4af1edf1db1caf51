package resp

import "testing"

func TestEqualitySetIsMultiset(t *testing.T) {
	a := Value{Kind: KindSet, Arr: []Value{
		{Kind: KindInteger, Int: 1},
		{Kind: KindInteger, Int: 2},
	}}
	b := Value{Kind: KindSet, Arr: []Value{
		{Kind: KindInteger, Int: 2},
		{Kind: KindInteger, Int: 1},
	}}
	if !a.Equal(b) {
		t.Fatal("sets with same multiset of elements in different order should be equal")
	}
}

func TestEqualityMapIsOrderedPairsNotCollapsedDuplicates(t *testing.T) {
	a := Value{Kind: KindMap, Map: []Pair{
		{Field: Value{Kind: KindBulkString, Bytes: []byte("f")}, Val: Value{Kind: KindInteger, Int: 1}},
		{Field: Value{Kind: KindBulkString, Bytes: []byte("f")}, Val: Value{Kind: KindInteger, Int: 2}},
	}}
	b := Value{Kind: KindMap, Map: []Pair{
		{Field: Value{Kind: KindBulkString, Bytes: []byte("f")}, Val: Value{Kind: KindInteger, Int: 2}},
		{Field: Value{Kind: KindBulkString, Bytes: []byte("f")}, Val: Value{Kind: KindInteger, Int: 1}},
	}}
	if a.Equal(b) {
		t.Fatal("maps must compare as ordered pair sequences, reordering duplicate-keyed pairs must not be equal")
	}
	if !a.Equal(a) {
		t.Fatal("map must equal itself")
	}
}

func TestEqualityKindMismatch(t *testing.T) {
	a := Value{Kind: KindInteger, Int: 1}
	b := Value{Kind: KindBulkString, Bytes: []byte("1")}
	if a.Equal(b) {
		t.Fatal("different kinds must never compare equal even with equivalent payload")
	}
}

func TestIsNullishDistinguishesKind(t *testing.T) {
	nullBulk := Value{Kind: KindBulkString, Null: true}
	dedicated := Value{Kind: KindNull}
	if !nullBulk.IsNullish() || !dedicated.IsNullish() {
		t.Fatal("both forms of absent value must report IsNullish")
	}
	if nullBulk.Kind == dedicated.Kind {
		t.Fatal("kinds must remain distinct for diagnostics")
	}
}
