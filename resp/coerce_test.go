package resp

import (
	"errors"
	"math"
	"testing"
)

func TestCoerceIntegerToDouble(t *testing.T) {
	v := Value{Kind: KindInteger, Int: 7}
	f, err := v.AsFloat64()
	if err != nil || f != 7 {
		t.Fatalf("got %v err=%v", f, err)
	}
}

func TestCoerceDoubleToIntegerExactOnly(t *testing.T) {
	v := Value{Kind: KindDouble, Dbl: 4.0}
	n, err := v.AsInt64()
	if err != nil || n != 4 {
		t.Fatalf("got %v err=%v", n, err)
	}

	v2 := Value{Kind: KindDouble, Dbl: 4.5}
	if _, err := v2.AsInt64(); err == nil {
		t.Fatal("expected TypeMismatch for non-integral double")
	}

	v3 := Value{Kind: KindDouble, Dbl: math.Inf(1)}
	if _, err := v3.AsInt64(); err == nil {
		t.Fatal("expected TypeMismatch for +inf double")
	}
}

func TestCoerceBulkStringToIntegerIffDecimal(t *testing.T) {
	v := Value{Kind: KindBulkString, Bytes: []byte("123")}
	n, err := v.AsInt64()
	if err != nil || n != 123 {
		t.Fatalf("got %v err=%v", n, err)
	}

	v2 := Value{Kind: KindBulkString, Bytes: []byte("not-a-number")}
	if _, err := v2.AsInt64(); err == nil {
		t.Fatal("expected TypeMismatch")
	}
	var tm *TypeMismatchError
	if _, err := v2.AsInt64(); !errors.As(err, &tm) {
		t.Fatalf("expected *TypeMismatchError, got %T", err)
	}
}

func TestCoerceArrayNeverScalar(t *testing.T) {
	v := Value{Kind: KindArray, Arr: []Value{{Kind: KindInteger, Int: 1}}}
	if _, err := v.AsInt64(); err == nil {
		t.Fatal("array must never coerce to a scalar")
	}
	if _, err := v.AsString(); err == nil {
		t.Fatal("array must never coerce to a scalar")
	}
	if _, err := v.AsBool(); err == nil {
		t.Fatal("array must never coerce to a scalar")
	}
}

func TestCoerceBoolean(t *testing.T) {
	v := Value{Kind: KindBoolean, Bool: true}
	b, err := v.AsBool()
	if err != nil || !b {
		t.Fatalf("got %v err=%v", b, err)
	}
	vi := Value{Kind: KindInteger, Int: 0}
	b2, err := vi.AsBool()
	if err != nil || b2 {
		t.Fatalf("got %v err=%v", b2, err)
	}
}
