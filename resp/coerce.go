package resp

import (
	"fmt"
	"math"
	"strconv"
)

// TypeMismatchError is returned when a caller requests a scalar shape a
// frame cannot provide without losing precision or meaning.
type TypeMismatchError struct {
	From Kind
	To   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("resp: cannot coerce %s to %s", e.From, e.To)
}

func mismatch(from Kind, to string) error { return &TypeMismatchError{From: from, To: to} }

// AsBytes returns the raw byte payload of a scalar frame. Arrays, Maps,
// Sets, Push, and Attribute never coerce to a scalar shape.
func (v Value) AsBytes() ([]byte, error) {
	switch v.Kind {
	case KindSimpleString, KindSimpleError, KindBulkString, KindBulkError, KindBigNumber:
		return v.Bytes, nil
	case KindVerbatimString:
		return v.VerbatimPayload(), nil
	case KindInteger:
		return strconv.AppendInt(nil, v.Int, 10), nil
	case KindDouble:
		return appendDouble(nil, v.Dbl), nil
	case KindBoolean:
		if v.Bool {
			return []byte("1"), nil
		}
		return []byte("0"), nil
	default:
		return nil, mismatch(v.Kind, "bytes")
	}
}

// AsString is AsBytes converted to a string; the conversion copies the
// bytes, so the result does not alias the Value's payload.
func (v Value) AsString() (string, error) {
	b, err := v.AsBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// AsInt64 succeeds for Integer directly; for Double only when it is finite
// and equals its own truncation (precision-preserving); for Bulk-shaped
// byte runs only when they parse as a signed decimal. Arrays never coerce.
func (v Value) AsInt64() (int64, error) {
	switch v.Kind {
	case KindInteger:
		return v.Int, nil
	case KindDouble:
		if math.IsInf(v.Dbl, 0) || math.IsNaN(v.Dbl) || v.Dbl != math.Trunc(v.Dbl) {
			return 0, mismatch(v.Kind, "integer")
		}
		return int64(v.Dbl), nil
	case KindBoolean:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case KindSimpleString, KindBulkString, KindBulkError, KindSimpleError, KindBigNumber, KindVerbatimString:
		b, _ := v.AsBytes()
		n, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return 0, mismatch(v.Kind, "integer")
		}
		return n, nil
	default:
		return 0, mismatch(v.Kind, "integer")
	}
}

// AsFloat64 succeeds for any Integer (always precision-preserving up to
// 2^53) and Double directly, and for Bulk-shaped byte runs that parse as a
// float.
func (v Value) AsFloat64() (float64, error) {
	switch v.Kind {
	case KindDouble:
		return v.Dbl, nil
	case KindInteger:
		return float64(v.Int), nil
	case KindSimpleString, KindBulkString, KindBulkError, KindSimpleError, KindBigNumber, KindVerbatimString:
		b, _ := v.AsBytes()
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return 0, mismatch(v.Kind, "double")
		}
		return f, nil
	default:
		return 0, mismatch(v.Kind, "double")
	}
}

// AsBool succeeds for Boolean directly, for Integer 0/1, and for the
// conventional bulk "0"/"1" payload some server replies use.
func (v Value) AsBool() (bool, error) {
	switch v.Kind {
	case KindBoolean:
		return v.Bool, nil
	case KindInteger:
		switch v.Int {
		case 0:
			return false, nil
		case 1:
			return true, nil
		default:
			return false, mismatch(v.Kind, "boolean")
		}
	case KindSimpleString, KindBulkString:
		switch string(v.Bytes) {
		case "0":
			return false, nil
		case "1":
			return true, nil
		default:
			return false, mismatch(v.Kind, "boolean")
		}
	default:
		return false, mismatch(v.Kind, "boolean")
	}
}

func appendDouble(dst []byte, f float64) []byte {
	switch {
	case math.IsInf(f, 1):
		return append(dst, "inf"...)
	case math.IsInf(f, -1):
		return append(dst, "-inf"...)
	case math.IsNaN(f):
		return append(dst, "nan"...)
	default:
		return strconv.AppendFloat(dst, f, 'g', -1, 64)
	}
}
