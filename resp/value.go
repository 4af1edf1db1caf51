// Package resp implements a streaming, zero-copy RESP2/RESP3 frame codec:
// the wire value model, a restartable parser, and an allocation-minimizing
// command writer.
//
// See https://github.com/redis/redis-specifications/blob/master/protocol/RESP3.md
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package resp

import "github.com/aistorehq/vkclient/cmn/cos"

// Kind identifies one of the fifteen RESP3 frame variants. A Value's Kind
// never changes after construction.
type Kind uint8

const (
	KindSimpleString Kind = iota
	KindSimpleError
	KindBulkString
	KindBulkError
	KindVerbatimString
	KindInteger
	KindDouble
	KindBigNumber
	KindBoolean
	KindNull
	KindArray
	KindMap
	KindSet
	KindPush
	KindAttribute
)

func (k Kind) String() string {
	switch k {
	case KindSimpleString:
		return "SimpleString"
	case KindSimpleError:
		return "SimpleError"
	case KindBulkString:
		return "BulkString"
	case KindBulkError:
		return "BulkError"
	case KindVerbatimString:
		return "VerbatimString"
	case KindInteger:
		return "Integer"
	case KindDouble:
		return "Double"
	case KindBigNumber:
		return "BigNumber"
	case KindBoolean:
		return "Boolean"
	case KindNull:
		return "Null"
	case KindArray:
		return "Array"
	case KindMap:
		return "Map"
	case KindSet:
		return "Set"
	case KindPush:
		return "Push"
	case KindAttribute:
		return "Attribute"
	default:
		return "Unknown"
	}
}

// Pair is one (field, value) entry of a Map frame. Duplicate fields are
// legal on the wire and are preserved in order; callers who want
// unique-key semantics collapse them themselves.
type Pair struct {
	Field Value
	Val   Value
}

// Value is the frame sum type: every decoded server message is exactly one
// of the fifteen RESP3 kinds. Container payloads (Array, Map, Set, Push)
// own their element Values. A BulkString/BulkError with Null set true
// carries no Bytes and represents the legacy "$-1\r\n"
// sentinel; it is kept distinct from KindNull ("_\r\n") for diagnostics,
// per the wire's own distinction, and collapsed only at the api layer.
type Value struct {
	Kind Kind

	// Bytes backs SimpleString, SimpleError, BulkString, BulkError,
	// BigNumber (decimal text), and the 3-byte format tag + payload of
	// VerbatimString (tag in Bytes[:3], payload in Bytes[3:]).
	Bytes []byte
	Null  bool // true for the legacy "$-1"/"*-1" sentinel on Bulk*/Array

	Int   int64   // Integer
	Dbl   float64 // Double
	Bool  bool    // Boolean
	Attr  *Value  // Attribute map frame attached ahead of this Value, or nil

	Arr  []Value // Array, Set, Push elements in wire order
	Map  []Pair  // Map entries in wire order (duplicates allowed)
}

// VerbatimFormat returns the 3-byte format tag of a VerbatimString value
// (e.g. "txt" or "mkd").
func (v Value) VerbatimFormat() string {
	if len(v.Bytes) < 3 {
		return ""
	}
	return string(v.Bytes[:3])
}

// VerbatimPayload returns the payload following a VerbatimString's format tag.
func (v Value) VerbatimPayload() []byte {
	if len(v.Bytes) < 3 {
		return nil
	}
	return v.Bytes[3:]
}

// IsNullish reports whether v represents an absent value on the wire,
// whether via the legacy Bulk/Array -1 sentinel or the dedicated Null kind.
func (v Value) IsNullish() bool {
	return v.Kind == KindNull || ((v.Kind == KindBulkString || v.Kind == KindBulkError || v.Kind == KindArray) && v.Null)
}

// Equal reports deep, kind-aware equality per the wire's own semantics:
// containers compared element-wise, Set compared as a multiset, Map
// compared as an ordered pair sequence (duplicates are legal on the wire).
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindSimpleString, KindSimpleError, KindBulkError, KindBigNumber:
		return v.Null == o.Null && bytesEqual(v.Bytes, o.Bytes)
	case KindBulkString, KindVerbatimString:
		return v.Null == o.Null && bytesEqual(v.Bytes, o.Bytes)
	case KindInteger:
		return v.Int == o.Int
	case KindDouble:
		return doubleEqual(v.Dbl, o.Dbl)
	case KindBoolean:
		return v.Bool == o.Bool
	case KindNull:
		return true
	case KindArray, KindPush:
		if v.Null != o.Null || len(v.Arr) != len(o.Arr) {
			return false
		}
		for i := range v.Arr {
			if !v.Arr[i].Equal(o.Arr[i]) {
				return false
			}
		}
		return true
	case KindSet:
		return setEqual(v.Arr, o.Arr)
	case KindMap:
		if len(v.Map) != len(o.Map) {
			return false
		}
		for i := range v.Map {
			if !v.Map[i].Field.Equal(o.Map[i].Field) || !v.Map[i].Val.Equal(o.Map[i].Val) {
				return false
			}
		}
		return true
	case KindAttribute:
		return v.Attr != nil && o.Attr != nil && v.Attr.Equal(*o.Attr)
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func doubleEqual(a, b float64) bool {
	// bitwise so that NaN == NaN holds for frame comparison purposes,
	// matching "two frames compare equal iff ... payloads are bytewise equal".
	return f64bits(a) == f64bits(b)
}

// multiset comparison: every element of v must have a matching, not yet
// consumed, element in o.
func setEqual(v, o []Value) bool {
	if len(v) != len(o) {
		return false
	}
	used := make([]bool, len(o))
	for _, ve := range v {
		found := false
		for i, oe := range o {
			if used[i] {
				continue
			}
			if ve.Equal(oe) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// String is a convenience accessor over Bytes using the zero-copy
// conversion; callers must not retain it past the Value's lifetime if the
// Value was built over caller-owned memory.
func (v Value) String() string { return cos.UnsafeS(v.Bytes) }
