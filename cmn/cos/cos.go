// Package cos provides common low-level types and utilities shared across
// the codec, connection core, and cluster router.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"errors"
	"sync"
	"unsafe"
)

// MLCG32 is the xxhash seed used everywhere a 32-bit multiplicative
// linear-congruential seed is needed for a 64-bit digest (diagnostics
// fingerprints only; never for slot routing, which is CRC-16 and seedless
// by protocol mandate).
const MLCG32 uint64 = 1103515245

// UnsafeB reinterprets a string as a []byte without copying. Callers must
// not mutate the result and must not retain it past the lifetime of s.
func UnsafeB(s string) []byte {
	if s == "" {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// UnsafeS reinterprets a []byte as a string without copying. Callers must
// not mutate b after this call.
func UnsafeS(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// Errs is a bounded, deduplicated accumulator of errors, used where a
// caller fans out across several independent attempts (e.g. seed-endpoint
// discovery) and wants to report all distinct failures, not just the first.
type Errs struct {
	mu   sync.Mutex
	errs []error
}

const maxErrs = 4

func (e *Errs) Add(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, added := range e.errs {
		if added.Error() == err.Error() {
			return
		}
	}
	if len(e.errs) < maxErrs {
		e.errs = append(e.errs, err)
	}
}

func (e *Errs) Cnt() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.errs)
}

// JoinErr returns the accumulated errors joined into one, or nil if none
// were added.
func (e *Errs) JoinErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.errs) == 0 {
		return nil
	}
	return errors.Join(e.errs...)
}
