// Package mono provides a monotonic clock reading for elapsed-time
// measurements. No other package of the module imports it at present.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

// base anchors NanoTime to the monotonic clock reading taken at package
// initialization.
var base = time.Now()

// NanoTime returns a monotonic nanosecond reading. It is not wall-clock
// time and must never be persisted or compared across processes.
func NanoTime() int64 { return int64(time.Since(base)) }

// Since returns the duration elapsed since a prior NanoTime() reading.
func Since(t int64) time.Duration { return time.Duration(NanoTime() - t) }
