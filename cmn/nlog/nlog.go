// Package nlog is the connection library's leveled logger: package-level
// Infof/Warningf/Errorf calls over a shared, swappable sink. It intentionally
// drops the teacher daemon's file-rotation machinery (irrelevant to a client
// library embedded in someone else's process) but keeps the severity-leveled
// call shape and call-depth support.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

var sevChar = [...]byte{'I', 'W', 'E'}

var (
	mu     sync.Mutex
	out    io.Writer = os.Stderr
	level  severity  = sevInfo
	titled string
)

// SetOutput redirects all log output; the zero value keeps os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

// SetTitle tags every subsequent line with a short prefix, e.g. a client name.
func SetTitle(s string) {
	mu.Lock()
	titled = s
	mu.Unlock()
}

// SetQuiet raises the minimum severity to Warning, suppressing Info lines.
func SetQuiet(quiet bool) {
	mu.Lock()
	if quiet {
		level = sevWarn
	} else {
		level = sevInfo
	}
	mu.Unlock()
}

func Infof(format string, args ...any)    { log(sevInfo, 0, format, args...) }
func Infoln(args ...any)                  { log(sevInfo, 0, "", args...) }
func InfoDepth(depth int, args ...any)    { log(sevInfo, depth, "", args...) }
func Warningf(format string, args ...any) { log(sevWarn, 0, format, args...) }
func Warningln(args ...any)               { log(sevWarn, 0, "", args...) }
func Errorf(format string, args ...any)   { log(sevErr, 0, format, args...) }
func Errorln(args ...any)                 { log(sevErr, 0, "", args...) }
func ErrorDepth(depth int, args ...any)   { log(sevErr, depth, "", args...) }

func log(sev severity, depth int, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if sev < level {
		return
	}
	var b strings.Builder
	b.WriteByte(sevChar[sev])
	b.WriteByte(' ')
	b.WriteString(time.Now().Format("15:04:05.000000"))
	b.WriteByte(' ')
	if _, fn, ln, ok := runtime.Caller(2 + depth); ok {
		if idx := strings.LastIndexByte(fn, '/'); idx >= 0 {
			fn = fn[idx+1:]
		}
		b.WriteString(fn)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(ln))
		b.WriteByte(' ')
	}
	if titled != "" {
		b.WriteByte('[')
		b.WriteString(titled)
		b.WriteString("] ")
	}
	if format == "" {
		fmt.Fprintln(&b, args...)
	} else {
		fmt.Fprintf(&b, format, args...)
		if !strings.HasSuffix(format, "\n") {
			b.WriteByte('\n')
		}
	}
	io.WriteString(out, b.String())
}
