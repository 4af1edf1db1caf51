//go:build !debug

// Package debug provides invariant assertions that compile to no-ops in
// production builds and activate under `-tags debug`.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package debug

func ON() bool { return false }

func Assert(_ bool, _ ...any)            {}
func Assertf(_ bool, _ string, _ ...any) {}
func AssertNoErr(_ error)                {}
func AssertFunc(_ func() bool, _ ...any) {}
