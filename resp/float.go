package resp

import "math"

func f64bits(f float64) uint64 { return math.Float64bits(f) }

func posInf() float64 { return math.Inf(1) }
func negInf() float64 { return math.Inf(-1) }
func nanVal() float64 { return math.NaN() }
