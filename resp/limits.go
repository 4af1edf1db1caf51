package resp

// Limits bounds the resources a single top-level Parse call may consume,
// so that a runaway or adversarial reply fails closed instead of exhausting
// memory. Exceeding any ceiling by one yields Malformed(limit-exceeded);
// one under succeeds.
type Limits struct {
	MaxDepth    int // nesting depth of aggregates (Array/Map/Set/Push/Attribute)
	MaxElements int // element count of any single aggregate (Map counts pairs x2)
	MaxBulkLen  int // byte length of any single Bulk*/Verbatim payload
}

// DefaultLimits matches spec.md §4.1's stated defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:    32,
		MaxElements: 1_000_000,
		MaxBulkLen:  512 * 1024 * 1024,
	}
}
