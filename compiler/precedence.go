package compiler

// Precedence levels, low to high (section 4.2). SUBSCRIPT and RANGE sit
// above FACTOR/UNARY so that `xs[0]` and `0..3` bind tighter than the
// arithmetic operators composed with them.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecSubscript
	PrecRange
	PrecCall
	PrecPrimary
)
