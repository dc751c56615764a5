package compiler

import "github.com/jlhs1001/protoslang/lexer"

// parseFn is a prefix or infix parsing rule: it consumes c.prev (and
// further tokens as needed) and emits bytecode.
type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// rules is the per-token-kind dispatch table driving parsePrecedence
// (section 4.2). Kinds with no entry default to the zero parseRule,
// which has PrecNone and nil prefix/infix — any use as a prefix position
// is "Expected expression.", any use as an infix position simply never
// matches a precedence test and stops the climb.
var rules = map[lexer.Kind]parseRule{
	lexer.TkLParen:   {grouping, call, PrecCall},
	lexer.TkLBracket: {list, subscript, PrecSubscript},

	lexer.TkMinus: {unary, binary, PrecTerm},
	lexer.TkPlus:  {nil, binary, PrecTerm},
	lexer.TkSlash: {nil, binary, PrecFactor},
	lexer.TkStar:  {nil, binary, PrecFactor},
	lexer.TkPercent: {nil, binary, PrecFactor},
	lexer.TkHash:  {unary, nil, PrecNone},
	lexer.TkBang:  {unary, nil, PrecNone},

	lexer.TkBangEqual:    {nil, binary, PrecEquality},
	lexer.TkEqualEqual:   {nil, binary, PrecEquality},
	lexer.TkGreater:      {nil, binary, PrecComparison},
	lexer.TkGreaterEqual: {nil, binary, PrecComparison},
	lexer.TkLess:         {nil, binary, PrecComparison},
	lexer.TkLessEqual:    {nil, binary, PrecComparison},
	lexer.TkRange:        {nil, binary, PrecRange},

	lexer.TkIdentifier: {variable, nil, PrecNone},
	lexer.TkString:     {str, nil, PrecNone},
	lexer.TkNumber:     {number, nil, PrecNone},

	lexer.TkFalse: {literal, nil, PrecNone},
	lexer.TkNil:   {literal, nil, PrecNone},
	lexer.TkTrue:  {literal, nil, PrecNone},

	lexer.TkAnd: {nil, and_, PrecAnd},
	lexer.TkOr:  {nil, or_, PrecOr},
}
