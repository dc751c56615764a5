// Package compiler implements the single-pass Pratt parser that lexes
// and emits bytecode in the same walk, with no intermediate AST.
package compiler

import (
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/jlhs1001/protoslang/lexer"
	"github.com/jlhs1001/protoslang/vm"
)

type funcType int

const (
	funcTypeScript funcType = iota
	funcTypeFunction
)

// state holds the compiler-local data for one function activation being
// compiled: its emitted module, its locals, and its scope depth. Nested
// `fn` declarations push a new state and pop back to the enclosing one
// when the body is done, since protoslang has no closures to capture
// across that boundary.
type state struct {
	enclosing  *state
	function   *vm.ObjFunction
	funcType   funcType
	locals     []local
	scopeDepth int
}

// Compiler is a single-pass Pratt parser and bytecode emitter (section
// 4.2). One Compiler compiles one source string into one top-level
// script ObjFunction, possibly containing nested function constants.
type Compiler struct {
	lex  *lexer.Lexer
	prev lexer.Token
	curr lexer.Token

	heap *vm.Heap

	errors    *multierror.Error
	panicMode bool

	log   *logrus.Logger
	trace bool

	current *state
}

// Option configures a Compiler at construction time.
type Option func(*Compiler)

// WithTrace enables a post-compile disassembly dump to the logger.
func WithTrace(enabled bool) Option {
	return func(c *Compiler) { c.trace = enabled }
}

// WithLogger overrides the logger used for trace output.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Compiler) { c.log = l }
}

// New returns a Compiler that allocates string and function constants on
// heap, the same Heap the VM that will run the result must be given.
func New(heap *vm.Heap, opts ...Option) *Compiler {
	c := &Compiler{heap: heap, log: logrus.New()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile lexes and compiles src into a top-level script function. A
// non-nil error is always a *multierror.Error of *CompileError values;
// the compiler accumulates every diagnostic it can rather than stopping
// at the first one (section 7).
func (c *Compiler) Compile(src string) (*vm.ObjFunction, error) {
	c.lex = lexer.New(src)
	c.errors = nil
	c.panicMode = false

	fn := c.heap.NewFunction()
	c.current = &state{
		function: fn,
		funcType: funcTypeScript,
		locals:   []local{{name: lexer.Token{Lexeme: ""}, depth: 0}},
	}

	c.advance()
	for !c.match(lexer.TkEOF) {
		c.declaration()
	}
	c.emitReturn()

	if c.trace {
		c.log.Debug(vm.Disassemble(fn.Module, "<script>"))
	}

	return fn, c.errors.ErrorOrNil()
}

/* token stream helpers */

func (c *Compiler) advance() {
	c.prev = c.curr
	for {
		c.curr = c.lex.NextToken()
		if c.curr.Kind != lexer.TkError {
			break
		}
		c.errorAtCurrent(c.curr.Lexeme)
	}
}

func (c *Compiler) check(k lexer.Kind) bool {
	return c.curr.Kind == k
}

func (c *Compiler) match(k lexer.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k lexer.Kind, msg string) {
	if c.check(k) {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

/* error reporting and recovery */

func (c *Compiler) errorAt(tok lexer.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.errors = multierror.Append(c.errors, &CompileError{
		Line:   tok.Line,
		Lexeme: tok.Lexeme,
		AtEnd:  tok.Kind == lexer.TkEOF,
		Msg:    msg,
	})
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.curr, msg) }
func (c *Compiler) errorAtPrevious(msg string) { c.errorAt(c.prev, msg) }

func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.curr.Kind != lexer.TkEOF {
		if c.prev.Kind == lexer.TkSemicolon {
			return
		}
		switch c.curr.Kind {
		case lexer.TkClass, lexer.TkFn, lexer.TkLet, lexer.TkIf, lexer.TkWhile, lexer.TkPrintln, lexer.TkReturn:
			return
		}
		c.advance()
	}
}

/* emission helpers */

func (c *Compiler) currentModule() *vm.Module { return c.current.function.Module }

func (c *Compiler) emitByte(b byte) {
	c.currentModule().Write(b, c.prev.Line)
}

func (c *Compiler) emitBytes(a, b byte) {
	c.emitByte(a)
	c.emitByte(b)
}

func (c *Compiler) emitReturn() {
	c.emitByte(byte(vm.OpNil))
	c.emitByte(byte(vm.OpReturn))
}

// maxConstants matches the boundary test of section 8 literally: a
// module with 255 constants compiles, one that tries for a 256th does
// not. See DESIGN.md for the reading of section 3 this trades off
// against.
const maxConstants = 255

func (c *Compiler) makeConstant(v vm.Value) byte {
	m := c.currentModule()
	if len(m.Constants) >= maxConstants {
		c.errorAtPrevious("Too many constants in one module.")
		return 0
	}
	return byte(m.AddConstant(v))
}

func (c *Compiler) emitConstant(v vm.Value) {
	c.emitBytes(byte(vm.OpConstant), c.makeConstant(v))
}

// emitJump writes op followed by a two-byte placeholder operand and
// returns the offset of that placeholder, for patchJump to fill in once
// the jump target is known.
func (c *Compiler) emitJump(op vm.Op) int {
	c.emitByte(byte(op))
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.currentModule().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	m := c.currentModule()
	jump := len(m.Code) - offset - 2
	if jump > 0xffff {
		c.errorAtPrevious("Too much code to jump over.")
		return
	}
	m.Code[offset] = byte(jump >> 8)
	m.Code[offset+1] = byte(jump)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitByte(byte(vm.OpLoop))
	offset := len(c.currentModule().Code) - loopStart + 2
	if offset > 0xffff {
		c.errorAtPrevious("Loop body too large.")
		return
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

/* scope and local resolution */

func (c *Compiler) beginScope() { c.current.scopeDepth++ }

func (c *Compiler) endScope() {
	c.current.scopeDepth--
	locals := c.current.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > c.current.scopeDepth {
		c.emitByte(byte(vm.OpPop))
		locals = locals[:len(locals)-1]
	}
	c.current.locals = locals
}

func identifiersEqual(a, b lexer.Token) bool {
	return a.Lexeme == b.Lexeme
}

func (c *Compiler) resolveLocal(st *state, name lexer.Token) int {
	for i := len(st.locals) - 1; i >= 0; i-- {
		l := st.locals[i]
		if identifiersEqual(name, l.name) {
			if l.depth == -1 {
				c.errorAtPrevious("Cannot read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func (c *Compiler) addLocal(name lexer.Token) {
	if len(c.current.locals) >= maxLocals {
		c.errorAtPrevious("Too many local variables in function.")
		return
	}
	c.current.locals = append(c.current.locals, local{name: name, depth: -1})
}

func (c *Compiler) declareVariable() {
	if c.current.scopeDepth == 0 {
		return
	}
	name := c.prev
	for i := len(c.current.locals) - 1; i >= 0; i-- {
		l := c.current.locals[i]
		if l.depth != -1 && l.depth < c.current.scopeDepth {
			break
		}
		if identifiersEqual(name, l.name) {
			c.errorAtPrevious("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) identifierConstant(name lexer.Token) byte {
	return c.makeConstant(vm.ObjVal(c.heap.InternString(name.Lexeme)))
}

func (c *Compiler) parseVariable(errMsg string) byte {
	c.consume(lexer.TkIdentifier, errMsg)
	c.declareVariable()
	if c.current.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.prev)
}

func (c *Compiler) markInitialized() {
	if c.current.scopeDepth == 0 {
		return
	}
	c.current.locals[len(c.current.locals)-1].depth = c.current.scopeDepth
}

func (c *Compiler) defineVariable(global byte) {
	if c.current.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitBytes(byte(vm.OpDefineGlobal), global)
}

/* declarations and statements */

func (c *Compiler) declaration() {
	switch {
	case c.match(lexer.TkLet):
		c.letDeclaration()
	case c.match(lexer.TkFn):
		c.fnDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) letDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(lexer.TkEqual) {
		c.expression()
	} else {
		c.emitByte(byte(vm.OpNil))
	}
	c.consume(lexer.TkSemicolon, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

// fnDeclaration always binds the function's name as a global, even when
// the declaration appears inside a nested block: functions are not
// first-class lvalues beyond this (no closures), so there is no benefit
// to local function bindings and every `fn` simply becomes reachable by
// name wherever it is declared.
func (c *Compiler) fnDeclaration() {
	c.consume(lexer.TkIdentifier, "Expect function name.")
	nameTok := c.prev
	global := c.identifierConstant(nameTok)
	c.function(funcTypeFunction, nameTok)
	c.emitBytes(byte(vm.OpDefineGlobal), global)
}

// function compiles the parameter list and body of a `fn` declaration
// into its own state and ObjFunction, then emits the resulting function
// value as a constant in the enclosing module (mirroring letDeclaration's
// emitConstant-then-define shape).
func (c *Compiler) function(ft funcType, nameTok lexer.Token) {
	enclosing := c.current
	fn := c.heap.NewFunction()
	if ft == funcTypeFunction {
		fn.Name = c.heap.InternString(nameTok.Lexeme)
	}
	c.current = &state{
		enclosing: enclosing,
		function:  fn,
		funcType:  ft,
		locals:    []local{{name: lexer.Token{Lexeme: ""}, depth: 0}},
	}
	c.beginScope()

	c.consume(lexer.TkLParen, "Expect '(' after function name.")
	if !c.check(lexer.TkRParen) {
		for {
			fn.Arity++
			if fn.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			paramConst := c.parseVariable("Expect parameter name.")
			c.defineVariable(paramConst)
			if !c.match(lexer.TkComma) {
				break
			}
		}
	}
	c.consume(lexer.TkRParen, "Expect ')' after parameters.")
	c.consume(lexer.TkLBrace, "Expect '{' before function body.")
	for !c.check(lexer.TkRBrace) && !c.check(lexer.TkEOF) {
		c.declaration()
	}
	c.consume(lexer.TkRBrace, "Expect '}' after function body.")

	c.emitReturn()
	if c.trace {
		name := "<fn>"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		c.log.Debug(vm.Disassemble(fn.Module, name))
	}

	c.current = enclosing
	c.emitConstant(vm.ObjVal(fn))
}

func (c *Compiler) returnStatement() {
	if c.current.funcType == funcTypeScript {
		c.errorAtPrevious("Cannot return from top-level code.")
	}
	if c.match(lexer.TkSemicolon) {
		c.emitReturn()
		return
	}
	c.expression()
	c.consume(lexer.TkSemicolon, "Expect ';' after return value.")
	c.emitByte(byte(vm.OpReturn))
}

func (c *Compiler) deleteStatement() {
	c.consume(lexer.TkIdentifier, "Expect variable name after 'delete'.")
	c.namedVariable(c.prev, false)
	c.consume(lexer.TkLBracket, "Expect '[' after variable name.")
	c.expression()
	c.consume(lexer.TkRBracket, "Expect ']' after index.")
	c.consume(lexer.TkSemicolon, "Expect ';' after delete statement.")
	c.emitByte(byte(vm.OpDeleteList))
}

func (c *Compiler) printlnStatement() {
	c.consume(lexer.TkLParen, "Expect '(' after 'println'.")
	c.expression()
	c.consume(lexer.TkRParen, "Expect ')' after value.")
	c.consume(lexer.TkSemicolon, "Expect ';' after value.")
	c.emitByte(byte(vm.OpPrintln))
}

func (c *Compiler) ifStatement() {
	c.expression()

	thenJump := c.emitJump(vm.OpJumpIfFalse)
	c.emitByte(byte(vm.OpPop))
	c.block()

	elseJump := c.emitJump(vm.OpJump)
	c.patchJump(thenJump)
	c.emitByte(byte(vm.OpPop))

	if c.match(lexer.TkElse) {
		c.block()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.currentModule().Code)
	c.expression()

	exitJump := c.emitJump(vm.OpJumpIfFalse)
	c.emitByte(byte(vm.OpPop))
	c.block()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitByte(byte(vm.OpPop))
}

// block parses a brace-delimited statement sequence, including the
// braces themselves. Used for bare `{ ... }` statements and for the
// bodies of `if`/`while`, which have no parentheses around their
// condition (section 4.2).
func (c *Compiler) block() {
	c.beginScope()
	c.consume(lexer.TkLBrace, "Expect '{' before block.")
	for !c.check(lexer.TkRBrace) && !c.check(lexer.TkEOF) {
		c.declaration()
	}
	c.consume(lexer.TkRBrace, "Expect '}' after block.")
	c.endScope()
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(lexer.TkSemicolon, "Expect ';' after expression.")
	c.emitByte(byte(vm.OpPop))
}

func (c *Compiler) statement() {
	switch {
	case c.match(lexer.TkPrintln):
		c.printlnStatement()
	case c.match(lexer.TkIf):
		c.ifStatement()
	case c.match(lexer.TkWhile):
		c.whileStatement()
	case c.match(lexer.TkReturn):
		c.returnStatement()
	case c.match(lexer.TkDelete):
		c.deleteStatement()
	case c.check(lexer.TkLBrace):
		c.block()
	default:
		c.expressionStatement()
	}
}

/* expressions */

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefixRule := rules[c.prev.Kind].prefix
	if prefixRule == nil {
		c.errorAtPrevious("Expected expression.")
		return
	}

	canAssign := prec <= PrecAssignment
	prefixRule(c, canAssign)

	for prec <= rules[c.curr.Kind].precedence {
		c.advance()
		infixRule := rules[c.prev.Kind].infix
		infixRule(c, canAssign)
	}

	if canAssign && c.match(lexer.TkEqual) {
		c.errorAtPrevious("Invalid assignment target.")
	}
}

func number(c *Compiler, _ bool) {
	n, err := strconv.ParseFloat(c.prev.Lexeme, 64)
	if err != nil {
		c.errorAtPrevious("Invalid number literal.")
		return
	}
	c.emitConstant(vm.NumberVal(n))
}

func str(c *Compiler, _ bool) {
	unquoted := c.prev.Lexeme[1 : len(c.prev.Lexeme)-1]
	c.emitConstant(vm.ObjVal(c.heap.InternString(unquoted)))
}

func literal(c *Compiler, _ bool) {
	switch c.prev.Kind {
	case lexer.TkFalse:
		c.emitByte(byte(vm.OpFalse))
	case lexer.TkNil:
		c.emitByte(byte(vm.OpNil))
	case lexer.TkTrue:
		c.emitByte(byte(vm.OpTrue))
	}
}

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(lexer.TkRParen, "Expect ')' after expression.")
}

func unary(c *Compiler, _ bool) {
	op := c.prev.Kind
	c.parsePrecedence(PrecUnary)
	switch op {
	case lexer.TkBang:
		c.emitByte(byte(vm.OpNot))
	case lexer.TkMinus:
		c.emitByte(byte(vm.OpNegate))
	case lexer.TkHash:
		c.emitByte(byte(vm.OpGetListLength))
	}
}

func binary(c *Compiler, _ bool) {
	op := c.prev.Kind
	rule := rules[op]
	c.parsePrecedence(rule.precedence + 1)

	switch op {
	case lexer.TkBangEqual:
		c.emitBytes(byte(vm.OpEqual), byte(vm.OpNot))
	case lexer.TkEqualEqual:
		c.emitByte(byte(vm.OpEqual))
	case lexer.TkGreater:
		c.emitByte(byte(vm.OpGreater))
	case lexer.TkGreaterEqual:
		c.emitBytes(byte(vm.OpLess), byte(vm.OpNot))
	case lexer.TkLess:
		c.emitByte(byte(vm.OpLess))
	case lexer.TkLessEqual:
		c.emitByte(byte(vm.OpLessEqual))
	case lexer.TkPlus:
		c.emitByte(byte(vm.OpAdd))
	case lexer.TkMinus:
		c.emitByte(byte(vm.OpSubtract))
	case lexer.TkStar:
		c.emitByte(byte(vm.OpMultiply))
	case lexer.TkSlash:
		c.emitByte(byte(vm.OpDivide))
	case lexer.TkPercent:
		c.emitByte(byte(vm.OpModulo))
	case lexer.TkRange:
		c.emitByte(byte(vm.OpBuildRange))
	}
}

func and_(c *Compiler, _ bool) {
	endJump := c.emitJump(vm.OpJumpIfFalse)
	c.emitByte(byte(vm.OpPop))
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func or_(c *Compiler, _ bool) {
	elseJump := c.emitJump(vm.OpJumpIfFalse)
	endJump := c.emitJump(vm.OpJump)
	c.patchJump(elseJump)
	c.emitByte(byte(vm.OpPop))
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func list(c *Compiler, _ bool) {
	count := 0
	if !c.check(lexer.TkRBracket) {
		for {
			c.expression()
			count++
			if count > 255 {
				c.errorAtPrevious("Too many elements in list literal.")
			}
			if !c.match(lexer.TkComma) {
				break
			}
		}
	}
	c.consume(lexer.TkRBracket, "Expect ']' after list elements.")
	c.emitBytes(byte(vm.OpBuildList), byte(count))
}

func subscript(c *Compiler, canAssign bool) {
	c.expression()
	c.consume(lexer.TkRBracket, "Expect ']' after index.")
	if canAssign && c.match(lexer.TkEqual) {
		c.expression()
		c.emitByte(byte(vm.OpStoreList))
	} else {
		c.emitByte(byte(vm.OpIndexList))
	}
}

func call(c *Compiler, _ bool) {
	argc := 0
	if !c.check(lexer.TkRParen) {
		for {
			c.expression()
			argc++
			if argc > 255 {
				c.errorAtPrevious("Can't have more than 255 arguments.")
			}
			if !c.match(lexer.TkComma) {
				break
			}
		}
	}
	c.consume(lexer.TkRParen, "Expect ')' after arguments.")
	c.emitBytes(byte(vm.OpCall), byte(argc))
}

func (c *Compiler) namedVariable(name lexer.Token, canAssign bool) {
	var getOp, setOp vm.Op
	arg := c.resolveLocal(c.current, name)
	if arg != -1 {
		getOp, setOp = vm.OpGetLocal, vm.OpSetLocal
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = vm.OpGetGlobal, vm.OpSetGlobal
	}

	if canAssign && c.match(lexer.TkEqual) {
		c.expression()
		c.emitBytes(byte(setOp), byte(arg))
	} else {
		c.emitBytes(byte(getOp), byte(arg))
	}
}

func variable(c *Compiler, canAssign bool) {
	c.namedVariable(c.prev, canAssign)
}
