package compiler

import "github.com/jlhs1001/protoslang/lexer"

// maxLocals bounds the local stack; GET_LOCAL/SET_LOCAL operands are one
// byte wide.
const maxLocals = 256

// local is one entry of the compiler's local-variable stack. depth == -1
// means declared but not yet initialized: reading it is an error
// ("Cannot read local variable in its own initializer.").
type local struct {
	name  lexer.Token
	depth int
}
