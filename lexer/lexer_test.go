package lexer_test

import (
	"testing"

	"github.com/jlhs1001/protoslang/lexer"
	"github.com/stretchr/testify/assert"
)

func collect(src string) []lexer.Token {
	l := lexer.New(src)
	var toks []lexer.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Kind == lexer.TkEOF {
			return toks
		}
	}
}

func kinds(toks []lexer.Token) []lexer.Kind {
	ks := make([]lexer.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestNextToken_punctuation(t *testing.T) {
	toks := collect("(){}[],.;+-*/!#%")
	assert.Equal(t, []lexer.Kind{
		lexer.TkLParen, lexer.TkRParen, lexer.TkLBrace, lexer.TkRBrace,
		lexer.TkLBracket, lexer.TkRBracket, lexer.TkComma, lexer.TkDot,
		lexer.TkSemicolon, lexer.TkPlus, lexer.TkMinus, lexer.TkStar,
		lexer.TkSlash, lexer.TkBang, lexer.TkHash, lexer.TkPercent, lexer.TkEOF,
	}, kinds(toks))
}

func TestNextToken_twoCharOperators(t *testing.T) {
	toks := collect("!= == <= >= ..")
	assert.Equal(t, []lexer.Kind{
		lexer.TkBangEqual, lexer.TkEqualEqual, lexer.TkLessEqual,
		lexer.TkGreaterEqual, lexer.TkRange, lexer.TkEOF,
	}, kinds(toks))
}

func TestNextToken_keywords(t *testing.T) {
	toks := collect("and class else false fn for if in let null or println return self super true while delete")
	assert.Equal(t, []lexer.Kind{
		lexer.TkAnd, lexer.TkClass, lexer.TkElse, lexer.TkFalse, lexer.TkFn,
		lexer.TkFor, lexer.TkIf, lexer.TkIn, lexer.TkLet, lexer.TkNil,
		lexer.TkOr, lexer.TkPrintln, lexer.TkReturn, lexer.TkSelf,
		lexer.TkSuper, lexer.TkTrue, lexer.TkWhile, lexer.TkDelete, lexer.TkEOF,
	}, kinds(toks))
}

func TestNextToken_identifierNotKeywordPrefix(t *testing.T) {
	toks := collect("falseish nullable forward")
	for _, tok := range toks[:3] {
		assert.Equal(t, lexer.TkIdentifier, tok.Kind)
	}
}

func TestNextToken_numbers(t *testing.T) {
	toks := collect("123 3.14 0")
	require := []lexer.Kind{lexer.TkNumber, lexer.TkNumber, lexer.TkNumber, lexer.TkEOF}
	assert.Equal(t, require, kinds(toks))
	assert.Equal(t, "123", toks[0].Lexeme)
	assert.Equal(t, "3.14", toks[1].Lexeme)
}

func TestNextToken_string(t *testing.T) {
	toks := collect(`"hello world"`)
	assert.Equal(t, lexer.TkString, toks[0].Kind)
	assert.Equal(t, `"hello world"`, toks[0].Lexeme)
}

func TestNextToken_unterminatedString(t *testing.T) {
	toks := collect(`"hello`)
	assert.Equal(t, lexer.TkError, toks[0].Kind)
	assert.Equal(t, "Unterminated string.", toks[0].Lexeme)
}

func TestNextToken_unexpectedCharacter(t *testing.T) {
	toks := collect("@")
	assert.Equal(t, lexer.TkError, toks[0].Kind)
	assert.Equal(t, "Unexpected character.", toks[0].Lexeme)
}

func TestNextToken_lineTracking(t *testing.T) {
	toks := collect("let a = 1;\nlet b = 2;\n")
	var lastLine int
	for _, tok := range toks {
		if tok.Kind == lexer.TkEOF {
			lastLine = tok.Line
		}
	}
	assert.Equal(t, 3, lastLine)
}

func TestNextToken_lineCommentSkipped(t *testing.T) {
	toks := collect("// a comment\nlet a = 1;")
	assert.Equal(t, lexer.TkLet, toks[0].Kind)
	assert.Equal(t, 2, toks[0].Line)
}

func TestNextToken_eofRepeats(t *testing.T) {
	l := lexer.New("")
	assert.Equal(t, lexer.TkEOF, l.NextToken().Kind)
	assert.Equal(t, lexer.TkEOF, l.NextToken().Kind)
}
