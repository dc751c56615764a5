package compiler_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlhs1001/protoslang/compiler"
	"github.com/jlhs1001/protoslang/vm"
)

// run compiles src and, if compilation succeeded, executes it, returning
// stdout.
func run(t *testing.T, src string) (string, error) {
	t.Helper()
	h := vm.NewHeap()
	c := compiler.New(h)
	fn, err := c.Compile(src)
	if err != nil {
		return "", err
	}

	var out bytes.Buffer
	machine := vm.New(vm.WithHeap(h), vm.WithOutput(&out))
	result := machine.Interpret(fn)
	if result != vm.InterpretOK {
		return out.String(), fmt.Errorf("runtime error, result=%v", result)
	}
	return out.String(), nil
}

func TestScenario_arithmeticPrecedence(t *testing.T) {
	out, err := run(t, `println(1 + 2 * 3);`)
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestScenario_stringConcatenation(t *testing.T) {
	out, err := run(t, `let a = "foo"; let b = "bar"; println(a + b);`)
	require.NoError(t, err)
	assert.Equal(t, "foobar\n", out)
}

func TestScenario_whileLoop(t *testing.T) {
	out, err := run(t, `let i = 0; while i < 3 { println(i); i = i + 1; }`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestScenario_listIndexAndStore(t *testing.T) {
	out, err := run(t, `let xs = [10, 20, 30]; println(xs[1]); xs[1] = 99; println(xs[1]);`)
	require.NoError(t, err)
	assert.Equal(t, "20\n99\n", out)
}

func TestScenario_ifElse(t *testing.T) {
	out, err := run(t, `if 1 == 1 { println("t"); } else { println("f"); }`)
	require.NoError(t, err)
	assert.Equal(t, "t\n", out)
}

func TestScenario_negateNonNumberRuntimeError(t *testing.T) {
	_, err := run(t, `println(-true);`)
	require.Error(t, err)
}

func TestScenario_modulo(t *testing.T) {
	out, err := run(t, `println(7 % 2);`)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestScenario_listLength(t *testing.T) {
	out, err := run(t, `let xs = [1, 2, 3]; println(#xs);`)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestScenario_deleteFromList(t *testing.T) {
	out, err := run(t, `let xs = [1, 2, 3]; delete xs[1]; println(xs);`)
	require.NoError(t, err)
	assert.Equal(t, "[1, 3]\n", out)
}

func TestScenario_functionCallAndReturn(t *testing.T) {
	out, err := run(t, `
		fn add(a, b) { return a + b; }
		println(add(2, 3));
	`)
	require.NoError(t, err)
	assert.Equal(t, "5\n", out)
}

func TestScenario_functionRecursion(t *testing.T) {
	out, err := run(t, `
		fn fact(n) {
			if n <= 1 { return 1; }
			return n * fact(n - 1);
		}
		println(fact(5));
	`)
	require.NoError(t, err)
	assert.Equal(t, "120\n", out)
}

func TestScenario_range(t *testing.T) {
	out, err := run(t, `println(1..3);`)
	require.NoError(t, err)
	assert.Equal(t, "1..3\n", out)
}

func TestCompile_255ConstantsSucceeds(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 255; i++ {
		fmt.Fprintf(&b, "println(%d);\n", i)
	}
	h := vm.NewHeap()
	_, err := compiler.New(h).Compile(b.String())
	assert.NoError(t, err)
}

func TestCompile_256ConstantsErrors(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 256; i++ {
		fmt.Fprintf(&b, "println(%d);\n", i)
	}
	h := vm.NewHeap()
	_, err := compiler.New(h).Compile(b.String())
	require.Error(t, err)
}

func TestCompile_256LocalsErrors(t *testing.T) {
	var b strings.Builder
	b.WriteString("{\n")
	for i := 0; i < 256; i++ {
		fmt.Fprintf(&b, "let v%d = %d;\n", i, i)
	}
	b.WriteString("}\n")
	h := vm.NewHeap()
	_, err := compiler.New(h).Compile(b.String())
	require.Error(t, err)
	assertContainsMessage(t, err, "Too many local variables")
}

func TestCompile_loopBodyTooLargeErrors(t *testing.T) {
	// Each "true;" compiles to OP_TRUE + OP_POP (two bytes, no constant
	// pool entry), so the body can grow past the 16-bit jump range
	// without also tripping the 256-constant limit.
	var b strings.Builder
	b.WriteString("let i = 0;\nwhile i < 1 {\n")
	for i := 0; i < 40000; i++ {
		b.WriteString("true;\n")
	}
	b.WriteString("i = 1;\n}\n")
	h := vm.NewHeap()
	_, err := compiler.New(h).Compile(b.String())
	require.Error(t, err)
	assertContainsMessage(t, err, "Loop body too large.")
}

func TestCompile_readLocalInOwnInitializerErrors(t *testing.T) {
	h := vm.NewHeap()
	_, err := compiler.New(h).Compile(`{ let a = a; }`)
	require.Error(t, err)
	assertContainsMessage(t, err, "Cannot read local variable in its own initializer.")
}

func TestCompile_returnFromTopLevelErrors(t *testing.T) {
	h := vm.NewHeap()
	_, err := compiler.New(h).Compile(`return 1;`)
	require.Error(t, err)
	assertContainsMessage(t, err, "Cannot return from top-level code.")
}

func TestCompile_invalidAssignmentTargetErrors(t *testing.T) {
	h := vm.NewHeap()
	_, err := compiler.New(h).Compile(`1 + 2 = 3;`)
	require.Error(t, err)
	assertContainsMessage(t, err, "Invalid assignment target.")
}

func assertContainsMessage(t *testing.T, err error, substr string) {
	t.Helper()
	merr, ok := err.(*multierror.Error)
	require.True(t, ok, "expected a *multierror.Error, got %T", err)
	for _, e := range merr.Errors {
		if strings.Contains(e.Error(), substr) {
			return
		}
	}
	t.Fatalf("expected an error containing %q, got %v", substr, err)
}
