// Command protoslang is the REPL and file-mode front end for the
// protoslang compiler and VM.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jlhs1001/protoslang/compiler"
	"github.com/jlhs1001/protoslang/vm"
)

const usage = "usage: protoslang [--trace] [path]\n"

// Exit codes per the host interface contract.
const (
	exitOK           = 0
	exitUsage        = 64
	exitCompileError = 65
	exitRuntimeError = 70
	exitIOError      = 74
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("protoslang", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	trace := fs.Bool("trace", false, "log compiler and VM bytecode traces to stderr")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, usage)
		return exitUsage
	}

	rest := fs.Args()
	if len(rest) > 1 {
		fmt.Fprint(os.Stderr, usage)
		return exitUsage
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if *trace {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	if len(rest) == 1 {
		return runFile(rest[0], *trace, log)
	}
	return runREPL(*trace, log)
}

// runFile reads and interprets a single source file, returning the
// exit code described in section 6: 74 on I/O failure, 65 on compile
// error, 70 on runtime error, 0 otherwise.
func runFile(path string, trace bool, log *logrus.Logger) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrapf(err, "reading %s", path))
		return exitIOError
	}
	return interpret(string(src), trace, log)
}

// runREPL reads one line at a time, compiling and running each line
// as its own top-level script. EOF on stdin exits cleanly.
func runREPL(trace bool, log *logrus.Logger) int {
	rl, err := readline.New("protoslang> ")
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrap(err, "starting readline"))
		return exitIOError
	}
	defer rl.Close()

	heap := vm.NewHeap()
	machine := vm.New(vm.WithHeap(heap), vm.WithOutput(os.Stdout), vm.WithTrace(trace), vm.WithLogger(log))

	for {
		line, err := rl.Readline()
		if err == io.EOF {
			return exitOK
		}
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, errors.Wrap(err, "reading input"))
			return exitIOError
		}
		if line == "" {
			continue
		}
		interpretOn(machine, heap, line, trace, log)
	}
}

// interpret compiles and runs one complete program, used for file
// mode where a non-zero exit status is meaningful to the caller.
func interpret(src string, trace bool, log *logrus.Logger) int {
	heap := vm.NewHeap()
	machine := vm.New(vm.WithHeap(heap), vm.WithOutput(os.Stdout), vm.WithTrace(trace), vm.WithLogger(log))
	return interpretOn(machine, heap, src, trace, log)
}

func interpretOn(machine *vm.VM, heap *vm.Heap, src string, trace bool, log *logrus.Logger) int {
	c := compiler.New(heap, compiler.WithTrace(trace), compiler.WithLogger(log))
	fn, err := c.Compile(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCompileError
	}

	switch machine.Interpret(fn) {
	case vm.InterpretRuntimeError:
		return exitRuntimeError
	case vm.InterpretCompileError:
		return exitCompileError
	default:
		return exitOK
	}
}
