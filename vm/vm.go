package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	ioutilx "github.com/jlhs1001/protoslang/internal/ioutil"
)

const (
	framesMax = 64
	stackMax  = framesMax * 256
)

// InterpretResult is the outcome of one compile-and-run cycle (section 7).
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// CallFrame is one active function activation: the function being run,
// an instruction pointer into its module, and the base slot of its
// locals on the value stack.
type CallFrame struct {
	Function *ObjFunction
	IP       int
	Base     int
}

// VM is a stack-based bytecode interpreter. It is single-threaded and
// synchronous (section 5): a VM value must not be shared across
// goroutines.
type VM struct {
	frames     []CallFrame
	frameCount int

	stack    []Value
	stackTop int

	globals *Table
	heap    *Heap

	output *ioutilx.ErrWriter
	log    *logrus.Logger
	trace  bool
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithOutput sets the writer PRINTLN writes to. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(vm *VM) { vm.output = ioutilx.NewErrWriter(w) }
}

// WithHeap attaches a Heap shared with the compiler that produced the
// function being run, so that compile-time string and function constants
// share the VM's allocation list and intern table.
func WithHeap(h *Heap) Option {
	return func(vm *VM) { vm.heap = h }
}

// WithTrace enables per-instruction disassembly and stack dumps on the
// logger, the way the teacher's instruction loop exposes an execution
// count for debugging.
func WithTrace(enabled bool) Option {
	return func(vm *VM) { vm.trace = enabled }
}

// WithLogger overrides the logger used for trace output.
func WithLogger(l *logrus.Logger) Option {
	return func(vm *VM) { vm.log = l }
}

// New returns a VM ready to Interpret a compiled function.
func New(opts ...Option) *VM {
	vm := &VM{
		frames:  make([]CallFrame, framesMax),
		stack:   make([]Value, stackMax),
		globals: NewTable(),
		log:     logrus.New(),
	}
	for _, opt := range opts {
		opt(vm)
	}
	if vm.output == nil {
		vm.output = ioutilx.NewErrWriter(os.Stdout)
	}
	if vm.heap == nil {
		vm.heap = NewHeap()
	}
	return vm
}

// Heap returns the VM's shared allocation list and intern table, for a
// compiler to reuse when producing the function this VM will run.
func (vm *VM) Heap() *Heap { return vm.heap }

// Globals returns the VM's global table, mainly for REPL reuse across
// lines (each line is a fresh compile but shares one VM).
func (vm *VM) Globals() *Table { return vm.globals }

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
}

func (vm *VM) push(v Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[vm.stackTop-1-distance]
}

// runtimeError formats and writes the error per section 6: the message,
// then one "[line L] in <script|name>()" line per active frame, deepest
// (most recently called) first. The stack is reset afterward so the VM
// can accept a new program (REPL mode).
func (vm *VM) runtimeError(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	var b []byte
	b = append(b, msg...)
	b = append(b, '\n')
	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		fn := frame.Function
		line := 0
		if frame.IP-1 >= 0 && frame.IP-1 < len(fn.Module.Lines) {
			line = fn.Module.Lines[frame.IP-1]
		}
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		b = append(b, fmt.Sprintf("[line %d] in %s()\n", line, name)...)
	}
	vm.resetStack()
	return errors.New(string(b))
}

func (vm *VM) internString(chars string) *ObjString {
	return vm.heap.InternString(chars)
}

func (vm *VM) concatenate() error {
	b := vm.peek(0).AsString()
	a := vm.peek(1).AsString()
	result := vm.internString(a.Chars + b.Chars)
	vm.pop()
	vm.pop()
	vm.push(ObjVal(result))
	return nil
}

// callValue dispatches a CALL: callee must be a function value whose
// arity matches argc.
func (vm *VM) callValue(callee Value, argc int) error {
	if callee.IsFunction() {
		return vm.call(callee.AsFunction(), argc)
	}
	return vm.runtimeError("Can only call functions and classes.")
}

func (vm *VM) call(fn *ObjFunction, argc int) error {
	if argc != fn.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", fn.Arity, argc)
	}
	if vm.frameCount == framesMax {
		return vm.runtimeError("Stack overflow.")
	}
	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.Function = fn
	frame.IP = 0
	frame.Base = vm.stackTop - argc - 1
	return nil
}

// Interpret runs an already compiled top-level script function. Callers
// produce fn via the compiler package, sharing this VM's Heap (see
// WithHeap), then pass it here.
func (vm *VM) Interpret(fn *ObjFunction) InterpretResult {
	vm.push(ObjVal(fn))
	if err := vm.call(fn, 0); err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		return InterpretRuntimeError
	}
	return vm.run()
}

func (vm *VM) run() InterpretResult {
	frame := &vm.frames[vm.frameCount-1]

	readByte := func() byte {
		b := frame.Function.Module.Code[frame.IP]
		frame.IP++
		return b
	}
	readShort := func() int {
		hi := frame.Function.Module.Code[frame.IP]
		lo := frame.Function.Module.Code[frame.IP+1]
		frame.IP += 2
		return int(hi)<<8 | int(lo)
	}
	readConstant := func() Value {
		return frame.Function.Module.Constants[readByte()]
	}
	readString := func() *ObjString {
		return readConstant().AsString()
	}

	for {
		if vm.trace {
			vm.traceInstruction(frame)
		}

		instruction := Op(readByte())
		switch instruction {
		case OpConstant:
			vm.push(readConstant())
		case OpNil:
			vm.push(Nil())
		case OpTrue:
			vm.push(BoolVal(true))
		case OpFalse:
			vm.push(BoolVal(false))
		case OpPop:
			vm.pop()
		case OpDuplicate:
			vm.push(vm.peek(0))
		case OpGetLocal:
			slot := readByte()
			vm.push(vm.stack[frame.Base+int(slot)])
		case OpSetLocal:
			slot := readByte()
			vm.stack[frame.Base+int(slot)] = vm.peek(0)
		case OpGetGlobal:
			name := readString()
			value, ok := vm.globals.Get(name)
			if !ok {
				vm.reportRuntimeError(vm.runtimeError("Undefined variable '%s'.", name.Chars))
				return InterpretRuntimeError
			}
			vm.push(value)
		case OpDefineGlobal:
			name := readString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case OpSetGlobal:
			name := readString()
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				vm.reportRuntimeError(vm.runtimeError("Undefined variable '%s'.", name.Chars))
				return InterpretRuntimeError
			}
		case OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(BoolVal(ValuesEqual(a, b)))
		case OpGreater:
			if !vm.binaryNumberOp(func(a, b float64) Value { return BoolVal(a > b) }) {
				return InterpretRuntimeError
			}
		case OpLess:
			if !vm.binaryNumberOp(func(a, b float64) Value { return BoolVal(a < b) }) {
				return InterpretRuntimeError
			}
		case OpLessEqual:
			if !vm.binaryNumberOp(func(a, b float64) Value { return BoolVal(a <= b) }) {
				return InterpretRuntimeError
			}
		case OpAdd:
			switch {
			case vm.peek(0).IsString() && vm.peek(1).IsString():
				if err := vm.concatenate(); err != nil {
					vm.reportRuntimeError(err)
					return InterpretRuntimeError
				}
			case vm.peek(0).IsNumber() && vm.peek(1).IsNumber():
				b := vm.pop().Num
				a := vm.pop().Num
				vm.push(NumberVal(a + b))
			default:
				vm.reportRuntimeError(vm.runtimeError("Operands must be two numbers or two strings."))
				return InterpretRuntimeError
			}
		case OpSubtract:
			if !vm.binaryNumberOp(func(a, b float64) Value { return NumberVal(a - b) }) {
				return InterpretRuntimeError
			}
		case OpMultiply:
			if !vm.binaryNumberOp(func(a, b float64) Value { return NumberVal(a * b) }) {
				return InterpretRuntimeError
			}
		case OpDivide:
			if !vm.binaryNumberOp(func(a, b float64) Value { return NumberVal(a / b) }) {
				return InterpretRuntimeError
			}
		case OpModulo:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				vm.reportRuntimeError(vm.runtimeError("Operands must be numbers."))
				return InterpretRuntimeError
			}
			b := vm.pop().Num
			a := vm.pop().Num
			if float64(int64(b)) != b || float64(int64(a)) != a {
				vm.reportRuntimeError(vm.runtimeError("Modulus operator does not support float values."))
				return InterpretRuntimeError
			}
			vm.push(NumberVal(float64(int64(a) % int64(b))))
		case OpNot:
			vm.push(BoolVal(!IsTruthy(vm.pop())))
		case OpNegate:
			if !vm.peek(0).IsNumber() {
				vm.reportRuntimeError(vm.runtimeError("Operand must be a number."))
				return InterpretRuntimeError
			}
			vm.push(NumberVal(-vm.pop().Num))
		case OpPrintln:
			fmt.Fprintln(vm.output, vm.pop().String())
		case OpJump:
			offset := readShort()
			frame.IP += offset
		case OpJumpIfFalse:
			offset := readShort()
			if !IsTruthy(vm.peek(0)) {
				frame.IP += offset
			}
		case OpJumpIfTrue:
			offset := readShort()
			if IsTruthy(vm.peek(0)) {
				frame.IP += offset
			}
		case OpLoop:
			offset := readShort()
			frame.IP -= offset
		case OpBuildList:
			count := int(readByte())
			list := vm.heap.NewList()
			list.Items = append(list.Items, vm.stack[vm.stackTop-count:vm.stackTop]...)
			vm.stackTop -= count
			vm.push(ObjVal(list))
		case OpIndexList:
			idxVal := vm.pop()
			listVal := vm.pop()
			if !listVal.IsList() {
				vm.reportRuntimeError(vm.runtimeError("Only lists can be indexed."))
				return InterpretRuntimeError
			}
			if !idxVal.IsNumber() {
				vm.reportRuntimeError(vm.runtimeError("List index must be a number."))
				return InterpretRuntimeError
			}
			list := listVal.AsList()
			idx := int(idxVal.Num)
			if !list.isValidIndex(idx) {
				vm.reportRuntimeError(vm.runtimeError("List index out of range."))
				return InterpretRuntimeError
			}
			vm.push(list.get(idx))
		case OpStoreList:
			item := vm.pop()
			idxVal := vm.pop()
			listVal := vm.pop()
			if !listVal.IsList() {
				vm.reportRuntimeError(vm.runtimeError("Only lists can be indexed."))
				return InterpretRuntimeError
			}
			if !idxVal.IsNumber() {
				vm.reportRuntimeError(vm.runtimeError("List index must be a number."))
				return InterpretRuntimeError
			}
			list := listVal.AsList()
			idx := int(idxVal.Num)
			if !list.isValidIndex(idx) {
				vm.reportRuntimeError(vm.runtimeError("List index out of range."))
				return InterpretRuntimeError
			}
			list.set(idx, item)
			vm.push(item)
		case OpGetListLength:
			listVal := vm.pop()
			if !listVal.IsList() {
				vm.reportRuntimeError(vm.runtimeError("Cannot get length of a non-list."))
				return InterpretRuntimeError
			}
			vm.push(NumberVal(float64(len(listVal.AsList().Items))))
		case OpDeleteList:
			idxVal := vm.pop()
			listVal := vm.pop()
			if !listVal.IsList() {
				vm.reportRuntimeError(vm.runtimeError("Only lists support delete."))
				return InterpretRuntimeError
			}
			if !idxVal.IsNumber() {
				vm.reportRuntimeError(vm.runtimeError("List index must be a number."))
				return InterpretRuntimeError
			}
			list := listVal.AsList()
			idx := int(idxVal.Num)
			if !list.isValidIndex(idx) {
				vm.reportRuntimeError(vm.runtimeError("List index out of range."))
				return InterpretRuntimeError
			}
			list.delete(idx)
		case OpBuildRange:
			end := vm.pop()
			start := vm.pop()
			if !start.IsNumber() || !end.IsNumber() {
				vm.reportRuntimeError(vm.runtimeError("Range bounds must be numbers."))
				return InterpretRuntimeError
			}
			vm.push(ObjVal(vm.heap.NewRange(start.Num, end.Num)))
		case OpCall:
			argc := int(readByte())
			if err := vm.callValue(vm.peek(argc), argc); err != nil {
				vm.reportRuntimeError(err)
				return InterpretRuntimeError
			}
			frame = &vm.frames[vm.frameCount-1]
		case OpReturn:
			result := vm.pop()
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return InterpretOK
			}
			vm.stackTop = frame.Base
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]
		default:
			vm.reportRuntimeError(vm.runtimeError("Unknown opcode %d.", instruction))
			return InterpretRuntimeError
		}
	}
}

func (vm *VM) binaryNumberOp(op func(a, b float64) Value) bool {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		vm.reportRuntimeError(vm.runtimeError("Operands must be numbers."))
		return false
	}
	b := vm.pop().Num
	a := vm.pop().Num
	vm.push(op(a, b))
	return true
}

func (vm *VM) reportRuntimeError(err error) {
	fmt.Fprint(os.Stderr, err.Error())
}

func (vm *VM) traceInstruction(frame *CallFrame) {
	entry := vm.log.WithFields(logrus.Fields{"ip": frame.IP, "stack": vm.stack[:vm.stackTop]})
	entry.Debug(disassembleInstruction(frame.Function.Module, frame.IP))
}
