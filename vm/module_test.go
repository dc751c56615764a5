package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jlhs1001/protoslang/vm"
)

func TestModule_writeTracksLines(t *testing.T) {
	m := vm.NewModule()
	m.Write(byte(vm.OpNil), 1)
	m.Write(byte(vm.OpPop), 2)

	assert.Equal(t, []byte{byte(vm.OpNil), byte(vm.OpPop)}, m.Code)
	assert.Equal(t, []int{1, 2}, m.Lines)
}

func TestModule_addConstantReturnsIndex(t *testing.T) {
	m := vm.NewModule()
	idx0 := m.AddConstant(vm.NumberVal(1))
	idx1 := m.AddConstant(vm.NumberVal(2))

	assert.Equal(t, 0, idx0)
	assert.Equal(t, 1, idx1)
	assert.Equal(t, vm.NumberVal(1), m.Constants[0])
	assert.Equal(t, vm.NumberVal(2), m.Constants[1])
}
