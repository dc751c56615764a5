package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jlhs1001/protoslang/vm"
)

func TestIsTruthy(t *testing.T) {
	assert.False(t, vm.IsTruthy(vm.Nil()))
	assert.False(t, vm.IsTruthy(vm.BoolVal(false)))
	assert.True(t, vm.IsTruthy(vm.BoolVal(true)))
	assert.True(t, vm.IsTruthy(vm.NumberVal(0)))
	assert.True(t, vm.IsTruthy(vm.NumberVal(-1)))
}

func TestValuesEqual_differentTagsNeverEqual(t *testing.T) {
	assert.False(t, vm.ValuesEqual(vm.Nil(), vm.BoolVal(false)))
	assert.False(t, vm.ValuesEqual(vm.NumberVal(0), vm.BoolVal(false)))
}

func TestValuesEqual_numbers(t *testing.T) {
	assert.True(t, vm.ValuesEqual(vm.NumberVal(1.5), vm.NumberVal(1.5)))
	assert.False(t, vm.ValuesEqual(vm.NumberVal(1.5), vm.NumberVal(1.6)))
}

func TestValuesEqual_objectsByIdentity(t *testing.T) {
	h := vm.NewHeap()
	a := h.InternString("same")
	b := h.InternString("same")
	assert.True(t, vm.ValuesEqual(vm.ObjVal(a), vm.ObjVal(b)), "interning should make equal-content strings identical")

	lst1 := h.NewList()
	lst2 := h.NewList()
	assert.False(t, vm.ValuesEqual(vm.ObjVal(lst1), vm.ObjVal(lst2)))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "nil", vm.Nil().String())
	assert.Equal(t, "true", vm.BoolVal(true).String())
	assert.Equal(t, "7", vm.NumberVal(7).String())
	assert.Equal(t, "1.5", vm.NumberVal(1.5).String())

	h := vm.NewHeap()
	s := h.InternString("hi")
	assert.Equal(t, "hi", vm.ObjVal(s).String())

	r := h.NewRange(1, 3)
	assert.Equal(t, "1..3", vm.ObjVal(r).String())

	lst := h.NewList()
	lst.Items = append(lst.Items, vm.NumberVal(1), vm.NumberVal(2))
	assert.Equal(t, "[1, 2]", vm.ObjVal(lst).String())
}
