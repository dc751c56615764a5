package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jlhs1001/protoslang/vm"
)

func TestTable_setThenGet(t *testing.T) {
	h := vm.NewHeap()
	tbl := vm.NewTable()
	key := h.InternString("answer")

	isNew := tbl.Set(key, vm.NumberVal(42))
	assert.True(t, isNew)

	v, ok := tbl.Get(key)
	assert.True(t, ok)
	assert.Equal(t, vm.NumberVal(42), v)
}

func TestTable_setExistingKeyNotNew(t *testing.T) {
	h := vm.NewHeap()
	tbl := vm.NewTable()
	key := h.InternString("k")

	assert.True(t, tbl.Set(key, vm.NumberVal(1)))
	assert.False(t, tbl.Set(key, vm.NumberVal(2)))

	v, _ := tbl.Get(key)
	assert.Equal(t, vm.NumberVal(2), v)
}

func TestTable_deleteThenGetAbsent(t *testing.T) {
	h := vm.NewHeap()
	tbl := vm.NewTable()
	key := h.InternString("gone")

	tbl.Set(key, vm.BoolVal(true))
	assert.True(t, tbl.Delete(key))

	_, ok := tbl.Get(key)
	assert.False(t, ok)
}

func TestTable_getAbsentKey(t *testing.T) {
	h := vm.NewHeap()
	tbl := vm.NewTable()
	_, ok := tbl.Get(h.InternString("missing"))
	assert.False(t, ok)
}

func TestTable_manyDistinctKeysAllRoundTrip(t *testing.T) {
	h := vm.NewHeap()
	tbl := vm.NewTable()
	keys := make([]*vm.ObjString, 200)
	for i := range keys {
		keys[i] = h.InternString(string(rune('a'+i%26)) + string(rune(i)))
		tbl.Set(keys[i], vm.NumberVal(float64(i)))
	}
	for i, key := range keys {
		v, ok := tbl.Get(key)
		assert.True(t, ok)
		assert.Equal(t, vm.NumberVal(float64(i)), v)
	}
}

func TestTable_reinsertAfterDeleteNeverExceedsLoadFactor(t *testing.T) {
	h := vm.NewHeap()
	tbl := vm.NewTable()
	key := h.InternString("churn")
	for i := 0; i < 50; i++ {
		tbl.Set(key, vm.NumberVal(float64(i)))
		tbl.Delete(key)
	}
	v, ok := tbl.Get(key)
	assert.False(t, ok)
	assert.Equal(t, vm.Nil(), v)
	// Each re-insert reuses the tombstone slot, so the count never grows.
	assert.Equal(t, 1, tbl.Count())
}
