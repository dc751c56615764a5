package vm

// Heap owns every object allocated by a compile-and-run cycle: the
// intrusive allocation list (section 3) and the string intern table
// (section 4.4). The compiler allocates ObjString constants for literals
// and ObjFunction objects for `fn` declarations; the VM allocates
// ObjList, ObjRange, and concatenation results at run time. Both sides
// share one Heap so that compile-time string constants and run-time
// strings intern into the same table.
type Heap struct {
	objects Obj
	strings *Table
}

// NewHeap returns an empty Heap.
func NewHeap() *Heap {
	return &Heap{strings: NewTable()}
}

func (h *Heap) track(o Obj) {
	o.setNext(h.objects)
	h.objects = o
}

// InternString returns the canonical ObjString for chars, allocating and
// registering a new one only if no equal string has been interned yet.
func (h *Heap) InternString(chars string) *ObjString {
	hash := hashFNV1a(chars)
	if interned := h.strings.FindString(chars, hash); interned != nil {
		return interned
	}
	s := &ObjString{Chars: chars, Hash: hash}
	h.track(s)
	h.strings.Set(s, Nil())
	return s
}

// NewList allocates an empty list and registers it on the allocation list.
func (h *Heap) NewList() *ObjList {
	l := newList()
	h.track(l)
	return l
}

// NewRange allocates a range object.
func (h *Heap) NewRange(start, end float64) *ObjRange {
	r := &ObjRange{Start: start, End: end}
	h.track(r)
	return r
}

// NewFunction allocates an empty function object with its own module.
func (h *Heap) NewFunction() *ObjFunction {
	f := newFunction()
	h.track(f)
	return f
}

// Free drops every reference held by the allocation list and intern
// table in one sweep. Go's garbage collector owns the actual memory;
// this just makes teardown deterministic and observable at VM exit.
func (h *Heap) Free() {
	h.objects = nil
	h.strings = NewTable()
}
