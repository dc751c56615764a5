package vm

// ObjType tags the concrete kind of a heap object.
type ObjType uint8

const (
	ObjTypeString ObjType = iota
	ObjTypeList
	ObjTypeRange
	ObjTypeFunction
)

// Obj is the interface satisfied by every heap-allocated value. Every
// concrete implementation embeds ObjHeader, which forms the singly-linked
// intrusive allocation list rooted at the VM: an allocation registry, not
// a reachability graph, so no cycles may form in it. Go's own garbage
// collector reclaims the memory; the list exists so VM teardown can
// account for every object it ever produced in one deterministic sweep.
type Obj interface {
	Type() ObjType
	next() Obj
	setNext(Obj)
}

// ObjHeader carries the intrusive forward link common to all object kinds.
type ObjHeader struct {
	nextObj Obj
}

func (h *ObjHeader) next() Obj      { return h.nextObj }
func (h *ObjHeader) setNext(o Obj)  { h.nextObj = o }

// ObjString is an interned, immutable byte string with a precomputed
// FNV-1a hash. All protoslang strings that compare byte-equal share one
// ObjString; see VM.internString.
type ObjString struct {
	ObjHeader
	Chars string
	Hash  uint32
}

// Type implements Obj.
func (s *ObjString) Type() ObjType { return ObjTypeString }

// ObjList is a dynamic array of values that starts at capacity 8 and grows
// through Go's append, which doubles the capacity of small lists and grows
// larger ones (past 256 elements) by a smaller factor.
type ObjList struct {
	ObjHeader
	Items []Value
}

// Type implements Obj.
func (l *ObjList) Type() ObjType { return ObjTypeList }

func newList() *ObjList {
	return &ObjList{Items: make([]Value, 0, 8)}
}

func (l *ObjList) isValidIndex(i int) bool {
	return i >= 0 && i < len(l.Items)
}

func (l *ObjList) get(i int) Value { return l.Items[i] }

func (l *ObjList) set(i int, v Value) { l.Items[i] = v }

// delete removes the element at i, shifting subsequent elements down one
// slot.
func (l *ObjList) delete(i int) {
	l.Items = append(l.Items[:i], l.Items[i+1:]...)
}

// ObjRange is a pair of double-precision bounds produced by the `..`
// operator.
type ObjRange struct {
	ObjHeader
	Start, End float64
}

// Type implements Obj.
func (r *ObjRange) Type() ObjType { return ObjTypeRange }

// ObjFunction is a callable unit: an arity, an optional interned name
// (nil for the top-level script), and its own owned Module.
type ObjFunction struct {
	ObjHeader
	Arity  int
	Name   *ObjString
	Module *Module
}

// Type implements Obj.
func (f *ObjFunction) Type() ObjType { return ObjTypeFunction }

func newFunction() *ObjFunction {
	return &ObjFunction{Module: NewModule()}
}

// hashFNV1a computes the 32-bit FNV-1a hash of s. Per the testable
// properties: hash("") == 2166136261, hash("a") == 0xe40c292c.
func hashFNV1a(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
