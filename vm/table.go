package vm

// maxLoadFactor is the maximum fraction of a Table's capacity that may be
// occupied (including tombstones) before it is grown.
const maxLoadFactor = 0.75

const tableInitialCapacity = 8

// entry is one slot of a Table. An empty slot has Key == nil and
// Value.IsNil(); a tombstone (deleted entry, kept so linear probing can
// continue past it) has Key == nil and Value == BoolVal(true).
type entry struct {
	Key   *ObjString
	Value Value
}

func (e entry) isEmpty() bool     { return e.Key == nil && e.Value.IsNil() }
func (e entry) isTombstone() bool { return e.Key == nil && e.Value.IsBool() && e.Value.Bool }

// Table is an open-addressed hash table with linear probing, keyed by
// interned-string identity, used for both the VM's globals and its string
// intern pool (section 3/4.4).
type Table struct {
	count    int // live entries + tombstones
	entries  []entry
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{}
}

// Count returns the number of live entries plus tombstones.
func (t *Table) Count() int { return t.count }

func findEntry(entries []entry, key *ObjString) *entry {
	capacity := len(entries)
	index := key.Hash % uint32(capacity)
	var tombstone *entry
	for {
		e := &entries[index]
		if e.Key == nil {
			if e.Value.IsNil() {
				// truly empty slot: return the tombstone we passed, if any
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			// tombstone
			if tombstone == nil {
				tombstone = e
			}
		} else if e.Key == key {
			return e
		}
		index = (index + 1) % uint32(capacity)
	}
}

func (t *Table) adjustCapacity(capacity int) {
	entries := make([]entry, capacity)
	for i := range entries {
		entries[i] = entry{Value: Nil()}
	}

	t.count = 0
	for _, e := range t.entries {
		if e.Key == nil {
			continue
		}
		dest := findEntry(entries, e.Key)
		dest.Key = e.Key
		dest.Value = e.Value
		t.count++
	}

	t.entries = entries
}

// Set stores value under key, growing the table first if needed. It
// returns true iff key was not already present (a new entry was inserted).
func (t *Table) Set(key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*maxLoadFactor {
		capacity := tableInitialCapacity
		if len(t.entries) > 0 {
			capacity = len(t.entries) * 2
		}
		t.adjustCapacity(capacity)
	}

	e := findEntry(t.entries, key)
	isNewKey := e.Key == nil
	if isNewKey && e.Value.IsNil() {
		t.count++
	}

	e.Key = key
	e.Value = value
	return isNewKey
}

// Get looks up key and reports whether it was found.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if len(t.entries) == 0 {
		return Nil(), false
	}
	e := findEntry(t.entries, key)
	if e.Key == nil {
		return Nil(), false
	}
	return e.Value, true
}

// Delete removes key, leaving a tombstone in its slot so that probes for
// other keys that collided with it keep working. Reports whether the key
// was present.
func (t *Table) Delete(key *ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.Key == nil {
		return false
	}
	e.Key = nil
	e.Value = BoolVal(true) // tombstone marker
	return true
}

// AddAll copies every live entry of from into to.
func (t *Table) AddAll(to *Table) {
	for _, e := range t.entries {
		if e.Key != nil {
			to.Set(e.Key, e.Value)
		}
	}
}

// FindString looks for an interned string with the given content and
// precomputed hash without first constructing an *ObjString, so the
// intern table can be probed before deciding whether a new allocation is
// needed.
func (t *Table) FindString(chars string, hash uint32) *ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	capacity := len(t.entries)
	index := hash % uint32(capacity)
	for {
		e := &t.entries[index]
		if e.Key == nil {
			if e.Value.IsNil() {
				return nil
			}
			// tombstone: keep probing
		} else if e.Key.Hash == hash && e.Key.Chars == chars {
			return e.Key
		}
		index = (index + 1) % uint32(capacity)
	}
}
