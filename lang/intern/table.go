package intern

const maxLoadPercent = 70

type state uint8

const (
	vacant state = iota
	tombstone
	occupied
)

type entry[V any] struct {
	state state
	hash  uint32
	key   string
	value V
}

// Table is an open-addressed hash table from byte-string keys to values of
// type V. It grows by doubling (to 2n+1) once its load factor would exceed
// 70%, and reuses tombstone slots left by Delete so that probe chains stay
// intact.
type Table[V any] struct {
	entries []entry[V]
	count   int // occupied, not counting tombstones
}

// New returns a Table with capacity for at least capacityHint entries before
// its first growth. A capacityHint of 0 picks a small default.
func New[V any](capacityHint int) *Table[V] {
	cap := capacityHint*100/maxLoadPercent + 1
	if cap < 8 {
		cap = 8
	}
	return &Table[V]{entries: make([]entry[V], cap)}
}

// Len returns the number of occupied (non-tombstone) entries.
func (t *Table[V]) Len() int { return t.count }

// FindKey looks for an entry whose key has the given hash and is byte-equal
// to key. It returns the canonical stored key string (which may be a
// different Go string header than the argument, but equal content) so that
// callers can use it as a stable, deduplicated representative.
func (t *Table[V]) FindKey(key string, hash uint32) (canonical string, ok bool) {
	e := t.find(key, hash)
	if e == nil || e.state != occupied {
		return "", false
	}
	return e.key, true
}

// Get returns the value associated with key, if present.
func (t *Table[V]) Get(key string, hash uint32) (V, bool) {
	e := t.find(key, hash)
	if e == nil || e.state != occupied {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set inserts or overwrites the value for key. It reports whether the key
// was newly inserted (true) or already present (false). Growth happens
// before insertion if the new entry would push the load factor over 70%.
func (t *Table[V]) Set(key string, hash uint32, value V) (wasNew bool) {
	if (t.count+1)*100 > len(t.entries)*maxLoadPercent {
		t.grow()
	}

	e := t.find(key, hash)
	wasNew = e.state != occupied
	if wasNew {
		t.count++
	}
	e.state = occupied
	e.hash = hash
	e.key = key
	e.value = value
	return wasNew
}

// Delete removes key from the table, replacing its slot with a tombstone so
// later probe chains through it remain unbroken. It reports whether the key
// was present.
func (t *Table[V]) Delete(key string, hash uint32) bool {
	if t.count == 0 && len(t.entries) == 0 {
		return false
	}
	e := t.find(key, hash)
	if e == nil || e.state != occupied {
		return false
	}
	e.state = tombstone
	var zero V
	e.value = zero
	t.count--
	return true
}

// find returns the slot where key (with the given hash) is stored, or where
// it would be inserted: the first tombstone or vacant slot encountered
// during probing, preferring a tombstone so repeated churn reuses space.
func (t *Table[V]) find(key string, hash uint32) *entry[V] {
	if len(t.entries) == 0 {
		return nil
	}
	cap := uint32(len(t.entries))
	idx := hash % cap
	var tombstoneSlot *entry[V]
	for {
		e := &t.entries[idx]
		switch e.state {
		case vacant:
			if tombstoneSlot != nil {
				return tombstoneSlot
			}
			return e
		case tombstone:
			if tombstoneSlot == nil {
				tombstoneSlot = e
			}
		case occupied:
			if e.hash == hash && e.key == key {
				return e
			}
		}
		idx = (idx + 1) % cap
	}
}

// grow rehashes all occupied entries into a fresh table of capacity
// 2*len(t.entries)+1, dropping tombstones in the process.
func (t *Table[V]) grow() {
	newCap := 2*len(t.entries) + 1
	old := t.entries
	t.entries = make([]entry[V], newCap)
	t.count = 0
	for _, e := range old {
		if e.state != occupied {
			continue
		}
		dst := t.find(e.key, e.hash)
		dst.state = occupied
		dst.hash = e.hash
		dst.key = e.key
		dst.value = e.value
		t.count++
	}
}
