package bricks

import "fmt"

// TableFlags
type TableFlags uint8

const (
	// FixedSize tables never grow, so value addresses stay valid.
	// They must be created with a large enough expected size.
	FixedSize TableFlags = 1 << iota
)

const minTableCapacity = 16

type tableOptions[K comparable] struct {
	hash   HashFunc[K]
	equal  EqualFunc[K]
	flags  TableFlags
	params Params
}

// TableOption configures a Hashtable.
type TableOption[K comparable] func(*tableOptions[K])

// WithHash
func WithHash[K comparable](hash HashFunc[K]) TableOption[K] {
	return func(o *tableOptions[K]) { o.hash = hash }
}

// WithEqual
func WithEqual[K comparable](equal EqualFunc[K]) TableOption[K] {
	return func(o *tableOptions[K]) { o.equal = equal }
}

// WithFlags
func WithFlags[K comparable](flags TableFlags) TableOption[K] {
	return func(o *tableOptions[K]) { o.flags = flags }
}

// WithParams sets the params used for the key and value storage.
func WithParams[K comparable](params Params) TableOption[K] {
	return func(o *tableOptions[K]) { o.params = params }
}

// Hashtable is an open addressing hash table with linear probing.
// Keys and values live in two parallel slices taken from the allocator.
//
// The zero key marks an empty slot and can never be stored. There is no
// deletion. The table doubles before an insert would make it half full, so
// 2*Len() < Cap() always holds once a key is stored. Value addresses are
// invalidated by growth unless the table is FixedSize.
type Hashtable[K comparable, V any] struct {
	keys   []K
	values []V
	count  int
	mask   int

	hash   HashFunc[K]
	equal  EqualFunc[K]
	flags  TableFlags
	alloc  Allocator
	params Params
}

// NewHashtable returns a table sized for expectedSize keys.
// A zero expectedSize allocates nothing until the first insert.
func NewHashtable[K comparable, V any](expectedSize int, a Allocator, opts ...TableOption[K]) *Hashtable[K, V] {
	o := tableOptions[K]{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.hash == nil {
		o.hash = DefaultHash[K]()
	}
	if o.equal == nil {
		o.equal = DefaultEqual[K]()
	}
	if expectedSize < 0 {
		panic("bricks: negative hashtable size")
	}
	if o.flags&FixedSize != 0 && expectedSize == 0 {
		panic("bricks: fixed size hashtable needs an expected size")
	}

	h := &Hashtable[K, V]{
		mask:   -1,
		hash:   o.hash,
		equal:  o.equal,
		flags:  o.flags,
		alloc:  a,
		params: o.params,
	}
	if expectedSize > 0 {
		h.grow(CeilPow2(2*expectedSize + 1).Int())
	}
	return h
}

// Get returns the address of the value stored for key, or nil.
func (h *Hashtable[K, V]) Get(key K) *V {
	h.checkKey(key)
	if h.count == 0 {
		return nil
	}
	i, found := h.probe(key)
	if !found {
		return nil
	}
	return &h.values[i]
}

// PutEmpty stores a zero value for key and returns its address.
func (h *Hashtable[K, V]) PutEmpty(key K) *V {
	p, _ := h.insert(key)
	var zero V
	*p = zero
	return p
}

// PutEmptyNoClear is PutEmpty leaving an existing value untouched.
func (h *Hashtable[K, V]) PutEmptyNoClear(key K) *V {
	p, _ := h.insert(key)
	return p
}

// Put
func (h *Hashtable[K, V]) Put(key K, value V) *V {
	p, _ := h.insert(key)
	*p = value
	return p
}

// GetOrPutEmpty returns the value for key, inserting a zero value if absent.
func (h *Hashtable[K, V]) GetOrPutEmpty(key K) (*V, bool) {
	return h.insert(key)
}

// GetOrPut returns the value for key, inserting value if absent.
func (h *Hashtable[K, V]) GetOrPut(key K, value V) (*V, bool) {
	p, found := h.insert(key)
	if !found {
		*p = value
	}
	return p, found
}

// Len
func (h *Hashtable[K, V]) Len() int { return h.count }

// Cap
func (h *Hashtable[K, V]) Cap() int { return len(h.keys) }

// All calls fn for every entry in slot order until fn returns false.
func (h *Hashtable[K, V]) All(fn func(key K, value *V) bool) {
	var zero K
	for i := range h.keys {
		if h.keys[i] == zero {
			continue
		}
		if !fn(h.keys[i], &h.values[i]) {
			return
		}
	}
}

// Keys returns the stored keys in slot order.
func (h *Hashtable[K, V]) Keys() []K {
	keys := make([]K, 0, h.count)
	h.All(func(k K, _ *V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Values returns the stored values in slot order.
func (h *Hashtable[K, V]) Values() []V {
	values := make([]V, 0, h.count)
	h.All(func(_ K, v *V) bool {
		values = append(values, *v)
		return true
	})
	return values
}

// Release frees the storage. The table is empty and reusable afterwards.
func (h *Hashtable[K, V]) Release() {
	FreeSlice(h.alloc, h.keys, h.params)
	FreeSlice(h.alloc, h.values, h.params)
	h.keys, h.values = nil, nil
	h.count = 0
	h.mask = -1
}

func (h *Hashtable[K, V]) checkKey(key K) {
	var zero K
	if key == zero {
		panic("bricks: the zero key is reserved")
	}
}

// insert returns the value slot for key and whether the key was already there.
func (h *Hashtable[K, V]) insert(key K) (*V, bool) {
	h.checkKey(key)
	if len(h.keys) == 0 {
		h.grow(minTableCapacity)
	}
	i, found := h.probe(key)
	if found {
		return &h.values[i], true
	}
	if 2*(h.count+1) >= len(h.keys) {
		h.grow(2 * len(h.keys))
		i, _ = h.probe(key)
	}
	h.keys[i] = key
	h.count++
	var zero V
	h.values[i] = zero
	return &h.values[i], false
}

// probe returns the slot holding key, or the empty slot where it belongs.
func (h *Hashtable[K, V]) probe(key K) (int, bool) {
	var zero K
	start := int(h.hash(key) & uint64(h.mask))
	i := start
	for {
		k := h.keys[i]
		if h.equal(k, key) {
			return i, true
		}
		if k == zero {
			return i, false
		}
		i = (i + 1) & h.mask
		if i == start {
			panic(fmt.Sprintf("bricks: hashtable probe wrapped around (len %d, cap %d)", h.count, len(h.keys)))
		}
	}
}

func (h *Hashtable[K, V]) grow(capacity int) {
	if h.flags&FixedSize != 0 && len(h.keys) != 0 {
		panic("bricks: fixed size hashtable is full")
	}
	capacity = max(capacity, minTableCapacity)

	oldKeys, oldValues := h.keys, h.values
	keyParams, valueParams := h.params, h.params
	keyParams.Flags &^= NoClearFlag
	valueParams.Flags |= NoClearFlag
	h.keys = MakeSlice[K](h.alloc, capacity, keyParams)
	h.values = MakeSlice[V](h.alloc, capacity, valueParams)
	h.mask = capacity - 1
	h.count = 0

	var zero K
	for i, k := range oldKeys {
		if k == zero {
			continue
		}
		j, _ := h.probe(k)
		h.keys[j] = k
		h.values[j] = oldValues[i]
		h.count++
	}
	FreeSlice(h.alloc, oldKeys, h.params)
	FreeSlice(h.alloc, oldValues, h.params)
}
