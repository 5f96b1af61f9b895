package bricks

import (
	"errors"

	"github.com/bytedance/sonic"
)

var errArrayOverflow = errors.New("bricks: json array larger than array capacity")

// MarshalJSON encodes the elements in use as a JSON array.
func (a *Array[T]) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(a.Slice())
}

// UnmarshalJSON replaces the contents. The array does not grow.
func (a *Array[T]) UnmarshalJSON(src []byte) error {
	var items []T
	if err := sonic.Unmarshal(src, &items); err != nil {
		return err
	}
	if len(items) > a.Cap() {
		return errArrayOverflow
	}
	a.CopyFrom(items)
	return nil
}

// MarshalJSON encodes the elements in order as a JSON array.
func (b *BucketArray[T]) MarshalJSON() ([]byte, error) {
	items := make([]T, b.Len())
	b.CopyToSlice(items)
	return sonic.Marshal(items)
}

// UnmarshalJSON appends the decoded elements.
func (b *BucketArray[T]) UnmarshalJSON(src []byte) error {
	var items []T
	if err := sonic.Unmarshal(src, &items); err != nil {
		return err
	}
	b.Append(items...)
	return nil
}

type tableJSON[K comparable, V any] struct {
	K []K
	V []V
}

// MarshalJSON encodes keys and values as two parallel arrays.
func (h *Hashtable[K, V]) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(tableJSON[K, V]{h.Keys(), h.Values()})
}

// UnmarshalJSON puts every decoded entry.
func (h *Hashtable[K, V]) UnmarshalJSON(src []byte) error {
	var t tableJSON[K, V]
	if err := sonic.Unmarshal(src, &t); err != nil {
		return err
	}
	if len(t.K) != len(t.V) {
		return errors.New("bricks: json keys and values differ in length")
	}
	if h.hash == nil {
		h.hash = DefaultHash[K]()
	}
	if h.equal == nil {
		h.equal = DefaultEqual[K]()
	}
	for i, k := range t.K {
		h.Put(k, t.V[i])
	}
	return nil
}
