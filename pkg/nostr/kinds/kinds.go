// Package kinds provides the list type for kind.T used in filters.
package kinds

import (
	"github.com/chebizarro/nostrc-go/pkg/nostr/kind"
	"github.com/chebizarro/nostrc-go/pkg/wire/array"
)

type T []kind.T

// ToArray converts to the generic array.T type ([]interface{}). A nil
// receiver stays nil so omitempty emission skips the field.
func (ar T) ToArray() (a array.T) {
	if ar == nil {
		return
	}
	a = make(array.T, len(ar))
	for i := range ar {
		a[i] = ar[i]
	}
	return
}

func FromIntSlice(is []int) (k T) {
	for i := range is {
		k = append(k, kind.T(is[i]))
	}
	return
}

// Clone makes a new kinds.T with the same members. Nil stays nil.
func (ar T) Clone() (c T) {
	if ar == nil {
		return
	}
	c = make(T, len(ar))
	for i := range ar {
		c[i] = ar[i]
	}
	return
}

// Contains returns true if the provided element is found in the kinds.T.
func (ar T) Contains(s kind.T) bool {
	for i := range ar {
		if ar[i] == s {
			return true
		}
	}
	return false
}

// Equals checks that the provided kinds.T matches.
func (ar T) Equals(t1 T) bool {
	if len(ar) != len(t1) {
		return false
	}
	for i := range ar {
		if ar[i] != t1[i] {
			return false
		}
	}
	return true
}
