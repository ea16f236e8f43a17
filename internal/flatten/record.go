package flatten

import (
	"sort"
	"strconv"
	"strings"
)

// Record is a flat, ordered mapping from dotted key path to scalar value.
//
// Key order follows JavaScript property order: array-index keys first in
// ascending numeric order, then every other key in first-insertion order.
// Re-assigning an existing key replaces its value but keeps its position.
type Record struct {
	order  []string
	values map[string]Value
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]Value)}
}

// Set assigns v to key.
func (r *Record) Set(key string, v Value) {
	if _, exists := r.values[key]; !exists {
		r.order = append(r.order, key)
	}
	r.values[key] = v
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Len returns the number of keys.
func (r *Record) Len() int {
	return len(r.order)
}

// Keys returns the keys in property order.
func (r *Record) Keys() []string {
	return propertyOrder(r.order)
}

// Each calls fn for every key in property order.
func (r *Record) Each(fn func(key string, v Value)) {
	for _, k := range r.Keys() {
		fn(k, r.values[k])
	}
}

// Merge assigns every entry of other into r, in other's order.
func (r *Record) Merge(other *Record) {
	other.Each(r.Set)
}

// MarshalJSON encodes the record as a flat JSON object in property order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(Quote(k))
		b.WriteByte(':')
		b.WriteString(r.values[k].JSON())
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// propertyOrder returns keys with array-index keys hoisted to the front in
// ascending numeric order. The remaining keys keep their relative order.
func propertyOrder(keys []string) []string {
	var indexes, named []string
	for _, k := range keys {
		if isArrayIndex(k) {
			indexes = append(indexes, k)
		} else {
			named = append(named, k)
		}
	}
	if len(indexes) == 0 {
		return append([]string(nil), keys...)
	}
	sort.Slice(indexes, func(i, j int) bool {
		a, _ := strconv.ParseUint(indexes[i], 10, 32)
		b, _ := strconv.ParseUint(indexes[j], 10, 32)
		return a < b
	})
	return append(indexes, named...)
}

// isArrayIndex reports whether k is the canonical decimal form of an
// integer in [0, 2^32-2].
func isArrayIndex(k string) bool {
	if k == "" || len(k) > 10 {
		return false
	}
	if len(k) > 1 && k[0] == '0' {
		return false
	}
	for i := 0; i < len(k); i++ {
		if k[i] < '0' || k[i] > '9' {
			return false
		}
	}
	n, err := strconv.ParseUint(k, 10, 64)
	return err == nil && n < 1<<32-1
}
