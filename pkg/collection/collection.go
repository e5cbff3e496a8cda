// Package collection holds small generic slice helpers used when shaping
// catalog and order data.
//
//	bestsellers := collection.Filter(products, func(p models.Product) bool { return p.Bestseller })
//	byID := collection.KeyBy(products, func(p models.Product) string { return p.ID })
package collection

import (
	"cmp"
	"slices"
)

// Filter returns the elements of s for which fn returns true. The result is
// never nil.
func Filter[T any](s []T, fn func(T) bool) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		if fn(v) {
			out = append(out, v)
		}
	}
	return out
}

// Map transforms each element of s.
func Map[T, R any](s []T, fn func(T) R) []R {
	out := make([]R, len(s))
	for i, v := range s {
		out[i] = fn(v)
	}
	return out
}

// KeyBy indexes s by fn. Later elements win on duplicate keys.
func KeyBy[T any, K comparable](s []T, fn func(T) K) map[K]T {
	out := make(map[K]T, len(s))
	for _, v := range s {
		out[fn(v)] = v
	}
	return out
}

// GroupBy buckets s by fn, keeping order within each bucket.
func GroupBy[T any, K comparable](s []T, fn func(T) K) map[K][]T {
	out := make(map[K][]T)
	for _, v := range s {
		k := fn(v)
		out[k] = append(out[k], v)
	}
	return out
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Skip drops the first n elements.
func Skip[T any](s []T, n int) []T {
	if n <= 0 {
		return s
	}
	if n >= len(s) {
		return s[:0]
	}
	return s[n:]
}

// Take keeps at most n elements. n <= 0 keeps everything.
func Take[T any](s []T, n int) []T {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[:n]
}
