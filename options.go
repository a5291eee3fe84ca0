// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chainmap

// DestroyFunc releases the resource a key or value refers to. Destructors
// are optional; the default (nil) leaves reclamation to the garbage
// collector.
type DestroyFunc[T any] func(T)

// CloneFunc duplicates a key or value for PutClone. The duplicate must hash
// and compare equal to the original.
type CloneFunc[T any] func(T) T

// Option provides an interface to do work on Map while it is being created.
type Option[K any, V any] interface {
	apply(m *Map[K, V])
}

type optionFunc[K any, V any] func(m *Map[K, V])

func (op optionFunc[K, V]) apply(m *Map[K, V]) {
	op(m)
}

// WithLoadFactor is an option to specify the load factor: the fraction of
// the bucket-array capacity at which an insertion triggers a resize.
// Default is 0.75.
func WithLoadFactor[K any, V any](factor float64) Option[K, V] {
	return optionFunc[K, V](func(m *Map[K, V]) {
		m.factor = factor
	})
}

// WithGrowthPolicy is an option to specify the growth policy. See
// Map.SetGrowthPolicy. Default is 2.
func WithGrowthPolicy[K any, V any](growth float64) Option[K, V] {
	return optionFunc[K, V](func(m *Map[K, V]) {
		m.growth = growth
	})
}

// WithKeyDestructor is an option to specify the destructor invoked on keys
// the map releases.
func WithKeyDestructor[K any, V any](destroy DestroyFunc[K]) Option[K, V] {
	return optionFunc[K, V](func(m *Map[K, V]) {
		m.keyFree = destroy
	})
}

// WithValueDestructor is an option to specify the destructor invoked on
// values the map releases.
func WithValueDestructor[K any, V any](destroy DestroyFunc[V]) Option[K, V] {
	return optionFunc[K, V](func(m *Map[K, V]) {
		m.valueFree = destroy
	})
}

// WithKeyClone is an option to specify how PutClone duplicates keys.
// Without it keys are stored as plain Go copies.
func WithKeyClone[K any, V any](clone CloneFunc[K]) Option[K, V] {
	return optionFunc[K, V](func(m *Map[K, V]) {
		m.cloneKey = clone
	})
}

// WithValueClone is an option to specify how PutClone duplicates values.
// Without it values are stored as plain Go copies.
func WithValueClone[K any, V any](clone CloneFunc[V]) Option[K, V] {
	return optionFunc[K, V](func(m *Map[K, V]) {
		m.cloneValue = clone
	})
}

// Allocator specifies an interface for allocating and releasing the
// bucket-head array used by a Map. The default allocator utilizes Go's
// builtin make() and allows the GC to reclaim memory.
//
// If the allocator is manually managing memory then Map.Close must be
// called in order to ensure FreeBuckets is called for the final array.
type Allocator[K any, V any] interface {
	// AllocBuckets should return a slice equivalent to
	// make([]*Entry[K, V], n).
	AllocBuckets(n int) []*Entry[K, V]

	// FreeBuckets can optionally release the memory associated with the
	// supplied slice that is guaranteed to have been allocated by
	// AllocBuckets.
	FreeBuckets(v []*Entry[K, V])
}

type defaultAllocator[K any, V any] struct{}

func (defaultAllocator[K, V]) AllocBuckets(n int) []*Entry[K, V] {
	return make([]*Entry[K, V], n)
}

func (defaultAllocator[K, V]) FreeBuckets(v []*Entry[K, V]) {
}

// WithAllocator is an option to specify the Allocator to use for a
// Map[K, V]'s bucket array.
func WithAllocator[K any, V any](allocator Allocator[K, V]) Option[K, V] {
	return optionFunc[K, V](func(m *Map[K, V]) {
		m.allocator = allocator
	})
}
