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

// Package chainmap implements a hash table with separate chaining and
// pluggable hashing, equality, and ownership behavior.
//
// # Design
//
// A Map is a fixed-size array of bucket heads, each the start of a singly
// linked chain of entries. An entry holds a key, a value, the key's cached
// 32-bit hash, and a link to the next entry in the same bucket. Every
// operation computes (or reuses) a key's hash, maps it to a bucket via
// modulo, and walks that bucket's chain. Insertion of a new key pushes the
// entry at the head of its chain and, once the live-entry count reaches
// threshold = floor(capacity * loadFactor), grows the bucket array per the
// configured growth policy and re-threads every entry. Chains keep entries
// in no particular order; iteration order is bucket index then incidental
// chain order and is never meaningful.
//
// Unlike a builtin map, a Map does not constrain its key type: hashing and
// equality are injected capabilities (see HashFunc and EqualFunc, and the
// ready-made hashers in hash.go), so keys need not be comparable. The table
// only grows; it never shrinks on removal.
//
// # Ownership
//
// A Map can manage the lifetime of the resources its keys and values refer
// to. Optional per-table destructor capabilities (WithKeyDestructor,
// WithValueDestructor) are invoked exactly once for each reference the
// table releases: on overwrite of an existing key, on Delete, on Clear, and
// on Close. The default destructors are nil, leaving reclamation to the
// garbage collector.
//
// Two insertion contracts are provided and must not be conflated:
//
//   - Put adopts the key and value references passed in; the table becomes
//     responsible for releasing them.
//   - PutClone stores independent duplicates made by the configured clone
//     capabilities (WithKeyClone, WithValueClone); the caller retains its
//     originals.
//
// A single entry's key and value may be the same reference (hashset-style
// usage, or storing the key as its own value). The table tracks this
// aliasing and guarantees the shared resource is released at most once.
//
// A Map is NOT goroutine-safe.
package chainmap

import "errors"

const (
	defaultInitialCapacity = 16
	defaultLoadFactor      = 0.75
	defaultGrowthFactor    = 2.0
)

// Configuration errors returned by mutating operations.
var (
	// ErrNoHashFunc is returned by Put and PutClone when no hash capability
	// has been configured.
	ErrNoHashFunc = errors.New("chainmap: hash function not set")
	// ErrNoEqualFunc is returned by Put and PutClone when no equality
	// capability has been configured.
	ErrNoEqualFunc = errors.New("chainmap: equal function not set")
	// ErrClosed is returned by Put and PutClone after Close.
	ErrClosed = errors.New("chainmap: map is closed")
)

// Entry is a chain node holding a key, a value, the key's cached hash, and
// the link to the next entry in the same bucket.
type Entry[K any, V any] struct {
	key   K
	value V
	hash  uint32
	next  *Entry[K, V]
	// aliased records that key and value are the same reference, so that
	// the shared resource is released at most once.
	aliased bool
}

// Key returns the entry's key.
func (e *Entry[K, V]) Key() K { return e.key }

// Value returns the entry's value.
func (e *Entry[K, V]) Value() V { return e.value }

// Map is a chained hash table from keys to values with Put, PutClone, Get,
// Delete, Detach, Browse, and All operations. See the package documentation
// for the design and the ownership contracts.
//
// A Map is NOT goroutine-safe.
type Map[K any, V any] struct {
	// The injected capabilities. hash and equal are required before the
	// first insertion; the rest are optional.
	hash       HashFunc[K]
	equal      EqualFunc[K]
	keyFree    DestroyFunc[K]
	valueFree  DestroyFunc[V]
	cloneKey   CloneFunc[K]
	cloneValue CloneFunc[V]
	// The allocator for the bucket-head array.
	allocator Allocator[K, V]
	// buckets[h%len(buckets)] heads the chain holding every live entry with
	// hash h. Nil after Close.
	buckets []*Entry[K, V]
	// The number of live entries across all chains.
	cur int
	// Grow when cur reaches threshold = floor(len(buckets) * factor).
	threshold int
	factor    float64
	// Growth policy: >0 multiplies the capacity, <0 adds -growth entries,
	// 0 disables growth (chains simply lengthen).
	growth float64
}

// New constructs a Map with initialCapacity buckets. A non-positive
// initialCapacity is replaced with a small default. The hash and equal
// capabilities may be nil here and supplied later via SetHashFunc and
// SetEqualFunc, but both must be set before the first insertion; Put and
// PutClone report a configuration error otherwise.
func New[K any, V any](initialCapacity int, hash HashFunc[K], equal EqualFunc[K], options ...Option[K, V]) *Map[K, V] {
	if initialCapacity <= 0 {
		initialCapacity = defaultInitialCapacity
	}
	m := &Map[K, V]{
		hash:      hash,
		equal:     equal,
		allocator: defaultAllocator[K, V]{},
		factor:    defaultLoadFactor,
		growth:    defaultGrowthFactor,
	}
	for _, op := range options {
		op.apply(m)
	}
	m.buckets = m.allocator.AllocBuckets(initialCapacity)
	m.threshold = int(float64(initialCapacity) * m.factor)
	return m
}

// Close releases every entry (running the configured destructors) and
// returns the bucket array to the allocator. It is invalid to insert into a
// Map after it has been closed, though Close itself is idempotent and safe
// on a nil Map.
func (m *Map[K, V]) Close() {
	if m == nil || m.buckets == nil {
		return
	}
	m.Clear()
	m.allocator.FreeBuckets(m.buckets)
	m.buckets = nil
	m.threshold = 0
	m.allocator = nil
}

// Put inserts an entry into the map, adopting the key and value references:
// the map becomes responsible for releasing both. The value may be a nil
// reference to model a pure set.
//
// If an entry with an equal key already exists this is an overwrite: the
// old key is released unless the new key or the new value is the same
// reference, the old value is released unless the new value or the new key
// is the same reference, and existed=true is returned. Releasing never runs
// twice on a single resource stored as both key and value.
//
// A nil Map and a nil key reference are no-ops.
func (m *Map[K, V]) Put(key K, value V) (existed bool, err error) {
	if m == nil || isNilRef(key) {
		return false, nil
	}
	if err := m.usable(); err != nil {
		return false, err
	}

	h := m.hash(key)
	e := m.findEntry(key, h)
	if e == nil {
		m.insert(h, key, value)
		return false, nil
	}

	oldValue, oldValueLive := e.value, true
	if !refIdentical(key, e.key) && !refIdentical(value, e.key) {
		m.releaseKey(e.key)
		if e.aliased {
			// The old value was the key's resource and is gone with it.
			oldValueLive = false
		}
	}
	if oldValueLive && !refIdentical(value, oldValue) && !refIdentical(key, oldValue) {
		m.releaseValue(oldValue)
	}
	e.key = key
	e.value = value
	e.aliased = refIdentical(key, value)
	return true, nil
}

// PutClone inserts an entry into the map, storing duplicates made by the
// configured clone capabilities; the caller retains ownership of the key
// and value it passed in. Without clone capabilities the duplicates are
// plain Go copies. A clone capability must produce a duplicate that hashes
// and compares equal to its original.
//
// If an entry with an equal key already exists, the old value is released
// and replaced with a duplicate of the new value; the stored key is left
// untouched since it already matches. Duplicating a nil reference stores a
// nil reference.
func (m *Map[K, V]) PutClone(key K, value V) (existed bool, err error) {
	if m == nil || isNilRef(key) {
		return false, nil
	}
	if err := m.usable(); err != nil {
		return false, err
	}

	h := m.hash(key)
	if e := m.findEntry(key, h); e != nil {
		if e.aliased {
			// The old value is the stored key; it must survive.
			e.aliased = false
		} else {
			m.releaseValue(e.value)
		}
		e.value = m.dupValue(value)
		return true, nil
	}
	m.insert(h, m.dupKey(key), m.dupValue(value))
	return false, nil
}

// Get retrieves the value stored for key, returning ok=false if the key is
// not present.
//
// A key matches an entry if the cached hash matches and either the
// references are identical or the configured equality capability reports
// equal. The identity short-circuit means the exact reference previously
// stored is found even where the equality capability would disagree;
// callers must not rely on that divergence.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	if m == nil || m.cur == 0 || m.hash == nil || m.equal == nil || isNilRef(key) {
		return value, false
	}
	if e := m.findEntry(key, m.hash(key)); e != nil {
		return e.value, true
	}
	return value, false
}

// Contains reports whether key is present in the map.
func (m *Map[K, V]) Contains(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes the entry for key, releasing the key and value via the
// configured destructors (a resource stored as both key and value is
// released once). It reports whether an entry was removed; deleting an
// absent key is a noop.
func (m *Map[K, V]) Delete(key K) bool {
	if m == nil || m.cur == 0 || m.hash == nil || m.equal == nil || isNilRef(key) {
		return false
	}
	_, ok := m.removeEntry(key, true)
	return ok
}

// Detach removes the entry for key without invoking any destructor and
// hands the stored key and value back to the caller, who becomes
// responsible for their lifetime. ok=false if the key is not present.
func (m *Map[K, V]) Detach(key K) (storedKey K, storedValue V, ok bool) {
	if m == nil || m.cur == 0 || m.hash == nil || m.equal == nil || isNilRef(key) {
		return storedKey, storedValue, false
	}
	e, ok := m.removeEntry(key, false)
	if !ok {
		return storedKey, storedValue, false
	}
	return e.key, e.value, true
}

// Clear removes every entry, releasing keys and values via the configured
// destructors. The bucket-array capacity is unchanged.
func (m *Map[K, V]) Clear() {
	if m == nil {
		return
	}
	remaining := m.cur
	for i := 0; i < len(m.buckets) && remaining > 0; i++ {
		for e := m.buckets[i]; e != nil; {
			next := e.next
			m.destroyEntry(e)
			e = next
			remaining--
		}
		m.buckets[i] = nil
	}
	m.cur = 0
}

// Len returns the number of entries in the map. Safe on a nil Map.
func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return m.cur
}

// Browse calls visit for every entry in the map, in bucket order and then
// chain order, until visit returns a non-nil error, which is returned.
// Mutating the map from within visit is unsupported.
func (m *Map[K, V]) Browse(visit func(key K, value V) error) error {
	if m == nil || visit == nil {
		return nil
	}
	remaining := m.cur
	for i := 0; i < len(m.buckets) && remaining > 0; i++ {
		for e := m.buckets[i]; e != nil; e = e.next {
			if err := visit(e.key, e.value); err != nil {
				return err
			}
			remaining--
		}
	}
	return nil
}

// All calls yield sequentially for each key and value present in the map.
// If yield returns false, iteration stops. Mutating the map during
// iteration is unsupported.
func (m *Map[K, V]) All(yield func(key K, value V) bool) {
	if m == nil {
		return
	}
	remaining := m.cur
	for i := 0; i < len(m.buckets) && remaining > 0; i++ {
		for e := m.buckets[i]; e != nil; e = e.next {
			if !yield(e.key, e.value) {
				return
			}
			remaining--
		}
	}
}

// SetHashFunc replaces the hash capability and immediately rehashes every
// entry, recomputing each entry's cached hash under the new function. A nil
// hash is ignored.
func (m *Map[K, V]) SetHashFunc(hash HashFunc[K]) {
	if m == nil || hash == nil {
		return
	}
	m.hash = hash
	if m.buckets != nil {
		m.rehash(len(m.buckets), true)
	}
}

// SetEqualFunc replaces the equality capability. No rehash is needed since
// cached hashes are unaffected. A nil equal is ignored.
func (m *Map[K, V]) SetEqualFunc(equal EqualFunc[K]) {
	if m == nil || equal == nil {
		return
	}
	m.equal = equal
}

// SetKeyDestructor replaces the key destructor. A nil destructor disables
// key destruction.
func (m *Map[K, V]) SetKeyDestructor(destroy DestroyFunc[K]) {
	if m == nil {
		return
	}
	m.keyFree = destroy
}

// SetValueDestructor replaces the value destructor. A nil destructor
// disables value destruction.
func (m *Map[K, V]) SetValueDestructor(destroy DestroyFunc[V]) {
	if m == nil {
		return
	}
	m.valueFree = destroy
}

// SetLoadFactor sets the load factor and recomputes the growth threshold.
// No immediate resize occurs; a resize happens earliest on the next
// insertion of a new key. Default is 0.75.
func (m *Map[K, V]) SetLoadFactor(factor float64) {
	if m == nil {
		return
	}
	m.factor = factor
	m.threshold = int(float64(len(m.buckets)) * m.factor)
}

// SetGrowthPolicy sets the growth policy: a positive growth multiplies the
// capacity on each resize (2 doubles it), a negative growth adds -growth
// buckets, and 0 disables growth entirely so chains lengthen instead.
// Default is 2.
func (m *Map[K, V]) SetGrowthPolicy(growth float64) {
	if m == nil {
		return
	}
	m.growth = growth
}

// usable reports why a mutating operation cannot proceed, if it cannot.
func (m *Map[K, V]) usable() error {
	switch {
	case m.buckets == nil:
		return ErrClosed
	case m.hash == nil:
		return ErrNoHashFunc
	case m.equal == nil:
		return ErrNoEqualFunc
	}
	return nil
}

// findEntry walks the chain of key's bucket looking for a match: identical
// cached hash and (identical reference or equal per the configured
// capability).
func (m *Map[K, V]) findEntry(key K, h uint32) *Entry[K, V] {
	for e := m.buckets[h%uint32(len(m.buckets))]; e != nil; e = e.next {
		if h == e.hash && (refIdentical(key, e.key) || m.equal(key, e.key)) {
			return e
		}
	}
	return nil
}

// insert pushes a new entry at the head of its bucket's chain and grows the
// bucket array if the threshold has been reached.
func (m *Map[K, V]) insert(h uint32, key K, value V) {
	pos := h % uint32(len(m.buckets))
	m.buckets[pos] = &Entry[K, V]{
		key:     key,
		value:   value,
		hash:    h,
		next:    m.buckets[pos],
		aliased: refIdentical(key, value),
	}
	m.cur++

	if m.cur >= m.threshold {
		var newSize int
		if m.growth > 0 {
			newSize = int(float64(len(m.buckets)) * m.growth)
		} else if m.growth < 0 {
			newSize = int(float64(len(m.buckets)) - m.growth)
		}
		// newSize <= 0 means growth is switched off.
		if newSize > 0 {
			m.rehash(newSize, false)
		}
	}
}

// rehash re-threads every entry into a freshly allocated bucket array of
// newCapacity slots, recomputing cached hashes only when the hash function
// changed. Entries are pushed onto the heads of their new chains, which
// reverses relative chain order; order is not a contract. A noop on an
// empty map.
//
// This is the only operation with cost proportional to the entry count.
func (m *Map[K, V]) rehash(newCapacity int, recomputeHash bool) {
	if m.cur == 0 {
		return
	}
	newBuckets := m.allocator.AllocBuckets(newCapacity)
	remaining := m.cur
	for i := 0; i < len(m.buckets) && remaining > 0; i++ {
		for e := m.buckets[i]; e != nil; {
			next := e.next
			if recomputeHash {
				e.hash = m.hash(e.key)
			}
			pos := e.hash % uint32(newCapacity)
			e.next = newBuckets[pos]
			newBuckets[pos] = e
			e = next
			remaining--
		}
	}
	m.allocator.FreeBuckets(m.buckets)
	m.buckets = newBuckets
	m.threshold = int(float64(newCapacity) * m.factor)
}

// removeEntry splices the entry matching key out of its chain, decrementing
// the live count. With destroy set the key is released, and the value too
// unless it aliases the key; the returned entry is then empty. Without
// destroy the entry keeps its references so the caller can take them over.
func (m *Map[K, V]) removeEntry(key K, destroy bool) (*Entry[K, V], bool) {
	h := m.hash(key)
	pos := h % uint32(len(m.buckets))

	var prev *Entry[K, V]
	for e := m.buckets[pos]; e != nil; prev, e = e, e.next {
		if h != e.hash || !(refIdentical(key, e.key) || m.equal(key, e.key)) {
			continue
		}
		if prev != nil {
			prev.next = e.next
		} else {
			m.buckets[pos] = e.next
		}
		e.next = nil
		m.cur--
		if destroy {
			m.destroyEntry(e)
		}
		return e, true
	}
	return nil, false
}

// destroyEntry releases the entry's key, and its value unless it aliases
// the key, then clears the entry. Destructors are never invoked on nil
// references.
func (m *Map[K, V]) destroyEntry(e *Entry[K, V]) {
	m.releaseKey(e.key)
	if !e.aliased {
		m.releaseValue(e.value)
	}
	var zeroK K
	var zeroV V
	e.key = zeroK
	e.value = zeroV
	e.next = nil
	e.aliased = false
}

func (m *Map[K, V]) releaseKey(key K) {
	if m.keyFree != nil && !isNilRef(key) {
		m.keyFree(key)
	}
}

func (m *Map[K, V]) releaseValue(value V) {
	if m.valueFree != nil && !isNilRef(value) {
		m.valueFree(value)
	}
}

func (m *Map[K, V]) dupKey(key K) K {
	if m.cloneKey != nil && !isNilRef(key) {
		return m.cloneKey(key)
	}
	return key
}

func (m *Map[K, V]) dupValue(value V) V {
	if m.cloneValue != nil && !isNilRef(value) {
		return m.cloneValue(value)
	}
	return value
}

// capacity returns the current bucket-array length. For tests.
func (m *Map[K, V]) capacity() int {
	return len(m.buckets)
}
