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

import (
	"bytes"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/constraints"
)

// HashFunc hashes a key to the table's 32-bit hash width. A HashFunc must
// be deterministic and must agree with the table's EqualFunc: equal keys
// must produce equal hashes.
type HashFunc[K any] func(key K) uint32

// EqualFunc reports whether two keys are equal.
type EqualFunc[K any] func(a, b K) bool

// StringHash is a HashFunc[string] backed by xxHash.
func StringHash(key string) uint32 {
	return uint32(xxhash.Sum64String(key))
}

// BytesHash is a HashFunc[[]byte] backed by xxHash.
func BytesHash(key []byte) uint32 {
	return uint32(xxhash.Sum64(key))
}

// IntegerHash is a HashFunc over any integer key type, hashing the key's
// 64-bit little-endian representation with xxHash.
func IntegerHash[T constraints.Integer](key T) uint32 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(key))
	return uint32(xxhash.Sum64(b[:]))
}

// ComparableEqual is an EqualFunc for any comparable key type.
func ComparableEqual[T comparable](a, b T) bool {
	return a == b
}

// BytesEqual is an EqualFunc[[]byte].
func BytesEqual(a, b []byte) bool {
	return bytes.Equal(a, b)
}
