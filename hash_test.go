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
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringHash(t *testing.T) {
	require.Equal(t, StringHash("hello"), StringHash("hello"))
	require.NotEqual(t, StringHash("hello"), StringHash("world"))
	// StringHash and BytesHash agree on the same byte content so string
	// and []byte keyed tables hash compatibly.
	require.Equal(t, StringHash("hello"), BytesHash([]byte("hello")))
}

func TestIntegerHash(t *testing.T) {
	require.Equal(t, IntegerHash(42), IntegerHash(42))
	require.NotEqual(t, IntegerHash(42), IntegerHash(43))
	// Signed and unsigned representations of the same bits hash alike.
	require.Equal(t, IntegerHash(int64(-1)), IntegerHash(^uint64(0)))

	// Sanity-check distribution over a small bucket count.
	const buckets = 16
	var used [buckets]bool
	for i := 0; i < 1000; i++ {
		used[IntegerHash(i)%buckets] = true
	}
	for i, ok := range used {
		require.True(t, ok, fmt.Sprintf("bucket %d never hit", i))
	}
}

func TestEqualFuncs(t *testing.T) {
	require.True(t, ComparableEqual("a", "a"))
	require.False(t, ComparableEqual("a", "b"))
	require.True(t, BytesEqual([]byte("a"), []byte("a")))
	require.False(t, BytesEqual([]byte("a"), nil))
	require.True(t, BytesEqual(nil, nil))
}

func TestRefIdentical(t *testing.T) {
	a := &resource{id: 1}
	b := &resource{id: 1}
	require.True(t, refIdentical(a, a))
	require.False(t, refIdentical(a, b))

	s := []byte("xyz")
	require.True(t, refIdentical(s, s))
	require.False(t, refIdentical(s, []byte("xyz")))

	// Value kinds degenerate to equality.
	require.True(t, refIdentical("x", "x"))
	require.False(t, refIdentical("x", "y"))
	require.True(t, refIdentical(7, 7))

	// Mismatched or nil operands are never identical.
	require.False(t, refIdentical(a, 1))
	require.False(t, refIdentical(nil, a))
	require.False(t, refIdentical(nil, nil))
}

func TestIsNilRef(t *testing.T) {
	require.True(t, isNilRef(nil))
	require.True(t, isNilRef((*resource)(nil)))
	require.True(t, isNilRef([]byte(nil)))
	require.False(t, isNilRef(&resource{}))
	require.False(t, isNilRef([]byte{}))
	require.False(t, isNilRef(""))
	require.False(t, isNilRef(0))
}
