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
	"math/rand"
	"testing"
)

func benchSizes() []int {
	return []int{16, 1024, 65536}
}

func genIntKeys(n int) []int {
	rng := rand.New(rand.NewSource(1234))
	keys := make([]int, n)
	seen := make(map[int]struct{}, n)
	for i := 0; i < n; {
		k := rng.Int()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys[i] = k
		i++
	}
	return keys
}

func BenchmarkMapGet(b *testing.B) {
	for _, n := range benchSizes() {
		keys := genIntKeys(n)
		b.Run(fmt.Sprintf("impl=runtimeMap/n=%d", n), func(b *testing.B) {
			m := make(map[int]int, n)
			for _, k := range keys {
				m[k] = k
			}
			b.ResetTimer()
			var sink int
			for i := 0; i < b.N; i++ {
				sink += m[keys[i%n]]
			}
		})
		b.Run(fmt.Sprintf("impl=chainMap/n=%d", n), func(b *testing.B) {
			m := newIntMapBench(n)
			for _, k := range keys {
				m.Put(k, k)
			}
			b.ResetTimer()
			var sink int
			for i := 0; i < b.N; i++ {
				v, _ := m.Get(keys[i%n])
				sink += v
			}
		})
	}
}

func BenchmarkMapPutDelete(b *testing.B) {
	for _, n := range benchSizes() {
		keys := genIntKeys(n)
		b.Run(fmt.Sprintf("impl=runtimeMap/n=%d", n), func(b *testing.B) {
			m := make(map[int]int, n)
			for _, k := range keys {
				m[k] = k
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				k := keys[i%n]
				delete(m, k)
				m[k] = k
			}
		})
		b.Run(fmt.Sprintf("impl=chainMap/n=%d", n), func(b *testing.B) {
			m := newIntMapBench(n)
			for _, k := range keys {
				m.Put(k, k)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				k := keys[i%n]
				m.Delete(k)
				m.Put(k, k)
			}
		})
	}
}

func newIntMapBench(initialCapacity int) *Map[int, int] {
	return New[int, int](initialCapacity, IntegerHash[int], ComparableEqual[int])
}
