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

import "reflect"

// refIdentical reports whether a and b are the same reference, i.e. name
// the same underlying resource. Pointers, maps, channels, functions, and
// unsafe pointers are identical when they point at the same object; slices
// when they share the same data pointer and length. Value kinds (strings,
// integers, structs, ...) carry no distinct resource identity, so identity
// degenerates to equality when the type is comparable, and to false
// otherwise. Values of different dynamic types are never identical.
func refIdentical(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	va := reflect.ValueOf(a)
	vb := reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan, reflect.Func:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Len() == vb.Len() && va.UnsafePointer() == vb.UnsafePointer()
	default:
		return va.Comparable() && va.Equal(vb)
	}
}

// isNilRef reports whether v is a nil reference: a nil interface or a nil
// pointer, slice, map, channel, or function. Non-reference kinds are never
// nil.
func isNilRef(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice:
		return rv.IsNil()
	case reflect.UnsafePointer:
		return rv.UnsafePointer() == nil
	}
	return false
}
