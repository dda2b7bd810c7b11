// Copyright 2026 The strpool Authors
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

package strpool

import (
	"strconv"
	"testing"

	"github.com/aclements/go-perfevent/perfbench"
)

// mapInterner is the baseline: interning through a builtin
// map[string]string keyed by a converted copy of the bytes.
type mapInterner map[string]string

func (m mapInterner) get(b []byte) string {
	if v, ok := m[string(b)]; ok {
		return v
	}
	v := string(b)
	m[v] = v
	return v
}

func benchSizes(f func(b *testing.B, n int)) func(*testing.B) {
	var cases = []int{
		6, 12, 18, 24, 30,
		64,
		128,
		256,
		512,
		1024,
		2048,
		4096,
		8192,
		1 << 16,
	}

	return func(b *testing.B) {
		for _, n := range cases {
			b.Run("len="+strconv.Itoa(n), func(b *testing.B) { f(b, n) })
		}
	}
}

func genKeys(start, end int) [][]byte {
	keys := make([][]byte, end-start)
	for i := range keys {
		keys[i] = []byte(strconv.Itoa(start + i))
	}
	return keys
}

func BenchmarkGetHit(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapGetHit))
	b.Run("impl=stringPool", benchSizes(benchmarkStringPoolGetHit))
}

func BenchmarkGetMiss(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapGetMiss))
	b.Run("impl=stringPool", benchSizes(benchmarkStringPoolGetMiss))
}

func BenchmarkGetGrow(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapGetGrow))
	b.Run("impl=stringPool", benchSizes(benchmarkStringPoolGetGrow))
}

func benchmarkRuntimeMapGetHit(b *testing.B, n int) {
	cs := perfbench.Open(b)
	cs.Stop()
	m := make(mapInterner)
	keys := genKeys(0, n)
	for _, k := range keys {
		m.get(k)
	}
	b.ResetTimer()
	cs.Start()
	for i := 0; i < b.N; i++ {
		_ = m.get(keys[i%n])
	}
}

func benchmarkStringPoolGetHit(b *testing.B, n int) {
	cs := perfbench.Open(b)
	cs.Stop()
	p := New(n)
	keys := genKeys(0, n)
	for _, k := range keys {
		p.Get(k)
	}
	b.ResetTimer()
	cs.Start()
	for i := 0; i < b.N; i++ {
		_ = p.Get(keys[i%n])
	}
}

func benchmarkRuntimeMapGetMiss(b *testing.B, n int) {
	cs := perfbench.Open(b)
	cs.Stop()
	m := make(mapInterner)
	keys := genKeys(0, n)
	miss := genKeys(-n, 0)
	for _, k := range keys {
		m.get(k)
	}
	b.ResetTimer()
	cs.Start()
	for i := 0; i < b.N; i++ {
		_, _ = m[string(miss[i%n])]
	}
}

func benchmarkStringPoolGetMiss(b *testing.B, n int) {
	cs := perfbench.Open(b)
	cs.Stop()
	p := New(n)
	keys := genKeys(0, n)
	miss := genKeys(-n, 0)
	for _, k := range keys {
		p.Get(k)
	}
	b.ResetTimer()
	cs.Start()
	for i := 0; i < b.N; i++ {
		_, _ = p.Lookup(miss[i%n])
	}
}

func benchmarkRuntimeMapGetGrow(b *testing.B, n int) {
	cs := perfbench.Open(b)
	cs.Stop()
	keys := genKeys(0, n)
	b.ResetTimer()
	cs.Start()
	for i := 0; i < b.N; i++ {
		m := make(mapInterner)
		for _, k := range keys {
			_ = m.get(k)
		}
	}
}

func benchmarkStringPoolGetGrow(b *testing.B, n int) {
	cs := perfbench.Open(b)
	cs.Stop()
	keys := genKeys(0, n)
	b.ResetTimer()
	cs.Start()
	for i := 0; i < b.N; i++ {
		p := New(0)
		for _, k := range keys {
			_ = p.Get(k)
		}
	}
}
