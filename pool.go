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

// Package strpool implements a string-interning pool: given a byte
// sequence, it returns a canonical, shared string with that content,
// allocating the string only the first time the content is seen. A
// runtime that repeatedly observes the same identifiers, literals, and
// symbols pays for each distinct string once and afterwards gets the
// pooled copy back for the price of a hash and a comparison.
//
// The pool is an open-addressing hash table. If you're not familiar
// with open-addressing see https://en.wikipedia.org/wiki/Open_addressing.
// Two parallel arrays of equal power-of-two length are probed in
// lock-step: a hash array holding 64-bit content hashes and a value
// array holding the pooled strings. A hash of zero marks an empty slot.
// To keep zero available as the empty sentinel, the high bit of every
// content hash is forced on before it is stored or compared, so a real
// hash is never zero even if the underlying hash function returns zero
// for some input.
//
// Collisions are resolved with quadratic probing using the triangular
// numbers: successive offsets from the initial index are 1, 3, 6, 10, …
// Combined with a power-of-two capacity this sequence visits every slot
// exactly once before repeating (see
// https://en.wikipedia.org/wiki/Quadratic_probing), so probing always
// terminates at an empty slot or a match. The table grows by doubling
// before occupancy exceeds 3/4 of capacity, which keeps probe chains
// short in practice. There is no delete operation: interning is
// permanent for the lifetime of the pool, which is what lets the table
// dispense with tombstones entirely.
//
// A StringPool is NOT goroutine-safe. Callers that share a pool across
// goroutines must provide their own synchronization; no operation may
// be interleaved with a concurrent Get on the same instance, including
// the read-only Lookup, since Get may be mid-rehash.
package strpool

import (
	"fmt"
	"math/bits"
	"math/rand/v2"
	"strings"
	"unsafe"

	"github.com/zeebo/xxh3"
)

const (
	debug = false

	// minCapacity is the smallest table size. Capacities are always
	// powers of two so that probe indices can be computed with a mask.
	minCapacity = 8

	// emptyHash marks an unoccupied slot. Stored hashes always have
	// highBit set and therefore can never collide with it.
	emptyHash = 0
	highBit   = uint64(1) << 63
)

// hashFn hashes the bytes of a key with a per-pool seed. The pool
// treats the function as an oracle: any deterministic 64-bit hash with
// reasonable distribution on short inputs will do.
type hashFn func(b []byte, seed uint64) uint64

func defaultHash(b []byte, seed uint64) uint64 {
	return xxh3.HashSeed(b, seed)
}

// StringPool is a canonicalizing string pool with Get, Lookup, and
// Rehash operations. The zero value is not usable; construct pools
// with New.
type StringPool struct {
	// The hash function applied to key bytes. Defaults to xxh3.
	hash hashFn
	seed uint64
	// The allocator to use for the hash and value slot arrays.
	allocator Allocator
	// hashes and values are parallel arrays of capacity slots, probed
	// in lock-step. hashes[i] == emptyHash means slot i is vacant and
	// values[i] is semantically unused (it is always "" then).
	hashes []uint64
	values []string
	// The total number of slots, always a power of two >= minCapacity.
	// capacity-1 is used as a mask to compute i%capacity cheaply.
	capacity int
	// The number of occupied slots.
	size int
}

// New constructs a StringPool with the specified initial capacity,
// rounded up to the next power of two with a floor of 8. An initial
// capacity of 0 is valid and yields the minimum table size.
func New(initialCapacity int, options ...Option) *StringPool {
	p := &StringPool{
		hash:      defaultHash,
		seed:      rand.Uint64(),
		allocator: defaultAllocator{},
		capacity:  normalizeCapacity(initialCapacity),
	}

	for _, op := range options {
		op.apply(p)
	}

	p.hashes = p.allocator.AllocHashes(p.capacity)
	p.values = p.allocator.AllocValues(p.capacity)
	p.checkInvariants()
	return p
}

// normalizeCapacity returns the smallest power of two that is >= n,
// with a floor of minCapacity.
func normalizeCapacity(n int) int {
	if n <= minCapacity {
		return minCapacity
	}
	return 1 << bits.Len(uint(n-1))
}

// Close closes the pool, releasing the slot arrays back to its
// configured allocator. It is unnecessary to close a pool using the
// default allocator. It is invalid to use a StringPool after it has
// been closed, though Close itself is idempotent. Strings previously
// returned by Get remain valid.
func (p *StringPool) Close() {
	if p.capacity > 0 {
		p.allocator.FreeHashes(p.hashes)
		p.allocator.FreeValues(p.values)
		p.capacity = 0
		p.size = 0
		p.hashes = nil
		p.values = nil
	}
	p.allocator = nil
}

// Len returns the number of distinct strings in the pool.
func (p *StringPool) Len() int {
	return p.size
}

// Empty reports whether the pool contains no strings.
func (p *StringPool) Empty() bool {
	return p.size == 0
}

// Cap returns the current slot capacity of the pool.
func (p *StringPool) Cap() int {
	return p.capacity
}

// Get returns the pooled string with the content of b, inserting a
// freshly allocated copy of b if the content has not been seen before.
// Repeated calls with equal content return the same string instance,
// backed by the same memory. Get never retains b itself.
func (p *StringPool) Get(b []byte) string {
	h := p.canonicalHash(b)
	seq := makeProbeSeq(h, uint64(p.capacity-1))
	if debug {
		fmt.Printf("get(%q): %s\n", b, seq)
	}

	for ; ; seq = seq.next() {
		g := p.hashes[seq.offset]
		if g == emptyHash {
			return p.insert(h, b, seq.offset)
		}
		if g == h && p.values[seq.offset] == unsafeString(b) {
			return p.values[seq.offset]
		}
	}
}

// GetString is Get for a string key. The insertion path stores a copy,
// never s itself, so pooled data is always owned by the pool.
func (p *StringPool) GetString(s string) string {
	return p.Get(unsafeBytes(s))
}

// Lookup returns the pooled string with the content of b, or ok=false
// if the content has not been interned. Lookup never mutates the pool.
func (p *StringPool) Lookup(b []byte) (value string, ok bool) {
	h := p.canonicalHash(b)
	seq := makeProbeSeq(h, uint64(p.capacity-1))
	if debug {
		fmt.Printf("lookup(%q): %s\n", b, seq)
	}

	for ; ; seq = seq.next() {
		g := p.hashes[seq.offset]
		if g == emptyHash {
			return "", false
		}
		if g == h && p.values[seq.offset] == unsafeString(b) {
			return p.values[seq.offset], true
		}
	}
}

// LookupString is Lookup for a string key.
func (p *StringPool) LookupString(s string) (string, bool) {
	return p.Lookup(unsafeBytes(s))
}

// insert places a new entry at the empty slot i found by a probe for h.
// If the table is at its load-factor bound it is grown first; the probe
// is then restarted since the insertion slot moves with the capacity.
func (p *StringPool) insert(h uint64, b []byte, i uint64) string {
	// Grow before occupancy exceeds 3/4 of capacity. The bound
	// guarantees a probe always reaches an empty slot well before
	// exhausting its cycle through the table.
	if p.size >= (p.capacity>>2)*3 {
		p.Rehash()
		i = p.findEmpty(h)
	}

	v := string(b)
	p.hashes[i] = h
	p.values[i] = v
	p.size++
	if debug {
		fmt.Printf("insert(%q): index=%d size=%d\n", v, i, p.size)
	}
	p.checkInvariants()
	return v
}

// findEmpty probes for the empty slot at which an entry with hash h
// belongs. Only valid for hashes known not to be in the table: no
// equality checks are performed.
func (p *StringPool) findEmpty(h uint64) uint64 {
	seq := makeProbeSeq(h, uint64(p.capacity-1))
	for ; p.hashes[seq.offset] != emptyHash; seq = seq.next() {
	}
	return seq.offset
}

// Rehash doubles the pool's capacity and redistributes every entry
// into the new slot arrays by its stored hash. Rehash is invoked
// automatically by Get when the load-factor bound is reached; it can
// also be called directly by a caller that has modified pooled string
// data in place (possible only through unsafe) and needs the table
// redistributed. Rehash panics if the doubled capacity is not
// representable. The pool's contents and Len are unchanged.
func (p *StringPool) Rehash() {
	newCapacity := p.capacity * 2
	if newCapacity <= 0 {
		panic("strpool: pool too big")
	}
	if debug {
		fmt.Printf("rehash: capacity=%d->%d size=%d\n", p.capacity, newCapacity, p.size)
	}

	oldCapacity := p.capacity
	oldHashes, oldValues := p.hashes, p.values
	p.hashes = p.allocator.AllocHashes(newCapacity)
	p.values = p.allocator.AllocValues(newCapacity)
	p.capacity = newCapacity

	// Entries are known-distinct so placement order is irrelevant and
	// no equality checks are needed.
	for i := 0; i < oldCapacity; i++ {
		h := oldHashes[i]
		if h == emptyHash {
			continue
		}
		j := p.findEmpty(h)
		p.hashes[j] = h
		p.values[j] = oldValues[i]
	}

	p.allocator.FreeHashes(oldHashes)
	p.allocator.FreeValues(oldValues)
	p.checkInvariants()
}

// canonicalHash hashes b and forces the high bit on. The result is
// never emptyHash, preserving the zero sentinel regardless of what the
// hash function produces, and doubles as a fast pre-filter before the
// exact byte comparison.
func (p *StringPool) canonicalHash(b []byte) uint64 {
	return p.hash(b, p.seed) | highBit
}

func (p *StringPool) checkInvariants() {
	if invariants {
		if p.capacity < minCapacity || p.capacity&(p.capacity-1) != 0 {
			panic(fmt.Sprintf("invariant failed: capacity %d is not a power of two >= %d",
				p.capacity, minCapacity))
		}
		if len(p.hashes) != p.capacity || len(p.values) != p.capacity {
			panic(fmt.Sprintf("invariant failed: slot arrays have lengths %d/%d, capacity is %d",
				len(p.hashes), len(p.values), p.capacity))
		}

		// For every occupied slot, verify the stored hash matches the
		// stored content and that the content is findable via Lookup.
		// Count the occupied slots.
		var size int
		for i, g := range p.hashes {
			if g == emptyHash {
				if p.values[i] != "" {
					panic(fmt.Sprintf("invariant failed: slot(%d): empty but holds %q\n%s",
						i, p.values[i], p.debugString()))
				}
				continue
			}
			size++
			if h := p.canonicalHash(unsafeBytes(p.values[i])); h != g {
				panic(fmt.Sprintf("invariant failed: slot(%d): %q stored hash %016x != %016x\n%s",
					i, p.values[i], g, h, p.debugString()))
			}
			if _, ok := p.Lookup(unsafeBytes(p.values[i])); !ok {
				panic(fmt.Sprintf("invariant failed: slot(%d): %q not found\n%s",
					i, p.values[i], p.debugString()))
			}
		}

		if size != p.size {
			panic(fmt.Sprintf("invariant failed: found %d occupied slots, but size is %d\n%s",
				size, p.size, p.debugString()))
		}
		if p.size > (p.capacity>>2)*3 {
			panic(fmt.Sprintf("invariant failed: size %d exceeds 3/4 of capacity %d\n%s",
				p.size, p.capacity, p.debugString()))
		}
	}
}

func (p *StringPool) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  size=%d\n", p.capacity, p.size)
	for i, g := range p.hashes {
		if g == emptyHash {
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
		} else {
			fmt.Fprintf(&buf, "  %4d: %q [hash=%016x]\n", i, p.values[i], g)
		}
	}
	return buf.String()
}

// probeSeq maintains the state for a probe sequence. The sequence is a
// triangular progression of the form
//
//	p(i) := (i^2 + i)/2 + hash (mod mask+1)
//
// It turns out that this probe sequence visits every slot exactly once
// if the number of slots is a power of two, since (i^2+i)/2 is a
// bijection in Z/(2^m). See
// https://en.wikipedia.org/wiki/Quadratic_probing
type probeSeq struct {
	mask   uint64
	offset uint64
	index  uint64
}

func makeProbeSeq(hash, mask uint64) probeSeq {
	return probeSeq{
		mask:   mask,
		offset: hash & mask,
		index:  0,
	}
}

func (s probeSeq) next() probeSeq {
	s.index++
	s.offset = (s.offset + s.index) & s.mask
	return s
}

func (s probeSeq) String() string {
	return fmt.Sprintf("mask=%d offset=%d index=%d", s.mask, s.offset, s.index)
}

// unsafeString returns a string view over b without copying. The view
// is only used transiently for comparisons and hashing; pooled entries
// are always backed by their own copy.
func unsafeString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// unsafeBytes returns a byte view over the bytes of s without copying.
// The view must not be written through.
func unsafeBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
