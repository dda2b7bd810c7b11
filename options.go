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

// Option provides an interface to do work on a StringPool while it is
// being created.
type Option interface {
	apply(p *StringPool)
}

type hashOption struct {
	hash hashFn
}

func (op hashOption) apply(p *StringPool) {
	p.hash = op.hash
}

// WithHash is an option to specify the hash function to use for a
// StringPool. The pool forces the high bit of the function's output
// before storing or comparing it, so even a degenerate hash that
// returns 0 is safe (though slow).
func WithHash(hash func(b []byte, seed uint64) uint64) Option {
	return hashOption{hash}
}

type seedOption struct {
	seed uint64
}

func (op seedOption) apply(p *StringPool) {
	p.seed = op.seed
}

// WithSeed is an option to fix the seed passed to the pool's hash
// function. By default each pool draws a random seed.
func WithSeed(seed uint64) Option {
	return seedOption{seed}
}

// Allocator specifies an interface for allocating and releasing memory
// used by a StringPool. The default allocator utilizes Go's builtin
// make() and allows the GC to reclaim memory.
//
// If the allocator is manually managing memory and requires that the
// hash and value slot arrays be freed then StringPool.Close must be
// called in order to ensure FreeHashes and FreeValues are called.
type Allocator interface {
	// AllocHashes should return a slice equivalent to make([]uint64, n).
	AllocHashes(n int) []uint64

	// AllocValues should return a slice equivalent to make([]string, n).
	AllocValues(n int) []string

	// FreeHashes can optionally release the memory associated with the
	// supplied slice that is guaranteed to have been allocated by
	// AllocHashes.
	FreeHashes(v []uint64)

	// FreeValues can optionally release the memory associated with the
	// supplied slice that is guaranteed to have been allocated by
	// AllocValues.
	FreeValues(v []string)
}

type defaultAllocator struct{}

func (defaultAllocator) AllocHashes(n int) []uint64 {
	return make([]uint64, n)
}

func (defaultAllocator) AllocValues(n int) []string {
	return make([]string, n)
}

func (defaultAllocator) FreeHashes(v []uint64) {
}

func (defaultAllocator) FreeValues(v []string) {
}

type allocatorOption struct {
	allocator Allocator
}

func (op allocatorOption) apply(p *StringPool) {
	p.allocator = op.allocator
}

// WithAllocator is an option to specify the Allocator to use for a
// StringPool.
func WithAllocator(allocator Allocator) Option {
	return allocatorOption{allocator}
}
