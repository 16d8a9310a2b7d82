// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package cache

import "sync"

// Generation orders read-through fills against invalidation. A loader takes
// the current generation before it reads from the source of truth and stores
// its result with Fill. Invalidate bumps the generation, so a result that was
// read before an invalidation is never written back.
type Generation struct {
	mu sync.Mutex
	n  uint64
}

// Current returns the current generation.
func (g *Generation) Current() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// Invalidate starts a new generation and runs drop while no fill can happen.
func (g *Generation) Invalidate(drop func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	if drop != nil {
		drop()
	}
}

// Fill runs store if the generation is still n and reports whether it did.
func (g *Generation) Fill(n uint64, store func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.n != n {
		return false
	}
	store()
	return true
}
