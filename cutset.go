// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mocus

import (
	"fmt"
	"sort"
)

// CutSetContainer accumulates the cut sets of one module during MOCUS
// expansion. Cut sets live in a ZBDD whose vertices are either basic event
// literals or references to gates that still await expansion. The container
// is created empty; the driver merges the one-level conversion of the module
// gate, expands intermediate gates until none is left, and finally
// minimizes, cancels complements, and substitutes module results.
//
// Families are referenced by opaque integer handles that are only meaningful
// for the container that produced them.
type CutSetContainer struct {
	z       *zbdd
	root    int          // the accumulated family
	limit   int          // maximum product order, 0 for no limit
	modules map[int]bool // indices of module gates seen during conversion
	// modules whose sub-analysis produced a constant family, resolved by
	// EliminateConstantModules
	constant map[int]int
}

func newCutSetContainer(numVars, limit int) *CutSetContainer {
	return &CutSetContainer{
		z:        newzbdd(numVars),
		root:     emptyFamily,
		limit:    limit,
		modules:  make(map[int]bool),
		constant: make(map[int]int),
	}
}

// ConvertGate returns the family for the one-level expansion of a gate: the
// single cut set of all children for an and gate, the union of singleton cut
// sets for an or gate, all the K-subsets of the children for an atleast
// gate, and the wrapped child for a pass-through. Gate children enter the
// family as intermediate gate literals; their module flags are recorded so
// that module gates are substituted instead of expanded.
func (c *CutSetContainer) ConvertGate(g *Gate) int {
	literals := make([]int, 0, len(g.children))
	for _, k := range g.Children() {
		if child, ok := g.gates[k]; ok {
			if k < 0 {
				panic("mocus: complemented gate edge in normal form")
			}
			if child.IsModule() {
				c.modules[k] = true
			}
		}
		literals = append(literals, k)
	}
	switch g.Type() {
	case OpAnd:
		return c.z.cutset(literals)
	case OpOr:
		res := emptyFamily
		for _, v := range literals {
			res = c.z.union(res, c.z.literal(v))
		}
		return res
	case OpAtleast:
		sort.Slice(literals, func(i, j int) bool { return before(literals[i], literals[j]) })
		return c.choose(literals, g.VoteNumber())
	case OpNull:
		return c.z.literal(literals[0])
	case OpNot:
		return c.z.literal(-literals[0])
	}
	panic(fmt.Sprintf("mocus: conversion of a %s gate", g.Type()))
}

// choose builds the union of all the cut sets made of k literals taken from
// the ordered tail of literals.
func (c *CutSetContainer) choose(literals []int, k int) int {
	if k <= 0 {
		return unitFamily
	}
	if len(literals) < k {
		return emptyFamily
	}
	with := c.choose(literals[1:], k-1)
	without := c.choose(literals[1:], k)
	return c.z.makenode(literals[0], without, with)
}

// Merge adds the sets of a family to the accumulated cut sets.
func (c *CutSetContainer) Merge(family int) {
	c.root = c.z.union(c.root, family)
	if c.limit > 0 {
		c.root = c.z.prune(c.root, c.limit)
	}
}

// ExpandGate returns the product of the one-level expansion of a gate with
// the cut sets that were referencing the gate.
func (c *CutSetContainer) ExpandGate(gateFamily, cutSets int) int {
	return c.z.product(gateFamily, cutSets)
}

// ExtractIntermediateCutSets removes from the accumulated family every cut
// set holding a reference to gate index g, and returns those sets with the
// reference stripped.
func (c *CutSetContainer) ExtractIntermediateCutSets(g int) int {
	with := c.z.onset(c.root, g)
	c.root = c.z.without(c.root, g)
	return with
}

// GetNextGate returns the smallest non-module gate index referenced by the
// accumulated family, or 0 if none is left. Expanding the lowest index first
// postpones the deeper gates, which preserves sharing.
func (c *CutSetContainer) GetNextGate() int {
	best := 0
	c.walkGates(func(v int) {
		if !c.modules[v] && (best == 0 || v < best) {
			best = v
		}
	})
	return best
}

// GatherModules returns the module gate indices referenced by the
// accumulated family.
func (c *CutSetContainer) GatherModules() []int {
	seen := make(map[int]bool)
	c.walkGates(func(v int) {
		if c.modules[v] {
			seen[v] = true
		}
	})
	res := make([]int, 0, len(seen))
	for v := range seen {
		res = append(res, v)
	}
	sort.Ints(res)
	return res
}

// walkGates calls f on every gate literal of the accumulated family.
func (c *CutSetContainer) walkGates(f func(int)) {
	visited := make(map[int]bool)
	var walk func(int)
	walk = func(n int) {
		if n <= 1 || visited[n] {
			return
		}
		visited[n] = true
		vx := c.z.nodes[n]
		if c.z.isGate(vx.v) {
			f(vx.v)
		}
		walk(vx.low)
		walk(vx.high)
	}
	walk(c.root)
}

// Minimize removes every cut set that is a strict superset of another from
// the accumulated family. It is idempotent.
func (c *CutSetContainer) Minimize() {
	c.root = c.z.minimize(c.root)
}

// EliminateComplements cancels the cut sets holding a variable together with
// its complement. It only matters for non-coherent trees.
func (c *CutSetContainer) EliminateComplements() {
	c.root = c.z.eliminateComplements(c.root)
}

// JoinModule substitutes the cut sets computed by the sub-analysis of module
// m into the accumulated family. A constant sub-result is recorded and
// resolved by EliminateConstantModules instead.
func (c *CutSetContainer) JoinModule(m int, sub *CutSetContainer) {
	if sub.z.truncated {
		c.z.truncated = true
	}
	family := c.copyFamily(sub, sub.root, make(map[int]int))
	if family <= 1 {
		c.constant[m] = family
		return
	}
	on := c.z.onset(c.root, m)
	off := c.z.without(c.root, m)
	c.root = c.z.union(off, c.z.product(on, family))
	if c.limit > 0 {
		c.root = c.z.prune(c.root, c.limit)
	}
}

// copyFamily imports a family from another container vertex by vertex.
func (c *CutSetContainer) copyFamily(from *CutSetContainer, f int, memo map[int]int) int {
	if f <= 1 {
		return f
	}
	if res, ok := memo[f]; ok {
		return res
	}
	vx := from.z.nodes[f]
	res := c.z.makenode(vx.v,
		c.copyFamily(from, vx.low, memo),
		c.copyFamily(from, vx.high, memo))
	memo[f] = res
	return res
}

// EliminateConstantModules resolves the modules whose sub-result was a
// constant family: cut sets holding a module that cannot fire are dropped,
// and references to a module that always fires are erased from their sets.
func (c *CutSetContainer) EliminateConstantModules() {
	for m, family := range c.constant {
		if family == emptyFamily {
			c.root = c.z.without(c.root, m)
			continue
		}
		c.root = c.z.union(c.z.without(c.root, m), c.z.onset(c.root, m))
	}
	c.constant = make(map[int]int)
}

// Products enumerates the accumulated cut sets, each as a slice of signed
// variable indices sorted by magnitude.
func (c *CutSetContainer) Products() [][]int {
	return c.z.products(c.root)
}

// Truncated reports whether some cut sets were dropped because they exceeded
// the configured product order limit.
func (c *CutSetContainer) Truncated() bool {
	return c.z.truncated
}
