// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mocus

// A zbdd stores families of cut sets as a zero-suppressed binary decision
// diagram. Vertices are identified by their position in the nodes table;
// positions 0 and 1 are the terminals: 0 denotes the empty family and 1 the
// family holding only the empty set. Every vertex carries a literal and two
// branches: low collects the sets without the literal, high the sets with it
// (stripped of it). A vertex whose high branch is the empty family is never
// built; this zero-suppression rule is what makes the representation
// canonical for sets.
//
// Vertex literals are signed integers. Variables use their graph index, with
// the complemented literal negative; intermediate gates and modules use their
// (always positive) gate index. The vertex order is fixed for the lifetime of
// the diagram: magnitude ascending, and the positive literal before its
// complement. Since gate indices start above every variable index, gates
// always sit in the deepest layers of the diagram.
type zbdd struct {
	nodes     []zvertex
	unique    map[zvertex]int
	numVars   int // number of graph variables; larger magnitudes are gates
	truncated bool

	// memoization caches; families are persistent so entries never go stale
	unionCache   map[[2]int]int
	prodCache    map[[2]int]int
	subsumeCache map[[2]int]int
	minimizeMemo map[int]int
	minimal      map[int]bool
	withoutCache map[[2]int]int
	onsetCache   map[[2]int]int
	complMemo    map[int]int
	pruneCache   map[[2]int]int
}

type zvertex struct {
	v    int // literal of the vertex
	low  int // sets without the literal
	high int // sets with the literal
}

const (
	emptyFamily = 0 // no set at all
	unitFamily  = 1 // only the empty set
)

func newzbdd(numVars int) *zbdd {
	z := &zbdd{
		nodes:        make([]zvertex, 2, 64),
		unique:       make(map[zvertex]int),
		numVars:      numVars,
		unionCache:   make(map[[2]int]int),
		prodCache:    make(map[[2]int]int),
		subsumeCache: make(map[[2]int]int),
		minimizeMemo: make(map[int]int),
		minimal:      make(map[int]bool),
		withoutCache: make(map[[2]int]int),
		onsetCache:   make(map[[2]int]int),
		complMemo:    make(map[int]int),
		pruneCache:   make(map[[2]int]int),
	}
	z.nodes[emptyFamily] = zvertex{}
	z.nodes[unitFamily] = zvertex{}
	return z
}

// before reports whether literal a precedes literal b in the vertex order.
func before(a, b int) bool {
	if abs(a) != abs(b) {
		return abs(a) < abs(b)
	}
	return a > 0 && b < 0
}

// isGate reports whether a vertex literal refers to an intermediate gate.
func (z *zbdd) isGate(v int) bool { return abs(v) > z.numVars }

// makenode is the only constructor of vertices. It applies the
// zero-suppression rule and keeps vertices unique through the unicity table.
func (z *zbdd) makenode(v, low, high int) int {
	if high == emptyFamily {
		return low
	}
	if _DEBUG {
		if low > 1 && !before(v, z.nodes[low].v) {
			panic("mocus: vertex order violated on the low branch")
		}
		if high > 1 && !before(v, z.nodes[high].v) {
			panic("mocus: vertex order violated on the high branch")
		}
	}
	key := zvertex{v: v, low: low, high: high}
	if res, ok := z.unique[key]; ok {
		return res
	}
	res := len(z.nodes)
	z.nodes = append(z.nodes, key)
	z.unique[key] = res
	return res
}

// literal builds the family holding the singleton set {v}.
func (z *zbdd) literal(v int) int {
	return z.makenode(v, emptyFamily, unitFamily)
}

// cutset builds the family holding one cut set made of the given literals.
// The literals must be distinct; order does not matter.
func (z *zbdd) cutset(literals []int) int {
	sorted := make([]int, len(literals))
	copy(sorted, literals)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && before(sorted[j], sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	res := unitFamily
	for i := len(sorted) - 1; i >= 0; i-- {
		res = z.makenode(sorted[i], emptyFamily, res)
	}
	return res
}

// union returns the family holding the sets of both operands.
func (z *zbdd) union(f, g int) int {
	if f == g || g == emptyFamily {
		return f
	}
	if f == emptyFamily {
		return g
	}
	if f == unitFamily || g == unitFamily {
		// attach the empty set to the other operand
		h := f
		if f == unitFamily {
			h = g
		}
		if z.containsEmpty(h) {
			return h
		}
		n := z.nodes[h]
		return z.makenode(n.v, z.union(unitFamily, n.low), n.high)
	}
	if f > g {
		f, g = g, f
	}
	key := [2]int{f, g}
	if res, ok := z.unionCache[key]; ok {
		return res
	}
	nf, ng := z.nodes[f], z.nodes[g]
	var res int
	switch {
	case nf.v == ng.v:
		res = z.makenode(nf.v, z.union(nf.low, ng.low), z.union(nf.high, ng.high))
	case before(nf.v, ng.v):
		res = z.makenode(nf.v, z.union(nf.low, g), nf.high)
	default:
		res = z.makenode(ng.v, z.union(f, ng.low), ng.high)
	}
	z.unionCache[key] = res
	return res
}

// product returns the pairwise unions of the sets of the two operands: the
// family encoding the conjunction of the two Boolean sums of products.
func (z *zbdd) product(f, g int) int {
	if f == emptyFamily || g == emptyFamily {
		return emptyFamily
	}
	if f == unitFamily {
		return g
	}
	if g == unitFamily {
		return f
	}
	if f > g {
		f, g = g, f
	}
	key := [2]int{f, g}
	if res, ok := z.prodCache[key]; ok {
		return res
	}
	nf, ng := z.nodes[f], z.nodes[g]
	var res int
	switch {
	case nf.v == ng.v:
		high := z.union(
			z.product(nf.high, ng.high),
			z.union(z.product(nf.high, ng.low), z.product(nf.low, ng.high)))
		res = z.makenode(nf.v, z.product(nf.low, ng.low), high)
	case before(nf.v, ng.v):
		res = z.makenode(nf.v, z.product(nf.low, g), z.product(nf.high, g))
	default:
		res = z.makenode(ng.v, z.product(ng.low, f), z.product(ng.high, f))
	}
	z.prodCache[key] = res
	return res
}

// containsEmpty reports whether the empty set belongs to the family: the
// all-low path of a ZBDD always leads to the terminal encoding it.
func (z *zbdd) containsEmpty(f int) bool {
	for f > 1 {
		f = z.nodes[f].low
	}
	return f == unitFamily
}

// subsume removes from f every set that contains a set of g.
func (z *zbdd) subsume(f, g int) int {
	if f == emptyFamily || g == emptyFamily {
		return f
	}
	if g == unitFamily {
		return emptyFamily
	}
	if f == unitFamily {
		if z.containsEmpty(g) {
			return emptyFamily
		}
		return f
	}
	key := [2]int{f, g}
	if res, ok := z.subsumeCache[key]; ok {
		return res
	}
	nf, ng := z.nodes[f], z.nodes[g]
	var res int
	switch {
	case before(ng.v, nf.v):
		// no set of f contains ng.v: only the sets of g without it matter
		res = z.subsume(f, ng.low)
	case before(nf.v, ng.v):
		res = z.makenode(nf.v, z.subsume(nf.low, g), z.subsume(nf.high, g))
	default:
		res = z.makenode(nf.v,
			z.subsume(nf.low, ng.low),
			z.subsume(nf.high, z.union(ng.low, ng.high)))
	}
	z.subsumeCache[key] = res
	return res
}

// minimize removes every set that is a strict superset of another set of the
// family, leaving the minimal family. It is idempotent.
func (z *zbdd) minimize(f int) int {
	if f <= 1 || z.minimal[f] {
		return f
	}
	if res, ok := z.minimizeMemo[f]; ok {
		return res
	}
	n := z.nodes[f]
	low := z.minimize(n.low)
	high := z.subsume(z.minimize(n.high), low)
	res := z.makenode(n.v, low, high)
	z.minimizeMemo[f] = res
	z.minimal[res] = true
	return res
}

// without returns the sets of the family that do not contain literal u.
func (z *zbdd) without(f, u int) int {
	if f <= 1 {
		return f
	}
	n := z.nodes[f]
	if n.v == u {
		return n.low
	}
	if before(u, n.v) {
		return f
	}
	key := [2]int{f, u}
	if res, ok := z.withoutCache[key]; ok {
		return res
	}
	res := z.makenode(n.v, z.without(n.low, u), z.without(n.high, u))
	z.withoutCache[key] = res
	return res
}

// onset returns the sets of the family that contain literal u, with u
// removed from each of them.
func (z *zbdd) onset(f, u int) int {
	if f <= 1 {
		return emptyFamily
	}
	n := z.nodes[f]
	if n.v == u {
		return n.high
	}
	if before(u, n.v) {
		return emptyFamily
	}
	key := [2]int{f, u}
	if res, ok := z.onsetCache[key]; ok {
		return res
	}
	res := z.makenode(n.v, z.onset(n.low, u), z.onset(n.high, u))
	z.onsetCache[key] = res
	return res
}

// eliminateComplements cancels every set holding both a literal and its
// complement. With the fixed order the positive literal is always the upper
// vertex, so it suffices to drop, below every positive variable vertex, the
// sets of the high branch that contain the complement.
func (z *zbdd) eliminateComplements(f int) int {
	if f <= 1 {
		return f
	}
	if res, ok := z.complMemo[f]; ok {
		return res
	}
	n := z.nodes[f]
	low := z.eliminateComplements(n.low)
	high := z.eliminateComplements(n.high)
	if n.v > 0 {
		high = z.without(high, -n.v)
	}
	res := z.makenode(n.v, low, high)
	z.complMemo[f] = res
	return res
}

// prune removes the sets with more than budget literals and flags the
// truncation, so that over-limit analyses still report a sound subset of the
// true family.
func (z *zbdd) prune(f, budget int) int {
	if budget < 0 {
		if f != emptyFamily {
			z.truncated = true
		}
		return emptyFamily
	}
	if f <= 1 {
		return f
	}
	key := [2]int{f, budget}
	if res, ok := z.pruneCache[key]; ok {
		return res
	}
	n := z.nodes[f]
	res := z.makenode(n.v, z.prune(n.low, budget), z.prune(n.high, budget-1))
	if res != f {
		z.truncated = true
	}
	z.pruneCache[key] = res
	return res
}

// products enumerates the sets of the family, each reported as a slice of
// literals sorted by the vertex order. Sets taking the high branch of a
// vertex are enumerated before the sets skipping it.
func (z *zbdd) products(f int) [][]int {
	res := [][]int{}
	cur := []int{}
	var walk func(int)
	walk = func(n int) {
		if n == emptyFamily {
			return
		}
		if n == unitFamily {
			set := make([]int, len(cur))
			copy(set, cur)
			res = append(res, set)
			return
		}
		vx := z.nodes[n]
		cur = append(cur, vx.v)
		walk(vx.high)
		cur = cur[:len(cur)-1]
		walk(vx.low)
	}
	walk(f)
	return res
}
