// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mocus

import "log"

// The MOCUS engine expects a graph in negation normal form: only and/or and
// atleast gates, complements pushed onto variable edges, and modules marked.
// The preprocessor below is the minimal rewrite pipeline establishing that
// form: constant propagation, pass-through elimination, De Morgan
// transformations, coalescing of nested gates of the same operator, and
// visit-time based module detection. It runs once per graph, before the
// first analysis.

type preprocessor struct {
	graph   *Graph
	time    int
	changed bool
}

func (g *Graph) prepare() {
	if g.prepared {
		return
	}
	g.prepared = true
	p := &preprocessor{graph: g}
	p.run()
}

func (p *preprocessor) run() {
	for {
		p.changed = false
		p.wrapNegatedRoot()
		p.propagateConstants(p.graph.root, make(map[int]bool))
		if p.graph.root.state != StateNormal {
			return
		}
		p.normalizeGates(p.graph.root, make(map[int]bool))
		p.propagateComplements(p.graph.root, make(map[int]*Gate), make(map[int]bool))
		p.coalesceGates(p.graph.root, make(map[int]bool))
		if !p.changed {
			break
		}
	}
	p.promoteRoot()
	root := p.graph.root
	if _LOGLEVEL > 0 {
		log.Printf("normalized graph, root %s\n", root.name())
	}
	if root.state != StateNormal || len(root.gates) == 0 && root.op == OpNull {
		return
	}
	p.detectModules()
}

// wrapNegatedRoot removes a negation at the root of the graph: a not gate
// becomes a pass-through with a complemented edge, and nand/nor roots become
// and/or below a complemented pass-through edge.
func (p *preprocessor) wrapNegatedRoot() {
	root := p.graph.root
	switch root.op {
	case OpNot:
		inner := root.Children()[0]
		n := root.childNode(inner)
		root.EraseAllChildren()
		wrap := p.graph.NewGate(OpNull)
		wrap.addNode(-inner, n)
		p.graph.root = wrap
	case OpNand, OpNor:
		if root.op == OpNand {
			root.op = OpAnd
		} else {
			root.op = OpOr
		}
		wrap := p.graph.NewGate(OpNull)
		wrap.AddChildGate(-root.index, root)
		p.graph.root = wrap
	}
}

// ************************************************************

// propagateConstants eliminates constant children, in post-order so that a
// collapse deep in the graph cascades to the root in a single pass. Both
// Constant nodes and gates whose state is null or unity are constants.
func (p *preprocessor) propagateConstants(g *Gate, visited map[int]bool) {
	if visited[g.index] {
		return
	}
	visited[g.index] = true
	for _, k := range g.Children() {
		if g.state != StateNormal {
			return
		}
		if !g.children[k] {
			continue
		}
		if child, ok := g.gates[k]; ok {
			p.propagateConstants(child, visited)
			if child.state != StateNormal {
				b := child.state == StateUnity
				if k < 0 {
					b = !b
				}
				p.processConstant(g, k, b)
			}
			continue
		}
		if child, ok := g.consts[k]; ok {
			b := child.state
			if k < 0 {
				b = !b
			}
			p.processConstant(g, k, b)
		}
	}
	if g.state == StateNormal {
		p.normalizeArity(g)
	}
}

// processConstant resolves one constant child edge with value b against the
// operator of the gate.
func (p *preprocessor) processConstant(g *Gate, k int, b bool) {
	p.changed = true
	switch g.op {
	case OpAnd:
		if b {
			g.EraseChild(k)
		} else {
			g.Nullify()
		}
	case OpOr:
		if b {
			g.MakeUnity()
		} else {
			g.EraseChild(k)
		}
	case OpNot:
		if b {
			g.Nullify()
		} else {
			g.MakeUnity()
		}
	case OpNull:
		if b {
			g.MakeUnity()
		} else {
			g.Nullify()
		}
	case OpNand:
		if b {
			g.EraseChild(k)
		} else {
			g.MakeUnity()
		}
	case OpNor:
		if b {
			g.Nullify()
		} else {
			g.EraseChild(k)
		}
	case OpXor:
		// xor(x, true) == not x and xor(x, false) == x
		g.EraseChild(k)
		if b {
			g.op = OpNot
		} else {
			g.op = OpNull
		}
	case OpAtleast:
		g.EraseChild(k)
		if b {
			g.vote--
		}
	}
}

// normalizeArity rewrites gates whose child count no longer matches their
// operator: empty gates become constants, single-child and/or/xor gates
// become pass-throughs, single-child nand/nor gates become negations, and
// degenerate vote numbers turn atleast gates into and/or.
func (p *preprocessor) normalizeArity(g *Gate) {
	if g.op == OpAtleast {
		n := len(g.children)
		switch {
		case g.vote <= 0:
			p.changed = true
			g.MakeUnity()
			return
		case g.vote > n:
			p.changed = true
			g.Nullify()
			return
		case g.vote == 1:
			p.changed = true
			g.op, g.vote = OpOr, 0
		case g.vote == n:
			p.changed = true
			g.op, g.vote = OpAnd, 0
		}
	}
	switch len(g.children) {
	case 0:
		p.changed = true
		switch g.op {
		case OpAnd, OpNor:
			g.MakeUnity()
		case OpOr, OpNand, OpXor:
			g.Nullify()
		default:
			panic("mocus: empty " + g.op.String() + " gate")
		}
	case 1:
		switch g.op {
		case OpAnd, OpOr:
			p.changed = true
			g.op = OpNull
		case OpNand, OpNor:
			p.changed = true
			g.op = OpNot
		case OpXor:
			p.changed = true
			g.op = OpNull
		}
	}
}

// ************************************************************

// normalizeGates eliminates the operators that are not in negation normal
// form. Nand/nor gates flip to their base operator with every incoming edge
// complemented; xor gates are decomposed into or-of-ands; not and null child
// gates are absorbed into their parents' edges.
func (p *preprocessor) normalizeGates(g *Gate, visited map[int]bool) {
	if visited[g.index] || g.state != StateNormal {
		return
	}
	visited[g.index] = true
	for _, k := range g.Children() {
		if child, ok := g.gates[k]; ok {
			p.normalizeGates(child, visited)
		}
	}
	if g.op == OpXor {
		p.rewriteXor(g, visited)
	}
	for _, k := range g.Children() {
		if !g.children[k] {
			continue
		}
		child, ok := g.gates[k]
		if !ok || child.state != StateNormal {
			continue
		}
		switch child.op {
		case OpNand:
			p.flipGate(child, OpAnd)
		case OpNor:
			p.flipGate(child, OpOr)
		}
		// the edge sign may have changed with the flip
		edge := k
		if !g.children[edge] {
			edge = -k
		}
		switch child.op {
		case OpNot:
			inner := child.Children()[0]
			child.InvertChild(inner)
			child.op = OpNull
			fallthrough
		case OpNull:
			p.changed = true
			done := g.JoinNullGate(edge)
			if len(child.parents) == 0 {
				child.EraseAllChildren()
			}
			if done {
				return
			}
		}
	}
}

// rewriteXor decomposes a binary xor in place: xor(a, b) becomes
// or(and(a, not b), and(not a, b)).
func (p *preprocessor) rewriteXor(g *Gate, visited map[int]bool) {
	p.changed = true
	children := g.Children()
	a, b := children[0], children[1]
	na, nb := g.childNode(a), g.childNode(b)
	g.EraseAllChildren()
	g.op = OpOr
	left := p.graph.NewGate(OpAnd)
	left.addNode(a, na)
	left.addNode(-b, nb)
	right := p.graph.NewGate(OpAnd)
	right.addNode(-a, na)
	right.addNode(b, nb)
	g.AddChildGate(left.index, left)
	g.AddChildGate(right.index, right)
	// the fresh gates may hold pass-through or complemented gate edges
	p.normalizeGates(left, visited)
	p.normalizeGates(right, visited)
}

// flipGate turns a nand/nor gate into its base operator and complements the
// edge of every parent, which preserves the represented function.
func (p *preprocessor) flipGate(g *Gate, op Op) {
	p.changed = true
	g.op = op
	parents := make([]*Gate, 0, len(g.parents))
	for _, parent := range g.parents {
		parents = append(parents, parent)
	}
	for _, parent := range parents {
		if parent.children[g.index] {
			parent.InvertChild(g.index)
		} else {
			parent.InvertChild(-g.index)
		}
	}
}

// ************************************************************

// propagateComplements pushes complemented gate edges down the graph with De
// Morgan's law. A gate referenced under both polarities is cloned; the
// complements map keeps one clone per original so sharing is preserved.
func (p *preprocessor) propagateComplements(g *Gate, complements map[int]*Gate, visited map[int]bool) {
	if visited[g.index] || g.state != StateNormal {
		return
	}
	visited[g.index] = true
	for _, k := range g.Children() {
		if !g.children[k] {
			continue
		}
		child, ok := g.gates[k]
		if !ok {
			continue
		}
		if k > 0 {
			p.propagateComplements(child, complements, visited)
			continue
		}
		p.changed = true
		if child.state != StateNormal {
			// constant children are the business of constant propagation
			continue
		}
		if len(child.parents) == 1 && complements[child.index] == nil {
			// single-parent gates can be complemented in place
			p.complementInPlace(child)
			g.EraseChild(k)
			g.AddChildGate(child.index, child)
			p.propagateComplements(child, complements, visited)
			continue
		}
		dual := complements[child.index]
		if dual == nil {
			dual = p.cloneComplement(child)
			complements[child.index] = dual
		}
		g.EraseChild(k)
		g.AddChildGate(dual.index, dual)
		p.propagateComplements(dual, complements, visited)
	}
}

func dualOp(g *Gate) (Op, int) {
	switch g.op {
	case OpAnd:
		return OpOr, 0
	case OpOr:
		return OpAnd, 0
	case OpAtleast:
		// not atleast(k/n) == atleast(n-k+1/n) over complemented children
		return OpAtleast, len(g.children) - g.vote + 1
	}
	panic("mocus: complement of a " + g.op.String() + " gate")
}

func (p *preprocessor) complementInPlace(g *Gate) {
	op, vote := dualOp(g)
	g.op, g.vote = op, vote
	g.InvertChildren()
	p.normalizeArity(g)
}

func (p *preprocessor) cloneComplement(g *Gate) *Gate {
	op, vote := dualOp(g)
	dual := p.graph.NewGate(op)
	dual.vote = vote
	dual.CopyChildren(g)
	dual.InvertChildren()
	p.normalizeArity(dual)
	return dual
}

// ************************************************************

// coalesceGates merges positive single-parent child gates of the same
// operator into their parent, for and/or gates. Merging can reveal a
// complement pair, in which case the parent collapses to a constant and the
// next constant propagation pass cleans up.
func (p *preprocessor) coalesceGates(g *Gate, visited map[int]bool) {
	if visited[g.index] || g.state != StateNormal {
		return
	}
	visited[g.index] = true
	if g.op != OpAnd && g.op != OpOr {
		for _, k := range g.Children() {
			if child, ok := g.gates[k]; ok {
				p.coalesceGates(child, visited)
			}
		}
		return
	}
	for _, k := range g.Children() {
		if !g.children[k] {
			continue
		}
		child, ok := g.gates[k]
		if !ok {
			continue
		}
		p.coalesceGates(child, visited)
		if k < 0 || child.op != g.op || child.state != StateNormal || child.module {
			continue
		}
		if len(child.parents) != 1 {
			continue
		}
		p.changed = true
		done := g.JoinGate(child)
		child.EraseAllChildren()
		if done {
			return
		}
	}
}

// ************************************************************

// promoteRoot pops pass-through gates accumulated at the root so that the
// root is either a constant, a pass-through over a single variable, or a
// proper and/or/atleast gate.
func (p *preprocessor) promoteRoot() {
	for {
		root := p.graph.root
		if root.state != StateNormal || root.op != OpNull {
			return
		}
		k := root.Children()[0]
		child, ok := root.gates[k]
		if !ok || k < 0 {
			return
		}
		root.EraseAllChildren()
		p.graph.root = child
	}
}

// ************************************************************

// detectModules finds the gates whose sub-trees share no node with the rest
// of the graph. The graph is traversed once, stamping every node with enter,
// exit and revisit times; a gate is a module exactly when all its
// descendants are visited strictly within its own enter and exit times.
func (p *preprocessor) detectModules() {
	root := p.graph.root
	p.clearVisits(root, make(map[int]bool))
	p.time = 0
	p.assignTiming(root, make(map[int]bool))
	p.findModules(root, make(map[int]bool))
	if !root.module {
		root.TurnModule()
	}
}

func (p *preprocessor) clearVisits(g *Gate, visited map[int]bool) {
	if visited[g.index] {
		return
	}
	visited[g.index] = true
	g.ClearVisits()
	g.minTime, g.maxTime = 0, 0
	for _, k := range g.Children() {
		if child, ok := g.gates[k]; ok {
			p.clearVisits(child, visited)
			continue
		}
		g.childNode(k).ClearVisits()
	}
}

func (p *preprocessor) tick() int {
	p.time++
	return p.time
}

func (p *preprocessor) assignTiming(g *Gate, visited map[int]bool) {
	if visited[g.index] {
		g.Visit(p.tick())
		return
	}
	visited[g.index] = true
	g.Visit(p.tick())
	for _, k := range g.Children() {
		if child, ok := g.gates[k]; ok {
			p.assignTiming(child, visited)
			continue
		}
		g.childNode(k).Visit(p.tick())
	}
	g.Visit(p.tick())
}

func (p *preprocessor) findModules(g *Gate, visited map[int]bool) {
	if visited[g.index] {
		return
	}
	visited[g.index] = true
	enter, exit := g.EnterTime(), g.ExitTime()
	minTime, maxTime := enter, exit
	modular := true
	for _, k := range g.Children() {
		var cmin, cmax int
		if child, ok := g.gates[k]; ok {
			p.findModules(child, visited)
			cmin, cmax = child.MinTime(), child.MaxTime()
		} else {
			n := g.childNode(k)
			cmin, cmax = n.MinTime(), n.MaxTime()
		}
		if cmin < enter || cmax > exit {
			modular = false
		}
		if cmin < minTime {
			minTime = cmin
		}
		if cmax > maxTime {
			maxTime = cmax
		}
	}
	// a revisit of this gate through another parent extends its time span
	if last := g.LastVisit(); last > maxTime {
		maxTime = last
	}
	g.SetMinTime(minTime)
	g.SetMaxTime(maxTime)
	if modular && !g.module {
		g.TurnModule()
	}
}
