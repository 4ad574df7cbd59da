// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mocus

import (
	"fmt"
)

// Graph is a propositional directed acyclic graph (PDAG): the representation
// of a fault tree with integer indices in place of model identifiers and
// pointers. A graph is built once from the top gate of a source model; its
// interior is then mutated freely by normalization and analysis.
//
// The graph owns every gate transitively through the child tables of its
// root. Never keep a long-lived reference to an interior gate: the structure
// below the root changes as gates are coalesced, substituted, or rewritten
// into constants.
type Graph struct {
	root      *Gate
	basics    []BasicEvent
	coherent  bool
	constants bool
	normal    bool
	nextVar   int // index for the next variable, starts at 1
	nextNode  int // index for the next gate or constant
	prepared  bool
}

// NewGraph builds a Graph from the top gate of a fault tree. When ccf is
// true, basic events that belong to a common-cause-failure group are
// substituted by their CCF gates. Construction validates the model as it
// goes and reports the first malformed formula it meets.
func NewGraph(root GateSource, ccf bool) (*Graph, error) {
	g := &Graph{
		coherent: true,
		normal:   true,
		nextVar:  1,
		nextNode: gateIndexBase,
	}
	c := &constructor{
		graph:      g,
		ccf:        ccf,
		gates:      make(map[string]*Gate),
		inProgress: make(map[string]bool),
		vars:       make(map[string]*Variable),
		consts:     make(map[string]*Constant),
	}
	top, err := c.processGate(root)
	if err != nil {
		return nil, err
	}
	g.root = top
	return g, nil
}

// Root returns the current top gate of the graph.
func (g *Graph) Root() *Gate { return g.root }

// SetRoot replaces the top gate of the graph. This is meant for
// preprocessing steps that promote a child into the root position.
func (g *Graph) SetRoot(gate *Gate) { g.root = gate }

// Coherent reports whether the fault tree is free of negations: no not, nand,
// nor or xor gate and no complemented edge.
func (g *Graph) Coherent() bool { return g.coherent }

// Constants reports whether the original tree contains house events.
func (g *Graph) Constants() bool { return g.constants }

// Normal reports whether the tree contains only and/or gates.
func (g *Graph) Normal() bool { return g.normal }

// BasicEvents returns the basic events of the model in variable order: the
// event at position i carries the variable index i+1.
func (g *Graph) BasicEvents() []BasicEvent { return g.basics }

// GetBasicEvent maps a positive variable index back to the original basic
// event, for example to transform minimal cut sets with indices into minimal
// cut sets with model identifiers.
func (g *Graph) GetBasicEvent(index int) BasicEvent {
	if index <= 0 || index > len(g.basics) {
		panic(fmt.Sprintf("mocus: variable index %d out of range", index))
	}
	return g.basics[index-1]
}

// NewGate allocates a gate with the next free node index of this graph.
// Index streams are a property of the graph, not of the process, so
// independent analyses never collide.
func (g *Graph) NewGate(op Op) *Gate {
	gate := newgate(g.nextNode, op)
	g.nextNode++
	return gate
}

func (g *Graph) newVariable() *Variable {
	v := &Variable{node: newnode(g.nextVar)}
	g.nextVar++
	return v
}

func (g *Graph) newConstant(state bool) *Constant {
	c := &Constant{node: newnode(g.nextNode), state: state}
	g.nextNode++
	return c
}

// ************************************************************

// constructor holds the identity maps that are only needed while translating
// a source model into a graph.
type constructor struct {
	graph      *Graph
	ccf        bool
	gates      map[string]*Gate
	inProgress map[string]bool
	vars       map[string]*Variable
	consts     map[string]*Constant
}

// adder inserts one formula argument into a gate. It reports whether the
// gate collapsed to a constant.
type adder func(*Gate) (bool, error)

func (c *constructor) processGate(src GateSource) (*Gate, error) {
	id := src.ID()
	if gate, ok := c.gates[id]; ok {
		return gate, nil
	}
	if c.inProgress[id] {
		return nil, fmt.Errorf("%w: gate %q is in a cycle", ErrMalformed, id)
	}
	c.inProgress[id] = true
	gate, err := c.processFormula(src.Formula())
	delete(c.inProgress, id)
	if err != nil {
		return nil, fmt.Errorf("gate %q: %w", id, err)
	}
	c.gates[id] = gate
	return gate, nil
}

func (c *constructor) processFormula(f FormulaSource) (*Gate, error) {
	op, ok := operators[f.Type()]
	if !ok {
		return nil, fmt.Errorf("%w: unknown operator %q", ErrMalformed, f.Type())
	}
	srcGates, srcBasics, srcHouses := f.Gates(), f.BasicEvents(), f.HouseEvents()
	n := len(srcGates) + len(srcBasics) + len(srcHouses)
	if n == 0 {
		return nil, fmt.Errorf("%w: %s formula without arguments", ErrMalformed, op)
	}
	vote := 0
	switch op {
	case OpNot, OpNull:
		if n != 1 {
			return nil, fmt.Errorf("%w: %s formula with %d arguments", ErrMalformed, op, n)
		}
	case OpXor:
		if n < 2 {
			return nil, fmt.Errorf("%w: xor formula with %d arguments", ErrMalformed, n)
		}
	case OpAtleast:
		vote = f.VoteNumber()
		if vote < 1 || vote > n {
			return nil, fmt.Errorf("%w: vote number %d out of range for %d arguments", ErrMalformed, vote, n)
		}
		// the meaningful vote numbers are 2..n-1; the boundaries degenerate
		switch vote {
		case 1:
			op, vote = OpOr, 0
		case n:
			op, vote = OpAnd, 0
		}
	}
	switch op {
	case OpAnd, OpOr:
	case OpAtleast, OpNull:
		c.graph.normal = false
	case OpXor, OpNot, OpNand, OpNor:
		c.graph.normal = false
		c.graph.coherent = false
	}

	// event arguments are indexed before the contents of gate arguments
	adders := make([]adder, 0, n)
	for _, src := range srcBasics {
		src := src
		adders = append(adders, func(p *Gate) (bool, error) { return c.addBasicArg(p, src) })
	}
	for _, src := range srcHouses {
		src := src
		adders = append(adders, func(p *Gate) (bool, error) { return c.addHouseArg(p, src) })
	}
	for _, src := range srcGates {
		src := src
		adders = append(adders, func(p *Gate) (bool, error) { return c.addGateArg(p, src) })
	}

	if op == OpXor && n > 2 {
		// an n-ary xor becomes a left-leaning binary tree of xor gates
		cur := c.graph.NewGate(OpXor)
		for _, add := range adders[:2] {
			if _, err := add(cur); err != nil {
				return nil, err
			}
		}
		for _, add := range adders[2:] {
			next := c.graph.NewGate(OpXor)
			next.AddChildGate(cur.index, cur)
			if _, err := add(next); err != nil {
				return nil, err
			}
			cur = next
		}
		return cur, nil
	}

	gate := c.graph.NewGate(op)
	gate.vote = vote
	for _, add := range adders {
		constant, err := add(gate)
		if err != nil {
			return nil, err
		}
		if constant {
			// the gate collapsed; it keeps no children and takes no more
			break
		}
	}
	return gate, nil
}

func (c *constructor) addGateArg(p *Gate, src GateSource) (bool, error) {
	child, err := c.processGate(src)
	if err != nil {
		return false, err
	}
	if child.op == OpNot && child.state == StateNormal && len(child.children) == 1 {
		// a negative edge in place of a pass-through negation gate
		inner := child.Children()[0]
		return p.addNode(-inner, child.childNode(inner)), nil
	}
	return p.AddChildGate(child.index, child), nil
}

func (c *constructor) addBasicArg(p *Gate, src BasicEvent) (bool, error) {
	if c.ccf && src.IsCcf() {
		return c.addGateArg(p, src.CcfGate())
	}
	v, ok := c.vars[src.ID()]
	if !ok {
		v = c.graph.newVariable()
		c.vars[src.ID()] = v
		c.graph.basics = append(c.graph.basics, src)
	}
	return p.AddChildVariable(v.index, v), nil
}

func (c *constructor) addHouseArg(p *Gate, src HouseEvent) (bool, error) {
	k, ok := c.consts[src.ID()]
	if !ok {
		k = c.graph.newConstant(src.State())
		c.consts[src.ID()] = k
		c.graph.constants = true
	}
	return p.AddChildConstant(k.index, k), nil
}
