// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mocus

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphConstruction(t *testing.T) {
	root := gate("top", "or", 0,
		ev("e1"),
		gate("sub", "and", 0, ev("e2"), ev("e3")))
	g := testgraph(t, root)
	assert.True(t, g.Coherent())
	assert.True(t, g.Normal())
	assert.False(t, g.Constants())
	require.Len(t, g.BasicEvents(), 3)
	for i, e := range g.BasicEvents() {
		assert.Equal(t, []string{"e1", "e2", "e3"}[i], e.ID())
	}
	assert.Equal(t, "e2", g.GetBasicEvent(2).ID())
	top := g.Root()
	assert.Equal(t, OpOr, top.Type())
	require.Equal(t, 2, top.NumChildren())
	assert.Len(t, top.GateChildren(), 1)
	assert.Len(t, top.VariableChildren(), 1)
}

func TestGraphVariableReuse(t *testing.T) {
	e := ev("shared")
	root := gate("top", "and", 0,
		gate("a", "or", 0, e, ev("x")),
		gate("b", "or", 0, e, ev("y")))
	g := testgraph(t, root)
	require.Len(t, g.BasicEvents(), 3, "a shared event gets a single variable index")
}

func TestGraphSharedGate(t *testing.T) {
	shared := gate("shared", "or", 0, ev("e1"), ev("e2"))
	root := gate("top", "and", 0,
		gate("a", "or", 0, shared, ev("x")),
		gate("b", "or", 0, shared, ev("y")))
	g := testgraph(t, root)
	var sub []*Gate
	for _, k := range g.Root().Children() {
		sub = append(sub, g.Root().GateChildren()[k])
	}
	require.Len(t, sub, 2)
	var inner []*Gate
	for _, c := range sub {
		for _, k := range c.Children() {
			if cg, ok := c.GateChildren()[k]; ok {
				inner = append(inner, cg)
			}
		}
	}
	require.Len(t, inner, 2)
	assert.Same(t, inner[0], inner[1], "a shared source gate maps to one graph gate")
	assert.Len(t, inner[0].Parents(), 2)
}

func TestGraphAtleastNormalization(t *testing.T) {
	var voteTests = []struct {
		vote     int
		expected Op
	}{
		{1, OpOr},
		{3, OpAnd},
		{2, OpAtleast},
	}
	for _, tt := range voteTests {
		root := gate("top", "atleast", tt.vote, ev("e1"), ev("e2"), ev("e3"))
		g := testgraph(t, root)
		assert.Equal(t, tt.expected, g.Root().Type(), "atleast %d of 3", tt.vote)
		if tt.expected == OpAtleast {
			assert.Equal(t, tt.vote, g.Root().VoteNumber())
		}
	}
}

func TestGraphXorDecomposition(t *testing.T) {
	root := gate("top", "xor", 0, ev("e1"), ev("e2"), ev("e3"))
	g := testgraph(t, root)
	top := g.Root()
	assert.Equal(t, OpXor, top.Type())
	require.Equal(t, 2, top.NumChildren())
	require.Len(t, top.GateChildren(), 1)
	for _, inner := range top.GateChildren() {
		assert.Equal(t, OpXor, inner.Type())
		assert.Equal(t, 2, inner.NumChildren())
	}
	assert.False(t, g.Coherent())
	assert.False(t, g.Normal())
}

func TestGraphNotShortcut(t *testing.T) {
	root := gate("top", "and", 0,
		ev("e1"),
		gate("neg", "not", 0, ev("e2")))
	g := testgraph(t, root)
	top := g.Root()
	// the negation is realised as a complemented edge, not a gate
	assert.Equal(t, []int{1, -2}, top.Children())
	assert.Empty(t, top.GateChildren())
	assert.False(t, g.Coherent())
}

func TestGraphComplementCollapse(t *testing.T) {
	// or(x, not x) collapses to unity during construction
	root := gate("top", "and", 0,
		ev("e1"),
		gate("sub", "or", 0, ev("e2"), gate("neg", "not", 0, ev("e2"))))
	g := testgraph(t, root)
	top := g.Root()
	require.Len(t, top.GateChildren(), 1)
	for _, sub := range top.GateChildren() {
		assert.Equal(t, StateUnity, sub.State())
	}
}

func TestGraphHouseEvents(t *testing.T) {
	root := gate("top", "and", 0, ev("e1"), house("h1", true))
	g := testgraph(t, root)
	assert.True(t, g.Constants())
	assert.Len(t, g.Root().ConstantChildren(), 1)
	for _, k := range g.Root().ConstantChildren() {
		assert.True(t, k.State())
	}
}

func TestGraphCcfSubstitution(t *testing.T) {
	sub := gate("ccf", "or", 0, ev("c1"), ev("c2"))
	root := gate("top", "and", 0, ev("e1"), ccfev("e2", sub))

	plain, err := NewGraph(root, false)
	require.NoError(t, err)
	assert.Len(t, plain.BasicEvents(), 2, "without ccf the event stays a variable")

	g, err := NewGraph(root, true)
	require.NoError(t, err)
	assert.Len(t, g.BasicEvents(), 3, "the ccf gate replaces the member event")
	assert.Len(t, g.Root().GateChildren(), 1)
}

func TestGraphErrors(t *testing.T) {
	var errTests = []struct {
		name string
		root *tgate
	}{
		{"unknown operator", gate("top", "nope", 0, ev("e1"))},
		{"empty formula", gate("top", "and", 0)},
		{"binary not", gate("top", "not", 0, ev("e1"), ev("e2"))},
		{"vote too small", gate("top", "atleast", 0, ev("e1"), ev("e2"))},
		{"vote too large", gate("top", "atleast", 3, ev("e1"), ev("e2"))},
		{"unary xor", gate("top", "xor", 0, ev("e1"))},
	}
	for _, tt := range errTests {
		_, err := NewGraph(tt.root, false)
		require.Error(t, err, tt.name)
		assert.ErrorIs(t, err, ErrMalformed, tt.name)
	}
}

func TestGraphCycle(t *testing.T) {
	a := gate("a", "and", 0, ev("e1"))
	b := gate("b", "or", 0, a, ev("e2"))
	a.formula.gates = append(a.formula.gates, b)
	_, err := NewGraph(a, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestGraphString(t *testing.T) {
	root := gate("top", "or", 0,
		ev("e1"),
		gate("sub", "and", 0, ev("e2"), gate("neg", "not", 0, ev("e3"))))
	g := testgraph(t, root)
	out := g.String()
	assert.Contains(t, out, "or(B1, G")
	assert.Contains(t, out, "and(B2, ~B3)")
	v := g.Root().VariableChildren()[1]
	assert.Equal(t, "B1", v.String())
}

func TestGraphModuleDetection(t *testing.T) {
	root := gate("top", "and", 0,
		ev("e1"),
		gate("m", "or", 0, ev("e2"), gate("mm", "and", 0, ev("e3"), ev("e4"))))
	g := testgraph(t, root)
	g.prepare()
	top := g.Root()
	assert.True(t, top.IsModule())
	require.Len(t, top.GateChildren(), 1)
	for _, sub := range top.GateChildren() {
		assert.True(t, sub.IsModule(), "independent sub-tree must be a module")
	}
}

func TestGraphSharedVariableNoModule(t *testing.T) {
	e := ev("shared")
	root := gate("top", "and", 0,
		gate("a", "or", 0, e, ev("x")),
		gate("b", "or", 0, e, ev("y")))
	g := testgraph(t, root)
	g.prepare()
	for _, sub := range g.Root().GateChildren() {
		assert.False(t, sub.IsModule(), "gates sharing a variable are not modules")
	}
}

// checkInvariants walks the reachable gates and asserts the structural
// invariants of the graph.
func checkInvariants(t *testing.T, g *Graph) {
	t.Helper()
	visited := make(map[int]bool)
	var walk func(*Gate)
	walk = func(x *Gate) {
		if visited[x.Index()] {
			return
		}
		visited[x.Index()] = true
		if x.State() != StateNormal {
			assert.Equal(t, 0, x.NumChildren(), "constant gates keep no children")
			return
		}
		switch x.Type() {
		case OpNot, OpNull:
			assert.Equal(t, 1, x.NumChildren())
		case OpAtleast:
			assert.GreaterOrEqual(t, x.VoteNumber(), 2)
			assert.LessOrEqual(t, x.VoteNumber(), x.NumChildren()-1)
		}
		seen := make(map[int]bool)
		for _, k := range x.Children() {
			require.NotZero(t, k)
			assert.False(t, seen[abs(k)], "child magnitude %d appears twice", abs(k))
			seen[abs(k)] = true
			tables := 0
			if _, ok := x.GateChildren()[k]; ok {
				tables++
			}
			if _, ok := x.VariableChildren()[k]; ok {
				tables++
			}
			if _, ok := x.ConstantChildren()[k]; ok {
				tables++
			}
			assert.Equal(t, 1, tables, "child %d must live in exactly one table", k)
			assert.Contains(t, x.childNode(k).Parents(), x.Index())
			if child, ok := x.GateChildren()[k]; ok {
				walk(child)
			}
		}
	}
	walk(g.Root())
	for i, e := range g.BasicEvents() {
		assert.NotNil(t, e, "variable %d has no event", i+1)
	}
}

func TestGraphInvariants(t *testing.T) {
	roots := []*tgate{
		gate("top", "or", 0, ev("e1"), gate("sub", "and", 0, ev("e2"), ev("e3"))),
		gate("top", "atleast", 2, ev("e1"), ev("e2"), ev("e3"), ev("e4")),
		gate("top", "xor", 0, ev("e1"), gate("neg", "not", 0, ev("e2"))),
		gate("top", "nand", 0, ev("e1"), gate("sub", "nor", 0, ev("e2"), ev("e3"))),
	}
	for _, root := range roots {
		g := testgraph(t, root)
		checkInvariants(t, g)
		g.prepare()
		checkInvariants(t, g)
	}
}

func TestGraphPrepareShorthand(t *testing.T) {
	root := gate("top", "and", 0,
		ev("e1"),
		gate("m", "or", 0, ev("e2"), ev("e3")))
	g := testgraph(t, root)
	g.prepare()
	out := g.String()
	assert.True(t, strings.Contains(out, "GM"), "modules are shown with the GM prefix in %q", out)
}
