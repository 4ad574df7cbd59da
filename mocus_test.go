// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mocus

import (
	"log/slog"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyze(t interface{ Fatalf(string, ...any) }, root *tgate, options ...func(*Settings)) *Analysis {
	a := NewAnalysis(testgraph(t, root), options...)
	a.Analyze()
	return a
}

func TestAndOfVariables(t *testing.T) {
	a := analyze(t, gate("top", "and", 0, ev("e1"), ev("e2")))
	assert.Equal(t, [][]int{{1, 2}}, a.Products())
}

func TestOrWithSubsumption(t *testing.T) {
	a := analyze(t, gate("top", "or", 0,
		ev("e1"),
		gate("sub", "and", 0, ev("e2"), ev("e3"))))
	assert.Equal(t, [][]int{{1}, {2, 3}}, a.Products())

	// a cut set covered by a smaller one disappears
	a = analyze(t, gate("top", "or", 0,
		ev("e1"),
		gate("sub", "and", 0, ev("e1"), ev("e2"))))
	assert.Equal(t, [][]int{{1}}, a.Products())
}

func TestUnityCollapse(t *testing.T) {
	root := gate("top", "and", 0,
		ev("e1"),
		gate("sub", "or", 0, ev("e2"), gate("neg", "not", 0, ev("e2"))))
	g := testgraph(t, root)
	assert.False(t, g.Coherent())
	a := NewAnalysis(g)
	a.Analyze()
	assert.Equal(t, [][]int{{1}}, a.Products())
}

func TestAtleastTwoOfThree(t *testing.T) {
	a := analyze(t, gate("top", "atleast", 2, ev("e1"), ev("e2"), ev("e3")))
	assert.Equal(t, [][]int{{1, 2}, {1, 3}, {2, 3}}, a.Products())
}

func TestAtleastBoundaries(t *testing.T) {
	a := analyze(t, gate("top", "atleast", 3, ev("e1"), ev("e2"), ev("e3")))
	assert.Equal(t, [][]int{{1, 2, 3}}, a.Products(), "atleast n of n behaves as and")
	a = analyze(t, gate("top", "atleast", 1, ev("e1"), ev("e2"), ev("e3")))
	assert.Equal(t, [][]int{{1}, {2}, {3}}, a.Products(), "atleast 1 of n behaves as or")
}

func TestXorProducts(t *testing.T) {
	a := analyze(t, gate("top", "xor", 0, ev("e1"), ev("e2")))
	assert.False(t, a.Graph().Coherent())
	assert.Equal(t, [][]int{{1, -2}, {-1, 2}}, a.Products())
}

func TestModuleJoin(t *testing.T) {
	root := gate("top", "and", 0,
		ev("e1"),
		gate("m", "or", 0, ev("e2"), gate("mm", "and", 0, ev("e3"), ev("e4"))))
	g := testgraph(t, root)
	a := NewAnalysis(g)
	a.Analyze()
	assert.Equal(t, [][]int{{1, 2}, {1, 3, 4}}, a.Products())
	for _, sub := range g.Root().GateChildren() {
		assert.True(t, sub.IsModule())
	}
}

func TestConstantRoots(t *testing.T) {
	a := analyze(t, gate("top", "and", 0, ev("e1"), house("h", false)))
	assert.Equal(t, [][]int{}, a.Products(), "an impossible top event has no product")

	a = analyze(t, gate("top", "or", 0, ev("e1"), house("h", true)))
	assert.Equal(t, [][]int{{}}, a.Products(), "a certain top event has the empty product")
}

func TestHouseEventSimplification(t *testing.T) {
	// and(e1, or(e2, h=false)) keeps only the live branch
	a := analyze(t, gate("top", "and", 0,
		ev("e1"),
		gate("sub", "or", 0, ev("e2"), house("h", false))))
	assert.Equal(t, [][]int{{1, 2}}, a.Products())
}

func TestSingleLiteralTree(t *testing.T) {
	a := analyze(t, gate("top", "and", 0, ev("e1")))
	assert.Equal(t, [][]int{{1}}, a.Products(), "a single-child and behaves as a pass-through")

	a = analyze(t, gate("top", "not", 0, ev("e1")))
	assert.Equal(t, [][]int{{-1}}, a.Products())
}

func TestNandNorRoots(t *testing.T) {
	a := analyze(t, gate("top", "nand", 0, ev("e1"), ev("e2")))
	assert.Equal(t, [][]int{{-1}, {-2}}, a.Products())

	a = analyze(t, gate("top", "nor", 0, ev("e1"), ev("e2")))
	assert.Equal(t, [][]int{{-1, -2}}, a.Products())
}

func TestComplementElimination(t *testing.T) {
	// and(or(e1, e2), not e1): the cut set {e1, not e1} is contradictory
	a := analyze(t, gate("top", "and", 0,
		gate("sub", "or", 0, ev("e1"), ev("e2")),
		gate("neg", "not", 0, ev("e1"))))
	assert.Equal(t, [][]int{{-1, 2}}, a.Products())
}

func TestSharedComplementedGate(t *testing.T) {
	shared := gate("shared", "or", 0, ev("e3"), ev("e4"))
	a := analyze(t, gate("top", "or", 0,
		gate("a", "and", 0, ev("e1"), shared),
		gate("b", "and", 0, ev("e2"), gate("neg", "not", 0, shared))))
	// first-sight indexing: e1=1, then the shared gate's e3=2 and e4=3,
	// then e2=4
	assert.Equal(t, [][]int{{1, 2}, {1, 3}, {-2, -3, 4}}, a.Products())
}

func TestXorWithHouse(t *testing.T) {
	a := analyze(t, gate("top", "xor", 0, ev("e1"), house("h", true)))
	assert.Equal(t, [][]int{{-1}}, a.Products(), "xor with true is a negation")

	a = analyze(t, gate("top", "xor", 0, ev("e1"), house("h", false)))
	assert.Equal(t, [][]int{{1}}, a.Products(), "xor with false is a pass-through")
}

func TestSiblingOrderInvariance(t *testing.T) {
	left := gate("top", "or", 0,
		gate("a", "and", 0, ev("e1"), ev("e2")),
		gate("b", "and", 0, ev("e2"), ev("e3")),
		ev("e4"))
	right := gate("top", "or", 0,
		ev("e4"),
		gate("b", "and", 0, ev("e2"), ev("e3")),
		gate("a", "and", 0, ev("e1"), ev("e2")))
	la := analyze(t, left)
	ra := analyze(t, right)
	// variable indices differ with the order of first sight, so compare
	// against identifiers
	assert.ElementsMatch(t, names(la), names(ra))
}

func names(a *Analysis) []string {
	res := []string{}
	for _, cutset := range a.Products() {
		parts := []string{}
		for _, lit := range cutset {
			id := a.Graph().GetBasicEvent(abs(lit)).ID()
			if lit < 0 {
				id = "~" + id
			}
			parts = append(parts, id)
		}
		sort.Strings(parts)
		res = append(res, strings.Join(parts, " "))
	}
	return res
}

func TestDeepTree(t *testing.T) {
	// or(and(e1, or(e2, and(e3, e4))), e5)
	a := analyze(t, gate("top", "or", 0,
		gate("g1", "and", 0,
			ev("e1"),
			gate("g2", "or", 0,
				ev("e2"),
				gate("g3", "and", 0, ev("e3"), ev("e4")))),
		ev("e5")))
	// e5 is a direct event argument of the root, so it takes index 1
	assert.Equal(t, [][]int{{1}, {2, 3}, {2, 4, 5}}, a.Products())
}

func TestLimitOrder(t *testing.T) {
	a := analyze(t, gate("top", "or", 0,
		ev("e1"),
		gate("sub", "and", 0, ev("e2"), ev("e3"))),
		LimitOrder(1))
	assert.Equal(t, [][]int{{1}}, a.Products())
	assert.True(t, a.Truncated())

	a = analyze(t, gate("top", "or", 0,
		ev("e1"),
		gate("sub", "and", 0, ev("e2"), ev("e3"))))
	assert.False(t, a.Truncated())
}

func TestAnalyzeTwice(t *testing.T) {
	a := analyze(t, gate("top", "and", 0, ev("e1"), ev("e2")))
	a.Analyze()
	assert.Equal(t, [][]int{{1, 2}}, a.Products())
}

func TestProductsBeforeAnalyze(t *testing.T) {
	a := NewAnalysis(testgraph(t, gate("top", "and", 0, ev("e1"))))
	assert.Panics(t, func() { a.Products() })
}

func TestAnalyzeAll(t *testing.T) {
	graphs := make([]*Graph, 8)
	for i := range graphs {
		graphs[i] = testgraph(t, gate("top", "or", 0,
			ev("e1"),
			gate("sub", "and", 0, ev("e2"), ev("e3"))))
	}
	analyses := AnalyzeAll(graphs, Parallel(4))
	require.Len(t, analyses, len(graphs))
	for _, a := range analyses {
		assert.Equal(t, [][]int{{1}, {2, 3}}, a.Products())
	}
}

func TestAnalyzeWithLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	a := analyze(t, gate("top", "and", 0, ev("e1"), ev("e2")), WithLogger(logger))
	assert.Equal(t, [][]int{{1, 2}}, a.Products())
}
