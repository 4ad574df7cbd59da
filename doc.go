// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

/*
Package mocus provides qualitative analysis of fault trees: it enumerates the
minimal cut sets (MCS) of a Boolean formula describing how component failures
combine into a top-level failure.

Basics

A fault tree is supplied by a model loader as a tree of gates whose leaves are
basic events (independent Boolean variables) and house events (Boolean
constants). The package first compiles this tree into a Graph, a propositional
directed acyclic graph (PDAG) where every node is known by a small integer
index: basic events receive the dense indices 1..V, in order of first sight,
while gates and constants are indexed from a large reserved base so that the
two ranges never meet. Literal polarity lives on the edges: a negative child
index denotes the complement of the child node.

Cut sets are generated with the MOCUS algorithm (Method Of Obtaining Cut
Sets), a top-down expansion of gates by their operator. Intermediate and final
cut sets are stored in a zero-suppressed binary decision diagram (ZBDD), which
keeps families of sets in canonical form and makes minimization (removal of
supersets) and complement elimination efficient thanks to structural sharing.
Independent sub-trees of the graph, called modules, are analyzed separately
and their results joined at the end.

The entry point is Analysis:

	graph, err := mocus.NewGraph(root, false)
	if err != nil {
		...
	}
	a := mocus.NewAnalysis(graph)
	a.Analyze()
	for _, cutset := range a.Products() {
		// cutset is a sorted slice of signed basic event indices
	}

Products are reported as slices of signed variable indices, sorted by
magnitude; the companion table graph.BasicEvents() maps index-1 back to the
loader's event. For a non-coherent tree (one that contains negations)
products may carry negative literals.

Use of build tags

To unlock verbose logging of some internal operations, as well as an
additional sanity check of the vertex order of the decision diagrams, you can
compile your executable with the build tag `debug`. Routine progress reporting does not need it: an
optional slog.Logger can be injected with the WithLogger option.

Concurrency

An analysis is a sequential algorithm over a graph that it owns exclusively;
no operation blocks and there are no suspension points. Several independent
analyses can run in parallel as long as no Graph is shared between them,
which is what AnalyzeAll does.
*/
package mocus
