// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mocus

import (
	"golang.org/x/sync/errgroup"
)

// Analysis enumerates the minimal cut sets of one fault tree with the MOCUS
// algorithm. An analysis owns its graph exclusively: the first call to
// Analyze normalizes the graph in place and expands it module by module.
// Independent analyses over distinct graphs can run in parallel; a single
// Analysis is not safe for concurrent use.
type Analysis struct {
	graph     *Graph
	settings  Settings
	container *CutSetContainer
	prods     [][]int
	done      bool
}

// NewAnalysis prepares a minimal cut set analysis of the given graph.
func NewAnalysis(graph *Graph, options ...func(*Settings)) *Analysis {
	a := &Analysis{graph: graph, settings: makesettings()}
	for _, opt := range options {
		opt(&a.settings)
	}
	return a
}

// Graph returns the graph under analysis.
func (a *Analysis) Graph() *Graph { return a.graph }

// Analyze computes the minimal cut sets. The analysis runs to completion
// with no suspension point; calling Analyze a second time has no effect.
func (a *Analysis) Analyze() {
	if a.done {
		return
	}
	a.done = true
	log := a.settings.logger
	log.Debug("start minimal cut set generation")
	a.graph.prepare()
	root := a.graph.Root()
	switch {
	case root.State() == StateNull:
		// the top event can never fire
		a.prods = [][]int{}
	case root.State() == StateUnity:
		// the top event always fires: the only minimal cut set is empty
		a.prods = [][]int{{}}
	case root.Type() == OpNull:
		// a single-literal tree
		k := root.Children()[0]
		if _, ok := root.GateChildren()[k]; ok {
			panic("mocus: pass-through root over a gate after normalization")
		}
		a.prods = [][]int{{k}}
	default:
		a.container = a.analyzeModule(root)
		if a.container.Truncated() {
			log.Warn("cut sets truncated by the order limit", "limit", a.settings.limitOrder)
		}
		a.prods = a.container.Products()
	}
	log.Debug("minimal cut sets found", "count", len(a.prods))
}

// analyzeModule generates the minimal cut sets of one module gate. Modules
// nested below this one are analyzed recursively and their results joined.
func (a *Analysis) analyzeModule(gate *Gate) *CutSetContainer {
	log := a.settings.logger
	log.Debug("finding cut sets from module", "gate", gate.Index())
	gates := make(map[int]*Gate)
	for k, child := range gate.GateChildren() {
		gates[abs(k)] = child
	}
	container := newCutSetContainer(len(a.graph.BasicEvents()), a.settings.limitOrder)
	container.Merge(container.ConvertGate(gate))
	for next := container.GetNextGate(); next != 0; next = container.GetNextGate() {
		log.Debug("expanding gate", "gate", next)
		inter := gates[next]
		for k, child := range inter.GateChildren() {
			gates[abs(k)] = child
		}
		container.Merge(container.ExpandGate(
			container.ConvertGate(inter),
			container.ExtractIntermediateCutSets(next)))
	}
	container.Minimize()
	if !a.graph.Coherent() {
		container.EliminateComplements()
		container.Minimize()
	}
	for _, m := range container.GatherModules() {
		container.JoinModule(m, a.analyzeModule(gates[m]))
	}
	container.EliminateConstantModules()
	container.Minimize()
	return container
}

// Products returns the minimal cut sets as slices of signed basic event
// indices sorted by magnitude. The result is empty when the top event can
// never fire and holds one empty set when it always fires.
func (a *Analysis) Products() [][]int {
	if !a.done {
		panic("mocus: analysis is not done")
	}
	return a.prods
}

// Truncated reports whether some cut sets were dropped because of the
// product order limit; see the LimitOrder option.
func (a *Analysis) Truncated() bool {
	return a.container != nil && a.container.Truncated()
}

// AnalyzeAll runs one analysis per graph, in parallel. Graphs must be
// distinct: an analysis owns its graph exclusively, which is what makes the
// fan-out safe. The number of concurrent analyses can be bounded with the
// Parallel option.
func AnalyzeAll(graphs []*Graph, options ...func(*Settings)) []*Analysis {
	settings := makesettings()
	for _, opt := range options {
		opt(&settings)
	}
	res := make([]*Analysis, len(graphs))
	var group errgroup.Group
	if settings.parallel > 0 {
		group.SetLimit(settings.parallel)
	}
	for i, g := range graphs {
		i, g := i, g
		res[i] = NewAnalysis(g, options...)
		group.Go(func() error {
			res[i].Analyze()
			return nil
		})
	}
	group.Wait()
	return res
}
