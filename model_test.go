// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mocus

// A small in-memory model implementation standing in for the loader in
// tests. The gate function builds one gate from heterogeneous arguments:
// gates, basic events, and house events.

type tevent struct {
	id  string
	ccf *tgate
}

func (e *tevent) ID() string { return e.id }

func (e *tevent) IsCcf() bool { return e.ccf != nil }

func (e *tevent) CcfGate() GateSource { return e.ccf }

type thouse struct {
	id    string
	state bool
}

func (h *thouse) ID() string { return h.id }

func (h *thouse) State() bool { return h.state }

type tformula struct {
	typ    string
	vote   int
	gates  []GateSource
	basics []BasicEvent
	houses []HouseEvent
}

func (f *tformula) Type() string { return f.typ }

func (f *tformula) VoteNumber() int { return f.vote }

func (f *tformula) Gates() []GateSource { return f.gates }

func (f *tformula) BasicEvents() []BasicEvent { return f.basics }

func (f *tformula) HouseEvents() []HouseEvent { return f.houses }

type tgate struct {
	id      string
	formula *tformula
}

func (g *tgate) ID() string { return g.id }

func (g *tgate) Formula() FormulaSource { return g.formula }

func gate(id, typ string, vote int, args ...any) *tgate {
	f := &tformula{typ: typ, vote: vote}
	for _, a := range args {
		switch a := a.(type) {
		case *tgate:
			f.gates = append(f.gates, a)
		case *tevent:
			f.basics = append(f.basics, a)
		case *thouse:
			f.houses = append(f.houses, a)
		default:
			panic("unexpected model argument")
		}
	}
	return &tgate{id: id, formula: f}
}

func ev(id string) *tevent { return &tevent{id: id} }

func ccfev(id string, sub *tgate) *tevent { return &tevent{id: id, ccf: sub} }

func house(id string, state bool) *thouse { return &thouse{id: id, state: state} }

// testgraph builds a graph and fails the test on a model error.
func testgraph(t interface{ Fatalf(string, ...any) }, root *tgate) *Graph {
	g, err := NewGraph(root, false)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	return g
}
