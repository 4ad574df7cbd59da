// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mocus

// gateIndexBase is the first index handed out to gates and constants. Basic
// event variables are indexed densely from 1, so any child index with a
// magnitude above the number of variables refers to a gate or a constant
// without the need for a table lookup.
const gateIndexBase = 1000000

// Node is the common interface of the three kinds of vertices in a Graph:
// Variable, Constant and Gate. The index of a node is a unique identifier
// inside its graph. Nodes also record up to three traversal timestamps and an
// optimization value used by failure propagation; both are scratch state owned
// by whatever algorithm is currently walking the graph.
type Node interface {
	// Index returns the unique positive index of this node.
	Index() int

	// Parents returns the gates holding an edge to this node, keyed by the
	// parent's index. The map is owned by the node; callers must not mutate it.
	Parents() map[int]*Gate

	// Visit registers a visit time, which must be positive. The first call
	// records the enter time, the second the exit time, and later calls the
	// last revisit. It reports whether the node had already been visited twice.
	Visit(time int) bool

	// EnterTime returns the time this node was first encountered, 0 if none.
	EnterTime() int

	// ExitTime returns the exit time of the traversal, 0 if none.
	ExitTime() int

	// LastVisit returns the last time this node was visited, 0 if none.
	LastVisit() int

	// MinTime returns the minimum recorded visit time of the node (for a gate,
	// of its whole sub-tree).
	MinTime() int

	// MaxTime returns the maximum recorded visit time of the node (for a gate,
	// of its whole sub-tree).
	MaxTime() int

	// Visited reports whether the node was visited at least once.
	Visited() bool

	// Revisited reports whether the node was visited more than twice.
	Revisited() bool

	// ClearVisits resets all the visit times to 0.
	ClearVisits()

	// OptiValue returns the optimization value for failure propagation.
	OptiValue() int

	// SetOptiValue sets the optimization value for failure propagation.
	SetOptiValue(val int)
}

// node carries the state shared by all three kinds of vertices. Parents are
// back-references only: a node never owns its parents, so destruction of a
// gate does not traverse up.
type node struct {
	index   int
	visits  [3]int
	opti    int
	parents map[int]*Gate
}

func newnode(index int) node {
	return node{index: index, parents: make(map[int]*Gate)}
}

func (n *node) Index() int { return n.index }

func (n *node) Parents() map[int]*Gate { return n.parents }

func (n *node) Visit(time int) bool {
	if time <= 0 {
		panic("mocus: non-positive visit time")
	}
	switch {
	case n.visits[0] == 0:
		n.visits[0] = time
	case n.visits[1] == 0:
		n.visits[1] = time
	default:
		n.visits[2] = time
		return true
	}
	return false
}

func (n *node) EnterTime() int { return n.visits[0] }

func (n *node) ExitTime() int { return n.visits[1] }

func (n *node) LastVisit() int {
	if n.visits[2] != 0 {
		return n.visits[2]
	}
	return n.visits[1]
}

func (n *node) MinTime() int { return n.visits[0] }

func (n *node) MaxTime() int {
	switch {
	case n.visits[2] != 0:
		return n.visits[2]
	case n.visits[1] != 0:
		return n.visits[1]
	}
	return n.visits[0]
}

func (n *node) Visited() bool { return n.visits[0] != 0 }

func (n *node) Revisited() bool { return n.visits[2] != 0 }

func (n *node) ClearVisits() { n.visits = [3]int{} }

func (n *node) OptiValue() int { return n.opti }

func (n *node) SetOptiValue(val int) { n.opti = val }

// Variable is a Boolean variable of the graph, representing one basic event
// of the fault tree. Variables are indexed densely from 1 so that a slice of
// size V maps index-1 to external data.
type Variable struct {
	node
}

// Constant is a Boolean constant vertex with a true or false state. House
// events of the source model become constants. Constants share the gate index
// space.
type Constant struct {
	node
	state bool
}

// State returns the Boolean value of the constant.
func (c *Constant) State() bool { return c.state }

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
