// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mocus

import (
	"fmt"
	"sort"
)

// Gate is the mutable interior node of a Graph. A gate combines its children
// with a Boolean operator. Children are referenced by signed indices: a
// negative index denotes the complement of the child node. The sign is a
// property of the edge, not of the child, so that shared children stay
// canonical and De Morgan transformations are pure edge-sign flips.
//
// Children are owned through three disjoint tables, one per kind of node, so
// that the kind of a child is known without inspecting it. The union of the
// three key sets is exactly the children set, and no magnitude appears twice
// among the keys: a gate never holds both a node and its complement, nor two
// edges to the same node, without simplifying itself first.
type Gate struct {
	node
	op       Op
	vote     int // vote number, meaningful for atleast gates only
	state    State
	mark     bool
	minTime  int
	maxTime  int
	module   bool
	failed   int // number of children failed upon failure propagation
	children map[int]bool
	gates    map[int]*Gate
	vars     map[int]*Variable
	consts   map[int]*Constant
}

func newgate(index int, op Op) *Gate {
	return &Gate{
		node:     newnode(index),
		op:       op,
		children: make(map[int]bool),
		gates:    make(map[int]*Gate),
		vars:     make(map[int]*Variable),
		consts:   make(map[int]*Constant),
	}
}

// Type returns the operator of this gate.
func (g *Gate) Type() Op { return g.op }

// SetType changes the operator of this gate. Only the simple And, Or, Not and
// Null operators can be assigned this way.
func (g *Gate) SetType(t Op) {
	if t != OpAnd && t != OpOr && t != OpNot && t != OpNull {
		panic(fmt.Sprintf("mocus: invalid gate type change to %s", t))
	}
	g.op = t
}

// VoteNumber returns the vote number of an atleast gate. The value is
// meaningless for other operators.
func (g *Gate) VoteNumber() int { return g.vote }

// SetVoteNumber sets the vote number for an atleast gate.
func (g *Gate) SetVoteNumber(number int) { g.vote = number }

// State reports whether this gate is normal or has collapsed to a constant.
func (g *Gate) State() State { return g.state }

// IsConstant reports whether the gate state is null or unity.
func (g *Gate) IsConstant() bool { return g.state != StateNormal }

// Children returns the signed indices of the children of this gate, sorted by
// magnitude, positive sign first.
func (g *Gate) Children() []int {
	res := make([]int, 0, len(g.children))
	for k := range g.children {
		res = append(res, k)
	}
	sort.Slice(res, func(i, j int) bool {
		if abs(res[i]) != abs(res[j]) {
			return abs(res[i]) < abs(res[j])
		}
		return res[i] > res[j]
	})
	return res
}

// NumChildren returns the number of children of this gate.
func (g *Gate) NumChildren() int { return len(g.children) }

// GateChildren returns the children of this gate that are gates, keyed by
// signed index. The map is owned by the gate; callers must not mutate it.
func (g *Gate) GateChildren() map[int]*Gate { return g.gates }

// VariableChildren returns the children of this gate that are variables,
// keyed by signed index. The map is owned by the gate.
func (g *Gate) VariableChildren() map[int]*Variable { return g.vars }

// ConstantChildren returns the children of this gate that are constants,
// keyed by signed index. The map is owned by the gate.
func (g *Gate) ConstantChildren() map[int]*Constant { return g.consts }

// Mark returns the traversal mark of this gate. Marks are an alternative to
// the visit times for linear traversals.
func (g *Gate) Mark() bool { return g.mark }

// SetMark sets the traversal mark of this gate.
func (g *Gate) SetMark(flag bool) { g.mark = flag }

// MinTime returns the minimum visit time of the gate's sub-tree, 0 if no time
// assignment was performed.
func (g *Gate) MinTime() int { return g.minTime }

// SetMinTime caches the minimum visit time of the gate's sub-tree.
func (g *Gate) SetMinTime(time int) {
	if time <= 0 {
		panic("mocus: non-positive min time")
	}
	g.minTime = time
}

// MaxTime returns the maximum visit time of the gate's sub-tree, 0 if no time
// assignment was performed.
func (g *Gate) MaxTime() int { return g.maxTime }

// SetMaxTime caches the maximum visit time of the gate's sub-tree.
func (g *Gate) SetMaxTime(time int) {
	if time <= 0 {
		panic("mocus: non-positive max time")
	}
	g.maxTime = time
}

// IsModule reports whether the sub-tree of this gate is an independent
// module, that is, none of its descendants is reachable from outside it.
func (g *Gate) IsModule() bool { return g.module }

// TurnModule flags this gate as a module. This is a one-way transition.
func (g *Gate) TurnModule() {
	if g.module {
		panic("mocus: gate is already a module")
	}
	g.module = true
}

// precheck validates the preconditions common to all child additions and
// handles the duplicate and complement cases. It reports (constant, done):
// done is true when the addition was resolved without inserting a new edge.
func (g *Gate) precheck(child int) (bool, bool) {
	if child == 0 {
		panic("mocus: child index 0")
	}
	if g.state != StateNormal {
		panic("mocus: adding a child to a constant gate")
	}
	if g.children[child] {
		return g.processDuplicateChild(child), true
	}
	if g.children[-child] {
		return g.processComplementChild(child), true
	}
	return false, false
}

// AddChildGate adds a child gate with the given signed index. Duplicate and
// complement children are detected first and processed according to the logic
// of the gate, which may turn the gate into a constant and clear its children
// in the same call.
//
// It reports whether the gate has become constant; callers must not add
// further children to a constant gate.
func (g *Gate) AddChildGate(child int, gate *Gate) bool {
	if abs(child) != gate.index {
		panic("mocus: child index does not match the gate")
	}
	if constant, done := g.precheck(child); done {
		return constant
	}
	g.children[child] = true
	g.gates[child] = gate
	gate.parents[g.index] = g
	return false
}

// AddChildVariable adds a child variable with the given signed index. See
// AddChildGate for the handling of duplicates and complements.
func (g *Gate) AddChildVariable(child int, variable *Variable) bool {
	if abs(child) != variable.index {
		panic("mocus: child index does not match the variable")
	}
	if constant, done := g.precheck(child); done {
		return constant
	}
	g.children[child] = true
	g.vars[child] = variable
	variable.parents[g.index] = g
	return false
}

// AddChildConstant adds a child constant with the given signed index. See
// AddChildGate for the handling of duplicates and complements.
func (g *Gate) AddChildConstant(child int, constant *Constant) bool {
	if abs(child) != constant.index {
		panic("mocus: child index does not match the constant")
	}
	if cst, done := g.precheck(child); done {
		return cst
	}
	g.children[child] = true
	g.consts[child] = constant
	constant.parents[g.index] = g
	return false
}

// addNode dispatches an addition on the dynamic kind of the child.
func (g *Gate) addNode(child int, n Node) bool {
	switch c := n.(type) {
	case *Gate:
		return g.AddChildGate(child, c)
	case *Variable:
		return g.AddChildVariable(child, c)
	case *Constant:
		return g.AddChildConstant(child, c)
	}
	panic("mocus: unknown node kind")
}

// childNode returns the node referenced by an existing signed child index.
func (g *Gate) childNode(child int) Node {
	if c, ok := g.gates[child]; ok {
		return c
	}
	if c, ok := g.vars[child]; ok {
		return c
	}
	if c, ok := g.consts[child]; ok {
		return c
	}
	panic(fmt.Sprintf("mocus: no child with index %d", child))
}

// processDuplicateChild resolves the addition of a child that is already
// present. It reports whether the gate has become constant.
func (g *Gate) processDuplicateChild(child int) bool {
	switch g.op {
	case OpAnd, OpOr, OpNand, OpNor:
		// x op x == x, the duplicate is absorbed
		return false
	case OpXor:
		// x xor x == false
		g.Nullify()
		return true
	}
	// Duplicates for atleast gates must be rewritten by the preprocessor
	// before reaching the gate layer; not, null take a single child.
	panic(fmt.Sprintf("mocus: duplicate child %d on a %s gate", child, g.op))
}

// processComplementChild resolves the addition of the complement of an
// existing child. It reports whether the gate has become constant.
func (g *Gate) processComplementChild(child int) bool {
	switch g.op {
	case OpAnd, OpNor:
		// x and not x == false
		g.Nullify()
	case OpOr, OpNand, OpXor:
		// x or not x == true, x xor not x == true
		g.MakeUnity()
	default:
		// atleast gates are rewritten by the preprocessor first
		panic(fmt.Sprintf("mocus: complement child %d on a %s gate", child, g.op))
	}
	return true
}

// TransferChild moves one signed child edge of this gate to a recipient gate.
// It reports whether the recipient has become constant.
func (g *Gate) TransferChild(child int, recipient *Gate) bool {
	n := g.childNode(child)
	g.EraseChild(child)
	return recipient.addNode(child, n)
}

// ShareChild adds one signed child edge of this gate to another gate as well.
// It reports whether the recipient has become constant.
func (g *Gate) ShareChild(child int, recipient *Gate) bool {
	return recipient.addNode(child, g.childNode(child))
}

// InvertChildren replaces every child with its complement. The operation only
// flips edge signs; together with swapping the operator for its dual it
// implements De Morgan's law, which is the caller's responsibility.
func (g *Gate) InvertChildren() {
	children := make(map[int]bool, len(g.children))
	for k := range g.children {
		children[-k] = true
	}
	g.children = children
	gates := make(map[int]*Gate, len(g.gates))
	for k, c := range g.gates {
		gates[-k] = c
	}
	g.gates = gates
	vars := make(map[int]*Variable, len(g.vars))
	for k, c := range g.vars {
		vars[-k] = c
	}
	g.vars = vars
	consts := make(map[int]*Constant, len(g.consts))
	for k, c := range g.consts {
		consts[-k] = c
	}
	g.consts = consts
}

// InvertChild replaces a single existing child with its complement.
func (g *Gate) InvertChild(child int) {
	if !g.children[child] {
		panic(fmt.Sprintf("mocus: no child with index %d", child))
	}
	delete(g.children, child)
	g.children[-child] = true
	if c, ok := g.gates[child]; ok {
		delete(g.gates, child)
		g.gates[-child] = c
		return
	}
	if c, ok := g.vars[child]; ok {
		delete(g.vars, child)
		g.vars[-child] = c
		return
	}
	c := g.consts[child]
	delete(g.consts, child)
	g.consts[-child] = c
}

// JoinGate coalesces a child gate of the same operator into this gate: all
// the edges of the child are added to this gate with their signs preserved
// and the edge to the child itself is removed. The child is expected to be a
// positive child of this gate; the caller must have checked that the two
// operators may be merged. It reports whether the merge produced a constant.
func (g *Gate) JoinGate(child *Gate) bool {
	if !g.children[child.index] {
		panic("mocus: join of a gate that is not a positive child")
	}
	g.EraseChild(child.index)
	for _, k := range child.Children() {
		if g.addNode(k, child.childNode(k)) {
			return true
		}
	}
	return g.state != StateNormal
}

// JoinNullGate swaps a pass-through child gate for the single child it wraps.
// Unlike JoinGate the child edge may be negative: the sign of the inner edge
// is composed with the sign of the edge to the null gate. It reports whether
// the gate has become constant.
func (g *Gate) JoinNullGate(child int) bool {
	null, ok := g.gates[child]
	if !ok {
		panic(fmt.Sprintf("mocus: no child gate with index %d", child))
	}
	if null.op != OpNull || len(null.children) != 1 {
		panic("mocus: join of a gate that is not a pass-through")
	}
	g.EraseChild(child)
	inner := null.Children()[0]
	n := null.childNode(inner)
	if child < 0 {
		inner = -inner
	}
	return g.addNode(inner, n)
}

// CopyChildren initializes the children of this gate with copies of the edges
// of another gate. The gate must not have children yet.
func (g *Gate) CopyChildren(from *Gate) {
	if len(g.children) != 0 {
		panic("mocus: copying children into a non-empty gate")
	}
	for _, k := range from.Children() {
		if g.addNode(k, from.childNode(k)) {
			return
		}
	}
}

// EraseChild detaches one signed child edge. The parent back-reference of the
// child is scrubbed in the same call.
func (g *Gate) EraseChild(child int) {
	if !g.children[child] {
		panic(fmt.Sprintf("mocus: no child with index %d", child))
	}
	n := g.childNode(child)
	delete(g.children, child)
	delete(g.gates, child)
	delete(g.vars, child)
	delete(g.consts, child)
	delete(n.Parents(), g.index)
}

// EraseAllChildren detaches every child edge of this gate.
func (g *Gate) EraseAllChildren() {
	for k := range g.children {
		n := g.childNode(k)
		delete(n.Parents(), g.index)
	}
	g.children = make(map[int]bool)
	g.gates = make(map[int]*Gate)
	g.vars = make(map[int]*Variable)
	g.consts = make(map[int]*Constant)
}

// Nullify sets the state of this gate to null and clears its children. The
// gate must be in the normal state.
func (g *Gate) Nullify() {
	if g.state != StateNormal {
		panic("mocus: nullify of a constant gate")
	}
	g.state = StateNull
	g.EraseAllChildren()
}

// MakeUnity sets the state of this gate to unity and clears its children. The
// gate must be in the normal state.
func (g *Gate) MakeUnity() {
	if g.state != StateNormal {
		panic("mocus: make-unity of a constant gate")
	}
	g.state = StateUnity
	g.EraseAllChildren()
}

// ChildFailed registers the failure of one child for event-by-event failure
// propagation. Depending on the operator the gate itself may fail, in which
// case its optimization value is set to 1 and the failure is propagated to
// its parents. The actual existence of the failed child is not checked.
func (g *Gate) ChildFailed() {
	if g.opti == 1 {
		return
	}
	g.failed++
	switch g.op {
	case OpOr, OpNull:
		g.fail()
	case OpAnd:
		if g.failed >= len(g.children) {
			g.fail()
		}
	case OpAtleast:
		if g.failed >= g.vote {
			g.fail()
		}
	default:
		panic(fmt.Sprintf("mocus: failure propagation through a %s gate", g.op))
	}
}

func (g *Gate) fail() {
	g.opti = 1
	for _, parent := range g.parents {
		parent.ChildFailed()
	}
}

// ResetChildrenFailure resets the failure value of this gate and the count of
// its failed children.
func (g *Gate) ResetChildrenFailure() {
	g.failed = 0
	g.opti = 0
}
