// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mocus

// The interfaces below form the boundary with the model loader. The loader
// owns parsing, validation of event data, and common-cause-failure grouping;
// the analysis only needs the Boolean structure of the tree and stable
// identifiers to report products against.

// GateSource is a gate of the source fault-tree model.
type GateSource interface {
	// ID returns the stable identifier of the gate.
	ID() string

	// Formula returns the Boolean formula of the gate.
	Formula() FormulaSource
}

// FormulaSource is the Boolean formula of a source gate. Formula types are
// the lower-case operator names: "and", "or", "atleast", "xor", "not",
// "nand", "nor" and "null".
type FormulaSource interface {
	// Type returns the name of the operator of this formula.
	Type() string

	// VoteNumber returns the vote number of an "atleast" formula. The value
	// is ignored for every other type.
	VoteNumber() int

	// Gates returns the arguments of this formula that are gates.
	Gates() []GateSource

	// BasicEvents returns the arguments of this formula that are basic
	// events.
	BasicEvents() []BasicEvent

	// HouseEvents returns the arguments of this formula that are house
	// events.
	HouseEvents() []HouseEvent
}

// BasicEvent is a basic event of the source model: an independent Boolean
// variable standing for a component failure.
type BasicEvent interface {
	// ID returns the stable identifier of the event.
	ID() string

	// IsCcf reports whether the event belongs to a common-cause-failure
	// group, in which case graph construction substitutes its CCF gate when
	// requested.
	IsCcf() bool

	// CcfGate returns the common-cause-failure gate substituting this event.
	// It is only called when IsCcf reports true.
	CcfGate() GateSource
}

// HouseEvent is a house event of the source model: a Boolean constant whose
// value is fixed by the analyst.
type HouseEvent interface {
	// ID returns the stable identifier of the event.
	ID() string

	// State returns the constant Boolean value of the event.
	State() bool
}
