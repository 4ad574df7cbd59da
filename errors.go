// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mocus

import "errors"

// ErrMalformed is wrapped by every validation error reported during graph
// construction: unknown operator names, wrong arities, vote numbers out of
// range, or cyclic gate definitions.
var ErrMalformed = errors.New("malformed fault tree")
