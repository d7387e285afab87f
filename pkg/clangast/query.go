// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package clangast

import (
	"fmt"
)

// MaxUnwrapDepth bounds the number of wrapper nodes Unwrap follows.
const MaxUnwrapDepth = 32

// Unwrap strips cast and paren wrappers from n.
func Unwrap(n *Node) (*Node, error) {
	for depth := 0; n != nil && n.Kind.IsWrapper(); depth++ {
		if depth == MaxUnwrapDepth {
			return nil, fmt.Errorf("%v: more than %v nested wrapper expressions", n.Loc, MaxUnwrapDepth)
		}
		if len(n.Inner) != 1 {
			return nil, fmt.Errorf("%v: %v has %v operands", n.Loc, n.KindName, len(n.Inner))
		}
		n = n.Inner[0]
	}
	if n == nil {
		return nil, fmt.Errorf("missing expression")
	}
	return n, nil
}

// Callee returns the declaration referenced by the callee of a CallExpr,
// or nil if the callee is not a direct reference (e.g. a call through a function pointer field).
func Callee(call *Node) *Decl {
	if call.Kind != CallExpr || len(call.Inner) == 0 {
		return nil
	}
	callee, err := Unwrap(call.Inner[0])
	if err != nil || callee.Kind != DeclRefExpr {
		return nil
	}
	return callee.Decl
}

// Args returns argument expressions of a CallExpr.
func Args(call *Node) []*Node {
	if len(call.Inner) == 0 {
		return nil
	}
	return call.Inner[1:]
}

// Literal returns the spelling of the string literal that n evaluates to.
// Only wrappers are allowed around the literal, anything else is an error.
func Literal(n *Node) (string, error) {
	lit, err := Unwrap(n)
	if err != nil {
		return "", err
	}
	if lit.Kind != StringLiteral {
		return "", fmt.Errorf("%v: expected a string literal, got %v", lit.Loc, lit.KindName)
	}
	return lit.Value, nil
}

// FindCalls returns all calls of functions named name, in source order.
// Matching is done by the referenced declaration name only.
func FindCalls(root *Node, name string) []*Node {
	var calls []*Node
	Walk(root, func(n *Node) bool {
		if n.Kind != CallExpr {
			return true
		}
		if decl := Callee(n); decl != nil && decl.Name == name {
			calls = append(calls, n)
		}
		return true
	})
	return calls
}
