// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package clangast decodes the JSON AST produced by clang -ast-dump=json
// and provides the queries needed to find calls of a function by name.
package clangast

import (
	"encoding/json"
	"fmt"
	"io"
)

// Kind is the node kind of interest. All other clang kinds map to Other,
// their original spelling is preserved in Node.KindName.
type Kind int

const (
	Other Kind = iota
	TranslationUnitDecl
	CallExpr
	DeclRefExpr
	StringLiteral
	ImplicitCastExpr
	CStyleCastExpr
	ParenExpr
)

var kindNames = map[string]Kind{
	"TranslationUnitDecl": TranslationUnitDecl,
	"CallExpr":            CallExpr,
	"DeclRefExpr":         DeclRefExpr,
	"StringLiteral":       StringLiteral,
	"ImplicitCastExpr":    ImplicitCastExpr,
	"CStyleCastExpr":      CStyleCastExpr,
	"ParenExpr":           ParenExpr,
}

func (k Kind) String() string {
	for name, kind := range kindNames {
		if kind == k {
			return name
		}
	}
	return "Other"
}

// IsWrapper returns true for kinds that wrap a single expression without changing its meaning
// for the purposes of callee and literal resolution.
func (k Kind) IsWrapper() bool {
	switch k {
	case ImplicitCastExpr, CStyleCastExpr, ParenExpr:
		return true
	default:
		return false
	}
}

type Node struct {
	Kind     Kind
	KindName string
	// Type is the qualType of expressions, verbatim as printed by clang.
	Type string
	// Value is set for literal nodes. For StringLiteral it contains the literal as spelled in C
	// (with quotes), for CharacterLiteral it's the numeric character value (e.g. "97").
	Value string
	// Decl is set for DeclRefExpr nodes.
	Decl  *Decl
	Loc   Loc
	Inner []*Node
}

type Decl struct {
	Kind string
	Name string
}

type Loc struct {
	File string
	Line int
}

func (loc Loc) String() string {
	if loc.File == "" {
		return "<unknown>"
	}
	if loc.Line == 0 {
		return loc.File
	}
	return fmt.Sprintf("%v:%v", loc.File, loc.Line)
}

type jsonNode struct {
	Kind string `json:"kind"`
	Type *struct {
		QualType string `json:"qualType"`
	} `json:"type"`
	Value          json.RawMessage `json:"value"`
	ReferencedDecl *struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
	} `json:"referencedDecl"`
	Loc   *jsonLoc `json:"loc"`
	Range *struct {
		Begin *jsonLoc `json:"begin"`
	} `json:"range"`
	Inner []*jsonNode `json:"inner"`
}

type jsonLoc struct {
	File         string   `json:"file"`
	Line         int      `json:"line"`
	ExpansionLoc *jsonLoc `json:"expansionLoc"`
}

// Decode decodes a whole translation unit dump.
// Clang omits file/line when they are the same as in the previously printed location,
// Decode fills them in from the previous node that had them, so locations are best-effort
// and are meant for diagnostics only.
func Decode(r io.Reader) (*Node, error) {
	jroot := new(jsonNode)
	if err := json.NewDecoder(r).Decode(jroot); err != nil {
		return nil, fmt.Errorf("failed to decode clang AST: %w", err)
	}
	if kindNames[jroot.Kind] != TranslationUnitDecl {
		return nil, fmt.Errorf("AST root is %q, expected TranslationUnitDecl", jroot.Kind)
	}
	type item struct {
		jn  *jsonNode
		dst *Node
	}
	root := new(Node)
	var last Loc
	stack := []item{{jroot, root}}
	for len(stack) != 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		convertNode(it.jn, it.dst, &last)
		for i := len(it.jn.Inner) - 1; i >= 0; i-- {
			if it.jn.Inner[i] == nil {
				continue
			}
			stack = append(stack, item{it.jn.Inner[i], it.dst.Inner[i]})
		}
	}
	return root, nil
}

func convertNode(jn *jsonNode, n *Node, last *Loc) {
	*n = Node{
		Kind:     kindNames[jn.Kind],
		KindName: jn.Kind,
		Value:    literalValue(jn.Value),
	}
	if jn.Type != nil {
		n.Type = jn.Type.QualType
	}
	if jn.ReferencedDecl != nil {
		n.Decl = &Decl{
			Kind: jn.ReferencedDecl.Kind,
			Name: jn.ReferencedDecl.Name,
		}
	}
	loc := jn.Loc
	if loc == nil && jn.Range != nil {
		loc = jn.Range.Begin
	}
	if loc != nil {
		// Calls that come from macros are reported at the macro use site.
		if loc.ExpansionLoc != nil {
			loc = loc.ExpansionLoc
		}
		if loc.File != "" {
			last.File = loc.File
		}
		if loc.Line != 0 {
			last.Line = loc.Line
		}
		n.Loc = *last
	}
	if len(jn.Inner) != 0 {
		n.Inner = make([]*Node, len(jn.Inner))
		for i, inner := range jn.Inner {
			if inner != nil {
				n.Inner[i] = new(Node)
			}
		}
	}
}

// literalValue converts "value" to text. Clang prints it as a JSON string for most literals,
// but as a JSON number for CharacterLiteral.
func literalValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err == nil {
			return str
		}
	}
	return string(raw)
}

// Walk visits all nodes in pre-order (in the order clang printed them).
// If fn returns false, children of the node are not visited.
// Walk uses an explicit stack, so it's safe to use on arbitrary deep trees.
func Walk(root *Node, fn func(*Node) bool) {
	stack := []*Node{root}
	for len(stack) != 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil || !fn(n) {
			continue
		}
		for i := len(n.Inner) - 1; i >= 0; i-- {
			stack = append(stack, n.Inner[i])
		}
	}
}
