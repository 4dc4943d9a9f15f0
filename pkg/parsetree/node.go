// Package parsetree defines the contract between the grammar/token-level
// parser (an external collaborator, out of scope for this module) and the
// semantic walker in pkg/walker. The parser builds a tree of Nodes; the
// walker only ever reads it.
package parsetree

// Kind identifies the grammar production a Node was built from.
type Kind int

const (
	KindUnknown Kind = iota
	KindProgram
	KindWorldProcessList
	KindDeclarationList
	KindDeclaration
	KindUnitAtom
	KindAtom
	KindMembrane
	KindLink
	KindRule
	KindPattern
	KindBody
	KindGuard
	KindVarGuard
	KindWhen
	KindWith
	KindThen
	KindContext
	KindAtomName
	KindLinkName
	KindRuleName
	KindOrExpr
	KindAndExpr
	KindRelExpr
	KindAddSubExpr
	KindMulDivExpr
	KindGuardFuncConstraint
	KindGuardFunctorList
	KindGuardFunctor
	KindGuardInt
	KindGuardFloat
	KindGuardUnary
	KindGuardUniq
	KindGuardGround
	KindInt
	KindFloat

	// operator terminals
	KindOpOr
	KindOpAnd
	KindOpEq
	KindOpNe
	KindOpLt
	KindOpLe
	KindOpGt
	KindOpGe
	KindOpAdd
	KindOpSub
	KindOpMul
	KindOpDiv
	KindOpMod
)

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

var kindNames = map[Kind]string{
	KindProgram:             "Program",
	KindWorldProcessList:    "WorldProcessList",
	KindDeclarationList:     "DeclarationList",
	KindDeclaration:         "Declaration",
	KindUnitAtom:            "UnitAtom",
	KindAtom:                "Atom",
	KindMembrane:            "Membrane",
	KindLink:                "Link",
	KindRule:                "Rule",
	KindPattern:             "Pattern",
	KindBody:                "Body",
	KindGuard:               "Guard",
	KindVarGuard:            "VarGuard",
	KindWhen:                "WHEN",
	KindWith:                "WITH",
	KindThen:                "THEN",
	KindContext:             "Context",
	KindAtomName:            "AtomName",
	KindLinkName:            "LinkName",
	KindRuleName:            "RuleName",
	KindOrExpr:              "OrExpr",
	KindAndExpr:             "AndExpr",
	KindRelExpr:             "RelExpr",
	KindAddSubExpr:          "AddSubExpr",
	KindMulDivExpr:          "MulDivExpr",
	KindGuardFuncConstraint: "GuardFuncConstraint",
	KindGuardFunctorList:    "GuardFunctorList",
	KindGuardFunctor:        "GuardFunctor",
	KindGuardInt:            "GuardInt",
	KindGuardFloat:          "GuardFloat",
	KindGuardUnary:          "GuardUnary",
	KindGuardUniq:           "GuardUniq",
	KindGuardGround:         "GuardGround",
	KindInt:                 "Int",
	KindFloat:               "Float",
	KindOpOr:                "OR",
	KindOpAnd:               "AND",
	KindOpEq:                "EQ",
	KindOpNe:                "NE",
	KindOpLt:                "LT",
	KindOpLe:                "LE",
	KindOpGt:                "GT",
	KindOpGe:                "GE",
	KindOpAdd:               "ADD",
	KindOpSub:               "SUB",
	KindOpMul:               "MUL",
	KindOpDiv:               "DIV",
	KindOpMod:               "MOD",
}

// Span is a source position range, line/column 1-based, offset 0-based.
type Span struct {
	Line   int
	Col    int
	Offset int
}

// Node is the read-only interface the walker, rule analyser, and guard
// parser consume. The concrete implementation (backed by whatever parser
// generator produced the tree) lives outside this module.
type Node interface {
	Kind() Kind
	Span() Span
	Text() string
	Children() []Node
}

// ChildrenOfKind filters Children() by Kind, preserving order. It is the
// one helper every consumer of Node needs, so it lives here rather than
// being copy-pasted into walker/ruleanalysis/guard.
func ChildrenOfKind(n Node, k Kind) []Node {
	var out []Node
	for _, c := range n.Children() {
		if c.Kind() == k {
			out = append(out, c)
		}
	}
	return out
}

// FirstChildOfKind returns the first child with the given Kind, or nil.
func FirstChildOfKind(n Node, k Kind) Node {
	for _, c := range n.Children() {
		if c.Kind() == k {
			return c
		}
	}
	return nil
}
