// Package guard converts a guard's parsetree.Node subtree into a
// session.GuardExpr tree. The grammar's own node kinds already encode
// precedence (OrExpr < AndExpr < RelExpr < AddSubExpr < MulDivExpr, lowest
// to highest), so this is a recursive descent over that shape rather than
// a climbing parser over a flat token stream; each level folds
// left-associatively over its operator children, so every binary operator
// reads left-associative.
package guard

import (
	"strconv"

	"github.com/gitrdm/lmntalc/pkg/parsetree"
	"github.com/gitrdm/lmntalc/pkg/session"
)

// Resolver maps a source-level name (a link name or $process-context name)
// to the Symbol it refers to within the enclosing rule's scope. The rule
// analyser supplies the concrete implementation, backed by the rule's own
// scoped tables.
type Resolver interface {
	ResolveName(name string) (session.Symbol, bool)
}

var orOps = map[parsetree.Kind]session.GuardOp{parsetree.KindOpOr: session.GuardOr}
var andOps = map[parsetree.Kind]session.GuardOp{parsetree.KindOpAnd: session.GuardAnd}
var relOps = map[parsetree.Kind]session.GuardOp{
	parsetree.KindOpEq: session.GuardEq,
	parsetree.KindOpNe: session.GuardNe,
	parsetree.KindOpLt: session.GuardLt,
	parsetree.KindOpLe: session.GuardLe,
	parsetree.KindOpGt: session.GuardGt,
	parsetree.KindOpGe: session.GuardGe,
}
var addSubOps = map[parsetree.Kind]session.GuardOp{
	parsetree.KindOpAdd: session.GuardAdd,
	parsetree.KindOpSub: session.GuardSub,
}
var mulDivOps = map[parsetree.Kind]session.GuardOp{
	parsetree.KindOpMul: session.GuardMul,
	parsetree.KindOpDiv: session.GuardDiv,
	parsetree.KindOpMod: session.GuardMod,
}

var predKinds = map[parsetree.Kind]session.TypePredicate{
	parsetree.KindGuardInt:    session.PredInt,
	parsetree.KindGuardFloat:  session.PredFloat,
	parsetree.KindGuardUnary:  session.PredUnary,
	parsetree.KindGuardUniq:   session.PredUniq,
	parsetree.KindGuardGround: session.PredGround,
}

// Parse converts the guard subtree rooted at n into a GuardExpr, resolving
// every link/process-context leaf through resolve. It returns a
// *session.SyntaxError wrapped as error for any shape it does not
// recognise, and a *session.ScopeError for a name resolve cannot find.
func Parse(n parsetree.Node, resolve Resolver) (*session.GuardExpr, error) {
	return convert(n, resolve)
}

func convert(n parsetree.Node, r Resolver) (*session.GuardExpr, error) {
	switch n.Kind() {
	case parsetree.KindGuard, parsetree.KindVarGuard:
		return descendSingle(n, r)
	case parsetree.KindOrExpr:
		return foldLevel(n, r, orOps)
	case parsetree.KindAndExpr:
		return foldLevel(n, r, andOps)
	case parsetree.KindRelExpr:
		return foldLevel(n, r, relOps)
	case parsetree.KindAddSubExpr:
		return foldLevel(n, r, addSubOps)
	case parsetree.KindMulDivExpr:
		return foldLevel(n, r, mulDivOps)
	case parsetree.KindInt:
		v, err := strconv.ParseInt(n.Text(), 10, 64)
		if err != nil {
			return nil, &session.SyntaxError{Line: n.Span().Line, Col: n.Span().Col, Msg: "malformed integer literal " + n.Text()}
		}
		return withPos(session.NewIntLit(v), n), nil
	case parsetree.KindFloat:
		v, err := strconv.ParseFloat(n.Text(), 64)
		if err != nil {
			return nil, &session.SyntaxError{Line: n.Span().Line, Col: n.Span().Col, Msg: "malformed float literal " + n.Text()}
		}
		return withPos(session.NewFloatLit(v), n), nil
	case parsetree.KindLinkName, parsetree.KindContext:
		sym, ok := r.ResolveName(n.Text())
		if !ok {
			return nil, &session.ScopeError{Line: n.Span().Line, Col: n.Span().Col, Name: n.Text(), Msg: "is not bound in this rule's pattern"}
		}
		return withPos(session.NewLinkRef(sym), n), nil
	case parsetree.KindGuardInt, parsetree.KindGuardFloat, parsetree.KindGuardUnary,
		parsetree.KindGuardUniq, parsetree.KindGuardGround:
		return convertTypePredicate(n, r)
	default:
		return descendSingle(n, r)
	}
}

// descendSingle handles wrapper/grouping nodes that exist purely to carry a
// single inner production (e.g. a Guard node wrapping its top OrExpr).
func descendSingle(n parsetree.Node, r Resolver) (*session.GuardExpr, error) {
	children := n.Children()
	if len(children) != 1 {
		return nil, &session.SyntaxError{Line: n.Span().Line, Col: n.Span().Col, Msg: "expected exactly one child under " + n.Kind().String()}
	}
	return convert(children[0], r)
}

// foldLevel left-folds a precedence level's children over its operator map:
// operand, (operator, operand)*. A level with a single operand and no
// operator children just returns that operand, which is how lower-
// precedence productions pass through untouched.
func foldLevel(n parsetree.Node, r Resolver, ops map[parsetree.Kind]session.GuardOp) (*session.GuardExpr, error) {
	children := n.Children()
	if len(children) == 0 {
		return nil, &session.SyntaxError{Line: n.Span().Line, Col: n.Span().Col, Msg: "empty " + n.Kind().String()}
	}
	left, err := convert(children[0], r)
	if err != nil {
		return nil, err
	}
	i := 1
	for i < len(children) {
		op, ok := ops[children[i].Kind()]
		if !ok {
			return nil, &session.SyntaxError{Line: children[i].Span().Line, Col: children[i].Span().Col, Msg: "unexpected operator " + children[i].Kind().String() + " in " + n.Kind().String()}
		}
		i++
		if i >= len(children) {
			return nil, &session.SyntaxError{Line: n.Span().Line, Col: n.Span().Col, Msg: "operator with no right operand in " + n.Kind().String()}
		}
		right, err := convert(children[i], r)
		if err != nil {
			return nil, err
		}
		left = session.NewBinary(op, left, right)
		i++
	}
	return left, nil
}

// convertTypePredicate handles int(X), float(X), unary(X), uniq(X1,...,Xn),
// ground(X1,...,Xn) leaves. Arguments are link/process-context names given
// as children.
func convertTypePredicate(n parsetree.Node, r Resolver) (*session.GuardExpr, error) {
	pred := predKinds[n.Kind()]
	names := parsetree.ChildrenOfKind(n, parsetree.KindLinkName)
	names = append(names, parsetree.ChildrenOfKind(n, parsetree.KindContext)...)
	if len(names) == 0 {
		return nil, &session.SyntaxError{Line: n.Span().Line, Col: n.Span().Col, Msg: n.Kind().String() + " needs at least one argument"}
	}
	syms := make([]session.Symbol, 0, len(names))
	for _, c := range names {
		sym, ok := r.ResolveName(c.Text())
		if !ok {
			return nil, &session.ScopeError{Line: c.Span().Line, Col: c.Span().Col, Name: c.Text(), Msg: "is not bound in this rule's pattern"}
		}
		syms = append(syms, sym)
	}
	return withPos(session.NewTypePred(pred, syms...), n), nil
}

func withPos(g *session.GuardExpr, n parsetree.Node) *session.GuardExpr {
	sp := n.Span()
	g.Pos = session.SourceSpan{Line: sp.Line, Col: sp.Col, Offset: sp.Offset}
	return g
}
