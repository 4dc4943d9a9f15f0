package guard_test

import (
	"testing"

	"github.com/gitrdm/lmntalc/pkg/guard"
	"github.com/gitrdm/lmntalc/pkg/parsetree"
	"github.com/gitrdm/lmntalc/pkg/session"
)

// fakeResolver resolves every name to a LinkSymbol keyed by position in a
// fixed name list, mimicking what a rule's scoped tables would return.
type fakeResolver struct {
	ids map[string]int
}

func newResolver(names ...string) *fakeResolver {
	ids := make(map[string]int, len(names))
	for i, n := range names {
		ids[n] = i
	}
	return &fakeResolver{ids: ids}
}

func (f *fakeResolver) ResolveName(name string) (session.Symbol, bool) {
	id, ok := f.ids[name]
	if !ok {
		return session.Symbol{}, false
	}
	return session.LinkSymbol(id), true
}

func intLit(v string) parsetree.Node { return parsetree.New(parsetree.KindInt, v) }
func link(name string) parsetree.Node { return parsetree.New(parsetree.KindLinkName, name) }
func op(k parsetree.Kind) parsetree.Node { return parsetree.New(k, "") }

func TestParse_ArithmeticLeftAssociative(t *testing.T) {
	// X - 1 - 2 parsed as AddSubExpr(X, '-', 1, '-', 2); must fold to
	// (X - 1) - 2, not X - (1 - 2).
	tree := parsetree.New(parsetree.KindAddSubExpr, "",
		link("X"), op(parsetree.KindOpSub), intLit("1"), op(parsetree.KindOpSub), intLit("2"))

	got, err := guard.Parse(tree, newResolver("X"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Op != session.GuardSub {
		t.Fatalf("root op = %v, want GuardSub", got.Op)
	}
	if got.Right.Op != session.GuardIntLit || got.Right.IntValue != 2 {
		t.Fatalf("root.Right = %+v, want int literal 2", got.Right)
	}
	inner := got.Left
	if inner.Op != session.GuardSub {
		t.Fatalf("root.Left op = %v, want GuardSub (left-associative)", inner.Op)
	}
	if inner.Left.Op != session.GuardLinkRef || inner.Left.LinkSymbol != session.LinkSymbol(0) {
		t.Fatalf("innermost left = %+v, want link X", inner.Left)
	}
	if inner.Right.IntValue != 1 {
		t.Fatalf("innermost right = %+v, want int literal 1", inner.Right)
	}
}

func TestParse_RelationalOverArithmetic(t *testing.T) {
	// X + 1 > Y, modelled as RelExpr(AddSubExpr(X,+,1), '>', Y).
	addExpr := parsetree.New(parsetree.KindAddSubExpr, "", link("X"), op(parsetree.KindOpAdd), intLit("1"))
	tree := parsetree.New(parsetree.KindRelExpr, "", addExpr, op(parsetree.KindOpGt), link("Y"))

	got, err := guard.Parse(tree, newResolver("X", "Y"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Op != session.GuardGt {
		t.Fatalf("root op = %v, want GuardGt", got.Op)
	}
	if got.Left.Op != session.GuardAdd {
		t.Fatalf("root.Left op = %v, want GuardAdd", got.Left.Op)
	}
	if got.Right.LinkSymbol != session.LinkSymbol(1) {
		t.Fatalf("root.Right = %+v, want link Y", got.Right)
	}
}

func TestParse_TypePredicate(t *testing.T) {
	tree := parsetree.New(parsetree.KindGuardInt, "", link("P"))
	got, err := guard.Parse(tree, newResolver("P"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Op != session.GuardTypePred || got.Pred != session.PredInt {
		t.Fatalf("got = %+v, want int() type predicate", got)
	}
	if len(got.PredSymbols) != 1 || got.PredSymbols[0] != session.LinkSymbol(0) {
		t.Fatalf("PredSymbols = %v, want [link P]", got.PredSymbols)
	}
}

func TestParse_UnresolvedNameIsScopeError(t *testing.T) {
	tree := parsetree.New(parsetree.KindGuardGround, "", link("Unbound"))
	_, err := guard.Parse(tree, newResolver())
	var scopeErr *session.ScopeError
	if err == nil {
		t.Fatal("Parse: want ScopeError, got nil")
	}
	if !asScopeError(err, &scopeErr) {
		t.Fatalf("Parse err = %v (%T), want *session.ScopeError", err, err)
	}
}

func asScopeError(err error, target **session.ScopeError) bool {
	se, ok := err.(*session.ScopeError)
	if !ok {
		return false
	}
	*target = se
	return true
}

func TestParse_OrAndPrecedenceShape(t *testing.T) {
	// a = 1 & b = 2 | c = 3, modelled as OrExpr(AndExpr(RelExpr..., RelExpr...), OR, RelExpr...)
	rel := func(name, lit string) parsetree.Node {
		return parsetree.New(parsetree.KindRelExpr, "", link(name), op(parsetree.KindOpEq), intLit(lit))
	}
	andExpr := parsetree.New(parsetree.KindAndExpr, "", rel("a", "1"), op(parsetree.KindOpAnd), rel("b", "2"))
	tree := parsetree.New(parsetree.KindOrExpr, "", andExpr, op(parsetree.KindOpOr), rel("c", "3"))

	got, err := guard.Parse(tree, newResolver("a", "b", "c"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Op != session.GuardOr {
		t.Fatalf("root op = %v, want GuardOr", got.Op)
	}
	if got.Left.Op != session.GuardAnd {
		t.Fatalf("root.Left op = %v, want GuardAnd", got.Left.Op)
	}
	if got.Right.Op != session.GuardEq {
		t.Fatalf("root.Right op = %v, want GuardEq", got.Right.Op)
	}
}
