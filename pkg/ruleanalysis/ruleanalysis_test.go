package ruleanalysis_test

import (
	"testing"

	"github.com/gitrdm/lmntalc/pkg/parsetree"
	"github.com/gitrdm/lmntalc/pkg/ruleanalysis"
	"github.com/gitrdm/lmntalc/pkg/session"
	"github.com/gitrdm/lmntalc/pkg/walker"
)

func atomName(s string) parsetree.Node { return parsetree.New(parsetree.KindAtomName, s) }
func linkName(s string) parsetree.Node { return parsetree.New(parsetree.KindLinkName, s) }

func unitAtom(name string, args ...parsetree.Node) parsetree.Node {
	children := append([]parsetree.Node{atomName(name)}, args...)
	return parsetree.New(parsetree.KindUnitAtom, "", children...)
}

func program(decls ...parsetree.Node) parsetree.Node {
	return parsetree.New(parsetree.KindProgram, "",
		parsetree.New(parsetree.KindWorldProcessList, ""),
		parsetree.New(parsetree.KindDeclarationList, "", decls...),
	)
}

func ruleOf(pattern, body parsetree.Node) parsetree.Node {
	return parsetree.New(parsetree.KindRule, "", pattern, body).At(1, 1, 0)
}

func TestAnalyse_TopLevelLinkInPatternRejected(t *testing.T) {
	// X, a :- b.
	rule := ruleOf(
		parsetree.New(parsetree.KindPattern, "", linkName("X"), unitAtom("a")),
		parsetree.New(parsetree.KindBody, "", unitAtom("b")),
	)
	_, err := walker.Walk(program(rule), ruleanalysis.Analyse)
	if err == nil {
		t.Fatal("want a scope error for a bare top-level pattern link, got nil")
	}
	if _, ok := err.(*session.ScopeError); !ok {
		t.Fatalf("err = %v (%T), want *session.ScopeError", err, err)
	}
}

func TestAnalyse_TopLevelLinkInBodyRejected(t *testing.T) {
	// a :- X, b.
	rule := ruleOf(
		parsetree.New(parsetree.KindPattern, "", unitAtom("a")),
		parsetree.New(parsetree.KindBody, "", linkName("X"), unitAtom("b")),
	)
	_, err := walker.Walk(program(rule), ruleanalysis.Analyse)
	if err == nil {
		t.Fatal("want a scope error for a bare top-level body link, got nil")
	}
	if _, ok := err.(*session.ScopeError); !ok {
		t.Fatalf("err = %v (%T), want *session.ScopeError", err, err)
	}
}

func TestAnalyse_LinkThirdOccurrenceRejected(t *testing.T) {
	// a(X,X), b(X) :- c.
	rule := ruleOf(
		parsetree.New(parsetree.KindPattern, "",
			unitAtom("a", linkName("X"), linkName("X")),
			unitAtom("b", linkName("X")),
		),
		parsetree.New(parsetree.KindBody, "", unitAtom("c")),
	)
	_, err := walker.Walk(program(rule), ruleanalysis.Analyse)
	if err == nil {
		t.Fatal("want a structural error for a third link occurrence, got nil")
	}
	if _, ok := err.(*session.StructuralError); !ok {
		t.Fatalf("err = %v (%T), want *session.StructuralError", err, err)
	}
}

func TestAnalyse_PatternLinkMustReconnectInEachCase(t *testing.T) {
	// a(X) :- c.  -- X matched but dropped on the floor
	rule := ruleOf(
		parsetree.New(parsetree.KindPattern, "", unitAtom("a", linkName("X"))),
		parsetree.New(parsetree.KindBody, "", unitAtom("c")),
	)
	_, err := walker.Walk(program(rule), ruleanalysis.Analyse)
	if err == nil {
		t.Fatal("want a structural error for an unreconnected pattern link, got nil")
	}
	if _, ok := err.(*session.StructuralError); !ok {
		t.Fatalf("err = %v (%T), want *session.StructuralError", err, err)
	}
}

func TestAnalyse_PatternLinkReconnectsBySameName(t *testing.T) {
	// a(X) :- c(X).
	rule := ruleOf(
		parsetree.New(parsetree.KindPattern, "", unitAtom("a", linkName("X"))),
		parsetree.New(parsetree.KindBody, "", unitAtom("c", linkName("X"))),
	)
	sess, err := walker.Walk(program(rule), ruleanalysis.Analyse)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	for _, r := range sess.Rules {
		if len(r.Cases) != 1 {
			t.Fatalf("len(Cases) = %d, want 1", len(r.Cases))
		}
		with := r.Cases[0].With
		if len(with) != 1 {
			t.Fatalf("len(With) = %d, want 1 implicit binding", len(with))
		}
		if with[0].FromName != "X" || with[0].ToName != "X" {
			t.Fatalf("With[0] = %+v, want X reconnected to X", with[0])
		}
	}
}

func TestAnalyse_BodyFreeLinkRejected(t *testing.T) {
	// a :- c(Y).  -- Y occurs once and matches nothing in the pattern
	rule := ruleOf(
		parsetree.New(parsetree.KindPattern, "", unitAtom("a")),
		parsetree.New(parsetree.KindBody, "", unitAtom("c", linkName("Y"))),
	)
	_, err := walker.Walk(program(rule), ruleanalysis.Analyse)
	if err == nil {
		t.Fatal("want a structural error for a free body link, got nil")
	}
	if _, ok := err.(*session.StructuralError); !ok {
		t.Fatalf("err = %v (%T), want *session.StructuralError", err, err)
	}
}

func TestAnalyse_RuleWithExplicitName(t *testing.T) {
	rule := parsetree.New(parsetree.KindRule, "",
		parsetree.New(parsetree.KindRuleName, "swap"),
		parsetree.New(parsetree.KindPattern, "", unitAtom("a")),
		parsetree.New(parsetree.KindBody, "", unitAtom("b")),
	).At(7, 1, 0)
	sess, err := walker.Walk(program(rule), ruleanalysis.Analyse)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	for _, r := range sess.Rules {
		if r.Name != "swap" {
			t.Fatalf("Name = %q, want swap", r.Name)
		}
	}
}
