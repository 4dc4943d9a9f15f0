package walker_test

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

func program(world parsetree.Node, decls ...parsetree.Node) parsetree.Node {
	declList := parsetree.New(parsetree.KindDeclarationList, "", decls...)
	return parsetree.New(parsetree.KindProgram, "", world, declList)
}

func worldOf(procs ...parsetree.Node) parsetree.Node {
	return parsetree.New(parsetree.KindWorldProcessList, "", procs...)
}

func TestWalk_FlatTermsWithSharedLink(t *testing.T) {
	// a(X), b(X).
	world := worldOf(
		unitAtom("a", linkName("X")),
		unitAtom("b", linkName("X")),
	)
	sess, err := walker.Walk(program(world), ruleanalysis.Analyse)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(sess.Atoms) != 2 {
		t.Fatalf("len(Atoms) = %d, want 2", len(sess.Atoms))
	}
	if len(sess.Links) != 1 {
		t.Fatalf("len(Links) = %d, want 1", len(sess.Links))
	}
	for _, l := range sess.Links {
		if l.IsFree() {
			t.Fatalf("link %q is free, want fully connected", l.Name)
		}
	}
	root := sess.Membrane(sess.Root)
	if len(root.Process) != 2 {
		t.Fatalf("root.Process = %v, want 2 entries", root.Process)
	}
}

func TestWalk_NestedMembrane(t *testing.T) {
	// a(X). { b(X). }
	inner := parsetree.New(parsetree.KindMembrane, "",
		parsetree.New(parsetree.KindWorldProcessList, "", unitAtom("b", linkName("X"))),
	)
	world := worldOf(unitAtom("a", linkName("X")), inner)

	sess, err := walker.Walk(program(world), ruleanalysis.Analyse)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(sess.Membranes) != 2 {
		t.Fatalf("len(Membranes) = %d, want 2 (root + nested)", len(sess.Membranes))
	}
	root := sess.Membrane(sess.Root)
	foundMembraneSymbol := false
	for _, sym := range root.Process {
		if sym.Tag == session.TagMembrane {
			foundMembraneSymbol = true
		}
	}
	if !foundMembraneSymbol {
		t.Fatalf("root.Process = %v, want a Membrane symbol", root.Process)
	}
}

func TestWalk_NestedTermDesugaring(t *testing.T) {
	// a(b(1)).
	nested := unitAtom("b", parsetree.New(parsetree.KindInt, "1"))
	world := worldOf(unitAtom("a", nested))

	sess, err := walker.Walk(program(world), ruleanalysis.Analyse)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	// a/1, b/2 (its explicit argument plus one synthesised port), and the
	// literal atom "1"/1 (one synthesised port) => 3 atoms total.
	if len(sess.Atoms) != 3 {
		t.Fatalf("len(Atoms) = %d, want 3", len(sess.Atoms))
	}
	if len(sess.Links) != 2 {
		t.Fatalf("len(Links) = %d, want 2 synthesised links", len(sess.Links))
	}
}

func TestWalk_FreeLinkIsStructuralError(t *testing.T) {
	// a(X). -- X only occurs once
	world := worldOf(unitAtom("a", linkName("X")))
	_, err := walker.Walk(program(world), ruleanalysis.Analyse)
	if err == nil {
		t.Fatal("Walk: want structural error for free link, got nil")
	}
	if _, ok := err.(*session.StructuralError); !ok {
		t.Fatalf("Walk err = %v (%T), want *session.StructuralError", err, err)
	}
}

func TestWalk_SimpleAnonymousRule(t *testing.T) {
	// a(X), b(X) :- c(X).
	pattern := parsetree.New(parsetree.KindPattern, "",
		unitAtom("a", linkName("X")),
		unitAtom("b", linkName("X")),
	)
	body := parsetree.New(parsetree.KindBody, "", unitAtom("c", linkName("X")))
	rule := parsetree.New(parsetree.KindRule, "", pattern, body).At(3, 1, 0)

	sess, err := walker.Walk(program(worldOf(), rule), ruleanalysis.Analyse)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(sess.Rules) != 1 {
		t.Fatalf("len(Rules) = %d, want 1", len(sess.Rules))
	}
	for _, r := range sess.Rules {
		if r.Name != "__rule_3" {
			t.Fatalf("r.Name = %q, want __rule_3", r.Name)
		}
		if len(r.Cases) != 1 {
			t.Fatalf("len(r.Cases) = %d, want 1", len(r.Cases))
		}
		if len(r.PatternAtoms) != 2 {
			t.Fatalf("len(r.PatternAtoms) = %d, want 2", len(r.PatternAtoms))
		}
	}
}

func TestWalk_MultiCaseGuardedRule(t *testing.T) {
	// a, $p :- when int($p) then b(Y),d(Y). when float($p) then c(Z),e(Z).
	pattern := parsetree.New(parsetree.KindPattern, "",
		unitAtom("a"),
		parsetree.New(parsetree.KindContext, "p"),
	)
	ctx := func() parsetree.Node { return parsetree.New(parsetree.KindContext, "p") }
	when1 := parsetree.New(parsetree.KindWhen, "",
		parsetree.New(parsetree.KindGuard, "", parsetree.New(parsetree.KindGuardInt, "", ctx())),
		parsetree.New(parsetree.KindThen, "", parsetree.New(parsetree.KindBody, "",
			unitAtom("b", linkName("Y")), unitAtom("d", linkName("Y")))),
	)
	when2 := parsetree.New(parsetree.KindWhen, "",
		parsetree.New(parsetree.KindGuard, "", parsetree.New(parsetree.KindGuardFloat, "", ctx())),
		parsetree.New(parsetree.KindThen, "", parsetree.New(parsetree.KindBody, "",
			unitAtom("c", linkName("Z")), unitAtom("e", linkName("Z")))),
	)
	rule := parsetree.New(parsetree.KindRule, "", pattern, when1, when2).At(1, 1, 0)

	sess, err := walker.Walk(program(worldOf(), rule), ruleanalysis.Analyse)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	for _, r := range sess.Rules {
		if len(r.Cases) != 2 {
			t.Fatalf("len(r.Cases) = %d, want 2", len(r.Cases))
		}
		if r.Cases[0].Guard == nil || r.Cases[1].Guard == nil {
			t.Fatal("both cases want a non-nil guard")
		}
		if len(r.ProcContexts) != 1 {
			t.Fatalf("len(r.ProcContexts) = %d, want 1", len(r.ProcContexts))
		}
	}
}
