package compiler_test

import (
	"strings"
	"testing"

	"github.com/gitrdm/lmntalc/pkg/compiler"
	"github.com/gitrdm/lmntalc/pkg/emit"
	"github.com/gitrdm/lmntalc/pkg/parsetree"
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

func TestCompile_FlatTermsWithSharedLink(t *testing.T) {
	// a(X), b(X).
	world := worldOf(unitAtom("a", linkName("X")), unitAtom("b", linkName("X")))

	prog, err := compiler.Compile(program(world), compiler.Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(prog.RuleSets) != 0 {
		t.Fatalf("RuleSets = %v, want none", prog.RuleSets)
	}

	var out strings.Builder
	if err := (emit.Text{}).Emit(&out, prog); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	text := out.String()
	for _, want := range []string{"new_atom", "new_link", "proceed"} {
		if !strings.Contains(text, want) {
			t.Fatalf("emitted text missing %q:\n%s", want, text)
		}
	}
}

func TestCompile_SimpleRuleProducesRuleSet(t *testing.T) {
	// a(X), b(X) :- c(X).
	pattern := parsetree.New(parsetree.KindPattern, "",
		unitAtom("a", linkName("X")),
		unitAtom("b", linkName("X")),
	)
	body := parsetree.New(parsetree.KindBody, "", unitAtom("c", linkName("X")))
	rule := parsetree.New(parsetree.KindRule, "", pattern, body).At(3, 1, 0)

	prog, err := compiler.Compile(program(worldOf(), rule), compiler.Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(prog.RuleSets) != 1 {
		t.Fatalf("RuleSets = %v, want 1", prog.RuleSets)
	}
	rs := prog.RuleSets[0]
	if len(rs.Rules) != 1 {
		t.Fatalf("Rules = %v, want 1", rs.Rules)
	}
	r := rs.Rules[0]
	if r.Name != "__rule_3" {
		t.Fatalf("Name = %q, want __rule_3", r.Name)
	}
	if len(r.Pattern) == 0 {
		t.Fatal("want a non-empty Pattern section")
	}
	if len(r.Removal) == 0 {
		t.Fatal("want a non-empty Removal section")
	}
	if len(r.Cases) != 1 || len(r.Cases[0].Body) == 0 {
		t.Fatalf("Cases = %v, want 1 case with a non-empty body", r.Cases)
	}
}

func TestCompile_PropagatesStructuralError(t *testing.T) {
	// a(X). -- X only occurs once
	world := worldOf(unitAtom("a", linkName("X")))
	if _, err := compiler.Compile(program(world), compiler.Options{}); err == nil {
		t.Fatal("Compile: want a structural error for a free link, got nil")
	}
}
