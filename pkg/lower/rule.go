package lower

import (
	"github.com/gitrdm/lmntalc/pkg/il"
	"github.com/gitrdm/lmntalc/pkg/session"
)

// CaseIL is one case's lowered guard and body instructions.
type CaseIL struct {
	Guard []il.Instruction
	Body  []il.Instruction
}

// RuleIL is one rule's lowered pattern, removal, and per-case instructions.
type RuleIL struct {
	Name    string
	Pattern []il.Instruction
	Removal []il.Instruction
	Cases   []CaseIL
}

type removeEntry struct {
	sym      session.Symbol // register-valued: Atom(reg) or Membrane(reg)
	enclMem  int
}

// Rule lowers one session.Rule into a RuleIL: its pattern section (one
// find_atom/any_mem per top-level pattern process, a deref_atom per
// desugared nested term, plus a remove stack), its removal section (the
// remove stack popped in reverse so children are detached before their
// containers), and one CaseIL per case.
//
// Guard lowering is limited to type-predicate checks
// (is_int/is_float/is_unary/is_ground): the IL instruction set has no
// arithmetic or relational operators to lower a full boolean/arithmetic
// expression tree into, so arithmetic/relational/logical guard nodes are
// walked (to reach any nested type-predicate) but themselves emit nothing.
// The full guard tree stays on session.Case for the runtime's evaluator.
func Rule(sess *session.Session, r *session.Rule) RuleIL {
	lo := &ruleLower{
		sess:       sess,
		rule:       r,
		registerOf: make(map[session.Symbol]il.Register),
		topLevel:   make(map[session.Symbol]bool, len(r.Pattern.Process)),
	}
	for _, sym := range r.Pattern.Process {
		lo.topLevel[sym] = true
	}
	lo.genPattern()
	lo.genRemoval()

	out := RuleIL{Name: r.Name, Pattern: lo.pattern, Removal: lo.removal}
	for _, c := range r.Cases {
		out.Cases = append(out.Cases, lo.genCase(c))
	}
	return out
}

type ruleLower struct {
	sess       *session.Session
	rule       *session.Rule
	register   int
	remove     []removeEntry
	pattern    []il.Instruction
	removal    []il.Instruction
	registerOf map[session.Symbol]il.Register

	// topLevel marks the pattern's own process-list symbols, so genDerefs
	// can tell a desugared nested atom (reached only through a parent's
	// port) from a sibling top-level atom that find_atom will bind later.
	topLevel map[session.Symbol]bool
}

func (lo *ruleLower) nextRegister() il.Register {
	r := il.Register(lo.register)
	lo.register++
	return r
}

// genPattern emits the pattern section's find_atom/any_mem instructions,
// then closes the section with a Spec reserving the register file this
// rule used (locals is the highest register + 1) followed by a Commit
// carrying the rule's name and source line. Every rule transitions through
// commit to mark the end of matching, not only the init block
// (pkg/lower/init.go emits its own Spec/Commit pair for "_init").
func (lo *ruleLower) genPattern() {
	for _, sym := range lo.rule.Pattern.Process {
		switch sym.Tag {
		case session.TagAtom:
			lo.genPatternAtom(session.AtomID(sym.ID))
		case session.TagMembrane:
			lo.genPatternMembrane(session.MembraneID(sym.ID))
		case session.TagProcContext:
			// A process context carries no structural check of its own
			// (it matches "whatever's left"); it still gets a register so
			// a guard type-predicate naming it has something to check.
			reg := lo.nextRegister()
			lo.registerOf[sym] = reg
		case session.TagLink:
			// A bare link cannot occur directly in a pattern's top-level
			// process list (the analyser rejects it); nothing to lower.
		}
	}
	lo.pattern = append(lo.pattern,
		il.Spec{Formals: 1, Locals: lo.register},
		il.Commit{Name: lo.rule.Name, Line: lo.rule.Line},
	)
}

func (lo *ruleLower) genPatternAtom(id session.AtomID) {
	a := lo.rule.PatternAtoms[id]
	reg := lo.nextRegister()
	lo.pattern = append(lo.pattern, il.FindAtom{To: reg, MemID: int(a.Membrane), Name: a.Name, Arity: a.Arity()})
	lo.registerOf[session.AtomSymbol(int(id))] = reg
	lo.remove = append(lo.remove, removeEntry{sym: session.AtomSymbol(int(reg)), enclMem: int(a.Membrane)})
	lo.genDerefs(a, reg)
}

// genDerefs follows each port of a just-matched atom whose far end is a
// desugared nested pattern atom (one the analyser flattened out of an
// argument position, so it never appears in Pattern.Process), emitting a
// deref_atom to bind it and recursing for deeper nesting. Each deref'd
// atom joins the remove stack like any other matched pattern entity.
func (lo *ruleLower) genDerefs(a *session.Atom, reg il.Register) {
	self := session.AtomSymbol(int(a.ID))
	for i, lid := range a.Ports {
		l := lo.rule.PatternLinks[lid]
		if l == nil || l.Endpoint1 == nil || l.Endpoint2 == nil {
			continue
		}
		other := l.Endpoint2
		if other.Owner == self && other.Port == i {
			other = l.Endpoint1
		}
		if other.Owner.Tag != session.TagAtom {
			continue
		}
		if _, bound := lo.registerOf[other.Owner]; bound {
			continue
		}
		if lo.topLevel[other.Owner] {
			// Closed link between two top-level pattern atoms: the far
			// atom gets its own find_atom, not a deref.
			continue
		}
		child := lo.rule.PatternAtoms[session.AtomID(other.Owner.ID)]
		nreg := lo.nextRegister()
		lo.pattern = append(lo.pattern, il.DerefAtom{To: nreg, From: reg, Position: i})
		lo.registerOf[other.Owner] = nreg
		lo.remove = append(lo.remove, removeEntry{sym: session.AtomSymbol(int(nreg)), enclMem: int(child.Membrane)})
		lo.genDerefs(child, nreg)
	}
}

func (lo *ruleLower) genPatternMembrane(id session.MembraneID) {
	m := lo.rule.PatternMembranes[id]
	reg := lo.nextRegister()
	lo.pattern = append(lo.pattern, il.AnyMem{Register: reg, ParentMemID: int(lo.rule.Membrane), MemType: 0, Name: m.Name})
	lo.registerOf[session.MembraneSymbol(int(id))] = reg
	lo.remove = append(lo.remove, removeEntry{sym: session.MembraneSymbol(int(reg)), enclMem: int(m.Parent)})
	// Process mixes atom, sub-membrane, and membrane-owned link symbols;
	// the child-count assertions are per tag.
	var atoms, mems int
	for _, p := range m.Process {
		switch p.Tag {
		case session.TagAtom:
			atoms++
		case session.TagMembrane:
			mems++
		}
	}
	lo.pattern = append(lo.pattern,
		il.NAtoms{Register: reg, Count: atoms},
		il.NMems{Register: reg, Count: mems},
	)
}

func (lo *ruleLower) genRemoval() {
	for i := len(lo.remove) - 1; i >= 0; i-- {
		e := lo.remove[i]
		switch e.sym.Tag {
		case session.TagAtom:
			lo.removal = append(lo.removal, il.RemoveAtom{Register: il.Register(e.sym.ID), ParentMemID: e.enclMem})
		case session.TagMembrane:
			lo.removal = append(lo.removal, il.RemoveMem{Register: il.Register(e.sym.ID), ParentMemID: e.enclMem})
		}
	}
}

func (lo *ruleLower) genCase(c session.Case) CaseIL {
	var cio CaseIL
	cio.Guard = lo.genGuard(c.Guard)

	bg := &bodyGen{sess: lo.sess, mem: c.Body}
	bg.genMembraneBody(c.Body)

	for _, b := range c.With {
		reg, ok := lo.bindingRegister(b.From)
		if !ok {
			continue
		}
		if lid, ok := bg.boundLinkByName[b.ToName]; ok {
			bg.out = append(bg.out, il.ReLink{LinkID: int(lid), Atom1: int(reg), Atom2: bg.owningAtom[lid]})
		}
	}

	cio.Body = bg.out
	return cio
}

// bindingRegister resolves a with-binding's pattern-side symbol to the
// register its match occupies. An atom, membrane, or process context has
// its own register; a pattern link resolves through the atom owning its
// first endpoint, since links themselves are never bound to registers.
func (lo *ruleLower) bindingRegister(from session.Symbol) (il.Register, bool) {
	if reg, ok := lo.registerOf[from]; ok {
		return reg, true
	}
	if from.Tag != session.TagLink {
		return 0, false
	}
	l := lo.rule.PatternLinks[session.LinkID(from.ID)]
	if l == nil || l.Endpoint1 == nil {
		return 0, false
	}
	reg, ok := lo.registerOf[l.Endpoint1.Owner]
	return reg, ok
}

func (lo *ruleLower) genGuard(g *session.GuardExpr) []il.Instruction {
	if g == nil {
		return nil
	}
	if g.Op == session.GuardTypePred {
		var out []il.Instruction
		for _, sym := range g.PredSymbols {
			reg, ok := lo.bindingRegister(sym)
			if !ok {
				continue
			}
			switch g.Pred {
			case session.PredInt:
				out = append(out, il.IsInt{Register: reg})
			case session.PredFloat:
				out = append(out, il.IsFloat{Register: reg})
			case session.PredUnary:
				out = append(out, il.IsUnary{Register: reg})
			case session.PredGround:
				out = append(out, il.IsGround{Register: reg})
			}
		}
		return out
	}
	return append(lo.genGuard(g.Left), lo.genGuard(g.Right)...)
}
