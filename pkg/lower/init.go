// Package lower turns a populated session.Session into IL instructions:
// InitIL lowers the whole program's initial graph (the root membrane and
// everything under it), Rule lowers one rule's pattern, guard, removal,
// and case bodies.
package lower

import (
	"github.com/gitrdm/lmntalc/pkg/il"
	"github.com/gitrdm/lmntalc/pkg/session"
)

// InitIL lowers the session's root membrane into the program's initial
// instruction sequence: one rule block ("_init") that builds every atom,
// membrane, and link the program declares at the top level, then marks
// each membrane's rule-set labels. Atoms are emitted in process order;
// the links their ports name are drained from a LIFO queue afterwards.
func InitIL(sess *session.Session) []il.Instruction {
	g := &initGen{
		sess:        sess,
		queued:      make(map[session.Symbol]bool),
		emittedLink: make(map[session.LinkID]bool),
	}
	g.entities = 1 // the root membrane itself

	root := sess.Membrane(sess.Root)
	for _, p := range root.Process {
		g.genInner(p)
	}
	for len(g.queue) > 0 {
		last := len(g.queue) - 1
		p := g.queue[last]
		g.queue = g.queue[:last]
		g.genInner(p)
	}

	g.genRuleSet(root)
	g.emit(il.Proceed{})

	head := []il.Instruction{
		il.Spec{Formals: 1, Locals: g.entities},
		il.Commit{Name: "_init", Line: 0},
	}
	return append(head, g.out...)
}

type initGen struct {
	sess        *session.Session
	out         []il.Instruction
	queue       []session.Symbol
	queued      map[session.Symbol]bool
	emittedLink map[session.LinkID]bool
	entities    int
}

func (g *initGen) emit(i il.Instruction) { g.out = append(g.out, i) }

func (g *initGen) enqueue(s session.Symbol) {
	if g.queued[s] {
		return
	}
	g.queued[s] = true
	g.queue = append(g.queue, s)
}

func (g *initGen) genInner(s session.Symbol) {
	switch s.Tag {
	case session.TagAtom:
		g.genAtom(session.AtomID(s.ID))
	case session.TagLink:
		g.genLink(session.LinkID(s.ID), 0)
	case session.TagMembrane:
		g.genMembrane(session.MembraneID(s.ID))
	case session.TagRule:
		// Rule symbols never appear in a Membrane's Process; nothing to
		// do even if one did.
	}
}

func (g *initGen) genAtom(id session.AtomID) {
	a := g.sess.Atom(id)
	g.entities++
	g.emit(il.NewAtom{AtomID: int(id), MemID: int(a.Membrane), Functor: a.Functor()})
	for _, lid := range a.Ports {
		g.enqueue(session.LinkSymbol(int(lid)))
	}
}

func (g *initGen) genLink(id session.LinkID, mem int) {
	// A link can be reached twice: once through an atom's port queue and
	// once directly, when its membrane-owned end sits in a Process list
	// as a bare top-level link. Each edge is emitted exactly once.
	if g.emittedLink[id] {
		return
	}
	g.emittedLink[id] = true
	l := g.sess.Link(id)
	id1, pos1 := ownerOperands(l.Endpoint1)
	id2, pos2 := ownerOperands(l.Endpoint2)
	// The membrane operand is 0 for every init-block edge regardless of
	// nesting depth; the runtime resolves ownership from the endpoints.
	g.emit(il.NewLink{Atom1: id1, Pos1: pos1, Atom2: id2, Pos2: pos2, MemID: mem})
}

// ownerOperands reduces an Endpoint to the (id, port) pair NewLink expects.
// A Membrane-owned endpoint (the bare-top-level-link case) uses the
// membrane's own id with port 0, since a membrane has no ports to pick
// among.
func ownerOperands(e *session.Endpoint) (int, int) {
	if e == nil {
		return 0, 0
	}
	return e.Owner.ID, e.Port
}

func (g *initGen) genMembrane(id session.MembraneID) {
	m := g.sess.Membrane(id)
	g.entities++
	g.emit(il.NewMem{MemID: int(id), ParentMemID: 0})
	if m.Name != "" {
		g.emit(il.SetMemName{MemID: int(id), Name: m.Name})
	}
	for _, p := range m.Process {
		g.genInner(p)
	}
	g.genRuleSet(m)
}

// genRuleSet attaches m's rule set, if any: a load_rule_set binding the
// set to the membrane, a rule_set label opening the set's block, and one
// rule label per attached rule. Rule-set ids share the membrane-id
// namespace, so the set's id is the membrane's own.
func (g *initGen) genRuleSet(m *session.Membrane) {
	if len(m.RuleSet) == 0 {
		return
	}
	g.emit(il.LoadRuleSet{MemID: int(m.ID), RuleSetID: int(m.ID)})
	g.emit(il.RuleSetLabel{ID: int(m.ID)})
	for _, rid := range m.RuleSet {
		g.genRule(rid)
	}
}

// genRule only marks a rule's place in its rule set's label stream. The
// rule bodies themselves are lowered separately by Rule and assembled by
// pkg/compiler into their own blocks.
func (g *initGen) genRule(id session.RuleID) {
	g.emit(il.RuleLabel{ID: int(id)})
}
