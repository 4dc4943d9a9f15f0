package lower

import (
	"github.com/gitrdm/lmntalc/pkg/il"
	"github.com/gitrdm/lmntalc/pkg/session"
)

// bodyGen lowers one rule case's body membrane into its construction
// instructions. A link is emitted exactly once, at the point where the
// atom owning its second endpoint is reached; a link with no second
// endpoint at the end of
// the body is not a free-link error here (pkg/walker.BuildBody already
// permits that) but a with-bound reconnection point back to the rule's
// pattern, resolved by Rule's genCase via relink.
type bodyGen struct {
	sess *session.Session
	mem  session.MembraneID

	out             []il.Instruction
	emittedLink     map[session.LinkID]bool
	boundLinkByName map[string]session.LinkID
	owningAtom      map[session.LinkID]int
}

func (bg *bodyGen) genMembraneBody(id session.MembraneID) {
	if bg.emittedLink == nil {
		bg.emittedLink = make(map[session.LinkID]bool)
		bg.boundLinkByName = make(map[string]session.LinkID)
		bg.owningAtom = make(map[session.LinkID]int)
	}

	m := bg.sess.Membrane(id)
	// The case's own body membrane is constructed directly in its
	// enclosing membrane (a rule body is not itself a fresh nesting
	// level); only membranes declared INSIDE the body get a new_mem.
	if id != bg.mem {
		bg.out = append(bg.out, il.NewMem{MemID: int(id), ParentMemID: int(m.Parent)})
		if m.Name != "" {
			bg.out = append(bg.out, il.SetMemName{MemID: int(id), Name: m.Name})
		}
	}
	for _, p := range m.Process {
		switch p.Tag {
		case session.TagAtom:
			bg.genAtom(session.AtomID(p.ID))
		case session.TagMembrane:
			bg.genMembraneBody(session.MembraneID(p.ID))
		case session.TagLink:
			bg.genBareLink(session.LinkID(p.ID))
		}
	}
}

func (bg *bodyGen) genAtom(id session.AtomID) {
	a := bg.sess.Atom(id)
	bg.out = append(bg.out, il.NewAtom{AtomID: int(id), MemID: int(a.Membrane), Functor: a.Functor()})
	for _, lid := range a.Ports {
		bg.touchLink(lid, id)
	}
}

func (bg *bodyGen) genBareLink(lid session.LinkID) {
	bg.touchLink(lid, -1)
}

// touchLink records the given atom (or -1 for a bare top-level occurrence)
// as a candidate second-endpoint owner for lid, and emits lid's new_link the
// first time its actual second endpoint is reached.
func (bg *bodyGen) touchLink(lid session.LinkID, fromAtom session.AtomID) {
	l := bg.sess.Link(lid)
	if fromAtom >= 0 {
		bg.owningAtom[lid] = int(fromAtom)
	}
	if l.Endpoint2 == nil {
		if l.Name != "" {
			bg.boundLinkByName[l.Name] = lid
		}
		return
	}
	if bg.emittedLink[lid] {
		return
	}
	if l.Endpoint2.Owner.Tag == session.TagAtom && fromAtom >= 0 && session.AtomID(l.Endpoint2.Owner.ID) != fromAtom {
		return
	}
	bg.emittedLink[lid] = true
	a1, p1 := ownerOperands(l.Endpoint1)
	a2, p2 := ownerOperands(l.Endpoint2)
	bg.out = append(bg.out, il.NewLink{Atom1: a1, Pos1: p1, Atom2: a2, Pos2: p2, MemID: int(bg.mem)})
}
