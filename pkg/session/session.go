// Package session holds the compiler's explicit, per-invocation data model:
// Atoms, Links, Membranes, and Rules, each keyed by a dense monotonic id and
// cross-referenced only through Symbol values. A Session is created fresh
// for one compile and discarded at the end of it (or on a Syntax/Structural
// error); nothing here is package-level mutable state, so concurrent
// compiles and tests never share tables.
package session

// Session owns every table a single compile populates: the walker fills
// Atoms/Links/Membranes, the rule analyser fills Rules (and each Rule's own
// scoped tables), and the lowerer/optimiser/emitter only ever read from it.
type Session struct {
	Atoms     map[AtomID]*Atom
	Links     map[LinkID]*Link
	Membranes map[MembraneID]*Membrane
	Rules     map[RuleID]*Rule

	Root MembraneID

	// entityCounter is shared by Atoms and Membranes: both tags allocate
	// from one namespace, so an atom and a membrane never carry the same
	// numeric id and allocation order alone fixes emission order.
	entityCounter int
	linkCounter   int
	ruleCounter   int
	synthCounter  int
}

// New returns an empty Session with its root membrane allocated.
func New() *Session {
	s := &Session{
		Atoms:     make(map[AtomID]*Atom),
		Links:     make(map[LinkID]*Link),
		Membranes: make(map[MembraneID]*Membrane),
		Rules:     make(map[RuleID]*Rule),
	}
	s.Root = s.NewMembrane(NoParent, "")
	return s
}

// NewAtom allocates and registers a new Atom in membrane mem.
func (s *Session) NewAtom(mem MembraneID, name string, arity int) *Atom {
	id := AtomID(s.nextEntityID())
	a := &Atom{ID: id, Membrane: mem, Name: name, Ports: make([]LinkID, arity)}
	s.Atoms[id] = a
	return a
}

// NewMembrane allocates and registers a new Membrane with the given parent.
func (s *Session) NewMembrane(parent MembraneID, name string) MembraneID {
	id := MembraneID(s.nextEntityID())
	s.Membranes[id] = &Membrane{ID: id, Parent: parent, Name: name}
	return id
}

// NewLink allocates and registers a new, as-yet-unconnected Link.
func (s *Session) NewLink(name string, pos SourceSpan) *Link {
	id := LinkID(s.linkCounter)
	s.linkCounter++
	l := &Link{ID: id, Name: name, Pos1: pos}
	s.Links[id] = l
	return l
}

// NewRule allocates and registers a new Rule attached to mem.
func (s *Session) NewRule(mem MembraneID, line, col int) *Rule {
	id := RuleID(s.ruleCounter)
	s.ruleCounter++
	r := NewRule(id, mem, line, col)
	s.Rules[id] = r
	if m, ok := s.Membranes[mem]; ok {
		m.AttachRule(id)
	}
	return r
}

func (s *Session) nextEntityID() int {
	id := s.entityCounter
	s.entityCounter++
	return id
}

// Membrane looks up a membrane by id, returning nil if it does not exist.
func (s *Session) Membrane(id MembraneID) *Membrane { return s.Membranes[id] }

// Atom looks up an atom by id, returning nil if it does not exist.
func (s *Session) Atom(id AtomID) *Atom { return s.Atoms[id] }

// Link looks up a link by id, returning nil if it does not exist.
func (s *Session) Link(id LinkID) *Link { return s.Links[id] }

// Rule looks up a rule by id, returning nil if it does not exist.
func (s *Session) Rule(id RuleID) *Rule { return s.Rules[id] }

// NextSynthName returns a fresh compiler-generated link name, unique across
// the whole session, for nested-term desugaring. Drawn from one
// counter shared by the walker and the rule analyser so names synthesised
// while building a rule's case bodies never collide with the ones the
// top-level walk already used.
func (s *Session) NextSynthName() string {
	s.synthCounter++
	n := s.synthCounter
	var buf [24]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return "__l" + string(buf[i:])
}

// FreeLinks returns every link in the session with exactly one endpoint,
// in ascending LinkID order. The walker and the rule analyser do not call
// it; they report free links from their own link scopes.
func (s *Session) FreeLinks() []*Link {
	var free []*Link
	for id := 0; id < s.linkCounter; id++ {
		if l, ok := s.Links[LinkID(id)]; ok && l.IsFree() {
			free = append(free, l)
		}
	}
	return free
}
