package ruleanalysis

import (
	"strconv"

	"github.com/gitrdm/lmntalc/pkg/parsetree"
	"github.com/gitrdm/lmntalc/pkg/session"
)

// patternWalker builds a Rule's own scoped pattern tables (PatternAtoms,
// PatternLinks, PatternMembranes) from a Pattern node. It mirrors
// pkg/walker's atom/process-list traversal but writes into the rule's
// private tables, with its own id counters, rather than the session's
// global ones. Pattern-side ids are never observed outside the rule that
// declared them.
type patternWalker struct {
	rule         *session.Rule
	atomCounter  int
	linkCounter  int
	memCounter   int
	synthCounter int

	// names resolves a link or $process-context name to the Symbol it was
	// bound to while the pattern was walked. Consumed by the guard parser
	// and by with-binding resolution; a name is recorded at its first
	// occurrence and never removed, since closing a link does not make its
	// name unavailable to the guard/with clauses that follow.
	names map[string]session.Symbol

	// open holds the pattern-root link names left with a single endpoint
	// once the pattern walk finishes. These are the rule's free links:
	// each case must reconnect every one of them, through an explicit
	// with-binding or a same-name body occurrence, or the rule is
	// rejected when that case is analysed.
	open map[string]bool
}

func newPatternWalker(r *session.Rule) *patternWalker {
	return &patternWalker{rule: r, names: make(map[string]session.Symbol), open: make(map[string]bool)}
}

// ResolveName implements guard.Resolver.
func (pw *patternWalker) ResolveName(name string) (session.Symbol, bool) {
	sym, ok := pw.names[name]
	return sym, ok
}

// patternScope tracks link names currently open (one endpoint) and closed
// (both endpoints resolved) within one pattern/nested-pattern-membrane
// walk, mirroring walker.linkScope's tri-state so a name's third
// occurrence is rejected rather than silently starting a new Link.
type patternScope struct {
	open   map[string]*session.Link
	closed map[string]bool
}

func newPatternScope() *patternScope {
	return &patternScope{open: make(map[string]*session.Link), closed: make(map[string]bool)}
}

// walk populates pw.rule.Pattern from n's children: atom occurrences,
// process contexts ($name), nested pattern membranes, and bare link names.
// topLevel marks whether n is the rule's own pattern root (as opposed to a
// nested pattern membrane's body): a bare top-level link name is forbidden
// at the rule's pattern root but still permitted, membrane-owned, inside a
// nested pattern membrane, matching ordinary membrane semantics there.
func (pw *patternWalker) walk(n parsetree.Node, topLevel bool) error {
	scope := newPatternScope()
	for _, c := range n.Children() {
		switch c.Kind() {
		case parsetree.KindUnitAtom, parsetree.KindAtom:
			sym, err := pw.walkAtom(c, scope)
			if err != nil {
				return err
			}
			pw.rule.Pattern.Process = append(pw.rule.Pattern.Process, sym)
		case parsetree.KindContext:
			id := pw.rule.DeclareProcContext(c.Text())
			sym := session.ProcContextSymbol(int(id))
			pw.names[c.Text()] = sym
			pw.rule.Pattern.Process = append(pw.rule.Pattern.Process, sym)
		case parsetree.KindMembrane:
			sym, err := pw.walkMembrane(c)
			if err != nil {
				return err
			}
			pw.rule.Pattern.Process = append(pw.rule.Pattern.Process, sym)
		case parsetree.KindLinkName:
			if topLevel {
				sp := c.Span()
				return &session.ScopeError{Line: sp.Line, Col: sp.Col, Name: c.Text(), Msg: "is a top-level link inside a rule's pattern (a link must be inside an atom's argument list)"}
			}
			lid, err := pw.occurrence(c.Text(), session.Symbol{}, 0, scope, true)
			if err != nil {
				return err
			}
			pw.rule.Pattern.Process = append(pw.rule.Pattern.Process, session.LinkSymbol(int(lid)))
		default:
			return &session.SyntaxError{Line: c.Span().Line, Col: c.Span().Col, Msg: "unexpected pattern process kind " + c.Kind().String()}
		}
	}
	if topLevel {
		// At the pattern root an open link is legal: it is how the rule
		// passes a matched port into its bodies. Each case settles these
		// when it is analysed.
		for name := range scope.open {
			pw.open[name] = true
		}
	} else {
		// Report the earliest-declared open name (lowest link id) so the
		// diagnostic is stable across runs.
		var first *session.Link
		for _, l := range scope.open {
			if first == nil || l.ID < first.ID {
				first = l
			}
		}
		if first != nil {
			return &session.StructuralError{Line: first.Pos1.Line, Col: first.Pos1.Col, Msg: "link '" + first.Name + "' has only one occurrence in this pattern membrane"}
		}
	}
	// Sorting is the caller's job: walk() recurses into nested pattern
	// membranes that append to this same Pattern.Process slice before
	// walkMembrane carves their range back out, and sorting mid-recursion
	// would interleave a nested membrane's own range with entries
	// appended before or after it. The outermost caller (Analyse) sorts
	// once everything is in; walkMembrane sorts the slice it carved.
	return nil
}

func (pw *patternWalker) walkAtom(n parsetree.Node, scope *patternScope) (session.Symbol, error) {
	nameNode := parsetree.FirstChildOfKind(n, parsetree.KindAtomName)
	if nameNode == nil {
		return session.Symbol{}, &session.SyntaxError{Line: n.Span().Line, Col: n.Span().Col, Msg: "pattern atom missing a name"}
	}
	args := argsOf(n)
	id := session.AtomID(pw.atomCounter)
	pw.atomCounter++
	a := &session.Atom{ID: id, Membrane: pw.rule.Membrane, Name: nameNode.Text(), Ports: make([]session.LinkID, len(args))}
	pw.rule.PatternAtoms[id] = a
	owner := session.AtomSymbol(int(id))
	for i, argNode := range args {
		lid, err := pw.resolvePort(argNode, scope, owner, i)
		if err != nil {
			return session.Symbol{}, err
		}
		a.Ports[i] = lid
	}
	return owner, nil
}

// resolvePort resolves one pattern-atom port argument: a link name
// occurrence, or a nested atom/literal flattened into a sibling pattern
// atom, the same shape pkg/walker gives a top-level nested term.
func (pw *patternWalker) resolvePort(n parsetree.Node, scope *patternScope, owner session.Symbol, port int) (session.LinkID, error) {
	switch n.Kind() {
	case parsetree.KindLinkName:
		return pw.occurrence(n.Text(), owner, port, scope, false)
	case parsetree.KindUnitAtom, parsetree.KindAtom:
		nameNode := parsetree.FirstChildOfKind(n, parsetree.KindAtomName)
		if nameNode == nil {
			return 0, &session.SyntaxError{Line: n.Span().Line, Col: n.Span().Col, Msg: "nested pattern atom missing a name"}
		}
		return pw.desugarNestedTerm(nameNode.Text(), argsOf(n), scope, owner, port)
	case parsetree.KindInt, parsetree.KindFloat:
		return pw.desugarNestedTerm(n.Text(), nil, scope, owner, port)
	default:
		return 0, &session.SyntaxError{Line: n.Span().Line, Col: n.Span().Col, Msg: "unexpected pattern port argument kind " + n.Kind().String()}
	}
}

// desugarNestedTerm flattens a nested pattern term into a new pattern atom
// joined to (owner, port) by a synthesised link, mirroring the walker's
// top-level desugaring. Nested pattern atoms never enter Pattern.Process:
// the lowerer reaches them by following the parent's port (deref_atom)
// rather than matching them independently.
func (pw *patternWalker) desugarNestedTerm(name string, explicitArgs []parsetree.Node, scope *patternScope, owner session.Symbol, port int) (session.LinkID, error) {
	lid := session.LinkID(pw.linkCounter)
	pw.linkCounter++
	pw.synthCounter++
	l := &session.Link{ID: lid, Name: "__l" + strconv.Itoa(pw.synthCounter)}
	l.Endpoint1 = &session.Endpoint{Owner: owner, Port: port}
	pw.rule.PatternLinks[lid] = l

	id := session.AtomID(pw.atomCounter)
	pw.atomCounter++
	nested := &session.Atom{ID: id, Membrane: pw.rule.Membrane, Name: name, Ports: make([]session.LinkID, len(explicitArgs)+1)}
	pw.rule.PatternAtoms[id] = nested
	nestedOwner := session.AtomSymbol(int(id))
	for i, argNode := range explicitArgs {
		plid, err := pw.resolvePort(argNode, scope, nestedOwner, i)
		if err != nil {
			return 0, err
		}
		nested.Ports[i] = plid
	}
	nested.Ports[len(explicitArgs)] = lid
	l.Endpoint2 = &session.Endpoint{Owner: nestedOwner, Port: len(explicitArgs)}
	return lid, nil
}

func (pw *patternWalker) walkMembrane(n parsetree.Node) (session.Symbol, error) {
	id := session.MembraneID(pw.memCounter)
	pw.memCounter++
	name := ""
	if nameNode := parsetree.FirstChildOfKind(n, parsetree.KindAtomName); nameNode != nil {
		name = nameNode.Text()
	}
	m := &session.Membrane{ID: id, Parent: pw.rule.Membrane, Name: name}
	pw.rule.PatternMembranes[id] = m
	if wpl := parsetree.FirstChildOfKind(n, parsetree.KindWorldProcessList); wpl != nil {
		startLen := len(pw.rule.Pattern.Process)
		sub := newPatternWalker(pw.rule)
		sub.atomCounter, sub.linkCounter, sub.memCounter, sub.synthCounter = pw.atomCounter, pw.linkCounter, pw.memCounter, pw.synthCounter
		sub.names = pw.names
		if err := sub.walk(wpl, false); err != nil {
			return session.Symbol{}, err
		}
		// Carve the membrane's own contents out of the shared append
		// target: they belong to m.Process, not to the enclosing level's
		// process list.
		m.Process = append([]session.Symbol(nil), pw.rule.Pattern.Process[startLen:]...)
		session.SortSymbols(m.Process)
		pw.rule.Pattern.Process = pw.rule.Pattern.Process[:startLen]
		pw.atomCounter, pw.linkCounter, pw.memCounter, pw.synthCounter = sub.atomCounter, sub.linkCounter, sub.memCounter, sub.synthCounter
	}
	return session.MembraneSymbol(int(id)), nil
}

// occurrence records one link-name occurrence, mirroring walker.linkScope
// but against the rule's own PatternLinks table. When asBareProcess is
// true, the first occurrence's owner is left empty and filled in lazily;
// a bare pattern-level link name is unusual but treated the same as a
// membrane-owned top-level link in pkg/walker. A third occurrence of a
// name already closed in this scope is a structural error, mirroring
// walker.linkScope's closed-set tracking.
func (pw *patternWalker) occurrence(name string, owner session.Symbol, port int, scope *patternScope, asBareProcess bool) (session.LinkID, error) {
	if scope.closed[name] {
		return 0, &session.StructuralError{
			Msg: "link '" + name + "' occurs a third time in this rule's pattern (link is not 2-ended)",
		}
	}
	if l, ok := scope.open[name]; ok {
		l.Endpoint2 = &session.Endpoint{Owner: owner, Port: port}
		delete(scope.open, name)
		scope.closed[name] = true
		return l.ID, nil
	}
	id := session.LinkID(pw.linkCounter)
	pw.linkCounter++
	l := &session.Link{ID: id, Name: name}
	if !asBareProcess {
		l.Endpoint1 = &session.Endpoint{Owner: owner, Port: port}
	}
	pw.rule.PatternLinks[id] = l
	pw.names[name] = session.LinkSymbol(int(id))
	scope.open[name] = l
	return id, nil
}

func argsOf(n parsetree.Node) []parsetree.Node {
	nameSeen := false
	var args []parsetree.Node
	for _, c := range n.Children() {
		if !nameSeen && c.Kind() == parsetree.KindAtomName {
			nameSeen = true
			continue
		}
		args = append(args, c)
	}
	return args
}
