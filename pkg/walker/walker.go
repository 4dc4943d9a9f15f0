// Package walker traverses a parsetree.Node tree and populates a fresh
// session.Session: every atom occurrence,
// membrane, link, and top-level rule declaration the source names. It is
// the only package that builds Atoms/Links/Membranes directly;
// pkg/ruleanalysis adds Rules (building case bodies through BuildBody), and
// pkg/lower only reads the Session it leaves behind.
package walker

import (
	"github.com/gitrdm/lmntalc/pkg/parsetree"
	"github.com/gitrdm/lmntalc/pkg/session"
)

type walker struct {
	sess        *session.Session
	analyseRule RuleAnalyser
}

// RuleAnalyser delegates a top-level Rule declaration to whatever package
// builds its scoped pattern/guard/cases (pkg/ruleanalysis). Walk takes it
// as a parameter, rather than importing pkg/ruleanalysis directly, because
// the rule analyser itself needs the walker's process-list/atom-building
// helpers to construct rule case bodies (see BuildBody); passing the
// callback in keeps the dependency one-directional.
type RuleAnalyser func(sess *session.Session, ruleNode parsetree.Node, mem session.MembraneID) error

// Walk builds a Session from a Program node. Syntax and structural errors
// abort the walk immediately: the partially built Session is discarded and
// only the error is returned, so no partial IL is ever produced from a
// failed walk.
func Walk(root parsetree.Node, analyseRule RuleAnalyser) (*session.Session, error) {
	if root.Kind() != parsetree.KindProgram {
		return nil, &session.SyntaxError{Line: root.Span().Line, Col: root.Span().Col, Msg: "expected Program at the root of the parse tree"}
	}
	w := &walker{sess: session.New(), analyseRule: analyseRule}

	scope := newLinkScope()
	if wpl := parsetree.FirstChildOfKind(root, parsetree.KindWorldProcessList); wpl != nil {
		if err := w.walkProcessList(wpl, w.sess.Root, scope, false); err != nil {
			return nil, err
		}
	}
	if err := scope.closeAll(); err != nil {
		return nil, err
	}
	if decls := parsetree.FirstChildOfKind(root, parsetree.KindDeclarationList); decls != nil {
		if err := w.walkDeclarations(decls, w.sess.Root); err != nil {
			return nil, err
		}
	}

	w.sess.Membrane(w.sess.Root).SortProcesses()
	return w.sess, nil
}

// walkProcessList walks one membrane body's top-level processes: atom
// occurrences, nested membranes, and (outside a rule) bare top-level link
// names. forbidBareLink is true only at a rule case's body root (the
// BuildBody call), where a link must sit inside an atom's argument list;
// the pattern root is checked by pkg/ruleanalysis itself. Nested membranes
// reached from a body root, and program-level membranes, still get the
// ordinary membrane-owned bare-link treatment.
func (w *walker) walkProcessList(n parsetree.Node, mem session.MembraneID, scope *linkScope, forbidBareLink bool) error {
	for _, c := range n.Children() {
		switch c.Kind() {
		case parsetree.KindUnitAtom, parsetree.KindAtom:
			sym, err := w.walkAtomOccurrence(c, mem, scope)
			if err != nil {
				return err
			}
			w.sess.Membrane(mem).AppendProcess(sym)
		case parsetree.KindMembrane:
			sub, err := w.walkMembrane(c, mem, scope)
			if err != nil {
				return err
			}
			w.sess.Membrane(mem).AppendProcess(session.MembraneSymbol(int(sub)))
		case parsetree.KindLinkName, parsetree.KindLink:
			if forbidBareLink {
				sp := c.Span()
				return &session.ScopeError{Line: sp.Line, Col: sp.Col, Name: c.Text(), Msg: "is a top-level link inside a rule's body (a link must be inside an atom's argument list)"}
			}
			// A bare link name used directly as a process connects to its
			// enclosing membrane rather than to an atom port. Port is
			// meaningless for a Membrane-owned endpoint and is always 0.
			lid, err := scope.occurrence(w.sess, c.Text(), session.MembraneSymbol(int(mem)), 0, spanOf(c))
			if err != nil {
				return err
			}
			w.sess.Membrane(mem).AppendProcess(session.LinkSymbol(int(lid)))
		case parsetree.KindContext:
			sp := c.Span()
			return &session.ScopeError{Line: sp.Line, Col: sp.Col, Name: c.Text(), Msg: "is a process context outside a rule's pattern"}
		default:
			return &session.SyntaxError{Line: c.Span().Line, Col: c.Span().Col, Msg: "unexpected process kind " + c.Kind().String()}
		}
	}
	return nil
}

// walkMembrane walks a nested membrane. Its process list shares the
// enclosing scope, so a link name may join an atom inside the membrane to
// one outside it; unresolved names are reported when the enclosing scope
// is finished, not here. Its declaration list is walked before
// walkMembrane returns.
func (w *walker) walkMembrane(n parsetree.Node, parent session.MembraneID, scope *linkScope) (session.MembraneID, error) {
	name := ""
	if nameNode := parsetree.FirstChildOfKind(n, parsetree.KindAtomName); nameNode != nil {
		name = nameNode.Text()
	}
	mem := w.sess.NewMembrane(parent, name)

	if wpl := parsetree.FirstChildOfKind(n, parsetree.KindWorldProcessList); wpl != nil {
		if err := w.walkProcessList(wpl, mem, scope, false); err != nil {
			return 0, err
		}
	}
	if decls := parsetree.FirstChildOfKind(n, parsetree.KindDeclarationList); decls != nil {
		if err := w.walkDeclarations(decls, mem); err != nil {
			return 0, err
		}
	}

	w.sess.Membrane(mem).SortProcesses()
	return mem, nil
}

// walkDeclarations delegates each top-level Rule declaration to the rule
// analyser, which builds the rule's own scoped pattern/guard/cases and
// attaches it to mem.
func (w *walker) walkDeclarations(n parsetree.Node, mem session.MembraneID) error {
	for _, c := range n.Children() {
		decl := c
		if decl.Kind() == parsetree.KindDeclaration && len(decl.Children()) == 1 {
			decl = decl.Children()[0]
		}
		if decl.Kind() != parsetree.KindRule {
			continue
		}
		if w.analyseRule == nil {
			return &session.InternalError{Msg: "walker: encountered a Rule declaration with no rule analyser wired in"}
		}
		if err := w.analyseRule(w.sess, decl, mem); err != nil {
			return err
		}
	}
	return nil
}

// walkAtomOccurrence builds one Atom from a UnitAtom/Atom node: its name,
// and one port per argument. Arguments that are themselves nested atoms or
// literals are flattened into sibling atoms joined by a synthesised link.
func (w *walker) walkAtomOccurrence(n parsetree.Node, mem session.MembraneID, scope *linkScope) (session.Symbol, error) {
	nameNode := parsetree.FirstChildOfKind(n, parsetree.KindAtomName)
	if nameNode == nil {
		return session.Symbol{}, &session.SyntaxError{Line: n.Span().Line, Col: n.Span().Col, Msg: "atom occurrence missing a name"}
	}
	args := argsOf(n)
	a := w.sess.NewAtom(mem, nameNode.Text(), len(args))
	owner := session.AtomSymbol(int(a.ID))
	for i, argNode := range args {
		lid, err := w.resolvePort(argNode, mem, scope, owner, i)
		if err != nil {
			return session.Symbol{}, err
		}
		a.Ports[i] = lid
	}
	return owner, nil
}

// resolvePort resolves one port argument: a link name occurrence, or a
// nested atom/literal that gets flattened into a sibling atom.
func (w *walker) resolvePort(n parsetree.Node, mem session.MembraneID, scope *linkScope, owner session.Symbol, port int) (session.LinkID, error) {
	switch n.Kind() {
	case parsetree.KindLinkName:
		return scope.occurrence(w.sess, n.Text(), owner, port, spanOf(n))
	case parsetree.KindUnitAtom, parsetree.KindAtom:
		nameNode := parsetree.FirstChildOfKind(n, parsetree.KindAtomName)
		if nameNode == nil {
			return 0, &session.SyntaxError{Line: n.Span().Line, Col: n.Span().Col, Msg: "nested atom missing a name"}
		}
		return w.desugarNestedTerm(nameNode.Text(), argsOf(n), mem, scope, owner, port, n)
	case parsetree.KindInt, parsetree.KindFloat:
		return w.desugarNestedTerm(n.Text(), nil, mem, scope, owner, port, n)
	default:
		return 0, &session.SyntaxError{Line: n.Span().Line, Col: n.Span().Col, Msg: "unexpected port argument kind " + n.Kind().String()}
	}
}

// desugarNestedTerm flattens a nested atom occurrence or data literal into
// a new sibling atom in mem, connected back to (owner, port) by a
// compiler-synthesised link. The new atom's extra trailing port carries
// that connection, after its own explicit arguments.
func (w *walker) desugarNestedTerm(name string, explicitArgs []parsetree.Node, mem session.MembraneID, scope *linkScope, owner session.Symbol, port int, pos parsetree.Node) (session.LinkID, error) {
	l := w.sess.NewLink(w.sess.NextSynthName(), spanOf(pos))
	l.Endpoint1 = &session.Endpoint{Owner: owner, Port: port}

	nested := w.sess.NewAtom(mem, name, len(explicitArgs)+1)
	nestedOwner := session.AtomSymbol(int(nested.ID))
	for i, argNode := range explicitArgs {
		lid, err := w.resolvePort(argNode, mem, scope, nestedOwner, i)
		if err != nil {
			return 0, err
		}
		nested.Ports[i] = lid
	}
	nested.Ports[len(explicitArgs)] = l.ID
	l.Endpoint2 = &session.Endpoint{Owner: nestedOwner, Port: len(explicitArgs)}
	l.Pos2 = spanOf(pos)

	w.sess.Membrane(mem).AppendProcess(nestedOwner)
	return l.ID, nil
}

func spanOf(n parsetree.Node) session.SourceSpan {
	sp := n.Span()
	return session.SourceSpan{Line: sp.Line, Col: sp.Col, Offset: sp.Offset}
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
