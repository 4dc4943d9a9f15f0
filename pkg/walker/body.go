package walker

import (
	"github.com/gitrdm/lmntalc/pkg/parsetree"
	"github.com/gitrdm/lmntalc/pkg/session"
)

// BuildBody builds a rule case's body membrane directly in sess: a fresh
// Membrane under parent, populated from bodyNode's children the same way a
// WorldProcessList populates a regular membrane. Exported for
// pkg/ruleanalysis, which has no other way to turn a Then(Body) node into
// real session.Atoms/Links/Membranes; this is the one place that logic
// lives, so rule bodies and top-level programs flatten nested terms
// identically.
//
// Unlike a top-level program, a case body is allowed to leave link names
// open: a name with a single occurrence in the body is exactly how that
// body reconnects to the link of the same name bound in the rule's
// pattern. BuildBody returns those
// still-open names by LinkID so the rule analyser can fold them into the
// case's with-bindings. A third occurrence within the body itself is a
// structural error; occurrences are not counted across pattern and body,
// so a single body occurrence of a name the pattern already closed is
// still folded into a binding.
func BuildBody(sess *session.Session, parent session.MembraneID, bodyNode parsetree.Node) (session.MembraneID, map[string]session.LinkID, error) {
	w := &walker{sess: sess}
	mem := sess.NewMembrane(parent, "")
	scope := newLinkScope()
	if err := w.walkProcessList(bodyNode, mem, scope, true); err != nil {
		return 0, nil, err
	}
	sess.Membrane(mem).SortProcesses()

	open := make(map[string]session.LinkID, len(scope.open))
	for name, l := range scope.open {
		open[name] = l.ID
	}
	return mem, open, nil
}
