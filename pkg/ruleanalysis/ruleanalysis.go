// Package ruleanalysis builds a session.Rule from a Rule parsetree.Node:
// its pattern's scoped tables, guard expression, with-bindings, and one
// body membrane per case. It is invoked by pkg/walker through
// the walker.RuleAnalyser callback, and in turn calls back into
// pkg/walker (via walker.BuildBody) to build each case's body the same way
// the top-level program's processes are built.
package ruleanalysis

import (
	"sort"
	"strconv"

	"github.com/gitrdm/lmntalc/pkg/guard"
	"github.com/gitrdm/lmntalc/pkg/parsetree"
	"github.com/gitrdm/lmntalc/pkg/session"
	"github.com/gitrdm/lmntalc/pkg/walker"
)

// Analyse builds sess.Rule(s) new rule from ruleNode and attaches it to
// mem. Matches the walker.RuleAnalyser signature.
func Analyse(sess *session.Session, ruleNode parsetree.Node, mem session.MembraneID) error {
	sp := ruleNode.Span()
	r := sess.NewRule(mem, sp.Line, sp.Col)

	if nameNode := parsetree.FirstChildOfKind(ruleNode, parsetree.KindRuleName); nameNode != nil {
		r.Name = nameNode.Text()
	} else {
		r.Name = "__rule_" + strconv.Itoa(sp.Line)
	}

	patternNode := parsetree.FirstChildOfKind(ruleNode, parsetree.KindPattern)
	if patternNode == nil {
		return &session.SyntaxError{Line: sp.Line, Col: sp.Col, Msg: "rule has no pattern"}
	}
	pw := newPatternWalker(r)
	if err := pw.walk(patternNode, true); err != nil {
		return err
	}
	session.SortSymbols(r.Pattern.Process)

	cases := 0
	for _, c := range ruleNode.Children() {
		switch c.Kind() {
		case parsetree.KindBody:
			cs, err := finishCase(sess, mem, c, pw, session.Case{})
			if err != nil {
				return err
			}
			r.Cases = append(r.Cases, cs)
			cases++
		case parsetree.KindWhen:
			cs, err := analyseCase(sess, c, mem, pw)
			if err != nil {
				return err
			}
			r.Cases = append(r.Cases, cs)
			cases++
		}
	}
	if cases == 0 {
		return &session.StructuralError{Line: sp.Line, Col: sp.Col, Msg: "rule '" + r.Name + "' has no cases"}
	}
	return nil
}

// analyseCase builds one When/With?/Then case: its guard (if any), its
// with-bindings (if any), and its body membrane.
func analyseCase(sess *session.Session, whenNode parsetree.Node, mem session.MembraneID, pw *patternWalker) (session.Case, error) {
	var cs session.Case

	if guardNode := parsetree.FirstChildOfKind(whenNode, parsetree.KindGuard); guardNode != nil {
		g, err := guard.Parse(guardNode, pw)
		if err != nil {
			return session.Case{}, err
		}
		applyGuardTypePredicates(pw.rule, g)
		cs.Guard = g
	}

	if withNode := parsetree.FirstChildOfKind(whenNode, parsetree.KindWith); withNode != nil {
		bindings, err := analyseWith(withNode, pw)
		if err != nil {
			return session.Case{}, err
		}
		cs.With = bindings
	}

	thenNode := parsetree.FirstChildOfKind(whenNode, parsetree.KindThen)
	if thenNode == nil {
		sp := whenNode.Span()
		return session.Case{}, &session.SyntaxError{Line: sp.Line, Col: sp.Col, Msg: "case has no Then body"}
	}
	bodyNode := parsetree.FirstChildOfKind(thenNode, parsetree.KindBody)
	if bodyNode == nil {
		bodyNode = thenNode
	}
	return finishCase(sess, mem, bodyNode, pw, cs)
}

// finishCase builds bodyNode's membrane and folds its still-open link
// names into cs.With: an explicit with-binding already claims a pattern
// name, so only names not already bound that way get an implicit
// same-name Binding. A body-open name with no matching pattern name is a
// genuine free link, and so is a pattern-open name this case never
// reconnects.
func finishCase(sess *session.Session, mem session.MembraneID, bodyNode parsetree.Node, pw *patternWalker, cs session.Case) (session.Case, error) {
	body, open, err := walker.BuildBody(sess, mem, bodyNode)
	if err != nil {
		return session.Case{}, err
	}
	cs.Body = body

	claimed := make(map[string]bool, len(cs.With))
	consumed := make(map[string]bool, len(cs.With))
	for _, b := range cs.With {
		claimed[b.ToName] = true
		consumed[b.FromName] = true
	}
	// Sorted name order keeps both the implicit-binding append order
	// (which fixes relink emission order downstream) and the reported
	// error stable across runs.
	openNames := make([]string, 0, len(open))
	for name := range open {
		openNames = append(openNames, name)
	}
	sort.Strings(openNames)
	for _, name := range openNames {
		if claimed[name] {
			continue
		}
		sym, ok := pw.ResolveName(name)
		if !ok {
			l := sess.Link(open[name])
			return session.Case{}, &session.StructuralError{Line: l.Pos1.Line, Col: l.Pos1.Col, Msg: "link '" + name + "' has only one occurrence and no matching pattern binding"}
		}
		cs.With = append(cs.With, session.Binding{From: sym, FromName: name, ToName: name})
		consumed[name] = true
	}
	var missing []string
	for name := range pw.open {
		if !consumed[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		sp := bodyNode.Span()
		return session.Case{}, &session.StructuralError{Line: sp.Line, Col: sp.Col, Msg: "pattern link '" + missing[0] + "' is not reconnected in this case"}
	}
	return cs, nil
}

// analyseWith converts a With node's name pairs into Bindings, resolving
// both sides through the pattern's name table.
func analyseWith(n parsetree.Node, pw *patternWalker) ([]session.Binding, error) {
	children := n.Children()
	if len(children)%2 != 0 {
		sp := n.Span()
		return nil, &session.SyntaxError{Line: sp.Line, Col: sp.Col, Msg: "with-clause has an unpaired name"}
	}
	var out []session.Binding
	for i := 0; i < len(children); i += 2 {
		from, to := children[i], children[i+1]
		fromSym, ok := pw.ResolveName(from.Text())
		if !ok {
			sp := from.Span()
			return nil, &session.ScopeError{Line: sp.Line, Col: sp.Col, Name: from.Text(), Msg: "is not bound in this rule's pattern"}
		}
		sp := from.Span()
		out = append(out, session.Binding{From: fromSym, FromName: from.Text(), ToName: to.Text(), Pos: session.SourceSpan{Line: sp.Line, Col: sp.Col, Offset: sp.Offset}})
	}
	return out, nil
}

// applyGuardTypePredicates tags process contexts named by a type predicate
// (int($p), float($p), unary($p), ground($p)) with that type, so the
// lowerer can emit the matching is_* check against the context's bound
// value.
func applyGuardTypePredicates(r *session.Rule, g *session.GuardExpr) {
	if g == nil {
		return
	}
	if g.Op == session.GuardTypePred {
		for _, sym := range g.PredSymbols {
			if sym.Tag != session.TagProcContext {
				continue
			}
			if pc, ok := r.ProcContexts[session.ProcContextID(sym.ID)]; ok && pc.Type == session.PredNone {
				pc.Type = g.Pred
			}
		}
		return
	}
	applyGuardTypePredicates(r, g.Left)
	applyGuardTypePredicates(r, g.Right)
}
