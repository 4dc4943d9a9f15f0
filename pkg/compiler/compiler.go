// Package compiler wires the walker, rule analyser, lowerer, optimiser,
// and emitter into a single Compile entry point, without introducing a
// concrete pipeline type of its own anywhere downstream (every stage
// below still only depends on pkg/session).
package compiler

import (
	"sort"

	"go.uber.org/zap"

	"github.com/gitrdm/lmntalc/pkg/emit"
	"github.com/gitrdm/lmntalc/pkg/lower"
	"github.com/gitrdm/lmntalc/pkg/optimizer"
	"github.com/gitrdm/lmntalc/pkg/parsetree"
	"github.com/gitrdm/lmntalc/pkg/ruleanalysis"
	"github.com/gitrdm/lmntalc/pkg/session"
	"github.com/gitrdm/lmntalc/pkg/walker"
)

// Options configures one Compile call: the CLI's -o/--optimize-level and
// -d/--disables map directly onto OptimizeLevel and Disables; Optimizers
// lets a caller register whatever passes it wants run (none by default).
type Options struct {
	OptimizeLevel uint8
	Disables      []string
	Optimizers    []optimizer.Optimizer

	// Logger receives optimiser pass timings. Nil leaves the manager on
	// its no-op logger; the library itself never logs from the walk or
	// lowering paths.
	Logger *zap.Logger
}

// Compile runs one file's whole pipeline to completion: walk, analyse,
// lower, optimise, and hand back the program ready for pkg/emit. It takes
// no context.Context and supports no cancellation: a single compile is
// single-threaded with no suspension points. A caller wanting to bound
// wall-clock time across many files does so in internal/batch, around
// whole Compile calls, not inside one.
func Compile(root parsetree.Node, opts Options) (*emit.Program, error) {
	sess, err := walker.Walk(root, ruleanalysis.Analyse)
	if err != nil {
		return nil, err
	}
	return lowerAndOptimise(sess, opts)
}

func lowerAndOptimise(sess *session.Session, opts Options) (*emit.Program, error) {
	init := lower.InitIL(sess)

	var ruleIDs []session.RuleID
	for id := range sess.Rules {
		ruleIDs = append(ruleIDs, id)
	}
	sort.Slice(ruleIDs, func(i, j int) bool { return ruleIDs[i] < ruleIDs[j] })

	prog := &optimizer.Program{Init: init}
	for _, rid := range ruleIDs {
		prog.Rules = append(prog.Rules, lower.Rule(sess, sess.Rule(rid)))
	}

	mgr := optimizer.NewManager(opts.OptimizeLevel)
	mgr.SetLogger(opts.Logger)
	for _, o := range opts.Optimizers {
		mgr.Add(o)
	}
	disabled := make(map[string]bool, len(opts.Disables))
	for _, d := range opts.Disables {
		disabled[d] = true
	}
	mgr.Optimize(prog, disabled)

	ruleIL := make(map[session.RuleID]lower.RuleIL, len(ruleIDs))
	for i, rid := range ruleIDs {
		ruleIL[rid] = prog.Rules[i]
	}

	return &emit.Program{Init: prog.Init, RuleSets: assembleRuleSets(sess, ruleIL)}, nil
}

// assembleRuleSets groups lowered rules by their enclosing membrane, in
// ascending membrane-id order, keeping output deterministic: membrane and
// rule ids are assigned in walk order, which is itself fixed for a given
// input byte sequence.
func assembleRuleSets(sess *session.Session, ruleIL map[session.RuleID]lower.RuleIL) []emit.RuleSet {
	var memIDs []int
	for id := range sess.Membranes {
		memIDs = append(memIDs, int(id))
	}
	sort.Ints(memIDs)

	var out []emit.RuleSet
	for _, mid := range memIDs {
		m := sess.Membrane(session.MembraneID(mid))
		if len(m.RuleSet) == 0 {
			continue
		}
		rs := emit.RuleSet{MemID: mid}
		for _, rid := range m.RuleSet {
			rs.Rules = append(rs.Rules, toEmitRule(ruleIL[rid]))
		}
		out = append(out, rs)
	}
	return out
}

func toEmitRule(r lower.RuleIL) emit.Rule {
	er := emit.Rule{Name: r.Name, Pattern: r.Pattern, Removal: r.Removal}
	for _, c := range r.Cases {
		er.Cases = append(er.Cases, emit.Case{Guard: c.Guard, Body: c.Body})
	}
	return er
}
