// Package optimizer defines the optimiser-pass framework: an Optimizer
// capability and a Manager that dispatches an ordered collection of them
// over a lowered program in pass-bounded rounds. This package is the
// framework only; it registers no concrete pass of its own.
package optimizer

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/gitrdm/lmntalc/pkg/il"
	"github.com/gitrdm/lmntalc/pkg/lower"
)

// Program is the full lowered output a pass mutates in place: the init
// block plus every rule's pattern/guard/removal/case instructions.
// Optimizers may not allocate new registers beyond the highest one already
// in use; nothing in this package enforces that, it is a contract on pass
// authors.
type Program struct {
	Init  []il.Instruction
	Rules []lower.RuleIL
}

// Optimizer is one pass over a Program. UID identifies it for -d/--disables,
// which matches UIDs only; there is no separate name lookup. Level gates it
// against the compiler's -o/--optimize-level; Order is the total order
// passes run in within a round (ties broken by UID); Pass is the last
// round the optimizer runs in (it runs in every round from 1 up to Pass).
type Optimizer interface {
	Optimize(p *Program)
	UID() string
	Level() uint8
	Order() int
	Pass() uint8
}

// Manager owns a collection of Optimizers sorted by Order (ties by UID)
// and runs them in pass-bounded rounds: for each pass i in 1..maxPass,
// every optimizer whose Pass >= i and Level <= the manager's level runs,
// in Order. An optimizer is forbidden from failing the compilation:
// Optimize has no error return, so a pass that detects a problem may only
// log it, not abort.
type Manager struct {
	level      uint8
	log        *zap.Logger
	optimizers []Optimizer
}

// NewManager returns a Manager gated at the given optimisation level
// (the CLI's -o/--optimize-level).
func NewManager(level uint8) *Manager {
	return &Manager{level: level, log: zap.NewNop()}
}

// SetLogger replaces the manager's no-op logger; pass timings are logged
// at debug level per optimizer per round.
func (m *Manager) SetLogger(l *zap.Logger) {
	if l != nil {
		m.log = l
	}
}

// Add registers an optimizer, re-sorting the collection by (Order, UID).
func (m *Manager) Add(o Optimizer) {
	m.optimizers = append(m.optimizers, o)
	sort.SliceStable(m.optimizers, func(i, j int) bool {
		a, b := m.optimizers[i], m.optimizers[j]
		if a.Order() != b.Order() {
			return a.Order() < b.Order()
		}
		return a.UID() < b.UID()
	})
}

// Optimize runs every registered, non-disabled optimizer whose level
// qualifies, across however many pass rounds the registered optimizers
// need. disabled holds UIDs named by -d/--disables; a nil or empty map
// disables nothing.
func (m *Manager) Optimize(p *Program, disabled map[string]bool) {
	for pass := uint8(1); pass <= m.maxPass(); pass++ {
		for _, o := range m.optimizers {
			if disabled[o.UID()] {
				continue
			}
			if o.Pass() < pass || o.Level() > m.level {
				continue
			}
			start := time.Now()
			o.Optimize(p)
			m.log.Debug("optimizer pass",
				zap.String("uid", o.UID()),
				zap.Uint8("round", pass),
				zap.Duration("took", time.Since(start)),
			)
		}
	}
}

func (m *Manager) maxPass() uint8 {
	var max uint8
	for _, o := range m.optimizers {
		if o.Pass() > max {
			max = o.Pass()
		}
	}
	return max
}

// Optimizers returns the manager's registered passes in dispatch order,
// for introspection.
func (m *Manager) Optimizers() []Optimizer {
	out := make([]Optimizer, len(m.optimizers))
	copy(out, m.optimizers)
	return out
}
