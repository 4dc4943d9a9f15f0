package session

// MembraneID identifies a Membrane in the session's Membranes table.
type MembraneID int

// NoParent is the sentinel parent id for the root membrane.
const NoParent MembraneID = -1

// Membrane is a labelled container of processes (atoms, sub-membranes, and
// any top-level link names declared directly within it) plus the set of
// rules attached to it. Process is append-only during the walk and sorted
// into canonical Symbol order once the walker finishes the membrane's body.
type Membrane struct {
	ID      MembraneID
	Parent  MembraneID // NoParent for the root
	Name    string
	Process []Symbol
	RuleSet []RuleID
}

// AppendProcess appends a process symbol (Atom, Membrane, or Link) in the
// order the walker encountered it. Callers sort with SortProcesses once the
// membrane body is complete.
func (m *Membrane) AppendProcess(s Symbol) {
	m.Process = append(m.Process, s)
}

// SortProcesses canonicalises Process using the total Symbol order.
func (m *Membrane) SortProcesses() {
	SortSymbols(m.Process)
}

// AttachRule appends a rule id to this membrane's rule set. Rule symbols
// never enter Process: a rule belongs to its enclosing membrane only
// through RuleSet.
func (m *Membrane) AttachRule(id RuleID) {
	m.RuleSet = append(m.RuleSet, id)
}
