// Package il defines the linear intermediate instruction language rule
// pattern, guard, and body lowering emits. Each instruction is a concrete
// type implementing Instruction; Instruction() renders the exact
// tab-separated text form the emitter writes.
package il

import (
	"strconv"
	"strings"
)

// Register is a dense, write-once, strictly monotonic register index
// allocated during lowering. Registers are never reused within one rule
// block.
type Register int

// Instruction is any IL op. The set is closed: new kinds are added here,
// never invented ad hoc by a lowering pass.
type Instruction interface {
	Instruction() string
}

func join(parts ...string) string { return strings.Join(parts, ", ") }
func i(n int) string { return strconv.Itoa(n) }

// Proceed terminates a rule case or the init sequence successfully.
type Proceed struct{}

func (Proceed) Instruction() string { return "proceed" }

// Spec declares a block's register budget: Formals counts the registers
// passed in (the enclosing membrane the block operates on), Locals the
// registers the block allocates (the highest one + 1).
type Spec struct{ Formals, Locals int }

func (s Spec) Instruction() string { return "spec\t" + join(i(s.Formals), i(s.Locals)) }

// Commit marks the end of pattern matching and the start of rewriting,
// carrying the rule's name and the source line it was declared on for
// diagnostics.
type Commit struct {
	Name string
	Line int
}

func (c Commit) Instruction() string { return "commit\t" + join(c.Name, i(c.Line)) }

// LoadRuleSet attaches a rule set to a membrane.
type LoadRuleSet struct{ MemID, RuleSetID int }

func (l LoadRuleSet) Instruction() string {
	return "load_rule_set\t" + join(i(l.MemID), i(l.RuleSetID))
}

// NewAtom allocates a new atom with the given functor inside a membrane.
type NewAtom struct {
	AtomID, MemID int
	Functor       string
}

func (n NewAtom) Instruction() string {
	return "new_atom\t" + join(i(n.AtomID), i(n.MemID), n.Functor)
}

// NewLink connects two atom ports.
type NewLink struct {
	Atom1, Pos1, Atom2, Pos2, MemID int
}

func (n NewLink) Instruction() string {
	return "new_link\t" + join(i(n.Atom1), i(n.Pos1), i(n.Atom2), i(n.Pos2), i(n.MemID))
}

// ReLink reconnects a link's endpoint from one atom to another.
type ReLink struct{ LinkID, Atom1, Atom2 int }

func (r ReLink) Instruction() string {
	return "relink\t" + join(i(r.LinkID), i(r.Atom1), i(r.Atom2))
}

// NewMem allocates a new membrane under a parent.
type NewMem struct{ MemID, ParentMemID int }

func (n NewMem) Instruction() string { return "new_mem\t" + join(i(n.MemID), i(n.ParentMemID)) }

// SetMemName assigns a membrane's name.
type SetMemName struct {
	MemID int
	Name  string
}

func (s SetMemName) Instruction() string { return "set_mem_name\t" + join(i(s.MemID), s.Name) }

// FindAtom looks up an atom by functor within a membrane, binding it to a
// register.
type FindAtom struct {
	To    Register
	MemID int
	Name  string
	Arity int
}

func (f FindAtom) Instruction() string {
	return "find_atom\t" + join(i(int(f.To)), i(f.MemID), f.Name, i(f.Arity))
}

// DerefAtom follows a link from an already-bound atom's port to the atom
// on its other end.
type DerefAtom struct {
	To, From Register
	Position int
}

func (d DerefAtom) Instruction() string {
	return "deref_atom\t" + join(i(int(d.To)), i(int(d.From)), i(d.Position))
}

// RemoveAtom detaches a matched atom from its parent membrane.
type RemoveAtom struct {
	Register    Register
	ParentMemID int
}

func (r RemoveAtom) Instruction() string {
	return "remove_atom\t" + join(i(int(r.Register)), i(r.ParentMemID))
}

// FreeAtom releases a register's atom once it's no longer referenced.
type FreeAtom struct{ Register Register }

func (f FreeAtom) Instruction() string { return "free_atom\t" + i(int(f.Register)) }

// AnyMem binds a register to any child membrane of parentMemID, optionally
// matching a specific name.
type AnyMem struct {
	Register    Register
	ParentMemID int
	MemType     int
	Name        string // empty when unconstrained
}

func (a AnyMem) Instruction() string {
	return "any_mem\t" + join(i(int(a.Register)), i(a.ParentMemID), i(a.MemType), a.Name)
}

// NAtoms asserts a membrane contains exactly count atoms.
type NAtoms struct {
	Register Register
	Count    int
}

func (n NAtoms) Instruction() string { return "natoms\t" + join(i(int(n.Register)), i(n.Count)) }

// NMems asserts a membrane contains exactly count sub-membranes.
type NMems struct {
	Register Register
	Count    int
}

func (n NMems) Instruction() string { return "nmems\t" + join(i(int(n.Register)), i(n.Count)) }

// NoRules asserts a membrane carries no attached rule set.
type NoRules struct{ Register Register }

func (n NoRules) Instruction() string { return "no_rules\t" + i(int(n.Register)) }

// RemoveMem detaches a matched membrane from its parent.
type RemoveMem struct {
	Register    Register
	ParentMemID int
}

func (r RemoveMem) Instruction() string {
	return "remove_mem\t" + join(i(int(r.Register)), i(r.ParentMemID))
}

// FreeMem releases a register's membrane once it's no longer referenced.
type FreeMem struct{ Register Register }

func (f FreeMem) Instruction() string { return "free_mem\t" + i(int(f.Register)) }

// Guard type-predicate checks on a matched register.
type IsInt struct{ Register Register }

func (c IsInt) Instruction() string { return "is_int\t" + i(int(c.Register)) }

type IsFloat struct{ Register Register }

func (c IsFloat) Instruction() string { return "is_float\t" + i(int(c.Register)) }

type IsUnary struct{ Register Register }

func (c IsUnary) Instruction() string { return "is_unary\t" + i(int(c.Register)) }

type IsGround struct{ Register Register }

func (c IsGround) Instruction() string { return "is_ground\t" + i(int(c.Register)) }

// RuleSetLabel and RuleLabel mark the start of a rule set's or rule's
// instruction block in the emitted stream.
type RuleSetLabel struct{ ID int }

func (l RuleSetLabel) Instruction() string { return "rule_set\t" + i(l.ID) }

type RuleLabel struct{ ID int }

func (l RuleLabel) Instruction() string { return "rule\t" + i(l.ID) }
