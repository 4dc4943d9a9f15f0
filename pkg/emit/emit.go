// Package emit serialises a lowered, optimised program to its output
// form. Text is fully implemented; Binary is declared but has no concrete
// byte encoding yet.
package emit

import (
	"fmt"
	"io"
	"strings"

	"github.com/gitrdm/lmntalc/pkg/il"
)

// Program is the fully lowered compilation unit ready for serialisation:
// the init block plus one RuleSet per membrane that declares rules, in
// membrane-id order.
type Program struct {
	Init     []il.Instruction
	RuleSets []RuleSet
}

// RuleSet groups every rule attached to one membrane.
type RuleSet struct {
	MemID int
	Rules []Rule
}

// Rule is one rule's lowered sections: Pattern and Removal run once per
// match; each Case then carries its own optional Guard and its Body.
type Rule struct {
	Name    string
	Pattern []il.Instruction
	Removal []il.Instruction
	Cases   []Case
}

// Case is one when/then clause's lowered guard and body.
type Case struct {
	Guard []il.Instruction
	Body  []il.Instruction
}

// Target serialises a Program to w.
type Target interface {
	Emit(w io.Writer, p *Program) error
}

// Text renders the line-oriented, tab-separated IL layout: an Init block,
// then one RuleSet block per rule-bearing membrane. Removal is always
// emitted as its own header between Pattern and Cases; Guard is omitted
// when a case has none.
type Text struct{}

func (Text) Emit(w io.Writer, p *Program) error {
	var b strings.Builder

	b.WriteString("Init\n")
	writeInstructions(&b, p.Init)
	b.WriteString("\n")

	for _, rs := range p.RuleSets {
		fmt.Fprintf(&b, "RuleSet %d\n", rs.MemID)
		for _, r := range rs.Rules {
			fmt.Fprintf(&b, "Rule %s\n", r.Name)
			b.WriteString("Pattern\n")
			writeInstructions(&b, r.Pattern)
			b.WriteString("Removal\n")
			writeInstructions(&b, r.Removal)
			b.WriteString("Cases\n")
			for i, c := range r.Cases {
				fmt.Fprintf(&b, "Case %d\n", i)
				if len(c.Guard) > 0 {
					b.WriteString("Guard\n")
					writeInstructions(&b, c.Guard)
				}
				b.WriteString("Body\n")
				writeInstructions(&b, c.Body)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeInstructions(b *strings.Builder, instrs []il.Instruction) {
	for _, in := range instrs {
		b.WriteString(in.Instruction())
		b.WriteString("\n")
	}
}

// Binary is the planned second target (a header of magic + version +
// table-of-contents followed by instruction records). The byte layout is
// not settled; it is declared here so a caller can select it and fail
// explicitly rather than silently falling back to text.
type Binary struct{}

// ErrBinaryFormatUnspecified is returned by Binary.Emit until a concrete
// byte layout is settled.
var ErrBinaryFormatUnspecified = fmt.Errorf("emit: binary IL target has no specified byte encoding")

func (Binary) Emit(w io.Writer, p *Program) error {
	return ErrBinaryFormatUnspecified
}
