package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gitrdm/lmntalc/pkg/parsetree"
	"github.com/gitrdm/lmntalc/pkg/ruleanalysis"
	"github.com/gitrdm/lmntalc/pkg/session"
	"github.com/gitrdm/lmntalc/pkg/walker"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "walk a session JSON file and print its atom/link/membrane/rule tables",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return wrappedIOError{fmt.Errorf("%s: %w", path, err)}
	}
	defer f.Close()

	root, err := parsetree.DecodeJSON(f)
	if err != nil {
		return err
	}

	sess, err := walker.Walk(root, ruleanalysis.Analyse)
	if err != nil {
		return err
	}

	printAtoms(sess)
	printLinks(sess)
	printMembranes(sess)
	printRules(sess)
	return nil
}

func printAtoms(sess *session.Session) {
	ids := make([]int, 0, len(sess.Atoms))
	for id := range sess.Atoms {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	fmt.Println("Atoms")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Membrane", "Functor", "Ports"})
	for _, id := range ids {
		a := sess.Atoms[session.AtomID(id)]
		table.Append([]string{
			itoa(int(a.ID)), itoa(int(a.Membrane)), a.Functor(), itoa(a.Arity()),
		})
	}
	table.Render()
}

func printLinks(sess *session.Session) {
	ids := make([]int, 0, len(sess.Links))
	for id := range sess.Links {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	fmt.Println("Links")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Free"})
	for _, id := range ids {
		l := sess.Links[session.LinkID(id)]
		free := "no"
		if l.IsFree() {
			free = "yes"
		}
		table.Append([]string{itoa(int(l.ID)), l.Name, free})
	}
	table.Render()
}

func printMembranes(sess *session.Session) {
	ids := make([]int, 0, len(sess.Membranes))
	for id := range sess.Membranes {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	fmt.Println("Membranes")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Parent", "Name", "Processes", "Rules"})
	for _, id := range ids {
		m := sess.Membranes[session.MembraneID(id)]
		table.Append([]string{
			itoa(int(m.ID)), itoa(int(m.Parent)), m.Name,
			itoa(len(m.Process)), itoa(len(m.RuleSet)),
		})
	}
	table.Render()
}

func printRules(sess *session.Session) {
	ids := make([]int, 0, len(sess.Rules))
	for id := range sess.Rules {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	fmt.Println("Rules")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Membrane", "Cases"})
	for _, id := range ids {
		r := sess.Rules[session.RuleID(id)]
		table.Append([]string{
			itoa(int(r.ID)), r.Name, itoa(int(r.Membrane)), itoa(len(r.Cases)),
		})
	}
	table.Render()
}

func itoa(n int) string { return fmt.Sprintf("%d", n) }
