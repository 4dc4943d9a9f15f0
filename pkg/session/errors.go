package session

import "fmt"

// The compiler's five error kinds. They live here, rather than in the
// higher-level pkg/compiler, because pkg/walker, pkg/ruleanalysis, and
// pkg/guard all need to construct them and all sit below pkg/compiler in
// the import graph; pkg/compiler re-exports these as type aliases so
// callers only ever see compiler.SyntaxError et al.

// SyntaxError reports a malformed parse tree the walker cannot make sense
// of. Syntax errors abort the walk; the Session is discarded, no partial IL
// is ever produced.
type SyntaxError struct {
	Line, Col int
	Msg       string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// StructuralError reports a well-formed parse tree whose graph structure
// violates an invariant: a free link at end of scope, a link name's third
// occurrence, a pattern link a case never reconnects, a rule with no cases.
// Functor arities and rule names are not checked for clashes. Like syntax
// errors, these abort the walk.
type StructuralError struct {
	Line, Col int
	Msg       string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// ScopeError reports a name used outside the scope it is valid in: a bare
// top-level link at a rule's pattern or body root, a process-context
// outside a rule's pattern, a guard or with-clause name the rule's pattern
// does not bind.
type ScopeError struct {
	Line, Col int
	Name      string
	Msg       string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("scope error at %d:%d: %q %s", e.Line, e.Col, e.Name, e.Msg)
}

// InternalError marks a condition the compiler's own invariants say cannot
// happen (an unreachable code path, a broken register-allocation
// assumption). Internal errors are always a compiler defect, never user
// input.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %s", e.Msg)
}

// IOError wraps a filesystem/stream failure encountered while reading
// source or writing emitted IL.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error on %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
