package compiler

import "github.com/gitrdm/lmntalc/pkg/session"

// The compiler's five error kinds (Syntax, Structural, Scope, Internal,
// IO) are defined in pkg/session, not here, because pkg/walker,
// pkg/ruleanalysis, and pkg/guard all need to construct them and all sit
// below pkg/compiler in the import graph. These aliases keep the
// CLI-facing surface reading as compiler.SyntaxError et al. without a
// second definition to drift out of sync.
type (
	SyntaxError     = session.SyntaxError
	StructuralError = session.StructuralError
	ScopeError      = session.ScopeError
	InternalError   = session.InternalError
	IOError         = session.IOError
)
