package session

// LinkID identifies a Link in the session's Links table.
type LinkID int

// Endpoint names where one end of a Link attaches: an owner symbol (an
// Atom in the common case; a Membrane when a link name is used directly as
// a top-level process) and, for Atom owners, the port index.
type Endpoint struct {
	Owner Symbol
	Port  int
}

// Link is a named, two-ended edge. Endpoint2 is nil until the link name's
// second occurrence is resolved; a Link with a nil Endpoint2 at the end of
// its scope is a free link, which is a compile error at program and
// rule-pattern/body scope.
type Link struct {
	ID        LinkID
	Name      string
	Endpoint1 *Endpoint
	Endpoint2 *Endpoint

	// Source positions of the two occurrences, for diagnostics. Pos2 is
	// the zero Span until Endpoint2 is resolved.
	Pos1, Pos2 SourceSpan
}

// SourceSpan mirrors parsetree.Span without importing pkg/parsetree from
// pkg/session, keeping the data model independent of the parse-tree
// contract package.
type SourceSpan struct {
	Line, Col, Offset int
}

// IsFree reports whether the link has only one endpoint.
func (l *Link) IsFree() bool {
	return l.Endpoint1 == nil || l.Endpoint2 == nil
}
