package walker

import (
	"github.com/gitrdm/lmntalc/pkg/session"
)

// linkScope tracks link names currently open (seen exactly once) within one
// walk: the whole program (Walk) or one rule case body (BuildBody). Nested
// membranes share the scope of the walk that reaches them, so a link name
// may connect processes on either side of a membrane boundary. Separate
// walks never share a scope.
type linkScope struct {
	open   map[string]*session.Link
	closed map[string]bool
}

func newLinkScope() *linkScope {
	return &linkScope{open: make(map[string]*session.Link), closed: make(map[string]bool)}
}

// occurrence records one occurrence of a link name at (owner, port). The
// first occurrence of a name opens a new Link; the second resolves it and
// closes it. A third occurrence of the same name within one scope is a
// structural error (a link is not 2-ended), tracked by moving the name
// into closed once its second endpoint resolves so it can never be
// reopened as a fresh Link.
func (s *linkScope) occurrence(sess *session.Session, name string, owner session.Symbol, port int, pos session.SourceSpan) (session.LinkID, error) {
	if s.closed[name] {
		return 0, &session.StructuralError{
			Line: pos.Line, Col: pos.Col,
			Msg: "link '" + name + "' occurs a third time in this scope (link is not 2-ended)",
		}
	}
	if l, ok := s.open[name]; ok {
		l.Endpoint2 = &session.Endpoint{Owner: owner, Port: port}
		l.Pos2 = pos
		delete(s.open, name)
		s.closed[name] = true
		return l.ID, nil
	}
	l := sess.NewLink(name, pos)
	l.Endpoint1 = &session.Endpoint{Owner: owner, Port: port}
	s.open[name] = l
	return l.ID, nil
}

// closeAll reports a *session.StructuralError for the earliest-declared
// link name still open when the scope's body has been fully walked (a
// free link). Link ids are allocated in source order, so picking the
// lowest id keeps the reported name and position identical across runs
// even when several names are open at once.
func (s *linkScope) closeAll() error {
	var first *session.Link
	for _, l := range s.open {
		if first == nil || l.ID < first.ID {
			first = l
		}
	}
	if first == nil {
		return nil
	}
	return &session.StructuralError{
		Line: first.Pos1.Line, Col: first.Pos1.Col,
		Msg: "link '" + first.Name + "' has only one occurrence in this scope",
	}
}
