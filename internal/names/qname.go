package names

import (
	"fmt"

	"pydefs/internal/syntax"
)

// QName is a name plus where it was bound: the defining span and the owning
// module. Two identifiers with the same text in different places are distinct.
// QName is an immutable value; identity is the full tuple, so it is safe to
// share between the definitions table and downstream consumers.
type QName struct {
	Name   string
	Span   syntax.Span
	Module ModuleName
}

func NewQName(name string, span syntax.Span, module ModuleName) QName {
	return QName{Name: name, Span: span, Module: module}
}

func (q QName) Equal(o QName) bool {
	return q == o
}

// Less orders by (name, span start, span end, module), deterministically.
func (q QName) Less(o QName) bool {
	if q.Name != o.Name {
		return q.Name < o.Name
	}
	if q.Span.Start != o.Span.Start {
		return q.Span.Start < o.Span.Start
	}
	if q.Span.End != o.Span.End {
		return q.Span.End < o.Span.End
	}
	return q.Module < o.Module
}

func (q QName) String() string {
	return fmt.Sprintf("%s.%s", q.Module, q.Name)
}

// StringWithSpan renders "module.name@start..end" for diagnostics.
func (q QName) StringWithSpan() string {
	return fmt.Sprintf("%s.%s@%s", q.Module, q.Name, q.Span)
}
