package domain

import "strings"

// KindScope identifies one cached list: a kind, optionally narrowed to a namespace.
type KindScope struct {
	Kind      *Kind
	Namespace string
}

func (s KindScope) String() string {
	var kind string
	if s.Kind == nil {
		kind = ""
	} else {
		kind = s.Kind.String()
	}
	return strings.Join([]string{kind, s.Namespace}, "/")
}

// ObjectKey identifies one object inside a scope.
type ObjectKey struct {
	Scope KindScope
	UID   string
}

func (o ObjectKey) String() string {
	return strings.Join([]string{o.Scope.String(), o.UID}, "/")
}
