package ast

import "strings"

// TypeRef is the frontend's type descriptor: a nominal name plus type
// arguments. The analyzer performs no inference; it only inspects the shape
// already present on the node.
type TypeRef struct {
	Name string
	Args []TypeRef
}

// IsResult reports whether the type is Result<T,E>.
func (t TypeRef) IsResult() bool {
	return t.Name == "Result" && len(t.Args) == 2
}

// IsUnit reports whether the type is absent or the unit type.
func (t TypeRef) IsUnit() bool {
	return t.Name == "" || t.Name == "unit" || t.Name == "void"
}

func (t TypeRef) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return t.Name + "<" + strings.Join(parts, ",") + ">"
}
