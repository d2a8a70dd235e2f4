package builder

import (
	"fmt"

	"github.com/calumari/restitch/internal/syntax"
)

// ActionKind enumerates what a rule does to a matched field.
type ActionKind uint8

const (
	ActionDiscardAttribute ActionKind = iota
	ActionRemapToVec
	ActionMap
)

func (k ActionKind) String() string {
	switch k {
	case ActionDiscardAttribute:
		return "discard_attribute"
	case ActionRemapToVec:
		return "remap_to_vec"
	case ActionMap:
		return "map"
	}
	return fmt.Sprintf("ActionKind(%d)", uint8(k))
}

// Rule pairs a (type, field) selector with one action. An empty Type or
// Field matches anything.
type Rule struct {
	Type   syntax.Ident
	Field  syntax.Ident
	Action ActionKind
	// Attr is the attribute name for ActionDiscardAttribute.
	Attr syntax.Ident
	// Target is the element type for ActionRemapToVec and the replacement
	// type for ActionMap.
	Target syntax.Type
}

func (r Rule) matches(typeName, field syntax.Ident) bool {
	return (r.Type == "" || r.Type == typeName) && (r.Field == "" || r.Field == field)
}

// key identifies the slot a rule competes for on one field. Discard rules for
// different attributes never compete.
func (r Rule) key() string {
	if r.Action == ActionDiscardAttribute {
		return r.Action.String() + ":" + string(r.Attr)
	}
	return r.Action.String()
}

func (r Rule) String() string {
	sel := func(id syntax.Ident) string {
		if id == "" {
			return "*"
		}
		return string(id)
	}
	s := sel(r.Type) + "." + sel(r.Field) + " " + r.Action.String()
	switch r.Action {
	case ActionDiscardAttribute:
		s += " " + string(r.Attr)
	case ActionRemapToVec, ActionMap:
		s += " " + syntax.TypeString(r.Target)
	}
	return s
}

// apply runs the rule's action on f and reports whether anything changed.
func (r Rule) apply(f *syntax.Field) bool {
	switch r.Action {
	case ActionDiscardAttribute:
		return f.DropAttrs(r.Attr) > 0
	case ActionRemapToVec:
		vec := syntax.NamedType("Vec", r.Target.CloneType())
		if _, ok := syntax.Generic(f.Type, "Option"); ok {
			f.Type = syntax.NamedType("Option", vec)
		} else {
			f.Type = vec
		}
		return true
	case ActionMap:
		f.Type = r.Target.CloneType()
		return true
	}
	panic(fmt.Sprintf("builder: unhandled action %s", r.Action))
}
