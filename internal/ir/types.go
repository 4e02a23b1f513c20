package ir

import (
	"fmt"
	"strings"
)

// SpecID is a globally unique token identifying one contract occurrence:
// one precondition list, one postcondition list, one pledge list, or one
// predicate body attached to one item. UUID-shaped; stable for the lifetime
// of a compilation unit; never reused.
type SpecID string

// ExprID identifies a sub-expression within a single SpecID scope.
// IDs are assigned in the order sub-expressions are encountered during
// desugaring of that contract: a strictly increasing pre-order numbering
// starting at ExprIDBase.
type ExprID int

// ExprIDBase is the first ExprID issued in every scope.
const ExprIDBase ExprID = 100

// ItemKind distinguishes the two annotated item kinds.
type ItemKind string

const (
	ItemFunction  ItemKind = "function"
	ItemPredicate ItemKind = "predicate"
)

// ItemRef is a typed reference to an annotated item.
// Format: "function.use_pred" or "predicate.pred".
type ItemRef string

// NewItemRef builds an ItemRef from an item kind and name.
func NewItemRef(kind ItemKind, name string) ItemRef {
	return ItemRef(fmt.Sprintf("%s.%s", kind, name))
}

// Kind returns the item kind encoded in the reference.
func (r ItemRef) Kind() ItemKind {
	s := string(r)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return ItemKind(s[:i])
	}
	return ItemKind(s)
}

// Name returns the item name without the kind prefix.
func (r ItemRef) Name() string {
	s := string(r)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// VarType is the type of a contract parameter or quantifier binder.
// Only bool, int, and string are supported (no floats).
type VarType string

const (
	TypeBool   VarType = "bool"
	TypeInt    VarType = "int"
	TypeString VarType = "string"
)

// ValidVarTypes defines the allowed binder/parameter types.
var ValidVarTypes = map[VarType]bool{
	TypeBool:   true,
	TypeInt:    true,
	TypeString: true,
}

// BoundVar is a named, typed variable: an item parameter or a quantifier
// binder. Order within a binder list is semantically significant.
type BoundVar struct {
	Name string  `json:"name"`
	Type VarType `json:"type"`
}

func (v BoundVar) String() string {
	return fmt.Sprintf("%s: %s", v.Name, v.Type)
}

// Expression is a leaf of an Assertion tree: one isolated boolean
// sub-expression. Source and Scope together form the handle to the isolated
// unit; the host checker resolves and evaluates it, this package only
// threads it through.
type Expression struct {
	SpecID SpecID     `json:"spec_id"`
	ID     ExprID     `json:"id"`
	Source string     `json:"source"`
	Scope  []BoundVar `json:"scope,omitempty"`
}

// ForAllVars is the bound-variable list of a universal quantifier, carrying
// the ExprID allocated for the quantifier node itself.
type ForAllVars struct {
	SpecID SpecID     `json:"spec_id"`
	ID     ExprID     `json:"id"`
	Vars   []BoundVar `json:"vars"`
}

// Trigger is one ordered group of instantiation-hint expressions.
type Trigger struct {
	Elements []Expression `json:"elements"`
}

// TriggerSet is an ordered sequence of trigger groups. It never affects
// logical meaning; it is passed through to the verifier as opaque ordered
// data, with no deduplication or combination strategy applied here.
type TriggerSet []Trigger

// Pledge is a guarantee about a reborrowed value at expiry: an optional
// reference expression plus the guaranteed assertion.
type Pledge struct {
	Lhs *Expression `json:"lhs,omitempty"`
	Rhs Assertion   `json:"rhs"`
}

// ProcedureSpecification is the full desugared contract of one annotated
// item. Exclusively owned by the registry, keyed by the item's ItemRef;
// write-once after construction.
type ProcedureSpecification struct {
	Pres          []Assertion `json:"pres"`
	Posts         []Assertion `json:"posts"`
	Pledges       []Pledge    `json:"pledges"`
	PredicateBody Assertion   `json:"predicate_body,omitempty"` // nil unless the item is a predicate
	Pure          bool        `json:"pure"`
	Trusted       bool        `json:"trusted"`
}

// IsEmpty reports whether the specification carries no contract at all.
func (s *ProcedureSpecification) IsEmpty() bool {
	return len(s.Pres) == 0 && len(s.Posts) == 0 && len(s.Pledges) == 0 && s.PredicateBody == nil
}

// SpecIDs returns the distinct SpecIDs used by this specification, in the
// fixed order pres, posts, pledges, predicate body.
func (s *ProcedureSpecification) SpecIDs() []SpecID {
	var ids []SpecID
	seen := make(map[SpecID]bool)
	add := func(a Assertion) {
		WalkExpressions(a, func(e Expression) {
			if !seen[e.SpecID] {
				seen[e.SpecID] = true
				ids = append(ids, e.SpecID)
			}
		})
	}
	for _, a := range s.Pres {
		add(a)
	}
	for _, a := range s.Posts {
		add(a)
	}
	for _, p := range s.Pledges {
		if p.Lhs != nil && !seen[p.Lhs.SpecID] {
			seen[p.Lhs.SpecID] = true
			ids = append(ids, p.Lhs.SpecID)
		}
		add(p.Rhs)
	}
	if s.PredicateBody != nil {
		add(s.PredicateBody)
	}
	return ids
}
