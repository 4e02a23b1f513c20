package ir

// Assertion is the structured logical representation of one contract or
// sub-formula. It is a sealed sum type: only Expr, And, Implies, and ForAll
// implement it. Every consumer switches exhaustively over these four
// variants; adding a variant must be accompanied by updating every switch.
type Assertion interface {
	isAssertion() // Sealed - only the variants below implement it
}

// Expr is a plain boolean expression leaf. The Expression is embedded so a
// leaf exposes its SpecID, ID, Source, and Scope directly.
type Expr struct {
	Expression `json:"expression"`
}

func (Expr) isAssertion() {}

// And is the conjunction of one or more assertions, in source order.
// It wraps no new expression boundary and therefore carries no ids of its
// own; ids live on the leaves and quantifier nodes below it.
type And struct {
	Conjuncts []Assertion `json:"conjuncts"`
}

func (And) isAssertion() {}

// Implies is a logical implication between two assertions.
// Like And, it is pure structure and carries no ids of its own.
type Implies struct {
	If   Assertion `json:"if"`
	Then Assertion `json:"then"`
}

func (Implies) isAssertion() {}

// ForAll is a universal quantification. The quantifier node itself owns an
// ExprID (on Vars); the body may be any variant, including nested ForAll.
type ForAll struct {
	Vars     ForAllVars `json:"vars"`
	Triggers TriggerSet `json:"triggers"`
	Body     Assertion  `json:"body"`
}

func (ForAll) isAssertion() {}

// WalkExpressions visits every Expression embedded in the assertion tree in
// pre-order: leaves and quantifier bodies in source order, then, for each
// quantifier, its trigger expressions in declaration order. This is exactly
// the order in which ExprIDs were allocated, so the visited IDs of a single
// scope form a strictly increasing sequence.
func WalkExpressions(a Assertion, fn func(Expression)) {
	switch node := a.(type) {
	case Expr:
		fn(node.Expression)
	case And:
		for _, c := range node.Conjuncts {
			WalkExpressions(c, fn)
		}
	case Implies:
		WalkExpressions(node.If, fn)
		WalkExpressions(node.Then, fn)
	case ForAll:
		WalkExpressions(node.Body, fn)
		for _, trigger := range node.Triggers {
			for _, e := range trigger.Elements {
				fn(e)
			}
		}
	}
}

// WalkIDs visits every (SpecID, ExprID) pair allocated in the assertion tree
// in allocation order, including quantifier node ids. Used by invariant
// checks and tests.
func WalkIDs(a Assertion, fn func(SpecID, ExprID)) {
	switch node := a.(type) {
	case Expr:
		fn(node.Expression.SpecID, node.Expression.ID)
	case And:
		for _, c := range node.Conjuncts {
			WalkIDs(c, fn)
		}
	case Implies:
		WalkIDs(node.If, fn)
		WalkIDs(node.Then, fn)
	case ForAll:
		fn(node.Vars.SpecID, node.Vars.ID)
		WalkIDs(node.Body, fn)
		for _, trigger := range node.Triggers {
			for _, e := range trigger.Elements {
				fn(e.SpecID, e.ID)
			}
		}
	}
}
