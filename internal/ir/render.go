package ir

import (
	"fmt"
	"regexp"
	"strings"
)

// SpecIDNormalizer rewrites per-run SpecIDs to stable placeholders
// ("spec-1", "spec-2", ...) in first-appearance order. Used by golden tests
// and the structural hash, where the UUID values themselves must not leak
// into the output.
//
// Not safe for concurrent use; one normalizer per rendering pass.
type SpecIDNormalizer struct {
	assigned map[SpecID]string
	order    []SpecID
}

// NewSpecIDNormalizer creates an empty normalizer.
func NewSpecIDNormalizer() *SpecIDNormalizer {
	return &SpecIDNormalizer{assigned: make(map[SpecID]string)}
}

// Normalize returns the placeholder for id, assigning the next one on first
// sight.
func (n *SpecIDNormalizer) Normalize(id SpecID) string {
	if p, ok := n.assigned[id]; ok {
		return p
	}
	p := fmt.Sprintf("spec-%d", len(n.order)+1)
	n.assigned[id] = p
	n.order = append(n.order, id)
	return p
}

// uuidPattern matches hyphenated RFC 4122 UUIDs in rendered text.
var uuidPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// NormalizeSpecIDs replaces every UUID-shaped identifier in rendered text
// with a stable spec-N placeholder, numbered in first-appearance order.
// Rendering a specification and normalizing the result yields byte-identical
// text across runs on unchanged input.
func NormalizeSpecIDs(rendered string) string {
	n := NewSpecIDNormalizer()
	return uuidPattern.ReplaceAllStringFunc(rendered, func(match string) string {
		return n.Normalize(SpecID(match))
	})
}

// RenderProcedureSpecification produces the deterministic, order-preserving
// text form of one record. This is a diagnostic and snapshot-testing
// surface, not a machine protocol; the only guarantee is exact stability for
// unchanged input (modulo SpecID values, which NormalizeSpecIDs handles).
func RenderProcedureSpecification(ref ItemRef, spec *ProcedureSpecification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "procedure %s\n", ref)

	renderAssertionList(&b, "pres", spec.Pres)
	renderAssertionList(&b, "posts", spec.Posts)

	if len(spec.Pledges) == 0 {
		b.WriteString("  pledges: (none)\n")
	} else {
		b.WriteString("  pledges:\n")
		for _, p := range spec.Pledges {
			if p.Lhs != nil {
				fmt.Fprintf(&b, "    pledge lhs=%s\n", renderExpression(*p.Lhs))
			} else {
				b.WriteString("    pledge\n")
			}
			renderAssertion(&b, p.Rhs, 3)
		}
	}

	if spec.PredicateBody == nil {
		b.WriteString("  predicate_body: (none)\n")
	} else {
		b.WriteString("  predicate_body:\n")
		renderAssertion(&b, spec.PredicateBody, 2)
	}

	fmt.Fprintf(&b, "  pure: %t\n", spec.Pure)
	fmt.Fprintf(&b, "  trusted: %t\n", spec.Trusted)
	return b.String()
}

// RenderAssertion produces the text form of a single assertion tree.
func RenderAssertion(a Assertion) string {
	var b strings.Builder
	renderAssertion(&b, a, 0)
	return b.String()
}

func renderAssertionList(b *strings.Builder, label string, list []Assertion) {
	if len(list) == 0 {
		fmt.Fprintf(b, "  %s: (none)\n", label)
		return
	}
	fmt.Fprintf(b, "  %s:\n", label)
	for _, a := range list {
		renderAssertion(b, a, 2)
	}
}

// renderAssertion writes one tree with two-space indentation per depth.
// Exhaustive over the Assertion sum.
func renderAssertion(b *strings.Builder, a Assertion, depth int) {
	pad := strings.Repeat("  ", depth)
	switch node := a.(type) {
	case Expr:
		fmt.Fprintf(b, "%sexpr %s\n", pad, renderExpression(node.Expression))
	case And:
		fmt.Fprintf(b, "%sand\n", pad)
		for _, c := range node.Conjuncts {
			renderAssertion(b, c, depth+1)
		}
	case Implies:
		fmt.Fprintf(b, "%simplies\n", pad)
		fmt.Fprintf(b, "%s  if:\n", pad)
		renderAssertion(b, node.If, depth+2)
		fmt.Fprintf(b, "%s  then:\n", pad)
		renderAssertion(b, node.Then, depth+2)
	case ForAll:
		fmt.Fprintf(b, "%sforall #%d [%s] (%s)\n",
			pad, node.Vars.ID, node.Vars.SpecID, renderBoundVars(node.Vars.Vars))
		for i, trigger := range node.Triggers {
			parts := make([]string, len(trigger.Elements))
			for j, e := range trigger.Elements {
				parts[j] = renderExpression(e)
			}
			fmt.Fprintf(b, "%s  trigger %d: %s\n", pad, i, strings.Join(parts, ", "))
		}
		fmt.Fprintf(b, "%s  body:\n", pad)
		renderAssertion(b, node.Body, depth+2)
	default:
		fmt.Fprintf(b, "%s<unknown assertion %T>\n", pad, a)
	}
}

func renderExpression(e Expression) string {
	return fmt.Sprintf("#%d [%s] `%s`", e.ID, e.SpecID, e.Source)
}

func renderBoundVars(vars []BoundVar) string {
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}
