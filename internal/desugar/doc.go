// Package desugar converts contract surface syntax into the Assertion IR.
//
// It hosts the three middle stages of the pipeline: the expression isolator,
// which extracts each boolean sub-expression into a standalone unit
// type-checked by the CUE evaluator in its original lexical scope; the
// assertion builder, which recursively parses connectives into ir.Assertion
// trees with pre-order ExprID numbering; and the per-item desugaring driver,
// which assembles one ir.ProcedureSpecification per annotated item, running
// items in parallel where asked.
//
// The package never decides whether a contract holds. Type checking is
// delegated to the CUE evaluator; verification belongs to the backend that
// consumes the registry.
package desugar
