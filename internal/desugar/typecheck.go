package desugar

import (
	"fmt"
	"regexp"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/LDY1998/prusti-dev/internal/ir"
)

// PredicateSig is the signature of a declared predicate, made visible to the
// checker so contract expressions can apply it.
type PredicateSig struct {
	Name   string
	Params []ir.BoundVar
}

// TypeChecker is the host type-checking service. Given a surface expression
// and the names it may legitimately reference, Check validates it as
// boolean-valued under ordinary lexical scoping; Eval evaluates it under a
// concrete argument assignment. This package consumes the service, it never
// re-implements it.
type TypeChecker interface {
	// Check validates src as a boolean-valued expression over scope.
	Check(src string, scope []ir.BoundVar) error
	// CheckRef validates src as a well-formed expression over scope without
	// constraining its type. Used for pledge reference expressions.
	CheckRef(src string, scope []ir.BoundVar) error
	// Eval evaluates src under a concrete argument assignment.
	Eval(src string, scope []ir.BoundVar, args map[string]any) (bool, error)
}

// CUEChecker implements TypeChecker on the CUE evaluator. An expression is
// compiled against a scope struct declaring each legal name at its type;
// boolean-ness is decided by the CUE kind system.
//
// Predicate applications use call syntax in the surface text, e.g.
// "pred(true)". CUE has no user-defined functions, so the checker rewrites
// each application to a struct unification, "(pred & {a: (true)}).holds",
// against the predicate's declared signature. Nested predicate applications
// are not supported.
type CUEChecker struct {
	ctx   *cue.Context
	preds map[string]PredicateSig
	order []string // deterministic rewrite order
}

// NewCUEChecker creates a checker that knows the given predicate signatures.
func NewCUEChecker(preds ...PredicateSig) *CUEChecker {
	c := &CUEChecker{
		ctx:   cuecontext.New(),
		preds: make(map[string]PredicateSig, len(preds)),
	}
	for _, p := range preds {
		c.preds[p.Name] = p
		c.order = append(c.order, p.Name)
	}
	return c
}

// Check validates src as a boolean-valued expression over scope.
func (c *CUEChecker) Check(src string, scope []ir.BoundVar) error {
	return c.check(src, scope, true)
}

// CheckRef validates src as a well-formed expression over scope, with no
// constraint on its type.
func (c *CUEChecker) CheckRef(src string, scope []ir.BoundVar) error {
	return c.check(src, scope, false)
}

func (c *CUEChecker) check(src string, scope []ir.BoundVar, wantBool bool) error {
	rewritten, apps, err := c.rewritePredicateCalls(src)
	if err != nil {
		return err
	}

	scopeVal := c.ctx.CompileString(c.scopeDecl(scope))
	if scopeErr := scopeVal.Err(); scopeErr != nil {
		return &TypeError{Code: ErrHostChecker, Source: src, Err: scopeErr}
	}

	// Validate each predicate application as a whole struct; selecting
	// .holds alone would let an argument type conflict go unnoticed.
	for _, app := range apps {
		appVal := c.ctx.CompileString(app, cue.Scope(scopeVal))
		if appErr := appVal.Err(); appErr != nil {
			return &TypeError{Code: ErrHostChecker, Source: src, Err: appErr}
		}
		if appErr := appVal.Validate(); appErr != nil {
			return &TypeError{Code: ErrHostChecker, Source: src, Err: appErr}
		}
	}

	v := c.ctx.CompileString(rewritten, cue.Scope(scopeVal))
	if vErr := v.Err(); vErr != nil {
		return &TypeError{Code: ErrHostChecker, Source: src, Err: vErr}
	}
	if vErr := v.Validate(); vErr != nil {
		return &TypeError{Code: ErrHostChecker, Source: src, Err: vErr}
	}
	if wantBool && v.IncompleteKind()&cue.BoolKind == 0 {
		return &TypeError{
			Code:   ErrNotBoolean,
			Source: src,
			Err:    fmt.Errorf("expression has kind %v, want bool", v.IncompleteKind()),
		}
	}
	return nil
}

// Eval evaluates src over a concrete argument assignment. Expressions that
// apply predicates are not evaluable (predicates have no executable
// semantics) and return ErrNotEvaluable.
func (c *CUEChecker) Eval(src string, scope []ir.BoundVar, args map[string]any) (bool, error) {
	rewritten, _, err := c.rewritePredicateCalls(src)
	if err != nil {
		return false, err
	}

	decl, err := c.concreteScopeDecl(scope, args)
	if err != nil {
		return false, err
	}
	scopeVal := c.ctx.CompileString(decl)
	if scopeErr := scopeVal.Err(); scopeErr != nil {
		return false, &TypeError{Code: ErrHostChecker, Source: src, Err: scopeErr}
	}

	v := c.ctx.CompileString(rewritten, cue.Scope(scopeVal))
	if vErr := v.Err(); vErr != nil {
		return false, &TypeError{Code: ErrHostChecker, Source: src, Err: vErr}
	}
	result, boolErr := v.Bool()
	if boolErr != nil {
		return false, &TypeError{Code: ErrNotEvaluable, Source: src, Err: boolErr}
	}
	return result, nil
}

// scopeDecl builds the abstract scope struct: each variable declared at its
// type, each known predicate declared as a signature struct with a boolean
// holds field.
func (c *CUEChecker) scopeDecl(scope []ir.BoundVar) string {
	var b strings.Builder
	for _, v := range scope {
		fmt.Fprintf(&b, "%s: %s\n", v.Name, v.Type)
	}
	for _, name := range c.order {
		sig := c.preds[name]
		fmt.Fprintf(&b, "%s: {\n", name)
		for _, p := range sig.Params {
			fmt.Fprintf(&b, "\t%s: %s\n", p.Name, p.Type)
		}
		b.WriteString("\tholds: bool\n}\n")
	}
	return b.String()
}

// concreteScopeDecl builds the scope struct with concrete values for Eval.
// Every scope variable must be assigned.
func (c *CUEChecker) concreteScopeDecl(scope []ir.BoundVar, args map[string]any) (string, error) {
	var b strings.Builder
	for _, v := range scope {
		arg, ok := args[v.Name]
		if !ok {
			return "", &TypeError{
				Code:   ErrNotEvaluable,
				Source: v.Name,
				Err:    fmt.Errorf("no value for %q in argument assignment", v.Name),
			}
		}
		lit, err := cueLiteral(arg)
		if err != nil {
			return "", &TypeError{Code: ErrNotEvaluable, Source: v.Name, Err: err}
		}
		fmt.Fprintf(&b, "%s: %s\n", v.Name, lit)
	}
	for _, name := range c.order {
		sig := c.preds[name]
		fmt.Fprintf(&b, "%s: {\n", name)
		for _, p := range sig.Params {
			fmt.Fprintf(&b, "\t%s: %s\n", p.Name, p.Type)
		}
		b.WriteString("\tholds: bool\n}\n")
	}
	return b.String(), nil
}

// cueLiteral renders a Go value as a CUE literal. Only bool, int, and string
// are supported.
func cueLiteral(v any) (string, error) {
	switch val := v.(type) {
	case bool:
		return fmt.Sprintf("%t", val), nil
	case int:
		return fmt.Sprintf("%d", val), nil
	case int64:
		return fmt.Sprintf("%d", val), nil
	case string:
		return fmt.Sprintf("%q", val), nil
	default:
		return "", fmt.Errorf("unsupported argument type %T", v)
	}
}

// rewritePredicateCalls replaces each predicate application with its struct
// unification form. Returns the rewritten expression plus the list of
// unification structs for separate validation.
func (c *CUEChecker) rewritePredicateCalls(src string) (string, []string, error) {
	rewritten := src
	var apps []string
	var rewriteErr error

	for _, name := range c.order {
		sig := c.preds[name]
		pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\(([^()]*)\)`)
		rewritten = pattern.ReplaceAllStringFunc(rewritten, func(match string) string {
			if rewriteErr != nil {
				return match
			}
			argText := pattern.FindStringSubmatch(match)[1]
			callArgs := splitArgs(argText)
			if len(callArgs) != len(sig.Params) {
				rewriteErr = &TypeError{
					Code:   ErrBadArity,
					Source: src,
					Err: fmt.Errorf("%s applied to %d argument(s), signature has %d",
						name, len(callArgs), len(sig.Params)),
				}
				return match
			}
			var fields []string
			for i, p := range sig.Params {
				fields = append(fields, fmt.Sprintf("%s: (%s)", p.Name, callArgs[i]))
			}
			app := fmt.Sprintf("(%s & {%s})", name, strings.Join(fields, ", "))
			apps = append(apps, app)
			return app + ".holds"
		})
		if rewriteErr != nil {
			return "", nil, rewriteErr
		}
	}
	return rewritten, apps, nil
}

// splitArgs splits a call argument list on top-level commas.
func splitArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	args := make([]string, len(parts))
	for i, p := range parts {
		args[i] = strings.TrimSpace(p)
	}
	return args
}
