package desugar

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Syntax error codes (E200-E229).
const (
	ErrUnknownConnective    = "E200" // assertion struct is not a recognized connective
	ErrEmptyConjunction     = "E201" // and with zero conjuncts
	ErrEmptyBinderList      = "E202" // forall with zero binders
	ErrBadBinder            = "E203" // binder missing name or invalid type
	ErrBadTrigger           = "E204" // trigger group is not a list of expressions
	ErrBadImplication       = "E205" // implies missing if or then
	ErrBadAssertionValue    = "E206" // assertion is neither string nor struct
	ErrBadParams            = "E207" // item parameter list malformed
	ErrBadItemDecl          = "E208" // item declaration malformed
	ErrMissingPredicateBody = "E209" // predicate without body
	ErrDuplicateBinder      = "E210" // binder shadows a name already in scope
	ErrBadQuantifier        = "E211" // forall missing its body
)

// Type error codes (E240-E249).
const (
	ErrNotBoolean   = "E240" // expression is not boolean-valued
	ErrHostChecker  = "E241" // CUE evaluator rejected the expression
	ErrBadArity     = "E242" // predicate applied with wrong argument count
	ErrNotEvaluable = "E243" // isolated unit cannot be evaluated concretely
)

// SyntaxError reports contract surface syntax that does not match the
// supported grammar. It aborts the item's registration and does not affect
// other items.
type SyntaxError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *SyntaxError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("[%s] %s:%d:%d: %s: %s",
			e.Code, e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// IsSyntaxError reports whether err is (or wraps) a SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

// TypeError surfaces the host checker's own diagnostic for an isolated
// expression unit. No recovery action is taken; re-running with the same
// input reproduces the same failure.
type TypeError struct {
	Code   string
	Source string // the offending surface expression
	Err    error  // underlying CUE diagnostic, if any
}

func (e *TypeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] expression `%s`: %v", e.Code, e.Source, e.Err)
	}
	return fmt.Sprintf("[%s] expression `%s`: type check failed", e.Code, e.Source)
}

func (e *TypeError) Unwrap() error {
	return e.Err
}

// IsTypeError reports whether err is (or wraps) a TypeError.
func IsTypeError(err error) bool {
	var te *TypeError
	return errors.As(err, &te)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &SyntaxError{
			Code:    ErrBadItemDecl,
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
