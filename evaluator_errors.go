package rimepatch

import (
	"errors"
	"fmt"
	"strings"
)

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine   string
	Expr     string
	Document string
	Err      error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("rimepatch: %s evaluator %s document=%s: %v", e.Engine, describeExpression(e.Expr), e.Document, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}
	if strings.HasPrefix(err.Error(), "rimepatch:") {
		return err
	}
	return fmt.Errorf("rimepatch: %s evaluator: %w", engine, err)
}

// wrapEvaluationError attaches metadata, filling only the fields an existing
// EvaluationError left empty.
func wrapEvaluationError(engine, expr, document string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Document == "" {
			evalErr.Document = document
		}
		return evalErr
	}
	return &EvaluationError{
		Engine:   engine,
		Expr:     expr,
		Document: document,
		Err:      err,
	}
}
