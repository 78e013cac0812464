package query

import (
	"errors"
	"fmt"

	"github.com/Konsultn-Engineering/sqlfrag/ast"
)

var (
	ErrParameterConflict  = errors.New("query: conflicting parameter values")
	ErrStatementMismatch  = errors.New("query: fragment cannot be applied to statement")
	ErrNoConditions       = errors.New("query: logical condition needs at least one child")
	ErrListPriority       = errors.New("query: a fragment list has no priority of its own")
	ErrListUsedForCount   = errors.New("query: a fragment list has no count flag of its own")
	ErrUnknownOperator    = errors.New("query: unknown comparison operator")
	ErrUnsupportedInput   = errors.New("query: value cannot be normalized to a fragment list")
	ErrInvalidValues      = errors.New("query: invalid row values")
	ErrJoinNotMergeable   = errors.New("query: joined statement cannot be merged with this strategy")
	ErrPrimaryKeyMismatch = errors.New("query: primary key value count mismatch")
)

// ParameterConflictError reports a parameter defined with two different
// values by two owners.
type ParameterConflictError struct {
	Name       string
	Owner      string
	OtherOwner string
	Value      any
	OtherValue any
}

func (e *ParameterConflictError) Error() string {
	return fmt.Sprintf("query: parameter %q is %v in %s but %v in %s",
		e.Name, e.Value, e.Owner, e.OtherValue, e.OtherOwner)
}

func (e *ParameterConflictError) Is(target error) bool {
	return target == ErrParameterConflict
}

// StatementMismatchError reports a fragment applied to a statement kind it
// does not support.
type StatementMismatchError struct {
	Fragment string
	Expected string
	Actual   ast.StatementKind
}

func (e *StatementMismatchError) Error() string {
	return fmt.Sprintf("query: %s expects %s statement, got %s", e.Fragment, e.Expected, e.Actual)
}

func (e *StatementMismatchError) Is(target error) bool {
	return target == ErrStatementMismatch
}

func mismatch(fragment, expected string, stmt ast.Statement) error {
	return &StatementMismatchError{Fragment: fragment, Expected: expected, Actual: stmt.Kind()}
}
