// Package repository implements agent-scoped PostgreSQL data access.
// Every statement filters by agent_id; a row owned by another agent is
// reported exactly like a missing one.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when no row matches the id for the agent.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert or update violates a
	// per-agent uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")

	// ErrCheckViolation is returned when a row fails a CHECK constraint.
	ErrCheckViolation = errors.New("check constraint violated")
)

const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

// DuplicateError carries the name of the violated constraint.
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate record (%s)", e.Constraint)
}

// Is makes errors.Is(err, ErrDuplicate) hold for any DuplicateError.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// CheckError carries the name of the violated CHECK constraint.
type CheckError struct {
	Constraint string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("check constraint violated (%s)", e.Constraint)
}

// Is makes errors.Is(err, ErrCheckViolation) hold for any CheckError.
func (e *CheckError) Is(target error) bool {
	return target == ErrCheckViolation
}

// ConstraintName returns the constraint behind a DuplicateError or
// CheckError, and false for any other error.
func ConstraintName(err error) (string, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup.Constraint, true
	}
	var check *CheckError
	if errors.As(err, &check) {
		return check.Constraint, true
	}
	return "", false
}

// mapWriteError converts unique and check violations into typed errors and
// wraps everything else with the operation name.
func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return &DuplicateError{Constraint: pgErr.ConstraintName}
		case checkViolation:
			return &CheckError{Constraint: pgErr.ConstraintName}
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page selects one page of a list. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page to valid bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) limit() int  { return p.Normalize().Size }
func (p Page) offset() int { n := p.Normalize(); return (n.Number - 1) * n.Size }

// where accumulates AND-ed conditions with positional arguments.
type where struct {
	conds []string
	args  []any
}

// add appends a condition; each "?" in cond is replaced by the next
// positional placeholder.
func (w *where) add(cond string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *where) sql() string {
	return "WHERE " + strings.Join(w.conds, " AND ")
}

// next returns the placeholder for an argument appended after the
// conditions.
func (w *where) next(arg any) string {
	w.args = append(w.args, arg)
	return fmt.Sprintf("$%d", len(w.args))
}

func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(q)) + "%"
}
