// Package querybuilder assembles parameterized WHERE clauses from typed
// filter descriptors. Field and operator names come from route code, never
// from request bodies; anything outside the allow-lists is a programmer
// error and fails the build.
package querybuilder

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidCondition indicates a condition that cannot be rendered safely:
// an unknown field or operator, an empty IN set, or a range without bounds.
var ErrInvalidCondition = errors.New("invalid query condition")

// fieldPattern accepts a bare or table-qualified column identifier.
var fieldPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

var allowedOperators = map[string]struct{}{
	"=": {}, "!=": {}, "<>": {},
	"<": {}, ">": {}, "<=": {}, ">=": {},
	"LIKE": {}, "ILIKE": {}, "IN": {}, "NOT IN": {},
}

// ValidField reports whether name is an acceptable column identifier.
func ValidField(name string) bool {
	return fieldPattern.MatchString(name)
}

// ValidOperator reports whether op is on the operator allow-list.
func ValidOperator(op string) bool {
	_, ok := allowedOperators[op]
	return ok
}

// likeEscaper neutralizes pattern metacharacters in user input before it is
// wrapped in wildcards. Backslash is the escape character, so it is escaped too.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE/ILIKE metacharacters so user-supplied % and _
// match literally.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Condition is one typed filter descriptor. A condition may skip itself
// (render nothing) when its value is absent.
type Condition interface {
	// render emits the clause fragment starting at placeholder index idx and
	// returns the fragment, its params, and the next free index. A skipped
	// condition returns an empty fragment with next == idx.
	render(idx int) (string, []any, int, error)
}

// Exact compares a column against a single value. Operator defaults to "=".
// A nil Value skips the condition.
type Exact struct {
	Field    string
	Operator string
	Value    any
}

func (c Exact) render(idx int) (string, []any, int, error) {
	if c.Value == nil {
		return "", nil, idx, nil
	}
	if !ValidField(c.Field) {
		return "", nil, idx, fmt.Errorf("%w: field %q", ErrInvalidCondition, c.Field)
	}
	op := c.Operator
	if op == "" {
		op = "="
	}
	if !ValidOperator(op) {
		return "", nil, idx, fmt.Errorf("%w: operator %q", ErrInvalidCondition, op)
	}
	return fmt.Sprintf("%s %s $%d", c.Field, op, idx), []any{c.Value}, idx + 1, nil
}

// Like matches a column case-insensitively against a substring. The value is
// escaped before the %...% wrap so user wildcards match literally. An empty
// Value skips the condition.
type Like struct {
	Field string
	Value string
}

func (c Like) render(idx int) (string, []any, int, error) {
	if c.Value == "" {
		return "", nil, idx, nil
	}
	if !ValidField(c.Field) {
		return "", nil, idx, fmt.Errorf("%w: field %q", ErrInvalidCondition, c.Field)
	}
	return fmt.Sprintf("%s ILIKE $%d", c.Field, idx), []any{"%" + EscapeLike(c.Value) + "%"}, idx + 1, nil
}

// In matches a column against a value set. A nil Values slice skips the
// condition; an empty non-nil set is a caller bug and fails the build rather
// than emitting invalid SQL.
type In struct {
	Field  string
	Values []any
}

func (c In) render(idx int) (string, []any, int, error) {
	if c.Values == nil {
		return "", nil, idx, nil
	}
	if len(c.Values) == 0 {
		return "", nil, idx, fmt.Errorf("%w: empty IN set for field %q", ErrInvalidCondition, c.Field)
	}
	if !ValidField(c.Field) {
		return "", nil, idx, fmt.Errorf("%w: field %q", ErrInvalidCondition, c.Field)
	}
	return fmt.Sprintf("%s IN (%s)", c.Field, Placeholders(idx, len(c.Values))), c.Values, idx + len(c.Values), nil
}

// Range bounds a column between Min and Max. With both bounds it renders
// BETWEEN, with one bound a single comparison, and with neither it fails.
type Range struct {
	Field string
	Min   any
	Max   any
}

func (c Range) render(idx int) (string, []any, int, error) {
	if !ValidField(c.Field) {
		return "", nil, idx, fmt.Errorf("%w: field %q", ErrInvalidCondition, c.Field)
	}
	switch {
	case c.Min != nil && c.Max != nil:
		return fmt.Sprintf("%s BETWEEN $%d AND $%d", c.Field, idx, idx+1), []any{c.Min, c.Max}, idx + 2, nil
	case c.Min != nil:
		return fmt.Sprintf("%s >= $%d", c.Field, idx), []any{c.Min}, idx + 1, nil
	case c.Max != nil:
		return fmt.Sprintf("%s <= $%d", c.Field, idx), []any{c.Max}, idx + 1, nil
	default:
		return "", nil, idx, fmt.Errorf("%w: range on %q has no bounds", ErrInvalidCondition, c.Field)
	}
}

// Exists wraps a caller-authored, already-parameterized subquery. The
// subquery text is trusted code; its placeholders must be written with
// Placeholders (or equivalent) against the index this condition is rendered
// at. Params are appended verbatim.
type Exists struct {
	// Subquery is a format string whose placeholder indices are produced by
	// the callback, which receives the starting index for this condition.
	Subquery func(startIndex int) string
	Params   []any
}

func (c Exists) render(idx int) (string, []any, int, error) {
	if c.Subquery == nil {
		return "", nil, idx, fmt.Errorf("%w: exists condition without subquery", ErrInvalidCondition)
	}
	return fmt.Sprintf("EXISTS (%s)", c.Subquery(idx)), c.Params, idx + len(c.Params), nil
}

// Build renders conditions into an AND-joined WHERE clause body (without the
// WHERE keyword) and its positional parameters. Placeholder indices start at
// startIndex and are contiguous; nextIndex is the first unused index, so
// callers can append further placeholders of their own. An empty or fully
// skipped condition list yields an empty clause.
func Build(conditions []Condition, startIndex int) (clause string, params []any, nextIndex int, err error) {
	if startIndex < 1 {
		return "", nil, startIndex, fmt.Errorf("%w: start index %d", ErrInvalidCondition, startIndex)
	}

	var fragments []string
	idx := startIndex
	for _, cond := range conditions {
		frag, condParams, next, err := cond.render(idx)
		if err != nil {
			return "", nil, startIndex, err
		}
		if frag == "" {
			continue
		}
		fragments = append(fragments, frag)
		params = append(params, condParams...)
		idx = next
	}

	return strings.Join(fragments, " AND "), params, idx, nil
}

// Placeholders renders a comma-separated run of n placeholders starting at
// start, e.g. Placeholders(3, 2) == "$3, $4".
func Placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}
