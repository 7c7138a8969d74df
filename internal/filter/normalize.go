package filter

import (
	"fmt"
	"strings"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// UnknownOperatorError reports a grid operator with no predicate mapping
type UnknownOperatorError struct {
	Field    string
	Operator string
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("unhandled condition %q on field %q", e.Operator, e.Field)
}

// direct maps grid operator names onto predicate types one to one
var direct = map[string]models.PredicateType{
	"eq":           models.TypeEqual,
	"==":           models.TypeEqual,
	"equal":        models.TypeEqual,
	"neq":          models.TypeNotEqual,
	"!=":           models.TypeNotEqual,
	"not_equal":    models.TypeNotEqual,
	"contains":     models.TypeContains,
	"not_contains": models.TypeNotContains,
	"begins_with":  models.TypeBeginsWith,
	"ends_with":    models.TypeEndsWith,
	"gt":           models.TypeGreaterThan,
	"lt":           models.TypeLessThan,
	"gte":          models.TypeGreaterOrEqual,
	"lte":          models.TypeLessOrEqual,
}

// Normalize flattens the grid's condition stack into backend predicates.
//
// Output follows input order. Conjunction and disjunction groups are
// flattened identically. Conditions that cannot be mapped are skipped and
// reported in the returned warnings; they never abort the rest.
func Normalize(groups []models.ConditionGroup, fields []string) ([]models.Predicate, []error) {
	predicates := make([]models.Predicate, 0, len(groups))
	var warnings []error

	for _, group := range groups {
		if group.Column == models.NoColumn {
			continue
		}
		if group.Column < 0 || group.Column >= len(fields) {
			warnings = append(warnings, fmt.Errorf("condition on unknown column index %d", group.Column))
			continue
		}
		field := fields[group.Column]

		conditions := group.Conditions
		if group.Operation == models.CombinatorNone && len(conditions) > 1 {
			// A single-condition stack entry only ever carries its first condition
			conditions = conditions[:1]
		}

		for _, cond := range conditions {
			parsed, err := normalizeCondition(field, cond)
			if err != nil {
				warnings = append(warnings, err)
				continue
			}
			predicates = append(predicates, parsed...)
		}
	}

	return predicates, warnings
}

// normalizeCondition maps one native condition to zero, one or two predicates
func normalizeCondition(field string, cond models.NativeCondition) ([]models.Predicate, error) {
	name := strings.ToLower(strings.TrimSpace(cond.Name))

	switch name {
	case "none", "":
		return nil, nil
	case "empty":
		return []models.Predicate{{Field: field, Type: models.TypeEqual, Value: ""}}, nil
	case "not_empty":
		return []models.Predicate{{Field: field, Type: models.TypeNotEqual, Value: ""}}, nil
	case "between":
		if len(cond.Args) < 2 {
			return nil, fmt.Errorf("condition %q on field %q needs two arguments, got %d", cond.Name, field, len(cond.Args))
		}
		return []models.Predicate{
			{Field: field, Type: models.TypeGreaterOrEqual, Value: cond.Args[0]},
			{Field: field, Type: models.TypeLessOrEqual, Value: cond.Args[1]},
		}, nil
	}

	typ, ok := direct[name]
	if !ok {
		return nil, &UnknownOperatorError{Field: field, Operator: cond.Name}
	}
	if len(cond.Args) == 0 {
		return nil, fmt.Errorf("condition %q on field %q has no argument", cond.Name, field)
	}

	return []models.Predicate{{Field: field, Type: typ, Value: cond.Args[0]}}, nil
}
