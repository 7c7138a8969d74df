package models

import "fmt"

// PredicateType is a comparison understood by the backend's filter parameter
type PredicateType string

const (
	TypeEqual          PredicateType = "eq"
	TypeNotEqual       PredicateType = "neq"
	TypeContains       PredicateType = "contains"
	TypeNotContains    PredicateType = "not_contains"
	TypeBeginsWith     PredicateType = "begins_with"
	TypeEndsWith       PredicateType = "ends_with"
	TypeGreaterThan    PredicateType = "gt"
	TypeLessThan       PredicateType = "lt"
	TypeGreaterOrEqual PredicateType = "gte"
	TypeLessOrEqual    PredicateType = "lte"
)

// PredicateTypes lists every storable predicate type in menu order
var PredicateTypes = []PredicateType{
	TypeEqual, TypeNotEqual,
	TypeContains, TypeNotContains,
	TypeBeginsWith, TypeEndsWith,
	TypeGreaterThan, TypeLessThan,
	TypeGreaterOrEqual, TypeLessOrEqual,
}

// Valid reports whether t can be stored in an active filter set.
// "between" is deliberately absent: it expands into gte + lte.
func (t PredicateType) Valid() bool {
	for _, known := range PredicateTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Label returns the human readable operator name
func (t PredicateType) Label() string {
	switch t {
	case TypeEqual:
		return "Equal to"
	case TypeNotEqual:
		return "Not equal to"
	case TypeContains:
		return "Contains"
	case TypeNotContains:
		return "Does not contain"
	case TypeBeginsWith:
		return "Begins with"
	case TypeEndsWith:
		return "Ends with"
	case TypeGreaterThan:
		return "Greater than"
	case TypeLessThan:
		return "Less than"
	case TypeGreaterOrEqual:
		return "Greater or equal"
	case TypeLessOrEqual:
		return "Less or equal"
	default:
		return string(t)
	}
}

// Predicate is a single field/operator/value condition sent to the backend
type Predicate struct {
	Field string        `json:"field"`
	Type  PredicateType `json:"type"`
	Value string        `json:"value"`
}

// String renders the predicate the way filter tags show it
func (p Predicate) String() string {
	return fmt.Sprintf("%s %s %s", p.Field, p.Type, p.Value)
}

// Combinator is the boolean operation the grid applied to a condition group
type Combinator string

const (
	CombinatorNone        Combinator = ""
	CombinatorConjunction Combinator = "conjunction"
	CombinatorDisjunction Combinator = "disjunction"
)

// NoColumn is the grid's "no column" sentinel index
const NoColumn = -1

// NativeCondition is one condition in the grid's own vocabulary
type NativeCondition struct {
	Name string
	Args []string
}

// ConditionGroup is the grid's per-column condition stack entry
type ConditionGroup struct {
	Column     int
	Operation  Combinator
	Conditions []NativeCondition
}
