package filter

import (
	"strconv"
	"strings"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Between is the query builder's range operator. It is a grid operator name,
// not a predicate type.
const Between = "between"

// ColumnKind is the coarse value kind inferred for a column
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindNumeric
)

// InferKind guesses the kind of a column from sampled values.
// A column is numeric when every non-empty sample parses as a number.
func InferKind(samples []string) ColumnKind {
	seen := false
	for _, s := range samples {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return KindText
		}
		seen = true
	}
	if !seen {
		return KindText
	}
	return KindNumeric
}

// OperatorsFor returns the grid operator names offered for a column kind
func OperatorsFor(kind ColumnKind) []string {
	switch kind {
	case KindNumeric:
		return []string{
			string(models.TypeEqual), string(models.TypeNotEqual),
			string(models.TypeGreaterThan), string(models.TypeLessThan),
			string(models.TypeGreaterOrEqual), string(models.TypeLessOrEqual),
			Between,
			"empty", "not_empty",
		}
	default:
		return []string{
			string(models.TypeEqual), string(models.TypeNotEqual),
			string(models.TypeContains), string(models.TypeNotContains),
			string(models.TypeBeginsWith), string(models.TypeEndsWith),
			string(models.TypeGreaterThan), string(models.TypeLessThan),
			"empty", "not_empty",
		}
	}
}

// Arity returns how many values a grid operator needs
func Arity(op string) int {
	switch op {
	case "empty", "not_empty", "none":
		return 0
	case Between:
		return 2
	default:
		return 1
	}
}

// OperatorLabel returns the menu label of a grid operator name
func OperatorLabel(op string) string {
	switch op {
	case Between:
		return "Between"
	case "empty":
		return "Is empty"
	case "not_empty":
		return "Is not empty"
	default:
		return models.PredicateType(op).Label()
	}
}
