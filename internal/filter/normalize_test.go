package filter

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

var testFields = []string{"src_ip", "dst_ip", "bytes"}

func cond(name string, args ...string) models.NativeCondition {
	return models.NativeCondition{Name: name, Args: args}
}

func TestNormalize_Equal(t *testing.T) {
	groups := []models.ConditionGroup{
		{Column: 0, Conditions: []models.NativeCondition{cond("eq", "10.0.0.1")}},
	}

	got, warnings := Normalize(groups, testFields)

	want := []models.Predicate{{Field: "src_ip", Type: models.TypeEqual, Value: "10.0.0.1"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
}

func TestNormalize_OperatorTable(t *testing.T) {
	tests := []struct {
		name     string
		cond     models.NativeCondition
		wantType models.PredicateType
		wantVal  string
	}{
		{"equal alias", cond("==", "a"), models.TypeEqual, "a"},
		{"equal word", cond("Equal", "a"), models.TypeEqual, "a"},
		{"not equal", cond("neq", "a"), models.TypeNotEqual, "a"},
		{"not equal alias", cond("!=", "a"), models.TypeNotEqual, "a"},
		{"contains", cond("contains", "a"), models.TypeContains, "a"},
		{"not contains", cond("not_contains", "a"), models.TypeNotContains, "a"},
		{"begins with", cond("begins_with", "a"), models.TypeBeginsWith, "a"},
		{"ends with", cond("ends_with", "a"), models.TypeEndsWith, "a"},
		{"empty", cond("empty"), models.TypeEqual, ""},
		{"not empty", cond("not_empty"), models.TypeNotEqual, ""},
		{"greater", cond("gt", "5"), models.TypeGreaterThan, "5"},
		{"less", cond("lt", "5"), models.TypeLessThan, "5"},
		{"greater or equal", cond("gte", "5"), models.TypeGreaterOrEqual, "5"},
		{"less or equal", cond("lte", "5"), models.TypeLessOrEqual, "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := []models.ConditionGroup{{Column: 1, Conditions: []models.NativeCondition{tt.cond}}}
			got, warnings := Normalize(groups, testFields)
			if len(warnings) != 0 {
				t.Fatalf("unexpected warnings: %v", warnings)
			}
			if len(got) != 1 {
				t.Fatalf("expected 1 predicate, got %d", len(got))
			}
			if got[0].Field != "dst_ip" || got[0].Type != tt.wantType || got[0].Value != tt.wantVal {
				t.Errorf("expected dst_ip %s %q, got %v", tt.wantType, tt.wantVal, got[0])
			}
		})
	}
}

func TestNormalize_BetweenExpands(t *testing.T) {
	groups := []models.ConditionGroup{
		{Column: 2, Conditions: []models.NativeCondition{cond("between", "100", "200")}},
	}

	got, _ := Normalize(groups, testFields)

	want := []models.Predicate{
		{Field: "bytes", Type: models.TypeGreaterOrEqual, Value: "100"},
		{Field: "bytes", Type: models.TypeLessOrEqual, Value: "200"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	groups := []models.ConditionGroup{
		{Column: 0, Operation: models.CombinatorDisjunction, Conditions: []models.NativeCondition{
			cond("contains", "10."), cond("ends_with", ".1"),
		}},
		{Column: 2, Operation: models.CombinatorConjunction, Conditions: []models.NativeCondition{
			cond("between", "1", "9"), cond("neq", "5"),
		}},
	}

	first, _ := Normalize(groups, testFields)
	for i := 0; i < 10; i++ {
		again, _ := Normalize(groups, testFields)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %v vs %v", i, first, again)
		}
	}

	if len(first) != 5 {
		t.Fatalf("expected 5 predicates, got %d: %v", len(first), first)
	}
	if first[2].Type != models.TypeGreaterOrEqual || first[3].Type != models.TypeLessOrEqual {
		t.Errorf("between must expand to gte then lte, got %v", first[2:4])
	}
}

func TestNormalize_DropsNoColumn(t *testing.T) {
	groups := []models.ConditionGroup{
		{Column: models.NoColumn, Conditions: []models.NativeCondition{cond("eq", "x")}},
		{Column: 0, Conditions: []models.NativeCondition{cond("eq", "y")}},
	}

	got, warnings := Normalize(groups, testFields)

	if len(got) != 1 || got[0].Value != "y" {
		t.Errorf("expected only the src_ip predicate, got %v", got)
	}
	if len(warnings) != 0 {
		t.Errorf("no-column sentinel must not warn, got %v", warnings)
	}
}

func TestNormalize_UnknownOperatorIsBestEffort(t *testing.T) {
	groups := []models.ConditionGroup{
		{Column: 0, Operation: models.CombinatorConjunction, Conditions: []models.NativeCondition{
			cond("by_regex", ".*"), cond("eq", "10.0.0.1"),
		}},
	}

	got, warnings := Normalize(groups, testFields)

	if len(got) != 1 || got[0].Type != models.TypeEqual {
		t.Errorf("expected remaining eq predicate, got %v", got)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	var unknown *UnknownOperatorError
	if !errors.As(warnings[0], &unknown) || unknown.Operator != "by_regex" {
		t.Errorf("expected UnknownOperatorError for by_regex, got %v", warnings[0])
	}
}

func TestNormalize_MissingArguments(t *testing.T) {
	groups := []models.ConditionGroup{
		{Column: 0, Operation: models.CombinatorConjunction, Conditions: []models.NativeCondition{
			cond("eq"), cond("between", "1"), cond("none"),
		}},
	}

	got, warnings := Normalize(groups, testFields)

	if len(got) != 0 {
		t.Errorf("expected no predicates, got %v", got)
	}
	if len(warnings) != 2 {
		t.Errorf("expected 2 warnings (none is silent), got %v", warnings)
	}
}

func TestNormalize_SingleConditionGroupUsesFirst(t *testing.T) {
	groups := []models.ConditionGroup{
		{Column: 0, Conditions: []models.NativeCondition{cond("eq", "a"), cond("eq", "b")}},
	}

	got, _ := Normalize(groups, testFields)

	if len(got) != 1 || got[0].Value != "a" {
		t.Errorf("expected only the first condition, got %v", got)
	}
}

func TestNormalize_ColumnOutOfRange(t *testing.T) {
	groups := []models.ConditionGroup{
		{Column: 7, Conditions: []models.NativeCondition{cond("eq", "a")}},
	}

	got, warnings := Normalize(groups, testFields)

	if len(got) != 0 || len(warnings) != 1 {
		t.Errorf("expected a warning and no predicates, got %v / %v", got, warnings)
	}
}
