package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazygrid/internal/filter"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// ApplyFilterMsg is sent when the builder's conditions should be applied
type ApplyFilterMsg struct {
	Groups []models.ConditionGroup
}

// CloseFilterBuilderMsg is sent when the filter builder should close
type CloseFilterBuilderMsg struct{}

type builderFocus int

const (
	focusOperator builderFocus = iota
	focusFirstValue
	focusSecondValue
)

// FilterBuilder is the per-column query builder. It collects conditions in
// the grid's own vocabulary and hands them out as one ConditionGroup.
type FilterBuilder struct {
	Width  int
	Height int
	Theme  theme.Theme

	// State
	column          int
	field           string
	kind            filter.ColumnKind
	operators       []string
	operatorIndex   int
	combinator      models.Combinator
	conditions      []models.NativeCondition
	focus           builderFocus
	inputs          [2]textinput.Model
	validationError string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder(th theme.Theme) *FilterBuilder {
	fb := &FilterBuilder{
		Width:      60,
		Height:     20,
		Theme:      th,
		column:     models.NoColumn,
		combinator: models.CombinatorConjunction,
	}
	for i := range fb.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 256
		ti.ShowSuggestions = true
		ti.Cursor.SetMode(cursor.CursorStatic)
		fb.inputs[i] = ti
	}
	fb.inputs[0].Placeholder = "value"
	fb.inputs[1].Placeholder = "upper bound"
	return fb
}

// Open resets the builder for a column. samples are known values of the
// column and drive both operator choice and value suggestions.
func (fb *FilterBuilder) Open(column int, field string, samples []string) {
	fb.column = column
	fb.field = field
	fb.kind = filter.InferKind(samples)
	fb.operators = filter.OperatorsFor(fb.kind)
	fb.operatorIndex = 0
	fb.combinator = models.CombinatorConjunction
	fb.conditions = nil
	fb.validationError = ""
	fb.focus = focusOperator
	for i := range fb.inputs {
		fb.inputs[i].Reset()
		fb.inputs[i].Blur()
		fb.inputs[i].SetSuggestions(samples)
	}
}

// Field returns the column being filtered
func (fb *FilterBuilder) Field() string {
	return fb.field
}

// Conditions returns the conditions added so far
func (fb *FilterBuilder) Conditions() []models.NativeCondition {
	return fb.conditions
}

func (fb *FilterBuilder) currentOperator() string {
	if len(fb.operators) == 0 {
		return ""
	}
	return fb.operators[fb.operatorIndex]
}

// Update handles keyboard input
func (fb *FilterBuilder) Update(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		return fb, fb.apply()
	case "ctrl+o":
		if fb.combinator == models.CombinatorConjunction {
			fb.combinator = models.CombinatorDisjunction
		} else {
			fb.combinator = models.CombinatorConjunction
		}
		return fb, nil
	}

	if fb.focus == focusOperator {
		return fb.handleOperatorMode(msg)
	}
	return fb.handleValueMode(msg)
}

// handleOperatorMode handles operator selection
func (fb *FilterBuilder) handleOperatorMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return fb, func() tea.Msg {
			return CloseFilterBuilderMsg{}
		}
	case "up", "k":
		if fb.operatorIndex > 0 {
			fb.operatorIndex--
		}
	case "down", "j":
		if fb.operatorIndex < len(fb.operators)-1 {
			fb.operatorIndex++
		}
	case "x", "backspace":
		// Drop the last condition
		if n := len(fb.conditions); n > 0 {
			fb.conditions = fb.conditions[:n-1]
		}
	case "enter":
		if filter.Arity(fb.currentOperator()) == 0 {
			fb.addCondition()
			return fb, nil
		}
		fb.focus = focusFirstValue
		return fb, fb.inputs[0].Focus()
	}
	return fb, nil
}

// handleValueMode handles value input
func (fb *FilterBuilder) handleValueMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	idx := int(fb.focus - focusFirstValue)

	switch msg.String() {
	case "esc":
		fb.inputs[idx].Blur()
		fb.focus = focusOperator
		fb.validationError = ""
		return fb, nil
	case "enter":
		if filter.Arity(fb.currentOperator()) == 2 && fb.focus == focusFirstValue {
			fb.inputs[0].Blur()
			fb.focus = focusSecondValue
			return fb, fb.inputs[1].Focus()
		}
		fb.addCondition()
		return fb, nil
	}

	var cmd tea.Cmd
	fb.inputs[idx], cmd = fb.inputs[idx].Update(msg)
	return fb, cmd
}

// addCondition turns the current operator and inputs into a condition
func (fb *FilterBuilder) addCondition() {
	op := fb.currentOperator()
	arity := filter.Arity(op)

	args := make([]string, 0, arity)
	for i := 0; i < arity; i++ {
		v := strings.TrimSpace(fb.inputs[i].Value())
		if v == "" {
			fb.validationError = fmt.Sprintf("%s needs %d value(s)", filter.OperatorLabel(op), arity)
			return
		}
		args = append(args, v)
	}

	fb.conditions = append(fb.conditions, models.NativeCondition{Name: op, Args: args})
	fb.validationError = ""
	for i := range fb.inputs {
		fb.inputs[i].Reset()
		fb.inputs[i].Blur()
	}
	fb.focus = focusOperator
}

// Group returns the builder's conditions as a single grid condition group
func (fb *FilterBuilder) Group() models.ConditionGroup {
	op := models.CombinatorNone
	if len(fb.conditions) > 1 {
		op = fb.combinator
	}
	conds := make([]models.NativeCondition, len(fb.conditions))
	copy(conds, fb.conditions)
	return models.ConditionGroup{Column: fb.column, Operation: op, Conditions: conds}
}

func (fb *FilterBuilder) apply() tea.Cmd {
	// A half-entered condition counts when it is complete
	if fb.focus != focusOperator || (filter.Arity(fb.currentOperator()) == 0 && len(fb.conditions) == 0) {
		fb.addCondition()
	}
	if len(fb.conditions) == 0 {
		if fb.validationError == "" {
			fb.validationError = "Add at least one condition before applying filter"
		}
		return nil
	}
	fb.validationError = ""
	groups := []models.ConditionGroup{fb.Group()}
	return func() tea.Msg {
		return ApplyFilterMsg{Groups: groups}
	}
}

// View renders the filter builder
func (fb *FilterBuilder) View() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().
		Foreground(fb.Theme.Background).
		Background(fb.Theme.Info).
		Padding(0, 1).
		Bold(true)
	sections = append(sections, titleStyle.Render("Filter: "+fb.field))

	instructionStyle := lipgloss.NewStyle().
		Foreground(fb.Theme.Muted).
		Padding(0, 1)

	var instructions string
	if fb.focus == focusOperator {
		instructions = "↑↓ operator  Enter add  x drop last  ^O and/or  ^S apply  Esc cancel"
	} else {
		instructions = "Enter confirm  Tab complete  Esc back  ^S apply"
	}
	sections = append(sections, instructionStyle.Render(instructions))

	if fb.validationError != "" {
		errorStyle := lipgloss.NewStyle().
			Foreground(fb.Theme.Error).
			Padding(0, 1).
			Bold(true)
		sections = append(sections, errorStyle.Render("Error: "+fb.validationError))
	}

	// Conditions list
	if len(fb.conditions) > 0 {
		join := "AND"
		if fb.combinator == models.CombinatorDisjunction {
			join = "OR"
		}
		sections = append(sections, "", fmt.Sprintf("Conditions (%s):", join))
		for i, cond := range fb.conditions {
			line := filter.OperatorLabel(cond.Name)
			if len(cond.Args) > 0 {
				line += " " + strings.Join(cond.Args, " and ")
			}
			sections = append(sections, fmt.Sprintf("  %d. %s", i+1, line))
		}
	}

	// Operator list
	sections = append(sections, "", "Operator:")
	for i, op := range fb.operators {
		style := lipgloss.NewStyle().Padding(0, 1)
		if i == fb.operatorIndex {
			style = style.Background(fb.Theme.Selection).Foreground(fb.Theme.Foreground)
			if fb.focus == focusOperator {
				style = style.Bold(true)
			}
		}
		sections = append(sections, style.Render("  "+filter.OperatorLabel(op)))
	}

	// Value inputs
	if arity := filter.Arity(fb.currentOperator()); arity > 0 {
		sections = append(sections, "")
		for i := 0; i < arity; i++ {
			label := "Value: "
			if arity == 2 {
				label = []string{"From:  ", "To:    "}[i]
			}
			sections = append(sections, label+fb.inputs[i].View())
		}
	}

	content := strings.Join(sections, "\n")

	containerStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(fb.Theme.BorderFocused).
		Background(fb.Theme.Background).
		Foreground(fb.Theme.Foreground).
		Width(fb.Width).
		Padding(1)

	return containerStyle.Render(content)
}
