package viewer

import "slices"

// ColumnSet tracks which fields of the table are shown. Every field is
// visible until hidden; the set resets whenever the field list changes.
type ColumnSet struct {
	all    []string
	hidden map[string]bool
}

// NewColumnSet creates an empty column set
func NewColumnSet() *ColumnSet {
	return &ColumnSet{hidden: map[string]bool{}}
}

// Reset adopts a new field list. It reports whether the list changed; an
// unchanged list keeps the current visibility.
func (c *ColumnSet) Reset(fields []string) bool {
	if slices.Equal(c.all, fields) {
		return false
	}
	c.all = append([]string(nil), fields...)
	c.hidden = map[string]bool{}
	return true
}

// All returns every field in table order
func (c *ColumnSet) All() []string {
	return c.all
}

// Visible returns the shown fields in table order
func (c *ColumnSet) Visible() []string {
	out := make([]string, 0, len(c.all))
	for _, f := range c.all {
		if !c.hidden[f] {
			out = append(out, f)
		}
	}
	return out
}

// Hide hides one field. The last visible field cannot be hidden.
func (c *ColumnSet) Hide(field string) bool {
	if c.hidden[field] || len(c.Visible()) <= 1 {
		return false
	}
	for _, f := range c.all {
		if f == field {
			c.hidden[field] = true
			return true
		}
	}
	return false
}

// Apply shows exactly the given fields. Unknown names are ignored and an
// empty result leaves the set untouched.
func (c *ColumnSet) Apply(visible []string) bool {
	shown := make(map[string]bool, len(visible))
	for _, f := range visible {
		shown[f] = true
	}

	hidden := map[string]bool{}
	count := 0
	for _, f := range c.all {
		if shown[f] {
			count++
		} else {
			hidden[f] = true
		}
	}
	if count == 0 {
		return false
	}
	c.hidden = hidden
	return true
}

// HiddenCount returns how many fields are hidden
func (c *ColumnSet) HiddenCount() int {
	return len(c.hidden)
}
