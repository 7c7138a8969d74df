package models

// DataSource is one entry of the backend's source catalog
type DataSource struct {
	Name   string   `json:"name" yaml:"name"`
	Tables []string `json:"tables" yaml:"tables"`
}

// TableInfo is the advisory metadata the backend reports for a table
type TableInfo struct {
	TotalRows    int64               `json:"total_rows"`
	SizeMB       float64             `json:"size_mb"`
	FilteredRows int64               `json:"filtered_rows"`
	FieldValues  map[string][]string `json:"field_values"`

	// Available is false once a metadata fetch has failed
	Available bool `json:"-"`
}

// Row is one record keyed by field name
type Row map[string]any

// PageRequest is the full set of parameters for one page fetch
type PageRequest struct {
	Database string
	Table    string
	Filters  []Predicate
	Page     int
	Limit    int
	Search   string
}

// Page is one page of rows as returned by the backend
type Page struct {
	Data      []Row    `json:"data"`
	Total     int64    `json:"total"`
	AllFields []string `json:"all_fields"`
}

// LoadCursor tracks paged loading for the current table session
type LoadCursor struct {
	Page    int
	HasMore bool
	Loading bool
}

// NewLoadCursor returns a cursor positioned before the first page
func NewLoadCursor() LoadCursor {
	return LoadCursor{Page: 1, HasMore: true}
}

// SuggestionType distinguishes selector search results
type SuggestionType string

const (
	SuggestionDatabase SuggestionType = "database"
	SuggestionTable    SuggestionType = "table"
)

// Suggestion is one selector autocomplete entry
type Suggestion struct {
	Type     SuggestionType
	Name     string
	Database string // owning database for table matches
	Tables   []string
}
