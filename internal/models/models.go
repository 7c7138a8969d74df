package models

// AppState holds the application state
type AppState struct {
	Width    int
	Height   int
	ViewMode ViewMode
	Route    Route

	// Selection carried from the selector into the viewer
	CurrentDatabase string
	InitialTable    string
}

// Route identifies which top-level screen is shown
type Route int

const (
	SelectorRoute Route = iota
	ViewerRoute
)

// ViewMode identifies the current overlay mode
type ViewMode int

const (
	NormalMode ViewMode = iota
	HelpMode
)

// PanelType identifies which viewer panel is focused
type PanelType int

const (
	LeftPanel PanelType = iota
	RightPanel
)

// NewAppState creates a new AppState with defaults
func NewAppState() AppState {
	return AppState{
		Width:    80,
		Height:   24,
		ViewMode: NormalMode,
		Route:    SelectorRoute,
	}
}
