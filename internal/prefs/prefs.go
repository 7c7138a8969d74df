// Package prefs persists the UI preferences that survive restarts.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the preferences file inside the config directory
const FileName = "preferences.yaml"

// Theme names
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Preferences are the persisted UI settings
type Preferences struct {
	Theme       string `yaml:"theme"`
	SidebarOpen bool   `yaml:"sidebarOpen"`
}

// Defaults returns the preferences used before anything is saved
func Defaults() Preferences {
	return Preferences{
		Theme:       ThemeDark,
		SidebarOpen: true,
	}
}

// Store loads and saves preferences. It is created once at startup and passed
// to the views that read or change it.
type Store struct {
	path  string
	prefs Preferences
}

// NewStore creates a store backed by configDir/preferences.yaml and loads it
// if the file exists
func NewStore(configDir string) (*Store, error) {
	s := &Store{
		path:  filepath.Join(configDir, FileName),
		prefs: Defaults(),
	}

	if _, err := os.Stat(s.path); err == nil {
		if err := s.Load(); err != nil {
			return nil, fmt.Errorf("failed to load preferences: %w", err)
		}
	}

	return s, nil
}

// Load reads preferences from disk. Missing keys keep their defaults and an
// unknown theme falls back to dark.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read preferences file: %w", err)
	}

	p := Defaults()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to parse preferences: %w", err)
	}
	if p.Theme != ThemeDark && p.Theme != ThemeLight {
		p.Theme = ThemeDark
	}

	s.prefs = p
	return nil
}

// Save writes preferences to disk
func (s *Store) Save() error {
	data, err := yaml.Marshal(s.prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preferences file: %w", err)
	}

	return nil
}

// Get returns the current preferences
func (s *Store) Get() Preferences {
	return s.prefs
}

// Path returns the preferences file path
func (s *Store) Path() string {
	return s.path
}

// ToggleTheme switches between dark and light and saves
func (s *Store) ToggleTheme() (string, error) {
	if s.prefs.Theme == ThemeLight {
		s.prefs.Theme = ThemeDark
	} else {
		s.prefs.Theme = ThemeLight
	}
	return s.prefs.Theme, s.Save()
}

// SetSidebarOpen records the sidebar state and saves
func (s *Store) SetSidebarOpen(open bool) error {
	s.prefs.SidebarOpen = open
	return s.Save()
}
