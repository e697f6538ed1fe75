package config

// UIConfig holds user interface configuration.
type UIConfig struct {
	// Theme selects the light or dark palette.
	Theme string `json:"theme" yaml:"theme"`

	// ShowStack renders the navigation stack breadcrumb above every screen.
	ShowStack bool `json:"show_stack" yaml:"show_stack"`
}

// DefaultUIConfig returns sensible UI defaults.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Theme:     "dark",
		ShowStack: true,
	}
}

// IsValidTheme reports whether Theme names a known palette.
func (c *UIConfig) IsValidTheme() bool {
	switch c.Theme {
	case "light", "dark":
		return true
	default:
		return false
	}
}

// IsDark reports whether the dark palette is selected.
func (c *UIConfig) IsDark() bool {
	return c.Theme != "light"
}
