package config

import "time"

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// History
	HistoryLimit       int
	ImportHistoryLimit int

	// Viewport, in canvas units
	ViewportWidth  float64
	ViewportHeight float64
	LayoutPadding  float64

	// Node defaults
	DefaultNodeSize  float64
	MinNodeSize      float64
	MaxNodeSize      float64
	ImportGridColumn int
	ImportGridGap    float64

	// Interaction
	DragThrottle time.Duration

	// Account rules
	MinPasswordLength int
	MaxUsernameLength int
	MaxNameLength     int

	// Workflow storage
	MaxWorkflowBytes int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		HistoryLimit:       50,
		ImportHistoryLimit: 200,

		ViewportWidth:  1600,
		ViewportHeight: 900,
		LayoutPadding:  60,

		DefaultNodeSize:  100,
		MinNodeSize:      40,
		MaxNodeSize:      400,
		ImportGridColumn: 6,
		ImportGridGap:    160,

		// ~60 updates per second
		DragThrottle: 16 * time.Millisecond,

		MinPasswordLength: 8,
		MaxUsernameLength: 64,
		MaxNameLength:     128,

		MaxWorkflowBytes: 4 << 20,
	}
}

// EditorConfig returns the configuration used by the import and layout editor,
// which keeps a deeper history.
func EditorConfig() *DomainConfig {
	cfg := DefaultDomainConfig()
	cfg.HistoryLimit = cfg.ImportHistoryLimit
	return cfg
}
