package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Theme contains all configurable visual styles for the battle screens.
type Theme struct {
	// Stage
	Hero    lipgloss.Style
	Foe     lipgloss.Style
	Fallen  lipgloss.Style
	Ground  lipgloss.Style

	// HP bars
	HPHigh  lipgloss.Style
	HPLow   lipgloss.Style
	HPEmpty lipgloss.Style

	// Skill-check meter
	MeterFill  lipgloss.Style
	MeterEmpty lipgloss.Style
	MeterIdle  lipgloss.Style

	// HUD styles
	HUDTitle     lipgloss.Style
	HUDValue     lipgloss.Style
	HUDSeparator lipgloss.Style
	HUDControls  lipgloss.Style

	// Feed
	Speaker  lipgloss.Style
	FeedText lipgloss.Style

	// Ranks
	RankGreat lipgloss.Style
	RankGood  lipgloss.Style
	RankOK    lipgloss.Style
	RankNone  lipgloss.Style

	// Overlay styles
	OverlayBorder lipgloss.Style
	OverlayTitle  lipgloss.Style

	// Move picker styles
	MenuTitle       lipgloss.Style
	MenuItemNormal  lipgloss.Style
	MenuItemActive  lipgloss.Style
	MenuDescription lipgloss.Style
}

// DefaultTheme returns the default visual theme.
func DefaultTheme() Theme {
	return Theme{
		Hero:    lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true), // Bright cyan
		Foe:     lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		Fallen:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Ground:  lipgloss.NewStyle().Foreground(lipgloss.Color("238")),

		HPHigh:  lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		HPLow:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		HPEmpty: lipgloss.NewStyle().Foreground(lipgloss.Color("238")),

		MeterFill:  lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		MeterEmpty: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		MeterIdle:  lipgloss.NewStyle().Foreground(lipgloss.Color("238")),

		HUDTitle:     lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true),
		HUDValue:     lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		HUDSeparator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		HUDControls:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),

		Speaker:  lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true),
		FeedText: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),

		RankGreat: lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		RankGood:  lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		RankOK:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		RankNone:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),

		OverlayBorder: lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		OverlayTitle:  lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),

		MenuTitle:       lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true),
		MenuItemNormal:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		MenuItemActive:  lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		MenuDescription: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// MonochromeTheme returns a grayscale theme for terminals with few colors.
func MonochromeTheme() Theme {
	theme := DefaultTheme()
	theme.Hero = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
	theme.Foe = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Bold(true)
	theme.HPHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	theme.HPLow = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	theme.MeterFill = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	theme.RankGreat = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
	theme.RankGood = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	return theme
}

// ThemeByName returns a named theme: "default" or "mono".
func ThemeByName(name string) (Theme, error) {
	switch name {
	case "", "default":
		return DefaultTheme(), nil
	case "mono", "monochrome":
		return MonochromeTheme(), nil
	default:
		return Theme{}, fmt.Errorf("tui: unknown theme %q", name)
	}
}

// Global theme variable (can be changed at runtime)
var theme = DefaultTheme()

// SetTheme sets the global theme.
func SetTheme(t Theme) {
	theme = t
}

// CurrentTheme returns the current global theme.
func CurrentTheme() Theme {
	return theme
}
