package model

import (
	"regexp"
	"time"
)

// Well-known color scheme IDs seeded on first open.
const (
	ColorSchemeDefault = "default"
	ColorSchemeDark    = "dark"
)

// Theme slots every scheme carries alongside node-type colors.
const (
	SlotBackground = "background"
	SlotText       = "text"
	SlotEdge       = "edge"
	SlotSelection  = "selection"
)

// ColorScheme maps node types and theme slots to colors.
type ColorScheme struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Colors      map[string]string `json:"colors"`
	IsDefault   bool              `json:"is_default"`
	IsCustom    bool              `json:"is_custom"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// SetKey sets the scheme ID.
func (c *ColorScheme) SetKey(key string) {
	c.ID = key
}

// GetKey returns the scheme ID.
func (c *ColorScheme) GetKey() string {
	return c.ID
}

// Color returns the color for a node type or slot, or "" if unset.
func (c *ColorScheme) Color(name string) string {
	if c == nil || c.Colors == nil {
		return ""
	}
	return c.Colors[name]
}

// DefaultColorScheme returns the built-in light scheme, flagged as default.
func DefaultColorScheme(now time.Time) *ColorScheme {
	return &ColorScheme{
		ID:          ColorSchemeDefault,
		Name:        "Default",
		Description: "Light theme",
		Colors: map[string]string{
			NodeTypeIdea:     "#7C3AED",
			NodeTypeTopic:    "#3B82F6",
			NodeTypeTask:     "#10B981",
			NodeTypeNote:     "#F59E0B",
			NodeTypeQuestion: "#EF4444",
			SlotBackground:   "#FFFFFF",
			SlotText:         "#111827",
			SlotEdge:         "#6B7280",
			SlotSelection:    "#2563EB",
		},
		IsDefault: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DarkColorScheme returns the built-in dark scheme.
func DarkColorScheme(now time.Time) *ColorScheme {
	return &ColorScheme{
		ID:          ColorSchemeDark,
		Name:        "Dark",
		Description: "Dark theme",
		Colors: map[string]string{
			NodeTypeIdea:     "#A78BFA",
			NodeTypeTopic:    "#60A5FA",
			NodeTypeTask:     "#34D399",
			NodeTypeNote:     "#FBBF24",
			NodeTypeQuestion: "#F87171",
			SlotBackground:   "#111827",
			SlotText:         "#F9FAFB",
			SlotEdge:         "#9CA3AF",
			SlotSelection:    "#3B82F6",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// hexColorRegex validates hex color format.
var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidateColor checks if a color string is a valid hex color.
func ValidateColor(color string) bool {
	if color == "" {
		return true
	}
	return hexColorRegex.MatchString(color)
}
