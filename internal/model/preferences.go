package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// KeyNodePreferences is the primary key of the node preferences singleton.
const KeyNodePreferences = "default"

// Size is the default rendering size of a node.
type Size int

const (
	SizeSmall Size = iota
	SizeMedium
	SizeLarge

	sizeCount
)

var sizeNames = [...]string{
	SizeSmall:  "small",
	SizeMedium: "medium",
	SizeLarge:  "large",
}

// Every Size needs a name: the index below is out of range otherwise.
var _ = [1]struct{}{}[len(sizeNames)-int(sizeCount)]

// Sizes lists every valid size in ascending order.
func Sizes() []Size {
	return []Size{SizeSmall, SizeMedium, SizeLarge}
}

// Valid reports whether s is one of the defined sizes.
func (s Size) Valid() bool {
	return s >= 0 && s < sizeCount
}

func (s Size) String() string {
	if !s.Valid() {
		return fmt.Sprintf("size(%d)", int(s))
	}
	return sizeNames[s]
}

// ParseSize converts a size name into a Size.
func ParseSize(name string) (Size, error) {
	for i, n := range sizeNames {
		if n == name {
			return Size(i), nil
		}
	}
	return 0, fmt.Errorf("invalid node size %q (use small, medium or large)", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Size) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid node size %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Size) UnmarshalText(text []byte) error {
	parsed, err := ParseSize(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SizeSpec holds the rendering dimensions for one size.
type SizeSpec struct {
	Width    int `json:"width"`
	FontSize int `json:"font_size"`
}

// SizeTable holds one SizeSpec per Size.
type SizeTable [sizeCount]SizeSpec

// defaultSizes converts to SizeTable only while it has exactly one entry
// per Size.
var defaultSizes = [...]SizeSpec{
	SizeSmall:  {Width: 120, FontSize: 12},
	SizeMedium: {Width: 180, FontSize: 14},
	SizeLarge:  {Width: 240, FontSize: 18},
}

// DefaultSizeTable returns the built-in dimensions.
func DefaultSizeTable() SizeTable {
	return SizeTable(defaultSizes)
}

// Lookup returns the SizeSpec for s, falling back to medium for invalid sizes.
func (t SizeTable) Lookup(s Size) SizeSpec {
	if !s.Valid() {
		return t[SizeMedium]
	}
	return t[s]
}

// MarshalJSON encodes the table as an object keyed by size name.
func (t SizeTable) MarshalJSON() ([]byte, error) {
	m := make(map[string]SizeSpec, sizeCount)
	for i, spec := range t {
		m[sizeNames[i]] = spec
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes an object keyed by size name. Missing sizes keep
// their default dimensions.
func (t *SizeTable) UnmarshalJSON(data []byte) error {
	var m map[string]SizeSpec
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*t = DefaultSizeTable()
	for name, spec := range m {
		s, err := ParseSize(name)
		if err != nil {
			return err
		}
		t[s] = spec
	}
	return nil
}

// NodePreferences is the singleton record of node rendering preferences.
type NodePreferences struct {
	ID                 string            `json:"id"`
	DefaultSize        Size              `json:"default_size"`
	DefaultColorScheme string            `json:"default_color_scheme"`
	Sizes              SizeTable         `json:"sizes"`
	TouchOptimized     bool              `json:"touch_optimized"`
	CustomColors       map[string]string `json:"custom_colors,omitempty"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// SetKey sets the preferences key.
func (p *NodePreferences) SetKey(key string) {
	p.ID = key
}

// GetKey returns the preferences key.
func (p *NodePreferences) GetKey() string {
	return p.ID
}

// DefaultNodePreferences returns the seeded preferences.
func DefaultNodePreferences(now time.Time) *NodePreferences {
	return &NodePreferences{
		ID:                 KeyNodePreferences,
		DefaultSize:        SizeMedium,
		DefaultColorScheme: ColorSchemeDefault,
		Sizes:              DefaultSizeTable(),
		UpdatedAt:          now,
	}
}

// SizeSpec returns the dimensions for the given size.
func (p *NodePreferences) SizeSpec(s Size) SizeSpec {
	return p.Sizes.Lookup(s)
}

// ColorFor resolves a node type color: custom overrides win over the scheme.
func (p *NodePreferences) ColorFor(nodeType string, scheme *ColorScheme) string {
	if c, ok := p.CustomColors[nodeType]; ok && c != "" {
		return c
	}
	return scheme.Color(nodeType)
}
