package project

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/model"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Export renders a project as json or yaml and records an export entry.
func (m *Manager) Export(ctx context.Context, id, format string) ([]byte, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatJSON
	}
	if format == "yml" {
		format = FormatYAML
	}
	if format != FormatJSON && format != FormatYAML {
		return nil, errors.NewUserErrorWithField("format", format,
			fmt.Sprintf("%s: %q", errors.ErrUnsupportedFormat, format),
			errors.GetSuggestion(errors.ErrUnsupportedFormat))
	}

	p := m.projects.Get(ctx, id)
	if p == nil {
		return nil, notFound(id)
	}

	out, err := Encode(p, format)
	if err != nil {
		return nil, err
	}
	m.record(ctx, id, model.ActionExport, map[string]any{"format": format})
	return out, nil
}

// Encode renders p in format. YAML output keeps the JSON field names.
func Encode(p *model.Project, format string) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode project: %w", err)
	}
	if format == FormatJSON {
		return data, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("encode project: %w", err)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode project yaml: %w", err)
	}
	return out, nil
}
