package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/manav03panchal/mindstore/internal/errors"
)

// =============================================================================
// Validation Tests
// =============================================================================

func TestProjectName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "Roadmap", false},
		{"unicode", "Ideen für 2026", false},
		{"max_length", strings.Repeat("é", MaxProjectNameLength), false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"too_long", strings.Repeat("a", MaxProjectNameLength+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ProjectName(tt.input)
			if tt.wantErr {
				assert.True(t, errors.IsUserError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDescription(t *testing.T) {
	assert.NoError(t, Description(""))
	assert.NoError(t, Description(strings.Repeat("x", MaxDescriptionLength)))
	assert.Error(t, Description(strings.Repeat("x", MaxDescriptionLength+1)))
}

func TestTag(t *testing.T) {
	tests := []struct {
		tag     string
		wantErr bool
	}{
		{"work", false},
		{"q3-2026", false},
		{"v1.2_final", false},
		{"météo", false},
		{"", true},
		{"-work", true},
		{"two words", true},
		{"a/b", true},
		{strings.Repeat("t", MaxTagLength+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			err := Tag(tt.tag)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://s3.eu-central-1.amazonaws.com", false},
		{"local_minio", "http://localhost:9000", false},
		{"lan", "http://10.0.0.5:9000", false},
		{"empty", "", true},
		{"ftp", "ftp://files.example.com", true},
		{"no_host", "https://", true},
		{"garbage", "://bad", true},
		{"too_long", "https://example.com/" + strings.Repeat("a", MaxURLLength), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Endpoint(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// =============================================================================
// Sanitization Tests
// =============================================================================

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "Roadmap", SanitizeName("  Road\x00map\t "))
	assert.Equal(t, "", SanitizeName("\n\r"))
}

func TestSanitizeDescription(t *testing.T) {
	assert.Equal(t, "line1\nline2\nline3", SanitizeDescription(" line1\r\nline2\rline3\x00 "))
}

func TestSanitizeTag(t *testing.T) {
	assert.Equal(t, "work", SanitizeTag("  #Work "))
	assert.Equal(t, "q3", SanitizeTag("Q3"))
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "My-Roadmap-2026", SafeFilename("My Roadmap 2026"))
	assert.Equal(t, "a.b", SafeFilename("../a.b/"))
	assert.Equal(t, "untitled", SafeFilename("///"))
}
