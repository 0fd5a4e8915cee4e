// Package validate provides input validation helpers for mindstore commands.
package validate

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/manav03panchal/mindstore/internal/errors"
)

const (
	// MaxProjectNameLength is the maximum length for a project name.
	MaxProjectNameLength = 128
	// MaxDescriptionLength is the maximum length for a description.
	MaxDescriptionLength = 4096
	// MaxTagLength is the maximum length for a tag.
	MaxTagLength = 32
	// MaxURLLength is the maximum length for an endpoint URL.
	MaxURLLength = 2048
)

// tagRegex validates tags (letters, numbers, dashes, underscores, periods).
var tagRegex = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N}._-]*$`)

// ProjectName validates a project name.
func ProjectName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.NewUserError("Project name cannot be empty", "Provide a project name")
	}
	if utf8.RuneCountInString(name) > MaxProjectNameLength {
		return errors.NewUserErrorWithField("name", name,
			"Project name too long",
			"Project names must be 128 characters or fewer")
	}
	return nil
}

// Description validates a project or scheme description.
func Description(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return errors.NewUserError(
			"Description too long",
			"Descriptions must be 4096 characters or fewer")
	}
	return nil
}

// Tag validates a project tag.
func Tag(tag string) error {
	if tag == "" {
		return errors.NewUserError("Tag cannot be empty", "Provide a tag like 'work'")
	}
	if utf8.RuneCountInString(tag) > MaxTagLength {
		return errors.NewUserErrorWithField("tag", tag,
			"Tag too long",
			"Tags must be 32 characters or fewer")
	}
	if !tagRegex.MatchString(tag) {
		return errors.NewUserErrorWithField("tag", tag,
			"Invalid tag format",
			"Tags start with a letter or number and contain only letters, numbers, dashes, underscores, or periods")
	}
	return nil
}

// Endpoint validates a custom object storage endpoint. Plain http is
// accepted so local S3-compatible servers work.
func Endpoint(rawURL string) error {
	if rawURL == "" {
		return errors.NewUserError("Endpoint cannot be empty", "Provide a URL like https://s3.example.com")
	}
	if len(rawURL) > MaxURLLength {
		return errors.NewUserError("Endpoint too long", "URLs must be 2048 characters or fewer")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.NewUserErrorWithField("endpoint", rawURL,
			"Invalid endpoint format",
			"Provide a URL starting with https://")
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return errors.NewUserErrorWithField("endpoint", rawURL,
			"Invalid endpoint scheme",
			"Endpoints must use https:// or http://")
	}
	if parsed.Hostname() == "" {
		return errors.NewUserErrorWithField("endpoint", rawURL,
			"Invalid endpoint: missing hostname",
			"Provide a URL like https://s3.example.com")
	}
	return nil
}
