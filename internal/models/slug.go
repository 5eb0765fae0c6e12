package models

import (
	"regexp"
	"strings"
)

const (
	// SlugMinLength and SlugMaxLength bound workspace slugs (DNS label compatible)
	SlugMinLength = 2
	SlugMaxLength = 63
)

// slugPattern matches a valid workspace slug: lowercase alphanumeric with
// interior hyphens, never leading or trailing
var slugPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// ValidateWorkspaceSlug reports whether slug is a well-formed workspace slug
func ValidateWorkspaceSlug(slug string) bool {
	if len(slug) < SlugMinLength || len(slug) > SlugMaxLength {
		return false
	}
	return slugPattern.MatchString(slug)
}

// GenerateWorkspaceSlug converts a free-form name to a valid slug format
// An already-valid slug passes through unchanged
func GenerateWorkspaceSlug(name string) string {
	// Convert to lowercase
	slug := strings.ToLower(name)
	// Replace spaces and special characters with hyphens
	reg := regexp.MustCompile("[^a-z0-9]+")
	slug = reg.ReplaceAllString(slug, "-")
	// Trim leading/trailing hyphens
	slug = strings.Trim(slug, "-")
	// Remove consecutive hyphens
	reg = regexp.MustCompile("-+")
	slug = reg.ReplaceAllString(slug, "-")
	// Limit length without leaving a trailing hyphen
	if len(slug) > SlugMaxLength {
		slug = strings.TrimRight(slug[:SlugMaxLength], "-")
	}
	return slug
}
