// Package security holds input hardening shared by the admin and account
// surfaces.
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer reduces user-supplied text to plain text before it is
// stored. Site settings and profile names are rendered on public pages, so
// markup is never kept.
type TextSanitizer interface {
	// SanitizeText strips all tags and trims surrounding whitespace.
	// Entities escaped by the policy are restored so "Tom & Jerry"
	// round-trips unchanged.
	SanitizeText(s string) string
}

type textSanitizer struct {
	policy *bluemonday.Policy
}

func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *textSanitizer) SanitizeText(in string) string {
	if in == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in)))
}
