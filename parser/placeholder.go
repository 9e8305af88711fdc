package parser

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Placeholder markers are `{uuid}` so they never collide with each other
// or with anything that occurs naturally in SQL text.
var placeholderRegexp = regexp.MustCompile(`\{[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\}`)

// NewPlaceholderID returns a fresh opaque id for a directive placeholder.
func NewPlaceholderID() string {
	return uuid.NewString()
}

// Placeholder returns the text marker for an id.
func Placeholder(id string) string {
	return "{" + id + "}"
}

// SubstituteFunc receives the id of a matched placeholder and the output
// buffer; whatever it appends replaces the marker.
type SubstituteFunc func(id string, out *strings.Builder) error

// Substitute walks text once from the start; every placeholder marker is
// handed to fn in order and everything else is copied through.
func Substitute(text string, fn SubstituteFunc) (string, error) {
	var out strings.Builder
	last := 0
	for _, m := range placeholderRegexp.FindAllStringIndex(text, -1) {
		out.WriteString(text[last:m[0]])
		if err := fn(text[m[0]+1:m[1]-1], &out); err != nil {
			return "", err
		}
		last = m[1]
	}
	out.WriteString(text[last:])

	return out.String(), nil
}
