package storage

import (
	"regexp"
	"strings"
)

var (
	invalidFsChars      = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]`)
	multipleSpaces      = regexp.MustCompile(`\s+`)
	multipleUnderscores = regexp.MustCompile(`_+`)
	edgeUnderscoreSpace = regexp.MustCompile(`^[_ ]+|[_ ]+$`)
)

// Sanitize derives a filesystem-safe stem from a user-supplied title. Path
// separators and control characters become spaces, whitespace and underscore
// runs collapse, and leading/trailing underscores and spaces are trimmed.
// Idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(name string) string {
	name = invalidFsChars.ReplaceAllString(name, " ")
	name = multipleSpaces.ReplaceAllString(name, " ")
	name = multipleUnderscores.ReplaceAllString(name, "_")
	name = edgeUnderscoreSpace.ReplaceAllString(name, "")
	return name
}

// StripToken removes a bracketed uniqueness token from a filename for display,
// turning "My Video [1a2b3c4d].mp4" back into "My Video.mp4".
func StripToken(filename string) string {
	if i := strings.LastIndex(filename, " ["); i >= 0 {
		if j := strings.Index(filename[i:], "]"); j >= 0 {
			return filename[:i] + filename[i+j+1:]
		}
	}
	return filename
}
