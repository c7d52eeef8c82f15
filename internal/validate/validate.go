// Package validate guards identifiers, filenames and paths at the points
// where untrusted input enters the pipeline. All functions are pure:
// deterministic, no I/O, no side effects beyond the returned error.
package validate

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// PathTraversalError is returned when input would escape its base
// directory. Callers must treat it as fatal for the request.
type PathTraversalError struct {
	Input string
}

func (e *PathTraversalError) Error() string {
	return fmt.Sprintf("path traversal detected: %q", e.Input)
}

// FormatError is returned when an identifier or filename does not match
// the expected shape.
type FormatError struct {
	Input string
	Want  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid format %q: expected %s", e.Input, e.Want)
}

// IdentifierKind selects the whitelist pattern an identifier must match.
type IdentifierKind string

const (
	// KindEpisode matches date-coded episode IDs: prefix-YYYYMMDD or
	// prefix-YYYYMMDD-N, e.g. dd-20241227-2.
	KindEpisode IdentifierKind = "episode"
	// KindJob matches job-XXXXXXXX with eight lowercase hex characters.
	KindJob IdentifierKind = "job"
	// KindGeneric matches any safe token up to 50 characters.
	KindGeneric IdentifierKind = "generic"
)

var (
	episodePattern = regexp.MustCompile(`^[a-z]{1,10}-\d{8}(-\d+)?$`)
	jobPattern     = regexp.MustCompile(`^job-[a-f0-9]{8}$`)
	genericPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)

	stemPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	extPattern  = regexp.MustCompile(`^\.[A-Za-z0-9]{1,10}$`)
)

// SafeFilename validates a bare filename for use inside a storage
// directory. Any directory component is stripped first; traversal
// sequences and characters outside [A-Za-z0-9_-] (extension excluded)
// are rejected.
func SafeFilename(name string) (string, error) {
	if name == "" {
		return "", &FormatError{Input: name, Want: "non-empty filename"}
	}

	base := filepath.Base(filepath.ToSlash(name))
	if strings.Contains(name, "..") || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return "", &PathTraversalError{Input: name}
	}
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", &PathTraversalError{Input: name}
	}

	stem := base
	ext := ""
	if i := strings.LastIndex(base, "."); i > 0 {
		stem, ext = base[:i], base[i:]
	}
	if !stemPattern.MatchString(stem) {
		return "", &FormatError{Input: name, Want: "characters in [A-Za-z0-9_-]"}
	}
	if ext != "" && !extPattern.MatchString(ext) {
		return "", &FormatError{Input: name, Want: "short alphanumeric extension"}
	}

	return base, nil
}

// Identifier validates id against the whitelist pattern for kind and
// returns it unchanged on success.
func Identifier(id string, kind IdentifierKind) (string, error) {
	if id == "" {
		return "", &FormatError{Input: id, Want: "non-empty identifier"}
	}
	if strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return "", &PathTraversalError{Input: id}
	}

	switch kind {
	case KindEpisode:
		if episodePattern.MatchString(id) {
			return id, nil
		}
		return "", &FormatError{Input: id, Want: "prefix-YYYYMMDD or prefix-YYYYMMDD-N"}
	case KindJob:
		if jobPattern.MatchString(id) {
			return id, nil
		}
		return "", &FormatError{Input: id, Want: "job- followed by 8 hex characters"}
	case KindGeneric:
		if genericPattern.MatchString(id) {
			return id, nil
		}
		return "", &FormatError{Input: id, Want: "up to 50 characters in [A-Za-z0-9_-]"}
	default:
		return "", &FormatError{Input: string(kind), Want: "known identifier kind"}
	}
}

// SafePathJoin joins parts onto base and verifies, after resolution, that
// the result is still a descendant of base. String inspection of the
// parts alone is not sufficient; the ancestry check on the resolved path
// is the canonical defense.
func SafePathJoin(base string, parts ...string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base %q: %w", base, err)
	}

	for _, part := range parts {
		if strings.Contains(part, "..") || strings.HasPrefix(part, "/") || strings.HasPrefix(part, `\`) {
			return "", &PathTraversalError{Input: part}
		}
	}

	joined := filepath.Join(append([]string{absBase}, parts...)...)
	resolved, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", joined, err)
	}

	rel, err := filepath.Rel(absBase, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &PathTraversalError{Input: filepath.Join(parts...)}
	}

	return resolved, nil
}

// BoundInt clamps v into [min, max].
func BoundInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// BoundFloat clamps v into [min, max].
func BoundFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Topic validates an aggregation topic: non-empty after trimming and at
// most 200 characters.
func Topic(topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", &FormatError{Input: topic, Want: "non-empty topic"}
	}
	if len(topic) > 200 {
		return "", &FormatError{Input: topic[:20] + "...", Want: "topic of at most 200 characters"}
	}
	return topic, nil
}
