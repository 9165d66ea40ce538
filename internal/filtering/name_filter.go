package filtering

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// TitleFilter handles title filtering using glob patterns
type TitleFilter interface {
	// ShouldInclude determines if a title should be included based on include/exclude patterns
	// Returns (shouldInclude bool, reason string)
	ShouldInclude(title string, include, exclude []string) (bool, string)
}

// defaultTitleFilter implements title filtering using glob patterns
type defaultTitleFilter struct{}

var _ TitleFilter = (*defaultTitleFilter)(nil)

// NewDefaultTitleFilter creates a new defaultTitleFilter
func NewDefaultTitleFilter() TitleFilter {
	return &defaultTitleFilter{}
}

// compilePattern compiles a case-insensitive glob. No separators are passed, so '*' matches
// across spaces and punctuation in titles like "Amnesia: The Bunker".
func compilePattern(pattern string) (glob.Glob, error) {
	compiled, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %v", pattern, err)
	}
	return compiled, nil
}

// ValidatePattern reports whether pattern is a usable glob
func ValidatePattern(pattern string) error {
	_, err := compilePattern(pattern)
	return err
}

func matchPattern(pattern, title string) (bool, error) {
	compiled, err := compilePattern(pattern)
	if err != nil {
		return false, err
	}
	return compiled.Match(strings.ToLower(title)), nil
}

// ShouldInclude determines if a title should be included based on include/exclude patterns.
// Exclude patterns take precedence over include patterns.
func (*defaultTitleFilter) ShouldInclude(title string, include, exclude []string) (bool, string) {
	for _, pattern := range exclude {
		matches, err := matchPattern(pattern, title)
		if err != nil {
			return false, fmt.Sprintf("invalid exclude pattern '%s': %v", pattern, err)
		}
		if matches {
			return false, fmt.Sprintf("excluded by pattern '%s'", pattern)
		}
	}

	if len(include) > 0 {
		for _, pattern := range include {
			matches, err := matchPattern(pattern, title)
			if err != nil {
				return false, fmt.Sprintf("invalid include pattern '%s': %v", pattern, err)
			}
			if matches {
				return true, fmt.Sprintf("included by pattern '%s'", pattern)
			}
		}
		return false, fmt.Sprintf("no match found in include patterns %v", include)
	}

	if len(exclude) > 0 {
		return true, fmt.Sprintf("no match in exclude patterns %v", exclude)
	}
	return true, "no title filters specified"
}
