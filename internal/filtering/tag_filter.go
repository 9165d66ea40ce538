package filtering

import (
	"fmt"
	"strings"
)

// TagFilter handles tag-based filtering using case-insensitive matching
type TagFilter interface {
	// ShouldInclude determines if a game with given tags should be included based on include/exclude tag lists
	// Returns (shouldInclude bool, reason string)
	ShouldInclude(tags []string, include, exclude []string) (bool, string)
}

// DefaultTagFilter implements tag filtering
type DefaultTagFilter struct{}

// NewDefaultTagFilter creates a new DefaultTagFilter
func NewDefaultTagFilter() *DefaultTagFilter {
	return &DefaultTagFilter{}
}

// ShouldInclude determines if a game with given tags should be included.
// Exclude tags take precedence; with include tags, at least one must be present.
func (*DefaultTagFilter) ShouldInclude(tags []string, include, exclude []string) (bool, string) {
	for _, tag := range tags {
		for _, excludeTag := range exclude {
			if strings.EqualFold(tag, excludeTag) {
				return false, fmt.Sprintf("excluded by tag '%s'", excludeTag)
			}
		}
	}

	if len(include) > 0 {
		for _, tag := range tags {
			for _, includeTag := range include {
				if strings.EqualFold(tag, includeTag) {
					return true, fmt.Sprintf("included by tag '%s'", includeTag)
				}
			}
		}
		return false, fmt.Sprintf("no matching tags found in include list %v (tags: %v)", include, tags)
	}

	if len(exclude) > 0 {
		return true, fmt.Sprintf("no matching tags in exclude list %v (tags: %v)", exclude, tags)
	}
	return true, "no tag filters specified"
}
