package filtering

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/nightfeed/horror-aggregator/internal/games"
)

// Query parameters read by ParseQuery
const (
	ParamTitle        = "title"
	ParamExcludeTitle = "excludeTitle"
	ParamTag          = "tag"
	ParamExcludeTag   = "excludeTag"
	ParamMinRating    = "minRating"
	ParamLimit        = "limit"
)

// ErrInvalidCriteria is wrapped by every ParseQuery error
var ErrInvalidCriteria = errors.New("invalid filter")

// Criteria selects games from a listing. The zero value keeps everything.
type Criteria struct {
	TitleInclude []string
	TitleExclude []string
	TagInclude   []string
	TagExclude   []string
	MinRating    float64
	Limit        int
}

// IsZero reports whether c keeps every game
func (c Criteria) IsZero() bool {
	return len(c.TitleInclude) == 0 && len(c.TitleExclude) == 0 &&
		len(c.TagInclude) == 0 && len(c.TagExclude) == 0 &&
		c.MinRating == 0 && c.Limit == 0
}

// ParseQuery reads Criteria from query parameters
func ParseQuery(q url.Values) (Criteria, error) {
	c := Criteria{
		TitleInclude: listParam(q, ParamTitle),
		TitleExclude: listParam(q, ParamExcludeTitle),
		TagInclude:   listParam(q, ParamTag),
		TagExclude:   listParam(q, ParamExcludeTag),
	}

	for _, pattern := range append(append([]string(nil), c.TitleInclude...), c.TitleExclude...) {
		if err := ValidatePattern(pattern); err != nil {
			return Criteria{}, fmt.Errorf("%w: %v", ErrInvalidCriteria, err)
		}
	}

	if raw := q.Get(ParamMinRating); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 5 {
			return Criteria{}, fmt.Errorf("%w: %s must be a number between 0 and 5", ErrInvalidCriteria, ParamMinRating)
		}
		c.MinRating = v
	}

	if raw := q.Get(ParamLimit); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return Criteria{}, fmt.Errorf("%w: %s must be a positive integer", ErrInvalidCriteria, ParamLimit)
		}
		c.Limit = v
	}

	return c, nil
}

// listParam collects repeated and comma-separated values, dropping blanks
func listParam(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// FilterService applies Criteria to listings
type FilterService interface {
	// Apply returns a filtered copy of result. Failed results are returned unchanged.
	Apply(result *games.SourceResult, c Criteria) *games.SourceResult
}

// defaultFilterService implements filtering using title and tag filters
type defaultFilterService struct {
	titleFilter TitleFilter
	tagFilter   TagFilter
}

// NewDefaultFilterService creates a new defaultFilterService with default filter implementations
func NewDefaultFilterService() FilterService {
	return &defaultFilterService{
		titleFilter: NewDefaultTitleFilter(),
		tagFilter:   NewDefaultTagFilter(),
	}
}

// NewFilterService creates a new defaultFilterService with custom filter implementations
func NewFilterService(titleFilter TitleFilter, tagFilter TagFilter) FilterService {
	return &defaultFilterService{
		titleFilter: titleFilter,
		tagFilter:   tagFilter,
	}
}

func (s *defaultFilterService) Apply(result *games.SourceResult, c Criteria) *games.SourceResult {
	if result.Failed() || c.IsZero() {
		return result
	}

	out := *result
	out.Games = make([]games.GameRecord, 0, len(result.Games))
	for _, g := range result.Games {
		if c.Limit > 0 && len(out.Games) == c.Limit {
			break
		}
		if included, reason := s.shouldInclude(g, c); !included {
			slog.Debug("Excluding game", "source", result.SourceName, "title", g.Title, "reason", reason)
			continue
		}
		out.Games = append(out.Games, g)
	}
	out.TotalCount = len(out.Games)

	slog.Debug("Listing filtered",
		"source", result.SourceName,
		"original", len(result.Games),
		"kept", out.TotalCount)
	return &out
}

// shouldInclude requires the rating floor, the title filter and the tag filter to pass
func (s *defaultFilterService) shouldInclude(g games.GameRecord, c Criteria) (bool, string) {
	if g.Rating < c.MinRating {
		return false, fmt.Sprintf("rating %.1f below %.1f", g.Rating, c.MinRating)
	}

	if ok, reason := s.titleFilter.ShouldInclude(g.Title, c.TitleInclude, c.TitleExclude); !ok {
		return false, "title filter: " + reason
	}

	tags := make([]string, 0, len(g.GenreTags)+len(g.PlatformTags))
	tags = append(tags, g.GenreTags...)
	tags = append(tags, g.PlatformTags...)
	if ok, reason := s.tagFilter.ShouldInclude(tags, c.TagInclude, c.TagExclude); !ok {
		return false, "tag filter: " + reason
	}

	return true, ""
}
