package filtering

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightfeed/horror-aggregator/internal/games"
)

func listing() *games.SourceResult {
	return games.NewResult("steam", []games.GameRecord{
		{ID: "steam-0", Title: "Amnesia: The Bunker", Rating: 4.6, GenreTags: []string{"Horror", "Survival"}, PlatformTags: []string{"PC"}},
		{ID: "steam-1", Title: "Phasmophobia", Rating: 4.4, GenreTags: []string{"Horror", "Co-op"}, PlatformTags: []string{"PC", "VR"}},
		{ID: "steam-2", Title: "Amnesia: Rebirth", Rating: 3.9, GenreTags: []string{"Horror"}, PlatformTags: []string{"PC"}},
		{ID: "steam-3", Title: "Dead by Daylight", Rating: 3.5, GenreTags: []string{"Horror", "Multiplayer"}, PlatformTags: []string{"PC"}},
	}, time.Date(2026, 10, 31, 20, 0, 0, 0, time.UTC), time.Second)
}

func titles(r *games.SourceResult) []string {
	out := make([]string, 0, len(r.Games))
	for _, g := range r.Games {
		out = append(out, g.Title)
	}
	return out
}

func TestFilterService_Apply(t *testing.T) {
	t.Parallel()

	svc := NewDefaultFilterService()

	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{
			name:     "zero criteria keeps everything",
			criteria: Criteria{},
			want:     []string{"Amnesia: The Bunker", "Phasmophobia", "Amnesia: Rebirth", "Dead by Daylight"},
		},
		{
			name:     "title glob is case-insensitive",
			criteria: Criteria{TitleInclude: []string{"amnesia*"}},
			want:     []string{"Amnesia: The Bunker", "Amnesia: Rebirth"},
		},
		{
			name:     "exclude wins over include",
			criteria: Criteria{TitleInclude: []string{"amnesia*"}, TitleExclude: []string{"*rebirth"}},
			want:     []string{"Amnesia: The Bunker"},
		},
		{
			name:     "tag include matches platform tags",
			criteria: Criteria{TagInclude: []string{"vr"}},
			want:     []string{"Phasmophobia"},
		},
		{
			name:     "tag exclude",
			criteria: Criteria{TagExclude: []string{"Multiplayer", "co-op"}},
			want:     []string{"Amnesia: The Bunker", "Amnesia: Rebirth"},
		},
		{
			name:     "rating floor",
			criteria: Criteria{MinRating: 4},
			want:     []string{"Amnesia: The Bunker", "Phasmophobia"},
		},
		{
			name:     "limit applies after other filters",
			criteria: Criteria{TagExclude: []string{"Co-op"}, Limit: 2},
			want:     []string{"Amnesia: The Bunker", "Amnesia: Rebirth"},
		},
		{
			name:     "nothing matches",
			criteria: Criteria{TitleInclude: []string{"silent hill*"}},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			original := listing()
			got := svc.Apply(original, tt.criteria)

			assert.Equal(t, tt.want, titles(got))
			assert.Equal(t, len(tt.want), got.TotalCount)
			assert.Equal(t, "steam", got.SourceName)
			assert.Len(t, original.Games, 4, "input must not be modified")
		})
	}
}

func TestFilterService_FailedResultUnchanged(t *testing.T) {
	t.Parallel()

	failed := games.NewFailedResult("xbox", errors.New("HTTP 503"), time.Now(), time.Second)
	got := NewDefaultFilterService().Apply(failed, Criteria{MinRating: 4})
	assert.Same(t, failed, got)
}

func TestParseQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   string
		want    Criteria
		wantErr string
	}{
		{name: "empty", query: "", want: Criteria{}},
		{
			name:  "repeated and comma separated",
			query: "title=amnesia*,outlast*&title=+&tag=Horror&tag=VR&excludeTag=Co-op",
			want: Criteria{
				TitleInclude: []string{"amnesia*", "outlast*"},
				TagInclude:   []string{"Horror", "VR"},
				TagExclude:   []string{"Co-op"},
			},
		},
		{name: "rating and limit", query: "minRating=3.5&limit=10", want: Criteria{MinRating: 3.5, Limit: 10}},
		{name: "rating out of range", query: "minRating=6", wantErr: "minRating"},
		{name: "rating not a number", query: "minRating=high", wantErr: "minRating"},
		{name: "zero limit", query: "limit=0", wantErr: "limit"},
		{name: "bad glob", query: "excludeTitle=[abc", wantErr: "invalid glob pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			got, err := ParseQuery(q)
			if tt.wantErr != "" {
				require.ErrorIs(t, err, ErrInvalidCriteria)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.query == "", got.IsZero())
		})
	}
}

func TestDefaultTagFilter_ShouldInclude(t *testing.T) {
	t.Parallel()

	filter := NewDefaultTagFilter()

	tests := []struct {
		name     string
		tags     []string
		include  []string
		exclude  []string
		expected bool
	}{
		{name: "no filters", tags: []string{"Horror"}, expected: true},
		{name: "nil tags with no filters", tags: nil, expected: true},
		{name: "include matches ignoring case", tags: []string{"Horror"}, include: []string{"horror"}, expected: true},
		{name: "include without match", tags: []string{"Horror"}, include: []string{"Puzzle"}, expected: false},
		{name: "exclude takes precedence", tags: []string{"Horror", "VR"}, include: []string{"Horror"}, exclude: []string{"VR"}, expected: false},
		{name: "exclude without match", tags: []string{"Horror"}, exclude: []string{"VR"}, expected: true},
		{name: "empty tags with include", tags: []string{}, include: []string{"Horror"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, reason := filter.ShouldInclude(tt.tags, tt.include, tt.exclude)
			assert.Equal(t, tt.expected, got, reason)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestDefaultTitleFilter_ShouldInclude(t *testing.T) {
	t.Parallel()

	filter := NewDefaultTitleFilter()

	tests := []struct {
		name     string
		title    string
		include  []string
		exclude  []string
		expected bool
	}{
		{name: "no patterns", title: "Outlast", expected: true},
		{name: "wildcard across punctuation", title: "Five Nights at Freddy's: Security Breach", include: []string{"five nights*breach"}, expected: true},
		{name: "single character", title: "Outlast 2", include: []string{"outlast ?"}, expected: true},
		{name: "character class", title: "Outlast 3", include: []string{"outlast [12]"}, expected: false},
		{name: "excluded", title: "Outlast Trials", exclude: []string{"*trials"}, expected: false},
		{name: "invalid pattern", title: "Outlast", include: []string{"[outlast"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, reason := filter.ShouldInclude(tt.title, tt.include, tt.exclude)
			assert.Equal(t, tt.expected, got, reason)
		})
	}
}
