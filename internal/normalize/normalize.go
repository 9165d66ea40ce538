// Package normalize maps raw source records onto the shared game record schema.
package normalize

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nightfeed/horror-aggregator/internal/games"
	"github.com/nightfeed/horror-aggregator/internal/sources"
)

// MaxDescriptionRunes bounds ShortDescription length
const MaxDescriptionRunes = 200

// ratingScale says how a source expresses its rating
type ratingScale int

const (
	scaleNone ratingScale = iota
	scalePercent
	scaleStars
	scaleVotes
)

var sourceScales = map[string]ratingScale{
	sources.SourceSteam:       scalePercent,
	sources.SourcePlayStation: scaleStars,
	sources.SourceXbox:        scaleStars,
	sources.SourceNintendo:    scaleNone,
	sources.SourceRoblox:      scaleVotes,
}

// Normalize converts raws into game records sorted by rating, highest first.
// Ids are "{source}-{index}" using the extraction order, so they are unique within one fetch.
func Normalize(source string, raws []sources.RawRecord) []games.GameRecord {
	out := make([]games.GameRecord, 0, len(raws))
	for i, raw := range raws {
		out = append(out, normalizeOne(source, i, raw))
	}
	SortByRating(out)
	return out
}

// SortByRating orders records by rating descending, keeping input order for ties
func SortByRating(records []games.GameRecord) {
	slices.SortStableFunc(records, func(a, b games.GameRecord) int {
		return cmp.Compare(b.Rating, a.Rating)
	})
}

func normalizeOne(source string, index int, raw sources.RawRecord) games.GameRecord {
	rec := games.GameRecord{
		ID:               fmt.Sprintf("%s-%d", source, index),
		Title:            collapse(raw.Title),
		ShortDescription: truncate(collapse(raw.Description), MaxDescriptionRunes),
		ImageURL:         strings.TrimSpace(raw.ImageURL),
		Rating:           rating(source, raw),
		ReviewCount:      reviewCount(raw),
		Price:            collapse(raw.Price),
		ReleaseDate:      collapse(raw.ReleaseDate),
		PlatformTags:     tagSet(raw.Platforms),
		GenreTags:        tagSet(raw.Genres),
		ExternalURL:      strings.TrimSpace(raw.URL),
		PlayableURL:      strings.TrimSpace(raw.PlayURL),
	}

	if rec.ShortDescription == "" {
		rec.ShortDescription = games.UnknownDescription
	}
	if rec.Price == "" {
		rec.Price = games.UnknownPrice
	}
	if rec.ReleaseDate == "" {
		rec.ReleaseDate = games.UnknownReleaseDate
	}
	if len(rec.PlatformTags) == 0 {
		if def, ok := sources.DefaultDefinition(source); ok && def.DisplayPlatform != "" {
			rec.PlatformTags = []string{def.DisplayPlatform}
		} else {
			rec.PlatformTags = []string{}
		}
	}
	if len(rec.GenreTags) == 0 {
		rec.GenreTags = []string{games.DefaultGenre}
	}
	return rec
}

// rating converts the source's native rating to the 0-5 scale, rounded to one decimal
func rating(source string, raw sources.RawRecord) float64 {
	var r float64
	switch sourceScales[source] {
	case scalePercent:
		pct, ok := parseNumber(strings.TrimSuffix(strings.TrimSpace(raw.Rating), "%"))
		if !ok {
			return 0
		}
		r = pct / 20
	case scaleStars:
		stars, ok := parseNumber(raw.Rating)
		if !ok {
			return 0
		}
		r = stars
	case scaleVotes:
		if raw.Votes == nil {
			return 0
		}
		total := raw.Votes.Up + raw.Votes.Down
		if total <= 0 {
			return 0
		}
		r = float64(raw.Votes.Up) / float64(total) * 5
	default:
		return 0
	}
	return math.Round(clamp(r, 0, 5)*10) / 10
}

func reviewCount(raw sources.RawRecord) int {
	if raw.Votes != nil && raw.ReviewCount == "" {
		if total := raw.Votes.Up + raw.Votes.Down; total > 0 {
			return int(total)
		}
		return games.UnknownReviewCount
	}
	n, ok := ParseCount(raw.ReviewCount)
	if !ok {
		return games.UnknownReviewCount
	}
	return n
}

// ParseCount reads counts as storefronts print them: "12,345", "(2,891)", "58.2K", "1.1M ratings"
func ParseCount(s string) (int, bool) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "()")
	if fields := strings.Fields(s); len(fields) > 0 {
		s = fields[0]
	}
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}

	mult := 1.0
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1_000
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1_000_000
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return int(math.Round(v * mult)), true
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// tagSet trims and de-duplicates tags, keeping first-seen order
func tagSet(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = collapse(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:maxRunes-3])) + "..."
}
