package sources

import (
	"html"
	"regexp"
	"strings"
)

// steamReviewPattern matches the review tooltip, e.g.
// "Very Positive<br>92% of the 12,345 user reviews for this game are positive."
var steamReviewPattern = regexp.MustCompile(`(\d{1,3})% of the ([\d,]+) user reviews`)

var steamPlatformClasses = map[string]string{
	"win":   "Windows",
	"mac":   "macOS",
	"linux": "Linux",
}

// steamExtractor reads the store search results page
type steamExtractor struct {
	base string
}

func (*steamExtractor) Kind() ExtractorKind { return ExtractorSteam }

func (e *steamExtractor) Extract(body []byte) ([]RawRecord, error) {
	doc, err := parseHTML(body)
	if err != nil {
		return nil, err
	}

	var out []RawRecord
	for _, row := range queryAll(doc, "a.search_result_row") {
		title := textAt(row, "span.title")
		if title == "" {
			continue
		}

		rec := RawRecord{
			Title:       title,
			URL:         resolveURL(e.base, attr(row, "href")),
			ImageURL:    imageSource(queryFirst(row, "div.search_capsule img")),
			ReleaseDate: textAt(row, "div.search_released"),
			Price:       textAt(row, "div.discount_final_price"),
		}
		if rec.Price == "" {
			rec.Price = textAt(row, "div.search_price")
		}

		tooltip := html.UnescapeString(attrAt(row, "span.search_review_summary", "data-tooltip-html"))
		if m := steamReviewPattern.FindStringSubmatch(tooltip); m != nil {
			rec.Rating = m[1] + "%"
			rec.ReviewCount = m[2]
		}

		for _, n := range queryAll(row, "span.platform_img") {
			for _, c := range strings.Fields(attr(n, "class")) {
				if p, ok := steamPlatformClasses[c]; ok {
					rec.Platforms = append(rec.Platforms, p)
				}
			}
		}

		out = append(out, rec)
	}
	return out, nil
}
