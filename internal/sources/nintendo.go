package sources

// nintendoExtractor reads the Nintendo store search grid. The grid shows no ratings
// or review counts, only title, price, release date and art.
type nintendoExtractor struct {
	base string
}

func (*nintendoExtractor) Kind() ExtractorKind { return ExtractorNintendo }

func (e *nintendoExtractor) Extract(body []byte) ([]RawRecord, error) {
	doc, err := parseHTML(body)
	if err != nil {
		return nil, err
	}

	var out []RawRecord
	for _, tile := range queryAll(doc, "div[data-testid=product-tile]") {
		title := textAt(tile, "h3")
		if title == "" {
			continue
		}

		out = append(out, RawRecord{
			Title:       title,
			URL:         resolveURL(e.base, attrAt(tile, "a", "href")),
			ImageURL:    imageSource(queryFirst(tile, "img")),
			Price:       textAt(tile, "span[data-testid=price]"),
			ReleaseDate: textAt(tile, "div[data-testid=release-date]"),
			Genres:      textsAt(tile, "span[data-testid=genre]"),
			Platforms:   []string{"Nintendo Switch"},
		})
	}
	return out, nil
}
