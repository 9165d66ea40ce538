package sources

// xboxExtractor reads the xbox.com browse grid. Class names carry build hashes,
// so every selector matches on the stable module prefix.
type xboxExtractor struct {
	base string
}

func (*xboxExtractor) Kind() ExtractorKind { return ExtractorXbox }

func (e *xboxExtractor) Extract(body []byte) ([]RawRecord, error) {
	doc, err := parseHTML(body)
	if err != nil {
		return nil, err
	}

	var out []RawRecord
	for _, card := range queryAll(doc, "div[class^=ProductCard-module__cardWrapper]") {
		title := textAt(card, "span[class^=ProductCard-module__title]")
		if title == "" {
			continue
		}

		link := queryFirst(card, "a")
		rec := RawRecord{
			Title:       title,
			ImageURL:    imageSource(queryFirst(card, "img")),
			Price:       textAt(card, "span[class^=Price-module__boldText]"),
			Rating:      attrAt(card, "div[class^=ProductCard-module__rating]", "aria-valuenow"),
			ReviewCount: textAt(card, "span[class^=ProductCard-module__ratingCount]"),
			Platforms:   textsAt(card, "span[class^=ProductCard-module__platformTag]"),
		}
		if link != nil {
			rec.URL = resolveURL(e.base, attr(link, "href"))
		}
		if rec.Price == "" {
			rec.Price = textAt(card, "span[class^=Price-module__originalPrice]")
		}

		out = append(out, rec)
	}
	return out, nil
}
