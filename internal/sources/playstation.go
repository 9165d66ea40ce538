package sources

// playstationExtractor reads a PlayStation Store category grid
type playstationExtractor struct {
	base string
}

func (*playstationExtractor) Kind() ExtractorKind { return ExtractorPlayStation }

func (e *playstationExtractor) Extract(body []byte) ([]RawRecord, error) {
	doc, err := parseHTML(body)
	if err != nil {
		return nil, err
	}

	var out []RawRecord
	for _, tile := range queryAll(doc, "li[data-qa^=ems-sdk-grid#productTile]") {
		title := textAt(tile, "span[data-qa$=#product-name]")
		if title == "" {
			continue
		}

		out = append(out, RawRecord{
			Title:       title,
			URL:         resolveURL(e.base, attrAt(tile, "a", "href")),
			ImageURL:    imageSource(queryFirst(tile, "img[data-qa$=#game-art#image#image]")),
			Price:       textAt(tile, "span[data-qa$=#price#display-price]"),
			Rating:      textAt(tile, "span[data-qa$=#star-rating#average]"),
			ReviewCount: textAt(tile, "span[data-qa$=#star-rating#count]"),
			Platforms:   textsAt(tile, "span[data-qa*=#game-art#tag]"),
		})
	}
	return out, nil
}
