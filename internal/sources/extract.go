package sources

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ExtractorKind identifies one of the per-source extraction strategies
type ExtractorKind string

// The closed set of extraction strategies, one per source
const (
	ExtractorSteam       ExtractorKind = SourceSteam
	ExtractorPlayStation ExtractorKind = SourcePlayStation
	ExtractorXbox        ExtractorKind = SourceXbox
	ExtractorNintendo    ExtractorKind = SourceNintendo
	ExtractorRoblox      ExtractorKind = SourceRoblox
)

// Extractor turns a response body into raw records
type Extractor interface {
	// Kind identifies the strategy
	Kind() ExtractorKind

	// Extract parses body. Finding nothing is not an error.
	Extract(body []byte) ([]RawRecord, error)
}

// NewExtractor returns the extraction strategy for kind.
// baseURL is used to resolve relative links found on the page.
func NewExtractor(kind ExtractorKind, baseURL string) (Extractor, error) {
	switch kind {
	case ExtractorSteam:
		return &steamExtractor{base: baseURL}, nil
	case ExtractorPlayStation:
		return &playstationExtractor{base: baseURL}, nil
	case ExtractorXbox:
		return &xboxExtractor{base: baseURL}, nil
	case ExtractorNintendo:
		return &nintendoExtractor{base: baseURL}, nil
	case ExtractorRoblox:
		return &robloxExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported extractor kind: %s", kind)
	}
}

// parseHTML parses body into a document tree
func parseHTML(body []byte) (*html.Node, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// resolveURL makes ref absolute against base. Unparseable input is returned untouched.
func resolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || base == "" {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// imageSource prefers lazy-loading attributes over src placeholders
func imageSource(img *html.Node) string {
	if img == nil {
		return ""
	}
	for _, key := range []string{"data-src", "src"} {
		if v := attr(img, key); v != "" && !strings.HasPrefix(v, "data:") {
			return v
		}
	}
	if srcset := attr(img, "srcset"); srcset != "" {
		if first := strings.Fields(strings.Split(srcset, ",")[0]); len(first) > 0 {
			return first[0]
		}
	}
	return ""
}
