package sources

import (
	"strings"

	"golang.org/x/net/html"
)

// A tiny CSS subset, enough for the listing pages we scrape:
//   - tag, .class, #id, tag.class, tag#id
//   - [attr], [attr=val], [attr^=val], [attr$=val], [attr*=val]
//   - descendant combinator (space)

type simpleSelector struct {
	tag     string
	id      string
	class   string
	attrKey string
	attrOp  string
	attrVal string
}

func parseSimpleSelector(sel string) simpleSelector {
	var s simpleSelector

	if idx := strings.IndexByte(sel, '['); idx >= 0 {
		attrPart := strings.TrimSuffix(sel[idx+1:], "]")
		sel = sel[:idx]
		if eq := strings.IndexByte(attrPart, '='); eq >= 0 {
			key := attrPart[:eq]
			s.attrOp = "="
			if n := len(key); n > 0 && strings.ContainsRune("^$*", rune(key[n-1])) {
				s.attrOp = key[n-1:] + "="
				key = key[:n-1]
			}
			s.attrKey = key
			s.attrVal = strings.Trim(attrPart[eq+1:], `"'`)
		} else {
			s.attrKey = attrPart
		}
	}

	if idx := strings.IndexByte(sel, '#'); idx >= 0 {
		s.id = sel[idx+1:]
		sel = sel[:idx]
	}

	if idx := strings.IndexByte(sel, '.'); idx >= 0 {
		s.class = sel[idx+1:]
		sel = sel[:idx]
	}

	s.tag = sel
	return s
}

func (s simpleSelector) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && n.Data != s.tag {
		return false
	}
	if s.id != "" && attr(n, "id") != s.id {
		return false
	}
	if s.class != "" && !hasClass(n, s.class) {
		return false
	}
	if s.attrKey == "" {
		return true
	}

	val, ok := lookupAttr(n, s.attrKey)
	if !ok {
		return false
	}
	switch s.attrOp {
	case "":
		return true
	case "=":
		return val == s.attrVal
	case "^=":
		return strings.HasPrefix(val, s.attrVal)
	case "$=":
		return strings.HasSuffix(val, s.attrVal)
	case "*=":
		return strings.Contains(val, s.attrVal)
	}
	return false
}

// queryAll returns every descendant of root matching selector, in document order
func queryAll(root *html.Node, selector string) []*html.Node {
	parts := strings.Fields(selector)
	if root == nil || len(parts) == 0 {
		return nil
	}

	scopes := []*html.Node{root}
	for _, part := range parts {
		sel := parseSimpleSelector(part)
		seen := make(map[*html.Node]struct{})
		var next []*html.Node
		for _, scope := range scopes {
			for _, n := range descendants(scope, sel) {
				if _, dup := seen[n]; dup {
					continue
				}
				seen[n] = struct{}{}
				next = append(next, n)
			}
		}
		scopes = next
	}
	return scopes
}

// queryFirst returns the first match or nil
func queryFirst(root *html.Node, selector string) *html.Node {
	if m := queryAll(root, selector); len(m) > 0 {
		return m[0]
	}
	return nil
}

func descendants(root *html.Node, sel simpleSelector) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if sel.matches(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// textOf returns the collapsed text content of n
func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// textAt is textOf(queryFirst(root, selector))
func textAt(root *html.Node, selector string) string {
	return textOf(queryFirst(root, selector))
}

// attrAt returns attribute key of the first match of selector
func attrAt(root *html.Node, selector, key string) string {
	n := queryFirst(root, selector)
	if n == nil {
		return ""
	}
	return attr(n, key)
}

// textsAt returns the text of every match, skipping empty ones
func textsAt(root *html.Node, selector string) []string {
	var out []string
	for _, n := range queryAll(root, selector) {
		if t := textOf(n); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
