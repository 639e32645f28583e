package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// The page markup changed several times over the platform's history, so most
// fields carry an ordered list of selectors: one per era, tried in order,
// first hit wins. These helpers are that strategy table's runtime.

// selectText returns the trimmed text of the first element matching any of
// the selectors, in order.
func selectText(root *goquery.Selection, selectors ...string) (string, bool) {
	for _, sel := range selectors {
		found := root.Find(sel).First()
		if found.Length() > 0 {
			return strings.TrimSpace(found.Text()), true
		}
	}
	return "", false
}

// selectAttr returns the named attribute of the first element matching any of
// the selectors, in order. An element matching without the attribute still
// wins the race; its miss is the field's miss.
func selectAttr(root *goquery.Selection, attr string, selectors ...string) (string, bool) {
	for _, sel := range selectors {
		found := root.Find(sel).First()
		if found.Length() > 0 {
			return found.Attr(attr)
		}
	}
	return "", false
}

// nodeText returns the trimmed text of a selection itself.
func nodeText(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}
