package fetch

import "github.com/PuerkitoBio/goquery"

// pageAbsent reports whether the page is a tombstone rather than content:
// a 404 page, a project hidden by its creator, or a deleted creator profile.
// The deleted-profile marker is only meaningful on profile pages.
func pageAbsent(doc *goquery.Document, kind PageKind) bool {
	if doc.Find("a[href='/?ref=404-ksr10']").Length() > 0 {
		return true
	}
	switch kind {
	case PageCampaign, PageRewards, PageUpdates:
		return doc.Find("div#hidden_project").Length() > 0
	case PageAbout, PageCreated, PageBacked, PageComments:
		return doc.Find("div[class='center']").Length() > 0
	}
	return false
}
