package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"kickstarter-scraper/models"
)

// CreatorPages bundles the already-fetched documents one creator extraction
// consumes. About is mandatory; the others are nil when the sub-page is not
// public or was not fetched. Created holds every pagination page in order.
type CreatorPages struct {
	About      *goquery.Document
	Created    []*goquery.Document
	Backed     *goquery.Document
	Comments   *goquery.Document
	AccessedAt time.Time
}

// ExtractCreator assembles a creator profile record. Fields the about page
// does not carry stay missing; a nil Comments page means the creator keeps
// their comments private, which is recorded rather than treated as zero.
func ExtractCreator(pages CreatorPages) (*models.CreatorRecord, error) {
	about := pages.About
	url, ok := about.Find("meta[property='og:url']").First().Attr("content")
	if !ok || url == "" {
		return nil, models.ErrMissingIdentity
	}

	rec := &models.CreatorRecord{
		URL:        url,
		AccessedAt: pages.AccessedAt,
	}
	parts := strings.Split(strings.TrimSuffix(url, "/"), "/")
	rec.CreatorID = parts[len(parts)-1]

	if attr, ok := selectAttr(about.Selection, "datetime", "span.joined > time"); ok {
		rec.JoinDate = parseJoinDate(attr)
	}

	if text, ok := selectText(about.Selection, "span.location.do-not-visually-track > a"); ok {
		rec.Location = models.Some(text)
	}
	if text, ok := selectText(about.Selection, "div[class='grid-col-12 grid-col-8-sm grid-col-6-md']"); ok {
		rec.Biography = models.Some(text)
	}

	if text, ok := selectText(about.Selection, "span.backed"); ok {
		if n, err := ExtractInt(text); err == nil {
			rec.NumBacked = models.Some(n)
		}
	}
	if text, ok := selectText(about.Selection, "a.js-created-link > span"); ok {
		if n, err := ExtractInt(text); err == nil {
			rec.NumCreated = models.Some(n)
		}
	}

	about.Find("ul[class='menu-submenu mb6'] > li > a").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && href != "" {
			rec.Websites = append(rec.Websites, href)
		}
	})
	for _, site := range rec.Websites {
		switch {
		case strings.Contains(site, "facebook"):
			rec.HasFacebook = true
		case strings.Contains(site, "twitter"):
			rec.HasTwitter = true
		case strings.Contains(site, "instagram"):
			rec.HasInstagram = true
		}
	}

	rec.CommentsHidden = pages.Comments == nil
	if pages.Comments != nil {
		rec.Comments = extractComments(pages.Comments)
	}

	for _, doc := range pages.Created {
		raw, ok := doc.Find("div[data-projects]").First().Attr("data-projects")
		if !ok {
			continue
		}
		summaries, err := ParseProjectSummaries([]byte(raw))
		if err != nil {
			continue
		}
		rec.CreatedProjects = append(rec.CreatedProjects, summaries...)
	}

	if pages.Backed != nil {
		pages.Backed.Find("div[data-project]").Each(func(_ int, div *goquery.Selection) {
			raw, ok := div.Attr("data-project")
			if !ok {
				return
			}
			summary, err := ParseProjectSummary([]byte(raw))
			if err != nil {
				return
			}
			rec.BackedProjects = append(rec.BackedProjects, summary)
		})
	}

	return rec, nil
}

// HasBackedPage reports whether a creator's about page links to a visible
// backed listing with a non-zero count. Profiles with zero backings or a
// hidden backed tab render no listing worth fetching.
func HasBackedPage(about *goquery.Document) bool {
	if about.Find("a.js-backed-link").Length() == 0 {
		return false
	}
	if text, ok := selectText(about.Selection, "span.backed"); ok {
		if n, err := ExtractInt(text); err == nil {
			return n > 0
		}
	}
	return false
}

// NextPageHref returns the href of a paginated listing's "next" link, if the
// page has one. Callers follow it until it disappears.
func NextPageHref(doc *goquery.Document) (string, bool) {
	href, ok := doc.Find("a[rel='next']").First().Attr("href")
	return href, ok && href != ""
}

func extractComments(doc *goquery.Document) []models.Comment {
	var comments []models.Comment
	doc.Find("li[class='page flex flex-wrap'] > ol > li").Each(func(_ int, li *goquery.Selection) {
		more := li.Find("a.read-more").First()
		href, _ := more.Attr("href")
		comments = append(comments, models.Comment{
			Text: nodeText(li.Find("p.body").First()),
			Date: nodeText(more.Find("time").First()),
			Link: "https://www.kickstarter.com" + href,
		})
	})
	return comments
}

// Join dates appear in two formats depending on page age: a full timestamp
// with offset, or a bare date.
func parseJoinDate(attr string) models.Opt[models.Date] {
	if t, err := time.Parse("2006-01-02T15:04:05Z07:00", attr); err == nil {
		return models.Some(models.DateOf(t))
	}
	if t, err := time.Parse("2006-01-02", attr); err == nil {
		return models.Some(models.DateOf(t))
	}
	return models.None[models.Date]()
}
