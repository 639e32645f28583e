package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"kickstarter-scraper/models"
)

// ExtractCampaign assembles a campaign record from a parsed campaign page and
// an optional rewards sub-page. The platform serves different templates per
// campaign status and per historical era, so most fields resolve through an
// ordered list of selectors with the embedded payload taking priority where
// it exists. Only the canonical URL is mandatory; every other field is
// best-effort and lands as a missing sentinel when no era matches.
func ExtractCampaign(doc, rewardsDoc *goquery.Document, accessedAt time.Time) (*models.CampaignRecord, error) {
	url, ok := doc.Find("meta[property='og:url']").First().Attr("content")
	if !ok || url == "" {
		return nil, models.ErrMissingIdentity
	}

	e := &campaignExtractor{
		doc:     doc,
		rewards: rewardsDoc,
		payload: parsePayload(doc),
		rec:     &models.CampaignRecord{URL: url, AccessedAt: accessedAt},
	}

	e.identity()
	e.status()
	e.backers()
	e.collaborators()
	e.money()
	e.endDate()
	e.media()
	e.labels()
	e.creatorCounts()
	e.engagement()
	e.longText()
	e.tiers()

	return e.rec, nil
}

type campaignExtractor struct {
	doc     *goquery.Document
	rewards *goquery.Document
	payload *projectPayload
	rec     *models.CampaignRecord
}

// identity derives the ids from the canonical URL path and splits the meta
// description, which always reads "{creator} is raising funds for {title} on
// Kickstarter!" with the blurb as its last line.
func (e *campaignExtractor) identity() {
	parts := strings.Split(strings.TrimSuffix(e.rec.URL, "/"), "/")
	if len(parts) >= 2 {
		e.rec.ProjectID = parts[len(parts)-1]
		e.rec.CreatorID = parts[len(parts)-2]
	}

	content, ok := e.doc.Find("meta[name='description']").First().Attr("content")
	if !ok {
		return
	}
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if creator, rest, found := strings.Cut(lines[0], " is raising funds for "); found {
		e.rec.CreatorName = strings.TrimSpace(creator)
		e.rec.Title = strings.TrimSpace(strings.ReplaceAll(rest, " on Kickstarter!", ""))
	}
	e.rec.Blurb = strings.TrimSpace(lines[len(lines)-1])

	if e.payload != nil && e.payload.VerifiedIdentity != nil {
		e.rec.VerifiedIdentity = models.Some(*e.payload.VerifiedIdentity)
	} else if text, ok := selectText(e.doc.Selection, "span.identity_name"); ok {
		// Verified creators don't have their name posted.
		if text == "(name not available)" {
			text = ""
		}
		e.rec.VerifiedIdentity = models.Some(text)
	}
}

func (e *campaignExtractor) status() {
	state, ok := e.doc.Find("section.js-project-content.project-content").First().Attr("data-project-state")
	if (!ok || state == "") && e.payload != nil {
		state = e.payload.State
	}
	if state != "" {
		e.rec.Status = models.Some(titleCase(state))
	}
}

func (e *campaignExtractor) backers() {
	if n, ok := e.payload.backersCount(); ok {
		e.rec.BackersCount = models.Some(n)
		return
	}
	var text string
	var ok bool
	if e.rec.Status.Or("") == models.StatusSuccessful {
		text, ok = selectText(e.doc.Selection, "div.mb0 > h3.mb0")
	} else {
		text, ok = selectText(e.doc.Selection, "div[class='block type-16 type-24-md medium soft-black']")
	}
	if ok {
		if n, err := ExtractInt(text); err == nil {
			e.rec.BackersCount = models.Some(n)
		}
	}
}

// collaborators reads the payload edge list when available, otherwise probes
// the two markup shapes: a past-collaborators paragraph (role unknown there)
// and a single-collaborator flag box. A nil slice means the page gave no way
// to tell, as opposed to a campaign with none.
func (e *campaignExtractor) collaborators() {
	if e.payload != nil && e.payload.Collaborators != nil {
		collabs := []models.Collaborator{}
		for _, edge := range e.payload.Collaborators.Edges {
			collabs = append(collabs, models.Collaborator{
				Name: edge.Node.Name,
				URL:  edge.Node.URL,
				Role: edge.Title,
			})
		}
		e.rec.Collaborators = collabs
		return
	}

	var collabs []models.Collaborator
	if p := e.doc.Find("p[class='col col-12']").First(); p.Length() > 0 {
		p.Find("a").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			collabs = append(collabs, models.Collaborator{
				Name: nodeText(a),
				URL:  "https://www.kickstarter.com" + href,
			})
		})
	}
	if box := e.doc.Find("[class='flag col col-4 mb3'] > div.flag-body").First(); box.Length() > 0 {
		if a := box.Find("a").First(); a.Length() > 0 {
			href, _ := a.Attr("href")
			collabs = append(collabs, models.Collaborator{
				Name: nodeText(a),
				URL:  "https://www.kickstarter.com" + href,
				Role: nodeText(box.Find("div").First()),
			})
		}
	}
	e.rec.Collaborators = collabs
}

// money branches on status because the platform serves fundamentally
// different templates per campaign state: live pages may carry a currency
// conversion widget, ended pages never expose a conversion rate at all.
func (e *campaignExtractor) money() {
	switch e.rec.Status.Or("") {
	case models.StatusLive:
		e.moneyLive()
	case models.StatusSuccessful:
		e.moneySuccessful()
	default:
		e.moneyEnded()
	}
}

func (e *campaignExtractor) moneyLive() {
	rate := 1.0

	widget := e.doc.Find("div.input__currency-conversion").First()
	if widget.Length() > 0 {
		// The widget shows a sample amount in the viewer's currency next to
		// the backing input holding the same amount in the campaign currency;
		// their ratio is the conversion rate.
		sample := widget.Find("span").First().Text()
		if sample == "" {
			sample = widget.Text()
		}
		backing, _ := e.doc.Find("input[name='backing[amount]']").First().Attr("value")

		converted, errC := ExtractFloat(sample)
		original, errO := ExtractFloat(backing)
		if errC == nil && errO == nil && original > 0 {
			rate = converted / original
			e.rec.ConversionRate = models.Some(rate)
			e.rec.ConvertedCurrency = models.Some(normalizeCurrency(StripDigits(sample, ".,")))
		}
		if text, ok := selectText(e.doc.Selection, "span.new-form__currency-box__text"); ok {
			e.rec.OriginalCurrency = models.Some(normalizeCurrency(text))
		}
	} else if sym, ok := currentCurrencyVar(e.doc); ok {
		s := models.Some(normalizeCurrency(sym))
		e.rec.OriginalCurrency = s
		e.rec.ConvertedCurrency = s
		e.rec.ConversionRate = models.Some(1.0)
	}

	if v, ok := e.payload.goalAmount(); ok {
		e.rec.Goal = models.Some(v)
		e.rec.ConvertedGoal = models.Some(v * rate)
	} else if text, ok := selectText(e.doc.Selection, "span[class='block dark-grey-500 type-12 type-14-md lh3-lg'] > span"); ok {
		if v, err := ExtractInt(text); err == nil {
			e.rec.Goal = models.Some(float64(v))
			e.rec.ConvertedGoal = models.Some(float64(v) * rate)
		}
	}

	if v, ok := e.payload.pledgedAmount(); ok {
		e.rec.Pledged = models.Some(v)
		e.rec.ConvertedPledged = models.Some(v * rate)
	} else if text, ok := selectText(e.doc.Selection, "span.ksr-green-700"); ok {
		if v, err := ExtractFloat(text); err == nil {
			e.rec.Pledged = models.Some(v)
			e.rec.ConvertedPledged = models.Some(v * rate)
		}
	}
}

// moneySuccessful reads the dedicated completed-campaign elements. There is
// no conversion data on a finished page: both symbols are the same and the
// rate is trivially 1.
func (e *campaignExtractor) moneySuccessful() {
	if text, ok := selectText(e.doc.Selection, "div[class='type-12 medium navy-500'] > span.money"); ok {
		sym := models.Some(normalizeCurrency(StripDigits(text, ".,")))
		e.rec.OriginalCurrency = sym
		e.rec.ConvertedCurrency = sym
		if v, err := ExtractInt(text); err == nil {
			e.rec.Goal = models.Some(float64(v))
			e.rec.ConvertedGoal = e.rec.Goal
		}
	}
	if text, ok := selectText(e.doc.Selection, "h3.mb0 > span.money"); ok {
		if v, err := ExtractFloat(text); err == nil {
			e.rec.Pledged = models.Some(v)
			e.rec.ConvertedPledged = e.rec.Pledged
		}
	}
	e.rec.ConversionRate = models.Some(1.0)
}

func (e *campaignExtractor) moneyEnded() {
	if text, ok := selectText(e.doc.Selection, "span[class='inline-block-sm hide'] > span.money"); ok {
		sym := models.Some(normalizeCurrency(StripDigits(text, ".,")))
		e.rec.OriginalCurrency = sym
		e.rec.ConvertedCurrency = sym
		if v, err := ExtractInt(text); err == nil {
			e.rec.Goal = models.Some(float64(v))
			e.rec.ConvertedGoal = e.rec.Goal
		}
	} else if v, ok := e.payload.goalAmount(); ok {
		e.rec.Goal = models.Some(v)
		e.rec.ConvertedGoal = e.rec.Goal
		if e.payload.Goal.Symbol != "" {
			sym := models.Some(normalizeCurrency(e.payload.Goal.Symbol))
			e.rec.OriginalCurrency = sym
			e.rec.ConvertedCurrency = sym
		}
	}

	if text, ok := selectText(e.doc.Selection, "span.soft-black"); ok {
		if v, err := ExtractFloat(text); err == nil {
			e.rec.Pledged = models.Some(v)
			e.rec.ConvertedPledged = e.rec.Pledged
		}
	} else if v, ok := e.payload.pledgedAmount(); ok {
		e.rec.Pledged = models.Some(v)
		e.rec.ConvertedPledged = e.rec.Pledged
	}

	if e.rec.Status.Present() {
		e.rec.ConversionRate = models.Some(1.0)
	}
}

// endDate prefers the payload's deadline timestamp; the text fallbacks differ
// per status. Start dates never live on the campaign page itself, they come
// from the updates sub-page via ExtractStartDate.
func (e *campaignExtractor) endDate() {
	if e.payload != nil && e.payload.DeadlineAt > 0 {
		e.rec.EndDate = models.Some(models.DateOf(time.Unix(e.payload.DeadlineAt, 0).UTC()))
		return
	}
	if e.rec.Status.Or("") != models.StatusLive {
		times := e.doc.Find("time[data-format='ll']")
		if times.Length() >= 2 {
			if attr, ok := times.Eq(1).Attr("datetime"); ok && len(attr) >= 10 {
				if t, err := time.Parse("2006-01-02", attr[:10]); err == nil {
					e.rec.EndDate = models.Some(models.DateOf(t))
				}
			}
		}
		return
	}
	// Live pages spell the deadline out inside a fixed-prefix sentence.
	if text, ok := selectText(e.doc.Selection, "p[class='mb3 mb0-lg type-12']"); ok && len(text) > 80 {
		if t, err := time.Parse("January 2 2006 3:04 PM MST -0700.", strings.TrimSpace(text[80:])); err == nil {
			e.rec.EndDate = models.Some(models.DateOf(t))
		}
	}
}

// media counts images and videos only inside the front hero and the campaign
// body. Counting anywhere wider picks up decorative site chrome.
func (e *campaignExtractor) media() {
	photos, videos := 0, 0
	legacy := false

	if hl := e.doc.Find("div[class='grid-row grid-row mb5-lg mb0-md order-0-md order-2-lg']").First(); hl.Length() > 0 {
		legacy = true
		photos += hl.Find("img").Length()
		if n := hl.Find("svg[class='svg-icon__icon--play icon-20 fill-white']").Length(); n > 0 {
			videos += n
		} else {
			videos += hl.Find("video").Length()
		}
	}
	if dc := e.doc.Find("div[class='col col-8 description-container']").First(); dc.Length() > 0 {
		legacy = true
		photos += dc.Find("img").Length()
		videos += dc.Find("video").Length()
		videos += dc.Find("div[class='template oembed']").Length()
	}

	if !legacy {
		if cw := e.doc.Find("div#content-wrap").First(); cw.Length() > 0 {
			videos += cw.Find("video[preload='none']").Length()
			videos += cw.Find("div[class='embedly-card-hug']").Length()
			photos += cw.Find("img.js-feature-image").Length()
		}
		if sc := e.doc.Find("div.story-content").First(); sc.Length() > 0 {
			photos += sc.Find("img").Length()
		}
	}

	e.rec.PhotosCount = photos
	e.rec.VideosCount = videos
}

// labels resolves staff pick, Make 100, category and location. On most pages
// they share one ordered span list whose last two entries are the category
// label and the location; successful pages use their own selectors and never
// show the Make 100 badge at all.
func (e *campaignExtractor) labels() {
	if e.rec.Status.Or("") != models.StatusSuccessful {
		var texts []string
		e.doc.Find("span[class='ml1']").Each(func(_ int, s *goquery.Selection) {
			texts = append(texts, nodeText(s))
		})

		if len(texts) >= 2 {
			e.rec.StaffPick = models.Some(containsString(texts, "Project We Love"))
			e.rec.Make100 = models.Some(containsString(texts, "Make 100"))
			cat, sub := ResolveCategory(texts[len(texts)-2])
			e.rec.Category = models.Some(cat)
			e.rec.Subcategory = sub
			e.rec.Location = models.Some(texts[len(texts)-1])
			return
		}

		if e.payload != nil {
			if c := e.payload.Category; c != nil {
				if c.ParentCategory == nil {
					e.rec.Category = models.Some(c.Name)
				} else {
					e.rec.Category = models.Some(c.ParentCategory.Name)
					e.rec.Subcategory = models.Some(c.Name)
				}
			}
			if e.payload.IsProjectWeLove != nil {
				e.rec.StaffPick = models.Some(*e.payload.IsProjectWeLove)
			}
			if e.payload.Location != nil {
				e.rec.Location = models.Some(e.payload.Location.DisplayableName)
			}
		}
		return
	}

	e.rec.StaffPick = models.Some(e.doc.Find("svg[class='svg-icon__icon--small-k nowrap fill-white icon-14']").Length() > 0)
	// The badge signal does not exist on successful-era pages.
	e.rec.Make100 = models.NA[bool]()

	links := e.doc.Find("a[class='grey-dark mr3 nowrap type-12']")
	if links.Length() >= 2 {
		e.rec.Location = models.Some(nodeText(links.Eq(0)))
		cat, sub := ResolveCategory(nodeText(links.Eq(1)))
		e.rec.Category = models.Some(cat)
		e.rec.Subcategory = sub
	}
}

func (e *campaignExtractor) creatorCounts() {
	// The campaign page carries the creator's created/backed totals, either
	// in the payload or in a "N created · M backed" line.
	if n, ok := e.payload.createdProjects(); ok {
		e.rec.CreatorCreated = models.Some(n)
	}
	if n, ok := e.payload.backedProjects(); ok {
		e.rec.CreatorBacked = models.Some(n)
	}
	if e.rec.CreatorCreated.Present() || e.rec.CreatorBacked.Present() {
		return
	}

	cb := e.doc.Find("[class='created-projects py2 f5 mb3']").First()
	if cb.Length() == 0 {
		return
	}
	parts := strings.Split(strings.ReplaceAll(cb.Text(), "\n", ""), "·")
	if len(parts) != 2 {
		return
	}
	if n, err := ExtractInt(parts[0]); err == nil {
		e.rec.CreatorCreated = models.Some(n)
	} else {
		// Reads "First created" when this is the creator's first campaign.
		e.rec.CreatorCreated = models.Some(1)
	}
	if n, err := ExtractInt(parts[1]); err == nil {
		e.rec.CreatorBacked = models.Some(n)
	}
}

// engagement reads each count from its dedicated anchor. A missing anchor is
// a missing value, never zero; the one exception is the FAQ anchor, which
// drops its counter span instead of showing 0.
func (e *campaignExtractor) engagement() {
	if text, ok := selectText(e.doc.Selection, "data[itemprop='Project[comments_count]']"); ok {
		if n, err := ExtractInt(text); err == nil {
			e.rec.CommentsCount = models.Some(n)
		}
	} else if attr, ok := selectAttr(e.doc.Selection, "data-comments-count", "a#comments-emoji"); ok {
		if n, err := ExtractInt(attr); err == nil {
			e.rec.CommentsCount = models.Some(n)
		}
	}

	if text, ok := selectText(e.doc.Selection, "a[data-content='updates'] > span.count"); ok {
		if n, err := ExtractInt(text); err == nil {
			e.rec.UpdatesCount = models.Some(n)
		}
	} else if attr, ok := selectAttr(e.doc.Selection, "emoji-data", "a#updates-emoji"); ok {
		if n, err := ExtractInt(attr); err == nil {
			e.rec.UpdatesCount = models.Some(n)
		}
	}

	if faq := e.doc.Find("a[data-content='faqs']").First(); faq.Length() > 0 {
		if count := faq.Find("span").First(); count.Length() > 0 {
			if n, err := ExtractInt(count.Text()); err == nil {
				e.rec.FAQCount = models.Some(n)
			}
		} else {
			e.rec.FAQCount = models.Some(0)
		}
	} else if attr, ok := selectAttr(e.doc.Selection, "emoji-data", "a#faq-emoji"); ok {
		if n, err := ExtractInt(attr); err == nil {
			e.rec.FAQCount = models.Some(n)
		}
	}
}

func (e *campaignExtractor) longText() {
	if text, ok := selectText(e.doc.Selection, "div.js-full-description", "div.story-content"); ok {
		e.rec.Description = models.Some(text)
	}

	if risks := e.doc.Find("div.js-risks").First(); risks.Length() > 0 {
		lines := strings.Split(strings.TrimSpace(risks.Text()), "\n")
		// First and last lines are the same boilerplate on every campaign.
		if len(lines) > 2 {
			lines = lines[1 : len(lines)-1]
		}
		e.rec.Risks = models.Some(strings.TrimSpace(strings.Join(lines, "\n")))
	} else if text, ok := selectText(e.doc.Selection, "p.js-risks-text"); ok {
		e.rec.Risks = models.Some(text)
	}
}

func (e *campaignExtractor) tiers() {
	rate := e.rec.ConversionRate.Or(1)

	var elems []*goquery.Selection
	e.doc.Find("li.pledge-selectable-sidebar").Each(func(_ int, s *goquery.Selection) {
		elems = append(elems, s)
	})
	if len(elems) == 0 && e.rewards != nil {
		e.rewards.Find("article[data-test-id]").Each(func(_ int, s *goquery.Selection) {
			elems = append(elems, s)
		})
	}

	for _, elem := range elems {
		tier, err := ExtractPledgeTier(elem, len(e.rec.PledgeTiers), rate)
		if err != nil {
			// A tier without an id is dropped; the campaign keeps the rest.
			continue
		}
		e.rec.PledgeTiers = append(e.rec.PledgeTiers, tier)
	}
}

// ExtractStartDate reads the campaign launch date off an updates sub-page,
// where the first update predating the campaign carries it. Returns the
// campaign URL the date belongs to; the date itself may be missing.
func ExtractStartDate(doc *goquery.Document) (string, models.Opt[models.Date]) {
	url, _ := doc.Find("meta[property='og:url']").First().Attr("content")
	if text, ok := selectText(doc.Selection, "time.invisible-if-js.js-adjust-time"); ok {
		if t, err := time.Parse("January 2, 2006", text); err == nil {
			return url, models.Some(models.DateOf(t))
		}
	}
	return url, models.None[models.Date]()
}

var currentCurrencyRe = regexp.MustCompile(`window\.current_currency = '(\w+)'`)

// currentCurrencyVar digs the campaign currency out of the one-line script
// variable present on live pages without a conversion widget.
func currentCurrencyVar(doc *goquery.Document) (string, bool) {
	var sym string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := currentCurrencyRe.FindStringSubmatch(s.Text()); m != nil {
			sym = m[1]
			return false
		}
		return true
	})
	return sym, sym != ""
}

// Known alternate renderings of currency glyphs, including the two mojibake
// forms that show up in archived pages decoded with the wrong charset.
var currencyFixes = map[string]string{
	"USD":                "$",
	"US$":                "$",
	"\u00c2\u00a3":       "\u00a3", // pound glyph decoded as latin-1
	"\u00e2\u201a\u00ac": "\u20ac", // euro glyph decoded as cp1252
}

func normalizeCurrency(sym string) string {
	if fixed, ok := currencyFixes[sym]; ok {
		return fixed
	}
	return sym
}

func titleCase(s string) string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
