package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"kickstarter-scraper/models"
)

// Pledge elements come in two structural shapes: the sidebar li of older
// campaign pages (with one class-name revision in between) and the
// article[data-test-id] cards of the current rewards sub-page. Every field is
// best-effort except the tier id, without which the tier is unusable.

// ExtractPledgeTier parses one pledge element into a tier record. Prices on
// rewards-page tiers are shown in the original currency, so they are
// multiplied by conversionRate; sidebar tiers already display a converted
// amount. Pass 1 when no conversion applies.
func ExtractPledgeTier(sel *goquery.Selection, index int, conversionRate float64) (models.PledgeTier, error) {
	if id, ok := sel.Attr("data-reward-id"); ok && id != "" {
		return extractSidebarTier(sel, index, id)
	}
	if sel.Is("article") {
		if id, ok := sel.Attr("id"); ok && id != "" {
			return extractRewardsTier(sel, index, id, conversionRate)
		}
	}
	return models.PledgeTier{}, models.ErrMalformedTier
}

func extractSidebarTier(sel *goquery.Selection, index int, id string) (models.PledgeTier, error) {
	tier := models.PledgeTier{Index: index, TierID: id}

	if text, ok := selectText(sel, "h3.pledge__title"); ok {
		tier.Title = models.Some(text)
	}

	// The conversion span shows the price in the viewer's currency; campaigns
	// without conversion keep it inside the plain amount span.
	if text, ok := selectText(sel,
		"span.pledge__currency-conversion > span",
		"span.pledge__amount span.money",
	); ok {
		if price, err := ExtractFloat(text); err == nil {
			tier.Price = models.Some(price)
		}
	}

	if desc := sel.Find("div.pledge__reward-description--expanded").First(); desc.Length() > 0 {
		text := strings.ReplaceAll(desc.Text(), "\n", "")
		text = strings.TrimSuffix(strings.TrimSpace(text), "Less")
		tier.Description = models.Some(strings.TrimSpace(text))
	}

	sel.Find("li.list-disc").Each(func(_ int, item *goquery.Selection) {
		tier.IncludedItems = append(tier.IncludedItems, normalizeIncludedItem(item.Text()))
	})

	if attr, ok := selectAttr(sel, "datetime", "span.pledge__detail-info > time"); ok {
		tier.EstimatedDelivery = parseTierDate(attr)
	}

	// The detail spans hold the delivery date and, when the tier ships, the
	// shipping location as a second entry.
	details := sel.Find("span.pledge__detail-info")
	if details.Length() > 1 {
		tier.ShippingLocation = models.Some(nodeText(details.Eq(1)))
	}

	if text, ok := selectText(sel,
		"span.pledge__backer-count",
		"span.block.pledge__backer-count",
	); ok {
		if n, err := ExtractInt(text); err == nil {
			tier.BackersCount = models.Some(n)
		}
	}

	if text, ok := selectText(sel, "span.pledge__limit"); ok {
		if n, err := lastWordInt(text); err == nil {
			tier.BackerLimit = models.Some(n)
		}
	}

	// Sold-out tiers hide their limit, so the backer count stands in for it.
	if sel.Find("span.pledge__limit--all-gone").Length() > 0 {
		tier.BackerLimit = tier.BackersCount
		tier.SoldOut = true
	} else {
		tier.SoldOut = limitReached(tier.BackerLimit, tier.BackersCount)
	}

	return tier, nil
}

func extractRewardsTier(sel *goquery.Selection, index int, id string, conversionRate float64) (models.PledgeTier, error) {
	tier := models.PledgeTier{Index: index, TierID: id}

	if text, ok := selectText(sel, "[class='support-700 semibold kds-heading type-18 m0 mr1 text-wrap-balance break-word']"); ok {
		tier.Title = models.Some(text)
	}

	if text, ok := selectText(sel, "[class='support-700 type-18 m0 shrink0']"); ok {
		if n, err := ExtractInt(text); err == nil {
			tier.Price = models.Some(float64(n) * conversionRate)
		}
	}

	if text, ok := selectText(sel, "[class='type-14 lh20px mb0 support-700 text-prewrap']"); ok {
		tier.Description = models.Some(text)
	}

	if items := sel.Find("[class='flex flex-column justify-between gap7']").First(); items.Length() > 0 {
		items.Find("[class='block ml-0 z3 border border2px border-white radius100p shadow-reward-avatar']").
			Each(func(_ int, item *goquery.Selection) {
				tier.IncludedItems = append(tier.IncludedItems, normalizeIncludedItem(item.Text()))
			})
	}

	if attr, ok := selectAttr(sel, "datetime", "time[datetime]"); ok {
		tier.EstimatedDelivery = parseTierDate(attr)
	}

	if text, ok := selectText(sel, "div.flex1 > div[class='type-14 lh20px mb0 support-700']"); ok {
		tier.ShippingLocation = models.Some(text)
	}

	if text, ok := selectText(sel, "span[aria-label]"); ok {
		if n, err := ExtractInt(text); err == nil {
			tier.BackersCount = models.Some(n)
		}
	}

	// A "Limited quantity" heading precedes a sibling holding the limit. When
	// the sibling says "None left" instead of a number, the tier is sold out
	// and the backer count stands in for the hidden limit.
	if label := findHeading(sel, "Limited quantity"); label != nil {
		n, err := lastWordInt(label.Next().Text())
		if err == nil {
			tier.BackerLimit = models.Some(n)
		} else {
			tier.BackerLimit = tier.BackersCount
			tier.SoldOut = true
			return tier, nil
		}
	}

	tier.SoldOut = limitReached(tier.BackerLimit, tier.BackersCount)
	return tier, nil
}

// limitReached treats a missing limit as not reached: an unlimited tier is
// never sold out by count alone.
func limitReached(limit, backers models.Opt[int]) bool {
	l, ok := limit.Get()
	if !ok {
		return false
	}
	b, ok := backers.Get()
	if !ok {
		return false
	}
	return l == b
}

func findHeading(sel *goquery.Selection, text string) *goquery.Selection {
	var found *goquery.Selection
	sel.Find("h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if strings.Contains(h.Text(), text) {
			found = h
			return false
		}
		return true
	})
	return found
}

func lastWordInt(text string) (int, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, models.ErrNoDigits
	}
	return ExtractInt(fields[len(fields)-1])
}

func parseTierDate(attr string) models.Opt[models.Date] {
	if len(attr) > 10 {
		attr = attr[:10]
	}
	t, err := time.Parse("2006-01-02", attr)
	if err != nil {
		return models.None[models.Date]()
	}
	return models.Some(models.DateOf(t))
}

var quantityRe = regexp.MustCompile(`\s*Quantity:\s*(\d+)\s*`)

// normalizeIncludedItem rewrites the quantity annotation of a reward item:
// "Sticker Quantity: 1" becomes "Sticker", "Sticker Quantity: 3" becomes
// "3 Sticker".
func normalizeIncludedItem(item string) string {
	m := quantityRe.FindStringSubmatchIndex(item)
	if m == nil {
		return strings.TrimSpace(item)
	}
	n := item[m[2]:m[3]]
	rest := strings.TrimSpace(strings.TrimSpace(item[:m[0]]) + " " + strings.TrimSpace(item[m[1]:]))
	if n == "1" {
		return rest
	}
	return strings.TrimSpace(n + " " + rest)
}
