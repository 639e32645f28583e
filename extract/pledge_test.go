package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kickstarter-scraper/models"
)

const sidebarTierHTML = `
<li class="pledge-selectable-sidebar" data-reward-id="4711">
  <h3 class="pledge__title">Early Bird Special</h3>
  <span class="pledge__amount"><span class="money">$25</span></span>
  <div class="pledge__reward-description--expanded">One copy of the game.
Less</div>
  <ul>
    <li class="list-disc">Sticker Quantity: 3</li>
    <li class="list-disc">Poster Quantity: 1</li>
    <li class="list-disc">Game box</li>
  </ul>
  <span class="pledge__detail-info"><time datetime="2019-10-01T00:00:00-04:00">Oct 2019</time></span>
  <span class="pledge__detail-info">Ships anywhere in the world</span>
  <span class="pledge__backer-count">42 backers</span>
  <span class="pledge__limit">Limited (58 left of 100)</span>
</li>`

func TestExtractSidebarTier(t *testing.T) {
	doc := mustDoc(t, sidebarTierHTML)
	sel := doc.Find("li.pledge-selectable-sidebar").First()

	tier, err := ExtractPledgeTier(sel, 0, 1)
	require.NoError(t, err)

	assert.Equal(t, "4711", tier.TierID)
	assert.Equal(t, models.Some("Early Bird Special"), tier.Title)
	assert.Equal(t, models.Some(25.0), tier.Price)
	assert.Equal(t, models.Some("One copy of the game."), tier.Description)
	assert.Equal(t, []string{"3 Sticker", "Poster", "Game box"}, tier.IncludedItems)
	assert.Equal(t, models.Some(models.Date{Year: 2019, Month: 10, Day: 1}), tier.EstimatedDelivery)
	assert.Equal(t, models.Some("Ships anywhere in the world"), tier.ShippingLocation)
	assert.Equal(t, models.Some(42), tier.BackersCount)
	assert.Equal(t, models.Some(100), tier.BackerLimit)
	assert.False(t, tier.SoldOut)
}

func TestExtractSidebarTierSoldOut(t *testing.T) {
	doc := mustDoc(t, `
<li class="pledge-selectable-sidebar" data-reward-id="99">
  <h3 class="pledge__title">Gone</h3>
  <span class="pledge__backer-count">100 backers</span>
  <span class="pledge__limit--all-gone">All gone!</span>
</li>`)
	sel := doc.Find("li.pledge-selectable-sidebar").First()

	tier, err := ExtractPledgeTier(sel, 0, 1)
	require.NoError(t, err)

	assert.True(t, tier.SoldOut)
	// The hidden limit is stood in for by the backer count.
	assert.Equal(t, models.Some(100), tier.BackerLimit)
}

const rewardsTierHTML = `
<article data-test-id="reward-8675309" id="reward-8675309">
  <h3 class="support-700 semibold kds-heading type-18 m0 mr1 text-wrap-balance break-word">Deluxe Box</h3>
  <p class="support-700 type-18 m0 shrink0">€50</p>
  <p class="type-14 lh20px mb0 support-700 text-prewrap">Everything in the box.</p>
  <time datetime="2025-03-01">March 2025</time>
  <div class="flex1"><div class="type-14 lh20px mb0 support-700">Ships worldwide</div></div>
  <span aria-label="25 backers">25 backers</span>
  <div><h3>Limited quantity</h3><p>Limited (75 left of 100)</p></div>
</article>`

func TestExtractRewardsTier(t *testing.T) {
	doc := mustDoc(t, rewardsTierHTML)
	sel := doc.Find("article").First()

	tier, err := ExtractPledgeTier(sel, 2, 1.2)
	require.NoError(t, err)

	assert.Equal(t, 2, tier.Index)
	assert.Equal(t, "reward-8675309", tier.TierID)
	assert.Equal(t, models.Some("Deluxe Box"), tier.Title)
	price, ok := tier.Price.Get()
	require.True(t, ok)
	assert.InDelta(t, 60.0, price, 1e-9)
	assert.Equal(t, models.Some("Everything in the box."), tier.Description)
	assert.Equal(t, models.Some(models.Date{Year: 2025, Month: 3, Day: 1}), tier.EstimatedDelivery)
	assert.Equal(t, models.Some("Ships worldwide"), tier.ShippingLocation)
	assert.Equal(t, models.Some(25), tier.BackersCount)
	assert.Equal(t, models.Some(100), tier.BackerLimit)
	assert.False(t, tier.SoldOut)
}

func TestExtractRewardsTierNoneLeft(t *testing.T) {
	doc := mustDoc(t, `
<article data-test-id="reward-1" id="reward-1">
  <span aria-label="30 backers">30 backers</span>
  <div><h3>Limited quantity</h3><p>None left</p></div>
</article>`)
	sel := doc.Find("article").First()

	tier, err := ExtractPledgeTier(sel, 0, 1)
	require.NoError(t, err)

	assert.True(t, tier.SoldOut)
	assert.Equal(t, models.Some(30), tier.BackerLimit)
}

func TestExtractPledgeTierMalformed(t *testing.T) {
	doc := mustDoc(t, `<li class="pledge-selectable-sidebar"><h3 class="pledge__title">No id</h3></li>`)
	sel := doc.Find("li").First()

	_, err := ExtractPledgeTier(sel, 0, 1)
	assert.ErrorIs(t, err, models.ErrMalformedTier)
}

func TestNormalizeIncludedItem(t *testing.T) {
	assert.Equal(t, "Sticker", normalizeIncludedItem("Sticker Quantity: 1"))
	assert.Equal(t, "3 Sticker", normalizeIncludedItem("Sticker Quantity: 3"))
	assert.Equal(t, "12 Sticker", normalizeIncludedItem("Sticker Quantity: 12"))
	assert.Equal(t, "Plain item", normalizeIncludedItem("  Plain item "))
}

func TestLimitReached(t *testing.T) {
	assert.True(t, limitReached(models.Some(10), models.Some(10)))
	assert.False(t, limitReached(models.Some(10), models.Some(9)))
	// An unlimited tier is never sold out by count.
	assert.False(t, limitReached(models.None[int](), models.Some(10)))
	assert.False(t, limitReached(models.Some(10), models.None[int]()))
}
