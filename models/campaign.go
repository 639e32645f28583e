package models

import "time"

// Campaign status strings, title-cased.
const (
	StatusLive       = "Live"
	StatusSuccessful = "Successful"
	StatusFailed     = "Failed"
	StatusCanceled   = "Canceled"
	StatusSuspended  = "Suspended"
)

// Collaborator is one person listed on a campaign besides the creator.
// Role is empty for past-collaborator mentions.
type Collaborator struct {
	Name string
	URL  string
	Role string
}

// PledgeTier is one reward level within a campaign.
type PledgeTier struct {
	Index             int
	TierID            string
	Title             Opt[string]
	Price             Opt[float64] // in target currency
	Description       Opt[string]
	IncludedItems     []string
	EstimatedDelivery Opt[Date]
	ShippingLocation  Opt[string]
	BackersCount      Opt[int]
	BackerLimit       Opt[int] // missing when unlimited
	SoldOut           bool
}

// CampaignRecord is one crowdfunding campaign snapshot. Records are one-shot:
// produced by a single extraction call and never mutated afterwards.
type CampaignRecord struct {
	URL              string
	ProjectID        string
	CreatorID        string
	Title            string
	CreatorName      string
	Blurb            string
	VerifiedIdentity Opt[string]

	Status Opt[string]

	OriginalCurrency  Opt[string]
	ConvertedCurrency Opt[string]
	ConversionRate    Opt[float64]
	Goal              Opt[float64]
	ConvertedGoal     Opt[float64]
	Pledged           Opt[float64]
	ConvertedPledged  Opt[float64]

	StartDate Opt[Date]
	EndDate   Opt[Date]

	Category    Opt[string]
	Subcategory Opt[string]
	Location    Opt[string]
	StaffPick   Opt[bool]
	Make100     Opt[bool]

	BackersCount   Opt[int]
	CreatorCreated Opt[int] // campaigns this creator has launched
	CreatorBacked  Opt[int] // campaigns this creator has backed
	CommentsCount  Opt[int]
	UpdatesCount   Opt[int]
	FAQCount       Opt[int]
	PhotosCount    int
	VideosCount    int

	Collaborators []Collaborator // nil when the page gave no way to tell
	PledgeTiers   []PledgeTier

	Description Opt[string]
	Risks       Opt[string]

	AccessedAt time.Time
}

// DurationDays is the campaign length in days, present only when both dates
// are and the end does not precede the start. An end before the start means
// at least one of the two dates came from a bad source, so no duration is
// reported rather than a negative one.
func (c *CampaignRecord) DurationDays() Opt[int] {
	start, ok := c.StartDate.Get()
	if !ok {
		return None[int]()
	}
	end, ok := c.EndDate.Get()
	if !ok {
		return None[int]()
	}
	days := start.DaysUntil(end)
	if days < 0 {
		return None[int]()
	}
	return Some(days)
}
