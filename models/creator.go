package models

import "time"

// Comment is one comment left by a creator, with the date text and permalink
// as shown on their comments page.
type Comment struct {
	Text string
	Date string
	Link string
}

// ProjectSummary is a lightweight cross-reference to a campaign, parsed from
// an embedded project data object rather than page markup. Goal and pledged
// are already in the target currency.
type ProjectSummary struct {
	Name              string
	URL               string
	CreatorID         string
	Blurb             string
	OriginalCurrency  string
	ConvertedCurrency string
	ConversionRate    float64
	Goal              float64
	Pledged           float64
	Backers           int
	State             string
	StaffPick         bool
	Location          string
	Category          string
	Subcategory       string
	CreatedDate       Date
	LaunchedDate      Date
	DeadlineDate      Date
}

// CreatorRecord is one creator profile snapshot assembled from the creator's
// about page plus optional created/backed/comments sub-pages.
type CreatorRecord struct {
	CreatorID string
	URL       string

	JoinDate  Opt[Date]
	Location  Opt[string]
	Biography Opt[string]

	NumBacked  Opt[int]
	NumCreated Opt[int]

	Websites     []string
	HasFacebook  bool
	HasTwitter   bool
	HasInstagram bool

	CommentsHidden bool
	Comments       []Comment

	CreatedProjects []ProjectSummary
	BackedProjects  []ProjectSummary

	AccessedAt time.Time
}
