package fetch

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// PageKind names the sub-pages a single identifier fans out to.
type PageKind string

const (
	PageAbout    PageKind = "about"
	PageCreated  PageKind = "created"
	PageBacked   PageKind = "backed"
	PageComments PageKind = "comments"
	PageCampaign PageKind = "campaign"
	PageRewards  PageKind = "rewards"
	PageUpdates  PageKind = "updates"
)

// Document is a fully loaded, parsed page plus the time it was captured.
type Document struct {
	*goquery.Document
	AccessedAt time.Time
}

// Fetcher retrieves a rendered document for a URL and page kind. CAPTCHA
// challenges are resolved internally; deleted, hidden and 404 pages come back
// as models.ErrDeletedOrHidden so the extraction core never sees them.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string, kind PageKind) (*Document, error)
}
