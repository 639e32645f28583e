package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"kickstarter-scraper/config"
	"kickstarter-scraper/extract"
	"kickstarter-scraper/fetch"
	"kickstarter-scraper/models"
	"kickstarter-scraper/storage"
	"kickstarter-scraper/utils"
)

// maxCreatedPages caps pagination on a creator's created listing. Nobody real
// has more than a handful of pages; a broken next link must not loop forever.
const maxCreatedPages = 20

// Pipeline runs one batch: fan identifiers out to workers, fetch, extract,
// store, and tally the run report.
type Pipeline struct {
	cfg     *config.Config
	logger  *utils.Logger
	fetcher fetch.Fetcher
	store   storage.Store
	limiter *utils.RateLimiter
	tracker *utils.URLTracker

	mu      sync.Mutex
	report  *models.RunReport
	missing []storage.MissingFieldRow
}

// NewPipeline creates a pipeline over the given fetcher and store.
func NewPipeline(cfg *config.Config, logger *utils.Logger, fetcher fetch.Fetcher, store storage.Store) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		logger:  logger,
		fetcher: fetcher,
		store:   store,
		limiter: utils.NewRateLimiter(cfg.RateLimitDelay),
		tracker: utils.NewURLTracker(),
		report: &models.RunReport{
			ByStatus:      make(map[string]int),
			ByCategory:    make(map[string]int),
			MissingFields: make(map[string]int),
		},
	}
}

// Report returns the tallies collected so far.
func (p *Pipeline) Report() *models.RunReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.report
}

// MissingFieldRows returns the per-record quality rows for the CSV report.
func (p *Pipeline) MissingFieldRows() []storage.MissingFieldRow {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.missing
}

// RunCampaigns processes seed rows concurrently. Every seed is attempted;
// per-seed failures are tallied, not fatal.
func (p *Pipeline) RunCampaigns(ctx context.Context, seeds []models.ProjectSummary) error {
	p.logger.Info("Campaign run: %d seeds, %d workers", len(seeds), p.cfg.MaxConcurrency)

	jobs := make(chan models.ProjectSummary)
	var wg sync.WaitGroup
	for i := 0; i < p.cfg.MaxConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seed := range jobs {
				p.limiter.Wait()
				p.processCampaignSeed(ctx, seed)
			}
		}()
	}

	for _, seed := range seeds {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- seed:
		}
	}
	close(jobs)
	wg.Wait()
	return nil
}

func (p *Pipeline) processCampaignSeed(ctx context.Context, seed models.ProjectSummary) {
	if !p.tracker.Add(seed.URL) {
		p.logger.Debug("Skipping duplicate seed: %s", seed.URL)
		return
	}
	p.count(func(r *models.RunReport) { r.Processed++ })

	// An earlier run may have stored this URL or marked it hidden; looking it
	// up is far cheaper than a page render.
	if stored, err := p.store.HasCampaign(seed.URL); err != nil {
		p.logger.Error("Store lookup failed for %s: %v", seed.URL, err)
	} else if stored {
		p.logger.Debug("Already stored: %s", seed.URL)
		p.count(func(r *models.RunReport) { r.AlreadyStored++ })
		return
	}

	doc, err := p.fetcher.Fetch(ctx, seed.URL, fetch.PageCampaign)
	if errors.Is(err, models.ErrDeletedOrHidden) {
		p.logger.Warn("Hidden or deleted project: %s", seed.URL)
		if err := p.store.MarkHiddenProject(seed, time.Now()); err != nil {
			p.logger.Error("Mark hidden failed for %s: %v", seed.URL, err)
		}
		p.count(func(r *models.RunReport) { r.DeletedHidden++ })
		return
	}
	if err != nil {
		p.logger.Error("Fetch failed for %s: %v", seed.URL, err)
		p.count(func(r *models.RunReport) { r.Failed++ })
		return
	}

	// Current-era pages keep reward tiers on a separate rewards route; the
	// legacy era inlines them in the sidebar.
	var rewardsDoc *fetch.Document
	if doc.Find("li.pledge-selectable-sidebar").Length() == 0 {
		p.limiter.Wait()
		rewardsDoc, err = p.fetcher.Fetch(ctx, strings.TrimSuffix(seed.URL, "/")+"/rewards", fetch.PageRewards)
		if err != nil {
			p.logger.Warn("Rewards page unavailable for %s: %v", seed.URL, err)
			rewardsDoc = nil
		}
	}

	rec, err := p.extractCampaign(doc, rewardsDoc)
	if err != nil {
		p.logger.Error("Extraction failed for %s: %v", seed.URL, err)
		p.count(func(r *models.RunReport) { r.Failed++ })
		return
	}
	mergeSeed(rec, seed)
	p.storeCampaign(rec)
}

func (p *Pipeline) extractCampaign(doc, rewardsDoc *fetch.Document) (*models.CampaignRecord, error) {
	if rewardsDoc != nil {
		return extract.ExtractCampaign(doc.Document, rewardsDoc.Document, doc.AccessedAt)
	}
	return extract.ExtractCampaign(doc.Document, nil, doc.AccessedAt)
}

// storeCampaign upserts the record and tallies it.
func (p *Pipeline) storeCampaign(rec *models.CampaignRecord) {
	res, err := p.store.UpsertCampaign(rec)
	if err != nil {
		p.logger.Error("Store failed for %s: %v", rec.URL, err)
		p.count(func(r *models.RunReport) { r.Failed++ })
		return
	}

	missing := missingCampaignFields(rec)
	p.mu.Lock()
	switch res {
	case storage.Inserted:
		p.report.Inserted++
	case storage.AlreadyExists:
		p.report.AlreadyStored++
	}
	if status, ok := rec.Status.Get(); ok {
		p.report.ByStatus[status]++
	}
	if cat, ok := rec.Category.Get(); ok {
		p.report.ByCategory[cat]++
	}
	p.report.TotalPledged += rec.ConvertedPledged.Or(0)
	p.report.TotalTiers += len(rec.PledgeTiers)
	for _, f := range missing {
		p.report.MissingFields[f]++
	}
	if len(missing) > 0 {
		p.missing = append(p.missing, storage.MissingFieldRow{URL: rec.URL, Fields: missing})
	}
	p.mu.Unlock()
}

// mergeSeed fills record gaps from the discovery row. The page itself wins
// wherever it produced a value; the seed only covers what the page era
// dropped.
func mergeSeed(rec *models.CampaignRecord, seed models.ProjectSummary) {
	if rec.Status.Missing() && seed.State != "" {
		rec.Status = models.Some(seed.State)
	}
	if rec.OriginalCurrency.Missing() && seed.OriginalCurrency != "" {
		rec.OriginalCurrency = models.Some(seed.OriginalCurrency)
	}
	if rec.ConvertedCurrency.Missing() && seed.ConvertedCurrency != "" {
		rec.ConvertedCurrency = models.Some(seed.ConvertedCurrency)
	}
	if rec.ConversionRate.Missing() && seed.ConversionRate > 0 {
		rec.ConversionRate = models.Some(seed.ConversionRate)
	}
	if rec.ConvertedGoal.Missing() && seed.Goal > 0 {
		rec.ConvertedGoal = models.Some(seed.Goal)
	}
	if rec.ConvertedPledged.Missing() && seed.Pledged > 0 {
		rec.ConvertedPledged = models.Some(seed.Pledged)
	}
	if rec.BackersCount.Missing() && seed.Backers > 0 {
		rec.BackersCount = models.Some(seed.Backers)
	}
	if rec.StartDate.Missing() && !seed.LaunchedDate.IsZero() {
		rec.StartDate = models.Some(seed.LaunchedDate)
	}
	if rec.EndDate.Missing() && !seed.DeadlineDate.IsZero() {
		rec.EndDate = models.Some(seed.DeadlineDate)
	}
	if rec.StaffPick.Missing() && seed.State != "" {
		rec.StaffPick = models.Some(seed.StaffPick)
	}
	if rec.Location.Missing() && seed.Location != "" {
		rec.Location = models.Some(seed.Location)
	}
	if rec.Category.Missing() && seed.Category != "" {
		rec.Category = models.Some(seed.Category)
		if seed.Subcategory != "" {
			rec.Subcategory = models.Some(seed.Subcategory)
		}
	}
}

// RunCreators processes creator profile IDs concurrently.
func (p *Pipeline) RunCreators(ctx context.Context, ids []string) error {
	p.logger.Info("Creator run: %d profiles, %d workers", len(ids), p.cfg.MaxConcurrency)

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < p.cfg.MaxConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				p.limiter.Wait()
				p.processCreator(ctx, id)
			}
		}()
	}

	for _, id := range ids {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- id:
		}
	}
	close(jobs)
	wg.Wait()
	return nil
}

func (p *Pipeline) processCreator(ctx context.Context, id string) {
	profileURL := fmt.Sprintf("%s/profile/%s", p.cfg.BaseURL, id)
	if !p.tracker.Add(profileURL) {
		return
	}
	p.count(func(r *models.RunReport) { r.Processed++ })

	if stored, err := p.store.HasCreator(id); err != nil {
		p.logger.Error("Store lookup failed for creator %s: %v", id, err)
	} else if stored {
		p.logger.Debug("Already stored: %s", id)
		p.count(func(r *models.RunReport) { r.AlreadyStored++ })
		return
	}

	about, err := p.fetcher.Fetch(ctx, profileURL+"/about", fetch.PageAbout)
	if errors.Is(err, models.ErrDeletedOrHidden) {
		p.logger.Warn("Deleted creator: %s", id)
		if err := p.store.MarkDeletedCreator(id, time.Now()); err != nil {
			p.logger.Error("Mark deleted failed for %s: %v", id, err)
		}
		p.count(func(r *models.RunReport) { r.DeletedHidden++ })
		return
	}
	if err != nil {
		p.logger.Error("Fetch failed for creator %s: %v", id, err)
		p.count(func(r *models.RunReport) { r.Failed++ })
		return
	}

	pages := extract.CreatorPages{
		About:      about.Document,
		AccessedAt: about.AccessedAt,
	}

	pages.Created = p.fetchCreatedPages(ctx, profileURL)

	// The backed listing is the slowest page to render (infinite scroll), so
	// it is only fetched when the about nav shows a non-empty backed tab.
	if extract.HasBackedPage(about.Document) {
		p.limiter.Wait()
		if backed, err := p.fetcher.Fetch(ctx, profileURL+"/backed", fetch.PageBacked); err == nil {
			pages.Backed = backed.Document
		} else {
			p.logger.Warn("Backed page unavailable for %s: %v", id, err)
		}
	}

	p.limiter.Wait()
	if comments, err := p.fetcher.Fetch(ctx, profileURL+"/comments", fetch.PageComments); err == nil {
		pages.Comments = comments.Document
	}

	rec, err := extract.ExtractCreator(pages)
	if err != nil {
		p.logger.Error("Extraction failed for creator %s: %v", id, err)
		p.count(func(r *models.RunReport) { r.Failed++ })
		return
	}

	// Vanity IDs redirect to the canonical profile; remember the mapping so
	// the same creator is not refetched under another name.
	if rec.CreatorID != id {
		p.logger.Info("Creator %s resolves to %s", id, rec.CreatorID)
		if err := p.store.MarkCreatorAlias(id, rec.CreatorID); err != nil {
			p.logger.Error("Mark alias failed for %s: %v", id, err)
		}
	}

	res, err := p.store.UpsertCreator(rec)
	if err != nil {
		p.logger.Error("Store failed for creator %s: %v", id, err)
		p.count(func(r *models.RunReport) { r.Failed++ })
		return
	}
	switch res {
	case storage.Inserted:
		p.count(func(r *models.RunReport) { r.Inserted++ })
	case storage.AlreadyExists:
		p.count(func(r *models.RunReport) { r.AlreadyStored++ })
	}
}

// fetchCreatedPages follows the created listing's pagination to the end.
func (p *Pipeline) fetchCreatedPages(ctx context.Context, profileURL string) []*goquery.Document {
	var docs []*goquery.Document
	pageURL := profileURL + "/created"
	for i := 0; i < maxCreatedPages; i++ {
		p.limiter.Wait()
		doc, err := p.fetcher.Fetch(ctx, pageURL, fetch.PageCreated)
		if err != nil {
			p.logger.Warn("Created page unavailable (%s): %v", pageURL, err)
			break
		}
		docs = append(docs, doc.Document)
		next, ok := extract.NextPageHref(doc.Document)
		if !ok {
			break
		}
		if strings.HasPrefix(next, "/") {
			next = p.cfg.BaseURL + next
		}
		pageURL = next
	}
	return docs
}

// RunArchive replays saved snapshots. Updates pages are indexed first so
// their launch dates can be merged into the campaign records they belong to.
func (p *Pipeline) RunArchive(ctx context.Context, archive *fetch.Archive) error {
	pages, err := archive.Pages()
	if err != nil {
		return err
	}

	var campaigns []fetch.ArchivedPage
	rewardsByDir := make(map[string]fetch.ArchivedPage)
	startDates := make(map[string]models.Date)

	for _, page := range pages {
		switch page.Kind {
		case fetch.PageCampaign:
			campaigns = append(campaigns, page)
		case fetch.PageRewards:
			rewardsByDir[page.Dir+"/"+page.Slug] = page
		case fetch.PageUpdates:
			doc, err := archive.Load(page)
			if err != nil {
				p.logger.Warn("Bad updates snapshot %s: %v", page.Path, err)
				continue
			}
			url, date := extract.ExtractStartDate(doc.Document)
			if d, ok := date.Get(); ok && url != "" {
				startDates[url] = d
			}
		}
	}
	p.logger.Info("Archive run: %d campaign snapshots, %d launch dates, %d workers",
		len(campaigns), len(startDates), p.cfg.MaxConcurrency)

	jobs := make(chan fetch.ArchivedPage)
	var wg sync.WaitGroup
	for i := 0; i < p.cfg.MaxConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range jobs {
				p.processSnapshot(archive, page, rewardsByDir, startDates)
			}
		}()
	}

	for _, page := range campaigns {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- page:
		}
	}
	close(jobs)
	wg.Wait()
	return nil
}

func (p *Pipeline) processSnapshot(archive *fetch.Archive, page fetch.ArchivedPage, rewardsByDir map[string]fetch.ArchivedPage, startDates map[string]models.Date) {
	p.count(func(r *models.RunReport) { r.Processed++ })

	doc, err := archive.Load(page)
	if err != nil {
		p.logger.Error("Bad snapshot %s: %v", page.Path, err)
		p.count(func(r *models.RunReport) { r.Failed++ })
		return
	}

	var rewardsDoc *fetch.Document
	if rewards, ok := rewardsByDir[page.Dir+"/"+page.Slug]; ok {
		if rd, err := archive.Load(rewards); err == nil {
			rewardsDoc = rd
		}
	}

	rec, err := p.extractCampaign(doc, rewardsDoc)
	if errors.Is(err, models.ErrMissingIdentity) {
		p.logger.Warn("Snapshot without identity (deleted before capture?): %s", page.Path)
		p.count(func(r *models.RunReport) { r.DeletedHidden++ })
		return
	}
	if err != nil {
		p.logger.Error("Extraction failed for %s: %v", page.Path, err)
		p.count(func(r *models.RunReport) { r.Failed++ })
		return
	}

	if !p.tracker.Add(rec.URL) {
		p.logger.Debug("Duplicate snapshot for %s", rec.URL)
		p.count(func(r *models.RunReport) { r.AlreadyStored++ })
		return
	}
	if rec.StartDate.Missing() {
		if d, ok := startDates[rec.URL]; ok {
			rec.StartDate = models.Some(d)
		}
	}
	p.storeCampaign(rec)
}

// missingCampaignFields lists the important fields absent from a record.
// Not-applicable fields are fine; only genuinely missing ones count.
func missingCampaignFields(rec *models.CampaignRecord) []string {
	var missing []string
	check := func(name string, absent bool) {
		if absent {
			missing = append(missing, name)
		}
	}
	check("status", rec.Status.Missing())
	check("goal", rec.Goal.Missing() && rec.ConvertedGoal.Missing())
	check("pledged", rec.Pledged.Missing() && rec.ConvertedPledged.Missing())
	check("backers_count", rec.BackersCount.Missing())
	check("category", rec.Category.Missing())
	check("location", rec.Location.Missing())
	check("end_date", rec.EndDate.Missing())
	return missing
}

func (p *Pipeline) count(fn func(*models.RunReport)) {
	p.mu.Lock()
	fn(p.report)
	p.mu.Unlock()
}
