package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kickstarter-scraper/config"
	"kickstarter-scraper/fetch"
	"kickstarter-scraper/models"
	"kickstarter-scraper/storage"
	"kickstarter-scraper/utils"
)

// fakeFetcher serves canned HTML per page kind and records what was asked of
// it. An unspecified kind gets an empty page, a set err fails every fetch.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[fetch.PageKind]string
	err   error
	kinds []fetch.PageKind
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string, kind fetch.PageKind) (*fetch.Document, error) {
	f.mu.Lock()
	f.kinds = append(f.kinds, kind)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	html, ok := f.pages[kind]
	if !ok {
		html = "<html><body></body></html>"
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &fetch.Document{Document: doc, AccessedAt: time.Now()}, nil
}

func (f *fakeFetcher) fetchedKinds() []fetch.PageKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fetch.PageKind(nil), f.kinds...)
}

// memStore keeps everything in maps so tests can assert exactly what the
// pipeline asked it to persist.
type memStore struct {
	mu              sync.Mutex
	campaigns       map[string]bool
	creators        map[string]bool
	deletedCreators []string
	hiddenProjects  []string
	aliases         map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		campaigns: make(map[string]bool),
		creators:  make(map[string]bool),
		aliases:   make(map[string]string),
	}
}

func (s *memStore) CreateTables() error { return nil }

func (s *memStore) UpsertCampaign(rec *models.CampaignRecord) (storage.UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.campaigns[rec.URL] {
		return storage.AlreadyExists, nil
	}
	s.campaigns[rec.URL] = true
	return storage.Inserted, nil
}

func (s *memStore) UpsertCreator(rec *models.CreatorRecord) (storage.UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creators[rec.CreatorID] {
		return storage.AlreadyExists, nil
	}
	s.creators[rec.CreatorID] = true
	return storage.Inserted, nil
}

func (s *memStore) HasCampaign(url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.campaigns[url], nil
}

func (s *memStore) HasCreator(creatorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creators[creatorID] {
		return true, nil
	}
	if _, ok := s.aliases[creatorID]; ok {
		return true, nil
	}
	for _, id := range s.deletedCreators {
		if id == creatorID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) MarkHiddenProject(summary models.ProjectSummary, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hiddenProjects = append(s.hiddenProjects, summary.URL)
	return nil
}

func (s *memStore) MarkDeletedCreator(creatorID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletedCreators = append(s.deletedCreators, creatorID)
	return nil
}

func (s *memStore) MarkCreatorAlias(requestedID, creatorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aliases[requestedID] = creatorID
	return nil
}

func (s *memStore) Close() {}

func testConfig() *config.Config {
	return &config.Config{
		MaxConcurrency: 1,
		RateLimitDelay: 1,
		BaseURL:        "https://www.kickstarter.com",
	}
}

const profileAboutHTML = `<html>
<head><meta property="og:url" content="https://www.kickstarter.com/profile/janedoe"></head>
<body>
<a class="js-backed-link" href="#">Backed</a>
<span class="backed">Backed 17 projects</span>
</body>
</html>`

const profileAboutNoBackedHTML = `<html>
<head><meta property="og:url" content="https://www.kickstarter.com/profile/janedoe"></head>
<body>
<span class="backed">Backed 0 projects</span>
</body>
</html>`

func TestRunCreatorsDeletedProfile(t *testing.T) {
	fetcher := &fakeFetcher{err: models.ErrDeletedOrHidden}
	store := newMemStore()
	p := NewPipeline(testConfig(), utils.NewLogger(), fetcher, store)

	require.NoError(t, p.RunCreators(context.Background(), []string{"ghost"}))

	// No record, a tombstone instead.
	assert.Empty(t, store.creators)
	assert.Equal(t, []string{"ghost"}, store.deletedCreators)
	assert.Equal(t, 1, p.Report().DeletedHidden)
	assert.Equal(t, []fetch.PageKind{fetch.PageAbout}, fetcher.fetchedKinds())
}

func TestRunCreatorsFetchesBackedOnlyWhenShown(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[fetch.PageKind]string{
		fetch.PageAbout: profileAboutHTML,
	}}
	store := newMemStore()
	p := NewPipeline(testConfig(), utils.NewLogger(), fetcher, store)

	require.NoError(t, p.RunCreators(context.Background(), []string{"janedoe"}))
	assert.Contains(t, fetcher.fetchedKinds(), fetch.PageBacked)
	assert.True(t, store.creators["janedoe"])
}

func TestRunCreatorsSkipsEmptyBackedListing(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[fetch.PageKind]string{
		fetch.PageAbout: profileAboutNoBackedHTML,
	}}
	store := newMemStore()
	p := NewPipeline(testConfig(), utils.NewLogger(), fetcher, store)

	require.NoError(t, p.RunCreators(context.Background(), []string{"janedoe"}))

	// Zero backings and no backed nav link means no backed page to fetch.
	assert.NotContains(t, fetcher.fetchedKinds(), fetch.PageBacked)
	assert.Contains(t, fetcher.fetchedKinds(), fetch.PageCreated)
	assert.True(t, store.creators["janedoe"])
}

func TestRunCreatorsRecordsAlias(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[fetch.PageKind]string{
		fetch.PageAbout: profileAboutNoBackedHTML,
	}}
	store := newMemStore()
	p := NewPipeline(testConfig(), utils.NewLogger(), fetcher, store)

	// The requested vanity ID redirects to the canonical profile.
	require.NoError(t, p.RunCreators(context.Background(), []string{"old-name"}))

	assert.True(t, store.creators["janedoe"])
	assert.Equal(t, map[string]string{"old-name": "janedoe"}, store.aliases)
}

func TestRunCampaignsSkipsAlreadyStored(t *testing.T) {
	url := "https://www.kickstarter.com/projects/janedoe/cool-game"
	fetcher := &fakeFetcher{}
	store := newMemStore()
	store.campaigns[url] = true
	p := NewPipeline(testConfig(), utils.NewLogger(), fetcher, store)

	require.NoError(t, p.RunCampaigns(context.Background(), []models.ProjectSummary{{URL: url}}))

	// The stored URL never reaches the fetcher.
	assert.Empty(t, fetcher.fetchedKinds())
	assert.Equal(t, 1, p.Report().AlreadyStored)
}

func TestRunCreatorsSkipsAlreadyStored(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := newMemStore()
	store.creators["janedoe"] = true
	p := NewPipeline(testConfig(), utils.NewLogger(), fetcher, store)

	require.NoError(t, p.RunCreators(context.Background(), []string{"janedoe"}))

	assert.Empty(t, fetcher.fetchedKinds())
	assert.Equal(t, 1, p.Report().AlreadyStored)
}

func TestMergeSeedFillsGapsOnly(t *testing.T) {
	rec := &models.CampaignRecord{
		URL:     "https://www.kickstarter.com/projects/janedoe/cool-game",
		Status:  models.Some("Live"),
		Goal:    models.Some(9000.0),
		Pledged: models.Some(100.0),
	}
	seed := models.ProjectSummary{
		URL:               rec.URL,
		State:             "Successful",
		OriginalCurrency:  "GBP",
		ConvertedCurrency: "USD",
		ConversionRate:    1.25,
		Goal:              12500,
		Pledged:           500,
		Backers:           42,
		Location:          "London, UK",
		Category:          "Games",
		Subcategory:       "Tabletop Games",
		LaunchedDate:      models.Date{Year: 2019, Month: 4, Day: 1},
		DeadlineDate:      models.Date{Year: 2019, Month: 5, Day: 1},
	}

	mergeSeed(rec, seed)

	// The page's own observations win over the seed.
	assert.Equal(t, models.Some("Live"), rec.Status)
	assert.Equal(t, models.Some(9000.0), rec.Goal)

	// Gaps fill in from the seed.
	assert.Equal(t, models.Some("GBP"), rec.OriginalCurrency)
	assert.Equal(t, models.Some("USD"), rec.ConvertedCurrency)
	assert.Equal(t, models.Some(1.25), rec.ConversionRate)
	assert.Equal(t, models.Some(12500.0), rec.ConvertedGoal)
	assert.Equal(t, models.Some(500.0), rec.ConvertedPledged)
	assert.Equal(t, models.Some(42), rec.BackersCount)
	assert.Equal(t, models.Some("London, UK"), rec.Location)
	assert.Equal(t, models.Some("Games"), rec.Category)
	assert.Equal(t, models.Some("Tabletop Games"), rec.Subcategory)
	assert.Equal(t, models.Some(models.Date{Year: 2019, Month: 4, Day: 1}), rec.StartDate)
	assert.Equal(t, models.Some(models.Date{Year: 2019, Month: 5, Day: 1}), rec.EndDate)
	assert.Equal(t, models.Some(30), rec.DurationDays())
}

func TestMergeSeedEmptySeed(t *testing.T) {
	rec := &models.CampaignRecord{URL: "x"}
	mergeSeed(rec, models.ProjectSummary{URL: "x"})

	assert.True(t, rec.Status.Missing())
	assert.True(t, rec.ConversionRate.Missing())
	assert.True(t, rec.StartDate.Missing())
	// Staff pick stays missing when the seed carries no state either.
	assert.True(t, rec.StaffPick.Missing())
}

func TestMissingCampaignFields(t *testing.T) {
	rec := &models.CampaignRecord{
		Status:       models.Some("Successful"),
		Goal:         models.Some(1.0),
		Pledged:      models.Some(2.0),
		BackersCount: models.Some(3),
		Category:     models.Some("Games"),
		Location:     models.Some("Austin, TX"),
		EndDate:      models.Some(models.Date{Year: 2019, Month: 5, Day: 1}),
	}
	assert.Empty(t, missingCampaignFields(rec))

	bare := &models.CampaignRecord{}
	assert.ElementsMatch(t,
		[]string{"status", "goal", "pledged", "backers_count", "category", "location", "end_date"},
		missingCampaignFields(bare))
}
