package extract

import (
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kickstarter-scraper/models"
)

const aboutPageHTML = `<html>
<head><meta property="og:url" content="https://www.kickstarter.com/profile/janedoe"></head>
<body>
<span class="joined"><time datetime="2015-04-10T09:30:00-04:00">April 2015</time></span>
<span class="location do-not-visually-track"><a href="#">Berlin, Germany</a></span>
<div class="grid-col-12 grid-col-8-sm grid-col-6-md">I make games.</div>
<span class="backed">Backed 17 projects</span>
<a class="js-created-link" href="#"><span>5</span></a>
<ul class="menu-submenu mb6">
  <li><a href="https://www.facebook.com/janedoe">Facebook</a></li>
  <li><a href="https://janedoe.example.com">Website</a></li>
</ul>
</body>
</html>`

func TestExtractCreator(t *testing.T) {
	at := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	rec, err := ExtractCreator(CreatorPages{
		About:      mustDoc(t, aboutPageHTML),
		AccessedAt: at,
	})
	require.NoError(t, err)

	assert.Equal(t, "janedoe", rec.CreatorID)
	assert.Equal(t, "https://www.kickstarter.com/profile/janedoe", rec.URL)
	assert.Equal(t, models.Some(models.Date{Year: 2015, Month: 4, Day: 10}), rec.JoinDate)
	assert.Equal(t, models.Some("Berlin, Germany"), rec.Location)
	assert.Equal(t, models.Some("I make games."), rec.Biography)
	assert.Equal(t, models.Some(17), rec.NumBacked)
	assert.Equal(t, models.Some(5), rec.NumCreated)

	assert.Equal(t, []string{"https://www.facebook.com/janedoe", "https://janedoe.example.com"}, rec.Websites)
	assert.True(t, rec.HasFacebook)
	assert.False(t, rec.HasTwitter)
	assert.False(t, rec.HasInstagram)

	// No comments page fetched means the creator hides them.
	assert.True(t, rec.CommentsHidden)
	assert.Empty(t, rec.Comments)
	assert.Equal(t, at, rec.AccessedAt)
}

func TestExtractCreatorMissingJoinDate(t *testing.T) {
	rec, err := ExtractCreator(CreatorPages{
		About: mustDoc(t, `<html>
<head><meta property="og:url" content="https://www.kickstarter.com/profile/ghost"></head>
<body></body></html>`),
	})
	require.NoError(t, err)

	assert.Equal(t, "ghost", rec.CreatorID)
	assert.True(t, rec.JoinDate.Missing())
	assert.True(t, rec.Location.Missing())
	assert.True(t, rec.NumBacked.Missing())
}

func TestExtractCreatorMissingIdentity(t *testing.T) {
	_, err := ExtractCreator(CreatorPages{
		About: mustDoc(t, `<html><body>deleted</body></html>`),
	})
	assert.ErrorIs(t, err, models.ErrMissingIdentity)
}

func TestExtractCreatorProjectLists(t *testing.T) {
	created := mustDoc(t, `<html><body>
<div data-projects='[{"name":"First","urls":{"web":{"project":"https://www.kickstarter.com/projects/janedoe/first"}}},{"name":"Second","urls":{"web":{"project":"https://www.kickstarter.com/projects/janedoe/second"}}}]'></div>
</body></html>`)
	backed := mustDoc(t, `<html><body>
<div data-project='{"name":"Other","urls":{"web":{"project":"https://www.kickstarter.com/projects/bob/other"}}}'></div>
</body></html>`)

	rec, err := ExtractCreator(CreatorPages{
		About:   mustDoc(t, aboutPageHTML),
		Created: []*goquery.Document{created},
		Backed:  backed,
	})
	require.NoError(t, err)

	require.Len(t, rec.CreatedProjects, 2)
	assert.Equal(t, "First", rec.CreatedProjects[0].Name)
	assert.Equal(t, "Second", rec.CreatedProjects[1].Name)
	require.Len(t, rec.BackedProjects, 1)
	assert.Equal(t, "Other", rec.BackedProjects[0].Name)
}

func TestExtractCreatorComments(t *testing.T) {
	comments := mustDoc(t, `<html><body>
<li class="page flex flex-wrap"><ol>
  <li><p class="body">Great project!</p><a class="read-more" href="/projects/x/y/comments"><time>June 1, 2019</time></a></li>
</ol></li>
</body></html>`)

	rec, err := ExtractCreator(CreatorPages{
		About:    mustDoc(t, aboutPageHTML),
		Comments: comments,
	})
	require.NoError(t, err)

	assert.False(t, rec.CommentsHidden)
	require.Len(t, rec.Comments, 1)
	assert.Equal(t, models.Comment{
		Text: "Great project!",
		Date: "June 1, 2019",
		Link: "https://www.kickstarter.com/projects/x/y/comments",
	}, rec.Comments[0])
}

func TestHasBackedPage(t *testing.T) {
	visible := mustDoc(t, `<html><body>
<a class="js-backed-link" href="#">Backed</a>
<span class="backed">Backed 17 projects</span>
</body></html>`)
	assert.True(t, HasBackedPage(visible))

	zero := mustDoc(t, `<html><body>
<a class="js-backed-link" href="#">Backed</a>
<span class="backed">Backed 0 projects</span>
</body></html>`)
	assert.False(t, HasBackedPage(zero))

	// No backed nav link means the tab is hidden regardless of the count.
	noLink := mustDoc(t, `<html><body><span class="backed">Backed 17 projects</span></body></html>`)
	assert.False(t, HasBackedPage(noLink))
}

func TestNextPageHref(t *testing.T) {
	doc := mustDoc(t, `<html><body><a rel="next" href="/profile/janedoe/created?page=2">Next</a></body></html>`)
	href, ok := NextPageHref(doc)
	assert.True(t, ok)
	assert.Equal(t, "/profile/janedoe/created?page=2", href)

	doc = mustDoc(t, `<html><body></body></html>`)
	_, ok = NextPageHref(doc)
	assert.False(t, ok)
}
