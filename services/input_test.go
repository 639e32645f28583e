package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kickstarter-scraper/models"
)

func TestLoadSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.csv")
	csv := `url,name,creator_id,state,original_currency,converted_currency,conversion_rate,goal,pledged,backers,staff_pick,location,category,subcategory,launched_date,deadline_date
https://www.kickstarter.com/projects/janedoe/cool-game,Cool Game,123,Successful,GBP,USD,1.25,12500,29320.97,1234,true,"London, UK",Games,Tabletop Games,2019-04-01,2019-05-01
https://www.kickstarter.com/projects/acme/gizmo,Gizmo,456,Live,EUR,USD,1.2,,,,,,,,,
,skipped row without url,,,,,,,,,,,,,,
`
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	seeds, err := LoadSeeds(path)
	require.NoError(t, err)
	require.Len(t, seeds, 2)

	first := seeds[0]
	assert.Equal(t, "https://www.kickstarter.com/projects/janedoe/cool-game", first.URL)
	assert.Equal(t, "Cool Game", first.Name)
	assert.Equal(t, "123", first.CreatorID)
	assert.Equal(t, "Successful", first.State)
	assert.Equal(t, 1.25, first.ConversionRate)
	assert.Equal(t, 12500.0, first.Goal)
	assert.Equal(t, 1234, first.Backers)
	assert.True(t, first.StaffPick)
	assert.Equal(t, "London, UK", first.Location)
	assert.Equal(t, "Tabletop Games", first.Subcategory)
	assert.Equal(t, models.Date{Year: 2019, Month: 4, Day: 1}, first.LaunchedDate)
	assert.Equal(t, models.Date{Year: 2019, Month: 5, Day: 1}, first.DeadlineDate)

	second := seeds[1]
	assert.Equal(t, "Gizmo", second.Name)
	assert.Zero(t, second.Goal)
	assert.True(t, second.LaunchedDate.IsZero())
}

func TestLoadSeedsNoURLColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,goal\nx,1\n"), 0644))

	_, err := LoadSeeds(path)
	assert.Error(t, err)
}

func TestLoadCreatorIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	require.NoError(t, os.WriteFile(path, []byte("janedoe\n\n# a comment\n  bob  \n"), 0644))

	ids, err := LoadCreatorIDs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"janedoe", "bob"}, ids)
}

func TestLoadCreatorIDsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.json")
	require.NoError(t, os.WriteFile(path, []byte(`["janedoe", "bob"]`), 0644))

	ids, err := LoadCreatorIDs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"janedoe", "bob"}, ids)
}
