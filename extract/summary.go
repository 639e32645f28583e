package extract

import (
	"encoding/json"
	"fmt"
	"time"

	"kickstarter-scraper/models"
)

// Creator pages embed their created/backed project lists as JSON data
// attributes (an array under data-projects, single objects under
// data-project). These are already structured, so extraction is a field
// projection with two conventions: the goal converts to the target currency
// through the object's own FX rate, and the category splits on whether a
// parent category is referenced.

type summaryJSON struct {
	Name  string `json:"name"`
	Blurb string `json:"blurb"`
	URLs  struct {
		Web struct {
			Project string `json:"project"`
		} `json:"web"`
	} `json:"urls"`
	Creator struct {
		ID json.Number `json:"id"`
	} `json:"creator"`
	Currency      string      `json:"currency"`
	StaticUSDRate float64     `json:"static_usd_rate"`
	Goal          float64     `json:"goal"`
	USDPledged    json.Number `json:"usd_pledged"`
	BackersCount  int         `json:"backers_count"`
	State         string      `json:"state"`
	StaffPick     bool        `json:"staff_pick"`
	Location      *struct {
		ShortName string `json:"short_name"`
	} `json:"location"`
	Category struct {
		Name       string `json:"name"`
		ParentName string `json:"parent_name"`
	} `json:"category"`
	CreatedAt  int64 `json:"created_at"`
	LaunchedAt int64 `json:"launched_at"`
	Deadline   int64 `json:"deadline"`
}

// ParseProjectSummary projects one embedded project object into a summary
// record, converting the goal to USD via the object's own static rate.
func ParseProjectSummary(raw []byte) (models.ProjectSummary, error) {
	var obj summaryJSON
	if err := json.Unmarshal(raw, &obj); err != nil {
		return models.ProjectSummary{}, fmt.Errorf("decode project object: %w", err)
	}
	return summaryFromJSON(obj), nil
}

// ParseProjectSummaries parses a data-projects JSON array in order.
func ParseProjectSummaries(raw []byte) ([]models.ProjectSummary, error) {
	var objs []summaryJSON
	if err := json.Unmarshal(raw, &objs); err != nil {
		return nil, fmt.Errorf("decode project list: %w", err)
	}
	summaries := make([]models.ProjectSummary, 0, len(objs))
	for _, obj := range objs {
		summaries = append(summaries, summaryFromJSON(obj))
	}
	return summaries, nil
}

func summaryFromJSON(obj summaryJSON) models.ProjectSummary {
	pledged, _ := obj.USDPledged.Float64()

	s := models.ProjectSummary{
		Name:              obj.Name,
		URL:               obj.URLs.Web.Project,
		CreatorID:         obj.Creator.ID.String(),
		Blurb:             obj.Blurb,
		OriginalCurrency:  obj.Currency,
		ConvertedCurrency: "USD",
		ConversionRate:    obj.StaticUSDRate,
		Goal:              obj.Goal * obj.StaticUSDRate,
		Pledged:           pledged,
		Backers:           obj.BackersCount,
		State:             titleCase(obj.State),
		StaffPick:         obj.StaffPick,
		CreatedDate:       models.DateOf(time.Unix(obj.CreatedAt, 0).UTC()),
		LaunchedDate:      models.DateOf(time.Unix(obj.LaunchedAt, 0).UTC()),
		DeadlineDate:      models.DateOf(time.Unix(obj.Deadline, 0).UTC()),
	}
	if obj.Location != nil {
		s.Location = obj.Location.ShortName
	}
	if obj.Category.ParentName != "" {
		s.Category = obj.Category.ParentName
		s.Subcategory = obj.Category.Name
	} else {
		s.Category = obj.Category.Name
	}
	return s
}
