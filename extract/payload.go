package extract

import (
	"encoding/json"

	"github.com/PuerkitoBio/goquery"
)

// Newer campaign pages embed a machine-readable project object in a
// div[data-initial] attribute. When present its values are authoritative and
// win over anything scraped out of display text.

type initialPayload struct {
	Project *projectPayload `json:"project"`
}

type projectPayload struct {
	VerifiedIdentity *string          `json:"verifiedIdentity"`
	State            string           `json:"state"`
	BackersCount     *int             `json:"backersCount"`
	Backers          *countNode       `json:"backers"`
	Collaborators    *collaboratorSet `json:"collaborators"`
	Goal             *moneyNode       `json:"goal"`
	Pledged          *moneyNode       `json:"pledged"`
	DeadlineAt       int64            `json:"deadlineAt"`
	Category         *categoryNode    `json:"category"`
	IsProjectWeLove  *bool            `json:"isProjectWeLove"`
	Location         *locationNode    `json:"location"`
	Creator          *creatorNode     `json:"creator"`
}

type countNode struct {
	TotalCount int `json:"totalCount"`
}

type collaboratorSet struct {
	Edges []collaboratorEdge `json:"edges"`
}

type collaboratorEdge struct {
	Title string `json:"title"`
	Node  struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"node"`
}

type moneyNode struct {
	Amount json.Number `json:"amount"`
	Symbol string      `json:"symbol"`
}

func (m *moneyNode) amount() (float64, bool) {
	if m == nil {
		return 0, false
	}
	v, err := m.Amount.Float64()
	if err != nil {
		return 0, false
	}
	return v, true
}

type categoryNode struct {
	Name           string        `json:"name"`
	ParentCategory *categoryNode `json:"parentCategory"`
}

type locationNode struct {
	DisplayableName string `json:"displayableName"`
}

type creatorNode struct {
	CreatedProjects  *countNode `json:"createdProjects"`
	LaunchedProjects *countNode `json:"launchedProjects"`
	BackedProjects   *countNode `json:"backedProjects"`
	BackingsCount    *int       `json:"backingsCount"`
}

// parsePayload pulls the embedded project object out of the document, or nil
// when the page era predates it or the blob does not decode.
func parsePayload(doc *goquery.Document) *projectPayload {
	raw, ok := doc.Find("div[data-initial]").First().Attr("data-initial")
	if !ok || raw == "" {
		return nil
	}
	var payload initialPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	return payload.Project
}

// createdCount tolerates both shapes the payload has used for the creator's
// created-project total.
func (c *creatorNode) createdCount() (int, bool) {
	if c == nil {
		return 0, false
	}
	if c.CreatedProjects != nil {
		return c.CreatedProjects.TotalCount, true
	}
	if c.LaunchedProjects != nil {
		return c.LaunchedProjects.TotalCount, true
	}
	return 0, false
}

func (c *creatorNode) backedCount() (int, bool) {
	if c == nil {
		return 0, false
	}
	if c.BackedProjects != nil {
		return c.BackedProjects.TotalCount, true
	}
	if c.BackingsCount != nil {
		return *c.BackingsCount, true
	}
	return 0, false
}

func (p *projectPayload) goalAmount() (float64, bool) {
	if p == nil {
		return 0, false
	}
	return p.Goal.amount()
}

func (p *projectPayload) pledgedAmount() (float64, bool) {
	if p == nil {
		return 0, false
	}
	return p.Pledged.amount()
}

func (p *projectPayload) createdProjects() (int, bool) {
	if p == nil {
		return 0, false
	}
	return p.Creator.createdCount()
}

func (p *projectPayload) backedProjects() (int, bool) {
	if p == nil {
		return 0, false
	}
	return p.Creator.backedCount()
}

func (p *projectPayload) backersCount() (int, bool) {
	if p == nil {
		return 0, false
	}
	if p.BackersCount != nil {
		return *p.BackersCount, true
	}
	if p.Backers != nil {
		return p.Backers.TotalCount, true
	}
	return 0, false
}
