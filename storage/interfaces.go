package storage

import (
	"time"

	"kickstarter-scraper/models"
)

// UpsertResult reports whether an upsert actually wrote a row.
type UpsertResult int

const (
	Inserted UpsertResult = iota
	AlreadyExists
)

// Store persists extracted records. Inserts are idempotent on the natural key
// (campaign URL, creator ID): re-running a batch never duplicates or mutates
// rows already stored. The Has lookups let the pipeline skip identifiers
// handled by an earlier run before paying for a fetch; they cover stored
// records, tombstones and known aliases alike.
type Store interface {
	CreateTables() error
	UpsertCampaign(rec *models.CampaignRecord) (UpsertResult, error)
	UpsertCreator(rec *models.CreatorRecord) (UpsertResult, error)
	HasCampaign(url string) (bool, error)
	HasCreator(creatorID string) (bool, error)
	MarkHiddenProject(summary models.ProjectSummary, seenAt time.Time) error
	MarkDeletedCreator(creatorID string, seenAt time.Time) error
	MarkCreatorAlias(requestedID, creatorID string) error
	Close()
}
