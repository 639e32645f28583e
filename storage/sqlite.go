package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"kickstarter-scraper/models"
	"kickstarter-scraper/utils"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists records in a local SQLite file. Useful for runs on a
// laptop where standing up PostgreSQL is overkill. SQLite allows one writer,
// so all writes serialize through a mutex.
type SQLiteStore struct {
	db     *sql.DB
	logger *utils.Logger
	mu     sync.Mutex
}

// NewSQLiteStore opens (or creates) the database file.
func NewSQLiteStore(path string, logger *utils.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.Info("Opened SQLite database at %s", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

// CreateTables creates all tables if they don't exist
func (s *SQLiteStore) CreateTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS campaigns (
		url                TEXT PRIMARY KEY,
		project_id         TEXT,
		creator_id         TEXT,
		title              TEXT NOT NULL,
		creator_name       TEXT,
		blurb              TEXT,
		verified_identity  TEXT,
		status             TEXT,
		original_currency  TEXT,
		converted_currency TEXT,
		conversion_rate    REAL,
		goal               REAL,
		converted_goal     REAL,
		pledged            REAL,
		converted_pledged  REAL,
		start_date         TEXT,
		end_date           TEXT,
		duration_days      INTEGER,
		category           TEXT,
		subcategory        TEXT,
		location           TEXT,
		staff_pick         INTEGER,
		make_100           TEXT,
		backers_count      INTEGER,
		creator_created    INTEGER,
		creator_backed     INTEGER,
		comments_count     INTEGER,
		updates_count      INTEGER,
		faq_count          INTEGER,
		photos_count       INTEGER NOT NULL DEFAULT 0,
		videos_count       INTEGER NOT NULL DEFAULT 0,
		collaborators      TEXT,
		description        TEXT,
		risks              TEXT,
		accessed_at        TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pledge_tiers (
		campaign_url       TEXT NOT NULL,
		tier_index         INTEGER NOT NULL,
		tier_id            TEXT,
		title              TEXT,
		price              REAL,
		description        TEXT,
		included_items     TEXT,
		estimated_delivery TEXT,
		shipping_location  TEXT,
		backers_count      INTEGER,
		backer_limit       INTEGER,
		sold_out           INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (campaign_url, tier_index)
	);

	CREATE TABLE IF NOT EXISTS creators (
		creator_id       TEXT PRIMARY KEY,
		url              TEXT,
		join_date        TEXT,
		location         TEXT,
		biography        TEXT,
		num_backed       INTEGER,
		num_created      INTEGER,
		websites         TEXT,
		has_facebook     INTEGER NOT NULL DEFAULT 0,
		has_twitter      INTEGER NOT NULL DEFAULT 0,
		has_instagram    INTEGER NOT NULL DEFAULT 0,
		comments_hidden  INTEGER NOT NULL DEFAULT 0,
		comments         TEXT,
		created_projects TEXT,
		backed_projects  TEXT,
		accessed_at      TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS deleted_creators (
		creator_id TEXT PRIMARY KEY,
		seen_at    TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS creator_aliases (
		requested_id TEXT PRIMARY KEY,
		creator_id   TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS hidden_projects (
		url         TEXT PRIMARY KEY,
		name        TEXT,
		creator_id  TEXT,
		category    TEXT,
		subcategory TEXT,
		state       TEXT,
		goal        REAL,
		pledged     REAL,
		backers     INTEGER,
		seen_at     TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_campaigns_status   ON campaigns (status);
	CREATE INDEX IF NOT EXISTS idx_campaigns_category ON campaigns (category);
	CREATE INDEX IF NOT EXISTS idx_campaigns_creator  ON campaigns (creator_id);
	CREATE INDEX IF NOT EXISTS idx_tiers_campaign     ON pledge_tiers (campaign_url);
	`
	_, err := s.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	s.logger.Info("Schema is ready")
	return nil
}

func (s *SQLiteStore) UpsertCampaign(rec *models.CampaignRecord) (UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return AlreadyExists, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.Exec(`
		INSERT OR IGNORE INTO campaigns (
			url, project_id, creator_id, title, creator_name, blurb,
			verified_identity, status, original_currency, converted_currency,
			conversion_rate, goal, converted_goal, pledged, converted_pledged,
			start_date, end_date, duration_days, category, subcategory,
			location, staff_pick, make_100, backers_count, creator_created,
			creator_backed, comments_count, updates_count, faq_count,
			photos_count, videos_count, collaborators, description, risks,
			accessed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		          ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.URL, rec.ProjectID, rec.CreatorID, rec.Title, rec.CreatorName,
		rec.Blurb, nullString(rec.VerifiedIdentity), nullString(rec.Status),
		nullString(rec.OriginalCurrency), nullString(rec.ConvertedCurrency),
		nullFloat(rec.ConversionRate), nullFloat(rec.Goal),
		nullFloat(rec.ConvertedGoal), nullFloat(rec.Pledged),
		nullFloat(rec.ConvertedPledged), nullDate(rec.StartDate),
		nullDate(rec.EndDate), nullInt(rec.DurationDays()),
		nullString(rec.Category), nullString(rec.Subcategory),
		nullString(rec.Location), nullBool(rec.StaffPick),
		triState(rec.Make100), nullInt(rec.BackersCount),
		nullInt(rec.CreatorCreated), nullInt(rec.CreatorBacked),
		nullInt(rec.CommentsCount), nullInt(rec.UpdatesCount),
		nullInt(rec.FAQCount), rec.PhotosCount, rec.VideosCount,
		jsonText(rec.Collaborators), nullString(rec.Description),
		nullString(rec.Risks), rec.AccessedAt,
	)
	if err != nil {
		return AlreadyExists, fmt.Errorf("insert campaign %s: %w", rec.URL, err)
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		_ = tx.Rollback()
		return AlreadyExists, nil
	}

	for _, tier := range rec.PledgeTiers {
		_, err = tx.Exec(`
			INSERT OR IGNORE INTO pledge_tiers (
				campaign_url, tier_index, tier_id, title, price, description,
				included_items, estimated_delivery, shipping_location,
				backers_count, backer_limit, sold_out
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			rec.URL, tier.Index, tier.TierID, nullString(tier.Title),
			nullFloat(tier.Price), nullString(tier.Description),
			jsonText(tier.IncludedItems), nullDate(tier.EstimatedDelivery),
			nullString(tier.ShippingLocation), nullInt(tier.BackersCount),
			nullInt(tier.BackerLimit), tier.SoldOut,
		)
		if err != nil {
			return AlreadyExists, fmt.Errorf("insert tier %d of %s: %w", tier.Index, rec.URL, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return AlreadyExists, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return Inserted, nil
}

func (s *SQLiteStore) UpsertCreator(rec *models.CreatorRecord) (UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		INSERT OR IGNORE INTO creators (
			creator_id, url, join_date, location, biography, num_backed,
			num_created, websites, has_facebook, has_twitter, has_instagram,
			comments_hidden, comments, created_projects, backed_projects,
			accessed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.CreatorID, rec.URL, nullDate(rec.JoinDate),
		nullString(rec.Location), nullString(rec.Biography),
		nullInt(rec.NumBacked), nullInt(rec.NumCreated),
		jsonText(rec.Websites), rec.HasFacebook, rec.HasTwitter,
		rec.HasInstagram, rec.CommentsHidden, jsonText(rec.Comments),
		jsonText(rec.CreatedProjects), jsonText(rec.BackedProjects),
		rec.AccessedAt,
	)
	if err != nil {
		return AlreadyExists, fmt.Errorf("insert creator %s: %w", rec.CreatorID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return AlreadyExists, nil
	}
	return Inserted, nil
}

func (s *SQLiteStore) HasCampaign(url string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM campaigns WHERE url = ?)
		    OR EXISTS (SELECT 1 FROM hidden_projects WHERE url = ?)
	`, url, url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup campaign %s: %w", url, err)
	}
	return exists, nil
}

func (s *SQLiteStore) HasCreator(creatorID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM creators WHERE creator_id = ?)
		    OR EXISTS (SELECT 1 FROM deleted_creators WHERE creator_id = ?)
		    OR EXISTS (SELECT 1 FROM creator_aliases WHERE requested_id = ?)
	`, creatorID, creatorID, creatorID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup creator %s: %w", creatorID, err)
	}
	return exists, nil
}

func (s *SQLiteStore) MarkHiddenProject(summary models.ProjectSummary, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO hidden_projects (
			url, name, creator_id, category, subcategory, state, goal,
			pledged, backers, seen_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		summary.URL, summary.Name, summary.CreatorID, summary.Category,
		summary.Subcategory, summary.State, summary.Goal, summary.Pledged,
		summary.Backers, seenAt,
	)
	if err != nil {
		return fmt.Errorf("mark hidden project %s: %w", summary.URL, err)
	}
	return nil
}

func (s *SQLiteStore) MarkDeletedCreator(creatorID string, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO deleted_creators (creator_id, seen_at)
		VALUES (?, ?)
	`, creatorID, seenAt)
	if err != nil {
		return fmt.Errorf("mark deleted creator %s: %w", creatorID, err)
	}
	return nil
}

func (s *SQLiteStore) MarkCreatorAlias(requestedID, creatorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO creator_aliases (requested_id, creator_id)
		VALUES (?, ?)
	`, requestedID, creatorID)
	if err != nil {
		return fmt.Errorf("mark creator alias %s -> %s: %w", requestedID, creatorID, err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}
