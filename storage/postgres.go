package storage

import (
	"database/sql"
	"fmt"
	"time"

	"kickstarter-scraper/models"
	"kickstarter-scraper/utils"

	_ "github.com/lib/pq"
)

// PostgresStore persists campaign and creator records in PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresStore opens the connection pool and pings the DB
func NewPostgresStore(connStr string, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 5)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.Info("Connected to PostgreSQL successfully")
	return &PostgresStore{db: db, logger: logger}, nil
}

// CreateTables creates all tables if they don't exist, with indexes
func (s *PostgresStore) CreateTables() error {
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
		conversion_rate    NUMERIC(12,6),
		goal               NUMERIC(14,2),
		converted_goal     NUMERIC(14,2),
		pledged            NUMERIC(14,2),
		converted_pledged  NUMERIC(14,2),
		start_date         DATE,
		end_date           DATE,
		duration_days      INTEGER,
		category           TEXT,
		subcategory        TEXT,
		location           TEXT,
		staff_pick         BOOLEAN,
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
		campaign_url       TEXT NOT NULL REFERENCES campaigns (url),
		tier_index         INTEGER NOT NULL,
		tier_id            TEXT,
		title              TEXT,
		price              NUMERIC(14,2),
		description        TEXT,
		included_items     TEXT,
		estimated_delivery DATE,
		shipping_location  TEXT,
		backers_count      INTEGER,
		backer_limit       INTEGER,
		sold_out           BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (campaign_url, tier_index)
	);

	CREATE TABLE IF NOT EXISTS creators (
		creator_id       TEXT PRIMARY KEY,
		url              TEXT,
		join_date        DATE,
		location         TEXT,
		biography        TEXT,
		num_backed       INTEGER,
		num_created      INTEGER,
		websites         TEXT,
		has_facebook     BOOLEAN NOT NULL DEFAULT FALSE,
		has_twitter      BOOLEAN NOT NULL DEFAULT FALSE,
		has_instagram    BOOLEAN NOT NULL DEFAULT FALSE,
		comments_hidden  BOOLEAN NOT NULL DEFAULT FALSE,
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
		goal        NUMERIC(14,2),
		pledged     NUMERIC(14,2),
		backers     INTEGER,
		seen_at     TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_campaigns_status    ON campaigns (status);
	CREATE INDEX IF NOT EXISTS idx_campaigns_category  ON campaigns (category);
	CREATE INDEX IF NOT EXISTS idx_campaigns_creator   ON campaigns (creator_id);
	CREATE INDEX IF NOT EXISTS idx_tiers_campaign      ON pledge_tiers (campaign_url);
	`
	_, err := s.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	s.logger.Info("Schema is ready")
	return nil
}

// UpsertCampaign stores one campaign and its pledge tiers in a transaction.
// A URL already present leaves the stored row untouched.
func (s *PostgresStore) UpsertCampaign(rec *models.CampaignRecord) (UpsertResult, error) {
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
		INSERT INTO campaigns (
			url, project_id, creator_id, title, creator_name, blurb,
			verified_identity, status, original_currency, converted_currency,
			conversion_rate, goal, converted_goal, pledged, converted_pledged,
			start_date, end_date, duration_days, category, subcategory,
			location, staff_pick, make_100, backers_count, creator_created,
			creator_backed, comments_count, updates_count, faq_count,
			photos_count, videos_count, collaborators, description, risks,
			accessed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28,
			$29, $30, $31, $32, $33, $34, $35
		)
		ON CONFLICT (url) DO NOTHING
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

	stmt, err := tx.Prepare(`
		INSERT INTO pledge_tiers (
			campaign_url, tier_index, tier_id, title, price, description,
			included_items, estimated_delivery, shipping_location,
			backers_count, backer_limit, sold_out
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (campaign_url, tier_index) DO NOTHING
	`)
	if err != nil {
		return AlreadyExists, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, tier := range rec.PledgeTiers {
		_, err = stmt.Exec(
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

// UpsertCreator stores one creator profile; an ID already present is left
// untouched.
func (s *PostgresStore) UpsertCreator(rec *models.CreatorRecord) (UpsertResult, error) {
	res, err := s.db.Exec(`
		INSERT INTO creators (
			creator_id, url, join_date, location, biography, num_backed,
			num_created, websites, has_facebook, has_twitter, has_instagram,
			comments_hidden, comments, created_projects, backed_projects,
			accessed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (creator_id) DO NOTHING
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

// HasCampaign reports whether the URL was already handled by an earlier run,
// either as a stored campaign or a hidden-project tombstone.
func (s *PostgresStore) HasCampaign(url string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM campaigns WHERE url = $1)
		    OR EXISTS (SELECT 1 FROM hidden_projects WHERE url = $1)
	`, url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup campaign %s: %w", url, err)
	}
	return exists, nil
}

// HasCreator reports whether the ID was already handled: stored, marked
// deleted, or recorded as an alias of a stored profile.
func (s *PostgresStore) HasCreator(creatorID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM creators WHERE creator_id = $1)
		    OR EXISTS (SELECT 1 FROM deleted_creators WHERE creator_id = $1)
		    OR EXISTS (SELECT 1 FROM creator_aliases WHERE requested_id = $1)
	`, creatorID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup creator %s: %w", creatorID, err)
	}
	return exists, nil
}

// MarkHiddenProject records a project whose page is hidden so later runs skip
// the fetch entirely.
func (s *PostgresStore) MarkHiddenProject(summary models.ProjectSummary, seenAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO hidden_projects (
			url, name, creator_id, category, subcategory, state, goal,
			pledged, backers, seen_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (url) DO NOTHING
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

// MarkDeletedCreator records a creator whose profile no longer exists.
func (s *PostgresStore) MarkDeletedCreator(creatorID string, seenAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO deleted_creators (creator_id, seen_at)
		VALUES ($1, $2)
		ON CONFLICT (creator_id) DO NOTHING
	`, creatorID, seenAt)
	if err != nil {
		return fmt.Errorf("mark deleted creator %s: %w", creatorID, err)
	}
	return nil
}

// MarkCreatorAlias records that the requested profile ID redirects to a
// different canonical ID, so future runs recognize both.
func (s *PostgresStore) MarkCreatorAlias(requestedID, creatorID string) error {
	_, err := s.db.Exec(`
		INSERT INTO creator_aliases (requested_id, creator_id)
		VALUES ($1, $2)
		ON CONFLICT (requested_id) DO NOTHING
	`, requestedID, creatorID)
	if err != nil {
		return fmt.Errorf("mark creator alias %s -> %s: %w", requestedID, creatorID, err)
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}
