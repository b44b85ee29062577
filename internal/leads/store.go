package leads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"prospect-composer/internal/models"
)

// ErrLeadNotFound is returned by store lookups that match no row.
var ErrLeadNotFound = errors.New("lead not found")

// Store persists leads with their notes and contact history.
type Store interface {
	Insert(ctx context.Context, lead *models.Lead) error
	Get(ctx context.Context, leadID string) (*models.Lead, error)
	GetByEmail(ctx context.Context, email string) (*models.Lead, error)
	UpdateSubmission(ctx context.Context, lead *models.Lead) error
	UpdateStatus(ctx context.Context, leadID string, status models.LeadStatus, at time.Time) error
	UpdateTier(ctx context.Context, leadID string, tier models.LeadTier, at time.Time) error
	SetCRMContact(ctx context.Context, leadID, contactID string) error
	InsertNote(ctx context.Context, leadID string, note models.LeadNote) error
	InsertContact(ctx context.Context, leadID string, record models.ContactRecord) error
	List(ctx context.Context, params models.LeadQueryParams) (*models.LeadQueryResult, error)
	Stats(ctx context.Context) (*models.LeadStats, error)
}

// Migrations creates the lead tables. Every statement is idempotent.
var Migrations = []string{
	`CREATE TABLE IF NOT EXISTS leads (
		id               UUID PRIMARY KEY,
		email            TEXT NOT NULL UNIQUE,
		first_name       TEXT NOT NULL,
		last_name        TEXT NOT NULL,
		company          TEXT NOT NULL DEFAULT '',
		phone            TEXT NOT NULL DEFAULT '',
		message          TEXT NOT NULL DEFAULT '',
		form_type        TEXT NOT NULL,
		resource_slug    TEXT NOT NULL DEFAULT '',
		resource_title   TEXT NOT NULL DEFAULT '',
		source_page      TEXT NOT NULL DEFAULT '',
		utm_source       TEXT NOT NULL DEFAULT '',
		utm_medium       TEXT NOT NULL DEFAULT '',
		utm_campaign     TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL DEFAULT 'new',
		tier             TEXT NOT NULL DEFAULT '',
		industry         TEXT NOT NULL DEFAULT '',
		tags             TEXT[] NOT NULL DEFAULT '{}',
		assigned_to      TEXT NOT NULL DEFAULT '',
		assessment_score INTEGER,
		assessment_tier  TEXT NOT NULL DEFAULT '',
		crm_contact_id   TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL,
		last_activity_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS leads_status_idx ON leads (status)`,
	`CREATE INDEX IF NOT EXISTS leads_created_at_idx ON leads (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS lead_notes (
		id         UUID PRIMARY KEY,
		lead_id    UUID NOT NULL REFERENCES leads (id) ON DELETE CASCADE,
		content    TEXT NOT NULL,
		author     TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS lead_contacts (
		id           UUID PRIMARY KEY,
		lead_id      UUID NOT NULL REFERENCES leads (id) ON DELETE CASCADE,
		channel      TEXT NOT NULL,
		contacted_at TIMESTAMPTZ NOT NULL,
		campaign     TEXT NOT NULL DEFAULT '',
		notes        TEXT NOT NULL DEFAULT ''
	)`,
}

const leadColumns = `id, email, first_name, last_name, company, phone, message,
	form_type, resource_slug, resource_title, source_page,
	utm_source, utm_medium, utm_campaign,
	status, tier, industry, tags, assigned_to,
	assessment_score, assessment_tier, crm_contact_id,
	created_at, updated_at, last_activity_at`

// PostgresStore is the lib/pq backed Store.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, lead *models.Lead) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		lead.LeadID, lead.Email, lead.FirstName, lead.LastName, lead.Company, lead.Phone, lead.Message,
		string(lead.FormType), lead.ResourceSlug, lead.ResourceTitle, lead.SourcePage,
		lead.UTMSource, lead.UTMMedium, lead.UTMCampaign,
		string(lead.Status), string(lead.Tier), lead.Industry, pq.Array(lead.Tags), lead.AssignedTo,
		nullInt(lead.AssessmentScore), lead.AssessmentTier, lead.CRMContactID,
		lead.CreatedAt, lead.UpdatedAt, nullTime(lead.LastActivityAt),
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, leadID string) (*models.Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, leadID)
	lead, err := scanLead(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadHistory(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*models.Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE email = $1`, email)
	return scanLead(row)
}

// UpdateSubmission rewrites the fields a repeat form submission may change.
func (s *PostgresStore) UpdateSubmission(ctx context.Context, lead *models.Lead) error {
	return s.execOne(ctx, "update lead submission", `
		UPDATE leads SET
			first_name = $2, last_name = $3, company = $4, phone = $5, message = $6,
			tier = $7, industry = $8, assessment_score = $9, assessment_tier = $10,
			updated_at = $11, last_activity_at = $12
		WHERE id = $1`,
		lead.LeadID, lead.FirstName, lead.LastName, lead.Company, lead.Phone, lead.Message,
		string(lead.Tier), lead.Industry, nullInt(lead.AssessmentScore), lead.AssessmentTier,
		lead.UpdatedAt, nullTime(lead.LastActivityAt),
	)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, leadID string, status models.LeadStatus, at time.Time) error {
	return s.execOne(ctx, "update lead status",
		`UPDATE leads SET status = $2, updated_at = $3 WHERE id = $1`, leadID, string(status), at)
}

func (s *PostgresStore) UpdateTier(ctx context.Context, leadID string, tier models.LeadTier, at time.Time) error {
	return s.execOne(ctx, "update lead tier",
		`UPDATE leads SET tier = $2, updated_at = $3 WHERE id = $1`, leadID, string(tier), at)
}

func (s *PostgresStore) SetCRMContact(ctx context.Context, leadID, contactID string) error {
	return s.execOne(ctx, "set crm contact",
		`UPDATE leads SET crm_contact_id = $2 WHERE id = $1`, leadID, contactID)
}

// InsertNote adds a note and bumps the lead's activity timestamps in one
// transaction.
func (s *PostgresStore) InsertNote(ctx context.Context, leadID string, note models.LeadNote) error {
	return s.withActivity(ctx, leadID, note.CreatedAt, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO lead_notes (id, lead_id, content, author, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			note.ID, leadID, note.Content, note.Author, note.CreatedAt)
		return err
	})
}

func (s *PostgresStore) InsertContact(ctx context.Context, leadID string, record models.ContactRecord) error {
	return s.withActivity(ctx, leadID, record.ContactedAt, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO lead_contacts (id, lead_id, channel, contacted_at, campaign, notes)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			record.ID, leadID, string(record.Channel), record.ContactedAt, record.Campaign, record.Notes)
		return err
	})
}

func (s *PostgresStore) List(ctx context.Context, params models.LeadQueryParams) (*models.LeadQueryResult, error) {
	where, args := buildFilter(params)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count leads: %w", err)
	}

	query := `SELECT ` + leadColumns + ` FROM leads` + where + orderBy(params) +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, params.Limit, params.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	result := &models.LeadQueryResult{Leads: []models.Lead{}, TotalCount: total}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		result.Leads = append(result.Leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return result, nil
}

func (s *PostgresStore) Stats(ctx context.Context) (*models.LeadStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, tier, industry, form_type, COUNT(*)
		FROM leads
		GROUP BY status, tier, industry, form_type`)
	if err != nil {
		return nil, fmt.Errorf("lead stats: %w", err)
	}
	defer rows.Close()

	stats := &models.LeadStats{
		ByStatus:   map[models.LeadStatus]int{},
		ByTier:     map[string]int{},
		ByIndustry: map[string]int{},
		ByFormType: map[models.FormType]int{},
	}
	for _, st := range models.LeadStatuses {
		stats.ByStatus[st] = 0
	}
	for _, ft := range models.FormTypes {
		stats.ByFormType[ft] = 0
	}
	for rows.Next() {
		var status, tier, industry, formType string
		var n int
		if err := rows.Scan(&status, &tier, &industry, &formType, &n); err != nil {
			return nil, fmt.Errorf("lead stats: %w", err)
		}
		if tier == "" {
			tier = "unassigned"
		}
		if industry == "" {
			industry = "unknown"
		}
		stats.TotalLeads += n
		stats.ByStatus[models.LeadStatus(status)] += n
		stats.ByTier[tier] += n
		stats.ByIndustry[industry] += n
		stats.ByFormType[models.FormType(formType)] += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lead stats: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) loadHistory(ctx context.Context, lead *models.Lead) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, author, created_at FROM lead_notes
		WHERE lead_id = $1 ORDER BY created_at`, lead.LeadID)
	if err != nil {
		return fmt.Errorf("load notes: %w", err)
	}
	for rows.Next() {
		var n models.LeadNote
		if err := rows.Scan(&n.ID, &n.Content, &n.Author, &n.CreatedAt); err != nil {
			rows.Close()
			return fmt.Errorf("scan note: %w", err)
		}
		lead.Notes = append(lead.Notes, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load notes: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT id, channel, contacted_at, campaign, notes FROM lead_contacts
		WHERE lead_id = $1 ORDER BY contacted_at`, lead.LeadID)
	if err != nil {
		return fmt.Errorf("load contacts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c models.ContactRecord
		var channel string
		if err := rows.Scan(&c.ID, &channel, &c.ContactedAt, &c.Campaign, &c.Notes); err != nil {
			return fmt.Errorf("scan contact: %w", err)
		}
		c.Channel = models.ContactChannel(channel)
		lead.ContactHistory = append(lead.ContactHistory, c)
	}
	return rows.Err()
}

func (s *PostgresStore) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func (s *PostgresStore) withActivity(ctx context.Context, leadID string, at time.Time, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE leads SET updated_at = $2, last_activity_at = $2 WHERE id = $1`, leadID, at)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("touch lead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_ = tx.Rollback()
		return ErrLeadNotFound
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert lead history: %w", err)
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row scanner) (*models.Lead, error) {
	var (
		lead                   models.Lead
		formType, status, tier string
		score                  sql.NullInt64
		lastActivity           sql.NullTime
	)
	err := row.Scan(
		&lead.LeadID, &lead.Email, &lead.FirstName, &lead.LastName, &lead.Company, &lead.Phone, &lead.Message,
		&formType, &lead.ResourceSlug, &lead.ResourceTitle, &lead.SourcePage,
		&lead.UTMSource, &lead.UTMMedium, &lead.UTMCampaign,
		&status, &tier, &lead.Industry, pq.Array(&lead.Tags), &lead.AssignedTo,
		&score, &lead.AssessmentTier, &lead.CRMContactID,
		&lead.CreatedAt, &lead.UpdatedAt, &lastActivity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan lead: %w", err)
	}
	lead.FormType = models.FormType(formType)
	lead.Status = models.LeadStatus(status)
	lead.Tier = models.LeadTier(tier)
	if score.Valid {
		v := int(score.Int64)
		lead.AssessmentScore = &v
	}
	if lastActivity.Valid {
		t := lastActivity.Time
		lead.LastActivityAt = &t
	}
	return &lead, nil
}

func buildFilter(p models.LeadQueryParams) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	add := func(clause string, v interface{}) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if p.Status != "" {
		add("status = $%d", string(p.Status))
	}
	if p.Tier != "" {
		add("tier = $%d", string(p.Tier))
	}
	if p.Industry != "" {
		add("industry = $%d", p.Industry)
	}
	if p.FormType != "" {
		add("form_type = $%d", string(p.FormType))
	}
	if q := strings.TrimSpace(p.Search); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(email ILIKE $%[1]d OR first_name ILIKE $%[1]d OR last_name ILIKE $%[1]d OR company ILIKE $%[1]d)", n))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func orderBy(p models.LeadQueryParams) string {
	col := "created_at"
	if p.SortBy == models.SortByLastActivityAt {
		col = "last_activity_at"
	}
	dir := "DESC"
	if strings.EqualFold(p.SortOrder, "asc") {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s NULLS LAST", col, dir)
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
