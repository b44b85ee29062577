package sequences

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrSequenceNotFound is returned when a lead was never enrolled.
var ErrSequenceNotFound = errors.New("sequence not found")

// Store persists one sequence per lead.
type Store interface {
	Get(ctx context.Context, leadID string) (*Sequence, error)
	Save(ctx context.Context, seq *Sequence) error
	ListActive(ctx context.Context) ([]*Sequence, error)
}

// Migrations creates the sequence table. It must run after the lead tables.
var Migrations = []string{
	`CREATE TABLE IF NOT EXISTS lead_sequences (
		lead_id            UUID PRIMARY KEY REFERENCES leads (id) ON DELETE CASCADE,
		sequence_type      TEXT NOT NULL,
		status             TEXT NOT NULL,
		pause_reason       TEXT NOT NULL DEFAULT '',
		current_day        INTEGER NOT NULL DEFAULT 0,
		emails_sent        JSONB NOT NULL DEFAULT '{}',
		enrolled_at        TIMESTAMPTZ NOT NULL,
		completed_at       TIMESTAMPTZ,
		unsubscribed_at    TIMESTAMPTZ,
		bounce_type        TEXT NOT NULL DEFAULT '',
		bounce_count       INTEGER NOT NULL DEFAULT 0,
		last_bounce_at     TIMESTAMPTZ,
		last_bounce_reason TEXT NOT NULL DEFAULT '',
		complained_at      TIMESTAMPTZ,
		replied_at         TIMESTAMPTZ,
		paused_at          TIMESTAMPTZ,
		resumed_at         TIMESTAMPTZ,
		updated_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS lead_sequences_status_idx ON lead_sequences (status)`,
}

const sequenceColumns = `lead_id, sequence_type, status, pause_reason, current_day, emails_sent,
	enrolled_at, completed_at, unsubscribed_at,
	bounce_type, bounce_count, last_bounce_at, last_bounce_reason,
	complained_at, replied_at, paused_at, resumed_at, updated_at`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, leadID string) (*Sequence, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sequenceColumns+` FROM lead_sequences WHERE lead_id = $1`, leadID)
	return scanSequence(row)
}

// Save inserts the sequence or overwrites the lead's existing one.
func (s *PostgresStore) Save(ctx context.Context, seq *Sequence) error {
	emails := seq.EmailsSent
	if emails == nil {
		emails = map[int]SentEmail{}
	}
	sent, err := json.Marshal(emails)
	if err != nil {
		return fmt.Errorf("encode emails sent: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO lead_sequences (`+sequenceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (lead_id) DO UPDATE SET
			sequence_type = EXCLUDED.sequence_type,
			status = EXCLUDED.status,
			pause_reason = EXCLUDED.pause_reason,
			current_day = EXCLUDED.current_day,
			emails_sent = EXCLUDED.emails_sent,
			enrolled_at = EXCLUDED.enrolled_at,
			completed_at = EXCLUDED.completed_at,
			unsubscribed_at = EXCLUDED.unsubscribed_at,
			bounce_type = EXCLUDED.bounce_type,
			bounce_count = EXCLUDED.bounce_count,
			last_bounce_at = EXCLUDED.last_bounce_at,
			last_bounce_reason = EXCLUDED.last_bounce_reason,
			complained_at = EXCLUDED.complained_at,
			replied_at = EXCLUDED.replied_at,
			paused_at = EXCLUDED.paused_at,
			resumed_at = EXCLUDED.resumed_at,
			updated_at = EXCLUDED.updated_at`,
		seq.LeadID, string(seq.Type), string(seq.Status), string(seq.PauseReason), seq.CurrentDay, sent,
		seq.EnrolledAt, nullTime(seq.CompletedAt), nullTime(seq.UnsubscribedAt),
		string(seq.BounceType), seq.BounceCount, nullTime(seq.LastBounceAt), seq.LastBounceReason,
		nullTime(seq.ComplainedAt), nullTime(seq.RepliedAt), nullTime(seq.PausedAt), nullTime(seq.ResumedAt),
		seq.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save sequence: %w", err)
	}
	return nil
}

// ListActive returns active sequences, longest enrolled first.
func (s *PostgresStore) ListActive(ctx context.Context) ([]*Sequence, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sequenceColumns+` FROM lead_sequences
		WHERE status = $1 ORDER BY enrolled_at`, string(StatusActive))
	if err != nil {
		return nil, fmt.Errorf("list active sequences: %w", err)
	}
	defer rows.Close()

	var out []*Sequence
	for rows.Next() {
		seq, err := scanSequence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active sequences: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSequence(row scanner) (*Sequence, error) {
	var (
		seq                                  Sequence
		seqType, status, pauseReason, bounce string
		sent                                 []byte
		completed, unsubscribed, lastBounce  sql.NullTime
		complained, replied, paused, resumed sql.NullTime
	)
	err := row.Scan(
		&seq.LeadID, &seqType, &status, &pauseReason, &seq.CurrentDay, &sent,
		&seq.EnrolledAt, &completed, &unsubscribed,
		&bounce, &seq.BounceCount, &lastBounce, &seq.LastBounceReason,
		&complained, &replied, &paused, &resumed, &seq.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSequenceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan sequence: %w", err)
	}
	seq.Type = Type(seqType)
	seq.Status = Status(status)
	seq.PauseReason = PauseReason(pauseReason)
	seq.BounceType = BounceType(bounce)
	seq.EmailsSent = map[int]SentEmail{}
	if len(sent) > 0 {
		if err := json.Unmarshal(sent, &seq.EmailsSent); err != nil {
			return nil, fmt.Errorf("decode emails sent: %w", err)
		}
	}
	seq.CompletedAt = timePtr(completed)
	seq.UnsubscribedAt = timePtr(unsubscribed)
	seq.LastBounceAt = timePtr(lastBounce)
	seq.ComplainedAt = timePtr(complained)
	seq.RepliedAt = timePtr(replied)
	seq.PausedAt = timePtr(paused)
	seq.ResumedAt = timePtr(resumed)
	return &seq, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
