package sequences

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sequenceColumnNames = []string{
	"lead_id", "sequence_type", "status", "pause_reason", "current_day", "emails_sent",
	"enrolled_at", "completed_at", "unsubscribed_at",
	"bounce_type", "bounce_count", "last_bounce_at", "last_bounce_reason",
	"complained_at", "replied_at", "paused_at", "resumed_at", "updated_at",
}

var enrolledAt = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func createTestStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func addSequenceRow(rows *sqlmock.Rows, leadID, status string, sent string) *sqlmock.Rows {
	return rows.AddRow(
		leadID, "guide-general", status, "", 2, []byte(sent),
		enrolledAt, nil, nil,
		"", 0, nil, "",
		nil, nil, nil, nil, enrolledAt,
	)
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := createTestStore(t)
	sentAt := enrolledAt.Add(48 * time.Hour)
	rows := addSequenceRow(sqlmock.NewRows(sequenceColumnNames), "lead-1", "active",
		`{"0":{"sentAt":"2026-03-02T09:00:00Z","messageId":"ses-0"},"2":{"sentAt":"2026-03-04T09:00:00Z","messageId":"ses-2"}}`)
	mock.ExpectQuery(`SELECT .+ FROM lead_sequences WHERE lead_id = \$1`).
		WithArgs("lead-1").
		WillReturnRows(rows)

	seq, err := store.Get(context.Background(), "lead-1")
	require.NoError(t, err)
	assert.Equal(t, TypeGuideGeneral, seq.Type)
	assert.Equal(t, StatusActive, seq.Status)
	assert.Equal(t, 2, seq.CurrentDay)
	require.Len(t, seq.EmailsSent, 2)
	assert.Equal(t, "ses-2", seq.EmailsSent[2].MessageID)
	assert.True(t, sentAt.Equal(seq.EmailsSent[2].SentAt))
	assert.Nil(t, seq.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_NotFound(t *testing.T) {
	store, mock := createTestStore(t)
	mock.ExpectQuery(`SELECT .+ FROM lead_sequences`).WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "lead-1")
	assert.ErrorIs(t, err, ErrSequenceNotFound)
}

func TestPostgresStore_Get_BadEmailsSent(t *testing.T) {
	store, mock := createTestStore(t)
	mock.ExpectQuery(`SELECT .+ FROM lead_sequences`).
		WillReturnRows(addSequenceRow(sqlmock.NewRows(sequenceColumnNames), "lead-1", "active", `[1,2]`))

	_, err := store.Get(context.Background(), "lead-1")
	assert.ErrorContains(t, err, "decode emails sent")
}

func TestPostgresStore_Save(t *testing.T) {
	store, mock := createTestStore(t)
	completed := enrolledAt.Add(21 * 24 * time.Hour)
	seq := &Sequence{
		LeadID: "lead-1", Type: TypeAssessment, Status: StatusCompleted, CurrentDay: 21,
		EmailsSent: map[int]SentEmail{21: {SentAt: completed, MessageID: "ses-21"}},
		EnrolledAt: enrolledAt, CompletedAt: &completed, UpdatedAt: completed,
	}

	mock.ExpectExec(`INSERT INTO lead_sequences .+ ON CONFLICT \(lead_id\) DO UPDATE`).
		WithArgs(
			"lead-1", "assessment", "completed", "", 21, []byte(`{"21":{"sentAt":"2026-03-23T09:00:00Z","messageId":"ses-21"}}`),
			enrolledAt, sql.NullTime{Time: completed, Valid: true}, sql.NullTime{},
			"", 0, sql.NullTime{}, "",
			sql.NullTime{}, sql.NullTime{}, sql.NullTime{}, sql.NullTime{}, completed,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), seq))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save_Error(t *testing.T) {
	store, mock := createTestStore(t)
	mock.ExpectExec(`INSERT INTO lead_sequences`).
		WillReturnError(errors.New(`insert or update on table "lead_sequences" violates foreign key constraint`))

	err := store.Save(context.Background(), &Sequence{LeadID: "ghost"})
	assert.ErrorContains(t, err, "save sequence")
}

func TestPostgresStore_ListActive(t *testing.T) {
	store, mock := createTestStore(t)
	rows := sqlmock.NewRows(sequenceColumnNames)
	addSequenceRow(rows, "lead-1", "active", `{}`)
	addSequenceRow(rows, "lead-2", "active", ``)
	mock.ExpectQuery(`SELECT .+ FROM lead_sequences\s+WHERE status = \$1 ORDER BY enrolled_at`).
		WithArgs("active").
		WillReturnRows(rows)

	got, err := store.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "lead-2", got[1].LeadID)
	assert.NotNil(t, got[1].EmailsSent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListActive_QueryError(t *testing.T) {
	store, mock := createTestStore(t)
	mock.ExpectQuery(`SELECT .+ FROM lead_sequences`).WillReturnError(errors.New("connection reset"))

	_, err := store.ListActive(context.Background())
	assert.ErrorContains(t, err, "list active sequences")
}

func TestMigrations(t *testing.T) {
	require.Len(t, Migrations, 2)
	assert.Contains(t, Migrations[0], "REFERENCES leads (id)")
	assert.Contains(t, Migrations[0], "JSONB")
}
