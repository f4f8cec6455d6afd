package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar-coach/internal/model"
)

func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func blipJSON(t *testing.T, blip *model.BlipSubmission) string {
	t.Helper()
	data, err := json.Marshal(blip)
	require.NoError(t, err)
	return string(data)
}

func TestPostgresSaveSubmission(t *testing.T) {
	s, mock := newMockPostgres(t)
	blip := terraformBlip()

	mock.ExpectExec("INSERT INTO submissions").
		WithArgs(pgxmock.AnyArg(), "sess-1", "Terraform", "adopt", "tools",
			pgxmock.AnyArg(), 55.0, 42.0, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec, err := s.SaveSubmission(context.Background(), blip, "sess-1")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 55.0, rec.CompletenessScore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveSubmissionError(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec("INSERT INTO submissions").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(assert.AnError)

	_, err := s.SaveSubmission(context.Background(), terraformBlip(), "sess-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert submission")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetSubmission(t *testing.T) {
	s, mock := newMockPostgres(t)
	blip := terraformBlip()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"id", "session_id", "blip", "completeness", "quality", "created_at"}).
		AddRow("rec-1", "sess-1", blipJSON(t, blip), 55.0, 42.0, created)
	mock.ExpectQuery("SELECT (.+) FROM submissions WHERE id").
		WithArgs("rec-1").
		WillReturnRows(rows)

	rec, err := s.GetSubmission(context.Background(), "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, created, rec.CreatedAt)
	require.NotNil(t, rec.Blip.Name)
	assert.Equal(t, "Terraform", *rec.Blip.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetSubmissionNotFound(t *testing.T) {
	s, mock := newMockPostgres(t)

	rows := pgxmock.NewRows([]string{"id", "session_id", "blip", "completeness", "quality", "created_at"})
	mock.ExpectQuery("SELECT (.+) FROM submissions WHERE id").
		WithArgs("missing").
		WillReturnRows(rows)

	_, err := s.GetSubmission(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListSubmissions(t *testing.T) {
	s, mock := newMockPostgres(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"id", "session_id", "blip", "completeness", "quality", "created_at"}).
		AddRow("rec-1", "sess-1", blipJSON(t, terraformBlip()), 55.0, 42.0, created).
		AddRow("rec-2", "sess-2", `{"name":"Pulumi"}`, 10.0, 7.0, created.Add(-time.Hour))
	mock.ExpectQuery("SELECT (.+) FROM submissions WHERE 1=1 ORDER BY created_at DESC LIMIT").
		WithArgs(100).
		WillReturnRows(rows)

	records, err := s.ListSubmissions(context.Background(), SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Pulumi", *records[1].Blip.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListSubmissionsFiltered(t *testing.T) {
	s, mock := newMockPostgres(t)

	rows := pgxmock.NewRows([]string{"id", "session_id", "blip", "completeness", "quality", "created_at"})
	mock.ExpectQuery(`ring = \$1 AND quadrant = \$2 ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("adopt", "tools", 5, 10).
		WillReturnRows(rows)

	records, err := s.ListSubmissions(context.Background(), SubmissionFilter{
		Ring:     "adopt",
		Quadrant: "tools",
		Limit:    5,
		Offset:   10,
	})
	require.NoError(t, err)
	assert.Empty(t, records)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigrate(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS submissions").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
