// Package store persists completed blip submissions.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/radar-coach/internal/model"
)

// SubmissionRecord is one persisted submission.
type SubmissionRecord struct {
	ID                string                `json:"id"`
	SessionID         string                `json:"session_id"`
	Blip              model.BlipSubmission  `json:"blip"`
	CompletenessScore float64               `json:"completeness_score"`
	QualityScore      float64               `json:"quality_score"`
	CreatedAt         time.Time             `json:"created_at"`
}

// SubmissionFilter specifies criteria for listing submissions.
type SubmissionFilter struct {
	Ring     string `json:"ring,omitempty"`
	Quadrant string `json:"quadrant,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for blip submissions.
type Store interface {
	SaveSubmission(ctx context.Context, blip *model.BlipSubmission, sessionID string) (*SubmissionRecord, error)
	GetSubmission(ctx context.Context, id string) (*SubmissionRecord, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]SubmissionRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// ErrNotFound is returned when a submission lookup matches no row.
var ErrNotFound = eris.New("submission not found")

// newRecord builds the record and its serialized payload shared by both
// store implementations.
func newRecord(blip *model.BlipSubmission, sessionID string) (*SubmissionRecord, string, error) {
	blipJSON, err := json.Marshal(blip)
	if err != nil {
		return nil, "", eris.Wrap(err, "store: marshal submission")
	}
	rec := &SubmissionRecord{
		ID:                uuid.New().String(),
		SessionID:         sessionID,
		Blip:              *blip,
		CompletenessScore: scoreValue(blip.CompletenessScore),
		QualityScore:      scoreValue(blip.QualityScore),
		CreatedAt:         time.Now().UTC(),
	}
	return rec, string(blipJSON), nil
}

func scoreValue(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ringOrEmpty(b *model.BlipSubmission) string {
	if b.Ring == nil {
		return ""
	}
	return string(*b.Ring)
}

func quadrantOrEmpty(b *model.BlipSubmission) string {
	if b.Quadrant == nil {
		return ""
	}
	return string(*b.Quadrant)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSubmission(row scannable) (*SubmissionRecord, error) {
	var rec SubmissionRecord
	var blipJSON string

	err := row.Scan(&rec.ID, &rec.SessionID, &blipJSON,
		&rec.CompletenessScore, &rec.QualityScore, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(blipJSON), &rec.Blip); err != nil {
		return nil, eris.Wrap(err, "unmarshal blip")
	}
	return &rec, nil
}
