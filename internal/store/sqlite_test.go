package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar-coach/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func terraformBlip() *model.BlipSubmission {
	blip := &model.BlipSubmission{
		Name:             model.StringPtr("Terraform"),
		Ring:             model.RingPtr(model.RingAdopt),
		Quadrant:         model.QuadrantPtr(model.QuadrantTools),
		Description:      model.StringPtr("Infrastructure as code for all cloud providers."),
		ClientReferences: []string{"Used on the Acme replatform"},
		Strengths:        []string{"declarative", "wide provider ecosystem"},
	}
	blip.SetScores(55, 42)
	return blip
}

func TestSQLiteSaveAndGet(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	rec, err := s.SaveSubmission(ctx, terraformBlip(), "sess-1")
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	assert.Equal(t, "sess-1", rec.SessionID)
	assert.Equal(t, 55.0, rec.CompletenessScore)
	assert.Equal(t, 42.0, rec.QualityScore)

	got, err := s.GetSubmission(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	require.NotNil(t, got.Blip.Name)
	assert.Equal(t, "Terraform", *got.Blip.Name)
	require.NotNil(t, got.Blip.Ring)
	assert.Equal(t, model.RingAdopt, *got.Blip.Ring)
	assert.Equal(t, []string{"declarative", "wide provider ecosystem"}, got.Blip.Strengths)
}

func TestSQLiteGetNotFound(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.GetSubmission(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteSaveNilScores(t *testing.T) {
	s := newTestSQLite(t)

	blip := &model.BlipSubmission{Name: model.StringPtr("Backstage")}
	rec, err := s.SaveSubmission(context.Background(), blip, "sess-2")
	require.NoError(t, err)
	assert.Zero(t, rec.CompletenessScore)
	assert.Zero(t, rec.QualityScore)
}

func TestSQLiteListFilters(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	save := func(name string, ring model.Ring, quadrant model.Quadrant) {
		blip := &model.BlipSubmission{
			Name:     model.StringPtr(name),
			Ring:     model.RingPtr(ring),
			Quadrant: model.QuadrantPtr(quadrant),
		}
		_, err := s.SaveSubmission(ctx, blip, "sess-list")
		require.NoError(t, err)
	}
	save("Terraform", model.RingAdopt, model.QuadrantTools)
	save("Backstage", model.RingTrial, model.QuadrantPlatforms)
	save("Pulumi", model.RingAssess, model.QuadrantTools)

	all, err := s.ListSubmissions(ctx, SubmissionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	tools, err := s.ListSubmissions(ctx, SubmissionFilter{Quadrant: string(model.QuadrantTools)})
	require.NoError(t, err)
	require.Len(t, tools, 2)
	for _, rec := range tools {
		assert.Equal(t, model.QuadrantTools, *rec.Blip.Quadrant)
	}

	adopt, err := s.ListSubmissions(ctx, SubmissionFilter{Ring: string(model.RingAdopt)})
	require.NoError(t, err)
	require.Len(t, adopt, 1)
	assert.Equal(t, "Terraform", *adopt[0].Blip.Name)

	none, err := s.ListSubmissions(ctx, SubmissionFilter{Ring: string(model.RingHold)})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteListLimitOffset(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		blip := &model.BlipSubmission{Name: model.StringPtr("Tool")}
		_, err := s.SaveSubmission(ctx, blip, "sess-page")
		require.NoError(t, err)
	}

	page, err := s.ListSubmissions(ctx, SubmissionFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := s.ListSubmissions(ctx, SubmissionFilter{Limit: 10, Offset: 3})
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}
