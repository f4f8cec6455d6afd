package quality

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar-coach/internal/model"
)

const validEvidenceYAML = `evidence:
  Adopt:
    - field: client_references
      kind: min_count
      threshold: 3
      bonus: 25
      gap: "Adopt needs three references here"
    - field: description
      kind: required
      bonus: 15
      gap: "Describe it"
  Trial:
    - field: client_references
      kind: min_count
      threshold: 1
      bonus: 40
      gap: "One reference"
  Assess:
    - field: description
      kind: min_length
      threshold: 50
      bonus: 40
      gap: "Longer description"
  Hold:
    - field: weaknesses
      kind: required
      bonus: 40
      gap: "Weaknesses"
`

func writeEvidence(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "evidence.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEvidence_Valid(t *testing.T) {
	e, err := LoadEvidence(writeEvidence(t, validEvidenceYAML))
	require.NoError(t, err)

	b := &model.BlipSubmission{
		Name:             model.StringPtr("Terraform"),
		Ring:             model.RingPtr(model.RingAdopt),
		ClientReferences: []string{"a", "b"},
	}
	res := e.Score(b)
	// Two references fall short of the overridden three-reference check.
	assert.Contains(t, res.RingGaps[0], "need at least 3, have 2")
}

func TestLoadEvidence_RejectsUnequalBonusTotals(t *testing.T) {
	broken := `evidence:
  Adopt:
    - field: description
      kind: required
      bonus: 30
      gap: "g"
  Trial:
    - field: description
      kind: required
      bonus: 40
      gap: "g"
  Assess:
    - field: description
      kind: required
      bonus: 40
      gap: "g"
  Hold:
    - field: description
      kind: required
      bonus: 40
      gap: "g"
`
	_, err := LoadEvidence(writeEvidence(t, broken))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bonus weights sum to 30.0")
}

func TestLoadEvidence_RejectsUnknownRing(t *testing.T) {
	_, err := LoadEvidence(writeEvidence(t, "evidence:\n  Maybe:\n    - field: description\n      kind: required\n      bonus: 40\n      gap: g\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown ring "Maybe"`)
}

func TestLoadEvidence_MissingFile(t *testing.T) {
	_, err := LoadEvidence(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateEvidence_UnknownFieldAndKind(t *testing.T) {
	evidence := map[model.Ring][]EvidenceCheck{
		model.RingAdopt:  {{Field: "nonexistent", Kind: CheckRequired, Bonus: 40, Gap: "g"}},
		model.RingTrial:  {{Field: "description", Kind: "fuzzy", Bonus: 40, Gap: "g"}},
		model.RingAssess: {{Field: "description", Kind: CheckMinLength, Threshold: 0, Bonus: 40, Gap: "g"}},
		model.RingHold:   {{Field: "description", Kind: CheckRequired, Bonus: 40, Gap: "g"}},
	}
	err := ValidateEvidence(evidence)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown field "nonexistent"`)
	assert.Contains(t, err.Error(), `unknown check kind "fuzzy"`)
	assert.Contains(t, err.Error(), "positive threshold")
}
