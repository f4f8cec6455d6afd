package quality

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/radar-coach/internal/model"
)

// evidenceFile is the on-disk shape of an evidence override file. The YAML
// has a top-level "evidence" key mapping ring labels to check lists.
type evidenceFile struct {
	Evidence map[string][]EvidenceCheck `yaml:"evidence"`
}

// LoadEvidence builds an Engine from a YAML override file. The file must
// define checks for all four rings, each summing to BonusTotal — otherwise
// quality scores would not be comparable across rings.
func LoadEvidence(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "quality: read evidence file %s", path)
	}

	var wrapper evidenceFile
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "quality: parse evidence file")
	}

	evidence := make(map[model.Ring][]EvidenceCheck, len(wrapper.Evidence))
	for label, checks := range wrapper.Evidence {
		ring, ok := model.ParseRing(label)
		if !ok {
			return nil, eris.Errorf("quality: unknown ring %q in evidence file", label)
		}
		evidence[ring] = checks
	}

	if err := ValidateEvidence(evidence); err != nil {
		return nil, err
	}

	return &Engine{evidence: evidence}, nil
}

// ValidateEvidence checks that an evidence table is internally consistent:
// every ring present, every check well-formed, and every ring's bonus
// weights summing to BonusTotal (the cross-ring fairness invariant).
func ValidateEvidence(evidence map[model.Ring][]EvidenceCheck) error {
	var errs []string

	known := make(map[string]bool, len(fieldTable))
	for _, f := range fieldTable {
		known[f.Key] = true
	}

	for _, ring := range model.Rings {
		checks, ok := evidence[ring]
		if !ok || len(checks) == 0 {
			errs = append(errs, fmt.Sprintf("ring %s has no evidence checks", ring))
			continue
		}

		sum := 0.0
		for _, c := range checks {
			sum += c.Bonus
			if !known[c.Field] {
				errs = append(errs, fmt.Sprintf("ring %s references unknown field %q", ring, c.Field))
			}
			switch c.Kind {
			case CheckMinCount, CheckMinLength:
				if c.Threshold <= 0 {
					errs = append(errs, fmt.Sprintf("ring %s: %s check on %q needs a positive threshold", ring, c.Kind, c.Field))
				}
			case CheckRequired:
			default:
				errs = append(errs, fmt.Sprintf("ring %s: unknown check kind %q", ring, c.Kind))
			}
			if c.Bonus <= 0 {
				errs = append(errs, fmt.Sprintf("ring %s: check on %q needs a positive bonus", ring, c.Field))
			}
		}

		if math.Abs(sum-BonusTotal) > 1e-9 {
			errs = append(errs, fmt.Sprintf("ring %s bonus weights sum to %.1f, want %d", ring, sum, BonusTotal))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("quality: evidence validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
