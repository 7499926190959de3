package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"steward/internal/study/models"
)

var (
	yes = models.Bool(true)
	no  = models.Bool(false)
)

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		decl  models.Declarations
		score int
		fired []Predicate
	}{
		{
			name:  "nothing declared",
			decl:  models.Declarations{},
			score: 0,
		},
		{
			name: "outside EEA, DBS and unmitigated third party",
			decl: models.Declarations{
				InvolvesDataProcessingOutsideEEA: yes,
				RequiresDBS:                      yes,
				InvolvesThirdParty:               yes,
				InvolvesMNCA:                     no,
			},
			score: 20,
			fired: []Predicate{PredicateOutsideEEA, PredicateDBS, PredicateUnmitigatedThirdPty},
		},
		{
			name: "MNCA suppresses the third party weight",
			decl: models.Declarations{
				InvolvesDataProcessingOutsideEEA: yes,
				RequiresDBS:                      yes,
				InvolvesThirdParty:               yes,
				InvolvesMNCA:                     yes,
			},
			score: 15,
			fired: []Predicate{PredicateOutsideEEA, PredicateDBS},
		},
		{
			name:  "NHS England and CAG collapse to one weight",
			decl:  models.Declarations{InvolvesNHSEngland: yes, InvolvesCAG: yes},
			score: 5,
			fired: []Predicate{PredicateNHSEnglandOrCAG},
		},
		{
			name:  "CAG alone",
			decl:  models.Declarations{InvolvesCAG: yes},
			score: 5,
			fired: []Predicate{PredicateNHSEnglandOrCAG},
		},
		{
			name: "informational declarations contribute nothing",
			decl: models.Declarations{
				InvolvesEthicsApproval:     yes,
				InvolvesHRAApproval:        yes,
				IsUCLSponsored:             yes,
				InvolvesExternalUsers:      yes,
				InvolvesParticipantConsent: yes,
				InvolvesIndirectCollection: yes,
				RegisteredWithDPO:          yes,
				InvolvesMNCA:               yes,
			},
			score: 0,
		},
		{
			name: "everything",
			decl: models.Declarations{
				InvolvesDataProcessingOutsideEEA: yes,
				RequiresDBS:                      yes,
				RequiresDSPT:                     yes,
				InvolvesThirdParty:               yes,
				InvolvesNHSEngland:               yes,
			},
			score: 30,
			fired: []Predicate{PredicateOutsideEEA, PredicateDBS, PredicateDSPT, PredicateUnmitigatedThirdPty, PredicateNHSEnglandOrCAG},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.decl)
			assert.Equal(t, tt.score, got.Score)

			var fired []Predicate
			sum := 0
			for _, c := range got.Contributions {
				fired = append(fired, c.Predicate)
				sum += c.Weight
			}
			assert.Equal(t, tt.fired, fired)
			assert.Equal(t, got.Score, sum)
		})
	}
}

func TestScoreIsIdempotent(t *testing.T) {
	d := models.Declarations{RequiresDSPT: yes, InvolvesThirdParty: yes}
	assert.Equal(t, Score(d), Score(d))
	assert.Equal(t, 30, Max())
}
