package models

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	trainingmodels "steward/internal/training/models"
	id "steward/pkg/domain"
)

func validTraining() trainingmodels.Validity {
	return trainingmodels.Validity{State: trainingmodels.StateValid, IsValid: true, Urgency: trainingmodels.UrgencyNone}
}

func factsWith(name, agreed, trained bool) Facts {
	current := id.AgreementID(uuid.New())
	f := Facts{
		RequireFullName:    true,
		CurrentAgreementID: &current,
		RequiredKinds:      []trainingmodels.Kind{trainingmodels.KindNHSD},
		Training:           map[trainingmodels.Kind]trainingmodels.Validity{},
	}
	if name {
		f.ChosenName = "Ada Lovelace"
	}
	if agreed {
		f.Confirmations = []ConfirmedAgreement{{AgreementType: id.AgreementApprovedResearcher, AgreementID: current}}
	}
	if trained {
		f.Training[trainingmodels.KindNHSD] = validTraining()
	} else {
		f.Training[trainingmodels.KindNHSD] = trainingmodels.Validity{State: trainingmodels.StateExpired}
	}
	return f
}

func TestEvaluateRequiresAllThreeConditions(t *testing.T) {
	for _, name := range []bool{false, true} {
		for _, agreed := range []bool{false, true} {
			for _, trained := range []bool{false, true} {
				t.Run(fmt.Sprintf("name=%v agreed=%v trained=%v", name, agreed, trained), func(t *testing.T) {
					got := Evaluate(factsWith(name, agreed, trained))
					assert.Equal(t, name && agreed && trained, got.IsApprovedResearcher)
				})
			}
		}
	}
}

func TestChecklistOrdering(t *testing.T) {
	tests := []struct {
		name                     string
		facts                    Facts
		chosen, agreement, train StepState
	}{
		{"nothing done", factsWith(false, false, false), StepCurrent, StepPending, StepPending},
		{"training on file before name is still pending", factsWith(false, true, true), StepCurrent, StepPending, StepPending},
		{"name done", factsWith(true, false, true), StepCompleted, StepCurrent, StepPending},
		{"name and agreement done", factsWith(true, true, false), StepCompleted, StepCompleted, StepCurrent},
		{"all done", factsWith(true, true, true), StepCompleted, StepCompleted, StepCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.facts)
			require.Len(t, got.Steps, 3)
			assert.Equal(t, []Step{
				{ID: StepChosenName, State: tt.chosen},
				{ID: StepAgreement, State: tt.agreement},
				{ID: StepTraining, State: tt.train},
			}, got.Steps)
		})
	}
}

func TestCurrentStep(t *testing.T) {
	step, ok := Evaluate(factsWith(true, false, false)).CurrentStep()
	assert.True(t, ok)
	assert.Equal(t, StepAgreement, step)

	_, ok = Evaluate(factsWith(true, true, true)).CurrentStep()
	assert.False(t, ok)
}

func TestEvaluateFailsClosed(t *testing.T) {
	t.Run("unresolved current agreement", func(t *testing.T) {
		f := factsWith(true, true, true)
		f.CurrentAgreementID = nil
		assert.False(t, Evaluate(f).IsApprovedResearcher)
	})

	t.Run("confirmation of a superseded version", func(t *testing.T) {
		f := factsWith(true, false, true)
		f.Confirmations = []ConfirmedAgreement{{AgreementType: id.AgreementApprovedResearcher, AgreementID: id.AgreementID(uuid.New())}}
		assert.False(t, Evaluate(f).IsApprovedResearcher)
	})

	t.Run("single-token name under the full-name rule", func(t *testing.T) {
		f := factsWith(true, true, true)
		f.ChosenName = "Ada"
		assert.False(t, Evaluate(f).IsApprovedResearcher)

		f.RequireFullName = false
		assert.True(t, Evaluate(f).IsApprovedResearcher)
	})

	t.Run("no required kinds configured", func(t *testing.T) {
		f := factsWith(true, true, true)
		f.RequiredKinds = nil
		assert.False(t, Evaluate(f).IsApprovedResearcher)
	})

	t.Run("every required kind must be valid", func(t *testing.T) {
		f := factsWith(true, true, true)
		f.RequiredKinds = append(f.RequiredKinds, trainingmodels.Kind("gdpr"))
		assert.False(t, Evaluate(f).IsApprovedResearcher)

		f.Training["gdpr"] = validTraining()
		assert.True(t, Evaluate(f).IsApprovedResearcher)
	})
}

func TestEvaluateIsIdempotent(t *testing.T) {
	f := factsWith(true, true, false)
	assert.Equal(t, Evaluate(f), Evaluate(f))
}
