package models

import (
	"time"

	trainingmodels "steward/internal/training/models"
	usermodels "steward/internal/user/models"
	id "steward/pkg/domain"
)

// StepID names an onboarding step. Steps are evaluated in checklist order.
type StepID string

const (
	StepChosenName StepID = "chosen-name"
	StepAgreement  StepID = "agreement"
	StepTraining   StepID = "training"
)

type StepState string

const (
	StepCompleted StepState = "completed"
	StepCurrent   StepState = "current"
	StepPending   StepState = "pending"
)

type Step struct {
	ID    StepID
	State StepState
}

// ConfirmedAgreement is one confirmation on file for the subject.
type ConfirmedAgreement struct {
	AgreementType id.AgreementType
	AgreementID   id.AgreementID
	ConfirmedAt   time.Time
}

// Facts is the snapshot eligibility is derived from. Training validity must
// have been computed at the instant the snapshot was taken.
type Facts struct {
	ChosenName      string
	RequireFullName bool
	// CurrentAgreementID is the current approved-researcher agreement; nil
	// when it could not be resolved.
	CurrentAgreementID *id.AgreementID
	Confirmations      []ConfirmedAgreement
	Training           map[trainingmodels.Kind]trainingmodels.Validity
	RequiredKinds      []trainingmodels.Kind
}

type Result struct {
	IsApprovedResearcher bool
	Steps                []Step
}

// CurrentStep returns the first unmet step, or false when all are complete.
func (r Result) CurrentStep() (StepID, bool) {
	for _, s := range r.Steps {
		if s.State == StepCurrent {
			return s.ID, true
		}
	}
	return "", false
}

type condition struct {
	id  StepID
	met func(Facts) bool
}

var checklist = []condition{
	{id: StepChosenName, met: chosenNameMet},
	{id: StepAgreement, met: agreementMet},
	{id: StepTraining, met: trainingMet},
}

// Evaluate derives approved-researcher status and the onboarding checklist.
// The first unmet step is current and every later step is pending whatever
// its own facts say.
func Evaluate(f Facts) Result {
	steps := make([]Step, 0, len(checklist))
	blocked := false
	for _, c := range checklist {
		switch {
		case blocked:
			steps = append(steps, Step{ID: c.id, State: StepPending})
		case c.met(f):
			steps = append(steps, Step{ID: c.id, State: StepCompleted})
		default:
			steps = append(steps, Step{ID: c.id, State: StepCurrent})
			blocked = true
		}
	}
	return Result{IsApprovedResearcher: !blocked, Steps: steps}
}

func chosenNameMet(f Facts) bool {
	if f.ChosenName == "" {
		return false
	}
	_, err := usermodels.ParseChosenName(f.ChosenName, f.RequireFullName)
	return err == nil
}

func agreementMet(f Facts) bool {
	if f.CurrentAgreementID == nil {
		return false
	}
	for _, c := range f.Confirmations {
		if c.AgreementID == *f.CurrentAgreementID {
			return true
		}
	}
	return false
}

// An empty required set is a deployment error and never satisfies the step.
func trainingMet(f Facts) bool {
	if len(f.RequiredKinds) == 0 {
		return false
	}
	for _, kind := range f.RequiredKinds {
		v, ok := f.Training[kind]
		if !ok || !v.IsValid {
			return false
		}
	}
	return true
}
