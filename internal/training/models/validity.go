package models

import (
	"fmt"
	"time"

	dErrors "steward/pkg/domain-errors"
)

// State is the lifecycle position of a training record at evaluation time.
type State string

const (
	StateMissing State = "missing"
	StateValid   State = "valid"
	StateExpired State = "expired"
)

// Urgency grades how soon a valid record expires. Expiry itself is a State,
// not an urgency level.
type Urgency string

const (
	UrgencyNone   Urgency = "none"
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Rank orders urgencies from none (0) to high (3).
func (u Urgency) Rank() int {
	switch u {
	case UrgencyLow:
		return 1
	case UrgencyMedium:
		return 2
	case UrgencyHigh:
		return 3
	default:
		return 0
	}
}

// Thresholds are remaining-time bounds for each urgency band. A record with
// remaining time at or below High is high urgency, at or below Medium is
// medium, at or below Low is low.
type Thresholds struct {
	Low    time.Duration
	Medium time.Duration
	High   time.Duration
}

// ThresholdsFromDays builds Thresholds from whole days.
func ThresholdsFromDays(low, medium, high int) Thresholds {
	day := 24 * time.Hour
	return Thresholds{
		Low:    time.Duration(low) * day,
		Medium: time.Duration(medium) * day,
		High:   time.Duration(high) * day,
	}
}

// Validate requires 0 < High < Medium < Low.
func (t Thresholds) Validate() error {
	if !(0 < t.High && t.High < t.Medium && t.Medium < t.Low) {
		return dErrors.New(dErrors.CodeConfiguration,
			fmt.Sprintf("urgency thresholds must satisfy 0 < high < medium < low (got high=%s medium=%s low=%s)", t.High, t.Medium, t.Low))
	}
	return nil
}

func (t Thresholds) band(remaining time.Duration) Urgency {
	switch {
	case remaining <= t.High:
		return UrgencyHigh
	case remaining <= t.Medium:
		return UrgencyMedium
	case remaining <= t.Low:
		return UrgencyLow
	default:
		return UrgencyNone
	}
}

// Validity is the derived status of a training record at one instant.
type Validity struct {
	State     State
	IsValid   bool
	ExpiresAt *time.Time
	Urgency   Urgency
}

// Evaluate derives validity from a completion time. completedAt nil means no
// record exists. expiresAt is completedAt plus validityPeriodDays calendar
// days and is exclusive: at expiresAt the record is already expired.
//
// A negative period or malformed thresholds return a configuration error and
// never a valid result.
func Evaluate(completedAt *time.Time, validityPeriodDays int, now time.Time, th Thresholds) (Validity, error) {
	if validityPeriodDays < 0 {
		return Validity{}, dErrors.New(dErrors.CodeConfiguration, "training validity period must not be negative")
	}
	if err := th.Validate(); err != nil {
		return Validity{}, err
	}
	if completedAt == nil {
		return Validity{State: StateMissing, Urgency: UrgencyNone}, nil
	}

	expiresAt := completedAt.AddDate(0, 0, validityPeriodDays)
	if !now.Before(expiresAt) {
		return Validity{State: StateExpired, ExpiresAt: &expiresAt, Urgency: UrgencyNone}, nil
	}
	return Validity{
		State:     StateValid,
		IsValid:   true,
		ExpiresAt: &expiresAt,
		Urgency:   th.band(expiresAt.Sub(now)),
	}, nil
}

// EvaluateRecord is Evaluate for an optional stored record.
func EvaluateRecord(rec *Record, validityPeriodDays int, now time.Time, th Thresholds) (Validity, error) {
	if rec == nil {
		return Evaluate(nil, validityPeriodDays, now, th)
	}
	completed := rec.CompletedAt
	return Evaluate(&completed, validityPeriodDays, now, th)
}
