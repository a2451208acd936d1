package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lama-alharbi8/SkillSwap/internal/fairness"
)

// Exchange statuses.
const (
	ExchangeStatusPending     = "pending"
	ExchangeStatusUnderReview = "under_review"
	ExchangeStatusNegotiating = "negotiating"
	ExchangeStatusAccepted    = "accepted"
	ExchangeStatusInProgress  = "in_progress"
	ExchangeStatusCompleted   = "completed"
	ExchangeStatusCancelled   = "cancelled"
	ExchangeStatusDisputed    = "disputed"
)

// exchangeTransitions maps each status to the statuses reachable from it.
// Completed, cancelled and disputed are terminal. A fresh proposal may be
// accepted directly, without an under_review or negotiating step.
var exchangeTransitions = map[string][]string{
	ExchangeStatusPending:     {ExchangeStatusUnderReview, ExchangeStatusNegotiating, ExchangeStatusAccepted, ExchangeStatusCancelled, ExchangeStatusDisputed},
	ExchangeStatusUnderReview: {ExchangeStatusNegotiating, ExchangeStatusAccepted, ExchangeStatusCancelled, ExchangeStatusDisputed},
	ExchangeStatusNegotiating: {ExchangeStatusUnderReview, ExchangeStatusAccepted, ExchangeStatusCancelled, ExchangeStatusDisputed},
	ExchangeStatusAccepted:    {ExchangeStatusInProgress, ExchangeStatusCancelled, ExchangeStatusDisputed},
	ExchangeStatusInProgress:  {ExchangeStatusCompleted, ExchangeStatusCancelled, ExchangeStatusDisputed},
	ExchangeStatusCompleted:   {},
	ExchangeStatusCancelled:   {},
	ExchangeStatusDisputed:    {},
}

// ValidExchangeStatus reports whether s is a known exchange status.
func ValidExchangeStatus(s string) bool {
	_, ok := exchangeTransitions[s]
	return ok
}

// Exchange is a proposed or realized barter between an initiator and a
// responder, each contributing one offered skill. Rates and hours are
// snapshots taken at calculation time; they are never re-read live unless an
// explicit recalculation runs.
type Exchange struct {
	ID               uuid.UUID `json:"id"`
	InitiatorID      uuid.UUID `json:"initiator_id"`
	ResponderID      uuid.UUID `json:"responder_id"`
	InitiatorSkillID uuid.UUID `json:"initiator_skill_id"`
	ResponderSkillID uuid.UUID `json:"responder_skill_id"`

	InitiatorHourlyRate    float64 `json:"initiator_hourly_rate"`
	ResponderHourlyRate    float64 `json:"responder_hourly_rate"`
	CalculatedRatio        float64 `json:"calculated_ratio"`
	InitiatorHoursRequired float64 `json:"initiator_hours_required"`
	ResponderHoursRequired float64 `json:"responder_hours_required"`
	TotalValue             float64 `json:"total_value"`
	ImbalanceAmount        float64 `json:"imbalance_amount"`
	IsBalanced             bool    `json:"is_balanced"`

	Status string `json:"status"`
	Terms  string `json:"terms,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`

	InitiatorRating   *int   `json:"initiator_rating,omitempty"`
	ResponderRating   *int   `json:"responder_rating,omitempty"`
	InitiatorFeedback string `json:"initiator_feedback,omitempty"`
	ResponderFeedback string `json:"responder_feedback,omitempty"`

	// Populated for API responses
	Initiator      *User         `json:"initiator,omitempty"`
	Responder      *User         `json:"responder,omitempty"`
	InitiatorSkill *OfferedSkill `json:"initiator_skill,omitempty"`
	ResponderSkill *OfferedSkill `json:"responder_skill,omitempty"`
}

// ApplyCalculation writes a fairness calculation into the snapshot fields.
// HoursA belongs to the initiator, HoursB to the responder.
func (e *Exchange) ApplyCalculation(res fairness.Result) {
	e.CalculatedRatio = res.Ratio
	e.InitiatorHoursRequired = res.HoursA
	e.ResponderHoursRequired = res.HoursB
	e.TotalValue = res.TotalValue
	e.ImbalanceAmount = res.Imbalance
	e.IsBalanced = res.IsBalanced
}

// Recalculate recomputes the snapshot from the given rates. Callers must
// serialize this against concurrent status updates.
func (e *Exchange) Recalculate(initiatorRate, responderRate float64) {
	e.InitiatorHourlyRate = initiatorRate
	e.ResponderHourlyRate = responderRate
	e.ApplyCalculation(fairness.Compute(initiatorRate, responderRate))
}

// IsParticipant reports whether userID is one of the two parties.
func (e *Exchange) IsParticipant(userID uuid.UUID) bool {
	return e.InitiatorID == userID || e.ResponderID == userID
}

// OtherParty returns the counterpart of userID, or uuid.Nil for outsiders.
func (e *Exchange) OtherParty(userID uuid.UUID) uuid.UUID {
	switch userID {
	case e.InitiatorID:
		return e.ResponderID
	case e.ResponderID:
		return e.InitiatorID
	}
	return uuid.Nil
}

// IsTerminal reports whether the exchange reached a final state.
func (e *Exchange) IsTerminal() bool {
	return e.Status == ExchangeStatusCompleted ||
		e.Status == ExchangeStatusCancelled ||
		e.Status == ExchangeStatusDisputed
}

// CanTransitionTo reports whether the state machine allows moving to status.
func (e *Exchange) CanTransitionTo(status string) bool {
	for _, next := range exchangeTransitions[e.Status] {
		if next == status {
			return true
		}
	}
	return false
}

// ApplyStatus moves the exchange to a new (already validated) status and
// stamps the matching transition time. AcceptedAt is stamped only on the
// first entry into accepted.
func (e *Exchange) ApplyStatus(status string, now time.Time) {
	e.Status = status
	e.UpdatedAt = now

	switch status {
	case ExchangeStatusAccepted:
		if e.AcceptedAt == nil {
			e.AcceptedAt = &now
		}
	case ExchangeStatusInProgress:
		e.StartedAt = &now
	case ExchangeStatusCompleted:
		e.CompletedAt = &now
	case ExchangeStatusCancelled, ExchangeStatusDisputed:
		e.ClosedAt = &now
	}
}

// InitiatorValue is the monetary value the initiator contributes.
func (e *Exchange) InitiatorValue() float64 {
	return e.InitiatorHourlyRate * e.InitiatorHoursRequired
}

// ResponderValue is the monetary value the responder contributes.
func (e *Exchange) ResponderValue() float64 {
	return e.ResponderHourlyRate * e.ResponderHoursRequired
}

// FairnessScore rates the exchange 0-100 by comparing the two sides'
// contributed value. Returns 0 when any rate or hour figure is non-positive.
func (e *Exchange) FairnessScore() float64 {
	if e.InitiatorHourlyRate <= 0 || e.ResponderHourlyRate <= 0 ||
		e.InitiatorHoursRequired <= 0 || e.ResponderHoursRequired <= 0 {
		return 0
	}
	return fairness.Score(e.InitiatorValue(), e.ResponderValue())
}

// Adjustment is the outcome of SuggestAdjustment.
type Adjustment struct {
	AdjustmentNeeded        bool    `json:"adjustment_needed"`
	PerfectRatio            float64 `json:"perfect_ratio,omitempty"`
	SuggestedInitiatorHours float64 `json:"suggested_initiator_hours,omitempty"`
	SuggestedResponderHours float64 `json:"suggested_responder_hours,omitempty"`
	CurrentScore            float64 `json:"current_fairness_score"`
}

// SuggestAdjustment recomputes the perfect hours ratio from the snapshotted
// rates and, when the current hours deviate from it by more than the
// adjustment threshold, proposes a corrected hour pair. Invalid rates or
// hours fall back to "no adjustment needed".
func (e *Exchange) SuggestAdjustment() Adjustment {
	noChange := Adjustment{AdjustmentNeeded: false, CurrentScore: e.FairnessScore()}

	if e.InitiatorHourlyRate <= 0 || e.ResponderHourlyRate <= 0 || e.InitiatorHoursRequired <= 0 {
		return noChange
	}

	// Fair when responderHours/initiatorHours equals initiatorRate/responderRate.
	perfectRatio := e.InitiatorHourlyRate / e.ResponderHourlyRate
	currentRatio := e.ResponderHoursRequired / e.InitiatorHoursRequired

	deviation := (currentRatio - perfectRatio) / perfectRatio
	if deviation < 0 {
		deviation = -deviation
	}
	if deviation <= fairness.AdjustmentThreshold {
		return noChange
	}

	adj := Adjustment{
		AdjustmentNeeded: true,
		PerfectRatio:     fairness.Round2(perfectRatio),
		CurrentScore:     e.FairnessScore(),
	}
	if perfectRatio >= 1 {
		adj.SuggestedInitiatorHours = 1.0
		adj.SuggestedResponderHours = fairness.Round2(perfectRatio)
	} else {
		adj.SuggestedResponderHours = 1.0
		adj.SuggestedInitiatorHours = fairness.Round2(1 / perfectRatio)
	}
	return adj
}

// FairnessReport is the detailed breakdown returned to participants.
type FairnessReport struct {
	FairnessScore   float64 `json:"fairness_score"`
	InitiatorValue  float64 `json:"initiator_value"`
	ResponderValue  float64 `json:"responder_value"`
	ValueDifference float64 `json:"value_difference"`
	RateRatio       float64 `json:"rate_ratio"`
	HoursRatio      float64 `json:"hours_ratio"`
	IsBalanced      bool    `json:"is_balanced"`
	TotalValue      float64 `json:"total_value"`
}

// DetailedFairnessReport summarizes the exchange's fairness. The balanced
// flag here uses the 95-score threshold, which is a different gate than the
// value tolerance applied at calculation time.
func (e *Exchange) DetailedFairnessReport() FairnessReport {
	score := e.FairnessScore()

	report := FairnessReport{
		FairnessScore:  score,
		InitiatorValue: fairness.Round2(e.InitiatorValue()),
		ResponderValue: fairness.Round2(e.ResponderValue()),
		IsBalanced:     score >= fairness.BalancedScoreThreshold,
		TotalValue:     e.TotalValue,
	}
	diff := report.InitiatorValue - report.ResponderValue
	if diff < 0 {
		diff = -diff
	}
	report.ValueDifference = fairness.Round2(diff)
	if e.ResponderHourlyRate > 0 {
		report.RateRatio = fairness.Round2(e.InitiatorHourlyRate / e.ResponderHourlyRate)
	}
	if e.InitiatorHoursRequired > 0 {
		report.HoursRatio = fairness.Round2(e.ResponderHoursRequired / e.InitiatorHoursRequired)
	}
	return report
}
