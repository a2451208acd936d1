package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lama-alharbi8/SkillSwap/internal/fairness"
)

func newTestExchange(initiatorRate, responderRate float64) *Exchange {
	e := &Exchange{
		ID:          uuid.New(),
		InitiatorID: uuid.New(),
		ResponderID: uuid.New(),
		Status:      ExchangeStatusPending,
	}
	e.Recalculate(initiatorRate, responderRate)
	return e
}

func TestRecalculateSnapshots(t *testing.T) {
	e := newTestExchange(50, 40)

	assert.Equal(t, 50.0, e.InitiatorHourlyRate)
	assert.Equal(t, 40.0, e.ResponderHourlyRate)
	assert.Equal(t, 1.0, e.InitiatorHoursRequired)
	assert.InDelta(t, 1.25, e.ResponderHoursRequired, 0.01)
	assert.InDelta(t, 1.25, e.CalculatedRatio, 0.0001)
	assert.True(t, e.IsBalanced)
	assert.Equal(t, 100.0, e.FairnessScore())
}

func TestFairnessScoreGuards(t *testing.T) {
	e := newTestExchange(0, 40)
	assert.Equal(t, 0.0, e.FairnessScore())

	e = newTestExchange(50, 40)
	e.InitiatorHoursRequired = 0
	assert.Equal(t, 0.0, e.FairnessScore())

	e = newTestExchange(50, 40)
	e.ResponderHoursRequired = -1
	assert.Equal(t, 0.0, e.FairnessScore())
}

func TestFairnessScoreSymmetry(t *testing.T) {
	e := newTestExchange(50, 40)

	swapped := newTestExchange(40, 50)
	swapped.InitiatorHoursRequired = e.ResponderHoursRequired
	swapped.ResponderHoursRequired = e.InitiatorHoursRequired

	assert.Equal(t, e.FairnessScore(), swapped.FairnessScore())
}

func TestUnfairHoursDetected(t *testing.T) {
	// Hours forced off the fair 1.25 ratio: $50 vs $20 of value.
	e := newTestExchange(50, 40)
	e.InitiatorHoursRequired = 1.0
	e.ResponderHoursRequired = 0.5

	assert.Less(t, e.FairnessScore(), 50.0)

	report := e.DetailedFairnessReport()
	assert.False(t, report.IsBalanced)
	assert.Equal(t, 40.0, report.FairnessScore)
	assert.Equal(t, 50.0, report.InitiatorValue)
	assert.Equal(t, 20.0, report.ResponderValue)
	assert.Equal(t, 30.0, report.ValueDifference)
	assert.InDelta(t, 1.25, report.RateRatio, 0.01)
	assert.InDelta(t, 0.5, report.HoursRatio, 0.01)
}

func TestDetailedReportBalancedGate(t *testing.T) {
	e := newTestExchange(50, 40)
	report := e.DetailedFairnessReport()

	assert.Equal(t, 100.0, report.FairnessScore)
	assert.True(t, report.IsBalanced)
}

func TestSuggestAdjustment(t *testing.T) {
	// $50 vs $25: perfect ratio is 2.0, current hours sit at 1.5.
	e := newTestExchange(50, 25)
	e.InitiatorHoursRequired = 1.0
	e.ResponderHoursRequired = 1.5

	adj := e.SuggestAdjustment()

	require.True(t, adj.AdjustmentNeeded)
	assert.Equal(t, 2.0, adj.PerfectRatio)
	assert.Equal(t, 1.0, adj.SuggestedInitiatorHours)
	assert.Equal(t, 2.0, adj.SuggestedResponderHours)
	assert.Less(t, adj.CurrentScore, 100.0)
}

func TestSuggestAdjustmentWithinTolerance(t *testing.T) {
	e := newTestExchange(50, 40)

	adj := e.SuggestAdjustment()

	assert.False(t, adj.AdjustmentNeeded)
	assert.Equal(t, 100.0, adj.CurrentScore)
}

func TestSuggestAdjustmentCheaperInitiator(t *testing.T) {
	// Perfect ratio below 1: the suggestion flips which side works 1 hour.
	e := newTestExchange(25, 50)
	e.InitiatorHoursRequired = 1.0
	e.ResponderHoursRequired = 1.0

	adj := e.SuggestAdjustment()

	require.True(t, adj.AdjustmentNeeded)
	assert.Equal(t, 1.0, adj.SuggestedResponderHours)
	assert.Equal(t, 2.0, adj.SuggestedInitiatorHours)
}

func TestSuggestAdjustmentInvalidRates(t *testing.T) {
	e := newTestExchange(0, 40)

	adj := e.SuggestAdjustment()

	assert.False(t, adj.AdjustmentNeeded)
	assert.Equal(t, 0.0, adj.CurrentScore)
}

func TestExchangeLifecycle(t *testing.T) {
	e := newTestExchange(50, 40)
	now := time.Now()

	require.True(t, e.CanTransitionTo(ExchangeStatusNegotiating))
	e.ApplyStatus(ExchangeStatusNegotiating, now)

	require.True(t, e.CanTransitionTo(ExchangeStatusAccepted))
	e.ApplyStatus(ExchangeStatusAccepted, now)
	require.NotNil(t, e.AcceptedAt)
	firstAccept := *e.AcceptedAt

	// Repeat entry must not move the accepted stamp.
	e.ApplyStatus(ExchangeStatusAccepted, now.Add(time.Hour))
	assert.Equal(t, firstAccept, *e.AcceptedAt)

	e.ApplyStatus(ExchangeStatusInProgress, now)
	require.NotNil(t, e.StartedAt)

	e.ApplyStatus(ExchangeStatusCompleted, now)
	require.NotNil(t, e.CompletedAt)
	assert.True(t, e.IsTerminal())
	assert.False(t, e.CanTransitionTo(ExchangeStatusPending))
	assert.False(t, e.CanTransitionTo(ExchangeStatusCancelled))
}

func TestExchangeTransitionGuards(t *testing.T) {
	e := newTestExchange(50, 40)

	assert.False(t, e.CanTransitionTo(ExchangeStatusInProgress))
	assert.False(t, e.CanTransitionTo(ExchangeStatusCompleted))
	assert.True(t, e.CanTransitionTo(ExchangeStatusAccepted))
	assert.True(t, e.CanTransitionTo(ExchangeStatusCancelled))
	assert.True(t, e.CanTransitionTo(ExchangeStatusDisputed))

	e.ApplyStatus(ExchangeStatusCancelled, time.Now())
	require.NotNil(t, e.ClosedAt)
	assert.False(t, e.CanTransitionTo(ExchangeStatusAccepted))
}

func TestParticipants(t *testing.T) {
	e := newTestExchange(50, 40)
	stranger := uuid.New()

	assert.True(t, e.IsParticipant(e.InitiatorID))
	assert.True(t, e.IsParticipant(e.ResponderID))
	assert.False(t, e.IsParticipant(stranger))

	assert.Equal(t, e.ResponderID, e.OtherParty(e.InitiatorID))
	assert.Equal(t, e.InitiatorID, e.OtherParty(e.ResponderID))
	assert.Equal(t, uuid.Nil, e.OtherParty(stranger))
}

func TestEventForStatus(t *testing.T) {
	e := newTestExchange(50, 40)

	assert.Equal(t, EventExchangeAccepted, EventForStatus(ExchangeStatusPending, ExchangeStatusAccepted, e.ResponderID, e))
	assert.Equal(t, EventExchangeCompleted, EventForStatus(ExchangeStatusInProgress, ExchangeStatusCompleted, e.InitiatorID, e))

	// A responder killing a fresh proposal is a rejection.
	assert.Equal(t, EventExchangeRejected, EventForStatus(ExchangeStatusPending, ExchangeStatusCancelled, e.ResponderID, e))
	assert.Equal(t, EventExchangeCancelled, EventForStatus(ExchangeStatusPending, ExchangeStatusCancelled, e.InitiatorID, e))
	assert.Equal(t, EventExchangeCancelled, EventForStatus(ExchangeStatusAccepted, ExchangeStatusCancelled, e.ResponderID, e))

	assert.Empty(t, EventForStatus(ExchangeStatusPending, ExchangeStatusNegotiating, e.InitiatorID, e))
}

func TestNewExchangeEventRecipients(t *testing.T) {
	e := newTestExchange(50, 40)

	ev := NewExchangeEvent(EventExchangeProposed, e, e.InitiatorID)
	assert.Equal(t, []uuid.UUID{e.ResponderID}, ev.RecipientUserIDs)

	ev = NewExchangeEvent(EventExchangeAccepted, e, e.ResponderID)
	assert.Equal(t, []uuid.UUID{e.InitiatorID}, ev.RecipientUserIDs)

	ev = NewExchangeEvent(EventExchangeCompleted, e, e.ResponderID)
	assert.ElementsMatch(t, []uuid.UUID{e.InitiatorID, e.ResponderID}, ev.RecipientUserIDs)

	ev = NewExchangeEvent(EventExchangeCancelled, e, e.InitiatorID)
	assert.Equal(t, []uuid.UUID{e.ResponderID}, ev.RecipientUserIDs)

	ev = NewExchangeEvent(EventRatingReceived, e, e.ResponderID)
	assert.Equal(t, []uuid.UUID{e.InitiatorID}, ev.RecipientUserIDs)
	assert.Equal(t, e.ID, ev.ExchangeID)
}

func TestApplyCalculationDegenerate(t *testing.T) {
	e := newTestExchange(50, 40)
	e.Recalculate(0, 40)

	assert.Equal(t, 1.0, e.InitiatorHoursRequired)
	assert.Equal(t, 1.0, e.ResponderHoursRequired)
	assert.Equal(t, 0.0, e.TotalValue)
	assert.False(t, e.IsBalanced)
	assert.Equal(t, 0.0, e.FairnessScore())

	adj := e.SuggestAdjustment()
	assert.False(t, adj.AdjustmentNeeded)
}

func TestApplyCalculationMapsSides(t *testing.T) {
	e := &Exchange{}
	e.ApplyCalculation(fairness.Compute(25, 50))

	assert.Equal(t, 2.0, e.InitiatorHoursRequired)
	assert.Equal(t, 1.0, e.ResponderHoursRequired)
}
