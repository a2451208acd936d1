package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestChain builds a 3-link chain where every participant gives one hour
// of their own rate and receives from the next position.
func newTestChain(status string, rates ...float64) *ExchangeChain {
	chain := &ExchangeChain{
		ID:        uuid.New(),
		Name:      "test chain",
		Status:    ChainStatusPending,
		CreatedBy: uuid.New(),
	}
	n := len(rates)
	for i, rate := range rates {
		receiveRate := rates[(i+1)%n]
		link := ChainLink{
			ID:                  uuid.New(),
			ChainID:             chain.ID,
			UserID:              uuid.New(),
			GivesOfferedSkillID: uuid.New(),
			GivesSkillID:        uuid.New(),
			GiveRate:            rate,
			ReceiveRate:         receiveRate,
			HoursGiven:          1,
			HoursReceived:       1,
			Position:            i,
			Status:              status,
		}
		chain.Links = append(chain.Links, link)
	}
	for i := range chain.Links {
		chain.Links[i].ReceivesSkillID = chain.Links[(i+1)%n].GivesSkillID
	}
	chain.TotalParticipants = n
	return chain
}

func TestNextPrevLinkWrapAround(t *testing.T) {
	chain := newTestChain(LinkStatusPending, 50, 40, 25)

	assert.Equal(t, 1, chain.NextLink(0).Position)
	assert.Equal(t, 0, chain.NextLink(2).Position)
	assert.Equal(t, 2, chain.PrevLink(0).Position)
	assert.Equal(t, 0, chain.PrevLink(1).Position)
}

func TestAllLinksAccepted(t *testing.T) {
	chain := newTestChain(LinkStatusAccepted, 50, 40, 25)
	assert.True(t, chain.AllLinksAccepted())

	chain.Links[1].Status = LinkStatusPending
	assert.False(t, chain.AllLinksAccepted())

	chain.Links[1].Status = LinkStatusRejected
	assert.False(t, chain.AllLinksAccepted())
	assert.True(t, chain.HasRejectedLink())

	empty := &ExchangeChain{}
	assert.False(t, empty.AllLinksAccepted())
}

func TestBuildExchangesMaterializesEveryLink(t *testing.T) {
	chain := newTestChain(LinkStatusAccepted, 50, 40, 25)
	now := time.Now()

	exchanges, err := chain.BuildExchanges(now)

	require.NoError(t, err)
	require.Len(t, exchanges, 3)

	for i, e := range exchanges {
		link := chain.Links[i]
		next := chain.Links[(i+1)%3]

		assert.Equal(t, link.UserID, e.InitiatorID, "link %d", i)
		assert.Equal(t, next.UserID, e.ResponderID, "link %d", i)
		assert.Equal(t, link.GivesOfferedSkillID, e.InitiatorSkillID)
		assert.Equal(t, next.GivesOfferedSkillID, e.ResponderSkillID)
		assert.Equal(t, link.GiveRate, e.InitiatorHourlyRate)
		assert.Equal(t, link.ReceiveRate, e.ResponderHourlyRate)
		assert.Equal(t, ExchangeStatusAccepted, e.Status)
		require.NotNil(t, e.AcceptedAt)
	}
}

func TestBuildExchangesRefusesUndecidedChain(t *testing.T) {
	chain := newTestChain(LinkStatusAccepted, 50, 40, 25)
	chain.Links[2].Status = LinkStatusPending

	exchanges, err := chain.BuildExchanges(time.Now())

	assert.Error(t, err)
	assert.Nil(t, exchanges)
}

func TestBuildExchangesRefusesTinyChain(t *testing.T) {
	chain := newTestChain(LinkStatusAccepted, 50)

	_, err := chain.BuildExchanges(time.Now())

	assert.Error(t, err)
}

func TestCalculateFairnessBalancedCycle(t *testing.T) {
	// Everyone gives and receives one hour at known rates: the aggregate
	// given and received totals are identical, so the chain scores 100.
	chain := newTestChain(LinkStatusAccepted, 50, 40, 25)

	assert.Equal(t, 100.0, chain.CalculateFairness())
}

func TestCalculateFairnessUnbalancedHours(t *testing.T) {
	chain := newTestChain(LinkStatusAccepted, 50, 40, 25)
	chain.Links[0].HoursReceived = 0.5 // receives half of what fairness asks

	score := chain.CalculateFairness()

	assert.Less(t, score, 100.0)
	assert.Greater(t, score, 0.0)
}

func TestCalculateFairnessHoursFallback(t *testing.T) {
	// Without usable rates the score falls back to an hours-only ratio.
	chain := newTestChain(LinkStatusAccepted, 0, 0, 0)
	chain.Links[0].HoursGiven = 2

	score := chain.CalculateFairness()

	assert.Equal(t, 75.0, score)
}

func TestCalculateFairnessTrivialChain(t *testing.T) {
	chain := newTestChain(LinkStatusAccepted, 50)
	assert.Equal(t, 100.0, chain.CalculateFairness())

	empty := &ExchangeChain{}
	assert.Equal(t, 100.0, empty.CalculateFairness())
}

func TestChainSummary(t *testing.T) {
	chain := newTestChain(LinkStatusPending, 50, 40)
	chain.Links[0].User = &User{ID: chain.Links[0].UserID, Username: "alice"}
	chain.Links[1].User = &User{ID: chain.Links[1].UserID, Username: "bob"}

	assert.Equal(t, "alice → bob → alice", chain.Summary())
}
