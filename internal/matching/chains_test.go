package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeCycleFixture wires alice → bob → carol → alice: bob covers alice's
// need, carol covers bob's, and carol needs what alice offers.
func threeCycleFixture() *fixture {
	design := newSkill("Design")
	webdev := newSkill("Web Development")
	writing := newSkill("Writing")

	f := newFixture("alice", "bob", "carol")
	f.offer("alice", design, 50)
	f.need("alice", webdev, 0)

	f.offer("bob", webdev, 40)
	f.need("bob", writing, 0)

	f.offer("carol", writing, 25)
	f.need("carol", design, 0)
	return f
}

func TestDiscoverChainsFindsThreeCycle(t *testing.T) {
	f := threeCycleFixture()

	proposals, pool := DiscoverChains(f.users["alice"], f.snap)

	assert.Nil(t, pool)
	require.Len(t, proposals, 1)
	p := proposals[0]
	assert.Equal(t, "alice → bob → carol → alice", p.Summary)
	assert.Equal(t, ChainProposalScore, p.FairnessScore)
	require.Len(t, p.Participants, 3)

	// Cycle order: alice receives from bob, bob from carol, carol from alice.
	assert.Equal(t, f.users["alice"], p.Participants[0].UserID)
	assert.Equal(t, f.users["bob"], p.Participants[1].UserID)
	assert.Equal(t, f.users["carol"], p.Participants[2].UserID)

	// Everyone receives from the next position, wrapping around.
	assert.Equal(t, p.Participants[1].GivesSkillID, p.Participants[0].ReceivesSkillID)
	assert.Equal(t, p.Participants[2].GivesSkillID, p.Participants[1].ReceivesSkillID)
	assert.Equal(t, p.Participants[0].GivesSkillID, p.Participants[2].ReceivesSkillID)

	assert.Equal(t, 50.0, p.Participants[0].GiveRate)
	assert.Equal(t, 40.0, p.Participants[0].ReceiveRate)
}

func TestDiscoverChainsRejectsTwoCycle(t *testing.T) {
	design := newSkill("Design")
	webdev := newSkill("Web Development")

	f := newFixture("alice", "bob")
	f.offer("alice", design, 50)
	f.need("alice", webdev, 0)
	f.offer("bob", webdev, 40)
	f.need("bob", design, 0)

	proposals, pool := DiscoverChains(f.users["alice"], f.snap)

	// A direct swap is the match finder's job, not a chain.
	assert.Empty(t, proposals)
	require.NotNil(t, pool)
	assert.Equal(t, "hour_pool", pool.Type)
}

func TestDiscoverChainsPoolFallbackNeedsOfferAndNeed(t *testing.T) {
	f := newFixture("alice", "bob")
	f.offer("alice", newSkill("Design"), 50)
	// alice has no need, so not even the pool suggestion applies.

	proposals, pool := DiscoverChains(f.users["alice"], f.snap)

	assert.Empty(t, proposals)
	assert.Nil(t, pool)
}

func TestDiscoverChainsExcludesEarlierParticipants(t *testing.T) {
	design := newSkill("Design")
	webdev := newSkill("Web Development")
	writing := newSkill("Writing")

	f := newFixture("alice", "bob")
	f.offer("alice", design, 50)
	f.need("alice", webdev, 0)

	// bob covers alice's need and also offers the skill he himself needs
	// covered; he must not appear as his own second-tier provider.
	f.offer("bob", webdev, 40)
	f.need("bob", writing, 0)
	f.offer("bob", writing, 35)

	proposals, pool := DiscoverChains(f.users["alice"], f.snap)

	assert.Empty(t, proposals)
	require.NotNil(t, pool)
}

func TestDiscoverChainsHonorsRateCeiling(t *testing.T) {
	f := threeCycleFixture()
	// Tighten carol's ceiling below alice's $50 rate: the loop cannot close.
	for i := range f.snap.Needs {
		if f.snap.Needs[i].UserID == f.users["carol"] {
			f.snap.Needs[i].MaxHourlyRate = 30
		}
	}

	proposals, pool := DiscoverChains(f.users["alice"], f.snap)

	assert.Empty(t, proposals)
	assert.NotNil(t, pool)
}

func TestDiscoverChainsDeduplicates(t *testing.T) {
	f := threeCycleFixture()
	// A second need for the same skill must not duplicate the cycle.
	f.need("carol", f.snap.Offers[0].Skill, 0)

	proposals, _ := DiscoverChains(f.users["alice"], f.snap)

	assert.Len(t, proposals, 1)
}
