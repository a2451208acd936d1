package matching

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lama-alharbi8/SkillSwap/internal/models"
)

type fixture struct {
	snap  Snapshot
	users map[string]uuid.UUID
}

func newFixture(names ...string) *fixture {
	f := &fixture{
		snap:  Snapshot{Users: make(map[uuid.UUID]string)},
		users: make(map[string]uuid.UUID),
	}
	for _, n := range names {
		id := uuid.New()
		f.users[n] = id
		f.snap.Users[id] = n
	}
	return f
}

func (f *fixture) offer(user string, skill *models.Skill, rate float64) models.OfferedSkill {
	o := models.OfferedSkill{
		ID:                   uuid.New(),
		UserID:               f.users[user],
		SkillID:              skill.ID,
		HourlyRateEquivalent: rate,
		IsActive:             true,
		Skill:                skill,
	}
	f.snap.Offers = append(f.snap.Offers, o)
	return o
}

func (f *fixture) need(user string, skill *models.Skill, maxRate float64) models.NeededSkill {
	n := models.NeededSkill{
		ID:            uuid.New(),
		UserID:        f.users[user],
		SkillID:       skill.ID,
		MaxHourlyRate: maxRate,
		Urgency:       models.UrgencyMedium,
		IsActive:      true,
		Skill:         skill,
	}
	f.snap.Needs = append(f.snap.Needs, n)
	return n
}

func newSkill(name string) *models.Skill {
	return &models.Skill{ID: uuid.New(), Name: name}
}

func TestFindMatchesMutualNeed(t *testing.T) {
	design := newSkill("Graphic Design")
	webdev := newSkill("Web Development")

	f := newFixture("alice", "bob")
	f.offer("alice", design, 50)
	f.need("alice", webdev, 0)
	f.offer("bob", webdev, 40)
	f.need("bob", design, 0)

	got := FindMatches(f.users["alice"], f.snap)

	require.Len(t, got, 1)
	assert.Equal(t, f.users["bob"], got[0].PartnerID)
	assert.Equal(t, "bob", got[0].PartnerName)
	assert.Equal(t, MatchTypeValue, got[0].MatchType)
	assert.Equal(t, 10.0, got[0].Score)
	require.Len(t, got[0].Pairs, 1)
	assert.Equal(t, "1 hr of Graphic Design = 1.25 hrs of Web Development", got[0].Pairs[0].Summary)
	assert.InDelta(t, 1.25, got[0].Pairs[0].Calculation.Ratio, 0.0001)
}

func TestFindMatchesRanksByMutualPairCount(t *testing.T) {
	design := newSkill("Design")
	webdev := newSkill("Web Development")
	writing := newSkill("Writing")

	f := newFixture("alice", "bob", "carol")
	f.offer("alice", design, 50)
	f.need("alice", webdev, 0)
	f.need("alice", writing, 0)

	// bob matches twice (offers both skills alice needs), carol once.
	f.offer("bob", webdev, 40)
	f.offer("bob", writing, 30)
	f.need("bob", design, 0)
	f.offer("carol", writing, 25)
	f.need("carol", design, 0)

	got := FindMatches(f.users["alice"], f.snap)

	require.Len(t, got, 2)
	assert.Equal(t, f.users["bob"], got[0].PartnerID)
	assert.Equal(t, 20.0, got[0].Score)
	assert.Equal(t, f.users["carol"], got[1].PartnerID)
	assert.Equal(t, 10.0, got[1].Score)
}

func TestFindMatchesHonorsRateCeiling(t *testing.T) {
	design := newSkill("Design")
	webdev := newSkill("Web Development")

	f := newFixture("alice", "bob")
	f.offer("alice", design, 50)
	f.need("alice", webdev, 0)
	f.offer("bob", webdev, 40)
	f.need("bob", design, 30) // alice's $50 rate exceeds bob's ceiling

	got := FindMatches(f.users["alice"], f.snap)

	// The value pass finds nothing, so the rate fallback kicks in.
	require.Len(t, got, 1)
	assert.Equal(t, MatchTypeRate, got[0].MatchType)
}

func TestFindMatchesRateFallback(t *testing.T) {
	design := newSkill("Design")
	webdev := newSkill("Web Development")
	writing := newSkill("Writing")

	f := newFixture("alice", "bob", "carol")
	f.offer("alice", design, 50)

	// Nobody needs anything, so only rate proximity can rank partners.
	f.offer("bob", webdev, 48)
	f.offer("bob", writing, 10)
	f.offer("carol", writing, 49.5)

	got := FindMatches(f.users["alice"], f.snap)

	require.Len(t, got, 2)
	assert.Equal(t, f.users["carol"], got[0].PartnerID)
	assert.Equal(t, MatchTypeRate, got[0].MatchType)
	assert.InDelta(t, 99.5, got[0].Score, 0.0001)
	assert.Equal(t, f.users["bob"], got[1].PartnerID)
	assert.InDelta(t, 98.0, got[1].Score, 0.0001)

	// Pairs inside a candidate are ordered by closeness.
	require.Len(t, got[1].Pairs, 2)
	assert.InDelta(t, 2.0, got[1].Pairs[0].RateDifference, 0.0001)
	assert.InDelta(t, 40.0, got[1].Pairs[1].RateDifference, 0.0001)
}

func TestFindMatchesRateFallbackCapsPairs(t *testing.T) {
	f := newFixture("alice", "bob")
	f.offer("alice", newSkill("Design"), 50)
	f.offer("alice", newSkill("Photography"), 45)

	f.offer("bob", newSkill("Web Development"), 40)
	f.offer("bob", newSkill("Writing"), 30)
	f.offer("bob", newSkill("Cooking"), 20)

	got := FindMatches(f.users["alice"], f.snap)

	require.Len(t, got, 1)
	assert.Len(t, got[0].Pairs, rateMatchLimit)
}

func TestFindMatchesNoOffers(t *testing.T) {
	f := newFixture("alice", "bob")
	f.offer("bob", newSkill("Writing"), 30)

	assert.Empty(t, FindMatches(f.users["alice"], f.snap))
}
